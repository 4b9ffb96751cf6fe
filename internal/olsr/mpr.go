package olsr

// calculateMPRSet implements RFC 3626 section 8.3 multipoint relay
// selection, operating in place on neighbors and twoHop. It is
// deterministic: candidate iteration order is always the sorted neighbor
// id order, so repeated calls with unchanged inputs produce identical
// results.
func calculateMPRSet(neighbors *NeighborSet, twoHop *TwoHopSet) {
	for _, id := range neighbors.IDs() {
		neighbors.entries[id].IsMPR = false
	}

	twoHopIDs := twoHop.UniqueIDs()
	if len(twoHopIDs) == 0 {
		return
	}

	uncovered := make(map[NodeID]struct{}, len(twoHopIDs))
	for _, id := range twoHopIDs {
		uncovered[id] = struct{}{}
	}

	reach := make(map[NodeID]map[NodeID]struct{})
	candidateIDs := make([]NodeID, 0)
	for _, id := range neighbors.IDs() {
		n := neighbors.entries[id]
		if n.LinkStatus != Symmetric {
			continue
		}
		r := twoHop.ReachableVia(id)
		reach[id] = r
		candidateIDs = append(candidateIDs, id)
	}

	selectFn := func(id NodeID) {
		n := neighbors.entries[id]
		n.IsMPR = true
		for twoHopID := range reach[id] {
			delete(uncovered, twoHopID)
		}
	}

	// Step 3: willingness-always neighbors always relay.
	for _, id := range candidateIDs {
		if neighbors.entries[id].Willingness == WillAlways {
			selectFn(id)
		}
	}

	// Step 4: neighbors that are the *only* path to some two-hop node.
	for _, twoHopID := range twoHopIDs {
		if _, still := uncovered[twoHopID]; !still {
			continue
		}
		var only NodeID
		count := 0
		for _, id := range candidateIDs {
			n := neighbors.entries[id]
			if n.Willingness == WillNever || n.IsMPR {
				continue
			}
			if _, ok := reach[id][twoHopID]; ok {
				only = id
				count++
			}
		}
		if count == 1 {
			selectFn(only)
		}
	}

	// Step 5: greedy coverage maximization, ties broken by higher
	// willingness then by first-encountered (stable) order.
	for len(uncovered) > 0 {
		var best NodeID
		bestCovers := -1
		bestWill := Willingness(0)
		found := false
		for _, id := range candidateIDs {
			n := neighbors.entries[id]
			if n.Willingness == WillNever || n.IsMPR {
				continue
			}
			covers := 0
			for twoHopID := range reach[id] {
				if _, still := uncovered[twoHopID]; still {
					covers++
				}
			}
			if covers == 0 {
				continue
			}
			if !found || covers > bestCovers || (covers == bestCovers && n.Willingness > bestWill) {
				found = true
				best = id
				bestCovers = covers
				bestWill = n.Willingness
			}
		}
		if !found {
			// No remaining candidate can reduce Uncovered; topology
			// permits no full cover. Observable, not a crash.
			break
		}
		selectFn(best)
	}
}

// updateMPRSelectorStatus sets sender's IsMPRSelector flag based on whether
// its latest HELLO lists selfID with link_code MPR_NEIGH. It always
// overwrites the flag, since the flag reflects only the latest HELLO.
func updateMPRSelectorStatus(hello *HelloSnapshot, sender *Neighbor, selfID NodeID) {
	isSelector := false
	for _, hn := range hello.Neighbors {
		if hn.ID == selfID && hn.LinkCode == MPRNeighbor {
			isSelector = true
			break
		}
	}
	sender.IsMPRSelector = isSelector
}

// mprSelectorCount reports how many neighbors currently select this node
// as an MPR, driving the "only generate TC when selector_count > 0" rule.
func mprSelectorCount(neighbors *NeighborSet) int {
	count := 0
	for _, id := range neighbors.IDs() {
		n := neighbors.entries[id]
		if n.IsMPRSelector && n.LinkStatus == Symmetric {
			count++
		}
	}
	return count
}
