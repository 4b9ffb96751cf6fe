package olsr

import "time"

// generateTC builds a TC snapshot from the current MPR-selector set,
// returning ok=false when there are no selectors.
func generateTC(ansn uint16, neighbors *NeighborSet) (*TCSnapshot, bool) {
	snap := &TCSnapshot{ANSN: ansn}
	for _, id := range neighbors.IDs() {
		n := neighbors.entries[id]
		if n.IsMPRSelector && n.LinkStatus == Symmetric {
			snap.Selectors = append(snap.Selectors, TCSelector{ID: id})
		}
	}
	if len(snap.Selectors) == 0 {
		return nil, false
	}
	return snap, true
}

// tcOutcome reports what processTC did, so the engine can decide whether to
// trigger a routing recomputation and/or enqueue a forward.
type tcOutcome struct {
	Duplicate       bool
	TopologyChanged bool
	Forward         bool
}

// processTC runs the TC reception pipeline: duplicate detection,
// duplicate-set insertion, per-selector topology upsert (a link with
// from == selfID is never added), and MPR-flooded forwarding eligibility.
func processTC(selfID NodeID, msg *TCSnapshot, sender, originator NodeID, seq uint16, ttl int, now time.Time, dup *DuplicateSet, topo *TopologyDB, neighbors *NeighborSet, log *Logger) (tcOutcome, error) {
	if msg == nil {
		return tcOutcome{}, &InvalidMessageError{Reason: "nil TC payload"}
	}
	if ttl <= 0 {
		return tcOutcome{}, &InvalidMessageError{Reason: "ttl == 0"}
	}

	if dup.IsDuplicate(originator, seq) {
		return tcOutcome{Duplicate: true}, nil
	}
	if err := dup.Add(originator, seq, now); err != nil {
		if log != nil {
			log.Warning().Err(err).Log("duplicate set rejected new tc record")
		}
	}

	if originator == selfID {
		// never record a link whose from or to is this node:
		// never add self-originated topology, and never forward an echo
		// of our own traffic.
		return tcOutcome{}, nil
	}

	validity := now.Add(TCValidityTime)
	changed := false
	for _, sel := range msg.Selectors {
		if sel.ID == selfID {
			continue
		}
		if err := topo.Upsert(originator, sel.ID, msg.ANSN, validity); err != nil {
			if log != nil {
				log.Debug().Err(err).Str("from", originator.String()).Str("to", sel.ID.String()).Log("topology upsert skipped")
			}
			continue
		}
		changed = true
	}

	forward := false
	if n, ok := neighbors.Find(sender); ok && n.IsMPRSelector && n.LinkStatus == Symmetric && ttl > 1 {
		forward = true
	}

	return tcOutcome{TopologyChanged: changed, Forward: forward}, nil
}
