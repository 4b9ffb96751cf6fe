package olsr

import "time"

// generateHello builds a HELLO snapshot from the current neighbor,
// two-hop, and TDMA state. The returned value is owned outright by the
// caller; nothing in the engine retains a reference to it.
func generateHello(selfWillingness Willingness, neighbors *NeighborSet, twoHop *TwoHopSet, tdma *TdmaTable) *HelloSnapshot {
	snap := &HelloSnapshot{
		Interval:     HelloInterval,
		Willingness:  selfWillingness,
		ReservedSlot: tdma.SelfSlot().ToWire(),
	}

	for _, id := range neighbors.IDs() {
		n := neighbors.entries[id]
		code := n.LinkStatus
		if n.IsMPR && code == Symmetric {
			code = MPRNeighbor
		}
		snap.Neighbors = append(snap.Neighbors, HelloNeighbor{ID: id, LinkCode: code})
	}

	for _, th := range twoHop.List() {
		reservedSlot := int32(-1)
		if e, ok := tdma.Find(th.TwoHopID); ok {
			reservedSlot = e.Slot.ToWire()
		}
		snap.TwoHopNeighbors = append(snap.TwoHopNeighbors, HelloTwoHop{
			TwoHopID:     th.TwoHopID,
			ViaID:        th.Via,
			ReservedSlot: reservedSlot,
		})
	}

	return snap
}

// processHello runs the HELLO reception pipeline, mutating
// neighbor/two-hop/TDMA state and recomputing the MPR set. A nil payload
// yields InvalidMessageError, and a new sender that does not fit in a full
// neighbor table yields CapacityFullError with no further processing. TDMA
// and two-hop capacity rejections are not returned: they simply mean some
// information wasn't absorbed this round (non-fatal, not a crash).
func processHello(selfID NodeID, msg *HelloSnapshot, sender NodeID, now time.Time, neighbors *NeighborSet, twoHop *TwoHopSet, tdma *TdmaTable, log *Logger) error {
	if msg == nil {
		return &InvalidMessageError{Reason: "nil HELLO payload"}
	}

	// Step 1: TDMA piggy-back, sender at hop distance 1, its advertised
	// two-hop neighbors at hop distance 2 (skipping self).
	_ = tdma.Update(sender, SlotFromWire(msg.ReservedSlot), 1, now)
	for _, th := range msg.TwoHopNeighbors {
		if th.TwoHopID == selfID {
			continue
		}
		_ = tdma.Update(th.TwoHopID, SlotFromWire(th.ReservedSlot), 2, now)
	}

	// Step 2-3: symmetry determination and neighbor table refresh.
	status := Asymmetric
	for _, hn := range msg.Neighbors {
		if hn.ID == selfID {
			status = Symmetric
			break
		}
	}
	senderNeighbor, err := neighbors.Upsert(sender, status, msg.Willingness, now)
	if err != nil {
		if log != nil {
			log.Warning().Err(err).Str("sender", sender.String()).Log("failed to record neighbor from hello")
		}
		return err
	}

	// Step 4: two-hop derivation, only from senders we hold symmetric.
	if status == Symmetric {
		for _, hn := range msg.Neighbors {
			if hn.ID == selfID || hn.LinkCode != Symmetric {
				continue
			}
			if _, isNeighbor := neighbors.Find(hn.ID); isNeighbor {
				continue
			}
			_ = twoHop.Add(hn.ID, sender, now)
		}
	}

	// Step 5: MPR recomputation runs to completion before step 6 observes
	// it, so the MPR-selector flag below is always current.
	calculateMPRSet(neighbors, twoHop)

	// Step 6.
	updateMPRSelectorStatus(msg, senderNeighbor, selfID)

	// Step 7.
	tdma.CleanupExpired(now, SlotReservation)

	return nil
}
