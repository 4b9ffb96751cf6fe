package olsr

import (
	"time"

	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// TdmaEntry is a node's claimed slot, as learned via HELLO piggy-back.
type TdmaEntry struct {
	Node        NodeID
	Slot        Slot
	HopDistance int
	LastUpdated time.Time
}

// TdmaTable coordinates TDMA slot reservations across the one- and two-hop
// neighborhood. It is shared purely via HELLO; there is no separate
// reservation protocol.
type TdmaTable struct {
	cap      int
	selfID   NodeID
	selfSlot Slot
	entries  map[NodeID]*TdmaEntry
	log      *Logger
}

func newTdmaTable(capacity int, selfID NodeID, log *Logger) *TdmaTable {
	return &TdmaTable{
		cap:     capacity,
		selfID:  selfID,
		entries: make(map[NodeID]*TdmaEntry, capacity),
		log:     log,
	}
}

// SetSelfSlot sets this node's own reserved slot, used by hello.go when
// generating a HELLO snapshot.
func (t *TdmaTable) SetSelfSlot(slot Slot) {
	t.selfSlot = slot
}

// SelfSlot returns this node's own reserved slot.
func (t *TdmaTable) SelfSlot() Slot {
	return t.selfSlot
}

// Update upserts a reservation, clearing it (removing the entry) when slot
// is NoSlot or node is this node.
func (t *TdmaTable) Update(node NodeID, slot Slot, hopDistance int, now time.Time) error {
	if node == t.selfID {
		return nil
	}
	if _, set := slot.Get(); !set {
		delete(t.entries, node)
		return nil
	}
	if e, ok := t.entries[node]; ok {
		e.Slot = slot
		e.HopDistance = hopDistance
		e.LastUpdated = now
		return nil
	}
	if len(t.entries) >= t.cap {
		if t.log != nil {
			t.log.Warning().Str("node", node.String()).Log("tdma table full, rejecting reservation")
		}
		return &CapacityFullError{Table: "TdmaTable"}
	}
	t.entries[node] = &TdmaEntry{Node: node, Slot: slot, HopDistance: hopDistance, LastUpdated: now}
	return nil
}

// Clear removes a node's reservation unconditionally (used by
// handle_failure when a neighbor times out).
func (t *TdmaTable) Clear(node NodeID) {
	delete(t.entries, node)
}

// IsSlotAvailable reports whether slot is free: not in use by this node,
// and not referenced by any known reservation.
func (t *TdmaTable) IsSlotAvailable(slot uint32) bool {
	if v, set := t.selfSlot.Get(); set && v == slot {
		return false
	}
	for _, e := range t.entries {
		if v, set := e.Slot.Get(); set && v == slot {
			return false
		}
	}
	return true
}

// OccupiedSlots returns the deduplicated, sorted union of all known slot
// reservations, including this node's own.
func (t *TdmaTable) OccupiedSlots() []uint32 {
	set := make(map[uint32]struct{})
	if v, ok := t.selfSlot.Get(); ok {
		set[v] = struct{}{}
	}
	for _, e := range t.entries {
		if v, ok := e.Slot.Get(); ok {
			set[v] = struct{}{}
		}
	}
	slots := maps.Keys(set)
	slices.Sort(slots)
	return slots
}

// CleanupExpired removes reservations not refreshed within maxAge,
// returning the number removed.
func (t *TdmaTable) CleanupExpired(now time.Time, maxAge time.Duration) int {
	var removed int
	for node, e := range t.entries {
		if now.Sub(e.LastUpdated) > maxAge {
			delete(t.entries, node)
			removed++
		}
	}
	return removed
}

// Find returns a node's reservation, if any.
func (t *TdmaTable) Find(node NodeID) (*TdmaEntry, bool) {
	e, ok := t.entries[node]
	return e, ok
}
