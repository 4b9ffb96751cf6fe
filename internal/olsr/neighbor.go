package olsr

import (
	"time"

	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// Neighbor is this node's view of a one-hop link.
type Neighbor struct {
	ID              NodeID
	LinkStatus      LinkStatus
	Willingness     Willingness
	LastSeen        time.Time
	LastHelloTime   time.Time
	IsMPR           bool
	IsMPRSelector   bool
}

// Live reports whether the neighbor has been heard from within
// NeighbHoldTime of now (the liveness test routing uses before trusting a
// next hop).
func (n *Neighbor) Live(now time.Time) bool {
	return now.Sub(n.LastHelloTime) < NeighbHoldTime
}

// NeighborSet is the fixed-capacity one-hop neighbor table.
type NeighborSet struct {
	cap     int
	entries map[NodeID]*Neighbor
	log     *Logger
}

func newNeighborSet(capacity int, log *Logger) *NeighborSet {
	return &NeighborSet{
		cap:     capacity,
		entries: make(map[NodeID]*Neighbor, capacity),
		log:     log,
	}
}

// Upsert creates or refreshes a neighbor entry. link symmetry is
// enforced by the caller: this method merely records whatever LinkStatus it
// is told, which hello.go only ever sets to Symmetric when the sender's own
// HELLO lists this node.
func (s *NeighborSet) Upsert(id NodeID, status LinkStatus, willingness Willingness, now time.Time) (*Neighbor, error) {
	if n, ok := s.entries[id]; ok {
		n.LinkStatus = status
		n.Willingness = willingness
		n.LastSeen = now
		n.LastHelloTime = now
		return n, nil
	}
	if len(s.entries) >= s.cap {
		if s.log != nil {
			s.log.Warning().Str("node", id.String()).Log("neighbor table full, rejecting new neighbor")
		}
		return nil, &CapacityFullError{Table: "NeighborSet"}
	}
	n := &Neighbor{
		ID:            id,
		LinkStatus:    status,
		Willingness:   willingness,
		LastSeen:      now,
		LastHelloTime: now,
	}
	s.entries[id] = n
	return n, nil
}

// Find returns the neighbor entry for id, if any.
func (s *NeighborSet) Find(id NodeID) (*Neighbor, bool) {
	n, ok := s.entries[id]
	return n, ok
}

// Len returns the number of known neighbors.
func (s *NeighborSet) Len() int {
	return len(s.entries)
}

// IDs returns the known neighbor ids in a stable, sorted order, useful for
// deterministic iteration (MPR selection tie-breaks, tests, logs).
func (s *NeighborSet) IDs() []NodeID {
	ids := maps.Keys(s.entries)
	slices.Sort(ids)
	return ids
}

// Remove deletes a neighbor unconditionally.
func (s *NeighborSet) Remove(id NodeID) {
	delete(s.entries, id)
}

// CheckTimeouts removes every neighbor whose last HELLO predates
// HelloTimeout, returning the removed ids in a stable order. Per
// Neighbor's lifecycle, the caller (Engine) is responsible for the
// remaining handle_failure side effects: purging two-hop entries reached
// via the failed neighbor, clearing its TDMA reservation, and marking
// topology changed.
func (s *NeighborSet) CheckTimeouts(now time.Time) []NodeID {
	var failed []NodeID
	for id, n := range s.entries {
		if now.Sub(n.LastHelloTime) > HelloTimeout {
			failed = append(failed, id)
		}
	}
	slices.Sort(failed)
	for _, id := range failed {
		delete(s.entries, id)
		if s.log != nil {
			s.log.Info().Str("node", id.String()).Log("neighbor timed out")
		}
	}
	return failed
}
