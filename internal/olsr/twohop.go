package olsr

import (
	"sort"
	"time"

	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// TwoHop is a (two-hop node, one-hop relay) association.
type TwoHop struct {
	TwoHopID NodeID
	Via      NodeID
	LastSeen time.Time
}

type twoHopKey struct {
	twoHop NodeID
	via    NodeID
}

// TwoHopSet is the fixed-capacity two-hop neighbor table.
type TwoHopSet struct {
	cap     int
	entries map[twoHopKey]*TwoHop
	log     *Logger
}

func newTwoHopSet(capacity int, log *Logger) *TwoHopSet {
	return &TwoHopSet{
		cap:     capacity,
		entries: make(map[twoHopKey]*TwoHop, capacity),
		log:     log,
	}
}

// Add deduplicates on (twoHop, via), refreshing LastSeen if the pair is
// already known.
func (s *TwoHopSet) Add(twoHop, via NodeID, now time.Time) error {
	key := twoHopKey{twoHop, via}
	if e, ok := s.entries[key]; ok {
		e.LastSeen = now
		return nil
	}
	if len(s.entries) >= s.cap {
		if s.log != nil {
			s.log.Warning().Str("two_hop", twoHop.String()).Str("via", via.String()).Log("two-hop table full, rejecting new entry")
		}
		return &CapacityFullError{Table: "TwoHopSet"}
	}
	s.entries[key] = &TwoHop{TwoHopID: twoHop, Via: via, LastSeen: now}
	return nil
}

// RemoveVia deletes every entry reached via the given one-hop neighbor,
// returning the number removed.
func (s *TwoHopSet) RemoveVia(via NodeID) int {
	var removed int
	for key := range s.entries {
		if key.via == via {
			delete(s.entries, key)
			removed++
		}
	}
	return removed
}

// CleanupExpired removes entries not refreshed within maxAge, returning the
// number removed.
func (s *TwoHopSet) CleanupExpired(now time.Time, maxAge time.Duration) int {
	var removed int
	for key, e := range s.entries {
		if now.Sub(e.LastSeen) > maxAge {
			delete(s.entries, key)
			removed++
		}
	}
	return removed
}

// Len returns the number of known two-hop associations.
func (s *TwoHopSet) Len() int {
	return len(s.entries)
}

// UniqueIDs returns the distinct two-hop node ids, sorted.
func (s *TwoHopSet) UniqueIDs() []NodeID {
	set := make(map[NodeID]struct{}, len(s.entries))
	for key := range s.entries {
		set[key.twoHop] = struct{}{}
	}
	ids := maps.Keys(set)
	slices.Sort(ids)
	return ids
}

// ReachableVia returns the set of two-hop ids reachable through the given
// one-hop neighbor.
func (s *TwoHopSet) ReachableVia(via NodeID) map[NodeID]struct{} {
	out := make(map[NodeID]struct{})
	for key := range s.entries {
		if key.via == via {
			out[key.twoHop] = struct{}{}
		}
	}
	return out
}

// List returns all entries, sorted by (twoHop, via) for deterministic
// iteration.
func (s *TwoHopSet) List() []TwoHop {
	out := make([]TwoHop, 0, len(s.entries))
	for _, e := range s.entries {
		out = append(out, *e)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].TwoHopID != out[j].TwoHopID {
			return out[i].TwoHopID < out[j].TwoHopID
		}
		return out[i].Via < out[j].Via
	})
	return out
}
