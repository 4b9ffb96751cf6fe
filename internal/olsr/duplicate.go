package olsr

import "time"

// duplicateEntry is a (originator, sequence number) record held for
// DuplicateHold to suppress TC re-processing and re-flooding.
type duplicateEntry struct {
	Originator NodeID
	Seq        uint16
	Timestamp  time.Time
}

// DuplicateSet is the linear flood-suppression cache for TC messages.
// HELLO messages never pass through it: they are single-hop and
// per-neighbor, so duplicate suppression doesn't apply.
type DuplicateSet struct {
	cap     int
	entries []duplicateEntry
	log     *Logger
}

func newDuplicateSet(capacity int, log *Logger) *DuplicateSet {
	return &DuplicateSet{cap: capacity, log: log}
}

// IsDuplicate scans linearly for (orig, seq); the table is small enough
// (MaxDuplicateEntries) that a linear scan beats a map's bookkeeping.
func (d *DuplicateSet) IsDuplicate(orig NodeID, seq uint16) bool {
	for _, e := range d.entries {
		if e.Originator == orig && e.Seq == seq {
			return true
		}
	}
	return false
}

// Add appends a new (orig, seq) record, rejecting it with CapacityFullError
// once the table is full.
func (d *DuplicateSet) Add(orig NodeID, seq uint16, now time.Time) error {
	if len(d.entries) >= d.cap {
		if d.log != nil {
			d.log.Warning().Str("originator", orig.String()).Log("duplicate set full, rejecting new entry")
		}
		return &CapacityFullError{Table: "DuplicateSet"}
	}
	d.entries = append(d.entries, duplicateEntry{Originator: orig, Seq: seq, Timestamp: now})
	return nil
}

// Cleanup removes entries older than DuplicateHold, returning the number
// removed.
func (d *DuplicateSet) Cleanup(now time.Time) int {
	kept := d.entries[:0]
	removed := 0
	for _, e := range d.entries {
		if now.Sub(e.Timestamp) > DuplicateHold {
			removed++
			continue
		}
		kept = append(kept, e)
	}
	d.entries = kept
	return removed
}

// Len returns the number of held entries.
func (d *DuplicateSet) Len() int {
	return len(d.entries)
}
