package olsr

import "fmt"

// Errors observed by the core, per the error taxonomy. All are local: none
// of them tear down the engine, and the caller recovers automatically as
// fresh HELLO/TC traffic repopulates state.

// CapacityFullError indicates a bounded table rejected a new entry because
// it was already at its configured limit.
type CapacityFullError struct {
	Table string
}

func (e *CapacityFullError) Error() string {
	return fmt.Sprintf("olsr: %s is full", e.Table)
}

// InvalidMessageError indicates a message was discarded without any state
// mutation: wrong kind, ttl == 0, nil payload, or implausible counts.
type InvalidMessageError struct {
	Reason string
}

func (e *InvalidMessageError) Error() string {
	return fmt.Sprintf("olsr: invalid message: %s", e.Reason)
}

// StaleAnsnError indicates a TC update for a (from, to) pair was ignored
// because its ansn regressed relative to the stored value. The message's
// (originator, seq) is still recorded in the Duplicate Set.
type StaleAnsnError struct {
	From, To NodeID
	Got, Has uint16
}

func (e *StaleAnsnError) Error() string {
	return fmt.Sprintf("olsr: stale ansn for %s->%s: got %d, have %d", e.From, e.To, e.Got, e.Has)
}

// RouteGoneError indicates a routing entry's next hop is no longer a live
// symmetric neighbor; rerouting was attempted.
type RouteGoneError struct {
	Dest NodeID
}

func (e *RouteGoneError) Error() string {
	return fmt.Sprintf("olsr: route to %s is gone", e.Dest)
}

// UnreachableError indicates a destination appears nowhere in the current
// topology.
type UnreachableError struct {
	Dest NodeID
}

func (e *UnreachableError) Error() string {
	return fmt.Sprintf("olsr: %s is unreachable", e.Dest)
}
