package olsr

import "time"

// HelloNeighbor is one entry of a HELLO snapshot's neighbor list.
type HelloNeighbor struct {
	ID       NodeID
	LinkCode LinkStatus
}

// HelloTwoHop is one entry of a HELLO snapshot's two-hop-neighbor list.
type HelloTwoHop struct {
	TwoHopID     NodeID
	ViaID        NodeID
	ReservedSlot int32 // -1 means none, per the wire convention
}

// HelloSnapshot is the structured payload of a HELLO message, owned
// outright by its caller (no shared static buffers, unlike the source
// patterns this replaces).
type HelloSnapshot struct {
	Interval        time.Duration
	Willingness     Willingness
	ReservedSlot    int32 // -1 means none
	Neighbors       []HelloNeighbor
	TwoHopNeighbors []HelloTwoHop
}

// TCSelector is one entry of a TC snapshot's MPR-selector list.
type TCSelector struct {
	ID NodeID
}

// TCSnapshot is the structured payload of a TC message.
type TCSnapshot struct {
	ANSN       uint16
	Selectors  []TCSelector
}

// ControlMessage is an outbound structured control message owned by the
// Control Queue until drained by the transport.
type ControlMessage struct {
	Kind        MsgKind
	Payload     any // *HelloSnapshot or *TCSnapshot
	Originator  NodeID
	Seq         uint16
	TTL         int
	HopCount    int
	Destination *NodeID // nil means "broadcast to all neighbors"

	CreatedAt   time.Time
	RetryCount  int
	NextRetryAt time.Time
}

// InboundMessage is a structured message delivered to the engine by the
// transport.
type InboundMessage struct {
	Kind       MsgKind
	Payload    any
	Sender     NodeID
	Originator NodeID
	Seq        uint16
	TTL        int
	HopCount   int
}

// LinkFailure is the structured event the core emits to the transport when
// a routing query resolves to Unreachable.
type LinkFailure struct {
	Dest           NodeID
	FailedNextHop  NodeID
	HadFailedNext  bool
}
