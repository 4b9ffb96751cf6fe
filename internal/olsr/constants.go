package olsr

import "time"

// Protocol timing constants. All are
// expressed in seconds of the engine's logical clock, as time.Duration for
// convenient arithmetic against clockwork.Clock.
const (
	HelloInterval   = 2 * time.Second
	HelloTimeout    = 6 * time.Second // a.k.a. NEIGHB_HOLD_TIME
	NeighbHoldTime  = HelloTimeout
	TCInterval      = 5 * time.Second
	TCValidityTime  = 15 * time.Second
	DuplicateHold   = TCValidityTime // DUPLICATE_HOLD_TIME >= TC_VALIDITY_TIME
	SlotReservation = 30 * time.Second
	RetryBase       = 2 * time.Second
	RetryMax        = 16 * time.Second
	MaintenanceTick = 30 * time.Second
	ControlMsgTTL   = 60 * time.Second
	TimeoutScanTick = 1 * time.Second
	Quantum         = 100 * time.Millisecond
)

// Capacity constants.
const (
	MaxRetryAttempts     = 3
	MaxNeighbors         = 40
	MaxTwoHopNeighbors   = 100
	MaxRoutingEntries    = 100
	MaxNodes             = 50
	MaxDuplicateEntries  = 256
	MaxTopologyLinks     = 512
	MaxTdmaReservations  = MaxNeighbors + MaxTwoHopNeighbors
	HelloTTL         int = 1
	TCStartTTL       int = 255
)
