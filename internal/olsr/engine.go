package olsr

import (
	"context"
	"time"

	"github.com/jonboulle/clockwork"
)

// Config configures a new Engine. Zero-valued capacity/interval fields fall
// back to the protocol defaults in constants.go.
type Config struct {
	SelfID      NodeID
	Willingness Willingness

	// Clock drives every timer in Tick. Defaults to clockwork.NewRealClock()
	// when nil; tests pass a clockwork.NewFakeClock() instead.
	Clock clockwork.Clock

	// Logger receives structured diagnostics. A nil Logger is valid and
	// discards everything.
	Logger *Logger

	NeighborCapacity  int
	TwoHopCapacity    int
	TdmaCapacity      int
	DuplicateCapacity int
	TopologyCapacity  int
	QueueCapacity     int
	RoutingCapacity   int

	HelloInterval time.Duration
	TCInterval    time.Duration
}

func (c *Config) setDefaults() {
	if c.Clock == nil {
		c.Clock = clockwork.NewRealClock()
	}
	if c.NeighborCapacity == 0 {
		c.NeighborCapacity = MaxNeighbors
	}
	if c.TwoHopCapacity == 0 {
		c.TwoHopCapacity = MaxTwoHopNeighbors
	}
	if c.TdmaCapacity == 0 {
		c.TdmaCapacity = MaxTdmaReservations
	}
	if c.DuplicateCapacity == 0 {
		c.DuplicateCapacity = MaxDuplicateEntries
	}
	if c.TopologyCapacity == 0 {
		c.TopologyCapacity = MaxTopologyLinks
	}
	if c.QueueCapacity == 0 {
		c.QueueCapacity = MaxNeighbors + MaxTopologyLinks
	}
	if c.RoutingCapacity == 0 {
		c.RoutingCapacity = MaxRoutingEntries
	}
	if c.HelloInterval == 0 {
		c.HelloInterval = HelloInterval
	}
	if c.TCInterval == 0 {
		c.TCInterval = TCInterval
	}
	if c.Willingness == 0 {
		c.Willingness = WillDefault
	}
}

// Engine is the single-threaded cooperative OLSR actor (package doc). Every
// exported method is safe to call only from the one goroutine that owns it;
// concurrent callers (a transport, a simulation driver) must serialize
// through Deliver/Tick/Drain themselves.
type Engine struct {
	cfg    Config
	clock  clockwork.Clock
	log    *Logger
	selfID NodeID

	neighbors *NeighborSet
	twoHop    *TwoHopSet
	tdma      *TdmaTable
	dup       *DuplicateSet
	topology  *TopologyDB
	queue     *ControlQueue
	routing   *RoutingTable

	seq  uint16
	ansn uint16

	topologyChanged bool
	lastHello       time.Time
	lastTC          time.Time
	lastMaintenance time.Time
	lastTimeoutScan time.Time

	failures chan LinkFailure

	helloSent   uint64
	tcSent      uint64
	tcForwarded uint64
}

// NewEngine builds an Engine from cfg, starting with empty tables and timers
// set so the first Tick immediately generates a HELLO.
func NewEngine(cfg Config) *Engine {
	cfg.setDefaults()
	log := cfg.Logger
	e := &Engine{
		cfg:       cfg,
		clock:     cfg.Clock,
		log:       log,
		selfID:    cfg.SelfID,
		neighbors: newNeighborSet(cfg.NeighborCapacity, log),
		twoHop:    newTwoHopSet(cfg.TwoHopCapacity, log),
		tdma:      newTdmaTable(cfg.TdmaCapacity, cfg.SelfID, log),
		dup:       newDuplicateSet(cfg.DuplicateCapacity, log),
		topology:  newTopologyDB(cfg.TopologyCapacity, log),
		queue:     newControlQueue(cfg.QueueCapacity, log),
		routing:   newRoutingTable(cfg.RoutingCapacity, log),
		failures:  make(chan LinkFailure, cfg.NeighborCapacity),
	}
	return e
}

// LinkFailures returns the channel on which the engine reports destinations
// that became unreachable mid-query. It is buffered at neighbor capacity;
// a transport that never drains it will eventually see GetNextHop's report
// dropped (with a warning logged) rather than block the engine, since Tick/Deliver/GetNextHop
// never perform blocking sends on it.
func (e *Engine) LinkFailures() <-chan LinkFailure {
	return e.failures
}

func (e *Engine) reportFailure(f LinkFailure) {
	select {
	case e.failures <- f:
	default:
		if e.log != nil {
			e.log.Warning().Str("dest", f.Dest.String()).Log("link failure channel full, dropping report")
		}
	}
}

func (e *Engine) nextSeq() uint16 {
	e.seq++
	return e.seq
}

// Deliver hands one transport-received message to the engine. HELLO
// processing and TC processing are mutually exclusive per call: each
// InboundMessage carries exactly one kind.
func (e *Engine) Deliver(msg InboundMessage) error {
	now := e.clock.Now()
	switch msg.Kind {
	case MsgHello:
		hello, _ := msg.Payload.(*HelloSnapshot)
		if err := processHello(e.selfID, hello, msg.Sender, now, e.neighbors, e.twoHop, e.tdma, e.log); err != nil {
			return err
		}
		// Symmetry transitions change the one-hop routing edges regardless
		// of topology database churn, so routing is always recomputed after
		// a HELLO.
		e.topologyChanged = true
		return nil

	case MsgTC:
		tc, _ := msg.Payload.(*TCSnapshot)
		outcome, err := processTC(e.selfID, tc, msg.Sender, msg.Originator, msg.Seq, msg.TTL, now, e.dup, e.topology, e.neighbors, e.log)
		if err != nil {
			return err
		}
		if outcome.Duplicate {
			return nil
		}
		if outcome.TopologyChanged {
			e.topologyChanged = true
		}
		if outcome.Forward && tc != nil {
			fwd := ControlMessage{
				Kind:       MsgTC,
				Payload:    &TCSnapshot{ANSN: tc.ANSN, Selectors: tc.Selectors},
				Originator: msg.Originator,
				Seq:        msg.Seq,
				TTL:        msg.TTL - 1,
				HopCount:   msg.HopCount + 1,
			}
			if err := e.queue.Push(fwd, now); err != nil {
				if e.log != nil {
					e.log.Debug().Err(err).Log("tc forward dropped")
				}
			} else {
				e.tcForwarded++
			}
		}
		return nil

	default:
		return &InvalidMessageError{Reason: "unknown message kind"}
	}
}

// Tick advances the engine by one quantum: HELLO/TC
// timers, neighbor timeout scanning with cascading cleanup, periodic table
// maintenance, control queue retry processing, and a final conditional
// routing recomputation. Callers drive this on the cadence described by
// Quantum; Run wraps it in a clock-driven loop.
func (e *Engine) Tick() {
	now := e.clock.Now()

	if e.lastHello.IsZero() || now.Sub(e.lastHello) >= e.cfg.HelloInterval {
		e.sendHello(now)
		e.lastHello = now
	}

	if e.lastTimeoutScan.IsZero() || now.Sub(e.lastTimeoutScan) >= TimeoutScanTick {
		failed := e.neighbors.CheckTimeouts(now)
		for _, id := range failed {
			e.handleNeighborFailure(id)
		}
		if len(failed) > 0 {
			// A neighbor failure always triggers an emergency HELLO that
			// bypasses the normal interval.
			e.sendHello(now)
			e.lastHello = now
		}
		e.lastTimeoutScan = now
	}

	if e.lastTC.IsZero() || now.Sub(e.lastTC) >= e.cfg.TCInterval {
		e.sendTC(now)
		e.lastTC = now
	}

	if e.lastMaintenance.IsZero() || now.Sub(e.lastMaintenance) >= MaintenanceTick {
		e.dup.Cleanup(now)
		if e.topology.CleanupExpired(now) > 0 {
			e.topologyChanged = true
		}
		e.twoHop.CleanupExpired(now, NeighbHoldTime)
		e.tdma.CleanupExpired(now, SlotReservation)
		e.queue.CleanupExpired(now)
		e.lastMaintenance = now
	}

	e.queue.ProcessRetry(now)

	if e.topologyChanged {
		updateRoutingTable(e.selfID, e.neighbors, e.topology, e.routing, now)
		e.topologyChanged = false
	}
}

func (e *Engine) sendHello(now time.Time) {
	snap := generateHello(e.cfg.Willingness, e.neighbors, e.twoHop, e.tdma)
	msg := ControlMessage{
		Kind:       MsgHello,
		Payload:    snap,
		Originator: e.selfID,
		Seq:        e.nextSeq(),
		TTL:        HelloTTL,
	}
	if err := e.queue.Push(msg, now); err != nil {
		if e.log != nil {
			e.log.Debug().Err(err).Log("hello generation dropped")
		}
		return
	}
	e.helloSent++
}

func (e *Engine) sendTC(now time.Time) {
	if mprSelectorCount(e.neighbors) == 0 {
		// ansn only advances on generations that are actually sent.
		return
	}
	e.ansn++
	snap, ok := generateTC(e.ansn, e.neighbors)
	if !ok {
		e.ansn--
		return
	}
	msg := ControlMessage{
		Kind:       MsgTC,
		Payload:    snap,
		Originator: e.selfID,
		Seq:        e.nextSeq(),
		TTL:        TCStartTTL,
	}
	if err := e.queue.Push(msg, now); err != nil {
		e.ansn--
		if e.log != nil {
			e.log.Debug().Err(err).Log("tc generation dropped")
		}
		return
	}
	e.tcSent++
}

// handleNeighborFailure runs the cascading cleanup a timed-out neighbor
// requires: its two-hop entries, its TDMA reservation, and a routing
// recomputation.
func (e *Engine) handleNeighborFailure(id NodeID) {
	e.twoHop.RemoveVia(id)
	e.tdma.Clear(id)
	calculateMPRSet(e.neighbors, e.twoHop)
	e.topologyChanged = true
	if e.log != nil {
		e.log.Info().Str("node", id.String()).Log("neighbor failure handled")
	}
}

// Run drives Tick on Quantum boundaries using the configured clock until ctx
// is done. It never returns a non-nil error itself; the return value mirrors
// ctx.Err() so callers can distinguish a clean shutdown from cancellation.
func (e *Engine) Run(ctx context.Context) error {
	ticker := e.clock.NewTicker(Quantum)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.Chan():
			e.Tick()
		}
	}
}

// Drain pops the oldest pending outbound control message, if any.
func (e *Engine) Drain() (ControlMessage, bool) {
	return e.queue.Pop()
}

// GetNextHop resolves dest to a next hop, attempting one
// reactive rerouting pass when the recorded next hop is no longer a live
// symmetric neighbor. A destination that remains unreachable after rerouting
// is reported on LinkFailures.
func (e *Engine) GetNextHop(dest NodeID) NextHop {
	if dest == e.selfID {
		return NextHop{Kind: NextHopIsSelf}
	}

	now := e.clock.Now()
	entry, ok := e.routing.Find(dest)
	if ok {
		if n, live := e.neighbors.Find(entry.NextHop); live && n.Live(now) && n.LinkStatus == Symmetric {
			return NextHop{Kind: NextHopRoute, NextHop: entry.NextHop, Metric: entry.Metric, HopCount: entry.HopCount}
		}
		// Next hop went stale between routing recomputations: invalidate
		// and reroute once before giving up.
		e.routing.invalidate(dest)
		updateRoutingTable(e.selfID, e.neighbors, e.topology, e.routing, now)
		if retried, ok := e.routing.Find(dest); ok {
			if n, live := e.neighbors.Find(retried.NextHop); live && n.Live(now) && n.LinkStatus == Symmetric {
				return NextHop{Kind: NextHopRoute, NextHop: retried.NextHop, Metric: retried.Metric, HopCount: retried.HopCount}
			}
		}
		e.reportFailure(LinkFailure{Dest: dest, FailedNextHop: entry.NextHop, HadFailedNext: true})
		return NextHop{Kind: NextHopUnreachable}
	}

	if _, known := e.topology.MaxANSN(dest); known {
		return NextHop{Kind: NextHopNoRoute}
	}
	for _, l := range e.topology.GetAll(now) {
		if l.To == dest {
			return NextHop{Kind: NextHopNoRoute}
		}
	}
	for _, id := range e.neighbors.IDs() {
		if id == dest {
			return NextHop{Kind: NextHopNoRoute}
		}
	}
	e.reportFailure(LinkFailure{Dest: dest})
	return NextHop{Kind: NextHopUnreachable}
}

// EngineStats is a point-in-time snapshot of the engine's table sizes and
// lifetime message counters, read by internal/olsr's Collector and by any
// caller that wants a cheap diagnostic view without reaching into the
// private tables directly.
type EngineStats struct {
	Neighbors      int
	MPRs           int
	MPRSelectors   int
	TwoHop         int
	TdmaEntries    int
	DuplicateCount int
	TopologyLinks  int
	RoutingEntries int
	QueueLength    int

	HelloSent   uint64
	TCSent      uint64
	TCForwarded uint64
}

// Stats returns a snapshot of the engine's current state. Safe to call only
// from the engine's owning goroutine, like every other Engine method.
func (e *Engine) Stats() EngineStats {
	mprs, selectors := 0, 0
	for _, id := range e.neighbors.IDs() {
		n := e.neighbors.entries[id]
		if n.IsMPR {
			mprs++
		}
		if n.IsMPRSelector && n.LinkStatus == Symmetric {
			selectors++
		}
	}
	return EngineStats{
		Neighbors:      e.neighbors.Len(),
		MPRs:           mprs,
		MPRSelectors:   selectors,
		TwoHop:         e.twoHop.Len(),
		TdmaEntries:    len(e.tdma.entries),
		DuplicateCount: e.dup.Len(),
		TopologyLinks:  e.topology.Len(),
		RoutingEntries: e.routing.Len(),
		QueueLength:    e.queue.Len(),
		HelloSent:      e.helloSent,
		TCSent:         e.tcSent,
		TCForwarded:    e.tcForwarded,
	}
}
