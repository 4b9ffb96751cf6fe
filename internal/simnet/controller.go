package simnet

import (
	"sort"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/kprusa/olsrd/internal/olsr"
)

// Controller is aware of the entire network topology and plays the role of
// the wireless medium: it decides, at each scripted time quantum, which
// directed links are up, and ferries control messages drained from one
// node's engine to every node it currently reaches. A real ad-hoc network
// has no such centralized view; this exists only for simulation.
type Controller struct {
	topology *Topology
	engines  map[olsr.NodeID]*olsr.Engine
	clock    clockwork.FakeClock
	step     time.Duration
}

// NewController builds a Controller over engines, keyed by each node's
// NodeID, advancing clock by step for every scripted time quantum.
func NewController(topology *Topology, engines map[olsr.NodeID]*olsr.Engine, clock clockwork.FakeClock, step time.Duration) *Controller {
	return &Controller{topology: topology, engines: engines, clock: clock, step: step}
}

// Run advances the simulation through quanta [0, steps), ticking every
// engine and delivering whatever it drained to every node currently
// reachable from it, before advancing the clock by one step.
func (c *Controller) Run(steps int) {
	ids := make([]olsr.NodeID, 0, len(c.engines))
	for id := range c.engines {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	for quantum := 0; quantum < steps; quantum++ {
		for _, id := range ids {
			c.engines[id].Tick()
		}
		for _, src := range ids {
			for {
				msg, ok := c.engines[src].Drain()
				if !ok {
					break
				}
				c.broadcast(src, msg, quantum)
			}
		}
		c.clock.Advance(c.step)
	}
}

// broadcast hands msg to every node reachable from src at the given
// scripted quantum. A Destination pins delivery to a single node
// (unicast forward); nil means every currently-up neighbor receives it.
func (c *Controller) broadcast(src olsr.NodeID, msg olsr.ControlMessage, quantum int) {
	inbound := olsr.InboundMessage{
		Kind:       msg.Kind,
		Payload:    msg.Payload,
		Sender:     src,
		Originator: msg.Originator,
		Seq:        msg.Seq,
		TTL:        msg.TTL,
		HopCount:   msg.HopCount,
	}

	if msg.Destination != nil {
		if engine, ok := c.engines[*msg.Destination]; ok && c.topology.IsUp(src, *msg.Destination, quantum) {
			_ = engine.Deliver(inbound)
		}
		return
	}

	for dst, engine := range c.engines {
		if dst == src {
			continue
		}
		if !c.topology.IsUp(src, dst, quantum) {
			continue
		}
		_ = engine.Deliver(inbound)
	}
}
