// Package transport is the external collaborator the protocol engine in
// internal/olsr never talks to directly: it drains outbound control
// messages and inbound link-failure reports from an Engine, batches
// outbound sends, and damps the emergency-HELLO bursts a flapping
// neighborhood can otherwise produce. Wire serialization and the physical
// radio/MAC layer live beneath Sender, not here; the adapter has no
// inbound path.
package transport

import (
	"context"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/joeycumines/go-catrate"
	"github.com/joeycumines/go-microbatch"

	"github.com/kprusa/olsrd/internal/olsr"
)

// Sender is the radio/MAC collaborator this adapter hands batched outbound
// traffic to. Implementations own wire serialization.
type Sender interface {
	Send(ctx context.Context, batch []olsr.ControlMessage) error
}

// Config configures a new Adapter.
type Config struct {
	Engine *olsr.Engine
	Sender Sender
	Logger *olsr.Logger
	Clock  clockwork.Clock

	// BatchConfig tunes the outbound microbatch.Batcher. A nil value uses
	// microbatch's own defaults (16 messages or 50ms, whichever first).
	BatchConfig *microbatch.BatcherConfig

	// EmergencyHelloRates bounds real-wall-clock HELLO bursts, independent
	// of the logical-clock interval scheduling inside the engine. A nil map
	// disables damping.
	EmergencyHelloRates map[time.Duration]int
}

// Adapter is the transport-facing collaborator: it owns the
// goroutine-driven, wall-clock-paced dependencies that the engine's
// single-threaded, no-I/O core must not.
type Adapter struct {
	engine  *olsr.Engine
	sender  Sender
	log     *olsr.Logger
	clock   clockwork.Clock
	batcher *microbatch.Batcher[olsr.ControlMessage]
	limiter *catrate.Limiter
}

// NewAdapter builds an Adapter. Call Close when done to drain and stop the
// underlying batcher.
func NewAdapter(cfg Config) *Adapter {
	clock := cfg.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	a := &Adapter{
		engine: cfg.Engine,
		sender: cfg.Sender,
		log:    cfg.Logger,
		clock:  clock,
	}
	a.batcher = microbatch.NewBatcher(cfg.BatchConfig, func(ctx context.Context, jobs []olsr.ControlMessage) error {
		if a.sender == nil {
			return nil
		}
		return a.sender.Send(ctx, jobs)
	})
	if len(cfg.EmergencyHelloRates) > 0 {
		a.limiter = catrate.NewLimiter(cfg.EmergencyHelloRates)
	}
	return a
}

// PumpOutbound drains every pending outbound control message from the
// engine and submits it to the batcher, damping HELLO bursts against
// EmergencyHelloRates when configured. Callers run this after each
// Engine.Tick/Deliver that may have produced outbound traffic.
func (a *Adapter) PumpOutbound(ctx context.Context) error {
	for {
		msg, ok := a.engine.Drain()
		if !ok {
			return nil
		}
		if msg.Kind == olsr.MsgHello && a.limiter != nil {
			if _, allowed := a.limiter.Allow("hello"); !allowed {
				if a.log != nil {
					a.log.Debug().Log("emergency hello damped")
				}
				continue
			}
		}
		if _, err := a.batcher.Submit(ctx, msg); err != nil {
			if a.log != nil {
				a.log.Warning().Err(err).Log("outbound submit failed")
			}
			return err
		}
	}
}

// PumpLinkFailures drains the engine's link-failure channel without
// blocking, logging each report. A transport that needs these events
// elsewhere (metrics, alerting) should read LinkFailures itself instead.
func (a *Adapter) PumpLinkFailures() {
	for {
		select {
		case f := <-a.engine.LinkFailures():
			if a.log != nil {
				a.log.Info().Str("dest", f.Dest.String()).Log("destination unreachable")
			}
		default:
			return
		}
	}
}

// Close stops the outbound batcher, flushing any partial batch first.
func (a *Adapter) Close() error {
	return a.batcher.Close()
}
