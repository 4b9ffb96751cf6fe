package transport

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kprusa/olsrd/internal/olsr"
)

type recordingSender struct {
	mu    sync.Mutex
	sent  []olsr.ControlMessage
	calls int
}

func (s *recordingSender) Send(_ context.Context, batch []olsr.ControlMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	s.sent = append(s.sent, batch...)
	return nil
}

func (s *recordingSender) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sent)
}

func TestAdapter_PumpOutboundDeliversQueuedMessages(t *testing.T) {
	engine := olsr.NewEngine(olsr.Config{SelfID: 1, Clock: clockwork.NewFakeClock()})
	engine.Tick() // generates one hello

	sender := &recordingSender{}
	a := NewAdapter(Config{Engine: engine, Sender: sender})
	defer a.Close()

	require.NoError(t, a.PumpOutbound(context.Background()))

	require.Eventually(t, func() bool { return sender.count() >= 1 }, time.Second, time.Millisecond)
}

func TestAdapter_EmergencyHelloDamping(t *testing.T) {
	clock := clockwork.NewFakeClock()
	engine := olsr.NewEngine(olsr.Config{SelfID: 1, Clock: clock})
	sender := &recordingSender{}
	a := NewAdapter(Config{
		Engine:              engine,
		Sender:              sender,
		EmergencyHelloRates: map[time.Duration]int{time.Minute: 1},
	})
	defer a.Close()

	engine.Tick() // first hello, within the limiter's window
	clock.Advance(olsr.HelloInterval)
	engine.Tick() // second hello, still within the one-minute window

	require.NoError(t, a.PumpOutbound(context.Background()))
	require.Eventually(t, func() bool { return sender.count() >= 1 }, time.Second, time.Millisecond)

	assert.Equal(t, 1, sender.count(), "the second hello in the same window must be damped")
}
