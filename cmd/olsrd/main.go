// Command olsrd runs a single OLSR node as a long-lived daemon: it builds
// one olsr.Engine, hands its outbound traffic and link-failure reports to a
// transport.Adapter, and serves protocol metrics over HTTP until signaled.
//
// This binary is the "per-node daemon" framing the protocol spec opens
// with. It has no real radio/MAC layer wired in (that layer, and the wire
// format it would use, are explicitly external collaborators the core
// never touches) -- outbound batches are logged instead of transmitted,
// and there is no inbound source, so a freshly started node stays lonely
// until something calls Engine.Deliver for it. cmd/olsrsim is where
// multi-node behavior is actually exercised.
package main

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/joeycumines/izerolog"
	"github.com/joeycumines/logiface"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	flag "github.com/spf13/pflag"

	"github.com/kprusa/olsrd/internal/olsr"
	"github.com/kprusa/olsrd/internal/transport"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "olsrd: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	selfIDFlag := flag.Uint32("self-id", 0, "this node's id (required)")
	willingnessFlag := flag.Uint8("willingness", uint8(olsr.WillDefault), "MPR willingness, 1 (low) to 7 (always); 0 selects the default (3)")
	metricsAddrFlag := flag.String("metrics-addr", "0.0.0.0:9626", "address to listen on for prometheus /metrics")
	helloIntervalFlag := flag.Duration("hello-interval", olsr.HelloInterval, "HELLO beacon period")
	tcIntervalFlag := flag.Duration("tc-interval", olsr.TCInterval, "TC emission period")
	verboseFlag := flag.Bool("verbose", false, "enable debug logging")
	flag.Parse()

	zl := zerolog.New(os.Stderr).With().Timestamp().Logger()
	if *verboseFlag {
		zl = zl.Level(zerolog.DebugLevel)
	} else {
		zl = zl.Level(zerolog.InfoLevel)
	}
	log := logiface.New[*izerolog.Event](izerolog.WithZerolog(zl))

	selfID := olsr.NodeID(*selfIDFlag)
	if selfID == 0 {
		return fmt.Errorf("-self-id is required and must be nonzero")
	}

	engine := olsr.NewEngine(olsr.Config{
		SelfID:        selfID,
		Willingness:   olsr.Willingness(*willingnessFlag),
		Clock:         clockwork.NewRealClock(),
		Logger:        log,
		HelloInterval: *helloIntervalFlag,
		TCInterval:    *tcIntervalFlag,
	})

	collector := olsr.NewCollector(engine, selfID)
	registry := prometheus.NewRegistry()
	if err := registry.Register(collector); err != nil {
		return fmt.Errorf("register metrics collector: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		log.Info().Str("signal", sig.String()).Log("received shutdown signal")
		cancel()
	}()

	metricsErrCh := make(chan error, 1)
	listener, err := net.Listen("tcp", *metricsAddrFlag)
	if err != nil {
		return fmt.Errorf("listen on metrics address: %w", err)
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	httpServer := &http.Server{Handler: mux}
	go func() {
		log.Info().Str("address", listener.Addr().String()).Log("metrics server listening")
		if err := httpServer.Serve(listener); err != nil && err != http.ErrServerClosed {
			metricsErrCh <- err
		}
	}()

	adapter := transport.NewAdapter(transport.Config{
		Engine: engine,
		Sender: logSender{log: log},
		Logger: log,
		Clock:  clockwork.NewRealClock(),
		EmergencyHelloRates: map[time.Duration]int{
			time.Second: 5,
		},
	})
	defer func() {
		if err := adapter.Close(); err != nil {
			log.Warning().Err(err).Log("adapter close failed")
		}
	}()

	engineErrCh := make(chan error, 1)
	go func() {
		if err := engine.Run(ctx); err != nil && err != context.Canceled {
			engineErrCh <- err
		}
	}()

	pumpTicker := time.NewTicker(olsr.Quantum)
	defer pumpTicker.Stop()
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case <-pumpTicker.C:
				if err := adapter.PumpOutbound(ctx); err != nil {
					log.Warning().Err(err).Log("pump outbound failed")
				}
				adapter.PumpLinkFailures()
			}
		}
	}()

	log.Info().
		Str("self_id", selfID.String()).
		Log("olsrd started")

	select {
	case <-ctx.Done():
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		_ = httpServer.Shutdown(shutdownCtx)
		return nil
	case err := <-engineErrCh:
		return fmt.Errorf("engine run failed: %w", err)
	case err := <-metricsErrCh:
		return fmt.Errorf("metrics server failed: %w", err)
	}
}

// logSender is the transport.Sender stand-in for a real radio/MAC layer:
// it logs each batch instead of transmitting it, since serialization and
// the physical link are external collaborators this repository doesn't
// implement.
type logSender struct {
	log *olsr.Logger
}

func (s logSender) Send(_ context.Context, batch []olsr.ControlMessage) error {
	for _, msg := range batch {
		s.log.Debug().
			Int("kind", int(msg.Kind)).
			Str("originator", msg.Originator.String()).
			Int("ttl", msg.TTL).
			Log("would transmit control message")
	}
	return nil
}
