// Package metrics mirrors the running tally as Prometheus metrics.
package metrics

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/ethereum/go-ethereum/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dkoosis/tally/pkg/runner"
	"github.com/dkoosis/tally/pkg/stats"
)

const MetricsNamespace = "tally"

// Exporter owns a private registry so several runs in one process don't
// collide on the default registerer.
type Exporter struct {
	runID    string
	registry *prometheus.Registry
	log      log.Logger

	tests  *prometheus.GaugeVec
	events *prometheus.CounterVec
}

// NewExporter creates an exporter labelling every series with runID.
func NewExporter(runID string, logger log.Logger) *Exporter {
	if logger == nil {
		logger = log.NewLogger(log.DiscardHandler())
	}
	e := &Exporter{
		runID:    runID,
		registry: prometheus.NewRegistry(),
		log:      logger.New("component", "metrics"),
		tests: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: MetricsNamespace,
			Name:      "tests",
			Help:      "Number of tests currently attributed to each category",
		}, []string{"run_id", "category"}),
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: MetricsNamespace,
			Name:      "events_total",
			Help:      "Count of runner events delivered",
		}, []string{"run_id", "event"}),
	}
	e.registry.MustRegister(e.tests, e.events)
	return e
}

// Observe publishes a snapshot. Categories missing from the snapshot are
// reported as zero so stale values never linger.
func (e *Exporter) Observe(snap stats.Snapshot) {
	for _, c := range stats.Categories() {
		name := c.String()
		e.tests.WithLabelValues(e.runID, name).Set(float64(snap[name]))
	}
	e.tests.WithLabelValues(e.runID, stats.TotalKey).Set(float64(snap.Total()))
}

// RecordEvent counts one delivered runner event.
func (e *Exporter) RecordEvent(ev runner.Event) {
	e.events.WithLabelValues(e.runID, string(ev)).Inc()
}

// Listen registers RecordEvent on every recognized event of src.
func (e *Exporter) Listen(src stats.EventSource) error {
	for _, ev := range runner.Events {
		ev := ev
		if err := src.On(ev, func(*runner.Test) error {
			e.RecordEvent(ev)
			return nil
		}); err != nil {
			return fmt.Errorf("registering metrics listener: %w", err)
		}
	}
	return nil
}

// Registry exposes the underlying registry, mainly for tests.
func (e *Exporter) Registry() *prometheus.Registry {
	return e.registry
}

// Handler serves the exporter's registry.
func (e *Exporter) Handler() http.Handler {
	return promhttp.HandlerFor(e.registry, promhttp.HandlerOpts{})
}

// Serve runs a metrics HTTP server on addr until ctx is done. A bind
// failure is returned immediately.
func (e *Exporter) Serve(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("metrics server: %w", err)
	}
	return e.ServeListener(ctx, ln)
}

// ServeListener serves /metrics on ln until ctx is done, then shuts the
// server down and returns nil.
func (e *Exporter) ServeListener(ctx context.Context, ln net.Listener) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", e.Handler())
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	errCh := make(chan error, 1)
	go func() {
		e.log.Info("serving metrics", "addr", ln.Addr().String())
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("metrics server: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutting down metrics server: %w", err)
		}
		return nil
	}
}
