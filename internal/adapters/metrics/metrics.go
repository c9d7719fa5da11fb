// Package metrics exports handler invocation statistics to Prometheus.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"userbot/internal/core/dispatch"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

// Metrics implements dispatch.Observer.
type Metrics struct {
	registry *prometheus.Registry

	// Invocations counts finished handler invocations.
	// Labels: kind (command|hook|shortcut), name, outcome (success|empty|error|timeout)
	Invocations *prometheus.CounterVec

	// Duration measures handler run time in seconds, waiting notice included.
	// Labels: kind, name
	Duration *prometheus.HistogramVec
}

// New registers the userbot metrics on a fresh registry that also carries
// the Go runtime and process collectors.
func New() *Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	factory := promauto.With(registry)

	return &Metrics{
		registry: registry,
		Invocations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "userbot_invocations_total",
				Help: "Total number of handler invocations by kind, name and outcome",
			},
			[]string{"kind", "name", "outcome"},
		),
		Duration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "userbot_invocation_duration_seconds",
				Help:    "Duration of handler invocations in seconds",
				Buckets: []float64{0.05, 0.1, 0.5, 1, 2, 5, 10, 30, 60},
			},
			[]string{"kind", "name"},
		),
	}
}

func (m *Metrics) Observe(kind, name string, outcome dispatch.Outcome, elapsed time.Duration) {
	m.Invocations.WithLabelValues(kind, name, outcome.String()).Inc()
	m.Duration.WithLabelValues(kind, name).Observe(elapsed.Seconds())
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Serve exposes /metrics on addr until ctx is done.
func (m *Metrics) Serve(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())

	server := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Warn().Err(err).Msg("metrics server shutdown failed")
		}
	}()

	log.Info().Str("addr", addr).Msg("serving metrics")

	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return nil
}
