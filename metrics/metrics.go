// Package metrics exposes Prometheus instrumentation for watch mode.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/c360studio/ontosync/rdf"
	"github.com/c360studio/ontosync/sync"
)

var (
	// SyncsTotal counts completed sync passes by decision.
	SyncsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ontosync_syncs_total",
		Help: "Completed sync passes by decision.",
	}, []string{"decision"})

	// ErrorsTotal counts failed sync passes by kind.
	ErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ontosync_errors_total",
		Help: "Failed sync passes by error kind.",
	}, []string{"kind"})

	// Triples tracks the triple count of each side after the last pass.
	Triples = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "ontosync_triples",
		Help: "Triple count per serialization side.",
	}, []string{"side"})

	// LastSyncTime is the unix time of the last successful pass.
	LastSyncTime = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "ontosync_last_sync_timestamp_seconds",
		Help: "Unix time of the last successful sync pass.",
	})

	// CheckDuration observes how long a full load+canonicalize+diff pass
	// takes.
	CheckDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "ontosync_check_duration_seconds",
		Help:    "Duration of sync passes.",
		Buckets: prometheus.DefBuckets,
	})
)

// ObserveResult records a finished sync pass.
func ObserveResult(res *sync.Result, elapsed time.Duration) {
	SyncsTotal.WithLabelValues(string(res.Decision)).Inc()
	Triples.WithLabelValues("left").Set(float64(res.LeftCount))
	Triples.WithLabelValues("right").Set(float64(res.RightCount))
	CheckDuration.Observe(elapsed.Seconds())
	if res.State == sync.StateDone || res.State == sync.StateInSync {
		LastSyncTime.SetToCurrentTime()
	}
}

// ObserveError records a failed sync pass.
func ObserveError(err error) {
	kind := "io"
	var parseErr *rdf.ParseError
	switch {
	case errors.Is(err, sync.ErrConflict):
		kind = "conflict"
	case errors.As(err, &parseErr), errors.Is(err, rdf.ErrEncoding):
		kind = "parse"
	}
	ErrorsTotal.WithLabelValues(kind).Inc()
}

// Serve runs the /metrics endpoint until the context is cancelled.
func Serve(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		return ctx.Err()
	case err := <-errCh:
		return err
	}
}
