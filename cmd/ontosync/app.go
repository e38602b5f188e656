package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	gosync "sync"
	"time"

	"github.com/c360studio/ontosync/config"
	"github.com/c360studio/ontosync/metrics"
	"github.com/c360studio/ontosync/notify"
	"github.com/c360studio/ontosync/quality"
	"github.com/c360studio/ontosync/rdf"
	"github.com/c360studio/ontosync/sync"
	"github.com/c360studio/ontosync/watch"
)

// App wires configuration, the optional NATS publisher, and metrics around
// the sync core.
type App struct {
	cfg       *config.Config
	root      string
	logger    *slog.Logger
	publisher *notify.Publisher
}

// NewApp loads configuration and connects the optional event publisher.
func NewApp() (*App, error) {
	logger := slog.Default()
	loader := config.NewLoader(logger)
	cfg, err := loader.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	publisher, err := notify.Connect(cfg.NATS.URL, cfg.NATS.Subject)
	if err != nil {
		// Event publication is best-effort; a down broker must not block
		// a sync.
		logger.Warn("NATS unavailable, sync events disabled", slog.String("error", err.Error()))
		publisher = nil
	}

	return &App{
		cfg:       cfg,
		root:      loader.ProjectRoot(),
		logger:    logger,
		publisher: publisher,
	}, nil
}

// Close releases the app's connections.
func (a *App) Close() {
	a.publisher.Close()
}

// pairsFromArgs resolves the pairs to operate on: explicit path arguments
// when given, configured pairs otherwise.
func (a *App) pairsFromArgs(args []string) ([]config.Pair, error) {
	if len(args) == 2 {
		return []config.Pair{{TTL: args[0], OWL: args[1]}}, nil
	}
	if len(args) != 0 {
		return nil, fmt.Errorf("expected both a ttl and an owl path, got %d arguments", len(args))
	}
	pairs, err := a.cfg.ResolvePairs(a.root)
	if err != nil {
		return nil, err
	}
	if len(pairs) == 0 {
		return nil, errors.New("no file arguments given and no pairs configured in ontosync.yaml")
	}
	return pairs, nil
}

// LintOptions converts the lint configuration into quality options.
func (a *App) LintOptions() quality.Options {
	opts := quality.DefaultOptions()
	if a.cfg.Lint.RequireMetadata != nil {
		opts.RequireMetadata = *a.cfg.Lint.RequireMetadata
	}
	if a.cfg.Lint.CheckNaming != nil {
		opts.CheckNaming = *a.cfg.Lint.CheckNaming
	}
	return opts
}

func (a *App) orchestratorFor(pair config.Pair, force bool) *sync.Orchestrator {
	opts := []sync.Option{sync.WithLogger(a.logger), sync.WithForce(force)}
	if pair.Marker != "" {
		opts = append(opts, sync.WithMarkerPath(pair.Marker))
	}
	left := sync.File{Path: pair.TTL, Format: rdf.FormatTurtle}
	right := sync.File{Path: pair.OWL, Format: rdf.FormatRDFXML}
	return sync.NewOrchestrator(left, right, opts...)
}

// runPair runs one orchestrator operation on a pair, recording metrics and
// publishing the sync event.
func (a *App) runPair(ctx context.Context, pair config.Pair, op func(*sync.Orchestrator) (*sync.Result, error), force bool) (*sync.Result, error) {
	start := time.Now()
	res, err := op(a.orchestratorFor(pair, force))
	if err != nil {
		metrics.ObserveError(err)
		return res, err
	}
	metrics.ObserveResult(res, time.Since(start))
	if perr := a.publisher.PublishResult(ctx, pair.TTL, pair.OWL, res); perr != nil {
		a.logger.Warn("failed to publish sync event", slog.String("error", perr.Error()))
	}
	return res, nil
}

// Watch runs a watcher per configured pair plus the metrics endpoint until
// the context is cancelled.
func (a *App) Watch(ctx context.Context) error {
	pairs, err := a.pairsFromArgs(nil)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg gosync.WaitGroup
	errCh := make(chan error, len(pairs)+1)

	if a.cfg.Metrics.Addr != "" {
		wg.Add(1)
		go func() {
			defer wg.Done()
			a.logger.Info("serving metrics", slog.String("addr", a.cfg.Metrics.Addr))
			if err := metrics.Serve(ctx, a.cfg.Metrics.Addr); err != nil && !errors.Is(err, context.Canceled) {
				errCh <- fmt.Errorf("metrics endpoint: %w", err)
				cancel()
			}
		}()
	}

	for _, pair := range pairs {
		pair := pair
		w, err := watch.New(pair.TTL, pair.OWL, a.cfg.Watch.Debounce, func(ctx context.Context) (*sync.Result, error) {
			return a.runPair(ctx, pair, (*sync.Orchestrator).Sync, false)
		}, a.logger)
		if err != nil {
			cancel()
			wg.Wait()
			return err
		}
		a.logger.Info("watching pair", slog.String("ttl", pair.TTL), slog.String("owl", pair.OWL))
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := w.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				errCh <- fmt.Errorf("watch %s: %w", pair.TTL, err)
				cancel()
			}
		}()
	}

	wg.Wait()
	select {
	case err := <-errCh:
		return err
	default:
		return ctx.Err()
	}
}
