// Package main provides the ontosync binary entry point.
// Ontosync keeps the Turtle and RDF/XML serializations of an ontology
// semantically synchronized and gates commits on their equivalence.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/c360studio/ontosync/config"
	"github.com/c360studio/ontosync/gate"
	"github.com/c360studio/ontosync/quality"
	"github.com/c360studio/ontosync/rdf"
	"github.com/c360studio/ontosync/sync"

	// Register serialization codecs.
	_ "github.com/c360studio/ontosync/rdf/rdfxml"
	_ "github.com/c360studio/ontosync/rdf/turtle"
)

const (
	Version   = "0.1.0"
	BuildTime = "dev"
	appName   = "ontosync"
)

// errExitNonZero signals a clean failure whose message was already printed
// (diff rendered, lint findings listed).
var errExitNonZero = errors.New("exit status 1")

func main() {
	if err := rootCmd().Execute(); err != nil {
		if !errors.Is(err, errExitNonZero) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var logLevel string

	cmd := &cobra.Command{
		Use:   appName,
		Short: "Keep Turtle and RDF/XML ontology serializations in sync",
		Long: `Ontosync keeps two serializations of one ontology graph - Turtle (.ttl)
and RDF/XML (.owl) - semantically synchronized.

It compares the files up to blank-node renaming and statement order,
reports structured diffs, regenerates the stale side atomically, and
blocks commits when the pair has diverged.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			setupLogging(logLevel)
		},
	}

	cmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")

	cmd.AddCommand(checkCmd())
	cmd.AddCommand(convertCmd())
	cmd.AddCommand(syncCmd())
	cmd.AddCommand(lintCmd())
	cmd.AddCommand(watchCmd())
	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("%s version %s (build: %s)\n", appName, Version, BuildTime)
		},
	})

	return cmd
}

func setupLogging(logLevel string) {
	level := slog.LevelInfo
	switch strings.ToLower(logLevel) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
}

func checkCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check [ttl-file owl-file]",
		Short: "Check that a serialization pair is semantically equivalent",
		Args:  cobra.RangeArgs(0, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := NewApp()
			if err != nil {
				return err
			}
			defer app.Close()

			pairs, err := app.pairsFromArgs(args)
			if err != nil {
				return err
			}
			ok := true
			for _, pair := range pairs {
				res, err := gate.Check(pair.TTL, pair.OWL)
				if err != nil {
					return err
				}
				if res.OK {
					fmt.Printf("%s and %s are synchronized (%d triples each)\n",
						pair.TTL, pair.OWL, res.FirstCount)
					continue
				}
				ok = false
				fmt.Printf("%s and %s differ:\n", pair.TTL, pair.OWL)
				if err := res.Report.Render(os.Stdout); err != nil {
					return err
				}
			}
			if !ok {
				return errExitNonZero
			}
			return nil
		},
	}
}

func convertCmd() *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "convert <ttl-to-owl|owl-to-ttl> [ttl-file owl-file]",
		Short: "Regenerate one serialization from the other",
		Args:  cobra.RangeArgs(1, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			var dir sync.Direction
			switch args[0] {
			case "ttl-to-owl":
				dir = sync.DirectionLeftToRight
			case "owl-to-ttl":
				dir = sync.DirectionRightToLeft
			default:
				return fmt.Errorf("unknown conversion %q (want ttl-to-owl or owl-to-ttl)", args[0])
			}

			app, err := NewApp()
			if err != nil {
				return err
			}
			defer app.Close()

			pairs, err := app.pairsFromArgs(args[1:])
			if err != nil {
				return err
			}
			for _, pair := range pairs {
				res, err := app.runPair(cmd.Context(), pair, func(o *sync.Orchestrator) (*sync.Result, error) {
					return o.Convert(dir)
				}, force)
				if err != nil {
					return renderSyncError(err)
				}
				printResult(pair, res)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "Convert even when both sides were modified since the last sync")
	return cmd
}

func syncCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sync [ttl-file owl-file]",
		Short: "Regenerate the stale side, choosing direction from modification times",
		Args:  cobra.RangeArgs(0, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := NewApp()
			if err != nil {
				return err
			}
			defer app.Close()

			pairs, err := app.pairsFromArgs(args)
			if err != nil {
				return err
			}
			for _, pair := range pairs {
				res, err := app.runPair(cmd.Context(), pair, (*sync.Orchestrator).Sync, false)
				if err != nil {
					return renderSyncError(err)
				}
				printResult(pair, res)
			}
			return nil
		},
	}
}

func lintCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "lint [file]",
		Short: "Check ontology quality conventions",
		Args:  cobra.RangeArgs(0, 1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := NewApp()
			if err != nil {
				return err
			}
			defer app.Close()

			paths := args
			if len(paths) == 0 {
				pairs, err := app.pairsFromArgs(nil)
				if err != nil {
					return err
				}
				for _, p := range pairs {
					paths = append(paths, p.TTL)
				}
			}

			failed := false
			for _, path := range paths {
				g, err := loadGraph(path)
				if err != nil {
					return err
				}
				report := quality.Lint(g, app.LintOptions())
				fmt.Printf("%s:\n", path)
				if err := report.Render(os.Stdout); err != nil {
					return err
				}
				if report.ErrorCount() > 0 {
					failed = true
				}
			}
			if failed {
				return errExitNonZero
			}
			return nil
		},
	}
}

func watchCmd() *cobra.Command {
	var metricsAddr string
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Watch configured pairs and re-sync on change",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := NewApp()
			if err != nil {
				return err
			}
			defer app.Close()

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			if metricsAddr != "" {
				app.cfg.Metrics.Addr = metricsAddr
			}
			if err := app.Watch(ctx); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address (e.g. :9090)")
	return cmd
}

func renderSyncError(err error) error {
	var conflict *sync.ConflictError
	if errors.As(err, &conflict) {
		fmt.Fprintf(os.Stderr, "Conflict: %s and %s were both modified since the last sync.\n",
			conflict.Left, conflict.Right)
		if rerr := conflict.Report.Render(os.Stderr); rerr != nil {
			return rerr
		}
		fmt.Fprintln(os.Stderr, "Resolve manually, or re-run convert with --force.")
		return errExitNonZero
	}
	return err
}

func printResult(pair config.Pair, res *sync.Result) {
	switch {
	case res.Written != "":
		fmt.Printf("Regenerated %s (%d triples)\n", res.Written, res.LeftCount)
	case res.Decision == sync.DecisionAlreadyEquivalent:
		fmt.Printf("%s and %s already synchronized (%d triples each)\n",
			pair.TTL, pair.OWL, res.LeftCount)
	}
}

func loadGraph(path string) (*rdf.Graph, error) {
	format, err := rdf.FormatForPath(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	g, err := rdf.Parse(data, format)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return g, nil
}
