// Package sync keeps two RDF serializations of one logical graph in step.
//
// The orchestrator loads both sides, compares canonical fingerprints, and
// either reports the pair in sync, regenerates the stale side from the
// fresher one, or refuses with a conflict when both sides were edited since
// the last recorded sync. Regenerated files are written atomically.
package sync

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/c360studio/ontosync/canon"
	"github.com/c360studio/ontosync/diff"
	"github.com/c360studio/ontosync/rdf"

	// Register the serialization codecs the orchestrator converts between.
	_ "github.com/c360studio/ontosync/rdf/rdfxml"
	_ "github.com/c360studio/ontosync/rdf/turtle"
)

// State names the orchestrator's position in its state machine. Run methods
// return the terminal informative state (everything ends in "done").
type State string

// Orchestrator states.
const (
	StateChecking   State = "checking"
	StateInSync     State = "in_sync"
	StateNeedsSync  State = "needs_sync"
	StateConverting State = "converting"
	StateConflict   State = "conflict"
	StateDone       State = "done"
)

// Decision says which side, if any, is the source of truth for this
// invocation.
type Decision string

// Sync decisions.
const (
	DecisionLeftIsSource      Decision = "left_is_source"
	DecisionRightIsSource     Decision = "right_is_source"
	DecisionAlreadyEquivalent Decision = "already_equivalent"
	DecisionConflict          Decision = "conflict"
)

// Direction is an explicitly requested conversion direction.
type Direction string

// Conversion directions.
const (
	DirectionLeftToRight Direction = "left-to-right"
	DirectionRightToLeft Direction = "right-to-left"
)

// File is one side of a serialization pair.
type File struct {
	Path   string
	Format rdf.Format
}

// Result summarizes one orchestrator invocation.
type Result struct {
	State       State
	Decision    Decision
	Report      *diff.Report
	Fingerprint canon.Fingerprint
	LeftCount   int
	RightCount  int
	Written     string // path regenerated, empty if no write happened
}

// Orchestrator drives the sync state machine for one file pair.
type Orchestrator struct {
	left       File
	right      File
	markerPath string
	force      bool
	logger     *slog.Logger
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(o *Orchestrator) { o.logger = l }
}

// WithMarkerPath overrides the sync marker location.
func WithMarkerPath(path string) Option {
	return func(o *Orchestrator) { o.markerPath = path }
}

// WithForce disables the conflict check for explicit conversions.
func WithForce(force bool) Option {
	return func(o *Orchestrator) { o.force = force }
}

// NewOrchestrator creates an orchestrator for the given pair.
func NewOrchestrator(left, right File, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		left:       left,
		right:      right,
		markerPath: DefaultMarkerPath(left.Path),
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// side is a loaded serialization with its file metadata.
type side struct {
	file  File
	graph *rdf.Graph
	fp    canon.Fingerprint
	mtime time.Time
}

func (o *Orchestrator) loadSide(f File) (*side, error) {
	info, err := os.Stat(f.Path)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", f.Path, err)
	}
	data, err := os.ReadFile(f.Path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", f.Path, err)
	}
	g, err := rdf.Parse(data, f.Format)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", f.Path, err)
	}
	return &side{file: f, graph: g, fp: canon.Canonicalize(g), mtime: info.ModTime()}, nil
}

// Check loads both sides and reports their relationship without writing
// anything.
func (o *Orchestrator) Check() (*Result, error) {
	left, right, err := o.loadBoth()
	if err != nil {
		return nil, err
	}
	res := o.assess(left, right)
	res.State = o.stateFor(res.Decision)
	return res, nil
}

// Sync regenerates the stale side from the fresher one, choosing direction
// from file modification times. Equivalent pairs are a no-op. A conflict
// returns *ConflictError without writing.
func (o *Orchestrator) Sync() (*Result, error) {
	left, right, err := o.loadBoth()
	if err != nil {
		return nil, err
	}
	res := o.assess(left, right)
	switch res.Decision {
	case DecisionAlreadyEquivalent:
		res.State = StateDone
		// Refresh the marker so later edits compare against now.
		if err := o.saveMarker(left.fp); err != nil {
			return nil, err
		}
		return res, nil
	case DecisionConflict:
		res.State = StateConflict
		return res, &ConflictError{Left: o.left.Path, Right: o.right.Path, Report: res.Report}
	case DecisionLeftIsSource:
		return o.convert(res, left, right)
	default:
		return o.convert(res, right, left)
	}
}

// Convert regenerates the destination side from the source side regardless
// of modification times, but still refuses on conflict unless forced.
func (o *Orchestrator) Convert(dir Direction) (*Result, error) {
	left, right, err := o.loadBoth()
	if err != nil {
		return nil, err
	}
	res := o.assess(left, right)
	if res.Decision == DecisionAlreadyEquivalent {
		res.State = StateDone
		if err := o.saveMarker(left.fp); err != nil {
			return nil, err
		}
		return res, nil
	}
	if res.Decision == DecisionConflict && !o.force {
		res.State = StateConflict
		return res, &ConflictError{Left: o.left.Path, Right: o.right.Path, Report: res.Report}
	}
	if dir == DirectionLeftToRight {
		res.Decision = DecisionLeftIsSource
		return o.convert(res, left, right)
	}
	res.Decision = DecisionRightIsSource
	return o.convert(res, right, left)
}

func (o *Orchestrator) loadBoth() (*side, *side, error) {
	left, err := o.loadSide(o.left)
	if err != nil {
		return nil, nil, err
	}
	right, err := o.loadSide(o.right)
	if err != nil {
		return nil, nil, err
	}
	return left, right, nil
}

// assess computes the diff report and the sync decision.
func (o *Orchestrator) assess(left, right *side) *Result {
	res := &Result{
		State:      StateChecking,
		Report:     diff.Compare(left.graph, right.graph),
		LeftCount:  left.graph.Len(),
		RightCount: right.graph.Len(),
	}
	if left.fp == right.fp {
		res.Decision = DecisionAlreadyEquivalent
		res.Fingerprint = left.fp
		return res
	}

	marker, err := loadMarker(o.markerPath)
	if err != nil {
		o.logger.Warn("ignoring unreadable sync marker",
			slog.String("path", o.markerPath), slog.String("error", err.Error()))
		marker = nil
	}
	if marker != nil && left.mtime.After(marker.SyncedAt) && right.mtime.After(marker.SyncedAt) {
		res.Decision = DecisionConflict
		return res
	}
	if !left.mtime.Before(right.mtime) {
		res.Decision = DecisionLeftIsSource
	} else {
		res.Decision = DecisionRightIsSource
	}
	o.logger.Debug("direction from modification times",
		slog.String("decision", string(res.Decision)),
		slog.Time("left_mtime", left.mtime),
		slog.Time("right_mtime", right.mtime),
		slog.Bool("tie_break_left", left.mtime.Equal(right.mtime)))
	return res
}

func (o *Orchestrator) stateFor(d Decision) State {
	switch d {
	case DecisionAlreadyEquivalent:
		return StateInSync
	case DecisionConflict:
		return StateConflict
	default:
		return StateNeedsSync
	}
}

// convert regenerates dst from src and records the new synced state.
func (o *Orchestrator) convert(res *Result, src, dst *side) (*Result, error) {
	res.State = StateConverting
	data, err := rdf.Serialize(src.graph, dst.file.Format)
	if err != nil {
		return nil, fmt.Errorf("serialize %s as %s: %w", src.file.Path, dst.file.Format, err)
	}
	if err := writeFileAtomic(dst.file.Path, data); err != nil {
		return nil, err
	}
	res.Written = dst.file.Path
	res.Fingerprint = src.fp
	if err := o.saveMarker(src.fp); err != nil {
		return nil, err
	}
	o.logger.Info("regenerated serialization",
		slog.String("source", src.file.Path),
		slog.String("destination", dst.file.Path),
		slog.Int("triples", src.graph.Len()))
	res.State = StateDone
	return res, nil
}

func (o *Orchestrator) saveMarker(fp canon.Fingerprint) error {
	m := &Marker{
		LeftPath:    o.left.Path,
		RightPath:   o.right.Path,
		Fingerprint: string(fp),
		SyncedAt:    time.Now(),
	}
	return m.save(o.markerPath)
}
