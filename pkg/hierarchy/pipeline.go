package hierarchy

import (
	"context"
	"fmt"
	"time"

	"github.com/go-logr/logr"
)

// Pipeline stage names reported to a StageObserver
const (
	StageBuild       = "build"
	StageCheck       = "check"
	StageClosure     = "closure"
	StageMaterialize = "materialize"
)

// StageObserver is notified after each pipeline stage completes
type StageObserver interface {
	ObserveStage(stage string, d time.Duration)
}

// Options configures Run
type Options struct {
	// Workers bounds the goroutines used for the closure. 0 or 1 runs it
	// on the calling goroutine.
	Workers int

	// Observer receives stage timings; may be nil
	Observer StageObserver
}

// Result holds every artifact derived from one table
type Result struct {
	Graph       *Graph
	Order       []string
	Descendants DescendantMap
	Forest      Forest
	Hash        string
}

// Run builds the graph, checks it for cycles, computes the descendant closure
// and materializes the forest. Any failure aborts the run and no partial
// result is returned.
func Run(ctx context.Context, records []Record, opts Options) (*Result, error) {
	log := logr.FromContextOrDiscard(ctx).WithName("hierarchy")

	var g *Graph
	if err := observe(opts.Observer, StageBuild, func() (err error) {
		g, err = BuildGraph(records)
		return err
	}); err != nil {
		return nil, fmt.Errorf("invalid table: %w", err)
	}
	stats := g.Stats()
	log.V(1).Info("Built conformance graph",
		"nodes", stats.Nodes, "edges", stats.Edges, "roots", stats.Roots, "multiParent", stats.MultiParent)

	var order []string
	if err := observe(opts.Observer, StageCheck, func() (err error) {
		order, err = CheckAcyclic(g)
		return err
	}); err != nil {
		return nil, fmt.Errorf("invalid table: %w", err)
	}

	var dm DescendantMap
	if err := observe(opts.Observer, StageClosure, func() (err error) {
		dm, err = ComputeClosureParallel(g, order, opts.Workers)
		return err
	}); err != nil {
		return nil, fmt.Errorf("failed to compute descendants: %w", err)
	}

	var forest Forest
	if err := observe(opts.Observer, StageMaterialize, func() (err error) {
		forest, err = Materialize(g, dm)
		return err
	}); err != nil {
		return nil, err
	}

	result := &Result{
		Graph:       g,
		Order:       order,
		Descendants: dm,
		Forest:      forest,
		Hash:        ComputeHash(forest, dm),
	}
	log.V(1).Info("Materialized forest", "trees", len(forest), "hash", result.Hash)
	return result, nil
}

func observe(o StageObserver, stage string, fn func() error) error {
	start := time.Now()
	err := fn()
	if o != nil {
		o.ObserveStage(stage, time.Since(start))
	}
	return err
}
