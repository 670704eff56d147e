/*
Copyright 2025.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/


package app

import (
	"context"
	"fmt"

	"github.com/go-logr/logr"

	"github.com/chazu/utitree/pkg/hierarchy"
	"github.com/chazu/utitree/pkg/metrics"
	"github.com/chazu/utitree/pkg/output"
	"github.com/chazu/utitree/pkg/tableloader"
)

// Summary describes a successful run
type Summary struct {
	Sources   int
	Records   int
	Stats     hierarchy.Stats
	Trees     int
	Hash      string
	Artifacts []output.Artifact
}

// Run loads the configured tables, derives the hierarchy and writes every
// artifact. On error nothing is written to the output directory.
func Run(ctx context.Context, cfg *Config) (summary *Summary, err error) {
	log := logr.FromContextOrDiscard(ctx).WithName("utitree")
	recorder := metrics.NewRecorder()

	defer func() {
		result := metrics.ResultSuccess
		if err != nil {
			result = metrics.ResultFailure
		}
		recorder.RecordRun(result)

		if cfg.MetricsFile == "" {
			return
		}
		if werr := recorder.WriteTextfile(cfg.MetricsFile); werr != nil {
			log.Error(werr, "Failed to write metrics", "path", cfg.MetricsFile)
			if err == nil {
				summary, err = nil, fmt.Errorf("failed to write metrics: %w", werr)
			}
		}
	}()

	loader, err := tableloader.NewLoader(tableloader.WithObserver(recorder))
	if err != nil {
		return nil, err
	}
	records, sources, err := loader.Load(ctx, cfg.Inputs, cfg.InputFormat)
	if err != nil {
		return nil, fmt.Errorf("failed to load table: %w", err)
	}
	log.Info("Loaded type table", "sources", len(sources), "records", len(records))

	result, err := hierarchy.Run(ctx, records, hierarchy.Options{
		Workers:  cfg.Workers,
		Observer: recorder,
	})
	if err != nil {
		return nil, err
	}
	recorder.RecordResult(result)

	stats := result.Graph.Stats()
	log.Info("Derived conformance hierarchy",
		"nodes", stats.Nodes,
		"edges", stats.Edges,
		"topLevel", stats.Roots,
		"multiParent", stats.MultiParent,
		"hash", result.Hash)

	artifacts, err := output.Write(ctx, result, cfg.OutputOptions())
	if err != nil {
		return nil, fmt.Errorf("failed to write output: %w", err)
	}
	for _, a := range artifacts {
		recorder.RecordArtifact(a.Name, a.Size)
		log.Info("Wrote artifact", "path", a.Path, "bytes", a.Size)
	}

	return &Summary{
		Sources:   len(sources),
		Records:   len(records),
		Stats:     stats,
		Trees:     len(result.Forest),
		Hash:      result.Hash,
		Artifacts: artifacts,
	}, nil
}
