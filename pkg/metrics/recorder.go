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


package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/chazu/utitree/pkg/hierarchy"
)

// Run results
const (
	ResultSuccess = "success"
	ResultFailure = "failure"
)

// Recorder collects the metrics of a single command run on its own registry
type Recorder struct {
	registry *prometheus.Registry

	// Load metrics
	loadTotal     *prometheus.CounterVec
	loadDuration  *prometheus.HistogramVec
	recordsLoaded prometheus.Counter

	// Pipeline metrics
	stageDuration *prometheus.HistogramVec
	nodes         prometheus.Gauge
	edges         prometheus.Gauge
	roots         prometheus.Gauge
	multiParent   prometheus.Gauge
	trees         prometheus.Gauge

	// Output metrics
	artifactBytes *prometheus.GaugeVec
	runsTotal     *prometheus.CounterVec
}

// NewRecorder creates a Recorder with every metric registered
func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),

		loadTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "utitree_table_load_total",
			Help: "Total number of table sources loaded",
		}, []string{"format", "status"}),

		loadDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "utitree_table_load_duration_seconds",
			Help:    "Duration of decoding a table source",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12), // 1ms to ~4s
		}, []string{"format", "status"}),

		recordsLoaded: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "utitree_records_loaded_total",
			Help: "Total number of records decoded from all sources",
		}),

		stageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "utitree_stage_duration_seconds",
			Help:    "Duration of each hierarchy pipeline stage",
			Buckets: prometheus.ExponentialBuckets(0.0001, 2, 14), // 100us to ~1.6s
		}, []string{"stage"}),

		nodes: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "utitree_graph_nodes",
			Help: "Number of identifiers in the conformance graph",
		}),

		edges: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "utitree_graph_edges",
			Help: "Number of conformance edges in the graph",
		}),

		roots: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "utitree_graph_roots",
			Help: "Number of identifiers without parents",
		}),

		multiParent: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "utitree_graph_multi_parent_nodes",
			Help: "Number of identifiers conforming to more than one parent",
		}),

		trees: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "utitree_forest_trees",
			Help: "Number of top-level trees in the materialized forest",
		}),

		artifactBytes: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "utitree_artifact_bytes",
			Help: "Size of each written artifact in bytes",
		}, []string{"artifact"}),

		runsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "utitree_runs_total",
			Help: "Total number of command runs by result",
		}, []string{"result"}),
	}

	r.registry.MustRegister(
		r.loadTotal,
		r.loadDuration,
		r.recordsLoaded,
		r.stageDuration,
		r.nodes,
		r.edges,
		r.roots,
		r.multiParent,
		r.trees,
		r.artifactBytes,
		r.runsTotal,
	)
	return r
}

// Registry returns the registry holding the recorder's metrics
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// ObserveLoad records the decoding of one table source
func (r *Recorder) ObserveLoad(format, status string, d time.Duration, records int) {
	r.loadTotal.WithLabelValues(format, status).Inc()
	r.loadDuration.WithLabelValues(format, status).Observe(d.Seconds())
	r.recordsLoaded.Add(float64(records))
}

// ObserveStage records the duration of a hierarchy pipeline stage
func (r *Recorder) ObserveStage(stage string, d time.Duration) {
	r.stageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

// RecordResult sets the graph and forest gauges from a completed run
func (r *Recorder) RecordResult(result *hierarchy.Result) {
	stats := result.Graph.Stats()
	r.nodes.Set(float64(stats.Nodes))
	r.edges.Set(float64(stats.Edges))
	r.roots.Set(float64(stats.Roots))
	r.multiParent.Set(float64(stats.MultiParent))
	r.trees.Set(float64(len(result.Forest)))
}

// RecordArtifact records the size of a written artifact
func (r *Recorder) RecordArtifact(name string, size int64) {
	r.artifactBytes.WithLabelValues(name).Set(float64(size))
}

// RecordRun counts a finished run
// result: "success" or "failure"
func (r *Recorder) RecordRun(result string) {
	r.runsTotal.WithLabelValues(result).Inc()
}

// WriteTextfile writes every metric to path in the Prometheus text format,
// suitable for the node exporter textfile collector
func (r *Recorder) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, r.registry)
}
