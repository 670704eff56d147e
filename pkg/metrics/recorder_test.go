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
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/chazu/utitree/pkg/hierarchy"
)

func TestObserveLoad(t *testing.T) {
	r := NewRecorder()

	r.ObserveLoad("yaml", "success", 5*time.Millisecond, 4)
	r.ObserveLoad("yaml", "cached", time.Microsecond, 4)
	r.ObserveLoad("html", "failure", time.Millisecond, 0)

	if got := testutil.ToFloat64(r.loadTotal.WithLabelValues("yaml", "success")); got != 1 {
		t.Errorf("Expected 1 successful yaml load, got %v", got)
	}
	if got := testutil.ToFloat64(r.loadTotal.WithLabelValues("html", "failure")); got != 1 {
		t.Errorf("Expected 1 failed html load, got %v", got)
	}
	if got := testutil.ToFloat64(r.recordsLoaded); got != 8 {
		t.Errorf("Expected 8 records loaded, got %v", got)
	}
	if got := testutil.CollectAndCount(r.loadDuration); got != 3 {
		t.Errorf("Expected 3 load duration series, got %d", got)
	}
}

func TestRecordResult(t *testing.T) {
	r := NewRecorder()

	records := []hierarchy.Record{
		{Identifier: "A"},
		{Identifier: "B", Parents: []string{"A"}},
		{Identifier: "C", Parents: []string{"A"}},
		{Identifier: "D", Parents: []string{"B", "C"}},
		{Identifier: "E"},
	}
	result, err := hierarchy.Run(context.Background(), records, hierarchy.Options{Observer: r})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	r.RecordResult(result)

	tests := []struct {
		name string
		got  float64
		want float64
	}{
		{"nodes", testutil.ToFloat64(r.nodes), 5},
		{"edges", testutil.ToFloat64(r.edges), 4},
		{"roots", testutil.ToFloat64(r.roots), 2},
		{"multiParent", testutil.ToFloat64(r.multiParent), 1},
		{"trees", testutil.ToFloat64(r.trees), 2},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("Expected %s = %v, got %v", tt.name, tt.want, tt.got)
		}
	}

	if got := testutil.CollectAndCount(r.stageDuration); got != 4 {
		t.Errorf("Expected a duration series per stage, got %d", got)
	}
}

func TestWriteTextfile(t *testing.T) {
	r := NewRecorder()
	r.RecordArtifact("UTI-tree.yml", 2048)
	r.RecordRun(ResultSuccess)

	path := filepath.Join(t.TempDir(), "utitree.prom")
	if err := r.WriteTextfile(path); err != nil {
		t.Fatalf("WriteTextfile() error = %v", err)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read metrics file: %v", err)
	}
	for _, want := range []string{
		`utitree_artifact_bytes{artifact="UTI-tree.yml"} 2048`,
		`utitree_runs_total{result="success"} 1`,
	} {
		if !strings.Contains(string(content), want) {
			t.Errorf("Expected metrics file to contain %q, got:\n%s", want, content)
		}
	}
}
