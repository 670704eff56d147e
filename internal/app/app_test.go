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
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-logr/logr"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"sigs.k8s.io/yaml"

	"github.com/chazu/utitree/pkg/hierarchy"
)

var _ = Describe("Run", func() {
	var (
		ctx       context.Context
		inputDir  string
		outputDir string
	)

	writeTable := func(name, content string) string {
		path := filepath.Join(inputDir, name)
		Expect(os.WriteFile(path, []byte(content), 0o644)).To(Succeed())
		return path
	}

	newConfig := func(c Config) *Config {
		c.OutputDir = outputDir
		cfg, err := NewConfig(c)
		Expect(err).NotTo(HaveOccurred())
		return cfg
	}

	readDescendants := func() map[string][]string {
		data, err := os.ReadFile(filepath.Join(outputDir, "UTI-children.yml"))
		Expect(err).NotTo(HaveOccurred())
		var descendants map[string][]string
		Expect(yaml.Unmarshal(data, &descendants)).To(Succeed())
		return descendants
	}

	expectNoOutput := func() {
		entries, err := os.ReadDir(outputDir)
		if err != nil {
			Expect(os.IsNotExist(err)).To(BeTrue())
			return
		}
		Expect(entries).To(BeEmpty())
	}

	BeforeEach(func() {
		ctx = context.Background()
		inputDir = GinkgoT().TempDir()
		outputDir = filepath.Join(GinkgoT().TempDir(), "dist")
	})

	Context("with a valid table", func() {
		It("should write the tree and descendants of a diamond", func() {
			By("Loading a diamond table")
			path := writeTable("diamond.yaml", `records:
  - identifier: A
  - identifier: B
    parents: [A]
  - identifier: C
    parents: [A]
  - identifier: D
    parents: [B, C]
`)
			summary, err := Run(ctx, newConfig(Config{Inputs: []string{path}}))
			Expect(err).NotTo(HaveOccurred())

			By("Checking the summary")
			Expect(summary.Records).To(Equal(4))
			Expect(summary.Trees).To(Equal(1))
			Expect(summary.Stats).To(Equal(hierarchy.Stats{Nodes: 4, Edges: 4, Roots: 1, MultiParent: 1}))
			Expect(summary.Hash).NotTo(BeEmpty())
			Expect(summary.Artifacts).To(HaveLen(2))

			By("Checking the descendants artifact")
			Expect(readDescendants()).To(Equal(map[string][]string{
				"A": {"B", "C", "D"},
				"B": {"D"},
				"C": {"D"},
				"D": {},
			}))

			By("Checking the tree artifact")
			data, err := os.ReadFile(filepath.Join(outputDir, "UTI-tree.yml"))
			Expect(err).NotTo(HaveOccurred())
			var forest hierarchy.Forest
			Expect(yaml.Unmarshal(data, &forest)).To(Succeed())
			Expect(forest).To(HaveLen(1))
			Expect(forest[0].Identifier).To(Equal("A"))
			Expect(forest[0].Children).To(HaveLen(2))
			Expect(forest[0].Children[0].Children[0].Identifier).To(Equal("D"))
			Expect(forest[0].Children[0].Children[0].AlsoConformsTo).To(Equal([]string{"C"}))
			Expect(forest[0].Children[1].Children).To(BeEmpty())
		})

		It("should handle a single root", func() {
			path := writeTable("single.json", `{"records": [{"identifier": "A"}]}`)

			summary, err := Run(ctx, newConfig(Config{Inputs: []string{path}}))
			Expect(err).NotTo(HaveOccurred())
			Expect(summary.Trees).To(Equal(1))
			Expect(readDescendants()).To(Equal(map[string][]string{"A": {}}))
		})

		It("should load the embedded snapshot when no input is given", func() {
			summary, err := Run(ctx, newConfig(Config{}))
			Expect(err).NotTo(HaveOccurred())
			Expect(summary.Sources).To(Equal(1))
			Expect(summary.Records).To(BeNumerically(">", 100))

			descendants := readDescendants()
			Expect(descendants["public.image"]).To(ContainElements("public.jpeg", "public.png"))
			Expect(descendants["public.item"]).NotTo(ContainElement("public.item"))
		})

		It("should produce identical artifacts regardless of worker count", func() {
			path := writeTable("table.hcl", `
type "public.item" {}
type "public.data" { parents = ["public.item"] }
type "public.content" {}
type "public.text" { parents = ["public.data", "public.content"] }
type "public.plain-text" { parents = ["public.text"] }
type "com.apple.resolvable" {}
type "public.symlink" { parents = ["public.item", "com.apple.resolvable"] }
`)
			sequential, err := Run(ctx, newConfig(Config{Inputs: []string{path}, Workers: 1}))
			Expect(err).NotTo(HaveOccurred())

			outputDir = filepath.Join(GinkgoT().TempDir(), "dist")
			parallel, err := Run(ctx, newConfig(Config{Inputs: []string{path}, Workers: 8}))
			Expect(err).NotTo(HaveOccurred())

			Expect(parallel.Hash).To(Equal(sequential.Hash))
			for i := range sequential.Artifacts {
				Expect(parallel.Artifacts[i].Digest).To(Equal(sequential.Artifacts[i].Digest))
			}
		})

		It("should write every optional artifact and the metrics file", func() {
			path := writeTable("diamond.cue", `records: [
	{identifier: "A"},
	{identifier: "B", parents: ["A"]},
	{identifier: "C", parents: ["A"]},
	{identifier: "D", parents: ["B", "C"]},
]
`)
			metricsFile := filepath.Join(GinkgoT().TempDir(), "utitree.prom")

			summary, err := Run(ctx, newConfig(Config{
				Inputs:      []string{path},
				Format:      "json",
				Compression: "gzip",
				DOT:         true,
				SQLite:      true,
				MetricsFile: metricsFile,
			}))
			Expect(err).NotTo(HaveOccurred())

			var names []string
			for _, a := range summary.Artifacts {
				names = append(names, a.Name)
			}
			Expect(names).To(Equal([]string{
				"UTI-tree.json.gz", "UTI-children.json.gz", "UTI-graph.dot.gz", "UTI.sqlite",
			}))

			metrics, err := os.ReadFile(metricsFile)
			Expect(err).NotTo(HaveOccurred())
			Expect(string(metrics)).To(ContainSubstring(`utitree_runs_total{result="success"} 1`))
			Expect(string(metrics)).To(ContainSubstring("utitree_graph_nodes 4"))
		})
	})

	Context("with an invalid table", func() {
		It("should report an unknown parent and write nothing", func() {
			path := writeTable("unknown.yaml", "records:\n  - identifier: A\n    parents: [Z]\n")

			_, err := Run(ctx, newConfig(Config{Inputs: []string{path}}))
			var unknown *hierarchy.UnknownParentError
			Expect(errors.As(err, &unknown)).To(BeTrue())
			Expect(unknown.Identifier).To(Equal("A"))
			Expect(unknown.MissingParents).To(Equal([]string{"Z"}))
			expectNoOutput()
		})

		It("should report a cycle and write nothing", func() {
			path := writeTable("cycle.yaml", "records:\n  - identifier: A\n    parents: [B]\n  - identifier: B\n    parents: [A]\n")

			_, err := Run(ctx, newConfig(Config{Inputs: []string{path}}))
			var cycle *hierarchy.CycleError
			Expect(errors.As(err, &cycle)).To(BeTrue())
			Expect(cycle.Path).To(ContainElements("A", "B"))
			Expect(cycle.Path[0]).To(Equal(cycle.Path[len(cycle.Path)-1]))
			expectNoOutput()
		})

		It("should report a duplicate identifier and write nothing", func() {
			path := writeTable("duplicate.yaml", "records:\n  - identifier: A\n  - identifier: A\n")

			_, err := Run(ctx, newConfig(Config{Inputs: []string{path}}))
			var duplicate *hierarchy.DuplicateIdentifierError
			Expect(errors.As(err, &duplicate)).To(BeTrue())
			Expect(duplicate.Identifier).To(Equal("A"))
			expectNoOutput()
		})

		It("should still write metrics for a failed run", func() {
			path := writeTable("duplicate.yaml", "records:\n  - identifier: A\n  - identifier: A\n")
			metricsFile := filepath.Join(GinkgoT().TempDir(), "utitree.prom")

			_, err := Run(ctx, newConfig(Config{Inputs: []string{path}, MetricsFile: metricsFile}))
			Expect(err).To(HaveOccurred())

			metrics, err := os.ReadFile(metricsFile)
			Expect(err).NotTo(HaveOccurred())
			Expect(string(metrics)).To(ContainSubstring(`utitree_runs_total{result="failure"} 1`))
			expectNoOutput()
		})

		It("should fail on a missing input file", func() {
			_, err := Run(ctx, newConfig(Config{Inputs: []string{filepath.Join(inputDir, "missing.yaml")}}))
			Expect(err).To(MatchError(ContainSubstring("missing.yaml")))
			expectNoOutput()
		})
	})

	It("should log progress through the context logger", func() {
		var buf bytes.Buffer
		logger, err := NewLogger("debug", LogFormatJSON, &buf)
		Expect(err).NotTo(HaveOccurred())

		path := writeTable("single.yaml", "records:\n  - identifier: A\n")
		_, err = Run(logr.NewContext(ctx, logger), newConfig(Config{Inputs: []string{path}}))
		Expect(err).NotTo(HaveOccurred())

		out := buf.String()
		Expect(out).To(ContainSubstring(`"msg":"Loaded type table"`))
		Expect(out).To(ContainSubstring(`"msg":"Derived conformance hierarchy"`))
		Expect(strings.Count(out, `"msg":"Wrote artifact"`)).To(BeNumerically(">=", 2))
	})
})

var _ = Describe("NewConfig", func() {
	It("should apply defaults", func() {
		cfg, err := NewConfig(Config{})
		Expect(err).NotTo(HaveOccurred())
		Expect(cfg.OutputDir).To(Equal("dist"))
		Expect(cfg.Format).To(Equal("yaml"))
		Expect(cfg.Compression).To(Equal("none"))
		Expect(cfg.LogLevel).To(Equal("info"))
		Expect(cfg.LogFormat).To(Equal(LogFormatConsole))
		Expect(cfg.Workers).To(BeNumerically(">", 0))
	})

	DescribeTable("should reject invalid values",
		func(c Config, message string) {
			_, err := NewConfig(c)
			Expect(err).To(MatchError(ContainSubstring(message)))
		},
		Entry("negative workers", Config{Workers: -1}, "workers"),
		Entry("input format", Config{InputFormat: "toml"}, "--input-format"),
		Entry("output format", Config{Format: "xml"}, "--format"),
		Entry("compression", Config{Compression: "lz4"}, "--compress"),
		Entry("log level", Config{LogLevel: "trace"}, "--log-level"),
		Entry("log format", Config{LogFormat: "logfmt"}, "--log-format"),
	)

	It("should map to writer options", func() {
		cfg, err := NewConfig(Config{OutputDir: "out", Format: "json", DOT: true, TreeFile: "t.json"})
		Expect(err).NotTo(HaveOccurred())

		opts := cfg.OutputOptions()
		Expect(opts.Dir).To(Equal("out"))
		Expect(opts.Format).To(Equal("json"))
		Expect(opts.TreeFile).To(Equal("t.json"))
		Expect(opts.DOT).To(BeTrue())
		Expect(opts.SQLite).To(BeFalse())
	})
})

var _ = Describe("NewLogger", func() {
	It("should hide debug messages at info level", func() {
		var buf bytes.Buffer
		logger, err := NewLogger("info", LogFormatJSON, &buf)
		Expect(err).NotTo(HaveOccurred())

		logger.V(1).Info("hidden")
		logger.Info("shown", "key", "value")

		Expect(buf.String()).NotTo(ContainSubstring("hidden"))
		Expect(buf.String()).To(ContainSubstring(`"key":"value"`))
	})

	It("should reject unknown settings", func() {
		_, err := NewLogger("loud", LogFormatJSON, &bytes.Buffer{})
		Expect(err).To(HaveOccurred())
		_, err = NewLogger("info", "xml", &bytes.Buffer{})
		Expect(err).To(HaveOccurred())
	})
})
