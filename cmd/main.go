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


package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"

	"github.com/go-logr/logr"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/chazu/utitree/internal/app"
	"github.com/chazu/utitree/pkg/output"
)

// version is set at build time with -ldflags "-X main.version=..."
var version = "dev"

const envPrefix = "UTITREE_"

func main() {
	// A missing .env file is not an error
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := newRootCommand().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "utitree:", err)
		stop()
		os.Exit(1)
	}
}

// newRootCommand builds the command tree. Flag defaults are read from the
// environment, so the .env file must be loaded first.
func newRootCommand() *cobra.Command {
	cfg := app.Config{}

	cmd := &cobra.Command{
		Use:   "utitree",
		Short: "Derive the conformance tree and descendant lookup of a Uniform Type Identifier table",
		Long: `utitree reads a table of type identifiers and the identifiers they conform to,
checks that the conformance graph is complete and acyclic, and writes a tree view
(each type under its first parent) and a lookup of all transitive descendants.

With no --input the bundled snapshot of Apple's system-declared identifiers is used.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd, cfg)
		},
	}

	flags := cmd.Flags()
	flags.StringArrayVarP(&cfg.Inputs, "input", "i", envList("INPUT"),
		"Table file or doublestar pattern (.cue, .json, .yaml, .html, .hcl, optionally .gz or .zst). Repeatable.")
	flags.StringVar(&cfg.InputFormat, "input-format", envString("INPUT_FORMAT", ""),
		"Force the input format instead of detecting it from the extension")
	flags.StringVarP(&cfg.OutputDir, "output-dir", "o", envString("OUTPUT_DIR", output.DefaultDir),
		"Directory the artifacts are written to")
	flags.StringVar(&cfg.Format, "format", envString("FORMAT", output.FormatYAML),
		"Artifact format: yaml or json")
	flags.StringVar(&cfg.TreeFile, "tree-file", envString("TREE_FILE", ""),
		"Name of the tree artifact (default UTI-tree.yml or UTI-tree.json)")
	flags.StringVar(&cfg.DescendantsFile, "descendants-file", envString("DESCENDANTS_FILE", ""),
		"Name of the descendants artifact (default UTI-children.yml or UTI-children.json)")
	flags.StringVar(&cfg.Compression, "compress", envString("COMPRESS", output.CompressNone),
		"Compress the documents: none, gzip or zstd")
	flags.BoolVar(&cfg.DOT, "dot", envBool("DOT", false),
		"Also write the conformance graph as "+output.DOTFile)
	flags.BoolVar(&cfg.SQLite, "sqlite", envBool("SQLITE", false),
		"Also write the hierarchy as "+output.SQLiteFile)
	flags.IntVar(&cfg.Workers, "workers", envInt("WORKERS", 0),
		"Goroutines used for the descendant closure (0 uses GOMAXPROCS, 1 disables parallelism)")
	flags.StringVar(&cfg.MetricsFile, "metrics-file", envString("METRICS_FILE", ""),
		"Write run metrics in Prometheus text format to this file")
	flags.StringVar(&cfg.LogLevel, "log-level", envString("LOG_LEVEL", "info"),
		"Log level: debug, info, warn or error")
	flags.StringVar(&cfg.LogFormat, "log-format", envString("LOG_FORMAT", app.LogFormatConsole),
		"Log format: console or json")

	cmd.AddCommand(newVersionCommand())
	return cmd
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the utitree version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version)
		},
	}
}

func run(cmd *cobra.Command, c app.Config) error {
	cfg, err := app.NewConfig(c)
	if err != nil {
		return err
	}

	logger, err := app.NewLogger(cfg.LogLevel, cfg.LogFormat, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	ctx := logr.NewContext(cmd.Context(), logger)

	summary, err := app.Run(ctx, cfg)
	if err != nil {
		return err
	}

	logger.Info("Done", "records", summary.Records, "trees", summary.Trees, "hash", summary.Hash)
	return nil
}

func envString(name, fallback string) string {
	if v, ok := os.LookupEnv(envPrefix + name); ok {
		return v
	}
	return fallback
}

func envBool(name string, fallback bool) bool {
	if b, err := strconv.ParseBool(os.Getenv(envPrefix + name)); err == nil {
		return b
	}
	return fallback
}

func envInt(name string, fallback int) int {
	if n, err := strconv.Atoi(os.Getenv(envPrefix + name)); err == nil {
		return n
	}
	return fallback
}

// envList splits a comma-separated variable, dropping empty entries
func envList(name string) []string {
	var out []string
	for _, v := range strings.Split(os.Getenv(envPrefix+name), ",") {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
