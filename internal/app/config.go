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
	"fmt"
	"runtime"
	"slices"

	"github.com/chazu/utitree/pkg/output"
	"github.com/chazu/utitree/pkg/tableloader"
)

// Config holds the merged flag and environment configuration of a run
type Config struct {
	// Inputs are table files or doublestar patterns; empty loads the
	// embedded snapshot
	Inputs []string

	// InputFormat forces the decoder instead of detecting it by extension
	InputFormat string

	OutputDir       string
	Format          string
	TreeFile        string
	DescendantsFile string
	Compression     string
	DOT             bool
	SQLite          bool

	// Workers bounds the goroutines used for the closure; 0 uses GOMAXPROCS
	Workers int

	// MetricsFile receives the run metrics in Prometheus text format
	MetricsFile string

	LogLevel  string
	LogFormat string
}

// Log formats
const (
	LogFormatJSON    = "json"
	LogFormatConsole = "console"
)

var (
	inputFormats  = []string{tableloader.FormatCUE, tableloader.FormatJSON, tableloader.FormatYAML, tableloader.FormatHTML, tableloader.FormatHCL}
	outputFormats = []string{output.FormatYAML, output.FormatJSON}
	compressions  = []string{output.CompressNone, output.CompressGzip, output.CompressZstd}
	logLevels     = []string{"debug", "info", "warn", "error"}
	logFormats    = []string{LogFormatJSON, LogFormatConsole}
)

// NewConfig fills in defaults and validates c
func NewConfig(c Config) (*Config, error) {
	if c.OutputDir == "" {
		c.OutputDir = output.DefaultDir
	}
	if c.Format == "" {
		c.Format = output.FormatYAML
	}
	if c.Compression == "" {
		c.Compression = output.CompressNone
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.LogFormat == "" {
		c.LogFormat = LogFormatConsole
	}
	if c.Workers == 0 {
		c.Workers = runtime.GOMAXPROCS(0)
	}

	if c.Workers < 0 {
		return nil, fmt.Errorf("workers must not be negative, got %d", c.Workers)
	}
	if c.InputFormat != "" && !slices.Contains(inputFormats, c.InputFormat) {
		return nil, fmt.Errorf("invalid --input-format %q, expected one of %v", c.InputFormat, inputFormats)
	}
	for _, check := range []struct {
		flag    string
		value   string
		allowed []string
	}{
		{"format", c.Format, outputFormats},
		{"compress", c.Compression, compressions},
		{"log-level", c.LogLevel, logLevels},
		{"log-format", c.LogFormat, logFormats},
	} {
		if !slices.Contains(check.allowed, check.value) {
			return nil, fmt.Errorf("invalid --%s %q, expected one of %v", check.flag, check.value, check.allowed)
		}
	}
	return &c, nil
}

// OutputOptions returns the writer options selected by c
func (c *Config) OutputOptions() output.Options {
	return output.Options{
		Dir:             c.OutputDir,
		Format:          c.Format,
		TreeFile:        c.TreeFile,
		DescendantsFile: c.DescendantsFile,
		Compression:     c.Compression,
		DOT:             c.DOT,
		SQLite:          c.SQLite,
	}
}
