package output

import (
	"fmt"
	"path/filepath"
)

// Document formats
const (
	FormatYAML = "yaml"
	FormatJSON = "json"
)

// Compression codecs
const (
	CompressNone = "none"
	CompressGzip = "gzip"
	CompressZstd = "zstd"
)

// Default artifact names
const (
	DefaultDir      = "dist"
	DOTFile         = "UTI-graph.dot"
	SQLiteFile      = "UTI.sqlite"
	treeBase        = "UTI-tree"
	descendantsBase = "UTI-children"
)

// Options configures Write
type Options struct {
	// Dir receives every artifact. Defaults to DefaultDir.
	Dir string

	// Format is FormatYAML (default) or FormatJSON
	Format string

	// TreeFile and DescendantsFile override the default document names
	TreeFile        string
	DescendantsFile string

	// Compression applies to the tree, descendants and DOT artifacts
	Compression string

	// DOT also writes the conformance graph in Graphviz format
	DOT bool

	// SQLite also writes the hierarchy as a SQLite database
	SQLite bool
}

func (o Options) withDefaults() (Options, error) {
	if o.Dir == "" {
		o.Dir = DefaultDir
	}

	var ext string
	switch o.Format {
	case "", FormatYAML:
		o.Format, ext = FormatYAML, ".yml"
	case FormatJSON:
		ext = ".json"
	default:
		return o, fmt.Errorf("unsupported output format %q", o.Format)
	}

	if o.TreeFile == "" {
		o.TreeFile = treeBase + ext
	}
	if o.DescendantsFile == "" {
		o.DescendantsFile = descendantsBase + ext
	}

	switch o.Compression {
	case "", CompressNone:
		o.Compression = CompressNone
	case CompressGzip, CompressZstd:
	default:
		return o, fmt.Errorf("unsupported compression %q", o.Compression)
	}

	names := []string{o.name(o.TreeFile), o.name(o.DescendantsFile)}
	if o.DOT {
		names = append(names, o.name(DOTFile))
	}
	if o.SQLite {
		names = append(names, SQLiteFile)
	}
	seen := make(map[string]bool, len(names))
	for _, name := range names {
		if filepath.Base(name) != name {
			return o, fmt.Errorf("artifact name %q must not contain a directory", name)
		}
		if seen[name] {
			return o, fmt.Errorf("artifact %q would be written twice", name)
		}
		seen[name] = true
	}
	return o, nil
}

// name returns the file name of a compressible artifact
func (o Options) name(base string) string {
	switch o.Compression {
	case CompressGzip:
		return base + ".gz"
	case CompressZstd:
		return base + ".zst"
	default:
		return base
	}
}
