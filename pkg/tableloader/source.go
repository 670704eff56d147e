package tableloader

import (
	"bytes"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/cespare/xxhash/v2"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"

	tables "github.com/chazu/utitree/cue"
)

// Supported table formats
const (
	FormatCUE  = "cue"
	FormatJSON = "json"
	FormatYAML = "yaml"
	FormatHTML = "html"
	FormatHCL  = "hcl"
)

// EmbeddedName is the source name reported for the bundled snapshot
const EmbeddedName = "embedded://" + tables.SnapshotFile

var extensions = map[string]string{
	".cue":  FormatCUE,
	".json": FormatJSON,
	".yaml": FormatYAML,
	".yml":  FormatYAML,
	".html": FormatHTML,
	".htm":  FormatHTML,
	".hcl":  FormatHCL,
}

// Source is the raw content of one table together with where it came from
type Source struct {
	// Name is the path of the file, or EmbeddedName for the snapshot
	Name string

	// Format selects the decoder
	Format string

	// Content is the uncompressed table
	Content []byte

	// Digest is the xxhash of Content
	Digest string
}

func newSource(name, format string, content []byte) *Source {
	return &Source{
		Name:    name,
		Format:  format,
		Content: content,
		Digest:  fmt.Sprintf("%x", xxhash.Sum64(content)),
	}
}

// FormatForPath picks the format from the file extension. A trailing .gz or
// .zst is ignored.
func FormatForPath(path string) (string, error) {
	ext := strings.ToLower(filepath.Ext(trimCompression(path)))
	format, ok := extensions[ext]
	if !ok {
		return "", fmt.Errorf("cannot infer table format of %s from extension %q", path, ext)
	}
	return format, nil
}

// ReadSource reads a table file. An empty format is inferred from the
// extension. Files ending in .gz or .zst are decompressed.
func ReadSource(path, format string) (*Source, error) {
	if format == "" {
		var err error
		if format, err = FormatForPath(path); err != nil {
			return nil, err
		}
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read table %s: %w", path, err)
	}

	content, err = decompress(path, content)
	if err != nil {
		return nil, fmt.Errorf("failed to decompress table %s: %w", path, err)
	}

	return newSource(path, format, content), nil
}

// EmbeddedSource returns the snapshot of the system-declared identifier table
// bundled with the binary
func EmbeddedSource() (*Source, error) {
	content, err := fs.ReadFile(tables.FS, tables.SnapshotFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read embedded table: %w", err)
	}
	return newSource(EmbeddedName, FormatCUE, content), nil
}

// ExpandInputs resolves doublestar patterns into file paths. Matches of each
// pattern are sorted; patterns keep their relative order. Plain paths are
// passed through untouched.
func ExpandInputs(patterns []string) ([]string, error) {
	var paths []string
	for _, pattern := range patterns {
		if !hasMeta(pattern) {
			paths = append(paths, pattern)
			continue
		}

		matches, err := doublestar.FilepathGlob(pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid input pattern %q: %w", pattern, err)
		}
		if len(matches) == 0 {
			return nil, fmt.Errorf("no files match %q", pattern)
		}
		sort.Strings(matches)
		paths = append(paths, matches...)
	}
	return paths, nil
}

func hasMeta(pattern string) bool {
	return strings.ContainsAny(pattern, "*?[{")
}

func trimCompression(path string) string {
	for _, suffix := range []string{".gz", ".zst"} {
		if strings.HasSuffix(path, suffix) {
			return strings.TrimSuffix(path, suffix)
		}
	}
	return path
}

func decompress(path string, content []byte) ([]byte, error) {
	switch {
	case strings.HasSuffix(path, ".gz"):
		r, err := gzip.NewReader(bytes.NewReader(content))
		if err != nil {
			return nil, err
		}
		defer r.Close()
		return io.ReadAll(r)
	case strings.HasSuffix(path, ".zst"):
		decoder, err := zstd.NewReader(nil)
		if err != nil {
			return nil, err
		}
		defer decoder.Close()
		return decoder.DecodeAll(content, nil)
	default:
		return content, nil
	}
}
