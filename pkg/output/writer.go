package output

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/cespare/xxhash/v2"
	"github.com/go-logr/logr"

	"github.com/chazu/utitree/pkg/hierarchy"
)

// Artifact describes a file produced by Write
type Artifact struct {
	// Name is the file name inside the output directory
	Name string

	// Path is the final location of the file
	Path string

	// Size is the number of bytes written
	Size int64

	// Digest is the xxhash of the file content. It is empty for the SQLite
	// database, whose page layout is not reproducible.
	Digest string
}

// document is an encoded artifact before compression
type document struct {
	name string
	data []byte
}

// stagedFile is an artifact written to a temp file awaiting its rename
type stagedFile struct {
	artifact Artifact
	tmp      string
}

// Write produces every requested artifact for result in opts.Dir. All
// artifacts are first written to temp files in the same directory and only
// renamed into place once each of them has been produced, so a failure leaves
// no new output behind.
func Write(ctx context.Context, result *hierarchy.Result, opts Options) (_ []Artifact, err error) {
	log := logr.FromContextOrDiscard(ctx).WithName("output")

	opts, err = opts.withDefaults()
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(opts.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output directory %s: %w", opts.Dir, err)
	}

	var staged []stagedFile
	defer func() {
		if err != nil {
			for _, s := range staged {
				_ = os.Remove(s.tmp)
			}
		}
	}()

	tree, err := encodeDocument(opts.Format, result.Forest)
	if err != nil {
		return nil, fmt.Errorf("failed to encode tree: %w", err)
	}
	descendants, err := encodeDocument(opts.Format, result.Descendants.Lookup())
	if err != nil {
		return nil, fmt.Errorf("failed to encode descendants: %w", err)
	}

	documents := []document{
		{name: opts.TreeFile, data: tree},
		{name: opts.DescendantsFile, data: descendants},
	}
	if opts.DOT {
		dot, err := encodeDOT(result.Graph)
		if err != nil {
			return nil, fmt.Errorf("failed to render graph: %w", err)
		}
		documents = append(documents, document{name: DOTFile, data: dot})
	}

	for _, doc := range documents {
		data, err := compress(opts.Compression, doc.data)
		if err != nil {
			return nil, fmt.Errorf("failed to compress %s: %w", doc.name, err)
		}
		s, err := stageBytes(opts.Dir, opts.name(doc.name), data)
		if err != nil {
			return nil, err
		}
		staged = append(staged, s)
	}

	if opts.SQLite {
		s, err := stageSQLite(ctx, opts.Dir, result)
		if err != nil {
			return nil, err
		}
		staged = append(staged, s)
	}

	artifacts := make([]Artifact, 0, len(staged))
	for i, s := range staged {
		if err := os.Rename(s.tmp, s.artifact.Path); err != nil {
			// Files renamed so far stay in place; the rest are removed by the deferred cleanup.
			staged = staged[i:]
			return nil, fmt.Errorf("failed to move %s into place: %w", s.artifact.Name, err)
		}
		log.V(1).Info("Wrote artifact", "path", s.artifact.Path, "bytes", s.artifact.Size)
		artifacts = append(artifacts, s.artifact)
	}
	return artifacts, nil
}

func stageBytes(dir, name string, data []byte) (stagedFile, error) {
	tmp, err := createTemp(dir, name)
	if err != nil {
		return stagedFile{}, err
	}
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		_ = os.Remove(tmp)
		return stagedFile{}, fmt.Errorf("failed to write %s: %w", name, err)
	}

	return stagedFile{
		artifact: Artifact{
			Name:   name,
			Path:   filepath.Join(dir, name),
			Size:   int64(len(data)),
			Digest: fmt.Sprintf("%x", xxhash.Sum64(data)),
		},
		tmp: tmp,
	}, nil
}

func stageSQLite(ctx context.Context, dir string, result *hierarchy.Result) (stagedFile, error) {
	tmp, err := createTemp(dir, SQLiteFile)
	if err != nil {
		return stagedFile{}, err
	}
	if err := writeSQLite(ctx, tmp, result); err != nil {
		_ = os.Remove(tmp)
		return stagedFile{}, fmt.Errorf("failed to write %s: %w", SQLiteFile, err)
	}

	info, err := os.Stat(tmp)
	if err != nil {
		_ = os.Remove(tmp)
		return stagedFile{}, fmt.Errorf("failed to stat %s: %w", SQLiteFile, err)
	}

	return stagedFile{
		artifact: Artifact{
			Name: SQLiteFile,
			Path: filepath.Join(dir, SQLiteFile),
			Size: info.Size(),
		},
		tmp: tmp,
	}, nil
}

// createTemp reserves an empty, world-readable temp file next to the final
// artifact so the rename stays on one filesystem
func createTemp(dir, name string) (string, error) {
	f, err := os.CreateTemp(dir, "."+name+".tmp-*")
	if err != nil {
		return "", fmt.Errorf("failed to create temp file for %s: %w", name, err)
	}
	path := f.Name()
	if err := f.Close(); err != nil {
		_ = os.Remove(path)
		return "", fmt.Errorf("failed to create temp file for %s: %w", name, err)
	}
	if err := os.Chmod(path, 0o644); err != nil {
		_ = os.Remove(path)
		return "", fmt.Errorf("failed to create temp file for %s: %w", name, err)
	}
	return path, nil
}
