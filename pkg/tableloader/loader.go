package tableloader

import (
	"context"
	"fmt"
	"io/fs"
	"time"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"github.com/go-logr/logr"

	tables "github.com/chazu/utitree/cue"
	"github.com/chazu/utitree/pkg/hierarchy"
)

// Load outcome labels reported to an Observer
const (
	StatusSuccess = "success"
	StatusFailure = "failure"
	StatusCached  = "cached"
)

// Decoder turns the content of a Source into records
type Decoder interface {
	Decode(src *Source) ([]hierarchy.Record, error)

	// Format returns the format handled by the decoder
	Format() string
}

// Observer is notified after each source has been loaded
type Observer interface {
	ObserveLoad(format, status string, d time.Duration, records int)
}

// Option configures a Loader
type Option func(*Loader)

// WithObserver reports every load to o
func WithObserver(o Observer) Option {
	return func(l *Loader) {
		l.observer = o
	}
}

// WithDecoder registers d for its format, replacing any existing decoder
func WithDecoder(d Decoder) Option {
	return func(l *Loader) {
		l.decoders[d.Format()] = d
	}
}

// Loader reads tables and decodes them with the decoder registered for their
// format. A Loader is not safe for concurrent use.
type Loader struct {
	ctx      *cue.Context
	table    cue.Value
	decoders map[string]Decoder
	cache    *Cache
	observer Observer
}

// NewLoader compiles the embedded table schema and registers all decoders
func NewLoader(opts ...Option) (*Loader, error) {
	ctx := cuecontext.New()

	schema, err := fs.ReadFile(tables.FS, tables.SchemaFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read table schema: %w", err)
	}
	value := ctx.CompileBytes(schema, cue.Filename(tables.SchemaFile))
	if value.Err() != nil {
		return nil, fmt.Errorf("failed to compile table schema: %w", value.Err())
	}
	table := value.LookupPath(cue.ParsePath("#Table"))
	if !table.Exists() {
		return nil, fmt.Errorf("table schema does not define #Table")
	}

	l := &Loader{
		ctx:      ctx,
		table:    table,
		decoders: make(map[string]Decoder),
		cache:    NewCache(),
	}
	for _, format := range []string{FormatCUE, FormatJSON, FormatYAML} {
		l.decoders[format] = &cueDecoder{ctx: ctx, table: table, format: format}
	}
	l.decoders[FormatHTML] = &htmlDecoder{}
	l.decoders[FormatHCL] = &hclDecoder{}

	for _, opt := range opts {
		opt(l)
	}
	return l, nil
}

// Context returns the CUE context used by this loader
func (l *Loader) Context() *cue.Context {
	return l.ctx
}

// Load reads every input, resolving doublestar patterns, and concatenates the
// decoded records in input order. With no inputs the embedded snapshot is
// loaded. A non-empty format overrides extension-based detection.
func (l *Loader) Load(ctx context.Context, inputs []string, format string) ([]hierarchy.Record, []*Source, error) {
	log := logr.FromContextOrDiscard(ctx).WithName("tableloader")

	var sources []*Source
	if len(inputs) == 0 {
		src, err := EmbeddedSource()
		if err != nil {
			return nil, nil, err
		}
		sources = append(sources, src)
	} else {
		paths, err := ExpandInputs(inputs)
		if err != nil {
			return nil, nil, err
		}
		for _, path := range paths {
			src, err := ReadSource(path, format)
			if err != nil {
				return nil, nil, err
			}
			sources = append(sources, src)
		}
	}

	var records []hierarchy.Record
	for _, src := range sources {
		decoded, err := l.LoadSource(src)
		if err != nil {
			return nil, nil, err
		}
		log.V(1).Info("Loaded table",
			"source", src.Name, "format", src.Format, "records", len(decoded), "digest", src.Digest)
		records = append(records, decoded...)
	}
	return records, sources, nil
}

// LoadSource decodes a single source, reusing the result of an earlier
// source with identical content
func (l *Loader) LoadSource(src *Source) ([]hierarchy.Record, error) {
	start := time.Now()

	if cached, found := l.cache.Get(src); found {
		l.observe(src.Format, StatusCached, start, len(cached))
		return cached, nil
	}

	decoder, ok := l.decoders[src.Format]
	if !ok {
		l.observe(src.Format, StatusFailure, start, 0)
		return nil, fmt.Errorf("unsupported table format: %s", src.Format)
	}

	records, err := decoder.Decode(src)
	if err != nil {
		l.observe(src.Format, StatusFailure, start, 0)
		return nil, err
	}

	l.cache.Set(src, records)
	l.observe(src.Format, StatusSuccess, start, len(records))
	return records, nil
}

func (l *Loader) observe(format, status string, start time.Time, records int) {
	if l.observer != nil {
		l.observer.ObserveLoad(format, status, time.Since(start), records)
	}
}
