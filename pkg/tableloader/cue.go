package tableloader

import (
	"cuelang.org/go/cue"
	cueerrors "cuelang.org/go/cue/errors"
	"cuelang.org/go/encoding/json"
	"cuelang.org/go/encoding/yaml"

	"github.com/chazu/utitree/pkg/hierarchy"
)

// cueDecoder handles every format CUE can read natively. The decoded value is
// unified with #Table and must be concrete.
type cueDecoder struct {
	ctx    *cue.Context
	table  cue.Value
	format string
}

func (d *cueDecoder) Format() string {
	return d.format
}

func (d *cueDecoder) Decode(src *Source) ([]hierarchy.Record, error) {
	var value cue.Value
	switch d.format {
	case FormatJSON:
		expr, err := json.Extract(src.Name, src.Content)
		if err != nil {
			return nil, cueParseError(src, err)
		}
		value = d.ctx.BuildExpr(expr)
	case FormatYAML:
		file, err := yaml.Extract(src.Name, src.Content)
		if err != nil {
			return nil, cueParseError(src, err)
		}
		value = d.ctx.BuildFile(file)
	default:
		value = d.ctx.CompileBytes(src.Content, cue.Filename(src.Name))
	}
	if value.Err() != nil {
		return nil, cueParseError(src, value.Err())
	}

	value = d.table.Unify(value)
	if err := value.Validate(cue.Concrete(true)); err != nil {
		return nil, cueParseError(src, err)
	}

	var table struct {
		Records []hierarchy.Record `json:"records"`
	}
	if err := value.Decode(&table); err != nil {
		return nil, cueParseError(src, err)
	}
	return table.Records, nil
}

// cueParseError attaches the line of the first error that points into src
func cueParseError(src *Source, err error) *ParseError {
	perr := &ParseError{Source: src.Name, Err: err}
	for _, e := range cueerrors.Errors(err) {
		pos := e.Position()
		if pos.IsValid() && pos.Filename() == src.Name {
			perr.Row = pos.Line()
			break
		}
	}
	return perr
}
