package tableloader

import (
	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"

	"github.com/chazu/utitree/pkg/hierarchy"
)

// hclTableFile is the top-level structure of an HCL table
type hclTableFile struct {
	Types []*hclType `hcl:"type,block"`
}

type hclType struct {
	Identifier string            `hcl:"identifier,label"`
	Parents    []string          `hcl:"parents,optional"`
	Metadata   map[string]string `hcl:"metadata,optional"`
}

// hclDecoder reads `type "<identifier>" { ... }` blocks in file order
type hclDecoder struct{}

func (hclDecoder) Format() string {
	return FormatHCL
}

func (hclDecoder) Decode(src *Source) ([]hierarchy.Record, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(src.Content, src.Name)
	if diags.HasErrors() {
		return nil, hclParseError(src, diags)
	}

	var parsed hclTableFile
	diags = gohcl.DecodeBody(file.Body, nil, &parsed)
	if diags.HasErrors() {
		return nil, hclParseError(src, diags)
	}

	records := make([]hierarchy.Record, 0, len(parsed.Types))
	for _, t := range parsed.Types {
		records = append(records, hierarchy.Record{
			Identifier: t.Identifier,
			Parents:    t.Parents,
			Metadata:   t.Metadata,
		})
	}
	return records, nil
}

func hclParseError(src *Source, diags hcl.Diagnostics) *ParseError {
	perr := &ParseError{Source: src.Name, Err: diags}
	for _, d := range diags {
		if d.Severity == hcl.DiagError && d.Subject != nil {
			perr.Row = d.Subject.Start.Line
			break
		}
	}
	return perr
}
