package output

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/dominikbraun/graph/draw"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"sigs.k8s.io/yaml"

	"github.com/chazu/utitree/pkg/hierarchy"
)

// encodeDocument renders v as YAML or indented JSON. Map keys are sorted by
// both encoders.
func encodeDocument(format string, v any) ([]byte, error) {
	if format == FormatJSON {
		data, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return nil, err
		}
		return append(data, '\n'), nil
	}
	return yaml.Marshal(v)
}

// encodeDOT renders the conformance graph in Graphviz format
func encodeDOT(g *hierarchy.Graph) ([]byte, error) {
	var buf bytes.Buffer
	if err := draw.DOT(g.Directed(), &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func compress(codec string, data []byte) ([]byte, error) {
	switch codec {
	case CompressGzip:
		var buf bytes.Buffer
		w := gzip.NewWriter(&buf)
		if _, err := w.Write(data); err != nil {
			return nil, err
		}
		if err := w.Close(); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	case CompressZstd:
		encoder, err := zstd.NewWriter(nil)
		if err != nil {
			return nil, err
		}
		defer encoder.Close()
		return encoder.EncodeAll(data, nil), nil
	case CompressNone:
		return data, nil
	default:
		return nil, fmt.Errorf("unsupported compression %q", codec)
	}
}
