package codec

import gojson "github.com/goccy/go-json"

// GoJSON is the go-json-backed codec. Manifests are small and the two
// JSON codecs byte-interoperate, so the choice is purely a throughput one
// for callers archiving many scopes in bulk.
type GoJSON struct{}

func (GoJSON) Marshal(v any) ([]byte, error) { return gojson.Marshal(v) }

func (GoJSON) Unmarshal(data []byte, v any) error { return gojson.Unmarshal(data, v) }

// Name is the stable identifier recorded in manifests ("go-json").
func (GoJSON) Name() string { return "go-json" }

// Append marshals v onto dst, for callers batching several manifests
// into one buffer.
func (GoJSON) Append(dst []byte, v any) ([]byte, error) {
	b, err := gojson.Marshal(v)
	if err != nil {
		return nil, err
	}
	return append(dst, b...), nil
}
