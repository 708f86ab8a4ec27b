package codec

import "encoding/json"

// JSON encodes manifests with the standard library. It trades the speed
// of GoJSON for zero extra dependency surface; both produce interchangeable
// bytes, so archives written by one open under the other.
type JSON struct{}

func (JSON) Marshal(v any) ([]byte, error) { return json.Marshal(v) }

func (JSON) Unmarshal(data []byte, v any) error { return json.Unmarshal(data, v) }

// Name is the stable identifier recorded in manifests ("json").
func (JSON) Name() string { return "json" }

// Default is used for newly written manifests. Existing archives are
// unaffected: they carry their own codec name and are opened with it.
var Default Codec = GoJSON{}
