// Package codec provides the serialization used for archive manifests.
//
// A manifest written today must still open years from now, so the codec
// that produced it travels with it: LoadScope reads the recorded name and
// picks the matching implementation via ByName. Swapping the Default only
// affects manifests written afterwards.
package codec

import "fmt"

// Codec turns manifest values into bytes and back. Implementations hold
// no state and are safe for concurrent use.
type Codec interface {
	Marshal(v any) ([]byte, error)
	Unmarshal(data []byte, v any) error
	Name() string
}

// ByName maps a recorded codec name to its implementation. Unknown names
// return false; the caller decides whether that is fatal.
func ByName(name string) (Codec, bool) {
	switch name {
	case "json":
		return JSON{}, true
	case "go-json":
		return GoJSON{}, true
	default:
		return nil, false
	}
}

// MustMarshal panics on marshal failure. Test fixture helper.
func MustMarshal(c Codec, v any) []byte {
	if c == nil {
		c = Default
	}
	b, err := c.Marshal(v)
	if err != nil {
		panic(fmt.Errorf("codec %s marshal failed: %w", c.Name(), err))
	}
	return b
}
