// Package codec centralizes structured encoding.
//
// It is used by the synthetic record format in testutil and by JSON dumps of
// indexes and datasets. Implementations must be safe for concurrent use.
package codec

// Codec encodes/decodes values.
type Codec interface {
	Marshal(v any) ([]byte, error)
	Unmarshal(data []byte, v any) error
	Name() string
}

// Default is the codec used when none is configured.
var Default Codec = GoJSON{}

// ByName returns a built-in codec by its stable name.
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
