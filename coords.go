package gribgo

import (
	"github.com/hupe1980/gribgo/index"
)

// Attributes maps attribute keys to their record-invariant values.
type Attributes map[string]index.Value

// merge copies other into a, failing on a key present with a different value.
func (a Attributes) merge(other Attributes) error {
	for key, value := range other {
		existing, ok := a[key]
		if !ok {
			a[key] = value
			continue
		}
		if existing != value {
			return &AttributeConflictError{Key: key, Value: value, Existing: existing}
		}
	}
	return nil
}

// enforceUnique collects, for each key, the single value observed across the
// indexed records. A key with two or more distinct values fails with
// *AmbiguousAttributeError; a key absent from the index is omitted.
func enforceUnique(x *index.Index, keys []string) (Attributes, error) {
	attrs := make(Attributes, len(keys))
	for _, key := range keys {
		values := x.Values(key)
		if len(values) > 1 {
			return nil, &AmbiguousAttributeError{Key: key, Values: values}
		}
		if len(values) == 1 {
			attrs[key] = values[0]
		}
	}
	return attrs, nil
}

// simpleCoordinate derives one header coordinate axis: the ordered distinct
// values for key plus its record-invariant associated attributes.
//
// A coordinate whose only observed value is the undef sentinel is absent
// from the stream and fails with *CoordinateNotFoundError, which callers
// treat as skip-this-coordinate rather than abort.
func simpleCoordinate(x *index.Index, key string, attrKeys []string) ([]index.Value, Attributes, error) {
	values := x.Values(key)
	if len(values) == 1 && values[0].IsUndef() {
		return nil, nil, &CoordinateNotFoundError{Key: key}
	}

	attrs, err := enforceUnique(x, attrKeys)
	if err != nil {
		return nil, nil, err
	}
	return values, attrs, nil
}
