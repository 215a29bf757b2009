// Package message defines the record accessor contract for GRIB streams.
//
// A stream is a sequence of self-describing binary records addressed by byte
// offset. The package locates record frames (edition 1 and 2 envelopes) and
// drives decoding, but never parses record contents itself: that is the job
// of an external Decoder implementation.
package message

import (
	"fmt"
)

// Message is one decoded record. Lookups are by ecCodes-style key name.
//
// Implementations return *KeyNotFoundError for keys that do not apply to the
// record's edition and *WrongTypeError when the key holds a value of a
// different native type.
type Message interface {
	// GetLong returns the integer value of key.
	GetLong(key string) (int64, error)

	// GetDouble returns the floating-point value of key.
	GetDouble(key string) (float64, error)

	// GetString returns the text value of key.
	GetString(key string) (string, error)

	// GetDoubleArray returns the array value of key, e.g. the decoded
	// payload ("values") or the grid geometry ("latitudes", "longitudes").
	GetDoubleArray(key string) ([]float64, error)
}

// KeyNotFoundError reports a key that is not present in a record, e.g. an
// edition-2-only key looked up on an edition-1 record.
type KeyNotFoundError struct {
	Key string
}

func (e *KeyNotFoundError) Error() string {
	return fmt.Sprintf("key not found: %q", e.Key)
}

// WrongTypeError reports a lookup with a type that does not match the key's
// native type.
type WrongTypeError struct {
	Key  string
	Want string
}

func (e *WrongTypeError) Error() string {
	return fmt.Sprintf("key %q does not hold a %s", e.Key, e.Want)
}

// DecodeError reports a record that could not be framed or decoded.
//
// The underlying error can be accessed via errors.Unwrap.
type DecodeError struct {
	Offset int64
	Err    error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decoding record at offset %d: %v", e.Offset, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }
