package gribgo

import (
	"errors"
	"fmt"

	"github.com/hupe1980/gribgo/index"
)

// ErrNoPayload is returned when Materialize is called on a coordinate
// variable, which carries eager values instead of a deferred payload.
var ErrNoPayload = errors.New("variable has no record payload")

// AmbiguousAttributeError reports an attribute that must be unique per
// dataset or variable but has two or more distinct values across the matched
// records.
type AmbiguousAttributeError struct {
	Key    string
	Values []index.Value
}

func (e *AmbiguousAttributeError) Error() string {
	return fmt.Sprintf("multiple values for unique attribute %q: %v", e.Key, e.Values)
}

// CoordinateNotFoundError reports a declared coordinate key that is entirely
// absent from a stream. It is recoverable: the caller skips the coordinate
// and the variable is assembled with one fewer dimension.
type CoordinateNotFoundError struct {
	Key string
}

func (e *CoordinateNotFoundError) Error() string {
	return fmt.Sprintf("coordinate missing from stream: %q", e.Key)
}

// DimensionConflictError reports two variables declaring the same dimension
// name with different sizes. It is fatal to the whole dataset build.
type DimensionConflictError struct {
	Name     string
	Size     int
	Existing int
}

func (e *DimensionConflictError) Error() string {
	return fmt.Sprintf("dimension %q declared with size %d, already present with size %d",
		e.Name, e.Size, e.Existing)
}

// VariableConflictError reports two variables assembled under the same name
// with differing content. It is fatal to the whole dataset build.
type VariableConflictError struct {
	Name   string
	Reason string
}

func (e *VariableConflictError) Error() string {
	return fmt.Sprintf("variable %q assembled twice with different %s", e.Name, e.Reason)
}

// AttributeConflictError reports two variables declaring the same global
// attribute with different values. It is fatal to the whole dataset build.
type AttributeConflictError struct {
	Key      string
	Value    index.Value
	Existing index.Value
}

func (e *AttributeConflictError) Error() string {
	return fmt.Sprintf("attribute %q declared as %v, already present as %v",
		e.Key, e.Value, e.Existing)
}

// DuplicateFieldError reports two records mapping to the identical position
// along every dimension. It is returned by Materialize under
// DuplicateError policy; under DuplicateWarn the later record wins and the
// collision is logged.
type DuplicateFieldError struct {
	Offset  int64
	Indices []int
}

func (e *DuplicateFieldError) Error() string {
	return fmt.Sprintf("record at offset %d maps to already filled position %v", e.Offset, e.Indices)
}
