package gribgo

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/bits-and-blooms/bitset"
	"github.com/hupe1980/gribgo/index"
	"github.com/hupe1980/gribgo/message"
)

// innerDimension is the trailing dimension over the per-record payload.
const innerDimension = "i"

// Variable is a named multi-dimensional entity of a dataset: either a
// coordinate axis carrying eager values, or a data variable whose dense
// payload array is built lazily on first Materialize call.
//
// Variables are immutable after assembly; a materialized array is cached for
// the lifetime of the Variable and concurrent readers are safe.
type Variable struct {
	Dimensions []string
	Shape      []int
	Attributes Attributes

	values []index.Value

	build func(ctx context.Context) (*Array, error)
	once  sync.Once
	arr   *Array
	err   error
}

// IsCoordinate reports whether the variable is a coordinate axis.
func (v *Variable) IsCoordinate() bool { return v.build == nil }

// Values returns a coordinate variable's values in axis order.
// Data variables return nil; their payload comes from Materialize.
func (v *Variable) Values() []index.Value {
	return v.values
}

// Materialize returns the dense payload array, building it on the first
// call and returning the cached array afterwards. Coordinate variables
// fail with ErrNoPayload.
func (v *Variable) Materialize(ctx context.Context) (*Array, error) {
	if v.build == nil {
		return nil, ErrNoPayload
	}
	v.once.Do(func() {
		v.arr, v.err = v.build(ctx)
	})
	return v.arr, v.err
}

func newCoordinateVariable(dimensions []string, values []index.Value, attrs Attributes) *Variable {
	shape := make([]int, 0, 1)
	if len(dimensions) > 0 {
		shape = append(shape, len(values))
	}
	if attrs == nil {
		attrs = Attributes{}
	}
	return &Variable{
		Dimensions: dimensions,
		Shape:      shape,
		Attributes: attrs,
		values:     values,
	}
}

// coordinateSet holds a variable's coordinates in declaration order.
type coordinateSet struct {
	names []string
	byKey map[string]*Variable
}

func newCoordinateSet() *coordinateSet {
	return &coordinateSet{byKey: make(map[string]*Variable)}
}

func (cs *coordinateSet) add(name string, v *Variable) {
	cs.names = append(cs.names, name)
	cs.byKey[name] = v
}

// assembleVariable builds the data variable for one parameter, together with
// its coordinates, from a sub-index restricted to that parameter.
//
// The handle is only used during assembly to read the representative record;
// materialization later opens its own handle.
func assembleVariable(ctx context.Context, stream *message.Stream, h *message.Handle, sub *index.Index, o options) (*Variable, *coordinateSet, error) {
	leader, err := representative(ctx, h, sub)
	if err != nil {
		return nil, nil, err
	}

	attrs, err := enforceUnique(sub, DefaultVariableAttributeKeys)
	if err != nil {
		return nil, nil, err
	}

	// The geometry keys to enforce depend on the grid type; unknown grid
	// types enforce nothing beyond the common spatial keys. A record without
	// a usable grid type is tolerated, a failing lookup is not.
	gridType, err := leader.GetString("gridType")
	if err != nil && !isInapplicableKey(err) {
		return nil, nil, fmt.Errorf("reading grid type of representative record: %w", err)
	}
	spatialKeys := append(append([]string(nil), spatialAttributeKeys...), GridTypeKeys(gridType)...)
	spatialAttrs, err := enforceUnique(sub, spatialKeys)
	if err != nil {
		return nil, nil, err
	}
	if err := attrs.merge(spatialAttrs); err != nil {
		return nil, nil, err
	}

	coords := newCoordinateSet()
	for _, hc := range headerCoordinates {
		values, coordAttrs, err := simpleCoordinate(sub, hc.key, hc.attrKeys)
		if err != nil {
			var notFound *CoordinateNotFoundError
			if errors.As(err, &notFound) {
				o.logger.Debug("skipping absent coordinate", "coordinate", hc.key)
				continue
			}
			return nil, nil, err
		}

		// Size-1 coordinates degenerate to dimensionless scalars.
		dims := []string{hc.key}
		if len(values) == 1 {
			dims = nil
		}
		coords.add(hc.key, newCoordinateVariable(dims, values, coordAttrs))
	}

	attrs["coordinates"] = index.String(strings.Join(coords.names, " ") + " lat lon")

	dimensions := make([]string, 0, len(coords.names)+1)
	shape := make([]int, 0, len(coords.names)+1)
	for _, name := range coords.names {
		if c := coords.byKey[name]; len(c.values) > 1 {
			dimensions = append(dimensions, name)
			shape = append(shape, len(c.values))
		}
	}
	dimensions = append(dimensions, innerDimension)

	points, err := leader.GetLong("numberOfPoints")
	if err != nil {
		return nil, nil, fmt.Errorf("reading payload length of representative record: %w", err)
	}
	shape = append(shape, int(points))

	if err := attachGeometry(coords, leader); err != nil {
		return nil, nil, err
	}

	v := &Variable{
		Dimensions: dimensions,
		Shape:      shape,
		Attributes: attrs,
	}
	v.build = materializer(stream, sub, v, coords, o)
	return v, coords, nil
}

// isInapplicableKey reports whether a header lookup failed only because the
// key does not apply to the record, as opposed to an I/O or decode failure.
func isInapplicableKey(err error) bool {
	var notFound *message.KeyNotFoundError
	var wrongType *message.WrongTypeError
	return errors.As(err, &notFound) || errors.As(err, &wrongType)
}

// representative picks the record whose header describes the variable's
// grid: the sub-index's first record in scan order, falling back to the
// stream's first record when the sub-index is empty.
func representative(ctx context.Context, h *message.Handle, sub *index.Index) (message.Message, error) {
	if fields := sub.Fields(); len(fields) > 0 {
		return h.ReadAt(ctx, fields[0].Offset)
	}
	offset, length, err := h.Next(ctx, 0)
	if err != nil {
		return nil, fmt.Errorf("locating representative record: %w", err)
	}
	return h.Decode(ctx, offset, length)
}

// attachGeometry adds the geographic latitude and longitude coordinates,
// 1-D over the trailing dimension, read from the representative record.
func attachGeometry(coords *coordinateSet, leader message.Message) error {
	for _, geo := range []struct {
		name  string
		key   string
		units string
	}{
		{name: "lat", key: "latitudes", units: "degrees_north"},
		{name: "lon", key: "longitudes", units: "degrees_east"},
	} {
		data, err := leader.GetDoubleArray(geo.key)
		if err != nil {
			var notFound *message.KeyNotFoundError
			if errors.As(err, &notFound) {
				// Decoder without computed geometry; the variable is still
				// usable without geographic coordinates.
				continue
			}
			return fmt.Errorf("reading %s of representative record: %w", geo.key, err)
		}
		values := make([]index.Value, len(data))
		for i, d := range data {
			values[i] = index.Double(d)
		}
		coords.add(geo.name, newCoordinateVariable(
			[]string{innerDimension},
			values,
			Attributes{"units": index.String(geo.units)},
		))
	}
	return nil
}

// materializer returns the deferred dense-array builder for one variable.
//
// The build visits every indexed record in ascending offset order, locates
// its position along each non-trailing dimension by exact value match in the
// corresponding coordinate, and copies the decoded payload into the array
// slice at that position. Positions never written stay NaN; payload elements
// equal to the missing-value sentinel are rewritten to NaN afterwards.
func materializer(stream *message.Stream, sub *index.Index, v *Variable, coords *coordinateSet, o options) func(ctx context.Context) (*Array, error) {
	return func(ctx context.Context) (*Array, error) {
		start := time.Now()
		arr, fields, err := buildArray(ctx, stream, sub, v, coords, o)
		o.metrics.RecordMaterialize(v.Attributes["shortName"].Text(), fields, time.Since(start), err)
		return arr, err
	}
}

func buildArray(ctx context.Context, stream *message.Stream, sub *index.Index, v *Variable, coords *coordinateSet, o options) (*Array, int, error) {
	arr := newFilled(v.Shape, fillValue())

	leading := v.Dimensions[:len(v.Dimensions)-1]
	inner := v.Shape[len(v.Shape)-1]

	// Tracks slots already holding a record, so duplicate coordinate
	// combinations are observable instead of silently lost.
	written := bitset.New(uint(arr.Size() / max(inner, 1)))

	h, err := stream.Open(ctx)
	if err != nil {
		return nil, 0, err
	}
	defer h.Close()

	placed := 0
	for _, f := range sub.Fields() {
		indices := make([]int, 0, len(leading))
		for _, dim := range leading {
			pos, ok := sub.KeyPosition(dim)
			if !ok {
				return nil, placed, fmt.Errorf("dimension %q not in index schema", dim)
			}
			ix := findValue(coords.byKey[dim].values, f.Values[pos])
			if ix < 0 {
				return nil, placed, fmt.Errorf("record at offset %d: value %v not on coordinate %q",
					f.Offset, f.Values[pos], dim)
			}
			indices = append(indices, ix)
		}

		slot := uint(arr.flattenLeading(indices))
		if written.Test(slot) {
			if o.duplicatePolicy == DuplicateError {
				return nil, placed, &DuplicateFieldError{Offset: f.Offset, Indices: indices}
			}
			o.logger.Warn("duplicate coordinate combination, later record wins",
				"offset", f.Offset, "indices", indices)
		}
		written.Set(slot)

		m, err := h.ReadAt(ctx, f.Offset)
		if err != nil {
			return nil, placed, err
		}
		payload, err := m.GetDoubleArray("values")
		if err != nil {
			return nil, placed, fmt.Errorf("reading payload of record at offset %d: %w", f.Offset, err)
		}
		if len(payload) != inner {
			return nil, placed, fmt.Errorf("record at offset %d: payload length %d, want %d",
				f.Offset, len(payload), inner)
		}

		slice := arr.Slice(indices...)
		for i, d := range payload {
			slice[i] = float32(d)
		}
		placed++
	}

	// A record-declared missing value wins over the configured default; an
	// undef attribute means the stream does not declare one.
	missing := o.missingValue
	if mv, ok := v.Attributes["missingValue"]; ok && !mv.IsUndef() {
		missing = mv.Double()
	}
	arr.replace(float32(missing), fillValue())

	return arr, placed, nil
}

// findValue locates value in values by exact match.
func findValue(values []index.Value, value index.Value) int {
	for i, v := range values {
		if v == value {
			return i
		}
	}
	return -1
}
