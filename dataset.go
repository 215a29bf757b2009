package gribgo

import (
	"context"
	"fmt"
	"path/filepath"
	"slices"
	"time"

	"github.com/hupe1980/gribgo/blobstore"
	"github.com/hupe1980/gribgo/index"
	"github.com/hupe1980/gribgo/internal/cache"
	"github.com/hupe1980/gribgo/message"
)

// Dataset is the assembled result for one stream: shared dimensions, data
// and coordinate variables, and stream-global attributes.
//
// A Dataset is immutable after construction and safe for concurrent readers.
type Dataset struct {
	Dimensions map[string]int
	Variables  map[string]*Variable
	Attributes Attributes
}

// Open indexes the GRIB stream at path and assembles its dataset.
//
// Record contents are parsed by the given decoder. By default path is a
// local file; WithStore redirects to another blob store, in which case path
// is the blob name. Construction either fully succeeds or fails with an
// error identifying the offending key, record or conflict; payload arrays
// are not read until a variable is materialized.
func Open(ctx context.Context, path string, decoder message.Decoder, opts ...Option) (*Dataset, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	store := o.store
	name := path
	if store == nil {
		dir, file := filepath.Split(path)
		if dir == "" {
			dir = "."
		}
		store = blobstore.NewLocalStore(dir)
		name = file
	}
	store = blobstore.NewDecompressingStore(store)
	if o.cacheSize > 0 {
		store = blobstore.NewCachingStore(store, cache.NewLRU(o.cacheSize), 0)
	}

	o.logger = o.logger.WithStream(name)

	return buildDataset(ctx, message.NewStream(store, name, decoder), o)
}

// buildDataset builds the full-schema index, assembles one variable per
// distinct parameter id and merges everything into one namespace.
func buildDataset(ctx context.Context, stream *message.Stream, o options) (*Dataset, error) {
	h, err := stream.Open(ctx)
	if err != nil {
		return nil, err
	}
	defer h.Close()

	start := time.Now()
	x, err := index.Build(ctx, h, o.indexKeys,
		index.WithLenient(o.lenient),
		index.WithLogger(o.logger.Logger),
	)
	if err != nil {
		o.metrics.RecordIndexBuild(0, time.Since(start), err)
		return nil, err
	}
	o.metrics.RecordIndexBuild(x.Records(), time.Since(start), nil)

	pidPos, ok := x.KeyPosition("paramId")
	if !ok {
		return nil, fmt.Errorf("index schema lacks %q", "paramId")
	}
	shortPos, ok := x.KeyPosition("shortName")
	if !ok {
		return nil, fmt.Errorf("index schema lacks %q", "shortName")
	}

	ds := &Dataset{
		Dimensions: make(map[string]int),
		Variables:  make(map[string]*Variable),
		Attributes: Attributes{},
	}

	// One variable per distinct parameter id, in first-observed order,
	// keyed by the parameter's short display name.
	seen := make(map[index.Value]bool)
	for _, f := range x.Fields() {
		paramID := f.Values[pidPos]
		if seen[paramID] {
			continue
		}
		seen[paramID] = true
		shortName := f.Values[shortPos].String()

		v, coords, err := assembleVariable(ctx, stream, h, x.Subindex("paramId", paramID), withParamLogger(o, shortName))
		if err != nil {
			return nil, fmt.Errorf("assembling variable %q: %w", shortName, err)
		}

		if err := ds.mergeVariable(shortName, v); err != nil {
			return nil, err
		}
		for _, name := range coords.names {
			if err := ds.mergeVariable(name, coords.byKey[name]); err != nil {
				return nil, err
			}
		}
	}

	attrs, err := enforceUnique(x, o.globalAttributeKeys)
	if err != nil {
		return nil, err
	}
	if err := ds.Attributes.merge(attrs); err != nil {
		return nil, err
	}
	ds.Attributes["gribgoVersion"] = index.String(o.versionTag)

	return ds, nil
}

// mergeVariable adds a variable to the shared namespace. A variable already
// present under the same name must agree in dimensions, shape, coordinate
// values and attributes; any difference is fatal. Same-size coordinates with
// different values would otherwise mislabel every variable sharing the axis.
func (ds *Dataset) mergeVariable(name string, v *Variable) error {
	for i, dim := range v.Dimensions {
		size := v.Shape[i]
		existing, ok := ds.Dimensions[dim]
		if !ok {
			ds.Dimensions[dim] = size
			continue
		}
		if existing != size {
			return &DimensionConflictError{Name: dim, Size: size, Existing: existing}
		}
	}

	existing, ok := ds.Variables[name]
	if !ok {
		ds.Variables[name] = v
		return nil
	}
	if len(existing.Shape) != len(v.Shape) {
		return &VariableConflictError{Name: name, Reason: "rank"}
	}
	for i := range v.Shape {
		if existing.Shape[i] != v.Shape[i] {
			return &DimensionConflictError{Name: name, Size: v.Shape[i], Existing: existing.Shape[i]}
		}
	}
	if !slices.Equal(existing.Dimensions, v.Dimensions) {
		return &VariableConflictError{Name: name, Reason: "dimensions"}
	}
	if !slices.Equal(existing.values, v.values) {
		return &VariableConflictError{Name: name, Reason: "coordinate values"}
	}
	if len(existing.Attributes) != len(v.Attributes) {
		return &VariableConflictError{Name: name, Reason: "attributes"}
	}
	for key, value := range v.Attributes {
		if ev, ok := existing.Attributes[key]; !ok || ev != value {
			return &VariableConflictError{Name: name, Reason: fmt.Sprintf("attribute %q", key)}
		}
	}
	return nil
}

func withParamLogger(o options, shortName string) options {
	o.logger = o.logger.WithParam(shortName)
	return o
}
