package gribgo

import (
	"context"
	"errors"

	"github.com/hupe1980/gribgo/blobstore"
	"github.com/hupe1980/gribgo/message"
)

// File creates a fluent builder for the dataset of one stream.
//
// The builder is immutable - each method returns a new builder with the
// updated configuration.
//
// Example:
//
//	ds, err := gribgo.File("forecast.grib").
//	    Decoder(decoder).
//	    Lenient().
//	    MissingValue(255).
//	    Build(ctx)
func File(path string) Builder {
	return Builder{path: path}
}

// Builder is an immutable fluent builder for datasets.
type Builder struct {
	path    string
	decoder message.Decoder
	opts    []Option
}

func (b Builder) with(opt Option) Builder {
	opts := make([]Option, len(b.opts), len(b.opts)+1)
	copy(opts, b.opts)
	b.opts = append(opts, opt)
	return b
}

// Decoder sets the external record decoder. Required.
func (b Builder) Decoder(d message.Decoder) Builder {
	b.decoder = d
	return b
}

// Store reads the stream from the given blob store; the builder path is
// then the blob name within the store.
func (b Builder) Store(s blobstore.BlobStore) Builder {
	return b.with(WithStore(s))
}

// Lenient makes the index build skip unreadable records instead of aborting.
func (b Builder) Lenient() Builder {
	return b.with(WithLenient(true))
}

// MissingValue overrides the missing-value sentinel assumed for variables
// that do not declare one.
func (b Builder) MissingValue(v float64) Builder {
	return b.with(WithMissingValue(v))
}

// DuplicateError aborts materialization when two records map to the same
// position, instead of the default warn-and-overwrite.
func (b Builder) DuplicateError() Builder {
	return b.with(WithDuplicatePolicy(DuplicateError))
}

// IndexKeys overrides the header-key schema captured per record.
func (b Builder) IndexKeys(keys ...string) Builder {
	return b.with(WithIndexKeys(keys...))
}

// GlobalAttributeKeys overrides the keys collected as dataset attributes.
func (b Builder) GlobalAttributeKeys(keys ...string) Builder {
	return b.with(WithGlobalAttributeKeys(keys...))
}

// CacheSize enables block-level read caching with the given capacity in bytes.
func (b Builder) CacheSize(bytes int64) Builder {
	return b.with(WithCacheSize(bytes))
}

// Logger sets the structured logger for diagnostics.
func (b Builder) Logger(l *Logger) Builder {
	return b.with(WithLogger(l))
}

// Metrics sets the metrics collector.
func (b Builder) Metrics(mc MetricsCollector) Builder {
	return b.with(WithMetrics(mc))
}

// VersionTag overrides the tooling version recorded in dataset attributes.
func (b Builder) VersionTag(tag string) Builder {
	return b.with(WithVersionTag(tag))
}

// Build opens the stream and assembles the dataset.
func (b Builder) Build(ctx context.Context) (*Dataset, error) {
	if b.decoder == nil {
		return nil, errors.New("gribgo: no decoder configured")
	}
	return Open(ctx, b.path, b.decoder, b.opts...)
}
