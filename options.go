package gribgo

import (
	"github.com/hupe1980/gribgo/blobstore"
)

// DefaultMissingValue is the missing-value sentinel assumed when a variable
// does not declare one through its "missingValue" attribute.
const DefaultMissingValue = 9999

// DuplicatePolicy selects the behavior when two records map to the identical
// position along every dimension of a variable.
type DuplicatePolicy int

const (
	// DuplicateWarn overwrites the earlier record and logs the collision.
	DuplicateWarn DuplicatePolicy = iota
	// DuplicateError aborts materialization with *DuplicateFieldError.
	DuplicateError
)

type options struct {
	indexKeys           []string
	globalAttributeKeys []string
	lenient             bool
	missingValue        float64
	duplicatePolicy     DuplicatePolicy
	logger              *Logger
	metrics             MetricsCollector
	store               blobstore.BlobStore
	cacheSize           int64
	versionTag          string
}

func defaultOptions() options {
	return options{
		indexKeys:           AllKeys(),
		globalAttributeKeys: DefaultGlobalAttributeKeys,
		missingValue:        DefaultMissingValue,
		duplicatePolicy:     DuplicateWarn,
		logger:              NoopLogger(),
		metrics:             NoopMetricsCollector{},
		versionTag:          Version,
	}
}

// Option configures dataset construction.
type Option func(*options)

// WithIndexKeys overrides the header-key schema captured per record.
// The schema must cover every coordinate and attribute key the build reads.
func WithIndexKeys(keys ...string) Option {
	return func(o *options) { o.indexKeys = keys }
}

// WithGlobalAttributeKeys overrides the keys collected as dataset attributes.
func WithGlobalAttributeKeys(keys ...string) Option {
	return func(o *options) { o.globalAttributeKeys = keys }
}

// WithLenient makes the index build skip unreadable records instead of
// aborting. Skips are logged.
func WithLenient(lenient bool) Option {
	return func(o *options) { o.lenient = lenient }
}

// WithMissingValue overrides the missing-value sentinel assumed for
// variables that do not declare one.
func WithMissingValue(v float64) Option {
	return func(o *options) { o.missingValue = v }
}

// WithDuplicatePolicy selects the duplicate-position behavior during
// materialization.
func WithDuplicatePolicy(p DuplicatePolicy) Option {
	return func(o *options) { o.duplicatePolicy = p }
}

// WithLogger sets the structured logger for scan and assembly diagnostics.
func WithLogger(l *Logger) Option {
	return func(o *options) {
		if l == nil {
			l = NoopLogger()
		}
		o.logger = l
	}
}

// WithMetrics sets the metrics collector.
func WithMetrics(mc MetricsCollector) Option {
	return func(o *options) {
		if mc == nil {
			mc = NoopMetricsCollector{}
		}
		o.metrics = mc
	}
}

// WithStore reads the stream from the given blob store instead of the local
// file system; the path passed to Open is then the blob name within the
// store.
func WithStore(store blobstore.BlobStore) Option {
	return func(o *options) { o.store = store }
}

// WithCacheSize enables block-level read caching with the given capacity in
// bytes. Recommended for remote stores, where materialization re-reads
// ranges the index build already touched.
func WithCacheSize(bytes int64) Option {
	return func(o *options) { o.cacheSize = bytes }
}

// WithVersionTag overrides the tooling version recorded in the dataset
// attributes.
func WithVersionTag(tag string) Option {
	return func(o *options) { o.versionTag = tag }
}
