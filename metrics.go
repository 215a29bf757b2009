package gribgo

import (
	"sync/atomic"
	"time"
)

// MetricsCollector defines an interface for collecting operational metrics.
// Implement this interface to integrate with monitoring systems.
type MetricsCollector interface {
	// RecordIndexBuild is called after each index build.
	// records is the number of indexed records, duration the scan time,
	// err is nil if successful.
	RecordIndexBuild(records int, duration time.Duration, err error)

	// RecordMaterialize is called after each variable materialization.
	// fields is the number of records placed into the array.
	RecordMaterialize(shortName string, fields int, duration time.Duration, err error)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordIndexBuild(int, time.Duration, error)          {}
func (NoopMetricsCollector) RecordMaterialize(string, int, time.Duration, error) {}

// BasicMetricsCollector provides simple in-memory metrics collection.
// Useful for debugging and basic monitoring without external dependencies.
type BasicMetricsCollector struct {
	IndexBuildCount       atomic.Int64
	IndexBuildErrors      atomic.Int64
	IndexedRecords        atomic.Int64
	IndexBuildTotalNanos  atomic.Int64
	MaterializeCount      atomic.Int64
	MaterializeErrors     atomic.Int64
	MaterializedFields    atomic.Int64
	MaterializeTotalNanos atomic.Int64
}

// RecordIndexBuild implements MetricsCollector.
func (b *BasicMetricsCollector) RecordIndexBuild(records int, duration time.Duration, err error) {
	b.IndexBuildCount.Add(1)
	b.IndexedRecords.Add(int64(records))
	b.IndexBuildTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.IndexBuildErrors.Add(1)
	}
}

// RecordMaterialize implements MetricsCollector.
func (b *BasicMetricsCollector) RecordMaterialize(_ string, fields int, duration time.Duration, err error) {
	b.MaterializeCount.Add(1)
	b.MaterializedFields.Add(int64(fields))
	b.MaterializeTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.MaterializeErrors.Add(1)
	}
}
