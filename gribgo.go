// Package gribgo indexes GRIB weather-forecast streams and reassembles them
// into dense, labeled multi-dimensional arrays.
//
// A GRIB stream is a sequence of self-describing binary records stored
// consecutively. gribgo scans a stream once, capturing a fixed set of header
// keys per record alongside its byte offset, groups records by parameter id,
// infers a multi-dimensional coordinate system from the scattered header
// values and lazily materializes one dense float32 array per parameter.
// Positions with no contributing record are NaN.
//
// Record contents are decoded by an external message.Decoder; gribgo itself
// only locates record frames and never parses record internals.
//
// # Quick start
//
//	ds, err := gribgo.Open(ctx, "era5-levels-members.grib", decoder)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	t := ds.Variables["t"]
//	arr, err := t.Materialize(ctx)  // (number, dataDate, dataTime, topLevel, i)
//
// Or with the fluent builder:
//
//	ds, err := gribgo.File("forecast.grib.gz").
//	    Decoder(decoder).
//	    Lenient().
//	    CacheSize(64 << 20).
//	    Build(ctx)
//
// Streams may live in any blobstore.BlobStore: local files (memory-mapped),
// in-memory buffers, or S3-compatible object storage; gzip- and
// lz4-compressed streams are inflated transparently.
package gribgo

// Version is the tooling version recorded in dataset attributes.
const Version = "0.3.1"
