// Package blobstore abstracts access to immutable GRIB streams.
//
// The indexing core reads records at known byte offsets, so the central
// abstraction is a random-access Blob. LocalStore memory-maps files for
// efficient offset-addressed reads, MemoryStore serves in-memory fixtures,
// and the s3 and minio subpackages fetch byte ranges from object storage.
// CachingStore adds block-level LRU caching on top of any store, and
// DecompressingStore transparently inflates gzip- or lz4-compressed streams.
package blobstore
