package blobstore

import (
	"context"
	"io"
	"os"
)

// ErrNotFound is returned when a blob does not exist.
//
// Implementations should return an error that satisfies `errors.Is(err, ErrNotFound)`.
// The default maps to `os.ErrNotExist`.
var ErrNotFound = os.ErrNotExist

// BlobStore is an abstraction for accessing immutable GRIB streams.
//
// Stores are read-only: the indexing core never writes records. Backends
// include the local file system, in-memory buffers and S3-compatible object
// storage.
type BlobStore interface {
	// Open opens a blob for reading.
	Open(ctx context.Context, name string) (Blob, error)
}

// Blob is a read-only handle to one GRIB stream.
type Blob interface {
	// ReadAt reads len(p) bytes starting at offset off.
	// It returns io.EOF when the read extends past the end of the blob.
	ReadAt(ctx context.Context, p []byte, off int64) (int, error)
	// Size returns the size of the blob in bytes.
	Size() int64
	io.Closer
}

// Mappable is an optional interface for Blobs that expose their full content
// as a byte slice. The slice is valid until the Blob is closed and is a
// zero-copy operation where supported (mmap-backed local files).
type Mappable interface {
	Bytes() ([]byte, error)
}
