package blobstore

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/pierrec/lz4/v4"
)

// DecompressingStore wraps a BlobStore and transparently inflates
// gzip- and lz4-compressed blobs, selected by file extension.
//
// GRIB archives are commonly distributed as ".grib.gz"; decoding needs
// random access, so compressed streams are inflated into memory on Open.
// Uncompressed blobs pass through untouched.
type DecompressingStore struct {
	inner BlobStore
}

// NewDecompressingStore creates a new DecompressingStore.
func NewDecompressingStore(inner BlobStore) *DecompressingStore {
	return &DecompressingStore{inner: inner}
}

// Open opens a blob, inflating it first when the name carries a
// ".gz" or ".lz4" extension.
func (s *DecompressingStore) Open(ctx context.Context, name string) (Blob, error) {
	b, err := s.inner.Open(ctx, name)
	if err != nil {
		return nil, err
	}

	var inflate func(io.Reader) (io.Reader, error)
	switch {
	case strings.HasSuffix(name, ".gz"):
		inflate = func(r io.Reader) (io.Reader, error) { return gzip.NewReader(r) }
	case strings.HasSuffix(name, ".lz4"):
		inflate = func(r io.Reader) (io.Reader, error) { return lz4.NewReader(r), nil }
	default:
		return b, nil
	}
	defer b.Close()

	raw, err := readAll(ctx, b)
	if err != nil {
		return nil, fmt.Errorf("reading compressed blob %s: %w", name, err)
	}

	r, err := inflate(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("inflating %s: %w", name, err)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("inflating %s: %w", name, err)
	}

	return &memoryBlob{data: data}, nil
}

func readAll(ctx context.Context, b Blob) ([]byte, error) {
	if m, ok := b.(Mappable); ok {
		data, err := m.Bytes()
		if err != nil {
			return nil, err
		}
		// The mapping dies with the blob, copy out.
		copied := make([]byte, len(data))
		copy(copied, data)
		return copied, nil
	}
	buf := make([]byte, b.Size())
	if _, err := readFull(ctx, b, buf, 0); err != nil {
		return nil, err
	}
	return buf, nil
}
