package message

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/hupe1980/gribgo/blobstore"
)

// Decoder parses the contents of one framed record.
//
// It is the external collaborator boundary: the indexing core hands it a blob,
// the record's byte offset and its framed length, and receives key-addressable
// access to the decoded record.
type Decoder interface {
	Decode(ctx context.Context, blob blobstore.Blob, offset, length int64) (Message, error)
}

// Stream is a named GRIB stream in a blob store.
//
// A Stream holds no open resources; Open acquires a Handle which must be
// closed. Reopening restarts iteration from the first record.
type Stream struct {
	store   blobstore.BlobStore
	name    string
	decoder Decoder
}

// NewStream creates a Stream for the named blob.
func NewStream(store blobstore.BlobStore, name string, decoder Decoder) *Stream {
	return &Stream{
		store:   store,
		name:    name,
		decoder: decoder,
	}
}

// Name returns the blob name of the stream.
func (s *Stream) Name() string { return s.name }

// Open opens the underlying blob for record access.
func (s *Stream) Open(ctx context.Context) (*Handle, error) {
	blob, err := s.store.Open(ctx, s.name)
	if err != nil {
		return nil, fmt.Errorf("opening stream %s: %w", s.name, err)
	}
	return &Handle{blob: blob, decoder: s.decoder}, nil
}

// Handle is an open stream. It is not safe for concurrent use; concurrent
// consumers each open their own Handle.
type Handle struct {
	blob    blobstore.Blob
	decoder Decoder
}

// Size returns the stream size in bytes.
func (h *Handle) Size() int64 { return h.blob.Size() }

// Close releases the underlying blob.
func (h *Handle) Close() error { return h.blob.Close() }

// Next locates the first record frame at or after from.
// It returns io.EOF when the stream holds no further record.
func (h *Handle) Next(ctx context.Context, from int64) (offset, length int64, err error) {
	return nextFrame(ctx, h.blob, from)
}

// Decode decodes the record framed at offset with the given length.
// Failures are reported as *DecodeError.
func (h *Handle) Decode(ctx context.Context, offset, length int64) (Message, error) {
	m, err := h.decoder.Decode(ctx, h.blob, offset, length)
	if err != nil {
		var de *DecodeError
		if errors.As(err, &de) {
			return nil, err
		}
		return nil, &DecodeError{Offset: offset, Err: err}
	}
	return m, nil
}

// ReadAt decodes the record whose frame starts exactly at offset.
// It is the random-access path used during materialization.
func (h *Handle) ReadAt(ctx context.Context, offset int64) (Message, error) {
	length, err := frameAt(ctx, h.blob, offset)
	if err != nil {
		return nil, &DecodeError{Offset: offset, Err: err}
	}
	return h.Decode(ctx, offset, length)
}

// Scan decodes every record in offset order and calls fn for each.
// Any framing, decode or callback error aborts the scan.
func (h *Handle) Scan(ctx context.Context, fn func(offset int64, m Message) error) error {
	var pos int64
	for {
		offset, length, err := h.Next(ctx, pos)
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}

		m, err := h.Decode(ctx, offset, length)
		if err != nil {
			return err
		}
		if err := fn(offset, m); err != nil {
			return err
		}
		pos = offset + length
	}
}
