package message

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/hupe1980/gribgo/blobstore"
)

// Record envelope ("indicator section") layout:
//
//	edition 1: "GRIB" | 24-bit total length | edition byte
//	edition 2: "GRIB" | reserved (2) | discipline | edition byte | 64-bit total length
const (
	magic           = "GRIB"
	ed1IndicatorLen = 8
	ed2IndicatorLen = 16

	// scanChunk is the read granularity while searching for the next magic.
	scanChunk = 64 * 1024
)

var errNoFrame = errors.New("no record frame")

// frameAt parses the record envelope starting exactly at off and returns the
// record's total length in bytes.
func frameAt(ctx context.Context, blob blobstore.Blob, off int64) (int64, error) {
	var hdr [ed2IndicatorLen]byte
	n, err := blob.ReadAt(ctx, hdr[:], off)
	if err != nil && !errors.Is(err, io.EOF) {
		return 0, err
	}
	if n < ed1IndicatorLen {
		return 0, errNoFrame
	}
	if string(hdr[:4]) != magic {
		return 0, errNoFrame
	}

	var length int64
	switch edition := hdr[7]; edition {
	case 1:
		length = int64(hdr[4])<<16 | int64(hdr[5])<<8 | int64(hdr[6])
		if length < ed1IndicatorLen {
			return 0, fmt.Errorf("%w: implausible edition 1 length %d", errNoFrame, length)
		}
	case 2:
		if n < ed2IndicatorLen {
			return 0, errNoFrame
		}
		length = int64(binary.BigEndian.Uint64(hdr[8:16]))
		if length < ed2IndicatorLen {
			return 0, fmt.Errorf("%w: implausible edition 2 length %d", errNoFrame, length)
		}
	default:
		return 0, fmt.Errorf("%w: unsupported edition %d", errNoFrame, edition)
	}

	if off+length > blob.Size() {
		return 0, fmt.Errorf("%w: record of length %d exceeds stream size", errNoFrame, length)
	}
	return length, nil
}

// nextFrame locates the first record envelope at or after from.
// It returns io.EOF when no further record exists.
//
// Scanning for the magic rather than trusting back-to-back records is what
// allows lenient consumers to resynchronize after a corrupt record.
func nextFrame(ctx context.Context, blob blobstore.Blob, from int64) (offset, length int64, err error) {
	size := blob.Size()
	buf := make([]byte, scanChunk)

	for pos := from; pos < size; {
		n, err := blob.ReadAt(ctx, buf, pos)
		if err != nil && !errors.Is(err, io.EOF) {
			return 0, 0, err
		}
		if n < len(magic) {
			break
		}

		for i := 0; i+len(magic) <= n; i++ {
			if string(buf[i:i+len(magic)]) != magic {
				continue
			}
			candidate := pos + int64(i)
			l, err := frameAt(ctx, blob, candidate)
			if err == nil {
				return candidate, l, nil
			}
			if !errors.Is(err, errNoFrame) {
				return 0, 0, err
			}
		}

		// Overlap so a magic spanning the chunk boundary is not missed.
		pos += int64(n - len(magic) + 1)
	}

	return 0, 0, io.EOF
}
