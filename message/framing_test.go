package message

import (
	"context"
	"encoding/binary"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/gribgo/blobstore"
)

func openBlob(t *testing.T, data []byte) blobstore.Blob {
	t.Helper()

	store := blobstore.NewMemoryStore()
	require.NoError(t, store.Put(context.Background(), "records", data))

	blob, err := store.Open(context.Background(), "records")
	require.NoError(t, err)
	t.Cleanup(func() { _ = blob.Close() })

	return blob
}

// frame1 builds an edition 1 record envelope with body padding bytes.
func frame1(body int) []byte {
	total := ed1IndicatorLen + body
	b := make([]byte, total)
	copy(b, magic)
	b[4] = byte(total >> 16)
	b[5] = byte(total >> 8)
	b[6] = byte(total)
	b[7] = 1
	return b
}

// frame2 builds an edition 2 record envelope with body padding bytes.
func frame2(body int) []byte {
	total := ed2IndicatorLen + body
	b := make([]byte, total)
	copy(b, magic)
	b[7] = 2
	binary.BigEndian.PutUint64(b[8:16], uint64(total))
	return b
}

func TestFrameAt(t *testing.T) {
	ctx := context.Background()

	data := append(frame1(4), frame2(8)...)
	blob := openBlob(t, data)

	l, err := frameAt(ctx, blob, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(ed1IndicatorLen+4), l)

	l, err = frameAt(ctx, blob, int64(ed1IndicatorLen+4))
	require.NoError(t, err)
	assert.Equal(t, int64(ed2IndicatorLen+8), l)

	_, err = frameAt(ctx, blob, 1)
	assert.ErrorIs(t, err, errNoFrame)
}

func TestFrameAtRejectsImplausibleLengths(t *testing.T) {
	ctx := context.Background()

	t.Run("TruncatedRecord", func(t *testing.T) {
		// Envelope announces more bytes than the stream holds.
		data := frame2(64)
		blob := openBlob(t, data[:ed2IndicatorLen])

		_, err := frameAt(ctx, blob, 0)
		assert.ErrorIs(t, err, errNoFrame)
	})

	t.Run("UnsupportedEdition", func(t *testing.T) {
		data := frame1(4)
		data[7] = 3
		blob := openBlob(t, data)

		_, err := frameAt(ctx, blob, 0)
		assert.ErrorIs(t, err, errNoFrame)
	})

	t.Run("ZeroLength", func(t *testing.T) {
		data := frame1(4)
		data[4], data[5], data[6] = 0, 0, 0
		blob := openBlob(t, data)

		_, err := frameAt(ctx, blob, 0)
		assert.ErrorIs(t, err, errNoFrame)
	})
}

func TestNextFrameSkipsGarbage(t *testing.T) {
	ctx := context.Background()

	var data []byte
	data = append(data, []byte("leading noise")...)
	r1 := int64(len(data))
	data = append(data, frame1(4)...)
	// A stray magic that is not a valid envelope must not stop the scan.
	data = append(data, []byte("GRIBxxxx garbage")...)
	r2 := int64(len(data))
	data = append(data, frame2(8)...)
	data = append(data, []byte("trailer junk")...)

	blob := openBlob(t, data)

	off, l, err := nextFrame(ctx, blob, 0)
	require.NoError(t, err)
	assert.Equal(t, r1, off)
	assert.Equal(t, int64(ed1IndicatorLen+4), l)

	off, l, err = nextFrame(ctx, blob, off+l)
	require.NoError(t, err)
	assert.Equal(t, r2, off)
	assert.Equal(t, int64(ed2IndicatorLen+8), l)

	_, _, err = nextFrame(ctx, blob, off+l)
	assert.ErrorIs(t, err, io.EOF)
}

func TestNextFrameEmptyStream(t *testing.T) {
	blob := openBlob(t, []byte("no records here"))

	_, _, err := nextFrame(context.Background(), blob, 0)
	assert.ErrorIs(t, err, io.EOF)
}
