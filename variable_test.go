package gribgo

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/gribgo/blobstore"
	"github.com/hupe1980/gribgo/message"
	"github.com/hupe1980/gribgo/testutil"
)

// smallField builds one 4-point record for the materialization tests, with
// payload values encoding their origin: number*100 + level-rank*10 + i.
func smallField(number, level int64, levelRank int) testutil.Field {
	h := eraHeader(number, 20170101, 0, level)
	h["numberOfPoints"] = int64(4)
	values := make([]float64, 4)
	for i := range values {
		values[i] = float64(number)*100 + float64(levelRank)*10 + float64(i)
	}
	return testutil.Field{Header: h, Values: values}
}

func TestMaterialize(t *testing.T) {
	ctx := context.Background()

	// Members 0 and 1 on levels 850 and 500, except that member 1 has no
	// 500 hPa record.
	fields := []testutil.Field{
		smallField(0, 850, 0),
		smallField(0, 500, 1),
		smallField(1, 850, 0),
	}
	// Payload element (0, 850, 2) carries the declared missing value.
	fields[0].Values[2] = 9999

	ds, err := openFields(t, fields)
	require.NoError(t, err)

	temp := ds.Variables["t"]
	require.Equal(t, []string{"number", "topLevel", "i"}, temp.Dimensions)
	require.Equal(t, []int{2, 2, 4}, temp.Shape)

	arr, err := temp.Materialize(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int{2, 2, 4}, arr.Shape())

	// Level rank follows first-observed order: 850 then 500.
	assert.Equal(t, float32(0), arr.At(0, 0, 0))
	assert.Equal(t, float32(1), arr.At(0, 0, 1))
	assert.Equal(t, float32(13), arr.At(0, 1, 3))
	assert.Equal(t, float32(101), arr.At(1, 0, 1))

	// The declared missing value reads as NaN.
	assert.True(t, math.IsNaN(float64(arr.At(0, 0, 2))))

	// Positions of the absent (1, 500) record stay NaN.
	for i := 0; i < 4; i++ {
		assert.True(t, math.IsNaN(float64(arr.At(1, 1, i))), "i=%d", i)
	}

	t.Run("CachedAcrossCalls", func(t *testing.T) {
		again, err := temp.Materialize(ctx)
		require.NoError(t, err)
		assert.Same(t, arr, again)
	})
}

func TestMaterializeMissingValueOption(t *testing.T) {
	f := smallField(0, 500, 0)
	delete(f.Header, "missingValue")
	f.Values[1] = 255

	ds, err := openFields(t, []testutil.Field{f}, WithMissingValue(255))
	require.NoError(t, err)

	arr, err := ds.Variables["t"].Materialize(context.Background())
	require.NoError(t, err)

	assert.Equal(t, float32(0), arr.At(0))
	assert.True(t, math.IsNaN(float64(arr.At(1))))
	assert.Equal(t, float32(2), arr.At(2))
}

func TestMaterializeDuplicatePolicy(t *testing.T) {
	ctx := context.Background()

	// Two records identical along every coordinate, distinguishable only by
	// a header key outside the enforced geometry of their grid type.
	a := smallField(0, 500, 0)
	a.Header["N"] = int64(1)
	b := smallField(0, 500, 0)
	b.Header["N"] = int64(2)
	for i := range b.Values {
		b.Values[i] = 42
	}
	fields := []testutil.Field{a, b}

	t.Run("WarnOverwrites", func(t *testing.T) {
		ds, err := openFields(t, fields)
		require.NoError(t, err)

		arr, err := ds.Variables["t"].Materialize(ctx)
		require.NoError(t, err)
		// The record later in the stream wins.
		assert.Equal(t, float32(42), arr.At(0))
	})

	t.Run("ErrorAborts", func(t *testing.T) {
		ds, err := openFields(t, fields, WithDuplicatePolicy(DuplicateError))
		require.NoError(t, err)

		_, err = ds.Variables["t"].Materialize(ctx)
		var dup *DuplicateFieldError
		require.ErrorAs(t, err, &dup)

		// The failure is cached like a success.
		_, again := ds.Variables["t"].Materialize(ctx)
		assert.Equal(t, err, again)
	})
}

func TestMaterializePayloadLengthMismatch(t *testing.T) {
	f := smallField(0, 500, 0)
	f.Header["numberOfPoints"] = int64(8)

	ds, err := openFields(t, []testutil.Field{f})
	require.NoError(t, err)

	_, err = ds.Variables["t"].Materialize(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "payload length")
}

func TestMaterializeConcurrent(t *testing.T) {
	ctx := context.Background()

	ds, err := openFields(t, []testutil.Field{smallField(0, 500, 0), smallField(1, 500, 0)})
	require.NoError(t, err)

	temp := ds.Variables["t"]
	results := make(chan *Array, 8)
	for i := 0; i < 8; i++ {
		go func() {
			arr, err := temp.Materialize(ctx)
			assert.NoError(t, err)
			results <- arr
		}()
	}

	first := <-results
	for i := 1; i < 8; i++ {
		assert.Same(t, first, <-results)
	}
}

// gridFaultDecoder decorates the synthetic decoder with records whose
// grid-type lookup fails like a truncated section would.
type gridFaultDecoder struct {
	inner message.Decoder
	err   error
}

func (d *gridFaultDecoder) Decode(ctx context.Context, blob blobstore.Blob, offset, length int64) (message.Message, error) {
	m, err := d.inner.Decode(ctx, blob, offset, length)
	if err != nil {
		return nil, err
	}
	return &gridFaultMsg{Message: m, err: d.err}, nil
}

type gridFaultMsg struct {
	message.Message
	err error
}

func (m *gridFaultMsg) GetString(key string) (string, error) {
	if key == "gridType" {
		return "", m.err
	}
	return m.Message.GetString(key)
}

func TestAssembleGridTypeLookup(t *testing.T) {
	ctx := context.Background()

	// A numeric grid template number instead of a name: the string lookup
	// degrades and no grid-specific geometry keys are enforced.
	f := smallField(0, 500, 0)
	f.Header["gridType"] = int64(30)

	t.Run("NonStringDegrades", func(t *testing.T) {
		ds, err := openFields(t, []testutil.Field{f})
		require.NoError(t, err)

		arr, err := ds.Variables["t"].Materialize(ctx)
		require.NoError(t, err)
		assert.Equal(t, float32(0), arr.At(0))
	})

	t.Run("FailurePropagates", func(t *testing.T) {
		store := blobstore.NewMemoryStore()
		require.NoError(t, store.Put(ctx, "test.grib", testutil.MustEncodeStream(f)))

		boom := errors.New("bit stream read failed")
		dec := &gridFaultDecoder{inner: testutil.NewDecoder(), err: boom}
		_, err := Open(ctx, "test.grib", dec, WithStore(store))
		require.ErrorIs(t, err, boom)
	})
}
