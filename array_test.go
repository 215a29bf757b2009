package gribgo

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewFilled(t *testing.T) {
	a := newFilled([]int{2, 3}, fillValue())

	assert.Equal(t, []int{2, 3}, a.Shape())
	assert.Equal(t, 6, a.Size())
	for _, v := range a.Data() {
		assert.True(t, math.IsNaN(float64(v)))
	}
}

func TestArrayRowMajorLayout(t *testing.T) {
	a := newFilled([]int{2, 3, 4}, 0)
	for i := range a.data {
		a.data[i] = float32(i)
	}

	assert.Equal(t, float32(0), a.At(0, 0, 0))
	assert.Equal(t, float32(1*12+2*4+3), a.At(1, 2, 3))

	s := a.Slice(1, 2)
	require.Len(t, s, 4)
	assert.Equal(t, float32(20), s[0])
	assert.Equal(t, float32(23), s[3])

	// The slice aliases the backing array.
	s[0] = -1
	assert.Equal(t, float32(-1), a.At(1, 2, 0))
}

func TestArrayReplace(t *testing.T) {
	a := newFilled([]int{4}, 9999)
	a.data[2] = 1

	a.replace(9999, fillValue())

	assert.True(t, math.IsNaN(float64(a.At(0))))
	assert.Equal(t, float32(1), a.At(2))
	assert.True(t, math.IsNaN(float64(a.At(3))))
}

func TestArrayBoundsPanic(t *testing.T) {
	a := newFilled([]int{2, 3}, 0)

	assert.Panics(t, func() { a.At(2, 0) })
	assert.Panics(t, func() { a.At(0) })
	assert.Panics(t, func() { a.Slice(0, 0) })
}
