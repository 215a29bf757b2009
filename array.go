package gribgo

import (
	"fmt"
	"math"
)

// Array is a dense multi-dimensional float32 array in row-major order.
// Positions with no contributing record hold NaN.
type Array struct {
	shape []int
	data  []float32
}

// newFilled allocates an array of the given shape filled with fill.
func newFilled(shape []int, fill float32) *Array {
	size := 1
	for _, s := range shape {
		size *= s
	}
	data := make([]float32, size)
	for i := range data {
		data[i] = fill
	}
	return &Array{shape: append([]int(nil), shape...), data: data}
}

// Shape returns the per-dimension sizes.
func (a *Array) Shape() []int {
	return append([]int(nil), a.shape...)
}

// Size returns the total number of elements.
func (a *Array) Size() int { return len(a.data) }

// Data returns the backing row-major slice. Treat it as read-only.
func (a *Array) Data() []float32 { return a.data }

// At returns the element at the given multi-index.
func (a *Array) At(indices ...int) float32 {
	return a.data[a.flatten(indices)]
}

// Slice returns the 1-D slice at the given leading multi-index, i.e. all
// elements along the trailing dimension.
func (a *Array) Slice(indices ...int) []float32 {
	if len(indices) != len(a.shape)-1 {
		panic(fmt.Sprintf("array: slice index has %d dimensions, want %d", len(indices), len(a.shape)-1))
	}
	inner := a.shape[len(a.shape)-1]
	base := a.flattenLeading(indices) * inner
	return a.data[base : base+inner]
}

func (a *Array) flatten(indices []int) int {
	if len(indices) != len(a.shape) {
		panic(fmt.Sprintf("array: index has %d dimensions, want %d", len(indices), len(a.shape)))
	}
	flat := 0
	for i, ix := range indices {
		if ix < 0 || ix >= a.shape[i] {
			panic(fmt.Sprintf("array: index %d out of range for dimension %d of size %d", ix, i, a.shape[i]))
		}
		flat = flat*a.shape[i] + ix
	}
	return flat
}

// flattenLeading flattens a multi-index over all but the trailing dimension.
func (a *Array) flattenLeading(indices []int) int {
	flat := 0
	for i, ix := range indices {
		if ix < 0 || ix >= a.shape[i] {
			panic(fmt.Sprintf("array: index %d out of range for dimension %d of size %d", ix, i, a.shape[i]))
		}
		flat = flat*a.shape[i] + ix
	}
	return flat
}

// replace rewrites every element equal to old with new. NaN old values are
// never equal and never replaced.
func (a *Array) replace(old, new float32) {
	for i, v := range a.data {
		if v == old {
			a.data[i] = new
		}
	}
}

// fillValue is the undefined sentinel for positions with no record.
func fillValue() float32 {
	return float32(math.NaN())
}
