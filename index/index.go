// Package index builds queryable in-memory indexes over GRIB streams.
//
// One scan per stream captures a fixed schema of header keys for every
// record; payloads are never loaded. The resulting Index maps header-value
// tuples to the byte offsets of the records that produced them and supports
// two queries: the ordered distinct values of a key, and filtering to the
// records matching an exact key/value predicate.
package index

import (
	"sort"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/hupe1980/gribgo/codec"
)

// bucket groups the records sharing one exact header-value tuple.
// Offsets preserve stream scan order.
type bucket struct {
	values  []Value
	offsets []int64
}

// posting is the inverted index for one schema key: the distinct values in
// first-observed order, each with the bitmap of bucket ordinals carrying it.
type posting struct {
	order []Value
	rows  map[Value]*roaring.Bitmap
}

// Index is an immutable index over one stream.
//
// It is built once per stream open; Subindex derives new Index values and
// never mutates the parent.
type Index struct {
	keys     []string
	keyPos   map[string]int
	buckets  []*bucket
	byTuple  map[string]int
	postings map[string]*posting
}

func newIndex(keys []string) *Index {
	keyPos := make(map[string]int, len(keys))
	for i, k := range keys {
		keyPos[k] = i
	}
	return &Index{
		keys:     keys,
		keyPos:   keyPos,
		byTuple:  make(map[string]int),
		postings: make(map[string]*posting),
	}
}

// add appends one record to the index. values must be in schema order.
func (x *Index) add(values []Value, offset int64) {
	tuple := encodeTuple(values)
	pos, ok := x.byTuple[tuple]
	if !ok {
		pos = len(x.buckets)
		x.byTuple[tuple] = pos
		x.buckets = append(x.buckets, &bucket{values: values})
		for i, key := range x.keys {
			p := x.postings[key]
			if p == nil {
				p = &posting{rows: make(map[Value]*roaring.Bitmap)}
				x.postings[key] = p
			}
			row := p.rows[values[i]]
			if row == nil {
				row = roaring.New()
				p.rows[values[i]] = row
				p.order = append(p.order, values[i])
			}
			row.Add(uint32(pos))
		}
	}
	b := x.buckets[pos]
	b.offsets = append(b.offsets, offset)
}

// Keys returns the schema, in declaration order.
func (x *Index) Keys() []string {
	keys := make([]string, len(x.keys))
	copy(keys, x.keys)
	return keys
}

// KeyPosition returns the schema position of key.
func (x *Index) KeyPosition(key string) (int, bool) {
	pos, ok := x.keyPos[key]
	return pos, ok
}

// Len returns the number of distinct header-value tuples.
func (x *Index) Len() int { return len(x.buckets) }

// Records returns the total number of indexed records.
func (x *Index) Records() int {
	n := 0
	for _, b := range x.buckets {
		n += len(b.offsets)
	}
	return n
}

// Values returns the distinct values observed for key, de-duplicated, in
// first-observed order. A key outside the schema yields nil.
func (x *Index) Values(key string) []Value {
	p := x.postings[key]
	if p == nil {
		return nil
	}
	values := make([]Value, len(p.order))
	copy(values, p.order)
	return values
}

// Subindex returns a new Index over the same schema, restricted to the
// buckets whose tuple entry for key equals value. The result may be empty.
func (x *Index) Subindex(key string, value Value) *Index {
	sub := newIndex(x.keys)

	p := x.postings[key]
	if p == nil {
		return sub
	}
	row := p.rows[value]
	if row == nil {
		return sub
	}

	it := row.Iterator()
	for it.HasNext() {
		b := x.buckets[it.Next()]
		// Buckets are immutable after the build, sharing the slices is safe.
		for _, off := range b.offsets {
			sub.add(b.values, off)
		}
	}
	return sub
}

// Field is one distinct header tuple with the offset of its first record.
type Field struct {
	Values []Value
	Offset int64
}

// Fields returns one Field per bucket, in ascending offset order. This is
// the iteration order used during materialization: deterministic and
// sequential on disk.
func (x *Index) Fields() []Field {
	fields := make([]Field, 0, len(x.buckets))
	for _, b := range x.buckets {
		fields = append(fields, Field{Values: b.values, Offset: b.offsets[0]})
	}
	sort.Slice(fields, func(i, j int) bool { return fields[i].Offset < fields[j].Offset })
	return fields
}

// Offsets returns every indexed record offset in ascending order.
func (x *Index) Offsets() []int64 {
	var offsets []int64
	for _, b := range x.buckets {
		offsets = append(offsets, b.offsets...)
	}
	sort.Slice(offsets, func(i, j int) bool { return offsets[i] < offsets[j] })
	return offsets
}

// DumpJSON serializes the schema and buckets for diagnostics.
func (x *Index) DumpJSON(c codec.Codec) ([]byte, error) {
	if c == nil {
		c = codec.Default
	}
	type jsonBucket struct {
		Values  []Value `json:"values"`
		Offsets []int64 `json:"offsets"`
	}
	dump := struct {
		Keys    []string     `json:"keys"`
		Buckets []jsonBucket `json:"buckets"`
	}{Keys: x.keys}
	for _, b := range x.buckets {
		dump.Buckets = append(dump.Buckets, jsonBucket{Values: b.values, Offsets: b.offsets})
	}
	return c.Marshal(dump)
}
