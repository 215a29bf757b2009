package index

import (
	"fmt"
	"strconv"
	"strings"
)

// Kind is the native type of a header value.
type Kind uint8

// Header value kinds. KindMissing is the degraded form of a key that does
// not apply to a record's edition.
const (
	KindMissing Kind = iota
	KindLong
	KindDouble
	KindString
)

// Value is one header value as observed during a scan.
//
// Value is comparable: two values are equal iff they have the same kind and
// the same content, so it can be used directly as a map key and compared
// with ==.
type Value struct {
	kind Kind
	i    int64
	f    float64
	s    string
}

// Undef returns the sentinel for an inapplicable key.
func Undef() Value { return Value{kind: KindMissing} }

// Long returns an integer value.
func Long(v int64) Value { return Value{kind: KindLong, i: v} }

// Double returns a floating-point value.
func Double(v float64) Value { return Value{kind: KindDouble, f: v} }

// String returns a text value.
func String(v string) Value { return Value{kind: KindString, s: v} }

// Kind returns the value's native kind.
func (v Value) Kind() Kind { return v.kind }

// IsUndef reports whether the value is the inapplicable-key sentinel.
func (v Value) IsUndef() bool { return v.kind == KindMissing }

// Long returns the value as an integer. Doubles are truncated.
func (v Value) Long() int64 {
	switch v.kind {
	case KindLong:
		return v.i
	case KindDouble:
		return int64(v.f)
	default:
		return 0
	}
}

// Double returns the value as a float64.
func (v Value) Double() float64 {
	switch v.kind {
	case KindLong:
		return float64(v.i)
	case KindDouble:
		return v.f
	default:
		return 0
	}
}

// Text returns the value as text. Non-string values return "".
func (v Value) Text() string {
	if v.kind == KindString {
		return v.s
	}
	return ""
}

// String renders the value for diagnostics. The sentinel renders as "undef".
func (v Value) String() string {
	switch v.kind {
	case KindLong:
		return strconv.FormatInt(v.i, 10)
	case KindDouble:
		return strconv.FormatFloat(v.f, 'g', -1, 64)
	case KindString:
		return v.s
	default:
		return "undef"
	}
}

// MarshalJSON renders longs and doubles as numbers, strings as strings and
// the sentinel as null.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindLong:
		return []byte(strconv.FormatInt(v.i, 10)), nil
	case KindDouble:
		return []byte(strconv.FormatFloat(v.f, 'g', -1, 64)), nil
	case KindString:
		return []byte(strconv.Quote(v.s)), nil
	default:
		return []byte("null"), nil
	}
}

// encodeTuple produces a stable, collision-free key for a value tuple.
func encodeTuple(values []Value) string {
	var b strings.Builder
	for _, v := range values {
		switch v.kind {
		case KindLong:
			fmt.Fprintf(&b, "l%d", v.i)
		case KindDouble:
			fmt.Fprintf(&b, "d%g", v.f)
		case KindString:
			fmt.Fprintf(&b, "s%q", v.s)
		default:
			b.WriteByte('u')
		}
		b.WriteByte(0)
	}
	return b.String()
}
