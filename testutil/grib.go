package testutil

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/hupe1980/gribgo/blobstore"
	"github.com/hupe1980/gribgo/codec"
	"github.com/hupe1980/gribgo/message"
)

// Synthetic record layout: a real GRIB edition 2 indicator section
// ("GRIB" | reserved | discipline | edition | 64-bit total length) around a
// JSON body, closed with the "7777" end section. The gribgo framer treats
// these records exactly like ecCodes output; only the body format is fake.
const (
	indicatorLen = 16
	trailer      = "7777"
)

// Field is one synthetic record: header key values plus the payload array.
type Field struct {
	Header map[string]any `json:"header"`
	Values []float64      `json:"values"`
}

// EncodeStream serializes fields into one synthetic GRIB stream.
func EncodeStream(c codec.Codec, fields ...Field) ([]byte, error) {
	if c == nil {
		c = codec.Default
	}

	var stream []byte
	for i, f := range fields {
		body, err := c.Marshal(f)
		if err != nil {
			return nil, fmt.Errorf("encoding record %d: %w", i, err)
		}

		total := indicatorLen + len(body) + len(trailer)
		hdr := make([]byte, indicatorLen)
		copy(hdr, "GRIB")
		hdr[7] = 2
		binary.BigEndian.PutUint64(hdr[8:16], uint64(total))

		stream = append(stream, hdr...)
		stream = append(stream, body...)
		stream = append(stream, trailer...)
	}
	return stream, nil
}

// MustEncodeStream is EncodeStream for fixtures that cannot fail.
func MustEncodeStream(fields ...Field) []byte {
	stream, err := EncodeStream(nil, fields...)
	if err != nil {
		panic(err)
	}
	return stream
}

// Corrupt overwrites the body of the n-th (0-based) record so it no longer
// decodes, while leaving its frame intact.
func Corrupt(stream []byte, n int) []byte {
	corrupted := make([]byte, len(stream))
	copy(corrupted, stream)

	pos := 0
	for i := 0; ; i++ {
		if pos+indicatorLen > len(corrupted) {
			panic(fmt.Sprintf("testutil: stream has no record %d", n))
		}
		total := int(binary.BigEndian.Uint64(corrupted[pos+8 : pos+16]))
		if i == n {
			for j := pos + indicatorLen; j < pos+total-len(trailer); j++ {
				corrupted[j] = 0xff
			}
			return corrupted
		}
		pos += total
	}
}

// Decoder decodes the synthetic record format. It implements
// message.Decoder.
type Decoder struct {
	codec codec.Codec
}

// NewDecoder creates a Decoder using the default codec.
func NewDecoder() *Decoder {
	return &Decoder{codec: codec.Default}
}

// Decode implements message.Decoder.
func (d *Decoder) Decode(ctx context.Context, blob blobstore.Blob, offset, length int64) (message.Message, error) {
	buf := make([]byte, length)
	n, err := blob.ReadAt(ctx, buf, offset)
	if int64(n) != length && err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	if int64(n) != length {
		return nil, fmt.Errorf("short record: %d of %d bytes", n, length)
	}
	if length < indicatorLen+int64(len(trailer)) || string(buf[length-int64(len(trailer)):]) != trailer {
		return nil, errors.New("record end section missing")
	}

	var f Field
	if err := d.codec.Unmarshal(buf[indicatorLen:length-int64(len(trailer))], &f); err != nil {
		return nil, fmt.Errorf("unmarshaling record body: %w", err)
	}
	return &Msg{field: f}, nil
}

// Msg is a decoded synthetic record. It implements message.Message with the
// error contract of a real decoder: *message.KeyNotFoundError for absent
// keys and *message.WrongTypeError for mismatched lookups.
type Msg struct {
	field Field
}

// NewMsg creates a Msg directly from header values and a payload.
func NewMsg(header map[string]any, values []float64) *Msg {
	return &Msg{field: Field{Header: header, Values: values}}
}

func (m *Msg) lookup(key string) (any, error) {
	v, ok := m.field.Header[key]
	if !ok {
		return nil, &message.KeyNotFoundError{Key: key}
	}
	return v, nil
}

// GetLong implements message.Message.
func (m *Msg) GetLong(key string) (int64, error) {
	v, err := m.lookup(key)
	if err != nil {
		return 0, err
	}
	switch t := v.(type) {
	case int:
		return int64(t), nil
	case int64:
		return t, nil
	case float64:
		if t == math.Trunc(t) {
			return int64(t), nil
		}
	}
	return 0, &message.WrongTypeError{Key: key, Want: "long"}
}

// GetDouble implements message.Message.
func (m *Msg) GetDouble(key string) (float64, error) {
	v, err := m.lookup(key)
	if err != nil {
		return 0, err
	}
	switch t := v.(type) {
	case int:
		return float64(t), nil
	case int64:
		return float64(t), nil
	case float64:
		return t, nil
	}
	return 0, &message.WrongTypeError{Key: key, Want: "double"}
}

// GetString implements message.Message.
func (m *Msg) GetString(key string) (string, error) {
	v, err := m.lookup(key)
	if err != nil {
		return "", err
	}
	if s, ok := v.(string); ok {
		return s, nil
	}
	return "", &message.WrongTypeError{Key: key, Want: "string"}
}

// GetDoubleArray implements message.Message.
func (m *Msg) GetDoubleArray(key string) ([]float64, error) {
	if key == "values" {
		return m.field.Values, nil
	}
	v, err := m.lookup(key)
	if err != nil {
		return nil, err
	}
	switch t := v.(type) {
	case []float64:
		return t, nil
	case []any:
		arr := make([]float64, len(t))
		for i, e := range t {
			d, ok := e.(float64)
			if !ok {
				return nil, &message.WrongTypeError{Key: key, Want: "double array"}
			}
			arr[i] = d
		}
		return arr, nil
	}
	return nil, &message.WrongTypeError{Key: key, Want: "double array"}
}
