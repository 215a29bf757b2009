package index

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/hupe1980/gribgo/message"
)

// AccessorError reports a header-key lookup that failed for one record.
//
// Edition-inapplicable keys do not produce an AccessorError: they degrade to
// the undef sentinel instead.
type AccessorError struct {
	Offset int64
	Key    string
	Err    error
}

func (e *AccessorError) Error() string {
	return fmt.Sprintf("reading key %q of record at offset %d: %v", e.Key, e.Offset, e.Err)
}

func (e *AccessorError) Unwrap() error { return e.Err }

// Scanner drives record iteration and decoding during an index build.
// *message.Handle implements it.
type Scanner interface {
	// Next locates the first record frame at or after from.
	// It returns io.EOF when the stream holds no further record.
	Next(ctx context.Context, from int64) (offset, length int64, err error)

	// Decode decodes the record framed at offset with the given length.
	Decode(ctx context.Context, offset, length int64) (message.Message, error)
}

type options struct {
	lenient bool
	logger  *slog.Logger
}

// Option configures an index build.
type Option func(*options)

// WithLenient makes the build skip records that fail to decode or answer a
// key lookup, instead of aborting the scan. Skips are logged.
func WithLenient(lenient bool) Option {
	return func(o *options) { o.lenient = lenient }
}

// WithLogger sets the logger for scan diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// Build scans every record once and indexes the given header keys per record.
//
// In strict mode (the default) the first decode or lookup failure aborts the
// build. In lenient mode the offending record is skipped and logged, and the
// scan resynchronizes on the next record frame; the returned Index covers
// exactly the readable records.
func Build(ctx context.Context, sc Scanner, keys []string, opts ...Option) (*Index, error) {
	o := options{logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
	for _, opt := range opts {
		opt(&o)
	}

	x := newIndex(keys)

	var pos int64
	for {
		offset, length, err := sc.Next(ctx, pos)
		if errors.Is(err, io.EOF) {
			return x, nil
		}
		if err != nil {
			return nil, err
		}

		m, err := sc.Decode(ctx, offset, length)
		if err != nil {
			if !o.lenient {
				return nil, err
			}
			o.logger.Warn("skipping unreadable record", "offset", offset, "error", err)
			// The frame was located but its contents are corrupt; resume
			// at the next frame boundary.
			pos = offset + length
			continue
		}

		values, err := headerValues(m, keys, offset)
		if err != nil {
			if !o.lenient {
				return nil, err
			}
			o.logger.Warn("skipping record with unreadable header", "offset", offset, "error", err)
			pos = offset + length
			continue
		}

		x.add(values, offset)
		pos = offset + length
	}
}

// headerValues reads every schema key from one record.
func headerValues(m message.Message, keys []string, offset int64) ([]Value, error) {
	values := make([]Value, len(keys))
	for i, key := range keys {
		v, err := headerValue(m, key)
		if err != nil {
			return nil, &AccessorError{Offset: offset, Key: key, Err: err}
		}
		values[i] = v
	}
	return values, nil
}

// headerValue reads one key, trying long, double and string lookups in turn.
// A key the record's edition does not carry degrades to the undef sentinel.
func headerValue(m message.Message, key string) (Value, error) {
	l, err := m.GetLong(key)
	if err == nil {
		return Long(l), nil
	}
	var notFound *message.KeyNotFoundError
	if errors.As(err, &notFound) {
		return Undef(), nil
	}
	var wrongType *message.WrongTypeError
	if !errors.As(err, &wrongType) {
		return Undef(), err
	}

	d, err := m.GetDouble(key)
	if err == nil {
		return Double(d), nil
	}
	if !errors.As(err, &wrongType) {
		return Undef(), err
	}

	s, err := m.GetString(key)
	if err == nil {
		return String(s), nil
	}
	if errors.As(err, &wrongType) {
		// Array-valued key (e.g. "pl" on reduced grids); it cannot serve as
		// a header value, degrade like an inapplicable key.
		return Undef(), nil
	}
	return Undef(), err
}
