// Package testutil provides shared helpers for gribgo tests: a seeded RNG
// and a synthetic GRIB stream format with a JSON record body, so tests can
// exercise framing, indexing and materialization without real ecCodes data.
package testutil
