package gribgo

import (
	"fmt"
	"time"

	"github.com/hupe1980/gribgo/index"
)

// FromDateTime converts a GRIB dataDate/dataTime pair (YYYYMMDD and HHMM
// integers) to Unix seconds.
func FromDateTime(date, hhmm int64) int64 {
	year := int(date / 10000)
	month := time.Month(date / 100 % 100)
	day := int(date % 100)
	hour := int(hhmm / 100)
	minute := int(hhmm % 100)
	return time.Date(year, month, day, hour, minute, 0, 0, time.UTC).Unix()
}

// DateTimePair is one (dataDate, dataTime) combination.
type DateTimePair struct {
	Date int64
	Time int64
}

// DateTimeCoordinate derives a merged forecast-reference-time axis from an
// index's dataDate/dataTime buckets: the distinct Unix-second instants in
// first-observed order, CF-style attributes, and a reverse mapping from
// instant back to the originating header pair.
func DateTimeCoordinate(x *index.Index) ([]int64, Attributes, map[int64]DateTimePair, error) {
	datePos, ok := x.KeyPosition("dataDate")
	if !ok {
		return nil, nil, nil, fmt.Errorf("index schema lacks %q", "dataDate")
	}
	timePos, ok := x.KeyPosition("dataTime")
	if !ok {
		return nil, nil, nil, fmt.Errorf("index schema lacks %q", "dataTime")
	}

	var values []int64
	seen := make(map[int64]bool)
	reverse := make(map[int64]DateTimePair)
	for _, f := range x.Fields() {
		date := f.Values[datePos].Long()
		hhmm := f.Values[timePos].Long()
		seconds := FromDateTime(date, hhmm)
		if !seen[seconds] {
			seen[seconds] = true
			values = append(values, seconds)
		}
		reverse[seconds] = DateTimePair{Date: date, Time: hhmm}
	}

	attrs := Attributes{
		"units":         index.String("seconds since 1970-01-01T00:00:00+00:00"),
		"calendar":      index.String("proleptic_gregorian"),
		"axis":          index.String("T"),
		"standard_name": index.String("forecast_reference_time"),
	}
	return values, attrs, reverse, nil
}
