package batchgpt

import (
	"encoding/json"
	"math"
	"strconv"
	"time"
)

// NotAvailable is shown in place of a timestamp that cannot be converted.
const NotAvailable = "N/A"

// MillisecondsThreshold is the largest value still read as seconds since
// the epoch. Anything above it is read as milliseconds.
const MillisecondsThreshold = 10_000_000_000

// TimestampLayout is the layout of a normalized timestamp: calendar date,
// wall clock, and the zone abbreviation (which may be empty).
const TimestampLayout = "2006-01-02 15:04:05 MST"

// Normalizer converts epoch timestamps of unknown unit into display strings.
//
// The zero value uses the local time zone.
type Normalizer struct {
	// Location is the time zone timestamps are displayed in. If nil,
	// [time.Local] is used.
	Location *time.Location
}

// Normalize converts v with the local time zone, see [Normalizer.Normalize].
func Normalize(v any) string {
	return Normalizer{}.Normalize(v)
}

// Normalize converts an epoch timestamp into a display string.
//
// Only integers are timestamps; every other value, including floats,
// strings, and nil, yields [NotAvailable]. Integers above
// [MillisecondsThreshold] are read as milliseconds, all others as seconds.
// Values that fall outside the years 1 to 9999 also yield [NotAvailable].
func (n Normalizer) Normalize(v any) string {
	epoch, ok := asInt64(v)
	if !ok {
		return NotAvailable
	}

	var t time.Time
	if epoch > MillisecondsThreshold {
		t = time.UnixMilli(epoch)
	} else {
		t = time.Unix(epoch, 0)
	}

	loc := n.Location
	if loc == nil {
		loc = time.Local
	}
	t = t.In(loc)

	if y := t.Year(); y < 1 || y > 9999 {
		return NotAvailable
	}

	return t.Format(TimestampLayout)
}

func asInt64(v any) (int64, bool) {
	switch x := v.(type) {
	case int:
		return int64(x), true
	case int8:
		return int64(x), true
	case int16:
		return int64(x), true
	case int32:
		return int64(x), true
	case int64:
		return x, true
	case uint:
		return uintToInt64(uint64(x))
	case uint8:
		return int64(x), true
	case uint16:
		return int64(x), true
	case uint32:
		return int64(x), true
	case uint64:
		return uintToInt64(x)
	case json.Number:
		n, err := strconv.ParseInt(string(x), 10, 64)
		return n, err == nil
	default:
		return 0, false
	}
}

func uintToInt64(u uint64) (int64, bool) {
	if u > math.MaxInt64 {
		return 0, false
	}
	return int64(u), true
}
