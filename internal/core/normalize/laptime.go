// Package normalize converts heterogeneous provider encodings into canonical
// values. Every function is total: unparseable input yields ok == false and
// never an error or panic.
package normalize

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"
)

// LapTimeMillis converts a lap time to integer milliseconds, truncated toward
// zero. Accepted inputs are time.Duration, Go numeric values in seconds and
// "M:SS.sss" strings. Strings are read as exact decimals. Floats are resolved
// to the microsecond before truncation so that 32.456 stays 32456 despite
// binary representation error. Values outside int64 milliseconds yield
// ok == false.
func LapTimeMillis(v any) (int64, bool) {
	switch x := v.(type) {
	case nil:
		return 0, false
	case time.Duration:
		return x.Milliseconds(), true
	case *time.Duration:
		if x == nil {
			return 0, false
		}
		return x.Milliseconds(), true
	case float64:
		return secondsToMillis(x)
	case float32:
		return secondsToMillis(float64(x))
	case int:
		return wholeSecondsToMillis(int64(x))
	case int8:
		return wholeSecondsToMillis(int64(x))
	case int16:
		return wholeSecondsToMillis(int64(x))
	case int32:
		return wholeSecondsToMillis(int64(x))
	case int64:
		return wholeSecondsToMillis(x)
	case uint:
		return unsignedSecondsToMillis(uint64(x))
	case uint8:
		return wholeSecondsToMillis(int64(x))
	case uint16:
		return wholeSecondsToMillis(int64(x))
	case uint32:
		return wholeSecondsToMillis(int64(x))
	case uint64:
		return unsignedSecondsToMillis(x)
	case json.Number:
		f, err := x.Float64()
		if err != nil {
			return 0, false
		}
		return secondsToMillis(f)
	case string:
		return clockToMillis(x)
	default:
		return 0, false
	}
}

const maxWholeSeconds = math.MaxInt64 / 1000

func wholeSecondsToMillis(seconds int64) (int64, bool) {
	if seconds > maxWholeSeconds || seconds < -maxWholeSeconds {
		return 0, false
	}
	return seconds * 1000, true
}

func unsignedSecondsToMillis(seconds uint64) (int64, bool) {
	if seconds > maxWholeSeconds {
		return 0, false
	}
	return int64(seconds) * 1000, true
}

// clockToMillis parses "M:SS.sss", splitting on the first colon. The seconds
// part is decimal digits with an optional fraction; digits past the
// millisecond are dropped.
func clockToMillis(raw string) (int64, bool) {
	left, right, ok := strings.Cut(strings.TrimSpace(raw), ":")
	if !ok {
		return 0, false
	}
	minutes, err := strconv.ParseInt(strings.TrimSpace(left), 10, 64)
	if err != nil || minutes < 0 {
		return 0, false
	}
	ms, ok := decimalSecondsToMillis(strings.TrimSpace(right))
	if !ok {
		return 0, false
	}
	if minutes > (math.MaxInt64-ms)/60_000 {
		return 0, false
	}
	return minutes*60_000 + ms, true
}

func decimalSecondsToMillis(raw string) (int64, bool) {
	whole, frac, _ := strings.Cut(raw, ".")
	if whole == "" && frac == "" {
		return 0, false
	}
	if !allDigits(whole) || !allDigits(frac) {
		return 0, false
	}

	var seconds int64
	if whole != "" {
		n, err := strconv.ParseInt(whole, 10, 64)
		if err != nil {
			return 0, false
		}
		seconds = n
	}
	ms, ok := wholeSecondsToMillis(seconds)
	if !ok {
		return 0, false
	}

	frac = (frac + "000")[:3]
	fracMs, _ := strconv.ParseInt(frac, 10, 64)
	if ms > math.MaxInt64-fracMs {
		return 0, false
	}
	return ms + fracMs, true
}

func allDigits(s string) bool {
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

func secondsToMillis(seconds float64) (int64, bool) {
	if math.IsNaN(seconds) || math.IsInf(seconds, 0) {
		return 0, false
	}
	micros := math.Round(seconds * 1e6)
	if micros > math.MaxInt64/2 || micros < math.MinInt64/2 {
		return 0, false
	}
	return int64(micros) / 1000, true
}
