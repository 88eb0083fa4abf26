package normalize

import (
	"encoding/json"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLapTimeMillis(t *testing.T) {
	d := 92456 * time.Millisecond
	var nilDuration *time.Duration

	tests := []struct {
		name string
		in   any
		want int64
		ok   bool
	}{
		{"clock string", "1:32.456", 92456, true},
		{"clock string padded", " 1:05.001 ", 65001, true},
		{"zero minutes", "0:59.9999", 59999, true},
		{"duration", d, 92456, true},
		{"duration pointer", &d, 92456, true},
		{"nil duration pointer", nilDuration, 0, false},
		{"float seconds", 92.456, 92456, true},
		{"float truncates", 92.4569, 92456, true},
		{"float32 seconds", float32(90.5), 90500, true},
		{"int seconds", 90, 90000, true},
		{"int64 seconds", int64(2), 2000, true},
		{"json number", json.Number("61.25"), 61250, true},
		{"nil", nil, 0, false},
		{"nan", math.NaN(), 0, false},
		{"inf", math.Inf(1), 0, false},
		{"no colon", "92.456", 0, false},
		{"empty", "", 0, false},
		{"bad minutes", "x:32.456", 0, false},
		{"bad seconds", "1:abc", 0, false},
		{"negative minutes", "-1:32.0", 0, false},
		{"unsupported type", []int{1}, 0, false},
		{"clock string past micros truncates", "1:32.4569996", 92456, true},
		{"clock string whole seconds", "2:05", 125000, true},
		{"clock string leading dot", "0:.5", 500, true},
		{"clock string bare dot", "1:.", 0, false},
		{"clock string exponent", "1:3.2e1", 0, false},
		{"clock string signed seconds", "1:+32.4", 0, false},
		{"clock string minutes overflow", "9223372036854775807:00.000", 0, false},
		{"int64 overflow", int64(math.MaxInt64 / 100), 0, false},
		{"int64 negative overflow", int64(math.MinInt64 / 100), 0, false},
		{"int64 largest", int64(math.MaxInt64 / 1000), math.MaxInt64 / 1000 * 1000, true},
		{"uint64 seconds", uint64(75), 75000, true},
		{"uint64 overflow", uint64(math.MaxUint64), 0, false},
		{"uint seconds", uint(3), 3000, true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := LapTimeMillis(tc.in)
			require.Equal(t, tc.ok, ok)
			require.Equal(t, tc.want, got)
		})
	}
}

func TestLapTimeMillisSplitsOnFirstColon(t *testing.T) {
	_, ok := LapTimeMillis("1:02:03")
	require.False(t, ok)
}
