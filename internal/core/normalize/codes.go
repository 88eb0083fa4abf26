package normalize

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Compound is a canonical tyre compound.
type Compound string

const (
	CompoundSoft   Compound = "SOFT"
	CompoundMedium Compound = "MEDIUM"
	CompoundHard   Compound = "HARD"
)

func (c Compound) String() string { return string(c) }

// Status is a canonical track status.
type Status string

const (
	StatusGreen Status = "GREEN"
	// StatusSC covers both safety car and virtual safety car periods.
	StatusSC  Status = "SC"
	StatusRed Status = "RED"
)

func (s Status) String() string { return string(s) }

var compoundAliases = map[string]Compound{
	"SOFT": CompoundSoft, "S": CompoundSoft, "C5": CompoundSoft, "RED": CompoundSoft,
	"MEDIUM": CompoundMedium, "M": CompoundMedium, "C4": CompoundMedium, "C3": CompoundMedium, "YELLOW": CompoundMedium,
	"HARD": CompoundHard, "H": CompoundHard, "C2": CompoundHard, "C1": CompoundHard, "WHITE": CompoundHard,
}

var trackStatusAliases = map[string]Status{
	"1": StatusGreen, "GREEN": StatusGreen,
	"2": StatusSC, "3": StatusSC, "4": StatusSC, "SC": StatusSC, "VSC": StatusSC,
	"5": StatusRed, "RED": StatusRed,
}

// TyreCompound maps provider compound codes onto SOFT, MEDIUM or HARD.
// Unknown codes are not an error; naming differs across seasons.
func TyreCompound(v any) (Compound, bool) {
	key, ok := token(v)
	if !ok {
		return "", false
	}
	c, ok := compoundAliases[key]
	return c, ok
}

// TrackStatus maps provider track status codes onto GREEN, SC or RED.
func TrackStatus(v any) (Status, bool) {
	key, ok := token(v)
	if !ok {
		return "", false
	}
	s, ok := trackStatusAliases[key]
	return s, ok
}

// token renders a cell as a trimmed upper-case lookup key. Integral numbers
// render without a fraction so 4.0 matches "4".
func token(v any) (string, bool) {
	var raw string
	switch x := v.(type) {
	case nil:
		return "", false
	case string:
		raw = x
	case fmt.Stringer:
		raw = x.String()
	case int:
		raw = strconv.Itoa(x)
	case int32:
		raw = strconv.FormatInt(int64(x), 10)
	case int64:
		raw = strconv.FormatInt(x, 10)
	case float64:
		if math.IsNaN(x) || math.IsInf(x, 0) || x != math.Trunc(x) {
			return "", false
		}
		raw = strconv.FormatInt(int64(x), 10)
	case float32:
		return token(float64(x))
	default:
		return "", false
	}
	key := strings.ToUpper(strings.TrimSpace(raw))
	if key == "" {
		return "", false
	}
	return key, true
}
