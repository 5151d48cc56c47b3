package quantity

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseError reports a resource-quantity string that could not be parsed.
type ParseError struct {
	Input  string
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("quantity: cannot parse %q: %s", e.Input, e.Reason)
}

// memoryUnits maps memory suffixes to their byte multipliers. Binary suffixes
// are listed first and must be checked before decimal ones so that "Ki" is not
// misread as "K" with a trailing "i".
var memoryUnits = []struct {
	suffix     string
	multiplier int64
}{
	{"Ki", 1 << 10},
	{"Mi", 1 << 20},
	{"Gi", 1 << 30},
	{"Ti", 1 << 40},
	{"K", 1e3},
	{"M", 1e6},
	{"G", 1e9},
}

// ParseCPU converts a CPU quantity string to millicores.
//
//	"250m" -> 250      (millicores)
//	"1"    -> 1000     (whole cores)
//	"2.5"  -> 2500
//	"250000000n" -> 250  (nanocores)
//	"250000u"    -> 250  (microcores)
func ParseCPU(s string) (int64, error) {
	switch {
	case strings.HasSuffix(s, "m"):
		v, err := strconv.ParseInt(strings.TrimSuffix(s, "m"), 10, 64)
		if err != nil {
			return 0, &ParseError{Input: s, Reason: "non-numeric millicore value"}
		}
		return v, nil

	case strings.HasSuffix(s, "n"):
		v, err := strconv.ParseInt(strings.TrimSuffix(s, "n"), 10, 64)
		if err != nil {
			return 0, &ParseError{Input: s, Reason: "non-numeric nanocore value"}
		}
		return v / 1_000_000, nil

	case strings.HasSuffix(s, "u"):
		v, err := strconv.ParseInt(strings.TrimSuffix(s, "u"), 10, 64)
		if err != nil {
			return 0, &ParseError{Input: s, Reason: "non-numeric microcore value"}
		}
		return v * 1000 / 1_000_000, nil

	default:
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, &ParseError{Input: s, Reason: "non-numeric core value"}
		}
		return int64(v * 1000), nil
	}
}

// ParseMemory converts a memory quantity string to bytes.
//
//	"128Mi" -> 134217728
//	"512Ki" -> 524288
//	"1G"    -> 1000000000
//	"1024"  -> 1024 (raw bytes)
func ParseMemory(s string) (int64, error) {
	for _, u := range memoryUnits {
		if !strings.HasSuffix(s, u.suffix) {
			continue
		}
		v, err := strconv.ParseInt(strings.TrimSuffix(s, u.suffix), 10, 64)
		if err != nil {
			return 0, &ParseError{Input: s, Reason: "non-numeric mantissa"}
		}
		return v * u.multiplier, nil
	}

	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, &ParseError{Input: s, Reason: "unrecognized suffix or non-numeric value"}
	}
	return v, nil
}
