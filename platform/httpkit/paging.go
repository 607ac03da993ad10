package httpkit

import (
	"math"
	"strconv"
	"strings"
)

// ParseLimit reads raw as a number, truncates it and clamps it to [1, max].
// Absent or unparseable values yield def.
func ParseLimit(raw string, def, max int) int {
	n, ok := parseTruncated(raw)
	if !ok {
		n = def
	}
	if n < 1 {
		return 1
	}
	if n > max {
		return max
	}
	return n
}

// ParseLimitOrDefault is ParseLimit with zero and negative values treated as
// absent.
func ParseLimitOrDefault(raw string, def, max int) int {
	if n, ok := parseTruncated(raw); ok && n < 1 {
		return def
	}
	return ParseLimit(raw, def, max)
}

// ParseOffset reads raw as a number, truncates it and clamps it to >= 0.
func ParseOffset(raw string) int {
	n, ok := parseTruncated(raw)
	if !ok || n < 0 {
		return 0
	}
	return n
}

func parseTruncated(raw string) (int, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(f) {
		return 0, false
	}
	if f > math.MaxInt32 {
		return math.MaxInt32, true
	}
	if f < math.MinInt32 {
		return math.MinInt32, true
	}
	return int(math.Trunc(f)), true
}
