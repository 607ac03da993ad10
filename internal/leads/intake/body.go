// Package intake turns loosely-typed JSON bodies posted by the marketing site
// into the canonical lead and event records the rest of the service works on.
// Everything here is pure; no I/O happens after the body has been decoded.
package intake

import (
	"bytes"
	"encoding/json"
	"io"
	"math"
	"strconv"
	"strings"

	"leadedge_backend/platform/apperr"
)

// maxBodyBytes caps how much of a request body is read.
const maxBodyBytes = 1 << 20

// ErrInvalidBody is returned for bodies that are not a JSON object.
var ErrInvalidBody = apperr.BadRequest("invalid request body")

// Body is a decoded JSON object whose values have not been interpreted yet.
type Body map[string]any

// Decode reads r as a JSON object. An empty body or a literal null yields an
// empty Body.
func Decode(r io.Reader) (Body, error) {
	if r == nil {
		return Body{}, nil
	}
	raw, err := io.ReadAll(io.LimitReader(r, maxBodyBytes))
	if err != nil {
		return nil, ErrInvalidBody
	}
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return Body{}, nil
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, ErrInvalidBody
	}
	switch obj := v.(type) {
	case nil:
		return Body{}, nil
	case map[string]any:
		return Body(obj), nil
	default:
		return nil, ErrInvalidBody
	}
}

// String returns the trimmed string form of key. Numbers and booleans are
// stringified; objects, arrays and absent keys yield "".
func (b Body) String(key string) string {
	switch v := b[key].(type) {
	case string:
		return strings.TrimSpace(v)
	case json.Number:
		return v.String()
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	default:
		return ""
	}
}

// Number coerces key to a finite float. Absent, empty, unparseable and
// non-finite values yield 0.
func (b Body) Number(key string) float64 {
	var f float64
	switch v := b[key].(type) {
	case json.Number:
		parsed, err := v.Float64()
		if err != nil {
			return 0
		}
		f = parsed
	case float64:
		f = v
	case string:
		s := strings.TrimSpace(v)
		if s == "" {
			return 0
		}
		parsed, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0
		}
		f = parsed
	case bool:
		if v {
			f = 1
		}
	default:
		return 0
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}

// truncate cuts s to at most n runes.
func truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}

func orDefault(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
