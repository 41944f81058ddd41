// Package ident provides canonical entity-identifier normalization.
// Entity ids in this system arrive as UUID strings, legacy integers, or
// numeric strings depending on the age of the record and the caller. Every
// id comparison in the codebase goes through this package so the rule lives
// in exactly one place.
package ident

import (
	"fmt"
	"strconv"
	"strings"
)

// Normalize converts any supported id representation to its canonical form:
// the trimmed, lower-cased string cast of the value. Integral floats (the
// result of decoding legacy numeric ids from JSON) normalize without a
// fractional part, so float64(42) and "42" agree.
func Normalize(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return strings.ToLower(strings.TrimSpace(t))
	case fmt.Stringer:
		return strings.ToLower(strings.TrimSpace(t.String()))
	case int:
		return strconv.Itoa(t)
	case int32:
		return strconv.FormatInt(int64(t), 10)
	case int64:
		return strconv.FormatInt(t, 10)
	case float64:
		if t == float64(int64(t)) {
			return strconv.FormatInt(int64(t), 10)
		}
		return strconv.FormatFloat(t, 'f', -1, 64)
	case float32:
		return Normalize(float64(t))
	default:
		return strings.ToLower(strings.TrimSpace(fmt.Sprintf("%v", t)))
	}
}

// Equal reports whether two ids refer to the same entity under
// normalization. Empty ids never equal anything, including each other:
// a task without a booking reference must not match a booking whose id
// failed to decode.
func Equal(a, b any) bool {
	na := Normalize(a)
	if na == "" {
		return false
	}
	return na == Normalize(b)
}

// IsEmpty reports whether the id normalizes to the empty string.
func IsEmpty(v any) bool {
	return Normalize(v) == ""
}
