package unit

import (
	"cmp"
	"math"
)

// IsNear reports whether actual is within precision of expected. It is
// meant for the call-form checks, eg. t.AssertCall(unit.IsNear, got, 2.5, 0.01).
func IsNear(actual, expected, precision float64) bool {
	return math.Abs(actual-expected) <= precision
}

// IsBetween reports whether v lies in the inclusive range [lo, hi].
func IsBetween[T cmp.Ordered](v, lo, hi T) bool {
	return v >= lo && v <= hi
}
