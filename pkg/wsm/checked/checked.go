// Package checked provides overflow-checked arithmetic on weights.
//
// Every function reports whether the result is exact. Callers treat a false
// result as "unsafe" and either fall back to a coarser estimate or reject
// the input; a wrapped value is never returned as if it were valid.
package checked

import "math"

// Max is the largest representable weight. The solver uses it as the
// "no constraint" value for weight caps.
const Max uint64 = math.MaxUint64

// Add returns x+y, or false if the sum overflows.
func Add(x, y uint64) (uint64, bool) {
	sum := x + y
	if sum < x {
		return 0, false
	}
	return sum, true
}

// Mul returns x*y, or false if the product overflows.
func Mul(x, y uint64) (uint64, bool) {
	if x == 0 || y == 0 {
		return 0, true
	}
	if y > Max/x {
		return 0, false
	}
	return x * y, true
}

// MulAdd returns acc + x*y, or false on overflow of either operation.
func MulAdd(acc, x, y uint64) (uint64, bool) {
	prod, ok := Mul(x, y)
	if !ok {
		return 0, false
	}
	return Add(acc, prod)
}

// Sum returns the sum of values, or false on overflow.
func Sum(values []uint64) (uint64, bool) {
	var total uint64
	for _, v := range values {
		var ok bool
		if total, ok = Add(total, v); !ok {
			return 0, false
		}
	}
	return total, true
}

// SaturatingAdd returns x+y clamped to Max.
func SaturatingAdd(x, y uint64) uint64 {
	if sum, ok := Add(x, y); ok {
		return sum
	}
	return Max
}
