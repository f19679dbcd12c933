package utils

import (
	"math"
)

// Square returns n*n. math.Pow(x, 2) is slow, this is faster.
func Square(n float64) float64 {
	return n * n
}

// Pow2 returns 2^n as a float64.
func Pow2(n uint) float64 {
	return math.Ldexp(1, int(n))
}

// ClampInt returns v limited to the closed range [lo, hi].
func ClampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
