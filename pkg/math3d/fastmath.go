package math3d

import "math"

// fastInvSqrtMagic is the initial guess constant for FastInvSqrt.
const fastInvSqrtMagic = 0x5f3759df

// FastInvSqrt approximates 1/sqrt(x) for positive x with a bit-level initial
// guess refined by one Newton-Raphson step. Relative error stays below 0.2%.
//
// The float is reinterpreted with math.Float32bits rather than through a
// pointer cast.
func FastInvSqrt(x float32) float32 {
	i := math.Float32bits(x)
	i = fastInvSqrtMagic - i>>1
	y := math.Float32frombits(i)
	return y * (1.5 - 0.5*x*y*y)
}
