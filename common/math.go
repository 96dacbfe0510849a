package common

import "math"

func Lerp(a, b, t float64) float64 {
	return a + t*(b-a)
}

func Clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// MoveToward shifts current toward target by at most maxDelta.
func MoveToward(current, target, maxDelta float64) float64 {
	if math.Abs(target-current) <= maxDelta {
		return target
	}
	if target > current {
		return current + maxDelta
	}
	return current - maxDelta
}

// NormalizeAngle wraps an angle into (-pi, pi].
func NormalizeAngle(a float64) float64 {
	for a > math.Pi {
		a -= 2 * math.Pi
	}
	for a <= -math.Pi {
		a += 2 * math.Pi
	}
	return a
}

// AngleDelta returns the shortest signed rotation from a to b.
func AngleDelta(a, b float64) float64 {
	return NormalizeAngle(b - a)
}

// RotateToward advances angle a toward b along the shortest arc by at most
// maxDelta radians.
func RotateToward(a, b, maxDelta float64) float64 {
	d := AngleDelta(a, b)
	if math.Abs(d) <= maxDelta {
		return NormalizeAngle(b)
	}
	if d > 0 {
		return NormalizeAngle(a + maxDelta)
	}
	return NormalizeAngle(a - maxDelta)
}

func DegToRad(deg float64) float64 {
	return deg * math.Pi / 180
}

func RadToDeg(rad float64) float64 {
	return rad * 180 / math.Pi
}
