package gravitas

import (
	"sort"

	"gravitas/common"
)

// CurvePoint is one knot of a falloff curve.
type CurvePoint struct {
	T     float64
	Value float64
}

// Curve is a piecewise-linear mapping from normalized distance-from-center
// (0 at the center, 1 at the boundary's bounding radius) to a force
// multiplier. The zero Curve evaluates to 1 everywhere.
type Curve struct {
	points []CurvePoint
}

func NewCurve(points ...CurvePoint) Curve {
	pts := make([]CurvePoint, len(points))
	copy(pts, points)
	sort.Slice(pts, func(i, j int) bool { return pts[i].T < pts[j].T })
	return Curve{points: pts}
}

// LinearFalloff maps 0 -> 1 and 1 -> 0, full force at the center fading to
// nothing at the boundary edge.
func LinearFalloff() Curve {
	return NewCurve(CurvePoint{T: 0, Value: 1}, CurvePoint{T: 1, Value: 0})
}

// ConstantFalloff applies v everywhere.
func ConstantFalloff(v float64) Curve {
	return NewCurve(CurvePoint{T: 0, Value: v})
}

func (c Curve) Eval(t float64) float64 {
	if len(c.points) == 0 {
		return 1
	}
	if t <= c.points[0].T {
		return c.points[0].Value
	}
	last := c.points[len(c.points)-1]
	if t >= last.T {
		return last.Value
	}
	for i := 1; i < len(c.points); i++ {
		a, b := c.points[i-1], c.points[i]
		if t > b.T {
			continue
		}
		if b.T == a.T {
			return b.Value
		}
		return common.Lerp(a.Value, b.Value, (t-a.T)/(b.T-a.T))
	}
	return last.Value
}

func (c Curve) IsZero() bool {
	return len(c.points) == 0
}
