package physics

import (
	"math"

	"github.com/jakecoffman/cp"
)

// ShapeDef describes a collider shape independently of any chipmunk body, so
// the same definition can build the real-world shape, the sandbox proxy copy
// and the scaled boundary sensor.
type ShapeDef interface {
	// Attach builds the shape on body with every dimension and offset
	// multiplied by scale. The shape is not added to a space.
	Attach(body *cp.Body, scale float64) *cp.Shape
	// Moment returns the rotational inertia of the shape for the given mass.
	Moment(mass float64) float64
	// BoundingRadius is the radius of the smallest origin-centered circle
	// containing the unscaled shape.
	BoundingRadius() float64
	// ContainsPoint reports whether a shape-local point is inside the
	// unscaled shape.
	ContainsPoint(local cp.Vector) bool
}

type CircleDef struct {
	Radius float64
	Offset cp.Vector
}

func (d CircleDef) Attach(body *cp.Body, scale float64) *cp.Shape {
	return cp.NewCircle(body, d.Radius*scale, d.Offset.Mult(scale))
}

func (d CircleDef) Moment(mass float64) float64 {
	return cp.MomentForCircle(mass, 0, d.Radius, d.Offset)
}

func (d CircleDef) BoundingRadius() float64 {
	return d.Offset.Length() + d.Radius
}

func (d CircleDef) ContainsPoint(local cp.Vector) bool {
	return local.Sub(d.Offset).Length() <= d.Radius
}

type BoxDef struct {
	Width  float64
	Height float64
	Offset cp.Vector
}

func (d BoxDef) Attach(body *cp.Body, scale float64) *cp.Shape {
	hw := d.Width * scale / 2
	hh := d.Height * scale / 2
	off := d.Offset.Mult(scale)
	bb := cp.BB{L: off.X - hw, B: off.Y - hh, R: off.X + hw, T: off.Y + hh}
	return cp.NewBox2(body, bb, 0)
}

func (d BoxDef) Moment(mass float64) float64 {
	return cp.MomentForBox(mass, d.Width, d.Height)
}

func (d BoxDef) BoundingRadius() float64 {
	return d.Offset.Length() + math.Hypot(d.Width, d.Height)/2
}

func (d BoxDef) ContainsPoint(local cp.Vector) bool {
	p := local.Sub(d.Offset)
	return math.Abs(p.X) <= d.Width/2 && math.Abs(p.Y) <= d.Height/2
}

type SegmentDef struct {
	A      cp.Vector
	B      cp.Vector
	Radius float64
}

func (d SegmentDef) Attach(body *cp.Body, scale float64) *cp.Shape {
	return cp.NewSegment(body, d.A.Mult(scale), d.B.Mult(scale), d.Radius*scale)
}

func (d SegmentDef) Moment(mass float64) float64 {
	return cp.MomentForSegment(mass, d.A, d.B, d.Radius)
}

func (d SegmentDef) BoundingRadius() float64 {
	return math.Max(d.A.Length(), d.B.Length()) + d.Radius
}

func (d SegmentDef) ContainsPoint(local cp.Vector) bool {
	ab := d.B.Sub(d.A)
	t := 0.0
	if ab.LengthSq() > 0 {
		t = math.Max(0, math.Min(1, local.Sub(d.A).Dot(ab)/ab.LengthSq()))
	}
	return local.Distance(d.A.Add(ab.Mult(t))) <= d.Radius
}

// BoundingBox is a conservative world-space AABB for a shape def placed at t
// with the given scale.
func BoundingBox(d ShapeDef, t Transform, scale float64) cp.BB {
	r := d.BoundingRadius() * scale
	c := t.Position
	return cp.BB{L: c.X - r, B: c.Y - r, R: c.X + r, T: c.Y + r}
}

// StaticCollider is a non-trigger collider under a field's hierarchy,
// duplicated into the field's sandbox as static geometry with its material.
type StaticCollider struct {
	Shape      ShapeDef
	Offset     cp.Vector
	Angle      float64
	Friction   float64
	Elasticity float64
	// Scale is the source collider's local scale; zero means 1.
	Scale float64
}
