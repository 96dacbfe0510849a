package physics

import "github.com/jakecoffman/cp"

// Transform is a rigid 2D frame (position + rotation, no scale).
type Transform struct {
	Position cp.Vector
	Angle    float64
}

// Point maps a frame-local point into world coordinates.
func (t Transform) Point(local cp.Vector) cp.Vector {
	return t.Position.Add(local.Rotate(cp.ForAngle(t.Angle)))
}

// PointToLocal maps a world point into the frame.
func (t Transform) PointToLocal(world cp.Vector) cp.Vector {
	return world.Sub(t.Position).Unrotate(cp.ForAngle(t.Angle))
}

// Vector maps a frame-local direction into world coordinates. Unlike Point
// it applies only rotation, so velocities and force directions convert
// without picking up the frame's offset.
func (t Transform) Vector(local cp.Vector) cp.Vector {
	return local.Rotate(cp.ForAngle(t.Angle))
}

// VectorToLocal maps a world direction into the frame.
func (t Transform) VectorToLocal(world cp.Vector) cp.Vector {
	return world.Unrotate(cp.ForAngle(t.Angle))
}

// Project returns the component of v along dir. dir need not be normalized;
// a zero dir projects to zero.
func Project(v, dir cp.Vector) cp.Vector {
	lsq := dir.LengthSq()
	if lsq == 0 {
		return cp.Vector{}
	}
	return dir.Mult(v.Dot(dir) / lsq)
}
