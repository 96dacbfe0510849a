package physics

import "github.com/jakecoffman/cp"

// BodySettings is a snapshot of a body's dynamics configuration, captured
// before the body is frozen kinematic for proxying and restored when the
// proxy is destroyed. Chipmunk has no per-body drag and solver iterations
// live on the space, so mass, moment (infinite moment = fixed rotation),
// body type and velocities are the whole of the portable state.
type BodySettings struct {
	Mass            float64
	Moment          float64
	Type            int
	Velocity        cp.Vector
	AngularVelocity float64
}

func CaptureBodySettings(b *cp.Body) BodySettings {
	return BodySettings{
		Mass:            b.Mass(),
		Moment:          b.Moment(),
		Type:            b.GetType(),
		Velocity:        b.Velocity(),
		AngularVelocity: b.AngularVelocity(),
	}
}

// Apply restores the snapshot. Type is restored first: mass and moment may
// only be assigned on dynamic bodies.
func (s BodySettings) Apply(b *cp.Body) {
	b.SetType(s.Type)
	if s.Type == cp.BODY_DYNAMIC {
		b.SetMass(s.Mass)
		b.SetMoment(s.Moment)
	}
	b.SetVelocityVector(s.Velocity)
	b.SetAngularVelocity(s.AngularVelocity)
}
