package gravitas

import (
	"github.com/jakecoffman/cp"

	"gravitas/physics"
)

// Body is the physical representation of a subject: the real-world chipmunk
// body plus, while the subject is a field member, the sandbox proxy that
// shadows it. Velocity and force accessors route transparently to whichever
// body is live; reads always come back in the world frame.
type Body struct {
	subject *Subject
	real    *cp.Body
	shapes  []*cp.Shape
	defs    []physics.ShapeDef

	friction   float64
	elasticity float64

	settings physics.BodySettings
	proxy    *physics.Proxy
	field    *Field
	landed   bool
}

// BodyDef configures a subject's real-world body.
type BodyDef struct {
	Mass          float64
	FixedRotation bool
	Shapes        []physics.ShapeDef
	Friction      float64
	Elasticity    float64
	Position      cp.Vector
	Angle         float64
}

func (b *Body) Real() *cp.Body                { return b.real }
func (b *Body) Proxy() *physics.Proxy         { return b.proxy }
func (b *Body) Shapes() []*cp.Shape           { return b.shapes }
func (b *Body) ShapeDefs() []physics.ShapeDef { return b.defs }

// Landed reports whether the last force tick's landing probe hit external
// geometry.
func (b *Body) Landed() bool { return b.landed }

// Position is the subject's real-world position. While proxied this is the
// transform synced at the end of the previous frame.
func (b *Body) Position() cp.Vector { return b.real.Position() }
func (b *Body) Angle() float64      { return b.real.Angle() }

// Velocity returns the absolute, frame-corrected velocity: the proxy's
// sandbox-local velocity plus the owning field's own velocity while proxied,
// the real body's velocity otherwise.
func (b *Body) Velocity() cp.Vector {
	if b.proxy != nil {
		return b.field.AbsoluteVelocity().Add(b.proxy.Velocity())
	}
	return b.real.Velocity()
}

func (b *Body) SetVelocity(v cp.Vector) {
	if b.proxy != nil {
		b.proxy.SetVelocity(v.Sub(b.field.AbsoluteVelocity()))
		return
	}
	b.real.SetVelocityVector(v)
}

func (b *Body) AngularVelocity() float64 {
	if b.proxy != nil {
		return b.field.AbsoluteAngularVelocity() + b.proxy.AngularVelocity()
	}
	return b.real.AngularVelocity()
}

func (b *Body) SetAngularVelocity(w float64) {
	if b.proxy != nil {
		b.proxy.SetAngularVelocity(w - b.field.AbsoluteAngularVelocity())
		return
	}
	b.real.SetAngularVelocity(w)
}

// AddForce applies a world-frame force at the center of mass of whichever
// body is live.
func (b *Body) AddForce(f cp.Vector) {
	target := b.real
	if b.proxy != nil {
		target = b.proxy.Body()
	}
	target.ApplyForceAtWorldPoint(f, target.Position())
}

// AddTorque applies a pure torque as a force couple, routed like AddForce.
func (b *Body) AddTorque(t float64) {
	target := b.real
	if b.proxy != nil {
		target = b.proxy.Body()
	}
	arm := cp.Vector{X: 1}
	f := cp.Vector{Y: t / 2}
	target.ApplyForceAtLocalPoint(f, arm)
	target.ApplyForceAtLocalPoint(f.Neg(), arm.Neg())
}

// attachProxy freezes the real body kinematic and routes dynamics to the
// proxy. The original settings are snapshot for restoration on detach.
func (b *Body) attachProxy(f *Field, p *physics.Proxy) {
	b.settings = physics.CaptureBodySettings(b.real)
	b.real.SetType(cp.BODY_KINEMATIC)
	b.real.SetVelocityVector(cp.Vector{})
	b.real.SetAngularVelocity(0)
	b.proxy = p
	b.field = f
}

// detachProxy restores the captured settings onto the real body, places it
// at the proxy's final world transform and transfers the reconstituted
// world-frame velocity in. The proxy itself is destroyed by the field.
func (b *Body) detachProxy(pos cp.Vector, angle float64, vel cp.Vector, angVel float64) {
	b.settings.Apply(b.real)
	b.real.SetPosition(pos)
	b.real.SetAngle(angle)
	b.real.SetVelocityVector(vel)
	b.real.SetAngularVelocity(angVel)
	b.proxy = nil
	b.field = nil
	b.landed = false
}
