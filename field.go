package gravitas

import (
	"errors"
	"fmt"
	"log"
	"math"

	"github.com/jakecoffman/cp"

	"gravitas/common"
	"gravitas/physics"
)

const (
	// landingProbeDistance is the short ray cast along the force direction
	// to detect ground contact.
	landingProbeDistance = 4.0
	defaultBoundaryScale = 1.2
)

var (
	ErrNoBoundary    = errors.New("gravitas: field requires a boundary shape")
	ErrFieldDisabled = errors.New("gravitas: field is disabled")
)

// Axis is an optional fixed force direction overriding radial gravity.
type Axis int

const (
	AxisNone Axis = iota
	AxisPosX
	AxisNegX
	AxisPosY
	AxisNegY
)

func (a Axis) Vector() cp.Vector {
	switch a {
	case AxisPosX:
		return cp.Vector{X: 1}
	case AxisNegX:
		return cp.Vector{X: -1}
	case AxisPosY:
		return cp.Vector{Y: 1}
	case AxisNegY:
		return cp.Vector{Y: -1}
	}
	return cp.Vector{}
}

// FieldConfig configures a gravity field.
type FieldConfig struct {
	Name         string
	Priority     int
	Acceleration float64
	// FixedDirection replaces radial force with a constant axis-aligned
	// pull, for flat "floor" gravity.
	FixedDirection Axis
	// Falloff attenuates force by normalized distance from center. The zero
	// curve becomes LinearFalloff for radial fields.
	Falloff Curve
	// Boundary is the field's trigger volume, also copied (scaled) into the
	// sandbox as the ejection sensor.
	Boundary      physics.ShapeDef
	BoundaryScale float64
	CenterOffset  cp.Vector
	// Colliders are the non-trigger colliders under the field's hierarchy,
	// duplicated into the sandbox as static geometry when CopyColliders is
	// set.
	Colliders     []physics.StaticCollider
	CopyColliders bool
	// Mount attaches the field to an existing moving host body (a ship, a
	// platform), enabling relative-velocity frames. When nil the field gets
	// its own anchored body at Position/Angle.
	Mount    *cp.Body
	Position cp.Vector
	Angle    float64
}

type subjectChange struct {
	subject *Subject
	add     bool
}

// Field is a gravity source: it owns an isolated sandbox, computes the
// per-subject force/landing/orientation model every fixed tick and
// arbitrates membership through a queue flushed at a defined phase point.
type Field struct {
	scene *Scene
	cfg   FieldConfig

	body          *cp.Body
	boundaryShape *cp.Shape
	ownBody       bool
	falloff       Curve
	boundaryScale float64

	sandbox     *physics.Sandbox
	sandboxName string
	disabled    bool

	members   []*Subject
	queue     []subjectChange
	listeners []FieldListener
}

// NewField creates a field and its boundary sensor in the scene's host
// space. A missing boundary shape is a configuration error: the field is
// not created and never participates.
func NewField(scene *Scene, cfg FieldConfig) (*Field, error) {
	if cfg.Boundary == nil {
		return nil, fmt.Errorf("field %s: %w", cfg.Name, ErrNoBoundary)
	}

	f := &Field{
		scene:         scene,
		cfg:           cfg,
		falloff:       cfg.Falloff,
		boundaryScale: cfg.BoundaryScale,
	}
	if f.falloff.IsZero() {
		f.falloff = LinearFalloff()
	}
	if f.boundaryScale < 1 {
		f.boundaryScale = defaultBoundaryScale
	}

	if cfg.Mount != nil {
		f.body = cfg.Mount
	} else {
		f.body = cp.NewKinematicBody()
		f.body.SetPosition(cfg.Position)
		f.body.SetAngle(cfg.Angle)
		scene.space.AddBody(f.body)
		f.ownBody = true
	}

	f.boundaryShape = cfg.Boundary.Attach(f.body, 1)
	f.boundaryShape.SetSensor(true)
	f.boundaryShape.SetCollisionType(collisionTypeBoundary)
	f.boundaryShape.UserData = f
	scene.space.AddShape(f.boundaryShape)

	scene.addField(f)
	return f, nil
}

func (f *Field) Name() string   { return f.cfg.Name }
func (f *Field) Priority() int  { return f.cfg.Priority }
func (f *Field) Disabled() bool { return f.disabled }

func (f *Field) Sandbox() *physics.Sandbox { return f.sandbox }

// BoundaryShape is the host-space trigger sensor.
func (f *Field) BoundaryShape() *cp.Shape { return f.boundaryShape }

// Colliders returns the child collider definitions the sandbox copies.
func (f *Field) Colliders() []physics.StaticCollider { return f.cfg.Colliders }

func (f *Field) Members() []*Subject {
	out := make([]*Subject, len(f.members))
	copy(out, f.members)
	return out
}

func (f *Field) Contains(s *Subject) bool {
	for _, m := range f.members {
		if m == s {
			return true
		}
	}
	return false
}

func (f *Field) Subscribe(l FieldListener) {
	f.listeners = append(f.listeners, l)
}

func (f *Field) Unsubscribe(l FieldListener) {
	f.listeners = removeListener(f.listeners, l)
}

// AbsoluteVelocity is the field's own world-frame velocity; non-zero when
// the field is mounted on a moving body.
func (f *Field) AbsoluteVelocity() cp.Vector { return f.body.Velocity() }

func (f *Field) AbsoluteAngularVelocity() float64 { return f.body.AngularVelocity() }

func (f *Field) transform() physics.Transform {
	return physics.Transform{Position: f.body.Position(), Angle: f.body.Angle()}
}

// ContainsPoint reports whether a world point lies inside the boundary.
func (f *Field) ContainsPoint(world cp.Vector) bool {
	return f.cfg.Boundary.ContainsPoint(f.transform().PointToLocal(world))
}

// DistanceMultiplier maps a field-local position to the falloff multiplier:
// 1 for fixed-direction fields, otherwise the curve evaluated at the
// normalized distance from the gravitational center.
func (f *Field) DistanceMultiplier(localPos cp.Vector) float64 {
	if f.cfg.FixedDirection != AxisNone {
		return 1
	}
	r := f.cfg.Boundary.BoundingRadius()
	if r <= 0 {
		return 1
	}
	return f.falloff.Eval(f.cfg.CenterOffset.Distance(localPos) / r)
}

// EnqueueSubjectChange appends a membership change to the FIFO queue. An add
// also registers the field with the manager so a newly-interested field gets
// ticked before it has any members.
func (f *Field) EnqueueSubjectChange(s *Subject, add bool) {
	if f.disabled {
		return
	}
	f.queue = append(f.queue, subjectChange{subject: s, add: add})
	if add {
		f.scene.manager.register(f)
	}
}

// FlushSubjectChanges drains the queue in FIFO order. Runs once per fixed
// cycle after the force and simulation steps, never while the member list is
// being iterated. Subjects destroyed since enqueuing are skipped.
func (f *Field) FlushSubjectChanges() {
	pending := f.queue
	f.queue = nil
	for _, ch := range pending {
		if ch.subject == nil || ch.subject.Destroyed() {
			continue
		}
		if ch.add {
			f.AddSubjectToField(ch.subject)
		} else {
			f.DestroySubjectFromField(ch.subject)
		}
	}
}

// AddSubjectToField makes the subject a member: lazily creates the sandbox,
// releases the subject from any previous field, converts its absolute
// velocities into this field's reference frame to seed the proxy, freezes
// the real body and fires EnterField.
func (f *Field) AddSubjectToField(s *Subject) {
	if f.Contains(s) {
		return
	}
	if f.sandbox == nil {
		if err := f.ensureSandbox(); err != nil {
			return
		}
	}
	if prev := s.current; prev != nil && prev != f {
		prev.DestroySubjectFromField(s)
	}

	t := f.transform()
	real := s.body.real
	src := physics.ProxySource{
		Shapes:          s.body.defs,
		Mass:            real.Mass(),
		Moment:          real.Moment(),
		Friction:        s.body.friction,
		Elasticity:      s.body.elasticity,
		Position:        t.PointToLocal(real.Position()),
		Angle:           real.Angle() - f.body.Angle(),
		Velocity:        real.Velocity().Sub(f.AbsoluteVelocity()),
		AngularVelocity: real.AngularVelocity() - f.AbsoluteAngularVelocity(),
	}

	p := f.sandbox.AddProxy(src)
	p.SetUserData(s)
	s.body.attachProxy(f, p)
	f.members = append(f.members, s)

	s.EnterField(f)
	for _, l := range f.listeners {
		l.SubjectAdded(f, s)
	}
}

// DestroySubjectFromField removes a member. The world-frame velocity is
// reconstituted from the field's velocity at this moment (which may differ
// from entry) plus the proxy's local velocity, before the proxy dies, so
// momentum survives the boundary. Emptying the member list queues the field
// for sandbox teardown.
func (f *Field) DestroySubjectFromField(s *Subject) {
	idx := -1
	for i, m := range f.members {
		if m == s {
			idx = i
			break
		}
	}
	if idx < 0 {
		return
	}
	f.members = append(f.members[:idx], f.members[idx+1:]...)

	p := s.body.proxy
	t := f.transform()
	pos := t.Point(p.Position())
	angle := f.body.Angle() + p.Angle()
	vel := f.AbsoluteVelocity().Add(p.Velocity())
	angVel := f.AbsoluteAngularVelocity() + p.AngularVelocity()

	f.sandbox.RemoveProxy(p)
	s.body.detachProxy(pos, angle, vel, angVel)

	s.ExitField(f)
	for _, l := range f.listeners {
		l.SubjectRemoved(f, s)
	}

	if len(f.members) == 0 {
		f.scene.manager.queueRemoval(f)
	}
}

// SpawnSubject instantiates a subject already placed and velocity-matched to
// the field and enqueues it for membership.
func (f *Field) SpawnSubject(cfg SubjectConfig, localPos cp.Vector) (*Subject, error) {
	cfg.Body.Position = f.transform().Point(localPos)
	s, err := NewSubject(f.scene, cfg)
	if err != nil {
		return nil, err
	}
	s.body.real.SetVelocityVector(f.AbsoluteVelocity())
	s.changingField = true
	f.EnqueueSubjectChange(s, true)
	return s, nil
}

// StartupScan claims subjects already physically inside the boundary at
// scene start (objects placed ahead of time), if this field outranks
// whatever field they currently hold. Scan order across fields is
// priority-descending, so the strongest field wins contention.
func (f *Field) StartupScan() {
	if f.disabled {
		return
	}
	bb := physics.BoundingBox(f.cfg.Boundary, f.transform(), 1)
	f.scene.space.BBQuery(bb, cp.SHAPE_FILTER_ALL, func(shape *cp.Shape, _ interface{}) {
		s, ok := shape.UserData.(*Subject)
		if !ok || s.Destroyed() {
			return
		}
		if !f.ContainsPoint(s.body.Position()) {
			return
		}
		if cur := s.current; cur != nil && cur.Priority() >= f.Priority() {
			if f.scene.Verbose {
				log.Printf("field %s: startup scan leaves %s with %s (priority %d >= %d)",
					f.cfg.Name, s.name, cur.Name(), cur.Priority(), f.Priority())
			}
			return
		}
		if f.queuedAdd(s) {
			return
		}
		s.changingField = true
		f.EnqueueSubjectChange(s, true)
	}, nil)
}

func (f *Field) queuedAddCount() int {
	n := 0
	for _, ch := range f.queue {
		if ch.add {
			n++
		}
	}
	return n
}

func (f *Field) queuedAdd(s *Subject) bool {
	for _, ch := range f.queue {
		if ch.subject == s && ch.add {
			return true
		}
	}
	return false
}

// onProxyFullExit fires from inside a sandbox step when every collider of a
// proxy has left the boundary sensor. Removal is queued, never immediate.
func (f *Field) onProxyFullExit(p *physics.Proxy) {
	s, ok := p.UserData().(*Subject)
	if !ok {
		return
	}
	f.EnqueueSubjectChange(s, false)
}

func (f *Field) ensureSandbox() error {
	if f.disabled {
		return ErrFieldDisabled
	}
	name, err := f.scene.claimSandboxName(f.cfg.Name)
	if err != nil {
		f.disabled = true
		log.Printf("field %s: disabled, sandbox name exhausted: %v", f.cfg.Name, err)
		return err
	}
	var statics []physics.StaticCollider
	if f.cfg.CopyColliders {
		statics = f.cfg.Colliders
	}
	sb, err := physics.NewSandbox(name, f.cfg.Boundary, f.boundaryScale, statics, f.onProxyFullExit)
	if err != nil {
		f.scene.releaseSandboxName(name)
		f.disabled = true
		log.Printf("field %s: disabled, sandbox creation failed: %v", f.cfg.Name, err)
		return err
	}
	f.sandbox = sb
	f.sandboxName = name
	return nil
}

func (f *Field) teardownSandbox() {
	if f.sandbox == nil {
		return
	}
	f.sandbox.Close()
	f.scene.releaseSandboxName(f.sandboxName)
	f.sandbox = nil
	f.sandboxName = ""
}

// stepSandbox advances only this field's simulation island.
func (f *Field) stepSandbox(dt float64) {
	if f.sandbox != nil {
		f.sandbox.Step(dt)
	}
}

// syncTransforms drives each member's real-world transform from its proxy's
// sandbox-local transform through the field's own transform, so subjects
// inherit the motion of a moving or rotating field. Runs in the late phase,
// after gameplay and before rendering.
func (f *Field) syncTransforms() {
	t := f.transform()
	for _, s := range f.members {
		p := s.body.proxy
		if p == nil {
			continue
		}
		s.body.real.SetPosition(t.Point(p.Position()))
		s.body.real.SetAngle(f.body.Angle() + p.Angle())
	}
}

// applyForces runs the per-subject force/landing/orientation model for one
// fixed tick.
func (f *Field) applyForces(dt float64) {
	for _, s := range f.members {
		f.applyForceTo(s, dt)
	}
}

func (f *Field) applyForceTo(s *Subject, dt float64) {
	p := s.body.proxy
	if p == nil {
		return
	}

	pos := p.Position()
	mult := 1.0
	var dir cp.Vector

	if f.cfg.FixedDirection != AxisNone {
		dir = f.cfg.FixedDirection.Vector()
	} else {
		mult = f.DistanceMultiplier(pos)
		delta := f.cfg.CenterOffset.Sub(pos)
		if delta.LengthSq() > 1e-12 {
			dir = delta.Normalize()
		} else {
			dir = cp.Vector{Y: -1}
		}
		// Near irregular terrain gravity points into the local surface, not
		// at the geometric center.
		if hit, ok := f.sandbox.Raycast(pos, dir, f.surfaceRayDistance(), p.Group()); ok {
			dir = hit.Normal.Neg()
		}
	}

	landed := false
	if hit, ok := f.sandbox.Raycast(pos, dir, landingProbeDistance, p.Group()); ok {
		landed = true
		p.SetAngularVelocity(0)
		if s.willReorient {
			f.orientProxy(s, hit.Normal, dt)
			s.resetReorientTimer()
		}
	} else if s.autoOrient {
		f.orientProxy(s, dir.Neg(), dt)
	}
	s.body.landed = landed

	if s.caps != nil && s.caps.GravitySuppressed() {
		return
	}
	// Acceleration-mode force: scaled by mass so every body falls at the
	// same rate.
	force := dir.Mult(f.cfg.Acceleration * mult * p.Body().Mass())
	p.Body().ApplyForceAtWorldPoint(force, p.Body().Position())
}

func (f *Field) orientProxy(s *Subject, up cp.Vector, dt float64) {
	if up.LengthSq() == 0 {
		return
	}
	target := math.Atan2(up.Y, up.X) - math.Pi/2
	b := s.body.proxy.Body()
	maxStep := common.DegToRad(s.orientSpeed) * dt
	b.SetAngle(common.RotateToward(b.Angle(), target, maxStep))
}

func (f *Field) surfaceRayDistance() float64 {
	return f.cfg.Boundary.BoundingRadius() * f.boundaryScale * 2
}

// Retune swaps the field's live tuning, for spec hot reload. Membership and
// the sandbox are untouched.
func (f *Field) Retune(acceleration float64, falloff Curve) {
	f.cfg.Acceleration = acceleration
	if falloff.IsZero() {
		falloff = LinearFalloff()
	}
	f.falloff = falloff
}

// destroy removes the field's host-space footprint. Members must already be
// gone. Disabling the field here keeps stale pending requests from
// re-registering it with the manager or recreating its sandbox.
func (f *Field) destroy() {
	f.disabled = true
	f.teardownSandbox()
	f.scene.space.RemoveShape(f.boundaryShape)
	f.boundaryShape.UserData = nil
	if f.ownBody {
		f.scene.space.RemoveBody(f.body)
	}
}
