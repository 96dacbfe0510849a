package physics

import (
	"errors"
	"fmt"

	"github.com/jakecoffman/cp"
)

const (
	collisionTypeProxy cp.CollisionType = iota + 1
	collisionTypeBoundary
)

// Collision filter categories inside a sandbox space.
const (
	CategoryProxy uint = 1 << iota
	CategoryStatic
	CategoryBoundary
)

const sandboxIterations = 20

var ErrNoBoundary = errors.New("physics: sandbox requires a boundary shape")

// Hit is the result of a sandbox raycast.
type Hit struct {
	Shape  *cp.Shape
	Point  cp.Vector
	Normal cp.Vector
}

// Sandbox is an isolated physics space owned by a single field. Proxies live
// at field-local coordinates around the origin; a scaled copy of the field's
// boundary shape acts as a sensor whose Begin/Separate callbacks maintain
// per-shape out-of-bounds state. Sandboxes never interact with each other or
// with the host space.
type Sandbox struct {
	name  string
	space *cp.Space

	boundary *cp.Shape
	statics  []*cp.Shape

	proxies    map[*Proxy]struct{}
	onFullExit func(*Proxy)
	nextGroup  uint
}

// NewSandbox builds an isolated space with the boundary sensor scaled by
// boundaryScale (clamped to at least 1, the slack before ejection) and
// optional static copies of the field's non-trigger child colliders.
func NewSandbox(name string, boundary ShapeDef, boundaryScale float64, statics []StaticCollider, onFullExit func(*Proxy)) (*Sandbox, error) {
	if boundary == nil {
		return nil, fmt.Errorf("sandbox %s: %w", name, ErrNoBoundary)
	}
	if boundaryScale < 1 {
		boundaryScale = 1
	}

	space := cp.NewSpace()
	space.Iterations = sandboxIterations
	space.SetGravity(cp.Vector{})

	sb := &Sandbox{
		name:       name,
		space:      space,
		proxies:    make(map[*Proxy]struct{}),
		onFullExit: onFullExit,
		nextGroup:  1,
	}

	sb.boundary = boundary.Attach(space.StaticBody, boundaryScale)
	sb.boundary.SetSensor(true)
	sb.boundary.SetCollisionType(collisionTypeBoundary)
	sb.boundary.SetFilter(cp.ShapeFilter{
		Group:      cp.NO_GROUP,
		Categories: CategoryBoundary,
		Mask:       CategoryProxy,
	})
	space.AddShape(sb.boundary)

	for _, sc := range statics {
		scale := sc.Scale
		if scale == 0 {
			scale = 1
		}
		body := cp.NewStaticBody()
		body.SetPosition(sc.Offset)
		body.SetAngle(sc.Angle)
		space.AddBody(body)
		sh := sc.Shape.Attach(body, scale)
		sh.SetFriction(sc.Friction)
		sh.SetElasticity(sc.Elasticity)
		sh.SetFilter(cp.ShapeFilter{
			Group:      cp.NO_GROUP,
			Categories: CategoryStatic,
			Mask:       cp.ALL_CATEGORIES &^ CategoryBoundary,
		})
		space.AddShape(sh)
		sb.statics = append(sb.statics, sh)
	}

	sb.setupHandlers()
	return sb, nil
}

func (sb *Sandbox) Name() string     { return sb.name }
func (sb *Sandbox) Space() *cp.Space { return sb.space }
func (sb *Sandbox) ProxyCount() int  { return len(sb.proxies) }
func (sb *Sandbox) StaticCount() int { return len(sb.statics) }

func (sb *Sandbox) setupHandlers() {
	handler := sb.space.NewCollisionHandler(collisionTypeProxy, collisionTypeBoundary)
	handler.UserData = sb
	handler.BeginFunc = func(arb *cp.Arbiter, _ *cp.Space, _ interface{}) bool {
		shape, proxy := proxyShape(arb)
		if proxy != nil {
			proxy.markEntered(shape)
		}
		return true
	}
	handler.SeparateFunc = func(arb *cp.Arbiter, _ *cp.Space, _ interface{}) {
		shape, proxy := proxyShape(arb)
		if proxy != nil {
			proxy.markExited(shape)
		}
	}
}

func proxyShape(arb *cp.Arbiter) (*cp.Shape, *Proxy) {
	a, b := arb.Shapes()
	if p, ok := a.UserData.(*Proxy); ok {
		return a, p
	}
	if p, ok := b.UserData.(*Proxy); ok {
		return b, p
	}
	return nil, nil
}

// AddProxy mirrors src into the sandbox: shapes rebuilt one by one from the
// defs, a dynamic body with mass and moment copied, gravity and kinematic
// state never carried over. Collision against the sandbox's static geometry
// starts disabled so the proxy floats freely inside the copy of its world;
// the boundary sensor stays in the mask so enter/exit events keep firing.
func (sb *Sandbox) AddProxy(src ProxySource) *Proxy {
	body := cp.NewBody(src.Mass, src.Moment)
	body.SetPosition(src.Position)
	body.SetAngle(src.Angle)
	body.SetVelocityVector(src.Velocity)
	body.SetAngularVelocity(src.AngularVelocity)

	p := &Proxy{
		sandbox:     sb,
		body:        body,
		outOfBounds: make(map[*cp.Shape]bool, len(src.Shapes)),
		group:       sb.nextGroup,
	}
	sb.nextGroup++

	sb.space.AddBody(body)
	for _, def := range src.Shapes {
		sh := def.Attach(body, 1)
		sh.SetFriction(src.Friction)
		sh.SetElasticity(src.Elasticity)
		sh.SetCollisionType(collisionTypeProxy)
		sh.SetFilter(cp.ShapeFilter{
			Group:      p.group,
			Categories: CategoryProxy,
			Mask:       cp.ALL_CATEGORIES &^ CategoryStatic,
		})
		sh.UserData = p
		sb.space.AddShape(sh)
		p.shapes = append(p.shapes, sh)
		p.outOfBounds[sh] = false
	}

	sb.proxies[p] = struct{}{}
	return p
}

// RemoveProxy destroys a proxy. Safe to call for proxies that already fired
// the full-exit callback; never call it from inside a space step.
func (sb *Sandbox) RemoveProxy(p *Proxy) {
	if p == nil || p.removed {
		return
	}
	p.removed = true
	delete(sb.proxies, p)
	for _, sh := range p.shapes {
		sb.space.RemoveShape(sh)
		sh.UserData = nil
	}
	sb.space.RemoveBody(p.body)
}

// Step advances only this sandbox's simulation. Other sandboxes and the host
// space are unaffected.
func (sb *Sandbox) Step(dt float64) {
	sb.space.Step(dt)
}

// Raycast queries this sandbox only, hitting static geometry and other
// proxies while skipping every shape in the caller's filter group, so a
// subject resting on another subject still registers a surface. The boundary
// sensor is invisible to rays. Returns false for a zero direction or no hit.
func (sb *Sandbox) Raycast(origin, dir cp.Vector, maxDist float64, group uint) (Hit, bool) {
	if dir.LengthSq() == 0 || maxDist <= 0 {
		return Hit{}, false
	}
	end := origin.Add(dir.Normalize().Mult(maxDist))
	filter := cp.ShapeFilter{
		Group:      group,
		Categories: cp.ALL_CATEGORIES,
		Mask:       CategoryStatic | CategoryProxy,
	}
	info := sb.space.SegmentQueryFirst(origin, end, 0, filter)
	if info.Shape == nil {
		return Hit{}, false
	}
	return Hit{Shape: info.Shape, Point: info.Point, Normal: info.Normal}, true
}

// Close tears the sandbox down. Remaining proxies are removed without
// firing exit callbacks; the field has already detached them by the time a
// teardown is queued.
func (sb *Sandbox) Close() {
	for p := range sb.proxies {
		sb.RemoveProxy(p)
	}
	sb.onFullExit = nil
}
