package physics

import "github.com/jakecoffman/cp"

// ProxySource is everything a sandbox needs to mirror a real body: its shape
// definitions, dynamics configuration and sandbox-local starting state.
type ProxySource struct {
	Shapes     []ShapeDef
	Mass       float64
	Moment     float64
	Friction   float64
	Elasticity float64

	Position        cp.Vector
	Angle           float64
	Velocity        cp.Vector
	AngularVelocity float64
}

// Proxy is the sandbox-local shadow of a real body. Gravity never applies to
// it (sandbox spaces have zero gravity); the owning field drives it with
// explicit forces. Each shape's out-of-bounds state is tracked independently
// and the proxy only counts as having left the sandbox when every shape has
// exited the boundary sensor.
type Proxy struct {
	sandbox *Sandbox
	body    *cp.Body
	shapes  []*cp.Shape

	outOfBounds map[*cp.Shape]bool
	group       uint
	removed     bool
	userData    interface{}
}

func (p *Proxy) Body() *cp.Body { return p.body }

// Group is the proxy's collision filter group, also used by raycasts to skip
// the proxy's own shapes.
func (p *Proxy) Group() uint { return p.group }

func (p *Proxy) Position() cp.Vector { return p.body.Position() }
func (p *Proxy) Angle() float64      { return p.body.Angle() }

func (p *Proxy) Velocity() cp.Vector          { return p.body.Velocity() }
func (p *Proxy) SetVelocity(v cp.Vector)      { p.body.SetVelocityVector(v) }
func (p *Proxy) AngularVelocity() float64     { return p.body.AngularVelocity() }
func (p *Proxy) SetAngularVelocity(w float64) { p.body.SetAngularVelocity(w) }

func (p *Proxy) UserData() interface{}     { return p.userData }
func (p *Proxy) SetUserData(v interface{}) { p.userData = v }

// OutOfBounds reports whether every shape of the proxy has individually
// exited the sandbox boundary sensor.
func (p *Proxy) OutOfBounds() bool {
	if len(p.outOfBounds) == 0 {
		return false
	}
	for _, out := range p.outOfBounds {
		if !out {
			return false
		}
	}
	return true
}

func (p *Proxy) markEntered(shape *cp.Shape) {
	if p.removed {
		return
	}
	if _, ok := p.outOfBounds[shape]; ok {
		p.outOfBounds[shape] = false
	}
}

func (p *Proxy) markExited(shape *cp.Shape) {
	if p.removed {
		return
	}
	if _, ok := p.outOfBounds[shape]; !ok {
		return
	}
	p.outOfBounds[shape] = true
	if p.OutOfBounds() {
		p.enableStaticCollision()
		if p.sandbox != nil && p.sandbox.onFullExit != nil {
			p.sandbox.onFullExit(p)
		}
	}
}

// enableStaticCollision restores collision between the proxy and the
// sandbox's copied geometry once the proxy has fully left the boundary.
func (p *Proxy) enableStaticCollision() {
	for _, sh := range p.shapes {
		sh.SetFilter(cp.ShapeFilter{
			Group:      p.group,
			Categories: CategoryProxy,
			Mask:       cp.ALL_CATEGORIES,
		})
	}
}
