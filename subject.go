package gravitas

import (
	"errors"
	"fmt"
	"log"
	"math"

	"github.com/jakecoffman/cp"

	"gravitas/common"
)

const (
	// DefaultFieldChangeDelay is the cooldown between voluntary field
	// changes, debouncing subjects that sit on two boundary overlaps.
	DefaultFieldChangeDelay = 0.5
	DefaultReorientDelay    = 1.0
	DefaultOrientSpeed      = 180.0 // degrees per second
)

var ErrNoShapes = errors.New("gravitas: subject requires at least one shape")

// SubjectConfig configures a new subject.
type SubjectConfig struct {
	Name string
	Body BodyDef

	AutoOrient   bool
	WillReorient bool
	// OrientSpeed is in degrees per second; zero means DefaultOrientSpeed.
	OrientSpeed      float64
	ReorientDelay    float64
	FieldChangeDelay float64
}

// Subject is a mobile entity capable of being claimed by gravity fields. It
// owns the field-membership state machine: at most one current field, a
// change-in-progress guard and a cooldown debouncing switches at boundary
// overlaps. Membership itself is only ever mutated by the owning field's
// EnterField/ExitField calls.
type Subject struct {
	scene *Scene
	name  string
	body  *Body

	current       *Field
	changingField bool
	changingFor   float64

	fieldChangeDelay float64
	fieldChangeTimer float64

	autoOrient    bool
	willReorient  bool
	orientSpeed   float64
	reorientDelay float64
	reorientTimer float64

	pending   map[*Field]FieldChangeRequest
	listeners []SubjectListener
	caps      CapabilitySet
	destroyed bool
}

// NewSubject creates a subject with its real body in the scene's host space.
// A config without shapes is a configuration error: the subject is not
// created and does not participate in simulation.
func NewSubject(scene *Scene, cfg SubjectConfig) (*Subject, error) {
	if len(cfg.Body.Shapes) == 0 {
		return nil, fmt.Errorf("subject %s: %w", cfg.Name, ErrNoShapes)
	}
	mass := cfg.Body.Mass
	if mass <= 0 {
		mass = 1
	}

	moment := math.Inf(1)
	if !cfg.Body.FixedRotation {
		moment = 0
		perShape := mass / float64(len(cfg.Body.Shapes))
		for _, def := range cfg.Body.Shapes {
			moment += def.Moment(perShape)
		}
	}

	real := cp.NewBody(mass, moment)
	real.SetPosition(cfg.Body.Position)
	real.SetAngle(cfg.Body.Angle)

	s := &Subject{
		scene:            scene,
		name:             cfg.Name,
		autoOrient:       cfg.AutoOrient,
		willReorient:     cfg.WillReorient,
		orientSpeed:      cfg.OrientSpeed,
		reorientDelay:    cfg.ReorientDelay,
		fieldChangeDelay: cfg.FieldChangeDelay,
		pending:          make(map[*Field]FieldChangeRequest),
	}
	if s.orientSpeed == 0 {
		s.orientSpeed = DefaultOrientSpeed
	}
	if s.reorientDelay == 0 {
		s.reorientDelay = DefaultReorientDelay
	}
	if s.fieldChangeDelay == 0 {
		s.fieldChangeDelay = DefaultFieldChangeDelay
	}

	s.body = &Body{
		subject:    s,
		real:       real,
		defs:       cfg.Body.Shapes,
		friction:   cfg.Body.Friction,
		elasticity: cfg.Body.Elasticity,
	}

	scene.space.AddBody(real)
	for _, def := range cfg.Body.Shapes {
		sh := def.Attach(real, 1)
		sh.SetFriction(cfg.Body.Friction)
		sh.SetElasticity(cfg.Body.Elasticity)
		sh.SetCollisionType(collisionTypeSubject)
		sh.UserData = s
		scene.space.AddShape(sh)
		s.body.shapes = append(s.body.shapes, sh)
	}

	scene.addSubject(s)
	return s, nil
}

func (s *Subject) Name() string          { return s.name }
func (s *Subject) Body() *Body           { return s.body }
func (s *Subject) CurrentField() *Field  { return s.current }
func (s *Subject) IsChangingField() bool { return s.changingField }
func (s *Subject) Destroyed() bool       { return s.destroyed }

func (s *Subject) AutoOrient() bool     { return s.autoOrient }
func (s *Subject) WillReorient() bool   { return s.willReorient }
func (s *Subject) OrientSpeed() float64 { return s.orientSpeed }

func (s *Subject) SetCapabilities(caps CapabilitySet) { s.caps = caps }

func (s *Subject) Subscribe(l SubjectListener) {
	s.listeners = append(s.listeners, l)
}

func (s *Subject) Unsubscribe(l SubjectListener) {
	s.listeners = removeListener(s.listeners, l)
}

// EnqueueFieldChangeRequest registers a candidate field, deduplicated by
// field identity. Requests are arbitrated at the subject's own cadence, not
// from trigger callbacks, so overlapping boundaries cannot flap membership
// every frame.
func (s *Subject) EnqueueFieldChangeRequest(req FieldChangeRequest) {
	if s.destroyed || req.Field == nil {
		return
	}
	s.pending[req.Field] = req
}

// Update runs timers and request arbitration. Called once per variable-rate
// frame by the scene.
func (s *Subject) Update(dt float64) {
	if s.destroyed {
		return
	}

	if s.fieldChangeTimer > 0 {
		s.fieldChangeTimer -= dt
	}

	if s.changingField {
		s.changingFor += dt
		// A field that fails to activate (sandbox creation exhausted) would
		// otherwise leave the guard set forever.
		if s.changingFor > 2*s.fieldChangeDelay {
			log.Printf("subject %s: field change timed out, clearing guard", s.name)
			s.changingField = false
			s.changingFor = 0
		}
	}

	s.processRequests()
	s.updateReorientation(dt)
}

func (s *Subject) processRequests() {
	if len(s.pending) == 0 {
		return
	}
	if s.changingField || s.fieldChangeTimer > 0 {
		// Not cleared: still-valid candidates get re-arbitrated once the
		// guard and cooldown release.
		return
	}

	var best *FieldChangeRequest
	for _, req := range s.pending {
		// A request can outlive its field: a teardown between enqueue and
		// arbitration leaves the field disabled.
		if req.Field == nil || req.Field.Disabled() || req.Field.Contains(s) {
			continue
		}
		if best == nil || req.Priority > best.Priority {
			r := req
			best = &r
		}
	}
	clear(s.pending)

	if best == nil {
		return
	}
	// Only a strictly higher priority may preempt the current field.
	if s.current != nil && best.Priority <= s.current.Priority() {
		if s.scene.Verbose {
			log.Printf("subject %s: request from %s (priority %d) loses to current %s (priority %d)",
				s.name, best.Field.Name(), best.Priority, s.current.Name(), s.current.Priority())
		}
		return
	}

	s.changingField = true
	s.changingFor = 0
	best.Field.EnqueueSubjectChange(s, true)
}

// EnterField is the notification hook fired by the claiming field once the
// membership change actually lands.
func (s *Subject) EnterField(f *Field) {
	s.current = f
	s.changingField = false
	s.changingFor = 0
	s.fieldChangeTimer = s.fieldChangeDelay
	for _, l := range s.listeners {
		l.FieldEntered(s, f)
	}
}

// ExitField clears membership and immediately probes for another field
// already containing the subject. A subject falling out of one boundary
// directly inside another's would otherwise wait on a trigger enter that
// never re-fires.
func (s *Subject) ExitField(f *Field) {
	if s.current == f {
		s.current = nil
	}
	s.changingField = false
	s.changingFor = 0
	s.fieldChangeTimer = s.fieldChangeDelay
	for _, l := range s.listeners {
		l.FieldExited(s, f)
	}
	if s.destroyed {
		return
	}
	for _, candidate := range s.scene.fieldsAt(s.body.Position()) {
		if candidate == f {
			continue
		}
		if _, queued := s.pending[candidate]; queued {
			continue
		}
		s.EnqueueFieldChangeRequest(newFieldChangeRequest(candidate))
	}
}

// updateReorientation slowly rolls an idle subject back upright. Field-driven
// orientation (landing alignment) resets the idle timer; while owned and
// actively oriented the subject never reorients on its own.
func (s *Subject) updateReorientation(dt float64) {
	if !s.willReorient {
		return
	}
	s.reorientTimer += dt
	if s.reorientTimer < s.reorientDelay {
		return
	}
	up := s.scene.ReferenceUp
	target := math.Atan2(up.Y, up.X) - math.Pi/2
	maxStep := common.DegToRad(s.orientSpeed) * dt
	s.body.real.SetAngle(common.RotateToward(s.body.real.Angle(), target, maxStep))
}

// resetReorientTimer is called by the owning field whenever it orients the
// subject.
func (s *Subject) resetReorientTimer() {
	s.reorientTimer = 0
}

// Destroy removes the subject from its field (immediately, not queued; the
// scene is discarding it) and from the host space. Queued membership changes
// referencing it are skipped at flush time by the liveness check.
func (s *Subject) Destroy() {
	if s.destroyed {
		return
	}
	s.destroyed = true
	if s.current != nil {
		s.current.DestroySubjectFromField(s)
	}
	for _, sh := range s.body.shapes {
		s.scene.space.RemoveShape(sh)
		sh.UserData = nil
	}
	s.scene.space.RemoveBody(s.body.real)
	s.scene.removeSubject(s)
	s.listeners = nil
}

// UpAxis is the subject's local up direction in world coordinates.
func (s *Subject) UpAxis() cp.Vector {
	return cp.ForAngle(s.body.Angle() + math.Pi/2)
}
