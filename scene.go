package gravitas

import (
	"errors"
	"fmt"
	"log"
	"sort"

	"github.com/jakecoffman/cp"
)

// ErrSandboxNameTaken reports that every suffixed variant of a sandbox base
// name was already claimed.
var ErrSandboxNameTaken = errors.New("gravitas: sandbox name taken")

// Host-space collision types.
const (
	collisionTypeSubject cp.CollisionType = iota + 1
	collisionTypeBoundary
)

const (
	hostIterations      = 20
	sandboxNameAttempts = 8
)

// Scene is the simulation context for one loaded world: the host physics
// space where real bodies live, the registries of subjects and fields, the
// sandbox namespace and the manager that orders the update phases. It
// replaces any process-global state; tear one down, build another.
type Scene struct {
	space   *cp.Space
	manager *Manager

	subjects []*Subject
	fields   []*Field

	sandboxNames map[string]struct{}

	// ReferenceUp is the global up used by idle reorientation.
	ReferenceUp cp.Vector
	// Verbose enables arbitration diagnostics.
	Verbose bool
}

func NewScene() *Scene {
	space := cp.NewSpace()
	space.Iterations = hostIterations
	space.SetGravity(cp.Vector{})

	s := &Scene{
		space:        space,
		sandboxNames: make(map[string]struct{}),
		ReferenceUp:  cp.Vector{Y: 1},
	}
	s.manager = newManager(s)
	s.setupHandlers()
	return s
}

func (s *Scene) Space() *cp.Space  { return s.space }
func (s *Scene) Manager() *Manager { return s.manager }

func (s *Scene) Subjects() []*Subject {
	out := make([]*Subject, len(s.subjects))
	copy(out, s.subjects)
	return out
}

func (s *Scene) Fields() []*Field {
	out := make([]*Field, len(s.fields))
	copy(out, s.fields)
	return out
}

// setupHandlers wires the host-space boundary triggers. Touching a boundary
// never adds the subject directly; it registers a field-change request that
// the subject arbitrates at its own cadence.
func (s *Scene) setupHandlers() {
	handler := s.space.NewCollisionHandler(collisionTypeSubject, collisionTypeBoundary)
	handler.UserData = s
	handler.BeginFunc = func(arb *cp.Arbiter, _ *cp.Space, _ interface{}) bool {
		a, b := arb.Shapes()
		sub, _ := a.UserData.(*Subject)
		field, _ := b.UserData.(*Field)
		if sub == nil {
			sub, _ = b.UserData.(*Subject)
			field, _ = a.UserData.(*Field)
		}
		if sub == nil || field == nil || field.Disabled() {
			return false
		}
		sub.EnqueueFieldChangeRequest(newFieldChangeRequest(field))
		return false
	}
}

func (s *Scene) addSubject(sub *Subject) {
	s.subjects = append(s.subjects, sub)
}

func (s *Scene) removeSubject(sub *Subject) {
	for i, existing := range s.subjects {
		if existing == sub {
			s.subjects = append(s.subjects[:i], s.subjects[i+1:]...)
			return
		}
	}
}

func (s *Scene) addField(f *Field) {
	s.fields = append(s.fields, f)
}

// fieldsAt returns the enabled fields whose boundary contains the world
// point, priority-descending. Used by the subject's exit probe.
func (s *Scene) fieldsAt(world cp.Vector) []*Field {
	var out []*Field
	for _, f := range s.fields {
		if f.Disabled() {
			continue
		}
		if f.ContainsPoint(world) {
			out = append(out, f)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Priority() > out[j].Priority()
	})
	return out
}

// Start runs every field's startup scan in priority order and applies the
// resulting claims, catching subjects placed inside a boundary before the
// first trigger event could fire.
func (s *Scene) Start() {
	fields := s.Fields()
	sort.SliceStable(fields, func(i, j int) bool {
		return fields[i].Priority() > fields[j].Priority()
	})
	for _, f := range fields {
		f.StartupScan()
		f.FlushSubjectChanges()
	}
}

// Update is the variable-rate phase: field teardown, then subject timers and
// request arbitration.
func (s *Scene) Update(dt float64) {
	s.manager.Update(dt)
	for _, sub := range s.Subjects() {
		sub.Update(dt)
	}
}

// LateUpdate syncs real-world transforms from proxies. Call after all
// gameplay code for the frame and before rendering.
func (s *Scene) LateUpdate() {
	s.manager.LateUpdate()
}

// FixedUpdate is the physics phase: the host space steps first, then every
// active field applies forces, steps its own sandbox and flushes membership.
func (s *Scene) FixedUpdate(dt float64) {
	s.space.Step(dt)
	s.manager.FixedUpdate(dt)
}

// UnloadFields tears down every field and sandbox, releasing all subjects
// back to the host space. Scene-reload hook.
func (s *Scene) UnloadFields() {
	for _, f := range s.Fields() {
		for _, sub := range f.Members() {
			f.DestroySubjectFromField(sub)
		}
		f.destroy()
		s.manager.unregister(f)
	}
	s.fields = nil
	s.manager.removals = nil
	log.Printf("scene: unloaded all fields")
}

// claimSandboxName reserves an unused sandbox name, retrying with numbered
// suffixes a bounded number of times before giving up.
func (s *Scene) claimSandboxName(base string) (string, error) {
	if base == "" {
		base = "sandbox"
	}
	for i := 0; i < sandboxNameAttempts; i++ {
		name := base
		if i > 0 {
			name = fmt.Sprintf("%s-%d", base, i)
		}
		if _, taken := s.sandboxNames[name]; !taken {
			s.sandboxNames[name] = struct{}{}
			return name, nil
		}
	}
	return "", fmt.Errorf("scene: %w: %q after %d attempts", ErrSandboxNameTaken, base, sandboxNameAttempts)
}

func (s *Scene) releaseSandboxName(name string) {
	delete(s.sandboxNames, name)
}
