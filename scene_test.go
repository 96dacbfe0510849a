package gravitas

import (
	"errors"
	"math"
	"testing"

	"github.com/jakecoffman/cp"

	"gravitas/physics"
)

const testDt = 1.0 / 60.0

func vecNear(a, b cp.Vector, tol float64) bool {
	return math.Abs(a.X-b.X) <= tol && math.Abs(a.Y-b.Y) <= tol
}

func subjectCfg(name string, pos cp.Vector, radius float64) SubjectConfig {
	return SubjectConfig{
		Name: name,
		Body: BodyDef{
			Mass:     1,
			Shapes:   []physics.ShapeDef{physics.CircleDef{Radius: radius}},
			Position: pos,
		},
	}
}

func newTestSubject(t *testing.T, scene *Scene, name string, pos cp.Vector) *Subject {
	t.Helper()
	s, err := NewSubject(scene, subjectCfg(name, pos, 2))
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func newCircleField(t *testing.T, scene *Scene, name string, priority int, pos cp.Vector, radius float64) *Field {
	t.Helper()
	f, err := NewField(scene, FieldConfig{
		Name:     name,
		Priority: priority,
		Boundary: physics.CircleDef{Radius: radius},
		Position: pos,
	})
	if err != nil {
		t.Fatal(err)
	}
	return f
}

func TestBoundaryTriggerClaimsSubject(t *testing.T) {
	scene := NewScene()
	f := newCircleField(t, scene, "well", 1, cp.Vector{}, 50)
	s := newTestSubject(t, scene, "crate", cp.Vector{X: 5})

	// Host step fires the boundary trigger, the subject arbitrates on its next
	// update, and the following fixed cycle flushes the membership change.
	scene.FixedUpdate(testDt)
	scene.Update(testDt)
	if !s.IsChangingField() {
		t.Fatal("expected a field change in flight after arbitration")
	}
	scene.FixedUpdate(testDt)

	if !f.Contains(s) {
		t.Fatal("expected subject claimed by the field")
	}
	if s.CurrentField() != f {
		t.Fatalf("expected current field %q, got %v", f.Name(), s.CurrentField())
	}
	if s.Body().Real().GetType() != cp.BODY_KINEMATIC {
		t.Fatal("real body must be frozen kinematic while proxied")
	}
	if f.Sandbox() == nil {
		t.Fatal("membership must have created the sandbox")
	}
}

func TestStartupScanPriorityContention(t *testing.T) {
	scene := NewScene()
	low := newCircleField(t, scene, "low", 1, cp.Vector{}, 50)
	high := newCircleField(t, scene, "high", 2, cp.Vector{}, 50)
	outside := newCircleField(t, scene, "outside", 9, cp.Vector{X: 500}, 20)
	s := newTestSubject(t, scene, "crate", cp.Vector{X: 3})

	scene.Start()

	if s.CurrentField() != high {
		t.Fatalf("expected the higher-priority field to win, got %v", s.CurrentField())
	}
	if low.Contains(s) {
		t.Fatal("lower-priority field must not also hold the subject")
	}
	if outside.Contains(s) || outside.queuedAddCount() != 0 {
		t.Fatal("a field not containing the subject must not claim it")
	}
}

func TestSandboxNameRetry(t *testing.T) {
	scene := NewScene()

	want := []string{"planet", "planet-1", "planet-2", "planet-3", "planet-4", "planet-5", "planet-6", "planet-7"}
	for i, w := range want {
		name, err := scene.claimSandboxName("planet")
		if err != nil {
			t.Fatalf("claim %d failed: %v", i, err)
		}
		if name != w {
			t.Fatalf("claim %d: expected %q, got %q", i, w, name)
		}
	}

	if _, err := scene.claimSandboxName("planet"); !errors.Is(err, ErrSandboxNameTaken) {
		t.Fatalf("expected ErrSandboxNameTaken once the suffix budget is exhausted, got %v", err)
	}

	scene.releaseSandboxName("planet-3")
	name, err := scene.claimSandboxName("planet")
	if err != nil {
		t.Fatal(err)
	}
	if name != "planet-3" {
		t.Fatalf("expected released name reclaimed, got %q", name)
	}
}

func TestEmptyBaseNameDefaults(t *testing.T) {
	scene := NewScene()
	name, err := scene.claimSandboxName("")
	if err != nil {
		t.Fatal(err)
	}
	if name != "sandbox" {
		t.Fatalf("expected default base name, got %q", name)
	}
}

func TestUnloadFieldsDropsStaleRequests(t *testing.T) {
	scene := NewScene()
	a := newCircleField(t, scene, "a", 2, cp.Vector{}, 50)
	b := newCircleField(t, scene, "b", 1, cp.Vector{}, 50)
	s := newTestSubject(t, scene, "crate", cp.Vector{})

	a.EnqueueSubjectChange(s, true)
	a.FlushSubjectChanges()
	if !a.Contains(s) {
		t.Fatal("setup: expected membership")
	}

	scene.UnloadFields()

	if !a.Disabled() || !b.Disabled() {
		t.Fatal("unloaded fields must be disabled")
	}

	// The exit probe queued a request for the overlapping second field before
	// that field was torn down. Once the cooldown elapses the stale request
	// must not resurrect it.
	scene.Update(DefaultFieldChangeDelay + testDt)
	scene.FixedUpdate(testDt)

	if s.CurrentField() != nil {
		t.Fatalf("expected no field after unload, got %v", s.CurrentField())
	}
	if s.IsChangingField() {
		t.Fatal("stale request must not leave a change in flight")
	}
	if b.Sandbox() != nil {
		t.Fatal("destroyed field must not recreate its sandbox")
	}
	if len(scene.manager.ActiveFields()) != 0 {
		t.Fatal("destroyed field must not re-register with the manager")
	}
}

func TestUnloadFieldsReleasesSubjects(t *testing.T) {
	scene := NewScene()
	f := newCircleField(t, scene, "well", 1, cp.Vector{}, 50)
	s := newTestSubject(t, scene, "crate", cp.Vector{})
	f.EnqueueSubjectChange(s, true)
	f.FlushSubjectChanges()
	if !f.Contains(s) {
		t.Fatal("setup: expected membership")
	}

	scene.UnloadFields()

	if s.CurrentField() != nil {
		t.Fatal("expected subject released")
	}
	if s.Body().Real().GetType() != cp.BODY_DYNAMIC {
		t.Fatal("expected real body restored dynamic")
	}
	if len(scene.Fields()) != 0 {
		t.Fatalf("expected no fields, got %d", len(scene.Fields()))
	}
	if len(scene.manager.ActiveFields()) != 0 {
		t.Fatal("expected manager emptied")
	}
}
