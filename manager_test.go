package gravitas

import (
	"math"
	"testing"

	"github.com/jakecoffman/cp"

	"gravitas/physics"
)

func TestTimeScaleClamped(t *testing.T) {
	scene := NewScene()
	m := scene.Manager()

	if m.TimeScale() != 1 {
		t.Fatalf("expected default time scale 1, got %v", m.TimeScale())
	}
	m.SetTimeScale(2.5)
	if m.TimeScale() != 2.5 {
		t.Fatalf("expected 2.5, got %v", m.TimeScale())
	}
	m.SetTimeScale(-3)
	if m.TimeScale() != 0 {
		t.Fatalf("negative scale must clamp to 0, got %v", m.TimeScale())
	}
}

func TestActiveFieldsSortedByPriority(t *testing.T) {
	scene := NewScene()
	low := newCircleField(t, scene, "low", 1, cp.Vector{}, 50)
	high := newCircleField(t, scene, "high", 7, cp.Vector{}, 50)
	mid := newCircleField(t, scene, "mid", 3, cp.Vector{}, 50)

	m := scene.Manager()
	m.register(low)
	m.register(high)
	m.register(mid)
	m.register(high) // idempotent

	got := m.ActiveFields()
	if len(got) != 3 {
		t.Fatalf("expected 3 fields, got %d", len(got))
	}
	if got[0] != high || got[1] != mid || got[2] != low {
		t.Fatal("expected priority-descending order")
	}
}

func TestEmptyFieldTearsDown(t *testing.T) {
	scene := NewScene()
	f := newCircleField(t, scene, "well", 1, cp.Vector{}, 50)
	s := newTestSubject(t, scene, "crate", cp.Vector{})

	f.EnqueueSubjectChange(s, true)
	f.FlushSubjectChanges()
	if f.Sandbox() == nil {
		t.Fatal("setup: expected a sandbox")
	}

	f.DestroySubjectFromField(s)
	if f.Sandbox() == nil {
		t.Fatal("teardown must wait for the variable-rate phase")
	}

	scene.Update(testDt)
	if f.Sandbox() != nil {
		t.Fatal("expected sandbox torn down once empty")
	}
	if len(scene.Manager().ActiveFields()) != 0 {
		t.Fatal("expected field unregistered")
	}
}

func TestQueuedAddKeepsFieldAlive(t *testing.T) {
	scene := NewScene()
	f := newCircleField(t, scene, "well", 1, cp.Vector{}, 50)
	s := newTestSubject(t, scene, "crate", cp.Vector{})

	f.EnqueueSubjectChange(s, true)
	f.FlushSubjectChanges()
	f.DestroySubjectFromField(s)

	// A new claim lands before the removal drains; the field must survive.
	f.EnqueueSubjectChange(s, true)
	scene.Update(testDt)

	if f.Sandbox() == nil {
		t.Fatal("field with a queued add must keep its sandbox")
	}
	f.FlushSubjectChanges()
	if !f.Contains(s) {
		t.Fatal("expected the queued add applied")
	}
}

func TestSyncTransformsFollowsField(t *testing.T) {
	scene := NewScene()
	mount := cp.NewKinematicBody()
	scene.space.AddBody(mount)
	f, err := NewField(scene, FieldConfig{
		Name:     "carrier",
		Priority: 1,
		Boundary: physics.CircleDef{Radius: 50},
		Mount:    mount,
	})
	if err != nil {
		t.Fatal(err)
	}
	s := newTestSubject(t, scene, "crate", cp.Vector{X: 5})
	f.EnqueueSubjectChange(s, true)
	f.FlushSubjectChanges()

	mount.SetPosition(cp.Vector{X: 100, Y: 20})
	mount.SetAngle(math.Pi / 2)
	scene.LateUpdate()

	// Local (5, 0) rotated a quarter turn lands at (0, 5) from the mount.
	if !vecNear(s.Body().Position(), cp.Vector{X: 100, Y: 25}, 1e-9) {
		t.Fatalf("expected synced position {100 25}, got %v", s.Body().Position())
	}
	if math.Abs(s.Body().Angle()-math.Pi/2) > 1e-9 {
		t.Fatalf("expected synced angle pi/2, got %v", s.Body().Angle())
	}
}

func TestBoundaryEjectionRestoresMomentum(t *testing.T) {
	scene := NewScene()
	mount := cp.NewKinematicBody()
	scene.space.AddBody(mount)
	mount.SetVelocity(5, 0)

	f, err := NewField(scene, FieldConfig{
		Name:          "carrier",
		Priority:      1,
		Boundary:      physics.CircleDef{Radius: 30},
		BoundaryScale: 1.2,
		Mount:         mount,
	})
	if err != nil {
		t.Fatal(err)
	}

	s := newTestSubject(t, scene, "crate", cp.Vector{})
	f.EnqueueSubjectChange(s, true)
	f.FlushSubjectChanges()
	if !f.Contains(s) {
		t.Fatal("setup: expected membership")
	}

	// Launch the proxy through the scaled boundary sensor.
	s.Body().Proxy().SetVelocity(cp.Vector{X: 200})

	for i := 0; i < 120 && s.CurrentField() != nil; i++ {
		scene.Update(testDt)
		scene.FixedUpdate(testDt)
		scene.LateUpdate()
	}

	if s.CurrentField() != nil {
		t.Fatal("expected ejection once every shape left the sensor")
	}
	// World velocity = field velocity + proxy-local velocity at exit.
	if !vecNear(s.Body().Velocity(), cp.Vector{X: 205}, 1e-6) {
		t.Fatalf("expected velocity {205 0}, got %v", s.Body().Velocity())
	}
	if s.Body().Real().GetType() != cp.BODY_DYNAMIC {
		t.Fatal("expected real body restored dynamic")
	}

	scene.Update(testDt)
	if f.Sandbox() != nil {
		t.Fatal("expected emptied field torn down")
	}
}
