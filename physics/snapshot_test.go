package physics

import (
	"math"
	"testing"

	"github.com/jakecoffman/cp"
)

func TestBodySettingsRoundTrip(t *testing.T) {
	space := cp.NewSpace()
	body := cp.NewBody(4, 2)
	space.AddBody(body)
	body.SetVelocity(3, 1)
	body.SetAngularVelocity(2)

	settings := CaptureBodySettings(body)

	// Freeze the body the way proxying does.
	body.SetType(cp.BODY_KINEMATIC)
	body.SetVelocityVector(cp.Vector{})
	body.SetAngularVelocity(0)

	settings.Apply(body)

	if body.GetType() != cp.BODY_DYNAMIC {
		t.Fatalf("expected dynamic body after restore, got %v", body.GetType())
	}
	if math.Abs(body.Mass()-4) > epsilon {
		t.Fatalf("expected mass 4, got %v", body.Mass())
	}
	if math.Abs(body.Moment()-2) > epsilon {
		t.Fatalf("expected moment 2, got %v", body.Moment())
	}
	if !vecAlmostEqual(body.Velocity(), cp.Vector{X: 3, Y: 1}) {
		t.Fatalf("expected velocity restored, got %v", body.Velocity())
	}
	if math.Abs(body.AngularVelocity()-2) > epsilon {
		t.Fatalf("expected angular velocity restored, got %v", body.AngularVelocity())
	}
}

func TestBodySettingsKinematicSkipsMass(t *testing.T) {
	space := cp.NewSpace()
	body := cp.NewKinematicBody()
	space.AddBody(body)
	body.SetVelocity(1, 0)

	settings := CaptureBodySettings(body)
	settings.Apply(body)

	if body.GetType() != cp.BODY_KINEMATIC {
		t.Fatalf("expected kinematic body, got %v", body.GetType())
	}
	if !vecAlmostEqual(body.Velocity(), cp.Vector{X: 1}) {
		t.Fatalf("expected velocity kept, got %v", body.Velocity())
	}
}
