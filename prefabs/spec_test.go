package prefabs

import (
	"math"
	"testing"

	"github.com/jakecoffman/cp"

	"gravitas"
	"gravitas/physics"
)

func TestLoadPlanetSpec(t *testing.T) {
	spec, err := LoadFieldSpec("planet.yaml")
	if err != nil {
		t.Fatal(err)
	}
	if spec.Name != "planet" || spec.Priority != 1 {
		t.Fatalf("unexpected spec header: %+v", spec)
	}

	cfg, err := spec.Config()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Acceleration != 120 {
		t.Fatalf("expected acceleration 120, got %v", cfg.Acceleration)
	}
	circle, ok := cfg.Boundary.(physics.CircleDef)
	if !ok || circle.Radius != 220 {
		t.Fatalf("expected circle boundary r=220, got %#v", cfg.Boundary)
	}
	if !cfg.CopyColliders || len(cfg.Colliders) != 1 {
		t.Fatalf("expected one copied collider, got %+v", cfg)
	}
	if got := cfg.Falloff.Eval(0); math.Abs(got-1) > 1e-9 {
		t.Fatalf("expected full force at center, got %v", got)
	}
	if got := cfg.Falloff.Eval(1); math.Abs(got) > 1e-9 {
		t.Fatalf("expected no force at edge, got %v", got)
	}
	if (cfg.Position != cp.Vector{X: 400, Y: 360}) {
		t.Fatalf("expected position {400 360}, got %v", cfg.Position)
	}
}

func TestLoadPlatformSpecWithScriptedFalloff(t *testing.T) {
	spec, err := LoadFieldSpec("platform.yaml")
	if err != nil {
		t.Fatal(err)
	}
	cfg, err := spec.Config()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.FixedDirection != gravitas.AxisPosY {
		t.Fatalf("expected +y fixed direction, got %v", cfg.FixedDirection)
	}
	// inverse_square.tengo: full strength in the core, 1/16 at the rim.
	if got := cfg.Falloff.Eval(0); math.Abs(got-1) > 1e-9 {
		t.Fatalf("expected falloff(0)=1, got %v", got)
	}
	if got := cfg.Falloff.Eval(1); math.Abs(got-1.0/16) > 1e-9 {
		t.Fatalf("expected falloff(1)=1/16, got %v", got)
	}
	if len(cfg.Colliders) != 1 || cfg.Colliders[0].Friction != 0.8 {
		t.Fatalf("expected floor collider with friction 0.8, got %+v", cfg.Colliders)
	}
}

func TestLoadCrateSpec(t *testing.T) {
	spec, err := LoadSubjectSpec("crate.yaml")
	if err != nil {
		t.Fatal(err)
	}
	cfg, err := spec.Config()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Name != "crate" || !cfg.AutoOrient || !cfg.WillReorient {
		t.Fatalf("unexpected config: %+v", cfg)
	}
	if cfg.Body.Mass != 4 || len(cfg.Body.Shapes) != 1 {
		t.Fatalf("unexpected body def: %+v", cfg.Body)
	}
	box, ok := cfg.Body.Shapes[0].(physics.BoxDef)
	if !ok || box.Width != 24 || box.Height != 24 {
		t.Fatalf("expected 24x24 box, got %#v", cfg.Body.Shapes[0])
	}
}

func TestShapeSpecErrors(t *testing.T) {
	if _, err := (ShapeSpec{Type: "blob"}).Def(); err == nil {
		t.Fatal("unknown shape type must fail")
	}
	spec := FieldSpec{
		Name:           "bad",
		Boundary:       ShapeSpec{Type: "circle", Radius: 10},
		FixedDirection: "+z",
	}
	if _, err := spec.Config(); err == nil {
		t.Fatal("unknown fixed direction must fail")
	}
}

func TestParseAxis(t *testing.T) {
	cases := []struct {
		in   string
		want gravitas.Axis
	}{
		{"", gravitas.AxisNone},
		{"+x", gravitas.AxisPosX},
		{"-x", gravitas.AxisNegX},
		{"+Y", gravitas.AxisPosY},
		{" -y ", gravitas.AxisNegY},
	}
	for _, c := range cases {
		got, err := parseAxis(c.in)
		if err != nil {
			t.Fatalf("parseAxis(%q): %v", c.in, err)
		}
		if got != c.want {
			t.Fatalf("parseAxis(%q): expected %v, got %v", c.in, c.want, got)
		}
	}
	if _, err := parseAxis("diagonal"); err == nil {
		t.Fatal("expected an error for an unknown axis")
	}
}

func TestLoadMissingSpec(t *testing.T) {
	if _, err := LoadFieldSpec("missing.yaml"); err == nil {
		t.Fatal("expected an error for a missing spec")
	}
}
