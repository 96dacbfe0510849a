package prefabs

import (
	"math"
	"testing"
)

func TestCompileFalloffScript(t *testing.T) {
	curve, err := CompileFalloffScript([]byte(`
falloff := func(t) {
	return 1.0 - t
}
`))
	if err != nil {
		t.Fatal(err)
	}
	// A linear script sampled into a piecewise-linear curve is exact.
	for _, tc := range []struct{ t, want float64 }{
		{0, 1}, {0.5, 0.5}, {1, 0},
	} {
		if got := curve.Eval(tc.t); math.Abs(got-tc.want) > 1e-9 {
			t.Fatalf("Eval(%v): expected %v, got %v", tc.t, tc.want, got)
		}
	}
}

func TestCompileFalloffScriptIntResult(t *testing.T) {
	curve, err := CompileFalloffScript([]byte(`
falloff := func(t) {
	return 1
}
`))
	if err != nil {
		t.Fatal(err)
	}
	if got := curve.Eval(0.3); math.Abs(got-1) > 1e-9 {
		t.Fatalf("expected integer results coerced to float, got %v", got)
	}
}

func TestCompileFalloffScriptErrors(t *testing.T) {
	if _, err := CompileFalloffScript([]byte(`falloff :=`)); err == nil {
		t.Fatal("expected a compile error")
	}
	// Missing falloff symbol fails at sample time.
	if _, err := CompileFalloffScript([]byte(`x := 1`)); err == nil {
		t.Fatal("expected a runtime error for a missing falloff function")
	}
}

func TestEmbeddedScriptsCompile(t *testing.T) {
	src, err := LoadScript("inverse_square.tengo")
	if err != nil {
		t.Fatal(err)
	}
	curve, err := CompileFalloffScript(src)
	if err != nil {
		t.Fatal(err)
	}
	if got := curve.Eval(0.1); math.Abs(got-1) > 1e-9 {
		t.Fatalf("expected full strength in the core, got %v", got)
	}
	if got := curve.Eval(1); math.Abs(got-1.0/16) > 1e-9 {
		t.Fatalf("expected 1/16 at the rim, got %v", got)
	}
}
