package prefabs

import (
	"fmt"

	"github.com/d5/tengo/v2"
	"github.com/d5/tengo/v2/stdlib"

	"gravitas"
)

// falloffSamples is the number of segments the scripted curve is sampled
// into; runtime evaluation then never touches the script VM.
const falloffSamples = 16

const falloffDispatchScript = `
__out = falloff(__t)
`

// CompileFalloffScript compiles a tengo script defining falloff(t) and
// samples it over [0, 1] into a piecewise-linear curve.
func CompileFalloffScript(src []byte) (gravitas.Curve, error) {
	full := append(append([]byte{}, src...), []byte("\n"+falloffDispatchScript)...)
	script := tengo.NewScript(full)
	_ = script.Add("__t", 0.0)
	_ = script.Add("__out", 0.0)
	script.SetImports(stdlib.GetModuleMap(stdlib.AllModuleNames()...))

	compiled, err := script.Compile()
	if err != nil {
		return gravitas.Curve{}, fmt.Errorf("prefabs: compile falloff: %w", err)
	}

	points := make([]gravitas.CurvePoint, 0, falloffSamples+1)
	for i := 0; i <= falloffSamples; i++ {
		t := float64(i) / falloffSamples
		if err := compiled.Set("__t", t); err != nil {
			return gravitas.Curve{}, err
		}
		if err := compiled.Run(); err != nil {
			return gravitas.Curve{}, fmt.Errorf("prefabs: falloff(%g): %w", t, err)
		}
		points = append(points, gravitas.CurvePoint{T: t, Value: compiled.Get("__out").Float()})
	}
	return gravitas.NewCurve(points...), nil
}
