package prefabs

import (
	"fmt"
	"strings"

	"github.com/jakecoffman/cp"
	"gopkg.in/yaml.v3"

	"gravitas"
	"gravitas/common"
	"gravitas/physics"
)

// LoadSpec loads and unmarshals a YAML spec by name, preferring a disk copy
// over the embedded default.
func LoadSpec[T any](filename string) (T, error) {
	var zero T
	data, err := Load(filename)
	if err != nil {
		return zero, fmt.Errorf("prefabs: load %s: %w", filename, err)
	}

	var spec T
	if err := yaml.Unmarshal(data, &spec); err != nil {
		return zero, fmt.Errorf("prefabs: unmarshal %s: %w", filename, err)
	}

	return spec, nil
}

type VecSpec struct {
	X float64 `yaml:"x"`
	Y float64 `yaml:"y"`
}

func (v VecSpec) Vector() cp.Vector {
	return cp.Vector{X: v.X, Y: v.Y}
}

type ShapeSpec struct {
	Type   string  `yaml:"type"`
	Radius float64 `yaml:"radius"`
	Width  float64 `yaml:"width"`
	Height float64 `yaml:"height"`
	A      VecSpec `yaml:"a"`
	B      VecSpec `yaml:"b"`
	Offset VecSpec `yaml:"offset"`
}

func (s ShapeSpec) Def() (physics.ShapeDef, error) {
	switch strings.ToLower(s.Type) {
	case "circle":
		return physics.CircleDef{Radius: s.Radius, Offset: s.Offset.Vector()}, nil
	case "box":
		return physics.BoxDef{Width: s.Width, Height: s.Height, Offset: s.Offset.Vector()}, nil
	case "segment":
		return physics.SegmentDef{A: s.A.Vector(), B: s.B.Vector(), Radius: s.Radius}, nil
	}
	return nil, fmt.Errorf("prefabs: unknown shape type %q", s.Type)
}

type ColliderSpec struct {
	Shape  ShapeSpec `yaml:"shape"`
	Offset VecSpec   `yaml:"offset"`
	// Angle is in degrees.
	Angle      float64 `yaml:"angle"`
	Scale      float64 `yaml:"scale"`
	Friction   float64 `yaml:"friction"`
	Elasticity float64 `yaml:"elasticity"`
}

func (c ColliderSpec) Collider() (physics.StaticCollider, error) {
	def, err := c.Shape.Def()
	if err != nil {
		return physics.StaticCollider{}, err
	}
	return physics.StaticCollider{
		Shape:      def,
		Offset:     c.Offset.Vector(),
		Angle:      common.DegToRad(c.Angle),
		Scale:      c.Scale,
		Friction:   c.Friction,
		Elasticity: c.Elasticity,
	}, nil
}

type CurvePointSpec struct {
	T     float64 `yaml:"t"`
	Value float64 `yaml:"value"`
}

// FalloffSpec is either an explicit point list or the name of a tengo script
// in scripts/ defining falloff(t); the script is compiled once and sampled
// into a curve at load time. Empty means the default linear falloff.
type FalloffSpec struct {
	Points []CurvePointSpec `yaml:"points"`
	Script string           `yaml:"script"`
}

func (f FalloffSpec) Curve() (gravitas.Curve, error) {
	if f.Script != "" {
		src, err := LoadScript(f.Script)
		if err != nil {
			return gravitas.Curve{}, fmt.Errorf("prefabs: falloff script %s: %w", f.Script, err)
		}
		return CompileFalloffScript(src)
	}
	if len(f.Points) == 0 {
		return gravitas.Curve{}, nil
	}
	points := make([]gravitas.CurvePoint, 0, len(f.Points))
	for _, p := range f.Points {
		points = append(points, gravitas.CurvePoint{T: p.T, Value: p.Value})
	}
	return gravitas.NewCurve(points...), nil
}

type FieldSpec struct {
	Name         string  `yaml:"name"`
	Priority     int     `yaml:"priority"`
	Acceleration float64 `yaml:"acceleration"`
	// FixedDirection is one of "", "+x", "-x", "+y", "-y".
	FixedDirection string         `yaml:"fixed_direction"`
	Boundary       ShapeSpec      `yaml:"boundary"`
	BoundaryScale  float64        `yaml:"boundary_scale"`
	Center         VecSpec        `yaml:"center"`
	Falloff        FalloffSpec    `yaml:"falloff"`
	Colliders      []ColliderSpec `yaml:"colliders"`
	CopyColliders  bool           `yaml:"copy_colliders"`
	Position       VecSpec        `yaml:"position"`
	Angle          float64        `yaml:"angle"`
}

func parseAxis(s string) (gravitas.Axis, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return gravitas.AxisNone, nil
	case "+x":
		return gravitas.AxisPosX, nil
	case "-x":
		return gravitas.AxisNegX, nil
	case "+y":
		return gravitas.AxisPosY, nil
	case "-y":
		return gravitas.AxisNegY, nil
	}
	return gravitas.AxisNone, fmt.Errorf("prefabs: unknown fixed direction %q", s)
}

// Config resolves the spec into a field configuration.
func (fs FieldSpec) Config() (gravitas.FieldConfig, error) {
	boundary, err := fs.Boundary.Def()
	if err != nil {
		return gravitas.FieldConfig{}, fmt.Errorf("prefabs: field %s boundary: %w", fs.Name, err)
	}
	axis, err := parseAxis(fs.FixedDirection)
	if err != nil {
		return gravitas.FieldConfig{}, fmt.Errorf("prefabs: field %s: %w", fs.Name, err)
	}
	falloff, err := fs.Falloff.Curve()
	if err != nil {
		return gravitas.FieldConfig{}, fmt.Errorf("prefabs: field %s: %w", fs.Name, err)
	}

	cfg := gravitas.FieldConfig{
		Name:           fs.Name,
		Priority:       fs.Priority,
		Acceleration:   fs.Acceleration,
		FixedDirection: axis,
		Falloff:        falloff,
		Boundary:       boundary,
		BoundaryScale:  fs.BoundaryScale,
		CenterOffset:   fs.Center.Vector(),
		CopyColliders:  fs.CopyColliders,
		Position:       fs.Position.Vector(),
		Angle:          common.DegToRad(fs.Angle),
	}
	for _, cs := range fs.Colliders {
		col, err := cs.Collider()
		if err != nil {
			return gravitas.FieldConfig{}, fmt.Errorf("prefabs: field %s: %w", fs.Name, err)
		}
		cfg.Colliders = append(cfg.Colliders, col)
	}
	return cfg, nil
}

type SubjectSpec struct {
	Name             string      `yaml:"name"`
	Mass             float64     `yaml:"mass"`
	FixedRotation    bool        `yaml:"fixed_rotation"`
	Friction         float64     `yaml:"friction"`
	Elasticity       float64     `yaml:"elasticity"`
	Shapes           []ShapeSpec `yaml:"shapes"`
	AutoOrient       bool        `yaml:"auto_orient"`
	WillReorient     bool        `yaml:"will_reorient"`
	OrientSpeed      float64     `yaml:"orient_speed"`
	ReorientDelay    float64     `yaml:"reorient_delay"`
	FieldChangeDelay float64     `yaml:"field_change_delay"`
	Position         VecSpec     `yaml:"position"`
}

func (ss SubjectSpec) Config() (gravitas.SubjectConfig, error) {
	cfg := gravitas.SubjectConfig{
		Name:             ss.Name,
		AutoOrient:       ss.AutoOrient,
		WillReorient:     ss.WillReorient,
		OrientSpeed:      ss.OrientSpeed,
		ReorientDelay:    ss.ReorientDelay,
		FieldChangeDelay: ss.FieldChangeDelay,
		Body: gravitas.BodyDef{
			Mass:          ss.Mass,
			FixedRotation: ss.FixedRotation,
			Friction:      ss.Friction,
			Elasticity:    ss.Elasticity,
			Position:      ss.Position.Vector(),
		},
	}
	for _, sh := range ss.Shapes {
		def, err := sh.Def()
		if err != nil {
			return gravitas.SubjectConfig{}, fmt.Errorf("prefabs: subject %s: %w", ss.Name, err)
		}
		cfg.Body.Shapes = append(cfg.Body.Shapes, def)
	}
	return cfg, nil
}

func LoadFieldSpec(name string) (*FieldSpec, error) {
	spec, err := LoadSpec[FieldSpec](name)
	if err != nil {
		return nil, err
	}
	return &spec, nil
}

func LoadSubjectSpec(name string) (*SubjectSpec, error) {
	spec, err := LoadSpec[SubjectSpec](name)
	if err != nil {
		return nil, err
	}
	return &spec, nil
}
