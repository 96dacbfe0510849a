package gravitas

import "sort"

// Manager holds the ordered list of active fields and defines the canonical
// per-frame phase order. Higher-priority fields resolve their forces and
// membership decisions first each tick, which matters whenever a subject
// could belong to either of two overlapping fields.
type Manager struct {
	scene     *Scene
	fields    []*Field
	removals  []*Field
	timeScale float64
}

func newManager(scene *Scene) *Manager {
	return &Manager{scene: scene, timeScale: 1}
}

// TimeScale is the global multiplier applied to every sandbox step.
func (m *Manager) TimeScale() float64 { return m.timeScale }

func (m *Manager) SetTimeScale(scale float64) {
	if scale < 0 {
		scale = 0
	}
	m.timeScale = scale
}

// ActiveFields returns the update list, priority-descending.
func (m *Manager) ActiveFields() []*Field {
	out := make([]*Field, len(m.fields))
	copy(out, m.fields)
	return out
}

// register adds a field to the update list when it first gains interest in a
// subject. Idempotent; the list stays sorted by descending priority.
func (m *Manager) register(f *Field) {
	for _, existing := range m.fields {
		if existing == f {
			return
		}
	}
	m.fields = append(m.fields, f)
	sort.SliceStable(m.fields, func(i, j int) bool {
		return m.fields[i].Priority() > m.fields[j].Priority()
	})
}

func (m *Manager) unregister(f *Field) {
	for i, existing := range m.fields {
		if existing == f {
			m.fields = append(m.fields[:i], m.fields[i+1:]...)
			return
		}
	}
}

// queueRemoval marks an emptied field for teardown. The sandbox is destroyed
// in the variable-rate phase, never mid-simulation-step.
func (m *Manager) queueRemoval(f *Field) {
	for _, queued := range m.removals {
		if queued == f {
			return
		}
	}
	m.removals = append(m.removals, f)
}

// Update is the variable-rate phase: drain queued field removals. A field
// that regained members or queued adds since being marked stays alive.
func (m *Manager) Update(dt float64) {
	if len(m.removals) == 0 {
		return
	}
	pending := m.removals
	m.removals = nil
	for _, f := range pending {
		if len(f.members) > 0 || f.queuedAddCount() > 0 {
			continue
		}
		f.teardownSandbox()
		m.unregister(f)
	}
}

// LateUpdate is the post-update phase: every member subject's real transform
// is synced from its proxy. Runs after gameplay code and before rendering.
func (m *Manager) LateUpdate() {
	for _, f := range m.fields {
		f.syncTransforms()
	}
}

// FixedUpdate is the physics phase. Per field in priority order: apply
// forces, advance that field's sandbox by dt scaled by the global time
// scale, then flush its queued membership changes.
func (m *Manager) FixedUpdate(dt float64) {
	for _, f := range m.ActiveFields() {
		f.applyForces(dt)
		f.stepSandbox(dt * m.timeScale)
		f.FlushSubjectChanges()
	}
}
