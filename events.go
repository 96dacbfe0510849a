package gravitas

// SubjectListener receives field membership notifications for one subject.
// Listeners must be unsubscribed explicitly when their owner is torn down.
type SubjectListener interface {
	FieldEntered(s *Subject, f *Field)
	FieldExited(s *Subject, f *Field)
}

// FieldListener receives membership notifications for one field.
type FieldListener interface {
	SubjectAdded(f *Field, s *Subject)
	SubjectRemoved(f *Field, s *Subject)
}

// CapabilitySet is the external state a subject exposes to the force model.
// Gameplay code (dashes, temporary invulnerability) can suppress gravity
// without touching field membership.
type CapabilitySet interface {
	GravitySuppressed() bool
}

func removeListener[T comparable](list []T, target T) []T {
	for i, l := range list {
		if l == target {
			return append(list[:i], list[i+1:]...)
		}
	}
	return list
}
