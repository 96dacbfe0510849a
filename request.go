package gravitas

// FieldChangeRequest pairs a candidate field with the priority it carried
// when the request was made. Requests are deduplicated by field identity on
// the subject; when a subject overlaps several boundaries at once the
// highest-priority request wins arbitration.
type FieldChangeRequest struct {
	Field    *Field
	Priority int
}

func newFieldChangeRequest(f *Field) FieldChangeRequest {
	return FieldChangeRequest{Field: f, Priority: f.Priority()}
}
