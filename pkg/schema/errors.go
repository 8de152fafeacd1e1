package schema

import "fmt"

// StructuralError reports a persisted flow field whose shape does not match
// the schema associated with the flow's version. Content the system itself
// wrote should never trip this; it signals data corruption or a missed
// migration and is treated as fatal upstream.
type StructuralError struct {
	Field   string // Offending field (groups, edges, variables, events, ...)
	Version int    // Schema version the flow was parsed against
	Err     error
}

func (e *StructuralError) Error() string {
	return fmt.Sprintf("flow field %q does not match schema version %d: %v", e.Field, e.Version, e.Err)
}

func (e *StructuralError) Unwrap() error {
	return e.Err
}

func newStructuralError(field string, version int, format string, args ...any) *StructuralError {
	return &StructuralError{
		Field:   field,
		Version: version,
		Err:     fmt.Errorf(format, args...),
	}
}
