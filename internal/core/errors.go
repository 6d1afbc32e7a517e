package core

// ValidationError reports a malformed input with the field it concerns.
// Handlers surface it as a 400 with field-level detail; it is never fatal.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + ": " + e.Message
}
