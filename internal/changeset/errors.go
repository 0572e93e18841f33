package changeset

import "fmt"

// ErrorKind classifies file-scoped failures. Every failure surfaces as
// exactly one of these; none of them partially applies a file.
type ErrorKind string

const (
	// KindParseError: malformed source, before or during the op sequence.
	KindParseError ErrorKind = "ParseError"
	// KindPatternNotFound: a structural or textual target is missing.
	KindPatternNotFound ErrorKind = "PatternNotFound"
	// KindStructuralConflict: target found but the edit cannot be applied
	// consistently (conflicting prop action, colliding binding, ...).
	KindStructuralConflict ErrorKind = "StructuralConflict"
	// KindPostconditionViolated: each op succeeded but the combined output
	// no longer parses.
	KindPostconditionViolated ErrorKind = "PostconditionViolated"
)

// OpError is the typed failure an operation or pipeline stage reports.
// Descriptor echoes back what was searched for, so the proposal generator
// can re-read the file and regenerate the pattern.
type OpError struct {
	Kind       ErrorKind
	Descriptor string
	Message    string
}

func (e *OpError) Error() string {
	if e.Descriptor != "" {
		return fmt.Sprintf("%s (%s): %s", e.Kind, e.Descriptor, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// NotFound builds a PatternNotFound error for a descriptor.
func NotFound(descriptor, format string, args ...any) *OpError {
	return &OpError{
		Kind:       KindPatternNotFound,
		Descriptor: descriptor,
		Message:    fmt.Sprintf(format, args...),
	}
}

// Conflict builds a StructuralConflict error.
func Conflict(descriptor, format string, args ...any) *OpError {
	return &OpError{
		Kind:       KindStructuralConflict,
		Descriptor: descriptor,
		Message:    fmt.Sprintf(format, args...),
	}
}

// RetryGuidance is appended to PatternNotFound messages surfaced to the
// caller; staleness between the proposal and the file's true content is
// the usual cause.
const RetryGuidance = "re-read the current file content and regenerate the pattern"
