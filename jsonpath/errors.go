package jsonpath

import "fmt"

// SyntaxError indicates that a path string could not be compiled. It is
// reported by Parse, never by evaluation: a path that parses successfully
// will not produce a SyntaxError later.
type SyntaxError struct {
	Path   string
	Pos    int
	Reason string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("invalid path %q at position %d: %s", e.Path, e.Pos, e.Reason)
}

// DocumentError indicates that the document itself was unusable: nil, an
// empty string, JSON null, or text that is not valid JSON.
type DocumentError struct {
	Reason string
	Cause  error
}

func (e *DocumentError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s", e.Reason, e.Cause)
	}
	return e.Reason
}

func (e *DocumentError) Unwrap() error { return e.Cause }

func errEmptyDocument() *DocumentError {
	return &DocumentError{Reason: "empty document"}
}

// NotFoundError indicates that a path did not resolve against the document:
// a named field was absent, an array index was out of range, or a segment
// was applied to a node of the wrong shape. Callers distinguish this from
// TypeMismatchError, so the two are separate types.
type NotFoundError struct {
	Path    string
	Segment string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("key not found: segment %q of path %q did not resolve", e.Segment, e.Path)
}

// TypeMismatchError indicates that the path resolved to a value that could
// not be coerced to the requested type.
type TypeMismatchError struct {
	Path string
	Want string
	Got  string
}

func (e *TypeMismatchError) Error() string {
	return fmt.Sprintf("type mismatch at path %q: cannot read %s as %s", e.Path, e.Got, e.Want)
}
