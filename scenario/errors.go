package scenario

import (
	"fmt"
	"time"

	"github.com/andrewBezerra/assured-go/step"
)

// UsageError reports a programmer mistake in how the DSL was called: a
// missing topic or resource before an operation, a nil required argument,
// or reuse of a completed scenario. It is raised at DSL-call time, before
// any I/O.
type UsageError struct {
	Message string
}

func (e *UsageError) Error() string { return e.Message }

func usageErrorf(format string, args ...interface{}) *UsageError {
	return &UsageError{Message: fmt.Sprintf(format, args...)}
}

// IncompatibleStepError reports a With* or When call applied to a step of
// the wrong variant, or to a builder whose step is no longer the
// scenario's current step.
type IncompatibleStepError struct {
	Op   string
	Have step.Kind
	Want step.Kind
}

func (e *IncompatibleStepError) Error() string {
	return fmt.Sprintf("%s requires the current step to be a %s, but it is a %s", e.Op, e.Want, e.Have)
}

// TimeoutError reports a step that exceeded its configured duration. The
// in-flight transport call is abandoned; there is no way to cancel a step
// from outside the engine.
type TimeoutError struct {
	Limit time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("step did not complete within %s", e.Limit)
}
