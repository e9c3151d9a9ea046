// Package validation implements the Then side of the DSL: fluent,
// eagerly-evaluated assertions over a step result. Every failed assertion
// produces an AssertionError naming the path and the expected and actual
// values, since these messages are the primary feedback a test author
// sees.
package validation

import (
	"fmt"

	"github.com/andrewBezerra/assured-go/broker"
	"github.com/andrewBezerra/assured-go/jsonpath"
	"github.com/andrewBezerra/assured-go/step"

	"gopkg.in/launchdarkly/go-sdk-common.v2/ldvalue"
)

// TestingT is the subset of testing.T that assertions report through.
type TestingT interface {
	Errorf(format string, args ...interface{})
	FailNow()
}

// AssertionError describes one failed assertion.
type AssertionError struct {
	Path     string
	Expected interface{}
	Actual   interface{}
	Message  string
}

func (e *AssertionError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = "assertion failed"
	}
	if e.Path != "" {
		msg = fmt.Sprintf("%s at path %q", msg, e.Path)
	}
	return fmt.Sprintf("%s: expected %v, got %v", msg, e.Expected, e.Actual)
}

// Builder wraps a step result for chained assertions. Every assertion
// evaluates immediately; failures are reported through the TestingT (when
// one is attached) and collected for inspection via Errs.
type Builder struct {
	t      TestingT
	result *step.Result
	errs   []error
}

// New wraps a result. A nil TestingT collects failures silently, which is
// how the DSL's own tests observe assertion behavior.
func New(t TestingT, result *step.Result) *Builder {
	return &Builder{t: t, result: result}
}

// Result returns the wrapped step result.
func (b *Builder) Result() *step.Result { return b.result }

// Errs returns every assertion failure recorded so far.
func (b *Builder) Errs() []error {
	return append([]error(nil), b.errs...)
}

// And is a readability no-op for chaining.
func (b *Builder) And() *Builder { return b }

func (b *Builder) report(err error) *Builder {
	b.errs = append(b.errs, err)
	if b.t != nil {
		b.t.Errorf("%s", err)
	}
	return b
}

func (b *Builder) assertionf(path string, expected, actual interface{}, format string, args ...interface{}) *Builder {
	return b.report(&AssertionError{
		Path:     path,
		Expected: expected,
		Actual:   actual,
		Message:  fmt.Sprintf(format, args...),
	})
}

// Status asserts the HTTP status code.
func (b *Builder) Status(want int) *Builder {
	if b.result.StatusCode != want {
		return b.assertionf("", want, b.result.StatusCode, "unexpected status code")
	}
	return b
}

// Success asserts that the step succeeded.
func (b *Builder) Success() *Builder {
	if !b.result.Success {
		return b.assertionf("", "success", fmt.Sprintf("failure (%v)", b.result.Err()), "step did not succeed")
	}
	return b
}

// Failure asserts that the step failed.
func (b *Builder) Failure() *Builder {
	if b.result.Success {
		return b.assertionf("", "failure", "success", "step unexpectedly succeeded")
	}
	return b
}

// Header asserts a response header or message property value.
func (b *Builder) Header(name, want string) *Builder {
	got := b.result.Header(name)
	if got != want {
		return b.assertionf("", want, got, "unexpected value for header %q", name)
	}
	return b
}

// JSONPath resolves a path in the result payload and applies a custom
// check to the value.
func (b *Builder) JSONPath(path string, check func(ldvalue.Value) error) *Builder {
	v, err := jsonpath.Evaluate(b.result.Payload, path)
	if err != nil {
		return b.report(err)
	}
	if err := check(v); err != nil {
		return b.assertionf(path, "check to pass", err.Error(), "value check failed")
	}
	return b
}

// JSONPathString asserts a string value in the result payload.
func (b *Builder) JSONPathString(path, want string) *Builder {
	expr, err := jsonpath.Parse(path)
	if err != nil {
		return b.report(err)
	}
	got, err := expr.EvaluateString(b.result.Payload)
	if err != nil {
		return b.report(err)
	}
	if got != want {
		return b.assertionf(path, want, got, "unexpected string value")
	}
	return b
}

// JSONPathInt asserts an integer value in the result payload; JSON number
// and string representations both match.
func (b *Builder) JSONPathInt(path string, want int) *Builder {
	expr, err := jsonpath.Parse(path)
	if err != nil {
		return b.report(err)
	}
	got, err := expr.EvaluateInt(b.result.Payload)
	if err != nil {
		return b.report(err)
	}
	if got != want {
		return b.assertionf(path, want, got, "unexpected integer value")
	}
	return b
}

// JSONPathFloat64 asserts a numeric value in the result payload.
func (b *Builder) JSONPathFloat64(path string, want float64) *Builder {
	expr, err := jsonpath.Parse(path)
	if err != nil {
		return b.report(err)
	}
	got, err := expr.EvaluateFloat64(b.result.Payload)
	if err != nil {
		return b.report(err)
	}
	if got != want {
		return b.assertionf(path, want, got, "unexpected numeric value")
	}
	return b
}

// JSONPathBool asserts a boolean value in the result payload.
func (b *Builder) JSONPathBool(path string, want bool) *Builder {
	expr, err := jsonpath.Parse(path)
	if err != nil {
		return b.report(err)
	}
	got, err := expr.EvaluateBool(b.result.Payload)
	if err != nil {
		return b.report(err)
	}
	if got != want {
		return b.assertionf(path, want, got, "unexpected boolean value")
	}
	return b
}

// Delivered asserts that the broker durably persisted the message.
func (b *Builder) Delivered() *Builder {
	if b.result.Delivery == nil {
		return b.assertionf("", "a delivery acknowledgment", "no delivery information", "step was not a produce")
	}
	if b.result.Delivery.Status != broker.Persisted {
		return b.assertionf("", broker.Persisted.String(), b.result.Delivery.Status.String(), "message was not persisted")
	}
	return b
}

// Partition asserts the partition the message was delivered to.
func (b *Builder) Partition(want int) *Builder {
	if b.result.Delivery == nil {
		return b.assertionf("", want, "no delivery information", "step was not a produce")
	}
	if b.result.Delivery.Partition != want {
		return b.assertionf("", want, b.result.Delivery.Partition, "unexpected delivery partition")
	}
	return b
}

// Offset asserts the offset the message was delivered at.
func (b *Builder) Offset(want int64) *Builder {
	if b.result.Delivery == nil {
		return b.assertionf("", want, "no delivery information", "step was not a produce")
	}
	if b.result.Delivery.Offset != want {
		return b.assertionf("", want, b.result.Delivery.Offset, "unexpected delivery offset")
	}
	return b
}

// ConsumedValue asserts the full payload of a consumed message.
func (b *Builder) ConsumedValue(want string) *Builder {
	if b.result.Payload != want {
		return b.assertionf("", want, b.result.Payload, "unexpected consumed value")
	}
	return b
}
