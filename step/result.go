package step

import (
	"strings"
	"time"

	"github.com/andrewBezerra/assured-go/broker"
)

// Result is the outcome of executing one step. It is produced once per
// execution and not modified afterwards. Execution-time faults (timeouts,
// transport errors, delivery failures) are captured in Errors with Success
// false, so assertions can inspect failures uniformly. Multi-valued
// response headers are carried comma-joined under their header name.
type Result struct {
	Success    bool
	StatusCode int
	Delivery   *broker.DeliveryResult
	Payload    string
	Headers    map[string]string
	Errors     []error
	Elapsed    time.Duration
}

// Err returns nil if the step succeeded without errors, the single error
// if there was one, and a combined error otherwise.
func (r *Result) Err() error {
	switch len(r.Errors) {
	case 0:
		return nil
	case 1:
		return r.Errors[0]
	default:
		msgs := make([]string, 0, len(r.Errors))
		for _, e := range r.Errors {
			msgs = append(msgs, e.Error())
		}
		return &multiError{message: strings.Join(msgs, "; "), errors: r.Errors}
	}
}

// Header returns a response header or message property by name.
func (r *Result) Header(name string) string {
	return r.Headers[name]
}

type multiError struct {
	message string
	errors  []error
}

func (e *multiError) Error() string { return e.message }

func (e *multiError) Unwrap() []error { return e.errors }
