package scenario

import (
	"github.com/andrewBezerra/assured-go/step"
	"github.com/andrewBezerra/assured-go/validation"
)

// Outcome is the completed execution of one step. Single-result steps are
// inspected through Then; batch steps expose one result per payload.
type Outcome struct {
	engine  *Engine
	results []*step.Result
}

// Result returns the step's result (the first one, for batch steps).
func (o *Outcome) Result() *step.Result {
	if len(o.results) == 0 {
		return &step.Result{}
	}
	return o.results[0]
}

// Results returns one result per payload, in execution order.
func (o *Outcome) Results() []*step.Result {
	return append([]*step.Result(nil), o.results...)
}

// Then starts assertions over the step's result. Assertion failures are
// reported through the scenario's TestingT.
func (o *Outcome) Then() *validation.Builder {
	return validation.New(o.engine.t, o.Result())
}

// ThenAt starts assertions over the i-th result of a batch step.
func (o *Outcome) ThenAt(i int) *validation.Builder {
	if i < 0 || i >= len(o.results) {
		if o.engine.t != nil {
			o.engine.t.Errorf("no result at index %d; the step produced %d result(s)", i, len(o.results))
			o.engine.t.FailNow()
		}
		return validation.New(o.engine.t, &step.Result{})
	}
	return validation.New(o.engine.t, o.results[i])
}
