// Package scenario implements the Given/When/Then engine: it tracks the
// scenario's single current step, sequences Building -> Executing ->
// Completed, and drives execution through the configured transports. The
// DSL blocks at every step boundary on purpose: step N's result is fully
// inspectable before step N+1 begins, which keeps test sequencing
// deterministic even though the underlying transports are asynchronous.
package scenario

import (
	"github.com/andrewBezerra/assured-go/broker"
	"github.com/andrewBezerra/assured-go/httptransport"
	"github.com/andrewBezerra/assured-go/logging"
	"github.com/andrewBezerra/assured-go/step"
)

// TestingT is the subset of testing.T the DSL needs. testify's assert and
// require packages accept the same shape.
type TestingT interface {
	Errorf(format string, args ...interface{})
	FailNow()
}

type state int

const (
	stateBuilding state = iota
	stateExecuting
	stateCompleted
)

// Engine runs one scenario. Create one with New, attach a step through
// Given, reconfigure it with the returned builder's With* methods, then
// execute with When. An engine holds at most one current step and is
// finished after one execution; Fork starts a sibling scenario that
// shares the same Context and transports.
type Engine struct {
	t            TestingT
	bag          *Context
	httpSender   httptransport.Sender
	brokerClient broker.Client
	brokerConfig broker.ClientConfig
	producer     *broker.SharedProducer
	ownsProducer bool
	logger       *logging.CapturingLogger
	current      step.Spec
	seq          int
	state        state
	sticky       error
	records      []Record
}

// Option configures an Engine.
type Option func(*Engine)

// WithHTTPSender supplies the HTTP transport client.
func WithHTTPSender(s httptransport.Sender) Option {
	return func(e *Engine) { e.httpSender = s }
}

// WithBroker supplies the broker client and the base connection
// configuration that authentication strategies are applied to.
func WithBroker(c broker.Client, cfg broker.ClientConfig) Option {
	return func(e *Engine) {
		e.brokerClient = c
		e.brokerConfig = cfg
	}
}

// WithSharedProducer supplies an externally managed producer cache, so
// many scenarios in one test run reuse a single producer. Without it the
// engine creates its own.
func WithSharedProducer(p *broker.SharedProducer) Option {
	return func(e *Engine) {
		e.producer = p
		e.ownsProducer = false
	}
}

func withPropertyBag(bag *Context) Option {
	return func(e *Engine) { e.bag = bag }
}

// New creates a scenario engine. With a TestingT attached, DSL-usage and
// configuration errors fail the test immediately; with t nil they poison
// the scenario and surface as a failed result at execution time.
func New(t TestingT, opts ...Option) *Engine {
	e := &Engine{
		t:      t,
		logger: logging.NewCapturingLogger(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.bag == nil {
		e.bag = NewContext()
	}
	if e.producer == nil && e.brokerClient != nil {
		client := e.brokerClient
		e.producer = broker.NewSharedProducer(func(cfg broker.ClientConfig) (broker.Producer, error) {
			return client.NewProducer(cfg)
		})
		e.ownsProducer = true
	}
	return e
}

// Fork creates a new engine for the scenario's next step, sharing the
// Context, transports, debug log, and cached producer of this one.
func (e *Engine) Fork() *Engine {
	forked := &Engine{
		t:            e.t,
		bag:          e.bag,
		httpSender:   e.httpSender,
		brokerClient: e.brokerClient,
		brokerConfig: e.brokerConfig,
		producer:     e.producer,
		logger:       e.logger,
	}
	return forked
}

// Context returns the scenario's property bag.
func (e *Engine) Context() *Context { return e.bag }

// DebugLogger returns the scenario's capturing debug logger.
func (e *Engine) DebugLogger() logging.Logger { return e.logger }

// DebugOutput returns everything logged during the scenario so far.
func (e *Engine) DebugOutput() logging.CapturedOutput { return e.logger.Output() }

// Records returns one record per executed step, for reporting.
func (e *Engine) Records() []Record {
	return append([]Record(nil), e.records...)
}

// Close releases the engine's own shared producer, if it ever created
// one. Safe to call from fixture teardown regardless of whether any
// produce step ran; externally supplied producers are left alone.
func (e *Engine) Close() error {
	if e.ownsProducer && e.producer != nil {
		return e.producer.Close()
	}
	return nil
}

// Err returns the first fail-fast error recorded by the DSL, if any.
func (e *Engine) Err() error { return e.sticky }

// fail records a fail-fast error. With a TestingT attached this stops the
// test immediately; otherwise the scenario is poisoned and every later
// call is a no-op until When reports the failure.
func (e *Engine) fail(err error) {
	if e.sticky == nil {
		e.sticky = err
	}
	e.logger.Printf("scenario error: %s", err)
	if e.t != nil {
		e.t.Errorf("%s", err)
		e.t.FailNow()
	}
}

// setCurrent installs a newly created step as the scenario's single
// current step and returns its sequence number for the owning builder.
func (e *Engine) setCurrent(s step.Spec) int {
	e.seq++
	e.current = s
	return e.seq
}

// reconfigure swaps the current step for a reconfigured copy. The builder
// must still own the current step (seq matches) and the step must be of
// the expected variant; anything else is an incompatible-step usage error,
// raised before any I/O.
func (e *Engine) reconfigure(op string, seq int, want step.Kind, f func(step.Spec) step.Spec) {
	if e.sticky != nil {
		return
	}
	if e.state != stateBuilding {
		e.fail(usageErrorf("%s called after the scenario step was executed", op))
		return
	}
	if e.current == nil {
		e.fail(usageErrorf("%s called before any step was attached", op))
		return
	}
	if seq != e.seq {
		e.fail(usageErrorf("%s called on a stale step builder; the scenario has moved to a newer step", op))
		return
	}
	if e.current.Kind() != want {
		e.fail(&IncompatibleStepError{Op: op, Have: e.current.Kind(), Want: want})
		return
	}
	e.current = f(e.current)
}
