package scenario

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/andrewBezerra/assured-go/auth"
	"github.com/andrewBezerra/assured-go/broker"
	"github.com/andrewBezerra/assured-go/httptransport"
	"github.com/andrewBezerra/assured-go/logging"
	"github.com/andrewBezerra/assured-go/step"
)

const defaultStepTimeout = time.Second * 10

// Record describes one executed step, for reporting.
type Record struct {
	Kind        step.Kind
	Description string
	Results     []*step.Result
	Elapsed     time.Duration
}

// OK reports whether every result of the step succeeded.
func (r Record) OK() bool {
	for _, res := range r.Results {
		if !res.Success {
			return false
		}
	}
	return len(r.Results) > 0
}

// execute runs the current step to completion. Authentication is resolved
// and applied first (failing fast, before any I/O); the transport call
// itself is bounded by the step's timeout, and execution-time faults are
// captured in the result rather than raised.
func (e *Engine) execute(seq int, want step.Kind) *Outcome {
	if e.sticky != nil {
		return e.poisonedOutcome()
	}
	if e.state != stateBuilding || e.current == nil {
		e.fail(usageErrorf("When called with no step to execute"))
		return e.poisonedOutcome()
	}
	if seq != e.seq || e.current.Kind() != want {
		e.fail(&IncompatibleStepError{Op: "When", Have: e.current.Kind(), Want: want})
		return e.poisonedOutcome()
	}

	e.state = stateExecuting
	description := describe(e.current)
	log := e.logger.ForScope(description)
	start := time.Now()
	results := e.run(log, e.current)
	elapsed := time.Since(start)
	for _, r := range results {
		if r.Elapsed == 0 {
			r.Elapsed = elapsed
		}
	}
	e.state = stateCompleted

	record := Record{Kind: e.current.Kind(), Description: description, Results: results, Elapsed: elapsed}
	e.records = append(e.records, record)
	log.Printf("finished: ok=%v in %s", record.OK(), elapsed)

	return &Outcome{engine: e, results: results}
}

// poisonedOutcome wraps the sticky error as a failed result so that a
// scenario without a TestingT still yields something inspectable.
func (e *Engine) poisonedOutcome() *Outcome {
	err := e.sticky
	if err == nil {
		err = usageErrorf("scenario is not executable")
	}
	return &Outcome{engine: e, results: []*step.Result{{Success: false, Errors: []error{err}}}}
}

func describe(s step.Spec) string {
	switch s := s.(type) {
	case step.HTTPStep:
		return fmt.Sprintf("%s %s", s.Method, s.Resource)
	case step.ProduceStep:
		return fmt.Sprintf("produce to %s", s.Topic)
	case step.ConsumeStep:
		return fmt.Sprintf("consume from %s", s.Topic)
	case step.BatchProduceStep:
		return fmt.Sprintf("produce batch of %d to %s", len(s.Messages), s.Topic)
	case step.BatchConsumeStep:
		return fmt.Sprintf("consume batch of %d from %s", s.Count, s.Topic)
	default:
		return "unsupported step"
	}
}

func (e *Engine) run(log logging.Logger, s step.Spec) []*step.Result {
	switch s := s.(type) {
	case step.HTTPStep:
		return []*step.Result{e.runHTTP(log, s)}
	case step.ProduceStep:
		return []*step.Result{e.runProduce(log, s)}
	case step.ConsumeStep:
		return []*step.Result{e.runConsume(log, s)}
	case step.BatchProduceStep:
		return e.runBatchProduce(log, s)
	case step.BatchConsumeStep:
		return e.runBatchConsume(log, s)
	default:
		err := usageErrorf("unsupported step variant %s", s.Kind())
		e.fail(err)
		return []*step.Result{failedResult(err)}
	}
}

func failedResult(errs ...error) *step.Result {
	return &step.Result{Success: false, Errors: errs}
}

// await runs a blocking transport call with a deadline. The DSL blocks
// here deliberately; if the call outlives the timeout it is abandoned and
// the step fails with a TimeoutError.
func await[T any](limit time.Duration, fn func(ctx context.Context) (T, error)) (T, error) {
	ctx, cancel := context.WithTimeout(context.Background(), limit)
	defer cancel()

	type callResult struct {
		value T
		err   error
	}
	done := make(chan callResult, 1)
	go func() {
		v, err := fn(ctx)
		done <- callResult{value: v, err: err}
	}()

	deadline := time.NewTimer(limit)
	defer deadline.Stop()
	select {
	case out := <-done:
		// A call that gave up because the deadline context expired is the
		// same timeout as the timer firing.
		if errors.Is(out.err, context.DeadlineExceeded) {
			var zero T
			return zero, &TimeoutError{Limit: limit}
		}
		return out.value, out.err
	case <-deadline.C:
		var zero T
		return zero, &TimeoutError{Limit: limit}
	}
}

func stepTimeout(d time.Duration) time.Duration {
	if d <= 0 {
		return defaultStepTimeout
	}
	return d
}

func (e *Engine) runHTTP(log logging.Logger, s step.HTTPStep) *step.Result {
	strategy, err := auth.ResolveHTTP(s.Auth)
	if err != nil {
		e.fail(err)
		return failedResult(err)
	}
	if e.httpSender == nil {
		err := usageErrorf("no HTTP sender configured for this scenario")
		e.fail(err)
		return failedResult(err)
	}

	req := httptransport.NewRequest(s.Method, s.Resource)
	req.Body = s.Body
	for name, value := range s.Headers {
		req.SetHeader(name, value)
	}
	for name, value := range s.Query {
		req.Query.Set(name, value)
	}
	if err := strategy.Apply(req); err != nil {
		e.fail(err)
		return failedResult(err)
	}

	log.Printf("executing %s %s", s.Method, s.Resource)
	resp, err := await(stepTimeout(s.Timeout), func(ctx context.Context) (*httptransport.Response, error) {
		return e.httpSender.Send(ctx, req)
	})
	if err != nil {
		return failedResult(err)
	}

	// Multi-valued response headers are carried comma-joined, per the
	// canonical HTTP field-value form.
	headers := make(map[string]string, len(resp.Header))
	for name, values := range resp.Header {
		headers[name] = strings.Join(values, ", ")
	}
	return &step.Result{
		Success:    resp.StatusCode < 400,
		StatusCode: resp.StatusCode,
		Payload:    resp.Body,
		Headers:    headers,
	}
}

// resolveBrokerConfig applies the step's messaging auth to a copy of the
// engine's base broker configuration. Resolution errors fail fast.
func (e *Engine) resolveBrokerConfig(cfg *auth.MessagingAuthConfig) (broker.ClientConfig, bool) {
	strategy, err := auth.ResolveMessaging(cfg)
	if err != nil {
		e.fail(err)
		return broker.ClientConfig{}, false
	}
	resolved := e.brokerConfig
	if err := strategy.Apply(&resolved); err != nil {
		e.fail(err)
		return broker.ClientConfig{}, false
	}
	return resolved, true
}

func (e *Engine) requireBroker() bool {
	if e.brokerClient == nil {
		e.fail(usageErrorf("no broker client configured for this scenario"))
		return false
	}
	return true
}

func (e *Engine) produceOne(producer broker.Producer, msg broker.Message, timeout time.Duration) *step.Result {
	delivery, err := await(stepTimeout(timeout), func(ctx context.Context) (broker.DeliveryResult, error) {
		return producer.Produce(ctx, msg)
	})
	if err != nil {
		return failedResult(err)
	}

	result := &step.Result{
		Delivery: &delivery,
		Payload:  msg.Value,
		Headers:  msg.Headers,
	}
	// Accepted is not delivered: only a Persisted acknowledgment counts.
	if delivery.Status == broker.Persisted {
		result.Success = true
	} else {
		result.Errors = append(result.Errors, &broker.DeliveryError{Topic: msg.Topic, Status: delivery.Status})
	}
	return result
}

func (e *Engine) runProduce(log logging.Logger, s step.ProduceStep) *step.Result {
	cfg, ok := e.resolveBrokerConfig(s.Auth)
	if !ok {
		return failedResult(e.sticky)
	}
	if !e.requireBroker() {
		return failedResult(e.sticky)
	}

	cfg.Tuning = s.Tuning.ClientTuning()
	producer, err := e.producer.Get(cfg)
	if err != nil {
		return failedResult(err)
	}

	log.Printf("producing to topic %q (key %q)", s.Topic, s.Key)
	msg := broker.Message{
		Topic:     s.Topic,
		Key:       s.Key,
		Value:     s.Value,
		Headers:   s.Headers,
		Partition: s.Partition,
		Timestamp: s.Timestamp,
	}
	return e.produceOne(producer, msg, s.Timeout)
}

func (e *Engine) runConsume(log logging.Logger, s step.ConsumeStep) *step.Result {
	cfg, ok := e.resolveBrokerConfig(s.Auth)
	if !ok {
		return failedResult(e.sticky)
	}
	if !e.requireBroker() {
		return failedResult(e.sticky)
	}

	// Consumers carry subscription and offset state, so each consume gets
	// a fresh one and closes it before the step returns.
	consumer, err := e.brokerClient.NewConsumer(cfg, s.GroupID)
	if err != nil {
		return failedResult(err)
	}
	defer consumer.Close()

	log.Printf("consuming from topic %q (group %q)", s.Topic, s.GroupID)
	msg, err := await(stepTimeout(s.Timeout), func(ctx context.Context) (broker.Message, error) {
		return consumer.Consume(ctx, s.Topic)
	})
	if err != nil {
		return failedResult(err)
	}
	if s.ExpectedType != "" && msg.Type != s.ExpectedType {
		return failedResult(fmt.Errorf("consumed message from topic %q reports type %q, expected %q",
			s.Topic, msg.Type, s.ExpectedType))
	}
	return &step.Result{Success: true, Payload: msg.Value, Headers: msg.Headers}
}

func (e *Engine) runBatchProduce(log logging.Logger, s step.BatchProduceStep) []*step.Result {
	cfg, ok := e.resolveBrokerConfig(s.Auth)
	if !ok {
		return []*step.Result{failedResult(e.sticky)}
	}
	if !e.requireBroker() {
		return []*step.Result{failedResult(e.sticky)}
	}

	cfg.Tuning = s.Tuning.ClientTuning()
	producer, err := e.producer.Get(cfg)
	if err != nil {
		return []*step.Result{failedResult(err)}
	}

	log.Printf("producing batch of %d to topic %q", len(s.Messages), s.Topic)
	results := make([]*step.Result, 0, len(s.Messages))
	for _, m := range s.Messages {
		msg := broker.Message{Topic: s.Topic, Key: m.Key, Value: m.Value, Headers: s.Headers}
		results = append(results, e.produceOne(producer, msg, s.Timeout))
	}
	return results
}

func (e *Engine) runBatchConsume(log logging.Logger, s step.BatchConsumeStep) []*step.Result {
	cfg, ok := e.resolveBrokerConfig(s.Auth)
	if !ok {
		return []*step.Result{failedResult(e.sticky)}
	}
	if !e.requireBroker() {
		return []*step.Result{failedResult(e.sticky)}
	}

	consumer, err := e.brokerClient.NewConsumer(cfg, s.GroupID)
	if err != nil {
		return []*step.Result{failedResult(err)}
	}
	defer consumer.Close()

	log.Printf("consuming batch of %d from topic %q (group %q)", s.Count, s.Topic, s.GroupID)
	results := make([]*step.Result, 0, s.Count)
	for i := 0; i < s.Count; i++ {
		msg, err := await(stepTimeout(s.Timeout), func(ctx context.Context) (broker.Message, error) {
			return consumer.Consume(ctx, s.Topic)
		})
		if err != nil {
			results = append(results, failedResult(err))
			continue
		}
		results = append(results, &step.Result{Success: true, Payload: msg.Value, Headers: msg.Headers})
	}
	return results
}
