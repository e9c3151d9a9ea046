package scenario

import (
	"net/http"
	"time"

	"github.com/andrewBezerra/assured-go/auth"
	"github.com/andrewBezerra/assured-go/step"
)

const (
	keyPendingTopic    = "assured.pendingTopic"
	keyPendingResource = "assured.pendingResource"
)

// Given starts attaching a step to the scenario. A completed engine does
// not accept a new step; fork the scenario instead.
func (e *Engine) Given() *GivenBuilder {
	if e.sticky == nil && e.state == stateCompleted {
		e.fail(usageErrorf("Given called on a completed scenario; use Fork to start the next step"))
	}
	return &GivenBuilder{e: e}
}

// GivenBuilder chooses the transport for the scenario's step.
type GivenBuilder struct {
	e *Engine
}

// Topic selects the broker topic for a produce or consume step. The topic
// is held in the scenario context until an operation is attached.
func (g *GivenBuilder) Topic(name string) *TopicBuilder {
	if g.e.sticky == nil && name == "" {
		g.e.fail(usageErrorf("Topic requires a non-empty topic name"))
	}
	g.e.bag.Set(keyPendingTopic, name)
	return &TopicBuilder{e: g.e}
}

// APIResource selects the HTTP resource path for an HTTP step. The path
// is held in the scenario context until a method call attaches the step.
func (g *GivenBuilder) APIResource(path string) *ResourceBuilder {
	if g.e.sticky == nil && path == "" {
		g.e.fail(usageErrorf("APIResource requires a non-empty resource path"))
	}
	g.e.bag.Set(keyPendingResource, path)
	return &ResourceBuilder{e: g.e}
}

func (e *Engine) pendingTopic() string {
	name, ok := e.bag.GetString(keyPendingTopic)
	if !ok || name == "" {
		e.fail(usageErrorf("no topic configured; call Topic before attaching a produce or consume operation"))
	}
	return name
}

func (e *Engine) pendingResource() string {
	path, ok := e.bag.GetString(keyPendingResource)
	if !ok || path == "" {
		e.fail(usageErrorf("no resource configured; call APIResource before attaching an HTTP operation"))
	}
	return path
}

// TopicBuilder attaches a messaging operation to the selected topic.
type TopicBuilder struct {
	e *Engine
}

// Produce attaches a produce step for one key/value message.
func (b *TopicBuilder) Produce(key, value string) *ProduceBuilder {
	topic := b.e.pendingTopic()
	seq := b.e.setCurrent(step.ProduceStep{Topic: topic, Key: key, Value: value, Timeout: defaultStepTimeout})
	return &ProduceBuilder{e: b.e, seq: seq}
}

// ProduceBatch attaches a batch produce step fanning the messages out
// through one shared producer.
func (b *TopicBuilder) ProduceBatch(messages ...step.BatchMessage) *BatchProduceBuilder {
	topic := b.e.pendingTopic()
	if b.e.sticky == nil && len(messages) == 0 {
		b.e.fail(usageErrorf("ProduceBatch requires at least one message"))
	}
	seq := b.e.setCurrent(step.BatchProduceStep{
		Topic:    topic,
		Messages: append([]step.BatchMessage(nil), messages...),
		Timeout:  defaultStepTimeout,
	})
	return &BatchProduceBuilder{e: b.e, seq: seq}
}

// Consume attaches a consume step using a fresh consumer in the given
// group.
func (b *TopicBuilder) Consume(groupID string) *ConsumeBuilder {
	topic := b.e.pendingTopic()
	seq := b.e.setCurrent(step.ConsumeStep{Topic: topic, GroupID: groupID, Timeout: defaultStepTimeout})
	return &ConsumeBuilder{e: b.e, seq: seq}
}

// ConsumeBatch attaches a batch consume step draining up to count
// messages.
func (b *TopicBuilder) ConsumeBatch(groupID string, count int) *BatchConsumeBuilder {
	topic := b.e.pendingTopic()
	if b.e.sticky == nil && count <= 0 {
		b.e.fail(usageErrorf("ConsumeBatch requires a positive message count"))
	}
	seq := b.e.setCurrent(step.BatchConsumeStep{Topic: topic, GroupID: groupID, Count: count, Timeout: defaultStepTimeout})
	return &BatchConsumeBuilder{e: b.e, seq: seq}
}

// ResourceBuilder attaches an HTTP operation to the selected resource.
type ResourceBuilder struct {
	e *Engine
}

func (b *ResourceBuilder) attach(method, body string) *HTTPBuilder {
	resource := b.e.pendingResource()
	seq := b.e.setCurrent(step.HTTPStep{Resource: resource, Method: method, Body: body, Timeout: defaultStepTimeout})
	return &HTTPBuilder{e: b.e, seq: seq}
}

func (b *ResourceBuilder) Get() *HTTPBuilder              { return b.attach(http.MethodGet, "") }
func (b *ResourceBuilder) Post(body string) *HTTPBuilder  { return b.attach(http.MethodPost, body) }
func (b *ResourceBuilder) Put(body string) *HTTPBuilder   { return b.attach(http.MethodPut, body) }
func (b *ResourceBuilder) Patch(body string) *HTTPBuilder { return b.attach(http.MethodPatch, body) }
func (b *ResourceBuilder) Delete() *HTTPBuilder           { return b.attach(http.MethodDelete, "") }

// HTTPBuilder reconfigures the scenario's HTTP step. Every With* replaces
// the current step with a new immutable copy.
type HTTPBuilder struct {
	e   *Engine
	seq int
}

func (b *HTTPBuilder) with(op string, f func(step.HTTPStep) step.HTTPStep) *HTTPBuilder {
	b.e.reconfigure(op, b.seq, step.KindHTTP, func(s step.Spec) step.Spec {
		return f(s.(step.HTTPStep))
	})
	return b
}

func (b *HTTPBuilder) WithHeader(name, value string) *HTTPBuilder {
	return b.with("WithHeader", func(s step.HTTPStep) step.HTTPStep { return s.WithHeader(name, value) })
}

func (b *HTTPBuilder) WithQueryParam(name, value string) *HTTPBuilder {
	return b.with("WithQueryParam", func(s step.HTTPStep) step.HTTPStep { return s.WithQueryParam(name, value) })
}

func (b *HTTPBuilder) WithBody(body string) *HTTPBuilder {
	return b.with("WithBody", func(s step.HTTPStep) step.HTTPStep { return s.WithBody(body) })
}

func (b *HTTPBuilder) WithTimeout(d time.Duration) *HTTPBuilder {
	return b.with("WithTimeout", func(s step.HTTPStep) step.HTTPStep { return s.WithTimeout(d) })
}

func (b *HTTPBuilder) WithAuth(cfg *auth.HTTPAuthConfig) *HTTPBuilder {
	return b.with("WithAuth", func(s step.HTTPStep) step.HTTPStep { return s.WithAuth(cfg) })
}

// Step returns the current immutable HTTP step specification.
func (b *HTTPBuilder) Step() step.HTTPStep {
	return b.e.currentAs(step.KindHTTP).(step.HTTPStep)
}

// When executes the step and blocks until it completes.
func (b *HTTPBuilder) When() *Outcome { return b.e.execute(b.seq, step.KindHTTP) }

// ProduceBuilder reconfigures the scenario's produce step.
type ProduceBuilder struct {
	e   *Engine
	seq int
}

func (b *ProduceBuilder) with(op string, f func(step.ProduceStep) step.ProduceStep) *ProduceBuilder {
	b.e.reconfigure(op, b.seq, step.KindProduce, func(s step.Spec) step.Spec {
		return f(s.(step.ProduceStep))
	})
	return b
}

func (b *ProduceBuilder) WithHeader(name, value string) *ProduceBuilder {
	return b.with("WithHeader", func(s step.ProduceStep) step.ProduceStep { return s.WithHeader(name, value) })
}

func (b *ProduceBuilder) WithPartition(partition int) *ProduceBuilder {
	return b.with("WithPartition", func(s step.ProduceStep) step.ProduceStep { return s.WithPartition(partition) })
}

func (b *ProduceBuilder) WithTimestamp(ts time.Time) *ProduceBuilder {
	return b.with("WithTimestamp", func(s step.ProduceStep) step.ProduceStep { return s.WithTimestamp(ts) })
}

func (b *ProduceBuilder) WithTimeout(d time.Duration) *ProduceBuilder {
	return b.with("WithTimeout", func(s step.ProduceStep) step.ProduceStep { return s.WithTimeout(d) })
}

func (b *ProduceBuilder) WithAuth(cfg *auth.MessagingAuthConfig) *ProduceBuilder {
	return b.with("WithAuth", func(s step.ProduceStep) step.ProduceStep { return s.WithAuth(cfg) })
}

func (b *ProduceBuilder) WithCompression(c step.Compression) *ProduceBuilder {
	return b.with("WithCompression", func(s step.ProduceStep) step.ProduceStep { return s.WithCompression(c) })
}

func (b *ProduceBuilder) WithAcks(a step.AckMode) *ProduceBuilder {
	return b.with("WithAcks", func(s step.ProduceStep) step.ProduceStep { return s.WithAcks(a) })
}

func (b *ProduceBuilder) WithBatchSize(bytes int) *ProduceBuilder {
	return b.with("WithBatchSize", func(s step.ProduceStep) step.ProduceStep { return s.WithBatchSize(bytes) })
}

func (b *ProduceBuilder) WithLinger(ms int) *ProduceBuilder {
	return b.with("WithLinger", func(s step.ProduceStep) step.ProduceStep { return s.WithLinger(ms) })
}

func (b *ProduceBuilder) WithRetries(n int) *ProduceBuilder {
	return b.with("WithRetries", func(s step.ProduceStep) step.ProduceStep { return s.WithRetries(n) })
}

func (b *ProduceBuilder) WithIdempotence(enabled bool) *ProduceBuilder {
	return b.with("WithIdempotence", func(s step.ProduceStep) step.ProduceStep { return s.WithIdempotence(enabled) })
}

// Step returns the current immutable produce step specification.
func (b *ProduceBuilder) Step() step.ProduceStep {
	return b.e.currentAs(step.KindProduce).(step.ProduceStep)
}

func (b *ProduceBuilder) When() *Outcome { return b.e.execute(b.seq, step.KindProduce) }

// ConsumeBuilder reconfigures the scenario's consume step.
type ConsumeBuilder struct {
	e   *Engine
	seq int
}

func (b *ConsumeBuilder) with(op string, f func(step.ConsumeStep) step.ConsumeStep) *ConsumeBuilder {
	b.e.reconfigure(op, b.seq, step.KindConsume, func(s step.Spec) step.Spec {
		return f(s.(step.ConsumeStep))
	})
	return b
}

func (b *ConsumeBuilder) WithGroupID(groupID string) *ConsumeBuilder {
	return b.with("WithGroupID", func(s step.ConsumeStep) step.ConsumeStep { return s.WithGroupID(groupID) })
}

func (b *ConsumeBuilder) WithTimeout(d time.Duration) *ConsumeBuilder {
	return b.with("WithTimeout", func(s step.ConsumeStep) step.ConsumeStep { return s.WithTimeout(d) })
}

func (b *ConsumeBuilder) WithAuth(cfg *auth.MessagingAuthConfig) *ConsumeBuilder {
	return b.with("WithAuth", func(s step.ConsumeStep) step.ConsumeStep { return s.WithAuth(cfg) })
}

func (b *ConsumeBuilder) WithExpectedType(typeName string) *ConsumeBuilder {
	return b.with("WithExpectedType", func(s step.ConsumeStep) step.ConsumeStep { return s.WithExpectedType(typeName) })
}

// Step returns the current immutable consume step specification.
func (b *ConsumeBuilder) Step() step.ConsumeStep {
	return b.e.currentAs(step.KindConsume).(step.ConsumeStep)
}

func (b *ConsumeBuilder) When() *Outcome { return b.e.execute(b.seq, step.KindConsume) }

// BatchProduceBuilder reconfigures the scenario's batch produce step.
type BatchProduceBuilder struct {
	e   *Engine
	seq int
}

func (b *BatchProduceBuilder) with(op string, f func(step.BatchProduceStep) step.BatchProduceStep) *BatchProduceBuilder {
	b.e.reconfigure(op, b.seq, step.KindBatchProduce, func(s step.Spec) step.Spec {
		return f(s.(step.BatchProduceStep))
	})
	return b
}

func (b *BatchProduceBuilder) WithHeader(name, value string) *BatchProduceBuilder {
	return b.with("WithHeader", func(s step.BatchProduceStep) step.BatchProduceStep { return s.WithHeader(name, value) })
}

func (b *BatchProduceBuilder) WithTimeout(d time.Duration) *BatchProduceBuilder {
	return b.with("WithTimeout", func(s step.BatchProduceStep) step.BatchProduceStep { return s.WithTimeout(d) })
}

func (b *BatchProduceBuilder) WithAuth(cfg *auth.MessagingAuthConfig) *BatchProduceBuilder {
	return b.with("WithAuth", func(s step.BatchProduceStep) step.BatchProduceStep { return s.WithAuth(cfg) })
}

func (b *BatchProduceBuilder) WithCompression(c step.Compression) *BatchProduceBuilder {
	return b.with("WithCompression", func(s step.BatchProduceStep) step.BatchProduceStep { return s.WithCompression(c) })
}

func (b *BatchProduceBuilder) WithAcks(a step.AckMode) *BatchProduceBuilder {
	return b.with("WithAcks", func(s step.BatchProduceStep) step.BatchProduceStep { return s.WithAcks(a) })
}

func (b *BatchProduceBuilder) WithIdempotence(enabled bool) *BatchProduceBuilder {
	return b.with("WithIdempotence", func(s step.BatchProduceStep) step.BatchProduceStep { return s.WithIdempotence(enabled) })
}

func (b *BatchProduceBuilder) When() *Outcome { return b.e.execute(b.seq, step.KindBatchProduce) }

// BatchConsumeBuilder reconfigures the scenario's batch consume step.
type BatchConsumeBuilder struct {
	e   *Engine
	seq int
}

func (b *BatchConsumeBuilder) with(op string, f func(step.BatchConsumeStep) step.BatchConsumeStep) *BatchConsumeBuilder {
	b.e.reconfigure(op, b.seq, step.KindBatchConsume, func(s step.Spec) step.Spec {
		return f(s.(step.BatchConsumeStep))
	})
	return b
}

func (b *BatchConsumeBuilder) WithTimeout(d time.Duration) *BatchConsumeBuilder {
	return b.with("WithTimeout", func(s step.BatchConsumeStep) step.BatchConsumeStep { return s.WithTimeout(d) })
}

func (b *BatchConsumeBuilder) WithAuth(cfg *auth.MessagingAuthConfig) *BatchConsumeBuilder {
	return b.with("WithAuth", func(s step.BatchConsumeStep) step.BatchConsumeStep { return s.WithAuth(cfg) })
}

func (b *BatchConsumeBuilder) When() *Outcome { return b.e.execute(b.seq, step.KindBatchConsume) }

// currentAs returns the current step after checking its variant; used by
// the builders' Step accessors.
func (e *Engine) currentAs(want step.Kind) step.Spec {
	if e.current == nil || e.current.Kind() != want {
		have := step.Kind(-1)
		if e.current != nil {
			have = e.current.Kind()
		}
		e.fail(&IncompatibleStepError{Op: "Step", Have: have, Want: want})
		return zeroSpec(want)
	}
	return e.current
}

func zeroSpec(k step.Kind) step.Spec {
	switch k {
	case step.KindHTTP:
		return step.HTTPStep{}
	case step.KindProduce:
		return step.ProduceStep{}
	case step.KindConsume:
		return step.ConsumeStep{}
	case step.KindBatchProduce:
		return step.BatchProduceStep{}
	default:
		return step.BatchConsumeStep{}
	}
}
