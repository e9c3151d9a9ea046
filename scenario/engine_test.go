package scenario

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"github.com/andrewBezerra/assured-go/auth"
	"github.com/andrewBezerra/assured-go/broker"
	"github.com/andrewBezerra/assured-go/httptransport"
	"github.com/andrewBezerra/assured-go/step"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockT records DSL failures instead of failing the real test. FailNow
// panics with the mock itself so that fail-fast behavior is observable,
// mirroring how testing.T stops the goroutine.
type mockT struct {
	failures []string
	stopped  bool
}

func (m *mockT) Errorf(format string, args ...interface{}) {
	m.failures = append(m.failures, fmt.Sprintf(format, args...))
}

func (m *mockT) FailNow() {
	m.stopped = true
	panic(m)
}

// runStopped runs fn and swallows the mockT's FailNow panic.
func runStopped(m *mockT, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			if _, ok := r.(*mockT); !ok {
				panic(r)
			}
		}
	}()
	fn()
}

type scriptedBroker struct {
	producerCreations int32
	consumerCreations int32
	producerConfig    broker.ClientConfig
	consumerConfig    broker.ClientConfig
	deliveryStatus    broker.PersistenceStatus
	deliveryPartition int
	produceErr        error
	produced          []broker.Message
	consumeValues     []string
	consumeType       string
	consumeErr        error
	consumersClosed   int32
}

type scriptedProducer struct {
	owner *scriptedBroker
}

func (p *scriptedProducer) Produce(ctx context.Context, msg broker.Message) (broker.DeliveryResult, error) {
	if p.owner.produceErr != nil {
		return broker.DeliveryResult{}, p.owner.produceErr
	}
	p.owner.produced = append(p.owner.produced, msg)
	partition := p.owner.deliveryPartition
	if msg.Partition.IsDefined() {
		partition = msg.Partition.IntValue()
	}
	return broker.DeliveryResult{
		Topic:     msg.Topic,
		Partition: partition,
		Offset:    int64(len(p.owner.produced) - 1),
		Status:    p.owner.deliveryStatus,
		Timestamp: time.Now(),
	}, nil
}

type scriptedConsumer struct {
	owner *scriptedBroker
	next  int
}

func (c *scriptedConsumer) Consume(ctx context.Context, topic string) (broker.Message, error) {
	if c.owner.consumeErr != nil {
		return broker.Message{}, c.owner.consumeErr
	}
	if c.next >= len(c.owner.consumeValues) {
		<-ctx.Done()
		return broker.Message{}, ctx.Err()
	}
	value := c.owner.consumeValues[c.next]
	c.next++
	return broker.Message{Topic: topic, Value: value, Type: c.owner.consumeType}, nil
}

func (c *scriptedConsumer) Close() error {
	atomic.AddInt32(&c.owner.consumersClosed, 1)
	return nil
}

func (b *scriptedBroker) NewProducer(cfg broker.ClientConfig) (broker.Producer, error) {
	atomic.AddInt32(&b.producerCreations, 1)
	b.producerConfig = cfg
	return &scriptedProducer{owner: b}, nil
}

func (b *scriptedBroker) NewConsumer(cfg broker.ClientConfig, groupID string) (broker.Consumer, error) {
	atomic.AddInt32(&b.consumerCreations, 1)
	b.consumerConfig = cfg
	return &scriptedConsumer{owner: b}, nil
}

func newScriptedBroker() *scriptedBroker {
	return &scriptedBroker{deliveryStatus: broker.Persisted}
}

func staticSender(status int, body string) httptransport.Sender {
	return httptransport.SenderFunc(func(ctx context.Context, req *httptransport.Request) (*httptransport.Response, error) {
		return &httptransport.Response{StatusCode: status, Body: body}, nil
	})
}

func TestHTTPStepRunsAndYieldsResult(t *testing.T) {
	var sent *httptransport.Request
	sender := httptransport.SenderFunc(func(ctx context.Context, req *httptransport.Request) (*httptransport.Response, error) {
		sent = req
		return &httptransport.Response{StatusCode: 200, Body: `{"id":1,"name":"Laptop","price":999.99}`}, nil
	})

	engine := New(t, WithHTTPSender(sender))
	outcome := engine.Given().
		APIResource("/products/1").
		Get().
		WithHeader("Accept", "application/json").
		WithQueryParam("expand", "details").
		When()

	require.NotNil(t, sent)
	assert.Equal(t, "GET", sent.Method)
	assert.Equal(t, "/products/1", sent.URL)
	assert.Equal(t, "application/json", sent.Header.Get("Accept"))
	assert.Equal(t, "details", sent.Query.Get("expand"))

	result := outcome.Result()
	assert.True(t, result.Success)
	assert.Equal(t, 200, result.StatusCode)

	outcome.Then().
		Status(200).
		And().
		JSONPathString("$.name", "Laptop").
		JSONPathFloat64("$.price", 999.99)
}

func TestHTTPStepAppliesAuthBeforeSending(t *testing.T) {
	var sent *httptransport.Request
	sender := httptransport.SenderFunc(func(ctx context.Context, req *httptransport.Request) (*httptransport.Response, error) {
		sent = req
		return &httptransport.Response{StatusCode: 200}, nil
	})

	engine := New(t, WithHTTPSender(sender))
	engine.Given().
		APIResource("/secure").
		Get().
		WithAuth(&auth.HTTPAuthConfig{Type: auth.HTTPAuthBearer, Bearer: &auth.BearerConfig{Token: "tok"}}).
		When()

	require.NotNil(t, sent)
	assert.Equal(t, "Bearer tok", sent.Header.Get("Authorization"))
}

func TestHTTPStepMissingBasicBlockFailsBeforeAnyRequest(t *testing.T) {
	var requests int32
	sender := httptransport.SenderFunc(func(ctx context.Context, req *httptransport.Request) (*httptransport.Response, error) {
		atomic.AddInt32(&requests, 1)
		return &httptransport.Response{StatusCode: 200}, nil
	})

	m := &mockT{}
	engine := New(m, WithHTTPSender(sender))
	runStopped(m, func() {
		engine.Given().
			APIResource("/secure").
			Get().
			WithAuth(&auth.HTTPAuthConfig{Type: auth.HTTPAuthBasic}).
			When()
	})

	assert.True(t, m.stopped)
	require.NotEmpty(t, m.failures)
	assert.Contains(t, m.failures[0], "Basic")
	assert.Equal(t, int32(0), atomic.LoadInt32(&requests), "no request may be sent after a configuration error")

	var confErr *auth.ConfigurationError
	assert.True(t, errors.As(engine.Err(), &confErr))
}

func TestHTTPStepTimeoutIsCapturedInResult(t *testing.T) {
	sender := httptransport.SenderFunc(func(ctx context.Context, req *httptransport.Request) (*httptransport.Response, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	})

	engine := New(t, WithHTTPSender(sender))
	outcome := engine.Given().
		APIResource("/slow").
		Get().
		WithTimeout(30 * time.Millisecond).
		When()

	result := outcome.Result()
	assert.False(t, result.Success)
	var timeoutErr *TimeoutError
	require.True(t, errors.As(result.Err(), &timeoutErr))
	assert.Equal(t, 30*time.Millisecond, timeoutErr.Limit)
}

func TestHTTPErrorStatusIsFailureOutcomeNotException(t *testing.T) {
	engine := New(t, WithHTTPSender(staticSender(503, `{"error":"unavailable"}`)))
	outcome := engine.Given().APIResource("/flaky").Get().When()

	result := outcome.Result()
	assert.False(t, result.Success)
	assert.Equal(t, 503, result.StatusCode)
	outcome.Then().Status(503).JSONPathString("$.error", "unavailable")
}

func TestProduceStepPersistedIsSuccess(t *testing.T) {
	b := newScriptedBroker()
	engine := New(t, WithBroker(b, broker.ClientConfig{BootstrapServers: "broker-1:9092"}))

	outcome := engine.Given().
		Topic("orders").
		Produce("order-1", `{"id":1}`).
		WithPartition(2).
		WithAcks(step.AcksAll).
		When()

	result := outcome.Result()
	assert.True(t, result.Success)
	require.NotNil(t, result.Delivery)
	assert.Equal(t, broker.Persisted, result.Delivery.Status)
	assert.Equal(t, 2, result.Delivery.Partition)

	require.Len(t, b.produced, 1)
	assert.Equal(t, "orders", b.produced[0].Topic)
	assert.Equal(t, "order-1", b.produced[0].Key)

	outcome.Then().Delivered().Partition(2)
}

func TestProduceStepNotPersistedIsFailureWithoutException(t *testing.T) {
	b := newScriptedBroker()
	b.deliveryStatus = broker.NotPersisted

	engine := New(t, WithBroker(b, broker.ClientConfig{}))
	outcome := engine.Given().Topic("orders").Produce("order-1", "v").When()

	// The broker accepted the message, so there is no transport error,
	// but the step still fails because the message was not persisted.
	result := outcome.Result()
	assert.False(t, result.Success)
	var deliveryErr *broker.DeliveryError
	require.True(t, errors.As(result.Err(), &deliveryErr))
	assert.Equal(t, broker.NotPersisted, deliveryErr.Status)
}

func TestProduceStepAppliesSASLAndSSLToClientConfig(t *testing.T) {
	b := newScriptedBroker()
	engine := New(t, WithBroker(b, broker.ClientConfig{BootstrapServers: "broker-1:9092"}))

	engine.Given().
		Topic("orders").
		Produce("k", "v").
		WithAuth(&auth.MessagingAuthConfig{
			Type: auth.MessagingAuthSASLScram256,
			SASL: &auth.SASLCredentials{Username: "svc", Password: "pw"},
			SSL:  &auth.SSLConfig{CAFile: "ca.pem"},
		}).
		When()

	assert.Equal(t, "SCRAM-SHA-256", b.producerConfig.SASL.Mechanism)
	assert.Equal(t, "svc", b.producerConfig.SASL.Username)
	assert.True(t, b.producerConfig.TLS.Enabled)
	assert.Equal(t, "ca.pem", b.producerConfig.TLS.CAFile)
	// The engine's own base configuration is untouched.
	assert.Equal(t, "broker-1:9092", b.producerConfig.BootstrapServers)
}

func TestProduceTuningReachesProducerCreation(t *testing.T) {
	b := newScriptedBroker()
	engine := New(t, WithBroker(b, broker.ClientConfig{BootstrapServers: "broker-1:9092"}))

	engine.Given().
		Topic("orders").
		Produce("k", "v").
		WithCompression(step.CompressionGzip).
		WithAcks(step.AcksAll).
		WithBatchSize(32768).
		WithLinger(5).
		WithRetries(3).
		WithIdempotence(true).
		When()

	tuning := b.producerConfig.Tuning
	assert.Equal(t, "gzip", tuning.Compression)
	assert.Equal(t, "all", tuning.Acks)
	assert.Equal(t, 32768, tuning.BatchSize.OrElse(-1))
	assert.Equal(t, 5, tuning.LingerMS.OrElse(-1))
	assert.Equal(t, 3, tuning.Retries.OrElse(-1))
	assert.True(t, tuning.Idempotent)
	assert.Equal(t, "broker-1:9092", b.producerConfig.BootstrapServers)
}

func TestBatchProduceTuningReachesProducerCreation(t *testing.T) {
	b := newScriptedBroker()
	engine := New(t, WithBroker(b, broker.ClientConfig{}))

	engine.Given().
		Topic("orders").
		ProduceBatch(step.BatchMessage{Key: "k", Value: "v"}).
		WithCompression(step.CompressionZstd).
		WithAcks(step.AcksNone).
		When()

	assert.Equal(t, "zstd", b.producerConfig.Tuning.Compression)
	assert.Equal(t, "none", b.producerConfig.Tuning.Acks)
}

func TestProduceAfterEngineCloseFailsWithClosedProducer(t *testing.T) {
	b := newScriptedBroker()
	engine := New(t, WithBroker(b, broker.ClientConfig{}))
	engine.Given().Topic("orders").Produce("k1", "v1").When()
	require.NoError(t, engine.Close())

	late := engine.Fork()
	outcome := late.Given().Topic("orders").Produce("k2", "v2").When()

	result := outcome.Result()
	assert.False(t, result.Success)
	require.ErrorIs(t, result.Err(), broker.ErrProducerClosed)
}

func TestConsumeExpectedTypeMismatchFailsStep(t *testing.T) {
	b := newScriptedBroker()
	b.consumeValues = []string{`{"id":1}`}
	b.consumeType = "OrderCancelled"

	engine := New(t, WithBroker(b, broker.ClientConfig{}))
	outcome := engine.Given().
		Topic("orders").
		Consume("group-1").
		WithExpectedType("OrderCreated").
		When()

	result := outcome.Result()
	assert.False(t, result.Success)
	require.Error(t, result.Err())
	assert.Contains(t, result.Err().Error(), "OrderCancelled")
	assert.Contains(t, result.Err().Error(), "OrderCreated")
}

func TestConsumeExpectedTypeMatchSucceeds(t *testing.T) {
	b := newScriptedBroker()
	b.consumeValues = []string{`{"id":1}`}
	b.consumeType = "OrderCreated"

	engine := New(t, WithBroker(b, broker.ClientConfig{}))
	outcome := engine.Given().
		Topic("orders").
		Consume("group-1").
		WithExpectedType("OrderCreated").
		When()

	assert.True(t, outcome.Result().Success)
}

func TestMultiValuedResponseHeadersAreCarried(t *testing.T) {
	sender := httptransport.SenderFunc(func(ctx context.Context, req *httptransport.Request) (*httptransport.Response, error) {
		return &httptransport.Response{
			StatusCode: 200,
			Header:     http.Header{"X-Trace": {"one", "two"}},
			Body:       "{}",
		}, nil
	})

	engine := New(t, WithHTTPSender(sender))
	outcome := engine.Given().APIResource("/traced").Get().When()

	assert.Equal(t, "one, two", outcome.Result().Header("X-Trace"))
}

func TestConsumeStepUsesFreshConsumerAndClosesIt(t *testing.T) {
	b := newScriptedBroker()
	b.consumeValues = []string{`{"id":1}`, `{"id":2}`}

	engine := New(t, WithBroker(b, broker.ClientConfig{}))
	outcome := engine.Given().Topic("orders").Consume("group-1").When()
	outcome.Then().Success().ConsumedValue(`{"id":1}`).JSONPathInt("$.id", 1)

	second := engine.Fork()
	second.Given().Topic("orders").Consume("group-1").When()

	assert.Equal(t, int32(2), atomic.LoadInt32(&b.consumerCreations), "each consume gets a fresh consumer")
	assert.Equal(t, int32(2), atomic.LoadInt32(&b.consumersClosed), "each consumer is closed after its step")
}

func TestConsumeStepTimesOutWhenNoMessageArrives(t *testing.T) {
	b := newScriptedBroker()

	engine := New(t, WithBroker(b, broker.ClientConfig{}))
	outcome := engine.Given().
		Topic("orders").
		Consume("group-1").
		WithTimeout(30 * time.Millisecond).
		When()

	result := outcome.Result()
	assert.False(t, result.Success)
	var timeoutErr *TimeoutError
	assert.True(t, errors.As(result.Err(), &timeoutErr))
}

func TestBatchProduceSharesOneProducerAndCollectsPerMessageResults(t *testing.T) {
	b := newScriptedBroker()
	engine := New(t, WithBroker(b, broker.ClientConfig{}))

	outcome := engine.Given().
		Topic("orders").
		ProduceBatch(
			step.BatchMessage{Key: "k1", Value: "v1"},
			step.BatchMessage{Key: "k2", Value: "v2"},
			step.BatchMessage{Key: "k3", Value: "v3"},
		).
		When()

	results := outcome.Results()
	require.Len(t, results, 3)
	for i, r := range results {
		assert.True(t, r.Success, "result %d", i)
	}
	assert.Equal(t, int32(1), atomic.LoadInt32(&b.producerCreations), "batch must reuse one shared producer")
	require.Len(t, b.produced, 3)
	assert.Equal(t, "k2", b.produced[1].Key)

	outcome.ThenAt(2).Delivered().Offset(2)
}

func TestBatchConsumeDrainsRequestedCount(t *testing.T) {
	b := newScriptedBroker()
	b.consumeValues = []string{"v1", "v2"}

	engine := New(t, WithBroker(b, broker.ClientConfig{}))
	outcome := engine.Given().
		Topic("orders").
		ConsumeBatch("group-1", 3).
		WithTimeout(30 * time.Millisecond).
		When()

	results := outcome.Results()
	require.Len(t, results, 3)
	assert.True(t, results[0].Success)
	assert.True(t, results[1].Success)
	assert.False(t, results[2].Success, "third consume times out")
	assert.Equal(t, int32(1), atomic.LoadInt32(&b.consumerCreations), "one consumer drains the whole batch")
}

func TestSharedProducerIsReusedAcrossForkedScenarios(t *testing.T) {
	b := newScriptedBroker()
	engine := New(t, WithBroker(b, broker.ClientConfig{}))

	engine.Given().Topic("orders").Produce("k1", "v1").When()
	engine.Fork().Given().Topic("orders").Produce("k2", "v2").When()

	assert.Equal(t, int32(1), atomic.LoadInt32(&b.producerCreations))
	require.NoError(t, engine.Close())
	require.NoError(t, engine.Close())
}

func TestIncompatibleStepAccessFailsFast(t *testing.T) {
	m := &mockT{}
	engine := New(m, WithBroker(newScriptedBroker(), broker.ClientConfig{}), WithHTTPSender(staticSender(200, "{}")))

	produce := engine.Given().Topic("orders").Produce("k", "v")
	engine.Given().APIResource("/things").Get()

	// The produce builder's step is no longer the scenario's current step,
	// and the current step is of a different variant.
	runStopped(m, func() {
		produce.Step()
	})

	assert.True(t, m.stopped)
	var incompatible *IncompatibleStepError
	require.True(t, errors.As(engine.Err(), &incompatible))
	assert.Equal(t, step.KindHTTP, incompatible.Have)
	assert.Equal(t, step.KindProduce, incompatible.Want)
}

func TestStaleBuilderIsRejectedAfterNewStepAttached(t *testing.T) {
	m := &mockT{}
	engine := New(m, WithHTTPSender(staticSender(200, "{}")))

	first := engine.Given().APIResource("/one").Get()
	engine.Given().APIResource("/two").Get()

	runStopped(m, func() {
		first.WithHeader("Accept", "application/json")
	})
	assert.True(t, m.stopped)
	require.Error(t, engine.Err())
	assert.Contains(t, engine.Err().Error(), "stale")
}

func TestOperationWithoutTopicFailsFast(t *testing.T) {
	m := &mockT{}
	engine := New(m, WithBroker(newScriptedBroker(), broker.ClientConfig{}))

	runStopped(m, func() {
		engine.Given().Topic("").Produce("k", "v")
	})
	assert.True(t, m.stopped)
	require.NotEmpty(t, m.failures)
	assert.Contains(t, m.failures[0], "topic")
}

func TestGivenOnCompletedEngineIsRejected(t *testing.T) {
	m := &mockT{}
	engine := New(m, WithHTTPSender(staticSender(200, "{}")))
	engine.Given().APIResource("/one").Get().When()

	runStopped(m, func() {
		engine.Given()
	})
	assert.True(t, m.stopped)
	var usageErr *UsageError
	assert.True(t, errors.As(engine.Err(), &usageErr))
}

func TestPoisonedScenarioWithoutTestingTYieldsFailedResult(t *testing.T) {
	engine := New(nil, WithHTTPSender(staticSender(200, "{}")))

	outcome := engine.Given().
		APIResource("/secure").
		Get().
		WithAuth(&auth.HTTPAuthConfig{Type: auth.HTTPAuthBasic}).
		When()

	result := outcome.Result()
	assert.False(t, result.Success)
	var confErr *auth.ConfigurationError
	assert.True(t, errors.As(result.Err(), &confErr))
}

func TestContextCarriesStateBetweenDSLCalls(t *testing.T) {
	engine := New(t, WithHTTPSender(staticSender(200, "{}")))
	engine.Context().Set("orderId", 42)

	forked := engine.Fork()
	id, ok := forked.Context().GetInt("orderId")
	require.True(t, ok)
	assert.Equal(t, 42, id)

	_, ok = forked.Context().Get("missing")
	assert.False(t, ok)
}

func TestRecordsDescribeExecutedSteps(t *testing.T) {
	b := newScriptedBroker()
	engine := New(t, WithHTTPSender(staticSender(200, "{}")), WithBroker(b, broker.ClientConfig{}))
	engine.Given().APIResource("/products/1").Get().When()

	records := engine.Records()
	require.Len(t, records, 1)
	assert.Equal(t, step.KindHTTP, records[0].Kind)
	assert.Equal(t, "GET /products/1", records[0].Description)
	assert.True(t, records[0].OK())
}

func TestDebugOutputCapturesStepActivity(t *testing.T) {
	engine := New(t, WithHTTPSender(staticSender(200, "{}")))
	engine.Given().APIResource("/products/1").Get().When()

	output := engine.DebugOutput()
	require.NotEmpty(t, output)
}
