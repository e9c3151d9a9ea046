// Package broker defines the message-broker surface the DSL consumes. The
// DSL never speaks a broker wire protocol itself; callers supply a Client
// implementation (typically a thin wrapper over their broker library) and
// the scenario engine drives it through these interfaces.
package broker

import (
	"context"
	"time"

	"gopkg.in/launchdarkly/go-sdk-common.v2/ldvalue"
)

// PersistenceStatus is the broker's acknowledgment of what happened to a
// produced message. Only Persisted counts as a successful delivery; a
// message that was merely accepted may still be lost.
type PersistenceStatus int

const (
	NotPersisted PersistenceStatus = iota
	PossiblyPersisted
	Persisted
)

func (s PersistenceStatus) String() string {
	switch s {
	case NotPersisted:
		return "NotPersisted"
	case PossiblyPersisted:
		return "PossiblyPersisted"
	case Persisted:
		return "Persisted"
	default:
		return "Unknown"
	}
}

// Message is one record flowing to or from the broker. Type names the
// payload type when the client can determine it (for instance from a
// serializer registry or a type header); consume steps may check it.
type Message struct {
	Topic     string
	Key       string
	Value     string
	Type      string
	Headers   map[string]string
	Partition ldvalue.OptionalInt
	Timestamp *time.Time
}

// DeliveryResult is the broker's report for one produced message.
type DeliveryResult struct {
	Topic     string
	Partition int
	Offset    int64
	Status    PersistenceStatus
	Timestamp time.Time
}

// DeliveryError indicates that the broker acknowledged a produce request
// without durably storing the message.
type DeliveryError struct {
	Topic  string
	Status PersistenceStatus
}

func (e *DeliveryError) Error() string {
	return "message to topic \"" + e.Topic + "\" was not persisted by the broker (status " + e.Status.String() + ")"
}

// SASLConfig carries SASL credentials for a broker connection.
type SASLConfig struct {
	Mechanism string
	Username  string
	Password  string
}

// TLSConfig carries transport-security settings for a broker connection.
type TLSConfig struct {
	Enabled    bool
	CAFile     string
	CertFile   string
	KeyFile    string
	SkipVerify bool
}

// ProducerTuning carries the producer settings a produce step may
// override. Compression and Acks hold codec and acknowledgment names in
// the broker's own vocabulary ("gzip", "all"); optional integers are
// undefined until set, so zero is distinguishable from unset. Clients map
// these onto their broker library's producer options.
type ProducerTuning struct {
	Compression string
	Acks        string
	BatchSize   ldvalue.OptionalInt
	LingerMS    ldvalue.OptionalInt
	Retries     ldvalue.OptionalInt
	Idempotent  bool
}

// ClientConfig is the mutable connection configuration that authentication
// strategies and step tuning write into before a producer or consumer is
// created. It is a plain comparable value so tests can check configs
// with ==.
type ClientConfig struct {
	BootstrapServers string
	SASL             SASLConfig
	TLS              TLSConfig
	Tuning           ProducerTuning
}

// Producer sends messages. Implementations must be safe for concurrent use
// by parallel scenarios; the engine shares one producer per configuration.
type Producer interface {
	Produce(ctx context.Context, msg Message) (DeliveryResult, error)
}

// Consumer reads messages from a topic. Consumers carry subscription and
// offset state, so the engine creates a fresh one for every consume step
// and closes it afterwards.
type Consumer interface {
	Consume(ctx context.Context, topic string) (Message, error)
	Close() error
}

// Client creates producers and consumers from a resolved configuration.
type Client interface {
	NewProducer(cfg ClientConfig) (Producer, error)
	NewConsumer(cfg ClientConfig, groupID string) (Consumer, error)
}
