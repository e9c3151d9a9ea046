package step

import (
	"time"

	"github.com/andrewBezerra/assured-go/auth"
)

// BatchMessage is one key/value pair in a batch produce.
type BatchMessage struct {
	Key   string
	Value string
}

// BatchProduceStep describes producing several messages to one topic
// through a single shared producer, collecting one result per message.
type BatchProduceStep struct {
	Topic    string
	Messages []BatchMessage
	Headers  map[string]string
	Timeout  time.Duration
	Auth     *auth.MessagingAuthConfig
	Tuning   ProducerTuning
}

func (BatchProduceStep) Kind() Kind { return KindBatchProduce }
func (BatchProduceStep) spec()      {}

func (s BatchProduceStep) clone() BatchProduceStep {
	out := s
	out.Messages = append([]BatchMessage(nil), s.Messages...)
	out.Headers = copyStringMap(s.Headers)
	return out
}

func (s BatchProduceStep) WithHeader(name, value string) BatchProduceStep {
	out := s.clone()
	out.Headers = withEntry(out.Headers, name, value)
	return out
}

func (s BatchProduceStep) WithTimeout(d time.Duration) BatchProduceStep {
	out := s.clone()
	out.Timeout = d
	return out
}

func (s BatchProduceStep) WithAuth(cfg *auth.MessagingAuthConfig) BatchProduceStep {
	out := s.clone()
	out.Auth = cfg
	return out
}

func (s BatchProduceStep) WithCompression(c Compression) BatchProduceStep {
	out := s.clone()
	out.Tuning.Compression = c
	return out
}

func (s BatchProduceStep) WithAcks(a AckMode) BatchProduceStep {
	out := s.clone()
	out.Tuning.Acks = a
	return out
}

func (s BatchProduceStep) WithIdempotence(enabled bool) BatchProduceStep {
	out := s.clone()
	out.Tuning.Idempotent = enabled
	return out
}

// BatchConsumeStep describes draining up to Count messages from a topic
// with one fresh consumer, collecting one result per message.
type BatchConsumeStep struct {
	Topic   string
	GroupID string
	Count   int
	Timeout time.Duration
	Auth    *auth.MessagingAuthConfig
}

func (BatchConsumeStep) Kind() Kind { return KindBatchConsume }
func (BatchConsumeStep) spec()      {}

func (s BatchConsumeStep) clone() BatchConsumeStep {
	return s
}

func (s BatchConsumeStep) WithTimeout(d time.Duration) BatchConsumeStep {
	out := s.clone()
	out.Timeout = d
	return out
}

func (s BatchConsumeStep) WithAuth(cfg *auth.MessagingAuthConfig) BatchConsumeStep {
	out := s.clone()
	out.Auth = cfg
	return out
}
