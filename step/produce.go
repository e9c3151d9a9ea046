package step

import (
	"fmt"
	"time"

	"github.com/andrewBezerra/assured-go/auth"
	"github.com/andrewBezerra/assured-go/broker"

	"gopkg.in/launchdarkly/go-sdk-common.v2/ldvalue"
)

// Compression selects the producer compression codec.
type Compression int

const (
	CompressionNone Compression = iota
	CompressionGzip
	CompressionSnappy
	CompressionLZ4
	CompressionZstd
)

func (c Compression) String() string {
	switch c {
	case CompressionNone:
		return "none"
	case CompressionGzip:
		return "gzip"
	case CompressionSnappy:
		return "snappy"
	case CompressionLZ4:
		return "lz4"
	case CompressionZstd:
		return "zstd"
	default:
		return fmt.Sprintf("Compression(%d)", int(c))
	}
}

// AckMode selects how many broker acknowledgments a produce waits for.
type AckMode int

const (
	AcksLeader AckMode = iota
	AcksNone
	AcksAll
)

func (a AckMode) String() string {
	switch a {
	case AcksLeader:
		return "leader"
	case AcksNone:
		return "none"
	case AcksAll:
		return "all"
	default:
		return fmt.Sprintf("AckMode(%d)", int(a))
	}
}

// ProducerTuning carries the producer settings a step may override.
// Optional integers are undefined until set, so zero is distinguishable
// from unset.
type ProducerTuning struct {
	Compression Compression
	Acks        AckMode
	BatchSize   ldvalue.OptionalInt
	LingerMS    ldvalue.OptionalInt
	Retries     ldvalue.OptionalInt
	Idempotent  bool
}

// ClientTuning maps the step's tuning onto the broker configuration the
// producer is created from.
func (t ProducerTuning) ClientTuning() broker.ProducerTuning {
	return broker.ProducerTuning{
		Compression: t.Compression.String(),
		Acks:        t.Acks.String(),
		BatchSize:   t.BatchSize,
		LingerMS:    t.LingerMS,
		Retries:     t.Retries,
		Idempotent:  t.Idempotent,
	}
}

// ProduceStep describes producing one message to a topic.
type ProduceStep struct {
	Topic     string
	Key       string
	Value     string
	Headers   map[string]string
	Partition ldvalue.OptionalInt
	Timestamp *time.Time
	Timeout   time.Duration
	Auth      *auth.MessagingAuthConfig
	Tuning    ProducerTuning
}

func (ProduceStep) Kind() Kind { return KindProduce }
func (ProduceStep) spec()      {}

func (s ProduceStep) clone() ProduceStep {
	out := s
	out.Headers = copyStringMap(s.Headers)
	if s.Timestamp != nil {
		ts := *s.Timestamp
		out.Timestamp = &ts
	}
	return out
}

func (s ProduceStep) WithHeader(name, value string) ProduceStep {
	out := s.clone()
	out.Headers = withEntry(out.Headers, name, value)
	return out
}

func (s ProduceStep) WithPartition(partition int) ProduceStep {
	out := s.clone()
	out.Partition = ldvalue.NewOptionalInt(partition)
	return out
}

func (s ProduceStep) WithTimestamp(ts time.Time) ProduceStep {
	out := s.clone()
	out.Timestamp = &ts
	return out
}

func (s ProduceStep) WithTimeout(d time.Duration) ProduceStep {
	out := s.clone()
	out.Timeout = d
	return out
}

func (s ProduceStep) WithAuth(cfg *auth.MessagingAuthConfig) ProduceStep {
	out := s.clone()
	out.Auth = cfg
	return out
}

func (s ProduceStep) WithCompression(c Compression) ProduceStep {
	out := s.clone()
	out.Tuning.Compression = c
	return out
}

func (s ProduceStep) WithAcks(a AckMode) ProduceStep {
	out := s.clone()
	out.Tuning.Acks = a
	return out
}

func (s ProduceStep) WithBatchSize(bytes int) ProduceStep {
	out := s.clone()
	out.Tuning.BatchSize = ldvalue.NewOptionalInt(bytes)
	return out
}

func (s ProduceStep) WithLinger(ms int) ProduceStep {
	out := s.clone()
	out.Tuning.LingerMS = ldvalue.NewOptionalInt(ms)
	return out
}

func (s ProduceStep) WithRetries(n int) ProduceStep {
	out := s.clone()
	out.Tuning.Retries = ldvalue.NewOptionalInt(n)
	return out
}

func (s ProduceStep) WithIdempotence(enabled bool) ProduceStep {
	out := s.clone()
	out.Tuning.Idempotent = enabled
	return out
}
