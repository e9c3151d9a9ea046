package step

import (
	"time"

	"github.com/andrewBezerra/assured-go/auth"
)

// ConsumeStep describes consuming one message from a topic with a fresh,
// independently configured consumer.
type ConsumeStep struct {
	Topic        string
	GroupID      string
	Timeout      time.Duration
	Auth         *auth.MessagingAuthConfig
	ExpectedType string
}

func (ConsumeStep) Kind() Kind { return KindConsume }
func (ConsumeStep) spec()      {}

func (s ConsumeStep) clone() ConsumeStep {
	return s
}

func (s ConsumeStep) WithGroupID(groupID string) ConsumeStep {
	out := s.clone()
	out.GroupID = groupID
	return out
}

func (s ConsumeStep) WithTimeout(d time.Duration) ConsumeStep {
	out := s.clone()
	out.Timeout = d
	return out
}

func (s ConsumeStep) WithAuth(cfg *auth.MessagingAuthConfig) ConsumeStep {
	out := s.clone()
	out.Auth = cfg
	return out
}

// WithExpectedType records the payload type name the consumer expects.
// A consumed message that reports a different type fails the step.
func (s ConsumeStep) WithExpectedType(typeName string) ConsumeStep {
	out := s.clone()
	out.ExpectedType = typeName
	return out
}
