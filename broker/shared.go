package broker

import (
	"errors"
	"sync"
)

// ErrProducerClosed is returned by Get after the shared producer has been
// closed, typically when a parallel scenario races fixture teardown.
var ErrProducerClosed = errors.New("shared producer is closed")

// ProducerFactory creates a producer for a resolved configuration.
type ProducerFactory func(cfg ClientConfig) (Producer, error)

// SharedProducer wraps a lazily-created producer that many scenarios can
// share within one test run. The underlying producer is created at most
// once, on first Get, even under concurrent first access; the
// configuration passed to the first successful Get wins. Close is
// idempotent and is a no-op if the producer was never created; any Get
// after Close fails with ErrProducerClosed.
type SharedProducer struct {
	factory   ProducerFactory
	lock      sync.Mutex
	producer  Producer
	created   bool
	closed    bool
	closeOnce sync.Once
	closeErr  error
}

func NewSharedProducer(factory ProducerFactory) *SharedProducer {
	return &SharedProducer{factory: factory}
}

// Get returns the shared producer, creating it on first use. A failed
// creation is not cached; the next Get retries.
func (s *SharedProducer) Get(cfg ClientConfig) (Producer, error) {
	s.lock.Lock()
	defer s.lock.Unlock()
	if s.closed {
		return nil, ErrProducerClosed
	}
	if s.created {
		return s.producer, nil
	}
	p, err := s.factory(cfg)
	if err != nil {
		return nil, err
	}
	s.producer = p
	s.created = true
	return p, nil
}

// Close releases the underlying producer if it was ever created and if it
// implements Close. Safe to call multiple times and from fixture teardown
// paths that cannot know whether any produce step ran.
func (s *SharedProducer) Close() error {
	s.closeOnce.Do(func() {
		s.lock.Lock()
		p := s.producer
		s.producer = nil
		s.closed = true
		s.lock.Unlock()
		if closer, ok := p.(interface{ Close() error }); ok {
			s.closeErr = closer.Close()
		}
	})
	return s.closeErr
}
