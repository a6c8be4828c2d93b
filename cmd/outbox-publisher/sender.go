package main

import (
	"context"
	"fmt"
	"sync"

	gcppubsub "cloud.google.com/go/pubsub/v2"

	"github.com/brewbar/bubbletea-backend/pkg/outbox/registry"
)

type publisherSource interface {
	Publisher(name string) *gcppubsub.Publisher
}

// pubsubSender keeps one ordered publisher per topic.
type pubsubSender struct {
	source publisherSource

	mu         sync.Mutex
	publishers map[string]*gcppubsub.Publisher
}

func newPubSubSender(source publisherSource) *pubsubSender {
	return &pubsubSender{source: source, publishers: make(map[string]*gcppubsub.Publisher)}
}

func (s *pubsubSender) publisher(topic string) *gcppubsub.Publisher {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p, ok := s.publishers[topic]; ok {
		return p
	}
	p := s.source.Publisher(topic)
	if p == nil {
		return nil
	}
	p.EnableMessageOrdering = true
	s.publishers[topic] = p
	return p
}

func (s *pubsubSender) Send(ctx context.Context, topic string, msg *gcppubsub.Message) error {
	p := s.publisher(topic)
	if p == nil {
		return registry.NewNonRetryableError(fmt.Errorf("publisher not configured for topic %s", topic))
	}
	if _, err := p.Publish(ctx, msg).Get(ctx); err != nil {
		// A failed ordered publish pauses its key until resumed.
		if msg.OrderingKey != "" {
			p.ResumePublish(msg.OrderingKey)
		}
		return err
	}
	return nil
}

// Stop flushes and stops every publisher.
func (s *pubsubSender) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for topic, p := range s.publishers {
		p.Stop()
		delete(s.publishers, topic)
	}
}
