package events

import (
	"context"
	"encoding/json"
	"sync"

	"go.uber.org/zap"

	"github.com/AminArria/sponsorly/pkg/logger"
)

// Publisher delivers domain events. Publish never fails the caller;
// delivery problems are logged.
type Publisher interface {
	Publish(ctx context.Context, event Event)
}

// Producer is the subset of *kafka.Producer the publisher needs
type Producer interface {
	Produce(ctx context.Context, topic, key string, value []byte, headers map[string]string) error
}

// KafkaPublisher publishes JSON-encoded events
type KafkaPublisher struct {
	producer Producer
	log      *logger.Logger
}

// NewKafkaPublisher creates a publisher backed by producer
func NewKafkaPublisher(producer Producer) *KafkaPublisher {
	return &KafkaPublisher{
		producer: producer,
		log:      logger.Get().Named("events"),
	}
}

// Publish implements Publisher
func (p *KafkaPublisher) Publish(ctx context.Context, event Event) {
	payload, err := json.Marshal(event)
	if err != nil {
		p.log.ErrorContext(ctx, "failed to encode event",
			zap.String("topic", event.Topic()),
			zap.Error(err),
		)
		return
	}

	headers := map[string]string{
		"event_type":   event.Topic(),
		"content_type": "application/json",
	}
	if err := p.producer.Produce(ctx, event.Topic(), event.Key(), payload, headers); err != nil {
		p.log.WarnContext(ctx, "failed to publish event",
			zap.String("topic", event.Topic()),
			zap.String("key", event.Key()),
			zap.Error(err),
		)
	}
}

// MemoryPublisher keeps events in memory
type MemoryPublisher struct {
	mu     sync.Mutex
	events []Event
}

// NewMemoryPublisher creates an empty MemoryPublisher
func NewMemoryPublisher() *MemoryPublisher {
	return &MemoryPublisher{}
}

// Publish implements Publisher
func (p *MemoryPublisher) Publish(_ context.Context, event Event) {
	p.mu.Lock()
	p.events = append(p.events, event)
	p.mu.Unlock()
}

// Events returns a copy of everything published so far
func (p *MemoryPublisher) Events() []Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]Event, len(p.events))
	copy(out, p.events)
	return out
}

// ByTopic returns published events for topic
func (p *MemoryPublisher) ByTopic(topic string) []Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []Event
	for _, e := range p.events {
		if e.Topic() == topic {
			out = append(out, e)
		}
	}
	return out
}

// Noop discards events
type Noop struct{}

// Publish implements Publisher
func (Noop) Publish(context.Context, Event) {}

var (
	_ Publisher = (*KafkaPublisher)(nil)
	_ Publisher = (*MemoryPublisher)(nil)
	_ Publisher = Noop{}
)
