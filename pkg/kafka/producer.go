package kafka

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/twmb/franz-go/pkg/kgo"
	"go.uber.org/zap"

	"github.com/AminArria/sponsorly/pkg/logger"
)

// ProducerConfig holds producer settings
type ProducerConfig struct {
	Brokers        []string
	ClientID       string
	TopicPrefix    string
	ProduceTimeout time.Duration
	MaxRetries     int
	Linger         time.Duration
}

// DefaultProducerConfig returns default producer configuration
func DefaultProducerConfig() *ProducerConfig {
	return &ProducerConfig{
		Brokers:        []string{"localhost:9092"},
		ClientID:       "sponsorly",
		ProduceTimeout: 5 * time.Second,
		MaxRetries:     3,
		Linger:         5 * time.Millisecond,
	}
}

// Producer publishes records with franz-go
type Producer struct {
	client *kgo.Client
	cfg    *ProducerConfig
}

// NewProducer creates a producer and pings the cluster
func NewProducer(ctx context.Context, cfg *ProducerConfig) (*Producer, error) {
	if cfg == nil {
		cfg = DefaultProducerConfig()
	}
	if len(cfg.Brokers) == 0 {
		return nil, errors.New("kafka: at least one broker is required")
	}

	client, err := kgo.NewClient(
		kgo.SeedBrokers(cfg.Brokers...),
		kgo.ClientID(cfg.ClientID),
		kgo.RequiredAcks(kgo.AllISRAcks()),
		kgo.RecordRetries(cfg.MaxRetries),
		kgo.ProducerLinger(cfg.Linger),
		kgo.AllowAutoTopicCreation(),
	)
	if err != nil {
		return nil, fmt.Errorf("create kafka client: %w", err)
	}

	if err := client.Ping(ctx); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping kafka brokers %v: %w", cfg.Brokers, err)
	}

	logger.Info("Connected to Kafka", zap.Strings("brokers", cfg.Brokers))
	return &Producer{client: client, cfg: cfg}, nil
}

// Topic applies the configured prefix
func (p *Producer) Topic(name string) string {
	return p.cfg.TopicPrefix + name
}

// Produce synchronously writes one record
func (p *Producer) Produce(ctx context.Context, topic, key string, value []byte, headers map[string]string) error {
	if p.cfg.ProduceTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.cfg.ProduceTimeout)
		defer cancel()
	}

	record := NewRecord(p.Topic(topic), key, value, headers)
	if err := p.client.ProduceSync(ctx, record).FirstErr(); err != nil {
		return fmt.Errorf("produce to %s: %w", record.Topic, err)
	}
	return nil
}

// Close flushes buffered records and closes the client
func (p *Producer) Close(ctx context.Context) {
	if err := p.client.Flush(ctx); err != nil {
		logger.Warn("kafka flush failed", zap.Error(err))
	}
	p.client.Close()
}

// NewRecord builds a record with headers in a stable order
func NewRecord(topic, key string, value []byte, headers map[string]string) *kgo.Record {
	record := &kgo.Record{
		Topic: topic,
		Value: value,
	}
	if key != "" {
		record.Key = []byte(key)
	}
	for _, name := range sortedKeys(headers) {
		record.Headers = append(record.Headers, kgo.RecordHeader{
			Key:   name,
			Value: []byte(headers[name]),
		})
	}
	return record
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
