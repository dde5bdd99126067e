package events

import (
	"context"
	"fmt"
	"sync"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/skillsenselab/speakerline/logger"
)

// KafkaConfig holds the sentence event topic configuration.
type KafkaConfig struct {
	// Enabled controls whether events are mirrored to Kafka.
	Enabled bool `mapstructure:"enabled"`

	// Brokers is the list of bootstrap broker addresses.
	Brokers []string `mapstructure:"brokers"`

	// Topic is the sentence event topic.
	Topic string `mapstructure:"topic"`

	// BatchTimeout bounds how long messages wait for a batch (e.g. "50ms").
	BatchTimeout string `mapstructure:"batch_timeout"`

	// WriteTimeout bounds one produce call (e.g. "3s").
	WriteTimeout string `mapstructure:"write_timeout"`
}

// ApplyDefaults sets sensible defaults for zero-valued fields.
func (c *KafkaConfig) ApplyDefaults() {
	if c.Topic == "" {
		c.Topic = "speakerline.sentences"
	}
	if c.BatchTimeout == "" {
		c.BatchTimeout = "50ms"
	}
	if c.WriteTimeout == "" {
		c.WriteTimeout = "3s"
	}
}

// Validate checks that required fields are present.
func (c *KafkaConfig) Validate() error {
	if !c.Enabled {
		return nil
	}
	if len(c.Brokers) == 0 {
		return fmt.Errorf("kafka brokers are required")
	}
	return nil
}

// KafkaSink publishes sentence events to a Kafka topic, keyed by
// stream id so each stream's events stay ordered within a partition.
type KafkaSink struct {
	writer *kafkago.Writer
	cfg    KafkaConfig
	log    *logger.Logger
	mu     sync.Mutex
	closed bool
}

// NewKafkaSink creates a sink from config.
func NewKafkaSink(cfg KafkaConfig, log *logger.Logger) (*KafkaSink, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("kafka sink config: %w", err)
	}
	if !cfg.Enabled {
		return nil, fmt.Errorf("kafka sink is disabled")
	}

	batchTimeout, _ := time.ParseDuration(cfg.BatchTimeout)
	writeTimeout, _ := time.ParseDuration(cfg.WriteTimeout)

	s := &KafkaSink{cfg: cfg, log: log.WithComponent("events.kafka")}
	s.writer = &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafkago.Hash{},
		BatchTimeout: batchTimeout,
		WriteTimeout: writeTimeout,
		// The sink sits on the assembly worker's emit path. Async keeps
		// a degraded broker from stalling sentence emission; delivery
		// failures surface through ErrorLogger.
		Async: true,
		ErrorLogger: kafkago.LoggerFunc(func(msg string, args ...interface{}) {
			s.log.Error("writer: " + fmt.Sprintf(msg, args...))
		}),
	}

	s.log.Info("Kafka sink initialized", logger.Fields(
		"brokers", cfg.Brokers,
		"topic", cfg.Topic,
	))
	return s, nil
}

// Publish enqueues one serialized event. Delivery is asynchronous;
// broker errors are logged, never returned to the emit path.
func (s *KafkaSink) Publish(ctx context.Context, ev SentenceEvent, data []byte) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return fmt.Errorf("kafka sink is closed")
	}
	s.mu.Unlock()

	msg := kafkago.Message{
		Key:   []byte(ev.StreamID),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "event-type", Value: []byte(ev.Type)},
			{Key: "content-type", Value: []byte("application/json")},
		},
	}
	if err := s.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publish sentence event: %w", err)
	}
	return nil
}

// Close shuts down the sink. Safe to call multiple times.
func (s *KafkaSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	s.log.Info("Kafka sink closing")
	return s.writer.Close()
}
