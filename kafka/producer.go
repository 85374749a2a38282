// Package kafka publishes load events to Kafka topics.
package kafka

import (
	"context"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/wb-go/pgbulk/logger"
	"github.com/wb-go/pgbulk/retry"
)

const _defaultWriteTimeout = 10 * time.Second

// Publisher sends messages to a topic.
type Publisher interface {
	Send(ctx context.Context, key, value []byte, headers ...kafka.Header) error
}

// Producer wraps kafka.Writer with structured logging and retries.
// It requires acknowledgments from all in-sync replicas.
type Producer struct {
	writer   *kafka.Writer
	log      logger.Logger
	strategy retry.Strategy
}

// NewProducer creates a producer for topic. Every Send is attempted according to strategy.
func NewProducer(brokers []string, topic string, strategy retry.Strategy, log logger.Logger) *Producer {
	if log == nil {
		log = logger.NewNop()
	}
	return &Producer{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireAll,
			WriteTimeout: _defaultWriteTimeout,
			Logger: kafka.LoggerFunc(func(msg string, args ...any) {
				log.LogAttrs(context.Background(), logger.DebugLevel, "producer info",
					logger.String("topic", topic),
					logger.String("message", fmt.Sprintf(msg, args...)),
				)
			}),
			ErrorLogger: kafka.LoggerFunc(func(msg string, args ...any) {
				log.LogAttrs(context.Background(), logger.ErrorLevel, "producer error",
					logger.String("topic", topic),
					logger.String("error", fmt.Sprintf(msg, args...)),
				)
			}),
		},
		log:      log,
		strategy: strategy,
	}
}

// Send publishes a single message.
func (p *Producer) Send(ctx context.Context, key, value []byte, headers ...kafka.Header) error {
	err := retry.DoContext(ctx, p.strategy, func() error {
		return p.writer.WriteMessages(ctx, kafka.Message{
			Key:     key,
			Value:   value,
			Headers: headers,
		})
	})
	if err != nil {
		return fmt.Errorf("kafka.Producer.Send: %w", err)
	}
	return nil
}

// Close flushes pending messages and shuts the producer down.
func (p *Producer) Close() error {
	return p.writer.Close()
}
