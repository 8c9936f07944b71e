package kafka

import (
	"context"
	"encoding/json"
	"sync/atomic"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/clearlens/resolve/internal/config"
	"github.com/clearlens/resolve/internal/domain/entity"
	"github.com/clearlens/resolve/internal/domain/quality"
	"github.com/clearlens/resolve/internal/infrastructure/monitoring/logging"
	"github.com/clearlens/resolve/internal/infrastructure/monitoring/prometheus"
	"github.com/clearlens/resolve/pkg/errors"
)

// WriterInterface abstracts kafka.Writer for testing.
type WriterInterface interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Publisher writes run events to Kafka.  It satisfies the resolution
// pipeline's EventPublisher port.
type Publisher struct {
	writer         WriterInterface
	collisionTopic string
	qualityTopic   string
	logger         logging.Logger
	metrics        *prometheus.AppMetrics
	closed         atomic.Bool
}

// NewPublisher creates a Publisher over one shared writer; the topic is set
// per message.
func NewPublisher(cfg config.KafkaConfig, logger logging.Logger, metrics *prometheus.AppMetrics) *Publisher {
	retries := cfg.ProducerRetries
	if retries <= 0 {
		retries = 3
	}
	batchTimeout := cfg.BatchTimeout
	if batchTimeout <= 0 {
		batchTimeout = time.Second
	}

	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
		MaxAttempts:  retries,
		BatchTimeout: batchTimeout,
	}
	return &Publisher{
		writer:         writer,
		collisionTopic: cfg.CollisionTopic,
		qualityTopic:   cfg.QualityTopic,
		logger:         logger.Named("kafka"),
		metrics:        metrics,
	}
}

// NewPublisherWithWriter injects a writer.  Used by tests.
func NewPublisherWithWriter(writer WriterInterface, collisionTopic, qualityTopic string, logger logging.Logger, metrics *prometheus.AppMetrics) *Publisher {
	return &Publisher{
		writer:         writer,
		collisionTopic: collisionTopic,
		qualityTopic:   qualityTopic,
		logger:         logger.Named("kafka"),
		metrics:        metrics,
	}
}

// PublishCollisions emits one IdentityCollisionWarning per collapse.  The
// message key is the surviving Business ID, so all events about one entity
// land in the same partition, in order.
func (p *Publisher) PublishCollisions(ctx context.Context, events []entity.CollisionEvent) error {
	if p.closed.Load() {
		return errors.New(errors.CodeMessagingError, "publisher closed")
	}

	msgs := make([]kafka.Message, 0, len(events))
	for _, ev := range events {
		env, err := newEnvelope(EventTypeIdentityCollision, ev)
		if err != nil {
			return errors.Wrap(err, errors.CodeSerialization, "encoding collision event failed")
		}
		value, err := json.Marshal(env)
		if err != nil {
			return errors.Wrap(err, errors.CodeSerialization, "encoding collision envelope failed")
		}
		msgs = append(msgs, kafka.Message{
			Topic: p.collisionTopic,
			Key:   []byte(ev.Survivor.String()),
			Value: value,
		})
	}
	if len(msgs) == 0 {
		return nil
	}

	if err := p.writer.WriteMessages(ctx, msgs...); err != nil {
		p.logger.Error("publishing collision events failed", logging.Err(err))
		return errors.Wrap(err, errors.CodeMessagingError, "publishing collision events failed")
	}
	p.metrics.EventsPublished.WithLabelValues(p.collisionTopic).Add(float64(len(msgs)))
	return nil
}

// PublishQuality emits the run's quality report.
func (p *Publisher) PublishQuality(ctx context.Context, report quality.Report) error {
	if p.closed.Load() {
		return errors.New(errors.CodeMessagingError, "publisher closed")
	}

	env, err := newEnvelope(EventTypeRunQuality, report)
	if err != nil {
		return errors.Wrap(err, errors.CodeSerialization, "encoding quality report failed")
	}
	value, err := json.Marshal(env)
	if err != nil {
		return errors.Wrap(err, errors.CodeSerialization, "encoding quality envelope failed")
	}

	msg := kafka.Message{
		Topic: p.qualityTopic,
		Key:   []byte(report.RunAt.UTC().Format(time.RFC3339)),
		Value: value,
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.logger.Error("publishing quality report failed", logging.Err(err))
		return errors.Wrap(err, errors.CodeMessagingError, "publishing quality report failed")
	}
	p.metrics.EventsPublished.WithLabelValues(p.qualityTopic).Inc()
	return nil
}

// Close flushes and closes the writer.  Publish calls after Close fail fast.
func (p *Publisher) Close() error {
	if !p.closed.CompareAndSwap(false, true) {
		return nil
	}
	if err := p.writer.Close(); err != nil {
		return errors.Wrap(err, errors.CodeMessagingError, "closing kafka writer failed")
	}
	return nil
}
