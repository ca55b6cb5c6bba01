package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/payroll-engine/internal/domain/audit"
	"github.com/segmentio/kafka-go"
)

// LogSink writes every event as one structured log line.
type LogSink struct {
	logger *slog.Logger
}

func NewLogSink(logger *slog.Logger) *LogSink {
	return &LogSink{logger: logger.With("component", "audit")}
}

func (s *LogSink) Emit(ctx context.Context, e audit.Event) error {
	s.logger.InfoContext(ctx, "audit event",
		"event", e.Name,
		"actor_id", e.ActorID,
		"object_type", e.ObjectType,
		"object_id", e.ObjectID,
		"metadata", e.Metadata,
		"occurred_at", e.OccurredAt,
	)
	return nil
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaSink publishes events as JSON keyed by object id.
type KafkaSink struct {
	writer messageWriter
	topic  string
}

// NewKafkaWriter builds an async writer; delivery errors surface in the
// writer's own logger, not in Emit.
func NewKafkaWriter(brokers []string, topic string) (*kafka.Writer, error) {
	if len(brokers) == 0 {
		return nil, fmt.Errorf("kafka audit sink requires at least one broker")
	}
	return &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
		Async:        true,
		BatchTimeout: 50 * time.Millisecond,
	}, nil
}

func NewKafkaSink(writer *kafka.Writer) *KafkaSink {
	return &KafkaSink{writer: writer, topic: writer.Topic}
}

func (s *KafkaSink) Emit(ctx context.Context, e audit.Event) error {
	payload, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshal audit event: %w", err)
	}
	return s.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(e.ObjectID),
		Value: payload,
		Time:  e.OccurredAt,
		Headers: []kafka.Header{
			{Key: "event", Value: []byte(e.Name)},
		},
	})
}

func (s *KafkaSink) Close() error {
	return s.writer.Close()
}

// Emitter is the fire-and-forget front of a sink: failures are logged and
// never reach the caller.
type Emitter struct {
	sink   audit.Sink
	logger *slog.Logger
	now    func() time.Time
}

func NewEmitter(sink audit.Sink, logger *slog.Logger) *Emitter {
	return &Emitter{sink: sink, logger: logger, now: time.Now}
}

func (e *Emitter) Emit(ctx context.Context, event audit.Event) {
	if event.OccurredAt.IsZero() {
		event.OccurredAt = e.now().UTC()
	}
	if err := e.sink.Emit(ctx, event); err != nil {
		e.logger.WarnContext(ctx, "failed to emit audit event",
			"event", event.Name,
			"object_id", event.ObjectID,
			"error", err,
		)
	}
}
