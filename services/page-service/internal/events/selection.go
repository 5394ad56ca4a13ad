// Package events publishes duration selections for downstream analytics.
package events

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/md-rashed-zaman/apptpage/libs/kafkax"
	otelx "github.com/md-rashed-zaman/apptpage/libs/otel"
	"github.com/md-rashed-zaman/apptpage/services/page-service/internal/metrics"
	"github.com/segmentio/kafka-go"
)

const DefaultSelectionTopic = "appointment.duration.selected.v1"

const (
	SourceManual   = "manual"
	SourceFastPath = "fast_path"
)

type SelectionEvent struct {
	EventID         string    `json:"event_id"`
	SessionID       string    `json:"session_id"`
	Slug            string    `json:"slug"`
	DurationID      string    `json:"duration_id"`
	DurationMinutes float64   `json:"duration_minutes"`
	Source          string    `json:"source"`
	TaskID          string    `json:"task_id,omitempty"`
	CallerType      string    `json:"caller_type,omitempty"`
	OccurredAt      time.Time `json:"occurred_at"`
}

// Publisher never blocks the caller on the broker.
type Publisher interface {
	PublishSelection(ctx context.Context, evt SelectionEvent)
}

type Noop struct{}

func (Noop) PublishSelection(context.Context, SelectionEvent) {}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type queued struct {
	evt         SelectionEvent
	traceparent string
	tracestate  string
}

// KafkaPublisher queues events in memory and writes them from Run.
// When the queue is full new events are dropped and counted.
type KafkaPublisher struct {
	writer  messageWriter
	topic   string
	queue   chan queued
	logger  *slog.Logger
	metrics *metrics.PageMetrics
}

type Config struct {
	Brokers   []string
	Topic     string
	QueueSize int
}

// NewPublisher returns Noop when no brokers are configured.
func NewPublisher(cfg Config, logger *slog.Logger, m *metrics.PageMetrics) Publisher {
	if len(cfg.Brokers) == 0 {
		logger.Warn("selection events disabled (no kafka brokers configured)")
		return Noop{}
	}
	writer := &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		Balancer:               &kafka.Hash{},
		AllowAutoTopicCreation: true,
	}
	return newKafkaPublisher(writer, cfg, logger, m)
}

func newKafkaPublisher(w messageWriter, cfg Config, logger *slog.Logger, m *metrics.PageMetrics) *KafkaPublisher {
	if cfg.Topic == "" {
		cfg.Topic = DefaultSelectionTopic
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 256
	}
	return &KafkaPublisher{
		writer:  w,
		topic:   cfg.Topic,
		queue:   make(chan queued, cfg.QueueSize),
		logger:  logger,
		metrics: m,
	}
}

func (p *KafkaPublisher) PublishSelection(ctx context.Context, evt SelectionEvent) {
	if evt.EventID == "" {
		evt.EventID = uuid.NewString()
	}
	if evt.OccurredAt.IsZero() {
		evt.OccurredAt = time.Now().UTC()
	}
	tp, ts := otelx.TraceContextStrings(ctx)
	select {
	case p.queue <- queued{evt: evt, traceparent: tp, tracestate: ts}:
	default:
		p.metrics.EventDropped()
		p.logger.Warn("selection event dropped", "event_id", evt.EventID, "slug", evt.Slug)
	}
}

// Run drains the queue until ctx ends, then closes the writer.
func (p *KafkaPublisher) Run(ctx context.Context) {
	defer func() { _ = p.writer.Close() }()
	for {
		select {
		case <-ctx.Done():
			return
		case q := <-p.queue:
			if err := p.write(ctx, q); err != nil {
				p.logger.Error("selection event publish failed", "err", err, "event_id", q.evt.EventID)
			}
		}
	}
}

func (p *KafkaPublisher) write(ctx context.Context, q queued) error {
	payload, err := json.Marshal(q.evt)
	if err != nil {
		return err
	}
	msgCtx := otelx.ContextWithTraceContext(ctx, q.traceparent, q.tracestate)
	return p.writer.WriteMessages(ctx, kafka.Message{
		Topic:   p.topic,
		Key:     []byte(q.evt.SessionID),
		Value:   payload,
		Headers: kafkax.EventHeaders(msgCtx, q.evt.EventID, p.topic),
	})
}
