package consumer

import (
	"context"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/md-rashed-zaman/apptpage/libs/kafkax"
	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Handler runs inside the inbox transaction; its writes commit together with
// the inbox row.
type Handler func(ctx context.Context, tx pgx.Tx, msg kafka.Message) error

type messageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
	Close() error
}

type inbox interface {
	Process(ctx context.Context, eventID, eventType string, fn func(ctx context.Context, tx pgx.Tx) error) (bool, error)
}

type Consumer struct {
	reader  messageReader
	logger  *slog.Logger
	inbox   inbox
	handler Handler
	backoff time.Duration
}

type Config struct {
	Brokers []string
	GroupID string
	Topic   string
}

func New(logger *slog.Logger, inboxRepo inbox, cfg Config, handler Handler) *Consumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  cfg.Brokers,
		GroupID:  cfg.GroupID,
		Topic:    cfg.Topic,
		MinBytes: 1,
		MaxBytes: 10e6,
	})
	return newConsumer(logger, reader, inboxRepo, handler)
}

func newConsumer(logger *slog.Logger, reader messageReader, inboxRepo inbox, handler Handler) *Consumer {
	return &Consumer{
		reader:  reader,
		logger:  logger,
		inbox:   inboxRepo,
		handler: handler,
		backoff: time.Second,
	}
}

// Run reads until ctx ends. Each event is handled at most once per event id.
func (c *Consumer) Run(ctx context.Context) {
	defer c.reader.Close()

	for {
		msg, err := c.reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			c.logger.Error("kafka read error", "err", err)
			select {
			case <-ctx.Done():
				return
			case <-time.After(c.backoff):
			}
			continue
		}
		c.consume(ctx, msg)
	}
}

func (c *Consumer) consume(ctx context.Context, msg kafka.Message) {
	ctxMsg := kafkax.ExtractTraceContext(ctx, msg)
	ctxSpan, span := otel.Tracer("kafka").Start(ctxMsg, "kafka.consume",
		trace.WithAttributes(
			attribute.String("messaging.system", "kafka"),
			attribute.String("messaging.destination", msg.Topic),
		),
	)
	defer span.End()

	meta := kafkax.ExtractEventMeta(msg)

	ok, err := c.inbox.Process(ctxSpan, meta.EventID, meta.EventType, func(ctx context.Context, tx pgx.Tx) error {
		return c.handler(ctx, tx, msg)
	})
	if err != nil {
		c.logger.Error("event handling failed", "err", err, "event_id", meta.EventID)
		span.RecordError(err)
		return
	}
	if !ok {
		c.logger.Info("duplicate event ignored", "event_id", meta.EventID, "event_type", meta.EventType)
	}
}
