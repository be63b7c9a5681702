// Package consumer runs a Kafka consumer group whose handler sees each
// event at most once per group, with bounded in-process retries.
package consumer

import (
	"context"
	"log/slog"
	"time"

	"github.com/md-rashed-zaman/barberbook/libs/kafkax"
	"github.com/md-rashed-zaman/barberbook/libs/requestid"
	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

type Handler func(ctx context.Context, msg kafka.Message) error

// Inbox de-duplicates deliveries by event id.
type Inbox interface {
	Record(ctx context.Context, eventID, eventType string) (bool, error)
	Forget(ctx context.Context, eventID string) error
}

// MessageReader is the subset of *kafka.Reader the consumer uses. Offsets
// are committed explicitly once a message is settled.
type MessageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type Consumer struct {
	reader      MessageReader
	logger      *slog.Logger
	inbox       Inbox
	handler     Handler
	backoff     time.Duration
	maxAttempts int
}

type Config struct {
	Brokers string
	GroupID string
	Topics  []string
	// MaxAttempts bounds handler retries per message; defaults to 3.
	MaxAttempts int
}

func New(logger *slog.Logger, inbox Inbox, cfg Config, handler Handler) *Consumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:     kafkax.SplitBrokers(cfg.Brokers),
		GroupID:     cfg.GroupID,
		GroupTopics: cfg.Topics,
		MinBytes:    1,
		MaxBytes:    10e6,
		StartOffset: kafka.FirstOffset,
	})
	c := newConsumer(reader, logger, inbox, handler)
	if cfg.MaxAttempts > 0 {
		c.maxAttempts = cfg.MaxAttempts
	}
	return c
}

func newConsumer(reader MessageReader, logger *slog.Logger, inbox Inbox, handler Handler) *Consumer {
	return &Consumer{
		reader:      reader,
		logger:      logger,
		inbox:       inbox,
		handler:     handler,
		backoff:     time.Second,
		maxAttempts: 3,
	}
}

func (c *Consumer) Run(ctx context.Context) {
	defer c.reader.Close()

	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			c.logger.Error("kafka fetch error", "err", err)
			if !c.sleep(ctx, 1) {
				return
			}
			continue
		}
		if !c.settle(ctx, msg) {
			return
		}
		if err := c.reader.CommitMessages(ctx, msg); err != nil && ctx.Err() == nil {
			c.logger.Error("kafka commit failed", "err", err, "topic", msg.Topic, "offset", msg.Offset)
		}
	}
}

// settle delivers msg until it succeeds, turns out to be a duplicate, or
// runs out of attempts. It reports false only when ctx ended first, in which
// case the offset stays uncommitted and the message is redelivered later.
func (c *Consumer) settle(ctx context.Context, msg kafka.Message) bool {
	meta := kafkax.ExtractEventMeta(msg)
	ctxMsg := requestid.With(kafkax.ExtractTraceContext(ctx, msg), meta.EventID)
	ctxSpan, span := otel.Tracer("kafka").Start(ctxMsg, "kafka.consume",
		trace.WithSpanKind(trace.SpanKindConsumer),
		trace.WithAttributes(
			attribute.String("messaging.system", "kafka"),
			attribute.String("messaging.destination", msg.Topic),
			attribute.String("event.aggregate_type", meta.AggregateType),
		),
	)
	defer span.End()

	for attempt := 1; ; attempt++ {
		err := c.deliver(ctxSpan, msg, meta)
		if err == nil {
			return true
		}
		span.RecordError(err)
		if ctx.Err() != nil {
			return false
		}
		c.logger.Error("event handling failed",
			"err", err, "event_id", meta.EventID, "event_type", meta.EventType, "attempt", attempt)

		if attempt >= c.maxAttempts {
			span.SetStatus(codes.Error, "retries exhausted")
			c.logger.Error("event dropped after retries", "event_id", meta.EventID, "attempts", attempt)
			return true
		}
		if !c.sleep(ctx, attempt) {
			return false
		}
	}
}

func (c *Consumer) deliver(ctx context.Context, msg kafka.Message, meta kafkax.EventMeta) error {
	fresh, err := c.inbox.Record(ctx, meta.EventID, meta.EventType)
	if err != nil {
		return err
	}
	if !fresh {
		c.logger.Info("duplicate event ignored", "event_id", meta.EventID, "event_type", meta.EventType)
		return nil
	}
	if err := c.handler(ctx, msg); err != nil {
		// The claim is released even when ctx ended mid-handler so the
		// uncommitted message is not skipped as a duplicate on redelivery.
		if ferr := c.inbox.Forget(context.WithoutCancel(ctx), meta.EventID); ferr != nil {
			c.logger.Error("inbox forget failed", "err", ferr, "event_id", meta.EventID)
		}
		return err
	}
	return nil
}

// sleep waits attempt*backoff and reports false if ctx ended first.
func (c *Consumer) sleep(ctx context.Context, attempt int) bool {
	if c.backoff <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(time.Duration(attempt) * c.backoff)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
