package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"storefront-be/internal/logger"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

type MessageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Handler processes one decoded event.
type Handler func(ctx context.Context, eventType Type, event OrderEvent) error

const (
	defaultHandleAttempts = 5
	defaultRetryBackoff   = 500 * time.Millisecond
	maxRetryBackoff       = 10 * time.Second
)

// ErrHandlerExhausted stops Run when a message keeps failing. Offsets past it
// are never committed, so the group redelivers it after a restart.
var ErrHandlerExhausted = errors.New("event handler retries exhausted")

type Consumer struct {
	reader  MessageReader
	handler Handler
	types   map[Type]bool

	attempts int
	backoff  time.Duration
}

func NewKafkaConsumer(groupID string, handler Handler, types []Type, brokers ...string) *Consumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		Topic:    Topic,
		GroupID:  groupID,
		MaxBytes: 10e6, // 10MB
	})
	return NewConsumer(reader, handler, types...)
}

// NewConsumer subscribes handler to the given event types; other types are
// committed and skipped.
func NewConsumer(reader MessageReader, handler Handler, types ...Type) *Consumer {
	set := make(map[Type]bool, len(types))
	for _, t := range types {
		set[t] = true
	}
	return &Consumer{
		reader:   reader,
		handler:  handler,
		types:    set,
		attempts: defaultHandleAttempts,
		backoff:  defaultRetryBackoff,
	}
}

// Run consumes until ctx is cancelled, returning nil, or until a message
// cannot be handled, returning an error wrapping ErrHandlerExhausted.
func (c *Consumer) Run(ctx context.Context) error {
	for {
		if ctx.Err() != nil {
			return nil
		}
		if err := c.processMessage(ctx); err != nil {
			return err
		}
	}
}

func (c *Consumer) Close() error {
	return c.reader.Close()
}

func (c *Consumer) processMessage(ctx context.Context) error {
	log := logger.FromCtx(ctx)

	m, err := c.reader.FetchMessage(ctx)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil
		}
		log.Error("error reading message", zap.Error(err))
		return nil
	}

	log = log.With(
		zap.Int("partition", m.Partition),
		zap.Int64("offset", m.Offset),
	)

	eventType := Type(headerValue(m.Headers, headerEventType))
	if !c.types[eventType] {
		c.commit(ctx, log, m)
		return nil
	}

	var event OrderEvent
	if err := json.Unmarshal(m.Value, &event); err != nil {
		// Undecodable messages would block the partition forever.
		log.Error("error parsing message", zap.Error(err))
		c.commit(ctx, log, m)
		return nil
	}

	log = log.With(
		zap.String("event_type", string(eventType)),
		zap.String("order_id", event.OrderID),
	)
	if err := c.handle(ctx, log, eventType, event); err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("%w: offset %d: %v", ErrHandlerExhausted, m.Offset, err)
	}

	c.commit(ctx, log, m)
	return nil
}

// handle retries the handler with exponential backoff. The reader has
// already moved past m, so the message is not fetched again in this session.
func (c *Consumer) handle(ctx context.Context, log *zap.Logger, eventType Type, event OrderEvent) error {
	wait := c.backoff
	var err error
	for attempt := 1; attempt <= c.attempts; attempt++ {
		if err = c.handler(ctx, eventType, event); err == nil {
			return nil
		}
		log.Warn("event handler failed",
			zap.Int("attempt", attempt),
			zap.Error(err),
		)
		if attempt == c.attempts {
			break
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
		wait = min(wait*2, maxRetryBackoff)
	}
	log.Error("giving up on event", zap.Error(err))
	return err
}

func (c *Consumer) commit(ctx context.Context, log *zap.Logger, m kafka.Message) {
	if err := c.reader.CommitMessages(ctx, m); err != nil {
		log.Error("failed to commit message", zap.Error(err))
	}
}

func headerValue(headers []kafka.Header, key string) string {
	for _, h := range headers {
		if h.Key == key {
			return string(h.Value)
		}
	}
	return ""
}
