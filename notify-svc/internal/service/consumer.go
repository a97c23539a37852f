package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"blockandjerrys/notify-svc/internal/domain"

	"github.com/cenkalti/backoff/v5"
	"github.com/goccy/go-json"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

const (
	defaultMaxTries   = 5
	readRetryInterval = time.Second
)

// Consumer turns notification messages into SMS deliveries. A message is
// committed once it is delivered, rejected, or out of retries.
type Consumer struct {
	Reader     MessageReader
	Sender     Sender
	Logger     *zap.Logger
	MaxTries   uint
	NewBackOff func() backoff.BackOff
}

func NewConsumer(reader MessageReader, sender Sender, logger *zap.Logger) *Consumer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Consumer{
		Reader:   reader,
		Sender:   sender,
		Logger:   logger.With(zap.String("component", "notification_consumer")),
		MaxTries: defaultMaxTries,
		NewBackOff: func() backoff.BackOff {
			b := backoff.NewExponentialBackOff()
			b.InitialInterval = 500 * time.Millisecond
			b.MaxInterval = 10 * time.Second
			return b
		},
	}
}

// Start consumes until ctx is cancelled.
func (c *Consumer) Start(ctx context.Context) error {
	c.Logger.Info("notification_consumer_started")
	for {
		message, err := c.Reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			c.Logger.Warn("notification_fetch_failed", zap.Error(err))
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(readRetryInterval):
			}
			continue
		}

		if err := c.Process(ctx, message); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			c.Logger.Error("notification_dropped",
				zap.Int64("offset", message.Offset),
				zap.Int("partition", message.Partition),
				zap.Error(err))
		}

		if err := c.Reader.CommitMessages(ctx, message); err != nil && ctx.Err() == nil {
			c.Logger.Warn("notification_commit_failed", zap.Int64("offset", message.Offset), zap.Error(err))
		}
	}
}

// Process decodes one message and delivers it, retrying transient failures.
func (c *Consumer) Process(ctx context.Context, message kafka.Message) error {
	var n domain.Notification
	if err := json.Unmarshal(message.Value, &n); err != nil {
		return fmt.Errorf("%w: decode: %v", domain.ErrInvalidInput, err)
	}
	if strings.TrimSpace(n.To) == "" || strings.TrimSpace(n.Body) == "" {
		return fmt.Errorf("%w: recipient and body are required", domain.ErrInvalidInput)
	}

	logger := c.Logger.With(zap.String("to", n.To))
	attempts := 0
	_, err := backoff.Retry(ctx, func() (struct{}, error) {
		attempts++
		err := c.Sender.Send(ctx, n)
		if errors.Is(err, domain.ErrRejected) {
			return struct{}{}, backoff.Permanent(err)
		}
		if err != nil {
			logger.Warn("sms_send_retry", zap.Int("attempt", attempts), zap.Error(err))
		}
		return struct{}{}, err
	}, backoff.WithBackOff(c.NewBackOff()), backoff.WithMaxTries(c.MaxTries))
	if err != nil {
		return fmt.Errorf("deliver after %d attempts: %w", attempts, err)
	}

	logger.Info("sms_sent", zap.Int("attempts", attempts))
	return nil
}
