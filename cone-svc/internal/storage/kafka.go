package storage

import (
	"context"
	"fmt"

	"blockandjerrys/cone-svc/internal/domain"

	"github.com/goccy/go-json"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// KafkaDispatcher publishes notifications for notify-svc to deliver.
type KafkaDispatcher struct {
	Writer MessageWriter
}

// MessageWriter is the subset of *kafka.Writer the dispatcher needs.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

func NewKafkaDispatcher(writer MessageWriter) *KafkaDispatcher {
	return &KafkaDispatcher{Writer: writer}
}

func (p *KafkaDispatcher) Send(ctx context.Context, n domain.Notification) error {
	payload, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("encode notification: %w", err)
	}
	return p.Writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(n.To),
		Value: payload,
	})
}

// LogDispatcher stands in when no broker is configured.
type LogDispatcher struct {
	Logger *zap.Logger
}

func (d LogDispatcher) Send(_ context.Context, n domain.Notification) error {
	d.Logger.Info("notification_logged", zap.String("to", n.To), zap.String("body", n.Body))
	return nil
}
