package service

import (
	"context"

	"blockandjerrys/notify-svc/internal/domain"
	"blockandjerrys/notify-svc/internal/sms"

	"github.com/segmentio/kafka-go"
)

type Sender interface {
	Send(ctx context.Context, n domain.Notification) error
}

// MessageReader is the subset of *kafka.Reader the consumer uses.
type MessageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
}

type ConsumerInterface interface {
	Start(ctx context.Context) error
	Process(ctx context.Context, msg kafka.Message) error
}

var (
	_ Sender            = (*sms.TwilioClient)(nil)
	_ MessageReader     = (*kafka.Reader)(nil)
	_ ConsumerInterface = (*Consumer)(nil)
)
