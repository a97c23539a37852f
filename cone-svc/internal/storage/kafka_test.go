package storage

import (
	"context"
	"errors"
	"testing"

	"blockandjerrys/cone-svc/internal/domain"

	"github.com/goccy/go-json"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type capturingWriter struct {
	messages []kafka.Message
	err      error
}

func (w *capturingWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.messages = append(w.messages, msgs...)
	return nil
}

func TestKafkaDispatcher_PublishesKeyedByRecipient(t *testing.T) {
	writer := &capturingWriter{}
	dispatcher := NewKafkaDispatcher(writer)
	n := domain.Notification{To: "+15551234567", From: "+15559999999", Body: "paid"}

	require.NoError(t, dispatcher.Send(context.Background(), n))

	require.Len(t, writer.messages, 1)
	assert.Equal(t, "+15551234567", string(writer.messages[0].Key))
	var decoded domain.Notification
	require.NoError(t, json.Unmarshal(writer.messages[0].Value, &decoded))
	assert.Equal(t, n, decoded)
}

func TestKafkaDispatcher_ReturnsWriterError(t *testing.T) {
	dispatcher := NewKafkaDispatcher(&capturingWriter{err: errors.New("broker unavailable")})

	err := dispatcher.Send(context.Background(), domain.Notification{To: "+1"})

	assert.EqualError(t, err, "broker unavailable")
}

func TestLogDispatcher(t *testing.T) {
	assert.NoError(t, LogDispatcher{Logger: zap.NewNop()}.Send(context.Background(), domain.Notification{To: "+1"}))
}
