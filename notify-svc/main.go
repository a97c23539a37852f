package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"blockandjerrys/config"
	"blockandjerrys/logging"
	"blockandjerrys/notify-svc/internal/service"
	"blockandjerrys/notify-svc/internal/sms"

	"go.uber.org/zap"
)

func main() {
	src, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "load config:", err)
		os.Exit(1)
	}
	cfg, err := loadSettings(src)
	if err != nil {
		fmt.Fprintln(os.Stderr, "invalid config:", err)
		os.Exit(1)
	}

	logger := logging.MustNewLogger(cfg.ServiceName, cfg.Env, cfg.LogLevel)
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reader := config.NewKafkaReader(src, cfg.Topic, cfg.GroupID)
	defer reader.Close()

	sender := sms.NewTwilioClient(cfg.TwilioAccountSID, cfg.TwilioAuthToken)
	consumer := service.NewConsumer(reader, sender, logger)
	if cfg.MaxTries > 0 {
		consumer.MaxTries = uint(cfg.MaxTries)
	}

	logger.Info("notify_svc_started", zap.String("topic", cfg.Topic), zap.String("group_id", cfg.GroupID))
	if err := consumer.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Fatal("notify_svc_failed", zap.Error(err))
	}
	logger.Info("notify_svc_stopped")
}
