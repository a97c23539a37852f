package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"blockandjerrys/api-gateway/internal/gateway"
	"blockandjerrys/config"
	"blockandjerrys/logging"

	"github.com/rs/cors"
	"go.uber.org/zap"
)

type settings struct {
	ServiceName     string
	Env             string
	LogLevel        string
	HTTPAddr        string
	ConeSvcURL      string
	FrontendDir     string
	AllowedOrigins  []string
	UpstreamTimeout time.Duration
}

func loadSettings(src *config.Source) (settings, error) {
	s := settings{
		ServiceName:     src.String("SERVICE_NAME", "api-gateway"),
		Env:             src.String("ENV", "dev"),
		LogLevel:        src.String("LOG_LEVEL", "info"),
		HTTPAddr:        src.String("HTTP_ADDR", ":8080"),
		ConeSvcURL:      src.String("CONE_SVC_URL", "http://localhost:5000"),
		FrontendDir:     src.String("FRONTEND_DIR", "./frontend"),
		AllowedOrigins:  src.List("ALLOWED_ORIGINS"),
		UpstreamTimeout: src.Duration("UPSTREAM_TIMEOUT", 15*time.Second),
	}
	return s, src.Err()
}

func newHandler(cfg settings, logger *zap.Logger) (http.Handler, error) {
	gw, err := gateway.NewGateway(gateway.Config{
		ConeSvcURL:  cfg.ConeSvcURL,
		FrontendDir: cfg.FrontendDir,
	}, &http.Client{Timeout: cfg.UpstreamTimeout}, logger)
	if err != nil {
		return nil, err
	}

	if len(cfg.AllowedOrigins) == 0 {
		return cors.Default().Handler(gw.SetupRoutes()), nil
	}
	c := cors.New(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodOptions},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	})
	return c.Handler(gw.SetupRoutes()), nil
}

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

	handler, err := newHandler(cfg, logger)
	if err != nil {
		logger.Fatal("api_gateway_config_invalid", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: handler, ReadHeaderTimeout: 10 * time.Second}
	serverErr := make(chan error, 1)
	go func() {
		logger.Info("api_gateway_listening", zap.String("addr", cfg.HTTPAddr), zap.String("cone_svc", cfg.ConeSvcURL))
		serverErr <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErr:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("api_gateway_failed", zap.Error(err))
		}
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("api_gateway_shutdown_failed", zap.Error(err))
	}
	logger.Info("api_gateway_stopped")
}
