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

	httpapi "blockandjerrys/cone-svc/internal/api/http"
	"blockandjerrys/cone-svc/internal/api/ws"
	"blockandjerrys/cone-svc/internal/lightning"
	"blockandjerrys/cone-svc/internal/metrics"
	"blockandjerrys/cone-svc/internal/pricing"
	"blockandjerrys/cone-svc/internal/registry"
	"blockandjerrys/cone-svc/internal/service"
	"blockandjerrys/cone-svc/internal/storage"
	"blockandjerrys/cone-svc/internal/storage/migrations"
	"blockandjerrys/config"
	"blockandjerrys/logging"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sourcegraph/conc"
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
	zap.ReplaceGlobals(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, src, logger); err != nil {
		logger.Fatal("cone_svc_failed", zap.Error(err))
	}
}

type pingFunc func(ctx context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

func run(ctx context.Context, cfg settings, src *config.Source, logger *zap.Logger) error {
	db, err := config.InitPostgres(ctx, src)
	if err != nil {
		return err
	}
	defer db.Close()
	if err := migrations.Apply(db, logger); err != nil {
		return err
	}
	repo := storage.NewPostgresRepository(db)
	checks := map[string]httpapi.Pinger{"postgres": repo}

	var markers service.SettlementMarkers
	rdb, err := config.InitRedis(ctx, src)
	if err != nil {
		return err
	}
	if rdb != nil {
		defer rdb.Close()
		markers = storage.NewRedisMarkers(rdb, cfg.MarkerTTL)
		checks["redis"] = pingFunc(func(ctx context.Context) error { return rdb.Ping(ctx).Err() })
	} else {
		logger.Warn("redis_not_configured")
	}

	var dispatcher service.Dispatcher = storage.LogDispatcher{Logger: logger}
	if writer := config.NewKafkaWriter(src, cfg.NotifyTopic); writer != nil {
		defer writer.Close()
		dispatcher = storage.NewKafkaDispatcher(writer)
	} else {
		logger.Warn("kafka_not_configured", zap.String("fallback", "log"))
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	gateway, err := lightning.New(cfg.LND)
	if err != nil {
		return err
	}
	oracle := pricing.NewSpotOracle(cfg.PriceURL, cfg.PriceTimeout)

	state := service.NewState(repo, oracle, logger, m)
	if err := state.Init(ctx); err != nil {
		return fmt.Errorf("initialise state: %w", err)
	}

	invoices := registry.New(cfg.RegistryTTL)
	hub := ws.NewHub(ws.Config{
		InvoicesPerMinute: cfg.InvoiceRatePerMin,
		OriginPatterns:    cfg.OriginPatterns,
	}, logger, m)
	session := service.NewSessionGateway(repo, gateway, invoices, hub, state, logger, m)
	coordinator := service.NewSettlementCoordinator(repo, invoices, hub, dispatcher, state, service.SettlementConfig{
		OperatorPhone: cfg.OperatorPhone,
		FromNumber:    cfg.FromNumber,
		Markers:       markers,
		Cursor:        repo,
		Logger:        logger,
		Metrics:       m,
	})

	handler := &httpapi.Handler{
		ServiceName: cfg.ServiceName,
		State:       state,
		Orders:      repo,
		QR:          service.DefaultQRGenerator{},
		Checks:      checks,
		Socket:      hub.Handler(session),
		Metrics:     promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}),
		Logger:      logger,
	}
	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           httpapi.NewRouter(handler, cfg.AllowedOrigins),
		ReadHeaderTimeout: 10 * time.Second,
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg conc.WaitGroup
	wg.Go(func() {
		if err := coordinator.Run(runCtx, gateway); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("settlement_coordinator_stopped", zap.Error(err))
		}
	})
	wg.Go(func() {
		invoices.RunSweeper(runCtx, cfg.SweepInterval, func(evicted []string) {
			logger.Info("stale_invoices_evicted", zap.Int("count", len(evicted)))
		})
	})

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("http_server_start", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	var runErr error
	select {
	case <-ctx.Done():
	case err, ok := <-serverErr:
		if ok {
			runErr = fmt.Errorf("http server: %w", err)
		}
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("http_server_shutdown_error", zap.Error(err))
	}
	hub.Close()
	cancel()
	wg.Wait()
	coordinator.Wait()
	logger.Info("cone_svc_stopped")
	return runErr
}
