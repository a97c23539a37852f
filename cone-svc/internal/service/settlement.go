package service

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"blockandjerrys/cone-svc/internal/domain"
	"blockandjerrys/cone-svc/internal/metrics"

	"github.com/cenkalti/backoff/v5"
	"github.com/sourcegraph/conc"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const (
	customerPaidBody      = "Your Lightning Network payment has been accepted 🍦 Your ETA is being calculated 🧐"
	operatorPaidFormat    = "Order paid\nid: %d\nAddress: %s\nPhone: %s\nName: %s"
	dispatchTimeout       = 10 * time.Second
	maxResubscribeBackoff = 30 * time.Second
)

type SettlementConfig struct {
	OperatorPhone string
	FromNumber    string
	// Markers is optional; without it duplicates are caught by the status transition alone.
	Markers SettlementMarkers
	// Cursor is optional; without it a restart resumes from the live tip only.
	Cursor  SettlementCursor
	Logger  *zap.Logger
	Metrics *metrics.Metrics
}

// SettlementCoordinator reconciles settlement events against the order store and
// the registry. Events are handled one at a time in stream order.
type SettlementCoordinator struct {
	store      OrderStore
	registry   InvoiceRegistry
	sink       ClientSink
	dispatcher Dispatcher
	state      *State
	markers    SettlementMarkers
	cursor     SettlementCursor

	settleIndex atomic.Uint64

	operatorPhone string
	fromNumber    string

	log        *zap.Logger
	metrics    *metrics.Metrics
	tracer     trace.Tracer
	newBackOff func() backoff.BackOff

	dispatches conc.WaitGroup
}

func NewSettlementCoordinator(store OrderStore, registry InvoiceRegistry, sink ClientSink, dispatcher Dispatcher, state *State, cfg SettlementConfig) *SettlementCoordinator {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SettlementCoordinator{
		store:         store,
		registry:      registry,
		sink:          sink,
		dispatcher:    dispatcher,
		state:         state,
		markers:       cfg.Markers,
		cursor:        cfg.Cursor,
		operatorPhone: cfg.OperatorPhone,
		fromNumber:    cfg.FromNumber,
		log:           logger.With(zap.String("component", "settlement_coordinator")),
		metrics:       cfg.Metrics,
		tracer:        otel.Tracer("blockandjerrys/cone-svc/settlement"),
		newBackOff: func() backoff.BackOff {
			b := backoff.NewExponentialBackOff()
			b.MaxInterval = maxResubscribeBackoff
			return b
		},
	}
}

// Run consumes the gateway's settlement stream until ctx is done, resubscribing
// with exponential backoff whenever the stream fails. Every subscription resumes
// after the highest settle index handled so far.
func (c *SettlementCoordinator) Run(ctx context.Context, gateway PaymentGateway) error {
	c.loadCursor(ctx)
	bo := c.newBackOff()
	for {
		after := c.settleIndex.Load()
		stream, err := gateway.SubscribeSettlements(ctx, after)
		if err == nil {
			c.log.Info("settlement_stream_subscribed", zap.Uint64("after_settle_index", after))
			err = c.consume(ctx, stream, bo)
			_ = stream.Close()
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}

		wait := bo.NextBackOff()
		if wait == backoff.Stop {
			wait = maxResubscribeBackoff
		}
		c.log.Warn("settlement_stream_lost", zap.Error(err), zap.Duration("retry_in", wait))
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
	}
}

func (c *SettlementCoordinator) consume(ctx context.Context, stream SettlementStream, bo backoff.BackOff) error {
	for {
		evt, err := stream.Recv()
		if err != nil {
			return err
		}
		err = c.Settle(ctx, evt)
		if err != nil {
			c.logFailure(evt.InvoiceID, err)
			if !isFinal(err) {
				// Resubscribing replays this settlement.
				return err
			}
		}
		bo.Reset()
		c.advance(ctx, evt.SettleIndex)
	}
}

// SettleIndex is the highest settle index handled so far.
func (c *SettlementCoordinator) SettleIndex() uint64 {
	return c.settleIndex.Load()
}

func (c *SettlementCoordinator) loadCursor(ctx context.Context) {
	if c.cursor == nil {
		return
	}
	index, err := c.cursor.LoadSettleIndex(ctx)
	if err != nil {
		c.log.Warn("settle_index_load_failed", zap.Error(err))
		return
	}
	if index > c.settleIndex.Load() {
		c.settleIndex.Store(index)
	}
}

func (c *SettlementCoordinator) advance(ctx context.Context, index uint64) {
	if index <= c.settleIndex.Load() {
		return
	}
	c.settleIndex.Store(index)
	if c.cursor == nil {
		return
	}
	if err := c.cursor.SaveSettleIndex(ctx, index); err != nil {
		c.log.Warn("settle_index_save_failed", zap.Uint64("settle_index", index), zap.Error(err))
	}
}

// isFinal reports whether a failed settlement must not be replayed.
func isFinal(err error) bool {
	return errors.Is(err, domain.ErrDuplicateSettlement) || errors.Is(err, domain.ErrUnknownOrder)
}

// Settle processes one settlement event. A nil error covers the case where the
// order was paid but no live connection could be told; all other outcomes are
// returned for logging and are never retried.
func (c *SettlementCoordinator) Settle(ctx context.Context, evt domain.Settlement) (err error) {
	invoice := evt.InvoiceID
	ctx, span := c.tracer.Start(ctx, "settlement.process",
		trace.WithAttributes(attribute.String("invoice", invoice)),
	)
	outcome := "processed"
	defer func() {
		if err != nil {
			outcome = settlementOutcome(err)
			span.RecordError(err)
			span.SetStatus(codes.Error, outcome)
		}
		span.End()
		c.metrics.Settlement(outcome)
	}()

	logger := c.log.With(zap.String("invoice", invoice))

	if c.markers != nil {
		settled, markerErr := c.markers.IsSettled(ctx, invoice)
		switch {
		case markerErr != nil:
			logger.Warn("settlement_marker_lookup_failed", zap.Error(markerErr))
		case settled:
			return fmt.Errorf("settle %q: %w", invoice, domain.ErrDuplicateSettlement)
		}
	}

	order, err := c.store.FindOrderByInvoice(ctx, invoice)
	if errors.Is(err, domain.ErrOrderNotFound) {
		return fmt.Errorf("settle %q: %w", invoice, domain.ErrUnknownOrder)
	}
	if err != nil {
		return fmt.Errorf("settle %q: find order: %w", invoice, err)
	}

	transitioned, err := c.store.UpdateOrderStatus(ctx, order.ID, domain.StatusPending, domain.StatusPaid)
	if err != nil {
		return fmt.Errorf("settle %q: mark paid: %w", invoice, err)
	}
	if !transitioned {
		_, _, _ = c.registry.Resolve(invoice)
		c.markSettled(ctx, logger, invoice)
		return fmt.Errorf("settle %q: %w", invoice, domain.ErrDuplicateSettlement)
	}
	order.Status = domain.StatusPaid
	logger = logger.With(zap.Int("order_id", order.ID))

	count, countErr := c.state.RefreshConeCount(ctx)
	if countErr != nil {
		logger.Error("cone_count_refresh_failed", zap.Error(countErr))
	}

	conn, _, resolveErr := c.registry.Resolve(invoice)
	if resolveErr != nil {
		outcome = "unregistered"
		logger.Warn("settlement_client_unreachable", zap.Error(resolveErr))
	} else if sendErr := c.sink.SendToConnection(conn, domain.PaymentConfirmedMessage()); sendErr != nil {
		logger.Warn("payment_confirmation_undelivered", zap.String("conn_id", string(conn)), zap.Error(sendErr))
	}

	if countErr == nil {
		c.sink.BroadcastToAll(domain.ConeCountMessage(count))
	}

	c.dispatch(logger, domain.Notification{
		To:   order.Phone,
		From: c.fromNumber,
		Body: customerPaidBody,
	})
	c.dispatch(logger, domain.Notification{
		To:   c.operatorPhone,
		From: c.fromNumber,
		Body: fmt.Sprintf(operatorPaidFormat, order.ID, order.Address, order.Phone, order.Name),
	})

	c.markSettled(ctx, logger, invoice)
	logger.Info("settlement_processed", zap.Int("cone_count", count))
	return nil
}

// Wait blocks until in-flight notification dispatches finish.
func (c *SettlementCoordinator) Wait() {
	c.dispatches.Wait()
}

func (c *SettlementCoordinator) dispatch(logger *zap.Logger, n domain.Notification) {
	if c.dispatcher == nil || n.To == "" {
		c.metrics.Notification("skipped")
		return
	}
	c.dispatches.Go(func() {
		ctx, cancel := context.WithTimeout(context.Background(), dispatchTimeout)
		defer cancel()
		if err := c.dispatcher.Send(ctx, n); err != nil {
			c.metrics.Notification("failed")
			logger.Error("notification_dispatch_failed", zap.String("to", n.To), zap.Error(err))
			return
		}
		c.metrics.Notification("sent")
	})
}

func (c *SettlementCoordinator) markSettled(ctx context.Context, logger *zap.Logger, invoice string) {
	if c.markers == nil {
		return
	}
	if err := c.markers.MarkSettled(ctx, invoice); err != nil {
		logger.Warn("settlement_marker_write_failed", zap.Error(err))
	}
}

func (c *SettlementCoordinator) logFailure(invoice string, err error) {
	logger := c.log.With(zap.String("invoice", invoice), zap.Error(err))
	switch {
	case errors.Is(err, domain.ErrDuplicateSettlement):
		logger.Info("settlement_duplicate_dropped")
	case errors.Is(err, domain.ErrUnknownOrder):
		logger.Error("settlement_unknown_order")
	default:
		logger.Error("settlement_failed")
	}
}

func settlementOutcome(err error) string {
	switch {
	case errors.Is(err, domain.ErrDuplicateSettlement):
		return "duplicate"
	case errors.Is(err, domain.ErrUnknownOrder):
		return "unknown_order"
	default:
		return "error"
	}
}
