package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"blockandjerrys/cone-svc/internal/domain"
	"blockandjerrys/cone-svc/internal/metrics"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const (
	invoiceMemoFormat = "Block and Jerry's for %s."
	btcPrecision      = 8
)

// SessionGateway validates per-connection commands and drives invoice creation.
type SessionGateway struct {
	store    OrderStore
	gateway  PaymentGateway
	registry InvoiceRegistry
	sink     ClientSink
	state    *State

	log     *zap.Logger
	metrics *metrics.Metrics
	tracer  trace.Tracer
}

func NewSessionGateway(store OrderStore, gateway PaymentGateway, registry InvoiceRegistry, sink ClientSink, state *State, logger *zap.Logger, m *metrics.Metrics) *SessionGateway {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SessionGateway{
		store:    store,
		gateway:  gateway,
		registry: registry,
		sink:     sink,
		state:    state,
		log:      logger.With(zap.String("component", "session_gateway")),
		metrics:  m,
		tracer:   otel.Tracer("blockandjerrys/cone-svc/session"),
	}
}

// Connect pushes the INIT baseline to a newly established connection.
func (g *SessionGateway) Connect(conn domain.ConnID) error {
	return g.sink.SendToConnection(conn, domain.InitMessage(g.state.Snapshot()))
}

// Disconnect forgets the connection's pending invoices; their settlements will
// still mark orders paid but nobody is left to confirm in real time.
func (g *SessionGateway) Disconnect(conn domain.ConnID) {
	if dropped := g.registry.DropConnection(conn); dropped > 0 {
		g.log.Info("pending_invoices_dropped", zap.String("conn_id", string(conn)), zap.Int("count", dropped))
	}
}

// HandleInvoiceRequest converts the cart total, creates the invoice and the pending
// order, registers the mapping and returns the invoice id to conn only. Upstream
// failures abort before any order is written.
func (g *SessionGateway) HandleInvoiceRequest(ctx context.Context, conn domain.ConnID, req domain.InvoiceRequest) (invoiceID string, err error) {
	ctx, span := g.tracer.Start(ctx, "session.request_invoice",
		trace.WithAttributes(attribute.String("conn_id", string(conn))),
	)
	defer func() {
		outcome := "created"
		if err != nil {
			outcome = domain.ErrorCode(err)
			span.RecordError(err)
			span.SetStatus(codes.Error, outcome)
		}
		span.End()
		g.metrics.Invoice(outcome)
	}()

	if err := validateInvoiceRequest(&req); err != nil {
		return "", err
	}
	logger := g.log.With(zap.String("conn_id", string(conn)), zap.String("phone", req.Phone))

	quote, err := g.state.RefreshQuote(ctx)
	if err != nil {
		return "", err
	}
	amount := req.CartTotal.DivRound(quote, btcPrecision)

	invoice, err := g.gateway.CreateInvoice(ctx, amount, fmt.Sprintf(invoiceMemoFormat, req.Name))
	if err != nil {
		if !errors.Is(err, domain.ErrInvoiceCreation) {
			err = fmt.Errorf("%w: %v", domain.ErrInvoiceCreation, err)
		}
		return "", err
	}

	order := &domain.Order{
		Name:    req.Name,
		Address: req.Address,
		Phone:   req.Phone,
		Invoice: invoice.ID,
		Status:  domain.StatusPending,
		Items:   lineItems(req.CartLines),
	}
	if err := g.store.CreateOrder(ctx, order); err != nil {
		return "", fmt.Errorf("create order: %w", err)
	}

	if err := g.registry.Register(invoice.ID, conn, order.ID); err != nil {
		logger.Error("invoice_registration_invariant_violated", zap.String("invoice", invoice.ID), zap.Error(err))
		return "", err
	}

	if err := g.sink.SendToConnection(conn, domain.InvoiceCreatedMessage(invoice.ID)); err != nil {
		logger.Warn("invoice_undelivered", zap.String("invoice", invoice.ID), zap.Error(err))
	}
	logger.Info("invoice_created",
		zap.String("invoice", invoice.ID),
		zap.Int("order_id", order.ID),
		zap.String("amount_btc", amount.String()),
		zap.Int("line_items", len(order.Items)),
	)
	return invoice.ID, nil
}

// HandleContactUpdate attaches an email to the most recent order for the phone number.
func (g *SessionGateway) HandleContactUpdate(ctx context.Context, conn domain.ConnID, req domain.ContactUpdate) error {
	req.Phone = strings.TrimSpace(req.Phone)
	req.Email = strings.TrimSpace(req.Email)
	if req.Phone == "" {
		return fmt.Errorf("%w: phone is required", domain.ErrValidation)
	}
	if _, err := mail.ParseAddress(req.Email); err != nil {
		return fmt.Errorf("%w: invalid email", domain.ErrValidation)
	}

	order, err := g.store.FindLatestOrderByPhone(ctx, req.Phone)
	if err != nil {
		return err
	}
	if err := g.store.UpdateOrderEmail(ctx, order.ID, req.Email); err != nil {
		return fmt.Errorf("update email: %w", err)
	}

	g.log.Info("contact_updated", zap.String("conn_id", string(conn)), zap.Int("order_id", order.ID))
	if err := g.sink.SendToConnection(conn, domain.ContactUpdatedMessage()); err != nil {
		g.log.Warn("contact_ack_undelivered", zap.String("conn_id", string(conn)), zap.Error(err))
	}
	return nil
}

func validateInvoiceRequest(req *domain.InvoiceRequest) error {
	req.Name = strings.TrimSpace(req.Name)
	req.Address = strings.TrimSpace(req.Address)
	req.Phone = strings.TrimSpace(req.Phone)

	switch {
	case req.Name == "":
		return fmt.Errorf("%w: name is required", domain.ErrValidation)
	case req.Address == "":
		return fmt.Errorf("%w: address is required", domain.ErrValidation)
	case req.Phone == "":
		return fmt.Errorf("%w: phone is required", domain.ErrValidation)
	case !req.CartTotal.IsPositive():
		return fmt.Errorf("%w: cart total must be positive", domain.ErrValidation)
	}
	for _, line := range req.CartLines {
		if line.ID <= 0 {
			return fmt.Errorf("%w: cart line has invalid item id %d", domain.ErrValidation, line.ID)
		}
		if line.Quantity < 0 {
			return fmt.Errorf("%w: cart line %d has negative quantity", domain.ErrValidation, line.ID)
		}
	}
	return nil
}

// lineItems keeps lines with a positive quantity, one item per menu id, in
// first-seen order. Repeated ids have their quantities summed.
func lineItems(lines []domain.CartLine) []domain.OrderItem {
	items := make([]domain.OrderItem, 0, len(lines))
	index := make(map[int]int, len(lines))
	for _, line := range lines {
		if line.Quantity <= 0 {
			continue
		}
		if i, seen := index[line.ID]; seen {
			items[i].Quantity += line.Quantity
			continue
		}
		index[line.ID] = len(items)
		items = append(items, domain.OrderItem{MenuItemID: line.ID, Quantity: line.Quantity})
	}
	return items
}
