package service

import (
	"context"

	"blockandjerrys/cone-svc/internal/domain"
	"blockandjerrys/cone-svc/internal/registry"

	"github.com/shopspring/decimal"
)

// OrderStore is the durable record of orders. Lookups that find nothing return an
// error wrapping domain.ErrOrderNotFound.
type OrderStore interface {
	// CreateOrder inserts the order and its line items atomically and sets order.ID.
	CreateOrder(ctx context.Context, order *domain.Order) error
	FindOrderByInvoice(ctx context.Context, invoice string) (*domain.Order, error)
	FindLatestOrderByPhone(ctx context.Context, phone string) (*domain.Order, error)
	UpdateOrderEmail(ctx context.Context, orderID int, email string) error
	// UpdateOrderStatus moves the order from one status to another and reports
	// whether this call performed the transition.
	UpdateOrderStatus(ctx context.Context, orderID int, from, to domain.OrderStatus) (bool, error)
	SumPaidQuantities(ctx context.Context) (int, error)
	ListMenu(ctx context.Context) ([]domain.MenuItem, error)
}

type PaymentGateway interface {
	CreateInvoice(ctx context.Context, amount decimal.Decimal, memo string) (domain.Invoice, error)
	// SubscribeSettlements streams settlements; a non-zero afterIndex first
	// replays every invoice settled after that settle index.
	SubscribeSettlements(ctx context.Context, afterIndex uint64) (SettlementStream, error)
}

// SettlementStream yields settlement events in delivery order until it fails.
type SettlementStream interface {
	Recv() (domain.Settlement, error)
	Close() error
}

type PriceOracle interface {
	Quote(ctx context.Context) (decimal.Decimal, error)
}

// Dispatcher hands a notification to the delivery pipeline. Callers do not retry.
type Dispatcher interface {
	Send(ctx context.Context, n domain.Notification) error
}

// ClientSink delivers frames to live connections. Every emission site picks exactly one primitive.
type ClientSink interface {
	SendToConnection(conn domain.ConnID, msg domain.Message) error
	BroadcastToAll(msg domain.Message)
}

type InvoiceRegistry interface {
	Register(invoiceID string, conn domain.ConnID, orderID int) error
	Resolve(invoiceID string) (domain.ConnID, int, error)
	DropConnection(conn domain.ConnID) int
}

// SettlementCursor persists the highest settle index fully handled, so a restart
// resumes the stream without losing settlements made while it was down.
type SettlementCursor interface {
	LoadSettleIndex(ctx context.Context) (uint64, error)
	SaveSettleIndex(ctx context.Context, index uint64) error
}

// SettlementMarkers remembers invoices whose settlement was fully processed.
type SettlementMarkers interface {
	IsSettled(ctx context.Context, invoice string) (bool, error)
	MarkSettled(ctx context.Context, invoice string) error
}

var _ InvoiceRegistry = (*registry.Registry)(nil)
