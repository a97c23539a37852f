package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	StatusPending OrderStatus = "pending"
	StatusPaid    OrderStatus = "paid"
)

// ConnID identifies one live client connection. The core only uses it as a message sink address.
type ConnID string

type MenuItem struct {
	ID     int             `json:"id"`
	Flavor string          `json:"flavor"`
	Price  decimal.Decimal `json:"price"`
}

type Order struct {
	ID        int         `json:"id"`
	Name      string      `json:"name"`
	Address   string      `json:"address"`
	Phone     string      `json:"phone"`
	Email     string      `json:"email,omitempty"`
	Invoice   string      `json:"invoice"`
	Status    OrderStatus `json:"status"`
	CreatedAt time.Time   `json:"created_at"`
	Items     []OrderItem `json:"items,omitempty"`
}

type OrderItem struct {
	OrderID    int `json:"order_id"`
	MenuItemID int `json:"menu_item_id"`
	Quantity   int `json:"quantity"`
}

// CartLine is one entry of the client's cart as sent with REQUEST_INVOICE.
type CartLine struct {
	ID       int `json:"id"`
	Quantity int `json:"quantity"`
}

// Invoice is what the payment daemon hands back for a new payment request.
type Invoice struct {
	ID  string
	Raw []byte
}

// Settlement reports that the invoice has been paid in full.
type Settlement struct {
	InvoiceID string
	SettledAt time.Time
	// SettleIndex is the daemon's monotonically increasing settlement sequence number.
	SettleIndex uint64
}

// Notification is one outbound message to a human recipient.
type Notification struct {
	To   string `json:"to"`
	From string `json:"from"`
	Body string `json:"body"`
}
