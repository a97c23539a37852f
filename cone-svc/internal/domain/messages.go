package domain

import "github.com/shopspring/decimal"

func init() {
	// Quotes and prices are JSON numbers on the wire.
	decimal.MarshalJSONWithoutQuotes = true
}

type MessageType string

// Inbound.
const (
	MsgRequestInvoice MessageType = "REQUEST_INVOICE"
	MsgUpdateContact  MessageType = "UPDATE_CONTACT"
)

// Outbound.
const (
	MsgInit             MessageType = "INIT"
	MsgInvoiceCreated   MessageType = "INVOICE_CREATED"
	MsgPaymentConfirmed MessageType = "PAYMENT_CONFIRMED"
	MsgConeCountUpdated MessageType = "CONE_COUNT_UPDATED"
	MsgContactUpdated   MessageType = "CONTACT_UPDATED"
	MsgError            MessageType = "ERROR"
)

// Message is one outbound frame. Payload is encoded as-is.
type Message struct {
	Type    MessageType `json:"type"`
	Payload any         `json:"payload"`
}

type InvoiceRequest struct {
	Name      string          `json:"name"`
	Address   string          `json:"address"`
	Phone     string          `json:"phone"`
	CartTotal decimal.Decimal `json:"cartTotal"`
	CartLines []CartLine      `json:"cartLines"`
}

type ContactUpdate struct {
	Phone string `json:"phone"`
	Email string `json:"email"`
}

type InitPayload struct {
	ConeCount int             `json:"coneCount"`
	Menu      []MenuItem      `json:"menu"`
	Quote     decimal.Decimal `json:"quote"`
}

type InvoiceCreatedPayload struct {
	InvoiceID string `json:"invoiceId"`
}

type ConeCountPayload struct {
	ConeCount int `json:"coneCount"`
}

type ErrorPayload struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Command MessageType `json:"command,omitempty"`
}

func InitMessage(p InitPayload) Message {
	return Message{Type: MsgInit, Payload: p}
}

func InvoiceCreatedMessage(invoiceID string) Message {
	return Message{Type: MsgInvoiceCreated, Payload: InvoiceCreatedPayload{InvoiceID: invoiceID}}
}

func PaymentConfirmedMessage() Message {
	return Message{Type: MsgPaymentConfirmed, Payload: struct{}{}}
}

func ConeCountMessage(count int) Message {
	return Message{Type: MsgConeCountUpdated, Payload: ConeCountPayload{ConeCount: count}}
}

func ContactUpdatedMessage() Message {
	return Message{Type: MsgContactUpdated, Payload: struct{}{}}
}

// ErrorMessage reports a failed command. Internal failures are not described to the client.
func ErrorMessage(cmd MessageType, err error) Message {
	code := ErrorCode(err)
	text := err.Error()
	if code == CodeInternal {
		text = "internal error"
	}
	return Message{Type: MsgError, Payload: ErrorPayload{
		Code:    code,
		Message: text,
		Command: cmd,
	}}
}
