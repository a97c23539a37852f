package domain

import "errors"

// Notification is the message cone-svc publishes for every SMS it wants sent.
type Notification struct {
	To   string `json:"to"`
	From string `json:"from"`
	Body string `json:"body"`
}

var (
	// ErrRejected marks a delivery the provider refused outright; retrying will not help.
	ErrRejected     = errors.New("notification rejected")
	ErrInvalidInput = errors.New("invalid notification")
)
