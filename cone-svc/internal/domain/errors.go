package domain

import (
	"errors"
	"fmt"
)

var (
	ErrValidation = errors.New("invalid command payload")

	ErrUpstreamUnavailable = errors.New("upstream unavailable")
	ErrQuoteUnavailable    = fmt.Errorf("price quote unavailable: %w", ErrUpstreamUnavailable)
	ErrInvoiceCreation     = fmt.Errorf("invoice creation failed: %w", ErrUpstreamUnavailable)

	ErrUnknownInvoice      = errors.New("no pending registration for invoice")
	ErrUnknownOrder        = errors.New("no order for invoice")
	ErrDuplicateInvoice    = errors.New("invoice already registered")
	ErrDuplicateSettlement = errors.New("invoice already settled")

	ErrOrderNotFound  = errors.New("order not found")
	ErrConnectionGone = errors.New("connection gone")
	ErrRateLimited    = errors.New("too many requests")
)

// Wire codes carried in ERROR frames.
const (
	CodeValidation          = "validation"
	CodeUpstreamUnavailable = "upstream_unavailable"
	CodeOrderNotFound       = "order_not_found"
	CodeRateLimited         = "rate_limited"
	CodeInternal            = "internal"
)

// ErrorCode maps an error to the stable code reported to clients.
func ErrorCode(err error) string {
	switch {
	case errors.Is(err, ErrValidation):
		return CodeValidation
	case errors.Is(err, ErrUpstreamUnavailable):
		return CodeUpstreamUnavailable
	case errors.Is(err, ErrOrderNotFound):
		return CodeOrderNotFound
	case errors.Is(err, ErrRateLimited):
		return CodeRateLimited
	default:
		return CodeInternal
	}
}
