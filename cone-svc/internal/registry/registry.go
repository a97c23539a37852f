// Package registry tracks which live connection is waiting on which unpaid invoice.
package registry

import (
	"context"
	"fmt"
	"sync"
	"time"

	"blockandjerrys/cone-svc/internal/domain"
)

// Entry is one pending invoice registration.
type Entry struct {
	Conn         domain.ConnID
	OrderID      int
	RegisteredAt time.Time
}

// Registry maps invoice identifiers to the connection and order that created them.
// Entries leave the registry when resolved, when their connection drops, or when
// Sweep finds them older than the configured TTL.
type Registry struct {
	mu      sync.Mutex
	entries map[string]Entry
	byConn  map[domain.ConnID]map[string]struct{}
	ttl     time.Duration
	now     func() time.Time
}

// New returns an empty registry. A ttl of zero disables age-based eviction.
func New(ttl time.Duration) *Registry {
	return &Registry{
		entries: make(map[string]Entry),
		byConn:  make(map[domain.ConnID]map[string]struct{}),
		ttl:     ttl,
		now:     time.Now,
	}
}

func (r *Registry) Register(invoiceID string, conn domain.ConnID, orderID int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.entries[invoiceID]; exists {
		return fmt.Errorf("register %q: %w", invoiceID, domain.ErrDuplicateInvoice)
	}
	r.entries[invoiceID] = Entry{Conn: conn, OrderID: orderID, RegisteredAt: r.now()}
	invoices, ok := r.byConn[conn]
	if !ok {
		invoices = make(map[string]struct{})
		r.byConn[conn] = invoices
	}
	invoices[invoiceID] = struct{}{}
	return nil
}

// Resolve returns and retires the registration for invoiceID.
func (r *Registry) Resolve(invoiceID string) (domain.ConnID, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.entries[invoiceID]
	if !ok {
		return "", 0, fmt.Errorf("resolve %q: %w", invoiceID, domain.ErrUnknownInvoice)
	}
	r.removeLocked(invoiceID, entry.Conn)
	return entry.Conn, entry.OrderID, nil
}

// DropConnection removes every registration owned by conn and returns how many were dropped.
// Settlements for those invoices still mark the order paid but reach no client.
func (r *Registry) DropConnection(conn domain.ConnID) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	invoices := r.byConn[conn]
	for invoiceID := range invoices {
		delete(r.entries, invoiceID)
	}
	delete(r.byConn, conn)
	return len(invoices)
}

// Sweep evicts registrations older than the TTL and returns the evicted invoice ids.
func (r *Registry) Sweep() []string {
	if r.ttl <= 0 {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	cutoff := r.now().Add(-r.ttl)
	var evicted []string
	for invoiceID, entry := range r.entries {
		if entry.RegisteredAt.Before(cutoff) {
			r.removeLocked(invoiceID, entry.Conn)
			evicted = append(evicted, invoiceID)
		}
	}
	return evicted
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

func (r *Registry) removeLocked(invoiceID string, conn domain.ConnID) {
	delete(r.entries, invoiceID)
	if invoices, ok := r.byConn[conn]; ok {
		delete(invoices, invoiceID)
		if len(invoices) == 0 {
			delete(r.byConn, conn)
		}
	}
}

// RunSweeper calls Sweep every interval until ctx is done. onEvict may be nil.
func (r *Registry) RunSweeper(ctx context.Context, interval time.Duration, onEvict func([]string)) {
	if r.ttl <= 0 || interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if evicted := r.Sweep(); len(evicted) > 0 && onEvict != nil {
				onEvict(evicted)
			}
		}
	}
}
