package service

import (
	"context"
	"fmt"
	"sync"

	"blockandjerrys/cone-svc/internal/domain"
	"blockandjerrys/cone-svc/internal/metrics"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// State owns the process-wide derived values pushed to clients: the paid cone
// count, the menu snapshot and the last price quote. Values are valid at the
// moment they are read; callers re-read after any blocking call.
type State struct {
	store   OrderStore
	oracle  PriceOracle
	log     *zap.Logger
	metrics *metrics.Metrics

	mu        sync.RWMutex
	coneCount int
	menu      []domain.MenuItem
	quote     decimal.Decimal
}

func NewState(store OrderStore, oracle PriceOracle, logger *zap.Logger, m *metrics.Metrics) *State {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &State{
		store:   store,
		oracle:  oracle,
		log:     logger.With(zap.String("component", "state")),
		metrics: m,
	}
}

// Init seeds the cone count and menu from the store and primes the quote.
// A failing oracle only leaves the quote at zero; store failures are returned.
func (s *State) Init(ctx context.Context) error {
	if _, err := s.RefreshConeCount(ctx); err != nil {
		return err
	}

	menu, err := s.store.ListMenu(ctx)
	if err != nil {
		return fmt.Errorf("load menu: %w", err)
	}
	s.mu.Lock()
	s.menu = menu
	s.mu.Unlock()

	if _, err := s.RefreshQuote(ctx); err != nil {
		s.log.Warn("initial_quote_unavailable", zap.Error(err))
	}
	return nil
}

// RefreshConeCount recomputes the count from the store's paid orders.
func (s *State) RefreshConeCount(ctx context.Context) (int, error) {
	count, err := s.store.SumPaidQuantities(ctx)
	if err != nil {
		return 0, fmt.Errorf("sum paid quantities: %w", err)
	}
	s.mu.Lock()
	s.coneCount = count
	s.mu.Unlock()
	s.metrics.SetConeCount(count)
	return count, nil
}

// RefreshQuote fetches a fresh quote and caches it for new connections.
func (s *State) RefreshQuote(ctx context.Context) (decimal.Decimal, error) {
	quote, err := s.oracle.Quote(ctx)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %v", domain.ErrQuoteUnavailable, err)
	}
	if !quote.IsPositive() {
		return decimal.Zero, fmt.Errorf("%w: non-positive quote %s", domain.ErrQuoteUnavailable, quote)
	}
	s.mu.Lock()
	s.quote = quote
	s.mu.Unlock()
	return quote, nil
}

func (s *State) ConeCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.coneCount
}

func (s *State) Menu() []domain.MenuItem {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.MenuItem, len(s.menu))
	copy(out, s.menu)
	return out
}

// Snapshot is the baseline a newly connected client receives.
func (s *State) Snapshot() domain.InitPayload {
	s.mu.RLock()
	defer s.mu.RUnlock()
	menu := make([]domain.MenuItem, len(s.menu))
	copy(menu, s.menu)
	return domain.InitPayload{
		ConeCount: s.coneCount,
		Menu:      menu,
		Quote:     s.quote,
	}
}
