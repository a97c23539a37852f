package service_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"sync"

	"blockandjerrys/cone-svc/internal/domain"
	"blockandjerrys/cone-svc/internal/service"

	"github.com/shopspring/decimal"
)

// memoryStore is an OrderStore backed by maps, used where a sequence of events
// has to be checked against the derived cone count.
type memoryStore struct {
	mu     sync.Mutex
	nextID int
	orders map[int]*domain.Order
}

func newMemoryStore() *memoryStore {
	return &memoryStore{nextID: 1, orders: make(map[int]*domain.Order)}
}

func (s *memoryStore) CreateOrder(_ context.Context, order *domain.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.orders {
		if existing.Invoice == order.Invoice {
			return fmt.Errorf("duplicate invoice %q", order.Invoice)
		}
	}
	order.ID = s.nextID
	s.nextID++
	stored := *order
	stored.Items = append([]domain.OrderItem(nil), order.Items...)
	s.orders[order.ID] = &stored
	return nil
}

func (s *memoryStore) FindOrderByInvoice(_ context.Context, invoice string) (*domain.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, order := range s.orders {
		if order.Invoice == invoice {
			copied := *order
			return &copied, nil
		}
	}
	return nil, fmt.Errorf("invoice %q: %w", invoice, domain.ErrOrderNotFound)
}

func (s *memoryStore) FindLatestOrderByPhone(_ context.Context, phone string) (*domain.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var latest *domain.Order
	for _, order := range s.orders {
		if order.Phone == phone && (latest == nil || order.ID > latest.ID) {
			latest = order
		}
	}
	if latest == nil {
		return nil, fmt.Errorf("phone %q: %w", phone, domain.ErrOrderNotFound)
	}
	copied := *latest
	return &copied, nil
}

func (s *memoryStore) UpdateOrderEmail(_ context.Context, orderID int, email string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	order, ok := s.orders[orderID]
	if !ok {
		return domain.ErrOrderNotFound
	}
	order.Email = email
	return nil
}

func (s *memoryStore) UpdateOrderStatus(_ context.Context, orderID int, from, to domain.OrderStatus) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	order, ok := s.orders[orderID]
	if !ok {
		return false, domain.ErrOrderNotFound
	}
	if order.Status != from {
		return false, nil
	}
	order.Status = to
	return true, nil
}

func (s *memoryStore) SumPaidQuantities(_ context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	total := 0
	for _, order := range s.orders {
		if order.Status != domain.StatusPaid {
			continue
		}
		for _, item := range order.Items {
			total += item.Quantity
		}
	}
	return total, nil
}

func (s *memoryStore) ListMenu(_ context.Context) ([]domain.MenuItem, error) {
	return nil, nil
}

// recordingSink captures frames per connection and broadcasts in order.
type recordingSink struct {
	mu         sync.Mutex
	targeted   map[domain.ConnID][]domain.Message
	broadcasts []domain.Message
}

func newRecordingSink() *recordingSink {
	return &recordingSink{targeted: make(map[domain.ConnID][]domain.Message)}
}

func (s *recordingSink) SendToConnection(conn domain.ConnID, msg domain.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.targeted[conn] = append(s.targeted[conn], msg)
	return nil
}

func (s *recordingSink) BroadcastToAll(msg domain.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.broadcasts = append(s.broadcasts, msg)
}

func (s *recordingSink) sent(conn domain.ConnID, typ domain.MessageType) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, msg := range s.targeted[conn] {
		if msg.Type == typ {
			n++
		}
	}
	return n
}

// recordingDispatcher remembers every notification it was handed.
type recordingDispatcher struct {
	mu   sync.Mutex
	sent []domain.Notification
}

func (d *recordingDispatcher) Send(_ context.Context, n domain.Notification) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.sent = append(d.sent, n)
	return nil
}

func (d *recordingDispatcher) recipients() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]string, 0, len(d.sent))
	for _, n := range d.sent {
		out = append(out, n.To)
	}
	sort.Strings(out)
	return out
}

// scriptedStream replays its events and then returns err.
type scriptedStream struct {
	events []domain.Settlement
	err    error
	closed bool
}

func (s *scriptedStream) Recv() (domain.Settlement, error) {
	if len(s.events) > 0 {
		evt := s.events[0]
		s.events = s.events[1:]
		return evt, nil
	}
	if s.err != nil {
		return domain.Settlement{}, s.err
	}
	return domain.Settlement{}, io.EOF
}

func (s *scriptedStream) Close() error {
	s.closed = true
	return nil
}

// scriptedGateway hands out one scripted stream per subscription and records
// the settle index each subscription resumed from.
type scriptedGateway struct {
	mu           sync.Mutex
	streams      []*scriptedStream
	resumedFrom  []uint64
	subscribeErr error
}

func (g *scriptedGateway) CreateInvoice(context.Context, decimal.Decimal, string) (domain.Invoice, error) {
	return domain.Invoice{}, errors.New("not scripted")
}

func (g *scriptedGateway) SubscribeSettlements(ctx context.Context, afterIndex uint64) (service.SettlementStream, error) {
	g.mu.Lock()
	g.resumedFrom = append(g.resumedFrom, afterIndex)
	if g.subscribeErr != nil {
		err := g.subscribeErr
		g.subscribeErr = nil
		g.mu.Unlock()
		return nil, err
	}
	if len(g.streams) == 0 {
		g.mu.Unlock()
		<-ctx.Done()
		return nil, ctx.Err()
	}
	stream := g.streams[0]
	g.streams = g.streams[1:]
	g.mu.Unlock()
	return stream, nil
}

func (g *scriptedGateway) resumes() []uint64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]uint64(nil), g.resumedFrom...)
}

// memoryCursor is an in-memory SettlementCursor.
type memoryCursor struct {
	mu    sync.Mutex
	index uint64
	saved []uint64
}

func (c *memoryCursor) LoadSettleIndex(context.Context) (uint64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.index, nil
}

func (c *memoryCursor) SaveSettleIndex(_ context.Context, index uint64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.index = index
	c.saved = append(c.saved, index)
	return nil
}

func (c *memoryCursor) savedIndexes() []uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]uint64(nil), c.saved...)
}
