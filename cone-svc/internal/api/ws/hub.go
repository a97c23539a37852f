// Package ws serves the browser websocket protocol and implements the
// service's client sink on top of it.
package ws

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"blockandjerrys/cone-svc/internal/domain"
	"blockandjerrys/cone-svc/internal/metrics"
	"blockandjerrys/cone-svc/internal/service"

	"github.com/coder/websocket"
	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/sourcegraph/conc"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	defaultSendBuffer   = 16
	defaultWriteTimeout = 5 * time.Second
	drainTimeout        = time.Second
	readLimitBytes      = 64 << 10
)

// Session is the per-connection command surface the hub drives.
type Session interface {
	Connect(conn domain.ConnID) error
	Disconnect(conn domain.ConnID)
	HandleInvoiceRequest(ctx context.Context, conn domain.ConnID, req domain.InvoiceRequest) (string, error)
	HandleContactUpdate(ctx context.Context, conn domain.ConnID, req domain.ContactUpdate) error
}

var _ Session = (*service.SessionGateway)(nil)

type Config struct {
	SendBuffer   int
	WriteTimeout time.Duration
	// InvoicesPerMinute caps REQUEST_INVOICE per connection; zero disables the cap.
	InvoicesPerMinute int
	// OriginPatterns are passed to the websocket handshake; empty means same origin only.
	OriginPatterns []string
}

type client struct {
	id      domain.ConnID
	conn    *websocket.Conn
	send    chan []byte
	done    chan struct{}
	drained chan struct{}
	once    sync.Once
	limiter *rate.Limiter
}

// close lets the writer flush queued frames, then runs the closing handshake.
func (c *client) close(code websocket.StatusCode, reason string) {
	c.once.Do(func() {
		close(c.done)
		select {
		case <-c.drained:
		case <-time.After(drainTimeout + time.Second):
		}
		_ = c.conn.Close(code, reason)
	})
}

// abort tears the connection down without waiting for the peer.
func (c *client) abort() {
	c.once.Do(func() {
		close(c.done)
		_ = c.conn.CloseNow()
	})
}

// Hub tracks live connections and fans frames out to them. Each connection has
// one writer goroutine fed by a bounded queue; a full queue drops the client.
type Hub struct {
	cfg     Config
	log     *zap.Logger
	metrics *metrics.Metrics

	mu      sync.RWMutex
	clients map[domain.ConnID]*client
}

var _ service.ClientSink = (*Hub)(nil)

func NewHub(cfg Config, logger *zap.Logger, m *metrics.Metrics) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.SendBuffer <= 0 {
		cfg.SendBuffer = defaultSendBuffer
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = defaultWriteTimeout
	}
	return &Hub{
		cfg:     cfg,
		log:     logger.With(zap.String("component", "ws_hub")),
		metrics: m,
		clients: make(map[domain.ConnID]*client),
	}
}

// SendToConnection queues msg for one connection only.
func (h *Hub) SendToConnection(conn domain.ConnID, msg domain.Message) error {
	frame, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("encode %s: %w", msg.Type, err)
	}
	h.mu.RLock()
	c, ok := h.clients[conn]
	h.mu.RUnlock()
	if !ok {
		return fmt.Errorf("send %s to %s: %w", msg.Type, conn, domain.ErrConnectionGone)
	}
	return h.enqueue(c, frame)
}

// BroadcastToAll queues msg for every live connection.
func (h *Hub) BroadcastToAll(msg domain.Message) {
	frame, err := json.Marshal(msg)
	if err != nil {
		h.log.Error("broadcast_encode_failed", zap.String("type", string(msg.Type)), zap.Error(err))
		return
	}
	h.mu.RLock()
	targets := make([]*client, 0, len(h.clients))
	for _, c := range h.clients {
		targets = append(targets, c)
	}
	h.mu.RUnlock()

	for _, c := range targets {
		if err := h.enqueue(c, frame); err != nil {
			h.log.Debug("broadcast_skipped", zap.String("conn_id", string(c.id)), zap.Error(err))
		}
	}
}

func (h *Hub) enqueue(c *client, frame []byte) error {
	select {
	case <-c.done:
		return fmt.Errorf("send to %s: %w", c.id, domain.ErrConnectionGone)
	default:
	}
	select {
	case c.send <- frame:
		return nil
	case <-c.done:
		return fmt.Errorf("send to %s: %w", c.id, domain.ErrConnectionGone)
	default:
		h.log.Warn("slow_client_dropped", zap.String("conn_id", string(c.id)))
		h.remove(c)
		c.abort()
		return fmt.Errorf("send to %s: queue full: %w", c.id, domain.ErrConnectionGone)
	}
}

// Len reports the number of live connections.
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Close disconnects every client.
func (h *Hub) Close() {
	h.mu.Lock()
	clients := h.clients
	h.clients = make(map[domain.ConnID]*client)
	h.mu.Unlock()
	var wg conc.WaitGroup
	for _, c := range clients {
		wg.Go(func() { c.close(websocket.StatusGoingAway, "server shutting down") })
		h.metrics.ClientDisconnected()
	}
	wg.Wait()
}

func (h *Hub) add(c *client) {
	h.mu.Lock()
	h.clients[c.id] = c
	h.mu.Unlock()
	h.metrics.ClientConnected()
}

// remove reports whether c was still registered.
func (h *Hub) remove(c *client) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if current, ok := h.clients[c.id]; !ok || current != c {
		return false
	}
	delete(h.clients, c.id)
	h.metrics.ClientDisconnected()
	return true
}

// Handler upgrades requests and runs the protocol against session.
func (h *Hub) Handler(session Session) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{OriginPatterns: h.cfg.OriginPatterns})
		if err != nil {
			h.log.Warn("websocket_accept_failed", zap.Error(err))
			return
		}
		conn.SetReadLimit(readLimitBytes)
		h.serve(r.Context(), conn, session)
	})
}

func (h *Hub) serve(parent context.Context, conn *websocket.Conn, session Session) {
	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	c := &client{
		id:      domain.ConnID(uuid.NewString()),
		conn:    conn,
		send:    make(chan []byte, h.cfg.SendBuffer),
		done:    make(chan struct{}),
		drained: make(chan struct{}),
		limiter: newLimiter(h.cfg.InvoicesPerMinute),
	}
	logger := h.log.With(zap.String("conn_id", string(c.id)))
	h.add(c)
	logger.Info("client_connected")

	var wg conc.WaitGroup
	wg.Go(func() { h.writeLoop(ctx, c, logger) })

	defer func() {
		h.remove(c)
		session.Disconnect(c.id)
		c.close(websocket.StatusNormalClosure, "")
		cancel()
		wg.Wait()
		logger.Info("client_disconnected")
	}()

	if err := session.Connect(c.id); err != nil {
		logger.Warn("init_undelivered", zap.Error(err))
		return
	}

	if err := h.readLoop(ctx, c, session, logger); err != nil {
		logger.Debug("read_loop_ended", zap.Error(err))
	}
}

func (h *Hub) writeLoop(ctx context.Context, c *client, logger *zap.Logger) {
	defer close(c.drained)
	for {
		select {
		case <-ctx.Done():
			return
		case <-c.done:
			h.drain(c, logger)
			return
		case frame := <-c.send:
			writeCtx, cancel := context.WithTimeout(ctx, h.cfg.WriteTimeout)
			err := c.conn.Write(writeCtx, websocket.MessageText, frame)
			cancel()
			if err != nil {
				logger.Debug("write_failed", zap.Error(err))
				c.abort()
				return
			}
		}
	}
}

// drain writes whatever is still queued for c, giving up at drainTimeout.
func (h *Hub) drain(c *client, logger *zap.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), drainTimeout)
	defer cancel()
	for {
		select {
		case frame := <-c.send:
			if err := c.conn.Write(ctx, websocket.MessageText, frame); err != nil {
				logger.Debug("drain_write_failed", zap.Int("pending", len(c.send)), zap.Error(err))
				return
			}
		default:
			return
		}
	}
}

type envelope struct {
	Type    domain.MessageType `json:"type"`
	Payload json.RawMessage    `json:"payload"`
}

func (h *Hub) readLoop(ctx context.Context, c *client, session Session, logger *zap.Logger) error {
	for {
		msgType, data, err := c.conn.Read(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, net.ErrClosed) {
				return nil
			}
			if status := websocket.CloseStatus(err); status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway {
				return nil
			}
			return fmt.Errorf("read: %w", err)
		}
		if msgType != websocket.MessageText {
			continue
		}

		var env envelope
		if err := json.Unmarshal(data, &env); err != nil {
			h.reject(c, "", fmt.Errorf("%w: malformed frame", domain.ErrValidation), logger)
			continue
		}
		if err := h.dispatch(ctx, c, session, env); err != nil {
			h.reject(c, env.Type, err, logger)
		}
	}
}

func (h *Hub) dispatch(ctx context.Context, c *client, session Session, env envelope) error {
	switch env.Type {
	case domain.MsgRequestInvoice:
		if !c.limiter.Allow() {
			return fmt.Errorf("%w: too many invoice requests", domain.ErrRateLimited)
		}
		var req domain.InvoiceRequest
		if err := decodePayload(env.Payload, &req); err != nil {
			return err
		}
		_, err := session.HandleInvoiceRequest(ctx, c.id, req)
		return err
	case domain.MsgUpdateContact:
		var req domain.ContactUpdate
		if err := decodePayload(env.Payload, &req); err != nil {
			return err
		}
		return session.HandleContactUpdate(ctx, c.id, req)
	default:
		return fmt.Errorf("%w: unknown message type %q", domain.ErrValidation, env.Type)
	}
}

func (h *Hub) reject(c *client, cmd domain.MessageType, err error, logger *zap.Logger) {
	logger.Info("command_rejected", zap.String("type", string(cmd)), zap.String("code", domain.ErrorCode(err)), zap.Error(err))
	if sendErr := h.SendToConnection(c.id, domain.ErrorMessage(cmd, err)); sendErr != nil {
		logger.Debug("error_frame_undelivered", zap.Error(sendErr))
	}
}

func decodePayload(raw json.RawMessage, dst any) error {
	if len(raw) == 0 {
		return fmt.Errorf("%w: missing payload", domain.ErrValidation)
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("%w: malformed payload", domain.ErrValidation)
	}
	return nil
}

func newLimiter(perMinute int) *rate.Limiter {
	if perMinute <= 0 {
		return rate.NewLimiter(rate.Inf, 0)
	}
	return rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMinute)), perMinute)
}
