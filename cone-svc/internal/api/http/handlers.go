package httpapi

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"blockandjerrys/cone-svc/internal/domain"
	"blockandjerrys/cone-svc/internal/service"

	"github.com/goccy/go-json"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// ConeState is the read side of the process-wide derived state.
type ConeState interface {
	ConeCount() int
	Menu() []domain.MenuItem
}

type InvoiceLookup interface {
	FindOrderByInvoice(ctx context.Context, invoice string) (*domain.Order, error)
}

// Pinger reports whether a backing dependency is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Handler struct {
	ServiceName string
	State       ConeState
	Orders      InvoiceLookup
	QR          service.QRGenerator
	Checks      map[string]Pinger
	Socket      http.Handler
	Metrics     http.Handler
	Logger      *zap.Logger
}

func (h *Handler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/health", h.healthCheck).Methods("GET")

	r.HandleFunc("/api/menu", h.getMenu).Methods("GET")
	r.HandleFunc("/api/cones", h.getConeCount).Methods("GET")
	r.HandleFunc("/api/invoices/{invoice}/qrcode", h.getInvoiceQRCode).Methods("GET")

	if h.Socket != nil {
		r.Handle("/ws", h.Socket)
	}
	if h.Metrics != nil {
		r.Handle("/metrics", h.Metrics).Methods("GET")
	}
}

func (h *Handler) healthCheck(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	status := "healthy"
	code := http.StatusOK
	deps := make(map[string]string, len(h.Checks))
	for name, check := range h.Checks {
		if err := check.Ping(ctx); err != nil {
			deps[name] = err.Error()
			status = "degraded"
			code = http.StatusServiceUnavailable
			continue
		}
		deps[name] = "ok"
	}

	writeJSON(w, code, map[string]interface{}{
		"status":       status,
		"service":      h.ServiceName,
		"timestamp":    time.Now().Format(time.RFC3339),
		"dependencies": deps,
	})
}

func (h *Handler) getMenu(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.State.Menu())
}

func (h *Handler) getConeCount(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, domain.ConeCountPayload{ConeCount: h.State.ConeCount()})
}

func (h *Handler) getInvoiceQRCode(w http.ResponseWriter, r *http.Request) {
	invoice := strings.TrimSpace(mux.Vars(r)["invoice"])
	if invoice == "" {
		http.Error(w, "invoice is required", http.StatusBadRequest)
		return
	}

	order, err := h.Orders.FindOrderByInvoice(r.Context(), invoice)
	if errors.Is(err, domain.ErrOrderNotFound) {
		http.Error(w, "Invoice not found", http.StatusNotFound)
		return
	}
	if err != nil {
		h.logger().Error("qrcode_lookup_failed", zap.Error(err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	if order.Status == domain.StatusPaid {
		http.Error(w, "Invoice already paid", http.StatusGone)
		return
	}

	img, err := h.QR.Generate(order.Invoice)
	if err != nil {
		h.logger().Error("qrcode_render_failed", zap.Error(err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "public, max-age=3600")
	w.WriteHeader(http.StatusOK)
	w.Write(img)
}

func (h *Handler) logger() *zap.Logger {
	if h.Logger == nil {
		return zap.NewNop()
	}
	return h.Logger
}

func writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}
