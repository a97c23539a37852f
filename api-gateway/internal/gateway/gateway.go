// Package gateway is the edge in front of cone-svc: it forwards the REST
// API and the order websocket and serves the storefront.
package gateway

import (
	"fmt"
	"io"
	"net/http"
	"net/http/httputil"
	"net/url"
	"strings"
	"time"

	"blockandjerrys/logging"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

type Config struct {
	ConeSvcURL  string
	FrontendDir string
}

type Gateway struct {
	config Config
	client HTTPClient
	socket http.Handler
	logger *zap.Logger
}

// hop-by-hop headers are never forwarded.
var hopHeaders = []string{
	"Connection", "Keep-Alive", "Proxy-Authenticate", "Proxy-Authorization",
	"Te", "Trailer", "Transfer-Encoding", "Upgrade",
}

func NewGateway(config Config, client HTTPClient, logger *zap.Logger) (*Gateway, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	target, err := url.Parse(strings.TrimRight(config.ConeSvcURL, "/"))
	if err != nil || target.Scheme == "" || target.Host == "" {
		return nil, fmt.Errorf("invalid cone-svc url %q", config.ConeSvcURL)
	}
	config.ConeSvcURL = target.String()

	socket := httputil.NewSingleHostReverseProxy(target)
	socket.ErrorHandler = func(w http.ResponseWriter, r *http.Request, err error) {
		logging.FromContext(r.Context()).Warn("websocket_proxy_failed", zap.Error(err))
		writeError(w, http.StatusBadGateway, "cone-svc unavailable")
	}

	return &Gateway{config: config, client: client, socket: socket, logger: logger}, nil
}

func (g *Gateway) HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"service": "api-gateway",
	})
}

// ProxyRequest forwards r to cone-svc over the gateway's client.
func (g *Gateway) ProxyRequest(w http.ResponseWriter, r *http.Request) {
	logger := logging.FromContext(r.Context())

	target := g.config.ConeSvcURL + r.URL.Path
	if r.URL.RawQuery != "" {
		target += "?" + r.URL.RawQuery
	}

	req, err := http.NewRequestWithContext(r.Context(), r.Method, target, r.Body)
	if err != nil {
		logger.Error("proxy_request_build_failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "could not build upstream request")
		return
	}
	req.Header = r.Header.Clone()
	for _, h := range hopHeaders {
		req.Header.Del(h)
	}
	if id := w.Header().Get("X-Request-ID"); id != "" {
		req.Header.Set("X-Request-ID", id)
	}

	resp, err := g.client.Do(req)
	if err != nil {
		logger.Warn("proxy_upstream_failed", zap.String("target", target), zap.Error(err))
		writeError(w, http.StatusBadGateway, "cone-svc unavailable")
		return
	}
	defer resp.Body.Close()

	for k, v := range resp.Header {
		w.Header()[k] = v
	}
	for _, h := range hopHeaders {
		w.Header().Del(h)
	}
	w.WriteHeader(resp.StatusCode)

	if _, err := io.Copy(w, resp.Body); err != nil {
		logger.Warn("proxy_copy_failed", zap.Error(err))
	}
}

// SocketProxy forwards the websocket upgrade to cone-svc.
func (g *Gateway) SocketProxy(w http.ResponseWriter, r *http.Request) {
	g.socket.ServeHTTP(w, r)
}

func (g *Gateway) frontend() http.Handler {
	files := http.FileServer(http.Dir(g.config.FrontendDir))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/api/") {
			writeError(w, http.StatusNotFound, "API route not found")
			return
		}
		files.ServeHTTP(w, r)
	})
}

func (g *Gateway) SetupRoutes() http.Handler {
	r := mux.NewRouter()
	r.Use(g.requestLogger)
	r.HandleFunc("/health", g.HealthCheck).Methods(http.MethodGet)
	r.PathPrefix("/api/").HandlerFunc(g.ProxyRequest)
	r.Handle("/ws", http.HandlerFunc(g.SocketProxy))
	r.PathPrefix("/").Handler(g.frontend())
	return r
}

// requestLogger tags every request with an id and a request-scoped logger.
func (g *Gateway) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", id)

		logger := g.logger.With(
			zap.String("request_id", id),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
		)
		start := time.Now()
		next.ServeHTTP(w, r.WithContext(logging.ContextWithLogger(r.Context(), logger)))
		logger.Debug("request_served", zap.Duration("elapsed", time.Since(start)))
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
