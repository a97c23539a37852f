// Package lightning talks to an lnd node over its REST gateway.
package lightning

import (
	"bufio"
	"bytes"
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"blockandjerrys/cone-svc/internal/domain"
	"blockandjerrys/cone-svc/internal/service"

	"github.com/goccy/go-json"
	"github.com/shopspring/decimal"
)

const (
	macaroonHeader  = "Grpc-Metadata-macaroon"
	invoiceState    = "SETTLED"
	requestTimeout  = 15 * time.Second
	satoshisPerBTC  = 100_000_000
	maxErrorBodyLen = 512
)

type Config struct {
	BaseURL      string
	MacaroonPath string
	TLSCertPath  string
}

// Client implements service.PaymentGateway against lnd's /v1 REST API.
type Client struct {
	baseURL  string
	macaroon string
	http     *http.Client
	stream   *http.Client
}

var _ service.PaymentGateway = (*Client)(nil)

// New builds a client from cfg. The macaroon and certificate are optional so a
// plain-HTTP regtest node can be used.
func New(cfg Config) (*Client, error) {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	if cfg.TLSCertPath != "" {
		pem, err := os.ReadFile(cfg.TLSCertPath)
		if err != nil {
			return nil, fmt.Errorf("read lnd tls cert: %w", err)
		}
		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM(pem) {
			return nil, fmt.Errorf("lnd tls cert %s: no certificates found", cfg.TLSCertPath)
		}
		transport.TLSClientConfig = &tls.Config{RootCAs: pool, MinVersion: tls.VersionTLS12}
	}

	var macaroon string
	if cfg.MacaroonPath != "" {
		raw, err := os.ReadFile(cfg.MacaroonPath)
		if err != nil {
			return nil, fmt.Errorf("read lnd macaroon: %w", err)
		}
		macaroon = hex.EncodeToString(raw)
	}

	return &Client{
		baseURL:  strings.TrimRight(cfg.BaseURL, "/"),
		macaroon: macaroon,
		http:     &http.Client{Transport: transport, Timeout: requestTimeout},
		stream:   &http.Client{Transport: transport},
	}, nil
}

type addInvoiceRequest struct {
	Value string `json:"value"`
	Memo  string `json:"memo"`
}

type addInvoiceResponse struct {
	RHash          string `json:"r_hash"`
	PaymentRequest string `json:"payment_request"`
	AddIndex       string `json:"add_index"`
}

// CreateInvoice asks the node for an invoice of amount BTC. The amount is
// rounded up to whole satoshis.
func (c *Client) CreateInvoice(ctx context.Context, amount decimal.Decimal, memo string) (domain.Invoice, error) {
	sats := ToSatoshis(amount)
	if sats <= 0 {
		return domain.Invoice{}, fmt.Errorf("%w: amount %s rounds to zero satoshis", domain.ErrInvoiceCreation, amount)
	}

	body, err := json.Marshal(addInvoiceRequest{Value: strconv.FormatInt(sats, 10), Memo: memo})
	if err != nil {
		return domain.Invoice{}, fmt.Errorf("%w: encode request: %v", domain.ErrInvoiceCreation, err)
	}
	req, err := c.newRequest(ctx, http.MethodPost, "/v1/invoices", bytes.NewReader(body))
	if err != nil {
		return domain.Invoice{}, fmt.Errorf("%w: %v", domain.ErrInvoiceCreation, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return domain.Invoice{}, fmt.Errorf("%w: %v", domain.ErrInvoiceCreation, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return domain.Invoice{}, fmt.Errorf("%w: read response: %v", domain.ErrInvoiceCreation, err)
	}
	if resp.StatusCode != http.StatusOK {
		return domain.Invoice{}, fmt.Errorf("%w: lnd returned %d: %s", domain.ErrInvoiceCreation, resp.StatusCode, truncate(raw))
	}

	var out addInvoiceResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return domain.Invoice{}, fmt.Errorf("%w: decode response: %v", domain.ErrInvoiceCreation, err)
	}
	if out.PaymentRequest == "" {
		return domain.Invoice{}, fmt.Errorf("%w: empty payment request", domain.ErrInvoiceCreation)
	}
	return domain.Invoice{ID: out.PaymentRequest, Raw: raw}, nil
}

// SubscribeSettlements opens lnd's invoice subscription. With a non-zero
// afterIndex lnd first replays every invoice settled after it. The returned
// stream only yields settled invoices.
func (c *Client) SubscribeSettlements(ctx context.Context, afterIndex uint64) (service.SettlementStream, error) {
	path := "/v1/invoices/subscribe"
	if afterIndex > 0 {
		path += "?" + url.Values{"settle_index": {strconv.FormatUint(afterIndex, 10)}}.Encode()
	}
	req, err := c.newRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.stream.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: subscribe invoices: %v", domain.ErrUpstreamUnavailable, err)
	}
	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyLen))
		resp.Body.Close()
		return nil, fmt.Errorf("%w: subscribe invoices returned %d: %s", domain.ErrUpstreamUnavailable, resp.StatusCode, raw)
	}
	return &invoiceStream{body: resp.Body, dec: json.NewDecoder(bufio.NewReader(resp.Body))}, nil
}

func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, err
	}
	if c.macaroon != "" {
		req.Header.Set(macaroonHeader, c.macaroon)
	}
	return req, nil
}

type streamFrame struct {
	Result *streamInvoice `json:"result"`
	Error  *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

type streamInvoice struct {
	PaymentRequest string `json:"payment_request"`
	State          string `json:"state"`
	SettleDate     string `json:"settle_date"`
	SettleIndex    string `json:"settle_index"`
}

type invoiceStream struct {
	body io.ReadCloser
	dec  *json.Decoder
}

func (s *invoiceStream) Recv() (domain.Settlement, error) {
	for {
		var frame streamFrame
		if err := s.dec.Decode(&frame); err != nil {
			return domain.Settlement{}, err
		}
		if frame.Error != nil {
			return domain.Settlement{}, fmt.Errorf("%w: lnd stream error %d: %s", domain.ErrUpstreamUnavailable, frame.Error.Code, frame.Error.Message)
		}
		if frame.Result == nil || frame.Result.State != invoiceState || frame.Result.PaymentRequest == "" {
			continue
		}
		return domain.Settlement{
			InvoiceID:   frame.Result.PaymentRequest,
			SettledAt:   parseUnix(frame.Result.SettleDate),
			SettleIndex: parseIndex(frame.Result.SettleIndex),
		}, nil
	}
}

func (s *invoiceStream) Close() error {
	return s.body.Close()
}

// ToSatoshis converts a BTC amount to satoshis, rounding any fraction up.
func ToSatoshis(btc decimal.Decimal) int64 {
	return btc.Mul(decimal.NewFromInt(satoshisPerBTC)).Ceil().IntPart()
}

func parseUnix(s string) time.Time {
	secs, err := strconv.ParseInt(s, 10, 64)
	if err != nil || secs <= 0 {
		return time.Time{}
	}
	return time.Unix(secs, 0).UTC()
}

func parseIndex(s string) uint64 {
	index, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0
	}
	return index
}

func truncate(b []byte) string {
	if len(b) > maxErrorBodyLen {
		b = b[:maxErrorBodyLen]
	}
	return strings.TrimSpace(string(b))
}
