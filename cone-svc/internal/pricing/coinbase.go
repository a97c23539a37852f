// Package pricing fetches the BTC/USD spot quote used to price invoices.
package pricing

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"blockandjerrys/cone-svc/internal/service"

	"github.com/goccy/go-json"
	"github.com/shopspring/decimal"
)

const DefaultURL = "https://api.coinbase.com/v2/prices/BTC-USD/spot"

type spotResponse struct {
	Data struct {
		Amount   decimal.Decimal `json:"amount"`
		Currency string          `json:"currency"`
	} `json:"data"`
}

// SpotOracle reads the Coinbase v2 spot price endpoint.
type SpotOracle struct {
	URL    string
	Client *http.Client
}

var _ service.PriceOracle = (*SpotOracle)(nil)

func NewSpotOracle(url string, timeout time.Duration) *SpotOracle {
	if url == "" {
		url = DefaultURL
	}
	return &SpotOracle{URL: url, Client: &http.Client{Timeout: timeout}}
}

func (o *SpotOracle) Quote(ctx context.Context) (decimal.Decimal, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, o.URL, nil)
	if err != nil {
		return decimal.Zero, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := o.Client.Do(req)
	if err != nil {
		return decimal.Zero, fmt.Errorf("fetch spot price: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return decimal.Zero, fmt.Errorf("fetch spot price: status %d", resp.StatusCode)
	}

	var out spotResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return decimal.Zero, fmt.Errorf("decode spot price: %w", err)
	}
	if !out.Data.Amount.IsPositive() {
		return decimal.Zero, fmt.Errorf("spot price %s is not positive", out.Data.Amount)
	}
	return out.Data.Amount, nil
}
