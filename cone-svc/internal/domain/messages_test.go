package domain

import (
	"testing"

	"github.com/goccy/go-json"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitMessage_EncodesNumbers(t *testing.T) {
	msg := InitMessage(InitPayload{
		ConeCount: 3,
		Menu:      []MenuItem{{ID: 1, Flavor: "Vanilla", Price: decimal.RequireFromString("3.50")}},
		Quote:     decimal.NewFromInt(20000),
	})

	raw, err := json.Marshal(msg)
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"INIT","payload":{"coneCount":3,"menu":[{"id":1,"flavor":"Vanilla","price":3.5}],"quote":20000}}`, string(raw))
}

func TestInvoiceRequest_AcceptsQuotedAndBareTotals(t *testing.T) {
	for _, body := range []string{`{"cartTotal":"10.25"}`, `{"cartTotal":10.25}`} {
		var req InvoiceRequest
		require.NoError(t, json.Unmarshal([]byte(body), &req), body)
		assert.True(t, req.CartTotal.Equal(decimal.RequireFromString("10.25")), body)
	}
}

func TestErrorMessage_HidesInternalErrors(t *testing.T) {
	payload := ErrorMessage(MsgRequestInvoice, assert.AnError).Payload.(ErrorPayload)
	assert.Equal(t, CodeInternal, payload.Code)
	assert.Equal(t, "internal error", payload.Message)

	payload = ErrorMessage(MsgRequestInvoice, ErrRateLimited).Payload.(ErrorPayload)
	assert.Equal(t, CodeRateLimited, payload.Code)
}
