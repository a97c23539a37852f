// Package sms delivers text messages through the Twilio REST API.
package sms

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"blockandjerrys/notify-svc/internal/domain"

	"github.com/twilio/twilio-go"
	twilioclient "github.com/twilio/twilio-go/client"
	openapi "github.com/twilio/twilio-go/rest/api/v2010"
)

// MessageCreator is the slice of the Twilio API the sender uses.
type MessageCreator interface {
	CreateMessage(params *openapi.CreateMessageParams) (*openapi.ApiV2010Message, error)
}

type TwilioClient struct {
	Messages MessageCreator
}

func NewTwilioClient(accountSID, authToken string) *TwilioClient {
	rest := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: accountSID,
		Password: authToken,
	})
	return &TwilioClient{Messages: rest.Api}
}

// Send creates one message. 4xx responses other than 429 wrap domain.ErrRejected.
func (c *TwilioClient) Send(ctx context.Context, n domain.Notification) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	params := &openapi.CreateMessageParams{}
	params.SetTo(n.To)
	params.SetFrom(n.From)
	params.SetBody(n.Body)

	if _, err := c.Messages.CreateMessage(params); err != nil {
		var restErr *twilioclient.TwilioRestError
		if errors.As(err, &restErr) && restErr.Status >= 400 && restErr.Status < 500 && restErr.Status != http.StatusTooManyRequests {
			return fmt.Errorf("%w: twilio returned %d (code %d): %s", domain.ErrRejected, restErr.Status, restErr.Code, restErr.Message)
		}
		return fmt.Errorf("twilio create message: %w", err)
	}
	return nil
}
