package whatsapp

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/twilio/twilio-go"
	twilioclient "github.com/twilio/twilio-go/client"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"
)

// MessageCreator is the subset of the Twilio REST API used here.
type MessageCreator interface {
	CreateMessage(params *twilioApi.CreateMessageParams) (*twilioApi.ApiV2010Message, error)
}

// Twilio sends WhatsApp messages through Twilio's Messages API.
type Twilio struct {
	api  MessageCreator
	from string
}

func NewTwilio(accountSID, authToken, from string) *Twilio {
	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: accountSID,
		Password: authToken,
	})
	return NewTwilioWithAPI(client.Api, from)
}

func NewTwilioWithAPI(api MessageCreator, from string) *Twilio {
	return &Twilio{api: api, from: whatsappAddress(from)}
}

// Send ignores ctx: the Twilio SDK call is not context-aware.
func (t *Twilio) Send(_ context.Context, destination, message string) error {
	params := &twilioApi.CreateMessageParams{}
	params.SetTo(whatsappAddress(destination))
	params.SetFrom(t.from)
	params.SetBody(message)

	if _, err := t.api.CreateMessage(params); err != nil {
		var restErr *twilioclient.TwilioRestError
		if errors.As(err, &restErr) {
			return fmt.Errorf("failed to send WhatsApp message: %s", restErr.Message)
		}
		return fmt.Errorf("%w: %v", ErrUnreachable, err)
	}
	return nil
}

func whatsappAddress(number string) string {
	if strings.HasPrefix(number, "whatsapp:") {
		return number
	}
	return "whatsapp:+" + digits(number)
}
