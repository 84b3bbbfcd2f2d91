package payment

import (
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// EventCheckoutPaid is the only event kind that confirms payment; every
// other kind is acknowledged and ignored.
const EventCheckoutPaid = "CHECKOUT_PAID"

// TokenHeader carries the shared webhook secret on Asaas requests.
const TokenHeader = "asaas-access-token"

// ErrIgnoredEvent marks webhook payloads that are valid but carry no
// payment confirmation for us.
var ErrIgnoredEvent = errors.New("event ignored")

type webhookEvent struct {
	Event    string `json:"event"`
	Checkout *struct {
		ID string `json:"id"`
	} `json:"checkout"`
}

// Confirmation is a parsed payment-completed event.
type Confirmation struct {
	CheckoutID string
}

// TokenValid checks the webhook shared secret in constant time. An empty
// configured token accepts every request; that permissive default follows
// the Asaas setup where the token is optional, and main logs a warning
// when it is in effect.
func TokenValid(received, expected string) bool {
	expected = strings.TrimSpace(expected)
	if expected == "" {
		return true
	}
	received = strings.TrimSpace(received)
	return subtle.ConstantTimeCompare([]byte(received), []byte(expected)) == 1
}

// ParseEvent extracts the checkout correlation id from a CHECKOUT_PAID
// payload. Anything else returns ErrIgnoredEvent; malformed JSON is its
// own error so the caller can tell noise from garbage.
func ParseEvent(body []byte) (*Confirmation, error) {
	var ev webhookEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return nil, fmt.Errorf("decode event: %w", err)
	}
	if ev.Event != EventCheckoutPaid {
		return nil, ErrIgnoredEvent
	}
	if ev.Checkout == nil || ev.Checkout.ID == "" {
		return nil, ErrIgnoredEvent
	}
	return &Confirmation{CheckoutID: ev.Checkout.ID}, nil
}
