package payment

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTokenValid(t *testing.T) {
	cases := []struct {
		name     string
		received string
		expected string
		want     bool
	}{
		{"empty secret accepts all", "anything", "", true},
		{"empty secret accepts empty", "", "   ", true},
		{"matching token", "s3cret", "s3cret", true},
		{"matching token with padding", " s3cret ", "s3cret", true},
		{"wrong token", "nope", "s3cret", false},
		{"missing token", "", "s3cret", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, TokenValid(tc.received, tc.expected))
		})
	}
}

func TestParseEventCheckoutPaid(t *testing.T) {
	body := []byte(`{"event":"CHECKOUT_PAID","checkout":{"id":"chk-42"}}`)
	conf, err := ParseEvent(body)
	assert.NoError(t, err)
	assert.Equal(t, "chk-42", conf.CheckoutID)
}

func TestParseEventIgnoresOtherKinds(t *testing.T) {
	for _, body := range []string{
		`{"event":"CHECKOUT_CREATED","checkout":{"id":"chk-42"}}`,
		`{"event":"PAYMENT_RECEIVED"}`,
		`{"event":"CHECKOUT_PAID"}`,
		`{"event":"CHECKOUT_PAID","checkout":{}}`,
		`{}`,
	} {
		_, err := ParseEvent([]byte(body))
		assert.ErrorIs(t, err, ErrIgnoredEvent, body)
	}
}

func TestParseEventMalformedJSON(t *testing.T) {
	_, err := ParseEvent([]byte(`{not json`))
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrIgnoredEvent)
}
