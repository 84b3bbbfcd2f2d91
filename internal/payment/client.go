package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/shopspring/decimal"
)

// Placeholder 1x1 transparent PNG; Asaas requires an image on every
// checkout item.
const itemImageBase64 = "iVBORw0KGgoAAAANSUhEUgAAAAEAAAABCAYAAAAfFcSJAAAADUlEQVR42mNk+M9QDwADhgGAWjR9awAAAABJRU5ErkJggg=="

type Checkout struct {
	ID  string
	URL string
}

type Client struct {
	Client     *http.Client
	APIKey     string
	Production bool
	// BaseURL overrides the sandbox/production host, for tests.
	BaseURL string
}

func (c *Client) baseURL() string {
	if c.BaseURL != "" {
		return c.BaseURL
	}
	if c.Production {
		return "https://api.asaas.com"
	}
	return "https://api-sandbox.asaas.com"
}

func (c *Client) checkoutPageURL(checkoutID string) string {
	host := "sandbox.asaas.com"
	if c.Production {
		host = "asaas.com"
	}
	return fmt.Sprintf("https://%s/checkoutSession/show?id=%s", host, checkoutID)
}

type checkoutRequest struct {
	BillingTypes      []string         `json:"billingTypes"`
	ChargeTypes       []string         `json:"chargeTypes"`
	ExternalReference string           `json:"externalReference"`
	Callback          checkoutCallback `json:"callback"`
	Items             []checkoutItem   `json:"items"`
	CustomerData      customerData     `json:"customerData"`
	MinutesToExpire   int              `json:"minutesToExpire"`
}

type checkoutCallback struct {
	SuccessURL string `json:"successUrl"`
	CancelURL  string `json:"cancelUrl"`
}

type checkoutItem struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Quantity    int     `json:"quantity"`
	Value       float64 `json:"value"`
	ImageBase64 string  `json:"imageBase64"`
}

type customerData struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

type checkoutResponse struct {
	ID string `json:"id"`
}

type apiError struct {
	Errors []struct {
		Description string `json:"description"`
	} `json:"errors"`
}

// CreateCheckout opens a hosted checkout session for the order. The order
// id travels as externalReference and comes back on the webhook through
// the checkout correlation.
func (c *Client) CreateCheckout(ctx context.Context, orderID string, value decimal.Decimal, customerName, customerEmail, successURL, cancelURL string) (*Checkout, error) {
	if c.APIKey == "" {
		return nil, fmt.Errorf("asaas: api key not configured")
	}
	if len(customerName) > 255 {
		customerName = customerName[:255]
	}
	payload := checkoutRequest{
		BillingTypes:      []string{"CREDIT_CARD", "PIX"},
		ChargeTypes:       []string{"DETACHED"},
		ExternalReference: orderID,
		Callback:          checkoutCallback{SuccessURL: successURL, CancelURL: cancelURL},
		Items: []checkoutItem{{
			Name:        "Livro Pet Story",
			Description: "Livro de colorir personalizado do seu pet",
			Quantity:    1,
			Value:       value.Round(2).InexactFloat64(),
			ImageBase64: itemImageBase64,
		}},
		CustomerData:    customerData{Name: customerName, Email: customerEmail},
		MinutesToExpire: 30,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode checkout: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL()+"/v3/checkouts", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("access_token", c.APIKey)

	resp, err := c.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var ae apiError
		if err := json.NewDecoder(resp.Body).Decode(&ae); err == nil && len(ae.Errors) > 0 {
			return nil, fmt.Errorf("asaas: %s", ae.Errors[0].Description)
		}
		return nil, fmt.Errorf("asaas: unexpected status %d", resp.StatusCode)
	}

	var cr checkoutResponse
	if err := json.NewDecoder(resp.Body).Decode(&cr); err != nil {
		return nil, fmt.Errorf("decode body: %w", err)
	}
	if cr.ID == "" {
		return nil, fmt.Errorf("asaas: resposta sem id de checkout")
	}
	return &Checkout{ID: cr.ID, URL: c.checkoutPageURL(cr.ID)}, nil
}
