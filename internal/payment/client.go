package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

var (
	ErrOrderRejected = errors.New("payment provider rejected the order")
	ErrUnavailable   = errors.New("payment provider unavailable")
)

// Outcome is the only thing this service learns from the checkout widget:
// either a provider-issued payment identifier, or a dismissal with nothing.
type Outcome struct {
	PaymentID string `json:"payment_id"`
	Dismissed bool   `json:"dismissed"`
}

// Client creates orders against the payment provider's backend. The provider
// is opaque: one POST with an amount, one order identifier back. Verification
// of completed payments happens on the provider's side and is out of scope.
type Client struct {
	baseURL    string
	keyID      string
	keySecret  string
	httpClient *http.Client
}

func NewClient(baseURL, keyID, keySecret string, timeout time.Duration) *Client {
	return &Client{
		baseURL:   baseURL,
		keyID:     keyID,
		keySecret: keySecret,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

type createOrderRequest struct {
	AmountCents int    `json:"amount"`
	Currency    string `json:"currency"`
	Receipt     string `json:"receipt"`
}

type createOrderResponse struct {
	ID string `json:"id"`
}

// CreateOrder registers an order for the advance amount and returns the
// provider's order identifier, which the checkout widget is opened with.
func (c *Client) CreateOrder(ctx context.Context, amountCents int, receipt string) (string, error) {
	const op = "payment.Client.CreateOrder"

	body, err := json.Marshal(createOrderRequest{
		AmountCents: amountCents,
		Currency:    "INR",
		Receipt:     receipt,
	})
	if err != nil {
		return "", fmt.Errorf("%s:%w", op, err)
	}

	url := c.baseURL + "/v1/orders"

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("%s:%w", op, err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.SetBasicAuth(c.keyID, c.keySecret)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%s:%w: %v", op, ErrUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK || resp.StatusCode == http.StatusCreated:
		// fallthrough to decode
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		b, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("%s:%w: status %d: %s", op, ErrOrderRejected, resp.StatusCode, string(b))
	default:
		return "", fmt.Errorf("%s:%w: status %d", op, ErrUnavailable, resp.StatusCode)
	}

	var out createOrderResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("%s:%w", op, err)
	}

	if out.ID == "" {
		return "", fmt.Errorf("%s:%w: empty order id", op, ErrOrderRejected)
	}

	return out.ID, nil
}
