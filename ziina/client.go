package ziina

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"
)

// GatewayError carries the gateway's status code and raw response body.
// The body text is surfaced to the UI for diagnostics, never swallowed.
type GatewayError struct {
	StatusCode int
	Body       string
}

func (e *GatewayError) Error() string {
	return fmt.Sprintf("ziina api error %d: %s", e.StatusCode, e.Body)
}

// ErrorPollTimeout is returned when a payment intent never reaches a
// terminal state within the polling deadline. Surfaced to the UI as a
// retryable outcome.
var ErrorPollTimeout = errors.New("timed out waiting for payment to complete")

const (
	defaultBaseURL      = "https://api-v2.ziina.com/api"
	defaultPollInterval = 3 * time.Second
	defaultPollDeadline = 5 * time.Minute
)

// Client talks to the Ziina payment gateway. Constructed explicitly and
// injected; not a process-wide singleton.
type Client struct {
	baseURL      string
	apiKey       string
	http         *http.Client
	pollInterval time.Duration
	pollDeadline time.Duration
}

func NewClient(apiKey string) (*Client, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.New("ziina api key is empty")
	}
	baseURL := strings.TrimSpace(os.Getenv("ZIINA_API_BASE_URL"))
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		baseURL:      strings.TrimRight(baseURL, "/"),
		apiKey:       apiKey,
		http:         &http.Client{Timeout: 30 * time.Second},
		pollInterval: defaultPollInterval,
		pollDeadline: defaultPollDeadline,
	}, nil
}

// CreatePaymentIntent registers a payment with the gateway. Amount is
// already in minor units; no callback URLs are sent because the POS UI
// polls for the outcome.
func (c *Client) CreatePaymentIntent(ctx context.Context, req *CreatePaymentIntentRequest) (*PaymentIntent, error) {
	if req.Amount <= 0 {
		return nil, errors.New("payment amount must be greater than zero")
	}
	if req.CurrencyCode == "" {
		req.CurrencyCode = "AED"
	}
	return c.do(ctx, http.MethodPost, "/payment_intent", req)
}

// GetPaymentIntent fetches the current state of a payment intent.
func (c *Client) GetPaymentIntent(ctx context.Context, intentId string) (*PaymentIntent, error) {
	if strings.TrimSpace(intentId) == "" {
		return nil, errors.New("payment intent id is empty")
	}
	return c.do(ctx, http.MethodGet, "/payment_intent/"+intentId, nil)
}

// PollUntilTerminal re-fetches the intent on a fixed interval until it
// reaches completed/failed/cancelled, the deadline passes
// (ErrorPollTimeout), or ctx is cancelled (UI dismissal).
func (c *Client) PollUntilTerminal(ctx context.Context, intentId string) (*PaymentIntent, error) {
	deadline := time.NewTimer(c.pollDeadline)
	defer deadline.Stop()
	ticker := time.NewTicker(c.pollInterval)
	defer ticker.Stop()

	intent, err := c.GetPaymentIntent(ctx, intentId)
	if err != nil {
		return nil, err
	}
	if intent.Status.IsTerminal() {
		return intent, nil
	}

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-deadline.C:
			return nil, ErrorPollTimeout
		case <-ticker.C:
			intent, err = c.GetPaymentIntent(ctx, intentId)
			if err != nil {
				return nil, err
			}
			if intent.Status.IsTerminal() {
				return intent, nil
			}
		}
	}
}

func (c *Client) do(ctx context.Context, method, path string, payload interface{}) (*PaymentIntent, error) {
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &GatewayError{
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(raw)),
		}
	}

	var intent PaymentIntent
	if err := json.Unmarshal(raw, &intent); err != nil {
		return nil, fmt.Errorf("invalid response from payment gateway: %w", err)
	}
	return &intent, nil
}
