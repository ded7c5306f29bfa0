package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const defaultBaseURL = "https://api.stripe.com/v1"

// Client talks to the hosted-checkout payment gateway over its REST API.
type Client struct {
	secretKey  string
	baseURL    string
	httpClient *http.Client
}

// NewClient builds a gateway client. baseURL may be empty to use the default;
// tests point it at a local server.
func NewClient(secretKey, baseURL string) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		secretKey:  secretKey,
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
}

// SessionParams captures inputs for creating one hosted checkout session.
type SessionParams struct {
	// CustomerID reuses an existing gateway customer; when empty the
	// gateway creates one implicitly from CustomerEmail.
	CustomerID    string
	CustomerEmail string

	Currency   string
	UnitAmount int64

	Name        string
	Description string

	SuccessURL string
	CancelURL  string

	// IdempotencyKey makes retried creation calls return the same session.
	IdempotencyKey string

	Metadata map[string]string
}

// Session is the created checkout session the browser gets redirected to.
type Session struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

type apiError struct {
	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

type customerList struct {
	Data []struct {
		ID    string `json:"id"`
		Email string `json:"email"`
	} `json:"data"`
}

// FindCustomerByEmail returns the id of the first gateway customer with
// exactly this email, or "" when none exists. Two concurrent first-time
// checkouts can each miss and let the gateway create duplicate customers;
// that race is an accepted limitation.
func (c *Client) FindCustomerByEmail(ctx context.Context, email string) (string, error) {
	endpoint := fmt.Sprintf("%s/customers?email=%s&limit=1", c.baseURL, url.QueryEscape(email))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", fmt.Errorf("create customer search request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.secretKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("execute customer search: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read customer search response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", decodeAPIError(resp.StatusCode, body)
	}

	var list customerList
	if err := json.Unmarshal(body, &list); err != nil {
		return "", fmt.Errorf("unmarshal customer search response: %w", err)
	}

	if len(list.Data) == 0 {
		return "", nil
	}
	return list.Data[0].ID, nil
}

// CreateCheckoutSession creates a single-line-item, payment-mode checkout
// session and returns its id and hosted URL.
func (c *Client) CreateCheckoutSession(ctx context.Context, p SessionParams) (*Session, error) {
	form := url.Values{}
	form.Set("mode", "payment")
	form.Set("success_url", p.SuccessURL)
	form.Set("cancel_url", p.CancelURL)
	form.Set("line_items[0][quantity]", "1")
	form.Set("line_items[0][price_data][currency]", p.Currency)
	form.Set("line_items[0][price_data][unit_amount]", strconv.FormatInt(p.UnitAmount, 10))
	form.Set("line_items[0][price_data][product_data][name]", p.Name)
	if p.Description != "" {
		form.Set("line_items[0][price_data][product_data][description]", p.Description)
	}

	if p.CustomerID != "" {
		form.Set("customer", p.CustomerID)
	} else if p.CustomerEmail != "" {
		form.Set("customer_email", p.CustomerEmail)
	}

	for key, value := range p.Metadata {
		form.Set(fmt.Sprintf("metadata[%s]", key), value)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/checkout/sessions", strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("create session request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.secretKey)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if p.IdempotencyKey != "" {
		req.Header.Set("Idempotency-Key", p.IdempotencyKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute session request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read session response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, decodeAPIError(resp.StatusCode, body)
	}

	var session Session
	if err := json.Unmarshal(body, &session); err != nil {
		return nil, fmt.Errorf("unmarshal session response: %w", err)
	}
	if session.ID == "" {
		return nil, fmt.Errorf("session response missing id")
	}

	return &session, nil
}

func decodeAPIError(status int, body []byte) error {
	var apiErr apiError
	if err := json.Unmarshal(body, &apiErr); err == nil && apiErr.Error.Message != "" {
		return fmt.Errorf("gateway request failed: status %d: %s", status, apiErr.Error.Message)
	}
	return fmt.Errorf("gateway request failed: status %d, body: %s", status, string(body))
}
