package momo

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"
)

const responseBodyReadLimit int64 = 1 << 20

var errBaseURLRequired = errors.New("momo base url is required")

// Client wraps the MoMo payment gateway endpoint used for checkout.
type Client struct {
	httpClient *http.Client
	baseURL    string
}

// Option configures optional client behavior.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithTimeout overrides the default request timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.httpClient = &http.Client{Timeout: timeout}
		}
	}
}

// NewClient builds the MoMo gateway client.
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	trimmed := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if trimmed == "" {
		return nil, errBaseURLRequired
	}

	client := &Client{
		baseURL:    trimmed,
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}

	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}

	return client, nil
}

// PaymentRequest describes the create-payment payload. The gateway expects the
// amount as a decimal string.
type PaymentRequest struct {
	Amount      int64
	OrderInfo   string
	ExtraData   string
	RedirectURL string
	IPNURL      string
}

// PaymentResponse carries the fields the storefront consumes from the gateway.
type PaymentResponse struct {
	PayURL     string `json:"payUrl"`
	OrderID    string `json:"orderId"`
	RequestID  string `json:"requestId"`
	ResultCode int    `json:"resultCode"`
	Message    string `json:"message"`
}

type createPaymentBody struct {
	Amount      string `json:"amount"`
	OrderInfo   string `json:"orderInfo"`
	ExtraData   string `json:"extraData"`
	RedirectURL string `json:"redirectUrl,omitempty"`
	IPNURL      string `json:"ipnUrl,omitempty"`
}

// CreatePayment requests a payment redirect URL from the gateway.
func (c *Client) CreatePayment(ctx context.Context, req PaymentRequest) (*PaymentResponse, error) {
	if req.Amount < 0 {
		return nil, errors.New("payment amount cannot be negative")
	}

	body, err := json.Marshal(createPaymentBody{
		Amount:      strconv.FormatInt(req.Amount, 10),
		OrderInfo:   req.OrderInfo,
		ExtraData:   req.ExtraData,
		RedirectURL: req.RedirectURL,
		IPNURL:      req.IPNURL,
	})
	if err != nil {
		return nil, fmt.Errorf("encoding payment request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/momo/create-payment", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("building payment request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("calling momo gateway: %w", err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, responseBodyReadLimit))
	if err != nil {
		return nil, fmt.Errorf("reading momo response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("momo gateway returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(payload)))
	}

	var parsed PaymentResponse
	if err := json.Unmarshal(payload, &parsed); err != nil {
		return nil, fmt.Errorf("decoding momo response: %w", err)
	}
	if parsed.PayURL == "" {
		return nil, errors.New("momo gateway returned no payment url")
	}

	return &parsed, nil
}
