// Package payment talks to the hosted checkout provider.
package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const StatusPaid = "paid"

var (
	ErrNotConfigured = errors.New("payment: gateway not configured")
	ErrGateway       = errors.New("payment: gateway error")
)

type LineItem struct {
	ProductID  string `json:"productId"`
	Name       string `json:"name"`
	Image      string `json:"image,omitempty"`
	UnitAmount int64  `json:"unitAmount"`
	Quantity   int    `json:"quantity"`
}

type CreateSessionRequest struct {
	Currency           string            `json:"currency"`
	LineItems          []LineItem        `json:"lineItems"`
	DiscountPercentage int               `json:"discountPercentage,omitempty"`
	SuccessURL         string            `json:"successUrl"`
	CancelURL          string            `json:"cancelUrl"`
	Metadata           map[string]string `json:"metadata"`
}

type Session struct {
	ID            string            `json:"id"`
	PaymentStatus string            `json:"paymentStatus"`
	AmountTotal   int64             `json:"amountTotal"`
	Metadata      map[string]string `json:"metadata"`
}

type Gateway interface {
	CreateSession(ctx context.Context, req CreateSessionRequest) (*Session, error)
	GetSession(ctx context.Context, id string) (*Session, error)
}

type HTTPGateway struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

func NewHTTPGateway(baseURL, apiKey string, timeout time.Duration) *HTTPGateway {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &HTTPGateway{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
}

// New returns the HTTP gateway, or Unconfigured when baseURL is empty.
func New(baseURL, apiKey string, timeout time.Duration) Gateway {
	if baseURL == "" {
		return Unconfigured{}
	}
	return NewHTTPGateway(baseURL, apiKey, timeout)
}

func (g *HTTPGateway) CreateSession(ctx context.Context, in CreateSessionRequest) (*Session, error) {
	var out Session
	if err := g.do(ctx, http.MethodPost, "/v1/checkout/sessions", in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (g *HTTPGateway) GetSession(ctx context.Context, id string) (*Session, error) {
	var out Session
	if err := g.do(ctx, http.MethodGet, "/v1/checkout/sessions/"+url.PathEscape(id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (g *HTTPGateway) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, g.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if g.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+g.apiKey)
	}

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: do request: %v", ErrGateway, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return fmt.Errorf("%w: %s %s: status %d: %s", ErrGateway, method, path, resp.StatusCode, bytes.TrimSpace(msg))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decode response: %v", ErrGateway, err)
	}
	return nil
}

type Unconfigured struct{}

func (Unconfigured) CreateSession(context.Context, CreateSessionRequest) (*Session, error) {
	return nil, ErrNotConfigured
}

func (Unconfigured) GetSession(context.Context, string) (*Session, error) {
	return nil, ErrNotConfigured
}
