// Package helius implements the enriched-transaction batch endpoint.
package helius

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"raydium-swap-monitor/internal/domain"
)

// DefaultBaseURL is the Helius REST API root.
const DefaultBaseURL = "https://api.helius.xyz"

// DefaultTimeout bounds one batch request.
const DefaultTimeout = 30 * time.Second

// ErrEnrichment wraps every failed batch request.
var ErrEnrichment = errors.New("enrichment request failed")

// Client fetches enriched transactions by signature.
type Client struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// ClientOption configures Client.
type ClientOption func(*Client)

// WithHTTPClient sets custom http.Client.
func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *Client) {
		c.client = client
	}
}

// WithTimeout sets HTTP client timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		c.client.Timeout = d
	}
}

// NewClient creates a client for baseURL (DefaultBaseURL when empty).
func NewClient(baseURL, apiKey string, opts ...ClientOption) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		client:  &http.Client{Timeout: DefaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type transactionsRequest struct {
	Transactions []string `json:"transactions"`
}

// GetTransactions posts signatures to /v0/transactions. The result has one
// element per returned entry; entries the API could not enrich are nil.
// Failures are not retried.
func (c *Client) GetTransactions(ctx context.Context, signatures []string) ([]*domain.EnrichedTransaction, error) {
	if len(signatures) == 0 {
		return nil, nil
	}

	body, err := json.Marshal(transactionsRequest{Transactions: signatures})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	endpoint, err := c.endpoint()
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEnrichment, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %v", ErrEnrichment, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: status %d: %s", ErrEnrichment, resp.StatusCode, truncate(respBody, 256))
	}

	var txs []*domain.EnrichedTransaction
	if err := json.Unmarshal(respBody, &txs); err != nil {
		return nil, fmt.Errorf("%w: decode response: %v", ErrEnrichment, err)
	}

	return txs, nil
}

func (c *Client) endpoint() (string, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return "", fmt.Errorf("parse base url: %w", err)
	}
	u = u.JoinPath("v0", "transactions")
	q := u.Query()
	q.Set("api-key", c.apiKey)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
