package klever

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// Client is an HTTP client with retry and timeout support for a Klever node
type Client struct {
	httpClient   *http.Client
	baseURL      string
	maxRetries   int
	retryBackoff time.Duration
	logger       *logrus.Logger
}

// ClientConfig holds configuration for the node client
type ClientConfig struct {
	BaseURL      string
	Timeout      time.Duration
	MaxRetries   int
	RetryBackoff time.Duration
	Logger       *logrus.Logger
}

// NewClient creates a new node client with retry support
func NewClient(cfg ClientConfig) *Client {
	if cfg.Logger == nil {
		cfg.Logger = logrus.New()
	}

	return &Client{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		baseURL:      strings.TrimRight(cfg.BaseURL, "/"),
		maxRetries:   cfg.MaxRetries,
		retryBackoff: cfg.RetryBackoff,
		logger:       cfg.Logger,
	}
}

// QueryContract runs a read-only smart contract view on the node
func (c *Client) QueryContract(ctx context.Context, req QueryRequest) (*QueryData, error) {
	data, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal query: %w", err)
	}

	body, err := c.doWithRetry(ctx, http.MethodPost, "/vm/query", data)
	if err != nil {
		return nil, err
	}

	var out QueryResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("failed to unmarshal query response: %w", err)
	}
	if out.Error != "" {
		return nil, fmt.Errorf("node error: %s", out.Error)
	}
	if out.Data == nil || out.Data.Data == nil {
		return nil, fmt.Errorf("empty query response for %s", req.FuncName)
	}
	if rc := out.Data.Data.ReturnCode; rc != "" && rc != "Ok" {
		return nil, fmt.Errorf("contract returned %s for %s: %s", rc, req.FuncName, out.Data.Data.ReturnMessage)
	}

	return out.Data.Data, nil
}

// GetAsset fetches asset metadata (notably decimal precision) by asset id
func (c *Client) GetAsset(ctx context.Context, assetID string) (*Asset, error) {
	body, err := c.doWithRetry(ctx, http.MethodGet, "/assets/"+assetID, nil)
	if err != nil {
		return nil, err
	}

	var out AssetResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("failed to unmarshal asset response: %w", err)
	}
	if out.Error != "" {
		return nil, fmt.Errorf("node error: %s", out.Error)
	}
	if out.Data == nil || out.Data.Asset == nil {
		return nil, fmt.Errorf("asset %s not found", assetID)
	}

	return out.Data.Asset, nil
}

// doWithRetry performs an HTTP request with exponential backoff
func (c *Client) doWithRetry(ctx context.Context, method, path string, payload []byte) ([]byte, error) {
	var lastErr error
	backoff := c.retryBackoff

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			c.logger.WithFields(logrus.Fields{
				"attempt": attempt,
				"backoff": backoff,
				"path":    path,
			}).Debug("retrying node request")

			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff):
			}
			backoff *= 2 // exponential backoff
		}

		body, err := c.doRequest(ctx, method, path, payload)
		if err != nil {
			lastErr = err
			continue
		}
		return body, nil
	}

	return nil, fmt.Errorf("max retries exceeded: %w", lastErr)
}

func (c *Client) doRequest(ctx context.Context, method, path string, payload []byte) ([]byte, error) {
	var reader io.Reader
	if payload != nil {
		reader = bytes.NewBuffer(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	// Handle rate limiting
	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, fmt.Errorf("rate limited (429)")
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	return body, nil
}
