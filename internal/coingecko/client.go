package coingecko

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

type Client struct {
	BaseURL string
	APIKey  string
	HTTP    *http.Client
}

func NewClient(baseURL, apiKey string) *Client {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		baseURL = "https://api.coingecko.com/api/v3"
	}
	return &Client{
		BaseURL: baseURL,
		APIKey:  strings.TrimSpace(apiKey),
		HTTP: &http.Client{
			Timeout: 12 * time.Second,
		},
	}
}

type HTTPError struct {
	StatusCode int
	Body       []byte
}

func (e *HTTPError) Error() string {
	b := strings.TrimSpace(string(e.Body))
	if b == "" {
		return fmt.Sprintf("coingecko http %d", e.StatusCode)
	}
	return fmt.Sprintf("coingecko http %d: %s", e.StatusCode, b)
}

// SimplePrice fetches the USD price and 24h change for one coin id.
// An id missing from the response yields a zero-price quote, which callers
// treat as "source unavailable".
func (c *Client) SimplePrice(ctx context.Context, id string) (*SimplePriceQuote, error) {
	if strings.TrimSpace(id) == "" {
		return nil, fmt.Errorf("coin id is required")
	}

	q := url.Values{}
	q.Set("ids", id)
	q.Set("vs_currencies", "usd")
	q.Set("include_24hr_change", "true")

	u := c.BaseURL + "/simple/price?" + q.Encode()
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("accept", "application/json")
	if c.APIKey != "" {
		httpReq.Header.Set("x-cg-demo-api-key", c.APIKey)
	}

	res, err := c.HTTP.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	body, _ := io.ReadAll(res.Body)
	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return nil, &HTTPError{StatusCode: res.StatusCode, Body: body}
	}

	var out map[string]SimplePriceQuote
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("failed to decode coingecko response: %w", err)
	}

	quote := out[id]
	return &quote, nil
}
