// Package weather proxies current conditions from weatherapi.com.
package weather

import (
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

const DefaultCity = "London"

var (
	ErrNotConfigured = errors.New("weather: WEATHER_API_KEY is not set")
	ErrUpstream      = errors.New("weather: upstream request failed")
)

type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		http:    &http.Client{Timeout: 10 * time.Second},
	}
}

// Current returns the raw current.json document for city.
func (c *Client) Current(ctx context.Context, city string) (json.RawMessage, error) {
	if c.apiKey == "" {
		return nil, ErrNotConfigured
	}
	if city == "" {
		city = DefaultCity
	}

	q := url.Values{}
	q.Set("key", c.apiKey)
	q.Set("q", city)
	q.Set("aqi", "no")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/current.json?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstream, withoutURL(err))
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstream, withoutURL(err))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", ErrUpstream, resp.StatusCode)
	}
	if !json.Valid(body) {
		return nil, fmt.Errorf("%w: response is not JSON", ErrUpstream)
	}
	return body, nil
}

// withoutURL drops the request URL from transport errors. The query string
// carries the API key.
func withoutURL(err error) error {
	var uerr *url.Error
	if errors.As(err, &uerr) {
		return fmt.Errorf("%s: %w", uerr.Op, uerr.Err)
	}
	return err
}
