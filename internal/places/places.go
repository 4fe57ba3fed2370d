// Package places proxies hospital lookups through the upstream places-search
// API. The search radius and category are fixed; callers only supply
// coordinates.
package places

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

const (
	searchRadiusMeters = "5000"
	searchCategory     = "hospital"
)

type Client struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

func NewClient(apiKey string) (*Client, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("places api key required")
	}
	return &Client{
		apiKey:  apiKey,
		baseURL: "https://maps.googleapis.com/maps/api/place/nearbysearch/json",
		client:  http.DefaultClient,
	}, nil
}

// NearbyHospitals returns the upstream response body verbatim; the HTTP layer
// passes it straight through to the app.
func (c *Client) NearbyHospitals(ctx context.Context, lat, lng string) ([]byte, error) {
	if c == nil {
		return nil, fmt.Errorf("places client not configured")
	}

	q := url.Values{}
	q.Set("location", lat+","+lng)
	q.Set("radius", searchRadiusMeters)
	q.Set("type", searchCategory)
	q.Set("key", c.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("build places request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send places request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read places response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("places search failed: status %d: %s", resp.StatusCode, string(body))
	}
	return body, nil
}
