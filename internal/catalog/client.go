package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/volunteerhub/assistant/pkg/logging"
)

// Lister fetches opportunities from a catalog data source. An empty
// location means no server-side location filter.
type Lister interface {
	List(ctx context.Context, location string) ([]Opportunity, error)
}

// Client queries the remote opportunity catalog over HTTP.
type Client struct {
	baseURL string
	http    *http.Client
	logger  *logging.Logger
}

// NewClient creates a catalog client for the given base URL.
func NewClient(baseURL string, timeout time.Duration, logger *logging.Logger) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

type listResponse struct {
	Opportunities []Opportunity `json:"opportunities"`
}

// List fetches opportunities, optionally constrained by location on the
// server side. Non-2xx responses are returned as errors.
func (c *Client) List(ctx context.Context, location string) ([]Opportunity, error) {
	endpoint := c.baseURL + "/opportunities"
	if location != "" {
		endpoint += "?" + url.Values{"location": {location}}.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("catalog: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("catalog: list opportunities: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("catalog: unexpected status %d", resp.StatusCode)
	}

	var body listResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("catalog: decode response: %w", err)
	}

	c.logger.Debug("catalog: listed opportunities",
		"location", location,
		"count", len(body.Opportunities),
	)
	return body.Opportunities, nil
}
