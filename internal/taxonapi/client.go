package taxonapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"taxonid/internal/services"
	"taxonid/internal/taxon"
)

// Response models one page of search results.
type Response struct {
	Results []taxon.Record `json:"results"`
	Page    int            `json:"page,omitempty"`
	Total   int            `json:"total,omitempty"`
}

// Client queries the taxon search endpoint.
type Client struct {
	apiKey     string
	baseURL    string
	perPage    int
	httpClient *http.Client
}

var _ taxon.Searcher = (*Client)(nil)

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithTimeout sets the request timeout on the default HTTP client.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.httpClient = &http.Client{Timeout: timeout}
		}
	}
}

// WithPerPage sets the page size used when a query leaves it unset.
func WithPerPage(perPage int) Option {
	return func(c *Client) {
		if perPage > 0 {
			c.perPage = perPage
		}
	}
}

// New creates a search client. The API key is optional.
func New(baseURL, apiKey string, opts ...Option) (*Client, error) {
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		return nil, errors.New("taxon search base url required")
	}
	client := &Client{
		apiKey:     strings.TrimSpace(apiKey),
		baseURL:    strings.TrimRight(baseURL, "/"),
		perPage:    20,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// Search runs a free-text search, optionally filtered by rank.
func (c *Client) Search(ctx context.Context, q taxon.Query) ([]taxon.Record, error) {
	q = q.Normalized(c.perPage)
	text := strings.TrimSpace(q.Text)
	if text == "" {
		return nil, services.Wrap(services.ErrValidation, "taxonapi", "search", "query must not be empty", nil)
	}
	params := url.Values{}
	params.Set("q", text)
	if q.Rank.Known() {
		params.Set("rank", q.Rank.String())
	}
	params.Set("page", strconv.Itoa(q.Page))
	params.Set("per_page", strconv.Itoa(q.PerPage))
	resp, err := c.get(ctx, "/taxa/search", params)
	if err != nil {
		return nil, err
	}
	return normalize(resp.Results), nil
}

// LookupByName returns taxa whose scientific name matches name exactly.
func (c *Client) LookupByName(ctx context.Context, name string) ([]taxon.Record, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, services.Wrap(services.ErrValidation, "taxonapi", "lookup", "name must not be empty", nil)
	}
	params := url.Values{}
	params.Set("q", name)
	params.Set("exact", "true")
	params.Set("page", "1")
	params.Set("per_page", strconv.Itoa(c.perPage))
	resp, err := c.get(ctx, "/taxa/search", params)
	if err != nil {
		return nil, err
	}
	return normalize(resp.Results), nil
}

func (c *Client) get(ctx context.Context, path string, params url.Values) (*Response, error) {
	endpoint, err := url.Parse(c.baseURL + path)
	if err != nil {
		return nil, fmt.Errorf("parse taxon search url: %w", err)
	}
	if c.apiKey != "" {
		params.Set("api_key", c.apiKey)
	}
	endpoint.RawQuery = params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	requestStart := time.Now()
	resp, err := c.httpClient.Do(req)
	latency := time.Since(requestStart)
	if err != nil {
		return nil, services.Wrap(services.ErrTransient, "taxonapi", "request",
			fmt.Sprintf("latency=%v", latency), err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests:
		return nil, services.Wrap(services.ErrTransient, "taxonapi", "request",
			fmt.Sprintf("search returned %d (latency=%v)", resp.StatusCode, latency), nil)
	default:
		return nil, services.Wrap(services.ErrValidation, "taxonapi", "request",
			fmt.Sprintf("search returned %d (latency=%v)", resp.StatusCode, latency), nil)
	}

	var payload Response
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode taxon search response: %w", err)
	}
	return &payload, nil
}

func normalize(records []taxon.Record) []taxon.Record {
	out := make([]taxon.Record, len(records))
	for i, rec := range records {
		out[i] = rec.Normalize()
	}
	return out
}
