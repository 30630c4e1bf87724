// Package wikipedia implements provider.SummaryLookup using the Wikipedia REST summary endpoint.
package wikipedia

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/tjfontaine/wayfarer/internal/provider"
)

const DefaultBaseURL = "https://en.wikipedia.org"

// userAgent identifies us per the Wikimedia API etiquette.
const userAgent = "wayfarer/1.0 (itinerary image lookup)"

// Option configures the client.
type Option func(*Client)

// WithBaseURL sets a custom base URL for the API.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		if baseURL != "" {
			c.baseURL = strings.TrimRight(baseURL, "/")
		}
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithEnabled turns the lookup on or off. It needs no credential.
func WithEnabled(enabled bool) Option {
	return func(c *Client) {
		c.enabled = enabled
	}
}

// Client fetches page summaries.
type Client struct {
	baseURL    string
	enabled    bool
	httpClient *http.Client
}

var _ provider.SummaryLookup = (*Client)(nil)

// New creates a Wikipedia client. It is enabled by default.
func New(opts ...Option) *Client {
	c := &Client{
		baseURL:    DefaultBaseURL,
		enabled:    true,
		httpClient: http.DefaultClient,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) Name() string {
	return "wikipedia"
}

func (c *Client) Configured() bool {
	return c.enabled
}

type summaryResponse struct {
	Type          string `json:"type"`
	OriginalImage *struct {
		Source string `json:"source"`
	} `json:"originalimage"`
	Thumbnail *struct {
		Source string `json:"source"`
	} `json:"thumbnail"`
}

// LookupImage returns the lead image of the page titled title. Missing
// pages and disambiguation pages yield an empty result.
func (c *Client) LookupImage(ctx context.Context, title string) (string, error) {
	title = strings.TrimSpace(title)
	if !c.enabled || title == "" {
		return "", nil
	}

	page := url.PathEscape(strings.ReplaceAll(title, " ", "_"))
	headers := http.Header{}
	headers.Set("User-Agent", userAgent)

	var resp summaryResponse
	err := provider.GetJSON(ctx, c.httpClient, c.Name(), c.baseURL+"/api/rest_v1/page/summary/"+page, headers, &resp)
	if err != nil {
		var statusErr *provider.StatusError
		if errors.As(err, &statusErr) && statusErr.StatusCode == http.StatusNotFound {
			return "", nil
		}
		return "", err
	}

	if resp.Type == "disambiguation" {
		return "", nil
	}
	if resp.OriginalImage != nil && resp.OriginalImage.Source != "" {
		return resp.OriginalImage.Source, nil
	}
	if resp.Thumbnail != nil && resp.Thumbnail.Source != "" {
		return resp.Thumbnail.Source, nil
	}
	return "", nil
}
