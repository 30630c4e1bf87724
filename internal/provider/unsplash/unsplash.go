// Package unsplash implements provider.ImageSearcher against the Unsplash search API.
package unsplash

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/tjfontaine/wayfarer/internal/provider"
)

const (
	DefaultBaseURL = "https://api.unsplash.com"
	defaultResults = 1
)

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

// WithResults sets how many results are requested per search.
func WithResults(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.results = n
		}
	}
}

// Client searches Unsplash for landscape photos.
type Client struct {
	accessKey  string
	baseURL    string
	results    int
	httpClient *http.Client
}

var _ provider.ImageSearcher = (*Client)(nil)

// New creates an Unsplash client.
func New(accessKey string, opts ...Option) *Client {
	c := &Client{
		accessKey:  strings.TrimSpace(accessKey),
		baseURL:    DefaultBaseURL,
		results:    defaultResults,
		httpClient: http.DefaultClient,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) Name() string {
	return "unsplash"
}

// Configured reports whether an access key is set.
func (c *Client) Configured() bool {
	return c.accessKey != ""
}

type searchResponse struct {
	Results []struct {
		URLs struct {
			Regular string `json:"regular"`
			Full    string `json:"full"`
		} `json:"urls"`
	} `json:"results"`
}

// SearchImage returns the regular-size URL of the top landscape result.
func (c *Client) SearchImage(ctx context.Context, query string) (string, error) {
	if !c.Configured() || strings.TrimSpace(query) == "" {
		return "", nil
	}

	params := url.Values{}
	params.Set("query", query)
	params.Set("orientation", "landscape")
	params.Set("per_page", strconv.Itoa(c.results))

	headers := http.Header{}
	headers.Set("Authorization", "Client-ID "+c.accessKey)
	headers.Set("Accept-Version", "v1")

	var resp searchResponse
	if err := provider.GetJSON(ctx, c.httpClient, c.Name(), c.baseURL+"/search/photos?"+params.Encode(), headers, &resp); err != nil {
		return "", err
	}

	for _, r := range resp.Results {
		if r.URLs.Regular != "" {
			return r.URLs.Regular, nil
		}
		if r.URLs.Full != "" {
			return r.URLs.Full, nil
		}
	}
	return "", nil
}
