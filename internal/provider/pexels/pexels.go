// Package pexels implements provider.ImageSearcher against the Pexels search API.
package pexels

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/tjfontaine/wayfarer/internal/provider"
)

const (
	DefaultBaseURL = "https://api.pexels.com"
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

// Client searches Pexels for landscape photos.
type Client struct {
	apiKey     string
	baseURL    string
	results    int
	httpClient *http.Client
}

var _ provider.ImageSearcher = (*Client)(nil)

// New creates a Pexels client.
func New(apiKey string, opts ...Option) *Client {
	c := &Client{
		apiKey:     strings.TrimSpace(apiKey),
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
	return "pexels"
}

// Configured reports whether an API key is set.
func (c *Client) Configured() bool {
	return c.apiKey != ""
}

type searchResponse struct {
	Photos []struct {
		Src struct {
			Landscape string `json:"landscape"`
			Large     string `json:"large"`
			Original  string `json:"original"`
		} `json:"src"`
	} `json:"photos"`
}

// SearchImage returns the landscape rendition of the top result.
func (c *Client) SearchImage(ctx context.Context, query string) (string, error) {
	if !c.Configured() || strings.TrimSpace(query) == "" {
		return "", nil
	}

	params := url.Values{}
	params.Set("query", query)
	params.Set("orientation", "landscape")
	params.Set("per_page", strconv.Itoa(c.results))

	headers := http.Header{}
	headers.Set("Authorization", c.apiKey)

	var resp searchResponse
	if err := provider.GetJSON(ctx, c.httpClient, c.Name(), c.baseURL+"/v1/search?"+params.Encode(), headers, &resp); err != nil {
		return "", err
	}

	for _, p := range resp.Photos {
		switch {
		case p.Src.Landscape != "":
			return p.Src.Landscape, nil
		case p.Src.Large != "":
			return p.Src.Large, nil
		case p.Src.Original != "":
			return p.Src.Original, nil
		}
	}
	return "", nil
}
