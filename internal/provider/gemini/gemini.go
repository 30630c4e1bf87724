// Package gemini implements provider.Generator on top of the Gemini API.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"google.golang.org/genai"

	"github.com/tjfontaine/wayfarer/internal/domain"
	"github.com/tjfontaine/wayfarer/internal/provider"
)

// DefaultModel is used when no model is configured.
const DefaultModel = "gemini-3-flash-preview"

// Option configures the generator.
type Option func(*Generator)

// WithModel overrides the model name.
func WithModel(model string) Option {
	return func(g *Generator) {
		if model != "" {
			g.model = model
		}
	}
}

// WithBaseURL points the client at a different endpoint.
func WithBaseURL(baseURL string) Option {
	return func(g *Generator) {
		g.baseURL = baseURL
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(g *Generator) {
		g.httpClient = httpClient
	}
}

// WithLogger sets the logger for the generator.
func WithLogger(logger *slog.Logger) Option {
	return func(g *Generator) {
		g.logger = logger
	}
}

// Generator calls Gemini with a JSON response schema.
type Generator struct {
	client     *genai.Client
	apiKey     string
	model      string
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

var _ provider.Generator = (*Generator)(nil)

// New creates a generator. A blank apiKey yields a generator whose every
// call fails with a configuration error.
func New(ctx context.Context, apiKey string, opts ...Option) (*Generator, error) {
	g := &Generator{
		apiKey: strings.TrimSpace(apiKey),
		model:  DefaultModel,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(g)
	}

	if g.apiKey == "" {
		return g, nil
	}

	cfg := &genai.ClientConfig{
		APIKey:     g.apiKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: g.httpClient,
	}
	if g.baseURL != "" {
		cfg.HTTPOptions = genai.HTTPOptions{BaseURL: g.baseURL}
	}

	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	g.client = client
	return g, nil
}

func (g *Generator) Name() string {
	return "gemini"
}

// Model returns the configured model name.
func (g *Generator) Model() string {
	return g.model
}

// Generate sends the prompt and returns the concatenated text of the first candidate.
func (g *Generator) Generate(ctx context.Context, req provider.GenerationRequest) (string, error) {
	if g.client == nil {
		return "", domain.ErrConfiguration("API Key missing.")
	}

	config := &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema:   req.Schema,
	}
	if req.Temperature > 0 {
		config.Temperature = genai.Ptr[float32](req.Temperature)
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.model,
		[]*genai.Content{{Role: genai.RoleUser, Parts: []*genai.Part{{Text: req.Prompt}}}},
		config,
	)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", ctxErr
		}
		return "", g.mapError(err)
	}

	if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != "" &&
		resp.PromptFeedback.BlockReason != genai.BlockedReasonUnspecified {
		g.logger.Warn("gemini blocked prompt", slog.String("reason", string(resp.PromptFeedback.BlockReason)))
		return "", domain.ErrContentBlocked("the request was declined by the AI safety filter")
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		if len(resp.Candidates) > 0 && blockedFinish(resp.Candidates[0].FinishReason) {
			return "", domain.ErrContentBlocked("the response was withheld by the AI safety filter")
		}
		return "", domain.ErrMalformedResponse("no content returned from AI")
	}

	candidate := resp.Candidates[0]
	if blockedFinish(candidate.FinishReason) {
		g.logger.Warn("gemini blocked response", slog.String("finish_reason", string(candidate.FinishReason)))
		return "", domain.ErrContentBlocked("the response was withheld by the AI safety filter")
	}

	var sb strings.Builder
	for _, part := range candidate.Content.Parts {
		if part == nil || part.Thought {
			continue
		}
		sb.WriteString(part.Text)
	}
	text := sb.String()
	if strings.TrimSpace(text) == "" {
		return "", domain.ErrMalformedResponse("no content returned from AI")
	}
	return text, nil
}

func blockedFinish(reason genai.FinishReason) bool {
	switch reason {
	case genai.FinishReasonSafety, genai.FinishReasonProhibitedContent,
		genai.FinishReasonBlocklist, genai.FinishReasonSPII:
		return true
	}
	return false
}

func (g *Generator) mapError(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		g.logger.Error("gemini request failed",
			slog.Int("code", apiErr.Code),
			slog.String("status", apiErr.Status),
			slog.String("message", apiErr.Message))

		switch apiErr.Code {
		case http.StatusUnauthorized, http.StatusForbidden:
			return domain.ErrConfiguration("the AI service rejected the configured API key").WithCause(err)
		case http.StatusBadRequest:
			if strings.Contains(strings.ToLower(apiErr.Message), "api key") {
				return domain.ErrConfiguration("the AI service rejected the configured API key").WithCause(err)
			}
		}
		return domain.ErrServiceUnavailable("the AI service returned an error").WithCause(err)
	}

	g.logger.Error("gemini transport error", slog.String("error", err.Error()))
	return domain.ErrServiceUnavailable("the AI service could not be reached").WithCause(err)
}
