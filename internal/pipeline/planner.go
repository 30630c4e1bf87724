package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/tjfontaine/wayfarer/internal/domain"
	"github.com/tjfontaine/wayfarer/internal/imagery"
	"github.com/tjfontaine/wayfarer/internal/provider"
	"github.com/tjfontaine/wayfarer/internal/schema"
	"github.com/tjfontaine/wayfarer/internal/tokens"
)

const (
	// DefaultGenerationTimeout is the ceiling on a single generator call.
	DefaultGenerationTimeout = 30 * time.Second

	// DefaultTemperature matches the sampling the prompts were tuned for.
	DefaultTemperature float32 = 0.6

	// DefaultMaxPromptTokens rejects edit prompts that would not fit the model.
	DefaultMaxPromptTokens = 32000

	defaultDayConcurrency = 8
)

var tracer = otel.Tracer("github.com/tjfontaine/wayfarer/internal/pipeline")

// Option configures a Planner.
type Option func(*Planner)

// WithGenerationTimeout sets the ceiling on each generator call.
func WithGenerationTimeout(d time.Duration) Option {
	return func(p *Planner) {
		if d > 0 {
			p.timeout = d
		}
	}
}

// WithTemperature sets the sampling temperature sent to the generator.
func WithTemperature(t float32) Option {
	return func(p *Planner) {
		if t > 0 {
			p.temperature = t
		}
	}
}

// WithMaxPromptTokens caps the size of modification prompts.
func WithMaxPromptTokens(n int) Option {
	return func(p *Planner) {
		if n > 0 {
			p.maxPromptTokens = n
		}
	}
}

// WithTokenCounter sets the counter used for prompt sizing.
func WithTokenCounter(c *tokens.Counter) Option {
	return func(p *Planner) {
		p.counter = c
	}
}

// WithLogger sets the logger for the planner.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Planner) {
		p.logger = logger
	}
}

// WithIDGenerator overrides how itinerary ids are minted.
func WithIDGenerator(fn func() string) Option {
	return func(p *Planner) {
		p.newID = fn
	}
}

// WithClock overrides the clock used to date trips.
func WithClock(now func() time.Time) Option {
	return func(p *Planner) {
		p.now = now
	}
}

// Planner owns itinerary construction. It holds no per-call state and is
// safe for concurrent use.
type Planner struct {
	generator       provider.Generator
	images          *imagery.Resolver
	counter         *tokens.Counter
	timeout         time.Duration
	temperature     float32
	maxPromptTokens int
	logger          *slog.Logger
	newID           func() string
	now             func() time.Time
}

// NewPlanner creates a planner. A nil resolver behaves as if no image
// provider were configured.
func NewPlanner(generator provider.Generator, images *imagery.Resolver, opts ...Option) *Planner {
	p := &Planner{
		generator:       generator,
		images:          images,
		timeout:         DefaultGenerationTimeout,
		temperature:     DefaultTemperature,
		maxPromptTokens: DefaultMaxPromptTokens,
		logger:          slog.Default(),
		newID:           uuid.NewString,
		now:             time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.images == nil {
		p.images = imagery.New(nil, imagery.WithLogger(p.logger))
	}
	if p.counter == nil {
		p.counter = tokens.NewCounter()
	}
	return p
}

// Acquire generates a new itinerary for req.
func (p *Planner) Acquire(ctx context.Context, req domain.TripRequest) (*domain.Itinerary, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	destination := strings.TrimSpace(req.Destination)

	ctx, span := tracer.Start(ctx, "pipeline.Acquire")
	defer span.End()
	span.SetAttributes(
		attribute.String("destination", destination),
		attribute.Int("duration", req.Duration),
		attribute.String("vibe", string(req.Vibe)),
	)

	start := time.Now()

	// Hero resolution overlaps generation. The deferred Wait runs after the
	// deferred cancel, so early returns abandon the lookup and still join it.
	var wg sync.WaitGroup
	defer wg.Wait()
	heroCtx, cancelHero := context.WithCancel(ctx)
	defer cancelHero()

	heroCh := make(chan string, 1)
	wg.Add(1)
	go func() {
		defer wg.Done()
		heroCh <- p.images.HeroImage(heroCtx, destination, req.Vibe)
	}()

	prompt := buildGeneratePrompt(req, p.now().AddDate(0, 0, 1))
	it, err := p.generate(ctx, "generate", prompt)
	if err != nil {
		recordError(span, err)
		return nil, err
	}

	if len(it.Days) < req.Duration {
		err := domain.ErrSchemaViolation(fmt.Sprintf("itinerary has %d days, want %d", len(it.Days), req.Duration))
		recordError(span, err)
		return nil, err
	}
	it.Days = it.Days[:req.Duration]

	it.ID = p.newID()
	it.Vibe = req.Vibe
	it.Destination = destination

	select {
	case it.HeroImage = <-heroCh:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	if err := p.enrichDays(ctx, it, nil); err != nil {
		return nil, err
	}

	p.logger.Info("itinerary generated",
		slog.String("id", it.ID),
		slog.String("destination", destination),
		slog.Int("days", len(it.Days)),
		slog.Duration("duration", time.Since(start)))

	return it, nil
}

// generate runs one generator call and the decode/validate stages.
func (p *Planner) generate(ctx context.Context, op, prompt string) (*domain.Itinerary, error) {
	if p.generator == nil {
		return nil, domain.ErrConfiguration("API Key missing.")
	}

	promptTokens, estimated := p.counter.Count(prompt)

	genCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	start := time.Now()
	text, err := p.generator.Generate(genCtx, provider.GenerationRequest{
		Prompt:      prompt,
		Schema:      schema.Itinerary(),
		Temperature: p.temperature,
	})
	elapsed := time.Since(start)

	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		if errors.Is(genCtx.Err(), context.DeadlineExceeded) {
			p.logger.Warn("generation timed out",
				slog.String("op", op),
				slog.Duration("timeout", p.timeout))
			return nil, domain.ErrTimeout(fmt.Sprintf("generation did not finish within %s", p.timeout)).
				WithCause(context.DeadlineExceeded)
		}
		if _, ok := domain.AsGenerationError(err); !ok {
			err = domain.ErrServiceUnavailable("the AI service could not produce an itinerary").WithCause(err)
		}
		p.logger.Warn("generation failed",
			slog.String("op", op),
			slog.String("generator", p.generator.Name()),
			slog.Duration("elapsed", elapsed),
			slog.String("error", err.Error()))
		return nil, err
	}

	p.logger.Debug("generation complete",
		slog.String("op", op),
		slog.String("generator", p.generator.Name()),
		slog.Int("prompt_tokens", promptTokens),
		slog.Bool("tokens_estimated", estimated),
		slog.Int("response_bytes", len(text)),
		slog.Duration("elapsed", elapsed))

	doc, err := schema.Decode(text)
	if err != nil {
		p.logger.Warn("generator returned malformed output", slog.String("op", op), slog.String("error", err.Error()))
		return nil, err
	}
	it, err := schema.Validate(doc)
	if err != nil {
		p.logger.Warn("generator output failed validation", slog.String("op", op), slog.String("error", err.Error()))
		return nil, err
	}
	return it, nil
}

// enrichDays resolves an image for every day not marked in keep. Results are
// written by index, so completion order does not matter.
func (p *Planner) enrichDays(ctx context.Context, it *domain.Itinerary, keep []bool) error {
	ctx, span := tracer.Start(ctx, "pipeline.enrichDays")
	defer span.End()

	urls := make([]string, len(it.Days))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(defaultDayConcurrency)

	for i := range it.Days {
		if i < len(keep) && keep[i] {
			continue
		}
		i, day := i, it.Days[i]
		g.Go(func() error {
			urls[i] = p.images.DayImage(gctx, it.Destination, day, it.Vibe)
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return err
	}
	for i, url := range urls {
		if url != "" {
			it.Days[i].ImageURL = url
		}
	}
	return nil
}

func recordError(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}
