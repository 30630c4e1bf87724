// Package imagery resolves decorative images for itineraries.
//
// A Resolver walks a fixed provider chain per query and always produces a
// URL: when every provider misses, the trip's vibe picks a preset image.
// Provider failures are logged and swallowed here; nothing in this package
// returns an error.
package imagery

import (
	"context"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/tjfontaine/wayfarer/internal/domain"
	"github.com/tjfontaine/wayfarer/internal/provider"
)

// DefaultTimeout bounds every single provider call.
const DefaultTimeout = 2500 * time.Millisecond

var tracer = otel.Tracer("github.com/tjfontaine/wayfarer/internal/imagery")

var vibeImages = map[domain.Vibe]string{
	domain.VibeNature: "https://images.unsplash.com/photo-1501785888041-af3ef285b470?q=80&w=2070&auto=format&fit=crop",
	domain.VibeUrban:  "https://images.unsplash.com/photo-1477959858617-67f85cf4f1df?q=80&w=2144&auto=format&fit=crop",
	domain.VibeRelax:  "https://images.unsplash.com/photo-1507525428034-b723cf961d3e?q=80&w=2073&auto=format&fit=crop",
	domain.VibeFood:   "https://images.unsplash.com/photo-1504674900247-0877df9cc836?q=80&w=2070&auto=format&fit=crop",
}

// DefaultImage is used when the vibe is unknown.
const DefaultImage = "https://images.unsplash.com/photo-1469474968028-56623f02e42e?q=80&w=2074&auto=format&fit=crop"

// VibeImage returns the preset image for vibe.
func VibeImage(vibe domain.Vibe) string {
	if url, ok := vibeImages[vibe]; ok {
		return url
	}
	return DefaultImage
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithTimeout sets the per-call provider timeout.
func WithTimeout(d time.Duration) Option {
	return func(r *Resolver) {
		if d > 0 {
			r.timeout = d
		}
	}
}

// WithSummaryLookup sets the encyclopedia fallback used for hero images.
func WithSummaryLookup(s provider.SummaryLookup) Option {
	return func(r *Resolver) {
		r.summary = s
	}
}

// WithLogger sets the logger for the resolver.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Resolver) {
		r.logger = logger
	}
}

// Resolver is safe for concurrent use; it holds only configuration.
type Resolver struct {
	searchers []provider.ImageSearcher
	summary   provider.SummaryLookup
	timeout   time.Duration
	logger    *slog.Logger
}

// New creates a resolver that tries searchers in the order given.
func New(searchers []provider.ImageSearcher, opts ...Option) *Resolver {
	r := &Resolver{
		searchers: searchers,
		timeout:   DefaultTimeout,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve returns the first image any configured searcher finds for query,
// or "" when none does.
func (r *Resolver) Resolve(ctx context.Context, query string) string {
	query = strings.TrimSpace(query)
	if query == "" {
		return ""
	}
	for _, s := range r.searchers {
		if s == nil || !s.Configured() {
			continue
		}
		if ctx.Err() != nil {
			return ""
		}
		if url := r.search(ctx, s.Name(), query, s.SearchImage); url != "" {
			return url
		}
	}
	return ""
}

func (r *Resolver) search(ctx context.Context, name, query string, fn func(context.Context, string) (string, error)) string {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	start := time.Now()
	url, err := fn(ctx, query)
	if err != nil {
		r.logger.Debug("image provider miss",
			slog.String("provider", name),
			slog.String("query", query),
			slog.Duration("elapsed", time.Since(start)),
			slog.String("error", err.Error()))
		return ""
	}
	return url
}

// HeroImage resolves the single image representing the whole trip.
func (r *Resolver) HeroImage(ctx context.Context, destination string, vibe domain.Vibe) string {
	ctx, span := tracer.Start(ctx, "imagery.HeroImage")
	defer span.End()
	span.SetAttributes(attribute.String("destination", destination))

	for _, q := range HeroQueries(destination) {
		if url := r.Resolve(ctx, q); url != "" {
			span.SetAttributes(attribute.String("image.source", "search"))
			return url
		}
	}

	if r.summary != nil && r.summary.Configured() && ctx.Err() == nil {
		if url := r.search(ctx, r.summary.Name(), destination, r.summary.LookupImage); url != "" {
			span.SetAttributes(attribute.String("image.source", "summary"))
			return url
		}
	}

	span.SetAttributes(attribute.String("image.source", "vibe"))
	return VibeImage(vibe)
}

// DayImage resolves the image for one day. It never consults the
// encyclopedia lookup, which only knows about destinations.
func (r *Resolver) DayImage(ctx context.Context, destination string, day domain.DayPlan, vibe domain.Vibe) string {
	ctx, span := tracer.Start(ctx, "imagery.DayImage")
	defer span.End()
	span.SetAttributes(attribute.Int("day", day.Day))

	for _, q := range DayQueries(destination, day) {
		if url := r.Resolve(ctx, q); url != "" {
			return url
		}
	}
	return VibeImage(vibe)
}

// HeroQueries returns the query variants tried for a hero image, in order.
func HeroQueries(destination string) []string {
	destination = strings.TrimSpace(destination)
	if destination == "" {
		return nil
	}

	parts := strings.Split(destination, ",")
	city := strings.TrimSpace(parts[0])
	country := strings.TrimSpace(parts[len(parts)-1])

	queries := []string{destination}
	if city != "" {
		queries = append(queries, city+" landmark skyline")
	}
	if country != "" {
		queries = append(queries, country+" travel scenery")
	}
	return queries
}

var nonAlphanumeric = regexp.MustCompile(`[^\p{L}\p{N}\s]+`)

// DayQueries returns the query variants tried for a day image, in order.
func DayQueries(destination string, day domain.DayPlan) []string {
	destination = strings.TrimSpace(destination)
	var queries []string

	if title := strings.Join(strings.Fields(nonAlphanumeric.ReplaceAllString(day.Title, " ")), " "); title != "" {
		queries = append(queries, strings.TrimSpace(destination+" "+title))
	}
	if len(day.Activities) > 0 {
		if first := strings.TrimSpace(day.Activities[0].Title); first != "" {
			queries = append(queries, strings.TrimSpace(destination+" "+first))
		}
	}
	return queries
}
