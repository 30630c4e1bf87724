// Package storage persists itineraries the caller chose to keep.
//
// Two collections exist: saved trips, which the traveller toggles, and a
// bounded history of everything generated. Both list newest first.
package storage

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/tjfontaine/wayfarer/internal/domain"
)

// Collection names a list of itineraries.
type Collection string

const (
	CollectionSaved   Collection = "saved"
	CollectionHistory Collection = "history"
)

// DefaultHistoryLimit bounds the history collection when no limit is configured.
const DefaultHistoryLimit = 50

// UndecidedVibe is reported by FavoriteVibe when there is nothing to count.
const UndecidedVibe = "Undecided"

// ErrNotFound is returned when an itinerary is not in the collection.
var ErrNotFound = errors.New("itinerary not found")

// ParseCollection validates a collection name from user input.
func ParseCollection(name string) (Collection, error) {
	switch c := Collection(name); c {
	case CollectionSaved, CollectionHistory:
		return c, nil
	default:
		return "", fmt.Errorf("unknown collection %q", name)
	}
}

// TripStore persists itineraries. Implementations return copies, so callers
// may modify what they get back.
type TripStore interface {
	// Put inserts it at the front of the collection, replacing any entry
	// with the same id.
	Put(ctx context.Context, c Collection, it *domain.Itinerary) error

	// List returns the collection newest first.
	List(ctx context.Context, c Collection) ([]*domain.Itinerary, error)

	Get(ctx context.Context, c Collection, id string) (*domain.Itinerary, error)
	Delete(ctx context.Context, c Collection, id string) error
	Clear(ctx context.Context, c Collection) error

	// ToggleSaved removes it from the saved collection if present, or adds
	// it otherwise. It reports whether it is saved afterwards.
	ToggleSaved(ctx context.Context, it *domain.Itinerary) (bool, error)

	Close() error
}

// FavoriteVibe returns the most frequent vibe in trips. Ties go to the vibe
// listed first in domain.Vibes.
func FavoriteVibe(trips []*domain.Itinerary) string {
	counts := make(map[domain.Vibe]int)
	for _, it := range trips {
		if it != nil && it.Vibe.Valid() {
			counts[it.Vibe]++
		}
	}
	if len(counts) == 0 {
		return UndecidedVibe
	}

	order := make(map[domain.Vibe]int, len(domain.Vibes))
	for i, v := range domain.Vibes {
		order[v] = i
	}
	vibes := make([]domain.Vibe, 0, len(counts))
	for v := range counts {
		vibes = append(vibes, v)
	}
	sort.Slice(vibes, func(i, j int) bool {
		if counts[vibes[i]] != counts[vibes[j]] {
			return counts[vibes[i]] > counts[vibes[j]]
		}
		return order[vibes[i]] < order[vibes[j]]
	})
	return string(vibes[0])
}

// Profile summarises a traveller's history.
type Profile struct {
	TripsGenerated int    `json:"tripsGenerated"`
	TripsSaved     int    `json:"tripsSaved"`
	FavoriteVibe   string `json:"favoriteVibe"`
}

// LoadProfile builds a Profile from the store's collections.
func LoadProfile(ctx context.Context, s TripStore) (Profile, error) {
	history, err := s.List(ctx, CollectionHistory)
	if err != nil {
		return Profile{}, fmt.Errorf("list history: %w", err)
	}
	saved, err := s.List(ctx, CollectionSaved)
	if err != nil {
		return Profile{}, fmt.Errorf("list saved: %w", err)
	}
	return Profile{
		TripsGenerated: len(history),
		TripsSaved:     len(saved),
		FavoriteVibe:   FavoriteVibe(history),
	}, nil
}
