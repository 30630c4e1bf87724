// Package memory provides an in-process TripStore.
package memory

import (
	"context"
	"fmt"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/tjfontaine/wayfarer/internal/domain"
	"github.com/tjfontaine/wayfarer/internal/storage"
)

// Store is an in-memory implementation of TripStore. History is an LRU
// bounded by the configured limit; saved trips are unbounded.
type Store struct {
	mu      sync.Mutex
	saved   []*domain.Itinerary
	history *lru.Cache[string, *domain.Itinerary]
}

var _ storage.TripStore = (*Store)(nil)

// New creates a new in-memory store
func New(historyLimit int) (*Store, error) {
	if historyLimit <= 0 {
		historyLimit = storage.DefaultHistoryLimit
	}
	history, err := lru.New[string, *domain.Itinerary](historyLimit)
	if err != nil {
		return nil, fmt.Errorf("create history cache: %w", err)
	}
	return &Store{history: history}, nil
}

func (s *Store) Put(ctx context.Context, c storage.Collection, it *domain.Itinerary) error {
	if it == nil || it.ID == "" {
		return fmt.Errorf("itinerary id is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	switch c {
	case storage.CollectionHistory:
		// Remove first so a re-put moves the entry to the front.
		s.history.Remove(it.ID)
		s.history.Add(it.ID, it.Clone())
	case storage.CollectionSaved:
		s.saved = append([]*domain.Itinerary{it.Clone()}, without(s.saved, it.ID)...)
	default:
		return fmt.Errorf("unknown collection %q", c)
	}
	return nil
}

func (s *Store) List(ctx context.Context, c storage.Collection) ([]*domain.Itinerary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch c {
	case storage.CollectionHistory:
		// Keys are oldest first.
		keys := s.history.Keys()
		out := make([]*domain.Itinerary, 0, len(keys))
		for i := len(keys) - 1; i >= 0; i-- {
			if it, ok := s.history.Peek(keys[i]); ok {
				out = append(out, it.Clone())
			}
		}
		return out, nil
	case storage.CollectionSaved:
		out := make([]*domain.Itinerary, len(s.saved))
		for i, it := range s.saved {
			out[i] = it.Clone()
		}
		return out, nil
	default:
		return nil, fmt.Errorf("unknown collection %q", c)
	}
}

func (s *Store) Get(ctx context.Context, c storage.Collection, id string) (*domain.Itinerary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch c {
	case storage.CollectionHistory:
		if it, ok := s.history.Peek(id); ok {
			return it.Clone(), nil
		}
	case storage.CollectionSaved:
		for _, it := range s.saved {
			if it.ID == id {
				return it.Clone(), nil
			}
		}
	default:
		return nil, fmt.Errorf("unknown collection %q", c)
	}
	return nil, storage.ErrNotFound
}

func (s *Store) Delete(ctx context.Context, c storage.Collection, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch c {
	case storage.CollectionHistory:
		if !s.history.Remove(id) {
			return storage.ErrNotFound
		}
	case storage.CollectionSaved:
		n := len(s.saved)
		s.saved = without(s.saved, id)
		if len(s.saved) == n {
			return storage.ErrNotFound
		}
	default:
		return fmt.Errorf("unknown collection %q", c)
	}
	return nil
}

func (s *Store) Clear(ctx context.Context, c storage.Collection) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch c {
	case storage.CollectionHistory:
		s.history.Purge()
	case storage.CollectionSaved:
		s.saved = nil
	default:
		return fmt.Errorf("unknown collection %q", c)
	}
	return nil
}

func (s *Store) ToggleSaved(ctx context.Context, it *domain.Itinerary) (bool, error) {
	if it == nil || it.ID == "" {
		return false, fmt.Errorf("itinerary id is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	n := len(s.saved)
	s.saved = without(s.saved, it.ID)
	if len(s.saved) < n {
		return false, nil
	}
	s.saved = append([]*domain.Itinerary{it.Clone()}, s.saved...)
	return true, nil
}

func (s *Store) Close() error {
	return nil
}

func without(list []*domain.Itinerary, id string) []*domain.Itinerary {
	out := make([]*domain.Itinerary, 0, len(list))
	for _, it := range list {
		if it.ID != id {
			out = append(out, it)
		}
	}
	return out
}
