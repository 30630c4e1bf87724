// Package storagetest holds the behaviour every TripStore must share.
package storagetest

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tjfontaine/wayfarer/internal/domain"
	"github.com/tjfontaine/wayfarer/internal/storage"
)

// Factory returns an empty store with the given history limit.
type Factory func(t *testing.T, historyLimit int) storage.TripStore

// Trip returns a minimal itinerary with the given id and vibe.
func Trip(id string, vibe domain.Vibe) *domain.Itinerary {
	return &domain.Itinerary{
		ID:          id,
		TripTitle:   "Trip " + id,
		Vibe:        vibe,
		Destination: "Lisbon",
		LocalTips:   []string{"tip"},
		Days: []domain.DayPlan{{
			Day:   1,
			Title: "Arrival",
			Activities: []domain.Activity{
				{Time: domain.SlotMorning, Title: "Coffee", Coordinates: &domain.Coordinates{Lat: 38.7, Lng: -9.1}},
				{Time: domain.SlotAfternoon, Title: "Walk"},
				{Time: domain.SlotEvening, Title: "Dinner"},
			},
		}},
	}
}

func ids(list []*domain.Itinerary) []string {
	out := make([]string, len(list))
	for i, it := range list {
		out[i] = it.ID
	}
	return out
}

// Run exercises a TripStore implementation.
func Run(t *testing.T, newStore Factory) {
	ctx := context.Background()

	t.Run("history is newest first", func(t *testing.T) {
		s := newStore(t, 10)
		for _, id := range []string{"a", "b", "c"} {
			require.NoError(t, s.Put(ctx, storage.CollectionHistory, Trip(id, domain.VibeFood)))
		}
		list, err := s.List(ctx, storage.CollectionHistory)
		require.NoError(t, err)
		assert.Equal(t, []string{"c", "b", "a"}, ids(list))
	})

	t.Run("re-put replaces and moves to front", func(t *testing.T) {
		s := newStore(t, 10)
		require.NoError(t, s.Put(ctx, storage.CollectionHistory, Trip("a", domain.VibeFood)))
		require.NoError(t, s.Put(ctx, storage.CollectionHistory, Trip("b", domain.VibeFood)))

		revised := Trip("a", domain.VibeFood)
		revised.TripTitle = "Revised"
		require.NoError(t, s.Put(ctx, storage.CollectionHistory, revised))

		list, err := s.List(ctx, storage.CollectionHistory)
		require.NoError(t, err)
		assert.Equal(t, []string{"a", "b"}, ids(list))
		assert.Equal(t, "Revised", list[0].TripTitle)
	})

	t.Run("history is bounded", func(t *testing.T) {
		s := newStore(t, 3)
		for i := 0; i < 5; i++ {
			require.NoError(t, s.Put(ctx, storage.CollectionHistory, Trip(fmt.Sprintf("t%d", i), domain.VibeUrban)))
		}
		list, err := s.List(ctx, storage.CollectionHistory)
		require.NoError(t, err)
		assert.Equal(t, []string{"t4", "t3", "t2"}, ids(list))

		_, err = s.Get(ctx, storage.CollectionHistory, "t0")
		assert.ErrorIs(t, err, storage.ErrNotFound)
	})

	t.Run("round trip keeps the document", func(t *testing.T) {
		s := newStore(t, 10)
		want := Trip("x", domain.VibeNature)
		require.NoError(t, s.Put(ctx, storage.CollectionSaved, want))

		got, err := s.Get(ctx, storage.CollectionSaved, "x")
		require.NoError(t, err)
		assert.Equal(t, want, got)

		got.Days[0].Title = "mutated"
		again, err := s.Get(ctx, storage.CollectionSaved, "x")
		require.NoError(t, err)
		assert.Equal(t, "Arrival", again.Days[0].Title)
	})

	t.Run("collections are independent", func(t *testing.T) {
		s := newStore(t, 10)
		require.NoError(t, s.Put(ctx, storage.CollectionHistory, Trip("a", domain.VibeFood)))

		_, err := s.Get(ctx, storage.CollectionSaved, "a")
		assert.ErrorIs(t, err, storage.ErrNotFound)
	})

	t.Run("toggle saved", func(t *testing.T) {
		s := newStore(t, 10)
		trip := Trip("a", domain.VibeRelax)

		saved, err := s.ToggleSaved(ctx, trip)
		require.NoError(t, err)
		assert.True(t, saved)

		list, err := s.List(ctx, storage.CollectionSaved)
		require.NoError(t, err)
		assert.Equal(t, []string{"a"}, ids(list))

		saved, err = s.ToggleSaved(ctx, trip)
		require.NoError(t, err)
		assert.False(t, saved)

		list, err = s.List(ctx, storage.CollectionSaved)
		require.NoError(t, err)
		assert.Empty(t, list)
	})

	t.Run("delete and clear", func(t *testing.T) {
		s := newStore(t, 10)
		require.NoError(t, s.Put(ctx, storage.CollectionHistory, Trip("a", domain.VibeFood)))
		require.NoError(t, s.Put(ctx, storage.CollectionHistory, Trip("b", domain.VibeFood)))

		require.NoError(t, s.Delete(ctx, storage.CollectionHistory, "a"))
		assert.ErrorIs(t, s.Delete(ctx, storage.CollectionHistory, "a"), storage.ErrNotFound)

		require.NoError(t, s.Clear(ctx, storage.CollectionHistory))
		list, err := s.List(ctx, storage.CollectionHistory)
		require.NoError(t, err)
		assert.Empty(t, list)
	})

	t.Run("unknown collection", func(t *testing.T) {
		s := newStore(t, 10)
		assert.Error(t, s.Put(ctx, storage.Collection("drafts"), Trip("a", domain.VibeFood)))
		_, err := s.List(ctx, storage.Collection("drafts"))
		assert.Error(t, err)
	})

	t.Run("profile", func(t *testing.T) {
		s := newStore(t, 10)
		p, err := storage.LoadProfile(ctx, s)
		require.NoError(t, err)
		assert.Equal(t, storage.UndecidedVibe, p.FavoriteVibe)

		require.NoError(t, s.Put(ctx, storage.CollectionHistory, Trip("a", domain.VibeFood)))
		require.NoError(t, s.Put(ctx, storage.CollectionHistory, Trip("b", domain.VibeNature)))
		require.NoError(t, s.Put(ctx, storage.CollectionHistory, Trip("c", domain.VibeFood)))
		_, err = s.ToggleSaved(ctx, Trip("a", domain.VibeFood))
		require.NoError(t, err)

		p, err = storage.LoadProfile(ctx, s)
		require.NoError(t, err)
		assert.Equal(t, storage.Profile{TripsGenerated: 3, TripsSaved: 1, FavoriteVibe: "Food"}, p)
	})
}
