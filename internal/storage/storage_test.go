package storage

import (
	"testing"

	"github.com/tjfontaine/wayfarer/internal/domain"
)

func TestFavoriteVibe(t *testing.T) {
	trip := func(v domain.Vibe) *domain.Itinerary { return &domain.Itinerary{Vibe: v} }

	tests := []struct {
		name  string
		trips []*domain.Itinerary
		want  string
	}{
		{"empty", nil, UndecidedVibe},
		{"only unknown vibes", []*domain.Itinerary{trip(""), trip("Party"), nil}, UndecidedVibe},
		{"clear winner", []*domain.Itinerary{trip(domain.VibeFood), trip(domain.VibeUrban), trip(domain.VibeFood)}, "Food"},
		{"tie goes to listed order", []*domain.Itinerary{trip(domain.VibeFood), trip(domain.VibeNature)}, "Nature"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FavoriteVibe(tt.trips); got != tt.want {
				t.Errorf("FavoriteVibe() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestParseCollection(t *testing.T) {
	for _, name := range []string{"saved", "history"} {
		if _, err := ParseCollection(name); err != nil {
			t.Errorf("ParseCollection(%q) error = %v", name, err)
		}
	}
	if _, err := ParseCollection("Saved"); err == nil {
		t.Error("ParseCollection should be case-sensitive")
	}
}
