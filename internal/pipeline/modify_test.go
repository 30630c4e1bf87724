package pipeline

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tjfontaine/wayfarer/internal/domain"
	"github.com/tjfontaine/wayfarer/internal/imagery"
	"github.com/tjfontaine/wayfarer/internal/provider"
)

func kyotoTrip() *domain.Itinerary {
	it := sampleItinerary("Kyoto, Japan", 3)
	it.ID = "kyoto-1"
	it.Vibe = domain.VibeNature
	it.TotalBudget = "$1,800"
	it.HeroImage = "https://img/hero-kyoto"
	for i := range it.Days {
		it.Days[i].ImageURL = "https://img/day-" + string(rune('1'+i))
	}
	return it
}

func TestModify_PreservesUntouchedContent(t *testing.T) {
	current := kyotoTrip()
	snapshot := current.Clone()

	revision := current.Clone()
	revision.Destination = ""
	revision.HeroImage = ""
	revision.Days[1].Activities[2].Title = "Sake tasting in Fushimi"
	// Drift the generator introduced on a day nobody asked about.
	revision.Days[2].Title = "Something else entirely"

	gen := returning(mustJSON(t, revision))
	images := &fakeSearcher{configured: true, prefix: "https://img/new/"}
	p := newPlanner(gen, []provider.ImageSearcher{images})

	got, err := p.Modify(context.Background(), current, "Change the evening activity on Day 2 to a sake tasting")
	require.NoError(t, err)

	assert.Equal(t, "Kyoto, Japan", got.Destination)
	assert.Equal(t, "$1,800", got.TotalBudget)
	assert.Equal(t, "kyoto-1", got.ID)
	assert.Equal(t, domain.VibeNature, got.Vibe)
	assert.Equal(t, "https://img/hero-kyoto", got.HeroImage)

	assert.True(t, got.Days[0].SameContent(snapshot.Days[0]), "day 1 changed")
	assert.True(t, got.Days[2].SameContent(snapshot.Days[2]), "day 3 changed")
	assert.Equal(t, "Sake tasting in Fushimi", got.Days[1].Activities[2].Title)

	// Unchanged days keep their images; the edited day is re-resolved.
	assert.Equal(t, "https://img/day-1", got.Days[0].ImageURL)
	assert.Equal(t, "https://img/day-3", got.Days[2].ImageURL)
	assert.True(t, strings.HasPrefix(got.Days[1].ImageURL, "https://img/new/"), "day 2 image = %q", got.Days[1].ImageURL)

	// The caller's document is untouched.
	assert.Equal(t, snapshot, current)

	prompt := gen.lastPrompt()
	assert.Contains(t, prompt, "sake tasting")
	assert.NotContains(t, prompt, "https://img/hero-kyoto")
}

func TestModify_RestoredDaysAreRepaired(t *testing.T) {
	current := kyotoTrip()
	current.Days[0].Activities[0].Coordinates = &domain.Coordinates{Lat: 200, Lng: 500}
	current.Days[0].Activities[0], current.Days[0].Activities[2] = current.Days[0].Activities[2], current.Days[0].Activities[0]

	revision := current.Clone()
	revision.Days[0] = kyotoTrip().Days[0]
	revision.Days[1].Activities[2].Title = "Sake tasting in Fushimi"

	current.Days[2].Day = 7
	current.Days[2].Activities = current.Days[2].Activities[:2]
	snapshot := current.Clone()

	p := newPlanner(returning(mustJSON(t, revision)), nil)
	got, err := p.Modify(context.Background(), current, "Change the evening activity on Day 2")
	require.NoError(t, err)
	require.Len(t, got.Days, 3)

	for i, d := range got.Days {
		assert.Equal(t, i+1, d.Day)
		require.Len(t, d.Activities, 3, "day %d", d.Day)
		for j, slot := range domain.TimeSlots {
			a := d.Activities[j]
			assert.Equal(t, slot, a.Time, "day %d activity %d", d.Day, j)
			if a.Coordinates != nil {
				assert.True(t, a.Coordinates.Valid(), "day %d activity %d coordinates %+v", d.Day, j, *a.Coordinates)
			}
		}
	}

	// Day 1 is restored from the caller's copy with the bad point dropped
	// and the slots back in order.
	assert.Equal(t, "Morning 1", got.Days[0].Activities[0].Title)
	assert.Nil(t, got.Days[0].Activities[0].Coordinates)
	assert.Equal(t, "Evening 1", got.Days[0].Activities[2].Title)
	assert.NotNil(t, got.Days[0].Activities[2].Coordinates)

	// Day 3 cannot be repaired, so the generator's copy stands.
	assert.Equal(t, "Evening 3", got.Days[2].Activities[2].Title)

	assert.Equal(t, "Sake tasting in Fushimi", got.Days[1].Activities[2].Title)
	assert.Equal(t, snapshot, current)
}

func TestModify_GlobalEditTrustsGenerator(t *testing.T) {
	current := kyotoTrip()
	revision := current.Clone()
	revision.TotalBudget = "$900"
	for i := range revision.Days {
		revision.Days[i].CostEstimate = "$150"
	}

	p := newPlanner(returning(mustJSON(t, revision)), nil)
	got, err := p.Modify(context.Background(), current, "Make the whole trip cheaper")
	require.NoError(t, err)

	assert.Equal(t, "$900", got.TotalBudget)
	for _, d := range got.Days {
		assert.Equal(t, "$150", d.CostEstimate)
		assert.Equal(t, imagery.VibeImage(domain.VibeNature), d.ImageURL)
	}
}

func TestModify_AddsDay(t *testing.T) {
	current := kyotoTrip()
	revision := sampleItinerary("Kyoto, Japan", 4)

	p := newPlanner(returning(mustJSON(t, revision)), nil)
	got, err := p.Modify(context.Background(), current, "Add a fourth day in Nara")
	require.NoError(t, err)
	assert.Len(t, got.Days, 4)
	assert.Equal(t, 4, got.Days[3].Day)
}

func TestModify_FailureLeavesCurrentIntact(t *testing.T) {
	current := kyotoTrip()
	snapshot := current.Clone()

	p := newPlanner(returning("not json"), nil)
	got, err := p.Modify(context.Background(), current, "Change day 2")
	assert.Nil(t, got)
	assert.True(t, domain.IsKind(err, domain.KindMalformedResponse), "got %v", err)
	assert.Equal(t, snapshot, current)
}

func TestModify_Validation(t *testing.T) {
	p := newPlanner(returning("{}"), nil)

	_, err := p.Modify(context.Background(), nil, "anything")
	assert.True(t, domain.IsKind(err, domain.KindValidation))

	_, err = p.Modify(context.Background(), kyotoTrip(), "   ")
	assert.True(t, domain.IsKind(err, domain.KindValidation))

	small := newPlanner(returning("{}"), nil, WithMaxPromptTokens(10))
	_, err = small.Modify(context.Background(), kyotoTrip(), "Change day 2")
	assert.True(t, domain.IsKind(err, domain.KindValidation), "got %v", err)
}

func TestNamedDays(t *testing.T) {
	tests := []struct {
		edit string
		want []int
	}{
		{"Change the evening activity on Day 2", []int{2}},
		{"Swap days 1 and 3", []int{1, 3}},
		{"Make days 2-4 more relaxed", []int{2, 3, 4}},
		{"Change day 1 to 3 museums", []int{1}},
		{"Lighten day 1 or 2.", []int{1, 2}},
		{"Move dinner on day 1 and day 4", []int{1, 4}},
		{"On day two, add a museum", []int{2}},
		{"Make the last day lighter", []int{5}},
		{"Replace the first day's lunch", []int{1}},
		{"Day 9 should be a beach day", nil},
		{"Make it cheaper", nil},
		{"Add something for today", nil},
	}

	for _, tt := range tests {
		t.Run(tt.edit, func(t *testing.T) {
			got := NamedDays(tt.edit, 5)
			want := map[int]bool{}
			for _, d := range tt.want {
				want[d] = true
			}
			assert.Equal(t, want, got)
		})
	}
}
