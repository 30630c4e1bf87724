package domain

import (
	"strings"
)

// Budget is the ordinal spending tier of a trip.
type Budget string

const (
	BudgetEconomy  Budget = "$"
	BudgetModerate Budget = "$$"
	BudgetLuxury   Budget = "$$$"
)

// Valid reports whether b is one of the three known tiers.
func (b Budget) Valid() bool {
	switch b {
	case BudgetEconomy, BudgetModerate, BudgetLuxury:
		return true
	}
	return false
}

// Vibe is the coarse travel style used for prompt shaping and image fallback.
type Vibe string

const (
	VibeNature Vibe = "Nature"
	VibeUrban  Vibe = "Urban"
	VibeRelax  Vibe = "Relax"
	VibeFood   Vibe = "Food"
)

// Vibes lists the known travel styles in display order.
var Vibes = []Vibe{VibeNature, VibeUrban, VibeRelax, VibeFood}

// Valid reports whether v is a known travel style.
func (v Vibe) Valid() bool {
	for _, known := range Vibes {
		if v == known {
			return true
		}
	}
	return false
}

// TimeSlot is the part of the day an activity is scheduled in.
type TimeSlot string

const (
	SlotMorning   TimeSlot = "Morning"
	SlotAfternoon TimeSlot = "Afternoon"
	SlotEvening   TimeSlot = "Evening"
)

// TimeSlots is the fixed order activities appear in within a day.
var TimeSlots = []TimeSlot{SlotMorning, SlotAfternoon, SlotEvening}

// ParseTimeSlot matches a slot label case-insensitively.
func ParseTimeSlot(s string) (TimeSlot, bool) {
	s = strings.TrimSpace(s)
	for _, slot := range TimeSlots {
		if strings.EqualFold(s, string(slot)) {
			return slot, true
		}
	}
	return "", false
}

const (
	MinDuration = 1
	MaxDuration = 14
)

// TripRequest is what a caller asks the planner for.
type TripRequest struct {
	Destination string `json:"destination"`
	Duration    int    `json:"duration"`
	Budget      Budget `json:"budget"`
	Vibe        Vibe   `json:"vibe"`
}

// Validate checks the request before any upstream call is made.
func (r TripRequest) Validate() error {
	switch {
	case strings.TrimSpace(r.Destination) == "":
		return ErrValidation("destination is required")
	case r.Duration < MinDuration || r.Duration > MaxDuration:
		return ErrValidation("duration must be between 1 and 14 days")
	case !r.Budget.Valid():
		return ErrValidation("budget must be one of $, $$, $$$")
	case !r.Vibe.Valid():
		return ErrValidation("vibe must be one of Nature, Urban, Relax, Food")
	}
	return nil
}

// Coordinates is a WGS84 point.
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Valid reports whether the point lies within latitude/longitude bounds.
func (c Coordinates) Valid() bool {
	return c.Lat >= -90 && c.Lat <= 90 && c.Lng >= -180 && c.Lng <= 180
}

// Activity is a single scheduled event within a day.
type Activity struct {
	Time        TimeSlot     `json:"time"`
	Title       string       `json:"title"`
	Desc        string       `json:"desc"`
	Icon        string       `json:"icon"`
	Coordinates *Coordinates `json:"coordinates,omitempty"`
}

// DayPlan is one day's worth of activities.
type DayPlan struct {
	Day          int        `json:"day"`
	Date         string     `json:"date"`
	Title        string     `json:"title"`
	CostEstimate string     `json:"costEstimate"`
	ImageURL     string     `json:"imageUrl,omitempty"`
	Activities   []Activity `json:"activities"`
}

// LocalContext carries destination-specific cultural notes.
type LocalContext struct {
	FoodAndDrinks []string `json:"foodAndDrinks"`
	Customs       string   `json:"customs"`
	EtiquetteTips []string `json:"etiquetteTips"`
}

// Itinerary is the full generated trip document.
type Itinerary struct {
	ID               string       `json:"id"`
	TripTitle        string       `json:"tripTitle"`
	DateRange        string       `json:"dateRange"`
	TotalBudget      string       `json:"totalBudget"`
	Weather          string       `json:"weather"`
	CurrencyRate     string       `json:"currencyRate"`
	WhyDestination   string       `json:"whyDestination"`
	LocalTips        []string     `json:"localTips"`
	PackingList      []string     `json:"packingList"`
	BudgetAssumption string       `json:"budgetAssumption"`
	LocalContext     LocalContext `json:"localContext"`
	Days             []DayPlan    `json:"days"`
	HeroImage        string       `json:"heroImage,omitempty"`
	Vibe             Vibe         `json:"vibe,omitempty"`
	Destination      string       `json:"destination,omitempty"`
}

// Clone returns a deep copy so callers never share slices with the pipeline.
func (it *Itinerary) Clone() *Itinerary {
	if it == nil {
		return nil
	}
	out := *it
	out.LocalTips = cloneStrings(it.LocalTips)
	out.PackingList = cloneStrings(it.PackingList)
	out.LocalContext.FoodAndDrinks = cloneStrings(it.LocalContext.FoodAndDrinks)
	out.LocalContext.EtiquetteTips = cloneStrings(it.LocalContext.EtiquetteTips)
	if it.Days != nil {
		out.Days = make([]DayPlan, len(it.Days))
		for i, d := range it.Days {
			out.Days[i] = d.Clone()
		}
	}
	return &out
}

// Clone returns a deep copy of the day.
func (d DayPlan) Clone() DayPlan {
	out := d
	if d.Activities != nil {
		out.Activities = make([]Activity, len(d.Activities))
		for i, a := range d.Activities {
			if a.Coordinates != nil {
				c := *a.Coordinates
				a.Coordinates = &c
			}
			out.Activities[i] = a
		}
	}
	return out
}

// SameContent reports whether two days describe the same plan, ignoring the resolved image.
func (d DayPlan) SameContent(other DayPlan) bool {
	if d.Day != other.Day || d.Date != other.Date || d.Title != other.Title ||
		d.CostEstimate != other.CostEstimate || len(d.Activities) != len(other.Activities) {
		return false
	}
	for i := range d.Activities {
		a, b := d.Activities[i], other.Activities[i]
		if a.Time != b.Time || a.Title != b.Title || a.Desc != b.Desc || a.Icon != b.Icon {
			return false
		}
		if (a.Coordinates == nil) != (b.Coordinates == nil) {
			return false
		}
		if a.Coordinates != nil && *a.Coordinates != *b.Coordinates {
			return false
		}
	}
	return true
}

func cloneStrings(in []string) []string {
	if in == nil {
		return nil
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}
