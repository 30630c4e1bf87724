// Package schema defines the itinerary document contract.
//
// The same contract is used in two directions: Itinerary() is handed to the
// AI provider as a structured-output constraint, and Decode/Validate gate
// whatever comes back before it reaches the planner.
package schema

import (
	"google.golang.org/genai"
)

// Top-level field names of the itinerary document.
const (
	FieldTripTitle        = "tripTitle"
	FieldDateRange        = "dateRange"
	FieldTotalBudget      = "totalBudget"
	FieldWeather          = "weather"
	FieldCurrencyRate     = "currencyRate"
	FieldWhyDestination   = "whyDestination"
	FieldLocalTips        = "localTips"
	FieldPackingList      = "packingList"
	FieldBudgetAssumption = "budgetAssumption"
	FieldLocalContext     = "localContext"
	FieldDays             = "days"
	FieldDestination      = "destination"
)

// requiredTopLevel lists the backbone fields in the order they are checked.
var requiredTopLevel = []string{
	FieldTripTitle,
	FieldDateRange,
	FieldTotalBudget,
	FieldWeather,
	FieldDays,
	FieldLocalTips,
	FieldPackingList,
	FieldBudgetAssumption,
	FieldLocalContext,
	FieldWhyDestination,
}

func str(desc string) *genai.Schema {
	return &genai.Schema{Type: genai.TypeString, Description: desc}
}

func strList(desc string) *genai.Schema {
	return &genai.Schema{
		Type:        genai.TypeArray,
		Items:       &genai.Schema{Type: genai.TypeString},
		Description: desc,
	}
}

// Itinerary returns a fresh copy of the output schema for the AI provider.
func Itinerary() *genai.Schema {
	activity := &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"time":  str("Strictly 'Morning', 'Afternoon', or 'Evening'"),
			"title": str(""),
			"desc":  str("A refined, professional description (1-2 sentences)"),
			"icon":  str("Material symbol name (e.g. restaurant, hiking, museum)"),
			"coordinates": {
				Type:        genai.TypeObject,
				Description: "Coordinates of the activity location",
				Properties: map[string]*genai.Schema{
					"lat": {Type: genai.TypeNumber},
					"lng": {Type: genai.TypeNumber},
				},
				Required: []string{"lat", "lng"},
			},
		},
		Required: []string{"time", "title", "desc", "icon", "coordinates"},
	}

	day := &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"day":          {Type: genai.TypeInteger},
			"date":         str("e.g. 'Oct 12'"),
			"title":        str("Main theme of the day"),
			"costEstimate": str("Cost for this day"),
			"activities": {
				Type:  genai.TypeArray,
				Items: activity,
			},
		},
		Required: []string{"day", "date", "title", "costEstimate", "activities"},
	}

	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			FieldTripTitle:        str("Title of the trip, e.g. 'Trip to Bali'"),
			FieldDateRange:        str("Simulated date range, e.g. 'Oct 12 - Oct 24'"),
			FieldTotalBudget:      str("Estimated total cost"),
			FieldWeather:          str("Expected weather summary, e.g. '28°C, Sunny'"),
			FieldCurrencyRate:     str("Exchange rate info, e.g. '1 USD = 15,450 IDR'"),
			FieldWhyDestination:   str("Why this destination suits the traveller"),
			FieldLocalTips:        strList("2-3 short, essential local tips"),
			FieldPackingList:      strList("3-4 essential packing items"),
			FieldBudgetAssumption: str("What the budget estimate assumes"),
			FieldLocalContext: {
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"foodAndDrinks": strList(""),
					"customs":       str(""),
					"etiquetteTips": strList(""),
				},
				Required: []string{"foodAndDrinks", "customs", "etiquetteTips"},
			},
			FieldDays: {
				Type:  genai.TypeArray,
				Items: day,
			},
			FieldDestination: str("The destination exactly as requested"),
		},
		Required: append([]string(nil), requiredTopLevel...),
	}
}
