package schema

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/tjfontaine/wayfarer/internal/domain"
)

// ActivitiesPerDay is the fixed number of activities in every day.
const ActivitiesPerDay = 3

// Document is a parsed but not yet validated itinerary payload.
type Document map[string]json.RawMessage

// StripFences removes a markdown code fence wrapped around the payload.
// Some backends fence JSON even when asked for bare structured output.
func StripFences(text string) string {
	text = strings.TrimSpace(text)
	if strings.HasPrefix(text, "```") {
		if nl := strings.IndexByte(text, '\n'); nl >= 0 {
			text = text[nl+1:]
		} else {
			text = strings.TrimPrefix(text, "```")
		}
	}
	text = strings.TrimSpace(text)
	text = strings.TrimSuffix(text, "```")
	return strings.TrimSpace(text)
}

// Decode strips fences and parses text as a JSON object.
// Any failure is a malformed response.
func Decode(text string) (Document, error) {
	cleaned := StripFences(text)
	if cleaned == "" {
		return nil, domain.ErrMalformedResponse("empty response from generator")
	}

	var doc Document
	if err := json.Unmarshal([]byte(cleaned), &doc); err != nil {
		return nil, domain.ErrMalformedResponse("response is not a valid itinerary document").WithCause(err)
	}
	if doc == nil {
		return nil, domain.ErrMalformedResponse("response is not a JSON object")
	}
	return doc, nil
}

type jsonKind int

const (
	kindMissing jsonKind = iota
	kindString
	kindNumber
	kindBool
	kindArray
	kindObject
)

func (k jsonKind) String() string {
	switch k {
	case kindString:
		return "string"
	case kindNumber:
		return "number"
	case kindBool:
		return "boolean"
	case kindArray:
		return "array"
	case kindObject:
		return "object"
	default:
		return "missing"
	}
}

func kindOf(raw json.RawMessage) jsonKind {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return kindMissing
	}
	switch raw[0] {
	case '"':
		return kindString
	case '[':
		return kindArray
	case '{':
		return kindObject
	case 't', 'f':
		return kindBool
	case 'n':
		return kindMissing
	default:
		return kindNumber
	}
}

var expectedKinds = map[string]jsonKind{
	FieldTripTitle:        kindString,
	FieldDateRange:        kindString,
	FieldTotalBudget:      kindString,
	FieldWeather:          kindString,
	FieldWhyDestination:   kindString,
	FieldBudgetAssumption: kindString,
	FieldDays:             kindArray,
	FieldLocalTips:        kindArray,
	FieldPackingList:      kindArray,
	FieldLocalContext:     kindObject,
}

func requireKind(doc map[string]json.RawMessage, field, path string, want jsonKind) error {
	got := kindOf(doc[field])
	if got == kindMissing {
		return domain.ErrSchemaViolation(fmt.Sprintf("missing required field %q", path))
	}
	if got != want {
		return domain.ErrSchemaViolation(fmt.Sprintf("field %q must be a %s, got %s", path, want, got))
	}
	return nil
}

type rawActivity struct {
	Time        string          `json:"time"`
	Title       string          `json:"title"`
	Desc        string          `json:"desc"`
	Icon        string          `json:"icon"`
	Coordinates json.RawMessage `json:"coordinates"`
}

type rawDay struct {
	Date         string          `json:"date"`
	Title        string          `json:"title"`
	CostEstimate string          `json:"costEstimate"`
	ImageURL     string          `json:"imageUrl"`
	Activities   json.RawMessage `json:"activities"`
}

// Validate checks the document backbone and returns a repaired Itinerary.
//
// Missing backbone fields reject the whole document. Cosmetic defects are
// repaired in place: days are renumbered by position, activity slots are
// normalised to Morning/Afternoon/Evening, and unusable coordinates are
// dropped.
func Validate(doc Document) (*domain.Itinerary, error) {
	if doc == nil {
		return nil, domain.ErrSchemaViolation("document is empty")
	}

	for _, field := range requiredTopLevel {
		if err := requireKind(doc, field, field, expectedKinds[field]); err != nil {
			return nil, err
		}
	}
	if kind := kindOf(doc[FieldCurrencyRate]); kind != kindMissing && kind != kindString {
		return nil, domain.ErrSchemaViolation(fmt.Sprintf("field %q must be a string, got %s", FieldCurrencyRate, kind))
	}

	it := &domain.Itinerary{}
	strFields := []struct {
		name string
		dst  *string
	}{
		{FieldTripTitle, &it.TripTitle},
		{FieldDateRange, &it.DateRange},
		{FieldTotalBudget, &it.TotalBudget},
		{FieldWeather, &it.Weather},
		{FieldCurrencyRate, &it.CurrencyRate},
		{FieldWhyDestination, &it.WhyDestination},
		{FieldBudgetAssumption, &it.BudgetAssumption},
	}
	for _, f := range strFields {
		if kindOf(doc[f.name]) == kindMissing {
			continue
		}
		if err := json.Unmarshal(doc[f.name], f.dst); err != nil {
			return nil, domain.ErrSchemaViolation(fmt.Sprintf("field %q is not a string", f.name)).WithCause(err)
		}
	}

	var err error
	if it.LocalTips, err = decodeStrings(doc[FieldLocalTips], FieldLocalTips); err != nil {
		return nil, err
	}
	if it.PackingList, err = decodeStrings(doc[FieldPackingList], FieldPackingList); err != nil {
		return nil, err
	}
	if it.LocalContext, err = decodeLocalContext(doc[FieldLocalContext]); err != nil {
		return nil, err
	}
	if it.Days, err = decodeDays(doc[FieldDays]); err != nil {
		return nil, err
	}

	// Optional echoes; a wrong kind here is ignored rather than rejected.
	_ = json.Unmarshal(doc[FieldDestination], &it.Destination)
	_ = json.Unmarshal(doc["id"], &it.ID)
	_ = json.Unmarshal(doc["heroImage"], &it.HeroImage)
	var vibe string
	if json.Unmarshal(doc["vibe"], &vibe) == nil && domain.Vibe(vibe).Valid() {
		it.Vibe = domain.Vibe(vibe)
	}

	return it, nil
}

func decodeStrings(raw json.RawMessage, path string) ([]string, error) {
	var out []string
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, domain.ErrSchemaViolation(fmt.Sprintf("field %q must be a list of strings", path)).WithCause(err)
	}
	if out == nil {
		out = []string{}
	}
	return out, nil
}

func decodeLocalContext(raw json.RawMessage) (domain.LocalContext, error) {
	var lc domain.LocalContext
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil {
		return lc, domain.ErrSchemaViolation("field \"localContext\" must be an object").WithCause(err)
	}

	if err := requireKind(obj, "foodAndDrinks", "localContext.foodAndDrinks", kindArray); err != nil {
		return lc, err
	}
	if err := requireKind(obj, "customs", "localContext.customs", kindString); err != nil {
		return lc, err
	}
	if err := requireKind(obj, "etiquetteTips", "localContext.etiquetteTips", kindArray); err != nil {
		return lc, err
	}

	var err error
	if lc.FoodAndDrinks, err = decodeStrings(obj["foodAndDrinks"], "localContext.foodAndDrinks"); err != nil {
		return lc, err
	}
	if lc.EtiquetteTips, err = decodeStrings(obj["etiquetteTips"], "localContext.etiquetteTips"); err != nil {
		return lc, err
	}
	if err := json.Unmarshal(obj["customs"], &lc.Customs); err != nil {
		return lc, domain.ErrSchemaViolation("field \"localContext.customs\" must be a string").WithCause(err)
	}
	return lc, nil
}

func decodeDays(raw json.RawMessage) ([]domain.DayPlan, error) {
	var rawDays []rawDay
	if err := json.Unmarshal(raw, &rawDays); err != nil {
		return nil, domain.ErrSchemaViolation("field \"days\" must be a list of day objects").WithCause(err)
	}
	if len(rawDays) == 0 {
		return nil, domain.ErrSchemaViolation("field \"days\" must not be empty")
	}

	days := make([]domain.DayPlan, len(rawDays))
	for i, rd := range rawDays {
		path := fmt.Sprintf("days[%d].activities", i)
		if kindOf(rd.Activities) != kindArray {
			return nil, domain.ErrSchemaViolation(fmt.Sprintf("missing required field %q", path))
		}
		var rawActs []rawActivity
		if err := json.Unmarshal(rd.Activities, &rawActs); err != nil {
			return nil, domain.ErrSchemaViolation(fmt.Sprintf("field %q must be a list of activity objects", path)).WithCause(err)
		}
		if len(rawActs) != ActivitiesPerDay {
			return nil, domain.ErrSchemaViolation(fmt.Sprintf("day %d has %d activities, want %d", i+1, len(rawActs), ActivitiesPerDay))
		}

		acts := make([]domain.Activity, len(rawActs))
		for j, ra := range rawActs {
			acts[j] = domain.Activity{
				Time:        domain.TimeSlot(ra.Time),
				Title:       ra.Title,
				Desc:        ra.Desc,
				Icon:        ra.Icon,
				Coordinates: parseCoordinates(ra.Coordinates),
			}
		}

		days[i] = domain.DayPlan{
			Day:          i + 1,
			Date:         rd.Date,
			Title:        rd.Title,
			CostEstimate: rd.CostEstimate,
			ImageURL:     rd.ImageURL,
			Activities:   normalizeSlots(acts),
		}
	}
	return days, nil
}

// parseCoordinates returns nil for anything that is not an in-range numeric point.
func parseCoordinates(raw json.RawMessage) *domain.Coordinates {
	if kindOf(raw) != kindObject {
		return nil
	}
	var obj map[string]any
	if err := json.Unmarshal(raw, &obj); err != nil {
		return nil
	}
	lat, ok := obj["lat"].(float64)
	if !ok {
		return nil
	}
	lng, ok := obj["lng"].(float64)
	if !ok {
		return nil
	}
	c := domain.Coordinates{Lat: lat, Lng: lng}
	if !c.Valid() {
		return nil
	}
	return &c
}

// RepairDay applies the day repairs Validate performs to a day that was not
// decoded from generator output: it renumbers d to position, drops
// out-of-range coordinates and orders the slots. It reports false when d
// does not have exactly ActivitiesPerDay activities.
func RepairDay(d domain.DayPlan, position int) (domain.DayPlan, bool) {
	if len(d.Activities) != ActivitiesPerDay {
		return d, false
	}
	out := d.Clone()
	out.Day = position
	for i := range out.Activities {
		if c := out.Activities[i].Coordinates; c != nil && !c.Valid() {
			out.Activities[i].Coordinates = nil
		}
	}
	out.Activities = normalizeSlots(out.Activities)
	return out, true
}

// normalizeSlots orders activities Morning, Afternoon, Evening. When the
// labels do not name three distinct slots they are reassigned by position.
func normalizeSlots(acts []domain.Activity) []domain.Activity {
	bySlot := make(map[domain.TimeSlot]domain.Activity, len(acts))
	for _, a := range acts {
		slot, ok := domain.ParseTimeSlot(string(a.Time))
		if !ok {
			break
		}
		if _, dup := bySlot[slot]; dup {
			break
		}
		a.Time = slot
		bySlot[slot] = a
	}

	out := make([]domain.Activity, len(acts))
	if len(bySlot) == len(domain.TimeSlots) && len(acts) == len(domain.TimeSlots) {
		for i, slot := range domain.TimeSlots {
			out[i] = bySlot[slot]
		}
		return out
	}
	for i, a := range acts {
		a.Time = domain.TimeSlots[i%len(domain.TimeSlots)]
		out[i] = a
	}
	return out
}
