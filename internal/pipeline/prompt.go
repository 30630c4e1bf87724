package pipeline

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/tjfontaine/wayfarer/internal/domain"
)

var budgetLabels = map[domain.Budget]string{
	domain.BudgetEconomy:  "Economy",
	domain.BudgetModerate: "Moderate",
	domain.BudgetLuxury:   "Luxury",
}

func buildGeneratePrompt(req domain.TripRequest, start time.Time) string {
	var sb strings.Builder
	dest := strings.TrimSpace(req.Destination)

	fmt.Fprintf(&sb, "Curate a bespoke travel itinerary for %s.\n\n", dest)

	sb.WriteString("Trip parameters:\n")
	fmt.Fprintf(&sb, "- Duration: %d days.\n", req.Duration)
	fmt.Fprintf(&sb, "- Budget: %s (%s; scale: $ Economy to $$$ Luxury).\n", req.Budget, budgetLabels[req.Budget])
	fmt.Fprintf(&sb, "- Vibe: %s.\n", req.Vibe)
	fmt.Fprintf(&sb, "- The trip starts on %s.\n\n", start.Format("Jan 2, 2006"))

	sb.WriteString("Style guide:\n")
	sb.WriteString("- Tone: elegant, professional and inspiring.\n")
	sb.WriteString("- Each day MUST have exactly three activities labelled strictly 'Morning', 'Afternoon' and 'Evening', in that order.\n")
	sb.WriteString("- Descriptions are short and specific; avoid generic filler.\n\n")

	sb.WriteString("Requirements:\n")
	fmt.Fprintf(&sb, "1. Return exactly %d entries in \"days\", numbered from 1.\n", req.Duration)
	sb.WriteString("2. Icons are valid Material Symbols Outlined names in snake_case.\n")
	sb.WriteString("3. Provide realistic GPS coordinates (lat, lng) for every activity.\n")
	fmt.Fprintf(&sb, "4. Make the content highly specific to %s.\n", dest)
	fmt.Fprintf(&sb, "5. Set \"destination\" to %q.\n", dest)
	sb.WriteString("6. Respond with JSON only, matching the schema.\n")

	return sb.String()
}

// promptDocument strips resolved images, which the generator never needs.
func promptDocument(it *domain.Itinerary) ([]byte, error) {
	cp := it.Clone()
	cp.HeroImage = ""
	for i := range cp.Days {
		cp.Days[i].ImageURL = ""
	}
	return json.Marshal(cp)
}

func buildModifyPrompt(current *domain.Itinerary, editRequest string) (string, error) {
	doc, err := promptDocument(current)
	if err != nil {
		return "", fmt.Errorf("encode current itinerary: %w", err)
	}

	var sb strings.Builder
	sb.WriteString("Modify the travel itinerary below according to the edit request.\n\n")
	sb.WriteString("Current itinerary (JSON):\n")
	sb.Write(doc)
	sb.WriteString("\n\n")
	fmt.Fprintf(&sb, "Edit request: %q\n\n", editRequest)

	sb.WriteString("Rules:\n")
	sb.WriteString("- Return the complete revised itinerary, not a diff.\n")
	sb.WriteString("- Change only what the edit request asks for; copy every other field and day verbatim.\n")
	sb.WriteString("- Keep exactly three activities per day labelled 'Morning', 'Afternoon' and 'Evening'.\n")
	sb.WriteString("- Keep \"destination\" unchanged.\n")
	sb.WriteString("- Respond with JSON only, matching the schema.\n")

	return sb.String(), nil
}
