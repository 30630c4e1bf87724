package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/tjfontaine/wayfarer/internal/domain"
	"github.com/tjfontaine/wayfarer/internal/imagery"
	"github.com/tjfontaine/wayfarer/internal/schema"
)

// Modify returns a revised copy of current. current is never mutated, so a
// failed modification leaves the caller's plan intact.
func (p *Planner) Modify(ctx context.Context, current *domain.Itinerary, editRequest string) (*domain.Itinerary, error) {
	if current == nil || len(current.Days) == 0 {
		return nil, domain.ErrValidation("current itinerary is required")
	}
	edit := strings.TrimSpace(editRequest)
	if edit == "" {
		return nil, domain.ErrValidation("edit request is required")
	}

	ctx, span := tracer.Start(ctx, "pipeline.Modify")
	defer span.End()
	span.SetAttributes(
		attribute.String("id", current.ID),
		attribute.Int("days", len(current.Days)),
	)

	start := time.Now()
	prior := current.Clone()

	prompt, err := buildModifyPrompt(prior, edit)
	if err != nil {
		return nil, domain.ErrValidation("current itinerary could not be encoded").WithCause(err)
	}
	if n, _ := p.counter.Count(prompt); n > p.maxPromptTokens {
		return nil, domain.ErrValidation(fmt.Sprintf("itinerary is too large to modify (%d tokens, limit %d)", n, p.maxPromptTokens))
	}

	revised, err := p.generate(ctx, "modify", prompt)
	if err != nil {
		recordError(span, err)
		return nil, err
	}

	if len(revised.Days) > domain.MaxDuration {
		revised.Days = revised.Days[:domain.MaxDuration]
	}

	carryForward(prior, revised)
	restored := preserveUnnamedDays(prior, revised, edit)

	keep := make([]bool, len(revised.Days))
	for i := range revised.Days {
		revised.Days[i].ImageURL = ""
		if i < len(prior.Days) && prior.Days[i].ImageURL != "" && revised.Days[i].SameContent(prior.Days[i]) {
			revised.Days[i].ImageURL = prior.Days[i].ImageURL
			keep[i] = true
		}
	}

	if err := p.enrichDays(ctx, revised, keep); err != nil {
		return nil, err
	}

	p.logger.Info("itinerary modified",
		slog.String("id", revised.ID),
		slog.Int("days", len(revised.Days)),
		slog.Int("days_restored", restored),
		slog.Duration("duration", time.Since(start)))

	return revised, nil
}

// carryForward copies identity and anything the revision left blank.
func carryForward(prior, revised *domain.Itinerary) {
	revised.ID = prior.ID
	revised.Vibe = prior.Vibe

	revised.HeroImage = prior.HeroImage
	if revised.HeroImage == "" {
		revised.HeroImage = imagery.VibeImage(prior.Vibe)
	}

	fillString(&revised.Destination, prior.Destination)
	fillString(&revised.TripTitle, prior.TripTitle)
	fillString(&revised.DateRange, prior.DateRange)
	fillString(&revised.TotalBudget, prior.TotalBudget)
	fillString(&revised.Weather, prior.Weather)
	fillString(&revised.CurrencyRate, prior.CurrencyRate)
	fillString(&revised.WhyDestination, prior.WhyDestination)
	fillString(&revised.BudgetAssumption, prior.BudgetAssumption)
	fillString(&revised.LocalContext.Customs, prior.LocalContext.Customs)

	fillList(&revised.LocalTips, prior.LocalTips)
	fillList(&revised.PackingList, prior.PackingList)
	fillList(&revised.LocalContext.FoodAndDrinks, prior.LocalContext.FoodAndDrinks)
	fillList(&revised.LocalContext.EtiquetteTips, prior.LocalContext.EtiquetteTips)
}

func fillString(dst *string, prior string) {
	if strings.TrimSpace(*dst) == "" {
		*dst = prior
	}
}

func fillList(dst *[]string, prior []string) {
	if len(*dst) == 0 && len(prior) > 0 {
		*dst = append([]string(nil), prior...)
	}
}

// preserveUnnamedDays restores days the edit request did not mention. It
// only applies when the request names days and the day count is unchanged;
// otherwise the generator's layout is trusted. Prior days get the same
// repairs as generator output, and a prior day that cannot be repaired
// leaves the generator's day in place. It returns the number of days
// restored.
func preserveUnnamedDays(prior, revised *domain.Itinerary, edit string) int {
	if len(prior.Days) != len(revised.Days) {
		return 0
	}
	named := NamedDays(edit, len(prior.Days))
	if len(named) == 0 {
		return 0
	}

	restored := 0
	for i := range prior.Days {
		if named[i+1] {
			continue
		}
		day, ok := schema.RepairDay(prior.Days[i], i+1)
		if !ok {
			continue
		}
		if !revised.Days[i].SameContent(day) {
			restored++
		}
		revised.Days[i] = day
	}
	return restored
}

var (
	dayListRef = regexp.MustCompile(`(?i)\b(days?)\s+(\d{1,2}\b(?:\s*(?:,|and|&|or|-|–|to|through)\s*\d{1,2}\b)*)`)
	dayWordRef = regexp.MustCompile(`(?i)\bday\s+(one|two|three|four|five|six|seven|eight|nine|ten|eleven|twelve|thirteen|fourteen)\b`)
	ordinalRef = regexp.MustCompile(`(?i)\b(first|second|third|fourth|fifth|sixth|seventh|eighth|ninth|tenth|eleventh|twelfth|thirteenth|fourteenth|last|final)\s+day\b`)
	number     = regexp.MustCompile(`\d{1,2}`)
	rangeSep   = regexp.MustCompile(`(?i)^\s*(?:-|–|to|through)\s*$`)
	clauseEnd  = regexp.MustCompile(`^\s*(?:$|[.,;:!?)])`)
)

var dayWords = map[string]int{
	"one": 1, "two": 2, "three": 3, "four": 4, "five": 5, "six": 6, "seven": 7,
	"eight": 8, "nine": 9, "ten": 10, "eleven": 11, "twelve": 12, "thirteen": 13, "fourteen": 14,
	"first": 1, "second": 2, "third": 3, "fourth": 4, "fifth": 5, "sixth": 6, "seventh": 7,
	"eighth": 8, "ninth": 9, "tenth": 10, "eleventh": 11, "twelfth": 12, "thirteenth": 13, "fourteenth": 14,
}

// NamedDays returns the 1-based day numbers an edit request refers to,
// limited to [1, total]. "Day 2", "days 1 and 3", "days 2-4", "day two",
// "the last day" are all recognised. A number list after a singular "day"
// counts only when it ends the clause.
func NamedDays(edit string, total int) map[int]bool {
	named := make(map[int]bool)
	add := func(n int) {
		if n >= 1 && n <= total {
			named[n] = true
		}
	}

	for _, m := range dayListRef.FindAllStringSubmatchIndex(edit, -1) {
		list := edit[m[4]:m[5]]
		idx := number.FindAllStringIndex(list, -1)
		// "day 1 to 3 museums" names day 1; a singular "day" only takes a
		// list that ends the clause.
		if len(idx) > 1 && len(edit[m[2]:m[3]]) == len("day") && !clauseEnd.MatchString(edit[m[1]:]) {
			idx = idx[:1]
		}
		prev := 0
		for k, loc := range idx {
			n, _ := strconv.Atoi(list[loc[0]:loc[1]])
			if k > 0 && rangeSep.MatchString(list[idx[k-1][1]:loc[0]]) {
				for d := prev + 1; d < n; d++ {
					add(d)
				}
			}
			add(n)
			prev = n
		}
	}

	for _, m := range dayWordRef.FindAllStringSubmatch(edit, -1) {
		add(dayWords[strings.ToLower(m[1])])
	}

	for _, m := range ordinalRef.FindAllStringSubmatch(edit, -1) {
		word := strings.ToLower(m[1])
		if word == "last" || word == "final" {
			add(total)
			continue
		}
		add(dayWords[word])
	}

	return named
}
