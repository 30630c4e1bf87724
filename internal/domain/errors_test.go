package domain

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestGenerationError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *GenerationError
		expected string
	}{
		{
			name:     "kind and message",
			err:      &GenerationError{Kind: KindValidation, Message: "destination is required"},
			expected: "validation: destination is required",
		},
		{
			name:     "with cause",
			err:      ErrServiceUnavailable("upstream failed").WithCause(errors.New("dial tcp: refused")),
			expected: "service_unavailable: upstream failed: dial tcp: refused",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.expected {
				t.Errorf("Error() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestGenerationError_HTTPStatusCode(t *testing.T) {
	tests := []struct {
		name     string
		err      *GenerationError
		expected int
	}{
		{"configuration", ErrConfiguration("missing key"), http.StatusInternalServerError},
		{"validation", ErrValidation("bad"), http.StatusBadRequest},
		{"service unavailable", ErrServiceUnavailable("down"), http.StatusServiceUnavailable},
		{"content blocked", ErrContentBlocked("safety"), http.StatusUnprocessableEntity},
		{"malformed", ErrMalformedResponse("not json"), http.StatusInternalServerError},
		{"schema", ErrSchemaViolation("missing days"), http.StatusInternalServerError},
		{"timeout", ErrTimeout("too slow"), http.StatusGatewayTimeout},
		{"override", ErrServiceUnavailable("x").WithStatusCode(http.StatusBadGateway), http.StatusBadGateway},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.HTTPStatusCode(); got != tt.expected {
				t.Errorf("HTTPStatusCode() = %d, want %d", got, tt.expected)
			}
		})
	}
}

func TestGenerationError_Retryable(t *testing.T) {
	if ErrConfiguration("x").Retryable() {
		t.Error("configuration errors must not be retryable")
	}
	if ErrValidation("x").Retryable() {
		t.Error("validation errors must not be retryable")
	}
	for _, err := range []*GenerationError{
		ErrServiceUnavailable("x"),
		ErrContentBlocked("x"),
		ErrMalformedResponse("x"),
		ErrSchemaViolation("x"),
		ErrTimeout("x"),
	} {
		if !err.Retryable() {
			t.Errorf("%s should be retryable", err.Kind)
		}
	}
}

func TestIsKind(t *testing.T) {
	cause := context.DeadlineExceeded
	wrapped := fmt.Errorf("acquire: %w", ErrTimeout("generation took too long").WithCause(cause))

	if !IsKind(wrapped, KindTimeout) {
		t.Error("IsKind() should see through fmt.Errorf wrapping")
	}
	if IsKind(wrapped, KindServiceUnavailable) {
		t.Error("IsKind() matched the wrong kind")
	}
	if !errors.Is(wrapped, context.DeadlineExceeded) {
		t.Error("cause should be reachable with errors.Is")
	}
	if IsKind(errors.New("plain"), KindTimeout) {
		t.Error("plain errors carry no kind")
	}
}

func TestTripRequest_Validate(t *testing.T) {
	valid := TripRequest{Destination: "Lisbon", Duration: 3, Budget: BudgetModerate, Vibe: VibeFood}

	tests := []struct {
		name    string
		mutate  func(r *TripRequest)
		wantErr bool
	}{
		{"valid", func(r *TripRequest) {}, false},
		{"blank destination", func(r *TripRequest) { r.Destination = "   " }, true},
		{"zero duration", func(r *TripRequest) { r.Duration = 0 }, true},
		{"too long", func(r *TripRequest) { r.Duration = 15 }, true},
		{"max duration", func(r *TripRequest) { r.Duration = 14 }, false},
		{"unknown budget", func(r *TripRequest) { r.Budget = "$$$$" }, true},
		{"unknown vibe", func(r *TripRequest) { r.Vibe = "Party" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := valid
			tt.mutate(&req)
			err := req.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !IsKind(err, KindValidation) {
				t.Errorf("Validate() error kind = %v, want validation", err)
			}
		})
	}
}

func TestItinerary_CloneIsDeep(t *testing.T) {
	orig := &Itinerary{
		ID:        "a",
		LocalTips: []string{"tip"},
		Days: []DayPlan{{
			Day: 1,
			Activities: []Activity{
				{Time: SlotMorning, Title: "Walk", Coordinates: &Coordinates{Lat: 1, Lng: 2}},
			},
		}},
	}

	cp := orig.Clone()
	cp.LocalTips[0] = "changed"
	cp.Days[0].Activities[0].Title = "Run"
	cp.Days[0].Activities[0].Coordinates.Lat = 50

	if orig.LocalTips[0] != "tip" {
		t.Error("LocalTips shared with clone")
	}
	if orig.Days[0].Activities[0].Title != "Walk" {
		t.Error("Activities shared with clone")
	}
	if orig.Days[0].Activities[0].Coordinates.Lat != 1 {
		t.Error("Coordinates shared with clone")
	}
}

func TestDayPlan_SameContentIgnoresImage(t *testing.T) {
	a := DayPlan{Day: 1, Title: "Old Town", Activities: []Activity{{Time: SlotMorning, Title: "Tram 28"}}}
	b := a.Clone()
	b.ImageURL = "https://example.com/x.jpg"

	if !a.SameContent(b) {
		t.Error("image URL should not affect SameContent")
	}
	b.Activities[0].Title = "Castle"
	if a.SameContent(b) {
		t.Error("changed activity should affect SameContent")
	}
}

func TestParseTimeSlot(t *testing.T) {
	if slot, ok := ParseTimeSlot(" evening "); !ok || slot != SlotEvening {
		t.Errorf("ParseTimeSlot(evening) = %q, %v", slot, ok)
	}
	if _, ok := ParseTimeSlot("Night"); ok {
		t.Error("ParseTimeSlot(Night) should not match")
	}
}
