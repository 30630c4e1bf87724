// Package api exposes the planner and trip store over HTTP.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/tjfontaine/wayfarer/internal/domain"
	"github.com/tjfontaine/wayfarer/internal/server"
	"github.com/tjfontaine/wayfarer/internal/storage"
)

// maxBodyBytes bounds request bodies; a 14 day itinerary is well under it.
const maxBodyBytes = 1 << 20

const (
	ActionGenerate = "generate"
	ActionModify   = "modify"
)

// Planner builds and revises itineraries.
type Planner interface {
	Acquire(ctx context.Context, req domain.TripRequest) (*domain.Itinerary, error)
	Modify(ctx context.Context, current *domain.Itinerary, editRequest string) (*domain.Itinerary, error)
}

type Handler struct {
	planner Planner
	store   storage.TripStore
	logger  *slog.Logger
}

func NewHandler(planner Planner, store storage.TripStore, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{planner: planner, store: store, logger: logger}
}

// RegisterRoutes mounts the API on r.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/healthz", h.HandleHealth)
	r.Route("/api", func(r chi.Router) {
		r.Post("/itinerary", h.HandleItinerary)
		r.Get("/profile", h.HandleProfile)
		r.Put("/trips/saved", h.HandleToggleSaved)
		r.Get("/trips/{collection}", h.HandleListTrips)
		r.Delete("/trips/{collection}", h.HandleClearTrips)
		r.Delete("/trips/{collection}/{id}", h.HandleDeleteTrip)
	})
}

// ItineraryRequest is the body of POST /api/itinerary. The prefs and
// request keys are accepted as aliases of preferences and editRequest.
type ItineraryRequest struct {
	Action           string              `json:"action"`
	Preferences      *domain.TripRequest `json:"preferences,omitempty"`
	Prefs            *domain.TripRequest `json:"prefs,omitempty"`
	CurrentItinerary *domain.Itinerary   `json:"currentItinerary,omitempty"`
	EditRequest      string              `json:"editRequest,omitempty"`
	Request          string              `json:"request,omitempty"`
}

func (r ItineraryRequest) preferences() *domain.TripRequest {
	if r.Preferences != nil {
		return r.Preferences
	}
	return r.Prefs
}

func (r ItineraryRequest) editRequest() string {
	if r.EditRequest != "" {
		return r.EditRequest
	}
	return r.Request
}

func (h *Handler) HandleItinerary(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req ItineraryRequest
	if err := decodeBody(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	server.AddLogField(ctx, "action", req.Action)

	var (
		it  *domain.Itinerary
		err error
	)
	switch req.Action {
	case ActionGenerate:
		prefs := req.preferences()
		if prefs == nil {
			h.writeError(w, r, domain.ErrValidation("preferences are required"))
			return
		}
		server.AddLogField(ctx, "destination", prefs.Destination)
		it, err = h.planner.Acquire(ctx, *prefs)
	case ActionModify:
		if req.CurrentItinerary != nil {
			server.AddLogField(ctx, "itinerary_id", req.CurrentItinerary.ID)
		}
		it, err = h.planner.Modify(ctx, req.CurrentItinerary, req.editRequest())
	default:
		h.writeError(w, r, domain.ErrValidation(fmt.Sprintf("unknown action %q", req.Action)))
		return
	}
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	// History is best effort; the caller still gets the itinerary.
	if err := h.store.Put(ctx, storage.CollectionHistory, it); err != nil {
		h.logger.Warn("failed to record history",
			slog.String("request_id", server.GetRequestID(ctx)),
			slog.String("id", it.ID),
			slog.String("error", err.Error()))
	}

	writeJSON(w, http.StatusOK, it)
}

func (h *Handler) HandleListTrips(w http.ResponseWriter, r *http.Request) {
	c, err := collectionParam(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	list, err := h.store.List(r.Context(), c)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// ToggleResponse reports the saved state after PUT /api/trips/saved.
type ToggleResponse struct {
	ID    string `json:"id"`
	Saved bool   `json:"saved"`
}

func (h *Handler) HandleToggleSaved(w http.ResponseWriter, r *http.Request) {
	var it domain.Itinerary
	if err := decodeBody(w, r, &it); err != nil {
		h.writeError(w, r, err)
		return
	}
	if strings.TrimSpace(it.ID) == "" {
		h.writeError(w, r, domain.ErrValidation("itinerary id is required"))
		return
	}

	saved, err := h.store.ToggleSaved(r.Context(), &it)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ToggleResponse{ID: it.ID, Saved: saved})
}

func (h *Handler) HandleDeleteTrip(w http.ResponseWriter, r *http.Request) {
	c, err := collectionParam(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := h.store.Delete(r.Context(), c, chi.URLParam(r, "id")); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) HandleClearTrips(w http.ResponseWriter, r *http.Request) {
	c, err := collectionParam(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := h.store.Clear(r.Context(), c); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) HandleProfile(w http.ResponseWriter, r *http.Request) {
	p, err := storage.LoadProfile(r.Context(), h.store)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func collectionParam(r *http.Request) (storage.Collection, error) {
	c, err := storage.ParseCollection(chi.URLParam(r, "collection"))
	if err != nil {
		return "", errNotFound(err.Error())
	}
	return c, nil
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return domain.ErrValidation("request body is too large").WithCause(err)
		}
		return domain.ErrValidation("request body is not valid JSON").WithCause(err)
	}
	return nil
}
