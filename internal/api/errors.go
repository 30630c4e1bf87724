package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/tjfontaine/wayfarer/internal/domain"
	"github.com/tjfontaine/wayfarer/internal/server"
	"github.com/tjfontaine/wayfarer/internal/storage"
	"github.com/tjfontaine/wayfarer/internal/telemetry"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// notFoundError marks unknown routes and missing trips.
type notFoundError struct{ msg string }

func (e *notFoundError) Error() string { return e.msg }

func errNotFound(msg string) error { return &notFoundError{msg: msg} }

// writeError maps err onto a status and the error envelope. A request the
// client abandoned gets no response at all.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	ctx := r.Context()
	server.AddError(ctx, err)

	if errors.Is(err, context.Canceled) {
		h.logger.Info("client went away",
			slog.String("request_id", server.GetRequestID(ctx)),
			slog.String("path", r.URL.Path))
		return
	}
	if errors.Is(err, context.DeadlineExceeded) {
		if _, ok := domain.AsGenerationError(err); !ok {
			err = domain.ErrTimeout("the request took too long").WithCause(err)
		}
	}

	status, body := classify(err)
	if status >= http.StatusInternalServerError {
		tags := map[string]string{"path": r.URL.Path}
		if ge, ok := domain.AsGenerationError(err); ok {
			tags["kind"] = string(ge.Kind)
		}
		telemetry.CaptureError(ctx, err, tags)
	}
	writeJSON(w, status, body)
}

func classify(err error) (int, ErrorResponse) {
	if ge, ok := domain.AsGenerationError(err); ok {
		return ge.HTTPStatusCode(), ErrorResponse{Error: ge.Title(), Message: ge.Message}
	}
	var nf *notFoundError
	if errors.As(err, &nf) {
		return http.StatusNotFound, ErrorResponse{Error: "Not Found", Message: nf.msg}
	}
	if errors.Is(err, storage.ErrNotFound) {
		return http.StatusNotFound, ErrorResponse{Error: "Not Found", Message: err.Error()}
	}
	return http.StatusInternalServerError, ErrorResponse{
		Error:   "Internal Server Error",
		Message: "An unexpected error occurred.",
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
