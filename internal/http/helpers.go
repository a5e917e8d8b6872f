// Package http exposes the dashboard services over a thin JSON API.
package http

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/spanexx/personal-finance-dashboard-sub003/internal/core"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		if err := json.NewEncoder(w).Encode(v); err != nil {
			slog.Error("Failed to encode response", "error", err)
		}
	}
}

type errorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
}

// writeError maps classified domain errors to HTTP statuses. Unclassified
// errors become 500s with a generic body; the detail goes to the log only.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	kind, ok := core.KindOf(err)
	if !ok {
		slog.ErrorContext(r.Context(), "Request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
		return
	}

	status := http.StatusInternalServerError
	switch kind {
	case core.KindValidation:
		status = http.StatusBadRequest
	case core.KindNotFound:
		status = http.StatusNotFound
	case core.KindConflict:
		status = http.StatusConflict
	case core.KindSecurity:
		status = http.StatusForbidden
	}
	writeJSON(w, status, errorResponse{Error: err.Error(), Kind: kind.String()})
}

// userID reads the authenticated user from the X-User-ID header. Session
// handling happens upstream; this layer only requires the header.
func userID(r *http.Request) (string, error) {
	id := strings.TrimSpace(r.Header.Get("X-User-ID"))
	if id == "" {
		return "", core.Validationf("missing X-User-ID header")
	}
	return id, nil
}

func decodeBody(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return core.Validationf("invalid request body: %v", err)
	}
	return nil
}

// queryDate parses a YYYY-MM-DD query parameter, returning fallback when the
// parameter is absent.
func queryDate(r *http.Request, name string, fallback time.Time) (time.Time, error) {
	v := strings.TrimSpace(r.URL.Query().Get(name))
	if v == "" {
		return fallback, nil
	}
	t, err := time.Parse("2006-01-02", v)
	if err != nil {
		return time.Time{}, core.Validationf("invalid %s date %q, want YYYY-MM-DD", name, v)
	}
	return t, nil
}

func queryInt(r *http.Request, name string, fallback int) (int, error) {
	v := strings.TrimSpace(r.URL.Query().Get(name))
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, core.Validationf("invalid %s value %q", name, v)
	}
	return n, nil
}

func queryInt64(r *http.Request, name string) (int64, error) {
	v := strings.TrimSpace(r.URL.Query().Get(name))
	if v == "" {
		return 0, nil
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, core.Validationf("invalid %s value %q", name, v)
	}
	return n, nil
}

// monthRange returns the current calendar month, the default report period.
func monthRange(now time.Time) (time.Time, time.Time) {
	from := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	return from, from.AddDate(0, 1, -1)
}
