// ABOUTME: JSON envelope helpers for dev-server handlers
// ABOUTME: Success bodies are {"data": ...}; errors are {"message": ...}

package devserver

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/markalston/einvoice/internal/models"
)

const (
	defaultPageLimit = 20
	maxPageLimit     = 100
)

type envelope struct {
	Data any `json:"data"`
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(envelope{Data: data}); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"message": message})
}

// writeStoreError maps store errors to HTTP status codes
func writeStoreError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, errNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, errConflict):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, errInvalidInput):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		slog.Error("Request failed", "error", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
	}
}

// decodeBody decodes a JSON request body into v, writing a 400 on failure
func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return false
	}
	return true
}

// paginate filters items with match, then slices out the requested page
func paginate[T any](r *http.Request, items []T, match func(T, string) bool) models.Page[T] {
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	limit, _ := strconv.Atoi(q.Get("limit"))
	if limit <= 0 {
		limit = defaultPageLimit
	}
	if limit > maxPageLimit {
		limit = maxPageLimit
	}

	search := strings.ToLower(strings.TrimSpace(q.Get("search")))
	filtered := items
	if search != "" && match != nil {
		filtered = make([]T, 0, len(items))
		for _, it := range items {
			if match(it, search) {
				filtered = append(filtered, it)
			}
		}
	}

	p := models.Paginate(page, limit, len(filtered))
	start := (p.Page - 1) * p.Limit
	if start > len(filtered) {
		start = len(filtered)
	}
	end := start + p.Limit
	if end > len(filtered) {
		end = len(filtered)
	}
	return models.Page[T]{Items: filtered[start:end], Pagination: p}
}

// filterBy keeps items whose field matches the query parameter, when the parameter is set
func filterBy[T any](r *http.Request, items []T, param string, field func(T) string) []T {
	want := r.URL.Query().Get(param)
	if want == "" {
		return items
	}
	out := make([]T, 0, len(items))
	for _, it := range items {
		if strings.EqualFold(field(it), want) {
			out = append(out, it)
		}
	}
	return out
}

func contains(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), needle)
}
