package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"lms/internal/service"
)

// writeJSON encodes v with the given status code.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// parsePagination reads limit/offset query params with sane bounds.
func parsePagination(r *http.Request) (limit, offset int) {
	limit = 20
	offset = 0
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 100 {
			limit = n
		}
	}
	if v := r.URL.Query().Get("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			offset = n
		}
	}
	return limit, offset
}

// writeServiceError maps service sentinel errors onto HTTP status codes.
// msg prefixes the body for unexpected errors.
func writeServiceError(w http.ResponseWriter, err error, msg string) {
	switch {
	case errors.Is(err, service.ErrNotFound):
		http.Error(w, "Not found", http.StatusNotFound)
	case errors.Is(err, service.ErrConflict):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, service.ErrInvalid):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, service.ErrForbidden):
		http.Error(w, "Forbidden", http.StatusForbidden)
	default:
		http.Error(w, msg+": "+err.Error(), http.StatusInternalServerError)
	}
}
