package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/mwadhwa/touchbase/internal/api/dto"
	"github.com/mwadhwa/touchbase/internal/store"
)

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeStoreError maps the store error taxonomy onto HTTP status codes:
// validation 400, not-found/unknown-contact 404, duplicate and ambiguous 409,
// everything else 500. The human-readable message always travels with the
// status; stack traces never do.
func writeStoreError(w http.ResponseWriter, err error) {
	var (
		validation *store.ValidationError
		duplicate  *store.DuplicateValueError
		ambiguous  *store.AmbiguousError
		unknown    *store.UnknownContactError
	)
	switch {
	case errors.As(err, &validation):
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: validation.Error()})
	case errors.As(err, &duplicate):
		writeJSON(w, http.StatusConflict, dto.ErrorResponse{Error: duplicate.Error()})
	case errors.As(err, &ambiguous):
		writeJSON(w, http.StatusConflict, dto.ErrorResponse{Error: ambiguous.Error()})
	case errors.As(err, &unknown):
		writeJSON(w, http.StatusNotFound, dto.ErrorResponse{Error: unknown.Error()})
	case errors.Is(err, store.ErrNotFound):
		writeJSON(w, http.StatusNotFound, dto.ErrorResponse{Error: "Not found"})
	default:
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: err.Error()})
	}
}

const dateLayout = "2006-01-02"

func parseDate(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func formatDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(dateLayout)
}
