package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/finlay-davidson/flog-it/internal/listing/domain"
	"github.com/finlay-davidson/flog-it/internal/listing/media"
)

const maxJSONBodyBytes = 1 << 20

// writeJSON sends a JSON response with the given status code and data.
func (h *ListingHandler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("ListingHandler: failed to encode response", zap.Error(err))
	}
}

// writeError sends {"error": message}.
func (h *ListingHandler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}

// readJSON decodes at most maxJSONBodyBytes of the request body into dst.
func readJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	return json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBodyBytes)).Decode(dst)
}

// writeUsecaseError maps domain errors onto status codes. Anything not
// recognised is logged and reported as fallback with status 500.
func (h *ListingHandler) writeUsecaseError(w http.ResponseWriter, err error, fallback string) {
	var uploadErr *domain.UploadError
	switch {
	case errors.Is(err, domain.ErrListingNotFound):
		h.writeError(w, http.StatusNotFound, "Listing not found")
	case errors.Is(err, domain.ErrForbidden):
		h.writeError(w, http.StatusForbidden, "Forbidden")
	case errors.Is(err, domain.ErrVersionConflict):
		h.writeError(w, http.StatusConflict, "Listing was modified by another request, please retry")
	case errors.Is(err, domain.ErrInvalidListingData),
		errors.Is(err, domain.ErrInvalidFilter),
		errors.Is(err, domain.ErrNoImages),
		errors.Is(err, domain.ErrPayloadTooLarge),
		errors.Is(err, media.ErrDecode),
		errors.As(err, &uploadErr):
		h.writeError(w, http.StatusBadRequest, err.Error())
	default:
		h.logger.Error("ListingHandler: request failed", zap.Error(err))
		h.writeError(w, http.StatusInternalServerError, fallback)
	}
}
