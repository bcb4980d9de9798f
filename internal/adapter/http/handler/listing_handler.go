package handler

import (
	"fmt"
	"math"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/finlay-davidson/flog-it/internal/adapter/http/middleware"
	"github.com/finlay-davidson/flog-it/internal/listing/domain"
	"github.com/finlay-davidson/flog-it/internal/listing/usecase"
	"github.com/finlay-davidson/flog-it/internal/platform/logger"
	"github.com/finlay-davidson/flog-it/internal/platform/metrics"
)

// Limits bounds the size of image uploads.
type Limits struct {
	MaxImageBytes       int64
	MaxImagesPerRequest int
}

// ListingHandler serves the listing routes.
type ListingHandler struct {
	listings   *usecase.ListingUsecase
	photos     *usecase.PhotoUsecase
	reconciler *usecase.ReconcileUsecase
	metrics    *metrics.MetricsManager
	limits     Limits
	logger     *logger.Logger
}

func NewListingHandler(
	listings *usecase.ListingUsecase,
	photos *usecase.PhotoUsecase,
	reconciler *usecase.ReconcileUsecase,
	m *metrics.MetricsManager,
	limits Limits,
	log *logger.Logger,
) *ListingHandler {
	return &ListingHandler{
		listings:   listings,
		photos:     photos,
		reconciler: reconciler,
		metrics:    m,
		limits:     limits,
		logger:     log,
	}
}

// HandleHome answers the root health check.
func (h *ListingHandler) HandleHome(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("Marketplace API running"))
}

// HandleSearchListings lists active listings filtered by ?q=&minPrice=&maxPrice=,
// each with its owner's display name.
func (h *ListingHandler) HandleSearchListings(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	filter := domain.Filter{Query: query.Get("q")}

	var err error
	if filter.MinPrice, err = parsePrice(query.Get("minPrice")); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid minPrice")
		return
	}
	if filter.MaxPrice, err = parsePrice(query.Get("maxPrice")); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid maxPrice")
		return
	}

	listings, err := h.listings.SearchListings(r.Context(), filter)
	if err != nil {
		h.writeUsecaseError(w, err, "Failed to load listings")
		return
	}

	profiles := h.listings.OwnerProfiles(r.Context(), listings...)
	resp := make([]listingWithThumbnails, 0, len(listings))
	for _, l := range listings {
		resp = append(resp, listingWithThumbnails{
			listingResponse: toListingResponse(l),
			Profile:         toProfileResponse(profiles, l.UserID),
			Thumbnails:      h.photos.ThumbURLs(l),
		})
	}
	h.writeJSON(w, http.StatusOK, resp)
}

// HandleGetListing returns one active listing with its owner profile and image URLs.
func (h *ListingHandler) HandleGetListing(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	listing, err := h.listings.GetListing(r.Context(), id)
	if err != nil {
		h.writeUsecaseError(w, err, "Failed to load listing")
		return
	}
	profiles := h.listings.OwnerProfiles(r.Context(), listing)
	h.writeJSON(w, http.StatusOK, listingWithImages{
		listingResponse: toListingResponse(listing),
		Profile:         toProfileResponse(profiles, listing.UserID),
		Images:          h.photos.ImageURLs(listing),
	})
}

// HandleCreateListing creates a listing owned by the caller.
func (h *ListingHandler) HandleCreateListing(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		h.writeError(w, http.StatusUnauthorized, "Missing auth header")
		return
	}

	var req createListingRequest
	if err := readJSON(w, r, &req); err != nil {
		h.logger.Warn("ListingHandler.HandleCreateListing: invalid request body", zap.Error(err))
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	listing, err := h.listings.CreateListing(r.Context(), identity, req.toDomain())
	if err != nil {
		// Store failures are reported with their message as a bad request.
		h.logger.Warn("ListingHandler.HandleCreateListing: create failed", zap.String("user_id", identity.UserID), zap.Error(err))
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	h.metrics.ListingsCreatedTotal.Inc()
	h.writeJSON(w, http.StatusOK, toListingResponse(listing))
}

// HandleUpdateListing applies a partial update to a listing the caller owns.
func (h *ListingHandler) HandleUpdateListing(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		h.writeError(w, http.StatusUnauthorized, "Missing auth header")
		return
	}
	id := chi.URLParam(r, "id")

	var req updateListingRequest
	if err := readJSON(w, r, &req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	listing, err := h.listings.UpdateListing(r.Context(), id, identity.UserID, req.toPatch())
	if err != nil {
		h.writeUsecaseError(w, err, "Failed to update listing")
		return
	}
	h.metrics.ListingUpdatesTotal.Inc()
	h.writeJSON(w, http.StatusOK, toListingResponse(listing))
}

// HandleDeleteListing soft deletes a listing the caller owns.
func (h *ListingHandler) HandleDeleteListing(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		h.writeError(w, http.StatusUnauthorized, "Missing auth header")
		return
	}
	id := chi.URLParam(r, "id")

	if err := h.listings.DeleteListing(r.Context(), id, identity.UserID); err != nil {
		h.writeUsecaseError(w, err, "Failed to delete listing")
		return
	}
	h.metrics.ListingDeletesTotal.Inc()
	h.writeJSON(w, http.StatusOK, map[string]string{"message": "Listing deleted"})
}

// HandleListUserListings returns every listing of the caller, including inactive ones.
func (h *ListingHandler) HandleListUserListings(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		h.writeError(w, http.StatusUnauthorized, "Missing auth header")
		return
	}

	listings, err := h.listings.ListUserListings(r.Context(), identity.UserID)
	if err != nil {
		h.writeUsecaseError(w, err, "Failed to load listings")
		return
	}

	resp := make([]listingWithThumbs, 0, len(listings))
	for _, l := range listings {
		resp = append(resp, listingWithThumbs{
			listingResponse: toListingResponse(l),
			Thumbs:          h.photos.ThumbURLs(l),
		})
	}
	h.writeJSON(w, http.StatusOK, resp)
}

// parsePrice reads an optional non-NaN price bound.
func parsePrice(raw string) (*float64, error) {
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil, fmt.Errorf("price bound %q is not a finite number", raw)
	}
	return &v, nil
}
