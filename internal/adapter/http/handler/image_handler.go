package handler

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/finlay-davidson/flog-it/internal/adapter/http/middleware"
	"github.com/finlay-davidson/flog-it/internal/listing/domain"
)

const (
	imagesFormField = "images"
	// multipartOverhead covers boundaries, part headers and other form fields.
	multipartOverhead = 1 << 20
)

// HandleAddImages stores the uploaded images at indices 0..n-1 without
// removing previously stored objects.
func (h *ListingHandler) HandleAddImages(w http.ResponseWriter, r *http.Request) {
	h.uploadImages(w, r, false)
}

// HandleReplaceImages deletes the listing's current images before storing the upload.
func (h *ListingHandler) HandleReplaceImages(w http.ResponseWriter, r *http.Request) {
	h.uploadImages(w, r, true)
}

func (h *ListingHandler) uploadImages(w http.ResponseWriter, r *http.Request, replace bool) {
	identity, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		h.writeError(w, http.StatusUnauthorized, "Missing auth header")
		return
	}
	id := chi.URLParam(r, "id")

	files, status, err := h.readImages(w, r)
	if err != nil {
		h.logger.Warn("ListingHandler.uploadImages: rejected upload",
			zap.String("listing_id", id), zap.String("user_id", identity.UserID), zap.Error(err))
		h.writeError(w, status, err.Error())
		return
	}

	listing, err := h.photos.UploadImages(r.Context(), id, identity.UserID, files, replace)
	if err != nil {
		h.writeUsecaseError(w, err, "Failed to upload images")
		return
	}

	h.metrics.ImagesUploadedTotal.Add(float64(listing.ImageCount))
	h.logger.Info("ListingHandler.uploadImages: images stored",
		zap.String("listing_id", id), zap.Int("image_count", listing.ImageCount), zap.Bool("replace", replace))
	h.writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// readImages parses the multipart body and loads every part of the images
// field into memory. The body is capped at MaxImagesPerRequest images of
// MaxImageBytes each plus form overhead.
func (h *ListingHandler) readImages(w http.ResponseWriter, r *http.Request) ([]domain.UploadedFile, int, error) {
	limit := int64(h.limits.MaxImagesPerRequest)*h.limits.MaxImageBytes + multipartOverhead
	r.Body = http.MaxBytesReader(w, r.Body, limit)

	if err := r.ParseMultipartForm(limit); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return nil, http.StatusBadRequest, fmt.Errorf("%w: request body exceeds %d bytes", domain.ErrPayloadTooLarge, limit)
		}
		return nil, http.StatusBadRequest, fmt.Errorf("invalid multipart form: %w", err)
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	headers := r.MultipartForm.File[imagesFormField]
	if len(headers) > h.limits.MaxImagesPerRequest {
		return nil, http.StatusBadRequest, fmt.Errorf("too many images: at most %d per request", h.limits.MaxImagesPerRequest)
	}

	files := make([]domain.UploadedFile, 0, len(headers))
	for _, fh := range headers {
		f, err := fh.Open()
		if err != nil {
			return nil, http.StatusBadRequest, fmt.Errorf("failed to open %s: %w", fh.Filename, err)
		}
		data, err := io.ReadAll(f)
		_ = f.Close()
		if err != nil {
			return nil, http.StatusBadRequest, fmt.Errorf("failed to read %s: %w", fh.Filename, err)
		}
		files = append(files, domain.UploadedFile{
			Name:        fh.Filename,
			ContentType: fh.Header.Get("Content-Type"),
			Data:        data,
		})
	}
	return files, http.StatusOK, nil
}

// HandleReconcileImages repairs the image count of a listing the caller owns.
func (h *ListingHandler) HandleReconcileImages(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		h.writeError(w, http.StatusUnauthorized, "Missing auth header")
		return
	}
	id := chi.URLParam(r, "id")

	result, err := h.reconciler.ReconcileOwned(r.Context(), id, identity.UserID)
	if err != nil {
		h.writeUsecaseError(w, err, "Failed to reconcile images")
		return
	}
	if result.ImageCount != result.PreviousCount || result.DeletedOrphans > 0 {
		h.metrics.ReconcileRepairs.Inc()
	}
	h.writeJSON(w, http.StatusOK, result)
}
