package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/finlay-davidson/flog-it/internal/listing/domain"
	"github.com/finlay-davidson/flog-it/internal/listing/media"
	"github.com/finlay-davidson/flog-it/internal/platform/logger"
)

const jpegContentType = "image/jpeg"

// Storage is the object store holding listing images.
type Storage interface {
	Put(ctx context.Context, path string, data []byte, contentType string) error
	Delete(ctx context.Context, path string) error
	PublicURL(path string) string
	List(ctx context.Context, prefix string) ([]ObjectInfo, error)
}

type encodedImage struct {
	full  []byte
	thumb []byte
}

type ObjectInfo struct {
	Key          string
	LastModified time.Time
}

// ImageCodec produces the stored full-size and thumbnail variants.
type ImageCodec interface {
	EncodeFull(data []byte) ([]byte, error)
	EncodeThumb(data []byte) ([]byte, error)
}

type PhotoUsecase struct {
	storage       Storage
	codec         ImageCodec
	repo          domain.ListingRepository
	guard         *OwnershipGuard
	maxImageBytes int64
	sideEffects
}

func NewPhotoUsecase(storage Storage, codec ImageCodec, repo domain.ListingRepository, guard *OwnershipGuard, maxImageBytes int64, cache ListingCache, events EventPublisher, log *logger.Logger) *PhotoUsecase {
	return &PhotoUsecase{
		storage:       storage,
		codec:         codec,
		repo:          repo,
		guard:         guard,
		maxImageBytes: maxImageBytes,
		sideEffects:   sideEffects{cache: cache, events: events, logger: log},
	}
}

// UploadImages stores files as the images of a listing owned by callerID and
// records the new image count. With replace set the previously stored images
// are deleted first.
func (uc *PhotoUsecase) UploadImages(ctx context.Context, listingID, callerID string, files []domain.UploadedFile, replace bool) (*domain.Listing, error) {
	listing, err := uc.guard.RequireOwner(ctx, listingID, callerID)
	if err != nil {
		return nil, err
	}

	previous := 0
	if replace {
		previous = listing.ImageCount
	}

	n, err := uc.ReplaceImages(ctx, listingID, files, previous)
	if err != nil {
		var uploadErr *domain.UploadError
		if errors.As(err, &uploadErr) && !errors.Is(err, media.ErrDecode) {
			uc.logger.Warn("PhotoUsecase.UploadImages: batch failed part way, requesting reconcile",
				zap.String("listing_id", listingID), zap.Int("index", uploadErr.Index), zap.Error(err))
			uc.publish(ctx, SubjectReconcileRequested, ReconcileRequest{ListingID: listingID})
		}
		return nil, err
	}

	listing.ImageCount = n
	listing.UpdatedAt = time.Now().UTC()
	if err := uc.repo.Update(ctx, listing); err != nil {
		uc.logger.Error("PhotoUsecase.UploadImages: failed to record image count",
			zap.String("listing_id", listingID), zap.Int("image_count", n), zap.Error(err))
		return nil, err
	}

	uc.invalidate(ctx, listingID)
	uc.publish(ctx, SubjectListingImagesUpdated, newListingEvent(listing))
	return listing, nil
}

// ReplaceImages writes files at indices 0..len(files)-1 after deleting the
// objects at 0..previousImageCount-1. Every file is encoded before the store
// is touched, so a batch with an undecodable file leaves it unchanged. It
// never touches the listing row and returns the number of images written.
func (uc *PhotoUsecase) ReplaceImages(ctx context.Context, listingID string, files []domain.UploadedFile, previousImageCount int) (int, error) {
	if len(files) == 0 {
		return 0, domain.ErrNoImages
	}
	for _, f := range files {
		if f.Size() > uc.maxImageBytes {
			return 0, fmt.Errorf("%w: %s is %d bytes, limit is %d", domain.ErrPayloadTooLarge, f.Name, f.Size(), uc.maxImageBytes)
		}
	}

	encoded := make([]encodedImage, len(files))
	for i, f := range files {
		full, err := uc.codec.EncodeFull(f.Data)
		if err != nil {
			return 0, &domain.UploadError{Index: i, Err: err}
		}
		thumb, err := uc.codec.EncodeThumb(f.Data)
		if err != nil {
			return 0, &domain.UploadError{Index: i, Err: err}
		}
		encoded[i] = encodedImage{full: full, thumb: thumb}
	}

	for i := 0; i < previousImageCount; i++ {
		uc.deleteQuietly(ctx, media.ImagePath(listingID, i))
		uc.deleteQuietly(ctx, media.ThumbPath(listingID, i))
	}

	for i, img := range encoded {
		if err := uc.storage.Put(ctx, media.ImagePath(listingID, i), img.full, jpegContentType); err != nil {
			return 0, &domain.UploadError{Index: i, Err: err}
		}
		if err := uc.storage.Put(ctx, media.ThumbPath(listingID, i), img.thumb, jpegContentType); err != nil {
			return 0, &domain.UploadError{Index: i, Err: err}
		}
	}

	uc.logger.Info("PhotoUsecase.ReplaceImages: images stored",
		zap.String("listing_id", listingID), zap.Int("count", len(files)), zap.Int("previous_count", previousImageCount))
	return len(files), nil
}

// ImageURLs returns the public URLs of a listing's full-size images.
func (uc *PhotoUsecase) ImageURLs(l *domain.Listing) []string {
	return uc.urls(media.ImagePaths(l.ID, l.ImageCount))
}

// ThumbURLs returns the public URLs of a listing's thumbnails.
func (uc *PhotoUsecase) ThumbURLs(l *domain.Listing) []string {
	return uc.urls(media.ThumbPaths(l.ID, l.ImageCount))
}

func (uc *PhotoUsecase) urls(paths []string) []string {
	for i, p := range paths {
		paths[i] = uc.storage.PublicURL(p)
	}
	return paths
}

func (uc *PhotoUsecase) deleteQuietly(ctx context.Context, path string) {
	if err := uc.storage.Delete(ctx, path); err != nil {
		uc.logger.Warn("PhotoUsecase: failed to delete object", zap.String("path", path), zap.Error(err))
	}
}
