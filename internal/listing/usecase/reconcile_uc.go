package usecase

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/finlay-davidson/flog-it/internal/listing/domain"
	"github.com/finlay-davidson/flog-it/internal/listing/media"
	"github.com/finlay-davidson/flog-it/internal/platform/logger"
)

// DefaultOrphanGrace keeps freshly written objects above image_count alive
// while the upload that wrote them is still recording its count.
const DefaultOrphanGrace = 15 * time.Minute

type ReconcileResult struct {
	ListingID      string `json:"listing_id"`
	PreviousCount  int    `json:"previous_count"`
	ImageCount     int    `json:"image_count"`
	DeletedOrphans int    `json:"deleted_orphans"`
}

// ReconcileUsecase brings image_count back in line with the stored objects.
type ReconcileUsecase struct {
	storage     Storage
	repo        domain.ListingRepository
	guard       *OwnershipGuard
	orphanGrace time.Duration
	now         func() time.Time
	sideEffects
}

func NewReconcileUsecase(storage Storage, repo domain.ListingRepository, guard *OwnershipGuard, orphanGrace time.Duration, cache ListingCache, events EventPublisher, log *logger.Logger) *ReconcileUsecase {
	return &ReconcileUsecase{
		storage:     storage,
		repo:        repo,
		guard:       guard,
		orphanGrace: orphanGrace,
		now:         time.Now,
		sideEffects: sideEffects{cache: cache, events: events, logger: log},
	}
}

// ReconcileOwned runs Reconcile on a listing owned by callerID.
func (uc *ReconcileUsecase) ReconcileOwned(ctx context.Context, listingID, callerID string) (*ReconcileResult, error) {
	if _, err := uc.guard.RequireOwner(ctx, listingID, callerID); err != nil {
		return nil, err
	}
	return uc.Reconcile(ctx, listingID)
}

// Reconcile counts the complete full+thumbnail pairs stored contiguously
// from index 0. A smaller count than the row's image_count is written back;
// objects at or above the resulting count are deleted once they are older
// than the orphan grace period.
func (uc *ReconcileUsecase) Reconcile(ctx context.Context, listingID string) (*ReconcileResult, error) {
	listing, err := uc.repo.FindByID(ctx, listingID)
	if err != nil {
		return nil, err
	}

	objects, err := uc.storage.List(ctx, media.Prefix(listingID))
	if err != nil {
		uc.logger.Error("ReconcileUsecase.Reconcile: failed to list objects", zap.String("listing_id", listingID), zap.Error(err))
		return nil, fmt.Errorf("list objects of %s: %w", listingID, err)
	}

	type pair struct{ full, thumb bool }
	stored := make(map[int]pair)
	for _, obj := range objects {
		id, index, thumb, ok := media.ParseKey(obj.Key)
		if !ok || id != listingID {
			continue
		}
		p := stored[index]
		if thumb {
			p.thumb = true
		} else {
			p.full = true
		}
		stored[index] = p
	}

	contiguous := 0
	for {
		p, ok := stored[contiguous]
		if !ok || !p.full || !p.thumb {
			break
		}
		contiguous++
	}

	result := &ReconcileResult{
		ListingID:     listingID,
		PreviousCount: listing.ImageCount,
		ImageCount:    listing.ImageCount,
	}

	if contiguous < listing.ImageCount {
		listing.ImageCount = contiguous
		listing.UpdatedAt = uc.now().UTC()
		if err := uc.repo.Update(ctx, listing); err != nil {
			uc.logger.Error("ReconcileUsecase.Reconcile: failed to repair image count",
				zap.String("listing_id", listingID), zap.Int("image_count", contiguous), zap.Error(err))
			return nil, err
		}
		result.ImageCount = contiguous
		uc.logger.Info("ReconcileUsecase.Reconcile: image count repaired",
			zap.String("listing_id", listingID),
			zap.Int("previous_count", result.PreviousCount),
			zap.Int("image_count", contiguous))
		uc.invalidate(ctx, listingID)
		uc.publish(ctx, SubjectListingImagesUpdated, newListingEvent(listing))
	}

	cutoff := uc.now().Add(-uc.orphanGrace)
	for _, obj := range objects {
		id, index, _, ok := media.ParseKey(obj.Key)
		if !ok || id != listingID || index < result.ImageCount {
			continue
		}
		if obj.LastModified.After(cutoff) {
			continue
		}
		if err := uc.storage.Delete(ctx, obj.Key); err != nil {
			uc.logger.Warn("ReconcileUsecase.Reconcile: failed to delete orphan", zap.String("key", obj.Key), zap.Error(err))
			continue
		}
		result.DeletedOrphans++
	}

	return result, nil
}

// Sweep reconciles every active listing. Failures are logged and skipped.
func (uc *ReconcileUsecase) Sweep(ctx context.Context) error {
	listings, err := uc.repo.FindByFilter(ctx, domain.Filter{ActiveOnly: true})
	if err != nil {
		return fmt.Errorf("list active listings: %w", err)
	}

	repaired := 0
	for _, l := range listings {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		res, err := uc.Reconcile(ctx, l.ID)
		if err != nil {
			uc.logger.Warn("ReconcileUsecase.Sweep: reconcile failed", zap.String("listing_id", l.ID), zap.Error(err))
			continue
		}
		if res.ImageCount != res.PreviousCount || res.DeletedOrphans > 0 {
			repaired++
		}
	}
	uc.logger.Info("ReconcileUsecase.Sweep: finished", zap.Int("listings", len(listings)), zap.Int("repaired", repaired))
	return nil
}

// Run sweeps every interval until ctx is cancelled. A non-positive interval
// disables the sweeper.
func (uc *ReconcileUsecase) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		uc.logger.Info("ReconcileUsecase.Run: periodic sweep disabled")
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := uc.Sweep(ctx); err != nil && ctx.Err() == nil {
				uc.logger.Error("ReconcileUsecase.Run: sweep failed", zap.Error(err))
			}
		}
	}
}
