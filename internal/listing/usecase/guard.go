package usecase

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/finlay-davidson/flog-it/internal/listing/domain"
	"github.com/finlay-davidson/flog-it/internal/platform/logger"
)

// OwnershipGuard checks that a caller owns a listing before it is mutated.
type OwnershipGuard struct {
	repo   domain.ListingRepository
	logger *logger.Logger
}

func NewOwnershipGuard(repo domain.ListingRepository, log *logger.Logger) *OwnershipGuard {
	return &OwnershipGuard{repo: repo, logger: log}
}

// RequireOwner loads the listing and returns it only if callerID owns it.
// The returned listing carries the version later row writes are checked against.
func (g *OwnershipGuard) RequireOwner(ctx context.Context, listingID, callerID string) (*domain.Listing, error) {
	listing, err := g.repo.FindByID(ctx, listingID)
	if err != nil {
		if errors.Is(err, domain.ErrListingNotFound) {
			g.logger.Warn("OwnershipGuard.RequireOwner: listing not found", zap.String("listing_id", listingID))
			return nil, domain.ErrListingNotFound
		}
		g.logger.Error("OwnershipGuard.RequireOwner: failed to load listing", zap.String("listing_id", listingID), zap.Error(err))
		return nil, fmt.Errorf("load listing %s: %w", listingID, err)
	}
	if listing == nil {
		return nil, domain.ErrListingNotFound
	}

	if callerID == "" || listing.UserID != callerID {
		g.logger.Warn("OwnershipGuard.RequireOwner: forbidden",
			zap.String("listing_id", listingID),
			zap.String("listing_owner_id", listing.UserID),
			zap.String("caller_id", callerID))
		return nil, domain.ErrForbidden
	}
	return listing, nil
}
