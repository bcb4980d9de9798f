package usecase

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/finlay-davidson/flog-it/internal/listing/domain"
	"github.com/finlay-davidson/flog-it/internal/platform/logger"
)

type ListingUsecase struct {
	repo     domain.ListingRepository
	profiles domain.ProfileRepository
	guard    *OwnershipGuard
	mailer   Mailer
	sideEffects
}

// NewListingUsecase wires the listing CRUD operations. profiles, cache,
// events and mailer are optional and may be nil.
func NewListingUsecase(repo domain.ListingRepository, profiles domain.ProfileRepository, guard *OwnershipGuard, cache ListingCache, events EventPublisher, mailer Mailer, log *logger.Logger) *ListingUsecase {
	return &ListingUsecase{
		repo:        repo,
		profiles:    profiles,
		guard:       guard,
		mailer:      mailer,
		sideEffects: sideEffects{cache: cache, events: events, logger: log},
	}
}

// CreateListing stores draft as a new active listing owned by owner.
func (uc *ListingUsecase) CreateListing(ctx context.Context, owner domain.Identity, draft domain.Listing) (*domain.Listing, error) {
	uc.logger.Info("ListingUsecase.CreateListing: creating new listing",
		zap.String("user_id", owner.UserID), zap.String("title", draft.Title))

	if owner.UserID == "" {
		return nil, domain.ErrForbidden
	}
	draft.Title = strings.TrimSpace(draft.Title)
	if err := validateListing(&draft); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	listing := draft
	listing.ID = uuid.NewString()
	listing.UserID = owner.UserID
	listing.IsActive = true
	listing.ImageCount = 0
	listing.Version = 1
	listing.CreatedAt = now
	listing.UpdatedAt = now

	if err := uc.repo.Create(ctx, &listing); err != nil {
		uc.logger.Error("ListingUsecase.CreateListing: failed to create listing", zap.String("user_id", owner.UserID), zap.Error(err))
		return nil, fmt.Errorf("create listing: %w", err)
	}

	uc.publish(ctx, SubjectListingCreated, newListingEvent(&listing))
	if uc.mailer != nil && owner.Email != "" {
		if err := uc.mailer.SendListingCreatedEmail(owner.Email, listing.Title); err != nil {
			uc.logger.Warn("ListingUsecase.CreateListing: failed to send confirmation email",
				zap.String("listing_id", listing.ID), zap.Error(err))
		}
	}
	return &listing, nil
}

// GetListing returns an active listing. Inactive listings are reported as not found.
func (uc *ListingUsecase) GetListing(ctx context.Context, id string) (*domain.Listing, error) {
	if uc.cache != nil {
		cached, err := uc.cache.GetListing(ctx, id)
		if err != nil {
			uc.logger.Warn("ListingUsecase.GetListing: cache read failed", zap.String("listing_id", id), zap.Error(err))
		} else if cached != nil && cached.IsActive {
			return cached, nil
		}
	}

	listing, err := uc.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrListingNotFound) {
			return nil, domain.ErrListingNotFound
		}
		uc.logger.Error("ListingUsecase.GetListing: failed to find listing", zap.String("listing_id", id), zap.Error(err))
		return nil, fmt.Errorf("find listing %s: %w", id, err)
	}
	if listing == nil || !listing.IsActive {
		return nil, domain.ErrListingNotFound
	}

	if uc.cache != nil {
		if err := uc.cache.SetListing(ctx, listing); err != nil {
			uc.logger.Warn("ListingUsecase.GetListing: cache write failed", zap.String("listing_id", id), zap.Error(err))
		}
	}
	return listing, nil
}

// SearchListings returns active listings matching the title query and
// inclusive price bounds, newest first.
func (uc *ListingUsecase) SearchListings(ctx context.Context, filter domain.Filter) ([]*domain.Listing, error) {
	filter.ActiveOnly = true
	filter.UserID = ""
	filter.Query = strings.TrimSpace(filter.Query)
	if err := filter.Validate(); err != nil {
		return nil, err
	}

	listings, err := uc.repo.FindByFilter(ctx, filter)
	if err != nil {
		uc.logger.Error("ListingUsecase.SearchListings: query failed", zap.String("query", filter.Query), zap.Error(err))
		return nil, fmt.Errorf("search listings: %w", err)
	}
	return listings, nil
}

// ListUserListings returns every listing owned by userID, active or not.
func (uc *ListingUsecase) ListUserListings(ctx context.Context, userID string) ([]*domain.Listing, error) {
	listings, err := uc.repo.FindByFilter(ctx, domain.Filter{UserID: userID})
	if err != nil {
		uc.logger.Error("ListingUsecase.ListUserListings: query failed", zap.String("user_id", userID), zap.Error(err))
		return nil, fmt.Errorf("list listings of user %s: %w", userID, err)
	}
	return listings, nil
}

// OwnerProfiles returns the profiles of the owners of listings keyed by user
// id. A failed lookup is logged and yields no profiles.
func (uc *ListingUsecase) OwnerProfiles(ctx context.Context, listings ...*domain.Listing) map[string]*domain.Profile {
	if uc.profiles == nil || len(listings) == 0 {
		return nil
	}

	seen := make(map[string]struct{}, len(listings))
	ids := make([]string, 0, len(listings))
	for _, l := range listings {
		if _, ok := seen[l.UserID]; ok || l.UserID == "" {
			continue
		}
		seen[l.UserID] = struct{}{}
		ids = append(ids, l.UserID)
	}

	profiles, err := uc.profiles.FindByUserIDs(ctx, ids)
	if err != nil {
		uc.logger.Warn("ListingUsecase.OwnerProfiles: profile lookup failed", zap.Int("owners", len(ids)), zap.Error(err))
		return nil
	}
	return profiles
}

// UpdateListing applies patch to a listing owned by callerID.
func (uc *ListingUsecase) UpdateListing(ctx context.Context, id, callerID string, patch domain.ListingPatch) (*domain.Listing, error) {
	uc.logger.Info("ListingUsecase.UpdateListing: updating listing",
		zap.String("listing_id", id), zap.String("user_id_performing_action", callerID))

	listing, err := uc.guard.RequireOwner(ctx, id, callerID)
	if err != nil {
		return nil, err
	}

	patch.Apply(listing)
	listing.Title = strings.TrimSpace(listing.Title)
	if err := validateListing(listing); err != nil {
		return nil, err
	}
	listing.UpdatedAt = time.Now().UTC()

	if err := uc.repo.Update(ctx, listing); err != nil {
		uc.logger.Error("ListingUsecase.UpdateListing: failed to update listing in repo", zap.String("listing_id", id), zap.Error(err))
		return nil, err
	}

	uc.invalidate(ctx, id)
	uc.publish(ctx, SubjectListingUpdated, newListingEvent(listing))
	return listing, nil
}

// DeleteListing marks a listing owned by callerID inactive. Its images are kept.
func (uc *ListingUsecase) DeleteListing(ctx context.Context, id, callerID string) error {
	uc.logger.Info("ListingUsecase.DeleteListing: deleting listing",
		zap.String("listing_id", id), zap.String("user_id_performing_action", callerID))

	listing, err := uc.guard.RequireOwner(ctx, id, callerID)
	if err != nil {
		return err
	}

	listing.IsActive = false
	listing.UpdatedAt = time.Now().UTC()
	if err := uc.repo.Update(ctx, listing); err != nil {
		uc.logger.Error("ListingUsecase.DeleteListing: failed to deactivate listing", zap.String("listing_id", id), zap.Error(err))
		return err
	}

	uc.invalidate(ctx, id)
	uc.publish(ctx, SubjectListingDeleted, newListingEvent(listing))
	return nil
}

func validateListing(l *domain.Listing) error {
	switch {
	case l.Title == "":
		return fmt.Errorf("%w: title is required", domain.ErrInvalidListingData)
	case math.IsNaN(l.Price) || math.IsInf(l.Price, 0) || l.Price < 0:
		return fmt.Errorf("%w: price must be a non-negative number", domain.ErrInvalidListingData)
	case l.LocationLat != nil && (*l.LocationLat < -90 || *l.LocationLat > 90):
		return fmt.Errorf("%w: location_lat out of range", domain.ErrInvalidListingData)
	case l.LocationLng != nil && (*l.LocationLng < -180 || *l.LocationLng > 180):
		return fmt.Errorf("%w: location_lng out of range", domain.ErrInvalidListingData)
	}
	return nil
}
