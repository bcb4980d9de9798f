package usecase

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/finlay-davidson/flog-it/internal/listing/domain"
	"github.com/finlay-davidson/flog-it/internal/platform/logger"
)

const (
	SubjectListingCreated       = "listing.created"
	SubjectListingUpdated       = "listing.updated"
	SubjectListingDeleted       = "listing.deleted"
	SubjectListingImagesUpdated = "listing.images.updated"
	// SubjectReconcileRequested is consumed by this service.
	SubjectReconcileRequested = "listing.images.reconcile"
)

// EventPublisher delivers domain events to the message bus.
type EventPublisher interface {
	Publish(ctx context.Context, subject string, data interface{}) error
}

type ListingEvent struct {
	ListingID  string    `json:"listing_id"`
	UserID     string    `json:"user_id"`
	ImageCount int       `json:"image_count"`
	Version    int64     `json:"version"`
	OccurredAt time.Time `json:"occurred_at"`
}

type ReconcileRequest struct {
	ListingID string `json:"listing_id"`
}

func newListingEvent(l *domain.Listing) ListingEvent {
	return ListingEvent{
		ListingID:  l.ID,
		UserID:     l.UserID,
		ImageCount: l.ImageCount,
		Version:    l.Version,
		OccurredAt: time.Now().UTC(),
	}
}

// ListingCache is a read-through cache of single listings. GetListing
// returns nil, nil on a miss.
type ListingCache interface {
	GetListing(ctx context.Context, id string) (*domain.Listing, error)
	SetListing(ctx context.Context, listing *domain.Listing) error
	DeleteListing(ctx context.Context, id string) error
}

// Mailer notifies owners about their listings.
type Mailer interface {
	SendListingCreatedEmail(toEmail, listingTitle string) error
}

// sideEffects bundles the optional collaborators shared by the usecases.
// Any of them may be nil.
type sideEffects struct {
	cache  ListingCache
	events EventPublisher
	logger *logger.Logger
}

func (s sideEffects) invalidate(ctx context.Context, listingID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.DeleteListing(ctx, listingID); err != nil {
		s.logger.Warn("failed to invalidate cached listing", zap.String("listing_id", listingID), zap.Error(err))
	}
}

func (s sideEffects) publish(ctx context.Context, subject string, data interface{}) {
	if s.events == nil {
		return
	}
	if err := s.events.Publish(ctx, subject, data); err != nil {
		s.logger.Warn("failed to publish event", zap.String("subject", subject), zap.Error(err))
	}
}
