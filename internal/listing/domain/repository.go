package domain

import "context"

// ListingRepository persists listing rows.
//
// FindByID returns ErrListingNotFound for unknown ids regardless of is_active.
// Update writes the row only if its stored version equals listing.Version,
// bumps listing.Version on success and returns ErrVersionConflict otherwise.
// FindByFilter returns rows ordered by created_at descending.
type ListingRepository interface {
	Create(ctx context.Context, listing *Listing) error
	Update(ctx context.Context, listing *Listing) error
	FindByID(ctx context.Context, id string) (*Listing, error)
	FindByFilter(ctx context.Context, filter Filter) ([]*Listing, error)
}

// ProfileRepository reads the profiles of listing owners. FindByUserIDs
// leaves unknown ids out of the returned map.
type ProfileRepository interface {
	FindByUserIDs(ctx context.Context, userIDs []string) (map[string]*Profile, error)
}
