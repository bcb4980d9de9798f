package domain

import "time"

type Listing struct {
	ID          string
	UserID      string
	CategoryID  string
	Title       string
	Description string
	Price       float64

	LocalityName string
	LocalityID   string
	RegionCode   string
	PlaceName    string
	LocationLat  *float64
	LocationLng  *float64

	IsActive   bool
	ImageCount int
	// Version is bumped on every row write and checked by Update.
	Version   int64
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ListingPatch carries a partial update. Nil fields are left untouched.
type ListingPatch struct {
	Title        *string
	Description  *string
	Price        *float64
	CategoryID   *string
	LocalityName *string
	LocalityID   *string
	RegionCode   *string
	PlaceName    *string
	LocationLat  *float64
	LocationLng  *float64
}

// Apply copies the set fields of p onto l.
func (p ListingPatch) Apply(l *Listing) {
	if p.Title != nil {
		l.Title = *p.Title
	}
	if p.Description != nil {
		l.Description = *p.Description
	}
	if p.Price != nil {
		l.Price = *p.Price
	}
	if p.CategoryID != nil {
		l.CategoryID = *p.CategoryID
	}
	if p.LocalityName != nil {
		l.LocalityName = *p.LocalityName
	}
	if p.LocalityID != nil {
		l.LocalityID = *p.LocalityID
	}
	if p.RegionCode != nil {
		l.RegionCode = *p.RegionCode
	}
	if p.PlaceName != nil {
		l.PlaceName = *p.PlaceName
	}
	if p.LocationLat != nil {
		l.LocationLat = p.LocationLat
	}
	if p.LocationLng != nil {
		l.LocationLng = p.LocationLng
	}
}

// UploadedFile is an image received in a multipart request. It is never persisted.
type UploadedFile struct {
	Name        string
	ContentType string
	Data        []byte
}

func (f UploadedFile) Size() int64 {
	return int64(len(f.Data))
}

// Profile is the public part of a user's profile shown with their listings.
type Profile struct {
	UserID      string
	DisplayName string
}

// Identity is the authenticated caller as reported by the token verifier.
type Identity struct {
	UserID string
	Email  string
}

// Filter selects listings. Nil price bounds are unbounded.
type Filter struct {
	Query      string
	MinPrice   *float64
	MaxPrice   *float64
	UserID     string
	ActiveOnly bool
}

// Validate checks that the price bounds are usable.
func (f Filter) Validate() error {
	if f.MinPrice != nil && *f.MinPrice < 0 {
		return ErrInvalidFilter
	}
	if f.MaxPrice != nil && *f.MaxPrice < 0 {
		return ErrInvalidFilter
	}
	if f.MinPrice != nil && f.MaxPrice != nil && *f.MinPrice > *f.MaxPrice {
		return ErrInvalidFilter
	}
	return nil
}
