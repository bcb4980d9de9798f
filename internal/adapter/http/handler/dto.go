package handler

import (
	"time"

	"github.com/finlay-davidson/flog-it/internal/listing/domain"
)

type listingResponse struct {
	ID           string    `json:"id"`
	UserID       string    `json:"user_id"`
	CategoryID   string    `json:"category_id,omitempty"`
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	Price        float64   `json:"price"`
	LocalityName string    `json:"locality_name,omitempty"`
	LocalityID   string    `json:"locality_id,omitempty"`
	RegionCode   string    `json:"region_code,omitempty"`
	PlaceName    string    `json:"place_name,omitempty"`
	LocationLat  *float64  `json:"location_lat,omitempty"`
	LocationLng  *float64  `json:"location_lng,omitempty"`
	IsActive     bool      `json:"is_active"`
	ImageCount   int       `json:"image_count"`
	Version      int64     `json:"version"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func toListingResponse(l *domain.Listing) listingResponse {
	return listingResponse{
		ID:           l.ID,
		UserID:       l.UserID,
		CategoryID:   l.CategoryID,
		Title:        l.Title,
		Description:  l.Description,
		Price:        l.Price,
		LocalityName: l.LocalityName,
		LocalityID:   l.LocalityID,
		RegionCode:   l.RegionCode,
		PlaceName:    l.PlaceName,
		LocationLat:  l.LocationLat,
		LocationLng:  l.LocationLng,
		IsActive:     l.IsActive,
		ImageCount:   l.ImageCount,
		Version:      l.Version,
		CreatedAt:    l.CreatedAt,
		UpdatedAt:    l.UpdatedAt,
	}
}

// profileResponse is the owner profile joined onto public listing views.
// It is null when the owner has no profile.
type profileResponse struct {
	DisplayName string `json:"display_name"`
}

func toProfileResponse(profiles map[string]*domain.Profile, userID string) *profileResponse {
	p, ok := profiles[userID]
	if !ok || p == nil {
		return nil
	}
	return &profileResponse{DisplayName: p.DisplayName}
}

// listingWithImages is the single listing view.
type listingWithImages struct {
	listingResponse
	Profile *profileResponse `json:"profile"`
	Images  []string         `json:"images"`
}

// listingWithThumbnails is an entry of the public search results.
type listingWithThumbnails struct {
	listingResponse
	Profile    *profileResponse `json:"profile"`
	Thumbnails []string         `json:"thumbnails"`
}

// listingWithThumbs is an entry of the caller's own listings.
type listingWithThumbs struct {
	listingResponse
	Thumbs []string `json:"thumbs"`
}

type createListingRequest struct {
	Title        string   `json:"title"`
	Description  string   `json:"description"`
	Price        float64  `json:"price"`
	CategoryID   string   `json:"category_id"`
	LocalityName string   `json:"locality_name"`
	LocalityID   string   `json:"locality_id"`
	RegionCode   string   `json:"region_code"`
	PlaceName    string   `json:"place_name"`
	LocationLat  *float64 `json:"location_lat"`
	LocationLng  *float64 `json:"location_lng"`
}

func (req createListingRequest) toDomain() domain.Listing {
	return domain.Listing{
		Title:        req.Title,
		Description:  req.Description,
		Price:        req.Price,
		CategoryID:   req.CategoryID,
		LocalityName: req.LocalityName,
		LocalityID:   req.LocalityID,
		RegionCode:   req.RegionCode,
		PlaceName:    req.PlaceName,
		LocationLat:  req.LocationLat,
		LocationLng:  req.LocationLng,
	}
}

// updateListingRequest leaves absent fields unchanged.
type updateListingRequest struct {
	Title        *string  `json:"title"`
	Description  *string  `json:"description"`
	Price        *float64 `json:"price"`
	CategoryID   *string  `json:"category_id"`
	LocalityName *string  `json:"locality_name"`
	LocalityID   *string  `json:"locality_id"`
	RegionCode   *string  `json:"region_code"`
	PlaceName    *string  `json:"place_name"`
	LocationLat  *float64 `json:"location_lat"`
	LocationLng  *float64 `json:"location_lng"`
}

func (req updateListingRequest) toPatch() domain.ListingPatch {
	return domain.ListingPatch{
		Title:        req.Title,
		Description:  req.Description,
		Price:        req.Price,
		CategoryID:   req.CategoryID,
		LocalityName: req.LocalityName,
		LocalityID:   req.LocalityID,
		RegionCode:   req.RegionCode,
		PlaceName:    req.PlaceName,
		LocationLat:  req.LocationLat,
		LocationLng:  req.LocationLng,
	}
}
