package mongodb

import (
	"time"

	"github.com/finlay-davidson/flog-it/internal/listing/domain"
)

// listingDocument is the stored form of a listing. The UUID is used as _id.
type listingDocument struct {
	ID           string    `bson:"_id"`
	UserID       string    `bson:"user_id"`
	CategoryID   string    `bson:"category_id"`
	Title        string    `bson:"title"`
	Description  string    `bson:"description"`
	Price        float64   `bson:"price"`
	LocalityName string    `bson:"locality_name,omitempty"`
	LocalityID   string    `bson:"locality_id,omitempty"`
	RegionCode   string    `bson:"region_code,omitempty"`
	PlaceName    string    `bson:"place_name,omitempty"`
	LocationLat  *float64  `bson:"location_lat,omitempty"`
	LocationLng  *float64  `bson:"location_lng,omitempty"`
	IsActive     bool      `bson:"is_active"`
	ImageCount   int       `bson:"image_count"`
	Version      int64     `bson:"version"`
	CreatedAt    time.Time `bson:"created_at"`
	UpdatedAt    time.Time `bson:"updated_at"`
}

func toListingDocument(l *domain.Listing) *listingDocument {
	return &listingDocument{
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

func toDomainListing(d *listingDocument) *domain.Listing {
	return &domain.Listing{
		ID:           d.ID,
		UserID:       d.UserID,
		CategoryID:   d.CategoryID,
		Title:        d.Title,
		Description:  d.Description,
		Price:        d.Price,
		LocalityName: d.LocalityName,
		LocalityID:   d.LocalityID,
		RegionCode:   d.RegionCode,
		PlaceName:    d.PlaceName,
		LocationLat:  d.LocationLat,
		LocationLng:  d.LocationLng,
		IsActive:     d.IsActive,
		ImageCount:   d.ImageCount,
		Version:      d.Version,
		CreatedAt:    d.CreatedAt,
		UpdatedAt:    d.UpdatedAt,
	}
}

func toDomainListings(docs []*listingDocument) []*domain.Listing {
	listings := make([]*domain.Listing, 0, len(docs))
	for _, doc := range docs {
		listings = append(listings, toDomainListing(doc))
	}
	return listings
}

// profileDocument is the public part of a user profile. _id is the user id.
type profileDocument struct {
	ID          string `bson:"_id"`
	DisplayName string `bson:"display_name"`
}
