package postgres

import (
	"time"

	"github.com/finlay-davidson/flog-it/internal/listing/domain"
)

type listingModel struct {
	ID           string    `gorm:"type:uuid;primaryKey"`
	UserID       string    `gorm:"not null;index"`
	CategoryID   string    `gorm:"index"`
	Title        string    `gorm:"not null"`
	Description  string    `gorm:"type:text"`
	Price        float64   `gorm:"not null"`
	LocalityName string
	LocalityID   string
	RegionCode   string
	PlaceName    string
	LocationLat  *float64
	LocationLng  *float64
	IsActive     bool      `gorm:"not null;index"`
	ImageCount   int       `gorm:"not null"`
	Version      int64     `gorm:"not null"`
	CreatedAt    time.Time `gorm:"not null;index:,sort:desc"`
	UpdatedAt    time.Time `gorm:"not null"`
}

func (listingModel) TableName() string {
	return "listings"
}

func fromDomain(l *domain.Listing) *listingModel {
	return &listingModel{
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

func (m *listingModel) toDomain() *domain.Listing {
	return &domain.Listing{
		ID:           m.ID,
		UserID:       m.UserID,
		CategoryID:   m.CategoryID,
		Title:        m.Title,
		Description:  m.Description,
		Price:        m.Price,
		LocalityName: m.LocalityName,
		LocalityID:   m.LocalityID,
		RegionCode:   m.RegionCode,
		PlaceName:    m.PlaceName,
		LocationLat:  m.LocationLat,
		LocationLng:  m.LocationLng,
		IsActive:     m.IsActive,
		ImageCount:   m.ImageCount,
		Version:      m.Version,
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
}

// profileModel maps the profiles table, keyed by the owning user id.
type profileModel struct {
	ID          string `gorm:"primaryKey"`
	DisplayName string
}

func (profileModel) TableName() string {
	return "profiles"
}

func (m *profileModel) toDomain() *domain.Profile {
	return &domain.Profile{UserID: m.ID, DisplayName: m.DisplayName}
}
