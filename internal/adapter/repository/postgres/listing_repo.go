package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/finlay-davidson/flog-it/internal/listing/domain"
	"github.com/finlay-davidson/flog-it/internal/platform/logger"
)

type ListingRepository struct {
	db     *gorm.DB
	logger *logger.Logger
}

func NewListingRepository(db *gorm.DB, log *logger.Logger) *ListingRepository {
	return &ListingRepository{db: db, logger: log.Named("PostgresListingRepository")}
}

// Migrate creates or updates the listings table.
func (r *ListingRepository) Migrate(ctx context.Context) error {
	if err := r.db.WithContext(ctx).AutoMigrate(&listingModel{}); err != nil {
		return fmt.Errorf("migrate listings: %w", err)
	}
	return nil
}

func (r *ListingRepository) Create(ctx context.Context, listing *domain.Listing) error {
	if err := r.db.WithContext(ctx).Create(fromDomain(listing)).Error; err != nil {
		return fmt.Errorf("insert listing: %w", err)
	}
	return nil
}

// Update writes every mutable column if the stored version still matches.
func (r *ListingRepository) Update(ctx context.Context, listing *domain.Listing) error {
	if !validID(listing.ID) {
		return domain.ErrListingNotFound
	}
	res := r.db.WithContext(ctx).
		Model(&listingModel{}).
		Where("id = ? AND version = ?", listing.ID, listing.Version).
		Updates(map[string]interface{}{
			"category_id":   listing.CategoryID,
			"title":         listing.Title,
			"description":   listing.Description,
			"price":         listing.Price,
			"locality_name": listing.LocalityName,
			"locality_id":   listing.LocalityID,
			"region_code":   listing.RegionCode,
			"place_name":    listing.PlaceName,
			"location_lat":  listing.LocationLat,
			"location_lng":  listing.LocationLng,
			"is_active":     listing.IsActive,
			"image_count":   listing.ImageCount,
			"version":       gorm.Expr("version + 1"),
			"updated_at":    listing.UpdatedAt,
		})
	if res.Error != nil {
		return fmt.Errorf("update listing %s: %w", listing.ID, res.Error)
	}
	if res.RowsAffected == 0 {
		var count int64
		if err := r.db.WithContext(ctx).Model(&listingModel{}).Where("id = ?", listing.ID).Count(&count).Error; err != nil {
			return fmt.Errorf("check listing %s: %w", listing.ID, err)
		}
		if count == 0 {
			return domain.ErrListingNotFound
		}
		r.logger.Warn("stale listing version", zap.String("listing_id", listing.ID), zap.Int64("version", listing.Version))
		return domain.ErrVersionConflict
	}
	listing.Version++
	return nil
}

func (r *ListingRepository) FindByID(ctx context.Context, id string) (*domain.Listing, error) {
	if !validID(id) {
		return nil, domain.ErrListingNotFound
	}
	var m listingModel
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrListingNotFound
		}
		return nil, fmt.Errorf("find listing %s: %w", id, err)
	}
	return m.toDomain(), nil
}

func (r *ListingRepository) FindByFilter(ctx context.Context, filter domain.Filter) ([]*domain.Listing, error) {
	q := r.db.WithContext(ctx).Model(&listingModel{})
	if filter.ActiveOnly {
		q = q.Where("is_active = ?", true)
	}
	if filter.UserID != "" {
		q = q.Where("user_id = ?", filter.UserID)
	}
	if filter.Query != "" {
		q = q.Where("title ILIKE ?", "%"+escapeLike(filter.Query)+"%")
	}
	if filter.MinPrice != nil {
		q = q.Where("price >= ?", *filter.MinPrice)
	}
	if filter.MaxPrice != nil {
		q = q.Where("price <= ?", *filter.MaxPrice)
	}

	var models []listingModel
	if err := q.Order("created_at DESC").Find(&models).Error; err != nil {
		return nil, fmt.Errorf("query listings: %w", err)
	}

	listings := make([]*domain.Listing, 0, len(models))
	for i := range models {
		listings = append(listings, models[i].toDomain())
	}
	return listings, nil
}

// validID reports whether id can be compared against the uuid primary key.
// Postgres rejects anything else with a syntax error rather than no rows.
func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// escapeLike makes s match literally inside a LIKE pattern.
func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
