package postgres

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/finlay-davidson/flog-it/internal/listing/domain"
	"github.com/finlay-davidson/flog-it/internal/platform/logger"
)

type ProfileRepository struct {
	db     *gorm.DB
	logger *logger.Logger
}

func NewProfileRepository(db *gorm.DB, log *logger.Logger) *ProfileRepository {
	return &ProfileRepository{db: db, logger: log.Named("PostgresProfileRepository")}
}

// Migrate creates the profiles table if it does not exist yet.
func (r *ProfileRepository) Migrate(ctx context.Context) error {
	if err := r.db.WithContext(ctx).AutoMigrate(&profileModel{}); err != nil {
		return fmt.Errorf("migrate profiles: %w", err)
	}
	return nil
}

func (r *ProfileRepository) FindByUserIDs(ctx context.Context, userIDs []string) (map[string]*domain.Profile, error) {
	profiles := make(map[string]*domain.Profile, len(userIDs))
	if len(userIDs) == 0 {
		return profiles, nil
	}

	var models []profileModel
	if err := r.db.WithContext(ctx).Where("id IN ?", userIDs).Find(&models).Error; err != nil {
		r.logger.Error("FindByUserIDs: query failed", zap.Int("user_ids", len(userIDs)), zap.Error(err))
		return nil, fmt.Errorf("query profiles: %w", err)
	}
	for i := range models {
		profiles[models[i].ID] = models[i].toDomain()
	}
	return profiles, nil
}
