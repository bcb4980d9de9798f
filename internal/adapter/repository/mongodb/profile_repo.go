package mongodb

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"github.com/finlay-davidson/flog-it/internal/listing/domain"
	"github.com/finlay-davidson/flog-it/internal/platform/logger"
)

const profileCollectionName = "profiles"

type ProfileRepository struct {
	collection *mongo.Collection
	logger     *logger.Logger
}

func NewProfileRepository(db *mongo.Database, log *logger.Logger) *ProfileRepository {
	return &ProfileRepository{
		collection: db.Collection(profileCollectionName),
		logger:     log.Named("MongoProfileRepository"),
	}
}

// FindByUserIDs loads the profiles whose _id is one of userIDs.
func (r *ProfileRepository) FindByUserIDs(ctx context.Context, userIDs []string) (map[string]*domain.Profile, error) {
	profiles := make(map[string]*domain.Profile, len(userIDs))
	if len(userIDs) == 0 {
		return profiles, nil
	}

	cursor, err := r.collection.Find(ctx, bson.M{"_id": bson.M{"$in": userIDs}})
	if err != nil {
		r.logger.Error("FindByUserIDs: failed to query profiles", zap.Int("user_ids", len(userIDs)), zap.Error(err))
		return nil, fmt.Errorf("db find failed: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []profileDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("db cursor decode failed: %w", err)
	}
	for _, doc := range docs {
		profiles[doc.ID] = &domain.Profile{UserID: doc.ID, DisplayName: doc.DisplayName}
	}
	return profiles, nil
}
