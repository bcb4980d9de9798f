package mongodb

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/finlay-davidson/flog-it/internal/listing/domain"
	"github.com/finlay-davidson/flog-it/internal/platform/logger"
)

const listingCollectionName = "listings"

type ListingRepository struct {
	collection *mongo.Collection
	logger     *logger.Logger
}

func NewListingRepository(db *mongo.Database, log *logger.Logger) *ListingRepository {
	collection := db.Collection(listingCollectionName)

	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "user_id", Value: 1}}},
		{Keys: bson.D{{Key: "is_active", Value: 1}, {Key: "created_at", Value: -1}}},
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if _, err := collection.Indexes().CreateMany(ctx, indexes); err != nil {
		log.Error("Failed to create indexes for listings collection", zap.Error(err))
	}

	return &ListingRepository{collection: collection, logger: log.Named("MongoListingRepository")}
}

func (r *ListingRepository) Create(ctx context.Context, listing *domain.Listing) error {
	if _, err := r.collection.InsertOne(ctx, toListingDocument(listing)); err != nil {
		return fmt.Errorf("db insert failed: %w", err)
	}
	return nil
}

// Update replaces the document if its stored version still matches.
func (r *ListingRepository) Update(ctx context.Context, listing *domain.Listing) error {
	doc := toListingDocument(listing)
	doc.Version = listing.Version + 1

	res, err := r.collection.ReplaceOne(ctx, bson.M{"_id": listing.ID, "version": listing.Version}, doc)
	if err != nil {
		return fmt.Errorf("db replace failed: %w", err)
	}
	if res.MatchedCount == 0 {
		n, err := r.collection.CountDocuments(ctx, bson.M{"_id": listing.ID})
		if err != nil {
			return fmt.Errorf("db count failed: %w", err)
		}
		if n == 0 {
			return domain.ErrListingNotFound
		}
		r.logger.Warn("stale listing version", zap.String("listing_id", listing.ID), zap.Int64("version", listing.Version))
		return domain.ErrVersionConflict
	}
	listing.Version = doc.Version
	return nil
}

func (r *ListingRepository) FindByID(ctx context.Context, id string) (*domain.Listing, error) {
	var doc listingDocument
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrListingNotFound
		}
		return nil, fmt.Errorf("db findone failed: %w", err)
	}
	return toDomainListing(&doc), nil
}

func (r *ListingRepository) FindByFilter(ctx context.Context, filter domain.Filter) ([]*domain.Listing, error) {
	cursor, err := r.collection.Find(ctx, buildQuery(filter), options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}))
	if err != nil {
		return nil, fmt.Errorf("db find failed: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []*listingDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("db cursor decode failed: %w", err)
	}
	return toDomainListings(docs), nil
}

func buildQuery(filter domain.Filter) bson.M {
	query := bson.M{}
	if filter.ActiveOnly {
		query["is_active"] = true
	}
	if filter.UserID != "" {
		query["user_id"] = filter.UserID
	}
	if filter.Query != "" {
		query["title"] = primitive.Regex{Pattern: regexp.QuoteMeta(filter.Query), Options: "i"}
	}
	price := bson.M{}
	if filter.MinPrice != nil {
		price["$gte"] = *filter.MinPrice
	}
	if filter.MaxPrice != nil {
		price["$lte"] = *filter.MaxPrice
	}
	if len(price) > 0 {
		query["price"] = price
	}
	return query
}
