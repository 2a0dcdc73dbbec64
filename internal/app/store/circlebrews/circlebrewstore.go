// internal/app/store/circlebrews/circlebrewstore.go
package circlebrewstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/dalemusser/brewcircles/internal/app/system/circleerr"
	"github.com/dalemusser/brewcircles/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	DefaultPageSize = 25
	MaxPageSize     = 100
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("circle_brews")}
}

// Insert stores b, assigning an ID when b.ID is zero.
func (s *Store) Insert(ctx context.Context, b models.CircleBrew) (models.CircleBrew, error) {
	if b.ID.IsZero() {
		b.ID = primitive.NewObjectID()
	}
	if _, err := s.c.InsertOne(ctx, b); err != nil {
		return b, fmt.Errorf("circle brew insert: %w", err)
	}
	return b, nil
}

// Get returns the brew brewID posted in circleID.
func (s *Store) Get(ctx context.Context, circleID, brewID primitive.ObjectID) (models.CircleBrew, error) {
	var b models.CircleBrew
	err := s.c.FindOne(ctx, bson.M{"_id": brewID, "circle_id": circleID}).Decode(&b)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return b, circleerr.ErrNotFound
	}
	if err != nil {
		return b, fmt.Errorf("circle brew get: %w", err)
	}
	return b, nil
}

// Delete removes the brew; circleerr.ErrNotFound when nothing matched.
func (s *Store) Delete(ctx context.Context, circleID, brewID primitive.ObjectID) error {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": brewID, "circle_id": circleID})
	if err != nil {
		return fmt.Errorf("circle brew delete: %w", err)
	}
	if res.DeletedCount == 0 {
		return circleerr.ErrNotFound
	}
	return nil
}

// ListByCircle returns brews newest first. A non-zero before restricts the
// page to brews older than that id (keyset pagination on _id).
func (s *Store) ListByCircle(ctx context.Context, circleID, before primitive.ObjectID, limit int64) ([]models.CircleBrew, error) {
	if limit <= 0 {
		limit = DefaultPageSize
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}
	filter := bson.M{"circle_id": circleID}
	if !before.IsZero() {
		filter["_id"] = bson.M{"$lt": before}
	}
	opts := options.Find().SetSort(bson.D{{Key: "_id", Value: -1}}).SetLimit(limit)
	cur, err := s.c.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("circle brews list: %w", err)
	}
	defer cur.Close(ctx)

	out := []models.CircleBrew{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("circle brews decode: %w", err)
	}
	return out, nil
}

func (s *Store) CountByCircle(ctx context.Context, circleID primitive.ObjectID) (int64, error) {
	n, err := s.c.CountDocuments(ctx, bson.M{"circle_id": circleID})
	if err != nil {
		return 0, fmt.Errorf("circle brews count: %w", err)
	}
	return n, nil
}

func (s *Store) DeleteByCircle(ctx context.Context, circleID primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteMany(ctx, bson.M{"circle_id": circleID})
	if err != nil {
		return 0, fmt.Errorf("circle brews delete by circle: %w", err)
	}
	return res.DeletedCount, nil
}
