// internal/app/store/memberships/membershipstore.go
package membershipstore

// Terminology
//   - Membership: the circle_memberships document, authoritative for roles.
//   - Index entry: the user_circles mirror of one membership, keyed by user.
// Every write in this store touches both sides. Callers run the writes
// inside txn.Run so the pair commits together.

import (
	"context"
	"errors"
	"fmt"

	"github.com/dalemusser/brewcircles/internal/app/system/circleerr"
	"github.com/dalemusser/brewcircles/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Store struct {
	c   *mongo.Collection
	idx *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{
		c:   db.Collection("circle_memberships"),
		idx: db.Collection("user_circles"),
	}
}

// Get returns the membership for (circleID, userID) or circleerr.ErrNotMember.
func (s *Store) Get(ctx context.Context, circleID primitive.ObjectID, userID string) (models.CircleMembership, error) {
	var m models.CircleMembership
	err := s.c.FindOne(ctx, bson.M{"circle_id": circleID, "user_id": userID}).Decode(&m)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return m, circleerr.ErrNotMember
	}
	if err != nil {
		return m, fmt.Errorf("membership get: %w", err)
	}
	return m, nil
}

// Exists reports whether userID holds a membership in circleID.
func (s *Store) Exists(ctx context.Context, circleID primitive.ObjectID, userID string) (bool, error) {
	_, err := s.Get(ctx, circleID, userID)
	if errors.Is(err, circleerr.ErrNotMember) {
		return false, nil
	}
	return err == nil, err
}

// ListByCircle returns the circle's members ordered by join time. An empty
// role returns every member.
func (s *Store) ListByCircle(ctx context.Context, circleID primitive.ObjectID, role models.Role) ([]models.CircleMembership, error) {
	filter := bson.M{"circle_id": circleID}
	if role != "" {
		filter["role"] = role
	}
	opts := options.Find().SetSort(bson.D{{Key: "joined_at", Value: 1}, {Key: "_id", Value: 1}})
	cur, err := s.c.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("membership list: %w", err)
	}
	defer cur.Close(ctx)

	out := []models.CircleMembership{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("membership list decode: %w", err)
	}
	return out, nil
}

// Count returns the number of memberships in circleID.
func (s *Store) Count(ctx context.Context, circleID primitive.ObjectID) (int64, error) {
	n, err := s.c.CountDocuments(ctx, bson.M{"circle_id": circleID})
	if err != nil {
		return 0, fmt.Errorf("membership count: %w", err)
	}
	return n, nil
}

// CountByRole returns how many members of circleID hold role.
func (s *Store) CountByRole(ctx context.Context, circleID primitive.ObjectID, role models.Role) (int64, error) {
	n, err := s.c.CountDocuments(ctx, bson.M{"circle_id": circleID, "role": role})
	if err != nil {
		return 0, fmt.Errorf("membership count by role: %w", err)
	}
	return n, nil
}

// EarliestMember returns the longest-standing member of circleID.
func (s *Store) EarliestMember(ctx context.Context, circleID primitive.ObjectID) (models.CircleMembership, error) {
	var m models.CircleMembership
	opts := options.FindOne().SetSort(bson.D{{Key: "joined_at", Value: 1}, {Key: "_id", Value: 1}})
	err := s.c.FindOne(ctx, bson.M{"circle_id": circleID}, opts).Decode(&m)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return m, circleerr.ErrNotFound
	}
	if err != nil {
		return m, fmt.Errorf("membership earliest: %w", err)
	}
	return m, nil
}

// ListByUser returns the user's index entries, most recent join first.
func (s *Store) ListByUser(ctx context.Context, userID string) ([]models.UserCircle, error) {
	opts := options.Find().SetSort(bson.D{{Key: "joined_at", Value: -1}, {Key: "_id", Value: -1}})
	cur, err := s.idx.Find(ctx, bson.M{"user_id": userID}, opts)
	if err != nil {
		return nil, fmt.Errorf("user circles list: %w", err)
	}
	defer cur.Close(ctx)

	out := []models.UserCircle{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("user circles decode: %w", err)
	}
	return out, nil
}

// GetIndexEntry returns the mirror entry for (userID, circleID).
func (s *Store) GetIndexEntry(ctx context.Context, userID string, circleID primitive.ObjectID) (models.UserCircle, error) {
	var uc models.UserCircle
	err := s.idx.FindOne(ctx, bson.M{"user_id": userID, "circle_id": circleID}).Decode(&uc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return uc, circleerr.ErrNotMember
	}
	if err != nil {
		return uc, fmt.Errorf("user circle get: %w", err)
	}
	return uc, nil
}

// InsertPair writes the membership and its index entry. A unique index
// violation on either side maps to circleerr.ErrAlreadyMember.
func (s *Store) InsertPair(ctx context.Context, m models.CircleMembership, circleName string) error {
	if !m.Role.Valid() {
		return circleerr.ErrInvalidRole
	}
	if _, err := s.c.InsertOne(ctx, m); err != nil {
		if wafflemongo.IsDup(err) {
			return circleerr.ErrAlreadyMember
		}
		return fmt.Errorf("membership insert: %w", err)
	}
	uc := models.UserCircle{
		UserID:     m.UserID,
		CircleID:   m.CircleID,
		CircleName: circleName,
		Role:       m.Role,
		JoinedAt:   m.JoinedAt,
	}
	if _, err := s.idx.InsertOne(ctx, uc); err != nil {
		if wafflemongo.IsDup(err) {
			return circleerr.ErrAlreadyMember
		}
		return fmt.Errorf("user circle insert: %w", err)
	}
	return nil
}

// DeletePair removes the membership and its index entry. It returns
// circleerr.ErrNotMember when no membership existed.
func (s *Store) DeletePair(ctx context.Context, circleID primitive.ObjectID, userID string) error {
	res, err := s.c.DeleteOne(ctx, bson.M{"circle_id": circleID, "user_id": userID})
	if err != nil {
		return fmt.Errorf("membership delete: %w", err)
	}
	if res.DeletedCount == 0 {
		return circleerr.ErrNotMember
	}
	if _, err := s.idx.DeleteOne(ctx, bson.M{"user_id": userID, "circle_id": circleID}); err != nil {
		return fmt.Errorf("user circle delete: %w", err)
	}
	return nil
}

// SetRole writes role to both the membership and its index entry.
func (s *Store) SetRole(ctx context.Context, circleID primitive.ObjectID, userID string, role models.Role) error {
	if !role.Valid() {
		return circleerr.ErrInvalidRole
	}
	res, err := s.c.UpdateOne(ctx,
		bson.M{"circle_id": circleID, "user_id": userID},
		bson.M{"$set": bson.M{"role": role}},
	)
	if err != nil {
		return fmt.Errorf("membership set role: %w", err)
	}
	if res.MatchedCount == 0 {
		return circleerr.ErrNotMember
	}
	if _, err := s.idx.UpdateOne(ctx,
		bson.M{"user_id": userID, "circle_id": circleID},
		bson.M{"$set": bson.M{"role": role}},
	); err != nil {
		return fmt.Errorf("user circle set role: %w", err)
	}
	return nil
}

// RenameCircle updates circle_name on every index entry for circleID in one
// UpdateMany.
func (s *Store) RenameCircle(ctx context.Context, circleID primitive.ObjectID, name string) error {
	if _, err := s.idx.UpdateMany(ctx,
		bson.M{"circle_id": circleID},
		bson.M{"$set": bson.M{"circle_name": name}},
	); err != nil {
		return fmt.Errorf("user circles rename: %w", err)
	}
	return nil
}

// DeleteByCircle removes every membership and index entry of circleID and
// returns how many memberships were deleted.
func (s *Store) DeleteByCircle(ctx context.Context, circleID primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteMany(ctx, bson.M{"circle_id": circleID})
	if err != nil {
		return 0, fmt.Errorf("memberships delete by circle: %w", err)
	}
	if _, err := s.idx.DeleteMany(ctx, bson.M{"circle_id": circleID}); err != nil {
		return 0, fmt.Errorf("user circles delete by circle: %w", err)
	}
	return res.DeletedCount, nil
}
