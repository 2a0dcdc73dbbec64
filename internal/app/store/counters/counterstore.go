// internal/app/store/counters/counterstore.go
package counterstore

// Counters are the member_count and brew_count fields on the circle
// document. They only move through $inc, inside the same transaction as the
// write that changes the underlying set. Decrements are guarded so a
// counter never goes below zero.

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dalemusser/brewcircles/internal/app/policy/circlepolicy"
	"github.com/dalemusser/brewcircles/internal/app/system/circleerr"
	"github.com/dalemusser/brewcircles/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

const (
	FieldMembers = "member_count"
	FieldBrews   = "brew_count"
)

// ErrCounterUnderflow means a decrement found the counter already at zero,
// which implies drift between the counter and its set.
var ErrCounterUnderflow = errors.New("counter would go below zero")

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("circles")}
}

// AddMember increments member_count.
func (s *Store) AddMember(ctx context.Context, circleID primitive.ObjectID) error {
	return s.inc(ctx, circleID, FieldMembers, 1)
}

// RemoveMember decrements member_count.
func (s *Store) RemoveMember(ctx context.Context, circleID primitive.ObjectID) error {
	return s.inc(ctx, circleID, FieldMembers, -1)
}

// AddBrew increments brew_count after checking that role may post.
func (s *Store) AddBrew(ctx context.Context, role models.Role, circleID primitive.ObjectID) error {
	if err := circlepolicy.Require(role, circlepolicy.OpPostBrew); err != nil {
		return err
	}
	return s.inc(ctx, circleID, FieldBrews, 1)
}

// RemoveBrew decrements brew_count after checking that role may delete the
// brew, given whether the actor wrote it.
func (s *Store) RemoveBrew(ctx context.Context, role models.Role, circleID primitive.ObjectID, isAuthor bool) error {
	if err := circlepolicy.RequireDeleteBrew(role, isAuthor); err != nil {
		return err
	}
	return s.inc(ctx, circleID, FieldBrews, -1)
}

// Touch stamps updated_at. Membership changes that do not move a counter
// (role changes) still write the circle document so concurrent
// transactions on the same circle conflict.
func (s *Store) Touch(ctx context.Context, circleID primitive.ObjectID) error {
	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": circleID},
		bson.M{"$set": bson.M{"updated_at": time.Now().UTC()}},
	)
	if err != nil {
		return fmt.Errorf("circle touch: %w", err)
	}
	if res.MatchedCount == 0 {
		return circleerr.ErrNotFound
	}
	return nil
}

// Set overwrites both counters. Only the repair worker uses it, after
// recomputing the sets in the same transaction.
func (s *Store) Set(ctx context.Context, circleID primitive.ObjectID, members, brews int64) error {
	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": circleID},
		bson.M{"$set": bson.M{
			FieldMembers: members,
			FieldBrews:   brews,
			"updated_at": time.Now().UTC(),
		}},
	)
	if err != nil {
		return fmt.Errorf("counter set: %w", err)
	}
	if res.MatchedCount == 0 {
		return circleerr.ErrNotFound
	}
	return nil
}

func (s *Store) inc(ctx context.Context, circleID primitive.ObjectID, field string, delta int64) error {
	filter := bson.M{"_id": circleID}
	if delta < 0 {
		filter[field] = bson.M{"$gte": -delta}
	}
	res, err := s.c.UpdateOne(ctx, filter, bson.M{
		"$inc": bson.M{field: delta},
		"$set": bson.M{"updated_at": time.Now().UTC()},
	})
	if err != nil {
		return fmt.Errorf("counter %s: %w", field, err)
	}
	if res.MatchedCount == 0 {
		if delta < 0 {
			n, cerr := s.c.CountDocuments(ctx, bson.M{"_id": circleID})
			if cerr != nil {
				return fmt.Errorf("counter %s: %w", field, cerr)
			}
			if n > 0 {
				return fmt.Errorf("%s on circle %s: %w", field, circleID.Hex(), ErrCounterUnderflow)
			}
		}
		return circleerr.ErrNotFound
	}
	return nil
}
