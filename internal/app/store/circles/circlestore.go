// internal/app/store/circles/circlestore.go
package circlestore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dalemusser/brewcircles/internal/app/policy/circlepolicy"
	circlebrewstore "github.com/dalemusser/brewcircles/internal/app/store/circlebrews"
	membershipstore "github.com/dalemusser/brewcircles/internal/app/store/memberships"
	"github.com/dalemusser/brewcircles/internal/app/system/circleerr"
	"github.com/dalemusser/brewcircles/internal/app/system/codegen"
	"github.com/dalemusser/brewcircles/internal/app/system/htmlsanitize"
	"github.com/dalemusser/brewcircles/internal/app/system/inputval"
	"github.com/dalemusser/brewcircles/internal/app/system/txn"
	"github.com/dalemusser/brewcircles/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

const (
	MaxNameLength        = 80
	MaxDescriptionLength = 500
)

// errCodeTaken signals that the code passed the existence check but lost the
// race to the unique index. It consumes one attempt and never escapes.
var errCodeTaken = errors.New("invite code taken")

type Store struct {
	db       *mongo.Database
	c        *mongo.Collection
	members  *membershipstore.Store
	brews    *circlebrewstore.Store
	log      *zap.Logger
	attempts int
}

// New builds the circle repository. attempts bounds invite code generation;
// zero means codegen.DefaultMaxAttempts.
func New(db *mongo.Database, log *zap.Logger, attempts int) *Store {
	if attempts <= 0 {
		attempts = codegen.DefaultMaxAttempts
	}
	return &Store{
		db:       db,
		c:        db.Collection("circles"),
		members:  membershipstore.New(db),
		brews:    circlebrewstore.New(db),
		log:      log,
		attempts: attempts,
	}
}

// Settings is a partial update. Nil fields are left unchanged; an empty
// Description clears it.
type Settings struct {
	Name        *string
	Description *string
}

// Create allocates an invite code and writes the circle, the owner's admin
// membership and the owner's index entry in one transaction.
func (s *Store) Create(ctx context.Context, ownerID, ownerName, name string, description *string) (models.Circle, error) {
	name = htmlsanitize.PlainText(name)
	description = htmlsanitize.PlainTextPtr(description)
	if description != nil && *description == "" {
		description = nil
	}
	if err := validate(&name, description); err != nil {
		return models.Circle{}, err
	}

	var out models.Circle
	err := s.withFreshCode(ctx, func(ctx context.Context, code string) error {
		now := time.Now().UTC()
		c := models.Circle{
			ID:          primitive.NewObjectID(),
			Name:        name,
			NameCI:      text.Fold(name),
			Description: description,
			CreatedBy:   ownerID,
			InviteCode:  code,
			MemberCount: 1,
			BrewCount:   0,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if _, err := s.c.InsertOne(ctx, c); err != nil {
			if wafflemongo.IsDup(err) {
				return errCodeTaken
			}
			return fmt.Errorf("circle insert: %w", err)
		}
		owner := models.CircleMembership{
			CircleID:    c.ID,
			UserID:      ownerID,
			Role:        models.RoleAdmin,
			DisplayName: ownerName,
			JoinedAt:    now,
		}
		if err := s.members.InsertPair(ctx, owner, c.Name); err != nil {
			return err
		}
		out = c
		return nil
	})
	return out, err
}

// GetByID returns the circle or circleerr.ErrNotFound.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Circle, error) {
	return s.findOne(ctx, bson.M{"_id": id})
}

// GetByInviteCode upper-cases code before the lookup.
func (s *Store) GetByInviteCode(ctx context.Context, code string) (models.Circle, error) {
	code = codegen.NormalizeInvite(code)
	if code == "" {
		return models.Circle{}, circleerr.ErrNotFound
	}
	return s.findOne(ctx, bson.M{"invite_code": code})
}

// InviteCodeExists is the uniqueness lookup handed to codegen.
func (s *Store) InviteCodeExists(ctx context.Context, code string) (bool, error) {
	n, err := s.c.CountDocuments(ctx, bson.M{"invite_code": codegen.NormalizeInvite(code)}, options.Count().SetLimit(1))
	if err != nil {
		return false, fmt.Errorf("invite code lookup: %w", err)
	}
	return n > 0, nil
}

// UpdateSettings applies set on behalf of requesterID, who must be an admin.
// A name change is copied to every member's index entry in the same
// transaction.
func (s *Store) UpdateSettings(ctx context.Context, requesterID string, id primitive.ObjectID, set Settings) error {
	if set.Name != nil {
		v := htmlsanitize.PlainText(*set.Name)
		set.Name = &v
	}
	set.Description = htmlsanitize.PlainTextPtr(set.Description)
	if err := validate(set.Name, set.Description); err != nil {
		return err
	}

	return txn.Run(ctx, s.db, s.log, func(ctx context.Context) error {
		m, err := s.members.Get(ctx, id, requesterID)
		if err != nil {
			return err
		}
		if err := circlepolicy.Require(m.Role, circlepolicy.OpUpdateSettings); err != nil {
			return err
		}

		fields := bson.M{"updated_at": time.Now().UTC()}
		update := bson.M{"$set": fields}
		if set.Name != nil {
			fields["name"] = *set.Name
			fields["name_ci"] = text.Fold(*set.Name)
		}
		if set.Description != nil {
			if *set.Description == "" {
				update["$unset"] = bson.M{"description": ""}
			} else {
				fields["description"] = *set.Description
			}
		}
		res, err := s.c.UpdateOne(ctx, bson.M{"_id": id}, update)
		if err != nil {
			return fmt.Errorf("circle update: %w", err)
		}
		if res.MatchedCount == 0 {
			return circleerr.ErrNotFound
		}
		if set.Name != nil {
			return s.members.RenameCircle(ctx, id, *set.Name)
		}
		return nil
	})
}

// Deleted describes what Delete removed.
type Deleted struct {
	Circle  models.Circle
	Members int64
	Brews   int64
}

// Delete removes the circle with every membership, index entry and shared
// brew. Only the creator may delete, and only while still an admin.
func (s *Store) Delete(ctx context.Context, requesterID string, id primitive.ObjectID) (Deleted, error) {
	var out Deleted
	err := txn.Run(ctx, s.db, s.log, func(ctx context.Context) error {
		out = Deleted{}
		c, err := s.GetByID(ctx, id)
		if err != nil {
			return err
		}
		var role models.Role
		m, err := s.members.Get(ctx, id, requesterID)
		switch {
		case err == nil:
			role = m.Role
		case !errors.Is(err, circleerr.ErrNotMember):
			return err
		}
		if err := circlepolicy.RequireDeleteCircle(role, requesterID == c.CreatedBy); err != nil {
			return err
		}

		if _, err := s.c.DeleteOne(ctx, bson.M{"_id": id}); err != nil {
			return fmt.Errorf("circle delete: %w", err)
		}
		members, err := s.members.DeleteByCircle(ctx, id)
		if err != nil {
			return err
		}
		brews, err := s.brews.DeleteByCircle(ctx, id)
		if err != nil {
			return err
		}
		out = Deleted{Circle: c, Members: members, Brews: brews}
		return nil
	})
	return out, err
}

// RotateInviteCode replaces the circle's invite code. requesterID must be
// allowed to manage members; the old code stops working immediately.
func (s *Store) RotateInviteCode(ctx context.Context, requesterID string, id primitive.ObjectID) (string, error) {
	var out string
	err := s.withFreshCode(ctx, func(ctx context.Context, code string) error {
		m, err := s.members.Get(ctx, id, requesterID)
		if err != nil {
			return err
		}
		if err := circlepolicy.Require(m.Role, circlepolicy.OpManageMembers); err != nil {
			return err
		}
		res, err := s.c.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{
			"invite_code": code,
			"updated_at":  time.Now().UTC(),
		}})
		if err != nil {
			if wafflemongo.IsDup(err) {
				return errCodeTaken
			}
			return fmt.Errorf("circle rotate code: %w", err)
		}
		if res.MatchedCount == 0 {
			return circleerr.ErrNotFound
		}
		out = code
		return nil
	})
	return out, err
}

// IDs returns every circle id in ascending order.
func (s *Store) IDs(ctx context.Context) ([]primitive.ObjectID, error) {
	opts := options.Find().
		SetProjection(bson.M{"_id": 1}).
		SetSort(bson.D{{Key: "_id", Value: 1}})
	cur, err := s.c.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("circle ids: %w", err)
	}
	defer cur.Close(ctx)

	var ids []primitive.ObjectID
	for cur.Next(ctx) {
		var row struct {
			ID primitive.ObjectID `bson:"_id"`
		}
		if err := cur.Decode(&row); err != nil {
			return nil, fmt.Errorf("circle ids decode: %w", err)
		}
		ids = append(ids, row.ID)
	}
	return ids, cur.Err()
}

// withFreshCode draws invite codes and runs write in a transaction with each
// one until write stops reporting errCodeTaken. Lookup draws and index
// collisions share the same attempt budget.
func (s *Store) withFreshCode(ctx context.Context, write func(ctx context.Context, code string) error) error {
	used := 0
	exists := func(ctx context.Context, code string) (bool, error) {
		used++
		return s.InviteCodeExists(ctx, code)
	}
	for {
		remaining := s.attempts - used
		if remaining <= 0 {
			return circleerr.ErrCodeGenerationExhausted
		}
		code, err := codegen.GenerateUnique(ctx, exists, codegen.InviteAlphabet, codegen.InviteCodeLength, remaining)
		if err != nil {
			return err
		}
		err = txn.Run(ctx, s.db, s.log, func(ctx context.Context) error {
			return write(ctx, code)
		})
		if errors.Is(err, errCodeTaken) {
			s.log.Info("invite code collided on insert; retrying", zap.Int("attempts_used", used))
			continue
		}
		return err
	}
}

func (s *Store) findOne(ctx context.Context, filter bson.M) (models.Circle, error) {
	var c models.Circle
	err := s.c.FindOne(ctx, filter).Decode(&c)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return c, circleerr.ErrNotFound
	}
	if err != nil {
		return c, fmt.Errorf("circle get: %w", err)
	}
	return c, nil
}

func validate(name, description *string) error {
	if name != nil {
		if err := inputval.Text("name", *name, true, MaxNameLength); err != nil {
			return err
		}
	}
	if description != nil {
		if err := inputval.Text("description", *description, false, MaxDescriptionLength); err != nil {
			return err
		}
	}
	return nil
}
