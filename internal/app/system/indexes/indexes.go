// internal/app/system/indexes/indexes.go
package indexes

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

/*
EnsureAll is called at startup. Each ensure* function is idempotent.
We aggregate errors so any problem is visible and startup can fail fast.
The unique indexes here are what make invite codes and memberships unique
under concurrent writers; the service relies on them.
*/
func EnsureAll(ctx context.Context, db *mongo.Database, log *zap.Logger) error {
	if log == nil {
		log = zap.NewNop()
	}
	var problems []string

	if err := ensureCircles(ctx, db, log); err != nil {
		problems = append(problems, "circles: "+err.Error())
	}
	if err := ensureCircleMemberships(ctx, db, log); err != nil {
		problems = append(problems, "circle_memberships: "+err.Error())
	}
	if err := ensureUserCircles(ctx, db, log); err != nil {
		problems = append(problems, "user_circles: "+err.Error())
	}
	if err := ensureCircleBrews(ctx, db, log); err != nil {
		problems = append(problems, "circle_brews: "+err.Error())
	}
	if err := ensureAuditEvents(ctx, db, log); err != nil {
		problems = append(problems, "audit_events: "+err.Error())
	}

	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}

/* -------------------------------------------------------------------------- */
/* Core helper: reconcile a set of desired indexes for one collection         */
/* -------------------------------------------------------------------------- */

type existingIndex struct {
	Name   string `bson:"name"`
	Key    bson.D `bson:"key"`
	Unique *bool  `bson:"unique,omitempty"`
}

func keySig(keys bson.D) string {
	parts := make([]string, 0, len(keys))
	for _, kv := range keys {
		parts = append(parts, fmt.Sprintf("%s:%v", kv.Key, kv.Value))
	}
	return strings.Join(parts, ", ")
}

func isUnique(b *bool) bool {
	return b != nil && *b
}

func listIndexes(ctx context.Context, coll *mongo.Collection) (map[string]existingIndex, error) {
	existing := map[string]existingIndex{}
	cur, err := coll.Indexes().List(ctx)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	for cur.Next(ctx) {
		var idx existingIndex
		if err := cur.Decode(&idx); err != nil {
			continue
		}
		existing[keySig(idx.Key)] = idx
	}
	return existing, cur.Err()
}

func ensureIndexSet(ctx context.Context, coll *mongo.Collection, log *zap.Logger, models []mongo.IndexModel) error {
	existing, err := listIndexes(ctx, coll)
	if err != nil {
		// A collection that does not exist yet has no indexes to reconcile.
		existing = map[string]existingIndex{}
	}

	var errs []string
	for _, m := range models {
		var name string
		var unique *bool
		if m.Options != nil {
			if m.Options.Name != nil {
				name = *m.Options.Name
			}
			unique = m.Options.Unique
		}
		sig := keySig(m.Keys.(bson.D))
		start := time.Now()

		if ex, ok := existing[sig]; ok {
			if isUnique(ex.Unique) == isUnique(unique) && (name == "" || ex.Name == name) {
				log.Debug("reusing existing index",
					zap.String("collection", coll.Name()),
					zap.String("name", ex.Name),
					zap.String("keys", sig))
				continue
			}
			// Same keys but different name or uniqueness: drop and recreate.
			if _, err := coll.Indexes().DropOne(ctx, ex.Name); err != nil {
				errs = append(errs, fmt.Sprintf("%s(%s): drop failed: %v", coll.Name(), name, err))
				continue
			}
		}

		if _, err := coll.Indexes().CreateOne(ctx, m); err != nil {
			if isUnique(unique) && isDuplicateKeyErr(err) {
				errs = append(errs, fmt.Sprintf("%s(%s): cannot create unique index (duplicates present)", coll.Name(), name))
			} else {
				errs = append(errs, fmt.Sprintf("%s(%s): %v", coll.Name(), name, err))
			}
			continue
		}
		log.Info("index created",
			zap.String("collection", coll.Name()),
			zap.String("name", name),
			zap.String("keys", sig),
			zap.Bool("unique", isUnique(unique)),
			zap.Duration("took", time.Since(start)))
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

// Best-effort duplicate-detector (works cross-vendors)
func isDuplicateKeyErr(err error) bool {
	if err == nil {
		return false
	}
	if mongo.IsDuplicateKeyError(err) {
		return true
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) && ce.Code == 11000 {
		return true
	}
	s := err.Error()
	return strings.Contains(s, "E11000") || strings.Contains(strings.ToLower(s), "duplicate key")
}

/* -------------------------------------------------------------------------- */
/* Collections                                                                */
/* -------------------------------------------------------------------------- */

func ensureCircles(ctx context.Context, db *mongo.Database, log *zap.Logger) error {
	return ensureIndexSet(ctx, db.Collection("circles"), log, []mongo.IndexModel{
		// Invite codes are stored upper-cased, so this is case-insensitive uniqueness.
		{
			Keys:    bson.D{{Key: "invite_code", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_circles_invite_code"),
		},
		{
			Keys:    bson.D{{Key: "created_by", Value: 1}, {Key: "created_at", Value: -1}},
			Options: options.Index().SetName("idx_circles_creator_created"),
		},
	})
}

func ensureCircleMemberships(ctx context.Context, db *mongo.Database, log *zap.Logger) error {
	return ensureIndexSet(ctx, db.Collection("circle_memberships"), log, []mongo.IndexModel{
		// Exactly one membership per (circle, user); role is scalar.
		{
			Keys:    bson.D{{Key: "circle_id", Value: 1}, {Key: "user_id", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_cm_circle_user"),
		},
		// Admin counts and role-segmented rosters.
		{
			Keys:    bson.D{{Key: "circle_id", Value: 1}, {Key: "role", Value: 1}, {Key: "joined_at", Value: 1}},
			Options: options.Index().SetName("idx_cm_circle_role_joined"),
		},
	})
}

func ensureUserCircles(ctx context.Context, db *mongo.Database, log *zap.Logger) error {
	return ensureIndexSet(ctx, db.Collection("user_circles"), log, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "circle_id", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_uc_user_circle"),
		},
		// Cascades on rename and delete.
		{
			Keys:    bson.D{{Key: "circle_id", Value: 1}},
			Options: options.Index().SetName("idx_uc_circle"),
		},
		{
			Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "joined_at", Value: -1}},
			Options: options.Index().SetName("idx_uc_user_joined"),
		},
	})
}

func ensureCircleBrews(ctx context.Context, db *mongo.Database, log *zap.Logger) error {
	return ensureIndexSet(ctx, db.Collection("circle_brews"), log, []mongo.IndexModel{
		// Feed: newest first, _id as keyset cursor.
		{
			Keys:    bson.D{{Key: "circle_id", Value: 1}, {Key: "_id", Value: -1}},
			Options: options.Index().SetName("idx_cb_circle_id"),
		},
		{
			Keys:    bson.D{{Key: "posted_by", Value: 1}, {Key: "posted_at", Value: -1}},
			Options: options.Index().SetName("idx_cb_posted_by"),
		},
	})
}

func ensureAuditEvents(ctx context.Context, db *mongo.Database, log *zap.Logger) error {
	return ensureIndexSet(ctx, db.Collection("audit_events"), log, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "circle_id", Value: 1}, {Key: "timestamp", Value: -1}},
			Options: options.Index().SetName("idx_ae_circle_time"),
		},
		{
			Keys:    bson.D{{Key: "event_type", Value: 1}, {Key: "timestamp", Value: -1}},
			Options: options.Index().SetName("idx_ae_type_time"),
		},
	})
}
