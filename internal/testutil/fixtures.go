package testutil

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/dalemusser/brewcircles/internal/app/system/codegen"
	"github.com/dalemusser/brewcircles/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// WithChiURLParam adds a chi URL parameter to the request context.
// Use this in handler tests that need to access chi.URLParam values.
func WithChiURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.RouteContext(r.Context())
	if rctx == nil {
		rctx = chi.NewRouteContext()
		r = r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
	}
	rctx.URLParams.Add(key, value)
	return r
}

// Fixtures provides helper methods for creating test data.
// Fixtures write documents directly, without transactions or permission
// checks, and keep the counters consistent with what they insert.
type Fixtures struct {
	db *mongo.Database
	t  *testing.T
}

// NewFixtures creates a new Fixtures instance for the given test database.
func NewFixtures(t *testing.T, db *mongo.Database) *Fixtures {
	t.Helper()
	return &Fixtures{db: db, t: t}
}

// DB returns the underlying database for direct access in tests.
func (f *Fixtures) DB() *mongo.Database {
	return f.db
}

// CreateCircle inserts a circle owned by ownerID with ownerID as its only
// admin member.
func (f *Fixtures) CreateCircle(ctx context.Context, ownerID, name string) models.Circle {
	f.t.Helper()

	code, err := codegen.InviteCode()
	if err != nil {
		f.t.Fatalf("generate invite code: %v", err)
	}
	now := time.Now().UTC()
	c := models.Circle{
		ID:          primitive.NewObjectID(),
		Name:        name,
		NameCI:      text.Fold(name),
		CreatedBy:   ownerID,
		InviteCode:  code,
		MemberCount: 0,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if _, err := f.db.Collection("circles").InsertOne(ctx, c); err != nil {
		f.t.Fatalf("failed to create circle: %v", err)
	}
	f.AddMember(ctx, c, ownerID, string(models.RoleAdmin))
	c.MemberCount = 1
	return c
}

// AddMember inserts a membership, its index entry, and bumps member_count.
func (f *Fixtures) AddMember(ctx context.Context, c models.Circle, userID, role string) models.CircleMembership {
	f.t.Helper()

	m := models.CircleMembership{
		ID:          primitive.NewObjectID(),
		CircleID:    c.ID,
		UserID:      userID,
		Role:        models.Role(role),
		DisplayName: userID,
		JoinedAt:    time.Now().UTC(),
	}
	if _, err := f.db.Collection("circle_memberships").InsertOne(ctx, m); err != nil {
		f.t.Fatalf("failed to create membership: %v", err)
	}
	uc := models.UserCircle{
		ID:         primitive.NewObjectID(),
		UserID:     userID,
		CircleID:   c.ID,
		CircleName: c.Name,
		Role:       m.Role,
		JoinedAt:   m.JoinedAt,
	}
	if _, err := f.db.Collection("user_circles").InsertOne(ctx, uc); err != nil {
		f.t.Fatalf("failed to create user circle entry: %v", err)
	}
	f.inc(ctx, c.ID, "member_count")
	return m
}

// AddBrew inserts a shared brew and bumps brew_count.
func (f *Fixtures) AddBrew(ctx context.Context, c models.Circle, userID, method string) models.CircleBrew {
	f.t.Helper()

	b := models.CircleBrew{
		ID:           primitive.NewObjectID(),
		CircleID:     c.ID,
		PostedBy:     userID,
		PostedByName: userID,
		PostedAt:     time.Now().UTC(),
		Snapshot:     models.BrewSnapshot{Method: method},
	}
	if _, err := f.db.Collection("circle_brews").InsertOne(ctx, b); err != nil {
		f.t.Fatalf("failed to create circle brew: %v", err)
	}
	f.inc(ctx, c.ID, "brew_count")
	return b
}

// Circle reloads a circle by id.
func (f *Fixtures) Circle(ctx context.Context, id primitive.ObjectID) models.Circle {
	f.t.Helper()

	var c models.Circle
	if err := f.db.Collection("circles").FindOne(ctx, bson.M{"_id": id}).Decode(&c); err != nil {
		f.t.Fatalf("failed to load circle %s: %v", id.Hex(), err)
	}
	return c
}

func (f *Fixtures) inc(ctx context.Context, id primitive.ObjectID, field string) {
	f.t.Helper()
	if _, err := f.db.Collection("circles").UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$inc": bson.M{field: 1}}); err != nil {
		f.t.Fatalf("failed to bump %s: %v", field, err)
	}
}
