package counterstore_test

import (
	"errors"
	"testing"
	"time"

	counterstore "github.com/dalemusser/brewcircles/internal/app/store/counters"
	"github.com/dalemusser/brewcircles/internal/app/system/circleerr"
	"github.com/dalemusser/brewcircles/internal/domain/models"
	"github.com/dalemusser/brewcircles/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

func insertCircle(t *testing.T, db *mongo.Database, members, brews int64) primitive.ObjectID {
	t.Helper()
	ctx, cancel := testutil.TestContext()
	defer cancel()

	id := primitive.NewObjectID()
	now := time.Now().UTC()
	_, err := db.Collection("circles").InsertOne(ctx, models.Circle{
		ID:          id,
		Name:        "Test",
		NameCI:      "test",
		CreatedBy:   "alice",
		InviteCode:  id.Hex()[16:] + "ZZ",
		MemberCount: members,
		BrewCount:   brews,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	if err != nil {
		t.Fatalf("insert circle: %v", err)
	}
	return id
}

func counts(t *testing.T, db *mongo.Database, id primitive.ObjectID) (int64, int64) {
	t.Helper()
	ctx, cancel := testutil.TestContext()
	defer cancel()

	var c models.Circle
	if err := db.Collection("circles").FindOne(ctx, bson.M{"_id": id}).Decode(&c); err != nil {
		t.Fatalf("load circle: %v", err)
	}
	return c.MemberCount, c.BrewCount
}

func TestStore_MemberCounter(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := counterstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	id := insertCircle(t, db, 1, 0)
	if err := store.AddMember(ctx, id); err != nil {
		t.Fatalf("AddMember failed: %v", err)
	}
	if err := store.AddMember(ctx, id); err != nil {
		t.Fatalf("AddMember failed: %v", err)
	}
	if err := store.RemoveMember(ctx, id); err != nil {
		t.Fatalf("RemoveMember failed: %v", err)
	}
	if m, _ := counts(t, db, id); m != 2 {
		t.Errorf("member_count: got %d, want 2", m)
	}
}

func TestStore_RemoveMember_Underflow(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := counterstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	id := insertCircle(t, db, 0, 0)
	err := store.RemoveMember(ctx, id)
	if !errors.Is(err, counterstore.ErrCounterUnderflow) {
		t.Fatalf("expected ErrCounterUnderflow, got %v", err)
	}
	if m, _ := counts(t, db, id); m != 0 {
		t.Errorf("member_count: got %d, want 0", m)
	}
}

func TestStore_MissingCircle(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := counterstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	missing := primitive.NewObjectID()
	if err := store.AddMember(ctx, missing); !errors.Is(err, circleerr.ErrNotFound) {
		t.Errorf("AddMember: expected ErrNotFound, got %v", err)
	}
	if err := store.RemoveMember(ctx, missing); !errors.Is(err, circleerr.ErrNotFound) {
		t.Errorf("RemoveMember: expected ErrNotFound, got %v", err)
	}
	if err := store.Touch(ctx, missing); !errors.Is(err, circleerr.ErrNotFound) {
		t.Errorf("Touch: expected ErrNotFound, got %v", err)
	}
}

func TestStore_BrewCounter_Permissions(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := counterstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	id := insertCircle(t, db, 3, 0)

	if err := store.AddBrew(ctx, models.RoleViewer, id); !errors.Is(err, circleerr.ErrPermissionDenied) {
		t.Errorf("viewer AddBrew: expected ErrPermissionDenied, got %v", err)
	}
	if err := store.AddBrew(ctx, models.RoleContributor, id); err != nil {
		t.Fatalf("contributor AddBrew failed: %v", err)
	}
	if err := store.RemoveBrew(ctx, models.RoleContributor, id, false); !errors.Is(err, circleerr.ErrPermissionDenied) {
		t.Errorf("contributor RemoveBrew of other's brew: expected ErrPermissionDenied, got %v", err)
	}
	if err := store.RemoveBrew(ctx, models.RoleAdmin, id, false); err != nil {
		t.Fatalf("admin RemoveBrew failed: %v", err)
	}
	if _, b := counts(t, db, id); b != 0 {
		t.Errorf("brew_count: got %d, want 0", b)
	}
}

func TestStore_Set(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := counterstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	id := insertCircle(t, db, 9, 9)
	if err := store.Set(ctx, id, 2, 1); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if m, b := counts(t, db, id); m != 2 || b != 1 {
		t.Errorf("counters: got %d/%d, want 2/1", m, b)
	}
}
