package membershipstore_test

import (
	"errors"
	"testing"
	"time"

	membershipstore "github.com/dalemusser/brewcircles/internal/app/store/memberships"
	"github.com/dalemusser/brewcircles/internal/app/system/circleerr"
	"github.com/dalemusser/brewcircles/internal/domain/models"
	"github.com/dalemusser/brewcircles/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func member(circleID primitive.ObjectID, userID string, role models.Role, joined time.Time) models.CircleMembership {
	return models.CircleMembership{
		CircleID:    circleID,
		UserID:      userID,
		Role:        role,
		DisplayName: userID,
		JoinedAt:    joined,
	}
}

func TestStore_InsertPair(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := membershipstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	circleID := primitive.NewObjectID()
	if err := store.InsertPair(ctx, member(circleID, "alice", models.RoleAdmin, time.Now().UTC()), "Pour-Over Club"); err != nil {
		t.Fatalf("InsertPair failed: %v", err)
	}

	m, err := store.Get(ctx, circleID, "alice")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if m.Role != models.RoleAdmin {
		t.Errorf("role: got %q, want admin", m.Role)
	}

	uc, err := store.GetIndexEntry(ctx, "alice", circleID)
	if err != nil {
		t.Fatalf("GetIndexEntry failed: %v", err)
	}
	if uc.CircleName != "Pour-Over Club" || uc.Role != models.RoleAdmin {
		t.Errorf("index entry: got name=%q role=%q", uc.CircleName, uc.Role)
	}
}

func TestStore_InsertPair_Duplicate(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := membershipstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	circleID := primitive.NewObjectID()
	m := member(circleID, "bob", models.RoleContributor, time.Now().UTC())
	if err := store.InsertPair(ctx, m, "c"); err != nil {
		t.Fatalf("first InsertPair failed: %v", err)
	}
	err := store.InsertPair(ctx, m, "c")
	if !errors.Is(err, circleerr.ErrAlreadyMember) {
		t.Fatalf("expected ErrAlreadyMember, got %v", err)
	}
}

func TestStore_InsertPair_InvalidRole(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := membershipstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	err := store.InsertPair(ctx, member(primitive.NewObjectID(), "bob", "owner", time.Now()), "c")
	if !errors.Is(err, circleerr.ErrInvalidRole) {
		t.Fatalf("expected ErrInvalidRole, got %v", err)
	}
}

func TestStore_DeletePair(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := membershipstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	circleID := primitive.NewObjectID()
	if err := store.InsertPair(ctx, member(circleID, "bob", models.RoleViewer, time.Now().UTC()), "c"); err != nil {
		t.Fatalf("InsertPair failed: %v", err)
	}
	if err := store.DeletePair(ctx, circleID, "bob"); err != nil {
		t.Fatalf("DeletePair failed: %v", err)
	}

	for _, coll := range []string{"circle_memberships", "user_circles"} {
		n, err := db.Collection(coll).CountDocuments(ctx, bson.M{"circle_id": circleID})
		if err != nil {
			t.Fatalf("CountDocuments(%s) failed: %v", coll, err)
		}
		if n != 0 {
			t.Errorf("%s: expected 0 documents, got %d", coll, n)
		}
	}

	if err := store.DeletePair(ctx, circleID, "bob"); !errors.Is(err, circleerr.ErrNotMember) {
		t.Errorf("second DeletePair: expected ErrNotMember, got %v", err)
	}
}

func TestStore_SetRole(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := membershipstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	circleID := primitive.NewObjectID()
	if err := store.InsertPair(ctx, member(circleID, "bob", models.RoleContributor, time.Now().UTC()), "c"); err != nil {
		t.Fatalf("InsertPair failed: %v", err)
	}
	if err := store.SetRole(ctx, circleID, "bob", models.RoleAdmin); err != nil {
		t.Fatalf("SetRole failed: %v", err)
	}

	m, _ := store.Get(ctx, circleID, "bob")
	uc, _ := store.GetIndexEntry(ctx, "bob", circleID)
	if m.Role != models.RoleAdmin || uc.Role != models.RoleAdmin {
		t.Errorf("roles: membership=%q index=%q, want admin for both", m.Role, uc.Role)
	}

	if err := store.SetRole(ctx, circleID, "nobody", models.RoleAdmin); !errors.Is(err, circleerr.ErrNotMember) {
		t.Errorf("SetRole on non-member: expected ErrNotMember, got %v", err)
	}
}

func TestStore_ListAndCount(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := membershipstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	circleID := primitive.NewObjectID()
	base := time.Now().UTC().Truncate(time.Millisecond)
	users := []struct {
		id   string
		role models.Role
	}{
		{"alice", models.RoleAdmin},
		{"bob", models.RoleContributor},
		{"carol", models.RoleAdmin},
		{"dave", models.RoleViewer},
	}
	for i, u := range users {
		m := member(circleID, u.id, u.role, base.Add(time.Duration(i)*time.Minute))
		if err := store.InsertPair(ctx, m, "c"); err != nil {
			t.Fatalf("InsertPair(%s) failed: %v", u.id, err)
		}
	}

	all, err := store.ListByCircle(ctx, circleID, "")
	if err != nil {
		t.Fatalf("ListByCircle failed: %v", err)
	}
	if len(all) != 4 || all[0].UserID != "alice" || all[3].UserID != "dave" {
		t.Errorf("ListByCircle: unexpected order or length: %+v", all)
	}

	admins, err := store.CountByRole(ctx, circleID, models.RoleAdmin)
	if err != nil {
		t.Fatalf("CountByRole failed: %v", err)
	}
	if admins != 2 {
		t.Errorf("CountByRole(admin): got %d, want 2", admins)
	}

	n, err := store.Count(ctx, circleID)
	if err != nil {
		t.Fatalf("Count failed: %v", err)
	}
	if n != 4 {
		t.Errorf("Count: got %d, want 4", n)
	}

	first, err := store.EarliestMember(ctx, circleID)
	if err != nil {
		t.Fatalf("EarliestMember failed: %v", err)
	}
	if first.UserID != "alice" {
		t.Errorf("EarliestMember: got %q, want alice", first.UserID)
	}
}

func TestStore_ListByUser_NewestFirst(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := membershipstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	older, newer := primitive.NewObjectID(), primitive.NewObjectID()
	now := time.Now().UTC()
	if err := store.InsertPair(ctx, member(older, "bob", models.RoleViewer, now.Add(-time.Hour)), "Older"); err != nil {
		t.Fatalf("InsertPair failed: %v", err)
	}
	if err := store.InsertPair(ctx, member(newer, "bob", models.RoleViewer, now), "Newer"); err != nil {
		t.Fatalf("InsertPair failed: %v", err)
	}

	list, err := store.ListByUser(ctx, "bob")
	if err != nil {
		t.Fatalf("ListByUser failed: %v", err)
	}
	if len(list) != 2 || list[0].CircleName != "Newer" {
		t.Errorf("ListByUser: got %+v", list)
	}
}

func TestStore_RenameAndDeleteByCircle(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := membershipstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	circleID := primitive.NewObjectID()
	for _, u := range []string{"alice", "bob"} {
		if err := store.InsertPair(ctx, member(circleID, u, models.RoleContributor, time.Now().UTC()), "Old"); err != nil {
			t.Fatalf("InsertPair failed: %v", err)
		}
	}

	if err := store.RenameCircle(ctx, circleID, "New"); err != nil {
		t.Fatalf("RenameCircle failed: %v", err)
	}
	n, err := db.Collection("user_circles").CountDocuments(ctx, bson.M{"circle_id": circleID, "circle_name": "New"})
	if err != nil {
		t.Fatalf("CountDocuments failed: %v", err)
	}
	if n != 2 {
		t.Errorf("renamed entries: got %d, want 2", n)
	}

	deleted, err := store.DeleteByCircle(ctx, circleID)
	if err != nil {
		t.Fatalf("DeleteByCircle failed: %v", err)
	}
	if deleted != 2 {
		t.Errorf("DeleteByCircle: got %d, want 2", deleted)
	}
	if list, _ := store.ListByUser(ctx, "alice"); len(list) != 0 {
		t.Errorf("expected alice's index to be empty, got %d", len(list))
	}
}
