package membership_test

import (
	"errors"
	"testing"

	"github.com/dalemusser/brewcircles/internal/app/membership"
	"github.com/dalemusser/brewcircles/internal/app/store/audit"
	"github.com/dalemusser/brewcircles/internal/app/system/auditlog"
	"github.com/dalemusser/brewcircles/internal/app/system/circleerr"
	"github.com/dalemusser/brewcircles/internal/testutil"
	"go.uber.org/zap"
)

func TestManager_GetCircleAudit(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	al := auditlog.New(audit.New(db), zap.NewNop(), auditlog.Config{Circle: auditlog.ModeDB, System: auditlog.ModeDB})
	mgr := membership.NewManager(db, zap.NewNop(), membership.Options{Audit: al})

	c, err := mgr.CreateCircle(ctx, alice, "Audit Club", nil)
	if err != nil {
		t.Fatalf("CreateCircle: %v", err)
	}
	if _, err := mgr.Join(ctx, bob, c.InviteCode); err != nil {
		t.Fatalf("Join: %v", err)
	}

	events, err := mgr.GetCircleAudit(ctx, alice.UserID, c.ID, "", 0)
	if err != nil {
		t.Fatalf("GetCircleAudit: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("got %d events, want 2", len(events))
	}
	if events[0].EventType != audit.EventMemberJoined || events[1].EventType != audit.EventCircleCreated {
		t.Errorf("events out of order: %q, %q", events[0].EventType, events[1].EventType)
	}

	joined, err := mgr.GetCircleAudit(ctx, alice.UserID, c.ID, audit.EventMemberJoined, 10)
	if err != nil {
		t.Fatalf("GetCircleAudit filtered: %v", err)
	}
	if len(joined) != 1 || joined[0].ActorID != bob.UserID {
		t.Errorf("filtered events = %+v", joined)
	}

	if _, err := mgr.GetCircleAudit(ctx, bob.UserID, c.ID, "", 0); !errors.Is(err, circleerr.ErrPermissionDenied) {
		t.Errorf("contributor: err = %v, want ErrPermissionDenied", err)
	}
	if _, err := mgr.GetCircleAudit(ctx, carol.UserID, c.ID, "", 0); !errors.Is(err, circleerr.ErrNotMember) {
		t.Errorf("non-member: err = %v, want ErrNotMember", err)
	}
}
