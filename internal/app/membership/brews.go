package membership

import (
	"context"
	"time"

	"github.com/dalemusser/brewcircles/internal/app/policy/circlepolicy"
	"github.com/dalemusser/brewcircles/internal/app/system/htmlsanitize"
	"github.com/dalemusser/brewcircles/internal/app/system/inputval"
	"github.com/dalemusser/brewcircles/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// PostBrew shares a snapshot of one of the actor's brews into the circle.
// Viewers may not post.
func (m *Manager) PostBrew(ctx context.Context, a Actor, circleID primitive.ObjectID, snap models.BrewSnapshot) (primitive.ObjectID, error) {
	snap = cleanSnapshot(snap)
	if err := inputval.Struct(snap); err != nil {
		return primitive.NilObjectID, m.finish(ctx, "post_brew", err)
	}

	var brewID primitive.ObjectID
	err := m.inTxn(ctx, func(ctx context.Context) error {
		mem, err := m.members.Get(ctx, circleID, a.UserID)
		if err != nil {
			return err
		}
		if err := m.counters.AddBrew(ctx, mem.Role, circleID); err != nil {
			return err
		}
		b, err := m.brews.Insert(ctx, models.CircleBrew{
			ID:           primitive.NewObjectID(),
			CircleID:     circleID,
			PostedBy:     a.UserID,
			PostedByName: mem.DisplayName,
			PostedAt:     time.Now().UTC(),
			Snapshot:     snap,
		})
		if err != nil {
			return err
		}
		brewID = b.ID
		return nil
	})
	if err != nil {
		return primitive.NilObjectID, m.finish(ctx, "post_brew", err)
	}
	m.audit.BrewPosted(ctx, circleID, brewID, a.UserID)
	return brewID, m.finish(ctx, "post_brew", nil)
}

// DeleteBrew removes a shared brew. Authors may delete their own; admins
// may delete any. The caller must still be a member.
func (m *Manager) DeleteBrew(ctx context.Context, userID string, circleID, brewID primitive.ObjectID) error {
	var postedBy string
	err := m.inTxn(ctx, func(ctx context.Context) error {
		mem, err := m.members.Get(ctx, circleID, userID)
		if err != nil {
			return err
		}
		b, err := m.brews.Get(ctx, circleID, brewID)
		if err != nil {
			return err
		}
		postedBy = b.PostedBy
		if err := m.counters.RemoveBrew(ctx, mem.Role, circleID, b.PostedBy == userID); err != nil {
			return err
		}
		return m.brews.Delete(ctx, circleID, brewID)
	})
	if err != nil {
		return m.finish(ctx, "delete_brew", err)
	}
	m.audit.BrewDeleted(ctx, circleID, brewID, userID, postedBy)
	return m.finish(ctx, "delete_brew", nil)
}

// GetCircleBrews pages through the circle's feed, newest first. A zero
// before starts at the newest brew.
func (m *Manager) GetCircleBrews(ctx context.Context, userID string, circleID, before primitive.ObjectID, limit int64) ([]models.CircleBrew, error) {
	if err := m.requireRole(ctx, circleID, userID, circlepolicy.OpRead); err != nil {
		return nil, m.finish(ctx, "get_circle_brews", err)
	}
	list, err := m.brews.ListByCircle(ctx, circleID, before, limit)
	return list, m.finish(ctx, "get_circle_brews", err)
}

func cleanSnapshot(s models.BrewSnapshot) models.BrewSnapshot {
	s.BrewID = htmlsanitize.PlainText(s.BrewID)
	s.Method = htmlsanitize.PlainText(s.Method)
	s.Bean = htmlsanitize.PlainText(s.Bean)
	s.Roaster = htmlsanitize.PlainText(s.Roaster)
	s.GrindSize = htmlsanitize.PlainText(s.GrindSize)
	s.Notes = htmlsanitize.PlainText(s.Notes)
	s.Tags = htmlsanitize.PlainTextAll(s.Tags)
	return s
}
