package membership

import (
	"context"
	"strings"

	"github.com/dalemusser/brewcircles/internal/app/policy/circlepolicy"
	circlestore "github.com/dalemusser/brewcircles/internal/app/store/circles"
	"github.com/dalemusser/brewcircles/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// CreateCircle creates a circle owned by the actor, who becomes its first
// admin.
func (m *Manager) CreateCircle(ctx context.Context, a Actor, name string, description *string) (models.Circle, error) {
	if err := requireActor(a.UserID); err != nil {
		return models.Circle{}, m.finish(ctx, "create_circle", err)
	}
	c, err := m.circles.Create(ctx, a.UserID, displayName(a), name, description)
	if err != nil {
		return models.Circle{}, m.finish(ctx, "create_circle", err)
	}
	m.audit.CircleCreated(ctx, c.ID, a.UserID, c.Name)
	return c, m.finish(ctx, "create_circle", nil)
}

// GetCircle returns the circle if userID is a member allowed to read it.
func (m *Manager) GetCircle(ctx context.Context, userID string, circleID primitive.ObjectID) (models.Circle, error) {
	c, err := m.circles.GetByID(ctx, circleID)
	if err != nil {
		return models.Circle{}, m.finish(ctx, "get_circle", err)
	}
	if err := m.requireRole(ctx, circleID, userID, circlepolicy.OpRead); err != nil {
		return models.Circle{}, m.finish(ctx, "get_circle", err)
	}
	return c, m.finish(ctx, "get_circle", nil)
}

// UpdateCircle changes the name and/or description. Admins only.
func (m *Manager) UpdateCircle(ctx context.Context, userID string, circleID primitive.ObjectID, set circlestore.Settings) error {
	if err := m.circles.UpdateSettings(ctx, userID, circleID, set); err != nil {
		return m.finish(ctx, "update_circle", err)
	}
	var fields []string
	if set.Name != nil {
		fields = append(fields, "name")
	}
	if set.Description != nil {
		fields = append(fields, "description")
	}
	m.audit.CircleUpdated(ctx, circleID, userID, strings.Join(fields, ","))
	return m.finish(ctx, "update_circle", nil)
}

// DeleteCircle removes the circle and everything in it. Creator only.
func (m *Manager) DeleteCircle(ctx context.Context, userID string, circleID primitive.ObjectID) error {
	del, err := m.circles.Delete(ctx, userID, circleID)
	if err != nil {
		return m.finish(ctx, "delete_circle", err)
	}
	m.audit.CircleDeleted(ctx, circleID, userID, del.Circle.Name, del.Members)
	return m.finish(ctx, "delete_circle", nil)
}

// RotateInviteCode issues a new invite code; the old one stops working.
func (m *Manager) RotateInviteCode(ctx context.Context, userID string, circleID primitive.ObjectID) (string, error) {
	code, err := m.circles.RotateInviteCode(ctx, userID, circleID)
	if err != nil {
		return "", m.finish(ctx, "rotate_invite_code", err)
	}
	m.audit.InviteCodeRotated(ctx, circleID, userID)
	return code, m.finish(ctx, "rotate_invite_code", nil)
}

// requireRole loads userID's membership and checks op against its role.
func (m *Manager) requireRole(ctx context.Context, circleID primitive.ObjectID, userID string, op circlepolicy.Operation) error {
	mem, err := m.members.Get(ctx, circleID, userID)
	if err != nil {
		return err
	}
	return circlepolicy.Require(mem.Role, op)
}
