package membership

import (
	"context"
	"time"

	"github.com/dalemusser/brewcircles/internal/app/policy/circlepolicy"
	"github.com/dalemusser/brewcircles/internal/app/system/circleerr"
	"github.com/dalemusser/brewcircles/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Join adds the actor to the circle holding inviteCode as a contributor.
func (m *Manager) Join(ctx context.Context, a Actor, inviteCode string) (models.Circle, error) {
	if err := requireActor(a.UserID); err != nil {
		return models.Circle{}, m.finish(ctx, "join", err)
	}
	found, err := m.circles.GetByInviteCode(ctx, inviteCode)
	if err != nil {
		return models.Circle{}, m.finish(ctx, "join", err)
	}

	name := displayName(a)
	err = m.inTxn(ctx, func(ctx context.Context) error {
		c, err := m.circles.GetByID(ctx, found.ID)
		if err != nil {
			return err
		}
		exists, err := m.members.Exists(ctx, c.ID, a.UserID)
		if err != nil {
			return err
		}
		if exists {
			return circleerr.ErrAlreadyMember
		}
		mem := models.CircleMembership{
			CircleID:    c.ID,
			UserID:      a.UserID,
			Role:        models.RoleContributor,
			DisplayName: name,
			JoinedAt:    time.Now().UTC(),
		}
		if err := m.members.InsertPair(ctx, mem, c.Name); err != nil {
			return err
		}
		return m.counters.AddMember(ctx, c.ID)
	})
	if err != nil {
		return models.Circle{}, m.finish(ctx, "join", err)
	}

	m.audit.MemberJoined(ctx, found.ID, a.UserID)
	c, err := m.circles.GetByID(ctx, found.ID)
	if err != nil {
		// The join committed; report it with the pre-join snapshot.
		c = found
		c.MemberCount++
	}
	return c, m.finish(ctx, "join", nil)
}

// Leave removes userID from the circle. The last admin cannot leave.
func (m *Manager) Leave(ctx context.Context, userID string, circleID primitive.ObjectID) error {
	err := m.inTxn(ctx, func(ctx context.Context) error {
		mem, err := m.members.Get(ctx, circleID, userID)
		if err != nil {
			return err
		}
		if mem.Role == models.RoleAdmin {
			if err := m.requireOtherAdmin(ctx, circleID); err != nil {
				return err
			}
		}
		if err := m.members.DeletePair(ctx, circleID, userID); err != nil {
			return err
		}
		return m.counters.RemoveMember(ctx, circleID)
	})
	if err != nil {
		return m.finish(ctx, "leave", err)
	}
	m.audit.MemberLeft(ctx, circleID, userID)
	return m.finish(ctx, "leave", nil)
}

// RemoveMember lets an admin remove another member. Admins use Leave to
// remove themselves.
func (m *Manager) RemoveMember(ctx context.Context, adminID string, circleID primitive.ObjectID, targetID string) error {
	if adminID == targetID {
		return m.finish(ctx, "remove_member", circleerr.ErrCannotRemoveSelf)
	}
	err := m.inTxn(ctx, func(ctx context.Context) error {
		if err := m.requireRole(ctx, circleID, adminID, circlepolicy.OpManageMembers); err != nil {
			return err
		}
		target, err := m.members.Get(ctx, circleID, targetID)
		if err != nil {
			return err
		}
		if target.Role == models.RoleAdmin {
			if err := m.requireOtherAdmin(ctx, circleID); err != nil {
				return err
			}
		}
		if err := m.members.DeletePair(ctx, circleID, targetID); err != nil {
			return err
		}
		return m.counters.RemoveMember(ctx, circleID)
	})
	if err != nil {
		return m.finish(ctx, "remove_member", err)
	}
	m.audit.MemberRemoved(ctx, circleID, adminID, targetID)
	return m.finish(ctx, "remove_member", nil)
}

// UpdateRole sets targetID's role on both the membership and its index
// entry. Demoting the only admin fails with ErrLastAdminCannotLeave.
func (m *Manager) UpdateRole(ctx context.Context, adminID string, circleID primitive.ObjectID, targetID string, role models.Role) error {
	if !role.Valid() {
		return m.finish(ctx, "update_role", circleerr.ErrInvalidRole)
	}
	var from models.Role
	err := m.inTxn(ctx, func(ctx context.Context) error {
		if err := m.requireRole(ctx, circleID, adminID, circlepolicy.OpManageMembers); err != nil {
			return err
		}
		target, err := m.members.Get(ctx, circleID, targetID)
		if err != nil {
			return err
		}
		from = target.Role
		if target.Role == role {
			return nil
		}
		if target.Role == models.RoleAdmin {
			if err := m.requireOtherAdmin(ctx, circleID); err != nil {
				return err
			}
		}
		if err := m.members.SetRole(ctx, circleID, targetID, role); err != nil {
			return err
		}
		return m.counters.Touch(ctx, circleID)
	})
	if err != nil {
		return m.finish(ctx, "update_role", err)
	}
	if from != role {
		m.audit.MemberRoleChanged(ctx, circleID, adminID, targetID, string(from), string(role))
	}
	return m.finish(ctx, "update_role", nil)
}

// GetCircleMembers lists the circle's members, oldest first.
func (m *Manager) GetCircleMembers(ctx context.Context, userID string, circleID primitive.ObjectID) ([]models.CircleMembership, error) {
	if err := m.requireRole(ctx, circleID, userID, circlepolicy.OpRead); err != nil {
		return nil, m.finish(ctx, "get_circle_members", err)
	}
	list, err := m.members.ListByCircle(ctx, circleID, "")
	return list, m.finish(ctx, "get_circle_members", err)
}

// GetUserCircles lists the circles userID belongs to, newest join first.
func (m *Manager) GetUserCircles(ctx context.Context, userID string) ([]models.UserCircle, error) {
	if err := requireActor(userID); err != nil {
		return nil, m.finish(ctx, "get_user_circles", err)
	}
	list, err := m.members.ListByUser(ctx, userID)
	return list, m.finish(ctx, "get_user_circles", err)
}

// requireOtherAdmin fails when the circle has at most one admin. Callers
// have already established that the member being removed or demoted is an
// admin.
func (m *Manager) requireOtherAdmin(ctx context.Context, circleID primitive.ObjectID) error {
	admins, err := m.members.CountByRole(ctx, circleID, models.RoleAdmin)
	if err != nil {
		return err
	}
	if admins <= 1 {
		return circleerr.ErrLastAdminCannotLeave
	}
	return nil
}
