package membership

import (
	"context"

	"github.com/dalemusser/brewcircles/internal/app/policy/circlepolicy"
	"github.com/dalemusser/brewcircles/internal/app/store/audit"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Audit page bounds.
const (
	DefaultAuditLimit = 50
	MaxAuditLimit     = 200
)

// GetCircleAudit returns the circle's recent audit events, newest first.
// Only members who may manage members can read it. eventType narrows the
// result when set.
func (m *Manager) GetCircleAudit(ctx context.Context, userID string, circleID primitive.ObjectID, eventType string, limit int64) ([]audit.Event, error) {
	if err := m.requireRole(ctx, circleID, userID, circlepolicy.OpManageMembers); err != nil {
		return nil, m.finish(ctx, "get_circle_audit", err)
	}
	if limit <= 0 {
		limit = DefaultAuditLimit
	}
	limit = min(limit, MaxAuditLimit)

	var (
		events []audit.Event
		err    error
	)
	if eventType == "" {
		events, err = m.events.GetByCircle(ctx, circleID, limit)
	} else {
		events, err = m.events.Query(ctx, audit.QueryFilter{CircleID: &circleID, EventType: eventType, Limit: limit})
	}
	if err != nil {
		return nil, m.finish(ctx, "get_circle_audit", err)
	}
	return events, m.finish(ctx, "get_circle_audit", nil)
}
