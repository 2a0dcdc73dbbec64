package membership

import (
	"context"

	"github.com/dalemusser/brewcircles/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// RepairResult reports what RepairCircle changed.
type RepairResult struct {
	CircleID      primitive.ObjectID
	MembersBefore int64
	MembersAfter  int64
	BrewsBefore   int64
	BrewsAfter    int64
	PromotedUser  string
}

// Changed reports whether anything was rewritten.
func (r RepairResult) Changed() bool {
	return r.MembersBefore != r.MembersAfter || r.BrewsBefore != r.BrewsAfter || r.PromotedUser != ""
}

// RepairCircle recounts the circle's memberships and brews and rewrites
// drifted counters. A circle with members but no admin gets its earliest
// member promoted. Drift only arises from writes made outside this
// package, such as manual edits or partial restores.
func (m *Manager) RepairCircle(ctx context.Context, circleID primitive.ObjectID) (RepairResult, error) {
	var res RepairResult
	err := m.inTxn(ctx, func(ctx context.Context) error {
		res = RepairResult{CircleID: circleID}
		c, err := m.circles.GetByID(ctx, circleID)
		if err != nil {
			return err
		}
		members, err := m.members.Count(ctx, circleID)
		if err != nil {
			return err
		}
		brews, err := m.brews.CountByCircle(ctx, circleID)
		if err != nil {
			return err
		}
		res.MembersBefore, res.MembersAfter = c.MemberCount, members
		res.BrewsBefore, res.BrewsAfter = c.BrewCount, brews

		if members > 0 {
			admins, err := m.members.CountByRole(ctx, circleID, models.RoleAdmin)
			if err != nil {
				return err
			}
			if admins == 0 {
				first, err := m.members.EarliestMember(ctx, circleID)
				if err != nil {
					return err
				}
				if err := m.members.SetRole(ctx, circleID, first.UserID, models.RoleAdmin); err != nil {
					return err
				}
				res.PromotedUser = first.UserID
			}
		}

		if !res.Changed() {
			return nil
		}
		return m.counters.Set(ctx, circleID, members, brews)
	})
	if err != nil {
		return res, m.finish(ctx, "repair_circle", err)
	}

	if res.Changed() {
		m.log.Warn("circle repaired",
			zap.String("circle_id", circleID.Hex()),
			zap.Int64("member_count_before", res.MembersBefore),
			zap.Int64("member_count_after", res.MembersAfter),
			zap.Int64("brew_count_before", res.BrewsBefore),
			zap.Int64("brew_count_after", res.BrewsAfter),
			zap.String("promoted_user", res.PromotedUser))
		m.metrics.RecordRepair()
		if res.MembersBefore != res.MembersAfter || res.BrewsBefore != res.BrewsAfter {
			m.audit.CountersRepaired(ctx, circleID, res.MembersBefore, res.MembersAfter, res.BrewsBefore, res.BrewsAfter)
		}
		if res.PromotedUser != "" {
			m.audit.AdminPromoted(ctx, circleID, res.PromotedUser)
		}
	}
	return res, m.finish(ctx, "repair_circle", nil)
}

// CircleIDs lists every circle, for the repair worker.
func (m *Manager) CircleIDs(ctx context.Context) ([]primitive.ObjectID, error) {
	return m.circles.IDs(ctx)
}
