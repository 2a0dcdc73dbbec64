// internal/app/system/auditlog/logger.go
package auditlog

import (
	"context"
	"strconv"

	"github.com/dalemusser/brewcircles/internal/app/store/audit"
	"github.com/dalemusser/brewcircles/internal/app/system/requestid"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Destination settings for Config fields.
const (
	ModeAll = "all" // MongoDB + zap
	ModeDB  = "db"  // MongoDB only
	ModeLog = "log" // zap only
	ModeOff = "off" // disabled
)

// Config holds audit logging configuration.
type Config struct {
	// Circle controls logging for circle and membership events.
	Circle string
	// System controls logging for background repair events.
	System string
}

// Logger provides convenience methods for logging audit events.
// It logs to both MongoDB (via audit.Store) and structured logs (via zap).
type Logger struct {
	store  *audit.Store
	zapLog *zap.Logger
	config Config
}

// New creates a new audit Logger.
func New(store *audit.Store, zapLog *zap.Logger, config Config) *Logger {
	return &Logger{
		store:  store,
		zapLog: zapLog,
		config: config,
	}
}

// logToZap logs the event to zap with consistent structure.
func (l *Logger) logToZap(event audit.Event) {
	fields := []zap.Field{
		zap.Bool("audit", true),
		zap.String("category", event.Category),
		zap.String("event_type", event.EventType),
		zap.Bool("success", event.Success),
	}
	if event.CircleID != nil {
		fields = append(fields, zap.String("circle_id", event.CircleID.Hex()))
	}
	if event.ActorID != "" {
		fields = append(fields, zap.String("actor_id", event.ActorID))
	}
	if event.TargetID != "" {
		fields = append(fields, zap.String("target_id", event.TargetID))
	}
	if event.FailureReason != "" {
		fields = append(fields, zap.String("failure_reason", event.FailureReason))
	}
	for k, v := range event.Details {
		fields = append(fields, zap.String("detail_"+k, v))
	}

	if event.Success {
		l.zapLog.Info("audit event", fields...)
	} else {
		l.zapLog.Warn("audit event", fields...)
	}
}

// Log records an audit event based on configuration.
// If the logger is nil, this is a no-op (allows tests to use nil audit logger).
// Failures to store the event are logged and never returned.
func (l *Logger) Log(ctx context.Context, event audit.Event) {
	if l == nil {
		return
	}

	var setting string
	switch event.Category {
	case audit.CategoryCircle:
		setting = l.config.Circle
	case audit.CategorySystem:
		setting = l.config.System
	}
	if setting == "" {
		setting = ModeAll
	}
	if setting == ModeOff {
		return
	}

	if rid := requestid.FromContext(ctx); rid != "" {
		if event.Details == nil {
			event.Details = map[string]string{}
		}
		event.Details["request_id"] = rid
	}

	if setting == ModeAll || setting == ModeLog {
		l.logToZap(event)
	}
	if setting == ModeAll || setting == ModeDB {
		if err := l.store.Log(ctx, event); err != nil {
			l.zapLog.Error("failed to store audit event",
				zap.Error(err),
				zap.String("event_type", event.EventType),
			)
		}
	}
}

func (l *Logger) circleEvent(ctx context.Context, eventType string, circleID primitive.ObjectID, actorID, targetID string, details map[string]string) {
	l.Log(ctx, audit.Event{
		CircleID:  &circleID,
		Category:  audit.CategoryCircle,
		EventType: eventType,
		ActorID:   actorID,
		TargetID:  targetID,
		Success:   true,
		Details:   details,
	})
}

// --- Circle Events ---

// CircleCreated logs creation of a circle by its owner.
func (l *Logger) CircleCreated(ctx context.Context, circleID primitive.ObjectID, ownerID, name string) {
	l.circleEvent(ctx, audit.EventCircleCreated, circleID, ownerID, "", map[string]string{"name": name})
}

// CircleUpdated logs a settings change; fields lists what changed.
func (l *Logger) CircleUpdated(ctx context.Context, circleID primitive.ObjectID, actorID, fields string) {
	l.circleEvent(ctx, audit.EventCircleUpdated, circleID, actorID, "", map[string]string{"fields_changed": fields})
}

// CircleDeleted logs deletion of a circle and how many memberships went with it.
func (l *Logger) CircleDeleted(ctx context.Context, circleID primitive.ObjectID, actorID, name string, members int64) {
	l.circleEvent(ctx, audit.EventCircleDeleted, circleID, actorID, "", map[string]string{
		"name":    name,
		"members": strconv.FormatInt(members, 10),
	})
}

// InviteCodeRotated logs replacement of a circle's invite code.
func (l *Logger) InviteCodeRotated(ctx context.Context, circleID primitive.ObjectID, actorID string) {
	l.circleEvent(ctx, audit.EventInviteCodeRotated, circleID, actorID, "", nil)
}

// --- Membership Events ---

// MemberJoined logs a join through an invite code.
func (l *Logger) MemberJoined(ctx context.Context, circleID primitive.ObjectID, userID string) {
	l.circleEvent(ctx, audit.EventMemberJoined, circleID, userID, "", nil)
}

// MemberLeft logs a member leaving on their own.
func (l *Logger) MemberLeft(ctx context.Context, circleID primitive.ObjectID, userID string) {
	l.circleEvent(ctx, audit.EventMemberLeft, circleID, userID, "", nil)
}

// MemberRemoved logs an admin removing another member.
func (l *Logger) MemberRemoved(ctx context.Context, circleID primitive.ObjectID, adminID, targetID string) {
	l.circleEvent(ctx, audit.EventMemberRemoved, circleID, adminID, targetID, nil)
}

// MemberRoleChanged logs a role change.
func (l *Logger) MemberRoleChanged(ctx context.Context, circleID primitive.ObjectID, adminID, targetID, from, to string) {
	l.circleEvent(ctx, audit.EventMemberRoleChanged, circleID, adminID, targetID, map[string]string{
		"from": from,
		"to":   to,
	})
}

// JoinRateLimited logs a join attempt refused by the rate limiter.
func (l *Logger) JoinRateLimited(ctx context.Context, userID string) {
	l.Log(ctx, audit.Event{
		Category:      audit.CategoryCircle,
		EventType:     audit.EventJoinFailedRateLimit,
		ActorID:       userID,
		Success:       false,
		FailureReason: "too many join attempts",
	})
}

// --- Brew Events ---

// BrewPosted logs a brew snapshot shared into a circle.
func (l *Logger) BrewPosted(ctx context.Context, circleID, brewID primitive.ObjectID, userID string) {
	l.circleEvent(ctx, audit.EventBrewPosted, circleID, userID, "", map[string]string{"brew_id": brewID.Hex()})
}

// BrewDeleted logs removal of a shared brew; postedBy is the original author.
func (l *Logger) BrewDeleted(ctx context.Context, circleID, brewID primitive.ObjectID, actorID, postedBy string) {
	l.circleEvent(ctx, audit.EventBrewDeleted, circleID, actorID, postedBy, map[string]string{"brew_id": brewID.Hex()})
}

// --- System Events ---

// CountersRepaired logs a correction made by the repair worker.
func (l *Logger) CountersRepaired(ctx context.Context, circleID primitive.ObjectID, oldMembers, newMembers, oldBrews, newBrews int64) {
	l.Log(ctx, audit.Event{
		CircleID:  &circleID,
		Category:  audit.CategorySystem,
		EventType: audit.EventCountersRepaired,
		Success:   true,
		Details: map[string]string{
			"member_count_before": strconv.FormatInt(oldMembers, 10),
			"member_count_after":  strconv.FormatInt(newMembers, 10),
			"brew_count_before":   strconv.FormatInt(oldBrews, 10),
			"brew_count_after":    strconv.FormatInt(newBrews, 10),
		},
	})
}

// AdminPromoted logs the repair worker promoting a member of an admin-less circle.
func (l *Logger) AdminPromoted(ctx context.Context, circleID primitive.ObjectID, userID string) {
	l.Log(ctx, audit.Event{
		CircleID:  &circleID,
		Category:  audit.CategorySystem,
		EventType: audit.EventAdminPromoted,
		TargetID:  userID,
		Success:   true,
	})
}
