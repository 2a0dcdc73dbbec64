// internal/app/store/audit/store.go
package audit

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Event categories
const (
	CategoryCircle = "circle"
	CategorySystem = "system"
)

// Circle event types
const (
	EventCircleCreated      = "circle_created"
	EventCircleUpdated      = "circle_updated"
	EventCircleDeleted      = "circle_deleted"
	EventInviteCodeRotated  = "invite_code_rotated"
	EventMemberJoined       = "member_joined"
	EventMemberLeft         = "member_left"
	EventMemberRemoved      = "member_removed"
	EventMemberRoleChanged  = "member_role_changed"
	EventBrewPosted         = "brew_posted"
	EventBrewDeleted        = "brew_deleted"
)

// Rejection event types
const (
	EventJoinFailedRateLimit = "join_failed_rate_limit"
)

// System event types
const (
	EventCountersRepaired = "counters_repaired"
	EventAdminPromoted    = "admin_promoted"
)

// Event represents an audit event.
type Event struct {
	ID        primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	Timestamp time.Time           `bson:"timestamp" json:"timestamp"`
	CircleID  *primitive.ObjectID `bson:"circle_id,omitempty" json:"circle_id,omitempty"`

	// Event classification
	Category  string `bson:"category" json:"category"`
	EventType string `bson:"event_type" json:"event_type"`

	// Who
	ActorID  string `bson:"actor_id,omitempty" json:"actor_id,omitempty"`   // who performed the action
	TargetID string `bson:"target_id,omitempty" json:"target_id,omitempty"` // affected user, when not the actor

	// Outcome
	Success       bool   `bson:"success" json:"success"`
	FailureReason string `bson:"failure_reason,omitempty" json:"failure_reason,omitempty"`

	// Additional details (varies by event type)
	Details map[string]string `bson:"details,omitempty" json:"details,omitempty"`
}

// QueryFilter defines filters for querying audit events.
type QueryFilter struct {
	CircleID  *primitive.ObjectID
	ActorID   string
	Category  string
	EventType string
	StartTime *time.Time
	EndTime   *time.Time
	Limit     int64
}

// Store manages audit event records.
type Store struct {
	c *mongo.Collection
}

// New creates a new audit Store.
func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("audit_events")}
}

// Log records an audit event.
func (s *Store) Log(ctx context.Context, event Event) error {
	if event.ID.IsZero() {
		event.ID = primitive.NewObjectID()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	_, err := s.c.InsertOne(ctx, event)
	return err
}

// Query retrieves audit events matching the given filter, newest first.
func (s *Store) Query(ctx context.Context, filter QueryFilter) ([]Event, error) {
	query := bson.M{}
	if filter.CircleID != nil {
		query["circle_id"] = *filter.CircleID
	}
	if filter.ActorID != "" {
		query["actor_id"] = filter.ActorID
	}
	if filter.Category != "" {
		query["category"] = filter.Category
	}
	if filter.EventType != "" {
		query["event_type"] = filter.EventType
	}
	if filter.StartTime != nil || filter.EndTime != nil {
		timeQuery := bson.M{}
		if filter.StartTime != nil {
			timeQuery["$gte"] = *filter.StartTime
		}
		if filter.EndTime != nil {
			timeQuery["$lte"] = *filter.EndTime
		}
		query["timestamp"] = timeQuery
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "timestamp", Value: -1}, {Key: "_id", Value: -1}}).
		SetLimit(limit)

	cur, err := s.c.Find(ctx, query, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var events []Event
	if err := cur.All(ctx, &events); err != nil {
		return nil, err
	}
	return events, nil
}

// GetByCircle returns the most recent events for a circle. It is the
// circle admin's activity view.
func (s *Store) GetByCircle(ctx context.Context, circleID primitive.ObjectID, limit int64) ([]Event, error) {
	return s.Query(ctx, QueryFilter{CircleID: &circleID, Limit: limit})
}
