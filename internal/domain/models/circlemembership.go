// internal/domain/models/circlemembership.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// CircleMembership is the authoritative join between users and circles.
// Exactly one document per (circle_id, user_id); its existence is membership.
type CircleMembership struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"-"`
	CircleID    primitive.ObjectID `bson:"circle_id" json:"circle_id"`
	UserID      string             `bson:"user_id" json:"user_id"`
	Role        Role               `bson:"role" json:"role"`
	DisplayName string             `bson:"display_name" json:"display_name"`
	JoinedAt    time.Time          `bson:"joined_at" json:"joined_at"`
}

// UserCircle is the per-user mirror of a CircleMembership, kept so that
// "my circles" is a single equality query on user_id. It exists if and
// only if the matching CircleMembership exists.
type UserCircle struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"-"`
	UserID     string             `bson:"user_id" json:"user_id"`
	CircleID   primitive.ObjectID `bson:"circle_id" json:"circle_id"`
	CircleName string             `bson:"circle_name" json:"circle_name"`
	Role       Role               `bson:"role" json:"role"`
	JoinedAt   time.Time          `bson:"joined_at" json:"joined_at"`
}
