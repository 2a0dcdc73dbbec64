// internal/domain/models/circle.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Circle is a small invite-based group that shares brews.
// MemberCount and BrewCount are denormalized counters; they are only ever
// changed with $inc inside the transaction that changes the underlying set.
type Circle struct {
	ID          primitive.ObjectID `bson:"_id" json:"id"`
	Name        string             `bson:"name" json:"name"`
	NameCI      string             `bson:"name_ci" json:"-"`
	Description *string            `bson:"description,omitempty" json:"description"`
	CreatedBy   string             `bson:"created_by" json:"created_by"`
	InviteCode  string             `bson:"invite_code" json:"invite_code"` // upper-cased, unique
	MemberCount int64              `bson:"member_count" json:"member_count"`
	BrewCount   int64              `bson:"brew_count" json:"brew_count"`
	CreatedAt   time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt   time.Time          `bson:"updated_at" json:"updated_at"`
}
