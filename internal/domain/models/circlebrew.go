// internal/domain/models/circlebrew.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// BrewSnapshot is a copy of a personal brew log entry taken at the moment it
// is shared. Later edits to the personal log do not change the snapshot.
type BrewSnapshot struct {
	BrewID      string   `bson:"brew_id,omitempty" json:"brew_id,omitempty" validate:"max=64"`
	Method      string   `bson:"method" json:"method" validate:"required,max=80"`
	Bean        string   `bson:"bean,omitempty" json:"bean,omitempty" validate:"max=120"`
	Roaster     string   `bson:"roaster,omitempty" json:"roaster,omitempty" validate:"max=120"`
	DoseGrams   float64  `bson:"dose_grams,omitempty" json:"dose_grams,omitempty" validate:"gte=0,lte=1000"`
	WaterGrams  float64  `bson:"water_grams,omitempty" json:"water_grams,omitempty" validate:"gte=0,lte=10000"`
	WaterTempC  float64  `bson:"water_temp_c,omitempty" json:"water_temp_c,omitempty" validate:"gte=0,lte=100"`
	GrindSize   string   `bson:"grind_size,omitempty" json:"grind_size,omitempty" validate:"max=40"`
	BrewSeconds int      `bson:"brew_seconds,omitempty" json:"brew_seconds,omitempty" validate:"gte=0,lte=86400"`
	Rating      int      `bson:"rating,omitempty" json:"rating,omitempty" validate:"gte=0,lte=5"`
	Tags        []string `bson:"tags,omitempty" json:"tags,omitempty" validate:"max=20,dive,max=40"`
	Notes       string   `bson:"notes,omitempty" json:"notes,omitempty" validate:"max=4000"`
}

// CircleBrew is a brew snapshot posted into a circle's feed.
type CircleBrew struct {
	ID           primitive.ObjectID `bson:"_id" json:"id"`
	CircleID     primitive.ObjectID `bson:"circle_id" json:"circle_id"`
	PostedBy     string             `bson:"posted_by" json:"posted_by"`
	PostedByName string             `bson:"posted_by_name" json:"posted_by_name"`
	PostedAt     time.Time          `bson:"posted_at" json:"posted_at"`
	Snapshot     BrewSnapshot       `bson:"snapshot" json:"snapshot"`
}
