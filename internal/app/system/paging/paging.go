// internal/app/system/paging/paging.go
package paging

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/dalemusser/waffle/pantry/query"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	ErrBadLimit  = errors.New("limit must be a positive integer")
	ErrBadCursor = errors.New("before must be an item id")
)

// ParseLimit reads ?limit=. A missing value yields def; values above max
// are clamped to max.
func ParseLimit(r *http.Request, def, max int64) (int64, error) {
	s := query.Get(r, "limit")
	if s == "" {
		return def, nil
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil || n < 1 {
		return 0, ErrBadLimit
	}
	return min(n, max), nil
}

// ParseBefore reads the ?before= keyset cursor. A missing value yields
// NilObjectID, meaning the first page.
func ParseBefore(r *http.Request) (primitive.ObjectID, error) {
	s := query.Get(r, "before")
	if s == "" {
		return primitive.NilObjectID, nil
	}
	id, err := primitive.ObjectIDFromHex(s)
	if err != nil {
		return primitive.NilObjectID, ErrBadCursor
	}
	return id, nil
}

// NextBefore returns the cursor for the page after one sorted by _id
// descending, or "" when the page was short and nothing older can exist.
func NextBefore(ids []primitive.ObjectID, limit int64) string {
	if len(ids) == 0 || int64(len(ids)) < limit {
		return ""
	}
	return ids[len(ids)-1].Hex()
}
