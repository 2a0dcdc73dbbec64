package metricsstore

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// Counts is the set of collection totals exported as gauges on /metrics.
type Counts struct {
	Circles     int64
	Memberships int64
	Brews       int64
}

// FetchCounts returns the totals for every circle collection.
// Intentionally tolerant: on error it returns 0 for that counter.
func FetchCounts(ctx context.Context, db *mongo.Database) Counts {
	var out Counts

	if n, err := db.Collection("circles").EstimatedDocumentCount(ctx); err == nil {
		out.Circles = n
	}
	if n, err := db.Collection("circle_memberships").EstimatedDocumentCount(ctx); err == nil {
		out.Memberships = n
	}
	if n, err := db.Collection("circle_brews").EstimatedDocumentCount(ctx); err == nil {
		out.Brews = n
	}

	return out
}

// DriftedCircles counts circles whose member_count disagrees with their
// memberships. It backs the drifted_circles gauge, which should read zero
// between repair passes.
func DriftedCircles(ctx context.Context, db *mongo.Database) (int64, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$lookup", Value: bson.M{
			"from":         "circle_memberships",
			"localField":   "_id",
			"foreignField": "circle_id",
			"as":           "m",
		}}},
		{{Key: "$match", Value: bson.M{
			"$expr": bson.M{"$ne": bson.A{"$member_count", bson.M{"$size": "$m"}}},
		}}},
		{{Key: "$count", Value: "n"}},
	}
	cur, err := db.Collection("circles").Aggregate(ctx, pipeline)
	if err != nil {
		return 0, err
	}
	defer cur.Close(ctx)

	var rows []struct {
		N int64 `bson:"n"`
	}
	if err := cur.All(ctx, &rows); err != nil {
		return 0, err
	}
	if len(rows) == 0 {
		return 0, nil
	}
	return rows[0].N, nil
}
