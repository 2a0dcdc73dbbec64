package txn_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/dalemusser/brewcircles/internal/app/system/txn"
	"github.com/dalemusser/brewcircles/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

func TestIsNotSupported(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"unrelated", errors.New("connection reset by peer"), false},
		{"domain sentinel", errors.New("already a member of this circle"), false},
		{"standalone txn numbers", mongo.CommandError{Code: 20, Message: "Transaction numbers are only allowed on a replica set member"}, true},
		{"code 51", mongo.CommandError{Code: 51}, true},
		{"op not allowed in txn", mongo.CommandError{Code: 263}, false},
		{"write conflict", mongo.CommandError{Code: 112, Message: "WriteConflict"}, false},
		{"wrapped code 20", fmt.Errorf("join circle: %w", mongo.CommandError{Code: 20}), true},
		{"standalone text only", errors.New("(IllegalOperation) Transaction numbers are only allowed on a replica set member or mongos"), true},
		{"session and transaction in message", fmt.Errorf("membership insert: %w", errors.New("session ended while transaction was in progress")), false},
		{"transaction aborted", errors.New("transaction aborted"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := txn.IsNotSupported(tt.err); got != tt.want {
				t.Errorf("IsNotSupported(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestRun_CommitsOrAbortsTogether(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	a, b := db.Collection("txn_a"), db.Collection("txn_b")

	err := txn.Run(ctx, db, zap.NewNop(), func(ctx context.Context) error {
		if _, err := a.InsertOne(ctx, bson.M{"k": "committed"}); err != nil {
			return err
		}
		_, err := b.InsertOne(ctx, bson.M{"k": "committed"})
		return err
	})
	if err != nil {
		t.Fatalf("Run commit: %v", err)
	}

	boom := errors.New("boom")
	err = txn.Run(ctx, db, zap.NewNop(), func(ctx context.Context) error {
		if _, err := a.InsertOne(ctx, bson.M{"k": "aborted"}); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("Run abort: err = %v, want boom", err)
	}

	for _, c := range []*mongo.Collection{a, b} {
		n, err := c.CountDocuments(ctx, bson.M{})
		if err != nil {
			t.Fatalf("count %s: %v", c.Name(), err)
		}
		if n != 1 {
			t.Errorf("%s has %d documents, want 1", c.Name(), n)
		}
	}
}
