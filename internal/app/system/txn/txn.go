// Package txn runs a function inside a MongoDB multi-document transaction.
//
// Every write that touches more than one document (a membership, its
// per-user mirror and the circle counters) goes through Run so the writes
// commit together or not at all.
package txn

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readconcern"
	"go.mongodb.org/mongo-driver/mongo/writeconcern"
	"go.uber.org/zap"
)

// ErrTransactionsUnsupported is returned when the server cannot run
// transactions (standalone mongod). There is no non-atomic fallback.
var ErrTransactionsUnsupported = errors.New("txn: MongoDB deployment does not support transactions; a replica set is required")

// Run executes fn in a transaction on db's client. The ctx passed to fn is a
// session context; every read and write inside fn must use it.
//
// The driver's WithTransaction retries fn on TransientTransactionError
// (including write conflicts between concurrent transactions), so fn must
// be safe to run more than once and must not keep state across attempts.
// Errors returned by fn abort the transaction and are returned unchanged.
func Run(ctx context.Context, db *mongo.Database, log *zap.Logger, fn func(ctx context.Context) error) error {
	sess, err := db.Client().StartSession()
	if err != nil {
		return fmt.Errorf("txn: start session: %w", err)
	}
	defer sess.EndSession(ctx)

	opts := options.Transaction().
		SetReadConcern(readconcern.Snapshot()).
		SetWriteConcern(writeconcern.Majority())

	_, err = sess.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc)
	}, opts)
	if err != nil {
		if IsNotSupported(err) {
			if log != nil {
				log.Error("transaction not supported by MongoDB deployment", zap.Error(err))
			}
			return fmt.Errorf("%w: %v", ErrTransactionsUnsupported, err)
		}
		return err
	}
	return nil
}

// standaloneMsg is the server's reply to a transaction on a standalone
// mongod, which some driver paths surface without the command code.
const standaloneMsg = "transaction numbers are only allowed on a replica set member or mongos"

// IsNotSupported reports whether err means the deployment cannot run
// transactions, as opposed to a failure inside one.
func IsNotSupported(err error) bool {
	if err == nil {
		return false
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) {
		switch ce.Code {
		case 20, 51: // IllegalOperation, standalone transaction numbers
			return true
		}
	}
	return strings.Contains(strings.ToLower(err.Error()), standaloneMsg)
}
