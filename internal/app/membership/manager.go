// Package membership implements the circle operations users call: creating
// and managing circles, joining and leaving them, changing roles, and
// sharing brews.
//
// Every operation that changes more than one document runs in a single
// MongoDB transaction. Membership writes always write the circle document
// too (a counter $inc or an updated_at stamp), so concurrent changes to the
// same circle conflict in the storage engine and the driver retries one of
// them against the committed state. Permission and last-admin checks read
// inside that same transaction.
package membership

import (
	"context"

	"github.com/dalemusser/brewcircles/internal/app/store/audit"
	circlebrewstore "github.com/dalemusser/brewcircles/internal/app/store/circlebrews"
	circlestore "github.com/dalemusser/brewcircles/internal/app/store/circles"
	counterstore "github.com/dalemusser/brewcircles/internal/app/store/counters"
	membershipstore "github.com/dalemusser/brewcircles/internal/app/store/memberships"
	"github.com/dalemusser/brewcircles/internal/app/system/auditlog"
	"github.com/dalemusser/brewcircles/internal/app/system/circleerr"
	"github.com/dalemusser/brewcircles/internal/app/system/htmlsanitize"
	"github.com/dalemusser/brewcircles/internal/app/system/metrics"
	"github.com/dalemusser/brewcircles/internal/app/system/requestid"
	"github.com/dalemusser/brewcircles/internal/app/system/txn"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// MaxDisplayNameLength bounds the name stored on a membership.
const MaxDisplayNameLength = 80

// Actor is the caller as reported by the identity provider.
type Actor struct {
	UserID      string
	DisplayName string
}

// Options carries the optional collaborators of a Manager.
type Options struct {
	Audit        *auditlog.Logger
	Metrics      *metrics.Metrics
	CodeAttempts int
}

// Manager is the entry point for every circle operation.
type Manager struct {
	db       *mongo.Database
	log      *zap.Logger
	circles  *circlestore.Store
	members  *membershipstore.Store
	counters *counterstore.Store
	brews    *circlebrewstore.Store
	events   *audit.Store
	audit    *auditlog.Logger
	metrics  *metrics.Metrics
}

func NewManager(db *mongo.Database, log *zap.Logger, opts Options) *Manager {
	return &Manager{
		db:       db,
		log:      log,
		circles:  circlestore.New(db, log, opts.CodeAttempts),
		members:  membershipstore.New(db),
		counters: counterstore.New(db),
		brews:    circlebrewstore.New(db),
		events:   audit.New(db),
		audit:    opts.Audit,
		metrics:  opts.Metrics,
	}
}

// inTxn runs fn in a transaction on the manager's database.
func (m *Manager) inTxn(ctx context.Context, fn func(ctx context.Context) error) error {
	return txn.Run(ctx, m.db, m.log, fn)
}

// finish records the outcome of op and logs failures that are not one of
// the expected error kinds. It returns err unchanged.
func (m *Manager) finish(ctx context.Context, op string, err error) error {
	kind := circleerr.Kind(err)
	if err == nil {
		kind = metrics.ResultOK
	}
	m.metrics.RecordOperation(op, kind)
	if kind == "internal" {
		m.log.Error("circle operation failed",
			zap.String("operation", op),
			requestid.Field(ctx),
			zap.Error(err))
	}
	return err
}

// displayName cleans the provider-supplied name, falling back to the id.
func displayName(a Actor) string {
	name := htmlsanitize.PlainText(a.DisplayName)
	if r := []rune(name); len(r) > MaxDisplayNameLength {
		name = string(r[:MaxDisplayNameLength])
	}
	if name == "" {
		return a.UserID
	}
	return name
}

func requireActor(userID string) error {
	if userID == "" {
		return circleerr.Invalid("user id is required")
	}
	return nil
}
