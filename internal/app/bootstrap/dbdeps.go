// internal/app/bootstrap/dbdeps.go
package bootstrap

import (
	"github.com/dalemusser/brewcircles/internal/app/membership"
	"github.com/dalemusser/brewcircles/internal/app/system/auditlog"
	"github.com/dalemusser/brewcircles/internal/app/system/metrics"
	"github.com/dalemusser/brewcircles/internal/app/system/ratelimit"
	"github.com/dalemusser/brewcircles/internal/app/system/workers"
	"go.mongodb.org/mongo-driver/mongo"
)

// DBDeps holds database/back-end dependencies for the app.
//
// Services is allocated in ConnectDB and filled in by Startup, so the
// later hooks, which receive DBDeps by value, share one set.
type DBDeps struct {
	MongoClient   *mongo.Client
	MongoDatabase *mongo.Database
	Services      *Services
}

// Services are the long-lived components built at Startup.
type Services struct {
	Audit   *auditlog.Logger
	Metrics *metrics.Metrics
	Manager *membership.Manager
	Join    *ratelimit.JoinLimiter
	Repair  *workers.CounterRepair
}
