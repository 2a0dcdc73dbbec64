// internal/app/bootstrap/startup.go
package bootstrap

import (
	"context"

	"github.com/dalemusser/brewcircles/internal/app/membership"
	"github.com/dalemusser/brewcircles/internal/app/store/audit"
	"github.com/dalemusser/brewcircles/internal/app/system/auditlog"
	"github.com/dalemusser/brewcircles/internal/app/system/metrics"
	"github.com/dalemusser/brewcircles/internal/app/system/ratelimit"
	"github.com/dalemusser/brewcircles/internal/app/system/timeouts"
	"github.com/dalemusser/brewcircles/internal/app/system/workers"
	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"
)

// Startup runs one-time application initialization after DB connections and
// schema setup are complete, but before the HTTP handler is built. It
// applies timeouts, builds the membership manager and its collaborators,
// and starts the counter repair worker.
func Startup(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	timeouts.Configure(timeouts.Config{
		Short:  appCfg.TimeoutShort,
		Medium: appCfg.TimeoutMedium,
		Long:   appCfg.TimeoutLong,
	})

	svc := deps.Services
	db := deps.MongoDatabase

	svc.Audit = auditlog.New(audit.New(db), logger, auditlog.Config{
		Circle: appCfg.AuditLog,
		System: appCfg.AuditLog,
	})

	svc.Metrics = metrics.New()
	svc.Metrics.RegisterStoreGauges(db, timeouts.Short())

	svc.Manager = membership.NewManager(db, logger, membership.Options{
		Audit:        svc.Audit,
		Metrics:      svc.Metrics,
		CodeAttempts: appCfg.InviteCodeAttempts,
	})

	svc.Join = ratelimit.NewJoinLimiter(appCfg.JoinRatePerMinute, appCfg.JoinRateBurst, appCfg.TrustIdentityHeaders)

	if appCfg.RepairInterval > 0 {
		svc.Repair = workers.NewCounterRepair(svc.Manager, logger, appCfg.RepairInterval, appCfg.RepairParallelism)
		svc.Repair.Start()
	} else {
		logger.Info("counter repair worker disabled")
	}

	return nil
}
