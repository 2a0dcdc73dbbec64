// internal/app/bootstrap/routes.go
package bootstrap

import (
	"errors"
	"net/http"

	circlesfeature "github.com/dalemusser/brewcircles/internal/app/features/circles"
	healthfeature "github.com/dalemusser/brewcircles/internal/app/features/health"
	"github.com/dalemusser/brewcircles/internal/app/system/auth"
	"github.com/dalemusser/brewcircles/internal/app/system/requestid"
	"github.com/dalemusser/waffle/config"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// BuildHandler constructs the root HTTP handler (router) for this WAFFLE app.
//
// WAFFLE calls this after configuration, DB connections, schema setup, and
// Startup have completed. The tree is:
//
//	/health        Mongo ping and transaction support
//	/metrics       Prometheus scrape endpoint
//	/api/circles   circle JSON API (signed-in users)
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	svc := deps.Services
	if svc == nil || svc.Manager == nil {
		return nil, errors.New("startup did not build services")
	}

	// Secure cookies are enabled in production mode.
	secure := coreCfg.Env == "prod"
	sessionMgr, err := auth.NewSessionManager(appCfg.SessionKey, appCfg.SessionName, appCfg.SessionDomain, appCfg.SessionMaxAge, secure, logger)
	if err != nil {
		logger.Error("session manager init failed", zap.Error(err))
		return nil, err
	}
	sessionMgr.TrustIdentityHeaders(appCfg.TrustIdentityHeaders)

	r := chi.NewRouter()

	r.Use(requestid.Middleware)
	r.Use(svc.Metrics.Middleware)

	// Global auth middleware: loads SessionUser into context if signed in.
	r.Use(sessionMgr.LoadSessionUser)

	// Health check endpoint for load balancers and orchestrators
	healthHandler := healthfeature.NewHandler(deps.MongoClient, logger)
	r.Mount("/health", healthfeature.Routes(healthHandler))

	r.Handle("/metrics", svc.Metrics.Handler())

	circlesHandler := circlesfeature.NewHandler(svc.Manager, svc.Join, svc.Audit, logger)
	r.Route("/api", func(api chi.Router) {
		api.Mount("/circles", circlesfeature.Routes(circlesHandler, sessionMgr))
	})

	return r, nil
}
