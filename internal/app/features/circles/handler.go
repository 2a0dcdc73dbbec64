// internal/app/features/circles/handler.go
package circles

import (
	"github.com/dalemusser/brewcircles/internal/app/membership"
	"github.com/dalemusser/brewcircles/internal/app/system/auditlog"
	"github.com/dalemusser/brewcircles/internal/app/system/ratelimit"
	"go.uber.org/zap"
)

// Handler serves the circle JSON API. It is a thin layer over
// membership.Manager: decode, call, map errors to status codes.
type Handler struct {
	Mgr   *membership.Manager
	Join  *ratelimit.JoinLimiter
	Audit *auditlog.Logger
	Log   *zap.Logger
}

// NewHandler constructs the circles Handler. join may be nil to disable
// join rate limiting.
func NewHandler(mgr *membership.Manager, join *ratelimit.JoinLimiter, audit *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{
		Mgr:   mgr,
		Join:  join,
		Audit: audit,
		Log:   logger,
	}
}
