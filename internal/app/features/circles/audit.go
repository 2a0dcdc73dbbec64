// internal/app/features/circles/audit.go
package circles

import (
	"net/http"
	"strings"

	"github.com/dalemusser/brewcircles/internal/app/membership"
	"github.com/dalemusser/brewcircles/internal/app/store/audit"
	"github.com/dalemusser/brewcircles/internal/app/system/circleerr"
	"github.com/dalemusser/brewcircles/internal/app/system/paging"
	"github.com/dalemusser/brewcircles/internal/app/system/timeouts"
	"github.com/dalemusser/waffle/pantry/query"
)

// ServeAudit lists the circle's recent audit events for its admins.
// ?event_type= filters, ?limit= bounds the page.
func (h *Handler) ServeAudit(w http.ResponseWriter, r *http.Request) {
	id, err := objectIDParam(r, "id")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	limit, err := paging.ParseLimit(r, membership.DefaultAuditLimit, membership.MaxAuditLimit)
	if err != nil {
		h.writeError(w, r, circleerr.Invalid(err.Error()))
		return
	}
	eventType := strings.TrimSpace(query.Get(r, "event_type"))

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "list circle audit")
	defer cancel()

	events, err := h.Mgr.GetCircleAudit(ctx, actor(r).UserID, id, eventType, limit)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if events == nil {
		events = []audit.Event{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"events": events})
}
