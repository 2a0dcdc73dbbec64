// internal/app/features/circles/brews.go
package circles

import (
	"net/http"

	circlebrewstore "github.com/dalemusser/brewcircles/internal/app/store/circlebrews"
	"github.com/dalemusser/brewcircles/internal/app/system/circleerr"
	"github.com/dalemusser/brewcircles/internal/app/system/paging"
	"github.com/dalemusser/brewcircles/internal/app/system/timeouts"
	"github.com/dalemusser/brewcircles/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type postBrewRequest struct {
	Snapshot models.BrewSnapshot `json:"snapshot"`
}

type brewsResponse struct {
	Brews      []models.CircleBrew `json:"brews"`
	NextBefore string              `json:"next_before,omitempty"`
}

// ServeBrews returns one page of the circle's feed, newest first.
// ?before=<brew id> continues from a previous page.
func (h *Handler) ServeBrews(w http.ResponseWriter, r *http.Request) {
	id, err := objectIDParam(r, "id")
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	limit, err := paging.ParseLimit(r, circlebrewstore.DefaultPageSize, circlebrewstore.MaxPageSize)
	if err != nil {
		h.writeError(w, r, circleerr.Invalid(err.Error()))
		return
	}
	before, err := paging.ParseBefore(r)
	if err != nil {
		h.writeError(w, r, circleerr.Invalid(err.Error()))
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "list brews")
	defer cancel()

	brews, err := h.Mgr.GetCircleBrews(ctx, actor(r).UserID, id, before, limit)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	ids := make([]primitive.ObjectID, len(brews))
	for i, b := range brews {
		ids[i] = b.ID
	}
	resp := brewsResponse{Brews: brews, NextBefore: paging.NextBefore(ids, limit)}
	if brews == nil {
		resp.Brews = []models.CircleBrew{}
	}
	writeJSON(w, http.StatusOK, resp)
}

// HandlePostBrew shares a brew snapshot into the circle.
func (h *Handler) HandlePostBrew(w http.ResponseWriter, r *http.Request) {
	id, err := objectIDParam(r, "id")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	var req postBrewRequest
	if err := decode(r, w, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "post brew")
	defer cancel()

	brewID, err := h.Mgr.PostBrew(ctx, actor(r), id, req.Snapshot)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"id": brewID.Hex()})
}

// HandleDeleteBrew removes a brew from the feed. Authors may delete their
// own; admins may delete any.
func (h *Handler) HandleDeleteBrew(w http.ResponseWriter, r *http.Request) {
	id, err := objectIDParam(r, "id")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	brewID, err := objectIDParam(r, "brewID")
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "delete brew")
	defer cancel()

	if err := h.Mgr.DeleteBrew(ctx, actor(r).UserID, id, brewID); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
