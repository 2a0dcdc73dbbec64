// internal/app/features/circles/circles.go
package circles

import (
	"net/http"

	circlestore "github.com/dalemusser/brewcircles/internal/app/store/circles"
	"github.com/dalemusser/brewcircles/internal/app/system/timeouts"
)

type createRequest struct {
	Name        string  `json:"name"`
	Description *string `json:"description"`
}

type updateRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
}

type inviteCodeResponse struct {
	InviteCode string `json:"inviteCode"`
}

// HandleCreate creates a circle owned by the caller.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := decode(r, w, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Long(), h.Log, "create circle")
	defer cancel()

	c, err := h.Mgr.CreateCircle(ctx, actor(r), req.Name, req.Description)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

// ServeMyCircles lists the circles the caller belongs to, newest first.
func (h *Handler) ServeMyCircles(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "list my circles")
	defer cancel()

	list, err := h.Mgr.GetUserCircles(ctx, actor(r).UserID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"circles": list})
}

// ServeCircle returns one circle. Only members may read it.
func (h *Handler) ServeCircle(w http.ResponseWriter, r *http.Request) {
	id, err := objectIDParam(r, "id")
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "get circle")
	defer cancel()

	c, err := h.Mgr.GetCircle(ctx, actor(r).UserID, id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

// HandleUpdate changes name and/or description. An empty description
// clears it.
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := objectIDParam(r, "id")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	var req updateRequest
	if err := decode(r, w, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "update circle")
	defer cancel()

	set := circlestore.Settings{Name: req.Name, Description: req.Description}
	if err := h.Mgr.UpdateCircle(ctx, actor(r).UserID, id, set); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleDelete removes the circle with its memberships and brews.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := objectIDParam(r, "id")
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Long(), h.Log, "delete circle")
	defer cancel()

	if err := h.Mgr.DeleteCircle(ctx, actor(r).UserID, id); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleRotateInviteCode replaces the invite code. The old code stops
// working immediately.
func (h *Handler) HandleRotateInviteCode(w http.ResponseWriter, r *http.Request) {
	id, err := objectIDParam(r, "id")
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "rotate invite code")
	defer cancel()

	code, err := h.Mgr.RotateInviteCode(ctx, actor(r).UserID, id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, inviteCodeResponse{InviteCode: code})
}
