// internal/app/features/circles/members.go
package circles

import (
	"net/http"
	"strings"

	"github.com/dalemusser/brewcircles/internal/app/system/circleerr"
	"github.com/dalemusser/brewcircles/internal/app/system/timeouts"
	"github.com/dalemusser/brewcircles/internal/domain/models"
	"github.com/go-chi/chi/v5"
)

type joinRequest struct {
	InviteCode  string `json:"inviteCode"`
	DisplayName string `json:"displayName"`
}

type roleRequest struct {
	Role string `json:"role"`
}

// HandleJoin adds the caller to the circle owning the invite code.
// Attempts are rate limited per user and per client IP.
func (h *Handler) HandleJoin(w http.ResponseWriter, r *http.Request) {
	a := actor(r)

	if h.Join != nil {
		if ok, msg := h.Join.Check(r, a.UserID); !ok {
			h.Audit.JoinRateLimited(r.Context(), a.UserID)
			writeJSON(w, http.StatusTooManyRequests, errorResponse{Error: "rate_limited", Message: msg})
			return
		}
	}

	var req joinRequest
	if err := decode(r, w, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	if name := strings.TrimSpace(req.DisplayName); name != "" {
		a.DisplayName = name
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "join circle")
	defer cancel()

	c, err := h.Mgr.Join(ctx, a, req.InviteCode)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

// HandleLeave removes the caller from the circle.
func (h *Handler) HandleLeave(w http.ResponseWriter, r *http.Request) {
	id, err := objectIDParam(r, "id")
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "leave circle")
	defer cancel()

	if err := h.Mgr.Leave(ctx, actor(r).UserID, id); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ServeMembers lists the circle's members in join order.
func (h *Handler) ServeMembers(w http.ResponseWriter, r *http.Request) {
	id, err := objectIDParam(r, "id")
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "list members")
	defer cancel()

	list, err := h.Mgr.GetCircleMembers(ctx, actor(r).UserID, id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"members": list})
}

// HandleUpdateRole sets the role of another member.
func (h *Handler) HandleUpdateRole(w http.ResponseWriter, r *http.Request) {
	id, err := objectIDParam(r, "id")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	var req roleRequest
	if err := decode(r, w, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	role, ok := models.ParseRole(req.Role)
	if !ok {
		h.writeError(w, r, circleerr.ErrInvalidRole)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "update role")
	defer cancel()

	if err := h.Mgr.UpdateRole(ctx, actor(r).UserID, id, chi.URLParam(r, "userID"), role); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleRemoveMember removes another member from the circle.
func (h *Handler) HandleRemoveMember(w http.ResponseWriter, r *http.Request) {
	id, err := objectIDParam(r, "id")
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "remove member")
	defer cancel()

	if err := h.Mgr.RemoveMember(ctx, actor(r).UserID, id, chi.URLParam(r, "userID")); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
