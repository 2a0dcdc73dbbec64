// internal/app/features/circles/respond.go
package circles

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/dalemusser/brewcircles/internal/app/membership"
	"github.com/dalemusser/brewcircles/internal/app/system/auth"
	"github.com/dalemusser/brewcircles/internal/app/system/circleerr"
	"github.com/dalemusser/brewcircles/internal/app/system/limits"
	"github.com/dalemusser/brewcircles/internal/app/system/requestid"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// statusFor maps an error kind to its HTTP status.
func statusFor(kind string) int {
	switch kind {
	case "not_found", "not_member":
		return http.StatusNotFound
	case "already_member", "last_admin_cannot_leave", "cannot_remove_self":
		return http.StatusConflict
	case "permission_denied", "creator_only_operation":
		return http.StatusForbidden
	case "code_generation_exhausted":
		return http.StatusServiceUnavailable
	case "invalid_input", "invalid_role":
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	kind := circleerr.Kind(err)
	status := statusFor(kind)
	if status == http.StatusInternalServerError {
		h.Log.Error("circle request failed",
			zap.String("path", r.URL.Path),
			requestid.Field(r.Context()),
			zap.Error(err))
	}
	writeJSON(w, status, errorResponse{Error: kind, Message: circleerr.Message(err)})
}

// decode reads a JSON body into v. An empty body leaves v untouched.
func decode(r *http.Request, w http.ResponseWriter, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, limits.MaxJSONBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return circleerr.Invalid("malformed JSON body")
	}
	return nil
}

// actor returns the signed-in user. RequireSignedIn guarantees one exists.
func actor(r *http.Request) membership.Actor {
	u, _ := auth.CurrentUser(r)
	if u == nil {
		return membership.Actor{}
	}
	return membership.Actor{UserID: u.ID, DisplayName: u.Name}
}

// objectIDParam parses a hex id from the route. A malformed id cannot name
// anything, so it is reported as not found.
func objectIDParam(r *http.Request, name string) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, name))
	if err != nil {
		return primitive.NilObjectID, circleerr.ErrNotFound
	}
	return id, nil
}
