// internal/app/features/circles/routes.go
package circles

import (
	"github.com/dalemusser/brewcircles/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes returns the /circles subrouter. Every route requires a signed-in
// user.
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()

	r.Group(func(pr chi.Router) {
		pr.Use(sm.RequireSignedIn)

		pr.Post("/", h.HandleCreate)
		pr.Get("/", h.ServeMyCircles)
		pr.Post("/join", h.HandleJoin)

		pr.Route("/{id}", func(cr chi.Router) {
			cr.Get("/", h.ServeCircle)
			cr.Patch("/", h.HandleUpdate)
			cr.Delete("/", h.HandleDelete)
			cr.Post("/leave", h.HandleLeave)
			cr.Post("/invite-code", h.HandleRotateInviteCode)
			cr.Get("/audit", h.ServeAudit)

			cr.Get("/members", h.ServeMembers)
			cr.Put("/members/{userID}/role", h.HandleUpdateRole)
			cr.Delete("/members/{userID}", h.HandleRemoveMember)

			cr.Get("/brews", h.ServeBrews)
			cr.Post("/brews", h.HandlePostBrew)
			cr.Delete("/brews/{brewID}", h.HandleDeleteBrew)
		})
	})

	return r
}
