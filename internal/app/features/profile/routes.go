// internal/app/features/profile/routes.go
package profile

import (
	"github.com/Saravanans7/PlaceMate/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes mounts under /api/users/me.
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Use(sm.RequireSignedIn)
	r.Get("/", h.ServeProfile)
	r.Put("/", h.HandleUpdate)
	r.Get("/placement", h.ServePlacement)
	r.Post("/password", h.HandleChangePassword)
	return r
}
