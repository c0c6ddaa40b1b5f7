// internal/app/features/blacklist/routes.go
package blacklist

import (
	"github.com/Saravanans7/PlaceMate/internal/app/system/auth"
	"github.com/Saravanans7/PlaceMate/internal/domain/models"
	"github.com/go-chi/chi/v5"
)

// Routes mounts under /api/blacklist. Staff only.
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Use(sm.RequireRole(models.RoleStaff))
	r.Get("/", h.List)
	r.Get("/search", h.Search)
	r.Post("/", h.Add)
	r.Post("/remove", h.Remove)
	return r
}
