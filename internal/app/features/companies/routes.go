// internal/app/features/companies/routes.go
package companies

import (
	"github.com/Saravanans7/PlaceMate/internal/app/system/auth"
	"github.com/Saravanans7/PlaceMate/internal/domain/models"
	"github.com/go-chi/chi/v5"
)

// Routes mounts under /api/companies. Reads are public.
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.List)
	r.Get("/{id}", h.Get)

	r.Group(func(pr chi.Router) {
		pr.Use(sm.RequireRole(models.RoleStaff))
		pr.Post("/", h.Create)
		pr.Put("/{id}", h.Update)
		pr.Delete("/{id}", h.Delete)
	})
	return r
}
