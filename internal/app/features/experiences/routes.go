// internal/app/features/experiences/routes.go
package experiences

import (
	"github.com/Saravanans7/PlaceMate/internal/app/system/auth"
	"github.com/Saravanans7/PlaceMate/internal/domain/models"
	"github.com/go-chi/chi/v5"
)

// Routes mounts under /api/experiences. Reads are public.
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.List)
	r.Get("/{id}", h.Get)

	r.Group(func(pr chi.Router) {
		pr.Use(sm.RequireRole(models.RoleStudent))
		pr.Post("/", h.Submit)
	})
	r.Group(func(pr chi.Router) {
		pr.Use(sm.RequireRole(models.RoleStaff))
		pr.Put("/{id}/approve", h.Approve)
		pr.Put("/{id}/reject", h.Reject)
	})
	r.Group(func(pr chi.Router) {
		pr.Use(sm.RequireSignedIn)
		pr.Delete("/{id}", h.Delete)
	})
	return r
}
