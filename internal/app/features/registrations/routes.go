// internal/app/features/registrations/routes.go
package registrations

import (
	"github.com/Saravanans7/PlaceMate/internal/app/system/auth"
	"github.com/Saravanans7/PlaceMate/internal/domain/models"
	"github.com/go-chi/chi/v5"
)

// Routes mounts under /api/registrations. Listing and reading are public.
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.List)

	r.Group(func(pr chi.Router) {
		pr.Use(sm.RequireRole(models.RoleStudent))
		pr.Get("/mine", h.Mine)
		pr.Post("/{id}/apply", h.Apply)
		pr.Post("/{id}/withdraw", h.Withdraw)
		pr.Get("/{id}/eligibility", h.Eligibility)
	})

	r.Group(func(pr chi.Router) {
		pr.Use(sm.RequireRole(models.RoleStaff))
		pr.Post("/", h.Create)
		pr.Put("/{id}", h.Update)
		pr.Delete("/{id}", h.Delete)
		pr.Get("/{id}/applicants", h.Applicants)
		pr.Get("/{id}/applicants/export", h.Export)
	})

	r.Get("/{id}", h.Get)
	return r
}
