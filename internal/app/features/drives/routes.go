// internal/app/features/drives/routes.go
package drives

import (
	"github.com/Saravanans7/PlaceMate/internal/app/system/auth"
	"github.com/Saravanans7/PlaceMate/internal/domain/models"
	"github.com/go-chi/chi/v5"
)

// Routes mounts under /api/drives.
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()

	r.Group(func(pr chi.Router) {
		pr.Use(sm.RequireRole(models.RoleStudent))
		pr.Get("/student/{companyName}", h.StudentProgress)
		pr.Get("/{id}/progress", h.DriveProgress)
	})

	r.Group(func(pr chi.Router) {
		pr.Use(sm.RequireRole(models.RoleStaff))
		pr.Get("/", h.List)
		pr.Post("/", h.Create)
		pr.Get("/by-registration/{id}", h.ByRegistration)
		pr.Post("/backfill-today", h.BackfillToday)
		pr.Get("/{id}", h.Get)
		pr.Put("/{id}", h.Update)
		pr.Delete("/{id}", h.Delete)
		pr.Get("/{id}/export", h.Export)
		pr.Post("/{id}/announcement", h.Announce)
		pr.Post("/{id}/rounds/{i}/shortlist", h.Shortlist)
		pr.Post("/{id}/rounds/{i}/results", h.Results)
		pr.Post("/{id}/finalize", h.Finalize)
	})
	return r
}
