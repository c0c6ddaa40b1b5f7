// internal/app/features/drives/progress.go
package drives

import (
	"context"
	"net/http"
	"strings"

	"github.com/Saravanans7/PlaceMate/internal/app/system/apperr"
	"github.com/Saravanans7/PlaceMate/internal/app/system/authz"
	"github.com/Saravanans7/PlaceMate/internal/app/system/respond"
	"github.com/Saravanans7/PlaceMate/internal/app/system/timeouts"
	"github.com/go-chi/chi/v5"
)

// StudentProgress handles GET /api/drives/student/{companyName}: the
// signed-in student's progress in the latest drive of that company.
func (h *Handler) StudentProgress(w http.ResponseWriter, r *http.Request) {
	_, _, uid, _ := authz.UserCtx(r)
	company := strings.TrimSpace(chi.URLParam(r, "companyName"))
	if company == "" {
		respond.Error(w, h.Log, apperr.Validation("company name is required"))
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	pv, err := h.Svc.StudentProgress(ctx, company, uid)
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	respond.OK(w, pv)
}

// DriveProgress handles GET /api/drives/{id}/progress for the signed-in
// student.
func (h *Handler) DriveProgress(w http.ResponseWriter, r *http.Request) {
	_, _, uid, _ := authz.UserCtx(r)
	id, err := respond.ObjectIDParam(r, "id")
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	pv, err := h.Svc.DriveProgress(ctx, id, uid)
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	respond.OK(w, pv)
}
