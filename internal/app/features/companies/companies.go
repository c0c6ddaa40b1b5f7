// internal/app/features/companies/companies.go
package companies

import (
	"context"
	"net/http"

	"github.com/Saravanans7/PlaceMate/internal/app/store/audit"
	companystore "github.com/Saravanans7/PlaceMate/internal/app/store/companies"
	"github.com/Saravanans7/PlaceMate/internal/app/system/apperr"
	"github.com/Saravanans7/PlaceMate/internal/app/system/auditlog"
	"github.com/Saravanans7/PlaceMate/internal/app/system/authz"
	"github.com/Saravanans7/PlaceMate/internal/app/system/paging"
	"github.com/Saravanans7/PlaceMate/internal/app/system/respond"
	"github.com/Saravanans7/PlaceMate/internal/app/system/timeouts"
	"github.com/Saravanans7/PlaceMate/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/query"
	"go.uber.org/zap"
)

type companyInput struct {
	Name           *string                `json:"name" validate:"omitempty,max=120"`
	Role           *string                `json:"role" validate:"omitempty,max=120"`
	Location       *string                `json:"location" validate:"omitempty,max=120"`
	SalaryLPA      *float64               `json:"salaryLPA" validate:"omitempty,gte=0"`
	Description    *string                `json:"description" validate:"omitempty,max=4000"`
	RoundsTemplate []models.RoundTemplate `json:"roundsTemplate" validate:"omitempty,dive"`
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// List handles GET /api/companies?search=&page=&limit=.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	p := paging.Parse(r)
	items, total, err := h.Companies.List(ctx, query.Get(r, "search"), p)
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	respond.OK(w, paging.NewPage(items, p, total))
}

// Get handles GET /api/companies/{id}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := respond.ObjectIDParam(r, "id")
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	c, err := h.Companies.GetByID(ctx, id)
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	respond.OK(w, c)
}

// Create handles POST /api/companies.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	_, _, actor, _ := authz.UserCtx(r)

	var in companyInput
	if err := respond.Decode(r, &in); err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	var salary float64
	if in.SalaryLPA != nil {
		salary = *in.SalaryLPA
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	c, err := h.Companies.Create(ctx, models.Company{
		Name:           deref(in.Name),
		Role:           deref(in.Role),
		Location:       deref(in.Location),
		SalaryLPA:      salary,
		Description:    deref(in.Description),
		RoundsTemplate: in.RoundsTemplate,
		CreatedBy:      &actor,
	})
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	h.AuditLog.Admin(ctx, r, auditlog.Action{
		EventType:  audit.EventCompanyCreated,
		Actor:      actor,
		TargetType: "company",
		Target:     c.ID,
		Details:    map[string]string{"name": c.Name},
	})
	respond.Created(w, c)
}

// Update handles PUT /api/companies/{id}. Absent fields are left alone.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	_, _, actor, _ := authz.UserCtx(r)
	id, err := respond.ObjectIDParam(r, "id")
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	var in companyInput
	if err := respond.Decode(r, &in); err != nil {
		respond.Error(w, h.Log, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	c, err := h.Companies.Update(ctx, id, companystore.Update{
		Name:           in.Name,
		Role:           in.Role,
		Location:       in.Location,
		SalaryLPA:      in.SalaryLPA,
		Description:    in.Description,
		RoundsTemplate: in.RoundsTemplate,
	})
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	h.AuditLog.Admin(ctx, r, auditlog.Action{
		EventType:  audit.EventCompanyUpdated,
		Actor:      actor,
		TargetType: "company",
		Target:     c.ID,
	})
	respond.OK(w, c)
}

// Delete handles DELETE /api/companies/{id}. A company that still has
// registrations cannot be deleted.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	_, _, actor, _ := authz.UserCtx(r)
	id, err := respond.ObjectIDParam(r, "id")
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	regs, err := h.Registrations.ForCompany(ctx, id)
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	if len(regs) > 0 {
		respond.Error(w, h.Log, apperr.Conflict("company has %d registration(s); delete them first", len(regs)))
		return
	}
	if err := h.Companies.Delete(ctx, id); err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	h.AuditLog.Admin(ctx, r, auditlog.Action{
		EventType:  audit.EventCompanyDeleted,
		Actor:      actor,
		TargetType: "company",
		Target:     id,
	})
	h.Log.Info("company deleted", zap.String("company_id", id.Hex()))
	respond.Message(w, "Company deleted")
}
