// internal/app/features/experiences/experiences.go
package experiences

import (
	"context"
	"net/http"

	"github.com/Saravanans7/PlaceMate/internal/app/placement"
	"github.com/Saravanans7/PlaceMate/internal/app/store/audit"
	experiencestore "github.com/Saravanans7/PlaceMate/internal/app/store/experiences"
	"github.com/Saravanans7/PlaceMate/internal/app/system/apperr"
	"github.com/Saravanans7/PlaceMate/internal/app/system/auditlog"
	"github.com/Saravanans7/PlaceMate/internal/app/system/authz"
	"github.com/Saravanans7/PlaceMate/internal/app/system/normalize"
	"github.com/Saravanans7/PlaceMate/internal/app/system/paging"
	"github.com/Saravanans7/PlaceMate/internal/app/system/respond"
	"github.com/Saravanans7/PlaceMate/internal/app/system/timeouts"
	"github.com/Saravanans7/PlaceMate/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/query"
	"go.uber.org/zap"
)

type submitInput struct {
	Company     string   `json:"company" validate:"required,max=120"`
	Title       string   `json:"title" validate:"required,max=200"`
	Content     string   `json:"content" validate:"required,max=50000"`
	Questions   []string `json:"questions" validate:"max=50,dive,max=1000"`
	Attachments []string `json:"attachments" validate:"max=10,dive,url"`
}

// List handles GET /api/experiences?company=&status=&mine=.
// Anyone sees approved experiences. Staff may filter by status; a student
// passing mine=true sees their own in every status.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	role, _, uid, signedIn := authz.UserCtx(r)

	f := experiencestore.Filter{
		Status:    models.ExperienceApproved,
		CompanyCI: normalize.NameCI(query.Get(r, "company")),
	}
	switch {
	case signedIn && role == models.RoleStaff:
		f.Status = query.Get(r, "status")
		switch f.Status {
		case "", models.ExperiencePending, models.ExperienceApproved, models.ExperienceRejected:
		default:
			respond.Error(w, h.Log, apperr.Validation("status must be pending, approved or rejected"))
			return
		}
	case signedIn && query.Get(r, "mine") == "true":
		f.Status = ""
		f.Student = uid
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	p := paging.Parse(r)
	items, total, err := h.Experiences.List(ctx, f, p)
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	respond.OK(w, paging.NewPage(items, p, total))
}

// Get handles GET /api/experiences/{id}. Unapproved experiences are visible
// only to staff and their author.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	role, _, uid, signedIn := authz.UserCtx(r)
	id, err := respond.ObjectIDParam(r, "id")
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	e, err := h.Experiences.GetByID(ctx, id)
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	visible := e.Status == models.ExperienceApproved ||
		(signedIn && (role == models.RoleStaff || e.Student == uid))
	if !visible {
		respond.Error(w, h.Log, experiencestore.ErrNotFound)
		return
	}
	respond.OK(w, e)
}

// Submit handles POST /api/experiences. The write-up waits for staff review.
func (h *Handler) Submit(w http.ResponseWriter, r *http.Request) {
	_, _, uid, _ := authz.UserCtx(r)

	var in submitInput
	if err := respond.Decode(r, &in); err != nil {
		respond.Error(w, h.Log, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	e, err := h.Svc.SubmitExperience(ctx, uid, placement.ExperienceInput{
		Company:     in.Company,
		Title:       in.Title,
		Content:     in.Content,
		Questions:   in.Questions,
		Attachments: in.Attachments,
	})
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	h.Log.Info("experience submitted",
		zap.String("experience_id", e.ID.Hex()),
		zap.String("company", e.CompanyNameCached))
	respond.Created(w, e)
}

// Approve handles PUT /api/experiences/{id}/approve.
func (h *Handler) Approve(w http.ResponseWriter, r *http.Request) {
	h.moderate(w, r, true)
}

// Reject handles PUT /api/experiences/{id}/reject.
func (h *Handler) Reject(w http.ResponseWriter, r *http.Request) {
	h.moderate(w, r, false)
}

func (h *Handler) moderate(w http.ResponseWriter, r *http.Request, approve bool) {
	_, _, actor, _ := authz.UserCtx(r)
	id, err := respond.ObjectIDParam(r, "id")
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	e, err := h.Svc.Moderate(ctx, id, approve, actor)
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}

	event := audit.EventExperienceRejected
	if approve {
		event = audit.EventExperienceApproved
	}
	h.AuditLog.Admin(ctx, r, auditlog.Action{
		EventType:  event,
		Actor:      actor,
		TargetType: "experience",
		Target:     e.ID,
		Student:    &e.Student,
		Details:    map[string]string{"company": e.CompanyNameCached, "title": e.Title},
	})
	respond.OK(w, e)
}

// Delete handles DELETE /api/experiences/{id}. Students may delete their
// own; staff may delete any.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	role, _, actor, _ := authz.UserCtx(r)
	id, err := respond.ObjectIDParam(r, "id")
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	if err := h.Svc.DeleteExperience(ctx, id, actor, role == models.RoleStaff); err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	h.Log.Info("experience deleted",
		zap.String("experience_id", id.Hex()),
		zap.String("by", actor.Hex()))
	respond.Message(w, "Experience deleted")
}
