// internal/app/features/registrations/registrations.go
package registrations

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/Saravanans7/PlaceMate/internal/app/store/audit"
	companystore "github.com/Saravanans7/PlaceMate/internal/app/store/companies"
	registrationstore "github.com/Saravanans7/PlaceMate/internal/app/store/registrations"
	"github.com/Saravanans7/PlaceMate/internal/app/system/apperr"
	"github.com/Saravanans7/PlaceMate/internal/app/system/auditlog"
	"github.com/Saravanans7/PlaceMate/internal/app/system/authz"
	"github.com/Saravanans7/PlaceMate/internal/app/system/paging"
	"github.com/Saravanans7/PlaceMate/internal/app/system/respond"
	"github.com/Saravanans7/PlaceMate/internal/app/system/timeouts"
	"github.com/Saravanans7/PlaceMate/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/query"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// upcomingWindow is the span covered by range=next30.
const upcomingWindow = 30 * 24 * time.Hour

func (h *Handler) filter(r *http.Request) (registrationstore.Filter, error) {
	var f registrationstore.Filter
	if v := query.Get(r, "batch"); v != "" {
		b, err := strconv.Atoi(v)
		if err != nil || b <= 0 {
			return f, apperr.Validation("batch must be a positive number")
		}
		f.Batch = b
	}
	if v := query.Get(r, "status"); v != "" {
		switch v {
		case models.RegistrationOpen, models.RegistrationClosed, models.RegistrationCompleted:
			f.Status = v
		default:
			return f, apperr.Validation("unknown status %q", v)
		}
	}
	if v := query.Get(r, "company"); v != "" {
		id, err := primitive.ObjectIDFromHex(v)
		if err != nil {
			return f, apperr.Validation("company must be a valid id")
		}
		f.Company = id
	}
	switch query.Get(r, "range") {
	case "":
	case "next30":
		now := h.Svc.Clock().Now()
		f.From = now
		f.To = now.Add(upcomingWindow)
	default:
		return f, apperr.Validation(`range must be "next30"`)
	}
	return f, nil
}

// List handles GET /api/registrations?batch=&status=&company=&range=next30.
// Staff see applicant counts and whether a drive exists; a signed-in
// student sees which registrations they applied to.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	f, err := h.filter(r)
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	p := paging.Parse(r)
	regs, total, err := h.Registrations.List(ctx, f, p)
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	views, err := h.decorate(ctx, r, regs)
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	respond.OK(w, paging.NewPage(views, p, total))
}

func (h *Handler) decorate(ctx context.Context, r *http.Request, regs []models.Registration) ([]registrationView, error) {
	views := make([]registrationView, len(regs))
	ids := make([]primitive.ObjectID, len(regs))
	for i, reg := range regs {
		views[i].Registration = reg
		ids[i] = reg.ID
	}

	_, _, uid, _ := authz.UserCtx(r)
	switch {
	case authz.IsStaff(r):
		counts, err := h.Applications.CountRegistered(ctx, ids)
		if err != nil {
			return nil, err
		}
		withDrive, err := h.Drives.RegistrationsWithDrives(ctx, ids)
		if err != nil {
			return nil, err
		}
		for i := range views {
			n := counts[views[i].ID]
			has := withDrive[views[i].ID]
			views[i].ApplicantCount = &n
			views[i].HasDrive = &has
		}
	case authz.IsStudent(r):
		apps, err := h.Applications.RegisteredByStudent(ctx, uid)
		if err != nil {
			return nil, err
		}
		applied := make(map[primitive.ObjectID]bool, len(apps))
		for _, a := range apps {
			applied[a.Registration] = true
		}
		for i := range views {
			v := applied[views[i].ID]
			views[i].Applied = &v
		}
	}
	return views, nil
}

// Get handles GET /api/registrations/{id}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := respond.ObjectIDParam(r, "id")
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	reg, err := h.Registrations.GetByID(ctx, id)
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	views, err := h.decorate(ctx, r, []models.Registration{reg})
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	respond.OK(w, views[0])
}

// Create handles POST /api/registrations. Eligible students of the
// notified batches are emailed in the background.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	_, _, actor, _ := authz.UserCtx(r)

	var in createInput
	if err := respond.Decode(r, &in); err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	companyID, err := primitive.ObjectIDFromHex(in.Company)
	if err != nil {
		respond.Error(w, h.Log, apperr.Validation("company must be a valid id"))
		return
	}
	driveDate, err := h.Svc.Clock().ParseDate(in.DriveDate)
	if err != nil {
		respond.Error(w, h.Log, apperr.Validation("driveDate must be YYYY-MM-DD or RFC 3339"))
		return
	}
	reg := models.Registration{
		Batch:        in.Batch,
		DriveDate:    driveDate,
		CustomFields: customFields(in.CustomFields),
	}
	if rule := in.Eligibility.rule(); rule != nil {
		reg.Eligibility = *rule
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	created, err := h.Svc.CreateRegistration(ctx, reg, companyID, actor)
	if err == companystore.ErrNotFound {
		err = apperr.Validation("company does not exist")
	}
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	h.AuditLog.Admin(ctx, r, auditlog.Action{
		EventType:  audit.EventRegistrationCreated,
		Actor:      actor,
		TargetType: "registration",
		Target:     created.ID,
		Details: map[string]string{
			"company": created.CompanyNameCached,
			"batch":   strconv.Itoa(created.Batch),
		},
	})
	respond.Created(w, created)
}

// Update handles PUT /api/registrations/{id}. Absent fields are left alone.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	_, _, actor, _ := authz.UserCtx(r)
	id, err := respond.ObjectIDParam(r, "id")
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	var in updateInput
	if err := respond.Decode(r, &in); err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	upd := registrationstore.Update{
		Batch:        in.Batch,
		Eligibility:  in.Eligibility.rule(),
		CustomFields: customFields(in.CustomFields),
		Status:       in.Status,
	}
	if in.DriveDate != nil {
		at, err := h.Svc.Clock().ParseDate(*in.DriveDate)
		if err != nil {
			respond.Error(w, h.Log, apperr.Validation("driveDate must be YYYY-MM-DD or RFC 3339"))
			return
		}
		upd.DriveDate = &at
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	reg, err := h.Svc.UpdateRegistration(ctx, id, upd)
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	h.AuditLog.Admin(ctx, r, auditlog.Action{
		EventType:  audit.EventRegistrationUpdated,
		Actor:      actor,
		TargetType: "registration",
		Target:     reg.ID,
	})
	respond.OK(w, reg)
}

// Delete handles DELETE /api/registrations/{id}.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	_, _, actor, _ := authz.UserCtx(r)
	id, err := respond.ObjectIDParam(r, "id")
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	if err := h.Svc.DeleteRegistration(ctx, id); err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	h.AuditLog.Admin(ctx, r, auditlog.Action{
		EventType:  audit.EventRegistrationDeleted,
		Actor:      actor,
		TargetType: "registration",
		Target:     id,
	})
	h.Log.Info("registration deleted", zap.String("registration_id", id.Hex()))
	respond.Message(w, "Registration deleted")
}
