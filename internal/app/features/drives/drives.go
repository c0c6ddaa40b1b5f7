// internal/app/features/drives/drives.go
package drives

import (
	"context"
	"net/http"
	"strconv"

	"github.com/Saravanans7/PlaceMate/internal/app/placement"
	"github.com/Saravanans7/PlaceMate/internal/app/store/audit"
	drivestore "github.com/Saravanans7/PlaceMate/internal/app/store/drives"
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

var errDriveExists = apperr.Conflict("a drive already exists for this registration")

func (h *Handler) filter(r *http.Request) (drivestore.Filter, error) {
	var f drivestore.Filter
	clock := h.Svc.Clock()
	switch v := query.Get(r, "date"); v {
	case "":
	case "today":
		f.From, f.To = clock.Today()
	default:
		day, err := clock.ParseDate(v)
		if err != nil {
			return f, apperr.Validation(`date must be "today" or YYYY-MM-DD`)
		}
		f.From, f.To = clock.DayBounds(day)
	}
	if v := query.Get(r, "company"); v != "" {
		id, err := primitive.ObjectIDFromHex(v)
		if err != nil {
			return f, apperr.Validation("company must be a valid id")
		}
		f.Company = id
	}
	if v := query.Get(r, "closed"); v != "" {
		closed, err := strconv.ParseBool(v)
		if err != nil {
			return f, apperr.Validation("closed must be true or false")
		}
		f.Closed = &closed
	}
	return f, nil
}

// List handles GET /api/drives?date=today&company=&closed=.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	f, err := h.filter(r)
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	p := paging.Parse(r)
	items, total, err := h.Drives.List(ctx, f, p)
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	views := make([]driveView, len(items))
	for i, d := range items {
		views[i] = view(d)
	}
	respond.OK(w, paging.NewPage(views, p, total))
}

// Get handles GET /api/drives/{id}: the drive with its registration and
// registered applicants.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := respond.ObjectIDParam(r, "id")
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	d, err := h.Drives.GetByID(ctx, id)
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	reg, applicants, err := h.Svc.Applicants(ctx, d.Registration)
	if err != nil && apperr.KindOf(err) != apperr.KindNotFound {
		respond.Error(w, h.Log, err)
		return
	}
	if applicants == nil {
		applicants = []placement.Applicant{}
	}
	respond.OK(w, detailView{driveView: view(d), Registration: reg, Applicants: applicants})
}

// Create handles POST /api/drives {registration}. A registration has at
// most one drive.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	_, _, actor, _ := authz.UserCtx(r)
	var in createInput
	if err := respond.Decode(r, &in); err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	regID, err := primitive.ObjectIDFromHex(in.Registration)
	if err != nil {
		respond.Error(w, h.Log, apperr.Validation("registration must be a valid id"))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	d, created, err := h.Svc.EnsureDriveFor(ctx, regID, &actor)
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	if !created {
		respond.Error(w, h.Log, errDriveExists)
		return
	}
	h.auditCreated(ctx, r, actor, d)
	respond.Created(w, view(d))
}

// ByRegistration handles GET /api/drives/by-registration/{id}, creating the
// drive when it does not exist yet.
func (h *Handler) ByRegistration(w http.ResponseWriter, r *http.Request) {
	_, _, actor, _ := authz.UserCtx(r)
	regID, err := respond.ObjectIDParam(r, "id")
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	d, created, err := h.Svc.EnsureDriveFor(ctx, regID, &actor)
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	if created {
		h.auditCreated(ctx, r, actor, d)
	}
	respond.OK(w, ensureView{driveView: view(d), Created: created})
}

// BackfillToday handles POST /api/drives/backfill-today.
func (h *Handler) BackfillToday(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	n, err := h.Svc.MaterializeToday(ctx)
	if err != nil {
		// Partial success still reports what was created.
		h.Log.Warn("backfill today incomplete", zap.Int("created", n), zap.Error(err))
		if n == 0 {
			respond.Error(w, h.Log, err)
			return
		}
	}
	respond.OK(w, backfillView{CreatedCount: n})
}

func (h *Handler) auditCreated(ctx context.Context, r *http.Request, actor primitive.ObjectID, d models.Drive) {
	h.AuditLog.Placement(ctx, r, auditlog.Action{
		EventType:  audit.EventDriveCreated,
		Actor:      actor,
		TargetType: "drive",
		Target:     d.ID,
		Details:    map[string]string{"company": d.CompanyNameCached},
	})
}

// Update handles PUT /api/drives/{id} {rounds, date}. Only a drive that
// has not started can change.
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
	var edit placement.DriveEdit
	if in.Rounds != nil {
		edit.Rounds = make([]models.RoundTemplate, len(in.Rounds))
		for i, rd := range in.Rounds {
			edit.Rounds[i] = models.RoundTemplate{Name: rd.Name, Description: rd.Description}
		}
	}
	if in.Date != nil {
		at, err := h.Svc.Clock().ParseDate(*in.Date)
		if err != nil {
			respond.Error(w, h.Log, apperr.Validation("date must be YYYY-MM-DD or RFC 3339"))
			return
		}
		edit.Date = &at
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	d, err := h.Svc.UpdateDrive(ctx, id, edit)
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	h.AuditLog.Placement(ctx, r, auditlog.Action{
		EventType:  audit.EventDriveUpdated,
		Actor:      actor,
		TargetType: "drive",
		Target:     d.ID,
	})
	respond.OK(w, view(d))
}

// Delete handles DELETE /api/drives/{id}. The registration and its
// applications go with it.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	_, _, actor, _ := authz.UserCtx(r)
	id, err := respond.ObjectIDParam(r, "id")
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	d, err := h.Svc.DeleteDrive(ctx, id)
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	h.AuditLog.Placement(ctx, r, auditlog.Action{
		EventType:  audit.EventDriveDeleted,
		Actor:      actor,
		TargetType: "drive",
		Target:     d.ID,
		Details: map[string]string{
			"company":      d.CompanyNameCached,
			"registration": d.Registration.Hex(),
		},
	})
	h.Log.Info("drive deleted", zap.String("drive_id", d.ID.Hex()))
	respond.Message(w, "Drive deleted")
}
