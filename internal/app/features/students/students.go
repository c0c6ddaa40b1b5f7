// internal/app/features/students/students.go
package students

import (
	"context"
	"net/http"
	"strconv"

	"github.com/Saravanans7/PlaceMate/internal/app/store/audit"
	userstore "github.com/Saravanans7/PlaceMate/internal/app/store/users"
	"github.com/Saravanans7/PlaceMate/internal/app/system/apperr"
	"github.com/Saravanans7/PlaceMate/internal/app/system/auditlog"
	"github.com/Saravanans7/PlaceMate/internal/app/system/authutil"
	"github.com/Saravanans7/PlaceMate/internal/app/system/authz"
	"github.com/Saravanans7/PlaceMate/internal/app/system/paging"
	"github.com/Saravanans7/PlaceMate/internal/app/system/respond"
	"github.com/Saravanans7/PlaceMate/internal/app/system/timeouts"
	"github.com/Saravanans7/PlaceMate/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/query"
	"go.uber.org/zap"
)

func parseFilter(r *http.Request) (userstore.StudentFilter, error) {
	f := userstore.StudentFilter{Query: query.Get(r, "search")}
	if v := query.Get(r, "batch"); v != "" {
		b, err := strconv.Atoi(v)
		if err != nil || b <= 0 {
			return f, apperr.Validation("batch must be a positive number")
		}
		f.Batch = &b
	}
	if v := query.Get(r, "placed"); v != "" {
		placed, err := strconv.ParseBool(v)
		if err != nil {
			return f, apperr.Validation("placed must be true or false")
		}
		f.Placed = &placed
	}
	return f, nil
}

// List handles GET /api/students?batch=&placed=&search=&page=&limit=.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	f, err := parseFilter(r)
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	p := paging.Parse(r)
	items, total, err := h.Users.ListStudents(ctx, f, p)
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	respond.OK(w, paging.NewPage(items, p, total))
}

// Get handles GET /api/students/{id}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := respond.ObjectIDParam(r, "id")
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	u, err := h.Users.GetStudent(ctx, id)
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	respond.OK(w, u)
}

// Create handles POST /api/students. The password is optional; a student
// without one signs in with Google.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	_, _, actor, _ := authz.UserCtx(r)

	var in createInput
	if err := respond.Decode(r, &in); err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	u := models.User{
		Name:           in.Name,
		Email:          in.Email,
		Username:       in.Username,
		Role:           models.RoleStudent,
		AcademicRecord: in.academicInput.apply(models.AcademicRecord{}),
		RollNumber:     in.RollNumber,
		Phone:          in.Phone,
		NativePlace:    in.NativePlace,
	}
	if in.Password != "" {
		if err := authutil.ValidatePassword(in.Password); err != nil {
			respond.Fail(w, http.StatusBadRequest, authutil.PasswordRules())
			return
		}
		hash, err := authutil.HashPassword(in.Password)
		if err != nil {
			respond.Error(w, h.Log, apperr.Internal(err, "hash password"))
			return
		}
		u.PasswordHash = hash
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	created, err := h.Users.Create(ctx, u)
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	student := created.ID
	h.AuditLog.Admin(ctx, r, auditlog.Action{
		EventType:  audit.EventStudentCreated,
		Actor:      actor,
		TargetType: "user",
		Target:     created.ID,
		Student:    &student,
	})
	respond.Created(w, created)
}

// Update handles PUT /api/students/{id}. Placement fields cannot be edited
// here; only finalization sets them.
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

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	upd := userstore.StudentUpdate{
		ContactUpdate: userstore.ContactUpdate{
			Name:        in.Name,
			Phone:       in.Phone,
			NativePlace: in.NativePlace,
		},
		Email:      in.Email,
		RollNumber: in.RollNumber,
	}
	if in.academicInput.any() {
		current, err := h.Users.GetStudent(ctx, id)
		if err != nil {
			respond.Error(w, h.Log, err)
			return
		}
		rec := in.academicInput.apply(current.AcademicRecord)
		upd.Academic = &rec
	}

	u, err := h.Users.UpdateStudent(ctx, id, upd)
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	h.AuditLog.Admin(ctx, r, auditlog.Action{
		EventType:  audit.EventStudentUpdated,
		Actor:      actor,
		TargetType: "user",
		Target:     u.ID,
		Student:    &u.ID,
	})
	respond.OK(w, u)
}

// Delete handles DELETE /api/students/{id}. The student's applications go
// with them.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	_, _, actor, _ := authz.UserCtx(r)
	id, err := respond.ObjectIDParam(r, "id")
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	if err := h.Svc.DeleteStudent(ctx, id); err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	h.AuditLog.Admin(ctx, r, auditlog.Action{
		EventType:  audit.EventStudentDeleted,
		Actor:      actor,
		TargetType: "user",
		Target:     id,
		Student:    &id,
	})
	h.Log.Info("student deleted", zap.String("student_id", id.Hex()))
	respond.Message(w, "Student deleted")
}

// Stats handles GET /api/stats/batches.
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	stats, err := h.Users.BatchStats(ctx)
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	if stats == nil {
		stats = []userstore.BatchStat{}
	}
	respond.OK(w, stats)
}
