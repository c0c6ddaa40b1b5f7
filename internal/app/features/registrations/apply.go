// internal/app/features/registrations/apply.go
package registrations

import (
	"context"
	"net/http"

	"github.com/Saravanans7/PlaceMate/internal/app/system/authz"
	"github.com/Saravanans7/PlaceMate/internal/app/system/respond"
	"github.com/Saravanans7/PlaceMate/internal/app/system/timeouts"
	"go.uber.org/zap"
)

// Apply handles POST /api/registrations/{id}/apply.
func (h *Handler) Apply(w http.ResponseWriter, r *http.Request) {
	_, _, uid, _ := authz.UserCtx(r)
	id, err := respond.ObjectIDParam(r, "id")
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	var in applyInput
	if r.ContentLength != 0 {
		if err := respond.Decode(r, &in); err != nil {
			respond.Error(w, h.Log, err)
			return
		}
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	app, err := h.Svc.Apply(ctx, id, uid, in.Answers)
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	h.Log.Info("student applied",
		zap.String("registration_id", id.Hex()),
		zap.String("student_id", uid.Hex()))
	respond.Created(w, app)
}

// Withdraw handles POST /api/registrations/{id}/withdraw.
func (h *Handler) Withdraw(w http.ResponseWriter, r *http.Request) {
	_, _, uid, _ := authz.UserCtx(r)
	id, err := respond.ObjectIDParam(r, "id")
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	app, err := h.Svc.Withdraw(ctx, id, uid)
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	respond.OK(w, app)
}

// Eligibility handles GET /api/registrations/{id}/eligibility.
func (h *Handler) Eligibility(w http.ResponseWriter, r *http.Request) {
	_, _, uid, _ := authz.UserCtx(r)
	id, err := respond.ObjectIDParam(r, "id")
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	res, blacklisted, err := h.Svc.CheckEligibility(ctx, id, uid)
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	view := eligibilityView{Eligible: res.Eligible && !blacklisted, Blacklisted: blacklisted}
	switch {
	case blacklisted:
		view.Reason = "You are blacklisted and cannot apply for placements"
	case !res.Eligible:
		view.Reason = res.Reason()
	}
	respond.OK(w, view)
}

// Mine handles GET /api/registrations/mine: the student's active
// applications with their registrations.
func (h *Handler) Mine(w http.ResponseWriter, r *http.Request) {
	_, _, uid, _ := authz.UserCtx(r)
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	apps, err := h.Svc.StudentApplications(ctx, uid)
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	respond.OK(w, apps)
}
