// internal/app/features/drives/rounds.go
package drives

import (
	"context"
	"net/http"
	"strconv"

	"github.com/Saravanans7/PlaceMate/internal/app/store/audit"
	"github.com/Saravanans7/PlaceMate/internal/app/system/apperr"
	"github.com/Saravanans7/PlaceMate/internal/app/system/auditlog"
	"github.com/Saravanans7/PlaceMate/internal/app/system/authz"
	"github.com/Saravanans7/PlaceMate/internal/app/system/respond"
	"github.com/Saravanans7/PlaceMate/internal/app/system/timeouts"
	"github.com/Saravanans7/PlaceMate/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Announce handles POST /api/drives/{id}/announcement {text}.
func (h *Handler) Announce(w http.ResponseWriter, r *http.Request) {
	_, _, actor, _ := authz.UserCtx(r)
	id, err := respond.ObjectIDParam(r, "id")
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	var in announcementInput
	if err := respond.Decode(r, &in); err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	d, err := h.Svc.Announce(ctx, id, in.Text, actor)
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	h.AuditLog.Placement(ctx, r, auditlog.Action{
		EventType:  audit.EventAnnouncement,
		Actor:      actor,
		TargetType: "drive",
		Target:     d.ID,
	})
	respond.OK(w, view(d))
}

// Shortlist handles POST /api/drives/{id}/rounds/{i}/shortlist {studentIds}.
func (h *Handler) Shortlist(w http.ResponseWriter, r *http.Request) {
	_, _, actor, _ := authz.UserCtx(r)
	id, err := respond.ObjectIDParam(r, "id")
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	i, err := respond.IntParam(r, "i")
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	var in shortlistInput
	if err := respond.Decode(r, &in); err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	ids, err := respond.ObjectIDs("studentIds", in.StudentIDs)
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	d, err := h.Svc.Shortlist(ctx, id, i, ids)
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	h.AuditLog.Placement(ctx, r, auditlog.Action{
		EventType:  audit.EventShortlistUpdated,
		Actor:      actor,
		TargetType: "drive",
		Target:     d.ID,
		Details: map[string]string{
			"round":       strconv.Itoa(i),
			"shortlisted": strconv.Itoa(len(d.Rounds[i].Shortlisted)),
		},
	})
	respond.OK(w, view(d))
}

// Results handles POST /api/drives/{id}/rounds/{i}/results
// {results, nextRoundIndex}.
func (h *Handler) Results(w http.ResponseWriter, r *http.Request) {
	_, _, actor, _ := authz.UserCtx(r)
	id, err := respond.ObjectIDParam(r, "id")
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	i, err := respond.IntParam(r, "i")
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	var in resultsInput
	if err := respond.Decode(r, &in); err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	results := make([]models.RoundResult, len(in.Results))
	for k, res := range in.Results {
		sid, err := primitive.ObjectIDFromHex(res.Student)
		if err != nil {
			respond.Error(w, h.Log, apperr.Validation("results[%d].student must be a valid id", k))
			return
		}
		results[k] = models.RoundResult{Student: sid, Status: models.RoundStatus(res.Status), Notes: res.Notes}
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	d, err := h.Svc.RecordResults(ctx, id, i, results, in.NextRoundIndex)
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	details := map[string]string{
		"round":   strconv.Itoa(i),
		"results": strconv.Itoa(len(results)),
	}
	if in.NextRoundIndex != nil {
		details["next_round"] = strconv.Itoa(*in.NextRoundIndex)
	}
	h.AuditLog.Placement(ctx, r, auditlog.Action{
		EventType:  audit.EventResultsRecorded,
		Actor:      actor,
		TargetType: "drive",
		Target:     d.ID,
		Details:    details,
	})
	respond.OK(w, view(d))
}

// Finalize handles POST /api/drives/{id}/finalize {finalSelected, close}.
func (h *Handler) Finalize(w http.ResponseWriter, r *http.Request) {
	_, _, actor, _ := authz.UserCtx(r)
	id, err := respond.ObjectIDParam(r, "id")
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	var in finalizeInput
	if err := respond.Decode(r, &in); err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	selected, err := respond.ObjectIDs("finalSelected", in.FinalSelected)
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	res, err := h.Svc.Finalize(ctx, id, selected, in.Close)
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	if in.Close {
		h.AuditLog.Placement(ctx, r, auditlog.Action{
			EventType:  audit.EventDriveFinalized,
			Actor:      actor,
			TargetType: "drive",
			Target:     res.Drive.ID,
			Details: map[string]string{
				"company":      res.Drive.CompanyNameCached,
				"selected":     strconv.Itoa(len(res.Drive.FinalSelected)),
				"newly_placed": strconv.Itoa(len(res.NewlyPlaced)),
			},
		})
	}
	respond.OK(w, res)
}
