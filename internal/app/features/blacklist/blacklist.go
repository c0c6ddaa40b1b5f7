// internal/app/features/blacklist/blacklist.go
package blacklist

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/Saravanans7/PlaceMate/internal/app/store/audit"
	userstore "github.com/Saravanans7/PlaceMate/internal/app/store/users"
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

// searchLimit caps GET /search results.
const searchLimit = 20

// List handles GET /api/blacklist?active=&page=&limit=.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	var active *bool
	if v := query.Get(r, "active"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			respond.Error(w, h.Log, apperr.Validation("active must be true or false"))
			return
		}
		active = &b
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	p := paging.Parse(r)
	entries, total, err := h.Blacklist.List(ctx, active, p)
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}

	ids := make([]primitive.ObjectID, 0, len(entries))
	for _, e := range entries {
		ids = append(ids, e.Student)
	}
	users, err := h.Users.ByIDs(ctx, ids)
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	byID := make(map[primitive.ObjectID]models.User, len(users))
	for _, u := range users {
		byID[u.ID] = u
	}

	items := make([]entryView, 0, len(entries))
	for _, e := range entries {
		v := entryView{BlacklistEntry: e}
		if u, ok := byID[e.Student]; ok {
			v.StudentDetail = refOf(u)
		}
		items = append(items, v)
	}
	respond.OK(w, paging.NewPage(items, p, total))
}

// Search handles GET /api/blacklist/search?q=. It finds students by name,
// email or roll number and flags those currently blacklisted.
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	q := strings.TrimSpace(query.Get(r, "q"))
	if q == "" {
		respond.OK(w, []searchResult{})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	students, _, err := h.Users.ListStudents(ctx, userstore.StudentFilter{Query: q}, paging.Params{Page: 1, Limit: searchLimit})
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	ids := make([]primitive.ObjectID, 0, len(students))
	for _, s := range students {
		ids = append(ids, s.ID)
	}
	active, err := h.Blacklist.ActiveAmong(ctx, ids)
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}

	out := make([]searchResult, 0, len(students))
	for _, s := range students {
		out = append(out, searchResult{studentRef: *refOf(s), IsBlacklisted: active[s.ID]})
	}
	respond.OK(w, out)
}

// Add handles POST /api/blacklist.
func (h *Handler) Add(w http.ResponseWriter, r *http.Request) {
	_, _, actor, _ := authz.UserCtx(r)

	var in addInput
	if err := respond.Decode(r, &in); err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	sid, _ := primitive.ObjectIDFromHex(in.Student)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	student, err := h.Users.GetStudent(ctx, sid)
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	e, err := h.Blacklist.Add(ctx, student.ID, actor, strings.TrimSpace(in.Reason), time.Now().UTC())
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}

	h.AuditLog.Admin(ctx, r, auditlog.Action{
		EventType:  audit.EventBlacklistAdded,
		Actor:      actor,
		TargetType: "blacklist",
		Target:     e.ID,
		Student:    &student.ID,
		Details:    map[string]string{"reason": e.Reason},
	})
	h.Log.Info("student blacklisted",
		zap.String("student_id", student.ID.Hex()),
		zap.String("by", actor.Hex()))
	respond.Created(w, entryView{BlacklistEntry: e, StudentDetail: refOf(student)})
}

// Remove handles POST /api/blacklist/remove. The entry is kept, marked
// inactive with who removed it and why.
func (h *Handler) Remove(w http.ResponseWriter, r *http.Request) {
	_, _, actor, _ := authz.UserCtx(r)

	var in removeInput
	if err := respond.Decode(r, &in); err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	sid, _ := primitive.ObjectIDFromHex(in.Student)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	e, err := h.Blacklist.Remove(ctx, sid, actor, strings.TrimSpace(in.Reason), time.Now().UTC())
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}

	h.AuditLog.Admin(ctx, r, auditlog.Action{
		EventType:  audit.EventBlacklistRemoved,
		Actor:      actor,
		TargetType: "blacklist",
		Target:     e.ID,
		Student:    &sid,
		Details:    map[string]string{"reason": e.RemovedReason},
	})
	h.Log.Info("student removed from blacklist",
		zap.String("student_id", sid.Hex()),
		zap.String("by", actor.Hex()))
	respond.OK(w, entryView{BlacklistEntry: e})
}
