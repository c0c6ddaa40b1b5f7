// internal/app/features/auditlog/list.go
package auditlog

import (
	"net/http"
	"strings"

	"github.com/Saravanans7/PlaceMate/internal/app/store/audit"
	"github.com/Saravanans7/PlaceMate/internal/app/system/apperr"
	"github.com/Saravanans7/PlaceMate/internal/app/system/paging"
	"github.com/Saravanans7/PlaceMate/internal/app/system/respond"
	"github.com/Saravanans7/PlaceMate/internal/app/system/timeouts"
	"github.com/dalemusser/waffle/pantry/query"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// ServeList handles GET /api/audit?category=&event_type=&start_date=&end_date=&student=&page=&limit=.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	category := strings.TrimSpace(query.Get(r, "category"))
	eventType := strings.TrimSpace(query.Get(r, "event_type"))
	if category != "" && eventTypesForCategory(category) == nil {
		respond.Error(w, h.Log, apperr.Validation("unknown category %q", category))
		return
	}

	p := paging.Parse(r)
	filter := audit.QueryFilter{
		Category:  category,
		EventType: eventType,
		Limit:     int64(p.Limit),
		Offset:    p.Skip(),
	}

	if v := query.Get(r, "start_date"); v != "" {
		t, err := h.Clock.ParseDate(v)
		if err != nil {
			respond.Error(w, h.Log, apperr.Validation("start_date must be YYYY-MM-DD"))
			return
		}
		start, _ := h.Clock.DayBounds(t)
		filter.StartTime = &start
	}
	if v := query.Get(r, "end_date"); v != "" {
		t, err := h.Clock.ParseDate(v)
		if err != nil {
			respond.Error(w, h.Log, apperr.Validation("end_date must be YYYY-MM-DD"))
			return
		}
		_, end := h.Clock.DayBounds(t)
		filter.EndTime = &end
	}
	if v := query.Get(r, "student"); v != "" {
		id, err := primitive.ObjectIDFromHex(v)
		if err != nil {
			respond.Error(w, h.Log, apperr.Validation("invalid student"))
			return
		}
		filter.UserID = &id
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Long(), h.Log, "audit log list")
	defer cancel()

	events, err := h.Events.Query(ctx, filter)
	if err != nil {
		respond.Error(w, h.Log, apperr.Internal(err, "query audit events"))
		return
	}
	total, err := h.Events.Count(ctx, filter)
	if err != nil {
		respond.Error(w, h.Log, apperr.Internal(err, "count audit events"))
		return
	}

	// Resolve actor and subject names in one query.
	seen := make(map[primitive.ObjectID]struct{})
	var ids []primitive.ObjectID
	for _, e := range events {
		for _, id := range []*primitive.ObjectID{e.ActorID, e.UserID} {
			if id == nil {
				continue
			}
			if _, ok := seen[*id]; !ok {
				seen[*id] = struct{}{}
				ids = append(ids, *id)
			}
		}
	}
	names := make(map[primitive.ObjectID]string, len(ids))
	if users, err := h.Users.ByIDs(ctx, ids); err != nil {
		h.Log.Warn("failed to fetch user names for audit log", zap.Error(err))
	} else {
		for _, u := range users {
			names[u.ID] = u.Name
		}
	}
	nameOf := func(id *primitive.ObjectID) string {
		if id == nil {
			return ""
		}
		if n, ok := names[*id]; ok {
			return n
		}
		return id.Hex()
	}

	items := make([]listItem, 0, len(events))
	for _, e := range events {
		item := listItem{
			ID:          e.ID.Hex(),
			CreatedAt:   e.CreatedAt,
			Category:    e.Category,
			EventType:   e.EventType,
			ActorName:   nameOf(e.ActorID),
			SubjectName: nameOf(e.UserID),
			TargetType:  e.TargetType,
			IP:          e.IP,
			Success:     e.Success,
			Reason:      e.FailureReason,
			Details:     e.Details,
		}
		if e.TargetID != nil {
			item.TargetID = e.TargetID.Hex()
		}
		items = append(items, item)
	}
	respond.OK(w, paging.NewPage(items, p, total))
}

// ServeCategories handles GET /api/audit/categories.
func (h *Handler) ServeCategories(w http.ResponseWriter, r *http.Request) {
	respond.OK(w, allCategories())
}
