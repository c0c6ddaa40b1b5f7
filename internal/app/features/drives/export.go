// internal/app/features/drives/export.go
package drives

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/Saravanans7/PlaceMate/internal/app/system/respond"
	"github.com/Saravanans7/PlaceMate/internal/app/system/sheets"
	"github.com/Saravanans7/PlaceMate/internal/app/system/timeouts"
	"github.com/Saravanans7/PlaceMate/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Export handles GET /api/drives/{id}/export: the final selection as .xlsx,
// in selection order.
func (h *Handler) Export(w http.ResponseWriter, r *http.Request) {
	id, err := respond.ObjectIDParam(r, "id")
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	d, err := h.Drives.GetByID(ctx, id)
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	users, err := h.Users.ByIDs(ctx, d.FinalSelected)
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	byID := make(map[primitive.ObjectID]models.User, len(users))
	for _, u := range users {
		byID[u.ID] = u
	}

	date := h.Svc.Clock().DateKey(d.Date)
	rows := make([][]any, 0, len(d.FinalSelected))
	for _, sid := range d.FinalSelected {
		u, ok := byID[sid]
		if !ok {
			continue
		}
		rows = append(rows, []any{u.Name, u.RollNumber, u.Email, u.Phone, u.Batch, u.CGPA, d.CompanyNameCached, date})
	}
	t := sheets.Table{
		Sheet:  "Selected",
		Header: []string{"Name", "Roll Number", "Email", "Phone", "Batch", "CGPA", "Company", "Drive Date"},
		Rows:   rows,
		Widths: []float64{24, 16, 30, 16, 8, 8, 20, 14},
	}
	filename := fmt.Sprintf("%s_selected_%s.xlsx", strings.ReplaceAll(strings.TrimSpace(d.CompanyNameCached), " ", "_"), date)
	if err := sheets.Serve(w, filename, t); err != nil {
		h.Log.Error("export selection failed", zap.String("drive_id", id.Hex()), zap.Error(err))
	}
}
