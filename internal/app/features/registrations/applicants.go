// internal/app/features/registrations/applicants.go
package registrations

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/Saravanans7/PlaceMate/internal/app/placement"
	"github.com/Saravanans7/PlaceMate/internal/app/system/respond"
	"github.com/Saravanans7/PlaceMate/internal/app/system/sheets"
	"github.com/Saravanans7/PlaceMate/internal/app/system/timeouts"
	"github.com/Saravanans7/PlaceMate/internal/domain/models"
	"go.uber.org/zap"
)

type applicantsView struct {
	Registration models.Registration   `json:"registration"`
	Applicants   []placement.Applicant `json:"applicants"`
}

// Applicants handles GET /api/registrations/{id}/applicants.
func (h *Handler) Applicants(w http.ResponseWriter, r *http.Request) {
	id, err := respond.ObjectIDParam(r, "id")
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	reg, applicants, err := h.Svc.Applicants(ctx, id)
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	respond.OK(w, applicantsView{Registration: reg, Applicants: applicants})
}

// Export handles GET /api/registrations/{id}/applicants/export. Custom
// field answers get one column each after the academic columns.
func (h *Handler) Export(w http.ResponseWriter, r *http.Request) {
	id, err := respond.ObjectIDParam(r, "id")
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	reg, applicants, err := h.Svc.Applicants(ctx, id)
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}

	t := applicantTable(reg, applicants, h.Svc.Clock().DateKey)
	filename := fmt.Sprintf("%s_applicants_%d.xlsx", fileSafe(reg.CompanyNameCached), reg.Batch)
	if err := sheets.Serve(w, filename, t); err != nil {
		h.Log.Error("export applicants failed", zap.String("registration_id", id.Hex()), zap.Error(err))
	}
}

func applicantTable(reg models.Registration, applicants []placement.Applicant, dateKey func(time.Time) string) sheets.Table {
	header := []string{"Name", "Roll Number", "Email", "Phone", "Batch", "CGPA", "Arrears", "History of Arrears", "10th %", "12th %", "Applied On"}
	widths := []float64{24, 16, 30, 16, 8, 8, 10, 18, 10, 10, 14}
	for _, f := range reg.CustomFields {
		header = append(header, f.Label)
		widths = append(widths, 20)
	}

	rows := make([][]any, 0, len(applicants))
	for _, a := range applicants {
		s := a.Student
		row := []any{
			s.Name, s.RollNumber, s.Email, s.Phone, s.Batch,
			s.CGPA, s.Arrears, s.HistoryOfArrears, s.TenthPercent, s.TwelfthPercent,
			dateKey(a.RegisteredAt),
		}
		answers := make(map[string]string, len(a.Answers))
		for _, ans := range a.Answers {
			answers[ans.Key] = ans.Value
		}
		for _, f := range reg.CustomFields {
			row = append(row, answers[f.Key])
		}
		rows = append(rows, row)
	}
	return sheets.Table{Sheet: "Applicants", Header: header, Rows: rows, Widths: widths}
}

// fileSafe turns a company name into a filename fragment.
func fileSafe(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return "registration"
	}
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-':
			return r
		}
		return '_'
	}, name)
}
