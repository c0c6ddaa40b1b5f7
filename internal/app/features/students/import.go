// internal/app/features/students/import.go
package students

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/Saravanans7/PlaceMate/internal/app/store/audit"
	"github.com/Saravanans7/PlaceMate/internal/app/system/apperr"
	"github.com/Saravanans7/PlaceMate/internal/app/system/auditlog"
	"github.com/Saravanans7/PlaceMate/internal/app/system/authz"
	"github.com/Saravanans7/PlaceMate/internal/app/system/limits"
	"github.com/Saravanans7/PlaceMate/internal/app/system/normalize"
	"github.com/Saravanans7/PlaceMate/internal/app/system/respond"
	"github.com/Saravanans7/PlaceMate/internal/app/system/sheets"
	"github.com/Saravanans7/PlaceMate/internal/app/system/timeouts"
	"github.com/Saravanans7/PlaceMate/internal/domain/models"
	"go.uber.org/zap"
)

// Import handles POST /api/users/students/bulk with an .xlsx in the "file"
// field. The header row names the columns: name, email, rollNumber, batch,
// cgpa, arrears, historyOfArrears, tenthPercent, twelfthPercent, phone.
// Rows that fail to parse are reported and skipped; existing emails are
// counted as duplicates.
func (h *Handler) Import(w http.ResponseWriter, r *http.Request) {
	_, _, actor, _ := authz.UserCtx(r)

	r.Body = http.MaxBytesReader(w, r.Body, limits.MaxImportSize)
	file, _, err := r.FormFile("file")
	if err != nil {
		respond.Error(w, h.Log, apperr.Validation("an .xlsx file is required in the \"file\" field"))
		return
	}
	defer file.Close()

	records, err := sheets.Read(file)
	switch {
	case errors.Is(err, sheets.ErrEmpty):
		respond.Error(w, h.Log, apperr.Validation("the sheet has no student rows"))
		return
	case err != nil:
		h.Log.Warn("student import unreadable", zap.Error(err))
		respond.Error(w, h.Log, apperr.Validation("the file is not a readable Excel workbook"))
		return
	case len(records) > limits.MaxImportRows:
		respond.Error(w, h.Log, apperr.Validation(fmt.Sprintf("at most %d rows per import", limits.MaxImportRows)))
		return
	}

	out := importView{Invalid: []rowError{}}
	students := make([]models.User, 0, len(records))
	for _, rec := range records {
		u, err := studentFromRecord(rec)
		if err != nil {
			out.Invalid = append(out.Invalid, rowError{Line: rec.Line, Message: err.Error()})
			continue
		}
		students = append(students, u)
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Batch(), h.Log, "student import")
	defer cancel()

	res, err := h.Users.CreateStudents(ctx, students)
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	out.Created = res.Created
	out.Duplicates = res.Duplicates

	h.AuditLog.Admin(ctx, r, auditlog.Action{
		EventType:  audit.EventStudentsImported,
		Actor:      actor,
		TargetType: "user",
		Details: map[string]string{
			"created":    strconv.Itoa(out.Created),
			"duplicates": strconv.Itoa(out.Duplicates),
			"invalid":    strconv.Itoa(len(out.Invalid)),
		},
	})
	h.Log.Info("students imported",
		zap.Int("created", out.Created),
		zap.Int("duplicates", out.Duplicates),
		zap.Int("invalid", len(out.Invalid)))
	respond.OK(w, out)
}

// studentFromRecord maps one sheet row to a student.
func studentFromRecord(rec sheets.Record) (models.User, error) {
	u := models.User{
		Name:        normalize.Name(rec.Get("name")),
		Email:       normalize.Email(rec.Get("email")),
		Role:        models.RoleStudent,
		RollNumber:  rec.Get("rollnumber"),
		Phone:       rec.Get("phone"),
		NativePlace: rec.Get("nativeplace"),
	}
	if u.Name == "" || u.Email == "" {
		return u, errors.New("name and email are required")
	}
	if !strings.Contains(u.Email, "@") {
		return u, fmt.Errorf("email %q is not valid", u.Email)
	}

	var err error
	if u.Batch, err = intField(rec, "batch"); err != nil {
		return u, err
	}
	if u.CGPA, err = floatField(rec, "cgpa", 10); err != nil {
		return u, err
	}
	if u.Arrears, err = intField(rec, "arrears"); err != nil {
		return u, err
	}
	if u.HistoryOfArrears, err = intField(rec, "historyofarrears"); err != nil {
		return u, err
	}
	if u.TenthPercent, err = floatField(rec, "tenthpercent", 100); err != nil {
		return u, err
	}
	if u.TwelfthPercent, err = floatField(rec, "twelfthpercent", 100); err != nil {
		return u, err
	}
	return u, nil
}

func intField(rec sheets.Record, key string) (int, error) {
	v := rec.Get(key)
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		// Spreadsheet numbers often arrive as "2025.0".
		f, ferr := strconv.ParseFloat(v, 64)
		if ferr != nil || f != float64(int(f)) {
			return 0, fmt.Errorf("%s %q is not a whole number", key, v)
		}
		n = int(f)
	}
	if n < 0 {
		return 0, fmt.Errorf("%s cannot be negative", key)
	}
	return n, nil
}

func floatField(rec sheets.Record, key string, max float64) (float64, error) {
	v := rec.Get(key)
	if v == "" {
		return 0, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("%s %q is not a number", key, v)
	}
	if f < 0 || f > max {
		return 0, fmt.Errorf("%s must be between 0 and %g", key, max)
	}
	return f, nil
}
