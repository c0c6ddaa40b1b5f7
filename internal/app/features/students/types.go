// internal/app/features/students/types.go
package students

import "github.com/Saravanans7/PlaceMate/internal/domain/models"

type academicInput struct {
	CGPA             *float64 `json:"cgpa" validate:"omitempty,gte=0,lte=10"`
	Arrears          *int     `json:"arrears" validate:"omitempty,gte=0"`
	HistoryOfArrears *int     `json:"historyOfArrears" validate:"omitempty,gte=0"`
	TenthPercent     *float64 `json:"tenthPercent" validate:"omitempty,gte=0,lte=100"`
	TwelfthPercent   *float64 `json:"twelfthPercent" validate:"omitempty,gte=0,lte=100"`
	Batch            *int     `json:"batch" validate:"omitempty,gte=2000,lte=2100"`
}

func (a academicInput) any() bool {
	return a.CGPA != nil || a.Arrears != nil || a.HistoryOfArrears != nil ||
		a.TenthPercent != nil || a.TwelfthPercent != nil || a.Batch != nil
}

// apply overlays the given fields on rec.
func (a academicInput) apply(rec models.AcademicRecord) models.AcademicRecord {
	if a.CGPA != nil {
		rec.CGPA = *a.CGPA
	}
	if a.Arrears != nil {
		rec.Arrears = *a.Arrears
	}
	if a.HistoryOfArrears != nil {
		rec.HistoryOfArrears = *a.HistoryOfArrears
	}
	if a.TenthPercent != nil {
		rec.TenthPercent = *a.TenthPercent
	}
	if a.TwelfthPercent != nil {
		rec.TwelfthPercent = *a.TwelfthPercent
	}
	if a.Batch != nil {
		rec.Batch = *a.Batch
	}
	return rec
}

type createInput struct {
	academicInput
	Name        string `json:"name" validate:"required,max=120"`
	Email       string `json:"email" validate:"required,email"`
	Username    string `json:"username" validate:"omitempty,alphanum,max=40"`
	Password    string `json:"password"`
	RollNumber  string `json:"rollNumber" validate:"max=40"`
	Phone       string `json:"phone" validate:"max=20"`
	NativePlace string `json:"nativePlace" validate:"max=120"`
}

type updateInput struct {
	academicInput
	Name        *string `json:"name" validate:"omitempty,max=120"`
	Email       *string `json:"email" validate:"omitempty,email"`
	RollNumber  *string `json:"rollNumber" validate:"omitempty,max=40"`
	Phone       *string `json:"phone" validate:"omitempty,max=20"`
	NativePlace *string `json:"nativePlace" validate:"omitempty,max=120"`
}

// rowError reports an import row that was skipped.
type rowError struct {
	Line    int    `json:"line"`
	Message string `json:"message"`
}

type importView struct {
	Created    int        `json:"created"`
	Duplicates int        `json:"duplicates"`
	Invalid    []rowError `json:"invalid"`
}
