// internal/app/features/registrations/types.go
package registrations

import (
	"github.com/Saravanans7/PlaceMate/internal/domain/models"
)

type eligibilityInput struct {
	MinCGPA           *float64 `json:"minCgpa" validate:"omitempty,gte=0,lte=10"`
	MaxArrears        *int     `json:"maxArrears" validate:"omitempty,gte=0"`
	MaxHistoryArrears *int     `json:"maxHistoryArrears" validate:"omitempty,gte=0"`
	MinTenthPercent   *float64 `json:"minTenthPercent" validate:"omitempty,gte=0,lte=100"`
	MinTwelfthPercent *float64 `json:"minTwelfthPercent" validate:"omitempty,gte=0,lte=100"`
	AcceptedBatches   []int    `json:"acceptedBatches" validate:"omitempty,dive,gt=0"`
}

func (e *eligibilityInput) rule() *models.EligibilityRule {
	if e == nil {
		return nil
	}
	return &models.EligibilityRule{
		MinCGPA:           e.MinCGPA,
		MaxArrears:        e.MaxArrears,
		MaxHistoryArrears: e.MaxHistoryArrears,
		MinTenthPercent:   e.MinTenthPercent,
		MinTwelfthPercent: e.MinTwelfthPercent,
		AcceptedBatches:   e.AcceptedBatches,
	}
}

type customFieldInput struct {
	Key      string `json:"key" validate:"required,max=40"`
	Label    string `json:"label" validate:"max=120"`
	Type     string `json:"type" validate:"omitempty,oneof=text number url select"`
	Required bool   `json:"required"`
}

func customFields(in []customFieldInput) []models.CustomField {
	if in == nil {
		return nil
	}
	out := make([]models.CustomField, len(in))
	for i, f := range in {
		t := f.Type
		if t == "" {
			t = "text"
		}
		label := f.Label
		if label == "" {
			label = f.Key
		}
		out[i] = models.CustomField{Key: f.Key, Label: label, Type: t, Required: f.Required}
	}
	return out
}

type createInput struct {
	Company      string             `json:"company" validate:"required"`
	Batch        int                `json:"batch" validate:"required,gt=0"`
	DriveDate    string             `json:"driveDate" validate:"required"`
	Eligibility  *eligibilityInput  `json:"eligibility"`
	CustomFields []customFieldInput `json:"customFields" validate:"omitempty,dive"`
}

type updateInput struct {
	Batch        *int               `json:"batch" validate:"omitempty,gt=0"`
	DriveDate    *string            `json:"driveDate"`
	Eligibility  *eligibilityInput  `json:"eligibility"`
	CustomFields []customFieldInput `json:"customFields" validate:"omitempty,dive"`
	Status       *string            `json:"status" validate:"omitempty,oneof=open closed"`
}

type applyInput struct {
	Answers []models.Answer `json:"answers"`
}

// registrationView is a registration as listed. ApplicantCount and HasDrive
// are filled for staff; Applied for students.
type registrationView struct {
	models.Registration
	ApplicantCount *int  `json:"applicantCount,omitempty"`
	HasDrive       *bool `json:"hasDrive,omitempty"`
	Applied        *bool `json:"applied,omitempty"`
}

// eligibilityView answers GET /api/registrations/{id}/eligibility.
type eligibilityView struct {
	Eligible    bool   `json:"eligible"`
	Blacklisted bool   `json:"blacklisted"`
	Reason      string `json:"reason,omitempty"`
}
