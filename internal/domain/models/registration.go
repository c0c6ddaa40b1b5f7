// internal/domain/models/registration.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Registration statuses.
const (
	RegistrationOpen      = "open"
	RegistrationClosed    = "closed"
	RegistrationCompleted = "completed"
)

// EligibilityRule is a set of optional thresholds. A nil threshold or an
// empty AcceptedBatches list places no constraint on that dimension.
type EligibilityRule struct {
	MinCGPA           *float64 `bson:"min_cgpa,omitempty" json:"minCgpa,omitempty"`
	MaxArrears        *int     `bson:"max_arrears,omitempty" json:"maxArrears,omitempty"`
	MaxHistoryArrears *int     `bson:"max_history_arrears,omitempty" json:"maxHistoryArrears,omitempty"`
	MinTenthPercent   *float64 `bson:"min_tenth_percent,omitempty" json:"minTenthPercent,omitempty"`
	MinTwelfthPercent *float64 `bson:"min_twelfth_percent,omitempty" json:"minTwelfthPercent,omitempty"`
	AcceptedBatches   []int    `bson:"accepted_batches,omitempty" json:"acceptedBatches,omitempty"`
}

// CustomField is an extra question asked at apply time.
type CustomField struct {
	Key      string `bson:"key" json:"key" validate:"required"`
	Label    string `bson:"label" json:"label"`
	Type     string `bson:"type" json:"type"` // text | number | url | select
	Required bool   `bson:"required" json:"required"`
}

// Registration is an application window for one company's drive.
// CompanyNameCached is frozen at creation.
type Registration struct {
	ID                primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Company           primitive.ObjectID `bson:"company" json:"company"`
	CompanyNameCached string             `bson:"company_name_cached" json:"companyNameCached"`
	CompanyNameCI     string             `bson:"company_name_ci" json:"-"`
	Batch             int                `bson:"batch" json:"batch"`
	DriveDate         time.Time          `bson:"drive_date" json:"driveDate"`
	Eligibility       EligibilityRule    `bson:"eligibility" json:"eligibility"`
	CustomFields      []CustomField      `bson:"custom_fields,omitempty" json:"customFields,omitempty"`
	Status            string             `bson:"status" json:"status"`

	MailSent       bool   `bson:"mail_sent" json:"mailSent"`
	ReminderSentOn string `bson:"reminder_sent_on,omitempty" json:"-"` // YYYY-MM-DD in campus time

	CreatedBy *primitive.ObjectID `bson:"created_by,omitempty" json:"createdBy,omitempty"`
	CreatedAt time.Time           `bson:"created_at" json:"createdAt"`
	UpdatedAt time.Time           `bson:"updated_at" json:"updatedAt"`
}

// NotificationBatches returns the batches whose students are told about the
// registration: the accepted batches when set, otherwise the registration batch.
func (r Registration) NotificationBatches() []int {
	if len(r.Eligibility.AcceptedBatches) > 0 {
		return r.Eligibility.AcceptedBatches
	}
	return []int{r.Batch}
}
