// internal/domain/models/company.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// RoundTemplate seeds one round of every drive created for the company.
type RoundTemplate struct {
	Name        string `bson:"name" json:"name" validate:"required"`
	Description string `bson:"description,omitempty" json:"description,omitempty"`
}

// CompanyStats are the aggregate placement counters. They change only when
// a drive is finalized with close=true.
type CompanyStats struct {
	TotalDrives       int        `bson:"total_drives" json:"totalDrives"`
	TotalPlaced       int        `bson:"total_placed" json:"totalPlaced"`
	AvgPlacedPerDrive float64    `bson:"avg_placed_per_drive" json:"avgPlacedPerDrive"`
	LastDriveDate     *time.Time `bson:"last_drive_date,omitempty" json:"lastDriveDate,omitempty"`
}

// Company is a recruiter. Name is unique (case-folded).
type Company struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name        string             `bson:"name" json:"name"`
	NameCI      string             `bson:"name_ci" json:"-"`
	Role        string             `bson:"role,omitempty" json:"role,omitempty"`
	Location    string             `bson:"location,omitempty" json:"location,omitempty"`
	SalaryLPA   float64            `bson:"salary_lpa,omitempty" json:"salaryLPA,omitempty"`
	Description string             `bson:"description,omitempty" json:"description,omitempty"`

	RoundsTemplate []RoundTemplate `bson:"rounds_template" json:"roundsTemplate"`

	CompanyStats `bson:",inline"`
	// FinalizedDrives lists the drives already folded into CompanyStats.
	FinalizedDrives []primitive.ObjectID `bson:"finalized_drives,omitempty" json:"-"`

	CreatedBy *primitive.ObjectID `bson:"created_by,omitempty" json:"createdBy,omitempty"`
	CreatedAt time.Time           `bson:"created_at" json:"createdAt"`
	UpdatedAt time.Time           `bson:"updated_at" json:"updatedAt"`
}
