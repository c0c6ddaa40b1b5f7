// internal/domain/models/experience.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Experience moderation statuses.
const (
	ExperiencePending  = "pending"
	ExperienceApproved = "approved"
	ExperienceRejected = "rejected"
)

// Experience is an interview write-up by a placed student.
type Experience struct {
	ID                primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Student           primitive.ObjectID `bson:"student" json:"student"`
	StudentName       string             `bson:"student_name" json:"studentName"`
	Company           primitive.ObjectID `bson:"company" json:"company"`
	CompanyNameCached string             `bson:"company_name_cached" json:"companyNameCached"`
	CompanyNameCI     string             `bson:"company_name_ci" json:"-"`
	Title             string             `bson:"title" json:"title"`
	Content           string             `bson:"content" json:"content"` // sanitized HTML
	Questions         []string           `bson:"questions,omitempty" json:"questions,omitempty"`
	Attachments       []string           `bson:"attachments,omitempty" json:"attachments,omitempty"`
	Status            string             `bson:"status" json:"status"`

	ReviewedBy *primitive.ObjectID `bson:"reviewed_by,omitempty" json:"reviewedBy,omitempty"`
	ReviewedAt *time.Time          `bson:"reviewed_at,omitempty" json:"reviewedAt,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"createdAt"`
	UpdatedAt time.Time `bson:"updated_at" json:"updatedAt"`
}
