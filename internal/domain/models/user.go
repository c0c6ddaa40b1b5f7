// internal/domain/models/user.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Roles.
const (
	RoleStudent = "student"
	RoleStaff   = "staff"
)

// AcademicRecord is the slice of a student profile that eligibility rules
// are evaluated against. Missing values are stored as zero.
type AcademicRecord struct {
	CGPA             float64 `bson:"cgpa" json:"cgpa"`
	Arrears          int     `bson:"arrears" json:"arrears"`
	HistoryOfArrears int     `bson:"history_of_arrears" json:"historyOfArrears"`
	TenthPercent     float64 `bson:"tenth_percent" json:"tenthPercent"`
	TwelfthPercent   float64 `bson:"twelfth_percent" json:"twelfthPercent"`
	Batch            int     `bson:"batch,omitempty" json:"batch,omitempty"`
}

// User represents students and placement staff.
//
// Placement fields are written only by drive finalization and only ever move
// from not-placed to placed.
type User struct {
	ID       primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name     string             `bson:"name" json:"name"`
	NameCI   string             `bson:"name_ci" json:"-"` // lowercase, diacritics-stripped
	Username string             `bson:"username,omitempty" json:"username,omitempty"`
	Email    string             `bson:"email" json:"email"`
	Role     string             `bson:"role" json:"role"` // student | staff

	PasswordHash string `bson:"password_hash,omitempty" json:"-"`
	GoogleID     string `bson:"google_id,omitempty" json:"-"`

	AcademicRecord `bson:",inline"`

	RollNumber  string `bson:"roll_number,omitempty" json:"rollNumber,omitempty"`
	Phone       string `bson:"phone,omitempty" json:"phone,omitempty"`
	NativePlace string `bson:"native_place,omitempty" json:"nativePlace,omitempty"`

	IsPlaced          bool                `bson:"is_placed" json:"isPlaced"`
	PlacedAt          *time.Time          `bson:"placed_at,omitempty" json:"placedAt,omitempty"`
	PlacedCompany     *primitive.ObjectID `bson:"placed_company,omitempty" json:"placedCompany,omitempty"`
	PlacedCompanyName string              `bson:"placed_company_name,omitempty" json:"placedCompanyName,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"createdAt"`
	UpdatedAt time.Time `bson:"updated_at" json:"updatedAt"`
}

// IsStaff reports whether the user has the staff role.
func (u User) IsStaff() bool { return u.Role == RoleStaff }
