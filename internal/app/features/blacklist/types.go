// internal/app/features/blacklist/types.go
package blacklist

import (
	"github.com/Saravanans7/PlaceMate/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type addInput struct {
	Student string `json:"studentId" validate:"required,len=24,hexadecimal"`
	Reason  string `json:"reason" validate:"required,max=500"`
}

type removeInput struct {
	Student string `json:"studentId" validate:"required,len=24,hexadecimal"`
	Reason  string `json:"reason" validate:"required,max=500"`
}

// studentRef is the part of a student shown beside an entry.
type studentRef struct {
	ID         primitive.ObjectID `json:"id"`
	Name       string             `json:"name"`
	Email      string             `json:"email"`
	RollNumber string             `json:"rollNumber,omitempty"`
	Batch      int                `json:"batch,omitempty"`
}

func refOf(u models.User) *studentRef {
	return &studentRef{ID: u.ID, Name: u.Name, Email: u.Email, RollNumber: u.RollNumber, Batch: u.Batch}
}

type entryView struct {
	models.BlacklistEntry
	StudentDetail *studentRef `json:"studentDetail,omitempty"`
}

type searchResult struct {
	studentRef
	IsBlacklisted bool `json:"isBlacklisted"`
}
