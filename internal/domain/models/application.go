// internal/domain/models/application.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Application statuses.
const (
	ApplicationRegistered = "registered"
	ApplicationWithdrawn  = "withdrawn"
)

// Answer is a response to one of the registration's custom fields.
type Answer struct {
	Key   string `bson:"key" json:"key"`
	Value string `bson:"value" json:"value"`
}

// Application links one student to one registration. There is at most one
// row per (registration, student); withdrawal flips Status instead of deleting.
type Application struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Registration primitive.ObjectID `bson:"registration" json:"registration"`
	Student      primitive.ObjectID `bson:"student" json:"student"`
	Answers      []Answer           `bson:"answers,omitempty" json:"answers,omitempty"`
	Status       string             `bson:"status" json:"status"`
	RegisteredAt time.Time          `bson:"registered_at" json:"registeredAt"`
	WithdrawnAt  *time.Time         `bson:"withdrawn_at,omitempty" json:"withdrawnAt,omitempty"`
	UpdatedAt    time.Time          `bson:"updated_at" json:"updatedAt"`
}
