// internal/domain/models/blacklist.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// BlacklistEntry bars a student from applying while IsActive. Removal is a
// soft update that keeps the audit fields.
type BlacklistEntry struct {
	ID       primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Student  primitive.ObjectID `bson:"student" json:"student"`
	Reason   string             `bson:"reason" json:"reason"`
	AddedBy  primitive.ObjectID `bson:"added_by" json:"addedBy"`
	AddedAt  time.Time          `bson:"added_at" json:"addedAt"`
	IsActive bool               `bson:"is_active" json:"isActive"`

	RemovedBy     *primitive.ObjectID `bson:"removed_by,omitempty" json:"removedBy,omitempty"`
	RemovedAt     *time.Time          `bson:"removed_at,omitempty" json:"removedAt,omitempty"`
	RemovedReason string              `bson:"removed_reason,omitempty" json:"removedReason,omitempty"`
}
