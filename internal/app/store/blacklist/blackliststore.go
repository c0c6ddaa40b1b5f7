// internal/app/store/blacklist/blackliststore.go
package blackliststore

import (
	"context"
	"errors"
	"time"

	"github.com/Saravanans7/PlaceMate/internal/app/system/apperr"
	"github.com/Saravanans7/PlaceMate/internal/app/system/paging"
	"github.com/Saravanans7/PlaceMate/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	ErrAlreadyActive = apperr.Conflict("Student is already blacklisted")
	ErrNotActive     = apperr.NotFound("Student is not blacklisted")
)

// Store holds blacklist entries. At most one active entry exists per
// student (uniq_blacklist_active_student); removal is a soft update.
type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("blacklist")}
}

// Add creates an active entry for student.
func (s *Store) Add(ctx context.Context, student, addedBy primitive.ObjectID, reason string, now time.Time) (models.BlacklistEntry, error) {
	e := models.BlacklistEntry{
		ID:       primitive.NewObjectID(),
		Student:  student,
		Reason:   reason,
		AddedBy:  addedBy,
		AddedAt:  now,
		IsActive: true,
	}
	if _, err := s.c.InsertOne(ctx, e); err != nil {
		if wafflemongo.IsDup(err) {
			return models.BlacklistEntry{}, ErrAlreadyActive
		}
		return models.BlacklistEntry{}, apperr.Internal(err, "add blacklist entry")
	}
	return e, nil
}

// Remove deactivates the student's active entry and records who removed it.
func (s *Store) Remove(ctx context.Context, student, removedBy primitive.ObjectID, reason string, now time.Time) (models.BlacklistEntry, error) {
	var e models.BlacklistEntry
	err := s.c.FindOneAndUpdate(ctx,
		bson.M{"student": student, "is_active": true},
		bson.M{"$set": bson.M{
			"is_active":      false,
			"removed_by":     removedBy,
			"removed_at":     now,
			"removed_reason": reason,
		}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&e)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.BlacklistEntry{}, ErrNotActive
	}
	if err != nil {
		return models.BlacklistEntry{}, apperr.Internal(err, "remove blacklist entry")
	}
	return e, nil
}

// IsActive reports whether student has an active entry.
func (s *Store) IsActive(ctx context.Context, student primitive.ObjectID) (bool, error) {
	n, err := s.c.CountDocuments(ctx, bson.M{"student": student, "is_active": true}, options.Count().SetLimit(1))
	if err != nil {
		return false, apperr.Internal(err, "check blacklist")
	}
	return n > 0, nil
}

// ActiveAmong returns the subset of students with an active entry.
func (s *Store) ActiveAmong(ctx context.Context, students []primitive.ObjectID) (map[primitive.ObjectID]bool, error) {
	out := make(map[primitive.ObjectID]bool)
	if len(students) == 0 {
		return out, nil
	}
	vals, err := s.c.Distinct(ctx, "student", bson.M{"student": bson.M{"$in": students}, "is_active": true})
	if err != nil {
		return nil, apperr.Internal(err, "check blacklist")
	}
	for _, v := range vals {
		if id, ok := v.(primitive.ObjectID); ok {
			out[id] = true
		}
	}
	return out, nil
}

// List returns a page of entries, newest first. active filters by state
// when non-nil.
func (s *Store) List(ctx context.Context, active *bool, p paging.Params) ([]models.BlacklistEntry, int64, error) {
	filter := bson.M{}
	if active != nil {
		filter["is_active"] = *active
	}
	total, err := s.c.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, apperr.Internal(err, "count blacklist")
	}
	find := p.ApplyToFind(options.Find().SetSort(bson.D{{Key: "added_at", Value: -1}, {Key: "_id", Value: -1}}))
	cur, err := s.c.Find(ctx, filter, find)
	if err != nil {
		return nil, 0, apperr.Internal(err, "list blacklist")
	}
	defer cur.Close(ctx)
	var out []models.BlacklistEntry
	if err := cur.All(ctx, &out); err != nil {
		return nil, 0, apperr.Internal(err, "decode blacklist")
	}
	return out, total, nil
}
