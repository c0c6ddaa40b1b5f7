// internal/app/store/applications/applicationstore.go
package applicationstore

import (
	"context"
	"errors"
	"time"

	"github.com/Saravanans7/PlaceMate/internal/app/system/apperr"
	"github.com/Saravanans7/PlaceMate/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	ErrNotFound = apperr.NotFound("application not found")
	// ErrAlreadyApplied is returned when a registered application exists for the pair.
	ErrAlreadyApplied = apperr.Conflict("Already applied to this registration")
)

// Store is the application ledger. There is at most one row per
// (registration, student); the unique index uniq_apps_reg_student enforces it.
type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("applications")}
}

// Get returns the row for the pair in any status.
func (s *Store) Get(ctx context.Context, registration, student primitive.ObjectID) (models.Application, error) {
	var a models.Application
	err := s.c.FindOne(ctx, bson.M{"registration": registration, "student": student}).Decode(&a)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.Application{}, ErrNotFound
	}
	if err != nil {
		return models.Application{}, apperr.Internal(err, "load application")
	}
	return a, nil
}

// Register records a registered application for the pair. A withdrawn row
// is reactivated in place; a registered row yields ErrAlreadyApplied.
func (s *Store) Register(ctx context.Context, registration, student primitive.ObjectID, answers []models.Answer, now time.Time) (models.Application, error) {
	var a models.Application
	err := s.c.FindOneAndUpdate(ctx,
		bson.M{"registration": registration, "student": student, "status": models.ApplicationWithdrawn},
		bson.M{
			"$set": bson.M{
				"status":        models.ApplicationRegistered,
				"answers":       answers,
				"registered_at": now,
				"updated_at":    now,
			},
			"$unset": bson.M{"withdrawn_at": ""},
		},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&a)
	if err == nil {
		return a, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return models.Application{}, apperr.Internal(err, "reactivate application")
	}

	a = models.Application{
		ID:           primitive.NewObjectID(),
		Registration: registration,
		Student:      student,
		Answers:      answers,
		Status:       models.ApplicationRegistered,
		RegisteredAt: now,
		UpdatedAt:    now,
	}
	if _, err := s.c.InsertOne(ctx, a); err != nil {
		if wafflemongo.IsDup(err) {
			return models.Application{}, ErrAlreadyApplied
		}
		return models.Application{}, apperr.Internal(err, "create application")
	}
	return a, nil
}

// Withdraw flips a registered application to withdrawn.
func (s *Store) Withdraw(ctx context.Context, registration, student primitive.ObjectID, now time.Time) (models.Application, error) {
	var a models.Application
	err := s.c.FindOneAndUpdate(ctx,
		bson.M{"registration": registration, "student": student, "status": models.ApplicationRegistered},
		bson.M{"$set": bson.M{
			"status":       models.ApplicationWithdrawn,
			"withdrawn_at": now,
			"updated_at":   now,
		}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&a)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.Application{}, ErrNotFound
	}
	if err != nil {
		return models.Application{}, apperr.Internal(err, "withdraw application")
	}
	return a, nil
}

// RegisteredFor returns the registered applications of a registration in
// the order students applied.
func (s *Store) RegisteredFor(ctx context.Context, registration primitive.ObjectID) ([]models.Application, error) {
	return s.find(ctx,
		bson.M{"registration": registration, "status": models.ApplicationRegistered},
		options.Find().SetSort(bson.D{{Key: "registered_at", Value: 1}, {Key: "_id", Value: 1}}))
}

// RegisteredStudents returns the ids of students registered for registration.
func (s *Store) RegisteredStudents(ctx context.Context, registration primitive.ObjectID) ([]primitive.ObjectID, error) {
	apps, err := s.RegisteredFor(ctx, registration)
	if err != nil {
		return nil, err
	}
	ids := make([]primitive.ObjectID, len(apps))
	for i, a := range apps {
		ids[i] = a.Student
	}
	return ids, nil
}

// IsRegistered reports whether student holds a registered application.
func (s *Store) IsRegistered(ctx context.Context, registration, student primitive.ObjectID) (bool, error) {
	n, err := s.c.CountDocuments(ctx, bson.M{
		"registration": registration,
		"student":      student,
		"status":       models.ApplicationRegistered,
	}, options.Count().SetLimit(1))
	if err != nil {
		return false, apperr.Internal(err, "check application")
	}
	return n > 0, nil
}

// RegisteredByStudent returns a student's registered applications, newest first.
func (s *Store) RegisteredByStudent(ctx context.Context, student primitive.ObjectID) ([]models.Application, error) {
	return s.find(ctx,
		bson.M{"student": student, "status": models.ApplicationRegistered},
		options.Find().SetSort(bson.D{{Key: "registered_at", Value: -1}}))
}

// CountRegistered returns registered application counts keyed by registration.
func (s *Store) CountRegistered(ctx context.Context, registrations []primitive.ObjectID) (map[primitive.ObjectID]int, error) {
	out := make(map[primitive.ObjectID]int, len(registrations))
	if len(registrations) == 0 {
		return out, nil
	}
	cur, err := s.c.Aggregate(ctx, mongo.Pipeline{
		{{Key: "$match", Value: bson.M{
			"registration": bson.M{"$in": registrations},
			"status":       models.ApplicationRegistered,
		}}},
		{{Key: "$group", Value: bson.M{"_id": "$registration", "n": bson.M{"$sum": 1}}}},
	})
	if err != nil {
		return nil, apperr.Internal(err, "count applications")
	}
	defer cur.Close(ctx)
	for cur.Next(ctx) {
		var row struct {
			ID primitive.ObjectID `bson:"_id"`
			N  int                `bson:"n"`
		}
		if err := cur.Decode(&row); err != nil {
			return nil, apperr.Internal(err, "decode application count")
		}
		out[row.ID] = row.N
	}
	if err := cur.Err(); err != nil {
		return nil, apperr.Internal(err, "count applications")
	}
	return out, nil
}

// DeleteForRegistration removes every application of a registration.
func (s *Store) DeleteForRegistration(ctx context.Context, registration primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteMany(ctx, bson.M{"registration": registration})
	if err != nil {
		return 0, apperr.Internal(err, "delete applications")
	}
	return res.DeletedCount, nil
}

// DeleteForStudent removes every application of a student.
func (s *Store) DeleteForStudent(ctx context.Context, student primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteMany(ctx, bson.M{"student": student})
	if err != nil {
		return 0, apperr.Internal(err, "delete applications")
	}
	return res.DeletedCount, nil
}

func (s *Store) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]models.Application, error) {
	cur, err := s.c.Find(ctx, filter, opts)
	if err != nil {
		return nil, apperr.Internal(err, "find applications")
	}
	defer cur.Close(ctx)
	var out []models.Application
	if err := cur.All(ctx, &out); err != nil {
		return nil, apperr.Internal(err, "decode applications")
	}
	return out, nil
}
