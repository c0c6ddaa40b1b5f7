// internal/app/store/experiences/experiencestore.go
package experiencestore

import (
	"context"
	"errors"
	"time"

	"github.com/Saravanans7/PlaceMate/internal/app/system/apperr"
	"github.com/Saravanans7/PlaceMate/internal/app/system/paging"
	"github.com/Saravanans7/PlaceMate/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	ErrNotFound = apperr.NotFound("experience not found")
	// ErrDecided is returned when moderating an experience that left pending.
	ErrDecided = apperr.Conflict("experience has already been reviewed")
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("interview_experiences")}
}

// Create stores a pending experience.
func (s *Store) Create(ctx context.Context, e models.Experience) (models.Experience, error) {
	now := time.Now().UTC()
	e.ID = primitive.NewObjectID()
	e.Status = models.ExperiencePending
	e.ReviewedBy, e.ReviewedAt = nil, nil
	e.CreatedAt = now
	e.UpdatedAt = now
	if _, err := s.c.InsertOne(ctx, e); err != nil {
		return models.Experience{}, apperr.Internal(err, "create experience")
	}
	return e, nil
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Experience, error) {
	var e models.Experience
	err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&e)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.Experience{}, ErrNotFound
	}
	if err != nil {
		return models.Experience{}, apperr.Internal(err, "load experience")
	}
	return e, nil
}

// Decide moves a pending experience to status. Decided experiences do not
// match and yield ErrDecided.
func (s *Store) Decide(ctx context.Context, id primitive.ObjectID, status string, reviewer primitive.ObjectID, now time.Time) (models.Experience, error) {
	if status != models.ExperienceApproved && status != models.ExperienceRejected {
		return models.Experience{}, apperr.Validation("unknown moderation decision %q", status)
	}
	var e models.Experience
	err := s.c.FindOneAndUpdate(ctx,
		bson.M{"_id": id, "status": models.ExperiencePending},
		bson.M{"$set": bson.M{
			"status":      status,
			"reviewed_by": reviewer,
			"reviewed_at": now,
			"updated_at":  now,
		}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&e)
	if errors.Is(err, mongo.ErrNoDocuments) {
		if _, gerr := s.GetByID(ctx, id); gerr != nil {
			return models.Experience{}, gerr
		}
		return models.Experience{}, ErrDecided
	}
	if err != nil {
		return models.Experience{}, apperr.Internal(err, "moderate experience")
	}
	return e, nil
}

// Delete removes an experience.
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return apperr.Internal(err, "delete experience")
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// Filter narrows List. Zero values mean no constraint.
type Filter struct {
	Status    string
	CompanyCI string
	Student   primitive.ObjectID
}

// List returns a page of experiences, newest first.
func (s *Store) List(ctx context.Context, f Filter, p paging.Params) ([]models.Experience, int64, error) {
	filter := bson.M{}
	if f.Status != "" {
		filter["status"] = f.Status
	}
	if f.CompanyCI != "" {
		filter["company_name_ci"] = f.CompanyCI
	}
	if !f.Student.IsZero() {
		filter["student"] = f.Student
	}
	total, err := s.c.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, apperr.Internal(err, "count experiences")
	}
	find := p.ApplyToFind(options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}))
	cur, err := s.c.Find(ctx, filter, find)
	if err != nil {
		return nil, 0, apperr.Internal(err, "list experiences")
	}
	defer cur.Close(ctx)
	var out []models.Experience
	if err := cur.All(ctx, &out); err != nil {
		return nil, 0, apperr.Internal(err, "decode experiences")
	}
	return out, total, nil
}

// ApprovedForCompany returns up to limit approved experiences for a company.
func (s *Store) ApprovedForCompany(ctx context.Context, companyCI string, limit int) ([]models.Experience, error) {
	out, _, err := s.List(ctx, Filter{Status: models.ExperienceApproved, CompanyCI: companyCI}, paging.Params{Page: 1, Limit: limit})
	return out, err
}
