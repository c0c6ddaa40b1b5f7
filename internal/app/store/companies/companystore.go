// internal/app/store/companies/companystore.go
package companystore

import (
	"context"
	"errors"
	"time"

	"github.com/Saravanans7/PlaceMate/internal/app/policy/drivepolicy"
	"github.com/Saravanans7/PlaceMate/internal/app/system/apperr"
	"github.com/Saravanans7/PlaceMate/internal/app/system/normalize"
	"github.com/Saravanans7/PlaceMate/internal/app/system/paging"
	"github.com/Saravanans7/PlaceMate/internal/app/system/search"
	"github.com/Saravanans7/PlaceMate/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Store struct {
	c *mongo.Collection
}

var (
	ErrNotFound  = apperr.NotFound("company not found")
	ErrDuplicate = apperr.Conflict("a company with this name already exists")

	// statsRetries bounds the compare-and-set loop in ApplyFinalize.
	statsRetries = 5
)

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("companies")}
}

func checkTemplate(rounds []models.RoundTemplate) error {
	for i := range rounds {
		rounds[i].Name = normalize.Name(rounds[i].Name)
	}
	return drivepolicy.CheckRounds(rounds)
}

// Create inserts a company. Stats start at zero.
func (s *Store) Create(ctx context.Context, c models.Company) (models.Company, error) {
	c.Name = normalize.Name(c.Name)
	if c.Name == "" {
		return models.Company{}, apperr.Validation("company name is required")
	}
	if err := checkTemplate(c.RoundsTemplate); err != nil {
		return models.Company{}, err
	}
	if c.RoundsTemplate == nil {
		c.RoundsTemplate = []models.RoundTemplate{}
	}
	now := time.Now().UTC()
	c.ID = primitive.NewObjectID()
	c.NameCI = normalize.NameCI(c.Name)
	c.CompanyStats = models.CompanyStats{}
	c.CreatedAt = now
	c.UpdatedAt = now
	if _, err := s.c.InsertOne(ctx, c); err != nil {
		if wafflemongo.IsDup(err) {
			return models.Company{}, ErrDuplicate
		}
		return models.Company{}, apperr.Internal(err, "create company")
	}
	return c, nil
}

func (s *Store) findOne(ctx context.Context, filter bson.M) (models.Company, error) {
	var c models.Company
	err := s.c.FindOne(ctx, filter).Decode(&c)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.Company{}, ErrNotFound
	}
	if err != nil {
		return models.Company{}, apperr.Internal(err, "load company")
	}
	return c, nil
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Company, error) {
	return s.findOne(ctx, bson.M{"_id": id})
}

// GetByName looks up a company by case-insensitive name.
func (s *Store) GetByName(ctx context.Context, name string) (models.Company, error) {
	ci := normalize.NameCI(name)
	if ci == "" {
		return models.Company{}, ErrNotFound
	}
	return s.findOne(ctx, bson.M{"name_ci": ci})
}

// Update holds the editable company fields. Nil fields are left alone.
type Update struct {
	Name           *string
	Role           *string
	Location       *string
	SalaryLPA      *float64
	Description    *string
	RoundsTemplate []models.RoundTemplate // nil leaves the template alone
}

// Update modifies a company. A rename does not touch the names cached on
// registrations, drives or experiences.
func (s *Store) Update(ctx context.Context, id primitive.ObjectID, upd Update) (models.Company, error) {
	set := bson.M{"updated_at": time.Now().UTC()}
	if upd.Name != nil {
		name := normalize.Name(*upd.Name)
		if name == "" {
			return models.Company{}, apperr.Validation("company name is required")
		}
		set["name"] = name
		set["name_ci"] = normalize.NameCI(name)
	}
	if upd.Role != nil {
		set["role"] = *upd.Role
	}
	if upd.Location != nil {
		set["location"] = *upd.Location
	}
	if upd.SalaryLPA != nil {
		set["salary_lpa"] = *upd.SalaryLPA
	}
	if upd.Description != nil {
		set["description"] = *upd.Description
	}
	if upd.RoundsTemplate != nil {
		if err := checkTemplate(upd.RoundsTemplate); err != nil {
			return models.Company{}, err
		}
		set["rounds_template"] = upd.RoundsTemplate
	}

	var c models.Company
	err := s.c.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(&c)
	switch {
	case errors.Is(err, mongo.ErrNoDocuments):
		return models.Company{}, ErrNotFound
	case wafflemongo.IsDup(err):
		return models.Company{}, ErrDuplicate
	case err != nil:
		return models.Company{}, apperr.Internal(err, "update company")
	}
	return c, nil
}

// Delete removes a company by ID.
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return apperr.Internal(err, "delete company")
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// List returns a page of companies, newest first, optionally filtered by a
// case-insensitive name prefix.
func (s *Store) List(ctx context.Context, q string, p paging.Params) ([]models.Company, int64, error) {
	filter := bson.M{}
	if rx, ok := search.Prefix(q); ok {
		filter["name_ci"] = rx
	}
	total, err := s.c.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, apperr.Internal(err, "count companies")
	}
	find := p.ApplyToFind(options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}))
	cur, err := s.c.Find(ctx, filter, find)
	if err != nil {
		return nil, 0, apperr.Internal(err, "list companies")
	}
	defer cur.Close(ctx)
	var out []models.Company
	if err := cur.All(ctx, &out); err != nil {
		return nil, 0, apperr.Internal(err, "decode companies")
	}
	return out, total, nil
}

// ApplyFinalize folds a closing finalization of drive into the company's
// counters. The write is a compare-and-set on the previous counters so two
// drives finalizing at once both land. A drive already folded in is not
// counted again; the current counters are returned instead.
func (s *Store) ApplyFinalize(ctx context.Context, id, drive primitive.ObjectID, ev drivepolicy.FinalizeEvent) (models.CompanyStats, error) {
	for attempt := 0; attempt < statsRetries; attempt++ {
		c, err := s.GetByID(ctx, id)
		if err != nil {
			return models.CompanyStats{}, err
		}
		if containsID(c.FinalizedDrives, drive) {
			return c.CompanyStats, nil
		}
		next := drivepolicy.ApplyFinalize(c.CompanyStats, ev)
		res, err := s.c.UpdateOne(ctx,
			bson.M{
				"_id":              id,
				"total_drives":     c.TotalDrives,
				"total_placed":     c.TotalPlaced,
				"finalized_drives": bson.M{"$ne": drive},
			},
			bson.M{
				"$set": bson.M{
					"total_drives":         next.TotalDrives,
					"total_placed":         next.TotalPlaced,
					"avg_placed_per_drive": next.AvgPlacedPerDrive,
					"last_drive_date":      next.LastDriveDate,
					"updated_at":           ev.At,
				},
				"$addToSet": bson.M{"finalized_drives": drive},
			},
		)
		if err != nil {
			return models.CompanyStats{}, apperr.Internal(err, "update company stats")
		}
		if res.MatchedCount == 1 {
			return next, nil
		}
	}
	return models.CompanyStats{}, apperr.Conflict("company stats changed concurrently; retry")
}

func containsID(ids []primitive.ObjectID, id primitive.ObjectID) bool {
	for _, x := range ids {
		if x == id {
			return true
		}
	}
	return false
}
