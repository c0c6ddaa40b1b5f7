// internal/app/store/drives/drivestore.go
package drivestore

import (
	"context"
	"errors"
	"fmt"
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
	ErrNotFound = apperr.NotFound("drive not found")
	// ErrDuplicate is returned when the registration already has a drive.
	ErrDuplicate = apperr.Conflict("a drive already exists for this registration")
	// ErrStale is returned when a guarded write finds the drive in a
	// different state than the caller checked.
	ErrStale = apperr.Conflict("drive changed while saving; reload and retry")
)

// Store persists drives. Every state-changing write repeats the policy check
// in its filter, so a write computed from a stale read matches nothing.
type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("drives")}
}

// noResults matches drives where no round has recorded results.
var noResults = bson.M{"$not": bson.M{"$elemMatch": bson.M{"results.0": bson.M{"$exists": true}}}}

// Insert stores a new drive. uniq_drives_registration turns a second drive
// for the same registration into ErrDuplicate.
func (s *Store) Insert(ctx context.Context, d models.Drive) error {
	if _, err := s.c.InsertOne(ctx, d); err != nil {
		if wafflemongo.IsDup(err) {
			return ErrDuplicate
		}
		return apperr.Internal(err, "create drive")
	}
	return nil
}

func (s *Store) findOne(ctx context.Context, filter bson.M, opts ...*options.FindOneOptions) (models.Drive, error) {
	var d models.Drive
	err := s.c.FindOne(ctx, filter, opts...).Decode(&d)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.Drive{}, ErrNotFound
	}
	if err != nil {
		return models.Drive{}, apperr.Internal(err, "load drive")
	}
	return d, nil
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Drive, error) {
	return s.findOne(ctx, bson.M{"_id": id})
}

func (s *Store) GetByRegistration(ctx context.Context, registration primitive.ObjectID) (models.Drive, error) {
	return s.findOne(ctx, bson.M{"registration": registration})
}

// LatestForCompany returns the most recent drive of the company (matched by
// folded cached name) among the given registrations.
func (s *Store) LatestForCompany(ctx context.Context, companyCI string, registrations []primitive.ObjectID) (models.Drive, error) {
	if companyCI == "" || len(registrations) == 0 {
		return models.Drive{}, ErrNotFound
	}
	return s.findOne(ctx,
		bson.M{"company_name_ci": companyCI, "registration": bson.M{"$in": registrations}},
		options.FindOne().SetSort(bson.D{{Key: "date", Value: -1}}))
}

// ExistsForCompany reports whether any drive carries the folded company name.
func (s *Store) ExistsForCompany(ctx context.Context, companyCI string) (bool, error) {
	n, err := s.c.CountDocuments(ctx, bson.M{"company_name_ci": companyCI}, options.Count().SetLimit(1))
	if err != nil {
		return false, apperr.Internal(err, "check company drives")
	}
	return n > 0, nil
}

// Filter narrows List. Zero values mean no constraint.
type Filter struct {
	From    time.Time
	To      time.Time
	Company primitive.ObjectID
	Closed  *bool
}

func (f Filter) bson() bson.M {
	filter := bson.M{}
	date := bson.M{}
	if !f.From.IsZero() {
		date["$gte"] = f.From
	}
	if !f.To.IsZero() {
		date["$lt"] = f.To
	}
	if len(date) > 0 {
		filter["date"] = date
	}
	if !f.Company.IsZero() {
		filter["company"] = f.Company
	}
	if f.Closed != nil {
		filter["is_closed"] = *f.Closed
	}
	return filter
}

// List returns a page of drives, newest date first.
func (s *Store) List(ctx context.Context, f Filter, p paging.Params) ([]models.Drive, int64, error) {
	filter := f.bson()
	total, err := s.c.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, apperr.Internal(err, "count drives")
	}
	find := p.ApplyToFind(options.Find().SetSort(bson.D{{Key: "date", Value: -1}, {Key: "_id", Value: -1}}))
	cur, err := s.c.Find(ctx, filter, find)
	if err != nil {
		return nil, 0, apperr.Internal(err, "list drives")
	}
	defer cur.Close(ctx)
	var out []models.Drive
	if err := cur.All(ctx, &out); err != nil {
		return nil, 0, apperr.Internal(err, "decode drives")
	}
	return out, total, nil
}

// RegistrationsWithDrives reports which of the given registrations already
// have a drive.
func (s *Store) RegistrationsWithDrives(ctx context.Context, registrations []primitive.ObjectID) (map[primitive.ObjectID]bool, error) {
	out := make(map[primitive.ObjectID]bool, len(registrations))
	if len(registrations) == 0 {
		return out, nil
	}
	vals, err := s.c.Distinct(ctx, "registration", bson.M{"registration": bson.M{"$in": registrations}})
	if err != nil {
		return nil, apperr.Internal(err, "find drives by registration")
	}
	for _, v := range vals {
		if id, ok := v.(primitive.ObjectID); ok {
			out[id] = true
		}
	}
	return out, nil
}

func (s *Store) guarded(ctx context.Context, filter bson.M, update bson.M) (models.Drive, error) {
	var d models.Drive
	err := s.c.FindOneAndUpdate(ctx, filter, update,
		options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(&d)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.Drive{}, ErrStale
	}
	if err != nil {
		return models.Drive{}, apperr.Internal(err, "update drive")
	}
	return d, nil
}

// ReplaceRounds swaps the round structure and, when date is set, the drive
// date. Only an open drive that has not started matches.
func (s *Store) ReplaceRounds(ctx context.Context, id primitive.ObjectID, rounds []models.Round, date *time.Time, now time.Time) (models.Drive, error) {
	set := bson.M{"updated_at": now}
	if rounds != nil {
		set["rounds"] = rounds
	}
	if date != nil {
		set["date"] = *date
	}
	return s.guarded(ctx,
		bson.M{"_id": id, "is_closed": false, "current_round_index": 0, "rounds": noResults},
		bson.M{"$set": set})
}

// SetResults overwrites round i's results and optionally moves the current
// round pointer. It only matches while round i is the current round.
func (s *Store) SetResults(ctx context.Context, id primitive.ObjectID, i int, results []models.RoundResult, next *int, now time.Time) (models.Drive, error) {
	set := bson.M{
		fmt.Sprintf("rounds.%d.results", i): results,
		"updated_at":                        now,
	}
	if next != nil {
		set["current_round_index"] = *next
	}
	return s.guarded(ctx,
		bson.M{"_id": id, "is_closed": false, "current_round_index": i},
		bson.M{"$set": set})
}

// SetShortlist overwrites round i's shortlist. Rounds before the current
// one are complete and do not match.
func (s *Store) SetShortlist(ctx context.Context, id primitive.ObjectID, i int, students []primitive.ObjectID, now time.Time) (models.Drive, error) {
	return s.guarded(ctx,
		bson.M{
			"_id":                       id,
			"is_closed":                 false,
			"current_round_index":       bson.M{"$lte": i},
			fmt.Sprintf("rounds.%d", i): bson.M{"$exists": true},
		},
		bson.M{"$set": bson.M{
			fmt.Sprintf("rounds.%d.shortlisted", i): students,
			"updated_at":                            now,
		}})
}

// AddAnnouncement appends an announcement. Closed drives match only when
// allowClosed is set.
func (s *Store) AddAnnouncement(ctx context.Context, id primitive.ObjectID, a models.Announcement, allowClosed bool) (models.Drive, error) {
	filter := bson.M{"_id": id}
	if !allowClosed {
		filter["is_closed"] = false
	}
	return s.guarded(ctx, filter, bson.M{
		"$push": bson.M{"announcements": a},
		"$set":  bson.M{"updated_at": a.PostedAt},
	})
}

// Finalize records the final selection and, when close is set, closes the
// drive. Only an open drive matches.
func (s *Store) Finalize(ctx context.Context, id primitive.ObjectID, selected []primitive.ObjectID, close bool, now time.Time) (models.Drive, error) {
	set := bson.M{"final_selected": selected, "updated_at": now}
	if close {
		set["is_closed"] = true
		set["closed_at"] = now
	}
	return s.guarded(ctx, bson.M{"_id": id, "is_closed": false}, bson.M{"$set": set})
}

// Delete removes an open drive that has no results.
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id, "is_closed": false, "rounds": noResults})
	if err != nil {
		return apperr.Internal(err, "delete drive")
	}
	if res.DeletedCount == 0 {
		return ErrStale
	}
	return nil
}
