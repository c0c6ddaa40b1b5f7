// internal/app/store/registrations/registrationstore.go
package registrationstore

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
	ErrNotFound = apperr.NotFound("registration not found")
	// ErrCompleted is returned for writes to a registration whose drive has closed.
	ErrCompleted = apperr.Forbidden("registration is completed and can no longer change")
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("registrations")}
}

// Create inserts an open registration for company. The company name is
// cached and never refreshed.
func (s *Store) Create(ctx context.Context, reg models.Registration, company models.Company) (models.Registration, error) {
	if reg.Batch <= 0 {
		return models.Registration{}, apperr.Validation("batch is required")
	}
	if reg.DriveDate.IsZero() {
		return models.Registration{}, apperr.Validation("driveDate is required")
	}
	now := time.Now().UTC()
	reg.ID = primitive.NewObjectID()
	reg.Company = company.ID
	reg.CompanyNameCached = company.Name
	reg.CompanyNameCI = company.NameCI
	reg.Status = models.RegistrationOpen
	reg.MailSent = false
	reg.ReminderSentOn = ""
	reg.CreatedAt = now
	reg.UpdatedAt = now
	if _, err := s.c.InsertOne(ctx, reg); err != nil {
		return models.Registration{}, apperr.Internal(err, "create registration")
	}
	return reg, nil
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Registration, error) {
	var reg models.Registration
	err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&reg)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.Registration{}, ErrNotFound
	}
	if err != nil {
		return models.Registration{}, apperr.Internal(err, "load registration")
	}
	return reg, nil
}

// Update holds the editable registration fields. Nil fields are left alone.
type Update struct {
	Batch        *int
	DriveDate    *time.Time
	Eligibility  *models.EligibilityRule
	CustomFields []models.CustomField // nil leaves the fields alone
	Status       *string              // open | closed
}

// Update edits a registration that has not completed.
func (s *Store) Update(ctx context.Context, id primitive.ObjectID, upd Update) (models.Registration, error) {
	set := bson.M{"updated_at": time.Now().UTC()}
	if upd.Batch != nil {
		if *upd.Batch <= 0 {
			return models.Registration{}, apperr.Validation("batch must be positive")
		}
		set["batch"] = *upd.Batch
	}
	if upd.DriveDate != nil {
		set["drive_date"] = *upd.DriveDate
		set["reminder_sent_on"] = ""
	}
	if upd.Eligibility != nil {
		set["eligibility"] = *upd.Eligibility
	}
	if upd.CustomFields != nil {
		set["custom_fields"] = upd.CustomFields
	}
	if upd.Status != nil {
		switch *upd.Status {
		case models.RegistrationOpen, models.RegistrationClosed:
			set["status"] = *upd.Status
		default:
			return models.Registration{}, apperr.Validation(`status must be "open" or "closed"`)
		}
	}

	var reg models.Registration
	err := s.c.FindOneAndUpdate(ctx,
		bson.M{"_id": id, "status": bson.M{"$ne": models.RegistrationCompleted}},
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&reg)
	if errors.Is(err, mongo.ErrNoDocuments) {
		if _, gerr := s.GetByID(ctx, id); gerr != nil {
			return models.Registration{}, gerr
		}
		return models.Registration{}, ErrCompleted
	}
	if err != nil {
		return models.Registration{}, apperr.Internal(err, "update registration")
	}
	return reg, nil
}

// SetDriveDate moves the drive date. Used when staff edit an unstarted drive.
func (s *Store) SetDriveDate(ctx context.Context, id primitive.ObjectID, at time.Time) error {
	_, err := s.Update(ctx, id, Update{DriveDate: &at})
	return err
}

// Complete marks the registration completed. It is a no-op when already done.
func (s *Store) Complete(ctx context.Context, id primitive.ObjectID, at time.Time) error {
	_, err := s.c.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{
		"status":     models.RegistrationCompleted,
		"updated_at": at,
	}})
	if err != nil {
		return apperr.Internal(err, "complete registration")
	}
	return nil
}

// MarkMailSent records that the opening notification was dispatched.
func (s *Store) MarkMailSent(ctx context.Context, id primitive.ObjectID) error {
	_, err := s.c.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{"mail_sent": true}})
	if err != nil {
		return apperr.Internal(err, "mark mail sent")
	}
	return nil
}

// ClaimReminder marks the reminder for day as sent. It reports false when a
// reminder was already sent for that day, so a retried job does not resend.
func (s *Store) ClaimReminder(ctx context.Context, id primitive.ObjectID, day string) (bool, error) {
	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": id, "reminder_sent_on": bson.M{"$ne": day}},
		bson.M{"$set": bson.M{"reminder_sent_on": day}},
	)
	if err != nil {
		return false, apperr.Internal(err, "claim reminder")
	}
	return res.ModifiedCount == 1, nil
}

// Delete removes a registration that has not completed.
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id, "status": bson.M{"$ne": models.RegistrationCompleted}})
	if err != nil {
		return apperr.Internal(err, "delete registration")
	}
	if res.DeletedCount == 0 {
		if _, gerr := s.GetByID(ctx, id); gerr != nil {
			return gerr
		}
		return ErrCompleted
	}
	return nil
}

// Filter narrows List. Zero values mean no constraint.
type Filter struct {
	Batch   int
	Status  string
	Company primitive.ObjectID
	From    time.Time // drive_date >= From
	To      time.Time // drive_date < To
}

func (f Filter) bson() bson.M {
	filter := bson.M{}
	if f.Batch > 0 {
		filter["$or"] = bson.A{
			bson.M{"batch": f.Batch},
			bson.M{"eligibility.accepted_batches": f.Batch},
		}
	}
	if f.Status != "" {
		filter["status"] = f.Status
	}
	if !f.Company.IsZero() {
		filter["company"] = f.Company
	}
	date := bson.M{}
	if !f.From.IsZero() {
		date["$gte"] = f.From
	}
	if !f.To.IsZero() {
		date["$lt"] = f.To
	}
	if len(date) > 0 {
		filter["drive_date"] = date
	}
	return filter
}

// List returns a page of registrations ordered by drive date.
func (s *Store) List(ctx context.Context, f Filter, p paging.Params) ([]models.Registration, int64, error) {
	filter := f.bson()
	total, err := s.c.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, apperr.Internal(err, "count registrations")
	}
	find := p.ApplyToFind(options.Find().SetSort(bson.D{{Key: "drive_date", Value: 1}, {Key: "_id", Value: 1}}))
	out, err := s.find(ctx, filter, find)
	return out, total, err
}

// OpenBetween returns open registrations whose drive date is in [from, to).
func (s *Store) OpenBetween(ctx context.Context, from, to time.Time) ([]models.Registration, error) {
	return s.find(ctx, Filter{Status: models.RegistrationOpen, From: from, To: to}.bson(),
		options.Find().SetSort(bson.D{{Key: "drive_date", Value: 1}}))
}

// ByIDs loads the given registrations. Missing ids are skipped.
func (s *Store) ByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.Registration, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	return s.find(ctx, bson.M{"_id": bson.M{"$in": ids}}, options.Find().SetSort(bson.D{{Key: "drive_date", Value: -1}}))
}

// ForCompany returns the registrations of a company, newest drive first.
func (s *Store) ForCompany(ctx context.Context, company primitive.ObjectID) ([]models.Registration, error) {
	return s.find(ctx, bson.M{"company": company}, options.Find().SetSort(bson.D{{Key: "drive_date", Value: -1}}))
}

func (s *Store) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]models.Registration, error) {
	cur, err := s.c.Find(ctx, filter, opts)
	if err != nil {
		return nil, apperr.Internal(err, "find registrations")
	}
	defer cur.Close(ctx)
	var out []models.Registration
	if err := cur.All(ctx, &out); err != nil {
		return nil, apperr.Internal(err, "decode registrations")
	}
	return out, nil
}
