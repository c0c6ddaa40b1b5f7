package userstore

import (
	"context"
	"errors"
	"time"

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

var (
	// ErrNotFound is returned when no user matches.
	ErrNotFound = apperr.NotFound("user not found")
	// ErrDuplicate is returned when the email, username or Google account is taken.
	ErrDuplicate = apperr.Conflict("a user with this email or username already exists")

	errBadRole = apperr.Validation(`role must be "student" or "staff"`)
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("users")}
}

func (s *Store) findOne(ctx context.Context, filter bson.M) (models.User, error) {
	var u models.User
	err := s.c.FindOne(ctx, filter).Decode(&u)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.User{}, ErrNotFound
	}
	if err != nil {
		return models.User{}, apperr.Internal(err, "load user")
	}
	return u, nil
}

// GetByID loads a user by ObjectID.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.User, error) {
	return s.findOne(ctx, bson.M{"_id": id})
}

// GetStudent loads a user by ObjectID and requires the student role.
func (s *Store) GetStudent(ctx context.Context, id primitive.ObjectID) (models.User, error) {
	return s.findOne(ctx, bson.M{"_id": id, "role": models.RoleStudent})
}

// GetByEmail looks up a user by case-insensitive email.
func (s *Store) GetByEmail(ctx context.Context, email string) (models.User, error) {
	return s.findOne(ctx, bson.M{"email": normalize.Email(email)})
}

// GetByIdentifier resolves a login identifier, which is either an email or
// a username.
func (s *Store) GetByIdentifier(ctx context.Context, identifier string) (models.User, error) {
	v, isEmail := normalize.Identifier(identifier)
	if v == "" {
		return models.User{}, ErrNotFound
	}
	if isEmail {
		return s.findOne(ctx, bson.M{"email": v})
	}
	return s.findOne(ctx, bson.M{"username": v})
}

// GetByGoogleID looks up a user linked to a Google account.
func (s *Store) GetByGoogleID(ctx context.Context, googleID string) (models.User, error) {
	if googleID == "" {
		return models.User{}, ErrNotFound
	}
	return s.findOne(ctx, bson.M{"google_id": googleID})
}

func prepare(u *models.User, now time.Time) error {
	u.Name = normalize.Name(u.Name)
	u.NameCI = normalize.NameCI(u.Name)
	u.Email = normalize.Email(u.Email)
	u.Username = normalize.Username(u.Username)
	u.Role = normalize.Role(u.Role)
	if u.Role == "" {
		u.Role = models.RoleStudent
	}
	if u.Role != models.RoleStudent && u.Role != models.RoleStaff {
		return errBadRole
	}
	if u.Name == "" || u.Email == "" {
		return apperr.Validation("name and email are required")
	}
	if u.ID.IsZero() {
		u.ID = primitive.NewObjectID()
	}
	u.CreatedAt = now
	u.UpdatedAt = now
	return nil
}

// Create inserts a new user after normalizing and validating fields.
// Placement fields always start cleared.
func (s *Store) Create(ctx context.Context, u models.User) (models.User, error) {
	if err := prepare(&u, time.Now().UTC()); err != nil {
		return models.User{}, err
	}
	u.IsPlaced = false
	u.PlacedAt, u.PlacedCompany, u.PlacedCompanyName = nil, nil, ""

	if _, err := s.c.InsertOne(ctx, u); err != nil {
		if wafflemongo.IsDup(err) {
			return models.User{}, ErrDuplicate
		}
		return models.User{}, apperr.Internal(err, "create user")
	}
	return u, nil
}

// ImportResult summarizes a bulk student insert.
type ImportResult struct {
	Created    int `json:"created"`
	Duplicates int `json:"duplicates"`
}

// CreateStudents inserts many students in one unordered batch. Rows whose
// email or username already exists are counted and skipped.
func (s *Store) CreateStudents(ctx context.Context, students []models.User) (ImportResult, error) {
	if len(students) == 0 {
		return ImportResult{}, nil
	}
	now := time.Now().UTC()
	docs := make([]any, 0, len(students))
	for i := range students {
		students[i].Role = models.RoleStudent
		if err := prepare(&students[i], now); err != nil {
			return ImportResult{}, err
		}
		docs = append(docs, students[i])
	}

	res, err := s.c.InsertMany(ctx, docs, options.InsertMany().SetOrdered(false))
	created := 0
	if res != nil {
		created = len(res.InsertedIDs)
	}
	if err == nil {
		return ImportResult{Created: created}, nil
	}

	var bwe mongo.BulkWriteException
	if !errors.As(err, &bwe) || bwe.WriteConcernError != nil {
		return ImportResult{Created: created}, apperr.Internal(err, "import students")
	}
	dups := 0
	for _, we := range bwe.WriteErrors {
		if !isDupCode(we.Code) {
			return ImportResult{Created: created}, apperr.Internal(err, "import students")
		}
		dups++
	}
	return ImportResult{Created: len(docs) - dups, Duplicates: dups}, nil
}

func isDupCode(code int) bool {
	return code == 11000 || code == 11001 || code == 12582
}

// StudentFilter narrows ListStudents.
type StudentFilter struct {
	Batch  *int
	Placed *bool
	Query  string // name prefix, email or roll number
}

func (f StudentFilter) bson() bson.M {
	filter := bson.M{"role": models.RoleStudent}
	if f.Batch != nil {
		filter["batch"] = *f.Batch
	}
	if f.Placed != nil {
		filter["is_placed"] = *f.Placed
	}
	if f.Query != "" {
		or := bson.A{}
		if rx, ok := search.Prefix(f.Query); ok {
			or = append(or, bson.M{"name_ci": rx})
		}
		if m, ok := search.Contains(f.Query); ok {
			or = append(or, bson.M{"email": m}, bson.M{"roll_number": m})
		}
		if len(or) > 0 {
			filter["$or"] = or
		}
	}
	return filter
}

// ListStudents returns one page of students ordered by name, plus the total.
func (s *Store) ListStudents(ctx context.Context, f StudentFilter, p paging.Params) ([]models.User, int64, error) {
	filter := f.bson()
	total, err := s.c.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, apperr.Internal(err, "count students")
	}
	find := p.ApplyToFind(options.Find().SetSort(bson.D{{Key: "name_ci", Value: 1}, {Key: "_id", Value: 1}}))
	out, err := s.find(ctx, filter, find)
	return out, total, err
}

// StudentsInBatches returns every student whose batch is in batches.
func (s *Store) StudentsInBatches(ctx context.Context, batches []int) ([]models.User, error) {
	if len(batches) == 0 {
		return nil, nil
	}
	return s.find(ctx, bson.M{"role": models.RoleStudent, "batch": bson.M{"$in": batches}}, options.Find())
}

// ByIDs loads the given users in one query. Missing ids are skipped.
func (s *Store) ByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.User, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	return s.find(ctx, bson.M{"_id": bson.M{"$in": ids}}, options.Find().SetSort(bson.D{{Key: "name_ci", Value: 1}}))
}

func (s *Store) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]models.User, error) {
	cur, err := s.c.Find(ctx, filter, opts)
	if err != nil {
		return nil, apperr.Internal(err, "find users")
	}
	defer cur.Close(ctx)
	var out []models.User
	if err := cur.All(ctx, &out); err != nil {
		return nil, apperr.Internal(err, "decode users")
	}
	return out, nil
}

// ContactUpdate holds the profile fields a student may edit.
type ContactUpdate struct {
	Name        *string
	Phone       *string
	NativePlace *string
}

// UpdateContact applies a student's own profile edit.
func (s *Store) UpdateContact(ctx context.Context, id primitive.ObjectID, upd ContactUpdate) (models.User, error) {
	set := bson.M{"updated_at": time.Now().UTC()}
	if upd.Name != nil {
		name := normalize.Name(*upd.Name)
		if name == "" {
			return models.User{}, apperr.Validation("name cannot be empty")
		}
		set["name"] = name
		set["name_ci"] = normalize.NameCI(name)
	}
	if upd.Phone != nil {
		set["phone"] = *upd.Phone
	}
	if upd.NativePlace != nil {
		set["native_place"] = *upd.NativePlace
	}
	return s.update(ctx, bson.M{"_id": id}, set)
}

// StudentUpdate holds the fields staff may change on a student.
type StudentUpdate struct {
	ContactUpdate
	Email      *string
	RollNumber *string
	Academic   *models.AcademicRecord
}

// UpdateStudent applies a staff edit. Placement fields are never touched.
func (s *Store) UpdateStudent(ctx context.Context, id primitive.ObjectID, upd StudentUpdate) (models.User, error) {
	set := bson.M{"updated_at": time.Now().UTC()}
	if upd.Name != nil {
		name := normalize.Name(*upd.Name)
		if name == "" {
			return models.User{}, apperr.Validation("name cannot be empty")
		}
		set["name"] = name
		set["name_ci"] = normalize.NameCI(name)
	}
	if upd.Phone != nil {
		set["phone"] = *upd.Phone
	}
	if upd.NativePlace != nil {
		set["native_place"] = *upd.NativePlace
	}
	if upd.Email != nil {
		email := normalize.Email(*upd.Email)
		if email == "" {
			return models.User{}, apperr.Validation("email cannot be empty")
		}
		set["email"] = email
	}
	if upd.RollNumber != nil {
		set["roll_number"] = *upd.RollNumber
	}
	if a := upd.Academic; a != nil {
		set["cgpa"] = a.CGPA
		set["arrears"] = a.Arrears
		set["history_of_arrears"] = a.HistoryOfArrears
		set["tenth_percent"] = a.TenthPercent
		set["twelfth_percent"] = a.TwelfthPercent
		set["batch"] = a.Batch
	}
	return s.update(ctx, bson.M{"_id": id, "role": models.RoleStudent}, set)
}

func (s *Store) update(ctx context.Context, filter bson.M, set bson.M) (models.User, error) {
	var u models.User
	err := s.c.FindOneAndUpdate(ctx, filter, bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(&u)
	switch {
	case errors.Is(err, mongo.ErrNoDocuments):
		return models.User{}, ErrNotFound
	case wafflemongo.IsDup(err):
		return models.User{}, ErrDuplicate
	case err != nil:
		return models.User{}, apperr.Internal(err, "update user")
	}
	return u, nil
}

// UpdatePassword replaces the user's password hash.
func (s *Store) UpdatePassword(ctx context.Context, id primitive.ObjectID, hash string) error {
	_, err := s.update(ctx, bson.M{"_id": id}, bson.M{"password_hash": hash, "updated_at": time.Now().UTC()})
	return err
}

// PromoteToStaff gives an existing user the staff role. Academic and
// placement fields are left as they are.
func (s *Store) PromoteToStaff(ctx context.Context, id primitive.ObjectID) error {
	_, err := s.update(ctx, bson.M{"_id": id}, bson.M{"role": models.RoleStaff, "updated_at": time.Now().UTC()})
	return err
}

// LinkGoogle records the Google account id on an existing user.
func (s *Store) LinkGoogle(ctx context.Context, id primitive.ObjectID, googleID string) error {
	_, err := s.update(ctx, bson.M{"_id": id}, bson.M{"google_id": googleID, "updated_at": time.Now().UTC()})
	return err
}

// DeleteStudent removes a student. Returns ErrNotFound when nothing matched.
func (s *Store) DeleteStudent(ctx context.Context, id primitive.ObjectID) error {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id, "role": models.RoleStudent})
	if err != nil {
		return apperr.Internal(err, "delete student")
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// MarkPlaced flags the given students as placed at company. Students who are
// already placed are left untouched, so repeating the call never moves a
// placement timestamp or changes the company. It returns the ids that were
// newly placed.
func (s *Store) MarkPlaced(ctx context.Context, ids []primitive.ObjectID, company models.Company, at time.Time) ([]primitive.ObjectID, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	filter := bson.M{
		"_id":       bson.M{"$in": ids},
		"role":      models.RoleStudent,
		"is_placed": bson.M{"$ne": true},
	}

	cur, err := s.c.Find(ctx, filter, options.Find().SetProjection(bson.M{"_id": 1}))
	if err != nil {
		return nil, apperr.Internal(err, "find unplaced students")
	}
	var rows []struct {
		ID primitive.ObjectID `bson:"_id"`
	}
	if err := cur.All(ctx, &rows); err != nil {
		return nil, apperr.Internal(err, "decode unplaced students")
	}
	if len(rows) == 0 {
		return nil, nil
	}
	newly := make([]primitive.ObjectID, len(rows))
	for i, r := range rows {
		newly[i] = r.ID
	}

	filter["_id"] = bson.M{"$in": newly}
	_, err = s.c.UpdateMany(ctx, filter, bson.M{"$set": bson.M{
		"is_placed":           true,
		"placed_at":           at,
		"placed_company":      company.ID,
		"placed_company_name": company.Name,
		"updated_at":          at,
	}})
	if err != nil {
		return nil, apperr.Internal(err, "mark students placed")
	}
	return newly, nil
}

// BatchStat is the placement tally for one batch.
type BatchStat struct {
	Batch  int `bson:"_id" json:"batch"`
	Total  int `bson:"total" json:"total"`
	Placed int `bson:"placed" json:"placed"`
}

// BatchStats counts students and placed students per batch, newest batch first.
func (s *Store) BatchStats(ctx context.Context) ([]BatchStat, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"role": models.RoleStudent, "batch": bson.M{"$gt": 0}}}},
		{{Key: "$group", Value: bson.M{
			"_id":    "$batch",
			"total":  bson.M{"$sum": 1},
			"placed": bson.M{"$sum": bson.M{"$cond": bson.A{"$is_placed", 1, 0}}},
		}}},
		{{Key: "$sort", Value: bson.M{"_id": -1}}},
	}
	cur, err := s.c.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, apperr.Internal(err, "aggregate batch stats")
	}
	defer cur.Close(ctx)
	var out []BatchStat
	if err := cur.All(ctx, &out); err != nil {
		return nil, apperr.Internal(err, "decode batch stats")
	}
	return out, nil
}
