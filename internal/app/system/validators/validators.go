// internal/app/system/validators/validators.go
package validators

import (
	"context"
	"errors"
	"strings"

	"github.com/Saravanans7/PlaceMate/internal/domain/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// EnsureAll creates collections (if missing) and tries to attach JSON-Schema
// validators. On servers that don't support collMod/validators (e.g. some
// DocumentDB versions), we log and skip gracefully.
func EnsureAll(ctx context.Context, db *mongo.Database) error {
	var problems []string

	ensure := func(coll string, schema bson.M) {
		if _, err := ensureCollection(ctx, db, coll); err != nil {
			problems = append(problems, coll+": "+err.Error())
			return
		}
		if schema == nil {
			return
		}
		if err := setValidator(ctx, db, coll, schema); err != nil {
			if isNoSuchCommand(err) || isNotImplemented(err) {
				zap.L().Info("validator skipped (unsupported)", zap.String("collection", coll))
				return
			}
			problems = append(problems, coll+": "+err.Error())
		}
	}

	ensure("users", usersSchema())
	ensure("companies", companiesSchema())
	ensure("registrations", registrationsSchema())
	ensure("applications", applicationsSchema())
	ensure("drives", drivesSchema())
	ensure("blacklist", blacklistSchema())
	ensure("interview_experiences", experiencesSchema())

	// No validator; ensured so the first write never races collection creation
	// inside a transaction.
	ensure("audit_events", nil)

	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}

/* ---------------------- collection helpers & logging ---------------------- */

// collectionExists returns true when <name> already exists.
// Uses ListCollectionNames to avoid "created collection" log when it didn't.
func collectionExists(ctx context.Context, db *mongo.Database, name string) (bool, error) {
	names, err := db.ListCollectionNames(ctx, bson.M{})
	if err != nil {
		return false, err
	}
	for _, n := range names {
		if n == name {
			return true, nil
		}
	}
	return false, nil
}

// ensureCollection idempotently makes sure <name> exists.
// Returns created==true only if we actually created it.
func ensureCollection(ctx context.Context, db *mongo.Database, name string) (created bool, err error) {
	exists, listErr := collectionExists(ctx, db, name)
	if listErr == nil && exists {
		zap.L().Info("collection exists", zap.String("collection", name))
		return false, nil
	}
	// If listing failed, fall back to create-and-handle-race.
	if err := db.CreateCollection(ctx, name); err != nil {
		// NamespaceExists / already exists is fine (race or prior run).
		if isNamespaceExistsErr(err) {
			zap.L().Info("collection exists", zap.String("collection", name))
			return false, nil
		}
		zap.L().Warn("createCollection failed", zap.String("collection", name), zap.Error(err))
		return false, err
	}
	zap.L().Info("created collection", zap.String("collection", name))
	return true, nil
}

/* ------------------------------ validators ------------------------------- */

func setValidator(ctx context.Context, db *mongo.Database, name string, validator bson.M) error {
	cmd := bson.D{
		{Key: "collMod", Value: name},
		{Key: "validator", Value: validator},
		{Key: "validationLevel", Value: "moderate"},
		{Key: "validationAction", Value: "error"},
	}
	var out bson.M
	if err := db.RunCommand(ctx, cmd).Decode(&out); err != nil {
		return err
	}
	zap.L().Info("validator ensured", zap.String("collection", name))
	return nil
}

/* ------------------------- error helpers ------------------------- */

func isNamespaceExistsErr(err error) bool {
	if err == nil {
		return false
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) && (ce.Code == 48 || strings.Contains(strings.ToLower(ce.Message), "already exists")) {
		return true
	}
	s := strings.ToLower(err.Error())
	return strings.Contains(s, "already exists") || strings.Contains(s, "namespace exists")
}

func isNoSuchCommand(err error) bool {
	if err == nil {
		return false
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) && (ce.Code == 59 || strings.Contains(strings.ToLower(ce.Message), "no such command")) {
		return true
	}
	return strings.Contains(strings.ToLower(err.Error()), "no such command")
}

func isNotImplemented(err error) bool {
	if err == nil {
		return false
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) && (ce.Code == 115 ||
		strings.Contains(strings.ToLower(ce.Message), "not implemented") ||
		strings.Contains(strings.ToLower(ce.Message), "not supported")) {
		return true
	}
	s := strings.ToLower(err.Error())
	return strings.Contains(s, "not implemented") || strings.Contains(s, "not supported")
}

/* ------------------------- JSON-Schema docs ---------------------- */

var (
	nonEmpty = bson.M{"bsonType": "string", "minLength": 1, "pattern": ".*\\S.*"}
	integer  = bson.A{"int", "long"}
)

func enum[T ~string](vals ...T) bson.M {
	a := bson.A{}
	for _, v := range vals {
		a = append(a, string(v))
	}
	return bson.M{"enum": a}
}

func schema(required bson.A, props bson.M) bson.M {
	return bson.M{"$jsonSchema": bson.M{
		"bsonType":   "object",
		"required":   required,
		"properties": props,
	}}
}

func usersSchema() bson.M {
	return schema(bson.A{"name", "email", "role"}, bson.M{
		"name":               nonEmpty,
		"email":              nonEmpty,
		"role":               enum(models.RoleStudent, models.RoleStaff),
		"cgpa":               bson.M{"bsonType": "number", "minimum": 0, "maximum": 10},
		"arrears":            bson.M{"bsonType": integer, "minimum": 0},
		"history_of_arrears": bson.M{"bsonType": integer, "minimum": 0},
		"tenth_percent":      bson.M{"bsonType": "number", "minimum": 0, "maximum": 100},
		"twelfth_percent":    bson.M{"bsonType": "number", "minimum": 0, "maximum": 100},
		"batch":              bson.M{"bsonType": integer},
		"is_placed":          bson.M{"bsonType": "bool"},
	})
}

func companiesSchema() bson.M {
	return schema(bson.A{"name", "name_ci"}, bson.M{
		"name":            nonEmpty,
		"name_ci":         nonEmpty,
		"rounds_template": bson.M{"bsonType": "array"},
		"total_drives":    bson.M{"bsonType": integer, "minimum": 0},
		"total_placed":    bson.M{"bsonType": integer, "minimum": 0},
	})
}

func registrationsSchema() bson.M {
	return schema(bson.A{"company", "company_name_cached", "batch", "drive_date", "status"}, bson.M{
		"company":             bson.M{"bsonType": "objectId"},
		"company_name_cached": nonEmpty,
		"batch":               bson.M{"bsonType": integer},
		"drive_date":          bson.M{"bsonType": "date"},
		"status":              enum(models.RegistrationOpen, models.RegistrationClosed, models.RegistrationCompleted),
	})
}

func applicationsSchema() bson.M {
	return schema(bson.A{"registration", "student", "status"}, bson.M{
		"registration": bson.M{"bsonType": "objectId"},
		"student":      bson.M{"bsonType": "objectId"},
		"status":       enum(models.ApplicationRegistered, models.ApplicationWithdrawn),
	})
}

func drivesSchema() bson.M {
	return schema(bson.A{"registration", "company", "date", "rounds", "current_round_index", "is_closed"}, bson.M{
		"registration":        bson.M{"bsonType": "objectId"},
		"company":             bson.M{"bsonType": "objectId"},
		"date":                bson.M{"bsonType": "date"},
		"rounds":              bson.M{"bsonType": "array"},
		"current_round_index": bson.M{"bsonType": integer, "minimum": 0},
		"final_selected":      bson.M{"bsonType": bson.A{"array", "null"}},
		"is_closed":           bson.M{"bsonType": "bool"},
	})
}

func blacklistSchema() bson.M {
	return schema(bson.A{"student", "is_active", "added_at"}, bson.M{
		"student":   bson.M{"bsonType": "objectId"},
		"is_active": bson.M{"bsonType": "bool"},
		"added_at":  bson.M{"bsonType": "date"},
	})
}

func experiencesSchema() bson.M {
	return schema(bson.A{"student", "company", "status"}, bson.M{
		"student": bson.M{"bsonType": "objectId"},
		"company": bson.M{"bsonType": "objectId"},
		"status":  enum(models.ExperiencePending, models.ExperienceApproved, models.ExperienceRejected),
	})
}
