// internal/app/system/indexes/indexes.go
package indexes

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

/*
EnsureAll is called at startup. Each ensure* function is idempotent.
We aggregate errors so any problem is visible and startup can fail fast.
Several placement invariants live here, not in code: one application per
(registration, student), one drive per registration, one active blacklist
entry per student.
*/
func EnsureAll(ctx context.Context, db *mongo.Database) error {
	sets := []struct {
		name string
		fn   func(context.Context, *mongo.Database) error
	}{
		{"users", ensureUsers},
		{"companies", ensureCompanies},
		{"registrations", ensureRegistrations},
		{"applications", ensureApplications},
		{"drives", ensureDrives},
		{"blacklist", ensureBlacklist},
		{"interview_experiences", ensureExperiences},
		{"oauth_states", ensureOAuthStates},
		{"audit_events", ensureAuditEvents},
	}

	var problems []string
	for _, s := range sets {
		if err := s.fn(ctx, db); err != nil {
			problems = append(problems, s.name+": "+err.Error())
		}
	}
	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}

/* -------------------------------------------------------------------------- */
/* Core helper: reconcile a set of desired indexes for one collection         */
/* -------------------------------------------------------------------------- */

type existingIndex struct {
	Name   string `bson:"name"`
	Key    bson.D `bson:"key"`
	Unique *bool  `bson:"unique,omitempty"`
	TTL    *int32 `bson:"expireAfterSeconds,omitempty"`
	// partialFilterExpression is compared by its marshalled form
	Partial bson.Raw `bson:"partialFilterExpression,omitempty"`
}

func keySig(keys bson.D) string {
	parts := make([]string, 0, len(keys))
	for _, kv := range keys {
		parts = append(parts, fmt.Sprintf("%s:%v", kv.Key, kv.Value))
	}
	return strings.Join(parts, ", ")
}

func boolOf(b *bool) bool { return b != nil && *b }

// desired captures the options we reconcile on.
type desired struct {
	name    string
	sig     string
	unique  bool
	ttl     *int32
	partial string
}

func describe(m mongo.IndexModel) desired {
	d := desired{sig: keySig(m.Keys.(bson.D))}
	if o := m.Options; o != nil {
		if o.Name != nil {
			d.name = *o.Name
		}
		d.unique = boolOf(o.Unique)
		d.ttl = o.ExpireAfterSeconds
		if o.PartialFilterExpression != nil {
			if raw, err := bson.Marshal(o.PartialFilterExpression); err == nil {
				d.partial = bson.Raw(raw).String()
			}
		}
	}
	return d
}

func (d desired) matches(ex existingIndex) bool {
	if d.unique != boolOf(ex.Unique) {
		return false
	}
	if (d.ttl == nil) != (ex.TTL == nil) || (d.ttl != nil && *d.ttl != *ex.TTL) {
		return false
	}
	exPartial := ""
	if len(ex.Partial) > 0 {
		exPartial = ex.Partial.String()
	}
	return d.partial == exPartial
}

// Best-effort duplicate-detector (works cross-vendors)
func isDuplicateKeyErr(err error) bool {
	if err == nil {
		return false
	}
	if mongo.IsDuplicateKeyError(err) {
		return true
	}
	s := err.Error()
	return strings.Contains(s, "E11000") || strings.Contains(strings.ToLower(s), "duplicate key")
}

func listExisting(ctx context.Context, coll *mongo.Collection) map[string]existingIndex {
	existing := map[string]existingIndex{}
	cur, err := coll.Indexes().List(ctx)
	if err != nil {
		return existing
	}
	defer cur.Close(ctx)
	for cur.Next(ctx) {
		var idx existingIndex
		if err := cur.Decode(&idx); err != nil {
			zap.L().Warn("failed to decode existing index",
				zap.String("collection", coll.Name()),
				zap.Error(err))
			continue
		}
		existing[keySig(idx.Key)] = idx
	}
	return existing
}

func createErr(coll *mongo.Collection, d desired, err error) string {
	if isDuplicateKeyErr(err) && d.unique {
		return fmt.Sprintf("%s(%s): cannot create unique index on {%s} (duplicates present)", coll.Name(), d.name, d.sig)
	}
	return fmt.Sprintf("%s(%s): %v", coll.Name(), d.name, err)
}

func ensureIndexSet(ctx context.Context, coll *mongo.Collection, models []mongo.IndexModel) error {
	var errs []string
	existing := listExisting(ctx, coll)

	for _, m := range models {
		d := describe(m)
		start := time.Now()
		log := zap.L().With(
			zap.String("collection", coll.Name()),
			zap.String("name", d.name),
			zap.String("keys", d.sig),
			zap.Bool("unique", d.unique))

		if ex, ok := existing[d.sig]; ok {
			if d.matches(ex) && (d.name == "" || ex.Name == d.name) {
				log.Debug("reusing existing index", zap.Duration("took", time.Since(start)))
				continue
			}
			// Options or name differ: drop and recreate.
			if _, err := coll.Indexes().DropOne(ctx, ex.Name); err != nil {
				log.Warn("drop existing index failed", zap.String("existing", ex.Name), zap.Error(err))
				errs = append(errs, fmt.Sprintf("%s(%s): drop failed: %v", coll.Name(), d.name, err))
				continue
			}
			if _, err := coll.Indexes().CreateOne(ctx, m); err != nil {
				log.Warn("recreate index failed", zap.Error(err))
				errs = append(errs, createErr(coll, d, err))
				continue
			}
			log.Info("index dropped and recreated",
				zap.String("previous", ex.Name),
				zap.Duration("took", time.Since(start)))
			continue
		}

		created, err := coll.Indexes().CreateOne(ctx, m)
		if err != nil {
			log.Warn("index ensure failed", zap.Duration("took", time.Since(start)), zap.Error(err))
			errs = append(errs, createErr(coll, d, err))
			continue
		}
		log.Info("index ensured",
			zap.String("created_name", created),
			zap.Duration("took", time.Since(start)))
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

/* -------------------------------------------------------------------------- */
/* Collection-specific index sets                                              */
/* -------------------------------------------------------------------------- */

func ensureUsers(ctx context.Context, db *mongo.Database) error {
	return ensureIndexSet(ctx, db.Collection("users"), []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_users_email"),
		},
		// Username is optional; uniqueness only applies when it is set.
		{
			Keys: bson.D{{Key: "username", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_users_username").
				SetPartialFilterExpression(bson.M{"username": bson.M{"$type": "string"}}),
		},
		{
			Keys: bson.D{{Key: "google_id", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_users_googleid").
				SetPartialFilterExpression(bson.M{"google_id": bson.M{"$type": "string"}}),
		},
		// Student lists and notification fan-out by batch.
		{
			Keys: bson.D{
				{Key: "role", Value: 1},
				{Key: "batch", Value: 1},
				{Key: "name_ci", Value: 1},
				{Key: "_id", Value: 1},
			},
			Options: options.Index().SetName("idx_users_role_batch_nameci_id"),
		},
		{
			Keys:    bson.D{{Key: "role", Value: 1}, {Key: "is_placed", Value: 1}},
			Options: options.Index().SetName("idx_users_role_placed"),
		},
	})
}

func ensureCompanies(ctx context.Context, db *mongo.Database) error {
	return ensureIndexSet(ctx, db.Collection("companies"), []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "name_ci", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_companies_nameci"),
		},
		{
			Keys:    bson.D{{Key: "created_at", Value: -1}},
			Options: options.Index().SetName("idx_companies_created"),
		},
	})
}

func ensureRegistrations(ctx context.Context, db *mongo.Database) error {
	return ensureIndexSet(ctx, db.Collection("registrations"), []mongo.IndexModel{
		// Daily backfill and reminder scans: open registrations by date.
		{
			Keys:    bson.D{{Key: "status", Value: 1}, {Key: "drive_date", Value: 1}},
			Options: options.Index().SetName("idx_regs_status_drivedate"),
		},
		{
			Keys:    bson.D{{Key: "company", Value: 1}, {Key: "drive_date", Value: -1}},
			Options: options.Index().SetName("idx_regs_company_drivedate"),
		},
		{
			Keys:    bson.D{{Key: "batch", Value: 1}, {Key: "drive_date", Value: -1}},
			Options: options.Index().SetName("idx_regs_batch_drivedate"),
		},
	})
}

func ensureApplications(ctx context.Context, db *mongo.Database) error {
	return ensureIndexSet(ctx, db.Collection("applications"), []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "registration", Value: 1}, {Key: "student", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_apps_reg_student"),
		},
		{
			Keys:    bson.D{{Key: "student", Value: 1}, {Key: "registered_at", Value: -1}},
			Options: options.Index().SetName("idx_apps_student_registered"),
		},
		{
			Keys:    bson.D{{Key: "registration", Value: 1}, {Key: "status", Value: 1}},
			Options: options.Index().SetName("idx_apps_reg_status"),
		},
	})
}

func ensureDrives(ctx context.Context, db *mongo.Database) error {
	return ensureIndexSet(ctx, db.Collection("drives"), []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "registration", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_drives_registration"),
		},
		{
			Keys:    bson.D{{Key: "date", Value: -1}},
			Options: options.Index().SetName("idx_drives_date"),
		},
		{
			Keys:    bson.D{{Key: "company", Value: 1}, {Key: "date", Value: -1}},
			Options: options.Index().SetName("idx_drives_company_date"),
		},
	})
}

func ensureBlacklist(ctx context.Context, db *mongo.Database) error {
	return ensureIndexSet(ctx, db.Collection("blacklist"), []mongo.IndexModel{
		// At most one active entry per student; removed entries are history.
		{
			Keys: bson.D{{Key: "student", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_blacklist_active_student").
				SetPartialFilterExpression(bson.M{"is_active": true}),
		},
		{
			Keys:    bson.D{{Key: "is_active", Value: 1}, {Key: "added_at", Value: -1}},
			Options: options.Index().SetName("idx_blacklist_active_added"),
		},
	})
}

func ensureExperiences(ctx context.Context, db *mongo.Database) error {
	return ensureIndexSet(ctx, db.Collection("interview_experiences"), []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "status", Value: 1}, {Key: "created_at", Value: -1}},
			Options: options.Index().SetName("idx_exp_status_created"),
		},
		{
			Keys:    bson.D{{Key: "company_name_ci", Value: 1}, {Key: "status", Value: 1}},
			Options: options.Index().SetName("idx_exp_companyci_status"),
		},
		{
			Keys:    bson.D{{Key: "student", Value: 1}, {Key: "created_at", Value: -1}},
			Options: options.Index().SetName("idx_exp_student_created"),
		},
	})
}

func ensureOAuthStates(ctx context.Context, db *mongo.Database) error {
	return ensureIndexSet(ctx, db.Collection("oauth_states"), []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "state", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_oauth_state"),
		},
		{
			Keys:    bson.D{{Key: "expires_at", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(0).SetName("ttl_oauth_expires"),
		},
	})
}

func ensureAuditEvents(ctx context.Context, db *mongo.Database) error {
	return ensureIndexSet(ctx, db.Collection("audit_events"), []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "created_at", Value: -1}},
			Options: options.Index().SetName("idx_audit_created"),
		},
		{
			Keys:    bson.D{{Key: "category", Value: 1}, {Key: "created_at", Value: -1}},
			Options: options.Index().SetName("idx_audit_category_created"),
		},
		{
			Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "created_at", Value: -1}},
			Options: options.Index().SetName("idx_audit_user_created"),
		},
	})
}
