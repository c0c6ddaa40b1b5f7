package bootstrap

import (
	"context"
	"errors"

	userstore "github.com/Saravanans7/PlaceMate/internal/app/store/users"
	"github.com/Saravanans7/PlaceMate/internal/app/system/authutil"
	"github.com/Saravanans7/PlaceMate/internal/app/system/normalize"
	"github.com/Saravanans7/PlaceMate/internal/app/system/timeouts"
	"github.com/Saravanans7/PlaceMate/internal/domain/models"
	"go.uber.org/zap"
)

// ensureStaff makes sure the configured placement staff account exists.
// An existing student with the email is promoted; an existing staff
// account is left untouched, password included.
func ensureStaff(ctx context.Context, deps DBDeps, appCfg AppConfig, logger *zap.Logger) error {
	email := normalize.Email(appCfg.StaffEmail)
	if email == "" {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, timeouts.Short())
	defer cancel()

	users := userstore.New(deps.MongoDatabase)
	u, err := users.GetByEmail(ctx, email)
	switch {
	case err == nil:
		if u.Role == models.RoleStaff {
			return nil
		}
		if err := users.PromoteToStaff(ctx, u.ID); err != nil {
			return err
		}
		logger.Warn("existing user promoted to staff", zap.String("email", email))
		return nil
	case !errors.Is(err, userstore.ErrNotFound):
		return err
	}

	staff := models.User{Name: appCfg.StaffName, Email: email, Role: models.RoleStaff}
	if appCfg.StaffPassword != "" {
		hash, err := authutil.HashPassword(appCfg.StaffPassword)
		if err != nil {
			return err
		}
		staff.PasswordHash = hash
	}
	if _, err := users.Create(ctx, staff); err != nil {
		return err
	}
	logger.Info("staff account created", zap.String("email", email))
	return nil
}
