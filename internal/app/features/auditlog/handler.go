// internal/app/features/auditlog/handler.go
package auditlog

import (
	"github.com/Saravanans7/PlaceMate/internal/app/store/audit"
	userstore "github.com/Saravanans7/PlaceMate/internal/app/store/users"
	"github.com/Saravanans7/PlaceMate/internal/app/system/timezones"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type Handler struct {
	Events *audit.Store
	Users  *userstore.Store
	Clock  *timezones.Clock
	Log    *zap.Logger
}

// NewHandler constructs an Audit Log feature handler bound to
// the given Mongo database and logger. Date filters are read in the
// clock's zone.
func NewHandler(db *mongo.Database, clock *timezones.Clock, logger *zap.Logger) *Handler {
	return &Handler{
		Events: audit.New(db),
		Users:  userstore.New(db),
		Clock:  clock,
		Log:    logger,
	}
}
