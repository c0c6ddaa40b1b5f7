// internal/app/features/blacklist/handler.go
package blacklist

import (
	blackliststore "github.com/Saravanans7/PlaceMate/internal/app/store/blacklist"
	userstore "github.com/Saravanans7/PlaceMate/internal/app/store/users"
	"github.com/Saravanans7/PlaceMate/internal/app/system/auditlog"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler serves the staff blacklist.
type Handler struct {
	Blacklist *blackliststore.Store
	Users     *userstore.Store
	AuditLog  *auditlog.Logger
	Log       *zap.Logger
}

func NewHandler(db *mongo.Database, audit *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{
		Blacklist: blackliststore.New(db),
		Users:     userstore.New(db),
		AuditLog:  audit,
		Log:       logger,
	}
}
