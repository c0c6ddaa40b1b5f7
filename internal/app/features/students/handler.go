// internal/app/features/students/handler.go
package students

import (
	"github.com/Saravanans7/PlaceMate/internal/app/placement"
	userstore "github.com/Saravanans7/PlaceMate/internal/app/store/users"
	"github.com/Saravanans7/PlaceMate/internal/app/system/auditlog"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler serves staff management of student records.
type Handler struct {
	Svc      *placement.Service
	Users    *userstore.Store
	AuditLog *auditlog.Logger
	Log      *zap.Logger
}

func NewHandler(db *mongo.Database, svc *placement.Service, audit *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{
		Svc:      svc,
		Users:    userstore.New(db),
		AuditLog: audit,
		Log:      logger,
	}
}
