// internal/app/features/drives/handler.go
package drives

import (
	"github.com/Saravanans7/PlaceMate/internal/app/placement"
	drivestore "github.com/Saravanans7/PlaceMate/internal/app/store/drives"
	userstore "github.com/Saravanans7/PlaceMate/internal/app/store/users"
	"github.com/Saravanans7/PlaceMate/internal/app/system/auditlog"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler serves the drive engine: staff progression and the student
// progress view.
type Handler struct {
	Svc      *placement.Service
	Drives   *drivestore.Store
	Users    *userstore.Store
	AuditLog *auditlog.Logger
	Log      *zap.Logger
}

func NewHandler(db *mongo.Database, svc *placement.Service, audit *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{
		Svc:      svc,
		Drives:   drivestore.New(db),
		Users:    userstore.New(db),
		AuditLog: audit,
		Log:      logger,
	}
}
