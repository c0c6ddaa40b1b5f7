// internal/app/features/registrations/handler.go
package registrations

import (
	"github.com/Saravanans7/PlaceMate/internal/app/placement"
	applicationstore "github.com/Saravanans7/PlaceMate/internal/app/store/applications"
	drivestore "github.com/Saravanans7/PlaceMate/internal/app/store/drives"
	registrationstore "github.com/Saravanans7/PlaceMate/internal/app/store/registrations"
	"github.com/Saravanans7/PlaceMate/internal/app/system/auditlog"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler serves registrations and the application ledger.
type Handler struct {
	Svc           *placement.Service
	Registrations *registrationstore.Store
	Applications  *applicationstore.Store
	Drives        *drivestore.Store
	AuditLog      *auditlog.Logger
	Log           *zap.Logger
}

func NewHandler(db *mongo.Database, svc *placement.Service, audit *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{
		Svc:           svc,
		Registrations: registrationstore.New(db),
		Applications:  applicationstore.New(db),
		Drives:        drivestore.New(db),
		AuditLog:      audit,
		Log:           logger,
	}
}
