// internal/app/features/companies/handler.go
package companies

import (
	companystore "github.com/Saravanans7/PlaceMate/internal/app/store/companies"
	registrationstore "github.com/Saravanans7/PlaceMate/internal/app/store/registrations"
	"github.com/Saravanans7/PlaceMate/internal/app/system/auditlog"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler serves the company catalogue.
type Handler struct {
	Companies     *companystore.Store
	Registrations *registrationstore.Store
	AuditLog      *auditlog.Logger
	Log           *zap.Logger
}

func NewHandler(db *mongo.Database, audit *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{
		Companies:     companystore.New(db),
		Registrations: registrationstore.New(db),
		AuditLog:      audit,
		Log:           logger,
	}
}
