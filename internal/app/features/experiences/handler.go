// internal/app/features/experiences/handler.go
package experiences

import (
	"github.com/Saravanans7/PlaceMate/internal/app/placement"
	experiencestore "github.com/Saravanans7/PlaceMate/internal/app/store/experiences"
	"github.com/Saravanans7/PlaceMate/internal/app/system/auditlog"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler serves interview experiences and their moderation queue.
type Handler struct {
	Svc         *placement.Service
	Experiences *experiencestore.Store
	AuditLog    *auditlog.Logger
	Log         *zap.Logger
}

func NewHandler(db *mongo.Database, svc *placement.Service, audit *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{
		Svc:         svc,
		Experiences: experiencestore.New(db),
		AuditLog:    audit,
		Log:         logger,
	}
}
