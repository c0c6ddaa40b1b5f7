// internal/app/bootstrap/dbdeps.go
package bootstrap

import (
	"github.com/Saravanans7/PlaceMate/internal/app/placement"
	"github.com/Saravanans7/PlaceMate/internal/app/system/auditlog"
	"github.com/Saravanans7/PlaceMate/internal/app/system/ratelimit"
	"github.com/Saravanans7/PlaceMate/internal/app/system/tasks"
	"github.com/Saravanans7/PlaceMate/internal/app/system/timezones"
	"github.com/Saravanans7/PlaceMate/internal/app/system/workers"
	"go.mongodb.org/mongo-driver/mongo"
)

// DBDeps holds database/back-end dependencies for the app.
type DBDeps struct {
	MongoClient   *mongo.Client
	MongoDatabase *mongo.Database

	// Runtime is allocated by ConnectDB and filled in by Startup. The hooks
	// receive DBDeps by value, so the shared services live behind a pointer.
	Runtime *Runtime
}

// Runtime holds the long-lived services built once at startup.
type Runtime struct {
	Clock     *timezones.Clock
	Placement *placement.Service
	Audit     *auditlog.Logger
	Notifier  *workers.Notifier // nil when email is disabled
	Scheduler *tasks.Scheduler
	Limiter   *ratelimit.LoginLimiter
}
