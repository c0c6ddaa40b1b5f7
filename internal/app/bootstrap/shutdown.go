// internal/app/bootstrap/shutdown.go
package bootstrap

import (
	"context"

	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"
)

// Shutdown stops background work, then tears down DB connections. Jobs
// and queued email finish before the client is closed.
func Shutdown(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	if rt := deps.Runtime; rt != nil {
		if rt.Scheduler != nil {
			rt.Scheduler.Stop(ctx)
		}
		if rt.Notifier != nil {
			rt.Notifier.Stop()
		}
		if rt.Limiter != nil {
			rt.Limiter.Stop()
		}
	}
	if deps.MongoClient != nil {
		logger.Info("disconnecting PlaceMate MongoDB client")
		if err := deps.MongoClient.Disconnect(ctx); err != nil {
			logger.Error("MongoDB disconnect failed", zap.Error(err))
			return err
		}
	}
	return nil
}
