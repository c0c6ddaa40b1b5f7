// Package txn runs multi-document writes in a MongoDB transaction when the
// deployment supports one (replica set or sharded cluster) and falls back to
// plain sequential writes on a standalone server.
//
// Callers that may hit the fallback path must make their writes idempotent
// so a retry after a partial failure converges on the same state.
package txn

import (
	"context"
	"errors"
	"strings"

	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// IsNotSupported reports whether err means the server cannot run transactions.
func IsNotSupported(err error) bool {
	if err == nil {
		return false
	}
	// A server error with a code is decided by the code alone.
	var ce mongo.CommandError
	if errors.As(err, &ce) && ce.Code != 0 {
		switch ce.Code {
		case 20, // IllegalOperation: transactions need a replica set
			51,  // sessions unsupported
			263: // OperationNotSupportedInTransaction
			return true
		}
		return false
	}
	// Driver-side errors carry no code.
	s := strings.ToLower(err.Error())
	switch {
	case strings.Contains(s, "transaction") && strings.Contains(s, "replica set"):
		return true
	case strings.Contains(s, "does not support sessions"):
		return true
	case strings.Contains(s, "session") && strings.Contains(s, "not supported"):
		return true
	}
	return false
}

// Run executes fn inside a transaction. If the server does not support
// transactions, fn is run again without one.
func Run(ctx context.Context, client *mongo.Client, log *zap.Logger, fn func(ctx context.Context) error) error {
	sess, err := client.StartSession()
	if err != nil {
		if IsNotSupported(err) {
			warnFallback(log, err)
			return fn(ctx)
		}
		return err
	}
	defer sess.EndSession(ctx)

	_, err = sess.WithTransaction(ctx, func(sc mongo.SessionContext) (any, error) {
		return nil, fn(sc)
	})
	if err != nil && IsNotSupported(err) {
		warnFallback(log, err)
		return fn(ctx)
	}
	return err
}

func warnFallback(log *zap.Logger, err error) {
	if log != nil {
		log.Warn("transactions unavailable; running writes without one", zap.Error(err))
	}
}
