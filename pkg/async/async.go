// Package async runs detached background tasks for fire-and-forget writes.
//
// A detached task carries no completion guarantee: callers must not depend
// on it finishing before their response is sent.
package async

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// DefaultTimeout bounds a detached task's context.
const DefaultTimeout = 10 * time.Second

// Go runs fn on its own goroutine with a background context bounded by
// DefaultTimeout. Panics are recovered and logged, never propagated to the
// spawning request.
func Go(logger *zap.Logger, name string, fn func(ctx context.Context) error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	go func() {
		defer func() {
			if r := recover(); r != nil {
				logger.Error("detached task panic", zap.String("task", name), zap.Any("panic", r))
			}
		}()
		ctx, cancel := context.WithTimeout(context.Background(), DefaultTimeout)
		defer cancel()
		if err := fn(ctx); err != nil {
			logger.Warn("detached task failed", zap.String("task", name), zap.Error(err))
		}
	}()
}
