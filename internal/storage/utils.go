package storage

import (
	"context"
	"sync"
	"time"

	"github.com/darrenwiens/env-canada/internal/sources"
	"go.uber.org/zap"
)

// StartHealthMonitor periodically runs checker and records the result in hm
// under name until ctx is cancelled.
func StartHealthMonitor(ctx context.Context, hm *HealthManager, name string, checker HealthChecker, interval time.Duration, logger *zap.SugaredLogger) {
	go func() {
		updateHealth := func() {
			health := checker.CheckHealth(ctx)
			hm.UpdateHealth(name, health)
			logger.Debugf("updated %s health status: %s", name, health.Status)
		}

		updateHealth()

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				updateHealth()
			case <-ctx.Done():
				logger.Infof("stopping %s health monitor", name)
				return
			}
		}
	}()
}

// ProcessUpdates provides a standard pattern for processing updates from a channel
func ProcessUpdates(ctx context.Context, wg *sync.WaitGroup, updateChan <-chan sources.Update, processor func(context.Context, sources.Update) error, name string, logger *zap.SugaredLogger) {
	defer wg.Done()

	for {
		select {
		case u := <-updateChan:
			if err := processor(ctx, u); err != nil {
				logger.Errorf("%s update processor error for %s: %v", name, u.Source, err)
			}
		case <-ctx.Done():
			logger.Infof("cancellation request received. Cancelling %s update processor", name)
			return
		}
	}
}

// CreateHealthData creates a basic health data structure
func CreateHealthData(status, message string, err error) *Health {
	health := &Health{
		LastCheck: time.Now(),
		Status:    status,
		Message:   message,
	}

	if err != nil {
		health.Error = err.Error()
	}

	return health
}
