// Package storage defines the contract for engines that persist source snapshots.
package storage

import (
	"context"
	"sync"

	"github.com/darrenwiens/env-canada/internal/sources"
)

// StorageEngineInterface is an interface that provides a few standardized
// methods for various storage backends
type StorageEngineInterface interface {
	StartStorageEngine(context.Context, *sync.WaitGroup) chan<- sources.Update
}

// HealthChecker defines the interface for storage backends to implement health checks
type HealthChecker interface {
	CheckHealth(ctx context.Context) *Health
}
