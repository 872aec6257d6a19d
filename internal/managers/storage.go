package managers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/darrenwiens/env-canada/internal/sources"
	"github.com/darrenwiens/env-canada/internal/storage"
	"github.com/darrenwiens/env-canada/internal/storage/sqlite"
	"github.com/darrenwiens/env-canada/internal/storage/timescaledb"
	"github.com/darrenwiens/env-canada/pkg/config"
	"go.uber.org/zap"
)

// healthInterval is how often each engine's health is re-checked.
const healthInterval = time.Minute

// StorageManager holds our active storage backends
type StorageManager struct {
	Engines           []StorageEngine
	UpdateDistributor chan sources.Update
	Health            *storage.HealthManager
	logger            *zap.SugaredLogger
}

// StorageEngine holds a backend storage engine's interface as well as
// a channel for passing updates to the engine
type StorageEngine struct {
	Name   string
	Engine storage.StorageEngineInterface
	C      chan<- sources.Update
}

// NewStorageManager creates a StorageManager object, populated with all configured StorageEngines
func NewStorageManager(ctx context.Context, wg *sync.WaitGroup, sc config.StorageData, logger *zap.SugaredLogger) (*StorageManager, error) {
	s := &StorageManager{
		UpdateDistributor: make(chan sources.Update, 20),
		Health:            storage.NewHealthManager(),
		logger:            logger,
	}

	if sc.TimescaleDB != nil && sc.TimescaleDB.ConnectionString != "" {
		engine, err := timescaledb.New(ctx, sc.TimescaleDB.ConnectionString, logger.Named("timescaledb"))
		if err != nil {
			return nil, fmt.Errorf("could not add TimescaleDB storage backend: %w", err)
		}
		s.AddEngine(ctx, wg, "timescaledb", engine)
	}

	if sc.SQLite != nil && sc.SQLite.Path != "" {
		engine, err := sqlite.New(ctx, sc.SQLite.Path, logger.Named("sqlite"))
		if err != nil {
			return nil, fmt.Errorf("could not add SQLite storage backend: %w", err)
		}
		s.AddEngine(ctx, wg, "sqlite", engine)
	}

	// Start our update distributor to distribute received updates to storage
	// backends
	wg.Add(1)
	go s.startUpdateDistributor(ctx, wg)

	return s, nil
}

// AddEngine starts engine and registers it with the distributor. Engines that
// can check their own health get a health monitor.
func (s *StorageManager) AddEngine(ctx context.Context, wg *sync.WaitGroup, name string, engine storage.StorageEngineInterface) {
	se := StorageEngine{
		Name:   name,
		Engine: engine,
		C:      engine.StartStorageEngine(ctx, wg),
	}
	s.Engines = append(s.Engines, se)

	if checker, ok := engine.(storage.HealthChecker); ok {
		storage.StartHealthMonitor(ctx, s.Health, name, checker, healthInterval, s.logger)
	}
}

// startUpdateDistributor receives updates from sources and fans them out to the various
// storage backends
func (s *StorageManager) startUpdateDistributor(ctx context.Context, wg *sync.WaitGroup) {
	defer wg.Done()

	for {
		select {
		case u := <-s.UpdateDistributor:
			for _, e := range s.Engines {
				select {
				case e.C <- u:
				case <-ctx.Done():
					return
				}
			}
		case <-ctx.Done():
			return
		}
	}
}

// Close releases engines that hold open resources. Call it after every
// engine goroutine has stopped.
func (s *StorageManager) Close() error {
	var errs []error
	for _, e := range s.Engines {
		if c, ok := e.Engine.(io.Closer); ok {
			if err := c.Close(); err != nil {
				errs = append(errs, fmt.Errorf("closing %s: %w", e.Name, err))
			}
		}
	}
	return errors.Join(errs...)
}
