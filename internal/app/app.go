// Package app wires the managers together and runs them until shutdown.
package app

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/darrenwiens/env-canada/internal/managers"
	"github.com/darrenwiens/env-canada/pkg/config"
	"go.uber.org/zap"
)

// App represents the main application
type App struct {
	config *config.ConfigData
	logger *zap.SugaredLogger
}

// New creates a new application instance
func New(cfg *config.ConfigData, logger *zap.SugaredLogger) *App {
	return &App{
		config: cfg,
		logger: logger,
	}
}

// Run starts the application and blocks until shutdown
func (a *App) Run(ctx context.Context) error {
	var wg sync.WaitGroup

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Initialize the storage manager
	storageManager, err := managers.NewStorageManager(ctx, &wg, a.config.Storage, a.logger)
	if err != nil {
		return err
	}

	// Initialize the source manager
	sm, err := managers.NewSourceManager(ctx, &wg, a.config, storageManager.UpdateDistributor, a.logger)
	if err != nil {
		cancel()
		wg.Wait()
		storageManager.Close()
		return err
	}
	if err := sm.StartSources(); err != nil {
		return err
	}

	// Initialize the controller manager
	cm, err := managers.NewControllerManager(ctx, &wg, a.config.Controllers, sm, storageManager.Health, a.logger)
	if err != nil {
		return err
	}
	err = cm.StartControllers()
	if err != nil {
		return err
	}

	a.logger.Info("Application started successfully")

	// Set up signal handling
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigs)

	// Wait for shutdown signal
	select {
	case <-sigs:
		a.logger.Info("shutdown signal received, initiating graceful shutdown...")
	case <-ctx.Done():
		a.logger.Info("context cancelled, shutting down...")
	}

	// Cancel context to signal all goroutines to stop
	cancel()

	// Wait for all workers to terminate
	a.logger.Info("waiting for all workers to terminate...")
	wg.Wait()
	if err := storageManager.Close(); err != nil {
		a.logger.Warnf("error closing storage: %v", err)
	}
	a.logger.Info("shutdown complete")

	return nil
}

// Once constructs every source, writes their snapshots to w as indented JSON
// and returns without starting any loops.
func (a *App) Once(ctx context.Context, w io.Writer) error {
	var wg sync.WaitGroup

	sm, err := managers.NewSourceManager(ctx, &wg, a.config, nil, a.logger)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(sm.Updates()); err != nil {
		return fmt.Errorf("error encoding snapshots: %w", err)
	}
	return nil
}
