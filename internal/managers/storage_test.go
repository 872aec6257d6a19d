package managers

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/darrenwiens/env-canada/internal/sources"
	"github.com/darrenwiens/env-canada/internal/storage/sqlite"
	"github.com/darrenwiens/env-canada/pkg/config"
	"go.uber.org/zap"
)

func TestStorageManagerFansOutToSQLite(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	var wg sync.WaitGroup

	path := filepath.Join(t.TempDir(), "snapshots.db")
	sm, err := NewStorageManager(ctx, &wg, config.StorageData{SQLite: &config.SQLiteData{Path: path}}, zap.NewNop().Sugar())
	if err != nil {
		t.Fatal(err)
	}
	if len(sm.Engines) != 1 || sm.Engines[0].Name != "sqlite" {
		t.Fatalf("engines = %+v", sm.Engines)
	}

	sm.UpdateDistributor <- sources.Update{Source: "rideau", Kind: sources.KindHydro, Station: "ON/02LA004", Snapshot: map[string]float64{"level": 1}}

	engine := sm.Engines[0].Engine.(*sqlite.Storage)
	deadline := time.Now().Add(2 * time.Second)
	for {
		if _, err := engine.Load(ctx, "rideau"); err == nil {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("update never reached the sqlite engine")
		}
		time.Sleep(10 * time.Millisecond)
	}

	cancel()
	wg.Wait()
	if err := sm.Close(); err != nil {
		t.Errorf("Close: %v", err)
	}
}

func TestStorageManagerWithoutEngines(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	var wg sync.WaitGroup

	sm, err := NewStorageManager(ctx, &wg, config.StorageData{}, zap.NewNop().Sugar())
	if err != nil {
		t.Fatal(err)
	}
	sm.UpdateDistributor <- sources.Update{Source: "dropped"}

	cancel()
	wg.Wait()
	if !sm.Health.Healthy() {
		t.Error("no engines should mean healthy")
	}
}
