// Package timescaledb stores the latest snapshot of every source in PostgreSQL.
package timescaledb

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/darrenwiens/env-canada/internal/database"
	"github.com/darrenwiens/env-canada/internal/sources"
	"github.com/darrenwiens/env-canada/internal/storage"
	"github.com/jackc/pgtype"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Storage holds the configuration for a TimescaleDB storage backend
type Storage struct {
	TimescaleDBConn *gorm.DB
	logger          *zap.SugaredLogger
}

// SnapshotRecord is one row per source holding its most recent snapshot.
type SnapshotRecord struct {
	Source    string       `gorm:"primaryKey;column:source"`
	Kind      string       `gorm:"column:kind;not null"`
	Station   string       `gorm:"column:station;not null"`
	UpdatedAt time.Time    `gorm:"column:updated_at;not null;autoUpdateTime:false"`
	Data      pgtype.JSONB `gorm:"column:data;type:jsonb;not null"`
}

// TableName customizes the table name in the DB
func (SnapshotRecord) TableName() string {
	return "envcanada_snapshots"
}

// New connects to TimescaleDB and creates the snapshot table
func New(ctx context.Context, connectionString string, logger *zap.SugaredLogger) (*Storage, error) {
	db, err := database.CreateConnection(connectionString, logger)
	if err != nil {
		return nil, err
	}

	logger.Info("creating snapshot table...")
	if err := db.WithContext(ctx).AutoMigrate(&SnapshotRecord{}); err != nil {
		return nil, fmt.Errorf("could not migrate %s: %w", SnapshotRecord{}.TableName(), err)
	}

	return &Storage{TimescaleDBConn: db, logger: logger}, nil
}

// StartStorageEngine creates a goroutine loop to receive updates and send
// them off to TimescaleDB
func (t *Storage) StartStorageEngine(ctx context.Context, wg *sync.WaitGroup) chan<- sources.Update {
	t.logger.Info("starting TimescaleDB storage engine...")
	updateChan := make(chan sources.Update, 10)
	wg.Add(1)
	go storage.ProcessUpdates(ctx, wg, updateChan, t.StoreUpdate, "timescaledb", t.logger)
	return updateChan
}

// StoreUpdate upserts the snapshot row for u.Source
func (t *Storage) StoreUpdate(ctx context.Context, u sources.Update) error {
	record, err := newRecord(u)
	if err != nil {
		return err
	}

	err = t.TimescaleDBConn.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "source"}},
		UpdateAll: true,
	}).Create(record).Error
	if err != nil {
		return fmt.Errorf("could not store snapshot: %w", err)
	}
	return nil
}

// Latest returns the stored row for source.
func (t *Storage) Latest(ctx context.Context, source string) (*SnapshotRecord, error) {
	var record SnapshotRecord
	if err := t.TimescaleDBConn.WithContext(ctx).First(&record, "source = ?", source).Error; err != nil {
		return nil, err
	}
	return &record, nil
}

// CheckHealth pings the database
func (t *Storage) CheckHealth(ctx context.Context) *storage.Health {
	if t.TimescaleDBConn == nil {
		return storage.CreateHealthData(storage.StatusUnhealthy, "No database connection", nil)
	}
	if err := database.Ping(ctx, t.TimescaleDBConn); err != nil {
		return storage.CreateHealthData(storage.StatusUnhealthy, "TimescaleDB unreachable", err)
	}
	return storage.CreateHealthData(storage.StatusHealthy, "TimescaleDB operational", nil)
}

func newRecord(u sources.Update) (*SnapshotRecord, error) {
	jsonData, err := json.Marshal(u.Snapshot)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal snapshot for %s: %w", u.Source, err)
	}

	record := &SnapshotRecord{
		Source:    u.Source,
		Kind:      string(u.Kind),
		Station:   u.Station,
		UpdatedAt: u.Time,
	}
	if err := record.Data.Set(jsonData); err != nil {
		return nil, fmt.Errorf("failed to set JSONB data: %w", err)
	}
	return record, nil
}
