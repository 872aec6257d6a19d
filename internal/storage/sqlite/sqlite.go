// Package sqlite keeps the latest snapshot of every source in a local SQLite
// file, encoded as MessagePack.
package sqlite

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/darrenwiens/env-canada/internal/sources"
	"github.com/darrenwiens/env-canada/internal/storage"
	"github.com/vmihailenco/msgpack/v5"
	"go.uber.org/zap"

	_ "modernc.org/sqlite"
)

// ErrNotFound is returned by Load for a source that was never stored.
var ErrNotFound = errors.New("snapshot not found")

const createTableSQL = `CREATE TABLE IF NOT EXISTS snapshots (
	source     TEXT PRIMARY KEY,
	kind       TEXT NOT NULL,
	station    TEXT NOT NULL,
	updated_at TEXT NOT NULL,
	data       BLOB NOT NULL
)`

const upsertSQL = `INSERT INTO snapshots (source, kind, station, updated_at, data)
VALUES (?, ?, ?, ?, ?)
ON CONFLICT(source) DO UPDATE SET
	kind = excluded.kind,
	station = excluded.station,
	updated_at = excluded.updated_at,
	data = excluded.data`

// Storage is a SQLite storage backend
type Storage struct {
	db     *sql.DB
	logger *zap.SugaredLogger
}

// Record is a stored snapshot with its raw MessagePack payload.
type Record struct {
	Source    string
	Kind      sources.Kind
	Station   string
	UpdatedAt time.Time
	Data      []byte
}

// Decode unpacks the payload into v using the snapshot's JSON field names.
func (r *Record) Decode(v interface{}) error {
	dec := msgpack.NewDecoder(bytes.NewReader(r.Data))
	dec.SetCustomStructTag("json")
	return dec.Decode(v)
}

// New opens (or creates) the database at path
func New(ctx context.Context, path string, logger *zap.SugaredLogger) (*Storage, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}
	// SQLite allows a single writer.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping SQLite database: %w", err)
	}
	if _, err := db.ExecContext(ctx, createTableSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create snapshots table: %w", err)
	}

	return &Storage{db: db, logger: logger}, nil
}

// StartStorageEngine creates a goroutine loop to receive updates and write
// them to SQLite
func (s *Storage) StartStorageEngine(ctx context.Context, wg *sync.WaitGroup) chan<- sources.Update {
	s.logger.Info("starting SQLite storage engine...")
	updateChan := make(chan sources.Update, 10)
	wg.Add(1)
	go storage.ProcessUpdates(ctx, wg, updateChan, s.StoreUpdate, "sqlite", s.logger)
	return updateChan
}

// StoreUpdate replaces the stored snapshot for u.Source
func (s *Storage) StoreUpdate(ctx context.Context, u sources.Update) error {
	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	enc.SetCustomStructTag("json")
	if err := enc.Encode(u.Snapshot); err != nil {
		return fmt.Errorf("failed to encode snapshot for %s: %w", u.Source, err)
	}

	_, err := s.db.ExecContext(ctx, upsertSQL,
		u.Source, string(u.Kind), u.Station, u.Time.UTC().Format(time.RFC3339Nano), buf.Bytes())
	if err != nil {
		return fmt.Errorf("failed to store snapshot for %s: %w", u.Source, err)
	}
	return nil
}

// Load returns the stored snapshot for source.
func (s *Storage) Load(ctx context.Context, source string) (*Record, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT source, kind, station, updated_at, data FROM snapshots WHERE source = ?`, source)
	r, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", source, ErrNotFound)
	}
	return r, err
}

// List returns every stored snapshot ordered by source name.
func (s *Storage) List(ctx context.Context) ([]*Record, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT source, kind, station, updated_at, data FROM snapshots ORDER BY source`)
	if err != nil {
		return nil, fmt.Errorf("failed to query snapshots: %w", err)
	}
	defer rows.Close()

	var records []*Record
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

// CheckHealth pings the database
func (s *Storage) CheckHealth(ctx context.Context) *storage.Health {
	if err := s.db.PingContext(ctx); err != nil {
		return storage.CreateHealthData(storage.StatusUnhealthy, "SQLite ping failed", err)
	}
	return storage.CreateHealthData(storage.StatusHealthy, "SQLite operational", nil)
}

// Close closes the database
func (s *Storage) Close() error {
	return s.db.Close()
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanRecord(row scanner) (*Record, error) {
	var (
		r       Record
		kind    string
		updated string
	)
	if err := row.Scan(&r.Source, &kind, &r.Station, &updated, &r.Data); err != nil {
		return nil, err
	}
	r.Kind = sources.Kind(kind)

	t, err := time.Parse(time.RFC3339Nano, updated)
	if err != nil {
		return nil, fmt.Errorf("bad updated_at for %s: %w", r.Source, err)
	}
	r.UpdatedAt = t
	return &r, nil
}
