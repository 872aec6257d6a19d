package main

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/darrenwiens/env-canada/internal/storage/sqlite"
	"go.uber.org/zap"
)

type dumpFormat string

const (
	formatCSV  dumpFormat = "csv"
	formatJSON dumpFormat = "json"
)

type entry struct {
	Source    string      `json:"source"`
	Kind      string      `json:"kind"`
	Station   string      `json:"station"`
	UpdatedAt time.Time   `json:"updated_at"`
	Snapshot  interface{} `json:"snapshot"`
}

func main() {
	dbPath := flag.String("db", "snapshots.db", "Path to the SQLite snapshot database")
	source := flag.String("source", "", "Only dump this source")
	formatStr := flag.String("format", "json", "Output format: json or csv (csv omits the snapshot body)")
	flag.Parse()

	format := dumpFormat(*formatStr)
	if format != formatJSON && format != formatCSV {
		fmt.Fprintf(os.Stderr, "Invalid format: %s. Must be json or csv\n", *formatStr)
		os.Exit(1)
	}

	if _, err := os.Stat(*dbPath); err != nil {
		fmt.Fprintf(os.Stderr, "Cannot open %s: %v\n", *dbPath, err)
		os.Exit(1)
	}

	ctx := context.Background()
	store, err := sqlite.New(ctx, *dbPath, zap.NewNop().Sugar())
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
	defer store.Close()

	var records []*sqlite.Record
	if *source != "" {
		r, err := store.Load(ctx, *source)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%v\n", err)
			os.Exit(1)
		}
		records = append(records, r)
	} else if records, err = store.List(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}

	switch format {
	case formatCSV:
		err = writeCSV(records)
	default:
		err = writeJSON(records)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
}

func writeJSON(records []*sqlite.Record) error {
	entries := make([]entry, 0, len(records))
	for _, r := range records {
		var snapshot interface{}
		if err := r.Decode(&snapshot); err != nil {
			return fmt.Errorf("decoding %s: %w", r.Source, err)
		}
		entries = append(entries, entry{
			Source:    r.Source,
			Kind:      string(r.Kind),
			Station:   r.Station,
			UpdatedAt: r.UpdatedAt,
			Snapshot:  snapshot,
		})
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(entries)
}

func writeCSV(records []*sqlite.Record) error {
	w := csv.NewWriter(os.Stdout)
	if err := w.Write([]string{"source", "kind", "station", "updated_at", "bytes"}); err != nil {
		return err
	}
	for _, r := range records {
		row := []string{r.Source, string(r.Kind), r.Station, r.UpdatedAt.Format(time.RFC3339), fmt.Sprint(len(r.Data))}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}
