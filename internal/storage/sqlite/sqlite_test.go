package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/darrenwiens/env-canada/internal/sources"
	"go.uber.org/zap"
)

type snapshot struct {
	WaterLevel sources.Field[float64] `json:"water_level"`
	Discharge  sources.Field[float64] `json:"discharge"`
}

func newStorage(t *testing.T) *Storage {
	t.Helper()
	s, err := New(context.Background(), filepath.Join(t.TempDir(), "snapshots.db"), zap.NewNop().Sugar())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestStoreAndLoad(t *testing.T) {
	ctx := context.Background()
	s := newStorage(t)

	at := time.Date(2024, 5, 1, 12, 30, 0, 0, time.UTC)
	u := sources.Update{
		Source:  "rideau",
		Kind:    sources.KindHydro,
		Station: "ON/02LA004",
		Time:    at,
		Snapshot: snapshot{
			WaterLevel: sources.NewField("Water Level", 74.2, "m"),
			Discharge:  sources.Field[float64]{Label: "Discharge", Unit: "m³/s"},
		},
	}
	if err := s.StoreUpdate(ctx, u); err != nil {
		t.Fatal(err)
	}

	r, err := s.Load(ctx, "rideau")
	if err != nil {
		t.Fatal(err)
	}
	if r.Kind != sources.KindHydro || r.Station != "ON/02LA004" || !r.UpdatedAt.Equal(at) {
		t.Errorf("record = %+v", r)
	}

	var got snapshot
	if err := r.Decode(&got); err != nil {
		t.Fatal(err)
	}
	if v, ok := got.WaterLevel.Get(); !ok || v != 74.2 {
		t.Errorf("water level = %v, %v", v, ok)
	}
	if got.Discharge.Present() {
		t.Error("absent discharge came back present")
	}
	if got.Discharge.Unit != "m³/s" {
		t.Errorf("discharge unit = %q", got.Discharge.Unit)
	}

	var generic map[string]interface{}
	if err := r.Decode(&generic); err != nil {
		t.Fatal(err)
	}
	if _, ok := generic["water_level"]; !ok {
		t.Errorf("json field names not used: %v", generic)
	}
}

func TestStoreReplaces(t *testing.T) {
	ctx := context.Background()
	s := newStorage(t)

	for i, level := range []float64{1, 2} {
		u := sources.Update{
			Source:   "rideau",
			Kind:     sources.KindHydro,
			Station:  "ON/02LA004",
			Time:     time.Unix(int64(i), 0),
			Snapshot: snapshot{WaterLevel: sources.NewField("Water Level", level, "m")},
		}
		if err := s.StoreUpdate(ctx, u); err != nil {
			t.Fatal(err)
		}
	}

	records, err := s.List(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 1 {
		t.Fatalf("got %d records", len(records))
	}
	var got snapshot
	if err := records[0].Decode(&got); err != nil {
		t.Fatal(err)
	}
	if v, _ := got.WaterLevel.Get(); v != 2 {
		t.Errorf("water level = %v", v)
	}
}

func TestLoadUnknown(t *testing.T) {
	_, err := newStorage(t).Load(context.Background(), "nowhere")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v", err)
	}
}

func TestListOrdered(t *testing.T) {
	ctx := context.Background()
	s := newStorage(t)
	for _, name := range []string{"b", "c", "a"} {
		if err := s.StoreUpdate(ctx, sources.Update{Source: name, Kind: sources.KindAQHI, Snapshot: map[string]int{"n": 1}}); err != nil {
			t.Fatal(err)
		}
	}
	records, err := s.List(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 3 || records[0].Source != "a" || records[2].Source != "c" {
		t.Errorf("records out of order")
	}
}

func TestStorageEngine(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	var wg sync.WaitGroup
	s := newStorage(t)

	c := s.StartStorageEngine(ctx, &wg)
	c <- sources.Update{Source: "ottawa", Kind: sources.KindCitypage, Station: "ON/s0000430", Snapshot: map[string]string{"k": "v"}}

	deadline := time.Now().Add(2 * time.Second)
	for {
		if _, err := s.Load(ctx, "ottawa"); err == nil {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("update never stored")
		}
		time.Sleep(10 * time.Millisecond)
	}

	if h := s.CheckHealth(ctx); h.Status != "healthy" {
		t.Errorf("health = %+v", h)
	}

	cancel()
	wg.Wait()
}
