package hydro

import (
	"fmt"
	"io"
	"time"

	"github.com/darrenwiens/env-canada/internal/datamart"
	"github.com/darrenwiens/env-canada/internal/sources"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Snapshot is the latest hourly reading for a station.
type Snapshot struct {
	Location   string                 `json:"location,omitempty"`
	Timestamp  *time.Time             `json:"timestamp,omitempty"`
	WaterLevel sources.Field[float64] `json:"water_level"`
	Discharge  sources.Field[float64] `json:"discharge"`
	Window     Window                 `json:"window"`
}

// Window summarises every reading in the hourly file.
type Window struct {
	Readings   int     `json:"readings"`
	WaterLevel Summary `json:"water_level"`
	Discharge  Summary `json:"discharge"`
}

type Summary struct {
	Count int      `json:"count"`
	Min   *float64 `json:"min,omitempty"`
	Max   *float64 `json:"max,omitempty"`
	Mean  *float64 `json:"mean,omitempty"`
}

type reading struct {
	date       string
	waterLevel *float64
	discharge  *float64
}

// parseReadings returns every row of an hourly file in file order.
func parseReadings(data []byte) ([]reading, error) {
	rows, header, err := readTable(data)
	if err != nil {
		return nil, err
	}

	var out []reading
	for {
		rec, err := rows.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: hourly readings: %v", datamart.ErrDocument, err)
		}
		out = append(out, reading{
			date:       column(rec, header, "Date"),
			waterLevel: floatColumn(rec, header, "Water Level"),
			discharge:  floatColumn(rec, header, "Discharge"),
		})
	}
	return out, nil
}

// buildSnapshot turns the readings into a snapshot. ok is false when the
// file had no rows.
func buildSnapshot(rs []reading, location string) (Snapshot, bool) {
	if len(rs) == 0 {
		return Snapshot{}, false
	}
	latest := rs[len(rs)-1]

	s := Snapshot{
		Location:   location,
		WaterLevel: sources.Field[float64]{Label: "Water Level", Value: latest.waterLevel, Unit: "m"},
		Discharge:  sources.Field[float64]{Label: "Discharge", Value: latest.discharge, Unit: "m³/s"},
	}
	if ts, err := time.Parse(time.RFC3339, latest.date); err == nil {
		s.Timestamp = &ts
	}

	var levels, flows []float64
	for _, r := range rs {
		if r.waterLevel != nil {
			levels = append(levels, *r.waterLevel)
		}
		if r.discharge != nil {
			flows = append(flows, *r.discharge)
		}
	}
	s.Window = Window{
		Readings:   len(rs),
		WaterLevel: summarize(levels),
		Discharge:  summarize(flows),
	}
	return s, true
}

func summarize(x []float64) Summary {
	s := Summary{Count: len(x)}
	if len(x) == 0 {
		return s
	}
	lo, hi, mean := floats.Min(x), floats.Max(x), stat.Mean(x, nil)
	s.Min, s.Max, s.Mean = &lo, &hi, &mean
	return s
}

func floatColumn(rec []string, header map[string]int, name string) *float64 {
	return sources.ParseFloat(column(rec, header, name))
}
