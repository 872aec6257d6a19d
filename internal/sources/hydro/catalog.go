package hydro

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/darrenwiens/env-canada/internal/datamart"
	"github.com/darrenwiens/env-canada/pkg/geo"
)

// StationListPath is the hydrometric station index.
const StationListPath = "/hydrometric/doc/hydrometric_StationList.csv"

// Station is one hydrometric gauge.
type Station struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Province string  `json:"province"`
	Timezone string  `json:"timezone"`
	Lat      float64 `json:"latitude"`
	Lon      float64 `json:"longitude"`
}

func (s Station) Location() geo.Point {
	return geo.Point{Lat: s.Lat, Lon: s.Lon}
}

// Catalog fetches and parses the station index.
func Catalog(ctx context.Context, client *datamart.Client) ([]Station, error) {
	body, err := client.Fetch(ctx, datamart.Resource{
		URL:       client.URL(StationListPath),
		Encoding:  datamart.UTF8BOM,
		Cacheable: true,
	})
	if err != nil {
		return nil, err
	}
	return parseStations(body)
}

func parseStations(data []byte) ([]Station, error) {
	rows, header, err := readTable(data)
	if err != nil {
		return nil, err
	}

	var stations []Station
	for {
		rec, err := rows.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: station list: %v", datamart.ErrDocument, err)
		}

		lat := floatColumn(rec, header, "Latitude")
		lon := floatColumn(rec, header, "Longitude")
		if lat == nil || lon == nil {
			continue
		}
		stations = append(stations, Station{
			ID:       column(rec, header, "ID"),
			Name:     column(rec, header, "Name"),
			Province: column(rec, header, "Prov"),
			Timezone: column(rec, header, "Timezone"),
			Lat:      *lat,
			Lon:      *lon,
		})
	}
	return stations, nil
}

// readTable reads the bilingual header row ("Name / Nom") and indexes each
// column by its English name. Repeated names keep their first position.
func readTable(data []byte) (*csv.Reader, map[string]int, error) {
	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true

	names, err := r.Read()
	if err != nil {
		return nil, nil, fmt.Errorf("%w: reading header: %v", datamart.ErrDocument, err)
	}

	header := make(map[string]int, len(names))
	for i, n := range names {
		n = strings.TrimSpace(strings.SplitN(n, "/", 2)[0])
		if _, ok := header[n]; !ok {
			header[n] = i
		}
	}
	return r, header, nil
}

func column(rec []string, header map[string]int, name string) string {
	i, ok := header[name]
	if !ok || i >= len(rec) {
		return ""
	}
	return strings.TrimSpace(rec[i])
}
