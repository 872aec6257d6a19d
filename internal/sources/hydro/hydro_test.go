package hydro

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/darrenwiens/env-canada/internal/datamart"
	"github.com/darrenwiens/env-canada/internal/notify"
	"github.com/darrenwiens/env-canada/pkg/geo"
	"go.uber.org/zap"
)

const stationList = "\ufeffID,Name / Nom,Latitude,Longitude,Prov/Terr,Timezone / Fuseau horaire\n" +
	"02KF005,OTTAWA RIVER AT BRITANNIA,45.389,-75.801,ON,UTC-05:00\n" +
	"02LA004,RIDEAU RIVER AT OTTAWA,45.397,-75.677,ON,UTC-05:00\n" +
	"05BH004,BOW RIVER AT CALGARY,51.050,-114.051,AB,UTC-07:00\n" +
	"99XX999,BROKEN,,,-ON,UTC-05:00\n"

const hourly = "\ufeffID,Date,Water Level / Niveau d'eau (m),Grade,Symbol / Symbole,QA/QC,Discharge / Débit (cms),Grade,Symbol / Symbole,QA/QC\n" +
	"02LA004,2024-05-01T00:00:00-05:00,60.120,,,1,51.2,,,1\n" +
	"02LA004,2024-05-01T01:00:00-05:00,60.150,,,1,,,,1\n" +
	"02LA004,2024-05-01T02:00:00-05:00,60.180,,,1,55.6,,,1\n"

func newTestServer(t *testing.T, readings string) *datamart.Client {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc(StationListPath, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(stationList))
	})
	mux.HandleFunc(ResourcePath("ON", "02LA004"), func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(readings))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return datamart.NewClient(datamart.Options{BaseURL: srv.URL}, zap.NewNop().Sugar())
}

func TestResourcePathRoundTrip(t *testing.T) {
	tests := []struct {
		prov, station string
	}{
		{"ON", "02LA004"},
		{"BC", "08MF005"},
		{"QC", "02OA016"},
	}
	for _, tt := range tests {
		t.Run(tt.prov+"/"+tt.station, func(t *testing.T) {
			path := ResourcePath(tt.prov, tt.station)
			prov, station, err := ParseResourcePath(path)
			if err != nil {
				t.Fatalf("ParseResourcePath(%q) error = %v", path, err)
			}
			if prov != tt.prov || station != tt.station {
				t.Errorf("ParseResourcePath(%q) = %s, %s", path, prov, station)
			}
		})
	}

	if got := ResourcePath("ON", "02LA004"); got != "/hydrometric/csv/ON/hourly/ON_02LA004_hourly_hydrometric.csv" {
		t.Errorf("ResourcePath() = %q", got)
	}
	for _, bad := range []string{"", "/hydrometric/csv/ON/daily/ON_02LA004_daily_hydrometric.csv", "/hydrometric/csv/ON/hourly/BC_02LA004_hourly_hydrometric.csv"} {
		if _, _, err := ParseResourcePath(bad); err == nil {
			t.Errorf("ParseResourcePath(%q) succeeded", bad)
		}
	}
}

type bodies chan []byte

func (b bodies) Messages() <-chan []byte { return b }
func (b bodies) Close() error            { return nil }

func TestWatchMatchesAnnouncedPath(t *testing.T) {
	c := newTestServer(t, hourly)
	s, err := New(context.Background(), Options{Name: "rideau", Station: "ON/02LA004"}, c, zap.NewNop().Sugar())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	tests := []struct {
		name string
		body string
		want int
	}{
		{
			name: "own station",
			body: "20240501120000.123 https://dd.weather.gc.ca " + ResourcePath("ON", "02LA004"),
			want: 1,
		},
		{
			name: "other station same province",
			body: "20240501120000.123 https://dd.weather.gc.ca " + ResourcePath("ON", "02KF005"),
			want: 0,
		},
		{
			name: "same station id other province",
			body: "20240501120000.123 https://dd.weather.gc.ca " + ResourcePath("QC", "02LA004"),
			want: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bus := make(bodies, 1)
			bus <- []byte(tt.body)
			n := notify.New(bus, s.Watches(), 20*time.Millisecond, zap.NewNop().Sugar())

			got, err := n.Poll(context.Background())
			if err != nil {
				t.Fatalf("Poll() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("Poll() refreshed %d watches, want %d", got, tt.want)
			}
		})
	}
}

func TestParseStations(t *testing.T) {
	stations, err := parseStations([]byte(strings.TrimPrefix(stationList, "\ufeff")))
	if err != nil {
		t.Fatalf("parseStations() error = %v", err)
	}
	if len(stations) != 3 {
		t.Fatalf("got %d stations, want 3 (row without coordinates excluded)", len(stations))
	}
	if s := stations[1]; s.ID != "02LA004" || s.Province != "ON" || s.Name != "RIDEAU RIVER AT OTTAWA" || s.Lat != 45.397 {
		t.Errorf("stations[1] = %+v", s)
	}
}

func TestNewNearest(t *testing.T) {
	c := newTestServer(t, hourly)
	s, err := New(context.Background(), Options{
		Name:        "rideau",
		Coordinates: &geo.Point{Lat: 45.40, Lon: -75.68},
	}, c, zap.NewNop().Sugar())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if s.Station() != "ON/02LA004" {
		t.Errorf("Station() = %q, want ON/02LA004", s.Station())
	}

	snap := s.Current()
	if snap.Location != "Rideau River At Ottawa" {
		t.Errorf("Location = %q", snap.Location)
	}
	if v, ok := snap.WaterLevel.Get(); !ok || v != 60.18 || snap.WaterLevel.Unit != "m" {
		t.Errorf("WaterLevel = %+v", snap.WaterLevel)
	}
	if v, ok := snap.Discharge.Get(); !ok || v != 55.6 {
		t.Errorf("Discharge = %+v", snap.Discharge)
	}
	if snap.Timestamp == nil || snap.Timestamp.UTC().Hour() != 7 {
		t.Errorf("Timestamp = %v, want 07:00 UTC", snap.Timestamp)
	}
	if snap.Window.Readings != 3 || snap.Window.Discharge.Count != 2 {
		t.Errorf("Window = %+v", snap.Window)
	}
	if *snap.Window.WaterLevel.Min != 60.12 || *snap.Window.WaterLevel.Max != 60.18 {
		t.Errorf("water level range = %v..%v", *snap.Window.WaterLevel.Min, *snap.Window.WaterLevel.Max)
	}
	if mean := *snap.Window.Discharge.Mean; mean < 53.39 || mean > 53.41 {
		t.Errorf("discharge mean = %v, want 53.4", mean)
	}

	watches := s.Watches()
	if len(watches) != 1 || watches[0].Path != ResourcePath("ON", "02LA004") {
		t.Errorf("Watches() = %+v", watches)
	}
	if topic := s.Topic(""); len(topic.RoutingKeys) != 1 || topic.RoutingKeys[0] != "v02.post.hydrometric.csv.ON.hourly.#" {
		t.Errorf("Topic() = %+v", topic)
	}
}

func TestMissingLatestValue(t *testing.T) {
	c := newTestServer(t, hourly[:len(hourly)-len("02LA004,2024-05-01T02:00:00-05:00,60.180,,,1,55.6,,,1\n")])
	s, err := New(context.Background(), Options{Name: "rideau", Station: "on/02la004"}, c, zap.NewNop().Sugar())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	snap := s.Current()
	if snap.Discharge.Present() {
		t.Errorf("Discharge = %v, want absent", *snap.Discharge.Value)
	}
	if snap.Discharge.Label != "Discharge" {
		t.Errorf("absent field lost its label: %+v", snap.Discharge)
	}
	if !snap.WaterLevel.Present() {
		t.Error("WaterLevel absent")
	}
}

func TestEmptyReadingsKeepPrevious(t *testing.T) {
	var body atomic.Value
	body.Store(hourly)
	mux := http.NewServeMux()
	mux.HandleFunc(ResourcePath("ON", "02LA004"), func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(body.Load().(string)))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()
	c := datamart.NewClient(datamart.Options{BaseURL: srv.URL}, zap.NewNop().Sugar())

	s, err := New(context.Background(), Options{Name: "rideau", Station: "ON/02LA004"}, c, zap.NewNop().Sugar())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	body.Store("ID,Date,Water Level / Niveau d'eau (m),Discharge / Débit (cms)\n")
	if err := s.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh() error = %v", err)
	}
	if v, _ := s.Current().WaterLevel.Get(); v != 60.18 {
		t.Errorf("WaterLevel after empty file = %v, want 60.18", v)
	}
}

func TestRefreshErrors(t *testing.T) {
	c := newTestServer(t, hourly)
	s, err := New(context.Background(), Options{
		Name:      "rideau",
		Station:   "ON/02LA004",
		RateLimit: datamart.NewRateLimiter(1, time.Hour),
	}, c, zap.NewNop().Sugar())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if err := s.Refresh(context.Background()); err != nil {
		t.Fatalf("first Refresh() error = %v", err)
	}
	if err := s.Refresh(context.Background()); !errors.Is(err, datamart.ErrRateLimited) {
		t.Errorf("second Refresh() error = %v, want ErrRateLimited", err)
	}

	if _, err := New(context.Background(), Options{Name: "x", Station: "ON/00XX000"}, c, zap.NewNop().Sugar()); !errors.Is(err, datamart.ErrTransport) {
		t.Errorf("New() for unknown station error = %v, want ErrTransport", err)
	}
}
