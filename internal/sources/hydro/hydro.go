// Package hydro reads hourly water level and discharge for a hydrometric
// station.
package hydro

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/darrenwiens/env-canada/internal/datamart"
	"github.com/darrenwiens/env-canada/internal/notify"
	"github.com/darrenwiens/env-canada/internal/sources"
	"github.com/darrenwiens/env-canada/pkg/geo"
	"go.uber.org/zap"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Options selects the station. Station is "PROV/ID"; when empty the station
// nearest to Coordinates is used.
type Options struct {
	Name        string
	Station     string
	Coordinates *geo.Point
	RateLimit   *datamart.RateLimiter
}

// Source tracks one hydrometric station.
type Source struct {
	name     string
	province string
	station  string
	location string

	client  *datamart.Client
	limiter *datamart.RateLimiter
	logger  *zap.SugaredLogger

	mu          sync.RWMutex
	snapshot    Snapshot
	lastRefresh time.Time
}

// New resolves the station and performs the initial fetch.
func New(ctx context.Context, opts Options, client *datamart.Client, logger *zap.SugaredLogger) (*Source, error) {
	s := &Source{
		name:    opts.Name,
		client:  client,
		limiter: opts.RateLimit,
		logger:  logger,
	}

	if opts.Station != "" {
		prov, id, ok := strings.Cut(opts.Station, "/")
		if !ok || prov == "" || id == "" {
			return nil, fmt.Errorf("hydrometric station must be PROV/ID, got %q", opts.Station)
		}
		s.province, s.station = strings.ToUpper(prov), strings.ToUpper(id)
	} else {
		if opts.Coordinates == nil {
			return nil, fmt.Errorf("hydrometric source %s needs a station or coordinates", opts.Name)
		}
		if err := opts.Coordinates.Validate(); err != nil {
			return nil, err
		}
		stations, err := Catalog(ctx, client)
		if err != nil {
			return nil, fmt.Errorf("loading hydrometric stations: %w", err)
		}
		closest, err := geo.Closest(*opts.Coordinates, stations)
		if err != nil {
			return nil, fmt.Errorf("resolving hydrometric station: %w", err)
		}
		s.province, s.station = closest.Province, closest.ID
		s.location = cases.Title(language.Und).String(closest.Name)
		logger.Infof("hydrometric source %s resolved to %s/%s (%s)", s.name, s.province, s.station, s.location)
	}

	if err := s.fetchReadings(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Source) Name() string       { return s.name }
func (s *Source) Kind() sources.Kind { return sources.KindHydro }
func (s *Source) Station() string    { return s.province + "/" + s.station }

// Path is the readings file this source follows.
func (s *Source) Path() string {
	return ResourcePath(s.province, s.station)
}

// Refresh re-fetches the readings file.
func (s *Source) Refresh(ctx context.Context) error {
	if err := s.limiter.Allow(); err != nil {
		return err
	}
	return s.fetchReadings(ctx)
}

func (s *Source) Watches() []notify.Watch {
	return []notify.Watch{{Path: s.Path(), Refresh: s.fetchReadings}}
}

func (s *Source) Topic(exchange string) notify.Topic {
	return notify.NewTopic(exchange, RoutingKey(s.province))
}

func (s *Source) Snapshot() interface{} {
	return s.Current()
}

// Current returns a copy of the latest snapshot.
func (s *Source) Current() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c := s.snapshot
	c.WaterLevel = c.WaterLevel.Clone()
	c.Discharge = c.Discharge.Clone()
	return c
}

// LastRefresh is when the snapshot was last replaced.
func (s *Source) LastRefresh() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastRefresh
}

// fetchReadings replaces the snapshot. An empty file leaves it untouched.
func (s *Source) fetchReadings(ctx context.Context) error {
	body, err := s.client.Fetch(ctx, datamart.Resource{
		URL:      s.client.URL(s.Path()),
		Encoding: datamart.UTF8BOM,
	})
	if err != nil {
		return fmt.Errorf("hydrometric readings for %s: %w", s.Station(), err)
	}

	rs, err := parseReadings(body)
	if err != nil {
		return fmt.Errorf("hydrometric readings for %s: %w", s.Station(), err)
	}

	snap, ok := buildSnapshot(rs, s.location)
	if !ok {
		s.logger.Debugf("no hydrometric readings yet for %s", s.Station())
		return nil
	}

	s.mu.Lock()
	s.snapshot = snap
	s.lastRefresh = time.Now()
	s.mu.Unlock()
	return nil
}
