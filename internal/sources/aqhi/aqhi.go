// Package aqhi follows the Air Quality Health Index observation and forecast
// of one region.
package aqhi

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/darrenwiens/env-canada/internal/datamart"
	"github.com/darrenwiens/env-canada/internal/notify"
	"github.com/darrenwiens/env-canada/internal/sources"
	"github.com/darrenwiens/env-canada/pkg/geo"
	"go.uber.org/zap"
)

// Options selects the region. Region is "zone/region", e.g. "ont/FEVNT"; when
// empty the region nearest to Coordinates is used.
type Options struct {
	Name        string
	Region      string
	Coordinates *geo.Point
	Language    sources.Language
	RateLimit   *datamart.RateLimiter
}

// Snapshot is the current AQHI state of a region.
type Snapshot struct {
	Region      string      `json:"region"`
	Observation Observation `json:"observation"`
	Forecasts   Forecasts   `json:"forecasts"`
}

// Source tracks one AQHI region. Observation and forecast are fetched
// independently.
type Source struct {
	name   string
	zone   string
	region string
	lang   sources.Language

	client  *datamart.Client
	limiter *datamart.RateLimiter
	logger  *zap.SugaredLogger

	mu          sync.RWMutex
	observation Observation
	forecasts   Forecasts
	lastRefresh time.Time
}

// New resolves the region and fetches both sub-feeds. Construction fails only
// when both fail.
func New(ctx context.Context, opts Options, client *datamart.Client, logger *zap.SugaredLogger) (*Source, error) {
	s := &Source{
		name:    opts.Name,
		lang:    opts.Language,
		client:  client,
		limiter: opts.RateLimit,
		logger:  logger,
	}
	if s.lang == "" {
		s.lang = sources.English
	}

	var err error
	switch {
	case opts.Region != "":
		s.zone, s.region, err = ParseRegionID(opts.Region)
	case opts.Coordinates != nil:
		s.zone, s.region, err = Nearest(ctx, client, *opts.Coordinates)
		if err == nil {
			logger.Infof("AQHI source %s resolved to %s/%s", s.name, s.zone, s.region)
		}
	default:
		err = fmt.Errorf("AQHI source %s needs a region or coordinates", opts.Name)
	}
	if err != nil {
		return nil, err
	}

	obsErr := s.fetchObservation(ctx)
	fcstErr := s.fetchForecast(ctx)
	if obsErr != nil && fcstErr != nil {
		return nil, errors.Join(obsErr, fcstErr)
	}
	if obsErr != nil {
		logger.Warnf("AQHI source %s: %v", s.name, obsErr)
	}
	if fcstErr != nil {
		logger.Warnf("AQHI source %s: %v", s.name, fcstErr)
	}
	return s, nil
}

func (s *Source) Name() string       { return s.name }
func (s *Source) Kind() sources.Kind { return sources.KindAQHI }
func (s *Source) Station() string    { return s.zone + "/" + s.region }

// Refresh re-fetches observation and forecast.
func (s *Source) Refresh(ctx context.Context) error {
	if err := s.limiter.Allow(); err != nil {
		return err
	}
	return errors.Join(s.fetchObservation(ctx), s.fetchForecast(ctx))
}

func (s *Source) Watches() []notify.Watch {
	return []notify.Watch{
		{Path: ObservationPath(s.zone, s.region), Refresh: s.fetchObservation},
		{Path: ForecastPath(s.zone, s.region), Refresh: s.fetchForecast},
	}
}

func (s *Source) Topic(exchange string) notify.Topic {
	return notify.NewTopic(exchange, RoutingKey)
}

func (s *Source) Snapshot() interface{} {
	return s.Current()
}

// Current returns a copy of the current state.
func (s *Source) Current() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return Snapshot{
		Region:      s.Station(),
		Observation: s.observation.Clone(),
		Forecasts:   s.forecasts.Clone(),
	}
}

func (s *Source) LastRefresh() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastRefresh
}

func (s *Source) fetchObservation(ctx context.Context) error {
	obs, err := FetchObservation(ctx, s.client, s.zone, s.region, s.lang)
	if err != nil {
		return fmt.Errorf("AQHI observation for %s: %w", s.Station(), err)
	}

	s.mu.Lock()
	s.observation = obs
	s.lastRefresh = time.Now()
	s.mu.Unlock()
	return nil
}

func (s *Source) fetchForecast(ctx context.Context) error {
	f, err := FetchForecast(ctx, s.client, s.zone, s.region, s.lang)
	if err != nil {
		return fmt.Errorf("AQHI forecast for %s: %w", s.Station(), err)
	}

	s.mu.Lock()
	s.forecasts = f
	s.lastRefresh = time.Now()
	s.mu.Unlock()
	return nil
}
