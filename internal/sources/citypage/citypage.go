// Package citypage follows the citypage weather document of one site:
// current conditions, alerts, daily and hourly forecasts, and optionally the
// AQHI of the surrounding region.
package citypage

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/darrenwiens/env-canada/internal/datamart"
	"github.com/darrenwiens/env-canada/internal/notify"
	"github.com/darrenwiens/env-canada/internal/sources"
	"github.com/darrenwiens/env-canada/internal/sources/aqhi"
	"github.com/darrenwiens/env-canada/pkg/geo"
	"go.uber.org/zap"
)

// Options selects the site. Station is "PROV/code", e.g. "ON/s0000430"; when
// empty the site nearest to Coordinates is used. AQHI is "zone/region"; when
// empty and Coordinates is set the nearest region is used, otherwise the
// snapshot carries no AQHI group.
type Options struct {
	Name        string
	Station     string
	AQHI        string
	Coordinates *geo.Point
	Language    sources.Language
	RateLimit   *datamart.RateLimiter
}

// Snapshot is the current state of a site.
type Snapshot struct {
	Metadata   Metadata       `json:"metadata"`
	Conditions Conditions     `json:"conditions"`
	Alerts     Alerts         `json:"alerts"`
	Forecasts  Forecasts      `json:"forecasts"`
	AQHI       *aqhi.Snapshot `json:"aqhi,omitempty"`
}

// Source tracks one citypage site.
type Source struct {
	name     string
	province string
	code     string
	lang     sources.Language

	aqhiZone   string
	aqhiRegion string

	client  *datamart.Client
	limiter *datamart.RateLimiter
	logger  *zap.SugaredLogger

	mu          sync.RWMutex
	metadata    Metadata
	conditions  Conditions
	alerts      Alerts
	forecasts   Forecasts
	observation aqhi.Observation
	aqForecasts aqhi.Forecasts
	lastRefresh time.Time
}

// New resolves the site and AQHI region and performs the initial fetch. The
// citypage document must load; AQHI failures are logged.
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
	s.alerts = newAlerts(s.lang)
	s.forecasts = Forecasts{Daily: []DailyForecast{}, Hourly: []HourlyForecast{}}

	if opts.Coordinates != nil {
		if err := opts.Coordinates.Validate(); err != nil {
			return nil, err
		}
	}

	var err error
	switch {
	case opts.Station != "":
		s.province, s.code, err = ParseSiteID(opts.Station)
	case opts.Coordinates != nil:
		s.province, s.code, err = nearestSite(ctx, client, *opts.Coordinates)
		if err == nil {
			logger.Infof("citypage source %s resolved to %s/%s", s.name, s.province, s.code)
		}
	default:
		err = fmt.Errorf("citypage source %s needs a station or coordinates", opts.Name)
	}
	if err != nil {
		return nil, err
	}

	switch {
	case opts.AQHI != "":
		s.aqhiZone, s.aqhiRegion, err = aqhi.ParseRegionID(opts.AQHI)
	case opts.Coordinates != nil:
		s.aqhiZone, s.aqhiRegion, err = aqhi.Nearest(ctx, client, *opts.Coordinates)
	}
	if err != nil {
		return nil, err
	}

	if err := s.fetchDocument(ctx); err != nil {
		return nil, err
	}
	if s.hasAQHI() {
		if err := errors.Join(s.fetchObservation(ctx), s.fetchAQHIForecast(ctx)); err != nil {
			logger.Warnf("citypage source %s: %v", s.name, err)
		}
	}
	return s, nil
}

func nearestSite(ctx context.Context, client *datamart.Client, p geo.Point) (string, string, error) {
	sites, err := Catalog(ctx, client)
	if err != nil {
		return "", "", fmt.Errorf("loading citypage sites: %w", err)
	}
	closest, err := geo.Closest(p, sites)
	if err != nil {
		return "", "", fmt.Errorf("resolving citypage site: %w", err)
	}
	return closest.Province, closest.Code, nil
}

func (s *Source) Name() string       { return s.name }
func (s *Source) Kind() sources.Kind { return sources.KindCitypage }
func (s *Source) Station() string    { return s.province + "/" + s.code }

func (s *Source) hasAQHI() bool {
	return s.aqhiZone != ""
}

// Path is the citypage document this source follows.
func (s *Source) Path() string {
	return DocumentPath(s.province, s.code, s.lang)
}

// Refresh re-fetches the document and, when configured, the AQHI feeds.
// It returns datamart.ErrRateLimited without fetching anything when the
// source's limiter refuses the call.
func (s *Source) Refresh(ctx context.Context) error {
	if err := s.limiter.Allow(); err != nil {
		return err
	}
	errs := []error{s.fetchDocument(ctx)}
	if s.hasAQHI() {
		errs = append(errs, s.fetchObservation(ctx), s.fetchAQHIForecast(ctx))
	}
	return errors.Join(errs...)
}

func (s *Source) Watches() []notify.Watch {
	w := []notify.Watch{{Path: s.Path(), Refresh: s.fetchDocument}}
	if s.hasAQHI() {
		w = append(w,
			notify.Watch{Path: aqhi.ObservationPath(s.aqhiZone, s.aqhiRegion), Refresh: s.fetchObservation},
			notify.Watch{Path: aqhi.ForecastPath(s.aqhiZone, s.aqhiRegion), Refresh: s.fetchAQHIForecast},
		)
	}
	return w
}

func (s *Source) Topic(exchange string) notify.Topic {
	keys := []string{RoutingKey(s.province)}
	if s.hasAQHI() {
		keys = append(keys, aqhi.RoutingKey)
	}
	return notify.NewTopic(exchange, keys...)
}

func (s *Source) Snapshot() interface{} {
	return s.Current()
}

// Current returns a copy of the current state.
func (s *Source) Current() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := Snapshot{
		Metadata:   s.metadata,
		Conditions: s.conditions.Clone(),
		Alerts:     s.alerts.Clone(),
		Forecasts:  s.forecasts.Clone(),
	}
	if s.hasAQHI() {
		obs := s.observation.Clone()
		snap.AQHI = &aqhi.Snapshot{
			Region:      s.aqhiZone + "/" + s.aqhiRegion,
			Observation: obs,
			Forecasts:   s.aqForecasts.Clone(),
		}
		snap.Conditions.AirQuality.Value = obs.Current.Clone().Value
	}
	return snap
}

func (s *Source) LastRefresh() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastRefresh
}

// fetchDocument replaces metadata, conditions, alerts and forecasts together.
func (s *Source) fetchDocument(ctx context.Context) error {
	body, err := s.client.Fetch(ctx, datamart.Resource{
		URL:      s.client.URL(s.Path()),
		Encoding: datamart.Latin1,
	})
	if err != nil {
		return fmt.Errorf("citypage document for %s: %w", s.Station(), err)
	}

	doc, err := parseDocument(body)
	if err != nil {
		return fmt.Errorf("citypage document for %s: %w", s.Station(), err)
	}

	metadata := doc.metadata()
	conditions := doc.conditions(s.lang)
	forecasts := doc.forecasts()
	alerts := buildAlerts(ctx, doc, s.lang, s.client, s.logger)

	s.mu.Lock()
	s.metadata = metadata
	s.conditions = conditions
	s.alerts = alerts
	s.forecasts = forecasts
	s.lastRefresh = time.Now()
	s.mu.Unlock()
	return nil
}

func (s *Source) fetchObservation(ctx context.Context) error {
	obs, err := aqhi.FetchObservation(ctx, s.client, s.aqhiZone, s.aqhiRegion, s.lang)
	if err != nil {
		return fmt.Errorf("AQHI observation for %s/%s: %w", s.aqhiZone, s.aqhiRegion, err)
	}

	s.mu.Lock()
	s.observation = obs
	s.lastRefresh = time.Now()
	s.mu.Unlock()
	return nil
}

func (s *Source) fetchAQHIForecast(ctx context.Context) error {
	f, err := aqhi.FetchForecast(ctx, s.client, s.aqhiZone, s.aqhiRegion, s.lang)
	if err != nil {
		return fmt.Errorf("AQHI forecast for %s/%s: %w", s.aqhiZone, s.aqhiRegion, err)
	}

	s.mu.Lock()
	s.aqForecasts = f
	s.lastRefresh = time.Now()
	s.mu.Unlock()
	return nil
}
