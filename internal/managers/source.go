package managers

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/darrenwiens/env-canada/internal/datamart"
	"github.com/darrenwiens/env-canada/internal/interfaces"
	"github.com/darrenwiens/env-canada/internal/notify"
	"github.com/darrenwiens/env-canada/internal/sources"
	"github.com/darrenwiens/env-canada/internal/sources/aqhi"
	"github.com/darrenwiens/env-canada/internal/sources/citypage"
	"github.com/darrenwiens/env-canada/internal/sources/hydro"
	"github.com/darrenwiens/env-canada/pkg/config"
	"go.uber.org/zap"
)

// defaultRedialDelay is how long a notified source waits before reconnecting
// to the bus after a failed dial or a dropped connection.
const defaultRedialDelay = 30 * time.Second

// Dialer opens a bus subscription for topic.
type Dialer func(url string, topic notify.Topic) (notify.Bus, error)

func dialAMQP(url string, topic notify.Topic) (notify.Bus, error) {
	return notify.DialAMQP(url, topic)
}

type sourceEntry struct {
	source  sources.Source
	cfg     config.SourceData
	mu      sync.Mutex
	lastErr string
	emitted time.Time
}

type sourceManager struct {
	ctx         context.Context
	wg          *sync.WaitGroup
	amqp        config.AMQPData
	distributor chan<- sources.Update
	logger      *zap.SugaredLogger
	dial        Dialer
	redialDelay time.Duration

	mu      sync.RWMutex
	entries map[string]*sourceEntry
	order   []string
}

// NewSourceManager constructs every configured source. Construction fetches
// each source's data once, so a source whose station cannot be resolved or
// whose primary document cannot be fetched fails startup.
func NewSourceManager(ctx context.Context, wg *sync.WaitGroup, cfg *config.ConfigData, distributor chan<- sources.Update, logger *zap.SugaredLogger) (interfaces.SourceManager, error) {
	client := datamart.NewClient(datamart.Options{
		BaseURL:     cfg.Datamart.BaseURL,
		Timeout:     cfg.Datamart.Timeout,
		CacheExpiry: cfg.Datamart.CatalogCache,
	}, logger.Named("datamart"))

	sm := newSourceManager(ctx, wg, cfg.AMQP, distributor, logger)
	for _, sc := range cfg.Sources {
		logger.Infof("Creating %s source [%s]...", sc.Type, sc.Name)
		source, err := createSource(ctx, sc, client, logger.Named(sc.Name))
		if err != nil {
			return nil, fmt.Errorf("error creating source [%s]: %w", sc.Name, err)
		}
		sm.add(source, sc)
	}
	return sm, nil
}

func newSourceManager(ctx context.Context, wg *sync.WaitGroup, amqp config.AMQPData, distributor chan<- sources.Update, logger *zap.SugaredLogger) *sourceManager {
	return &sourceManager{
		ctx:         ctx,
		wg:          wg,
		amqp:        amqp,
		distributor: distributor,
		logger:      logger,
		dial:        dialAMQP,
		redialDelay: defaultRedialDelay,
		entries:     make(map[string]*sourceEntry),
	}
}

// createSource builds a source from its configuration
func createSource(ctx context.Context, sc config.SourceData, client *datamart.Client, logger *zap.SugaredLogger) (sources.Source, error) {
	lang, err := sources.ParseLanguage(sc.Language)
	if err != nil {
		return nil, err
	}

	var limiter *datamart.RateLimiter
	if sc.RateLimit != nil {
		limiter = datamart.NewRateLimiter(sc.RateLimit.Calls, sc.RateLimit.Period)
	}

	switch sc.Type {
	case string(sources.KindCitypage):
		return citypage.New(ctx, citypage.Options{
			Name:        sc.Name,
			Station:     sc.Station,
			AQHI:        sc.AQHI,
			Coordinates: sc.Coordinates,
			Language:    lang,
			RateLimit:   limiter,
		}, client, logger)
	case string(sources.KindAQHI):
		return aqhi.New(ctx, aqhi.Options{
			Name:        sc.Name,
			Region:      sc.Station,
			Coordinates: sc.Coordinates,
			Language:    lang,
			RateLimit:   limiter,
		}, client, logger)
	case string(sources.KindHydro):
		return hydro.New(ctx, hydro.Options{
			Name:        sc.Name,
			Station:     sc.Station,
			Coordinates: sc.Coordinates,
			RateLimit:   limiter,
		}, client, logger)
	default:
		return nil, fmt.Errorf("unknown source type: %s", sc.Type)
	}
}

func (m *sourceManager) add(source sources.Source, sc config.SourceData) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[source.Name()] = &sourceEntry{source: source, cfg: sc}
	m.order = append(m.order, source.Name())
}

// StartSources publishes each source's initial snapshot and starts its
// refresh loop: bus notifications when notify is set, a ticker otherwise.
func (m *sourceManager) StartSources() error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, name := range m.order {
		e := m.entries[name]
		m.emit(e)

		m.wg.Add(1)
		if e.cfg.Notify {
			m.logger.Infof("Source [%s] listening for change notifications", name)
			go m.runNotified(e)
		} else {
			m.logger.Infof("Source [%s] refreshing every %v", name, e.cfg.RefreshInterval)
			go m.runInterval(e)
		}
	}
	return nil
}

// Statuses lists every source in configuration order
func (m *sourceManager) Statuses() []sources.Status {
	m.mu.RLock()
	defer m.mu.RUnlock()

	statuses := make([]sources.Status, 0, len(m.order))
	for _, name := range m.order {
		e := m.entries[name]
		e.mu.Lock()
		lastErr := e.lastErr
		e.mu.Unlock()
		statuses = append(statuses, sources.Status{
			Name:        name,
			Kind:        e.source.Kind(),
			Station:     e.source.Station(),
			LastRefresh: e.source.LastRefresh(),
			LastError:   lastErr,
		})
	}
	return statuses
}

// Snapshot returns the current snapshot of the named source
func (m *sourceManager) Snapshot(name string) (interface{}, bool) {
	m.mu.RLock()
	e, ok := m.entries[name]
	m.mu.RUnlock()
	if !ok {
		return nil, false
	}
	return e.source.Snapshot(), true
}

// Updates captures every source's current snapshot, sorted by name.
func (m *sourceManager) Updates() []sources.Update {
	m.mu.RLock()
	defer m.mu.RUnlock()

	updates := make([]sources.Update, 0, len(m.entries))
	for _, e := range m.entries {
		updates = append(updates, sources.NewUpdate(e.source))
	}
	sort.Slice(updates, func(i, j int) bool { return updates[i].Source < updates[j].Source })
	return updates
}

func (m *sourceManager) runInterval(e *sourceEntry) {
	defer m.wg.Done()

	interval := e.cfg.RefreshInterval
	if interval <= 0 {
		interval = config.DefaultRefreshInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.record(e, e.source.Refresh(m.ctx))
		case <-m.ctx.Done():
			m.logger.Infof("cancellation request received. Stopping source [%s]", e.source.Name())
			return
		}
	}
}

func (m *sourceManager) runNotified(e *sourceEntry) {
	defer m.wg.Done()

	watches := make([]notify.Watch, 0, len(e.source.Watches()))
	for _, w := range e.source.Watches() {
		refresh := w.Refresh
		watches = append(watches, notify.Watch{
			Path: w.Path,
			Refresh: func(ctx context.Context) error {
				err := refresh(ctx)
				m.record(e, err)
				return err
			},
		})
	}

	for m.ctx.Err() == nil {
		bus, err := m.dial(m.amqp.URL, e.source.Topic(m.amqp.Exchange))
		if err != nil {
			m.logger.Errorf("source [%s] could not subscribe: %v", e.source.Name(), err)
			m.setError(e, err)
			if !m.sleep(m.redialDelay) {
				return
			}
			continue
		}

		n := notify.New(bus, watches, m.amqp.Window, m.logger.Named(e.source.Name()))
		closed := m.pollUntilClosed(e, n)
		bus.Close()
		if closed && !m.sleep(m.redialDelay) {
			return
		}
	}
	m.logger.Infof("cancellation request received. Stopping source [%s]", e.source.Name())
}

// pollUntilClosed polls until the bus closes or the manager stops. It
// reports whether the bus closed.
func (m *sourceManager) pollUntilClosed(e *sourceEntry, n *notify.Notifier) bool {
	for {
		_, err := n.Poll(m.ctx)
		switch {
		case err == nil:
		case m.ctx.Err() != nil:
			return false
		case errors.Is(err, notify.ErrBusClosed):
			m.logger.Warnf("source [%s] lost its bus connection; reconnecting in %v", e.source.Name(), m.redialDelay)
			return true
		default:
			m.logger.Debugf("source [%s] poll: %v", e.source.Name(), err)
		}
	}
}

// record notes the outcome of a refresh and publishes the snapshot when any
// part of it changed. Rate-limited refreshes are skipped quietly.
func (m *sourceManager) record(e *sourceEntry, err error) {
	name := e.source.Name()
	switch {
	case err == nil:
		m.setError(e, nil)
	case errors.Is(err, datamart.ErrRateLimited):
		m.logger.Debugf("source [%s] refresh skipped: %v", name, err)
	default:
		m.logger.Warnf("source [%s] refresh failed: %v", name, err)
		m.setError(e, err)
	}
	m.emit(e)
}

func (m *sourceManager) setError(e *sourceEntry, err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err == nil {
		e.lastErr = ""
		return
	}
	e.lastErr = err.Error()
}

// emit sends the snapshot to storage unless it was already sent.
func (m *sourceManager) emit(e *sourceEntry) {
	last := e.source.LastRefresh()

	e.mu.Lock()
	if last.IsZero() || !last.After(e.emitted) {
		e.mu.Unlock()
		return
	}
	e.emitted = last
	e.mu.Unlock()

	if m.distributor == nil {
		return
	}
	select {
	case m.distributor <- sources.NewUpdate(e.source):
	case <-m.ctx.Done():
	}
}

func (m *sourceManager) sleep(d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-m.ctx.Done():
		return false
	}
}
