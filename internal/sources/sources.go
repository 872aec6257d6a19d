// Package sources defines the contract shared by every Datamart dataset and
// the typed values their snapshots are built from.
package sources

import (
	"context"
	"time"

	"github.com/darrenwiens/env-canada/internal/notify"
)

// Kind names a dataset.
type Kind string

const (
	KindCitypage Kind = "citypage"
	KindAQHI     Kind = "aqhi"
	KindHydro    Kind = "hydro"
)

// Source is one configured dataset instance bound to a single station.
type Source interface {
	Name() string
	Kind() Kind
	// Station is the resolved station identifier, e.g. "ON/s0000430".
	Station() string
	// Refresh re-fetches every sub-feed. Sub-feeds fail independently; the
	// returned error joins their failures.
	Refresh(ctx context.Context) error
	// Watches lists the resource paths announced on the bus and the function
	// that re-fetches each one.
	Watches() []notify.Watch
	// Topic returns the bus subscription for this source on exchange.
	Topic(exchange string) notify.Topic
	// Snapshot returns a copy of the current data.
	Snapshot() interface{}
	// LastRefresh is when any part of the snapshot was last replaced.
	LastRefresh() time.Time
}

// Update is emitted after every successful refresh.
type Update struct {
	Source   string      `json:"source"`
	Kind     Kind        `json:"kind"`
	Station  string      `json:"station"`
	Time     time.Time   `json:"time"`
	Snapshot interface{} `json:"snapshot"`
}

// NewUpdate captures s's current snapshot.
func NewUpdate(s Source) Update {
	return Update{
		Source:   s.Name(),
		Kind:     s.Kind(),
		Station:  s.Station(),
		Time:     time.Now().UTC(),
		Snapshot: s.Snapshot(),
	}
}

// Status summarizes a running source for listings.
type Status struct {
	Name        string    `json:"name"`
	Kind        Kind      `json:"kind"`
	Station     string    `json:"station"`
	LastRefresh time.Time `json:"last_refresh"`
	LastError   string    `json:"last_error,omitempty"`
}
