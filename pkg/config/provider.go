package config

import (
	"time"

	"github.com/darrenwiens/env-canada/pkg/geo"
)

// ConfigProvider defines the interface for configuration data sources
type ConfigProvider interface {
	// Load complete configuration
	LoadConfig() (*ConfigData, error)

	// Get specific configuration sections
	GetSources() ([]SourceData, error)
	GetStorageConfig() (*StorageData, error)
	GetControllers() ([]ControllerData, error)

	IsReadOnly() bool
	Close() error
}

// ConfigData represents the complete configuration structure
type ConfigData struct {
	Datamart    DatamartData     `json:"datamart"`
	AMQP        AMQPData         `json:"amqp"`
	Sources     []SourceData     `json:"sources"`
	Storage     StorageData      `json:"storage,omitempty"`
	Controllers []ControllerData `json:"controllers,omitempty"`
}

// DatamartData configures the HTTP client shared by every source
type DatamartData struct {
	BaseURL      string        `json:"base_url"`
	Timeout      time.Duration `json:"timeout"`
	CatalogCache time.Duration `json:"catalog_cache"`
}

// AMQPData configures the change notification bus
type AMQPData struct {
	URL      string        `json:"url"`
	Exchange string        `json:"exchange"`
	Window   time.Duration `json:"window"`
}

// SourceData holds configuration for one dataset instance
type SourceData struct {
	Name            string         `json:"name"`
	Type            string         `json:"type"`
	Station         string         `json:"station,omitempty"`
	AQHI            string         `json:"aqhi,omitempty"`
	Coordinates     *geo.Point     `json:"coordinates,omitempty"`
	Language        string         `json:"language,omitempty"`
	Notify          bool           `json:"notify,omitempty"`
	RateLimit       *RateLimitData `json:"rate_limit,omitempty"`
	RefreshInterval time.Duration  `json:"refresh_interval,omitempty"`
}

type RateLimitData struct {
	Calls  int           `json:"calls"`
	Period time.Duration `json:"period"`
}

// StorageData holds the configuration for various storage backends
type StorageData struct {
	TimescaleDB *TimescaleDBData `json:"timescaledb,omitempty"`
	SQLite      *SQLiteData      `json:"sqlite,omitempty"`
}

type TimescaleDBData struct {
	ConnectionString string `json:"connection_string"`
}

type SQLiteData struct {
	Path string `json:"path"`
}

// ControllerData holds the configuration for various controller backends
type ControllerData struct {
	Type       string          `json:"type,omitempty"`
	RESTServer *RESTServerData `json:"rest,omitempty"`
}

type RESTServerData struct {
	Cert       string `json:"cert,omitempty"`
	Key        string `json:"key,omitempty"`
	Port       int    `json:"port,omitempty"`
	ListenAddr string `json:"listen_addr,omitempty"`
}
