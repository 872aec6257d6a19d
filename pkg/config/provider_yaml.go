package config

import (
	"fmt"
	"os"
	"time"

	"github.com/darrenwiens/env-canada/pkg/geo"
	"gopkg.in/yaml.v2"
)

// YAMLProvider implements ConfigProvider for YAML configuration files
type YAMLProvider struct {
	filename string
	config   *ConfigData
}

// NewYAMLProvider creates a new YAML configuration provider
func NewYAMLProvider(filename string) *YAMLProvider {
	return &YAMLProvider{
		filename: filename,
	}
}

// LoadConfig reads the YAML file, applies defaults and validates the result
func (y *YAMLProvider) LoadConfig() (*ConfigData, error) {
	cfgFile, err := os.ReadFile(y.filename)
	if err != nil {
		return nil, err
	}

	config, err := Parse(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", y.filename, err)
	}

	y.config = config
	return config, nil
}

// Parse converts a YAML document into a defaulted, validated ConfigData
func Parse(data []byte) (*ConfigData, error) {
	var yamlConfig ConfigYAML
	if err := yaml.UnmarshalStrict(data, &yamlConfig); err != nil {
		return nil, err
	}

	config, err := yamlConfig.convert()
	if err != nil {
		return nil, err
	}

	config.ApplyDefaults()
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// GetSources returns source configurations
func (y *YAMLProvider) GetSources() ([]SourceData, error) {
	if y.config == nil {
		_, err := y.LoadConfig()
		if err != nil {
			return nil, err
		}
	}
	return y.config.Sources, nil
}

// GetStorageConfig returns storage configuration
func (y *YAMLProvider) GetStorageConfig() (*StorageData, error) {
	if y.config == nil {
		_, err := y.LoadConfig()
		if err != nil {
			return nil, err
		}
	}
	return &y.config.Storage, nil
}

// GetControllers returns controller configurations
func (y *YAMLProvider) GetControllers() ([]ControllerData, error) {
	if y.config == nil {
		_, err := y.LoadConfig()
		if err != nil {
			return nil, err
		}
	}
	return y.config.Controllers, nil
}

// IsReadOnly returns true since YAML files are read-only through this interface
func (y *YAMLProvider) IsReadOnly() bool {
	return true
}

// Close is a no-op for YAML provider
func (y *YAMLProvider) Close() error {
	return nil
}

func (c ConfigYAML) convert() (*ConfigData, error) {
	var err error
	config := &ConfigData{
		Datamart: DatamartData{BaseURL: c.Datamart.BaseURL},
		AMQP: AMQPData{
			URL:      c.AMQP.URL,
			Exchange: c.AMQP.Exchange,
		},
		Sources:     make([]SourceData, len(c.Sources)),
		Controllers: make([]ControllerData, len(c.Controllers)),
	}

	if config.Datamart.Timeout, err = duration("datamart.timeout", c.Datamart.Timeout); err != nil {
		return nil, err
	}
	if config.Datamart.CatalogCache, err = duration("datamart.catalog-cache", c.Datamart.CatalogCache); err != nil {
		return nil, err
	}
	if config.AMQP.Window, err = duration("amqp.window", c.AMQP.Window); err != nil {
		return nil, err
	}

	// Convert sources
	for i, source := range c.Sources {
		s := SourceData{
			Name:     source.Name,
			Type:     source.Type,
			Station:  source.Station,
			AQHI:     source.AQHI,
			Language: source.Language,
			Notify:   source.Notify,
		}
		if source.Coordinates != nil {
			s.Coordinates = &geo.Point{Lat: source.Coordinates.Lat, Lon: source.Coordinates.Lon}
		}
		if s.RefreshInterval, err = duration(source.Name+".refresh-interval", source.RefreshInterval); err != nil {
			return nil, err
		}
		if source.RateLimit != nil {
			s.RateLimit = &RateLimitData{Calls: source.RateLimit.Calls}
			if s.RateLimit.Period, err = duration(source.Name+".rate-limit.period", source.RateLimit.Period); err != nil {
				return nil, err
			}
		}
		config.Sources[i] = s
	}

	// Convert storage
	if c.Storage.TimescaleDB != nil {
		config.Storage.TimescaleDB = &TimescaleDBData{
			ConnectionString: c.Storage.TimescaleDB.ConnectionString,
		}
	}
	if c.Storage.SQLite != nil {
		config.Storage.SQLite = &SQLiteData{Path: c.Storage.SQLite.Path}
	}

	// Convert controllers
	for i, controller := range c.Controllers {
		config.Controllers[i] = ControllerData{
			Type: controller.Type,
		}
		if controller.RESTServer != nil {
			config.Controllers[i].RESTServer = &RESTServerData{
				Cert:       controller.RESTServer.Cert,
				Key:        controller.RESTServer.Key,
				Port:       controller.RESTServer.Port,
				ListenAddr: controller.RESTServer.ListenAddr,
			}
		}
	}

	return config, nil
}

func duration(name, s string) (time.Duration, error) {
	if s == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid duration for %s: %w", name, err)
	}
	return d, nil
}

// YAML-specific structs with kebab-case keys
type ConfigYAML struct {
	Datamart    DatamartYAML     `yaml:"datamart,omitempty"`
	AMQP        AMQPYAML         `yaml:"amqp,omitempty"`
	Sources     []SourceYAML     `yaml:"sources"`
	Storage     StorageYAML      `yaml:"storage,omitempty"`
	Controllers []ControllerYAML `yaml:"controllers,omitempty"`
}

type DatamartYAML struct {
	BaseURL      string `yaml:"base-url,omitempty"`
	Timeout      string `yaml:"timeout,omitempty"`
	CatalogCache string `yaml:"catalog-cache,omitempty"`
}

type AMQPYAML struct {
	URL      string `yaml:"url,omitempty"`
	Exchange string `yaml:"exchange,omitempty"`
	Window   string `yaml:"window,omitempty"`
}

type SourceYAML struct {
	Name            string         `yaml:"name"`
	Type            string         `yaml:"type"`
	Station         string         `yaml:"station,omitempty"`
	AQHI            string         `yaml:"aqhi,omitempty"`
	Coordinates     *PointYAML     `yaml:"coordinates,omitempty"`
	Language        string         `yaml:"language,omitempty"`
	Notify          bool           `yaml:"notify,omitempty"`
	RateLimit       *RateLimitYAML `yaml:"rate-limit,omitempty"`
	RefreshInterval string         `yaml:"refresh-interval,omitempty"`
}

type PointYAML struct {
	Lat float64 `yaml:"latitude"`
	Lon float64 `yaml:"longitude"`
}

type RateLimitYAML struct {
	Calls  int    `yaml:"calls"`
	Period string `yaml:"period"`
}

type StorageYAML struct {
	TimescaleDB *TimescaleDBYAML `yaml:"timescaledb,omitempty"`
	SQLite      *SQLiteYAML      `yaml:"sqlite,omitempty"`
}

type TimescaleDBYAML struct {
	ConnectionString string `yaml:"connection-string"`
}

type SQLiteYAML struct {
	Path string `yaml:"path"`
}

type ControllerYAML struct {
	Type       string          `yaml:"type,omitempty"`
	RESTServer *RESTServerYAML `yaml:"rest,omitempty"`
}

type RESTServerYAML struct {
	Cert       string `yaml:"cert,omitempty"`
	Key        string `yaml:"key,omitempty"`
	Port       int    `yaml:"port,omitempty"`
	ListenAddr string `yaml:"listen-addr,omitempty"`
}
