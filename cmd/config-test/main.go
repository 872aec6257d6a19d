package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/darrenwiens/env-canada/pkg/config"
)

func main() {
	yamlFile := flag.String("yaml", "", "Path to YAML configuration file")
	flag.Parse()

	if *yamlFile == "" {
		fmt.Fprintf(os.Stderr, "Usage: %s -yaml <config.yaml>\n", os.Args[0])
		flag.PrintDefaults()
		os.Exit(1)
	}

	fmt.Println("Configuration Test")
	fmt.Println("==================")

	fmt.Printf("Loading YAML configuration: %s\n", *yamlFile)
	provider := config.NewYAMLProvider(*yamlFile)
	defer provider.Close()

	cfg, err := provider.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "✗ Configuration is invalid:\n%v\n", err)
		os.Exit(1)
	}
	fmt.Println("✓ Configuration is valid")

	fmt.Printf("\nDatamart: %s (timeout %v, catalog cache %v)\n",
		cfg.Datamart.BaseURL, cfg.Datamart.Timeout, cfg.Datamart.CatalogCache)
	fmt.Printf("AMQP: %s exchange=%s window=%v\n", cfg.AMQP.URL, cfg.AMQP.Exchange, cfg.AMQP.Window)

	fmt.Printf("\nSources: %d\n", len(cfg.Sources))
	for _, s := range cfg.Sources {
		target := s.Station
		if target == "" && s.Coordinates != nil {
			target = "nearest to " + s.Coordinates.String()
		}
		mode := fmt.Sprintf("every %v", s.RefreshInterval)
		if s.Notify {
			mode = "on notification"
		}
		fmt.Printf("  %-16s %-9s %-30s %-8s %s\n", s.Name, s.Type, target, s.Language, mode)
		if s.AQHI != "" {
			fmt.Printf("  %-16s AQHI region %s\n", "", s.AQHI)
		}
		if s.RateLimit != nil {
			fmt.Printf("  %-16s rate limit %d per %v\n", "", s.RateLimit.Calls, s.RateLimit.Period)
		}
	}

	fmt.Println("\nStorage:")
	if cfg.Storage.TimescaleDB != nil {
		fmt.Println("  timescaledb")
	}
	if cfg.Storage.SQLite != nil {
		fmt.Printf("  sqlite: %s\n", cfg.Storage.SQLite.Path)
	}

	fmt.Printf("\nControllers: %d\n", len(cfg.Controllers))
	for _, c := range cfg.Controllers {
		if c.RESTServer != nil {
			fmt.Printf("  %s on %s:%d\n", c.Type, c.RESTServer.ListenAddr, c.RESTServer.Port)
		} else {
			fmt.Printf("  %s\n", c.Type)
		}
	}
}
