// Command update-registry rebuilds the canonical country registry from the
// Geonames country and admin-1 tables.
//
// Usage:
//
//	go run ./cmd/update-registry
//
// Missing files are downloaded into ./geoweather-data/ and the dump is
// written to ./geoweather-cache/. The dump may then be compressed:
//
//	bzip2 -f geoweather-cache/*.dmp
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/andreiashu/geoweather"
	"github.com/andreiashu/geoweather/config"
	"github.com/andreiashu/geoweather/internal/logger"
)

var (
	configPath = flag.String("config", "", "Path to a YAML configuration file")
	verbose    = flag.Bool("verbose", false, "Enable debug logging")
)

func main() {
	flag.Parse()

	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}

	log, cleanup, err := logger.New(*verbose || cfg.Logger.Verbose)
	if err != nil {
		return err
	}
	defer func() { _ = cleanup() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	opts := cfg.Options(log)

	fmt.Println("Regenerating country registry from Geonames data...")
	if err := geoweather.RegenerateRegistry(ctx, opts...); err != nil {
		return err
	}

	reg, err := geoweather.NewRegistry(opts...)
	if err != nil {
		return err
	}

	if err := geoweather.ValidateRegistry(reg); err != nil {
		return fmt.Errorf("validating registry: %w", err)
	}

	fmt.Printf("Registry regenerated: %d countries, %d admin divisions (from %s).\n",
		reg.Len(), reg.DivisionCount(), reg.Source())
	fmt.Printf("Run 'bzip2 -f %s/*.dmp' to compress the registry dump.\n", cfg.Files.RegistryDir)
	return nil
}
