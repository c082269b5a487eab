// Command weather resolves a free-text location to a country or region and
// prints its current conditions and a short daily forecast.
//
// Usage:
//
//	weather [flags] [location...]
//
// With a location argument the forecast is printed once. Without one an
// interactive session starts.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/fatih/color"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/andreiashu/geoweather"
	"github.com/andreiashu/geoweather/config"
	"github.com/andreiashu/geoweather/forecast"
	"github.com/andreiashu/geoweather/internal/logger"
)

var version = "dev"

var (
	configPath    = flag.String("config", "", "Path to a YAML configuration file")
	cacheFile     = flag.String("cache-file", "", "Match cache document (overrides config)")
	overridesFile = flag.String("overrides-file", "", "User override document (overrides config)")
	cacheTimeout  = flag.Duration("cache-timeout", 0, "Match cache lifetime, e.g. 2000s (overrides config)")
	limit         = flag.Int("limit", -1, "Maximum fuzzy candidates per query (overrides config)")
	days          = flag.Int("days", -1, "Number of daily forecasts to print (overrides config)")
	verbose       = flag.Bool("verbose", false, "Enable debug logging")
	noColor       = flag.Bool("no-color", false, "Disable colored output")
	showVersion   = flag.Bool("version", false, "Print version and exit")
	listOverrides = flag.Bool("list-overrides", false, "Print saved location overrides and exit")
)

func main() {
	flag.Parse()

	if *showVersion {
		fmt.Println("weather", version)
		return
	}

	_ = godotenv.Load(".env.local")
	_ = godotenv.Load()

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
	applyFlags(&cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}
	if *noColor {
		color.NoColor = true
	}

	log, cleanup, err := logger.New(cfg.Logger.Verbose)
	if err != nil {
		return fmt.Errorf("creating logger: %w", err)
	}
	defer func() { _ = cleanup() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	opts := cfg.Options(log)
	reg, err := geoweather.NewRegistry(opts...)
	if err != nil {
		return err
	}

	prompter := geoweather.NewTerminalPrompter(os.Stdin, os.Stdout)
	s := &session{
		resolver: geoweather.NewResolver(reg, prompter, opts...),
		client:   forecast.NewClient(cfg.ForecastOptions(log)...),
		prompter: prompter,
		out:      os.Stdout,
		days:     cfg.Forecast.Days,
		log:      log,
	}

	if *listOverrides {
		s.listOverrides()
		return nil
	}

	if flag.NArg() > 0 {
		return s.once(ctx, strings.Join(flag.Args(), " "))
	}
	return s.loop(ctx)
}

// applyFlags lets explicitly set command-line flags win over file and
// environment settings.
func applyFlags(cfg *config.Config) {
	if *cacheFile != "" {
		cfg.Files.CacheFile = *cacheFile
	}
	if *overridesFile != "" {
		cfg.Files.OverridesFile = *overridesFile
	}
	if *cacheTimeout > 0 {
		cfg.Matching.CacheTimeout = *cacheTimeout
	}
	if *limit >= 0 {
		cfg.Matching.Limit = *limit
	}
	if *days >= 0 {
		cfg.Forecast.Days = *days
	}
	if *verbose {
		cfg.Logger.Verbose = true
	}
}

type session struct {
	resolver *geoweather.Resolver
	client   *forecast.Client
	prompter *geoweather.TerminalPrompter
	out      io.Writer
	days     int
	log      *zap.Logger
}

func (s *session) once(ctx context.Context, query string) error {
	err := s.forecast(ctx, query)
	if errors.Is(err, geoweather.ErrExitRequested) || errors.Is(err, geoweather.ErrNoInput) {
		fmt.Fprintln(s.out, "Exiting the program.")
		err = nil
	}
	if cerr := s.resolver.Close(); err == nil {
		err = cerr
	}
	return err
}

func (s *session) loop(ctx context.Context) error {
	for {
		fmt.Fprintln(s.out, "clear cache input: 1")
		fmt.Fprintln(s.out, "clear user entries input: 2")
		fmt.Fprintln(s.out, "clear all cache input: 3")
		fmt.Fprintln(s.out, "Exit: 4")

		line, err := s.prompter.Prompt("Please enter the location for which you want the weather forecast: ")
		if err != nil {
			if errors.Is(err, io.EOF) {
				fmt.Fprintln(s.out)
				return s.exit()
			}
			return err
		}

		switch query := strings.TrimSpace(line); query {
		case "":
			continue
		case "1":
			if err := s.resolver.ClearCache(); err != nil {
				return err
			}
		case "2":
			s.resolver.ClearOverrides()
		case "3":
			if err := s.resolver.ClearCache(); err != nil {
				return err
			}
			s.resolver.ClearOverrides()
		case "4":
			return s.exit()
		default:
			err := s.forecast(ctx, query)
			switch {
			case errors.Is(err, geoweather.ErrExitRequested), errors.Is(err, geoweather.ErrNoInput),
				errors.Is(err, context.Canceled):
				return s.exit()
			case err != nil:
				return err
			}
			if err := s.resolver.Close(); err != nil {
				return err
			}
		}
	}
}

// forecast resolves query and prints its forecast. Provider failures are
// reported and swallowed so the session can continue.
func (s *session) forecast(ctx context.Context, query string) error {
	loc, err := s.resolver.Resolve(ctx, query)
	if err != nil {
		return err
	}

	report, err := s.client.Forecast(ctx, loc)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		s.log.Warn("forecast failed", zap.String("location", loc), zap.Error(err))
		fmt.Fprintf(os.Stderr, "Could not fetch the forecast for %s: %v\n", loc, err)
		return nil
	}

	flagEmoji := "No flag available"
	if code, ok := s.resolver.CountryCode(loc); ok {
		flagEmoji = geoweather.Flag(code)
	}
	forecast.Render(s.out, loc, flagEmoji, report, s.days)
	return nil
}

func (s *session) exit() error {
	fmt.Fprintln(s.out, "Exiting the program.")
	return s.resolver.Close()
}

func (s *session) listOverrides() {
	o := s.resolver.Overrides()
	if o.Len() == 0 {
		fmt.Fprintf(s.out, "No overrides saved in %s.\n", o.Path())
		return
	}
	for _, loc := range o.Locations() {
		country, _ := o.Get(loc)
		fmt.Fprintf(s.out, "%s\t%s\n", loc, country)
	}
}
