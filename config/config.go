// Package config loads the weather CLI settings from code defaults, an
// optional YAML file and WEATHER_* environment variables, in that order.
package config

import (
	"bytes"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/kelseyhightower/envconfig"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/andreiashu/geoweather"
	"github.com/andreiashu/geoweather/forecast"
)

// EnvPrefix prefixes every environment variable, e.g. WEATHER_MATCHING_LIMIT.
const EnvPrefix = "WEATHER"

type Files struct {
	CacheFile     string `yaml:"cache-file" envconfig:"CACHE_FILE"`
	OverridesFile string `yaml:"overrides-file" envconfig:"OVERRIDES_FILE"`
	DataDir       string `yaml:"data-dir" envconfig:"DATA_DIR"`
	RegistryDir   string `yaml:"registry-dir" envconfig:"REGISTRY_DIR"`
}

type Matching struct {
	CacheTimeout time.Duration `yaml:"cache-timeout" envconfig:"CACHE_TIMEOUT"`
	Limit        int           `yaml:"limit" envconfig:"LIMIT"`
	ScoreCutoff  float64       `yaml:"score-cutoff" envconfig:"SCORE_CUTOFF"`
	MemoSize     int           `yaml:"memo-size" envconfig:"MEMO_SIZE"`
	MemoTTL      time.Duration `yaml:"memo-ttl" envconfig:"MEMO_TTL"`
}

type Forecast struct {
	BaseURL  string        `yaml:"base-url" envconfig:"BASE_URL"`
	Timeout  time.Duration `yaml:"timeout" envconfig:"TIMEOUT"`
	CacheTTL time.Duration `yaml:"cache-ttl" envconfig:"CACHE_TTL"`
	Attempts uint          `yaml:"attempts" envconfig:"ATTEMPTS"`
	Days     int           `yaml:"days" envconfig:"DAYS"`
}

type Logger struct {
	Verbose bool `yaml:"verbose" envconfig:"VERBOSE"`
}

type Config struct {
	Files    Files    `yaml:"files"`
	Matching Matching `yaml:"matching"`
	Forecast Forecast `yaml:"forecast"`
	Logger   Logger   `yaml:"logger"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		Files: Files{
			CacheFile:     geoweather.DefaultCacheFile,
			OverridesFile: geoweather.DefaultOverridesFile,
			DataDir:       geoweather.DefaultDataDir,
			RegistryDir:   geoweather.DefaultRegistryDir,
		},
		Matching: Matching{
			CacheTimeout: geoweather.DefaultCacheTimeout,
			Limit:        geoweather.DefaultMatchLimit,
			MemoSize:     geoweather.DefaultMemoSize,
			MemoTTL:      geoweather.DefaultMemoTTL,
		},
		Forecast: Forecast{
			BaseURL:  forecast.DefaultBaseURL,
			Timeout:  forecast.DefaultTimeout,
			CacheTTL: forecast.DefaultCacheTTL,
			Attempts: forecast.DefaultAttempts,
			Days:     forecast.DefaultDays,
		},
	}
}

// Load reads settings with the WEATHER prefix. path may be empty.
func Load(path string) (Config, error) {
	return LoadWithPrefix(path, EnvPrefix)
}

// LoadWithPrefix is Load with a custom environment prefix.
func LoadWithPrefix(path, prefix string) (Config, error) {
	c := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("reading config file: %w", err)
		}
		if len(bytes.TrimSpace(data)) > 0 {
			if err := yaml.Unmarshal(data, &c); err != nil {
				return Config{}, fmt.Errorf("parsing config file %s: %w", path, err)
			}
		}
	}

	if err := envconfig.Process(prefix, &c); err != nil {
		return Config{}, fmt.Errorf("reading environment: %w", err)
	}

	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// Validate rejects settings the CLI cannot run with.
func (c Config) Validate() error {
	switch {
	case c.Files.CacheFile == "":
		return fmt.Errorf("config: cache file must be set")
	case c.Files.OverridesFile == "":
		return fmt.Errorf("config: overrides file must be set")
	case c.Matching.CacheTimeout <= 0:
		return fmt.Errorf("config: cache timeout must be positive, got %s", c.Matching.CacheTimeout)
	case c.Matching.Limit < 0:
		return fmt.Errorf("config: match limit must not be negative, got %d", c.Matching.Limit)
	case c.Forecast.Days < 0:
		return fmt.Errorf("config: forecast days must not be negative, got %d", c.Forecast.Days)
	}
	return nil
}

// Options returns the location-resolution options for c.
func (c Config) Options(logger *zap.Logger) []geoweather.Option {
	return []geoweather.Option{
		geoweather.WithCacheFile(c.Files.CacheFile),
		geoweather.WithOverridesFile(c.Files.OverridesFile),
		geoweather.WithDataDir(c.Files.DataDir),
		geoweather.WithRegistryDir(c.Files.RegistryDir),
		geoweather.WithCacheTimeout(c.Matching.CacheTimeout),
		geoweather.WithMatchLimit(c.Matching.Limit),
		geoweather.WithScoreCutoff(c.Matching.ScoreCutoff),
		geoweather.WithMemo(c.Matching.MemoSize, c.Matching.MemoTTL),
		geoweather.WithLogger(logger),
	}
}

// ForecastOptions returns the forecast client options for c.
func (c Config) ForecastOptions(logger *zap.Logger) []forecast.Option {
	return []forecast.Option{
		forecast.WithBaseURL(c.Forecast.BaseURL),
		forecast.WithHTTPClient(&http.Client{Timeout: c.Forecast.Timeout}),
		forecast.WithCacheTTL(c.Forecast.CacheTTL),
		forecast.WithAttempts(c.Forecast.Attempts),
		forecast.WithLogger(logger),
	}
}
