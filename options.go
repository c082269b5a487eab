package geoweather

import (
	"time"

	"go.uber.org/zap"
)

// Defaults mirror the file names and limits of the original weather tool so
// existing weather_cache.json and user_entries.json documents keep working.
const (
	DefaultCacheFile     = "weather_cache.json"
	DefaultOverridesFile = "user_entries.json"
	DefaultCacheTimeout  = 2000 * time.Second
	DefaultMatchLimit    = 15
	DefaultDataDir       = "./geoweather-data"
	DefaultRegistryDir   = "./geoweather-cache"

	DefaultMemoSize = 256
	DefaultMemoTTL  = time.Hour
)

// Config contains configuration options shared by the registry, the stores
// and the resolver.
type Config struct {
	DataDir       string        // Directory for raw Geonames files (default: "./geoweather-data")
	RegistryDir   string        // Directory for the registry dump (default: "./geoweather-cache")
	CacheFile     string        // Match cache document
	CacheTimeout  time.Duration // Age after which the whole match cache is discarded
	OverridesFile string        // User override document
	MatchLimit    int           // Maximum number of fuzzy candidates kept per query
	ScoreCutoff   float64       // Candidates scoring below this are dropped (0 keeps all)
	MemoSize      int           // In-process memo entries kept by Matcher
	MemoTTL       time.Duration // In-process memo lifetime
	Logger        *zap.Logger
	Clock         func() time.Time

	matcher CandidateMatcher
}

// Option is a functional option for configuring the package's components.
type Option func(*Config)

// WithDataDir sets the directory for raw Geonames data files.
func WithDataDir(dir string) Option {
	return func(c *Config) {
		c.DataDir = dir
	}
}

// WithRegistryDir sets the directory holding the registry dump.
func WithRegistryDir(dir string) Option {
	return func(c *Config) {
		c.RegistryDir = dir
	}
}

// WithCacheFile sets the path of the match cache document.
func WithCacheFile(path string) Option {
	return func(c *Config) {
		c.CacheFile = path
	}
}

// WithCacheTimeout sets how long a saved match cache stays valid.
func WithCacheTimeout(d time.Duration) Option {
	return func(c *Config) {
		c.CacheTimeout = d
	}
}

// WithOverridesFile sets the path of the user override document.
func WithOverridesFile(path string) Option {
	return func(c *Config) {
		c.OverridesFile = path
	}
}

// WithMatchLimit sets the maximum number of candidates returned per query.
func WithMatchLimit(n int) Option {
	return func(c *Config) {
		c.MatchLimit = n
	}
}

// WithScoreCutoff drops fuzzy candidates scoring below min.
func WithScoreCutoff(min float64) Option {
	return func(c *Config) {
		c.ScoreCutoff = min
	}
}

// WithMemo sizes the in-process memo used by Matcher. A size of 0 disables it.
func WithMemo(size int, ttl time.Duration) Option {
	return func(c *Config) {
		c.MemoSize = size
		c.MemoTTL = ttl
	}
}

// WithLogger sets the logger. A nil logger is replaced by a no-op one.
func WithLogger(l *zap.Logger) Option {
	return func(c *Config) {
		c.Logger = l
	}
}

// WithClock replaces time.Now, mostly for tests exercising cache expiry.
func WithClock(now func() time.Time) Option {
	return func(c *Config) {
		c.Clock = now
	}
}

// WithMatcher makes the resolver use m instead of a Matcher over the registry.
func WithMatcher(m CandidateMatcher) Option {
	return func(c *Config) {
		c.matcher = m
	}
}

// defaultConfig returns the default configuration.
func defaultConfig() *Config {
	return &Config{
		DataDir:       DefaultDataDir,
		RegistryDir:   DefaultRegistryDir,
		CacheFile:     DefaultCacheFile,
		CacheTimeout:  DefaultCacheTimeout,
		OverridesFile: DefaultOverridesFile,
		MatchLimit:    DefaultMatchLimit,
		MemoSize:      DefaultMemoSize,
		MemoTTL:       DefaultMemoTTL,
		Logger:        zap.NewNop(),
		Clock:         time.Now,
	}
}

func newConfig(opts []Option) *Config {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	return cfg
}
