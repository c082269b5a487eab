package geoweather

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
)

// CacheDocument is the on-disk match cache.
//
// Timestamp is shared by every entry: a document older than the cache
// timeout loses all its matches at once, and every save resets the clock
// for all of them.
type CacheDocument struct {
	Timestamp float64                     `json:"timestamp"` // seconds since epoch of the last save
	Matches   map[string][]MatchCandidate `json:"matches"`   // uppercase query -> ranked candidates
}

// Lookup returns the cached candidates for an uppercase query.
func (d *CacheDocument) Lookup(query string) ([]MatchCandidate, bool) {
	c, ok := d.Matches[query]
	return c, ok
}

// Put stores the candidates for an uppercase query.
func (d *CacheDocument) Put(query string, candidates []MatchCandidate) {
	if d.Matches == nil {
		d.Matches = make(map[string][]MatchCandidate)
	}
	if candidates == nil {
		candidates = []MatchCandidate{}
	}
	d.Matches[query] = candidates
}

// CacheStore loads and saves the match cache document.
type CacheStore struct {
	path    string
	timeout time.Duration
	now     func() time.Time
	logger  *zap.Logger
}

// NewCacheStore returns a store for the configured cache file.
func NewCacheStore(opts ...Option) *CacheStore {
	cfg := newConfig(opts)
	return &CacheStore{
		path:    cfg.CacheFile,
		timeout: cfg.CacheTimeout,
		now:     cfg.Clock,
		logger:  cfg.Logger,
	}
}

// Path returns the cache document path.
func (s *CacheStore) Path() string {
	return s.path
}

// Load reads the cache document. A missing or malformed document yields a
// fresh one stamped now. When the document is at least the cache timeout
// old its whole match mapping is dropped.
func (s *CacheStore) Load() *CacheDocument {
	now := s.now()

	data, err := os.ReadFile(s.path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			s.logger.Warn("match cache unreadable, starting empty", zap.String("path", s.path), zap.Error(err))
		}
		return s.fresh(now)
	}

	var doc CacheDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		s.logger.Warn("match cache malformed, starting empty", zap.String("path", s.path), zap.Error(err))
		return s.fresh(now)
	}
	if doc.Matches == nil {
		doc.Matches = make(map[string][]MatchCandidate)
	}

	age := time.Duration((epochSeconds(now) - doc.Timestamp) * float64(time.Second))
	if age >= s.timeout {
		s.logger.Debug("match cache expired",
			zap.String("path", s.path), zap.Duration("age", age), zap.Int("dropped", len(doc.Matches)))
		doc.Matches = make(map[string][]MatchCandidate)
	}
	return &doc
}

// Save stamps the document with the current time and overwrites the file.
func (s *CacheStore) Save(doc *CacheDocument) error {
	doc.Timestamp = epochSeconds(s.now())
	if doc.Matches == nil {
		doc.Matches = make(map[string][]MatchCandidate)
	}

	data, err := json.MarshalIndent(doc, "", "    ")
	if err != nil {
		return fmt.Errorf("encoding match cache: %w", err)
	}
	if err := writeDocument(s.path, data); err != nil {
		return fmt.Errorf("saving match cache: %w", err)
	}
	s.logger.Debug("match cache saved", zap.String("path", s.path), zap.Int("entries", len(doc.Matches)))
	return nil
}

// Clear deletes the cache document and reports whether it existed.
func (s *CacheStore) Clear() (bool, error) {
	err := os.Remove(s.path)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, os.ErrNotExist):
		return false, nil
	default:
		return false, fmt.Errorf("clearing match cache: %w", err)
	}
}

func (s *CacheStore) fresh(now time.Time) *CacheDocument {
	return &CacheDocument{
		Timestamp: epochSeconds(now),
		Matches:   make(map[string][]MatchCandidate),
	}
}

func epochSeconds(t time.Time) float64 {
	return float64(t.UnixNano()) / float64(time.Second)
}

// writeDocument writes a JSON document, creating its directory if needed.
func writeDocument(path string, data []byte) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("creating directory: %w", err)
		}
	}
	return os.WriteFile(path, data, 0644)
}
