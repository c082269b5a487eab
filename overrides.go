package geoweather

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"

	"go.uber.org/zap"
)

// OverrideStore holds user-declared location -> country assignments.
// The mapping lives in memory between Load and Save; Clear only empties
// memory, the file is rewritten at the next Save.
type OverrideStore struct {
	path    string
	entries map[string]string
	logger  *zap.Logger
}

// NewOverrideStore returns an empty store for the configured overrides file.
// Call Load to read the file.
func NewOverrideStore(opts ...Option) *OverrideStore {
	cfg := newConfig(opts)
	return &OverrideStore{
		path:    cfg.OverridesFile,
		entries: make(map[string]string),
		logger:  cfg.Logger,
	}
}

// Path returns the override document path.
func (s *OverrideStore) Path() string {
	return s.path
}

// Load replaces the in-memory mapping with the file's content and returns a
// copy of it. A missing or malformed file yields an empty mapping.
func (s *OverrideStore) Load() map[string]string {
	s.entries = make(map[string]string)

	data, err := os.ReadFile(s.path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			s.logger.Warn("overrides unreadable, starting empty", zap.String("path", s.path), zap.Error(err))
		}
		return s.Entries()
	}

	var entries map[string]string
	if err := json.Unmarshal(data, &entries); err != nil {
		s.logger.Warn("overrides malformed, starting empty", zap.String("path", s.path), zap.Error(err))
		return s.Entries()
	}
	for k, v := range entries {
		s.entries[k] = v
	}
	s.logger.Debug("overrides loaded", zap.String("path", s.path), zap.Int("entries", len(s.entries)))
	return s.Entries()
}

// Save writes the full in-memory mapping, overwriting the file.
func (s *OverrideStore) Save() error {
	data, err := json.MarshalIndent(s.entries, "", "    ")
	if err != nil {
		return fmt.Errorf("encoding overrides: %w", err)
	}
	if err := writeDocument(s.path, data); err != nil {
		return fmt.Errorf("saving overrides: %w", err)
	}
	return nil
}

// Clear empties the in-memory mapping.
func (s *OverrideStore) Clear() {
	s.entries = make(map[string]string)
}

// Set records that location belongs to country.
func (s *OverrideStore) Set(location, country string) {
	s.entries[location] = country
}

// Get returns the country recorded for location.
func (s *OverrideStore) Get(location string) (string, bool) {
	v, ok := s.entries[location]
	return v, ok
}

// Len returns the number of overrides held in memory.
func (s *OverrideStore) Len() int {
	return len(s.entries)
}

// Entries returns a copy of the in-memory mapping.
func (s *OverrideStore) Entries() map[string]string {
	out := make(map[string]string, len(s.entries))
	for k, v := range s.entries {
		out[k] = v
	}
	return out
}

// Locations returns the overridden location names in sorted order.
func (s *OverrideStore) Locations() []string {
	names := make([]string, 0, len(s.entries))
	for k := range s.entries {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}
