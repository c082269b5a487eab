package geoweather

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/adrg/strutil/metrics"
	"github.com/hashicorp/golang-lru/v2/expirable"
)

// MatchCandidate is a canonical name scored against a query (0-100).
// It is encoded as a two-element JSON array: ["FRANCE", 83.33].
type MatchCandidate struct {
	Name  string
	Score float64
}

// MarshalJSON encodes the candidate as [name, score].
func (m MatchCandidate) MarshalJSON() ([]byte, error) {
	return json.Marshal([]any{m.Name, m.Score})
}

// UnmarshalJSON decodes [name, score]. Documents written by the original
// tool carry a third element (the registry index), which is ignored.
func (m *MatchCandidate) UnmarshalJSON(data []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if len(raw) < 2 {
		return fmt.Errorf("match candidate: want [name, score], got %d elements", len(raw))
	}
	if err := json.Unmarshal(raw[0], &m.Name); err != nil {
		return fmt.Errorf("match candidate name: %w", err)
	}
	if err := json.Unmarshal(raw[1], &m.Score); err != nil {
		return fmt.Errorf("match candidate score: %w", err)
	}
	return nil
}

// CandidateMatcher produces ranked candidates for a query.
type CandidateMatcher interface {
	Match(query string, limit int) []MatchCandidate
}

// indel is Levenshtein with substitutions priced as a delete plus an insert,
// which makes the distance the Indel distance used by ratio.
var indel = &metrics.Levenshtein{
	CaseSensitive: true,
	InsertCost:    1,
	DeleteCost:    1,
	ReplaceCost:   2,
}

// Ratio returns the normalized Indel similarity of a and b in [0, 100]:
// 100 * (1 - indel(a, b) / (len(a) + len(b))), lengths counted in runes.
// Two empty strings are identical.
func Ratio(a, b string) float64 {
	lensum := len([]rune(a)) + len([]rune(b))
	if lensum == 0 {
		return 100
	}
	dist := indel.Distance(a, b)
	return 100 * (1 - float64(dist)/float64(lensum))
}

// Match scores query against every location and returns the best limit
// candidates, highest score first, ties in location order. A limit <= 0
// returns every candidate.
//
// When a location name equals the uppercased query, only the exact
// match(es) are returned.
func Match(query string, locations []CanonicalLocation, limit int) []MatchCandidate {
	return match(query, locations, limit, 0)
}

func match(query string, locations []CanonicalLocation, limit int, cutoff float64) []MatchCandidate {
	q := toUpper(query)

	scored := make([]MatchCandidate, 0, len(locations))
	for _, loc := range locations {
		score := Ratio(q, loc.Name)
		if score < cutoff {
			continue
		}
		scored = append(scored, MatchCandidate{Name: loc.Name, Score: score})
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})
	if limit > 0 && len(scored) > limit {
		scored = scored[:limit]
	}

	var exact []MatchCandidate
	for _, c := range scored {
		if c.Name == q {
			exact = append(exact, c)
		}
	}
	if len(exact) > 0 {
		return exact
	}
	return scored
}

// Matcher matches queries against a registry, memoizing results in an
// expirable LRU.
type Matcher struct {
	locations []CanonicalLocation
	cutoff    float64
	memo      *expirable.LRU[string, []MatchCandidate]
}

// NewMatcher returns a Matcher over the registry's locations.
func NewMatcher(r *Registry, opts ...Option) *Matcher {
	cfg := newConfig(opts)
	m := &Matcher{
		locations: r.Locations(),
		cutoff:    cfg.ScoreCutoff,
	}
	if cfg.MemoSize > 0 {
		m.memo = expirable.NewLRU[string, []MatchCandidate](cfg.MemoSize, nil, cfg.MemoTTL)
	}
	return m
}

// Match implements CandidateMatcher.
func (m *Matcher) Match(query string, limit int) []MatchCandidate {
	key := strconv.Itoa(limit) + "\x00" + strings.ToUpper(query)
	if m.memo != nil {
		if cached, ok := m.memo.Get(key); ok {
			return cloneCandidates(cached)
		}
	}
	result := match(query, m.locations, limit, m.cutoff)
	if m.memo != nil {
		m.memo.Add(key, cloneCandidates(result))
	}
	return result
}

func cloneCandidates(in []MatchCandidate) []MatchCandidate {
	if in == nil {
		return nil
	}
	out := make([]MatchCandidate, len(in))
	copy(out, in)
	return out
}
