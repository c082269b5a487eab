package geoweather

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"go.uber.org/zap"
)

var (
	// ErrExitRequested is returned by Resolve when the user picks the exit option.
	ErrExitRequested = errors.New("exit requested")
	// ErrNoInput is returned when the input stream ends while a prompt is pending.
	ErrNoInput = errors.New("no more input")
)

// State is a step of the resolution flow.
type State int

const (
	StateCheckCache State = iota
	StateFuzzyMatch
	StateAutoResolve
	StateDisambiguate
	StateResolved
	StateExit
)

func (s State) String() string {
	switch s {
	case StateCheckCache:
		return "check_cache"
	case StateFuzzyMatch:
		return "fuzzy_match"
	case StateAutoResolve:
		return "auto_resolve"
	case StateDisambiguate:
		return "disambiguate"
	case StateResolved:
		return "resolved"
	case StateExit:
		return "exit"
	}
	return "state(" + strconv.Itoa(int(s)) + ")"
}

// Action is what a disambiguation selection asks for.
type Action int

const (
	ActionNotANumber    Action = iota // input is not an integer
	ActionInvalidChoice               // integer outside 1..N+6
	ActionSelect                      // 1..N: pick a candidate
	ActionManualSave                  // N+1: manual entry, optionally saved as override
	ActionManual                      // N+2: manual entry, not saved
	ActionClearCache                  // N+3: clear cache and retry
	ActionClearOverrides              // N+4: clear overrides and retry
	ActionClearAll                    // N+5: clear both and retry
	ActionExit                        // N+6: exit
)

// MenuOptions are the labels of the fixed options listed after the
// candidates, in selection order (N+1 .. N+6).
var MenuOptions = []string{
	"Manual Correction",
	"Full Manual (not saved in dictionary)",
	"Clear Cache",
	"Clear User Entries",
	"Clear All Cache",
	"Exit",
}

// Decision is the outcome of a disambiguation selection.
type Decision struct {
	Action   Action
	Location string // candidate name, set for ActionSelect
}

// Next returns the state the flow moves to after the decision.
func (d Decision) Next() State {
	switch d.Action {
	case ActionSelect, ActionManualSave, ActionManual:
		return StateResolved
	case ActionClearCache, ActionClearOverrides, ActionClearAll:
		return StateCheckCache
	case ActionExit:
		return StateExit
	}
	return StateDisambiguate
}

// Decide maps a raw selection line to a decision. It has no side effects.
func Decide(candidates []MatchCandidate, selection string) Decision {
	n, err := strconv.Atoi(strings.TrimSpace(selection))
	if err != nil {
		return Decision{Action: ActionNotANumber}
	}
	if n >= 1 && n <= len(candidates) {
		return Decision{Action: ActionSelect, Location: candidates[n-1].Name}
	}
	switch n - len(candidates) {
	case 1:
		return Decision{Action: ActionManualSave}
	case 2:
		return Decision{Action: ActionManual}
	case 3:
		return Decision{Action: ActionClearCache}
	case 4:
		return Decision{Action: ActionClearOverrides}
	case 5:
		return Decision{Action: ActionClearAll}
	case 6:
		return Decision{Action: ActionExit}
	}
	return Decision{Action: ActionInvalidChoice}
}

// Resolver turns free-text location input into a single location token,
// using the match cache, the fuzzy matcher and, for ambiguous input, the
// user.
type Resolver struct {
	registry  *Registry
	matcher   CandidateMatcher
	cache     *CacheStore
	overrides *OverrideStore
	prompter  Prompter
	limit     int
	logger    *zap.Logger
}

// NewResolver creates a resolver over registry and loads the override store.
// Call Close at the end of the session to persist overrides.
func NewResolver(registry *Registry, prompter Prompter, opts ...Option) *Resolver {
	cfg := newConfig(opts)

	m := cfg.matcher
	if m == nil {
		m = NewMatcher(registry, opts...)
	}

	r := &Resolver{
		registry:  registry,
		matcher:   m,
		cache:     NewCacheStore(opts...),
		overrides: NewOverrideStore(opts...),
		prompter:  prompter,
		limit:     cfg.MatchLimit,
		logger:    cfg.Logger,
	}
	r.overrides.Load()
	return r
}

// Overrides returns the session's override store.
func (r *Resolver) Overrides() *OverrideStore {
	return r.overrides
}

// Cache returns the match cache store.
func (r *Resolver) Cache() *CacheStore {
	return r.cache
}

// Close saves the override store.
func (r *Resolver) Close() error {
	return r.overrides.Save()
}

// Resolve returns the location token for query.
//
// A query with no candidates at all is returned unchanged. A single
// candidate is returned without prompting. Otherwise the user picks a
// candidate, types a location, or resets state and the flow starts over.
func (r *Resolver) Resolve(ctx context.Context, query string) (string, error) {
	q := toUpper(strings.TrimSpace(query))

	for {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		candidates, err := r.candidates(q)
		if err != nil {
			return "", err
		}

		switch len(candidates) {
		case 0:
			r.prompter.Notice("No matches found.")
			return query, nil
		case 1:
			r.enter(StateAutoResolve, q)
			return candidates[0].Name, nil
		}

		r.enter(StateDisambiguate, q)
		loc, restart, err := r.disambiguate(ctx, candidates)
		if err != nil {
			return "", err
		}
		if !restart {
			r.enter(StateResolved, loc)
			return loc, nil
		}
	}
}

// candidates runs the cache lookup and, on a miss, the fuzzy matcher with
// write-through to the cache.
func (r *Resolver) candidates(q string) ([]MatchCandidate, error) {
	r.enter(StateCheckCache, q)
	doc := r.cache.Load()
	if cached, ok := doc.Lookup(q); ok && len(cached) > 0 {
		r.logger.Debug("match cache hit", zap.String("query", q), zap.Int("candidates", len(cached)))
		return cached, nil
	}

	r.enter(StateFuzzyMatch, q)
	matches := r.matcher.Match(q, r.limit)
	doc.Put(q, matches)
	if err := r.cache.Save(doc); err != nil {
		return nil, err
	}
	return matches, nil
}

func (r *Resolver) disambiguate(ctx context.Context, candidates []MatchCandidate) (string, bool, error) {
	r.prompter.ShowCandidates(candidates)
	label := fmt.Sprintf("Please select the correct option (1-%d): ", len(candidates)+len(MenuOptions))

	for {
		if err := ctx.Err(); err != nil {
			return "", false, err
		}

		line, err := r.prompter.Prompt(label)
		if err != nil {
			return "", false, inputError(err)
		}

		d := Decide(candidates, line)
		switch d.Action {
		case ActionNotANumber:
			r.prompter.Notice("Invalid input. Please enter a number.")
		case ActionInvalidChoice:
			r.prompter.Notice("Invalid choice. Please try again.")
		case ActionSelect:
			return d.Location, false, nil
		case ActionManualSave:
			loc, err := r.manualEntry(true)
			return loc, false, err
		case ActionManual:
			loc, err := r.manualEntry(false)
			return loc, false, err
		case ActionClearCache:
			return "", true, r.ClearCache()
		case ActionClearOverrides:
			r.ClearOverrides()
			return "", true, nil
		case ActionClearAll:
			if err := r.ClearCache(); err != nil {
				return "", false, err
			}
			r.ClearOverrides()
			return "", true, nil
		case ActionExit:
			r.enter(StateExit, "")
			return "", false, ErrExitRequested
		}
	}
}

func (r *Resolver) manualEntry(offerSave bool) (string, error) {
	line, err := r.prompter.Prompt("Please enter the correct location manually: ")
	if err != nil {
		return "", inputError(err)
	}
	loc := toUpper(strings.TrimSpace(line))
	if !offerSave {
		return loc, nil
	}

	line, err = r.prompter.Prompt(fmt.Sprintf("Enter the country for %s: ", loc))
	if err != nil {
		return "", inputError(err)
	}
	country := toUpper(strings.TrimSpace(line))

	answer, err := r.prompter.Prompt(fmt.Sprintf("Do you want to save %s as %s? (y/n): ", loc, country))
	if err != nil {
		return "", inputError(err)
	}
	if strings.EqualFold(strings.TrimSpace(answer), "y") {
		r.overrides.Set(loc, country)
		r.logger.Debug("override recorded", zap.String("location", loc), zap.String("country", country))
	}
	return loc, nil
}

// ClearCache deletes the match cache document.
func (r *Resolver) ClearCache() error {
	existed, err := r.cache.Clear()
	if err != nil {
		return err
	}
	if existed {
		r.prompter.Notice("Cache cleared.")
	} else {
		r.prompter.Notice("Cache file does not exist.")
	}
	return nil
}

// ClearOverrides empties the in-memory override store.
func (r *Resolver) ClearOverrides() {
	r.overrides.Clear()
	r.prompter.Notice("User entries have been cleared.")
}

// CountryCode returns the country code for a resolved location: the
// registry's own code, or the country the user assigned to it.
func (r *Resolver) CountryCode(location string) (string, bool) {
	if code, ok := r.registry.CountryCode(location); ok {
		return code, true
	}
	declared, ok := r.overrides.Get(toUpper(strings.TrimSpace(location)))
	if !ok {
		return "", false
	}
	if code, ok := r.registry.CountryCode(declared); ok {
		return code, true
	}
	if Flag(declared) != FlagUnknown {
		return toUpper(declared), true
	}
	return "", false
}

func (r *Resolver) enter(s State, q string) {
	r.logger.Debug("resolution state", zap.Stringer("state", s), zap.String("query", q))
}

func inputError(err error) error {
	if errors.Is(err, io.EOF) {
		return ErrNoInput
	}
	return fmt.Errorf("reading input: %w", err)
}
