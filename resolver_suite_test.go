package geoweather

import (
	"context"
	"io"
	"path/filepath"
	"strconv"
	"testing"

	. "gopkg.in/check.v1"
)

// Hook up gocheck into the "go test" runner.
func Test(t *testing.T) { TestingT(t) }

// scriptedPrompter replays answers and records what the resolver showed.
type scriptedPrompter struct {
	answers []string
	labels  []string
	notices []string
	shown   [][]MatchCandidate
}

func (p *scriptedPrompter) Prompt(label string) (string, error) {
	p.labels = append(p.labels, label)
	if len(p.answers) == 0 {
		return "", io.EOF
	}
	a := p.answers[0]
	p.answers = p.answers[1:]
	return a, nil
}

func (p *scriptedPrompter) ShowCandidates(c []MatchCandidate) {
	p.shown = append(p.shown, c)
}

func (p *scriptedPrompter) Notice(msg string) {
	p.notices = append(p.notices, msg)
}

// countingMatcher counts how often the fuzzy matcher actually runs.
type countingMatcher struct {
	m     CandidateMatcher
	calls int
}

func (c *countingMatcher) Match(q string, limit int) []MatchCandidate {
	c.calls++
	return c.m.Match(q, limit)
}

type ResolverSuite struct {
	registry *Registry
	dir      string
	matcher  *countingMatcher
	prompter *scriptedPrompter
	clock    *fakeClock
}

var _ = Suite(&ResolverSuite{})

func (s *ResolverSuite) SetUpSuite(c *C) {
	s.registry = NewRegistryFromLocations(testLocations)
}

func (s *ResolverSuite) SetUpTest(c *C) {
	s.dir = c.MkDir()
	s.matcher = &countingMatcher{m: NewMatcher(s.registry, WithMemo(0, 0))}
	s.prompter = &scriptedPrompter{}
	s.clock = newTestClock()
}

func (s *ResolverSuite) options() []Option {
	return []Option{
		WithCacheFile(filepath.Join(s.dir, "weather_cache.json")),
		WithOverridesFile(filepath.Join(s.dir, "user_entries.json")),
		WithClock(s.clock.Now),
		WithMatcher(s.matcher),
	}
}

func (s *ResolverSuite) resolver(answers ...string) *Resolver {
	s.prompter.answers = answers
	return NewResolver(s.registry, s.prompter, s.options()...)
}

func (s *ResolverSuite) TestExactMatchAutoResolves(c *C) {
	r := s.resolver()

	loc, err := r.Resolve(context.Background(), "United States")
	c.Assert(err, IsNil)
	c.Assert(loc, Equals, "UNITED STATES")
	c.Assert(s.prompter.shown, HasLen, 0)
	c.Assert(s.matcher.calls, Equals, 1)

	doc := r.Cache().Load()
	cached, ok := doc.Lookup("UNITED STATES")
	c.Assert(ok, Equals, true)
	c.Assert(cached, DeepEquals, []MatchCandidate{{"UNITED STATES", 100}})

	code, ok := r.CountryCode(loc)
	c.Assert(ok, Equals, true)
	c.Assert(Flag(code), Equals, "🇺🇸")

	// A second resolution within the timeout is served from the cache.
	loc, err = r.Resolve(context.Background(), "UNITED STATES")
	c.Assert(err, IsNil)
	c.Assert(loc, Equals, "UNITED STATES")
	c.Assert(s.matcher.calls, Equals, 1)
}

func (s *ResolverSuite) TestExpiredCacheRunsMatcherAgain(c *C) {
	r := s.resolver()

	_, err := r.Resolve(context.Background(), "FRANCE")
	c.Assert(err, IsNil)
	s.clock.Advance(DefaultCacheTimeout)

	_, err = r.Resolve(context.Background(), "FRANCE")
	c.Assert(err, IsNil)
	c.Assert(s.matcher.calls, Equals, 2)
}

func (s *ResolverSuite) TestDisambiguationSelectsByIndex(c *C) {
	r := s.resolver("2")

	loc, err := r.Resolve(context.Background(), "united")
	c.Assert(err, IsNil)
	c.Assert(loc, Equals, "UNITED KINGDOM")
	c.Assert(s.prompter.shown, HasLen, 1)
	c.Assert(s.prompter.shown[0][0].Name, Equals, "UNITED STATES")

	n := len(s.prompter.shown[0])
	c.Assert(s.prompter.labels[0], Matches, `Please select the correct option \(1-\d+\): `)
	c.Assert(n, Equals, len(testLocations))
}

func (s *ResolverSuite) TestInvalidInputReprompts(c *C) {
	r := s.resolver("abc", "99", "0", "1")

	loc, err := r.Resolve(context.Background(), "IRLAND")
	c.Assert(err, IsNil)
	c.Assert(loc, Equals, "IRELAND")
	c.Assert(s.prompter.notices, DeepEquals, []string{
		"Invalid input. Please enter a number.",
		"Invalid choice. Please try again.",
		"Invalid choice. Please try again.",
	})
	// The menu is shown once; only the prompt repeats.
	c.Assert(s.prompter.shown, HasLen, 1)
	c.Assert(s.prompter.labels, HasLen, 4)
}

func (s *ResolverSuite) TestManualCorrectionSaved(c *C) {
	manualSave := strconv.Itoa(len(testLocations) + 1)
	r := s.resolver(manualSave, "Springfield", "us", "y")

	loc, err := r.Resolve(context.Background(), "IRLAND")
	c.Assert(err, IsNil)
	c.Assert(loc, Equals, "SPRINGFIELD")

	country, ok := r.Overrides().Get("SPRINGFIELD")
	c.Assert(ok, Equals, true)
	c.Assert(country, Equals, "US")
	c.Assert(s.prompter.labels[2], Equals, "Enter the country for SPRINGFIELD: ")
	c.Assert(s.prompter.labels[3], Equals, "Do you want to save SPRINGFIELD as US? (y/n): ")

	code, ok := r.CountryCode("springfield")
	c.Assert(ok, Equals, true)
	c.Assert(code, Equals, "US")

	// Overrides persist across sessions once the resolver is closed.
	c.Assert(r.Close(), IsNil)
	next := NewResolver(s.registry, s.prompter, s.options()...)
	country, ok = next.Overrides().Get("SPRINGFIELD")
	c.Assert(ok, Equals, true)
	c.Assert(country, Equals, "US")
}

func (s *ResolverSuite) TestManualCorrectionDeclined(c *C) {
	manualSave := strconv.Itoa(len(testLocations) + 1)
	r := s.resolver(manualSave, "Springfield", "US", "n")

	loc, err := r.Resolve(context.Background(), "IRLAND")
	c.Assert(err, IsNil)
	c.Assert(loc, Equals, "SPRINGFIELD")
	c.Assert(r.Overrides().Len(), Equals, 0)
}

func (s *ResolverSuite) TestFullManualNotSaved(c *C) {
	manual := strconv.Itoa(len(testLocations) + 2)
	r := s.resolver(manual, "atlantis")

	loc, err := r.Resolve(context.Background(), "IRLAND")
	c.Assert(err, IsNil)
	c.Assert(loc, Equals, "ATLANTIS")
	c.Assert(r.Overrides().Len(), Equals, 0)

	_, ok := r.CountryCode(loc)
	c.Assert(ok, Equals, false)
}

func (s *ResolverSuite) TestClearCacheRestarts(c *C) {
	clearCache := strconv.Itoa(len(testLocations) + 3)
	r := s.resolver(clearCache, "1")

	loc, err := r.Resolve(context.Background(), "IRLAND")
	c.Assert(err, IsNil)
	c.Assert(loc, Equals, "IRELAND")
	c.Assert(s.prompter.notices, DeepEquals, []string{"Cache cleared."})

	// The flow started over: menu shown twice, matcher ran twice.
	c.Assert(s.prompter.shown, HasLen, 2)
	c.Assert(s.matcher.calls, Equals, 2)
}

func (s *ResolverSuite) TestClearOverridesRestarts(c *C) {
	clearOverrides := strconv.Itoa(len(testLocations) + 4)
	r := s.resolver(clearOverrides, "1")
	r.Overrides().Set("PARIS", "FR")

	loc, err := r.Resolve(context.Background(), "IRLAND")
	c.Assert(err, IsNil)
	c.Assert(loc, Equals, "IRELAND")
	c.Assert(r.Overrides().Len(), Equals, 0)
	c.Assert(s.prompter.notices, DeepEquals, []string{"User entries have been cleared."})
	c.Assert(s.prompter.shown, HasLen, 2)
}

func (s *ResolverSuite) TestClearAllRestarts(c *C) {
	clearAll := strconv.Itoa(len(testLocations) + 5)
	r := s.resolver(clearAll, "1")
	r.Overrides().Set("PARIS", "FR")

	_, err := r.Resolve(context.Background(), "IRLAND")
	c.Assert(err, IsNil)
	c.Assert(r.Overrides().Len(), Equals, 0)
	c.Assert(s.prompter.notices, DeepEquals, []string{"Cache cleared.", "User entries have been cleared."})
}

func (s *ResolverSuite) TestExit(c *C) {
	exit := strconv.Itoa(len(testLocations) + 6)
	r := s.resolver(exit)

	_, err := r.Resolve(context.Background(), "IRLAND")
	c.Assert(err, Equals, ErrExitRequested)
}

func (s *ResolverSuite) TestEndOfInput(c *C) {
	r := s.resolver()

	_, err := r.Resolve(context.Background(), "IRLAND")
	c.Assert(err, Equals, ErrNoInput)

	manualSave := strconv.Itoa(len(testLocations) + 1)
	r = s.resolver(manualSave, "Springfield")
	_, err = r.Resolve(context.Background(), "IRLAND")
	c.Assert(err, Equals, ErrNoInput)
}

func (s *ResolverSuite) TestNoMatchReturnsQuery(c *C) {
	r := NewResolver(s.registry, s.prompter, append(s.options()[:3], WithScoreCutoff(101))...)

	loc, err := r.Resolve(context.Background(), "Atlantis ")
	c.Assert(err, IsNil)
	c.Assert(loc, Equals, "Atlantis ")
	c.Assert(s.prompter.notices, DeepEquals, []string{"No matches found."})
}

func (s *ResolverSuite) TestCanceledContext(c *C) {
	r := s.resolver("1")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := r.Resolve(ctx, "IRLAND")
	c.Assert(err, Equals, context.Canceled)
	c.Assert(s.matcher.calls, Equals, 0)
}

func (s *ResolverSuite) TestCountryCodeFromOverrideName(c *C) {
	r := s.resolver()
	r.Overrides().Set("LYON", "FRANCE")
	r.Overrides().Set("PRISTINA", "XK")
	r.Overrides().Set("NOWHERE", "NARNIA")

	code, ok := r.CountryCode("Lyon")
	c.Assert(ok, Equals, true)
	c.Assert(code, Equals, "FR")

	code, ok = r.CountryCode("PRISTINA")
	c.Assert(ok, Equals, true)
	c.Assert(code, Equals, "XK")

	_, ok = r.CountryCode("NOWHERE")
	c.Assert(ok, Equals, false)
}
