// Package search turns a noisy sequence of search terms into debounced,
// de-duplicated hero queries and delivers only the newest query's result.
//
// Stream is a Bubble Tea component: all of its state changes happen inside
// Update, and timers and queries run as commands whose results come back as
// messages. Run drives a Stream from a channel for non-TUI callers.
package search

import (
	"context"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/runger/heroes/internal/hero"
)

// DefaultQuietPeriod is how long the term must stay unchanged before a query
// is issued.
const DefaultQuietPeriod = 300 * time.Millisecond

// Searcher runs a query. It must not fail; the request gateway's
// SearchHeroes satisfies it.
type Searcher interface {
	SearchHeroes(ctx context.Context, term string) []hero.Hero
}

// SearcherFunc adapts a function to Searcher.
type SearcherFunc func(ctx context.Context, term string) []hero.Hero

func (f SearcherFunc) SearchHeroes(ctx context.Context, term string) []hero.Hero {
	return f(ctx, term)
}

// State is the stream's position in its debounce/query cycle.
type State int

const (
	StateIdle       State = iota // No term pending
	StateDebouncing              // Waiting out the quiet period
	StateQuerying                // Query for the current generation in flight
	StateDelivered               // Current generation's result emitted
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateDebouncing:
		return "debouncing"
	case StateQuerying:
		return "querying"
	case StateDelivered:
		return "delivered"
	default:
		return "unknown"
	}
}

// TermMsg submits a raw search term.
type TermMsg string

// ResultsMsg is emitted once per accepted term, in generation order.
type ResultsMsg struct {
	Generation uint64
	Term       string
	Heroes     []hero.Hero
}

// debounceMsg fires when a quiet period ends.
type debounceMsg struct {
	id uint64 // Must match debounceID to be accepted
}

// queryDoneMsg carries a finished query back into the stream.
type queryDoneMsg struct {
	generation uint64
	term       string
	heroes     []hero.Hero
}

// Option configures a Stream.
type Option func(*Stream)

// WithQuietPeriod sets the debounce interval. Non-positive values keep the
// default.
func WithQuietPeriod(d time.Duration) Option {
	return func(s *Stream) {
		if d > 0 {
			s.quiet = d
		}
	}
}

// WithContext sets the context passed to the searcher.
func WithContext(ctx context.Context) Option {
	return func(s *Stream) {
		if ctx != nil {
			s.ctx = ctx
		}
	}
}

// Stream is the debounce, distinct-until-changed and switch-to-latest
// pipeline. The zero value is not usable; call New.
type Stream struct {
	searcher Searcher
	ctx      context.Context
	quiet    time.Duration

	state   State
	pending string // Term waiting out the quiet period

	// debounceID tracks the latest quiet-period timer; only a matching
	// debounceMsg is acted on.
	debounceID uint64

	// generation advances once per accepted term. Query results carrying
	// an older generation are dropped.
	generation uint64

	delivered   uint64 // Generation of the last delivered result
	accepted    bool   // Whether any term has been accepted yet
	lastTerm    string // Last accepted term, for duplicate suppression
	results     []hero.Hero
	resultsTerm string
}

// New creates a Stream that queries searcher.
func New(searcher Searcher, opts ...Option) Stream {
	s := Stream{
		searcher: searcher,
		ctx:      context.Background(),
		quiet:    DefaultQuietPeriod,
		state:    StateIdle,
	}
	for _, opt := range opts {
		opt(&s)
	}
	return s
}

// State returns the current state.
func (s Stream) State() State { return s.state }

// Generation returns the number of accepted terms so far.
func (s Stream) Generation() uint64 { return s.generation }

// QuietPeriod returns the debounce interval.
func (s Stream) QuietPeriod() time.Duration { return s.quiet }

// Results returns the last delivered heroes and the term they answer.
func (s Stream) Results() ([]hero.Hero, string) { return s.results, s.resultsTerm }

// Pending reports whether a term or the current generation's result is still
// outstanding.
func (s Stream) Pending() bool {
	return s.state == StateDebouncing || s.delivered != s.generation
}

// Submit is shorthand for Update(TermMsg(term)).
func (s Stream) Submit(term string) (Stream, tea.Cmd) {
	return s.Update(TermMsg(term))
}

// Update handles stream messages. Messages it does not own are ignored.
func (s Stream) Update(msg tea.Msg) (Stream, tea.Cmd) {
	switch msg := msg.(type) {
	case TermMsg:
		return s.handleTerm(string(msg))
	case debounceMsg:
		return s.handleDebounce(msg)
	case queryDoneMsg:
		return s.handleQueryDone(msg)
	}
	return s, nil
}

// handleTerm restarts the quiet period for term. An in-flight query is left
// running; a later acceptance makes its result stale.
func (s Stream) handleTerm(term string) (Stream, tea.Cmd) {
	s.pending = term
	s.state = StateDebouncing
	return s, s.startDebounce()
}

// handleDebounce accepts the pending term if the timer is still current and
// the term differs from the last accepted one.
func (s Stream) handleDebounce(msg debounceMsg) (Stream, tea.Cmd) {
	if msg.id != s.debounceID || s.state != StateDebouncing {
		return s, nil // Stale timer; ignore.
	}

	term := s.pending
	if s.accepted && term == s.lastTerm {
		s.state = StateIdle
		return s, nil
	}

	s.accepted = true
	s.lastTerm = term
	s.generation++

	if strings.TrimSpace(term) == "" {
		s.state = StateDelivered
		return s.deliver(s.generation, term, []hero.Hero{})
	}
	return s, s.startQuery(term)
}

// handleQueryDone delivers a result for the current generation and drops
// anything older.
func (s Stream) handleQueryDone(msg queryDoneMsg) (Stream, tea.Cmd) {
	if msg.generation != s.generation {
		return s, nil
	}
	// A term submitted after this query started keeps the stream debouncing.
	if s.state != StateDebouncing {
		s.state = StateDelivered
	}
	return s.deliver(msg.generation, msg.term, msg.heroes)
}

func (s Stream) deliver(generation uint64, term string, heroes []hero.Hero) (Stream, tea.Cmd) {
	if heroes == nil {
		heroes = []hero.Hero{}
	}
	s.delivered = generation
	s.results = heroes
	s.resultsTerm = term
	out := ResultsMsg{Generation: generation, Term: term, Heroes: heroes}
	return s, func() tea.Msg { return out }
}

// startDebounce increments the debounce counter and returns a tea.Tick
// command that fires after the quiet period.
func (s *Stream) startDebounce() tea.Cmd {
	s.debounceID++
	id := s.debounceID
	return tea.Tick(s.quiet, func(time.Time) tea.Msg {
		return debounceMsg{id: id}
	})
}

// startQuery returns a command that runs the search for the current
// generation.
func (s *Stream) startQuery(term string) tea.Cmd {
	s.state = StateQuerying
	gen := s.generation
	ctx := s.ctx
	searcher := s.searcher
	return func() tea.Msg {
		return queryDoneMsg{
			generation: gen,
			term:       term,
			heroes:     searcher.SearchHeroes(ctx, term),
		}
	}
}
