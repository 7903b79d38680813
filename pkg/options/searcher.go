package options

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/goliatone/go-formflow/pkg/model"
)

var (
	// ErrStale is returned when a newer search superseded the call. Its
	// result was discarded.
	ErrStale = errors.New("options: search superseded by a newer query")
	// ErrClosed is returned after the searcher was closed.
	ErrClosed = errors.New("options: searcher closed")
)

// Outcome classifies a finished search.
type Outcome string

const (
	OutcomeOK     Outcome = "ok"
	OutcomeError  Outcome = "error"
	OutcomeStale  Outcome = "stale"
	OutcomeClosed Outcome = "closed"
)

// Hook observes finished searches.
type Hook func(field string, outcome Outcome, elapsed time.Duration)

// Searcher runs typeahead searches for one field. Every call gets a sequence
// number and cancels the previous in-flight call; only the latest call's
// result is delivered, so a slow response can never overwrite a newer one.
type Searcher struct {
	field  string
	source Source
	hook   Hook

	mu      sync.Mutex
	seq     uint64
	cancel  context.CancelFunc
	closed  bool
	latest  []model.Option
	lastSeq uint64
}

// NewSearcher wraps source for field. hook may be nil.
func NewSearcher(field string, source Source, hook Hook) *Searcher {
	return &Searcher{field: field, source: source, hook: hook}
}

// Search queries the source. It returns ErrStale when a newer Search started
// before this one finished and ErrClosed once the searcher is closed.
func (s *Searcher) Search(ctx context.Context, query string) ([]model.Option, error) {
	started := time.Now()
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		s.observe(OutcomeClosed, started)
		return nil, ErrClosed
	}
	if s.cancel != nil {
		s.cancel()
	}
	s.seq++
	seq := s.seq
	callCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.mu.Unlock()

	opts, err := s.source.Options(callCtx, query)

	s.mu.Lock()
	defer s.mu.Unlock()
	cancel()
	switch {
	case s.closed:
		s.observe(OutcomeClosed, started)
		return nil, ErrClosed
	case seq != s.seq:
		s.observe(OutcomeStale, started)
		return nil, ErrStale
	}
	s.cancel = nil
	if err != nil {
		s.observe(OutcomeError, started)
		return nil, fmt.Errorf("options: search %q: %w", s.field, err)
	}
	s.latest = append([]model.Option(nil), opts...)
	s.lastSeq = seq
	s.observe(OutcomeOK, started)
	return opts, nil
}

// Latest returns the most recently delivered options and their sequence
// number.
func (s *Searcher) Latest() ([]model.Option, uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.Option(nil), s.latest...), s.lastSeq
}

// Close cancels the in-flight search and rejects further calls.
func (s *Searcher) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
}

func (s *Searcher) observe(outcome Outcome, started time.Time) {
	if s.hook != nil {
		s.hook(s.field, outcome, time.Since(started))
	}
}

// Group holds the searchers of one step or session.
type Group struct {
	mu        sync.Mutex
	hook      Hook
	searchers map[string]*Searcher
	closed    bool
}

// NewGroup returns an empty group.
func NewGroup(hook Hook) *Group {
	return &Group{hook: hook, searchers: make(map[string]*Searcher)}
}

// Add registers source under field, replacing and closing any previous
// searcher for that field.
func (g *Group) Add(field string, source Source) *Searcher {
	g.mu.Lock()
	defer g.mu.Unlock()
	searcher := NewSearcher(field, source, g.hook)
	if g.closed {
		searcher.Close()
		return searcher
	}
	if previous, ok := g.searchers[field]; ok {
		previous.Close()
	}
	g.searchers[field] = searcher
	return searcher
}

// Get returns the searcher for field.
func (g *Group) Get(field string) (*Searcher, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	searcher, ok := g.searchers[field]
	return searcher, ok
}

// Search runs a search for field.
func (g *Group) Search(ctx context.Context, field, query string) ([]model.Option, error) {
	searcher, ok := g.Get(field)
	if !ok {
		return nil, fmt.Errorf("options: no source for field %q", field)
	}
	return searcher.Search(ctx, query)
}

// Close closes every searcher.
func (g *Group) Close() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.closed = true
	for _, searcher := range g.searchers {
		searcher.Close()
	}
}
