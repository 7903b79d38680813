// Package stepper sequences the steps of a wizard. The active index ranges
// over [0, N]; N is the terminal pseudo-step where every step is shown inert
// and submission is left to the caller. Advancing is gated on the active
// step's validity, retreating never clears values.
package stepper

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/goliatone/go-formflow/pkg/errmap"
	"github.com/goliatone/go-formflow/pkg/formstate"
	"github.com/goliatone/go-formflow/pkg/values"
)

var (
	// ErrStepInvalid is returned by Advance when the active step fails
	// validation.
	ErrStepInvalid = errors.New("stepper: active step is invalid")
	// ErrAtEnd is returned by Advance at the terminal step.
	ErrAtEnd = errors.New("stepper: already at the terminal step")
	// ErrAtStart is returned by Retreat at the first step.
	ErrAtStart = errors.New("stepper: already at the first step")
	// ErrStepRange flags an index outside the configured steps.
	ErrStepRange = errors.New("stepper: step index out of range")
)

// Step is one page of the wizard bound to its own form.
type Step struct {
	ID       string
	Label    string
	Form     *formstate.Form
	HasError bool

	closers []func()
}

// OnClose registers fn to run when the owning stepper is closed, typically to
// cancel option searches started for this step.
func (s *Step) OnClose(fn func()) {
	if s == nil || fn == nil {
		return
	}
	s.closers = append(s.closers, fn)
}

// Transition describes a change of the active index.
type Transition struct {
	From int
	To   int
}

// Option customises a Stepper.
type Option func(*Stepper)

// WithLogger attaches a logger; the default discards output.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Stepper) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithObserver registers a callback invoked after every transition.
func WithObserver(fn func(Transition)) Option {
	return func(s *Stepper) {
		if fn != nil {
			s.observers = append(s.observers, fn)
		}
	}
}

// Stepper owns the steps of one wizard session.
type Stepper struct {
	mu        sync.RWMutex
	steps     []*Step
	current   int
	closed    bool
	logger    *zap.Logger
	observers []func(Transition)
}

// New returns a stepper positioned on the first step. Nil steps are skipped.
func New(steps []*Step, opts ...Option) *Stepper {
	s := &Stepper{logger: zap.NewNop()}
	for _, step := range steps {
		if step != nil {
			s.steps = append(s.steps, step)
		}
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// Len returns the number of configured steps.
func (s *Stepper) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.steps)
}

// Steps returns the configured steps in order.
func (s *Stepper) Steps() []*Step {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]*Step(nil), s.steps...)
}

// Step returns the step at idx.
func (s *Stepper) Step(idx int) (*Step, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if idx < 0 || idx >= len(s.steps) {
		return nil, fmt.Errorf("%w: %d", ErrStepRange, idx)
	}
	return s.steps[idx], nil
}

// Current returns the active index in [0, Len()].
func (s *Stepper) Current() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Terminal reports whether the wizard reached the ready-to-submit state. A
// stepper without steps is always terminal.
func (s *Stepper) Terminal() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current >= len(s.steps)
}

// Active returns the active step, or nil at the terminal state.
func (s *Stepper) Active() *Step {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current >= len(s.steps) {
		return nil
	}
	return s.steps[s.current]
}

// CanAdvance reports whether the active step is valid. It does not store
// validation errors.
func (s *Stepper) CanAdvance(ctx context.Context) bool {
	active := s.Active()
	if active == nil {
		return false
	}
	if active.Form == nil {
		return true
	}
	return active.Form.IsValid(ctx)
}

// Advance validates the active step and moves forward. On failure the step
// keeps its position, its errors become visible and its error flag is set.
func (s *Stepper) Advance(ctx context.Context) error {
	s.mu.Lock()
	if s.current >= len(s.steps) {
		s.mu.Unlock()
		return ErrAtEnd
	}
	from := s.current
	step := s.steps[from]
	s.mu.Unlock()

	if step.Form != nil && !step.Form.Validate(ctx) {
		step.Form.MarkSubmitAttempted()
		s.mu.Lock()
		step.HasError = true
		s.mu.Unlock()
		s.logger.Debug("step invalid", zap.String("step", step.ID), zap.Strings("paths", formstate.ErrorPaths(step.Form.State())))
		return ErrStepInvalid
	}

	s.mu.Lock()
	// Another caller may have moved the cursor while this step validated.
	if s.current != from {
		atEnd := s.current >= len(s.steps)
		s.mu.Unlock()
		if atEnd {
			return ErrAtEnd
		}
		return ErrStepInvalid
	}
	step.HasError = false
	s.current++
	to := s.current
	s.mu.Unlock()

	s.notify(Transition{From: from, To: to})
	return nil
}

// Retreat moves one step back, keeping every entered value.
func (s *Stepper) Retreat() error {
	s.mu.Lock()
	if s.current == 0 {
		s.mu.Unlock()
		return ErrAtStart
	}
	from := s.current
	s.current--
	to := s.current
	s.mu.Unlock()

	s.notify(Transition{From: from, To: to})
	return nil
}

// GoTo jumps back to an earlier step, for example the first step that
// received backend errors. Jumping forward is not allowed because it would
// skip validation.
func (s *Stepper) GoTo(idx int) error {
	s.mu.Lock()
	if idx < 0 || idx > len(s.steps) {
		s.mu.Unlock()
		return fmt.Errorf("%w: %d", ErrStepRange, idx)
	}
	if idx > s.current {
		s.mu.Unlock()
		return fmt.Errorf("stepper: cannot jump forward from %d to %d", s.current, idx)
	}
	from := s.current
	s.current = idx
	s.mu.Unlock()

	if from != idx {
		s.notify(Transition{From: from, To: idx})
	}
	return nil
}

// Collect deep merges the values of every step in order.
func (s *Stepper) Collect() map[string]any {
	steps := s.Steps()
	partials := make([]map[string]any, 0, len(steps))
	for _, step := range steps {
		if step.Form == nil {
			continue
		}
		partials = append(partials, step.Form.Values())
	}
	return values.DeepMerge(partials...)
}

// SetStepError sets the error indicator of one step.
func (s *Stepper) SetStepError(idx int, hasError bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if idx < 0 || idx >= len(s.steps) {
		return fmt.Errorf("%w: %d", ErrStepRange, idx)
	}
	s.steps[idx].HasError = hasError
	return nil
}

// ErrorFlags returns the error indicator of every step.
func (s *Stepper) ErrorFlags() []bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]bool, len(s.steps))
	for idx, step := range s.steps {
		out[idx] = step.HasError
	}
	return out
}

// ApplyRouting stores routed backend errors on the owning steps, updates the
// error flags and returns the non-field messages.
func (s *Stepper) ApplyRouting(routing errmap.Routing) []string {
	steps := s.Steps()
	for idx, step := range steps {
		var errs map[string][]string
		if idx < len(routing.Steps) {
			errs = routing.Steps[idx]
		}
		flagged := idx < len(routing.Flags) && routing.Flags[idx]
		if step.Form != nil && errs != nil {
			step.Form.SetFieldErrors(errs)
			step.Form.MarkSubmitAttempted()
		}
		if err := s.SetStepError(idx, flagged); err != nil {
			s.logger.Warn("apply routing", zap.Error(err))
		}
	}
	return routing.NonField
}

// Reset returns to the first step, restores every form and clears the error
// flags.
func (s *Stepper) Reset() {
	s.mu.Lock()
	from := s.current
	s.current = 0
	for _, step := range s.steps {
		step.HasError = false
		if step.Form != nil {
			step.Form.Reset()
		}
	}
	s.mu.Unlock()

	if from != 0 {
		s.notify(Transition{From: from, To: 0})
	}
}

// Close runs the close hooks of every step once.
func (s *Stepper) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	steps := append([]*Step(nil), s.steps...)
	s.mu.Unlock()

	for _, step := range steps {
		for _, fn := range step.closers {
			fn()
		}
	}
}

func (s *Stepper) notify(t Transition) {
	s.logger.Debug("step transition", zap.Int("from", t.From), zap.Int("to", t.To))
	for _, fn := range s.observers {
		fn(t)
	}
}
