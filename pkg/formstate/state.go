// Package formstate holds the values, errors and interaction flags of one
// form. State is a plain value and every reducer returns a new State without
// touching its input; Form wraps a State for callers that share it.
package formstate

import (
	"context"
	"sort"

	"github.com/goliatone/go-formflow/pkg/validation"
	"github.com/goliatone/go-formflow/pkg/values"
)

// State is a snapshot of one form.
type State struct {
	Values          map[string]any      `json:"values"`
	Errors          map[string][]string `json:"errors,omitempty"`
	Touched         map[string]bool     `json:"touched,omitempty"`
	Dirty           map[string]bool     `json:"dirty,omitempty"`
	SubmitAttempted bool                `json:"submitAttempted,omitempty"`
	Submitting      bool                `json:"submitting,omitempty"`
}

// New returns a state seeded with a copy of initial.
func New(initial map[string]any) State {
	return State{
		Values:  values.CloneMap(initial),
		Errors:  map[string][]string{},
		Touched: map[string]bool{},
		Dirty:   map[string]bool{},
	}
}

// Clone deep copies the state.
func (s State) Clone() State {
	return State{
		Values:          values.CloneMap(s.Values),
		Errors:          cloneErrors(s.Errors),
		Touched:         cloneFlags(s.Touched),
		Dirty:           cloneFlags(s.Dirty),
		SubmitAttempted: s.SubmitAttempted,
		Submitting:      s.Submitting,
	}
}

// SetField writes value at the dotted path and marks it dirty. Invalid paths
// leave the state unchanged.
func SetField(s State, path string, value any) State {
	next := s.Clone()
	if err := values.Set(next.Values, path, value); err != nil {
		return s.Clone()
	}
	next.Dirty[path] = true
	return next
}

// SetTouched marks the field as visited.
func SetTouched(s State, path string) State {
	next := s.Clone()
	next.Touched[path] = true
	return next
}

// SetErrors replaces all errors.
func SetErrors(s State, errs map[string][]string) State {
	next := s.Clone()
	next.Errors = cloneErrors(errs)
	return next
}

// Validate replaces the errors with the schema result. A nil schema clears
// them.
func Validate(ctx context.Context, s State, schema validation.Schema) State {
	var errs map[string][]string
	if schema != nil {
		errs = schema.Validate(ctx, s.Values)
	}
	return SetErrors(s, errs)
}

// MarkSubmitAttempted flags that the user tried to leave or submit the form,
// which makes every error visible.
func MarkSubmitAttempted(s State) State {
	next := s.Clone()
	next.SubmitAttempted = true
	return next
}

// SetSubmitting toggles the in-flight flag.
func SetSubmitting(s State, submitting bool) State {
	next := s.Clone()
	next.Submitting = submitting
	return next
}

// Reinitialize replaces the values and clears every flag and error. Values
// are replaced, not merged.
func Reinitialize(values map[string]any) State {
	return New(values)
}

// Valid reports whether the state carries no errors.
func Valid(s State) bool {
	for _, messages := range s.Errors {
		if len(messages) > 0 {
			return false
		}
	}
	return true
}

// VisibleErrors returns the errors for a path only once the field was touched
// or a submission was attempted.
func VisibleErrors(s State, path string) []string {
	if !s.Touched[path] && !s.SubmitAttempted {
		return nil
	}
	return s.Errors[path]
}

// ErrorPaths lists the paths that carry errors, sorted.
func ErrorPaths(s State) []string {
	out := make([]string, 0, len(s.Errors))
	for path, messages := range s.Errors {
		if len(messages) > 0 {
			out = append(out, path)
		}
	}
	sort.Strings(out)
	return out
}

func cloneErrors(src map[string][]string) map[string][]string {
	out := make(map[string][]string, len(src))
	for k, v := range src {
		out[k] = append([]string(nil), v...)
	}
	return out
}

func cloneFlags(src map[string]bool) map[string]bool {
	out := make(map[string]bool, len(src))
	for k, v := range src {
		out[k] = v
	}
	return out
}
