package formstate

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/goliatone/go-formflow/pkg/model"
	"github.com/goliatone/go-formflow/pkg/validation"
	"github.com/goliatone/go-formflow/pkg/values"
)

// Config controls when the form revalidates.
type Config struct {
	ValidateOnChange bool `json:"validateOnChange" yaml:"validateOnChange" mapstructure:"validate_on_change"`
	ValidateOnBlur   bool `json:"validateOnBlur" yaml:"validateOnBlur" mapstructure:"validate_on_blur"`
}

// DefaultConfig validates on blur only.
func DefaultConfig() Config {
	return Config{ValidateOnBlur: true}
}

// Option customises a Form.
type Option func(*Form)

// WithConfig overrides the revalidation settings.
func WithConfig(cfg Config) Option {
	return func(f *Form) {
		f.cfg = cfg
	}
}

// WithSchema replaces the descriptor rule schema. The schema is kept across
// UpdateFields calls.
func WithSchema(schema validation.Schema) Option {
	return func(f *Form) {
		f.schema = schema
		f.derived = false
	}
}

// WithExtraSchema validates with the descriptor rules and schema combined.
func WithExtraSchema(schema validation.Schema) Option {
	return func(f *Form) {
		f.extra = schema
	}
}

// WithInitialValues seeds the form with values instead of the descriptors'
// initial values, typically the output of values.PatchInitialValues.
func WithInitialValues(initial map[string]any) Option {
	return func(f *Form) {
		f.initial = values.CloneMap(initial)
	}
}

// Form binds a State to its descriptors and schema and serialises access so
// that concurrent handlers of one session can share it.
type Form struct {
	mu      sync.RWMutex
	fields  []model.Field
	schema  validation.Schema
	extra   validation.Schema
	derived bool
	cfg     Config
	initial map[string]any
	state   State
}

// NewForm creates a form for fields. Without WithSchema the descriptor rules
// (validation.Rules) validate the values.
func NewForm(fields []model.Field, opts ...Option) *Form {
	f := &Form{
		fields:  append([]model.Field(nil), fields...),
		derived: true,
		cfg:     DefaultConfig(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(f)
		}
	}
	if f.derived {
		f.schema = validation.Rules(f.fields)
	}
	if f.initial == nil {
		f.initial = values.InitialValues(f.fields)
	}
	f.state = New(f.initial)
	return f
}

// Fields returns a copy of the descriptors.
func (f *Form) Fields() []model.Field {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return append([]model.Field(nil), f.fields...)
}

// Config returns the revalidation settings.
func (f *Form) Config() Config {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.cfg
}

// State returns a snapshot of the current state.
func (f *Form) State() State {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.state.Clone()
}

// Values returns a copy of the current values.
func (f *Form) Values() map[string]any {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return values.CloneMap(f.state.Values)
}

// Errors returns a copy of the current errors.
func (f *Form) Errors() map[string][]string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return cloneErrors(f.state.Errors)
}

// Change sets a value. The form revalidates only when ValidateOnChange is set.
func (f *Form) Change(ctx context.Context, path string, value any) error {
	if strings.TrimSpace(path) == "" {
		return fmt.Errorf("formstate: empty field path")
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	next := f.state.Clone()
	if err := values.Set(next.Values, path, value); err != nil {
		return fmt.Errorf("formstate: set %q: %w", path, err)
	}
	next.Dirty[path] = true
	f.state = next
	if f.cfg.ValidateOnChange {
		f.state = Validate(ctx, f.state, f.schemaLocked())
	}
	return nil
}

// Blur marks a field touched and revalidates when ValidateOnBlur is set.
func (f *Form) Blur(ctx context.Context, path string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.state = SetTouched(f.state, path)
	if f.cfg.ValidateOnBlur {
		f.state = Validate(ctx, f.state, f.schemaLocked())
	}
}

// SetErrors applies a raw backend error object. Nested objects become dotted
// paths; strings and lists of strings become messages.
func (f *Form) SetErrors(raw map[string]any) {
	f.SetFieldErrors(ErrorsFromPayload(raw))
}

// SetFieldErrors replaces the errors with already flattened messages.
func (f *Form) SetFieldErrors(errs map[string][]string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.state = SetErrors(f.state, errs)
}

// Validate runs the schema, stores the result and reports validity.
func (f *Form) Validate(ctx context.Context) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.state = Validate(ctx, f.state, f.schemaLocked())
	return Valid(f.state)
}

// IsValid runs the schema against the current values without storing the
// result.
func (f *Form) IsValid(ctx context.Context) bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	schema := f.schemaLocked()
	if schema == nil {
		return true
	}
	errs := schema.Validate(ctx, f.state.Values)
	return Valid(State{Errors: errs})
}

// MarkSubmitAttempted makes every error visible.
func (f *Form) MarkSubmitAttempted() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.state = MarkSubmitAttempted(f.state)
}

// SetSubmitting toggles the in-flight flag.
func (f *Form) SetSubmitting(submitting bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.state = SetSubmitting(f.state, submitting)
}

// Reinitialize replaces the values, for example when the record being edited
// changes, and clears errors and flags.
func (f *Form) Reinitialize(next map[string]any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.initial = values.CloneMap(next)
	f.state = Reinitialize(f.initial)
}

// Reset restores the values the form was created or last reinitialised with.
func (f *Form) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.state = Reinitialize(f.initial)
}

// UpdateFields swaps the descriptors, for example after new options arrive.
// Values already entered are kept; fields that did not exist before receive
// their initial value.
func (f *Form) UpdateFields(fields []model.Field) {
	f.mu.Lock()
	defer f.mu.Unlock()

	known := make(map[string]struct{}, len(f.fields))
	for _, field := range f.fields {
		known[field.Name] = struct{}{}
	}
	next := f.state.Clone()
	added := values.InitialValues(fields)
	for _, name := range values.SortedKeys(added) {
		if _, exists := known[name]; exists {
			continue
		}
		if _, present := next.Values[name]; present {
			continue
		}
		next.Values[name] = added[name]
		f.initial[name] = values.Clone(added[name])
	}

	f.fields = append([]model.Field(nil), fields...)
	if f.derived {
		f.schema = validation.Rules(f.fields)
	}
	f.state = next
}

func (f *Form) schemaLocked() validation.Schema {
	if f.extra == nil {
		return f.schema
	}
	if f.schema == nil {
		return f.extra
	}
	return validation.All(f.schema, f.extra)
}

// ErrorsFromPayload flattens a backend error object into messages keyed by
// dotted path.
func ErrorsFromPayload(raw map[string]any) map[string][]string {
	out := make(map[string][]string)
	for path, leaf := range values.Flatten(raw) {
		if messages := messagesOf(leaf); len(messages) > 0 {
			out[path] = messages
		}
	}
	return out
}

func messagesOf(value any) []string {
	switch typed := value.(type) {
	case nil:
		return nil
	case string:
		if msg := strings.TrimSpace(typed); msg != "" {
			return []string{msg}
		}
		return nil
	case []string:
		return append([]string(nil), typed...)
	case []any:
		var out []string
		for _, item := range typed {
			out = append(out, messagesOf(item)...)
		}
		return out
	case map[string]any:
		return nil
	default:
		return []string{values.Stringify(typed)}
	}
}
