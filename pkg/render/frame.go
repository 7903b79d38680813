package render

import (
	"context"
	"strings"

	"github.com/goliatone/go-formflow/pkg/formstate"
	"github.com/goliatone/go-formflow/pkg/model"
	"github.com/goliatone/go-formflow/pkg/stepper"
	"github.com/goliatone/go-formflow/pkg/values"
)

// ToastLevel classifies a transient page notification.
type ToastLevel string

const (
	ToastInfo    ToastLevel = "info"
	ToastSuccess ToastLevel = "success"
	ToastError   ToastLevel = "error"
)

// Toast is a transient page-level message, used for network failures and
// submission outcomes.
type Toast struct {
	Level   ToastLevel `json:"level"`
	Message string     `json:"message"`
}

// StepTab describes one entry of the stepper header.
type StepTab struct {
	Index    int    `json:"index"`
	ID       string `json:"id"`
	Label    string `json:"label"`
	Active   bool   `json:"active"`
	Complete bool   `json:"complete"`
	HasError bool   `json:"hasError"`
}

// SummaryItem is one read-only value shown on the terminal step.
type SummaryItem struct {
	Path  string `json:"path"`
	Label string `json:"label"`
	Value string `json:"value"`
}

// SummarySection groups the summary items of one step.
type SummarySection struct {
	StepID string        `json:"stepId"`
	Label  string        `json:"label"`
	Items  []SummaryItem `json:"items"`
}

// Frame snapshots everything a renderer needs to draw one stepper position.
type Frame struct {
	FormID      string            `json:"formId"`
	Title       string            `json:"title"`
	Action      string            `json:"action"`
	NavBase     string            `json:"navBase,omitempty"`
	Method      string            `json:"method"`
	SubmitLabel string            `json:"submitLabel"`
	Steps       []StepTab         `json:"steps"`
	Active      int               `json:"active"`
	Terminal    bool              `json:"terminal"`
	CanAdvance  bool              `json:"canAdvance"`
	Fields      model.Fields      `json:"fields"`
	State       formstate.State   `json:"state"`
	Summary     []SummarySection  `json:"summary,omitempty"`
	NonField    []string          `json:"nonFieldErrors,omitempty"`
	Toast       *Toast            `json:"toast,omitempty"`
	Hidden      map[string]string `json:"hidden,omitempty"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

// FrameOption customises a frame built by FromStepper.
type FrameOption func(*Frame)

// WithFormID sets the identifier used for element ids and session routes.
func WithFormID(id string) FrameOption {
	return func(f *Frame) {
		f.FormID = strings.TrimSpace(id)
	}
}

// WithTitle sets the page heading.
func WithTitle(title string) FrameOption {
	return func(f *Frame) {
		f.Title = title
	}
}

// WithAction sets the endpoint and method forms post to.
func WithAction(method, action string) FrameOption {
	return func(f *Frame) {
		f.Method = strings.ToUpper(strings.TrimSpace(method))
		f.Action = action
	}
}

// WithNavigation makes Back, Next and Submit post to base+"/back",
// base+"/next" and base+"/submit".
func WithNavigation(base string) FrameOption {
	return func(f *Frame) {
		f.NavBase = strings.TrimRight(strings.TrimSpace(base), "/")
	}
}

// WithSubmitLabel overrides the terminal step button text.
func WithSubmitLabel(label string) FrameOption {
	return func(f *Frame) {
		if label = strings.TrimSpace(label); label != "" {
			f.SubmitLabel = label
		}
	}
}

// WithNonFieldErrors attaches messages that belong to no field.
func WithNonFieldErrors(messages ...string) FrameOption {
	return func(f *Frame) {
		for _, msg := range messages {
			if msg = strings.TrimSpace(msg); msg != "" {
				f.NonField = append(f.NonField, msg)
			}
		}
	}
}

// WithToast attaches a transient notification. Empty messages are ignored.
func WithToast(level ToastLevel, message string) FrameOption {
	return func(f *Frame) {
		if strings.TrimSpace(message) == "" {
			f.Toast = nil
			return
		}
		if level == "" {
			level = ToastInfo
		}
		f.Toast = &Toast{Level: level, Message: message}
	}
}

// WithHiddenFields merges extra hidden inputs into the frame.
func WithHiddenFields(fields ...HiddenField) FrameOption {
	return func(f *Frame) {
		f.Hidden = MergeHiddenFields(f.Hidden, fields...)
	}
}

// WithMetadata copies translation keys and other renderer hints.
func WithMetadata(metadata map[string]string) FrameOption {
	return func(f *Frame) {
		if len(metadata) == 0 {
			return
		}
		if f.Metadata == nil {
			f.Metadata = make(map[string]string, len(metadata))
		}
		for key, value := range metadata {
			f.Metadata[key] = value
		}
	}
}

// FromStepper snapshots the stepper's current position. With zero steps the
// frame is terminal with no fields and an empty summary.
func FromStepper(ctx context.Context, s *stepper.Stepper, opts ...FrameOption) Frame {
	frame := Frame{SubmitLabel: "Submit", Method: "POST"}
	if s != nil {
		current := s.Current()
		flags := s.ErrorFlags()
		for idx, step := range s.Steps() {
			frame.Steps = append(frame.Steps, StepTab{
				Index:    idx,
				ID:       step.ID,
				Label:    step.Label,
				Active:   idx == current,
				Complete: idx < current,
				HasError: idx < len(flags) && flags[idx],
			})
		}
		frame.Active = current
		frame.Terminal = s.Terminal()
		if active := s.Active(); active != nil && active.Form != nil {
			frame.Fields = model.Fields(active.Form.Fields())
			frame.State = active.Form.State()
			frame.CanAdvance = s.CanAdvance(ctx)
		}
		if frame.Terminal {
			frame.Summary = Summarize(s)
		}
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&frame)
		}
	}
	return frame
}

// Summarize lists the display value of every visible field, grouped by step.
func Summarize(s *stepper.Stepper) []SummarySection {
	if s == nil {
		return nil
	}
	var out []SummarySection
	for _, step := range s.Steps() {
		section := SummarySection{StepID: step.ID, Label: step.Label}
		if step.Form == nil {
			out = append(out, section)
			continue
		}
		summarizeFields(step.Form.Fields(), step.Form.Values(), "", &section.Items)
		out = append(out, section)
	}
	return out
}

func summarizeFields(fields []model.Field, tree map[string]any, prefix string, out *[]SummaryItem) {
	for _, field := range fields {
		path := field.Name
		if prefix != "" {
			path = prefix + "." + field.Name
		}
		switch field.UIType {
		case model.UITypeHidden:
			continue
		case model.UITypeGroup:
			summarizeFields(field.Nested, tree, path, out)
			continue
		}
		value, _ := values.Get(tree, path)
		*out = append(*out, SummaryItem{
			Path:  path,
			Label: field.DisplayLabel(),
			Value: DisplayValue(field, value),
		})
	}
}

// DisplayValue formats a field value for read-only display. Choice values
// show their option label and secrets are masked.
func DisplayValue(field model.Field, value any) string {
	if value == nil {
		return "-"
	}
	switch field.UIType {
	case model.UITypePassword:
		if values.Stringify(value) == "" {
			return "-"
		}
		return "********"
	case model.UITypeSwitch:
		if on, ok := value.(bool); ok {
			if on {
				return "Yes"
			}
			return "No"
		}
	case model.UITypeSelect:
		return orDash(optionLabel(field.Options, values.Stringify(value)))
	case model.UITypeMultiSelect:
		var labels []string
		for _, item := range toList(value) {
			labels = append(labels, optionLabel(field.Options, values.Stringify(item)))
		}
		return orDash(strings.Join(labels, ", "))
	}
	return orDash(values.Stringify(value))
}

func optionLabel(options []model.Option, value string) string {
	for _, option := range options {
		if option.Value == value {
			return option.Label
		}
	}
	return value
}

func toList(value any) []any {
	switch v := value.(type) {
	case []any:
		return v
	case []string:
		out := make([]any, 0, len(v))
		for _, item := range v {
			out = append(out, item)
		}
		return out
	case nil:
		return nil
	default:
		return []any{v}
	}
}

func orDash(value string) string {
	if strings.TrimSpace(value) == "" {
		return "-"
	}
	return value
}
