package components

import (
	"strings"

	"github.com/goliatone/go-formflow/pkg/model"
)

// Field is the render-ready view of one descriptor: its dotted path, current
// value and visible errors resolved from form state.
type Field struct {
	Descriptor  model.Field
	Path        string
	ID          string
	Label       string
	InputType   string
	Value       string
	Checked     bool
	Options     []Option
	Placeholder string
	Required    bool
	Errors      []string
	HelpHTML    string
	SearchURL   string
	NumberStep  string
}

// Option is a choice entry with its selection state.
type Option struct {
	Label    string
	Value    string
	Selected bool
}

// Invalid reports whether visible errors exist.
func (f Field) Invalid() bool {
	return len(f.Errors) > 0
}

// ErrorID is the id of the element listing the field's errors.
func (f Field) ErrorID() string {
	return f.ID + "-error"
}

// HelpID is the id of the help text element.
func (f Field) HelpID() string {
	return f.ID + "-help"
}

// DescribedBy joins the ids of the help and error elements.
func (f Field) DescribedBy() string {
	var ids []string
	if f.HelpHTML != "" {
		ids = append(ids, f.HelpID())
	}
	if f.Invalid() {
		ids = append(ids, f.ErrorID())
	}
	return strings.Join(ids, " ")
}

// TemplateData flattens the view into the map handed to component templates.
func (f Field) TemplateData() map[string]any {
	options := make([]any, 0, len(f.Options))
	for _, option := range f.Options {
		options = append(options, map[string]any{
			"label":    option.Label,
			"value":    option.Value,
			"selected": option.Selected,
		})
	}
	errs := make([]any, 0, len(f.Errors))
	for _, msg := range f.Errors {
		errs = append(errs, msg)
	}
	return map[string]any{
		"name":         f.Path,
		"id":           f.ID,
		"label":        f.Label,
		"input_type":   f.InputType,
		"value":        f.Value,
		"checked":      f.Checked,
		"options":      options,
		"placeholder":  f.Placeholder,
		"required":     f.Required,
		"errors":       errs,
		"invalid":      f.Invalid(),
		"described_by": f.DescribedBy(),
		"search_url":   f.SearchURL,
		"number_step":  f.NumberStep,
		"ui_type":      string(f.Descriptor.UIType),
	}
}
