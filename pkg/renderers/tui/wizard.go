// Package tui drives a form definition interactively on a terminal and
// renders wizard frames as plain text. The Wizard walks a stepper step by
// step, prompting every visible field through a PromptDriver, and returns the
// merged values once the user confirms the summary.
package tui

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/goliatone/go-formflow/pkg/formstate"
	"github.com/goliatone/go-formflow/pkg/model"
	"github.com/goliatone/go-formflow/pkg/options"
	"github.com/goliatone/go-formflow/pkg/render"
	"github.com/goliatone/go-formflow/pkg/stepper"
	"github.com/goliatone/go-formflow/pkg/values"
)

// Wizard prompts the steps of a stepper on a terminal.
type Wizard struct {
	driver    PromptDriver
	format    OutputFormat
	remote    []options.RemoteOption
	transform SubmitTransformer
	theme     Theme
	logger    *zap.Logger
}

// New builds a wizard. Without WithPromptDriver it prompts through survey on
// stdin/stdout.
func New(opts ...Option) *Wizard {
	w := &Wizard{
		format: OutputFormatJSON,
		theme:  defaultTheme(),
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(w)
		}
	}
	if w.driver == nil {
		w.driver = NewSurveyDriver()
	}
	return w
}

// Format returns the configured output format.
func (w *Wizard) Format() OutputFormat {
	return w.format
}

// Run prompts every step until the user confirms the summary and returns the
// collected values. Declining the summary lets the user revise an earlier
// step; declining that too returns ErrCancelled.
func (w *Wizard) Run(ctx context.Context, st *stepper.Stepper) (map[string]any, error) {
	if st == nil {
		return nil, fmt.Errorf("tui: stepper is nil")
	}
	total := st.Len()
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if st.Terminal() {
			done, err := w.confirm(ctx, st)
			if err != nil {
				return nil, err
			}
			if done {
				break
			}
			continue
		}

		idx := st.Current()
		step := st.Active()
		if err := w.info(ctx, fmt.Sprintf("%s Step %d of %d: %s", w.theme.StepPrefix, idx+1, total, step.Label)); err != nil {
			return nil, err
		}
		if step.Form != nil {
			if err := w.promptFields(ctx, step.Form, step.Form.Fields(), ""); err != nil {
				return nil, err
			}
		}

		err := st.Advance(ctx)
		switch {
		case err == nil:
		case errors.Is(err, stepper.ErrStepInvalid):
			if err := w.reportErrors(ctx, step.Form); err != nil {
				return nil, err
			}
		default:
			return nil, err
		}
	}

	collected := st.Collect()
	if w.transform != nil {
		out, err := w.transform(collected)
		if err != nil {
			return nil, fmt.Errorf("tui: transform values: %w", err)
		}
		collected = out
	}
	return collected, nil
}

// confirm prints the summary and asks for confirmation. A false result means
// the stepper moved back to a step the user wants to revise.
func (w *Wizard) confirm(ctx context.Context, st *stepper.Stepper) (bool, error) {
	if err := w.info(ctx, summaryText(render.Summarize(st))); err != nil {
		return false, err
	}
	ok, err := w.driver.Confirm(ctx, ConfirmConfig{Message: "Submit?", Default: true})
	if err != nil {
		return false, err
	}
	if ok {
		return true, nil
	}

	steps := st.Steps()
	choices := make([]string, 0, len(steps)+1)
	for _, step := range steps {
		choices = append(choices, step.Label)
	}
	choices = append(choices, "Cancel")
	idx, err := w.driver.Select(ctx, SelectConfig{Message: "Revise which step?", Options: choices})
	if err != nil {
		return false, err
	}
	if idx < 0 || idx >= len(steps) {
		return false, ErrCancelled
	}
	if err := st.GoTo(idx); err != nil {
		return false, err
	}
	return false, nil
}

func (w *Wizard) promptFields(ctx context.Context, form *formstate.Form, fields []model.Field, prefix string) error {
	for _, field := range fields {
		path := field.Name
		if prefix != "" {
			path = prefix + "." + field.Name
		}
		switch field.UIType {
		case model.UITypeHidden:
			continue
		case model.UITypeGroup:
			if err := w.info(ctx, field.DisplayLabel()); err != nil {
				return err
			}
			if err := w.promptFields(ctx, form, field.Nested, path); err != nil {
				return err
			}
			continue
		}
		if err := w.promptField(ctx, form, field, path); err != nil {
			return err
		}
	}
	return nil
}

// promptField asks until the field has no visible errors.
func (w *Wizard) promptField(ctx context.Context, form *formstate.Form, field model.Field, path string) error {
	for {
		current, _ := values.Get(form.Values(), path)
		value, err := w.ask(ctx, field, current)
		if err != nil {
			var invalid *inputError
			if errors.As(err, &invalid) {
				if err := w.info(ctx, w.theme.ErrorPrefix+" "+invalid.Error()); err != nil {
					return err
				}
				continue
			}
			return err
		}
		if err := form.Change(ctx, path, value); err != nil {
			return err
		}
		form.Blur(ctx, path)
		form.Validate(ctx)
		errs := formstate.VisibleErrors(form.State(), path)
		if len(errs) == 0 {
			return nil
		}
		for _, msg := range errs {
			if err := w.info(ctx, w.theme.ErrorPrefix+" "+msg); err != nil {
				return err
			}
		}
	}
}

type inputError struct {
	msg string
}

func (e *inputError) Error() string { return e.msg }

func (w *Wizard) ask(ctx context.Context, field model.Field, current any) (any, error) {
	label := field.DisplayLabel()
	if field.Required {
		label += " *"
	}
	help := field.HelpText

	switch field.UIType {
	case model.UITypeSwitch:
		on, _ := current.(bool)
		return w.driver.Confirm(ctx, ConfirmConfig{Message: label, Default: on, Help: help})
	case model.UITypePassword:
		return w.driver.Password(ctx, InputConfig{Message: label, Default: values.Stringify(current), Help: help})
	case model.UITypeTextarea:
		return w.driver.TextArea(ctx, TextAreaConfig{Message: label, Default: values.Stringify(current), Help: help})
	case model.UITypeNumber:
		raw, err := w.driver.Input(ctx, InputConfig{Message: label, Default: values.Stringify(current), Help: help})
		if err != nil {
			return nil, err
		}
		return parseNumber(field, raw)
	case model.UITypeSelect, model.UITypeMultiSelect:
		return w.askChoice(ctx, field, label, current)
	}

	raw, err := w.driver.Input(ctx, InputConfig{Message: label, Default: values.Stringify(current), Help: help})
	if err != nil {
		return nil, err
	}
	return values.Coerce(field.EffectiveDataType(), strings.TrimSpace(raw)), nil
}

func (w *Wizard) askChoice(ctx context.Context, field model.Field, label string, current any) (any, error) {
	opts := field.Options
	if source, ok := options.ForField(field, w.remote...); ok {
		fetched, err := source.Options(ctx, "")
		if err != nil {
			w.logger.Warn("load options", zap.String("field", field.Name), zap.Error(err))
			if err := w.info(ctx, w.theme.ErrorPrefix+" could not load options for "+field.DisplayLabel()); err != nil {
				return nil, err
			}
			return w.askChoiceText(ctx, field, label, current)
		}
		opts = fetched
	}
	if len(opts) == 0 {
		return w.askChoiceText(ctx, field, label, current)
	}

	labels := make([]string, len(opts))
	for i, option := range opts {
		labels[i] = option.Label
		if labels[i] == "" {
			labels[i] = option.Value
		}
	}

	if field.UIType == model.UITypeMultiSelect {
		var defaults []int
		for _, item := range listOf(current) {
			if idx := optionIndex(opts, values.Stringify(item)); idx >= 0 {
				defaults = append(defaults, idx)
			}
		}
		picked, err := w.driver.MultiSelect(ctx, SelectConfig{Message: label, Options: labels, Defaults: defaults, Help: field.HelpText})
		if err != nil {
			return nil, err
		}
		out := make([]any, 0, len(picked))
		for _, idx := range picked {
			if idx >= 0 && idx < len(opts) {
				out = append(out, opts[idx].Value)
			}
		}
		return out, nil
	}

	idx, err := w.driver.Select(ctx, SelectConfig{
		Message:      label,
		Options:      labels,
		DefaultIndex: optionIndex(opts, values.Stringify(current)),
		Help:         field.HelpText,
	})
	if err != nil {
		return nil, err
	}
	if idx < 0 || idx >= len(opts) {
		return nil, nil
	}
	return opts[idx].Value, nil
}

// askChoiceText accepts raw option values, comma separated for multi choice.
func (w *Wizard) askChoiceText(ctx context.Context, field model.Field, label string, current any) (any, error) {
	def := values.Stringify(current)
	if field.UIType == model.UITypeMultiSelect {
		parts := make([]string, 0)
		for _, item := range listOf(current) {
			parts = append(parts, values.Stringify(item))
		}
		def = strings.Join(parts, ",")
	}
	raw, err := w.driver.Input(ctx, InputConfig{Message: label, Default: def, Help: field.HelpText})
	if err != nil {
		return nil, err
	}
	raw = strings.TrimSpace(raw)
	if field.UIType != model.UITypeMultiSelect {
		if raw == "" {
			return nil, nil
		}
		return raw, nil
	}
	out := make([]any, 0)
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out, nil
}

func (w *Wizard) reportErrors(ctx context.Context, form *formstate.Form) error {
	if form == nil {
		return nil
	}
	state := form.State()
	for _, path := range formstate.ErrorPaths(state) {
		for _, msg := range formstate.VisibleErrors(state, path) {
			if err := w.info(ctx, w.theme.ErrorPrefix+" "+msg); err != nil {
				return err
			}
		}
	}
	return nil
}

func (w *Wizard) info(ctx context.Context, msg string) error {
	if w.theme.InfoPrefix != "" {
		msg = w.theme.InfoPrefix + " " + msg
	}
	return w.driver.Info(ctx, msg)
}

// parseNumber leaves blank input empty so required rules report it.
func parseNumber(field model.Field, raw string) (any, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	if field.DataType == model.DataTypeInteger {
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, &inputError{msg: fmt.Sprintf("%s must be a whole number", field.DisplayLabel())}
		}
		return n, nil
	}
	n, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, &inputError{msg: fmt.Sprintf("%s must be a number", field.DisplayLabel())}
	}
	return n, nil
}

func optionIndex(opts []model.Option, value string) int {
	for i, option := range opts {
		if option.Value == value {
			return i
		}
	}
	return -1
}

func listOf(value any) []any {
	switch v := value.(type) {
	case []any:
		return v
	case []string:
		out := make([]any, len(v))
		for i, item := range v {
			out[i] = item
		}
		return out
	case nil:
		return nil
	default:
		return []any{v}
	}
}

func summaryText(sections []render.SummarySection) string {
	var b strings.Builder
	b.WriteString("Summary")
	for _, section := range sections {
		b.WriteString("\n\n")
		b.WriteString(section.Label)
		for _, item := range section.Items {
			fmt.Fprintf(&b, "\n  %s: %s", item.Label, item.Value)
		}
	}
	return b.String()
}
