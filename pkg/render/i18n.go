package render

import (
	"errors"
	"strings"

	"github.com/goliatone/go-formflow/pkg/model"
)

const (
	frameTitleKey  = "titleKey"
	frameSubmitKey = "submitLabelKey"
	stepKeyPrefix  = "steps."
	stepKeySuffix  = ".labelKey"

	fieldLabelKey       = "labelKey"
	fieldPlaceholderKey = "placeholderKey"
	fieldHelpTextKey    = "helpTextKey"
)

// Translator resolves a message key for a locale.
type Translator interface {
	Translate(locale, key string, args ...any) (string, error)
}

// MissingTranslationHandler returns the text used when key has no translation.
// args carries a map with the "default" fallback when one exists.
type MissingTranslationHandler func(locale, key string, args []any, err error) string

// ErrMissingTranslator is passed to MissingTranslationHandler when a key is
// configured but no translator was supplied.
var ErrMissingTranslator = errors.New("render: translator not configured")

func missingTranslationDefault(_ string, key string, args []any, _ error) string {
	for _, arg := range args {
		if params, ok := arg.(map[string]any); ok {
			if fallback, ok := params["default"].(string); ok && strings.TrimSpace(fallback) != "" {
				return fallback
			}
		}
	}
	return key
}

// LocalizeFrame translates the frame title, submit label, step labels and
// field texts that carry *Key metadata. Descriptors are copied before they are
// rewritten so forms never observe translated labels.
//
// Frame metadata keys: titleKey, submitLabelKey, steps.<id>.labelKey. Field
// metadata keys: labelKey, placeholderKey, helpTextKey.
func LocalizeFrame(frame *Frame, opts RenderOptions) {
	if frame == nil {
		return
	}
	onMissing := opts.OnMissing
	if onMissing == nil {
		onMissing = missingTranslationDefault
	}
	locale := opts.Locale

	if key := frame.Metadata[frameTitleKey]; key != "" {
		frame.Title = translate(locale, key, frame.Title, opts.Translator, onMissing)
	}
	if key := frame.Metadata[frameSubmitKey]; key != "" {
		frame.SubmitLabel = translate(locale, key, frame.SubmitLabel, opts.Translator, onMissing)
	}

	steps := make([]StepTab, len(frame.Steps))
	copy(steps, frame.Steps)
	for i := range steps {
		if key := frame.Metadata[stepKeyPrefix+steps[i].ID+stepKeySuffix]; key != "" {
			steps[i].Label = translate(locale, key, steps[i].Label, opts.Translator, onMissing)
		}
	}
	if len(steps) > 0 {
		frame.Steps = steps
	}

	frame.Fields = localizeFields(frame.Fields, locale, opts.Translator, onMissing)

	summary := make([]SummarySection, len(frame.Summary))
	copy(summary, frame.Summary)
	for i := range summary {
		if key := frame.Metadata[stepKeyPrefix+summary[i].StepID+stepKeySuffix]; key != "" {
			summary[i].Label = translate(locale, key, summary[i].Label, opts.Translator, onMissing)
		}
	}
	if len(summary) > 0 {
		frame.Summary = summary
	}
}

func localizeFields(fields model.Fields, locale string, t Translator, onMissing MissingTranslationHandler) model.Fields {
	if len(fields) == 0 {
		return fields
	}
	out := make(model.Fields, len(fields))
	for i, field := range fields {
		out[i] = localizeField(field, locale, t, onMissing)
	}
	return out
}

func localizeField(field model.Field, locale string, t Translator, onMissing MissingTranslationHandler) model.Field {
	if key := strings.TrimSpace(field.Metadata[fieldLabelKey]); key != "" {
		field.Label = translate(locale, key, field.DisplayLabel(), t, onMissing)
	}
	if key := strings.TrimSpace(field.Metadata[fieldPlaceholderKey]); key != "" {
		field.Placeholder = translate(locale, key, strings.TrimSpace(field.Placeholder), t, onMissing)
	}
	if key := strings.TrimSpace(field.Metadata[fieldHelpTextKey]); key != "" {
		field.HelpText = translate(locale, key, strings.TrimSpace(field.HelpText), t, onMissing)
	}
	if len(field.Nested) > 0 {
		field.Nested = localizeFields(field.Nested, locale, t, onMissing)
	}
	return field
}

func translate(locale, key, fallback string, t Translator, onMissing MissingTranslationHandler) string {
	key = strings.TrimSpace(key)
	if key == "" {
		return fallback
	}

	if t == nil {
		return onMissing(locale, key, []any{map[string]any{"default": fallback}}, ErrMissingTranslator)
	}

	result, err := t.Translate(locale, key)
	if err == nil && strings.TrimSpace(result) != "" {
		return result
	}
	return onMissing(locale, key, []any{map[string]any{"default": fallback}}, err)
}
