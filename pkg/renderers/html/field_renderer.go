package html

import (
	"bytes"
	"encoding/json"
	"fmt"
	stdhtml "html"
	"slices"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"go.uber.org/zap"

	"github.com/goliatone/go-formflow/pkg/formstate"
	"github.com/goliatone/go-formflow/pkg/model"
	"github.com/goliatone/go-formflow/pkg/render/template"
	"github.com/goliatone/go-formflow/pkg/renderers/html/components"
	"github.com/goliatone/go-formflow/pkg/values"
)

const componentConfigMetadataKey = "component.config"

type componentRenderer struct {
	templates template.TemplateRenderer
	registry  *components.Registry
	policy    *bluemonday.Policy
	partials  map[string]string
	state     formstate.State
	strict    bool
	logger    *zap.Logger

	usedComponents map[string]struct{}
}

func (r *componentRenderer) renderAll(fields []model.Field) (string, error) {
	var builder strings.Builder
	for _, field := range fields {
		markup, err := r.render(field, field.Name)
		if err != nil {
			return "", err
		}
		builder.WriteString(markup)
	}
	return builder.String(), nil
}

func (r *componentRenderer) render(field model.Field, path string) (string, error) {
	componentName, known := resolveComponentName(field.UIType)
	if !known {
		return r.placeholder(field, path)
	}

	descriptor, ok := r.registry.Descriptor(componentName)
	if !ok {
		return r.placeholder(field, path)
	}

	config, err := parseComponentConfig(field.Metadata[componentConfigMetadataKey])
	if err != nil {
		return "", fmt.Errorf("parse component config for field %q: %w", path, err)
	}

	view := r.view(field, path)
	data := components.ComponentData{
		Template:      r.templates,
		Config:        config,
		ThemePartials: r.partials,
		RenderChild:   r.childRenderer(path),
	}

	var control bytes.Buffer
	if err := descriptor.Renderer(&control, view, data); err != nil {
		return "", fmt.Errorf("render component %q for field %q: %w", componentName, path, err)
	}

	r.usedComponents[componentName] = struct{}{}

	switch field.UIType {
	case model.UITypeHidden:
		return control.String() + "\n", nil
	case model.UITypeGroup:
		return buildCell(field, view, componentName, control.String(), false), nil
	default:
		return buildCell(field, view, componentName, control.String(), true), nil
	}
}

// resolveComponentName maps every widget kind onto its component. The second
// result is false for kinds no renderer knows.
func resolveComponentName(ui model.UIType) (string, bool) {
	switch ui {
	case "", model.UITypeText:
		return components.NameText, true
	case model.UITypeTextarea:
		return components.NameTextarea, true
	case model.UITypeNumber:
		return components.NameNumber, true
	case model.UITypeSelect:
		return components.NameSelect, true
	case model.UITypeMultiSelect:
		return components.NameMultiSelect, true
	case model.UITypeDate:
		return components.NameDate, true
	case model.UITypeSwitch:
		return components.NameSwitch, true
	case model.UITypePhone:
		return components.NamePhone, true
	case model.UITypeEmail:
		return components.NameEmail, true
	case model.UITypePassword:
		return components.NamePassword, true
	case model.UITypeHidden:
		return components.NameHidden, true
	case model.UITypeGroup:
		return components.NameGroup, true
	default:
		return "", false
	}
}

func (r *componentRenderer) placeholder(field model.Field, path string) (string, error) {
	if r.strict {
		return "", fmt.Errorf("field %q uses %q: %w", path, field.UIType, model.ErrUnknownUIType)
	}
	r.logger.Warn("unknown widget, rendering placeholder",
		zap.String("field", path),
		zap.String("ui_type", string(field.UIType)),
	)

	var builder strings.Builder
	builder.WriteString(`<div class="fg-field `)
	builder.WriteString(gridClasses(field.Breakpoints))
	builder.WriteString(`" data-field="`)
	builder.WriteString(stdhtml.EscapeString(path))
	builder.WriteString(`">`)
	builder.WriteString(`<div class="fg-unknown-widget" data-ui-type="`)
	builder.WriteString(stdhtml.EscapeString(string(field.UIType)))
	builder.WriteString(`">Unsupported field type "`)
	builder.WriteString(stdhtml.EscapeString(string(field.UIType)))
	builder.WriteString(`" for `)
	builder.WriteString(stdhtml.EscapeString(field.DisplayLabel()))
	builder.WriteString(`</div></div>`)
	builder.WriteByte('\n')
	return builder.String(), nil
}

func (r *componentRenderer) childRenderer(parentPath string) func(model.Field) (string, error) {
	return func(child model.Field) (string, error) {
		return r.render(child, parentPath+"."+child.Name)
	}
}

// view resolves the descriptor against form state: the current value and the
// errors that are visible for the path.
func (r *componentRenderer) view(field model.Field, path string) components.Field {
	current, _ := values.Get(r.state.Values, path)

	view := components.Field{
		Descriptor:  field,
		Path:        path,
		ID:          controlID(path),
		Label:       field.DisplayLabel(),
		InputType:   inputType(field.UIType),
		Placeholder: field.Placeholder,
		Required:    field.Required,
		Errors:      formstate.VisibleErrors(r.state, path),
		SearchURL:   strings.TrimSpace(field.SearchURL),
	}
	if help := strings.TrimSpace(field.HelpText); help != "" {
		view.HelpHTML = strings.TrimSpace(r.policy.Sanitize(help))
	}

	switch field.UIType {
	case model.UITypeSwitch:
		if on, ok := current.(bool); ok {
			view.Checked = on
		} else {
			view.Checked = strings.EqualFold(values.Stringify(current), "true")
		}
	case model.UITypeSelect:
		selected := values.Stringify(current)
		view.Value = selected
		view.Options = optionViews(field.Options, []string{selected})
	case model.UITypeMultiSelect:
		var selected []string
		for _, item := range toList(current) {
			selected = append(selected, values.Stringify(item))
		}
		view.Options = optionViews(field.Options, selected)
		view.Value = strings.Join(selected, ",")
	case model.UITypeNumber:
		view.Value = values.Stringify(current)
		view.NumberStep = "any"
		if field.DataType == model.DataTypeInteger {
			view.NumberStep = "1"
		}
	default:
		view.Value = values.Stringify(current)
	}
	return view
}

func inputType(ui model.UIType) string {
	switch ui {
	case model.UITypeNumber:
		return "number"
	case model.UITypeDate:
		return "date"
	case model.UITypePhone:
		return "tel"
	case model.UITypeEmail:
		return "email"
	case model.UITypePassword:
		return "password"
	default:
		return "text"
	}
}

// optionViews marks selected options. Selected values missing from the static
// list (typically picked through a remote search) are kept as extra options so
// re-rendering never drops a choice.
func optionViews(options []model.Option, selected []string) []components.Option {
	out := make([]components.Option, 0, len(options))
	seen := make(map[string]struct{}, len(options))
	for _, option := range options {
		seen[option.Value] = struct{}{}
		out = append(out, components.Option{
			Label:    option.Label,
			Value:    option.Value,
			Selected: slices.Contains(selected, option.Value),
		})
	}
	for _, value := range selected {
		if value == "" {
			continue
		}
		if _, ok := seen[value]; ok {
			continue
		}
		seen[value] = struct{}{}
		out = append(out, components.Option{Label: value, Value: value, Selected: true})
	}
	return out
}

func toList(value any) []any {
	switch v := value.(type) {
	case nil:
		return nil
	case []any:
		return v
	case []string:
		out := make([]any, 0, len(v))
		for _, item := range v {
			out = append(out, item)
		}
		return out
	default:
		return []any{v}
	}
}

func (r *componentRenderer) assets() (stylesheets []string, scripts []components.Script) {
	if r.registry == nil || len(r.usedComponents) == 0 {
		return nil, nil
	}
	names := make([]string, 0, len(r.usedComponents))
	for name := range r.usedComponents {
		names = append(names, name)
	}
	slices.Sort(names)
	return r.registry.Assets(names)
}

// buildCell wraps a control in its grid cell with label, help and errors.
func buildCell(field model.Field, view components.Field, componentName, control string, withChrome bool) string {
	var builder strings.Builder
	builder.Grow(len(control) + 256)

	builder.WriteString(`<div class="fg-field `)
	builder.WriteString(gridClasses(field.Breakpoints))
	builder.WriteString(`" data-field="`)
	builder.WriteString(stdhtml.EscapeString(view.Path))
	builder.WriteString(`" data-component="`)
	builder.WriteString(stdhtml.EscapeString(componentName))
	builder.WriteString(`"`)
	if view.Invalid() {
		builder.WriteString(` data-invalid="true"`)
	}
	builder.WriteString(">\n")

	if withChrome {
		builder.WriteString(`<label for="`)
		builder.WriteString(stdhtml.EscapeString(view.ID))
		builder.WriteString(`" id="`)
		builder.WriteString(stdhtml.EscapeString(view.ID + "-label"))
		builder.WriteString(`" class="fg-label">`)
		builder.WriteString(stdhtml.EscapeString(view.Label))
		if view.Required {
			builder.WriteString(` <span class="fg-required" aria-hidden="true">*</span>`)
		}
		builder.WriteString("</label>\n")
	}

	for _, line := range strings.Split(control, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		builder.WriteString(line)
		builder.WriteByte('\n')
	}

	if withChrome && view.HelpHTML != "" {
		builder.WriteString(`<p id="`)
		builder.WriteString(stdhtml.EscapeString(view.HelpID()))
		builder.WriteString(`" class="fg-help">`)
		builder.WriteString(view.HelpHTML)
		builder.WriteString("</p>\n")
	}

	if view.Invalid() {
		builder.WriteString(`<ul id="`)
		builder.WriteString(stdhtml.EscapeString(view.ErrorID()))
		builder.WriteString(`" class="fg-field-errors" role="alert">`)
		for _, msg := range view.Errors {
			builder.WriteString("<li>")
			builder.WriteString(stdhtml.EscapeString(msg))
			builder.WriteString("</li>")
		}
		builder.WriteString("</ul>\n")
	}

	builder.WriteString("</div>\n")
	return builder.String()
}

func parseComponentConfig(raw string) (map[string]any, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	var cfg map[string]any
	if err := json.Unmarshal([]byte(raw), &cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
