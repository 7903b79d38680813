// Package html renders wizard frames as server-side HTML. Every descriptor is
// dispatched through a component registry keyed by widget kind and wrapped in
// a responsive grid cell; the page template adds the stepper header, banners
// and navigation buttons.
package html

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"strconv"

	"github.com/microcosm-cc/bluemonday"
	"go.uber.org/zap"

	"github.com/goliatone/go-formflow/pkg/render"
	rendertemplate "github.com/goliatone/go-formflow/pkg/render/template"
	gotemplate "github.com/goliatone/go-formflow/pkg/render/template/gotemplate"
	"github.com/goliatone/go-formflow/pkg/renderers/html/components"
)

const pageTemplate = "templates/page.tmpl"

type Option func(*config)

type config struct {
	templateFS       fs.FS
	templateRenderer rendertemplate.TemplateRenderer
	registry         *components.Registry
	policy           *bluemonday.Policy
	classes          ChromeClasses
	inlineStyles     bool
	logger           *zap.Logger
}

// WithTemplatesFS supplies an alternate template bundle via fs.FS.
func WithTemplatesFS(files fs.FS) Option {
	return func(cfg *config) {
		cfg.templateFS = files
	}
}

// WithTemplatesDir loads templates from a directory on disk.
func WithTemplatesDir(path string) Option {
	return func(cfg *config) {
		if path == "" {
			return
		}
		cfg.templateFS = os.DirFS(path)
	}
}

// WithTemplateRenderer injects a custom template renderer implementation.
func WithTemplateRenderer(renderer rendertemplate.TemplateRenderer) Option {
	return func(cfg *config) {
		if renderer != nil {
			cfg.templateRenderer = renderer
		}
	}
}

// WithComponentRegistry replaces the default component registry.
func WithComponentRegistry(registry *components.Registry) Option {
	return func(cfg *config) {
		if registry != nil {
			cfg.registry = registry
		}
	}
}

// WithHelpPolicy replaces the bluemonday policy applied to help text.
func WithHelpPolicy(policy *bluemonday.Policy) Option {
	return func(cfg *config) {
		if policy != nil {
			cfg.policy = policy
		}
	}
}

// WithChromeClasses overrides the wizard chrome classes.
func WithChromeClasses(classes ChromeClasses) Option {
	return func(cfg *config) {
		cfg.classes = classes
	}
}

// WithInlineStyles toggles the embedded default stylesheet.
func WithInlineStyles(enabled bool) Option {
	return func(cfg *config) {
		cfg.inlineStyles = enabled
	}
}

// WithLogger sets the fallback logger used when RenderOptions carry none.
func WithLogger(logger *zap.Logger) Option {
	return func(cfg *config) {
		if logger != nil {
			cfg.logger = logger
		}
	}
}

type Renderer struct {
	templates    rendertemplate.TemplateRenderer
	registry     *components.Registry
	policy       *bluemonday.Policy
	classes      ChromeClasses
	inlineStyles bool
	logger       *zap.Logger
}

var _ render.Renderer = (*Renderer)(nil)

// New constructs the html renderer applying any provided options.
func New(options ...Option) (*Renderer, error) {
	cfg := config{
		templateFS:   TemplatesFS(),
		inlineStyles: true,
		logger:       zap.NewNop(),
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(&cfg)
	}

	if cfg.templateFS == nil {
		cfg.templateFS = TemplatesFS()
	}
	if cfg.registry == nil {
		cfg.registry = components.NewDefaultRegistry()
	}
	if cfg.policy == nil {
		cfg.policy = helpPolicy()
	}

	renderer := cfg.templateRenderer
	if renderer == nil {
		engine, err := gotemplate.New(cfg.templateFS)
		if err != nil {
			return nil, fmt.Errorf("html renderer: configure template renderer: %w", err)
		}
		renderer = engine
	}

	return &Renderer{
		templates:    renderer,
		registry:     cfg.registry,
		policy:       cfg.policy,
		classes:      cfg.classes,
		inlineStyles: cfg.inlineStyles,
		logger:       cfg.logger,
	}, nil
}

func (r *Renderer) Name() string {
	return "html"
}

func (r *Renderer) ContentType() string {
	return "text/html; charset=utf-8"
}

// Render draws the frame. Unknown widget kinds become visible placeholders
// unless options.StrictWidgets is set, in which case rendering fails.
func (r *Renderer) Render(_ context.Context, frame render.Frame, options render.RenderOptions) ([]byte, error) {
	if r.templates == nil {
		return nil, fmt.Errorf("html renderer: template renderer is nil")
	}

	render.LocalizeFrame(&frame, options)

	logger := r.logger
	if options.Logger != nil {
		logger = options.Logger
	}
	themeCtx := buildThemeContext(options.Theme)

	fields := &componentRenderer{
		templates:      r.templates,
		registry:       r.registry,
		policy:         r.policy,
		partials:       themeCtx.Partials,
		state:          frame.State,
		strict:         options.StrictWidgets,
		logger:         logger,
		usedComponents: make(map[string]struct{}),
	}
	fieldsHTML := ""
	if !frame.Terminal {
		markup, err := fields.renderAll(frame.Fields)
		if err != nil {
			return nil, fmt.Errorf("html renderer: %w", err)
		}
		fieldsHTML = markup
	}
	stylesheets, scripts := fields.assets()
	if themeCtx.Stylesheet != "" {
		stylesheets = append(stylesheets, themeCtx.Stylesheet)
	}

	result, err := r.templates.RenderTemplate(pageTemplate, r.pageData(frame, options, themeCtx, fieldsHTML, stylesheets, scripts))
	if err != nil {
		return nil, fmt.Errorf("html renderer: render template: %w", err)
	}
	return []byte(result), nil
}

func (r *Renderer) pageData(frame render.Frame, options render.RenderOptions, themeCtx themeContext, fieldsHTML string, stylesheets []string, scripts []components.Script) map[string]any {
	method := frame.Method
	if options.Method != "" {
		method = options.Method
	}
	formMethod, override := render.FormMethod(method)

	extra := render.SortedHiddenFields(options.HiddenFields)
	if override != nil {
		extra = append(extra, *override)
	}
	hidden := render.MergeHiddenFields(frame.Hidden, extra...)
	hiddenFields := make([]any, 0, len(hidden))
	for _, field := range render.SortedHiddenFields(hidden) {
		hiddenFields = append(hiddenFields, map[string]any{"name": field.Name, "value": field.Value})
	}

	steps := make([]any, 0, len(frame.Steps))
	for _, step := range frame.Steps {
		steps = append(steps, map[string]any{
			"id":        step.ID,
			"label":     step.Label,
			"number":    strconv.Itoa(step.Index + 1),
			"active":    step.Active,
			"complete":  step.Complete,
			"has_error": step.HasError,
		})
	}

	summary := make([]any, 0, len(frame.Summary))
	for _, section := range frame.Summary {
		items := make([]any, 0, len(section.Items))
		for _, item := range section.Items {
			items = append(items, map[string]any{"path": item.Path, "label": item.Label, "value": item.Value})
		}
		summary = append(summary, map[string]any{
			"step_id": section.StepID,
			"label":   section.Label,
			"items":   items,
		})
	}

	nonField := make([]any, 0, len(frame.NonField))
	for _, msg := range frame.NonField {
		nonField = append(nonField, msg)
	}

	var toast map[string]any
	if frame.Toast != nil {
		toast = map[string]any{"level": string(frame.Toast.Level), "message": frame.Toast.Message}
	}

	styleList := make([]any, 0, len(stylesheets))
	for _, href := range stylesheets {
		styleList = append(styleList, href)
	}
	scriptList := make([]any, 0, len(scripts))
	for _, script := range scripts {
		scriptList = append(scriptList, map[string]any{
			"src":    script.Src,
			"inline": script.Inline,
			"defer":  script.Defer,
		})
	}

	inlineCSS := ""
	if r.inlineStyles {
		inlineCSS = defaultStylesheet()
	}

	formID := frame.FormID
	if formID == "" {
		formID = "wizard"
	}

	data := map[string]any{
		"form_id":       formID,
		"title":         frame.Title,
		"active":        strconv.Itoa(frame.Active),
		"first":         frame.Active == 0,
		"terminal":      frame.Terminal,
		"can_advance":   frame.CanAdvance,
		"steps":         steps,
		"summary":       summary,
		"non_field":     nonField,
		"toast":         toast,
		"method":        formMethod,
		"action":        frame.Action,
		"hidden_fields": hiddenFields,
		"fields_html":   fieldsHTML,
		"submit_label":  frame.SubmitLabel,
		"classes":       r.classes.templateData(),
		"theme":         themeCtx.templateData(),
		"stylesheets":   styleList,
		"scripts":       scriptList,
		"inline_css":    inlineCSS,
	}
	if frame.NavBase != "" {
		data["back_action"] = frame.NavBase + "/back"
		data["next_action"] = frame.NavBase + "/next"
		data["submit_action"] = frame.NavBase + "/submit"
	}
	return data
}

// helpPolicy allows the inline formatting help texts commonly use: emphasis,
// links and line breaks.
func helpPolicy() *bluemonday.Policy {
	policy := bluemonday.StrictPolicy()
	policy.AllowElements("b", "strong", "i", "em", "br", "code", "small")
	policy.AllowAttrs("href").OnElements("a")
	policy.AllowStandardURLs()
	policy.RequireNoFollowOnLinks(true)
	return policy
}
