package orchestrator

import (
	"context"
	"errors"
	"fmt"

	theme "github.com/goliatone/go-theme"
	"go.uber.org/zap"

	"github.com/goliatone/go-formflow/internal/themes"
	"github.com/goliatone/go-formflow/pkg/definition"
	"github.com/goliatone/go-formflow/pkg/formstate"
	"github.com/goliatone/go-formflow/pkg/model"
	"github.com/goliatone/go-formflow/pkg/render"
	"github.com/goliatone/go-formflow/pkg/renderers/html"
	"github.com/goliatone/go-formflow/pkg/stepper"
)

const defaultRendererName = "html"

// Option customises the orchestrator configuration.
type Option func(*Orchestrator)

// WithDefinitions supplies the store Request.DefinitionID is resolved from.
func WithDefinitions(store *definition.Store) Option {
	return func(o *Orchestrator) {
		o.definitions = store
	}
}

// WithRegistry injects a renderer registry.
func WithRegistry(registry *render.Registry) Option {
	return func(o *Orchestrator) {
		o.registry = registry
	}
}

// WithDefaultRenderer overrides the renderer used when a request omits an
// explicit Renderer field.
func WithDefaultRenderer(name string) Option {
	return func(o *Orchestrator) {
		o.defaultRenderer = name
	}
}

// WithTransformer registers a Transformer that mutates definitions after
// endpoint overrides and before decorators run.
func WithTransformer(t Transformer) Option {
	return func(o *Orchestrator) {
		o.transformer = t
	}
}

// WithDecorators registers decorators that run against the definition before
// the stepper is built.
func WithDecorators(decorators ...model.Decorator) Option {
	return func(o *Orchestrator) {
		o.decorators = append(o.decorators, decorators...)
	}
}

// WithFormConfig overrides the validation timing of the generated forms.
func WithFormConfig(cfg formstate.Config) Option {
	return func(o *Orchestrator) {
		o.formConfig = cfg
	}
}

// WithThemeSelector resolves Request.ThemeName and ThemeVariant into renderer
// theme configuration.
func WithThemeSelector(selector theme.ThemeSelector) Option {
	return func(o *Orchestrator) {
		o.themeSelector = selector
	}
}

// WithThemeFallbacks sets the partials used when a theme declares none.
func WithThemeFallbacks(fallbacks map[string]string) Option {
	return func(o *Orchestrator) {
		o.themeFallbacks = fallbacks
	}
}

// WithLogger attaches a logger passed on to steppers and renderers.
func WithLogger(logger *zap.Logger) Option {
	return func(o *Orchestrator) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// Orchestrator coordinates the pipeline from a definition to rendered output:
// resolve, override, transform, decorate, build the stepper, snapshot a frame
// and render it. Missing dependencies default to the built-in html renderer.
type Orchestrator struct {
	definitions       *definition.Store
	registry          *render.Registry
	defaultRenderer   string
	transformer       Transformer
	decorators        []model.Decorator
	endpointOverrides map[string][]EndpointOverride
	formConfig        formstate.Config
	themeSelector     theme.ThemeSelector
	themeFallbacks    map[string]string
	logger            *zap.Logger
	initialiseErr     error
}

// New constructs an Orchestrator applying any provided options.
func New(options ...Option) *Orchestrator {
	o := &Orchestrator{
		defaultRenderer: defaultRendererName,
		formConfig:      formstate.DefaultConfig(),
		logger:          zap.NewNop(),
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(o)
	}
	o.applyDefaults()
	return o
}

// Request describes one render. Exactly one definition source is used, in
// this order: Definition, DefinitionID, OpenAPI.
type Request struct {
	// Definition is used as is when set.
	Definition *model.Definition
	// DefinitionID selects a definition from the configured store.
	DefinitionID string
	// OpenAPI holds a raw document; OperationID picks the request body and
	// StepsBy names the property extension grouping fields into steps.
	OpenAPI     []byte
	OperationID string
	StepsBy     string

	// Record prefills the forms the way an edit page does.
	Record map[string]any

	// Renderer names the renderer to use. If empty, the orchestrator falls
	// back to the configured default renderer.
	Renderer string

	ThemeName    string
	ThemeVariant string

	// FrameOptions customise the frame, for example its action URL.
	FrameOptions []render.FrameOption
	// RenderOptions carries per-request instructions such as hidden fields.
	RenderOptions render.RenderOptions
}

// Prepare resolves the request's definition and applies overrides, the
// transformer and decorators. The result is validated.
func (o *Orchestrator) Prepare(ctx context.Context, req Request) (model.Definition, error) {
	if ctx == nil {
		return model.Definition{}, errors.New("orchestrator: context is required")
	}
	if err := ctx.Err(); err != nil {
		return model.Definition{}, err
	}
	if err := o.initialiseErr; err != nil {
		return model.Definition{}, err
	}

	def, err := o.resolveDefinition(ctx, req)
	if err != nil {
		return model.Definition{}, err
	}
	def = def.Clone()

	o.applyEndpointOverrides(&def)
	if err := o.applyTransformer(ctx, &def); err != nil {
		return model.Definition{}, err
	}
	if err := o.applyDecorators(&def); err != nil {
		return model.Definition{}, err
	}
	if err := def.Validate(); err != nil {
		return model.Definition{}, fmt.Errorf("orchestrator: %w", err)
	}
	return def, nil
}

// Generate renders the first step of the requested definition and returns
// the rendered bytes (HTML for the default renderer).
func (o *Orchestrator) Generate(ctx context.Context, req Request) ([]byte, error) {
	def, err := o.Prepare(ctx, req)
	if err != nil {
		return nil, err
	}

	st, err := stepper.FromDefinition(def, req.Record, o.formConfig,
		stepper.WithLogger(o.logger.With(zap.String("definition", def.ID))))
	if err != nil {
		return nil, fmt.Errorf("orchestrator: build stepper: %w", err)
	}
	defer st.Close()

	frameOpts := append([]render.FrameOption{
		render.WithFormID(def.ID),
		render.WithTitle(def.Title),
		render.WithAction(def.SubmitMethod(), def.Endpoint),
		render.WithSubmitLabel(def.SubmitLabel),
		render.WithMetadata(def.Metadata),
	}, req.FrameOptions...)
	frame := render.FromStepper(ctx, st, frameOpts...)

	renderer, err := o.rendererFor(req.Renderer)
	if err != nil {
		return nil, err
	}

	opts := req.RenderOptions
	if opts.Logger == nil {
		opts.Logger = o.logger
	}
	if opts.Theme == nil {
		cfg, err := o.resolveTheme(req)
		if err != nil {
			return nil, err
		}
		opts.Theme = cfg
	}

	output, err := renderer.Render(ctx, frame, opts)
	if err != nil {
		return nil, fmt.Errorf("orchestrator: render output: %w", err)
	}
	return output, nil
}

func (o *Orchestrator) resolveDefinition(ctx context.Context, req Request) (model.Definition, error) {
	switch {
	case req.Definition != nil:
		return *req.Definition, nil
	case req.DefinitionID != "":
		if o.definitions == nil {
			return model.Definition{}, errors.New("orchestrator: no definition store configured")
		}
		def, ok := o.definitions.Get(req.DefinitionID)
		if !ok {
			return model.Definition{}, fmt.Errorf("orchestrator: definition %q not found", req.DefinitionID)
		}
		return def, nil
	case len(req.OpenAPI) > 0:
		if req.OperationID == "" {
			return model.Definition{}, errors.New("orchestrator: operation id is required")
		}
		def, err := definition.FromOpenAPI(ctx, req.OpenAPI, req.OperationID, req.StepsBy)
		if err != nil {
			return model.Definition{}, fmt.Errorf("orchestrator: %w", err)
		}
		return def, nil
	}
	return model.Definition{}, errors.New("orchestrator: definition, definition id or openapi document is required")
}

func (o *Orchestrator) resolveTheme(req Request) (*theme.RendererConfig, error) {
	if o.themeSelector == nil {
		return nil, nil
	}
	selection, err := o.themeSelector.Select(req.ThemeName, req.ThemeVariant)
	if err != nil {
		return nil, fmt.Errorf("orchestrator: select theme: %w", err)
	}
	return themes.RendererConfig(selection, o.themeFallbacks), nil
}

func (o *Orchestrator) rendererFor(name string) (render.Renderer, error) {
	if o.registry == nil {
		return nil, errors.New("orchestrator: renderer registry is nil")
	}

	target := name
	if target == "" {
		target = o.defaultRenderer
	}

	if target != "" {
		renderer, err := o.registry.Get(target)
		if err == nil {
			return renderer, nil
		}
		if name != "" {
			return nil, fmt.Errorf("orchestrator: renderer %q: %w", name, err)
		}
	}

	names := o.registry.List()
	if len(names) == 0 {
		return nil, errors.New("orchestrator: no renderers registered")
	}

	renderer, err := o.registry.Get(names[0])
	if err != nil {
		return nil, fmt.Errorf("orchestrator: renderer %q: %w", names[0], err)
	}
	return renderer, nil
}

func (o *Orchestrator) applyDecorators(def *model.Definition) error {
	for _, decorator := range o.decorators {
		if decorator == nil {
			continue
		}
		if err := decorator.Decorate(def); err != nil {
			return fmt.Errorf("orchestrator: decorate definition: %w", err)
		}
	}
	return nil
}

func (o *Orchestrator) applyTransformer(ctx context.Context, def *model.Definition) error {
	if o.transformer == nil {
		return nil
	}
	if err := o.transformer.Transform(ctx, def); err != nil {
		return fmt.Errorf("orchestrator: transform definition: %w", err)
	}
	return nil
}

func (o *Orchestrator) applyDefaults() {
	if o.registry != nil {
		return
	}
	o.registry = render.NewRegistry()
	renderer, err := html.New(html.WithLogger(o.logger))
	if err != nil {
		o.initialiseErr = fmt.Errorf("orchestrator: default renderer: %w", err)
		return
	}
	o.registry.MustRegister(renderer)
}
