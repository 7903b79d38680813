// Package formflow is the top-level entry point: it re-exports the
// orchestrator options most callers need and the embedded renderer bundles.
package formflow

import (
	"context"
	"io/fs"

	theme "github.com/goliatone/go-theme"

	"github.com/goliatone/go-formflow/pkg/model"
	"github.com/goliatone/go-formflow/pkg/orchestrator"
	"github.com/goliatone/go-formflow/pkg/render"
	"github.com/goliatone/go-formflow/pkg/renderers/html"
)

// Definition describes a multi-step wizard.
type Definition = model.Definition

// EndpointConfig describes where a choice field loads its options from.
type EndpointConfig = orchestrator.EndpointConfig

// EndpointOverride configures option endpoint metadata for a field.
type EndpointOverride = orchestrator.EndpointOverride

// RenderOptions carries per-request renderer instructions.
type RenderOptions = render.RenderOptions

// NewOrchestrator exposes the orchestrator constructor from the module root.
func NewOrchestrator(options ...orchestrator.Option) *orchestrator.Orchestrator {
	return orchestrator.New(options...)
}

// GenerateHTML renders the first step of def with the named renderer, html
// when rendererName is empty. Record prefills the forms.
func GenerateHTML(ctx context.Context, def Definition, record map[string]any, rendererName string, options ...orchestrator.Option) ([]byte, error) {
	return orchestrator.New(options...).Generate(ctx, orchestrator.Request{
		Definition: &def,
		Record:     record,
		Renderer:   rendererName,
	})
}

// GenerateHTMLFromOpenAPI derives a definition from the request body of an
// OpenAPI operation and renders its first step.
func GenerateHTMLFromOpenAPI(ctx context.Context, document []byte, operationID, stepsBy, rendererName string, options ...orchestrator.Option) ([]byte, error) {
	return orchestrator.New(options...).Generate(ctx, orchestrator.Request{
		OpenAPI:     document,
		OperationID: operationID,
		StepsBy:     stepsBy,
		Renderer:    rendererName,
	})
}

// WithEndpointOverrides registers endpoint overrides.
func WithEndpointOverrides(overrides []EndpointOverride) orchestrator.Option {
	return orchestrator.WithEndpointOverrides(overrides)
}

// WithThemeSelector passes a go-theme selector through to the orchestrator so
// theme and variant choices are resolved ahead of rendering.
func WithThemeSelector(selector theme.ThemeSelector) orchestrator.Option {
	return orchestrator.WithThemeSelector(selector)
}

// WithThemeFallbacks forwards fallback partials used when deriving renderer
// configuration from a theme selection.
func WithThemeFallbacks(fallbacks map[string]string) orchestrator.Option {
	return orchestrator.WithThemeFallbacks(fallbacks)
}

// EmbeddedTemplates exposes the built-in html renderer templates so callers
// can reuse or extend them without importing the renderer package directly.
func EmbeddedTemplates() fs.FS {
	return html.TemplatesFS()
}

// AssetsFS exposes the default stylesheet.
//
// Typical mount:
//
//	mux.Handle("/assets/",
//	  http.StripPrefix("/assets/",
//	    http.FileServerFS(formflow.AssetsFS()),
//	  ),
//	)
func AssetsFS() fs.FS {
	return html.AssetsFS()
}
