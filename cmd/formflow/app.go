package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	theme "github.com/goliatone/go-theme"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/goliatone/go-formflow/internal/config"
	"github.com/goliatone/go-formflow/internal/logging"
	"github.com/goliatone/go-formflow/internal/themes"
	"github.com/goliatone/go-formflow/pkg/definition"
	"github.com/goliatone/go-formflow/pkg/model"
	"github.com/goliatone/go-formflow/pkg/render"
	"github.com/goliatone/go-formflow/pkg/renderers/html"
	"github.com/goliatone/go-formflow/pkg/renderers/tui"
	"github.com/goliatone/go-formflow/pkg/submit"
)

// app bundles what every command builds from the configuration.
type app struct {
	cfg    *config.Config
	logger *zap.Logger
}

func loadApp(flags *rootFlags) (*app, error) {
	cfg, err := config.Load(flags.configFile)
	if err != nil {
		return nil, err
	}
	logger, err := logging.New(cfg.Log.Level, cfg.Log.Development)
	if err != nil {
		return nil, err
	}
	return &app{cfg: cfg, logger: logger}, nil
}

func (a *app) close() {
	_ = a.logger.Sync()
}

// resolveTheme resolves the configured theme. name and variant override the
// configuration when set.
func (a *app) resolveTheme(name, variant string) (*theme.RendererConfig, error) {
	var extra []*theme.Manifest
	if file := strings.TrimSpace(a.cfg.Theme.Manifest); file != "" {
		manifest, err := themes.LoadManifest(file)
		if err != nil {
			return nil, err
		}
		extra = append(extra, manifest)
	}
	selector, err := themes.NewSelector(a.cfg.Theme.Name, a.cfg.Theme.Variant, extra...)
	if err != nil {
		return nil, err
	}
	selection, err := selector.Select(name, variant)
	if err != nil {
		return nil, err
	}
	return themes.RendererConfig(selection, nil), nil
}

func (a *app) client() *submit.Client {
	return submit.New(a.cfg.Backend.BaseURL,
		submit.WithHTTPClient(&http.Client{Timeout: a.cfg.Backend.Timeout}),
		submit.WithLogger(a.logger),
	)
}

// renderers registers the html and text renderers.
func renderers(logger *zap.Logger) (*render.Registry, error) {
	page, err := html.New(html.WithLogger(logger))
	if err != nil {
		return nil, err
	}
	registry := render.NewRegistry()
	if err := registry.Register(page); err != nil {
		return nil, err
	}
	if err := registry.Register(tui.NewTextRenderer()); err != nil {
		return nil, err
	}
	return registry, nil
}

// definitionSource selects a definition from a file. Definition files are
// parsed directly; with an operation id the file is read as an OpenAPI
// document instead.
type definitionSource struct {
	operation string
	stepsBy   string
}

func (src *definitionSource) bind(cmd *cobra.Command) {
	cmd.Flags().StringVar(&src.operation, "operation", "", "read the file as an OpenAPI document and use this operation id")
	cmd.Flags().StringVar(&src.stepsBy, "steps-by", "", "property extension grouping fields into steps, e.g. "+definition.StepExtension)
}

func (src definitionSource) load(ctx context.Context, file string) (model.Definition, error) {
	data, err := os.ReadFile(file)
	if err != nil {
		return model.Definition{}, fmt.Errorf("read %s: %w", file, err)
	}
	if src.operation != "" {
		return definition.FromOpenAPI(ctx, data, src.operation, src.stepsBy)
	}
	return definition.Parse(filepath.Base(file), data)
}
