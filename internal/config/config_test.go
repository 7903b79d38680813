package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formflow/internal/config"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := config.Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	want := &config.Config{
		Listen:      ":8080",
		Backend:     config.BackendConfig{Timeout: 15 * time.Second},
		Definitions: config.DefinitionsConfig{Dir: "definitions"},
		Log:         config.LogConfig{Level: "info"},
		Theme:       config.ThemeConfig{Name: "harvest"},
		Security:    config.SecurityConfig{CSRFField: "_csrf"},
	}
	if diff := cmp.Diff(want, cfg); diff != "" {
		t.Fatalf("config mismatch (-want +got):\n%s", diff)
	}
}

func TestLoad_FileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "formflow.yaml")
	doc := []byte(`
listen: ":9090"
backend:
  base_url: https://api.example.test
  timeout: 5s
render:
  strict_widgets: true
theme:
  name: harvest
  variant: dark
`)
	if err := os.WriteFile(path, doc, 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("FORMFLOW_BACKEND_BASE_URL", "https://override.example.test")
	t.Setenv("FORMFLOW_LOG_LEVEL", "debug")

	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Listen != ":9090" || cfg.Backend.Timeout != 5*time.Second || !cfg.Render.StrictWidgets {
		t.Fatalf("file values not applied: %+v", cfg)
	}
	if cfg.Backend.BaseURL != "https://override.example.test" {
		t.Fatalf("env override not applied: %s", cfg.Backend.BaseURL)
	}
	if cfg.Log.Level != "debug" || cfg.Theme.Variant != "dark" {
		t.Fatalf("unexpected values: %+v", cfg)
	}
}

func TestLoad_MissingFileFallsBackToEnv(t *testing.T) {
	t.Setenv("FORMFLOW_LISTEN", ":7000")
	cfg, err := config.Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Listen != ":7000" {
		t.Fatalf("expected env listen, got %q", cfg.Listen)
	}
}

func TestLoad_Invalid(t *testing.T) {
	t.Setenv("FORMFLOW_LISTEN", " ")
	if _, err := config.Load(""); err == nil {
		t.Fatalf("expected validation error")
	}
}
