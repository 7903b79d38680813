// Package config loads formflow settings from an optional YAML file and
// FORMFLOW_ environment variables.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment variable, so backend.base_url
// is read from FORMFLOW_BACKEND_BASE_URL.
const EnvPrefix = "FORMFLOW"

type Config struct {
	Listen      string            `mapstructure:"listen" yaml:"listen"`
	Backend     BackendConfig     `mapstructure:"backend" yaml:"backend"`
	Definitions DefinitionsConfig `mapstructure:"definitions" yaml:"definitions"`
	Log         LogConfig         `mapstructure:"log" yaml:"log"`
	Render      RenderConfig      `mapstructure:"render" yaml:"render"`
	Theme       ThemeConfig       `mapstructure:"theme" yaml:"theme"`
	Security    SecurityConfig    `mapstructure:"security" yaml:"security"`
}

// BackendConfig points at the REST API wizards submit to.
type BackendConfig struct {
	BaseURL string        `mapstructure:"base_url" yaml:"base_url"`
	Timeout time.Duration `mapstructure:"timeout" yaml:"timeout"`
}

type DefinitionsConfig struct {
	Dir string `mapstructure:"dir" yaml:"dir"`
}

type LogConfig struct {
	Level       string `mapstructure:"level" yaml:"level"`
	Development bool   `mapstructure:"development" yaml:"development"`
}

type RenderConfig struct {
	StrictWidgets bool `mapstructure:"strict_widgets" yaml:"strict_widgets"`
}

// SecurityConfig names the hidden input carrying each session's CSRF token.
// An empty CSRFField turns the check off.
type SecurityConfig struct {
	CSRFField string `mapstructure:"csrf_field" yaml:"csrf_field"`
}

// ThemeConfig selects the theme applied to rendered pages. Manifest points at
// an optional JSON or YAML theme manifest registered next to the built-in one.
type ThemeConfig struct {
	Name     string `mapstructure:"name" yaml:"name"`
	Variant  string `mapstructure:"variant" yaml:"variant"`
	Manifest string `mapstructure:"manifest" yaml:"manifest"`
}

var defaults = map[string]any{
	"listen":                ":8080",
	"backend.base_url":      "",
	"backend.timeout":       15 * time.Second,
	"definitions.dir":       "definitions",
	"log.level":             "info",
	"log.development":       false,
	"render.strict_widgets": false,
	"theme.name":            "harvest",
	"theme.variant":         "",
	"theme.manifest":        "",
	"security.csrf_field":   "_csrf",
}

// Load reads filePath when it exists and applies environment overrides. An
// empty filePath loads defaults and environment only.
func Load(filePath string) (*Config, error) {
	v := newViper()
	if filePath != "" {
		v.SetConfigFile(filePath)
		if _, err := os.Stat(filePath); !errors.Is(err, fs.ErrNotExist) {
			if err := v.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("config: read %s: %w", filePath, err)
			}
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("config: decode: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	return v
}

// Validate rejects settings the server cannot start with.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Listen) == "" {
		return errors.New("config: listen address is required")
	}
	if c.Backend.Timeout < 0 {
		return fmt.Errorf("config: backend.timeout must not be negative, got %s", c.Backend.Timeout)
	}
	return nil
}
