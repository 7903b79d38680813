// Package themes selects go-theme manifests and turns the selection into the
// renderer configuration the html renderer consumes.
package themes

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	theme "github.com/goliatone/go-theme"
	"gopkg.in/yaml.v3"
)

// DefaultTheme is the built-in palette.
const DefaultTheme = "harvest"

// ErrThemeNotFound is returned for unknown theme names.
var ErrThemeNotFound = errors.New("themes: theme not found")

// Harvest is the built-in manifest with a light and a dark variant.
func Harvest() *theme.Manifest {
	return &theme.Manifest{
		Name:    DefaultTheme,
		Version: "1.0.0",
		Tokens: map[string]string{
			"primary":     "#166534",
			"foreground":  "#1f2937",
			"muted":       "#6b7280",
			"border":      "#d1d5db",
			"danger":      "#b91c1c",
			"font-family": "system-ui, sans-serif",
		},
		Variants: map[string]theme.Variant{
			"dark": {
				Tokens: map[string]string{
					"foreground": "#f9fafb",
					"muted":      "#9ca3af",
					"border":     "#374151",
				},
			},
		},
	}
}

// Selector implements theme.ThemeSelector over registered manifests. Empty
// names fall back to the defaults given to NewSelector.
type Selector struct {
	mu             sync.RWMutex
	registry       manifestRegistry
	manifests      map[string]*theme.Manifest
	defaultTheme   string
	defaultVariant string
}

var _ theme.ThemeSelector = (*Selector)(nil)

// manifestRegistry is the go-theme registry; it validates manifests on
// registration.
type manifestRegistry interface {
	Register(manifest *theme.Manifest) error
}

// NewSelector registers the built-in manifest plus any extras.
func NewSelector(defaultTheme, defaultVariant string, extra ...*theme.Manifest) (*Selector, error) {
	s := &Selector{
		registry:       theme.NewRegistry(),
		manifests:      make(map[string]*theme.Manifest),
		defaultTheme:   strings.TrimSpace(defaultTheme),
		defaultVariant: strings.TrimSpace(defaultVariant),
	}
	if s.defaultTheme == "" {
		s.defaultTheme = DefaultTheme
	}
	for _, manifest := range append([]*theme.Manifest{Harvest()}, extra...) {
		if err := s.Register(manifest); err != nil {
			return nil, err
		}
	}
	if _, ok := s.manifests[s.defaultTheme]; !ok {
		return nil, fmt.Errorf("%w: default %q", ErrThemeNotFound, s.defaultTheme)
	}
	return s, nil
}

// Register adds or replaces a manifest.
func (s *Selector) Register(manifest *theme.Manifest) error {
	if manifest == nil || strings.TrimSpace(manifest.Name) == "" {
		return errors.New("themes: manifest name is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.manifests[manifest.Name]; !exists {
		if err := s.registry.Register(manifest); err != nil {
			return fmt.Errorf("themes: register %q: %w", manifest.Name, err)
		}
	}
	s.manifests[manifest.Name] = manifest
	return nil
}

// Names lists registered themes.
func (s *Selector) Names() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.manifests))
	for name := range s.manifests {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Select implements theme.ThemeSelector. Unknown variants are rejected.
func (s *Selector) Select(name, variant string, _ ...theme.QueryOption) (*theme.Selection, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		name = s.defaultTheme
		if strings.TrimSpace(variant) == "" {
			variant = s.defaultVariant
		}
	}
	variant = strings.TrimSpace(variant)

	s.mu.RLock()
	manifest, ok := s.manifests[name]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrThemeNotFound, name)
	}
	if variant != "" {
		if _, ok := manifest.Variants[variant]; !ok {
			return nil, fmt.Errorf("themes: theme %q has no variant %q", name, variant)
		}
	}
	return &theme.Selection{Theme: name, Variant: variant, Manifest: manifest}, nil
}

// RendererConfig merges the manifest with its variant overlay: tokens,
// template partials and asset files. Partials fall back to fallbacks. CSS
// variables are derived from tokens as "--<token>".
func RendererConfig(selection *theme.Selection, fallbacks map[string]string) *theme.RendererConfig {
	if selection == nil || selection.Manifest == nil {
		return nil
	}
	manifest := selection.Manifest

	tokens := mergeStrings(manifest.Tokens, nil)
	partials := mergeStrings(fallbacks, manifest.Templates)
	files := mergeStrings(manifest.Assets.Files, nil)
	prefix := manifest.Assets.Prefix
	if variant, ok := manifest.Variants[selection.Variant]; ok {
		tokens = mergeStrings(tokens, variant.Tokens)
		partials = mergeStrings(partials, variant.Templates)
		files = mergeStrings(files, variant.Assets.Files)
		if variant.Assets.Prefix != "" {
			prefix = variant.Assets.Prefix
		}
	}

	vars := make(map[string]string, len(tokens))
	for key, value := range tokens {
		vars["--"+strings.TrimPrefix(key, "--")] = value
	}

	return &theme.RendererConfig{
		Theme:    selection.Theme,
		Variant:  selection.Variant,
		Tokens:   tokens,
		CSSVars:  vars,
		Partials: partials,
		AssetURL: func(key string) string {
			file, ok := files[key]
			if !ok || file == "" {
				return ""
			}
			if strings.HasPrefix(file, "/") || strings.Contains(file, "://") || prefix == "" {
				return file
			}
			return path.Join(prefix, file)
		},
	}
}

func mergeStrings(base, overlay map[string]string) map[string]string {
	out := make(map[string]string, len(base)+len(overlay))
	for key, value := range base {
		out[key] = value
	}
	for key, value := range overlay {
		out[key] = value
	}
	return out
}

type manifestFile struct {
	Name      string                 `json:"name" yaml:"name"`
	Version   string                 `json:"version" yaml:"version"`
	Tokens    map[string]string      `json:"tokens" yaml:"tokens"`
	Templates map[string]string      `json:"templates" yaml:"templates"`
	Assets    assetsFile             `json:"assets" yaml:"assets"`
	Variants  map[string]variantFile `json:"variants" yaml:"variants"`
}

type assetsFile struct {
	Prefix string            `json:"prefix" yaml:"prefix"`
	Files  map[string]string `json:"files" yaml:"files"`
}

type variantFile struct {
	Tokens    map[string]string `json:"tokens" yaml:"tokens"`
	Templates map[string]string `json:"templates" yaml:"templates"`
	Assets    assetsFile        `json:"assets" yaml:"assets"`
}

// LoadManifest reads a JSON or YAML manifest file.
func LoadManifest(file string) (*theme.Manifest, error) {
	data, err := os.ReadFile(file)
	if err != nil {
		return nil, fmt.Errorf("themes: read manifest: %w", err)
	}
	return ParseManifest(file, data)
}

// ParseManifest decodes a manifest document; name selects the format.
func ParseManifest(name string, data []byte) (*theme.Manifest, error) {
	var raw manifestFile
	switch strings.ToLower(filepath.Ext(name)) {
	case ".json":
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("themes: parse %s: %w", name, err)
		}
	default:
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("themes: parse %s: %w", name, err)
		}
	}
	if strings.TrimSpace(raw.Name) == "" {
		return nil, fmt.Errorf("themes: manifest %s has no name", name)
	}

	manifest := &theme.Manifest{
		Name:      raw.Name,
		Version:   raw.Version,
		Tokens:    raw.Tokens,
		Templates: raw.Templates,
		Assets:    theme.Assets{Prefix: raw.Assets.Prefix, Files: raw.Assets.Files},
	}
	if len(raw.Variants) > 0 {
		manifest.Variants = make(map[string]theme.Variant, len(raw.Variants))
		for key, variant := range raw.Variants {
			manifest.Variants[key] = theme.Variant{
				Tokens:    variant.Tokens,
				Templates: variant.Templates,
				Assets:    theme.Assets{Prefix: variant.Assets.Prefix, Files: variant.Assets.Files},
			}
		}
	}
	return manifest, nil
}
