// Package gotemplate configures a github.com/goliatone/go-template engine for
// the html renderer and registers the filters its templates rely on.
package gotemplate

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/flosch/pongo2/v6"
	gotpl "github.com/goliatone/go-template"

	"github.com/goliatone/go-formflow/pkg/render/template"
)

// Extension is appended to template names that carry none.
const Extension = ".tmpl"

var _ template.TemplateRenderer = (*gotpl.Engine)(nil)

// New returns an engine loading templates from files. Options are applied
// after the defaults, so callers may override the extension or add filters.
func New(files fs.FS, options ...gotpl.Option) (*gotpl.Engine, error) {
	if files == nil {
		return nil, errors.New("gotemplate: template filesystem is required")
	}
	opts := append([]gotpl.Option{
		gotpl.WithFS(files),
		gotpl.WithExtension(Extension),
		gotpl.WithTemplateFunc(Filters()),
	}, options...)

	engine, err := gotpl.NewRenderer(opts...)
	if err != nil {
		return nil, fmt.Errorf("gotemplate: %w", err)
	}
	return engine, nil
}

// Filters lists the pongo2 filters formflow templates use on top of the
// engine's own trim and lowerfirst.
func Filters() map[string]any {
	return map[string]any{
		"dom_id": pongo2.FilterFunction(filterDomID),
	}
}

// filterDomID turns a dotted field path into an element id: "lot.bags"
// becomes "fg-lot-bags".
func filterDomID(in *pongo2.Value, _ *pongo2.Value) (*pongo2.Value, *pongo2.Error) {
	raw := strings.TrimSpace(in.String())
	if raw == "" {
		return pongo2.AsValue(""), nil
	}
	var b strings.Builder
	b.WriteString("fg-")
	for _, r := range raw {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_', r == '-':
			b.WriteRune(r)
		default:
			b.WriteByte('-')
		}
	}
	return pongo2.AsValue(b.String()), nil
}
