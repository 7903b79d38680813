package html

import (
	"fmt"
	"sort"
	"strings"

	theme "github.com/goliatone/go-theme"

	"github.com/goliatone/go-formflow/pkg/model"
)

const themeStylesheetAsset = "html.stylesheet"

// controlID turns a dotted path into an element id, "lot.bags" becomes
// "fg-lot-bags". It matches the dom_id template filter.
func controlID(path string) string {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return ""
	}
	var b strings.Builder
	b.WriteString("fg-")
	for _, r := range trimmed {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_', r == '-':
			b.WriteRune(r)
		default:
			b.WriteByte('-')
		}
	}
	return b.String()
}

// gridClasses maps breakpoint spans onto grid utility classes. Spans are
// clamped to [1, 12]; without any span the cell covers the full row.
func gridClasses(bp model.Breakpoints) string {
	classes := []string{"col-span-" + span(bp.XS)}
	for _, entry := range []struct {
		prefix string
		value  int
	}{
		{"sm:", bp.SM},
		{"md:", bp.MD},
		{"lg:", bp.LG},
		{"xl:", bp.XL},
	} {
		if entry.value > 0 {
			classes = append(classes, entry.prefix+"col-span-"+span(entry.value))
		}
	}
	return strings.Join(classes, " ")
}

func span(value int) string {
	switch {
	case value <= 0 || value > 12:
		return "12"
	default:
		return fmt.Sprint(value)
	}
}

type themeContext struct {
	Name       string
	Variant    string
	Style      string
	Stylesheet string
	Partials   map[string]string
}

func buildThemeContext(cfg *theme.RendererConfig) themeContext {
	if cfg == nil {
		return themeContext{}
	}
	vars := copyStringMap(cfg.CSSVars)
	if len(vars) == 0 && len(cfg.Tokens) > 0 {
		vars = make(map[string]string, len(cfg.Tokens))
		for key, value := range cfg.Tokens {
			vars["--"+strings.TrimPrefix(key, "--")] = value
		}
	}
	ctx := themeContext{
		Name:     cfg.Theme,
		Variant:  cfg.Variant,
		Style:    cssVarsStyle(vars),
		Partials: copyStringMap(cfg.Partials),
	}
	if cfg.AssetURL != nil {
		ctx.Stylesheet = cfg.AssetURL(themeStylesheetAsset)
	}
	return ctx
}

func (t themeContext) templateData() map[string]any {
	return map[string]any{
		"name":    t.Name,
		"variant": t.Variant,
		"style":   t.Style,
	}
}

func cssVarsStyle(vars map[string]string) string {
	if len(vars) == 0 {
		return ""
	}
	keys := make([]string, 0, len(vars))
	for key := range vars {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, key := range keys {
		name := strings.TrimSpace(key)
		value := strings.TrimSpace(vars[key])
		if name == "" || value == "" || strings.ContainsAny(value, ";{}<>\"") {
			continue
		}
		parts = append(parts, name+": "+value)
	}
	return strings.Join(parts, "; ")
}

func copyStringMap(in map[string]string) map[string]string {
	if len(in) == 0 {
		return nil
	}
	out := make(map[string]string, len(in))
	for key, value := range in {
		out[key] = value
	}
	return out
}
