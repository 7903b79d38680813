package template_test

import (
	"fmt"
	"io"
	"strings"
	"testing"
	"testing/fstest"

	gotpl "github.com/goliatone/go-template"

	"github.com/goliatone/go-formflow/pkg/render/template/gotemplate"
	"github.com/goliatone/go-formflow/pkg/testsupport"
)

var templatesFS = fstest.MapFS{
	"hello.tmpl":      {Data: []byte("Hello {{ name }}!")},
	"legacy.tpl":      {Data: []byte("legacy {{ name }}")},
	"use-filter.tmpl": {Data: []byte("{{ name|shout }}")},
	"escape.tmpl":     {Data: []byte("<p>{{ label }}</p>{{ help|safe }}")},
	"dom-id.tmpl":     {Data: []byte("{{ path|dom_id }}")},
	"trim.tmpl":       {Data: []byte("[{{ name|trim }}]")},
}

func TestGoTemplateEngine_RenderTemplate(t *testing.T) {
	engine := newEngine(t)

	result, written := testsupport.CaptureTemplateOutput(t, func(w io.Writer) (string, error) {
		return engine.RenderTemplate("hello", map[string]any{"name": "Ada"}, w)
	})

	want := "Hello Ada!"
	if result != want {
		t.Fatalf("render template mismatch result\nwant: %q\n got: %q", want, result)
	}
	if written != want {
		t.Fatalf("render template mismatch writer\nwant: %q\n got: %q", want, written)
	}
}

func TestGoTemplateEngine_ExtensionOverride(t *testing.T) {
	engine, err := gotemplate.New(templatesFS, gotpl.WithExtension("tpl"))
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	result, err := engine.RenderTemplate("legacy", map[string]any{"name": "form"})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if result != "legacy form" {
		t.Fatalf("unexpected render %q", result)
	}
}

func TestGoTemplateEngine_Filters(t *testing.T) {
	engine := newEngine(t)

	tests := []struct {
		name string
		tpl  string
		data map[string]any
		want string
	}{
		{name: "dom id", tpl: "dom-id", data: map[string]any{"path": "lot.bags"}, want: "fg-lot-bags"},
		{name: "empty dom id", tpl: "dom-id", data: map[string]any{"path": " "}, want: ""},
		{name: "engine trim", tpl: "trim", data: map[string]any{"name": "  maize "}, want: "[maize]"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := engine.RenderTemplate(tc.tpl, tc.data)
			if err != nil {
				t.Fatalf("render: %v", err)
			}
			if got != tc.want {
				t.Fatalf("got %q, want %q", got, tc.want)
			}
		})
	}
}

func TestGoTemplateEngine_RegisterFilter(t *testing.T) {
	engine := newEngine(t)
	err := engine.RegisterFilter("shout", func(input any, _ any) (any, error) {
		if input == nil {
			return "", nil
		}
		return fmt.Sprintf("%s!", strings.ToUpper(fmt.Sprint(input))), nil
	})
	if err != nil {
		t.Fatalf("register filter: %v", err)
	}

	result, err := engine.RenderTemplate("use-filter", map[string]any{"name": "Ada"})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if result != "ADA!" {
		t.Fatalf("unexpected filter render %q", result)
	}
}

func TestGoTemplateEngine_EscapesByDefault(t *testing.T) {
	engine := newEngine(t)

	result, err := engine.RenderTemplate("escape", map[string]any{
		"label": `<script>alert("x")</script>`,
		"help":  "<em>kg</em>",
	})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if strings.Contains(result, "<script>") {
		t.Fatalf("expected label to be escaped, got %q", result)
	}
	if !strings.Contains(result, "<em>kg</em>") {
		t.Fatalf("expected safe value to pass through, got %q", result)
	}
}

func TestGoTemplateEngine_RequiresFS(t *testing.T) {
	if _, err := gotemplate.New(nil); err == nil {
		t.Fatalf("expected error without a template filesystem")
	}
}

func newEngine(t *testing.T) *gotpl.Engine {
	t.Helper()

	engine, err := gotemplate.New(templatesFS)
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	return engine
}
