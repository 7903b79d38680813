package render_test

import (
	"context"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formflow/pkg/render"
)

type echoRenderer struct {
	name string
}

func (r echoRenderer) Name() string        { return r.name }
func (r echoRenderer) ContentType() string { return "text/plain" }
func (r echoRenderer) Render(_ context.Context, frame render.Frame, _ render.RenderOptions) ([]byte, error) {
	return []byte(frame.Title), nil
}

func TestRegistry(t *testing.T) {
	registry := render.NewRegistry()
	registry.MustRegister(echoRenderer{name: "text"})
	registry.MustRegister(echoRenderer{name: "html"})

	if err := registry.Register(echoRenderer{name: "text"}); err == nil || !strings.Contains(err.Error(), "already registered") {
		t.Fatalf("expected duplicate error, got %v", err)
	}
	if err := registry.Register(echoRenderer{}); err == nil {
		t.Fatalf("expected error for unnamed renderer")
	}
	if diff := cmp.Diff([]string{"html", "text"}, registry.List()); diff != "" {
		t.Fatalf("list mismatch (-want +got):\n%s", diff)
	}
	if registry.Has("json") {
		t.Fatalf("unexpected renderer json")
	}

	out, contentType, err := registry.Render(context.Background(), "text", render.Frame{Title: "Payroll"}, render.RenderOptions{})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if string(out) != "Payroll" || contentType != "text/plain" {
		t.Fatalf("unexpected render output %q %q", out, contentType)
	}
	if _, _, err := registry.Render(context.Background(), "json", render.Frame{}, render.RenderOptions{}); err == nil {
		t.Fatalf("expected missing renderer error")
	}
}
