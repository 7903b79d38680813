package tui_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/goliatone/go-formflow/pkg/model"
	"github.com/goliatone/go-formflow/pkg/render"
	"github.com/goliatone/go-formflow/pkg/renderers/tui"
	"github.com/goliatone/go-formflow/pkg/testsupport"
)

func TestTextRendererActiveStep(t *testing.T) {
	ctx := testsupport.Context()
	def := testsupport.MustParseDefinition(t, "hubs.yaml", hubDefinition)
	st := newHubStepper(t, def)
	_ = st.Advance(ctx)

	frame := render.FromStepper(ctx, st,
		render.WithTitle("New hub"),
		render.WithToast(render.ToastError, "Fix the highlighted fields."),
	)
	body, err := tui.NewTextRenderer().Render(ctx, frame, render.RenderOptions{})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	out := string(body)
	for _, want := range []string{
		"New hub\n=======\n",
		"[>] 1. Hub (!)",
		"[ ] 2. Extra",
		"ERROR: Fix the highlighted fields.",
		"Name *: -",
		"  ! Name is required",
		"(complete the required fields to continue)",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in output:\n%s", want, out)
		}
	}
}

func TestTextRendererSummary(t *testing.T) {
	ctx := testsupport.Context()
	def := model.Definition{
		ID:       "note",
		Endpoint: "/notes",
		Steps: []model.Step{{ID: "note", Label: "Note", Fields: model.Fields{
			{Name: "body"},
			{Name: "secret", UIType: model.UITypePassword},
		}}},
	}
	st := newHubStepper(t, def)
	form := st.Active().Form
	_ = form.Change(ctx, "body", "hello")
	_ = form.Change(ctx, "secret", "s3cret")
	if err := st.Advance(ctx); err != nil {
		t.Fatalf("Advance: %v", err)
	}

	frame := render.FromStepper(ctx, st, render.WithSubmitLabel("Send"))
	body, err := tui.NewTextRenderer().Render(ctx, frame, render.RenderOptions{})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	out := string(body)
	for _, want := range []string{"[x] 1. Note", "Body: hello", "Secret: ********", "[Send]"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in output:\n%s", want, out)
		}
	}
	if strings.Contains(out, "s3cret") {
		t.Fatalf("summary leaked a password:\n%s", out)
	}
}

func TestTextRendererUnknownWidget(t *testing.T) {
	frame := render.Frame{
		Fields:     model.Fields{{Name: "level", UIType: "slider"}},
		CanAdvance: true,
	}
	ctx := testsupport.Context()

	body, err := tui.NewTextRenderer().Render(ctx, frame, render.RenderOptions{})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if !strings.Contains(string(body), `Level: [unsupported widget "slider"]`) {
		t.Fatalf("expected placeholder, got:\n%s", body)
	}

	_, err = tui.NewTextRenderer().Render(ctx, frame, render.RenderOptions{StrictWidgets: true})
	if !errors.Is(err, model.ErrUnknownUIType) {
		t.Fatalf("expected ErrUnknownUIType in strict mode, got %v", err)
	}
}

func TestTextRendererRegistersByName(t *testing.T) {
	registry := render.NewRegistry()
	registry.MustRegister(tui.NewTextRenderer())
	_, contentType, err := registry.Render(testsupport.Context(), "text", render.Frame{Terminal: true, SubmitLabel: "Submit"}, render.RenderOptions{})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if contentType != "text/plain; charset=utf-8" {
		t.Fatalf("unexpected content type %q", contentType)
	}
}
