package formstate_test

import (
	"context"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formflow/pkg/formstate"
	"github.com/goliatone/go-formflow/pkg/model"
)

func hubFields(options ...model.Option) []model.Field {
	return []model.Field{
		{Name: "hub", Label: "Hub", UIType: model.UITypeSelect, Options: options, Required: true, InitialValue: ""},
		{Name: "grainType", Label: "Grain", UIType: model.UITypeSelect, InitialValue: "maize"},
		{Name: "bags", Label: "Bags", UIType: model.UITypeNumber, DataType: model.DataTypeInteger, InitialValue: int64(0)},
	}
}

func TestReducersDoNotMutateInput(t *testing.T) {
	base := formstate.New(map[string]any{"hub": "", "farmer": map[string]any{"name": ""}})
	snapshot := base.Clone()

	next := formstate.SetField(base, "farmer.name", "Akello")
	next = formstate.SetTouched(next, "farmer.name")
	next = formstate.SetErrors(next, map[string][]string{"hub": {"required"}})
	next = formstate.MarkSubmitAttempted(next)

	if diff := cmp.Diff(snapshot, base); diff != "" {
		t.Fatalf("input state mutated (-want +got):\n%s", diff)
	}
	if got := next.Values["farmer"].(map[string]any)["name"]; got != "Akello" {
		t.Fatalf("expected nested value, got %v", got)
	}
	if !next.Dirty["farmer.name"] || !next.Touched["farmer.name"] || !next.SubmitAttempted {
		t.Fatalf("flags not set: %+v", next)
	}
	if formstate.Valid(next) {
		t.Fatalf("expected invalid state")
	}
}

func TestVisibleErrors(t *testing.T) {
	state := formstate.SetErrors(formstate.New(nil), map[string][]string{"hub": {"Hub is required"}})
	if got := formstate.VisibleErrors(state, "hub"); got != nil {
		t.Fatalf("errors should be hidden before touch, got %v", got)
	}
	touched := formstate.SetTouched(state, "hub")
	if diff := cmp.Diff([]string{"Hub is required"}, formstate.VisibleErrors(touched, "hub")); diff != "" {
		t.Fatalf("visible errors mismatch (-want +got):\n%s", diff)
	}
	attempted := formstate.MarkSubmitAttempted(state)
	if len(formstate.VisibleErrors(attempted, "hub")) != 1 {
		t.Fatalf("errors should be visible after submit attempt")
	}
}

func TestReinitializeReplacesValues(t *testing.T) {
	state := formstate.SetField(formstate.New(map[string]any{"hub": "a", "extra": 1}), "hub", "b")
	state = formstate.SetTouched(state, "hub")

	got := formstate.Reinitialize(map[string]any{"hub": "c"})
	if diff := cmp.Diff(map[string]any{"hub": "c"}, got.Values); diff != "" {
		t.Fatalf("values mismatch (-want +got):\n%s", diff)
	}
	if len(got.Touched) != 0 || len(got.Dirty) != 0 || len(got.Errors) != 0 {
		t.Fatalf("flags should be cleared: %+v", got)
	}
}

func TestFormChangeDoesNotValidateByDefault(t *testing.T) {
	ctx := context.Background()
	form := formstate.NewForm(hubFields())

	if err := form.Change(ctx, "bags", "ten"); err != nil {
		t.Fatalf("change: %v", err)
	}
	if len(form.Errors()) != 0 {
		t.Fatalf("change should not validate, got %v", form.Errors())
	}

	form.Blur(ctx, "bags")
	want := map[string][]string{
		"hub":  {"Hub is required"},
		"bags": {"Bags must be a number"},
	}
	if diff := cmp.Diff(want, form.Errors()); diff != "" {
		t.Fatalf("blur errors mismatch (-want +got):\n%s", diff)
	}
}

func TestFormValidateOnChange(t *testing.T) {
	ctx := context.Background()
	form := formstate.NewForm(hubFields(), formstate.WithConfig(formstate.Config{ValidateOnChange: true}))
	if err := form.Change(ctx, "hub", "gulu"); err != nil {
		t.Fatalf("change: %v", err)
	}
	if len(form.Errors()) != 0 {
		t.Fatalf("expected valid form, got %v", form.Errors())
	}
	if !form.IsValid(ctx) {
		t.Fatalf("expected IsValid")
	}
}

func TestFormIsValidDoesNotStoreErrors(t *testing.T) {
	form := formstate.NewForm(hubFields())
	if form.IsValid(context.Background()) {
		t.Fatalf("expected invalid form")
	}
	if len(form.Errors()) != 0 {
		t.Fatalf("IsValid must not store errors")
	}
	if form.Validate(context.Background()) {
		t.Fatalf("expected Validate to fail")
	}
	if len(form.Errors()) != 1 {
		t.Fatalf("Validate should store errors, got %v", form.Errors())
	}
}

func TestFormSetErrorsFromPayload(t *testing.T) {
	form := formstate.NewForm(hubFields())
	form.SetErrors(map[string]any{
		"hub":    "Unknown hub",
		"farmer": map[string]any{"phone": []any{"Too short", "Invalid prefix"}},
	})
	want := map[string][]string{
		"hub":          {"Unknown hub"},
		"farmer.phone": {"Too short", "Invalid prefix"},
	}
	if diff := cmp.Diff(want, form.Errors()); diff != "" {
		t.Fatalf("errors mismatch (-want +got):\n%s", diff)
	}
}

func TestFormUpdateFieldsKeepsValues(t *testing.T) {
	ctx := context.Background()
	form := formstate.NewForm(hubFields())
	if err := form.Change(ctx, "bags", int64(12)); err != nil {
		t.Fatalf("change: %v", err)
	}
	if err := form.Change(ctx, "grainType", "beans"); err != nil {
		t.Fatalf("change: %v", err)
	}

	updated := append(hubFields(model.Option{Label: "Gulu", Value: "gulu"}), model.Field{Name: "season", InitialValue: "A"})
	form.UpdateFields(updated)

	want := map[string]any{"hub": "", "grainType": "beans", "bags": int64(12), "season": "A"}
	if diff := cmp.Diff(want, form.Values()); diff != "" {
		t.Fatalf("values mismatch (-want +got):\n%s", diff)
	}
	if got := form.Fields()[0].Options; len(got) != 1 {
		t.Fatalf("expected new options, got %v", got)
	}

	form.Reset()
	if got := form.Values()["season"]; got != "A" {
		t.Fatalf("reset should keep initial value of added field, got %v", got)
	}
}

func TestFormReinitialize(t *testing.T) {
	form := formstate.NewForm(hubFields())
	form.MarkSubmitAttempted()
	form.Reinitialize(map[string]any{"hub": "lira"})
	state := form.State()
	if state.SubmitAttempted || state.Values["hub"] != "lira" || len(state.Values) != 1 {
		t.Fatalf("unexpected state after reinitialize: %+v", state)
	}
}

func TestFormConcurrentChanges(t *testing.T) {
	ctx := context.Background()
	form := formstate.NewForm(hubFields(), formstate.WithConfig(formstate.Config{ValidateOnChange: true}))
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			_ = form.Change(ctx, "bags", int64(n))
			form.Blur(ctx, "bags")
			_ = form.State()
		}(i)
	}
	wg.Wait()
	if _, ok := form.Values()["bags"].(int64); !ok {
		t.Fatalf("expected integer bags value")
	}
}
