package render_test

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formflow/pkg/formstate"
	"github.com/goliatone/go-formflow/pkg/model"
	"github.com/goliatone/go-formflow/pkg/render"
	"github.com/goliatone/go-formflow/pkg/stepper"
)

func depositSteps() []*stepper.Step {
	return []*stepper.Step{
		{
			ID:    "farmer",
			Label: "Farmer",
			Form: formstate.NewForm([]model.Field{
				{Name: "name", UIType: model.UITypeText, Required: true, InitialValue: "Wanjiku"},
				{Name: "pin", UIType: model.UITypePassword, InitialValue: "1234"},
				{Name: "token", UIType: model.UITypeHidden, InitialValue: "x"},
			}),
		},
		{
			ID:    "grain",
			Label: "Grain",
			Form: formstate.NewForm([]model.Field{
				{
					Name:         "commodity",
					UIType:       model.UITypeSelect,
					InitialValue: "maize",
					Options:      []model.Option{{Label: "Maize", Value: "maize"}, {Label: "Beans", Value: "beans"}},
				},
				{Name: "insured", UIType: model.UITypeSwitch, DataType: model.DataTypeBoolean, InitialValue: true},
				{
					Name:   "lot",
					UIType: model.UITypeGroup,
					Nested: []model.Field{{Name: "bags", UIType: model.UITypeNumber, DataType: model.DataTypeInteger, InitialValue: 40}},
				},
			}),
		},
	}
}

func TestFromStepper_ActiveStep(t *testing.T) {
	ctx := context.Background()
	s := stepper.New(depositSteps())
	if err := s.SetStepError(1, true); err != nil {
		t.Fatalf("set step error: %v", err)
	}

	frame := render.FromStepper(ctx, s,
		render.WithTitle("New deposit"),
		render.WithAction("patch", "/deposits/7"),
		render.WithNonFieldErrors("  ", "Hub is closed"),
		render.WithToast("", "Saved draft"),
	)

	wantTabs := []render.StepTab{
		{Index: 0, ID: "farmer", Label: "Farmer", Active: true},
		{Index: 1, ID: "grain", Label: "Grain", HasError: true},
	}
	if diff := cmp.Diff(wantTabs, frame.Steps); diff != "" {
		t.Fatalf("step tabs mismatch (-want +got):\n%s", diff)
	}
	if frame.Terminal || frame.Active != 0 {
		t.Fatalf("expected first step active, got active=%d terminal=%v", frame.Active, frame.Terminal)
	}
	if !frame.CanAdvance {
		t.Fatalf("expected valid first step to allow advancing")
	}
	if got := frame.Fields.Names(); !cmp.Equal(got, []string{"name", "pin", "token"}) {
		t.Fatalf("unexpected fields %v", got)
	}
	if frame.State.Values["name"] != "Wanjiku" {
		t.Fatalf("expected state values, got %v", frame.State.Values)
	}
	if frame.Method != "PATCH" || frame.Action != "/deposits/7" {
		t.Fatalf("unexpected action %s %s", frame.Method, frame.Action)
	}
	if diff := cmp.Diff([]string{"Hub is closed"}, frame.NonField); diff != "" {
		t.Fatalf("non-field errors mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(&render.Toast{Level: render.ToastInfo, Message: "Saved draft"}, frame.Toast); diff != "" {
		t.Fatalf("toast mismatch (-want +got):\n%s", diff)
	}
	if frame.Summary != nil {
		t.Fatalf("summary only belongs to the terminal step")
	}
}

func TestFromStepper_TerminalSummary(t *testing.T) {
	ctx := context.Background()
	s := stepper.New(depositSteps())
	for i := 0; i < 2; i++ {
		if err := s.Advance(ctx); err != nil {
			t.Fatalf("advance %d: %v", i, err)
		}
	}

	frame := render.FromStepper(ctx, s)
	if !frame.Terminal || frame.Fields != nil || frame.CanAdvance {
		t.Fatalf("expected inert terminal frame, got %+v", frame)
	}

	want := []render.SummarySection{
		{StepID: "farmer", Label: "Farmer", Items: []render.SummaryItem{
			{Path: "name", Label: "Name", Value: "Wanjiku"},
			{Path: "pin", Label: "Pin", Value: "********"},
		}},
		{StepID: "grain", Label: "Grain", Items: []render.SummaryItem{
			{Path: "commodity", Label: "Commodity", Value: "Maize"},
			{Path: "insured", Label: "Insured", Value: "Yes"},
			{Path: "lot.bags", Label: "Bags", Value: "40"},
		}},
	}
	if diff := cmp.Diff(want, frame.Summary); diff != "" {
		t.Fatalf("summary mismatch (-want +got):\n%s", diff)
	}
	for _, tab := range frame.Steps {
		if !tab.Complete || tab.Active {
			t.Fatalf("expected completed inactive tabs at the terminal step, got %+v", tab)
		}
	}
}

func TestFromStepper_ZeroSteps(t *testing.T) {
	frame := render.FromStepper(context.Background(), stepper.New(nil))
	if !frame.Terminal || frame.Active != 0 || len(frame.Steps) != 0 || len(frame.Summary) != 0 {
		t.Fatalf("unexpected zero-step frame %+v", frame)
	}
}

func TestDisplayValue(t *testing.T) {
	crops := model.Field{
		UIType:  model.UITypeMultiSelect,
		Options: []model.Option{{Label: "Maize", Value: "maize"}, {Label: "Sorghum", Value: "sorghum"}},
	}
	cases := []struct {
		field model.Field
		value any
		want  string
	}{
		{field: model.Field{UIType: model.UITypeText}, value: nil, want: "-"},
		{field: model.Field{UIType: model.UITypeText}, value: "", want: "-"},
		{field: crops, value: []any{"maize", "sorghum"}, want: "Maize, Sorghum"},
		{field: crops, value: []string{"other"}, want: "other"},
		{field: model.Field{UIType: model.UITypeSwitch}, value: false, want: "No"},
		{field: model.Field{UIType: model.UITypePassword}, value: "", want: "-"},
		{field: model.Field{UIType: model.UITypeNumber}, value: 12.5, want: "12.5"},
	}
	for _, tc := range cases {
		if got := render.DisplayValue(tc.field, tc.value); got != tc.want {
			t.Errorf("DisplayValue(%v, %#v) = %q, want %q", tc.field.UIType, tc.value, got, tc.want)
		}
	}
}
