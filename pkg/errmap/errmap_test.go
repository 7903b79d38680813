package errmap_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/goliatone/go-formflow/pkg/errmap"
	"github.com/goliatone/go-formflow/pkg/model"
)

type recordingForm struct {
	calls []map[string]any
}

func (f *recordingForm) SetErrors(errs map[string]any) {
	f.calls = append(f.calls, errs)
}

func mustParse(t *testing.T, raw string) *errmap.Object {
	t.Helper()
	obj, err := errmap.ParseObject([]byte(raw))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	return obj
}

func TestGetErrorPathsKeepsKeyOrder(t *testing.T) {
	obj := mustParse(t, `{"a": {"b": "msg", "c": "msg2"}, "d": "msg3"}`)
	if diff := cmp.Diff([]string{"a.b", "a.c", "d"}, errmap.GetErrorPaths(obj)); diff != "" {
		t.Fatalf("paths mismatch (-want +got):\n%s", diff)
	}

	reversed := mustParse(t, `{"z": "x", "m": {"y": "1", "b": "2"}}`)
	if diff := cmp.Diff([]string{"z", "m.y", "m.b"}, errmap.GetErrorPaths(reversed)); diff != "" {
		t.Fatalf("paths mismatch (-want +got):\n%s", diff)
	}
}

func TestGetErrorPathsPlainMap(t *testing.T) {
	got := errmap.GetErrorPaths(map[string]any{
		"farmer": map[string]any{"phone": []any{"too short"}, "name": "required"},
		"bags":   nil,
		"empty":  map[string]any{},
	})
	if diff := cmp.Diff([]string{"bags", "farmer.name", "farmer.phone"}, got); diff != "" {
		t.Fatalf("paths mismatch (-want +got):\n%s", diff)
	}
	if got := errmap.GetErrorPaths(nil); got != nil {
		t.Fatalf("expected nil paths, got %v", got)
	}
}

func TestSetFormErrorsApplies(t *testing.T) {
	form := &recordingForm{}
	routed := errmap.SetFormErrors(map[string]any{"x": "err"}, form, map[string]any{"x": "", "y": ""})
	if routed {
		t.Fatalf("expected false when errors belong to the form")
	}
	if diff := cmp.Diff([]map[string]any{{"x": "err"}}, form.calls); diff != "" {
		t.Fatalf("SetErrors calls mismatch (-want +got):\n%s", diff)
	}
}

func TestSetFormErrorsAppliesFullPayload(t *testing.T) {
	form := &recordingForm{}
	payload := mustParse(t, `{"x": "err", "other": {"z": "elsewhere"}}`)
	if errmap.SetFormErrors(payload, form, map[string]any{"x": ""}) {
		t.Fatalf("expected false")
	}
	want := []map[string]any{{"x": "err", "other": map[string]any{"z": "elsewhere"}}}
	if diff := cmp.Diff(want, form.calls); diff != "" {
		t.Fatalf("SetErrors calls mismatch (-want +got):\n%s", diff)
	}
}

func TestSetFormErrorsSkipsUnrelated(t *testing.T) {
	form := &recordingForm{}
	if !errmap.SetFormErrors(map[string]any{"unrelatedField": "err"}, form, map[string]any{"x": ""}) {
		t.Fatalf("expected true for unrelated errors")
	}
	if len(form.calls) != 0 {
		t.Fatalf("SetErrors must not be called, got %v", form.calls)
	}
}

func depositDefinition() model.Definition {
	return model.Definition{
		ID: "deposit",
		Steps: []model.Step{
			{ID: "farmer", Fields: model.Fields{{Name: "farmer", Nested: []model.Field{{Name: "name"}, {Name: "phone"}}}}},
			{ID: "grain", Fields: model.Fields{{Name: "grainType"}, {Name: "bags"}}},
			{ID: "storage", Fields: model.Fields{{Name: "hub"}, {Name: "lots", DataType: model.DataTypeArray}}},
		},
	}
}

func TestRouteByOwner(t *testing.T) {
	def := depositDefinition()
	payload := mustParse(t, `{
		"bags": ["Must be positive"],
		"farmer": {"phone": "Invalid number"},
		"lots[0]": "Lot closed",
		"non_field_errors": ["Hub is full"],
		"season": "Unknown season",
		"detail": "Validation failed"
	}`)

	got := errmap.Route(payload, make([]any, len(def.Steps)), def.Owners())
	want := errmap.Routing{
		Steps: []map[string][]string{
			{"farmer.phone": {"Invalid number"}},
			{"bags": {"Must be positive"}},
			{"lots": {"Lot closed"}},
		},
		Flags:    []bool{true, true, true},
		NonField: []string{"Hub is full", "season: Unknown season", "Validation failed"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("routing mismatch (-want +got):\n%s", diff)
	}
	if got.FirstStep() != 0 || !got.HasErrors() {
		t.Fatalf("unexpected summary: first=%d has=%v", got.FirstStep(), got.HasErrors())
	}
}

func TestRouteByShapeAppliesFullPayload(t *testing.T) {
	shapes := []any{
		map[string]any{"farmer": map[string]any{"name": "", "phone": ""}},
		map[string]any{"grainType": "", "bags": 0},
		map[string]any{"hub": ""},
	}
	payload := map[string]any{"bags": "Must be positive", "farmer": map[string]any{"name": "Required"}}

	got := errmap.Route(payload, shapes, nil)
	full := map[string][]string{"bags": {"Must be positive"}, "farmer.name": {"Required"}}
	want := errmap.Routing{
		Steps: []map[string][]string{full, full, nil},
		Flags: []bool{true, true, false},
	}
	if diff := cmp.Diff(want, got, cmpopts.EquateEmpty()); diff != "" {
		t.Fatalf("routing mismatch (-want +got):\n%s", diff)
	}
}

func TestRouteEmptyPayload(t *testing.T) {
	got := errmap.Route(nil, []any{nil, nil}, map[string]int{})
	if got.HasErrors() || got.FirstStep() != -1 || len(got.Steps) != 2 {
		t.Fatalf("unexpected routing: %+v", got)
	}
}

func TestNormalize(t *testing.T) {
	fields := []model.Field{
		{Name: "hub"},
		{Name: "farmer", Nested: []model.Field{{Name: "name"}, {Name: "phone"}}},
		{Name: "lots", DataType: model.DataTypeArray},
	}
	payload := map[string][]string{
		"/body/hub":                 {"Hub is required"},
		"data.farmer.name":          {"Name invalid"},
		"$.body.lots[0]":            {"Lot closed"},
		"request.payload.farmer":    {"Farmer missing"},
		"non_field_errors":          {"Form level error"},
		"body/farmer/phone/~1intl":  {"Phone malformed"},
		"request/body/unknown":      {"Falls back to form"},
		"":                          {"Unscoped", " Unscoped "},
	}

	got := errmap.Normalize(fields, payload)
	wantFields := map[string][]string{
		"hub":          {"Hub is required"},
		"farmer.name":  {"Name invalid"},
		"lots":         {"Lot closed"},
		"farmer":       {"Farmer missing"},
		"farmer.phone": {"Phone malformed"},
	}
	if diff := cmp.Diff(wantFields, got.Fields); diff != "" {
		t.Fatalf("field errors mismatch (-want +got):\n%s", diff)
	}
	wantForm := []string{"Falls back to form", "Form level error", "Unscoped"}
	if diff := cmp.Diff(wantForm, got.Form, cmpopts.SortSlices(func(a, b string) bool { return a < b })); diff != "" {
		t.Fatalf("form errors mismatch (-want +got):\n%s", diff)
	}
}

func TestMergeFormErrors(t *testing.T) {
	merged := errmap.MergeFormErrors([]string{" First ", "Second"}, "Second", "third", "  ")
	if diff := cmp.Diff([]string{"First", "Second", "third"}, merged); diff != "" {
		t.Fatalf("merged form errors mismatch (-want +got):\n%s", diff)
	}
}

func TestToMapRoundTrip(t *testing.T) {
	obj := errmap.ObjectFromMap(map[string]any{"b": "2", "a": map[string]any{"c": []any{"x"}}})
	if diff := cmp.Diff([]string{"a.c", "b"}, errmap.GetErrorPaths(obj)); diff != "" {
		t.Fatalf("paths mismatch (-want +got):\n%s", diff)
	}
	want := map[string]any{"b": "2", "a": map[string]any{"c": []any{"x"}}}
	if diff := cmp.Diff(want, errmap.ToMap(obj)); diff != "" {
		t.Fatalf("map mismatch (-want +got):\n%s", diff)
	}
}
