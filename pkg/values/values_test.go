package values_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formflow/pkg/definition"
	"github.com/goliatone/go-formflow/pkg/model"
	"github.com/goliatone/go-formflow/pkg/values"
)

func depositFields() []model.Field {
	return []model.Field{
		{Name: "hub", DataType: model.DataTypeSelect, UIType: model.UITypeSelect, InitialValue: ""},
		{Name: "grainType", DataType: model.DataTypeSelect, UIType: model.UITypeSelect, InitialValue: "maize"},
		{Name: "bags", DataType: model.DataTypeInteger, UIType: model.UITypeNumber, InitialValue: int64(0)},
		{Name: "moisture", DataType: model.DataTypeNumber, UIType: model.UITypeNumber},
		{Name: "insured", DataType: model.DataTypeBoolean, UIType: model.UITypeSwitch, InitialValue: false},
		{
			Name:     "farmer",
			DataType: model.DataTypeObject,
			UIType:   model.UITypeGroup,
			Nested: []model.Field{
				{Name: "name", UIType: model.UITypeText, InitialValue: ""},
				{Name: "phone", UIType: model.UITypePhone, InitialValue: "+256"},
			},
		},
	}
}

func TestInitialValues(t *testing.T) {
	got := values.InitialValues(depositFields())
	want := map[string]any{
		"hub":       "",
		"grainType": "maize",
		"bags":      int64(0),
		"moisture":  nil,
		"insured":   false,
		"farmer":    map[string]any{"name": "", "phone": "+256"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("initial values mismatch (-want +got):\n%s", diff)
	}
}

func TestInitialValuesEmpty(t *testing.T) {
	got := values.InitialValues(nil)
	if got == nil || len(got) != 0 {
		t.Fatalf("expected empty non-nil map, got %#v", got)
	}
}

func TestInitialValuesDoesNotAliasDescriptors(t *testing.T) {
	fields := []model.Field{{Name: "tags", DataType: model.DataTypeArray, InitialValue: []any{"a"}}}
	got := values.InitialValues(fields)
	got["tags"].([]any)[0] = "mutated"
	if fields[0].InitialValue.([]any)[0] != "a" {
		t.Fatalf("descriptor initial value was mutated")
	}
}

func TestPatchInitialValues(t *testing.T) {
	patch := values.PatchInitialValues(depositFields())
	record := map[string]any{
		"hub":       float64(12),
		"bags":      "40",
		"moisture":  "13.5",
		"insured":   "true",
		"grainType": nil,
		"unrelated": "ignored",
		"farmer":    map[string]any{"name": "Akello"},
	}

	got := patch(record)
	want := map[string]any{
		"hub":       "12",
		"grainType": "maize",
		"bags":      int64(40),
		"moisture":  13.5,
		"insured":   true,
		"farmer":    map[string]any{"name": "Akello", "phone": "+256"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("patched values mismatch (-want +got):\n%s", diff)
	}

	if diff := cmp.Diff(got, patch(record)); diff != "" {
		t.Fatalf("patch is not idempotent (-first +second):\n%s", diff)
	}
}

func TestPatchInitialValuesInfersTypeFromWidget(t *testing.T) {
	data, err := os.ReadFile(filepath.Join("..", "..", "examples", "definitions", "hubs.yaml"))
	if err != nil {
		t.Fatalf("read hubs definition: %v", err)
	}
	def, err := definition.Parse("hubs.yaml", data)
	if err != nil {
		t.Fatalf("parse hubs definition: %v", err)
	}
	capacity := def.Steps[def.StepIndex("capacity")].Fields

	got := values.PatchInitialValues(capacity)(map[string]any{
		"capacityTonnes": float64(1200),
		"crops":          []any{"maize", "beans"},
		"active":         false,
	})
	want := map[string]any{
		"capacityTonnes": int64(1200),
		"crops":          []any{"maize", "beans"},
		"active":         false,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("patched values mismatch (-want +got):\n%s", diff)
	}

	commitment := []model.Field{{Name: "commitment", UIType: model.UITypeNumber}}
	if got := values.PatchInitialValues(commitment)(map[string]any{"commitment": float64(250000)}); got["commitment"] != float64(250000) {
		t.Fatalf("expected number commitment, got %#v", got["commitment"])
	}
}

func TestPatchInitialValuesNilRecord(t *testing.T) {
	fields := depositFields()
	got := values.PatchInitialValues(fields)(nil)
	if diff := cmp.Diff(values.InitialValues(fields), got); diff != "" {
		t.Fatalf("nil record should yield initial values (-want +got):\n%s", diff)
	}
}

func TestPatchInitialValuesKeepsUnconvertible(t *testing.T) {
	fields := []model.Field{{Name: "bags", DataType: model.DataTypeInteger, InitialValue: int64(0)}}
	got := values.PatchInitialValues(fields)(map[string]any{"bags": "many"})
	if got["bags"] != "many" {
		t.Fatalf("expected raw value to survive, got %#v", got["bags"])
	}
}

func TestDeepMerge(t *testing.T) {
	a := map[string]any{"x": 1, "y": map[string]any{"p": 1}}
	b := map[string]any{"y": map[string]any{"q": 2}, "z": 3}

	got := values.DeepMerge(a, b)
	want := map[string]any{"x": 1, "y": map[string]any{"p": 1, "q": 2}, "z": 3}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("merge mismatch (-want +got):\n%s", diff)
	}

	if diff := cmp.Diff(got, values.DeepMerge(a, nil, b)); diff != "" {
		t.Fatalf("nil partial changed the result (-want +got):\n%s", diff)
	}

	if diff := cmp.Diff(map[string]any{}, values.DeepMerge()); diff != "" {
		t.Fatalf("empty merge mismatch (-want +got):\n%s", diff)
	}
}

func TestDeepMergeLaterWins(t *testing.T) {
	got := values.DeepMerge(
		map[string]any{"tags": []any{"a", "b"}, "n": map[string]any{"k": 1}},
		map[string]any{"tags": []any{"c"}, "n": "flat"},
	)
	want := map[string]any{"tags": []any{"c"}, "n": "flat"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("merge mismatch (-want +got):\n%s", diff)
	}
}

func TestDeepMergeDoesNotAlias(t *testing.T) {
	a := map[string]any{"y": map[string]any{"p": 1}}
	got := values.DeepMerge(a)
	got["y"].(map[string]any)["p"] = 99
	if a["y"].(map[string]any)["p"] != 1 {
		t.Fatalf("input map was mutated through the result")
	}
}

func TestSetAndGet(t *testing.T) {
	root := map[string]any{}
	if err := values.Set(root, "farmer.address.village", "Gulu"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := values.Set(root, "lots.1.weight", 50); err != nil {
		t.Fatalf("set slice: %v", err)
	}

	want := map[string]any{
		"farmer": map[string]any{"address": map[string]any{"village": "Gulu"}},
		"lots":   []any{nil, map[string]any{"weight": 50}},
	}
	if diff := cmp.Diff(want, root); diff != "" {
		t.Fatalf("tree mismatch (-want +got):\n%s", diff)
	}

	got, ok := values.Get(root, "lots.1.weight")
	if !ok || got != 50 {
		t.Fatalf("get returned %v, %v", got, ok)
	}
	if _, ok := values.Get(root, "farmer.missing"); ok {
		t.Fatalf("expected missing path")
	}
	if err := values.Set(root, "", 1); err == nil {
		t.Fatalf("expected error for empty path")
	}
}

func TestFlatten(t *testing.T) {
	got := values.Flatten(map[string]any{
		"a":    map[string]any{"b": 1, "c": map[string]any{"d": 2}},
		"tags": []any{"x"},
	})
	want := map[string]any{"a.b": 1, "a.c.d": 2, "tags": []any{"x"}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("flatten mismatch (-want +got):\n%s", diff)
	}
}
