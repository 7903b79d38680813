package validation

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"
)

const depositSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "required": ["hub", "bags"],
  "properties": {
    "hub": { "type": "string" },
    "bags": { "type": "integer", "minimum": 1 },
    "farmer": {
      "type": "object",
      "required": ["name"],
      "properties": {
        "name": { "type": "string", "minLength": 2 }
      }
    }
  }
}`

func TestJSONSchemaValid(t *testing.T) {
	schema := MustJSONSchema([]byte(depositSchema))
	errs := schema.Validate(context.Background(), map[string]any{
		"hub":    "gulu",
		"bags":   int64(10),
		"farmer": map[string]any{"name": "Akello"},
	})
	if len(errs) != 0 {
		t.Fatalf("expected no errors, got %#v", errs)
	}
}

func TestJSONSchemaRequiredAndNested(t *testing.T) {
	schema := MustJSONSchema([]byte(depositSchema))
	errs := schema.Validate(context.Background(), map[string]any{
		"hub":    "",
		"bags":   0,
		"farmer": map[string]any{"name": "A"},
	})

	if diff := cmp.Diff([]string{"bags", "farmer.name", "hub"}, Paths(errs)); diff != "" {
		t.Fatalf("error paths mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"required"}, errs["hub"]); diff != "" {
		t.Fatalf("hub errors mismatch (-want +got):\n%s", diff)
	}
}

func TestJSONSchemaKeepEmptyStrings(t *testing.T) {
	schema := MustJSONSchema([]byte(depositSchema), KeepEmptyStrings())
	errs := schema.Validate(context.Background(), map[string]any{"hub": "", "bags": 3})
	if _, ok := errs["hub"]; ok {
		t.Fatalf("empty string should satisfy required when kept, got %#v", errs)
	}
}

func TestNewJSONSchemaRejectsEmpty(t *testing.T) {
	if _, err := NewJSONSchema(nil); err == nil {
		t.Fatalf("expected error for empty document")
	}
}

func TestCheckDefinitionSchemaValid(t *testing.T) {
	result := CheckDefinitionSchema([]byte(depositSchema))
	if !result.Valid {
		t.Fatalf("expected schema to be valid: %#v", result.Issues)
	}
}

func TestCheckDefinitionSchemaFieldPath(t *testing.T) {
	raw := []byte(`{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "properties": {
    "title": { "type": "string", "minLength": "oops" }
  }
}`)
	result := CheckDefinitionSchema(raw)
	if result.Valid {
		t.Fatalf("expected schema to be invalid")
	}
	if len(result.Issues) == 0 {
		t.Fatalf("expected validation issues")
	}
	if got := result.Issues[0].Field; got != "title" {
		t.Fatalf("expected field path title, got %q", got)
	}
}

func TestCheckDefinitionSchemaMalformed(t *testing.T) {
	result := CheckDefinitionSchema([]byte(`{"type":`))
	if result.Valid || len(result.Issues) != 1 {
		t.Fatalf("expected one issue, got %#v", result)
	}
}

func TestFieldPathFromPointer(t *testing.T) {
	cases := map[string]string{
		"":                                         "",
		"#/properties/farmer/properties/name":      "farmer.name",
		"/properties/lots/items/properties/weight": "lots.items.weight",
		"/properties/a~1b/minLength":               "a/b",
		"/$defs/hub/properties/code":               "code",
	}
	for pointer, want := range cases {
		if got := fieldPathFromPointer(pointer); got != want {
			t.Errorf("fieldPathFromPointer(%q) = %q, want %q", pointer, got, want)
		}
	}
}
