package validation

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"github.com/santhosh-tekuri/jsonschema/v6/kind"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const resourceURL = "formflow://step.schema.json"

// SchemaIssue represents a problem found in a schema document with optional
// location metadata.
type SchemaIssue struct {
	Path    string `json:"path,omitempty"`
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
}

// SchemaValidationResult captures the outcome of CheckDefinitionSchema.
type SchemaValidationResult struct {
	Valid  bool          `json:"valid"`
	Issues []SchemaIssue `json:"issues,omitempty"`
}

// JSONSchema validates step values against a compiled JSON Schema document.
type JSONSchema struct {
	schema    *jsonschema.Schema
	printer   *message.Printer
	keepEmpty bool
}

// JSONSchemaOption customises a JSONSchema validator.
type JSONSchemaOption func(*JSONSchema)

// WithLanguage selects the language used for error messages.
func WithLanguage(tag language.Tag) JSONSchemaOption {
	return func(s *JSONSchema) {
		s.printer = message.NewPrinter(tag)
	}
}

// KeepEmptyStrings validates empty strings as values. By default empty
// strings and nil values are removed first so that "required" reports blank
// inputs.
func KeepEmptyStrings() JSONSchemaOption {
	return func(s *JSONSchema) {
		s.keepEmpty = true
	}
}

// NewJSONSchema compiles raw into a validator.
func NewJSONSchema(raw []byte, opts ...JSONSchemaOption) (*JSONSchema, error) {
	compiled, err := compileSchema(raw)
	if err != nil {
		return nil, err
	}
	out := &JSONSchema{
		schema:  compiled,
		printer: message.NewPrinter(language.English),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(out)
		}
	}
	return out, nil
}

// MustJSONSchema panics when raw does not compile.
func MustJSONSchema(raw []byte, opts ...JSONSchemaOption) *JSONSchema {
	out, err := NewJSONSchema(raw, opts...)
	if err != nil {
		panic(err)
	}
	return out
}

func compileSchema(raw []byte) (*jsonschema.Schema, error) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, errors.New("validation: schema document is empty")
	}
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("validation: decode schema: %w", err)
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(resourceURL, doc); err != nil {
		return nil, fmt.Errorf("validation: add schema resource: %w", err)
	}
	compiled, err := compiler.Compile(resourceURL)
	if err != nil {
		return nil, fmt.Errorf("validation: compile schema: %w", err)
	}
	return compiled, nil
}

// Validate implements Schema. Leaf causes are keyed by their dotted instance
// path; a missing required property is keyed by the property path.
func (s *JSONSchema) Validate(_ context.Context, tree map[string]any) map[string][]string {
	if s == nil || s.schema == nil {
		return nil
	}
	if !s.keepEmpty {
		tree = pruneEmpty(tree)
	}
	instance, err := toInstance(tree)
	if err != nil {
		return map[string][]string{"": {err.Error()}}
	}
	err = s.schema.Validate(instance)
	if err == nil {
		return nil
	}
	var verr *jsonschema.ValidationError
	if !errors.As(err, &verr) {
		return map[string][]string{"": {err.Error()}}
	}
	out := make(map[string][]string)
	s.collect(verr, out)
	return out
}

func (s *JSONSchema) collect(verr *jsonschema.ValidationError, out map[string][]string) {
	if len(verr.Causes) > 0 {
		for _, cause := range verr.Causes {
			s.collect(cause, out)
		}
		return
	}
	base := strings.Join(verr.InstanceLocation, ".")
	msg := verr.ErrorKind.LocalizedString(s.printer)
	if required, ok := verr.ErrorKind.(*kind.Required); ok {
		for _, missing := range required.Missing {
			path := missing
			if base != "" {
				path = base + "." + missing
			}
			out[path] = append(out[path], "required")
		}
		return
	}
	out[base] = append(out[base], msg)
}

// toInstance round-trips values through JSON so the validator sees the same
// number and slice representations a backend would receive.
func toInstance(tree map[string]any) (any, error) {
	if tree == nil {
		tree = map[string]any{}
	}
	raw, err := json.Marshal(tree)
	if err != nil {
		return nil, fmt.Errorf("validation: encode values: %w", err)
	}
	return jsonschema.UnmarshalJSON(bytes.NewReader(raw))
}

func pruneEmpty(tree map[string]any) map[string]any {
	out := make(map[string]any, len(tree))
	for key, value := range tree {
		switch typed := value.(type) {
		case nil:
			continue
		case string:
			if strings.TrimSpace(typed) == "" {
				continue
			}
		case map[string]any:
			value = pruneEmpty(typed)
		}
		out[key] = value
	}
	return out
}

// CheckDefinitionSchema reports whether raw is a usable JSON Schema document.
func CheckDefinitionSchema(raw []byte) SchemaValidationResult {
	if _, err := compileSchema(raw); err != nil {
		return SchemaValidationResult{Issues: []SchemaIssue{issueFromError(err)}}
	}
	return SchemaValidationResult{Valid: true}
}

func issueFromError(err error) SchemaIssue {
	if err == nil {
		return SchemaIssue{Message: "unknown error"}
	}
	var schemaErr *jsonschema.SchemaValidationError
	if errors.As(err, &schemaErr) {
		if verr, ok := schemaErr.Err.(*jsonschema.ValidationError); ok {
			leaf := firstLeaf(verr)
			path := "/" + strings.Join(leaf.InstanceLocation, "/")
			return SchemaIssue{
				Path:    path,
				Field:   fieldPathFromPointer(path),
				Message: leaf.ErrorKind.LocalizedString(message.NewPrinter(language.English)),
			}
		}
	}

	msg := strings.TrimSpace(err.Error())
	path := extractJSONPointer(msg)
	if path != "" {
		msg = strings.Replace(msg, " at "+path, "", 1)
	}
	msg = strings.TrimPrefix(msg, "validation: ")
	return SchemaIssue{
		Path:    path,
		Field:   fieldPathFromPointer(path),
		Message: strings.TrimSpace(msg),
	}
}

func firstLeaf(verr *jsonschema.ValidationError) *jsonschema.ValidationError {
	for len(verr.Causes) > 0 {
		verr = verr.Causes[0]
	}
	return verr
}

func extractJSONPointer(message string) string {
	if idx := strings.LastIndex(message, "#/"); idx >= 0 {
		return strings.TrimRight(strings.TrimSpace(message[idx:]), ".)];,'\"")
	}
	return ""
}

// fieldPathFromPointer turns a schema pointer such as
// "/properties/farmer/properties/name/minLength" into the field path
// "farmer.name". Keyword segments are dropped.
func fieldPathFromPointer(pointer string) string {
	trimmed := strings.TrimSpace(pointer)
	trimmed = strings.TrimPrefix(trimmed, "#")
	trimmed = strings.TrimPrefix(trimmed, "/")
	if trimmed == "" {
		return ""
	}

	parts := strings.Split(trimmed, "/")
	out := make([]string, 0, len(parts))
	for idx := 0; idx < len(parts); idx++ {
		segment := unescapePointer(parts[idx])
		switch segment {
		case "properties":
			if idx+1 < len(parts) {
				out = append(out, unescapePointer(parts[idx+1]))
				idx++
			}
		case "items":
			out = append(out, "items")
		}
	}
	return strings.Join(out, ".")
}

func unescapePointer(segment string) string {
	segment = strings.ReplaceAll(segment, "~1", "/")
	return strings.ReplaceAll(segment, "~0", "~")
}
