package model

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

// Step is one page of a wizard. Schema optionally carries a JSON Schema
// document validating the step's values on top of the descriptor rules.
type Step struct {
	ID     string          `json:"id" yaml:"id"`
	Label  string          `json:"label" yaml:"label"`
	Fields Fields          `json:"fields" yaml:"fields"`
	Schema json.RawMessage `json:"schema,omitempty" yaml:"-"`
	// SchemaYAML receives inline schemas from YAML documents; loaders convert
	// it into Schema.
	SchemaYAML map[string]any `json:"-" yaml:"schema,omitempty"`
}

// Definition describes a complete wizard: its steps and the endpoint the
// merged payload is sent to.
type Definition struct {
	ID             string            `json:"id" yaml:"id"`
	Title          string            `json:"title" yaml:"title"`
	Endpoint       string            `json:"endpoint" yaml:"endpoint"`
	Method         string            `json:"method,omitempty" yaml:"method,omitempty"`
	RecordEndpoint string            `json:"recordEndpoint,omitempty" yaml:"recordEndpoint,omitempty"`
	SubmitLabel    string            `json:"submitLabel,omitempty" yaml:"submitLabel,omitempty"`
	Steps          []Step            `json:"steps" yaml:"steps"`
	Metadata       map[string]string `json:"metadata,omitempty" yaml:"metadata,omitempty"`
}

// SubmitMethod returns the HTTP verb used for submission, POST by default.
func (d Definition) SubmitMethod() string {
	method := strings.ToUpper(strings.TrimSpace(d.Method))
	if method == "" {
		return http.MethodPost
	}
	return method
}

// RecordPath returns the URL of one record: RecordEndpoint with {id}
// replaced, or Endpoint followed by the escaped id.
func (d Definition) RecordPath(id string) string {
	escaped := url.PathEscape(id)
	if tpl := strings.TrimSpace(d.RecordEndpoint); tpl != "" {
		return strings.ReplaceAll(tpl, "{id}", escaped)
	}
	return strings.TrimRight(d.Endpoint, "/") + "/" + escaped
}

// UpdateMethod returns the verb used when editing an existing record. A
// definition declaring POST updates with PATCH.
func (d Definition) UpdateMethod() string {
	if method := d.SubmitMethod(); method != http.MethodPost {
		return method
	}
	return http.MethodPatch
}

// StepIndex returns the position of the step with the given id, or -1.
func (d Definition) StepIndex(id string) int {
	for idx, step := range d.Steps {
		if step.ID == id {
			return idx
		}
	}
	return -1
}

// Owners maps every dotted field path to the index of the step declaring it.
// Pages route backend errors through this map instead of guessing.
func (d Definition) Owners() map[string]int {
	owners := make(map[string]int)
	for idx, step := range d.Steps {
		for _, path := range step.Fields.Paths() {
			owners[path] = idx
		}
	}
	return owners
}

// Validate checks every step's descriptors and rejects field paths declared by
// more than one step, since step values are merged into a single payload.
func (d Definition) Validate() error {
	if strings.TrimSpace(d.ID) == "" {
		return fmt.Errorf("model: definition id is required")
	}
	owners := make(map[string]string)
	stepIDs := make(map[string]struct{}, len(d.Steps))
	for idx, step := range d.Steps {
		stepID := step.ID
		if stepID == "" {
			stepID = fmt.Sprintf("#%d", idx)
		}
		if _, exists := stepIDs[stepID]; exists {
			return fmt.Errorf("model: definition %q: duplicate step %q", d.ID, stepID)
		}
		stepIDs[stepID] = struct{}{}
		if err := step.Fields.Validate(); err != nil {
			return fmt.Errorf("model: definition %q step %q: %w", d.ID, stepID, err)
		}
		for _, field := range step.Fields {
			if previous, exists := owners[field.Name]; exists {
				return fmt.Errorf("model: definition %q: field %q declared by steps %q and %q", d.ID, field.Name, previous, stepID)
			}
			owners[field.Name] = stepID
		}
	}
	return nil
}

// AllFields concatenates the descriptors of every step in order.
func (d Definition) AllFields() Fields {
	var out Fields
	for _, step := range d.Steps {
		out = append(out, step.Fields...)
	}
	return out
}

// Clone copies steps, descriptors and metadata so decorators working on the
// copy cannot affect the original.
func (d Definition) Clone() Definition {
	out := d
	out.Steps = make([]Step, len(d.Steps))
	for idx, step := range d.Steps {
		step.Fields = step.Fields.Clone()
		out.Steps[idx] = step
	}
	out.Metadata = cloneStrings(d.Metadata)
	return out
}

// Clone deep copies the descriptors.
func (fs Fields) Clone() Fields {
	if fs == nil {
		return nil
	}
	out := make(Fields, len(fs))
	for idx, field := range fs {
		field.Metadata = cloneStrings(field.Metadata)
		field.Options = append([]Option(nil), field.Options...)
		field.Validations = append([]ValidationRule(nil), field.Validations...)
		field.Nested = Fields(field.Nested).Clone()
		out[idx] = field
	}
	return out
}

func cloneStrings(in map[string]string) map[string]string {
	if in == nil {
		return nil
	}
	out := make(map[string]string, len(in))
	for key, value := range in {
		out[key] = value
	}
	return out
}
