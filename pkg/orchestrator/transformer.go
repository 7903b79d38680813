package orchestrator

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-formflow/pkg/model"
)

// Transformer mutates a definition before decorators run. Implementations can
// relabel fields, inject metadata or perform arbitrary rewrites.
type Transformer interface {
	Transform(ctx context.Context, def *model.Definition) error
}

// TransformerFunc adapts plain functions to the Transformer interface.
type TransformerFunc func(ctx context.Context, def *model.Definition) error

// Transform executes the wrapped function when non-nil.
func (fn TransformerFunc) Transform(ctx context.Context, def *model.Definition) error {
	if fn == nil {
		return nil
	}
	return fn(ctx, def)
}

// Chain runs transformers in order and stops at the first error.
func Chain(transformers ...Transformer) Transformer {
	return TransformerFunc(func(ctx context.Context, def *model.Definition) error {
		for _, t := range transformers {
			if t == nil {
				continue
			}
			if err := t.Transform(ctx, def); err != nil {
				return err
			}
		}
		return nil
	})
}

// PresetTransformer applies declarative overrides loaded from a JSON or YAML
// document. The document supports definition metadata, step labels and
// per-field patches keyed by dotted path:
//
//	metadata:
//	  layout.density: compact
//	steps:
//	  farmer: Farmer details
//	fields:
//	  farmerName:
//	    label: Full name
//	    placeholder: As on the national ID
type PresetTransformer struct {
	document presetDocument
}

type presetDocument struct {
	Title       string                `json:"title" yaml:"title"`
	SubmitLabel string                `json:"submitLabel" yaml:"submitLabel"`
	Metadata    map[string]string     `json:"metadata" yaml:"metadata"`
	Steps       map[string]string     `json:"steps" yaml:"steps"`
	Fields      map[string]fieldPatch `json:"fields" yaml:"fields"`
}

type fieldPatch struct {
	Label       string            `json:"label" yaml:"label"`
	Placeholder string            `json:"placeholder" yaml:"placeholder"`
	HelpText    string            `json:"helpText" yaml:"helpText"`
	Required    *bool             `json:"required" yaml:"required"`
	Rename      string            `json:"rename" yaml:"rename"`
	Metadata    map[string]string `json:"metadata" yaml:"metadata"`
}

// NewPresetTransformer constructs a transformer from raw JSON or YAML bytes.
func NewPresetTransformer(data []byte) (*PresetTransformer, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, errors.New("preset transformer: document is empty")
	}
	var document presetDocument
	if err := yaml.Unmarshal(data, &document); err != nil {
		return nil, fmt.Errorf("preset transformer: parse document: %w", err)
	}
	return &PresetTransformer{document: document}, nil
}

// NewPresetTransformerFromFS loads a preset document from the provided
// filesystem path.
func NewPresetTransformerFromFS(fsys fs.FS, name string) (*PresetTransformer, error) {
	if fsys == nil {
		return nil, errors.New("preset transformer: filesystem is nil")
	}
	if strings.TrimSpace(name) == "" {
		return nil, errors.New("preset transformer: path is required")
	}
	data, err := fs.ReadFile(fsys, path.Clean(name))
	if err != nil {
		return nil, fmt.Errorf("preset transformer: read %s: %w", name, err)
	}
	return NewPresetTransformer(data)
}

// Transform applies the declarative patches onto the supplied definition.
func (t *PresetTransformer) Transform(ctx context.Context, def *model.Definition) error {
	if def == nil {
		return errors.New("preset transformer: definition is nil")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	if t.document.Title != "" {
		def.Title = t.document.Title
	}
	if t.document.SubmitLabel != "" {
		def.SubmitLabel = t.document.SubmitLabel
	}
	def.Metadata = mergeStringMap(def.Metadata, t.document.Metadata)

	for id, label := range t.document.Steps {
		idx := def.StepIndex(id)
		if idx < 0 {
			return fmt.Errorf("preset transformer: step %q not found", id)
		}
		def.Steps[idx].Label = label
	}

	for fieldPath, patch := range t.document.Fields {
		if err := ctx.Err(); err != nil {
			return err
		}
		field := locateField(def, fieldPath)
		if field == nil {
			return fmt.Errorf("preset transformer: field %q not found", fieldPath)
		}
		applyFieldPatch(field, patch)
	}
	return nil
}

func applyFieldPatch(field *model.Field, patch fieldPatch) {
	if patch.Label != "" {
		field.Label = patch.Label
	}
	if patch.Placeholder != "" {
		field.Placeholder = patch.Placeholder
	}
	if patch.HelpText != "" {
		field.HelpText = patch.HelpText
	}
	if patch.Required != nil {
		field.Required = *patch.Required
	}
	field.Metadata = mergeStringMap(field.Metadata, patch.Metadata)
	if name := strings.TrimSpace(patch.Rename); name != "" {
		field.Name = name
	}
}

func mergeStringMap(dst, src map[string]string) map[string]string {
	if len(src) == 0 {
		return dst
	}
	if dst == nil {
		dst = make(map[string]string, len(src))
	}
	for key, value := range src {
		dst[key] = value
	}
	return dst
}
