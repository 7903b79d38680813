package stepper

import (
	"fmt"

	"github.com/goliatone/go-formflow/pkg/formstate"
	"github.com/goliatone/go-formflow/pkg/model"
	"github.com/goliatone/go-formflow/pkg/validation"
	"github.com/goliatone/go-formflow/pkg/values"
)

// FromDefinition builds one form per step of def. When record is non-nil the
// forms are pre-populated from it through values.PatchInitialValues. Steps
// carrying a JSON Schema validate with the descriptor rules and the schema.
func FromDefinition(def model.Definition, record map[string]any, cfg formstate.Config, opts ...Option) (*Stepper, error) {
	if err := def.Validate(); err != nil {
		return nil, err
	}
	steps := make([]*Step, 0, len(def.Steps))
	for _, decl := range def.Steps {
		formOpts := []formstate.Option{formstate.WithConfig(cfg)}
		if record != nil {
			formOpts = append(formOpts, formstate.WithInitialValues(values.PatchInitialValues(decl.Fields)(record)))
		}
		if len(decl.Schema) > 0 {
			schema, err := validation.NewJSONSchema(decl.Schema)
			if err != nil {
				return nil, fmt.Errorf("stepper: step %q: %w", decl.ID, err)
			}
			formOpts = append(formOpts, formstate.WithExtraSchema(schema))
		}
		label := decl.Label
		if label == "" {
			label = model.DefaultLabeler(decl.ID)
		}
		steps = append(steps, &Step{
			ID:    decl.ID,
			Label: label,
			Form:  formstate.NewForm(decl.Fields, formOpts...),
		})
	}
	return New(steps, opts...), nil
}
