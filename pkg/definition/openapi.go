package definition

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/spf13/cast"

	"github.com/goliatone/go-formflow/pkg/model"
)

// Extensions read from request body schemas.
const (
	// StepExtension assigns a property to a wizard step by id.
	StepExtension = "x-formflow-step"
	// StepsExtension on the operation lists steps in order as {id, label}.
	StepsExtension      = "x-formflow-steps"
	widgetExtension     = "x-formflow-widget"
	orderExtension      = "x-formflow-order"
	searchURLExtension  = "x-formflow-search-url"
	breakpointExtension = "x-formflow-breakpoints"
	defaultStepID       = "details"
	textareaThreshold   = 255
)

// ErrOperationNotFound is returned when the document has no operation with
// the requested id.
var ErrOperationNotFound = errors.New("definition: operation not found")

// FromOpenAPI builds a definition from the request body of one operation.
// With stepsBy empty every property lands in a single step; otherwise the
// named property extension (usually StepExtension) picks the step id and
// properties without it join the first step.
func FromOpenAPI(ctx context.Context, raw []byte, operationID, stepsBy string) (model.Definition, error) {
	if err := ctx.Err(); err != nil {
		return model.Definition{}, err
	}
	if len(raw) == 0 {
		return model.Definition{}, errors.New("definition: openapi document is empty")
	}

	loader := &openapi3.Loader{Context: ctx}
	doc, err := loader.LoadFromData(raw)
	if err != nil {
		return model.Definition{}, fmt.Errorf("definition: load openapi document: %w", err)
	}

	method, path, op := findOperation(doc, operationID)
	if op == nil {
		return model.Definition{}, fmt.Errorf("%w: %q", ErrOperationNotFound, operationID)
	}

	body := requestSchema(op.RequestBody)
	if body == nil || body.Value == nil {
		return model.Definition{}, fmt.Errorf("definition: operation %q has no request body schema", operationID)
	}

	fields, stepOf := objectFields(body.Value, stepsBy)
	def := model.Definition{
		ID:       operationID,
		Title:    strings.TrimSpace(op.Summary),
		Endpoint: path,
		Method:   method,
	}
	if def.Title == "" {
		def.Title = model.DefaultLabeler(operationID)
	}
	def.Steps = splitSteps(fields, stepOf, declaredSteps(op.Extensions[StepsExtension]))

	if err := def.Validate(); err != nil {
		return model.Definition{}, fmt.Errorf("definition: operation %q: %w", operationID, err)
	}
	return def, nil
}

func findOperation(doc *openapi3.T, operationID string) (string, string, *openapi3.Operation) {
	if doc == nil || doc.Paths == nil {
		return "", "", nil
	}
	paths := doc.Paths.Map()
	keys := make([]string, 0, len(paths))
	for key := range paths {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, path := range keys {
		item := paths[path]
		if item == nil {
			continue
		}
		for method, op := range item.Operations() {
			if op != nil && op.OperationID == operationID {
				return strings.ToUpper(method), path, op
			}
		}
	}
	return "", "", nil
}

func requestSchema(body *openapi3.RequestBodyRef) *openapi3.SchemaRef {
	if body == nil || body.Value == nil {
		return nil
	}
	content := body.Value.Content
	for _, mediaType := range []string{"application/json", "application/x-www-form-urlencoded", "multipart/form-data"} {
		if mt, ok := content[mediaType]; ok && mt != nil {
			return mt.Schema
		}
	}
	for _, mt := range content {
		if mt != nil {
			return mt.Schema
		}
	}
	return nil
}

type orderedField struct {
	order int
	field model.Field
}

// objectFields converts the properties of an object schema. Read-only
// properties are skipped. The returned map gives the step of each top-level
// field when stepsBy is set.
func objectFields(schema *openapi3.Schema, stepsBy string) ([]model.Field, map[string]string) {
	required := make(map[string]bool, len(schema.Required))
	for _, name := range schema.Required {
		required[name] = true
	}

	stepOf := make(map[string]string)
	collected := make([]orderedField, 0, len(schema.Properties))
	for name, ref := range schema.Properties {
		if ref == nil || ref.Value == nil || ref.Value.ReadOnly {
			continue
		}
		field := fieldFromSchema(name, ref.Value, required[name])
		order := len(schema.Properties) + 1000
		if raw, ok := ref.Value.Extensions[orderExtension]; ok {
			order = cast.ToInt(raw)
		}
		collected = append(collected, orderedField{order: order, field: field})
		if stepsBy != "" {
			if step := strings.TrimSpace(cast.ToString(ref.Value.Extensions[stepsBy])); step != "" {
				stepOf[name] = step
			}
		}
	}
	sort.SliceStable(collected, func(i, j int) bool {
		if collected[i].order != collected[j].order {
			return collected[i].order < collected[j].order
		}
		return collected[i].field.Name < collected[j].field.Name
	})

	fields := make([]model.Field, 0, len(collected))
	for _, entry := range collected {
		fields = append(fields, entry.field)
	}
	return fields, stepOf
}

// fieldFromSchema maps schema types, formats and enums onto a descriptor.
func fieldFromSchema(name string, schema *openapi3.Schema, required bool) model.Field {
	field := model.Field{
		Name:         name,
		Label:        strings.TrimSpace(schema.Title),
		HelpText:     strings.TrimSpace(schema.Description),
		Required:     required,
		InitialValue: schema.Default,
	}

	switch {
	case schema.Type.Is(openapi3.TypeObject) || len(schema.Properties) > 0:
		field.DataType = model.DataTypeObject
		field.UIType = model.UITypeGroup
		field.Nested, _ = objectFields(schema, "")
		field.InitialValue = nil
	case schema.Type.Is(openapi3.TypeArray):
		field.DataType = model.DataTypeMultiSelect
		field.UIType = model.UITypeMultiSelect
		if schema.Items != nil && schema.Items.Value != nil {
			field.Options = enumOptions(schema.Items.Value.Enum)
		}
	case len(schema.Enum) > 0:
		field.DataType = model.DataTypeSelect
		field.UIType = model.UITypeSelect
		field.Options = enumOptions(schema.Enum)
	case schema.Type.Is(openapi3.TypeBoolean):
		field.DataType = model.DataTypeBoolean
		field.UIType = model.UITypeSwitch
	case schema.Type.Is(openapi3.TypeInteger):
		field.DataType = model.DataTypeInteger
		field.UIType = model.UITypeNumber
	case schema.Type.Is(openapi3.TypeNumber):
		field.DataType = model.DataTypeNumber
		field.UIType = model.UITypeNumber
	default:
		field.DataType = model.DataTypeText
		field.UIType = stringWidget(schema)
		if field.UIType == model.UITypeDate {
			field.DataType = model.DataTypeDate
		}
	}

	if widget := strings.TrimSpace(cast.ToString(schema.Extensions[widgetExtension])); widget != "" {
		field.UIType = model.UIType(widget)
	}
	if url := strings.TrimSpace(cast.ToString(schema.Extensions[searchURLExtension])); url != "" {
		field.SearchURL = url
	}
	if raw, ok := schema.Extensions[breakpointExtension]; ok {
		spans := cast.ToStringMap(raw)
		field.Breakpoints = model.Breakpoints{
			XS: cast.ToInt(spans["xs"]),
			SM: cast.ToInt(spans["sm"]),
			MD: cast.ToInt(spans["md"]),
			LG: cast.ToInt(spans["lg"]),
			XL: cast.ToInt(spans["xl"]),
		}
	}
	field.Validations = schemaRules(schema)
	return field
}

func stringWidget(schema *openapi3.Schema) model.UIType {
	switch strings.ToLower(schema.Format) {
	case "date", "date-time":
		return model.UITypeDate
	case "email":
		return model.UITypeEmail
	case "password":
		return model.UITypePassword
	case "phone", "tel":
		return model.UITypePhone
	case "textarea":
		return model.UITypeTextarea
	}
	if schema.MaxLength != nil && *schema.MaxLength > textareaThreshold {
		return model.UITypeTextarea
	}
	return model.UITypeText
}

func enumOptions(values []any) []model.Option {
	if len(values) == 0 {
		return nil
	}
	out := make([]model.Option, 0, len(values))
	for _, value := range values {
		str := cast.ToString(value)
		out = append(out, model.Option{Label: str, Value: str})
	}
	return out
}

func schemaRules(schema *openapi3.Schema) []model.ValidationRule {
	var rules []model.ValidationRule
	if schema.Min != nil {
		rules = append(rules, valueRule(model.ValidationRuleMin, formatFloat(*schema.Min)))
	}
	if schema.Max != nil {
		rules = append(rules, valueRule(model.ValidationRuleMax, formatFloat(*schema.Max)))
	}
	if schema.MinLength > 0 {
		rules = append(rules, valueRule(model.ValidationRuleMinLength, strconv.FormatUint(schema.MinLength, 10)))
	}
	if schema.MaxLength != nil {
		rules = append(rules, valueRule(model.ValidationRuleMaxLength, strconv.FormatUint(*schema.MaxLength, 10)))
	}
	if schema.Pattern != "" {
		rules = append(rules, model.ValidationRule{
			Kind:   model.ValidationRulePattern,
			Params: map[string]string{"pattern": schema.Pattern},
		})
	}
	return rules
}

func valueRule(kind, value string) model.ValidationRule {
	return model.ValidationRule{Kind: kind, Params: map[string]string{"value": value}}
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

type stepDecl struct {
	ID    string
	Label string
}

func declaredSteps(raw any) []stepDecl {
	var out []stepDecl
	for _, entry := range cast.ToSlice(raw) {
		values := cast.ToStringMapString(entry)
		id := strings.TrimSpace(values["id"])
		if id == "" {
			continue
		}
		out = append(out, stepDecl{ID: id, Label: strings.TrimSpace(values["label"])})
	}
	return out
}

// splitSteps groups fields by step id. Declared steps keep their order;
// undeclared ids follow in order of first use. Fields without a step join the
// first step.
func splitSteps(fields []model.Field, stepOf map[string]string, declared []stepDecl) []model.Step {
	var (
		order  []string
		labels = make(map[string]string)
		byStep = make(map[string]model.Fields)
	)
	addStep := func(id, label string) {
		if _, seen := labels[id]; seen {
			return
		}
		if label == "" {
			label = model.DefaultLabeler(id)
		}
		labels[id] = label
		order = append(order, id)
	}
	for _, decl := range declared {
		addStep(decl.ID, decl.Label)
	}
	for _, field := range fields {
		if id := stepOf[field.Name]; id != "" {
			addStep(id, "")
		}
	}
	if len(order) == 0 {
		addStep(defaultStepID, "")
	}

	for _, field := range fields {
		id := stepOf[field.Name]
		if id == "" {
			id = order[0]
		}
		byStep[id] = append(byStep[id], field)
	}

	steps := make([]model.Step, 0, len(order))
	for _, id := range order {
		steps = append(steps, model.Step{ID: id, Label: labels[id], Fields: byStep[id]})
	}
	return steps
}
