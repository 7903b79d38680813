package model

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// DataType is the semantic type of a field value, independent of the widget
// used to edit it.
type DataType string

const (
	DataTypeText        DataType = "text"
	DataTypeNumber      DataType = "number"
	DataTypeInteger     DataType = "integer"
	DataTypeBoolean     DataType = "boolean"
	DataTypeDate        DataType = "date"
	DataTypeSelect      DataType = "select"
	DataTypeMultiSelect DataType = "multiselect"
	DataTypeObject      DataType = "object"
	DataTypeArray       DataType = "array"
)

// Valid reports whether the data type is one of the known kinds. The empty
// value is accepted and treated as text.
func (d DataType) Valid() bool {
	switch d {
	case "", DataTypeText, DataTypeNumber, DataTypeInteger, DataTypeBoolean, DataTypeDate,
		DataTypeSelect, DataTypeMultiSelect, DataTypeObject, DataTypeArray:
		return true
	default:
		return false
	}
}

// UIType names the interactive widget that renders a field.
type UIType string

const (
	UITypeText        UIType = "text"
	UITypeTextarea    UIType = "textarea"
	UITypeNumber      UIType = "number"
	UITypeSelect      UIType = "select"
	UITypeMultiSelect UIType = "multiselect"
	UITypeDate        UIType = "date"
	UITypeSwitch      UIType = "switch"
	UITypePhone       UIType = "phone"
	UITypeEmail       UIType = "email"
	UITypePassword    UIType = "password"
	UITypeHidden      UIType = "hidden"
	UITypeGroup       UIType = "group"
)

// UITypes lists every widget kind renderers are expected to handle.
func UITypes() []UIType {
	return []UIType{
		UITypeText, UITypeTextarea, UITypeNumber, UITypeSelect, UITypeMultiSelect,
		UITypeDate, UITypeSwitch, UITypePhone, UITypeEmail, UITypePassword,
		UITypeHidden, UITypeGroup,
	}
}

// Valid reports whether the widget kind is known.
func (u UIType) Valid() bool {
	for _, known := range UITypes() {
		if u == known {
			return true
		}
	}
	return false
}

// Choice reports whether the widget picks from an option list.
func (u UIType) Choice() bool {
	return u == UITypeSelect || u == UITypeMultiSelect
}

const (
	ValidationRuleMin       = "min"
	ValidationRuleMax       = "max"
	ValidationRuleMinLength = "minLength"
	ValidationRuleMaxLength = "maxLength"
	ValidationRulePattern   = "pattern"
	ValidationRuleEmail     = "email"
)

// ValidationRule represents a single constraint applied to a field. Numeric
// bounds and length limits encode their threshold in Params["value"], pattern
// rules keep the expression in Params["pattern"]. Params["message"] overrides
// the default error text.
type ValidationRule struct {
	Kind   string            `json:"kind" yaml:"kind"`
	Params map[string]string `json:"params,omitempty" yaml:"params,omitempty"`
}

// Option is a single entry of a choice widget.
type Option struct {
	Label string `json:"label" yaml:"label"`
	Value string `json:"value" yaml:"value"`
}

// SearchFunc refreshes the option list of a field for the supplied query.
type SearchFunc func(ctx context.Context, query string) ([]Option, error)

// Breakpoints holds column spans (out of 12) per screen-size bucket.
type Breakpoints struct {
	XS int `json:"xs,omitempty" yaml:"xs,omitempty"`
	SM int `json:"sm,omitempty" yaml:"sm,omitempty"`
	MD int `json:"md,omitempty" yaml:"md,omitempty"`
	LG int `json:"lg,omitempty" yaml:"lg,omitempty"`
	XL int `json:"xl,omitempty" yaml:"xl,omitempty"`
}

// Field declares one form input.
type Field struct {
	Name         string            `json:"name" yaml:"name"`
	InitialValue any               `json:"initialValue,omitempty" yaml:"initialValue,omitempty"`
	Label        string            `json:"label,omitempty" yaml:"label,omitempty"`
	DataType     DataType          `json:"dataType,omitempty" yaml:"dataType,omitempty"`
	UIType       UIType            `json:"uiType" yaml:"uiType"`
	Options      []Option          `json:"options,omitempty" yaml:"options,omitempty"`
	Search       SearchFunc        `json:"-" yaml:"-"`
	SearchURL    string            `json:"searchUrl,omitempty" yaml:"searchUrl,omitempty"`
	Breakpoints  Breakpoints       `json:"uiBreakpoints,omitempty" yaml:"uiBreakpoints,omitempty"`
	Required     bool              `json:"required,omitempty" yaml:"required,omitempty"`
	Placeholder  string            `json:"placeholder,omitempty" yaml:"placeholder,omitempty"`
	HelpText     string            `json:"helpText,omitempty" yaml:"helpText,omitempty"`
	Validations  []ValidationRule  `json:"validations,omitempty" yaml:"validations,omitempty"`
	Nested       []Field           `json:"nested,omitempty" yaml:"nested,omitempty"`
	Metadata     map[string]string `json:"metadata,omitempty" yaml:"metadata,omitempty"`
}

// DisplayLabel returns the label, deriving one from the name when unset.
func (f Field) DisplayLabel() string {
	if label := strings.TrimSpace(f.Label); label != "" {
		return label
	}
	return DefaultLabeler(f.Name)
}

// EffectiveDataType returns the declared data type or, when none is set, the
// one implied by the widget: switches hold booleans, number inputs hold
// numbers, multi-selects hold lists and date pickers hold dates.
func (f Field) EffectiveDataType() DataType {
	if f.DataType != "" {
		return f.DataType
	}
	switch f.UIType {
	case UITypeSwitch:
		return DataTypeBoolean
	case UITypeNumber:
		return DataTypeNumber
	case UITypeMultiSelect:
		return DataTypeMultiSelect
	case UITypeDate:
		return DataTypeDate
	}
	return ""
}

// Fields is an ordered descriptor array.
type Fields []Field

// Names returns the top-level names in declared order.
func (fs Fields) Names() []string {
	out := make([]string, 0, len(fs))
	for _, field := range fs {
		out = append(out, field.Name)
	}
	return out
}

// Paths returns every dotted path the descriptors can produce, including
// object containers and their nested leaves.
func (fs Fields) Paths() []string {
	var out []string
	collectPaths(fs, "", &out)
	return out
}

// Lookup finds a descriptor by dotted path.
func (fs Fields) Lookup(path string) (Field, bool) {
	segments := strings.Split(path, ".")
	current := fs
	for idx, segment := range segments {
		found := false
		for _, field := range current {
			if field.Name != segment {
				continue
			}
			if idx == len(segments)-1 {
				return field, true
			}
			current = field.Nested
			found = true
			break
		}
		if !found {
			return Field{}, false
		}
	}
	return Field{}, false
}

// Validate rejects empty or duplicate names and unknown data types. Collisions
// would silently overwrite values and error paths. Unknown widget kinds pass:
// renderers show a placeholder for them or fail with ErrUnknownUIType.
func (fs Fields) Validate() error {
	return validateFields(fs, "")
}

func validateFields(fields []Field, prefix string) error {
	seen := make(map[string]struct{}, len(fields))
	for idx, field := range fields {
		name := strings.TrimSpace(field.Name)
		if name == "" {
			return fmt.Errorf("model: field #%d under %q has no name", idx, prefix)
		}
		if strings.Contains(name, ".") {
			return fmt.Errorf("model: field name %q must not contain dots", joinPath(prefix, name))
		}
		path := joinPath(prefix, name)
		if _, exists := seen[name]; exists {
			return fmt.Errorf("model: duplicate field name %q", path)
		}
		seen[name] = struct{}{}
		if !field.DataType.Valid() {
			return fmt.Errorf("model: field %q has unknown data type %q", path, field.DataType)
		}
		if len(field.Nested) > 0 {
			if err := validateFields(field.Nested, path); err != nil {
				return err
			}
		}
	}
	return nil
}

// ErrUnknownUIType flags descriptors whose widget kind no renderer handles.
var ErrUnknownUIType = errors.New("model: unknown ui type")

func collectPaths(fields []Field, prefix string, out *[]string) {
	for _, field := range fields {
		path := joinPath(prefix, field.Name)
		*out = append(*out, path)
		if len(field.Nested) > 0 {
			collectPaths(field.Nested, path, out)
		}
	}
}

func joinPath(parent, child string) string {
	parent = strings.TrimSpace(parent)
	child = strings.TrimSpace(child)
	if parent == "" {
		return child
	}
	if child == "" {
		return parent
	}
	return parent + "." + child
}
