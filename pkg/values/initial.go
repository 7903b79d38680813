package values

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cast"

	"github.com/goliatone/go-formflow/pkg/model"
)

// InitialValues maps every descriptor name to its initial value. Object
// descriptors with nested fields produce nested maps. The result is never nil.
func InitialValues(fields []model.Field) map[string]any {
	out := make(map[string]any, len(fields))
	for _, field := range fields {
		out[field.Name] = initialFor(field)
	}
	return out
}

func initialFor(field model.Field) any {
	if len(field.Nested) == 0 {
		return Clone(field.InitialValue)
	}
	nested := InitialValues(field.Nested)
	if base, ok := field.InitialValue.(map[string]any); ok {
		return DeepMerge(nested, base)
	}
	return nested
}

// PatchInitialValues returns a function that pre-populates values from a
// fetched record. Record entries that are present and non-nil win and are
// coerced to the descriptor's effective data type; everything else falls back
// to the descriptor's initial value. A nil record yields the initial values.
func PatchInitialValues(fields []model.Field) func(record map[string]any) map[string]any {
	snapshot := append([]model.Field(nil), fields...)
	return func(record map[string]any) map[string]any {
		return patch(snapshot, record)
	}
}

func patch(fields []model.Field, record map[string]any) map[string]any {
	out := make(map[string]any, len(fields))
	for _, field := range fields {
		raw, ok := record[field.Name]
		if !ok || raw == nil {
			out[field.Name] = initialFor(field)
			continue
		}
		if len(field.Nested) > 0 {
			if nested, isMap := raw.(map[string]any); isMap {
				out[field.Name] = patch(field.Nested, nested)
				continue
			}
		}
		out[field.Name] = Coerce(field.EffectiveDataType(), raw)
	}
	return out
}

// Coerce converts a record value into the shape implied by the data type.
// Values that cannot be converted are returned unchanged so that validation,
// not patching, reports the problem.
func Coerce(dataType model.DataType, value any) any {
	if value == nil {
		return nil
	}
	switch dataType {
	case "", model.DataTypeText, model.DataTypeSelect:
		return Stringify(value)
	case model.DataTypeDate:
		if ts, ok := value.(time.Time); ok {
			return ts.Format(time.DateOnly)
		}
		return Stringify(value)
	case model.DataTypeNumber:
		if number, ok := ToFloat(value); ok {
			return number
		}
	case model.DataTypeInteger:
		if number, ok := ToFloat(value); ok && number == float64(int64(number)) {
			return int64(number)
		}
	case model.DataTypeBoolean:
		switch typed := value.(type) {
		case bool:
			return typed
		case string:
			if parsed, err := cast.ToBoolE(strings.TrimSpace(typed)); err == nil {
				return parsed
			}
		}
	case model.DataTypeMultiSelect:
		switch typed := value.(type) {
		case []any:
			out := make([]any, len(typed))
			for idx, item := range typed {
				out[idx] = Stringify(item)
			}
			return out
		case []string:
			out := make([]any, len(typed))
			for idx, item := range typed {
				out[idx] = item
			}
			return out
		}
	}
	return Clone(value)
}

// Stringify renders scalars the way a text input would display them: whole
// floats lose their decimal part. Values cast cannot convert use fmt
// formatting.
func Stringify(value any) string {
	if value == nil {
		return ""
	}
	if out, err := cast.ToStringE(value); err == nil {
		return out
	}
	return fmt.Sprint(value)
}

// ToFloat converts numbers and numeric strings. Booleans, nil and blank
// strings are not numbers.
func ToFloat(value any) (float64, bool) {
	switch typed := value.(type) {
	case nil, bool:
		return 0, false
	case string:
		typed = strings.TrimSpace(typed)
		if typed == "" {
			return 0, false
		}
		value = typed
	}
	out, err := cast.ToFloat64E(value)
	return out, err == nil
}
