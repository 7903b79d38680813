package errmap

import (
	"bytes"
	"encoding/json"
	"fmt"

	orderedmap "github.com/wk8/go-ordered-map/v2"

	"github.com/goliatone/go-formflow/pkg/values"
)

// Object is a decoded JSON object that keeps the backend's key order. Nested
// objects are *Object as well; arrays and scalars use encoding/json types.
type Object = orderedmap.OrderedMap[string, any]

// NewObject returns an empty Object.
func NewObject() *Object {
	return orderedmap.New[string, any]()
}

// ParseObject decodes data into an Object preserving key order at every
// nesting level.
func ParseObject(data []byte) (*Object, error) {
	raw := orderedmap.New[string, json.RawMessage]()
	if err := raw.UnmarshalJSON(data); err != nil {
		return nil, fmt.Errorf("errmap: decode error object: %w", err)
	}
	out := NewObject()
	for pair := raw.Oldest(); pair != nil; pair = pair.Next() {
		value, err := decodeValue(pair.Value)
		if err != nil {
			return nil, fmt.Errorf("errmap: decode %q: %w", pair.Key, err)
		}
		out.Set(pair.Key, value)
	}
	return out, nil
}

func decodeValue(raw json.RawMessage) (any, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		return ParseObject(trimmed)
	}
	var out any
	if err := json.Unmarshal(trimmed, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ObjectFromMap wraps a plain map, ordering keys lexically.
func ObjectFromMap(src map[string]any) *Object {
	out := NewObject()
	for _, key := range values.SortedKeys(src) {
		value := src[key]
		if nested, ok := value.(map[string]any); ok {
			out.Set(key, ObjectFromMap(nested))
			continue
		}
		out.Set(key, value)
	}
	return out
}

// ToMap converts an error payload (an *Object or a plain map) into a plain
// nested map. Unsupported inputs yield nil.
func ToMap(payload any) map[string]any {
	switch typed := payload.(type) {
	case nil:
		return nil
	case map[string]any:
		return values.CloneMap(typed)
	case *Object:
		if typed == nil {
			return nil
		}
		out := make(map[string]any, typed.Len())
		for pair := typed.Oldest(); pair != nil; pair = pair.Next() {
			if nested, ok := pair.Value.(*Object); ok {
				out[pair.Key] = ToMap(nested)
				continue
			}
			out[pair.Key] = values.Clone(pair.Value)
		}
		return out
	default:
		return nil
	}
}
