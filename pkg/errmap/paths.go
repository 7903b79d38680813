package errmap

import (
	"strings"

	"github.com/goliatone/go-formflow/pkg/values"
)

// GetErrorPaths flattens a nested error object into dotted leaf paths. An
// *Object is walked in key order, a plain map in lexical key order. Arrays,
// scalars and nulls are leaves; empty nested objects contribute nothing.
func GetErrorPaths(obj any) []string {
	var out []string
	walk(obj, "", func(path string, _ any) {
		out = append(out, path)
	})
	return out
}

// walk visits every leaf of payload in enumeration order.
func walk(payload any, prefix string, visit func(path string, leaf any)) {
	join := func(key string) string {
		if prefix == "" {
			return key
		}
		return prefix + "." + key
	}
	switch typed := payload.(type) {
	case *Object:
		if typed == nil {
			return
		}
		for pair := typed.Oldest(); pair != nil; pair = pair.Next() {
			visitChild(join(pair.Key), pair.Value, visit)
		}
	case map[string]any:
		for _, key := range values.SortedKeys(typed) {
			visitChild(join(key), typed[key], visit)
		}
	}
}

func visitChild(path string, value any, visit func(path string, leaf any)) {
	switch value.(type) {
	case *Object, map[string]any:
		walk(value, path, visit)
	default:
		visit(path, value)
	}
}

// messagesOf extracts human readable messages from a leaf. Lists are
// flattened and objects inside lists contribute their "message" or "detail"
// entry.
func messagesOf(leaf any) []string {
	switch typed := leaf.(type) {
	case nil:
		return nil
	case string:
		return []string{typed}
	case []string:
		return typed
	case []any:
		var out []string
		for _, item := range typed {
			out = append(out, messagesOf(item)...)
		}
		return out
	case map[string]any:
		for _, key := range []string{"message", "detail", "msg"} {
			if msg, ok := typed[key].(string); ok {
				return []string{msg}
			}
		}
		return nil
	default:
		return []string{values.Stringify(typed)}
	}
}

// Leaves flattens payload into messages keyed by dotted path together with
// the enumeration order of those paths.
func Leaves(payload any) (order []string, messages map[string][]string) {
	messages = make(map[string][]string)
	walk(payload, "", func(path string, leaf any) {
		msgs := normalizeMessages(messagesOf(leaf))
		if len(msgs) == 0 {
			return
		}
		if _, seen := messages[path]; !seen {
			order = append(order, path)
		}
		messages[path] = append(messages[path], msgs...)
	})
	return order, messages
}

func normalizeMessages(messages []string) []string {
	if len(messages) == 0 {
		return nil
	}
	out := make([]string, 0, len(messages))
	seen := make(map[string]struct{}, len(messages))
	for _, message := range messages {
		trimmed := strings.TrimSpace(message)
		if trimmed == "" {
			continue
		}
		if _, exists := seen[trimmed]; exists {
			continue
		}
		seen[trimmed] = struct{}{}
		out = append(out, trimmed)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// MergeFormErrors concatenates non-field messages, trimming whitespace and
// dropping duplicates while preserving order.
func MergeFormErrors(existing []string, extras ...string) []string {
	combined := make([]string, 0, len(existing)+len(extras))
	combined = append(combined, existing...)
	combined = append(combined, extras...)
	return normalizeMessages(combined)
}
