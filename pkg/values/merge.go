package values

// DeepMerge combines partial value maps left to right. Nested maps are merged
// recursively, scalars and slices from later arguments replace earlier ones,
// and nil partials are skipped. The result shares no maps or slices with the
// inputs.
func DeepMerge(partials ...map[string]any) map[string]any {
	out := make(map[string]any)
	for _, partial := range partials {
		if partial == nil {
			continue
		}
		mergeInto(out, partial)
	}
	return out
}

func mergeInto(dst, src map[string]any) {
	for key, value := range src {
		incoming, incomingIsMap := value.(map[string]any)
		existing, existingIsMap := dst[key].(map[string]any)
		if incomingIsMap && existingIsMap {
			mergeInto(existing, incoming)
			continue
		}
		dst[key] = Clone(value)
	}
}

// Clone deep copies nested maps and slices. Other values are returned as is.
func Clone(value any) any {
	switch typed := value.(type) {
	case map[string]any:
		clone := make(map[string]any, len(typed))
		for k, v := range typed {
			clone[k] = Clone(v)
		}
		return clone
	case []any:
		clone := make([]any, len(typed))
		for i, v := range typed {
			clone[i] = Clone(v)
		}
		return clone
	case []string:
		return append([]string(nil), typed...)
	default:
		return typed
	}
}

// CloneMap deep copies a value map, returning an empty map for nil input.
func CloneMap(src map[string]any) map[string]any {
	if len(src) == 0 {
		return make(map[string]any)
	}
	return Clone(src).(map[string]any)
}
