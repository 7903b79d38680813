package values

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Get resolves a dotted path.
func Get(root map[string]any, path string) (any, bool) {
	if root == nil || path == "" {
		return nil, false
	}
	var current any = root
	for _, segment := range strings.Split(path, ".") {
		switch node := current.(type) {
		case map[string]any:
			next, ok := node[segment]
			if !ok {
				return nil, false
			}
			current = next
		case []any:
			idx, err := strconv.Atoi(segment)
			if err != nil || idx < 0 || idx >= len(node) {
				return nil, false
			}
			current = node[idx]
		default:
			return nil, false
		}
	}
	return current, true
}

// Set writes value at a dotted path, creating intermediate maps and slices as
// needed. Existing scalars on the way are replaced by containers.
func Set(root map[string]any, path string, value any) error {
	if root == nil {
		return fmt.Errorf("values: root map is nil")
	}
	if strings.TrimSpace(path) == "" {
		return fmt.Errorf("values: empty path")
	}
	segments := strings.Split(path, ".")
	head := segments[0]
	if len(segments) == 1 {
		root[head] = value
		return nil
	}
	child, err := setIn(root[head], segments[1:], value, path)
	if err != nil {
		return err
	}
	root[head] = child
	return nil
}

func setIn(node any, segments []string, value any, path string) (any, error) {
	segment := segments[0]
	last := len(segments) == 1

	_, isMap := node.(map[string]any)
	if idx, err := strconv.Atoi(segment); err == nil && !isMap {
		if idx < 0 {
			return nil, fmt.Errorf("values: negative index in path %q", path)
		}
		list, _ := node.([]any)
		if len(list) <= idx {
			list = append(list, make([]any, idx+1-len(list))...)
		}
		if last {
			list[idx] = value
			return list, nil
		}
		child, err := setIn(list[idx], segments[1:], value, path)
		if err != nil {
			return nil, err
		}
		list[idx] = child
		return list, nil
	}

	obj, ok := node.(map[string]any)
	if !ok || obj == nil {
		obj = make(map[string]any)
	}
	if last {
		obj[segment] = value
		return obj, nil
	}
	child, err := setIn(obj[segment], segments[1:], value, path)
	if err != nil {
		return nil, err
	}
	obj[segment] = child
	return obj, nil
}

// Flatten returns the dotted leaf paths of a value tree. Slices are leaves.
func Flatten(root map[string]any) map[string]any {
	out := make(map[string]any)
	flatten(root, "", out)
	return out
}

func flatten(node map[string]any, prefix string, out map[string]any) {
	for key, value := range node {
		path := key
		if prefix != "" {
			path = prefix + "." + key
		}
		if nested, ok := value.(map[string]any); ok && len(nested) > 0 {
			flatten(nested, path, out)
			continue
		}
		out[path] = value
	}
}

// SortedKeys returns the keys of a map in lexical order.
func SortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
