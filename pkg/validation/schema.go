// Package validation provides the per-step validators invoked by the form
// state. A Schema inspects the full value tree of a step and reports messages
// keyed by dotted field path; an empty result means the step is valid.
package validation

import (
	"context"
	"sort"
)

// Schema validates a value tree.
type Schema interface {
	Validate(ctx context.Context, values map[string]any) map[string][]string
}

// SchemaFunc adapts a function into a Schema.
type SchemaFunc func(ctx context.Context, values map[string]any) map[string][]string

// Validate calls the underlying function.
func (fn SchemaFunc) Validate(ctx context.Context, values map[string]any) map[string][]string {
	if fn == nil {
		return nil
	}
	return fn(ctx, values)
}

// All runs every schema and merges their messages per path. Nil schemas are
// skipped; duplicate messages for one path are reported once.
func All(schemas ...Schema) Schema {
	active := make([]Schema, 0, len(schemas))
	for _, schema := range schemas {
		if schema != nil {
			active = append(active, schema)
		}
	}
	return SchemaFunc(func(ctx context.Context, values map[string]any) map[string][]string {
		var out map[string][]string
		for _, schema := range active {
			out = Merge(out, schema.Validate(ctx, values))
		}
		return out
	})
}

// Merge combines two error maps without modifying either.
func Merge(base, extra map[string][]string) map[string][]string {
	if len(base) == 0 && len(extra) == 0 {
		return nil
	}
	out := make(map[string][]string, len(base)+len(extra))
	for _, src := range []map[string][]string{base, extra} {
		for path, messages := range src {
			for _, msg := range messages {
				if !contains(out[path], msg) {
					out[path] = append(out[path], msg)
				}
			}
		}
	}
	return out
}

// Paths returns the sorted keys of an error map.
func Paths(errs map[string][]string) []string {
	out := make([]string, 0, len(errs))
	for path := range errs {
		out = append(out, path)
	}
	sort.Strings(out)
	return out
}

func contains(list []string, value string) bool {
	for _, item := range list {
		if item == value {
			return true
		}
	}
	return false
}
