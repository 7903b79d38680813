package errmap

import (
	"fmt"
	"strings"
)

// ErrorSetter receives a raw backend error object.
type ErrorSetter interface {
	SetErrors(map[string]any)
}

// SetFormErrors applies errs to form when at least one error path is also a
// path of shape (typically the form's initial values). It returns true, and
// leaves form untouched, when the errors belong elsewhere. When applied, the
// full payload is passed on, including paths the form does not own.
func SetFormErrors(errs any, form ErrorSetter, shape any) bool {
	expected := make(map[string]struct{})
	for _, path := range GetErrorPaths(shape) {
		expected[path] = struct{}{}
	}
	for _, path := range GetErrorPaths(errs) {
		if _, ok := expected[path]; !ok {
			continue
		}
		if form != nil {
			form.SetErrors(ToMap(errs))
		}
		return false
	}
	return true
}

// Routing is the outcome of distributing one payload across the steps of a
// wizard.
type Routing struct {
	// Steps holds the field errors per step index. Steps without errors have
	// a nil map.
	Steps []map[string][]string
	// Flags marks the steps that received at least one error.
	Flags []bool
	// NonField collects messages no step owns.
	NonField []string
}

// HasErrors reports whether anything was routed.
func (r Routing) HasErrors() bool {
	if len(r.NonField) > 0 {
		return true
	}
	for _, flag := range r.Flags {
		if flag {
			return true
		}
	}
	return false
}

// FirstStep returns the lowest step index carrying errors, or -1.
func (r Routing) FirstStep() int {
	for idx, flag := range r.Flags {
		if flag {
			return idx
		}
	}
	return -1
}

// Route distributes payload (an *Object or a plain map) across len(shapes)
// steps. With an ownership map (model.Definition.Owners) every error path is
// looked up directly and only the owning step receives it. Without one, each
// step whose shape intersects the payload receives the whole payload, the
// behaviour of SetFormErrors. Form-level keys and paths nobody owns become
// non-field messages.
func Route(payload any, shapes []any, owners map[string]int) Routing {
	routing := Routing{
		Steps: make([]map[string][]string, len(shapes)),
		Flags: make([]bool, len(shapes)),
	}
	order, messages := Leaves(payload)
	if len(order) == 0 {
		return routing
	}
	if owners == nil {
		routeByShape(&routing, order, messages, shapes)
	} else {
		routeByOwner(&routing, order, messages, owners)
	}
	routing.NonField = normalizeMessages(routing.NonField)
	return routing
}

func routeByOwner(routing *Routing, order []string, messages map[string][]string, owners map[string]int) {
	known := make(map[string]struct{}, len(owners))
	for path := range owners {
		known[path] = struct{}{}
	}
	for _, path := range order {
		msgs := messages[path]
		if isNonFieldPath(path) {
			routing.NonField = append(routing.NonField, msgs...)
			continue
		}
		mapped, ok := matchPath(path, known)
		step := owners[mapped]
		if !ok || step < 0 || step >= len(routing.Steps) {
			routing.NonField = append(routing.NonField, unowned(path, msgs)...)
			continue
		}
		if routing.Steps[step] == nil {
			routing.Steps[step] = make(map[string][]string)
		}
		routing.Steps[step][mapped] = append(routing.Steps[step][mapped], msgs...)
		routing.Flags[step] = true
	}
}

func routeByShape(routing *Routing, order []string, messages map[string][]string, shapes []any) {
	claimed := make(map[string]bool, len(order))
	for idx, shape := range shapes {
		expected := make(map[string]struct{})
		for _, path := range GetErrorPaths(shape) {
			expected[path] = struct{}{}
		}
		hit := false
		for _, path := range order {
			if _, ok := expected[path]; ok {
				hit = true
				claimed[path] = true
			}
		}
		if !hit {
			continue
		}
		full := make(map[string][]string, len(messages))
		for path, msgs := range messages {
			full[path] = append([]string(nil), msgs...)
		}
		routing.Steps[idx] = full
		routing.Flags[idx] = true
	}
	for _, path := range order {
		if claimed[path] {
			continue
		}
		if isNonFieldPath(path) {
			routing.NonField = append(routing.NonField, messages[path]...)
			continue
		}
		routing.NonField = append(routing.NonField, unowned(path, messages[path])...)
	}
}

// isNonFieldPath matches form-level keys, also when nested under a wrapper
// such as "errors.non_field_errors".
func isNonFieldPath(path string) bool {
	if IsNonFieldKey(path) {
		return true
	}
	segments := dropWrapperSegments(parsePathSegments(path))
	return len(segments) == 1 && IsNonFieldKey(segments[0])
}

func unowned(path string, msgs []string) []string {
	out := make([]string, 0, len(msgs))
	for _, msg := range msgs {
		out = append(out, fmt.Sprintf("%s: %s", strings.TrimSpace(path), msg))
	}
	return out
}
