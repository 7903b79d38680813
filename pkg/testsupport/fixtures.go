// Package testsupport holds helpers shared by package tests: definition
// fixtures, template output capture and recording hooks.
package testsupport

import (
	"bytes"
	"context"
	"io"
	"os"
	"sync"
	"testing"

	"github.com/goliatone/go-formflow/pkg/definition"
	"github.com/goliatone/go-formflow/pkg/model"
)

// MustLoadDefinition reads a JSON or YAML definition fixture.
func MustLoadDefinition(t *testing.T, path string) model.Definition {
	t.Helper()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read definition: %v", err)
	}
	def, err := definition.Parse(path, data)
	if err != nil {
		t.Fatalf("parse definition %s: %v", path, err)
	}
	return def
}

// MustParseDefinition parses an inline definition document; name selects the
// format by extension.
func MustParseDefinition(t *testing.T, name, doc string) model.Definition {
	t.Helper()

	def, err := definition.Parse(name, []byte(doc))
	if err != nil {
		t.Fatalf("parse definition %s: %v", name, err)
	}
	return def
}

// Context returns a background context for tests.
func Context() context.Context {
	return context.Background()
}

// CaptureTemplateOutput executes a render function that writes to an io.Writer,
// returning both the string result and the writer contents. Tests can assert
// the renderer returns and writes the same payload without duplicating buffer
// setup.
func CaptureTemplateOutput(t *testing.T, render func(io.Writer) (string, error)) (string, string) {
	t.Helper()

	var buf bytes.Buffer
	out, err := render(&buf)
	if err != nil {
		t.Fatalf("render template: %v", err)
	}

	return out, buf.String()
}

// Recorder collects values from callbacks that may run on other goroutines.
type Recorder[T any] struct {
	mu    sync.Mutex
	items []T
}

// Record appends item.
func (r *Recorder[T]) Record(item T) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items = append(r.items, item)
}

// Items returns a copy of the recorded values.
func (r *Recorder[T]) Items() []T {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]T(nil), r.items...)
}
