package template

import (
	"io"
)

// TemplateRenderer executes a named template file. The go-template engine
// satisfies it; renderers depend on the interface so tests can swap engines.
type TemplateRenderer interface {
	RenderTemplate(name string, data any, out ...io.Writer) (string, error)
}
