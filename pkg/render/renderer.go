package render

import (
	"context"
)

// Renderer converts a wizard Frame into a byte representation (HTML, text).
type Renderer interface {
	Name() string
	ContentType() string
	Render(ctx context.Context, frame Frame, options RenderOptions) ([]byte, error)
}
