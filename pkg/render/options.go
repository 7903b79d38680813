package render

import (
	theme "github.com/goliatone/go-theme"
	"go.uber.org/zap"
)

// RenderOptions describe per-request data that renderers can use to customise
// their output without mutating the frame.
type RenderOptions struct {
	// Method overrides the HTTP method declared by the frame. Renderers translate
	// unsupported verbs (PATCH/PUT/DELETE) into POST plus a hidden _method input.
	Method string
	// HiddenFields are emitted as hidden inputs on every step, for example CSRF
	// tokens or record versions.
	HiddenFields map[string]string
	// StrictWidgets turns unknown widget kinds into a render error instead of a
	// visible placeholder.
	StrictWidgets bool
	// Theme carries resolved go-theme tokens. Nil renders without custom
	// properties.
	Theme *theme.RendererConfig
	// Locale and Translator localise labels carrying *Key metadata.
	Locale     string
	Translator Translator
	// OnMissing customises the text used when a translation is missing.
	OnMissing MissingTranslationHandler
	// Logger receives warnings such as placeholder widgets. Nil discards them.
	Logger *zap.Logger
}

// LoggerOrNop returns the configured logger or a no-op one.
func (o RenderOptions) LoggerOrNop() *zap.Logger {
	if o.Logger == nil {
		return zap.NewNop()
	}
	return o.Logger
}
