package tui

import (
	"go.uber.org/zap"

	"github.com/goliatone/go-formflow/pkg/options"
)

// OutputFormat controls how collected values are serialized.
type OutputFormat string

const (
	// OutputFormatJSON emits application/json payloads.
	OutputFormatJSON OutputFormat = "json"
	// OutputFormatFormURLEncoded emits application/x-www-form-urlencoded payloads.
	OutputFormatFormURLEncoded OutputFormat = "form"
	// OutputFormatPrettyText emits one path=value line per leaf.
	OutputFormatPrettyText OutputFormat = "pretty"
)

// Theme holds the prefixes printed in front of messages.
type Theme struct {
	StepPrefix  string
	InfoPrefix  string
	ErrorPrefix string
}

func defaultTheme() Theme {
	return Theme{StepPrefix: "==", InfoPrefix: "", ErrorPrefix: "!"}
}

// SubmitTransformer mutates collected values before they are returned.
type SubmitTransformer func(map[string]any) (map[string]any, error)

// Option configures a Wizard.
type Option func(*Wizard)

// WithPromptDriver overrides the prompt driver.
func WithPromptDriver(driver PromptDriver) Option {
	return func(w *Wizard) {
		if driver != nil {
			w.driver = driver
		}
	}
}

// WithOutputFormat selects the serialization used by Encode.
func WithOutputFormat(format OutputFormat) Option {
	return func(w *Wizard) {
		if format != "" {
			w.format = format
		}
	}
}

// WithRemoteOptions customises remote option sources. Choice fields backed by
// a search URL only list options when their endpoint is reachable; otherwise
// the wizard falls back to free text input.
func WithRemoteOptions(opts ...options.RemoteOption) Option {
	return func(w *Wizard) {
		w.remote = append(w.remote, opts...)
	}
}

// WithSubmitTransformer mutates collected values before they are returned.
func WithSubmitTransformer(fn SubmitTransformer) Option {
	return func(w *Wizard) {
		w.transform = fn
	}
}

// WithTheme applies message prefixes.
func WithTheme(theme Theme) Option {
	return func(w *Wizard) {
		w.theme = theme
	}
}

// WithLogger attaches a logger.
func WithLogger(logger *zap.Logger) Option {
	return func(w *Wizard) {
		if logger != nil {
			w.logger = logger
		}
	}
}
