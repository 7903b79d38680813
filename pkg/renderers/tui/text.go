package tui

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/goliatone/go-formflow/pkg/formstate"
	"github.com/goliatone/go-formflow/pkg/model"
	"github.com/goliatone/go-formflow/pkg/render"
	"github.com/goliatone/go-formflow/pkg/values"
)

// TextRenderer draws a frame as plain text, for terminals and logs.
type TextRenderer struct{}

var _ render.Renderer = TextRenderer{}

// NewTextRenderer returns the plain text renderer.
func NewTextRenderer() TextRenderer {
	return TextRenderer{}
}

func (TextRenderer) Name() string {
	return "text"
}

func (TextRenderer) ContentType() string {
	return "text/plain; charset=utf-8"
}

// Render lists the stepper header, banners and either the active fields with
// their visible errors or, on the terminal step, the summary.
func (TextRenderer) Render(_ context.Context, frame render.Frame, opts render.RenderOptions) ([]byte, error) {
	render.LocalizeFrame(&frame, opts)
	logger := opts.LoggerOrNop()

	var b strings.Builder
	if frame.Title != "" {
		b.WriteString(frame.Title)
		b.WriteString("\n")
		b.WriteString(strings.Repeat("=", len(frame.Title)))
		b.WriteString("\n")
	}
	for _, tab := range frame.Steps {
		marker := " "
		switch {
		case tab.Active:
			marker = ">"
		case tab.Complete:
			marker = "x"
		}
		line := fmt.Sprintf("[%s] %d. %s", marker, tab.Index+1, tab.Label)
		if tab.HasError {
			line += " (!)"
		}
		b.WriteString(line)
		b.WriteString("\n")
	}

	if frame.Toast != nil {
		fmt.Fprintf(&b, "\n%s: %s\n", strings.ToUpper(string(frame.Toast.Level)), frame.Toast.Message)
	}
	for _, msg := range frame.NonField {
		fmt.Fprintf(&b, "! %s\n", msg)
	}

	if frame.Terminal {
		b.WriteString("\n")
		b.WriteString(summaryText(frame.Summary))
		fmt.Fprintf(&b, "\n\n[%s]\n", frame.SubmitLabel)
		return []byte(b.String()), nil
	}

	b.WriteString("\n")
	if err := writeFields(&b, frame.Fields, frame.State, "", "", opts.StrictWidgets, logger); err != nil {
		return nil, fmt.Errorf("text renderer: %w", err)
	}
	if !frame.CanAdvance {
		b.WriteString("\n(complete the required fields to continue)\n")
	}
	return []byte(b.String()), nil
}

func writeFields(b *strings.Builder, fields []model.Field, state formstate.State, prefix, indent string, strict bool, logger *zap.Logger) error {
	for _, field := range fields {
		path := field.Name
		if prefix != "" {
			path = prefix + "." + field.Name
		}
		if field.UIType != "" && !field.UIType.Valid() {
			if strict {
				return fmt.Errorf("field %q uses %q: %w", path, field.UIType, model.ErrUnknownUIType)
			}
			logger.Warn("unknown widget, rendering placeholder",
				zap.String("field", path),
				zap.String("uiType", string(field.UIType)),
			)
			fmt.Fprintf(b, "%s%s: [unsupported widget %q]\n", indent, field.DisplayLabel(), field.UIType)
			continue
		}
		switch field.UIType {
		case model.UITypeHidden:
			continue
		case model.UITypeGroup:
			fmt.Fprintf(b, "%s%s\n", indent, field.DisplayLabel())
			if err := writeFields(b, field.Nested, state, path, indent+"  ", strict, logger); err != nil {
				return err
			}
			continue
		}

		label := field.DisplayLabel()
		if field.Required {
			label += " *"
		}
		value, _ := values.Get(state.Values, path)
		fmt.Fprintf(b, "%s%s: %s\n", indent, label, render.DisplayValue(field, value))
		if field.HelpText != "" {
			fmt.Fprintf(b, "%s  %s\n", indent, field.HelpText)
		}
		for _, msg := range formstate.VisibleErrors(state, path) {
			fmt.Fprintf(b, "%s  ! %s\n", indent, msg)
		}
	}
	return nil
}
