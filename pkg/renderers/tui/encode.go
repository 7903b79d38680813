package tui

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/goliatone/go-formflow/pkg/values"
)

// Encode serializes collected values in the wizard's output format.
func (w *Wizard) Encode(collected map[string]any) ([]byte, error) {
	return Encode(w.format, collected)
}

// Encode serializes values. Form and pretty output flatten nested objects to
// dotted keys in sorted order.
func Encode(format OutputFormat, collected map[string]any) ([]byte, error) {
	switch format {
	case "", OutputFormatJSON:
		out, err := json.MarshalIndent(collected, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("tui: encode json: %w", err)
		}
		return out, nil
	case OutputFormatFormURLEncoded:
		flat := values.Flatten(collected)
		form := url.Values{}
		for _, key := range values.SortedKeys(flat) {
			for _, item := range listOf(flat[key]) {
				form.Add(key, values.Stringify(item))
			}
		}
		return []byte(form.Encode()), nil
	case OutputFormatPrettyText:
		flat := values.Flatten(collected)
		var b strings.Builder
		for _, key := range values.SortedKeys(flat) {
			parts := make([]string, 0)
			for _, item := range listOf(flat[key]) {
				parts = append(parts, values.Stringify(item))
			}
			fmt.Fprintf(&b, "%s=%s\n", key, strings.Join(parts, ","))
		}
		return []byte(b.String()), nil
	default:
		return nil, fmt.Errorf("tui: unknown output format %q", format)
	}
}
