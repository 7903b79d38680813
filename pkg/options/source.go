// Package options supplies the option lists of choice widgets: static lists,
// remote endpoints and typeahead searches that discard stale responses.
package options

import (
	"context"
	"strings"

	"github.com/goliatone/go-formflow/pkg/model"
)

// Source returns the options matching query. An empty query lists the
// default options.
type Source interface {
	Options(ctx context.Context, query string) ([]model.Option, error)
}

// SourceFunc adapts a function into a Source. model.SearchFunc converts
// directly.
type SourceFunc func(ctx context.Context, query string) ([]model.Option, error)

// Options calls the underlying function.
func (fn SourceFunc) Options(ctx context.Context, query string) ([]model.Option, error) {
	return fn(ctx, query)
}

// Static filters a fixed list by case-insensitive label substring.
type Static []model.Option

// Options implements Source.
func (s Static) Options(_ context.Context, query string) ([]model.Option, error) {
	needle := strings.ToLower(strings.TrimSpace(query))
	out := make([]model.Option, 0, len(s))
	for _, opt := range s {
		if needle == "" || strings.Contains(strings.ToLower(opt.Label), needle) {
			out = append(out, opt)
		}
	}
	return out, nil
}

// ForField picks the source of a descriptor: its search callback, a remote
// endpoint from SearchURL or metadata, or its static options. The second
// result is false for fields without any option source.
func ForField(field model.Field, remote ...RemoteOption) (Source, bool) {
	switch {
	case field.Search != nil:
		return SourceFunc(field.Search), true
	case strings.TrimSpace(field.SearchURL) != "":
		return NewRemote(field.SearchURL, remote...), true
	}
	if r, ok := RemoteFromMetadata(field.Metadata, remote...); ok {
		return r, true
	}
	if len(field.Options) > 0 || field.UIType.Choice() {
		return Static(field.Options), true
	}
	return nil, false
}
