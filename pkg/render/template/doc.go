// Package template defines the template engine seam used by renderers. The
// gotemplate subpackage configures github.com/goliatone/go-template for it.
package template
