// Package orchestrator drives a definition from its source (a store, an
// OpenAPI document or a literal value) through endpoint overrides,
// transformers and decorators into a stepper, and renders the first step
// with a registered renderer.
package orchestrator
