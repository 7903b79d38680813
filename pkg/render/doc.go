// Package render defines the contract between wizard sessions and output
// formats. A Frame snapshots one stepper position (step tabs, the active
// descriptors, form state, banner messages) and a Renderer turns it into bytes.
// Renderers are discovered through a Registry keyed by name.
package render
