package components

// Canonical component names used by the html renderer and default registry.
// Every widget kind has its own entry so themes can override one without
// touching the others.
const (
	NameText        = "text"
	NameTextarea    = "textarea"
	NameNumber      = "number"
	NameSelect      = "select"
	NameMultiSelect = "multiselect"
	NameDate        = "date"
	NameSwitch      = "switch"
	NamePhone       = "phone"
	NameEmail       = "email"
	NamePassword    = "password"
	NameHidden      = "hidden"
	NameGroup       = "group"
)
