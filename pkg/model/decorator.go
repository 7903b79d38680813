package model

// Decorator enriches a definition after it has been loaded, for example to
// attach search callbacks or option lists fetched at runtime.
type Decorator interface {
	Decorate(*Definition) error
}

// DecoratorFunc adapts a function into a Decorator.
type DecoratorFunc func(*Definition) error

// Decorate calls the underlying function.
func (fn DecoratorFunc) Decorate(def *Definition) error {
	return fn(def)
}

// FillLabels sets Label on every field that lacks one using DefaultLabeler.
var FillLabels = DecoratorFunc(func(def *Definition) error {
	if def == nil {
		return nil
	}
	for idx := range def.Steps {
		fillLabels(def.Steps[idx].Fields)
		if def.Steps[idx].Label == "" {
			def.Steps[idx].Label = DefaultLabeler(def.Steps[idx].ID)
		}
	}
	return nil
})

func fillLabels(fields []Field) {
	for idx := range fields {
		if fields[idx].Label == "" {
			fields[idx].Label = DefaultLabeler(fields[idx].Name)
		}
		if len(fields[idx].Nested) > 0 {
			fillLabels(fields[idx].Nested)
		}
	}
}
