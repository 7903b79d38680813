package html

// ChromeClass is a typed identifier for semantic chrome CSS classes.
type ChromeClass string

const (
	ClassWizard  ChromeClass = "fg-wizard"
	ClassTitle   ChromeClass = "fg-title"
	ClassStepper ChromeClass = "fg-stepper"
	ClassForm    ChromeClass = "fg-form"
	ClassGrid    ChromeClass = "fg-grid grid grid-cols-12 gap-4"
	ClassSummary ChromeClass = "fg-summary"
	ClassActions ChromeClass = "fg-actions"
	ClassAlert   ChromeClass = "fg-alert"
)

// ChromeClasses overrides the classes applied to the wizard chrome. Empty
// entries keep the defaults.
type ChromeClasses struct {
	Wizard  string
	Title   string
	Stepper string
	Form    string
	Grid    string
	Summary string
	Actions string
	Alert   string
}

func (c ChromeClasses) templateData() map[string]any {
	pick := func(override string, fallback ChromeClass) string {
		if override != "" {
			return override
		}
		return string(fallback)
	}
	return map[string]any{
		"wizard":  pick(c.Wizard, ClassWizard),
		"title":   pick(c.Title, ClassTitle),
		"stepper": pick(c.Stepper, ClassStepper),
		"form":    pick(c.Form, ClassForm),
		"grid":    pick(c.Grid, ClassGrid),
		"summary": pick(c.Summary, ClassSummary),
		"actions": pick(c.Actions, ClassActions),
		"alert":   pick(c.Alert, ClassAlert),
	}
}
