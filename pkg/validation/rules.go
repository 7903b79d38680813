package validation

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/goliatone/go-formflow/pkg/model"
	"github.com/goliatone/go-formflow/pkg/values"
)

// checker evaluates bounds, lengths and email syntax through validator tags.
// Numeric bounds use gte/lte, lengths use min/max which count runes for text
// and items for lists.
var checker = validator.New()

type fieldRules struct {
	path      string
	label     string
	dataType  model.DataType
	required  bool
	min       *float64
	max       *float64
	minLen    *int
	maxLen    *int
	pattern   *regexp.Regexp
	email     bool
	messages  map[string]string
	boundsTag string
	lengthTag string
}

// RuleSet validates values against the constraints declared on descriptors.
type RuleSet struct {
	rules []fieldRules
}

// Rules compiles descriptor constraints into a Schema. Rules with unparsable
// thresholds or invalid patterns are reported by Compile; Rules ignores them.
func Rules(fields []model.Field) *RuleSet {
	set, _ := compile(fields)
	return set
}

// Compile is like Rules but fails on malformed rule parameters.
func Compile(fields []model.Field) (*RuleSet, error) {
	return compile(fields)
}

func compile(fields []model.Field) (*RuleSet, error) {
	set := &RuleSet{}
	var firstErr error
	collect(fields, "", func(path string, field model.Field) {
		rules, err := rulesFor(path, field)
		if err != nil && firstErr == nil {
			firstErr = err
		}
		set.rules = append(set.rules, rules)
	})
	return set, firstErr
}

func collect(fields []model.Field, prefix string, fn func(path string, field model.Field)) {
	for _, field := range fields {
		path := field.Name
		if prefix != "" {
			path = prefix + "." + field.Name
		}
		if len(field.Nested) > 0 {
			collect(field.Nested, path, fn)
			continue
		}
		fn(path, field)
	}
}

func rulesFor(path string, field model.Field) (fieldRules, error) {
	rules := fieldRules{
		path:     path,
		label:    field.DisplayLabel(),
		dataType: field.EffectiveDataType(),
		required: field.Required,
		email:    field.UIType == model.UITypeEmail,
		messages: make(map[string]string),
	}
	var err error
	fail := func(format string, args ...any) {
		if err == nil {
			err = fmt.Errorf("validation: field %q: "+format, append([]any{path}, args...)...)
		}
	}
	for _, rule := range field.Validations {
		if msg := strings.TrimSpace(rule.Params["message"]); msg != "" {
			rules.messages[rule.Kind] = msg
		}
		switch rule.Kind {
		case model.ValidationRuleMin, model.ValidationRuleMax:
			val, convErr := strconv.ParseFloat(strings.TrimSpace(rule.Params["value"]), 64)
			if convErr != nil {
				fail("%s threshold %q is not a number", rule.Kind, rule.Params["value"])
				continue
			}
			if rule.Kind == model.ValidationRuleMin {
				rules.min = &val
			} else {
				rules.max = &val
			}
		case model.ValidationRuleMinLength, model.ValidationRuleMaxLength:
			val, convErr := strconv.Atoi(strings.TrimSpace(rule.Params["value"]))
			if convErr != nil || val < 0 {
				fail("%s threshold %q is not a length", rule.Kind, rule.Params["value"])
				continue
			}
			if rule.Kind == model.ValidationRuleMinLength {
				rules.minLen = &val
			} else {
				rules.maxLen = &val
			}
		case model.ValidationRulePattern:
			re, reErr := regexp.Compile(rule.Params["pattern"])
			if reErr != nil {
				fail("invalid pattern: %v", reErr)
				continue
			}
			rules.pattern = re
		case model.ValidationRuleEmail:
			rules.email = true
		default:
			fail("unknown rule %q", rule.Kind)
		}
	}
	rules.boundsTag = joinTags(boundTag("gte", rules.min), boundTag("lte", rules.max))
	rules.lengthTag = joinTags(lengthTag("min", rules.minLen), lengthTag("max", rules.maxLen))
	return rules, err
}

func boundTag(name string, threshold *float64) string {
	if threshold == nil {
		return ""
	}
	return name + "=" + formatNumber(*threshold)
}

func lengthTag(name string, threshold *int) string {
	if threshold == nil {
		return ""
	}
	return name + "=" + strconv.Itoa(*threshold)
}

func joinTags(tags ...string) string {
	kept := tags[:0]
	for _, tag := range tags {
		if tag != "" {
			kept = append(kept, tag)
		}
	}
	return strings.Join(kept, ",")
}

// Validate implements Schema. The required check runs first; a missing
// optional value skips the remaining rules.
func (s *RuleSet) Validate(_ context.Context, tree map[string]any) map[string][]string {
	if s == nil {
		return nil
	}
	var out map[string][]string
	for _, rules := range s.rules {
		value, _ := values.Get(tree, rules.path)
		if msg := rules.check(value); msg != "" {
			if out == nil {
				out = make(map[string][]string)
			}
			out[rules.path] = append(out[rules.path], msg)
		}
	}
	return out
}

func (r fieldRules) check(value any) string {
	if isEmpty(value) {
		if r.required {
			return r.message("required", fmt.Sprintf("%s is required", r.label))
		}
		return ""
	}

	if r.numeric() {
		number, ok := values.ToFloat(value)
		if !ok {
			return r.message("number", fmt.Sprintf("%s must be a number", r.label))
		}
		if r.dataType == model.DataTypeInteger && number != float64(int64(number)) {
			return r.message("integer", fmt.Sprintf("%s must be a whole number", r.label))
		}
		return r.violation(checker.Var(number, r.boundsTag), "")
	}

	switch list := value.(type) {
	case []any:
		return r.violation(checker.Var(list, r.lengthTag), "items")
	case []string:
		return r.violation(checker.Var(list, r.lengthTag), "items")
	}

	text := values.Stringify(value)
	if msg := r.violation(checker.Var(text, r.lengthTag), "characters"); msg != "" {
		return msg
	}
	if r.pattern != nil && !r.pattern.MatchString(text) {
		return r.message(model.ValidationRulePattern, fmt.Sprintf("%s has an invalid format", r.label))
	}
	if r.email {
		return r.violation(checker.Var(text, "email"), "")
	}
	return ""
}

// violation turns the first failed validator tag into the rule's message.
func (r fieldRules) violation(err error, unit string) string {
	if err == nil {
		return ""
	}
	var failures validator.ValidationErrors
	if !errors.As(err, &failures) || len(failures) == 0 {
		return fmt.Sprintf("%s is invalid", r.label)
	}
	failed := failures[0]
	switch failed.Tag() {
	case "gte":
		return r.message(model.ValidationRuleMin, fmt.Sprintf("%s must be at least %s", r.label, failed.Param()))
	case "lte":
		return r.message(model.ValidationRuleMax, fmt.Sprintf("%s must be at most %s", r.label, failed.Param()))
	case "min":
		return r.message(model.ValidationRuleMinLength, fmt.Sprintf("%s must have at least %s %s", r.label, failed.Param(), unit))
	case "max":
		return r.message(model.ValidationRuleMaxLength, fmt.Sprintf("%s must have at most %s %s", r.label, failed.Param(), unit))
	case "email":
		return r.message(model.ValidationRuleEmail, fmt.Sprintf("%s must be a valid email address", r.label))
	}
	return fmt.Sprintf("%s is invalid", r.label)
}

func (r fieldRules) numeric() bool {
	return r.dataType == model.DataTypeNumber || r.dataType == model.DataTypeInteger
}

func (r fieldRules) message(kind, fallback string) string {
	if msg, ok := r.messages[kind]; ok {
		return msg
	}
	return fallback
}

func isEmpty(value any) bool {
	switch typed := value.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(typed) == ""
	case []any:
		return len(typed) == 0
	case []string:
		return len(typed) == 0
	case map[string]any:
		return len(typed) == 0
	default:
		return false
	}
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
