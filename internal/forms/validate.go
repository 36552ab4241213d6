package forms

import (
	"fmt"
	"regexp"
	"slices"
	"strconv"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"

	"github.com/goliatone/go-cms-locales/pkg/interfaces"
)

// Issue is one validation failure.
type Issue struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError lists every issue found in a submission.
type ValidationError struct {
	Issues []Issue
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("forms: validation failed with %d issue(s)", len(e.Issues))
}

// Validate checks data and files against every field of form. All issues are
// collected; keys not declared by the form are reported as unknown.
func Validate(form *Form, data map[string]any, files []interfaces.FileUpload, loc *Localizer) []Issue {
	issues := []Issue{}
	declared := make(map[string]struct{}, len(form.Fields))

	for _, field := range form.Fields {
		declared[field.Key] = struct{}{}
		label := map[string]any{"Label": field.Label}

		if field.Type == FieldFile {
			if field.Required && !hasUpload(files, field.Key) {
				issues = append(issues, Issue{Field: field.Key, Message: loc.T("FieldRequired", label)})
			}
			continue
		}

		value := data[field.Key]
		if isBlank(value) {
			if field.Required {
				issues = append(issues, Issue{Field: field.Key, Message: loc.T("FieldRequired", label)})
			}
			continue
		}

		for _, rule := range fieldRules(field, loc) {
			if err := validation.Validate(rule.value(value), rule.rule); err != nil {
				issues = append(issues, Issue{Field: field.Key, Message: err.Error()})
			}
		}
	}

	unknown := make([]string, 0)
	for key := range data {
		if _, ok := declared[key]; !ok {
			unknown = append(unknown, key)
		}
	}
	slices.Sort(unknown)
	for _, key := range unknown {
		issues = append(issues, Issue{Field: key, Message: loc.T("FieldUnknown", map[string]any{"Field": key})})
	}
	return issues
}

type fieldRule struct {
	rule  validation.Rule
	value func(any) any
}

func identity(v any) any { return v }

func fieldRules(field Field, loc *Localizer) []fieldRule {
	label := map[string]any{"Label": field.Label}
	rules := []fieldRule{}
	v := field.Validation

	switch field.Type {
	case FieldEmail:
		rules = append(rules, fieldRule{rule: is.EmailFormat.Error(loc.T("FieldEmail", label)), value: stringValue})
	case FieldNumber:
		rules = append(rules, fieldRule{
			rule: validation.By(func(value any) error {
				if _, ok := value.(float64); !ok {
					return validation.NewError("validation_number", loc.T("FieldNumber", label))
				}
				return nil
			}),
			value: numberValue,
		})
		if v != nil && v.Min != nil {
			rules = append(rules, fieldRule{
				rule:  bound(*v.Min, true, loc.T("FieldMin", map[string]any{"Label": field.Label, "Min": formatNumber(*v.Min)})),
				value: numberValue,
			})
		}
		if v != nil && v.Max != nil {
			rules = append(rules, fieldRule{
				rule:  bound(*v.Max, false, loc.T("FieldMax", map[string]any{"Label": field.Label, "Max": formatNumber(*v.Max)})),
				value: numberValue,
			})
		}
	case FieldSelect, FieldRadio:
		if len(field.Options) > 0 {
			allowed := make([]any, 0, len(field.Options))
			for _, option := range field.Options {
				allowed = append(allowed, option)
			}
			rules = append(rules, fieldRule{rule: validation.In(allowed...).Error(loc.T("FieldOption", label)), value: identity})
		}
	}

	if v != nil && v.Regex != "" && field.Type != FieldEmail {
		if re, err := regexp.Compile(v.Regex); err == nil {
			message := v.Message
			if message == "" {
				message = loc.T("FieldPattern", label)
			}
			rules = append(rules, fieldRule{rule: validation.Match(re).Error(message), value: stringValue})
		}
	}

	if v != nil && (field.Type == FieldText || field.Type == FieldTextarea) {
		if v.MinLength > 0 {
			rules = append(rules, fieldRule{
				rule:  validation.RuneLength(v.MinLength, 0).Error(loc.T("FieldMinLength", map[string]any{"Label": field.Label, "Min": v.MinLength})),
				value: stringValue,
			})
		}
		if v.MaxLength > 0 {
			rules = append(rules, fieldRule{
				rule:  validation.RuneLength(0, v.MaxLength).Error(loc.T("FieldMaxLength", map[string]any{"Label": field.Label, "Max": v.MaxLength})),
				value: stringValue,
			})
		}
	}
	return rules
}

// bound checks numbers only; non-numeric input is reported by the number rule.
func bound(limit float64, lower bool, message string) validation.Rule {
	return validation.By(func(value any) error {
		n, ok := value.(float64)
		if !ok {
			return nil
		}
		if (lower && n < limit) || (!lower && n > limit) {
			return validation.NewError("validation_bound", message)
		}
		return nil
	})
}

func hasUpload(files []interfaces.FileUpload, key string) bool {
	return slices.ContainsFunc(files, func(f interfaces.FileUpload) bool { return f.Field == key })
}

func isBlank(value any) bool {
	switch v := value.(type) {
	case nil:
		return true
	case string:
		return v == ""
	default:
		return false
	}
}

// stringValue renders scalars as strings so pattern and length rules apply
// to numeric input the way a browser form would submit it.
func stringValue(value any) any {
	switch v := value.(type) {
	case string:
		return v
	case float64:
		return formatNumber(v)
	case bool:
		return strconv.FormatBool(v)
	default:
		return value
	}
}

// numberValue returns a float64 for numeric input, or the original value.
func numberValue(value any) any {
	switch v := value.(type) {
	case float64:
		return v
	case int:
		return float64(v)
	case int64:
		return float64(v)
	case string:
		if n, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil {
			return n
		}
	}
	return value
}

func formatNumber(n float64) string {
	return strconv.FormatFloat(n, 'f', -1, 64)
}
