package validation

import (
	"fmt"
	"slices"
	"strings"
	"time"
	"unicode/utf8"

	errors "github.com/frahmantamala/discharge-registry/internal"
)

// Rule inspects a value and returns the failure message and code, or an
// empty message when the value passes.
type Rule func(value any) (string, errors.ErrorCode)

type FieldValidator struct {
	FieldName string
	Value     any
	rules     []Rule
}

// ValidationBuilder collects field chains and ad hoc failures, then reports
// them all at once.
type ValidationBuilder struct {
	fields []*FieldValidator
	extra  []errors.ValidationError
}

func NewValidator() *ValidationBuilder {
	return &ValidationBuilder{}
}

func (v *ValidationBuilder) Field(name string, value any) *FieldValidator {
	fv := &FieldValidator{FieldName: name, Value: value}
	v.fields = append(v.fields, fv)
	return fv
}

// AddError records a failure discovered outside the field chain, such as a
// parse error or a cross-field rule.
func (v *ValidationBuilder) AddError(field, message string, code errors.ErrorCode) {
	v.extra = append(v.extra, errors.ValidationError{Field: field, Message: message, Code: string(code)})
}

// HasErrors reports only failures added with AddError.
func (v *ValidationBuilder) HasErrors() bool {
	return len(v.extra) > 0
}

func (fv *FieldValidator) add(r Rule) *FieldValidator {
	fv.rules = append(fv.rules, r)
	return fv
}

func blank(value any) bool {
	switch v := value.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(v) == ""
	case *string:
		return v == nil || strings.TrimSpace(*v) == ""
	case *time.Time:
		return v == nil
	case time.Time:
		return v.IsZero()
	case *int64:
		return v == nil
	}
	return false
}

func text(value any) (string, bool) {
	switch v := value.(type) {
	case string:
		return v, true
	case *string:
		if v != nil {
			return *v, true
		}
	}
	return "", false
}

func (fv *FieldValidator) Required() *FieldValidator {
	return fv.add(func(value any) (string, errors.ErrorCode) {
		if blank(value) {
			return fv.FieldName + " is required", errors.ErrCodeRequired
		}
		return "", ""
	})
}

func (fv *FieldValidator) MinInt(min int64, code errors.ErrorCode) *FieldValidator {
	return fv.add(func(value any) (string, errors.ErrorCode) {
		if n, ok := value.(int64); ok && n < min {
			return fmt.Sprintf("%s must be at least %d", fv.FieldName, min), code
		}
		return "", ""
	})
}

func (fv *FieldValidator) MaxInt(max int64, code errors.ErrorCode) *FieldValidator {
	return fv.add(func(value any) (string, errors.ErrorCode) {
		if n, ok := value.(int64); ok && n > max {
			return fmt.Sprintf("%s must be at most %d", fv.FieldName, max), code
		}
		return "", ""
	})
}

func (fv *FieldValidator) MinLength(min int) *FieldValidator {
	return fv.add(func(value any) (string, errors.ErrorCode) {
		if s, ok := value.(string); ok && utf8.RuneCountInString(s) < min {
			return fmt.Sprintf("%s must be at least %d characters", fv.FieldName, min), errors.ErrCodeValidationFailed
		}
		return "", ""
	})
}

func (fv *FieldValidator) MaxLength(max int) *FieldValidator {
	return fv.add(func(value any) (string, errors.ErrorCode) {
		if s, ok := text(value); ok && utf8.RuneCountInString(s) > max {
			return fmt.Sprintf("%s must not exceed %d characters", fv.FieldName, max), errors.ErrCodeValidationFailed
		}
		return "", ""
	})
}

// OneOf accepts only the listed values. Empty strings are left to Required.
func (fv *FieldValidator) OneOf(allowed []string, code errors.ErrorCode) *FieldValidator {
	return fv.add(func(value any) (string, errors.ErrorCode) {
		s, ok := value.(string)
		if !ok || s == "" || slices.Contains(allowed, s) {
			return "", ""
		}
		return fmt.Sprintf("%s must be one of: %s", fv.FieldName, strings.Join(allowed, ", ")), code
	})
}

// NotBefore rejects a date earlier than ref. Nil on either side passes.
func (fv *FieldValidator) NotBefore(ref *time.Time, refName string, code errors.ErrorCode) *FieldValidator {
	return fv.add(func(value any) (string, errors.ErrorCode) {
		t, ok := value.(*time.Time)
		if !ok || t == nil || ref == nil || !t.Before(*ref) {
			return "", ""
		}
		return fmt.Sprintf("%s cannot be earlier than %s", fv.FieldName, refName), code
	})
}

func (fv *FieldValidator) Custom(r Rule) *FieldValidator {
	return fv.add(r)
}

// Validate runs every chain and collects all failures. A field reports at
// most one failure, and a field already named by AddError is skipped.
func (v *ValidationBuilder) Validate() *errors.AppError {
	failures := slices.Clone(v.extra)
	seen := make(map[string]bool, len(failures))
	for _, f := range failures {
		seen[f.Field] = true
	}

	for _, fv := range v.fields {
		if seen[fv.FieldName] {
			continue
		}
		for _, rule := range fv.rules {
			if msg, code := rule(fv.Value); msg != "" {
				failures = append(failures, errors.ValidationError{Field: fv.FieldName, Message: msg, Code: string(code)})
				seen[fv.FieldName] = true
				break
			}
		}
	}

	if len(failures) == 0 {
		return nil
	}
	return errors.NewValidationError("Validation failed", errors.ErrCodeValidationFailed).
		WithDetails(errors.ValidationErrors{Errors: failures})
}

func ValidatePassword(password string) *errors.AppError {
	v := NewValidator()
	v.Field("password", password).Required().MinLength(6).MaxLength(128)
	return v.Validate()
}
