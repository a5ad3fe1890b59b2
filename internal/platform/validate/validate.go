// Package validate wraps go-playground/validator with JSON field names and
// human readable reasons.
package validate

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

type Issue struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

// Error carries every issue found on a struct.
type Error struct {
	Issues []Issue
}

func (e *Error) Error() string {
	parts := make([]string, len(e.Issues))
	for i, issue := range e.Issues {
		parts[i] = issue.Field + " " + issue.Reason
	}
	return strings.Join(parts, "; ")
}

var instance = sync.OnceValue(func() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return field.Name
		}
		return name
	})
	return v
})

// Struct validates s and returns *Error when any rule fails.
func Struct(s any) error {
	err := instance().Struct(s)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}
	issues := make([]Issue, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		issues = append(issues, Issue{Field: fe.Field(), Reason: reason(fe)})
	}
	return &Error{Issues: issues}
}

// Issues extracts the issue list from err, or nil when err is not a validation error.
func Issues(err error) []Issue {
	var verr *Error
	if errors.As(err, &verr) {
		return verr.Issues
	}
	return nil
}

func reason(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "max":
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	case "oneof":
		return "must be one of " + fe.Param()
	case "alphanum":
		return "must be alphanumeric"
	case "uppercase":
		return "must be uppercase"
	case "len":
		return fmt.Sprintf("must be exactly %s characters", fe.Param())
	default:
		return "is invalid"
	}
}
