// Package validation checks request bodies and catalog records against their
// `validate` struct tags. Field names in messages follow the json tags.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"
)

// EmailPattern is the accepted address shape, registered as the "emailaddr" tag.
var EmailPattern = regexp.MustCompile(`^[a-zA-Z0-9_.+-]+@[a-zA-Z0-9-]+\.[a-zA-Z0-9-.]+$`)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
		if name == "" || name == "-" {
			return field.Name
		}
		return name
	})

	if err := v.RegisterValidation("notblank", validators.NotBlank); err != nil {
		panic(err)
	}
	err := v.RegisterValidation("emailaddr", func(fl validator.FieldLevel) bool {
		return EmailPattern.MatchString(fl.Field().String())
	})
	if err != nil {
		panic(err)
	}
	return v
}

// Struct validates s and returns validator.ValidationErrors when any field
// fails, so callers can inspect the failing fields.
func Struct(s interface{}) error {
	return validate.Struct(s)
}

// Var validates a single value against tag.
func Var(value interface{}, tag string) bool {
	return validate.Var(value, tag) == nil
}

// Check validates s and reduces the first failing field to a readable error.
func Check(s interface{}) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		return errors.New(Message(fieldErrs[0]))
	}
	return err
}

// Failed reports whether field failed any of the given tags.
func Failed(err error, field string, tags ...string) bool {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return false
	}
	for _, fe := range fieldErrs {
		if field != "" && fe.Field() != field {
			continue
		}
		if len(tags) == 0 {
			return true
		}
		for _, tag := range tags {
			if fe.Tag() == tag {
				return true
			}
		}
	}
	return false
}

func Message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required", "notblank":
		return fmt.Sprintf("%s is required", fe.Field())
	case "gte":
		return fmt.Sprintf("%s must be at least %s", fe.Field(), fe.Param())
	case "datetime":
		return fmt.Sprintf("%s must be a date formatted as %s", fe.Field(), fe.Param())
	case "emailaddr":
		return "Invalid email format"
	}
	return fmt.Sprintf("%s is invalid", fe.Field())
}
