package sessions

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/JaimeStill/accord/internal/workflow"
)

var sessionIDPattern = regexp.MustCompile(`^[A-Za-z0-9_.:-]{1,128}$`)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		switch name {
		case "-":
			return ""
		case "":
			return f.Name
		}
		return name
	})
	v.RegisterValidation("session_id", func(fl validator.FieldLevel) bool {
		return sessionIDPattern.MatchString(fl.Field().String())
	})
	return v
}

// check validates s and reports failures as workflow.ErrValidation.
func check(s any) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	var fields validator.ValidationErrors
	if !errors.As(err, &fields) {
		return fmt.Errorf("%w: %v", workflow.ErrValidation, err)
	}

	msgs := make([]string, len(fields))
	for i, f := range fields {
		msgs[i] = describe(f)
	}
	return fmt.Errorf("%w: %s", workflow.ErrValidation, strings.Join(msgs, "; "))
}

func describe(f validator.FieldError) string {
	name := f.Field()
	switch f.Tag() {
	case "required", "required_if", "min":
		return name + " is required"
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s]", name, f.Param())
	case "email":
		return name + " must be an email address"
	case "session_id":
		return name + " may contain only letters, digits, '_', '.', ':' and '-' (max 128)"
	case "max":
		return fmt.Sprintf("%s exceeds %s characters", name, f.Param())
	}
	return fmt.Sprintf("%s failed %s validation", name, f.Tag())
}
