package httpserver

import (
	"errors"
	"sort"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/labstack/echo/v4"

	"github.com/avatarctic/account-lifecycle/internal/core/domain/apperr"
)

// requestValidator plugs ozzo-validation into echo's c.Validate.
type requestValidator struct{}

func newRequestValidator() echo.Validator {
	return &requestValidator{}
}

func (v *requestValidator) Validate(i interface{}) error {
	target, ok := i.(validation.Validatable)
	if !ok {
		return nil
	}
	return toValidationError(target.Validate())
}

// toValidationError flattens ozzo field errors into the caller-facing shape.
// Anything else, such as a rule that failed internally, is returned as is.
func toValidationError(err error) error {
	if err == nil {
		return nil
	}
	var errs validation.Errors
	if !errors.As(err, &errs) {
		return err
	}

	fields := make([]string, 0, len(errs))
	for field := range errs {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	out := &apperr.ValidationError{Fields: make([]apperr.FieldError, 0, len(fields))}
	for _, field := range fields {
		out.Fields = append(out.Fields, apperr.FieldError{Field: field, Message: errs[field].Error()})
	}
	return out
}
