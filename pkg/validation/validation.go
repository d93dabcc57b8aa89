// Package validation wraps go-playground/validator and reports failures as
// apperr validation errors keyed by JSON field name.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/Baryonic/aida/pkg/apperr"

	"github.com/go-playground/validator/v10"
)

// FieldError is one failed rule, in the order fields are declared.
type FieldError struct {
	Field string `json:"field"`
	Msg   string `json:"msg"`
	Tag   string `json:"-"`
}

var slugRX = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)

type Validator struct {
	v *validator.Validate
}

func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "" || name == "-" {
			return fld.Name
		}
		return name
	})
	_ = v.RegisterValidation("slug", func(fl validator.FieldLevel) bool {
		return slugRX.MatchString(fl.Field().String())
	})

	return &Validator{v: v}
}

// Struct validates s; the error, when not nil, is an *apperr.Error whose
// Details holds a []FieldError.
func (v *Validator) Struct(s any) error {
	err := v.v.Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	fields := make([]FieldError, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, FieldError{Field: fe.Field(), Msg: message(fe), Tag: fe.Tag()})
	}
	return apperr.ValidationWithDetails(fields[0].Field+" "+fields[0].Msg, fields)
}

// Fields extracts the per-field failures from err, if it carries any.
func Fields(err error) []FieldError {
	var ae *apperr.Error
	if errors.As(err, &ae) {
		if fields, ok := ae.Details.([]FieldError); ok {
			return fields
		}
	}
	return nil
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "max":
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	case "min":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "gte":
		return "must be greater than or equal to " + fe.Param()
	case "gt":
		return "must be greater than " + fe.Param()
	case "slug":
		return "must contain only lowercase letters, digits and single hyphens"
	default:
		return "is invalid"
	}
}
