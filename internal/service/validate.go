package service

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	appErr "github.com/xxxsen/accord/internal/pkg/errors"
)

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "" || name == "-" {
			return field.Name
		}
		return name
	})
	return v
}

// validateStruct turns validator failures into ErrInvalid with a short
// field-level message.
func validateStruct(v *validator.Validate, input interface{}) error {
	err := v.Struct(input)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		first := verrs[0]
		switch first.Tag() {
		case "required":
			return fmt.Errorf("%w: %s is required", appErr.ErrInvalid, first.Field())
		case "min":
			return fmt.Errorf("%w: %s is too short", appErr.ErrInvalid, first.Field())
		case "email":
			return fmt.Errorf("%w: %s must be an email", appErr.ErrInvalid, first.Field())
		default:
			return fmt.Errorf("%w: %s is invalid", appErr.ErrInvalid, first.Field())
		}
	}
	return fmt.Errorf("%w: %s", appErr.ErrInvalid, err.Error())
}
