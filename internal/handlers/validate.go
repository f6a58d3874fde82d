package handlers

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
	return v
}

// normalizer trims or lower-cases request fields before validation.
type normalizer interface {
	normalize()
}

// bindAndValidate parses the body into req and validates it. On failure it has
// already written the response and returns ok=false.
func bindAndValidate(c *fiber.Ctx, req interface{}) (bool, error) {
	if err := c.BodyParser(req); err != nil {
		return false, fail200(c, "Invalid body")
	}
	if n, isNorm := req.(normalizer); isNorm {
		n.normalize()
	}
	if errs := validateStruct(req); len(errs) > 0 {
		return false, validationFail(c, errs)
	}
	return true, nil
}

func validateStruct(req interface{}) FieldErrors {
	err := validate.Struct(req)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return FieldErrors{"_": {err.Error()}}
	}

	out := FieldErrors{}
	for _, fe := range verrs {
		out.Add(fe.Field(), message(fe))
	}
	return out
}

func message(fe validator.FieldError) string {
	isText := fe.Kind() == reflect.String
	switch fe.Tag() {
	case "required":
		return "This field is required."
	case "email":
		return "Invalid email address"
	case "eqfield":
		return "Passwords must match"
	case "oneof":
		return "Must be one of: " + strings.ReplaceAll(fe.Param(), " ", ", ")
	case "url":
		return "Must be a valid URL"
	case "min", "gte":
		if isText {
			return fmt.Sprintf("Must be at least %s characters", fe.Param())
		}
		return "Must be at least " + fe.Param()
	case "max", "lte":
		if isText {
			return fmt.Sprintf("Must be at most %s characters", fe.Param())
		}
		return "Must be at most " + fe.Param()
	case "datetime":
		return "Must be a date formatted YYYY-MM-DD"
	}
	return "Invalid value"
}
