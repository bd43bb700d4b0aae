// Package validation: request-level checks via go-playground/validator.
package validation

import (
	"fmt"
	"regexp"

	"github.com/go-playground/validator/v10"
)

// Validate is the shared validator instance with custom validations
// registered.
var Validate *validator.Validate

var (
	nodeIDPattern = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9_-]*$`)
	edgeIDPattern = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9_-]*$`)
)

func init() {
	Validate = validator.New()
	_ = Validate.RegisterValidation("node_id", func(fl validator.FieldLevel) bool {
		return nodeIDPattern.MatchString(fl.Field().String())
	})
	_ = Validate.RegisterValidation("edge_id", func(fl validator.FieldLevel) bool {
		return edgeIDPattern.MatchString(fl.Field().String())
	})
}

// ValidateRequest runs struct-tag validation over any request DTO and
// flattens field errors into one message.
func ValidateRequest(v interface{}) error {
	err := Validate.Struct(v)
	if err == nil {
		return nil
	}
	if fieldErrors, ok := err.(validator.ValidationErrors); ok {
		msg := ""
		for i, fe := range fieldErrors {
			if i > 0 {
				msg += "; "
			}
			msg += fmt.Sprintf("field %s failed %s", fe.Field(), fe.Tag())
		}
		return fmt.Errorf("request validation failed: %s", msg)
	}
	return err
}
