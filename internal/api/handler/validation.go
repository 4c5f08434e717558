package handler

import (
	"errors"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// validationMessage renders validator errors per field, or the raw error
func validationMessage(err error) any {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return err.Error()
	}

	messages := make(map[string]string)
	for _, e := range validationErrors {
		field := e.Field()
		tag := e.Tag()
		switch tag {
		case "required":
			messages[field] = "field is required"
		case "min":
			messages[field] = "must contain at least " + e.Param() + " item(s)"
		case "max":
			messages[field] = "must be at most " + e.Param() + " characters"
		default:
			messages[field] = "validation failed on " + tag
		}
	}
	return messages
}
