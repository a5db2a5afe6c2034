package service

import (
	"github.com/go-playground/validator/v10"

	"magit/apperror"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

func validateInput(v any) error {
	if err := validate.Struct(v); err != nil {
		return apperror.ParseValidationErrors(err)
	}
	return nil
}
