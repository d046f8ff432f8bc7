package auth

import (
	stderrors "errors"

	"chitchat/errors"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// RegisterRequest carries the fields required at account creation.
// Only presence and basic email shape are enforced here; anything
// stricter belongs to the identity provider.
type RegisterRequest struct {
	Email       string `validate:"required,email"`
	Password    string `validate:"required,min=6"`
	DisplayName string `validate:"required"`
}

func ValidateRegister(req RegisterRequest) error {
	err := validate.Struct(req)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if stderrors.As(err, &fieldErrs) {
		for _, fieldErr := range fieldErrs {
			if fieldErr.Field() == "Password" {
				return errors.ErrWeakPassword
			}
		}
	}
	return err
}
