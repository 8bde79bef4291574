package auth

import (
	"fmt"
	"unicode"

	"qleon/domain/chat"
	"qleon/errors"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

type RegisterRequest struct {
	Username string
	Password string `validate:"required,min=8,max=72"`
}

// ValidateRegister checks the username rules first, then the password ones.
func ValidateRegister(req RegisterRequest) error {
	if err := chat.ValidateUsername(req.Username); err != nil {
		return err
	}
	if err := validate.Struct(req); err != nil {
		return fmt.Errorf("%w: %v", errors.ErrInvalidPassword, err)
	}
	if !hasLetterAndDigit(req.Password) {
		return errors.ErrInvalidPassword
	}
	return nil
}

func hasLetterAndDigit(s string) bool {
	var hasLetter, hasNumber bool
	for _, char := range s {
		switch {
		case unicode.IsLetter(char):
			hasLetter = true
		case unicode.IsNumber(char):
			hasNumber = true
		}
	}
	return hasLetter && hasNumber
}
