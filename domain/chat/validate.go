package chat

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	chaterrors "qleon/errors"

	"github.com/go-playground/validator/v10"
)

var usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_]+$`)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
	_ = v.RegisterValidation("utf8", func(fl validator.FieldLevel) bool {
		return utf8.ValidString(fl.Field().String())
	})
	_ = v.RegisterValidation("username", func(fl validator.FieldLevel) bool {
		return usernamePattern.MatchString(fl.Field().String())
	})
	return v
}

func (c AppendSentCommand) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("%w: %v", chaterrors.ErrInvalidInput, err)
	}
	return nil
}

func (c AppendReceivedCommand) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("%w: %v", chaterrors.ErrInvalidInput, err)
	}
	return nil
}

// Validate checks the rules in the order a user would fix them:
// missing, too short or too long, then forbidden characters.
func (c StartChatCommand) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}
	var fieldErrors validator.ValidationErrors
	if !errors.As(err, &fieldErrors) || len(fieldErrors) == 0 {
		return fmt.Errorf("%w: %v", chaterrors.ErrUsernameInvalid, err)
	}
	switch fieldErrors[0].Tag() {
	case "required":
		return chaterrors.ErrUsernameEmpty
	case "min":
		return chaterrors.ErrUsernameTooShort
	case "max":
		return chaterrors.ErrUsernameTooLong
	default:
		return chaterrors.ErrUsernameInvalid
	}
}

// ValidateUsername applies the username rules shared by sign up and new chats.
func ValidateUsername(username string) error {
	return StartChatCommand{Username: username}.Validate()
}
