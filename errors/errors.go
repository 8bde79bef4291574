package errors

import "fmt"

var (
	ErrInvalidInput          = fmt.Errorf("invalid input")
	ErrIncomparableSnapshots = fmt.Errorf("snapshots do not belong to the same timeline")
	ErrConversationNotFound  = fmt.Errorf("conversation not found")

	ErrUsernameEmpty    = fmt.Errorf("please enter a username")
	ErrUsernameTooShort = fmt.Errorf("username must be at least 3 characters long")
	ErrUsernameTooLong  = fmt.Errorf("username must be at most 32 characters long")
	ErrUsernameInvalid  = fmt.Errorf("username can only contain letters, numbers, and underscores")
	ErrUserNotFound     = fmt.Errorf("username not found")

	ErrUserAlreadyExists  = fmt.Errorf("user already exists")
	ErrInvalidCredentials = fmt.Errorf("invalid credentials")
	ErrInvalidPassword    = fmt.Errorf("invalid password")
	ErrTokenGeneration    = fmt.Errorf("token generation failed")
	ErrInvalidToken       = fmt.Errorf("invalid or expired session token")

	ErrWorkerPanic = fmt.Errorf("worker panic")
)
