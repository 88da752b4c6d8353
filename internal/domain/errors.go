package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrUnauthorized is returned when a request carries no caller identity.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrPostNotFound is returned when no post owned by the caller matches the id.
	ErrPostNotFound = errors.New("post not found")
	// ErrUserNotFound is returned when a user lookup has no match.
	ErrUserNotFound = errors.New("user not found")
	// ErrUserAlreadyExists is returned when a username is already taken.
	ErrUserAlreadyExists = errors.New("user already exists")
)

// ValidationError reports a missing or empty required field.
type ValidationError struct {
	Field string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s is required", e.Field)
}

// Required returns a ValidationError for field.
func Required(field string) error {
	return &ValidationError{Field: field}
}

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}
