package engine

import "errors"

// ValidationError rejects malformed input before any state change.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

func validationErr(msg string) error { return &ValidationError{Msg: msg} }

// IsValidation reports whether err is a validation rejection.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// ErrInvalidCredentials covers both unknown identity and wrong password on
// login, deliberately indistinguishable to the caller.
var ErrInvalidCredentials = errors.New("invalid email or password")
