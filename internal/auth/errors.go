package auth

import "errors"

var (
	// ErrInvalidToken covers malformed, tampered and expired tokens alike.
	ErrInvalidToken = errors.New("invalid token")

	// ErrInvalidCredentials is returned for both an unknown email and a
	// wrong password. Callers must not be able to tell which it was.
	ErrInvalidCredentials = errors.New("invalid email or password")

	// ErrAccountInactive means the credentials resolved to a known user
	// whose account is disabled.
	ErrAccountInactive = errors.New("account is inactive")
)

// ValidationError marks input the caller got wrong before any identity was
// established. No audit event is recorded for these.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string {
	return e.Msg
}
