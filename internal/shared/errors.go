package shared

import "errors"

var (
	// ErrNotFound indicates resource not found.
	ErrNotFound = errors.New("not found")
	// ErrInvalidCredentials indicates login failure. Every authentication
	// failure maps to this single value so callers cannot distinguish an
	// unknown email from a wrong password or an unknown biometric key.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrEmailTaken occurs when registering an email that already exists.
	ErrEmailTaken = errors.New("email already registered")
	// ErrBiometricKeyTaken occurs when enrolling a biometric key that
	// already verifies against a stored hash, regardless of owner.
	ErrBiometricKeyTaken = errors.New("biometric key already exists for another user")
)
