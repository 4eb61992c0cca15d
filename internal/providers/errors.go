package providers

import (
	"errors"
	"fmt"
)

// ErrAuth marks a remote credential rejection. Distinct from transient
// network failures so the UI can prompt re-login instead of retrying.
var ErrAuth = errors.New("provider: authentication rejected")

// AuthError wraps ErrAuth with the provider's own cause string.
type AuthError struct {
	Provider string
	Cause    string
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("%s: authentication rejected: %s", e.Provider, e.Cause)
}

func (e *AuthError) Unwrap() error {
	return ErrAuth
}

// FetchError is a single capability's fetch failure. Whether a caller
// swallows it to an empty result or propagates it is a per-operation policy,
// decided in the engine, not here.
type FetchError struct {
	Provider string
	Op       string
	Err      error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Provider, e.Op, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// Fetchf wraps a remote failure with its provider and operation.
func Fetchf(provider, op string, err error) error {
	if err == nil {
		return nil
	}
	return &FetchError{Provider: provider, Op: op, Err: err}
}
