package auth

import (
	"errors"
	"fmt"
)

// ConfigurationError is a process-level failure: the codec cannot be used until
// configuration is fixed and the process restarted.
type ConfigurationError struct {
	Key string
	Err error
}

func (e *ConfigurationError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("configuration: %s", e.Key)
	}
	return fmt.Sprintf("configuration: %s: %v", e.Key, e.Err)
}

func (e *ConfigurationError) Unwrap() error { return e.Err }

var (
	// ErrMissingSecret is returned when no signing secret is configured.
	ErrMissingSecret error = &ConfigurationError{Key: "JWT_SECRET", Err: errors.New("signing secret is required")}

	// ErrInvalidClaims rejects mint input outside the documented constraints.
	ErrInvalidClaims = errors.New("auth: invalid claims")

	// ErrNoSession means no verified claims are bound to the context.
	ErrNoSession = errors.New("auth: no session")
)
