package salesforce

import (
	"errors"
	"fmt"
	"strings"
)

// ErrContactNotFound matches standard 404 behavior on contact lookups.
var ErrContactNotFound = errors.New("contact not found")

// ConfigError reports missing CRM credentials. Token exchange is not
// attempted when any of the four secrets is absent.
type ConfigError struct {
	Missing []string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("missing Salesforce configuration: %s", strings.Join(e.Missing, ", "))
}

// AuthError wraps a failed token exchange.
type AuthError struct {
	Message string
	Err     error
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("Salesforce authentication failed: %s", e.Message)
}

func (e *AuthError) Unwrap() error { return e.Err }

// APIError carries the single-string message extracted from a CRM error
// payload.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string { return e.Message }
