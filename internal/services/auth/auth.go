// Package auth stores the hosting platform's API token in the OS
// keychain, keyed by the platform tool name ("railway", "flyctl", ...).
// The token is never written to disk; it is exported into the tool's
// process environment at invocation time.
package auth

import (
	"errors"

	"shipctl/internal/util"
)

const ServiceName = "shipctl"

var ErrTokenNotFound = errors.New("auth token not found")

type Store interface {
	SetToken(tool string, token string) error
	GetToken(tool string) (string, error)
	DeleteToken(tool string) error
}

// DefaultStore returns the standard auth store backed by the OS keychain.
func DefaultStore() Store {
	return NewKeyringStore(ServiceName)
}

// NormalizeTool normalizes a platform tool name for consistent key lookup.
func NormalizeTool(tool string) string {
	return util.NormalizeKey(tool)
}
