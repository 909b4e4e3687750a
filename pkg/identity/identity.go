// Package identity is the boundary to whatever issues bearer tokens.
package identity

import (
	"context"
	"strings"
)

// User is the caller resolved from a bearer token.
type User struct {
	UID   string `json:"uid"`
	Email string `json:"email,omitempty"`
	Name  string `json:"displayName,omitempty"`
}

// Verifier resolves a raw bearer token to a User or rejects it with an
// apperror of kind AUTH.
type Verifier interface {
	Verify(ctx context.Context, token string) (*User, error)
}

// DisplayName falls back to the local part of the email when no name is set.
func DisplayName(name, email string) string {
	if name != "" {
		return name
	}
	if at := strings.IndexByte(email, '@'); at > 0 {
		return email[:at]
	}
	return email
}
