package auth

import (
	"context"
	"errors"
)

// ErrInvalidCredentials is returned by an Authenticator that does not
// accept the credentials.
var ErrInvalidCredentials = errors.New("invalid credentials")

// Account is an authenticated identity.
type Account struct {
	Username string `json:"username"`
	Admin    bool   `json:"admin"`
}

// Authenticator checks credentials against a user store. Implementations
// are auth backends loaded through the plugin registry.
type Authenticator interface {
	Authenticate(ctx context.Context, creds Credentials) (Account, error)
}
