// Package memory provides an authenticator backed by a fixed user list.
package memory

import (
	"context"
	"crypto/subtle"
	"errors"

	"github.com/smazurov/opentaxii-core/internal/auth"
	"github.com/smazurov/opentaxii-core/internal/plugin"
)

// Class is the plugin class name of StaticAuth.
const Class = "memory.StaticAuth"

func init() {
	plugin.MustRegister(plugin.Default(), Class, NewStaticAuth)
}

// Params configures StaticAuth.
type Params struct {
	Users  map[string]string `param:"users"`
	Admins []string          `param:"admins"`
}

// StaticAuth authenticates against usernames and passwords from config.
type StaticAuth struct {
	users  map[string]string
	admins map[string]bool
}

// NewStaticAuth creates the authenticator. Without users every request is
// rejected.
func NewStaticAuth(_ context.Context, p Params) (*StaticAuth, error) {
	a := &StaticAuth{
		users:  make(map[string]string, len(p.Users)),
		admins: make(map[string]bool, len(p.Admins)),
	}
	for user, password := range p.Users {
		if user == "" {
			return nil, errors.New("empty username in users")
		}
		a.users[user] = password
	}
	for _, admin := range p.Admins {
		if _, ok := a.users[admin]; !ok {
			return nil, errors.New("admin " + admin + " is not a configured user")
		}
		a.admins[admin] = true
	}
	return a, nil
}

// Authenticate implements auth.Authenticator.
func (a *StaticAuth) Authenticate(_ context.Context, creds auth.Credentials) (auth.Account, error) {
	password, ok := a.users[creds.Username]
	if !ok || subtle.ConstantTimeCompare([]byte(password), []byte(creds.Password)) != 1 {
		return auth.Account{}, auth.ErrInvalidCredentials
	}
	return auth.Account{Username: creds.Username, Admin: a.admins[creds.Username]}, nil
}
