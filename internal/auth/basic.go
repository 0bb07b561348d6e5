// Package auth decodes HTTP Basic Authentication credentials and defines
// the authenticator backends implement.
package auth

import (
	"encoding/base64"
	"errors"
	"strings"
)

// ErrInvalidAuthHeader is matched by errors.Is for every
// *InvalidAuthHeaderError.
var ErrInvalidAuthHeader = errors.New("invalid auth header")

// InvalidAuthHeaderError reports a Basic Auth value that cannot be used.
type InvalidAuthHeaderError struct {
	Reason string
	Err    error
}

func (e *InvalidAuthHeaderError) Error() string {
	return e.Reason
}

// Unwrap returns the decoding error, if any.
func (e *InvalidAuthHeaderError) Unwrap() error {
	return e.Err
}

// Is reports whether target is ErrInvalidAuthHeader.
func (e *InvalidAuthHeaderError) Is(target error) bool {
	return target == ErrInvalidAuthHeader
}

// Credentials is a decoded username and password pair. Nothing about them
// has been verified.
type Credentials struct {
	Username string
	Password string
}

// DecodeBasicToken decodes the base64 part of an "Authorization: Basic"
// header. The decoded text is split at the first colon, so passwords may
// contain colons.
func DecodeBasicToken(token string) (Credentials, error) {
	value, err := base64.StdEncoding.DecodeString(token)
	if err != nil {
		return Credentials{}, &InvalidAuthHeaderError{
			Reason: "can't decode Basic Auth header value",
			Err:    err,
		}
	}

	username, password, found := strings.Cut(string(value), ":")
	if !found {
		return Credentials{}, &InvalidAuthHeaderError{Reason: "invalid Basic Auth header value"}
	}
	return Credentials{Username: username, Password: password}, nil
}

// ParseAuthorizationHeader decodes a full header value such as
// "Basic YWxpY2U6c2VjcmV0". The scheme is matched case-insensitively.
func ParseAuthorizationHeader(header string) (Credentials, error) {
	const scheme = "basic"
	header = strings.TrimSpace(header)
	if len(header) <= len(scheme) || !strings.EqualFold(header[:len(scheme)], scheme) || header[len(scheme)] != ' ' {
		return Credentials{}, &InvalidAuthHeaderError{Reason: "unsupported authentication scheme"}
	}
	return DecodeBasicToken(strings.TrimSpace(header[len(scheme)+1:]))
}
