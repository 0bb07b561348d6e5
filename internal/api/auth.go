package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/smazurov/opentaxii-core/internal/auth"
	"github.com/smazurov/opentaxii-core/internal/events"
)

type accountKey struct{}

// AccountFrom returns the account stored by the auth middleware.
func AccountFrom(ctx context.Context) (auth.Account, bool) {
	account, ok := ctx.Value(accountKey{}).(auth.Account)
	return account, ok
}

// basicAuthMiddleware authenticates operations that declare the basicAuth
// security requirement. Others pass through untouched.
func (s *Server) basicAuthMiddleware(ctx huma.Context, next func(huma.Context)) {
	op := ctx.Operation()
	if op == nil || len(op.Security) == 0 {
		next(ctx)
		return
	}

	path := ctx.URL().Path
	header := ctx.Header("Authorization")
	if header == "" {
		s.publishAttempt("", path, events.AuthMissing)
		s.unauthorized(ctx, "Authentication required")
		return
	}

	creds, err := auth.ParseAuthorizationHeader(header)
	if err != nil {
		s.logger.Debug("auth.header.invalid", "path", path, "error", err)
		s.publishAttempt("", path, events.AuthMalformed)
		s.unauthorized(ctx, "Invalid Authorization header", err)
		return
	}

	authn := s.authenticator()
	if authn == nil {
		s.logger.Error("auth.backend.missing", "path", path)
		huma.WriteErr(s.api, ctx, http.StatusServiceUnavailable, "No authentication backend configured")
		return
	}

	account, err := authn.Authenticate(ctx.Context(), creds)
	if err != nil {
		if !errors.Is(err, auth.ErrInvalidCredentials) {
			s.logger.Error("auth.backend.failed", "username", creds.Username, "error", err)
			huma.WriteErr(s.api, ctx, http.StatusInternalServerError, "Authentication backend failed")
			return
		}
		s.logger.Info("auth.denied", "username", creds.Username, "path", path)
		s.publishAttempt(creds.Username, path, events.AuthBadCredentials)
		s.unauthorized(ctx, "Invalid credentials")
		return
	}

	s.publishAttempt(account.Username, path, events.AuthOK)
	next(huma.WithValue(ctx, accountKey{}, account))
}

func (s *Server) unauthorized(ctx huma.Context, msg string, errs ...error) {
	ctx.SetHeader("WWW-Authenticate", `Basic realm="`+authRealm+`"`)
	huma.WriteErr(s.api, ctx, http.StatusUnauthorized, msg, errs...)
}

func (s *Server) publishAttempt(username, path, result string) {
	if s.bus == nil {
		return
	}
	s.bus.Publish(events.AuthAttemptEvent{Username: username, Path: path, Result: result})
}
