package auth

import (
	"context"

	"github.com/habedi/folio/client"
	"github.com/habedi/folio/session"
)

// Authenticator is the part of the API client the auth service needs.
type Authenticator interface {
	Authenticate(ctx context.Context, creds client.Credentials) (session.TokenPair, error)
	Register(ctx context.Context, reg client.Registration) (session.TokenPair, error)
	Logout(ctx context.Context) error
	CurrentUser(ctx context.Context) (client.User, error)
	Refresh(ctx context.Context) error
}

// SessionKeeper creates and destroys the local session.
type SessionKeeper interface {
	Begin(ctx context.Context, pair session.TokenPair) error
	Destroy(ctx context.Context) error
	Authenticated(ctx context.Context) (bool, error)
}
