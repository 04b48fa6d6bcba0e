package auth

import (
	"context"
	"fmt"

	"github.com/habedi/folio/client"
	"github.com/habedi/folio/pkg/validation"
	"github.com/rs/zerolog/log"
)

// Service validates credentials forms, talks to the API and keeps the session in step.
type Service struct {
	API     Authenticator
	Session SessionKeeper
}

// NewService is the constructor for the auth service.
func NewService(api Authenticator, keeper SessionKeeper) *Service {
	return &Service{API: api, Session: keeper}
}

// Status is what the service knows about the current login.
type Status struct {
	Authenticated bool
	// User is nil when not authenticated or when the lookup failed.
	User *client.User
	// UserErr is the lookup failure, if any. Authenticated is re-read after it.
	UserErr error
}

// Login validates the form, exchanges the credentials for tokens and starts a session.
func (s *Service) Login(ctx context.Context, form validation.LoginForm) error {
	if err := validation.Struct(form); err != nil {
		return err
	}
	pair, err := s.API.Authenticate(ctx, client.Credentials{Username: form.Username, Password: form.Password})
	if err != nil {
		return err
	}
	if err := s.Session.Begin(ctx, pair); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	log.Info().Str("username", form.Username).Msg("Logged in")
	return nil
}

// Register validates the form, creates the account and starts a session.
func (s *Service) Register(ctx context.Context, form validation.RegisterForm) error {
	if err := validation.Struct(form); err != nil {
		return err
	}
	pair, err := s.API.Register(ctx, client.Registration{
		Username:  form.Username,
		Email:     form.Email,
		Password1: form.Password1,
		Password2: form.Password2,
	})
	if err != nil {
		return err
	}
	if err := s.Session.Begin(ctx, pair); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	log.Info().Str("username", form.Username).Msg("Registered")
	return nil
}

// Logout notifies the server and always clears the local session.
func (s *Service) Logout(ctx context.Context) error {
	if err := s.API.Logout(ctx); err != nil {
		log.Warn().Err(err).Msg("Server logout failed, clearing local session anyway")
	}
	if err := s.Session.Destroy(ctx); err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	return nil
}

// Status reports whether an access token is held. The user is looked up only
// when it is. A failed lookup is reported in UserErr and the token is checked again.
func (s *Service) Status(ctx context.Context) (Status, error) {
	authed, err := s.Session.Authenticated(ctx)
	if err != nil {
		return Status{}, fmt.Errorf("failed to read session: %w", err)
	}
	st := Status{Authenticated: authed}
	if !authed {
		return st, nil
	}
	u, err := s.API.CurrentUser(ctx)
	if err != nil {
		log.Debug().Err(err).Msg("Current user lookup failed")
		st.UserErr = err
		// the lookup may have ended the session through a failed refresh
		if st.Authenticated, err = s.Session.Authenticated(ctx); err != nil {
			return Status{}, fmt.Errorf("failed to read session: %w", err)
		}
		return st, nil
	}
	st.User = &u
	return st, nil
}

// Refresh renews the access token on demand.
func (s *Service) Refresh(ctx context.Context) error {
	return s.API.Refresh(ctx)
}
