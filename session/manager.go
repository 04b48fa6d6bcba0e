package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// Default token lifetimes.
const (
	DefaultAccessTTL  = 15 * time.Minute
	DefaultRefreshTTL = 7 * 24 * time.Hour
)

// EventKind says what happened to the session.
type EventKind int

const (
	// Began means a login or registration stored a new token pair.
	Began EventKind = iota
	// Renewed means a refresh replaced the access token.
	Renewed
	// Ended means the user logged out.
	Ended
	// Expired means the session was cleared because it could not be refreshed.
	Expired
)

func (k EventKind) String() string {
	switch k {
	case Began:
		return "began"
	case Renewed:
		return "renewed"
	case Ended:
		return "ended"
	case Expired:
		return "expired"
	default:
		return "unknown"
	}
}

// Event is delivered to observers after every session mutation.
type Event struct {
	Kind          EventKind
	Authenticated bool
	At            time.Time
}

// Observer receives session events. It runs synchronously on the mutating goroutine.
type Observer func(Event)

// Policy holds the lifetimes applied to stored tokens.
type Policy struct {
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

// Manager is the only way to read or change the session.
// It is safe for concurrent use.
type Manager struct {
	store  Store
	policy Policy
	now    func() time.Time

	mu        sync.Mutex
	observers map[int]Observer
	nextID    int
}

// NewManager returns a manager over store. Zero policy values fall back to the defaults.
func NewManager(store Store, policy Policy) *Manager {
	if policy.AccessTTL <= 0 {
		policy.AccessTTL = DefaultAccessTTL
	}
	if policy.RefreshTTL <= 0 {
		policy.RefreshTTL = DefaultRefreshTTL
	}
	return &Manager{
		store:     store,
		policy:    policy,
		now:       time.Now,
		observers: make(map[int]Observer),
	}
}

// Policy returns the effective token lifetimes.
func (m *Manager) Policy() Policy { return m.policy }

// AccessToken returns the stored access token, if any.
func (m *Manager) AccessToken(ctx context.Context) (string, bool, error) {
	return m.store.Get(ctx, AccessTokenName)
}

// RefreshToken returns the stored refresh token, if any.
func (m *Manager) RefreshToken(ctx context.Context) (string, bool, error) {
	return m.store.Get(ctx, RefreshTokenName)
}

// Authenticated reports whether an access token is present. The refresh token does not count.
func (m *Manager) Authenticated(ctx context.Context) (bool, error) {
	_, ok, err := m.AccessToken(ctx)
	return ok, err
}

// Begin stores a freshly issued token pair. Either both tokens are stored or neither is.
func (m *Manager) Begin(ctx context.Context, pair TokenPair) error {
	if pair.Access == "" || pair.Refresh == "" {
		return errors.New("session: token pair is incomplete")
	}
	err := m.put(ctx, RefreshTokenName, pair.Refresh, m.policy.RefreshTTL)
	if err == nil {
		err = m.put(ctx, AccessTokenName, pair.Access, m.policy.AccessTTL)
	}
	if err != nil {
		// a half-stored pair must not read as a session
		for _, name := range []string{AccessTokenName, RefreshTokenName} {
			if clearErr := m.store.Clear(ctx, name); clearErr != nil {
				log.Warn().Err(clearErr).Str("name", name).Msg("Failed to roll back session entry")
			}
		}
		return err
	}
	log.Info().Msg("Session started")
	m.notify(ctx, Began)
	return nil
}

// Renew replaces the access token. A non-empty refresh token is stored as well,
// for servers that rotate it.
func (m *Manager) Renew(ctx context.Context, access, refresh string) error {
	if access == "" {
		return errors.New("session: access token is empty")
	}
	if err := m.put(ctx, AccessTokenName, access, m.policy.AccessTTL); err != nil {
		return err
	}
	if refresh != "" {
		if err := m.put(ctx, RefreshTokenName, refresh, m.policy.RefreshTTL); err != nil {
			return err
		}
	}
	log.Debug().Bool("rotated", refresh != "").Msg("Session renewed")
	m.notify(ctx, Renewed)
	return nil
}

// Destroy clears both tokens after an explicit logout.
func (m *Manager) Destroy(ctx context.Context) error {
	return m.clear(ctx, Ended)
}

// Expire clears both tokens after a failed refresh.
func (m *Manager) Expire(ctx context.Context) error {
	return m.clear(ctx, Expired)
}

// Subscribe registers an observer and returns a function that removes it.
func (m *Manager) Subscribe(o Observer) (unsubscribe func()) {
	m.mu.Lock()
	id := m.nextID
	m.nextID++
	m.observers[id] = o
	m.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			m.mu.Lock()
			delete(m.observers, id)
			m.mu.Unlock()
		})
	}
}

func (m *Manager) clear(ctx context.Context, kind EventKind) error {
	var errs []error
	for _, name := range []string{AccessTokenName, RefreshTokenName} {
		if err := m.store.Clear(ctx, name); err != nil {
			errs = append(errs, err)
		}
	}
	if err := errors.Join(errs...); err != nil {
		return err
	}
	log.Info().Str("reason", kind.String()).Msg("Session cleared")
	m.notify(ctx, kind)
	return nil
}

// put stores a token for the shorter of ttl and its own expiry. A token that is
// already expired is not stored, and any previous value is cleared.
func (m *Manager) put(ctx context.Context, name, value string, ttl time.Duration) error {
	d := lifetime(value, ttl, m.now())
	if d <= 0 {
		log.Warn().Str("name", name).Msg("Received an already expired token, not storing it")
		return m.store.Clear(ctx, name)
	}
	if err := m.store.Set(ctx, name, value, d); err != nil {
		return fmt.Errorf("failed to store %s: %w", name, err)
	}
	return nil
}

func (m *Manager) notify(ctx context.Context, kind EventKind) {
	authed, err := m.Authenticated(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to read session state for observers")
	}
	ev := Event{Kind: kind, Authenticated: authed, At: m.now()}

	m.mu.Lock()
	obs := make([]Observer, 0, len(m.observers))
	for _, o := range m.observers {
		obs = append(obs, o)
	}
	m.mu.Unlock()

	for _, o := range obs {
		o(ev)
	}
}
