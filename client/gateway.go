package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/habedi/folio/session"
	"github.com/rs/zerolog/log"
)

// RefreshPath is the endpoint that trades a refresh token for a new token pair.
const RefreshPath = "/api/token/refresh"

// DefaultTimeout bounds a single HTTP round trip.
const DefaultTimeout = 30 * time.Second

// Envelope describes one logical API call. The same envelope is reused for the
// retry after a refresh, so Retried and RequestID carry over.
type Envelope struct {
	Method string
	Path   string
	Body   any
	// Retried is set once the call has been through a refresh; a second 401 is final.
	Retried bool
	// SkipRefresh marks credential calls (login, register, refresh) whose 401 means
	// bad credentials rather than an expired access token.
	SkipRefresh bool
	RequestID   string

	cookie *http.Cookie
	// anonymous requests carry no bearer token, only the cookie if any.
	anonymous bool
}

// Gateway sends API requests with the session's access token and recovers from
// an expired access token by refreshing it once. It is safe for concurrent use.
type Gateway struct {
	baseURL string
	http    *http.Client
	session *session.Manager
	metrics *Metrics

	// refreshMu serializes refreshes so concurrent 401s trigger a single one.
	refreshMu sync.Mutex
}

// Option configures a Gateway.
type Option func(*Gateway)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(c *http.Client) Option {
	return func(g *Gateway) { g.http = c }
}

// WithMetrics makes the gateway record request and refresh metrics.
func WithMetrics(m *Metrics) Option {
	return func(g *Gateway) { g.metrics = m }
}

// NewGateway returns a gateway for the API at baseURL.
func NewGateway(baseURL string, mgr *session.Manager, opts ...Option) *Gateway {
	g := &Gateway{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: DefaultTimeout},
		session: mgr,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Do runs env and decodes a 2xx body into out (which may be nil).
// An empty or null body leaves out untouched.
func (g *Gateway) Do(ctx context.Context, env *Envelope, out any) error {
	if env.RequestID == "" {
		env.RequestID = uuid.NewString()
	}
	for {
		sentWith, status, body, err := g.send(ctx, env)
		if err != nil {
			return err
		}
		if status >= 200 && status < 300 {
			return decodeBody(body, out)
		}
		if status == http.StatusUnauthorized && !env.Retried && !env.SkipRefresh {
			env.Retried = true
			log.Debug().Str("method", env.Method).Str("path", env.Path).Str("request_id", env.RequestID).
				Msg("Access token rejected, refreshing")
			if err := g.refreshAfter(ctx, sentWith); err != nil {
				return err
			}
			continue
		}
		apiErr := newAPIError(env.Method, env.Path, status, body)
		log.Debug().Str("method", env.Method).Str("path", env.Path).Int("status", status).
			Str("request_id", env.RequestID).Str("detail", apiErr.Detail).Msg("API request failed")
		return apiErr
	}
}

// Refresh trades the stored refresh token for a new access token.
func (g *Gateway) Refresh(ctx context.Context) error {
	g.refreshMu.Lock()
	defer g.refreshMu.Unlock()
	return g.refreshLocked(ctx)
}

// refreshAfter is called after a 401 on a request sent with the given access token.
// If another caller already replaced that token, the new one is reused.
func (g *Gateway) refreshAfter(ctx context.Context, sentWith string) error {
	g.refreshMu.Lock()
	defer g.refreshMu.Unlock()

	current, ok, err := g.session.AccessToken(ctx)
	if err != nil {
		return fmt.Errorf("failed to read access token: %w", err)
	}
	if ok && current != sentWith {
		log.Debug().Msg("Access token was refreshed concurrently, reusing it")
		return nil
	}
	return g.refreshLocked(ctx)
}

func (g *Gateway) refreshLocked(ctx context.Context) error {
	refresh, ok, err := g.session.RefreshToken(ctx)
	if err != nil {
		return fmt.Errorf("failed to read refresh token: %w", err)
	}
	if !ok {
		g.metrics.observeRefresh(RefreshMissing)
		log.Info().Msg("No refresh token available")
		// Only a session that still holds something counts as expiring.
		if authed, _ := g.session.Authenticated(ctx); authed {
			if err := g.session.Expire(ctx); err != nil {
				log.Warn().Err(err).Msg("Failed to clear session")
			}
		}
		return ErrUnauthenticated
	}

	env := &Envelope{
		Method:      http.MethodPost,
		Path:        RefreshPath,
		Body:        map[string]string{"refresh": refresh},
		SkipRefresh: true,
		cookie:      &http.Cookie{Name: session.RefreshTokenName, Value: refresh},
		anonymous:   true,
	}
	var pair session.TokenPair
	err = g.Do(ctx, env, &pair)
	if err == nil && pair.Access == "" {
		err = errors.New("refresh response carried no access token")
	}
	if err == nil {
		err = g.session.Renew(ctx, pair.Access, pair.Refresh)
	}
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		g.metrics.observeRefresh(RefreshFailure)
		log.Warn().Err(err).Msg("Token refresh failed, clearing session")
		if clearErr := g.session.Expire(ctx); clearErr != nil {
			log.Warn().Err(clearErr).Msg("Failed to clear session")
		}
		return fmt.Errorf("%w: token refresh failed: %w", ErrUnauthenticated, err)
	}
	g.metrics.observeRefresh(RefreshSuccess)
	log.Info().Msg("Access token refreshed")
	return nil
}

// send performs one round trip and returns the access token it attached.
func (g *Gateway) send(ctx context.Context, env *Envelope) (string, int, []byte, error) {
	var token string
	if !env.anonymous {
		var err error
		if token, _, err = g.session.AccessToken(ctx); err != nil {
			return "", 0, nil, fmt.Errorf("failed to read access token: %w", err)
		}
	}

	req, err := g.createRequest(ctx, env, token)
	if err != nil {
		return "", 0, nil, err
	}

	start := time.Now()
	log.Debug().Str("method", env.Method).Str("path", env.Path).Str("request_id", env.RequestID).
		Bool("authorized", token != "").Bool("retried", env.Retried).Msg("Sending HTTP request")
	resp, err := g.http.Do(req)
	if err != nil {
		g.metrics.observeRequest(env.Method, 0, time.Since(start))
		log.Error().Err(err).Str("method", env.Method).Str("path", env.Path).Msg("HTTP request failed")
		return "", 0, nil, fmt.Errorf("%s %s: %w", env.Method, env.Path, err)
	}
	body, err := readResponseBody(resp)
	g.metrics.observeRequest(env.Method, resp.StatusCode, time.Since(start))
	if err != nil {
		return "", 0, nil, fmt.Errorf("failed to read response body: %w", err)
	}
	log.Debug().Str("method", env.Method).Str("path", env.Path).Int("status", resp.StatusCode).
		Str("request_id", env.RequestID).Msg("HTTP response received")
	return token, resp.StatusCode, body, nil
}

func (g *Gateway) createRequest(ctx context.Context, env *Envelope, token string) (*http.Request, error) {
	var body io.Reader
	if env.Body != nil {
		buf, err := json.Marshal(env.Body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request body: %w", err)
		}
		body = bytes.NewReader(buf)
	}
	req, err := http.NewRequestWithContext(ctx, env.Method, g.baseURL+env.Path, body)
	if err != nil {
		log.Error().Err(err).Str("method", env.Method).Str("path", env.Path).Msg("Failed to create HTTP request object")
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", env.RequestID)
	if env.Body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if env.cookie != nil {
		req.AddCookie(env.cookie)
	}
	return req, nil
}

// readResponseBody reads and closes the response body.
func readResponseBody(resp *http.Response) ([]byte, error) {
	defer resp.Body.Close()
	return io.ReadAll(resp.Body)
}

func decodeBody(body []byte, out any) error {
	trimmed := bytes.TrimSpace(body)
	if out == nil || len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil
	}
	if err := json.Unmarshal(trimmed, out); err != nil {
		log.Error().Err(err).Str("body_preview", string(trimmed[:min(len(trimmed), 200)])).Msg("Failed to parse response JSON")
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
