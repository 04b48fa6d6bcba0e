package session

import (
	"context"
	"fmt"
	"time"

	"github.com/habedi/folio/db"
	"github.com/rs/zerolog/log"
)

// SQLStore keeps session entries in the local SQLite database so they survive restarts.
type SQLStore struct {
	repo db.EntryRepository
	now  func() time.Time
}

// NewSQLStore wraps an entry repository.
func NewSQLStore(repo db.EntryRepository) *SQLStore {
	return &SQLStore{repo: repo, now: time.Now}
}

func (s *SQLStore) Get(ctx context.Context, name string) (string, bool, error) {
	entry, err := s.repo.Get(ctx, name)
	if err != nil {
		return "", false, fmt.Errorf("failed to read session entry %q: %w", name, err)
	}
	if entry == nil {
		return "", false, nil
	}
	if entry.Expired(s.now()) {
		log.Debug().Str("name", name).Msg("Session entry expired, removing it")
		if err := s.repo.Delete(ctx, name); err != nil {
			log.Warn().Err(err).Str("name", name).Msg("Failed to remove expired session entry")
		}
		return "", false, nil
	}
	return entry.Value, true, nil
}

func (s *SQLStore) Set(ctx context.Context, name, value string, ttl time.Duration) error {
	if ttl <= 0 {
		return ErrInvalidTTL
	}
	entry := db.Entry{
		Name:      name,
		Value:     value,
		ExpiresAt: s.now().Add(ttl).UTC(),
	}
	if err := s.repo.Put(ctx, entry); err != nil {
		return fmt.Errorf("failed to save session entry %q: %w", name, err)
	}
	return nil
}

func (s *SQLStore) Clear(ctx context.Context, name string) error {
	if err := s.repo.Delete(ctx, name); err != nil {
		return fmt.Errorf("failed to clear session entry %q: %w", name, err)
	}
	return nil
}

// Purge drops every expired entry. Called once at startup.
func (s *SQLStore) Purge(ctx context.Context) error {
	n, err := s.repo.PurgeExpired(ctx, s.now())
	if err != nil {
		return fmt.Errorf("failed to purge expired session entries: %w", err)
	}
	if n > 0 {
		log.Debug().Int64("count", n).Msg("Purged expired session entries")
	}
	return nil
}
