package session

import (
	"context"
	"time"

	"github.com/patrickmn/go-cache"
)

// MemoryStore is a process-local Store. Nothing outlives the process.
type MemoryStore struct {
	c *cache.Cache
}

// NewMemoryStore returns an empty in-memory store. Expired items are swept every minute.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{c: cache.New(cache.NoExpiration, time.Minute)}
}

func (m *MemoryStore) Get(_ context.Context, name string) (string, bool, error) {
	v, ok := m.c.Get(name)
	if !ok {
		return "", false, nil
	}
	s, ok := v.(string)
	return s, ok, nil
}

func (m *MemoryStore) Set(_ context.Context, name, value string, ttl time.Duration) error {
	if ttl <= 0 {
		return ErrInvalidTTL
	}
	m.c.Set(name, value, ttl)
	return nil
}

func (m *MemoryStore) Clear(_ context.Context, name string) error {
	m.c.Delete(name)
	return nil
}
