package session

import (
	"context"
	"errors"
	"time"
)

// Names of the two entries that make up a session.
const (
	AccessTokenName  = "access_token"
	RefreshTokenName = "refresh_token"
)

// ErrInvalidTTL is returned by stores when asked to keep a value for a non-positive duration.
var ErrInvalidTTL = errors.New("session: ttl must be positive")

// Store is a durable key-value store whose entries expire independently.
// An expired entry reads as absent. Clearing an absent entry is not an error.
type Store interface {
	Get(ctx context.Context, name string) (value string, found bool, err error)
	Set(ctx context.Context, name, value string, ttl time.Duration) error
	Clear(ctx context.Context, name string) error
}
