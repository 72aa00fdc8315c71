package cache

import (
	"context"
	"errors"
	"time"
)

// ErrConflict is returned by UpdateJSON when the key kept changing under it.
var ErrConflict = errors.New("cache: concurrent update, retries exhausted")

type Cache interface {
	GetJSON(ctx context.Context, key string, dst any) (hit bool, err error)
	SetJSON(ctx context.Context, key string, val any, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error

	// UpdateJSON decodes key into dst, calls fn with whether it was found,
	// and stores dst again. Concurrent writers to the same key are
	// serialized; fn may run more than once. If fn returns an error nothing
	// is written.
	UpdateJSON(ctx context.Context, key string, dst any, ttl time.Duration, fn func(found bool) error) error
}
