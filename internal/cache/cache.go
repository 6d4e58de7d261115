// Package cache provides the string-keyed byte store the activity layer
// memoizes derivations in. Implementations must treat a miss as (nil, nil),
// not an error; callers treat any error as "no cache".
package cache

import (
	"context"
	"time"
)

type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}
