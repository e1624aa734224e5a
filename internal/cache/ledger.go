// Package cache holds short-lived claims that must be visible to every server
// instance, such as redeemed admission tokens.
package cache

import (
	"context"
	"time"
)

type Ledger interface {
	// Claim records key for ttl. It reports false when key is already held.
	Claim(ctx context.Context, key string, ttl time.Duration) (bool, error)
}
