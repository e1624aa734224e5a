package cache

import (
	"context"
	"sync"
	"time"
)

// MemoryLedger is the single-instance Ledger used when Redis is not configured.
// Expired claims are dropped lazily on the next Claim.
type MemoryLedger struct {
	mu     sync.Mutex
	claims map[string]time.Time
	now    func() time.Time
}

func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{claims: make(map[string]time.Time), now: time.Now}
}

func (l *MemoryLedger) Claim(_ context.Context, key string, ttl time.Duration) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	for k, exp := range l.claims {
		if now.After(exp) {
			delete(l.claims, k)
		}
	}
	if _, held := l.claims[key]; held {
		return false, nil
	}
	l.claims[key] = now.Add(ttl)
	return true, nil
}
