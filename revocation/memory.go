package revocation

import (
	"context"
	"sort"
	"sync"
	"time"
)

// defaultMaxEntries bounds the in-memory ledger; Sweep trims beyond it.
const defaultMaxEntries = 100000

// MemoryLedger is a mutex-guarded in-process ledger. It is the canonical
// store for a single authoritative process; RedisLedger replaces it when
// sessions are shared across processes.
type MemoryLedger struct {
	mu         sync.RWMutex
	entries    map[string]time.Time // token hash -> expiry
	maxEntries int
	now        func() time.Time
}

// MemoryOption configures a MemoryLedger.
type MemoryOption func(*MemoryLedger)

// WithMaxEntries overrides the trim threshold.
func WithMaxEntries(n int) MemoryOption {
	return func(l *MemoryLedger) {
		if n > 0 {
			l.maxEntries = n
		}
	}
}

// WithClock injects the time source for tests.
func WithClock(now func() time.Time) MemoryOption {
	return func(l *MemoryLedger) {
		if now != nil {
			l.now = now
		}
	}
}

// NewMemoryLedger creates an in-memory ledger.
func NewMemoryLedger(opts ...MemoryOption) *MemoryLedger {
	l := &MemoryLedger{
		entries:    make(map[string]time.Time),
		maxEntries: defaultMaxEntries,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Add records a token hash until its expiry.
func (l *MemoryLedger) Add(ctx context.Context, tokenHash string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil // an already expired token cannot verify anyway
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries[tokenHash] = l.now().Add(ttl)
	return nil
}

// Contains reports whether a token hash is revoked. Expired entries are
// treated as absent even before the next sweep removes them.
func (l *MemoryLedger) Contains(ctx context.Context, tokenHash string) (bool, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	expiry, ok := l.entries[tokenHash]
	if !ok {
		return false, nil
	}
	return l.now().Before(expiry), nil
}

// Size returns the number of live entries.
func (l *MemoryLedger) Size(ctx context.Context) (int64, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return int64(len(l.entries)), nil
}

// Sweep drops expired entries, then trims the soonest-to-expire entries if
// the ledger is still oversized.
func (l *MemoryLedger) Sweep(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	for hash, expiry := range l.entries {
		if !now.Before(expiry) {
			delete(l.entries, hash)
		}
	}

	if len(l.entries) <= l.maxEntries {
		return nil
	}

	type entry struct {
		hash   string
		expiry time.Time
	}
	sorted := make([]entry, 0, len(l.entries))
	for hash, expiry := range l.entries {
		sorted = append(sorted, entry{hash, expiry})
	}
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].expiry.Before(sorted[j].expiry)
	})

	for _, e := range sorted[:len(sorted)-l.maxEntries] {
		delete(l.entries, e.hash)
	}
	return nil
}

var _ Ledger = (*MemoryLedger)(nil)
