// Package revocation implements the deny-list of token hashes that must
// never again be accepted, regardless of cryptographic validity.
package revocation

import (
	"context"
	"time"
)

// Ledger is the revocation deny-list consulted by the security validator
// and fed by session invalidation and refresh rotation. Entries are keyed
// by token hash, never by raw token.
type Ledger interface {
	// Add records a token hash until its underlying token would have
	// expired anyway. A non-positive ttl is a no-op.
	Add(ctx context.Context, tokenHash string, ttl time.Duration) error

	// Contains reports whether a token hash is revoked.
	Contains(ctx context.Context, tokenHash string) (bool, error)

	// Size returns the number of live entries.
	Size(ctx context.Context) (int64, error)

	// Sweep drops entries whose underlying token could no longer verify.
	Sweep(ctx context.Context) error
}
