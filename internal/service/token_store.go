package service

import (
	"context"
	"time"
)

type TokenState string

const (
	TokenStateNew        TokenState = "new"
	TokenStateInProgress TokenState = "in_progress"
	TokenStateReplay     TokenState = "replay"
)

type TokenBeginResult struct {
	State TokenState
	// Outcome holds the recorded reconciliation outcome when State is
	// replay.
	Outcome string
}

// TokenStore remembers IPN tokens that already went through
// reconciliation, so exact replays can be answered without another
// exchange round trip. It is an optimization only: the order-level
// needs-payment gate stays the authoritative idempotence check, and
// callers treat store errors as fail-open.
type TokenStore interface {
	Begin(ctx context.Context, token string, ttl time.Duration) (TokenBeginResult, error)
	Complete(ctx context.Context, token, outcome string, ttl time.Duration) error
}
