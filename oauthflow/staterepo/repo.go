package staterepo

import "time"

// Entry correlates an anti-forgery state token with the user identity that
// started account linking and the PKCE verifier for the pending exchange.
// Entries are never persisted.
type Entry struct {
	UserID       string
	CodeVerifier string
	CreatedAt    time.Time
	ExpiresAt    time.Time
}

// Expired reports whether the entry can no longer be redeemed at now.
func (e *Entry) Expired(now time.Time) bool {
	return !e.ExpiresAt.IsZero() && !now.Before(e.ExpiresAt)
}

type Repo interface {
	Upsert(state string, entry *Entry) error
	Get(state string) (*Entry, error)
	Delete(state string) error
	// DeleteExpired sweeps every entry expired at now and returns how many went.
	DeleteExpired(now time.Time) int
}
