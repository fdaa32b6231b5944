package credentials

import "time"

// Store owns every UserCredential, keyed 1:1 by user identity. Implementations
// must be safe for concurrent use; per-identity read-modify-write ordering is
// the caller's job (see oauthflow.Manager).
type Store interface {
	// Get returns a copy of the credential or errors.ErrNotFound.
	Get(userID string) (*UserCredential, error)
	// Put stores or overwrites the credential for cred.UserID.
	Put(cred UserCredential) error
	// Delete removes the credential and reports whether one existed.
	Delete(userID string) (bool, error)
	List() ([]UserCredential, error)
	// ListExpired returns credentials whose access token is expired at now.
	ListExpired(now time.Time) ([]UserCredential, error)
}

// Persister is implemented by stores that hold state in memory and need an
// explicit flush to durable storage.
type Persister interface {
	Persist() error
}

// Persist flushes the store if it needs it.
func Persist(s Store) error {
	if p, ok := s.(Persister); ok {
		return p.Persist()
	}
	return nil
}
