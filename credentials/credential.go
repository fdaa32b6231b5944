package credentials

import (
	"slices"
	"time"
)

// expiryDelta treats a token as expired slightly early so it is not used in
// flight across its expiry instant. Same margin as golang.org/x/oauth2.
const expiryDelta = 10 * time.Second

// UserCredential is the OAuth credential bundle held for one user identity.
// All fields are serialised, secrets included.
type UserCredential struct {
	UserID       string    `json:"-"`
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	TokenURI     string    `json:"token_uri"`
	ClientID     string    `json:"client_id"`
	ClientSecret string    `json:"client_secret"`
	Scopes       []string  `json:"scopes"`
	Expiry       time.Time `json:"expiry,omitzero"`
	Email        string    `json:"email,omitempty"`
}

// Expired reports whether the access token must be refreshed before use.
// A zero Expiry never expires, matching oauth2.Token semantics.
func (c UserCredential) Expired(now time.Time) bool {
	if c.AccessToken == "" {
		return true
	}
	if c.Expiry.IsZero() {
		return false
	}
	return !now.Add(expiryDelta).Before(c.Expiry)
}

// CanRefresh reports whether a refresh token is present.
func (c UserCredential) CanRefresh() bool {
	return c.RefreshToken != ""
}

// Dead reports an expired credential that cannot be refreshed. Such an entry
// is unusable until the user links their account again.
func (c UserCredential) Dead(now time.Time) bool {
	return c.Expired(now) && !c.CanRefresh()
}

// Clone returns a deep copy so callers never share the stored scope slice.
func (c UserCredential) Clone() UserCredential {
	c.Scopes = slices.Clone(c.Scopes)
	return c
}
