package config

import "time"

const (
	ScopeCalendar = "https://www.googleapis.com/auth/calendar"
	ScopeEmail    = "https://www.googleapis.com/auth/userinfo.email"
	ScopeProfile  = "https://www.googleapis.com/auth/userinfo.profile"
	ScopeOpenID   = "openid"
)

// DefaultScopes are requested when GOOGLE_SCOPES is not set.
var DefaultScopes = []string{ScopeOpenID, ScopeCalendar, ScopeEmail, ScopeProfile}

type OAuthConfig interface {
	GetGoogleClientID() string
	GetGoogleClientSecret() string
	GetGoogleRedirectURI() string
	GetGoogleScopes() []string
	GetStateTTL() time.Duration
	GetVerifyIDToken() bool
}

type OAuth struct {
	s Settings
}

var _ OAuthConfig = OAuth{}

func (o OAuth) GetGoogleClientID() string {
	return o.s.GoogleClientID
}

func (o OAuth) GetGoogleClientSecret() string {
	return o.s.GoogleClientSecret
}

func (o OAuth) GetGoogleRedirectURI() string {
	return o.s.GoogleRedirectURI
}

func (o OAuth) GetGoogleScopes() []string {
	if len(o.s.GoogleScopes) == 0 {
		return DefaultScopes
	}
	return o.s.GoogleScopes
}

func (o OAuth) GetStateTTL() time.Duration {
	if o.s.StateTTL <= 0 {
		return 10 * time.Minute
	}
	return o.s.StateTTL
}

func (o OAuth) GetVerifyIDToken() bool {
	return o.s.VerifyIDToken
}
