package errors

import "errors"

// Error kinds surfaced by the OAuth flow, the intent handlers and the upstream collaborators.
var (
	// OAuth flow errors
	ErrConfigIncomplete = errors.New("oauth configuration incomplete")
	ErrInvalidState     = errors.New("invalid oauth state")
	ErrExchangeFailed   = errors.New("authorization code exchange failed")

	// Credential errors
	ErrNotAuthenticated = errors.New("not authenticated")
	ErrReauthRequired   = errors.New("re-authentication required")

	// Upstream collaborator errors
	ErrUpstreamTimeout           = errors.New("upstream timeout")
	ErrUpstreamTransport         = errors.New("upstream transport error")
	ErrUpstreamMalformedResponse = errors.New("upstream malformed response")
	ErrUpstreamNotConfigured     = errors.New("upstream not configured")

	// Non-fatal: an unparseable date phrase was replaced by today
	ErrDateParseFallback = errors.New("date phrase not understood, using today")

	// General errors
	ErrNotFound     = errors.New("not found")
	ErrUnauthorized = errors.New("unauthorized")
)
