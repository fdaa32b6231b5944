package server

// Route path constants
const (
	RouteIndex  = "/"
	RouteHealth = "/health"

	// Voice platform webhook
	RouteAlexa = "/alexa"

	// Account linking
	RouteAuthLogin    = "/auth/login"
	RouteAuthCallback = "/auth/callback"

	// Credential admin
	RouteAuthStatus = "/auth/status/{user_id}"
	RouteAuthRevoke = "/auth/revoke/{user_id}"
)

const (
	contentTypeJSON = "application/json; charset=utf-8"
	contentTypeHTML = "text/html; charset=utf-8"
	headerRequestID = "X-Request-ID"
)
