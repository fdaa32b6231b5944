package server

import "net/http"

func (s *Server) initRoutes() {
	s.RegisterRouteHandler("GET "+RouteIndex+"{$}", ChainMiddleware(s.IndexHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("GET "+RouteHealth, ChainMiddleware(s.HealthHandler(), s.APIMiddleware()...))

	// Voice webhook
	s.RegisterRouteHandler("POST "+RouteAlexa, ChainMiddleware(s.AlexaHandler(), s.VoiceMiddleware()...))

	// Account linking
	s.RegisterRouteHandler("GET "+RouteAuthLogin, ChainMiddleware(s.LoginHandler(), s.HTMLMiddleWare()...))
	s.RegisterRouteHandler("GET "+RouteAuthCallback, ChainMiddleware(s.CallbackHandler(), s.HTMLMiddleWare()...))
	s.RegisterRouteHandler("POST "+RouteAuthCallback, ChainMiddleware(s.CallbackHandler(), s.HTMLMiddleWare()...)) // For form_post response mode

	// Credential admin
	s.RegisterRouteHandler("GET "+RouteAuthStatus, ChainMiddleware(s.StatusHandler(), s.APIMiddleware(s.RequireAdmin)...))
	s.RegisterRouteHandler("DELETE "+RouteAuthRevoke, ChainMiddleware(s.RevokeHandler(), s.APIMiddleware(s.RequireAdmin)...))

	// CORS preflight; CorsMiddleware answers it before the handler runs
	for _, path := range []string{RouteAlexa, RouteAuthStatus, RouteAuthRevoke} {
		s.RegisterRouteHandler("OPTIONS "+path, ChainMiddleware(func(http.ResponseWriter, *http.Request) {}, s.APIMiddleware()...))
	}
}
