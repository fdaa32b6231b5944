// Package server exposes the voice webhook and the account linking endpoints
// over HTTP.
package server

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/ISMendys/alexa-gemini/alexa"
	"github.com/ISMendys/alexa-gemini/internal/config"
	"github.com/ISMendys/alexa-gemini/oauthflow"
	"github.com/ISMendys/alexa-gemini/token"
	"github.com/rs/zerolog/log"
)

// AuthFlow is the part of oauthflow.Manager the HTTP surface drives.
type AuthFlow interface {
	CreateAuthorizationURL(userID string) (*oauthflow.AuthorizationURL, error)
	HandleCallback(ctx context.Context, code, state string) (*oauthflow.CallbackResult, error)
	IsAuthenticated(ctx context.Context, userID string) bool
	Revoke(userID string) (bool, error)
	Persist() error
}

// VoiceHandler answers one voice request envelope. intents.Router implements it.
// Apology is the reply used when the envelope never reaches Handle.
type VoiceHandler interface {
	Handle(ctx context.Context, env *alexa.RequestEnvelope) *alexa.ResponseEnvelope
	Apology(locale string) *alexa.ResponseEnvelope
}

type Server struct {
	env    string // Environment (e.g., "DEV", "PROD")
	mux    *http.ServeMux
	routes []string
	config config.Config
	auth   AuthFlow
	voice  VoiceHandler
	admin  *token.AdminIssuer
	pages  *pages
}

func New(config config.Config, auth AuthFlow, voice VoiceHandler, admin *token.AdminIssuer) (*Server, error) {
	switch {
	case config == nil:
		return nil, fmt.Errorf("[Server New] config is required")
	case auth == nil:
		return nil, fmt.Errorf("[Server New] auth flow is required")
	case voice == nil:
		return nil, fmt.Errorf("[Server New] voice handler is required")
	case admin == nil:
		return nil, fmt.Errorf("[Server New] admin issuer is required")
	}

	p, err := loadPages()
	if err != nil {
		return nil, fmt.Errorf("[Server New] failed to parse templates: %w", err)
	}

	s := &Server{
		env:    config.GetEnv(),
		mux:    http.NewServeMux(),
		config: config,
		auth:   auth,
		voice:  voice,
		admin:  admin,
		pages:  p,
	}
	if !admin.Enabled() {
		log.Warn().Msg("ADMIN_SECRET not set; credential admin endpoints are unauthenticated")
	}

	s.initRoutes()
	s.logRoutes()

	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) RegisterRouteHandler(pattern string, handler http.Handler) {
	s.routes = append(s.routes, pattern)
	s.mux.Handle(pattern, handler)
}

func (s *Server) logRoutes() {
	if s.env != "DEV" {
		return
	}
	for _, route := range s.routes {
		parts := strings.SplitN(route, " ", 2)
		if len(parts) > 1 {
			logRoute(parts[0], parts[1])
		} else {
			logRoute("", parts[0])
		}
	}
}

func logRoute(method, path string) {
	log.Debug().Msgf("[%-19s] %s", colourMethod(method), path)
}

func padMethod(method string) string {
	return fmt.Sprintf(" %-7s", method)
}
