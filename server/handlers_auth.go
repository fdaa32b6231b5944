package server

import (
	"errors"
	"html/template"
	"net/http"
	"strings"

	apperrors "github.com/ISMendys/alexa-gemini/internal/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// LoginHandler starts account linking for ?user_id= by redirecting to the
// provider consent page.
func (s *Server) LoginHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := strings.TrimSpace(r.URL.Query().Get("user_id"))
		if userID == "" {
			writeJSONError(w, "invalid_request", "user_id is required", http.StatusBadRequest)
			return
		}

		authURL, err := s.auth.CreateAuthorizationURL(userID)
		if err != nil {
			zerolog.Ctx(r.Context()).Error().Err(err).Str("user_id", userID).Msg("failed to create authorization URL")
			if errors.Is(err, apperrors.ErrConfigIncomplete) {
				writeJSONError(w, "server_error", "oauth client is not configured", http.StatusInternalServerError)
				return
			}
			writeJSONError(w, "server_error", "failed to start authorization", http.StatusInternalServerError)
			return
		}

		http.Redirect(w, r, authURL.URL, http.StatusFound)
	}
}

type successPage struct {
	UserID string
	Email  string
}

type failurePage struct {
	Reason string
}

// CallbackHandler redeems the provider redirect. It accepts query params and
// form_post bodies alike and answers with an HTML page.
func (s *Server) CallbackHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := zerolog.Ctx(r.Context())
		state := r.FormValue("state")
		code := r.FormValue("code")

		if errorParam := r.FormValue("error"); errorParam != "" {
			logger.Warn().Str("error", errorParam).Str("description", r.FormValue("error_description")).Msg("provider denied authorization")
			s.renderPage(w, http.StatusBadRequest, s.pages.failure, failurePage{Reason: "Autorização negada: " + errorParam})
			return
		}
		if code == "" || state == "" {
			s.renderPage(w, http.StatusBadRequest, s.pages.failure, failurePage{Reason: "Parâmetros code ou state ausentes."})
			return
		}

		result, err := s.auth.HandleCallback(r.Context(), code, state)
		switch {
		case errors.Is(err, apperrors.ErrInvalidState):
			logger.Warn().Msg("callback with unknown or expired state")
			s.renderPage(w, http.StatusBadRequest, s.pages.failure, failurePage{Reason: "Sessão de autorização inválida ou expirada."})
			return
		case errors.Is(err, apperrors.ErrExchangeFailed):
			logger.Error().Err(err).Msg("code exchange failed")
			s.renderPage(w, http.StatusBadRequest, s.pages.failure, failurePage{Reason: "Não foi possível obter as credenciais do Google."})
			return
		case err != nil:
			logger.Error().Err(err).Msg("callback failed")
			s.renderPage(w, http.StatusInternalServerError, s.pages.failure, failurePage{Reason: "Erro interno ao salvar as credenciais."})
			return
		}

		if err := s.auth.Persist(); err != nil {
			logger.Error().Err(err).Str("user_id", result.UserID).Msg("failed to persist credentials")
		}
		s.renderPage(w, http.StatusOK, s.pages.success, successPage{UserID: result.UserID, Email: result.Email})
	}
}

// StatusHandler reports whether a usable credential exists. The check may
// refresh the access token.
func (s *Server) StatusHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := r.PathValue("user_id")
		writeJSON(w, http.StatusOK, map[string]any{
			"user_id":       userID,
			"authenticated": s.auth.IsAuthenticated(r.Context(), userID),
		})
	}
}

// RevokeHandler forgets a user's credential locally.
func (s *Server) RevokeHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := zerolog.Ctx(r.Context())
		userID := r.PathValue("user_id")

		deleted, err := s.auth.Revoke(userID)
		if err != nil {
			logger.Error().Err(err).Str("user_id", userID).Msg("revoke failed")
			writeJSONError(w, "server_error", "failed to revoke credential", http.StatusInternalServerError)
			return
		}
		if !deleted {
			writeJSONError(w, "not_found", "no credential for user", http.StatusNotFound)
			return
		}

		if err := s.auth.Persist(); err != nil {
			logger.Error().Err(err).Str("user_id", userID).Msg("failed to persist credentials")
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"user_id": userID,
			"revoked": true,
		})
	}
}

func (s *Server) renderPage(w http.ResponseWriter, status int, page *template.Template, data any) {
	w.Header().Set("Content-Type", contentTypeHTML)
	w.WriteHeader(status)
	if err := page.Execute(w, data); err != nil {
		log.Error().Err(err).Str("template", page.Name()).Msg("failed to render page")
	}
}
