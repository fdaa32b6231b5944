package server

import (
	"encoding/json"
	"net/http"

	"github.com/ISMendys/alexa-gemini/alexa"
	"github.com/rs/zerolog"
)

// maxVoiceRequestBytes bounds the webhook body; real envelopes are a few KB.
const maxVoiceRequestBytes = 1 << 20

func (s *Server) IndexHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{
			"service": s.config.GetAppName(),
			"status":  "running",
		})
	}
}

func (s *Server) HealthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
	}
}

// AlexaHandler is the voice webhook. It always answers 200 with an envelope;
// failures, a body that does not decode included, are spoken, not signalled
// through HTTP.
func (s *Server) AlexaHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var env alexa.RequestEnvelope
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxVoiceRequestBytes)).Decode(&env); err != nil {
			zerolog.Ctx(r.Context()).Warn().Err(err).Msg("malformed voice request")
			writeJSON(w, http.StatusOK, s.voice.Apology(""))
			return
		}

		resp := s.voice.Handle(r.Context(), &env)
		if resp == nil {
			// SessionEndedRequest takes no speech
			writeJSON(w, http.StatusOK, struct{}{})
			return
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", contentTypeJSON)
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeJSONError(w http.ResponseWriter, errorCode, description string, statusCode int) {
	writeJSON(w, statusCode, map[string]string{
		"error":             errorCode,
		"error_description": description,
	})
}
