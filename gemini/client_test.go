package gemini_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ISMendys/alexa-gemini/gemini"
	"github.com/ISMendys/alexa-gemini/internal/config"
	apperrors "github.com/ISMendys/alexa-gemini/internal/errors"
	"github.com/stretchr/testify/require"
)

const testAPIKey = "test-gemini-key"

func newTestClient(t *testing.T, handler http.HandlerFunc, mutate ...func(*config.Settings)) *gemini.Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	settings := config.Settings{
		GeminiAPIKey:    testAPIKey,
		GeminiBaseURL:   srv.URL + "/v1beta",
		GeminiModel:     "gemini-test",
		UpstreamTimeout: time.Second,
		Timezone:        "UTC",
	}
	for _, m := range mutate {
		m(&settings)
	}
	cfg, err := config.FromSettings(settings)
	require.NoError(t, err)
	return gemini.NewClient(cfg)
}

func writeJSON(w http.ResponseWriter, body string) {
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(body))
}

func TestGenerate(t *testing.T) {
	var got map[string]any
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/v1beta/models/gemini-test:generateContent", r.URL.Path)
		require.Equal(t, testAPIKey, r.Header.Get("x-goog-api-key"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		writeJSON(w, `{"candidates": [{"content": {"parts": [{"text": "Go é uma linguagem."}]}}]}`)
	})

	text, err := c.Generate(context.Background(), "O que é Go?")
	require.NoError(t, err)
	require.Equal(t, "Go é uma linguagem.", text)

	contents := got["contents"].([]any)
	parts := contents[0].(map[string]any)["parts"].([]any)
	require.Equal(t, "O que é Go?", parts[0].(map[string]any)["text"])

	gen := got["generationConfig"].(map[string]any)
	require.InDelta(t, 0.7, gen["temperature"], 1e-9)
	require.InDelta(t, 40, gen["topK"], 1e-9)
	require.InDelta(t, 0.95, gen["topP"], 1e-9)
	require.InDelta(t, 1024, gen["maxOutputTokens"], 1e-9)
}

func TestGenerateWithContext(t *testing.T) {
	var prompt string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Contents []struct {
				Parts []struct {
					Text string `json:"text"`
				} `json:"parts"`
			} `json:"contents"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		prompt = body.Contents[0].Parts[0].Text
		writeJSON(w, `{"candidates": [{"content": {"parts": [{"text": "ok"}]}}]}`)
	})

	_, err := c.GenerateWithContext(context.Background(), "e amanhã?", "agenda de hoje")
	require.NoError(t, err)
	require.Equal(t, "Contexto: agenda de hoje\n\nPergunta: e amanhã?", prompt)
}

func TestGenerate_NotConfigured(t *testing.T) {
	called := false
	c := newTestClient(t, func(http.ResponseWriter, *http.Request) { called = true },
		func(s *config.Settings) { s.GeminiAPIKey = "" })

	_, err := c.Generate(context.Background(), "hi")
	require.ErrorIs(t, err, apperrors.ErrUpstreamNotConfigured)
	require.False(t, called)
}

func TestGenerate_Failures(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
		want    error
	}{
		{
			name: "error status",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusTooManyRequests)
				writeJSON(w, `{"error": {"code": 429}}`)
			},
			want: apperrors.ErrUpstreamTransport,
		},
		{
			name:    "not json",
			handler: func(w http.ResponseWriter, _ *http.Request) { writeJSON(w, `<html>`) },
			want:    apperrors.ErrUpstreamMalformedResponse,
		},
		{
			name:    "no candidates",
			handler: func(w http.ResponseWriter, _ *http.Request) { writeJSON(w, `{"candidates": []}`) },
			want:    apperrors.ErrUpstreamMalformedResponse,
		},
		{
			name: "candidate without parts",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				writeJSON(w, `{"candidates": [{"finishReason": "SAFETY"}]}`)
			},
			want: apperrors.ErrUpstreamMalformedResponse,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, tt.handler)
			_, err := c.Generate(context.Background(), "hi")
			require.ErrorIs(t, err, tt.want)
		})
	}
}

func TestGenerate_Timeout(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}, func(s *config.Settings) { s.UpstreamTimeout = 50 * time.Millisecond })

	_, err := c.Generate(context.Background(), "hi")
	require.ErrorIs(t, err, apperrors.ErrUpstreamTimeout)
}

func TestGenerate_TransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	base := srv.URL
	srv.Close()

	cfg, err := config.FromSettings(config.Settings{
		GeminiAPIKey:    testAPIKey,
		GeminiBaseURL:   base,
		GeminiModel:     "gemini-test",
		UpstreamTimeout: time.Second,
		Timezone:        "UTC",
	})
	require.NoError(t, err)

	_, err = gemini.NewClient(cfg).Generate(context.Background(), "hi")
	require.ErrorIs(t, err, apperrors.ErrUpstreamTransport)
}
