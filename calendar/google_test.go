package calendar_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ISMendys/alexa-gemini/calendar"
	"github.com/ISMendys/alexa-gemini/dates"
	apperrors "github.com/ISMendys/alexa-gemini/internal/errors"
	"github.com/stretchr/testify/require"
)

const testToken = "ya29.test-access-token"

func newTestConnector(t *testing.T, handler http.HandlerFunc, timeout time.Duration) *calendar.GoogleConnector {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return calendar.NewGoogleConnector(time.UTC, timeout,
		calendar.WithEndpoint(srv.URL+"/"),
		calendar.WithBaseHTTPClient(srv.Client()),
	)
}

func connect(t *testing.T, c *calendar.GoogleConnector) calendar.Client {
	t.Helper()
	client, err := c.Connect(context.Background(), testToken)
	require.NoError(t, err)
	return client
}

func testRange() dates.TimeRange {
	start := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
	return dates.TimeRange{Start: start, End: start.AddDate(0, 0, 1)}
}

func TestConnect_RequiresToken(t *testing.T) {
	c := calendar.NewGoogleConnector(time.UTC, time.Second)
	_, err := c.Connect(context.Background(), "")
	require.ErrorIs(t, err, apperrors.ErrNotAuthenticated)
}

func TestListEvents(t *testing.T) {
	c := newTestConnector(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodGet, r.Method)
		require.Equal(t, "/calendars/primary/events", r.URL.Path)
		require.Equal(t, "Bearer "+testToken, r.Header.Get("Authorization"))

		q := r.URL.Query()
		require.Equal(t, "2024-01-15T00:00:00Z", q.Get("timeMin"))
		require.Equal(t, "2024-01-16T00:00:00Z", q.Get("timeMax"))
		require.Equal(t, "10", q.Get("maxResults"))
		require.Equal(t, "true", q.Get("singleEvents"))
		require.Equal(t, "startTime", q.Get("orderBy"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
		  "items": [
		    {"id": "1", "summary": "Standup",
		     "start": {"dateTime": "2024-01-15T09:00:00Z"}, "end": {"dateTime": "2024-01-15T09:15:00Z"}},
		    {"id": "2", "summary": "Feriado",
		     "start": {"date": "2024-01-15"}, "end": {"date": "2024-01-16"}}
		  ]
		}`))
	}, time.Second)

	result := connect(t, c).ListEvents(context.Background(), testRange())
	require.True(t, result.OK(), "unexpected error: %v", result.Err)
	require.Len(t, result.Events, 2)

	standup := result.Events[0]
	require.Equal(t, "Standup", standup.Title)
	require.False(t, standup.AllDay)
	require.True(t, time.Date(2024, 1, 15, 9, 0, 0, 0, time.UTC).Equal(standup.Start))
	require.True(t, time.Date(2024, 1, 15, 9, 15, 0, 0, time.UTC).Equal(standup.End))

	holiday := result.Events[1]
	require.True(t, holiday.AllDay)
	require.True(t, time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC).Equal(holiday.Start))
}

func TestListEvents_Empty(t *testing.T) {
	c := newTestConnector(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"items": []}`))
	}, time.Second)

	result := connect(t, c).ListEvents(context.Background(), testRange())
	require.True(t, result.OK())
	require.Empty(t, result.Events)
}

func TestListEvents_Failures(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
		timeout time.Duration
		want    error
	}{
		{
			name: "expired token",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				_, _ = w.Write([]byte(`{"error": {"code": 401, "message": "Invalid Credentials"}}`))
			},
			want: apperrors.ErrReauthRequired,
		},
		{
			name: "server error",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusBadRequest)
				_, _ = w.Write([]byte(`{"error": {"code": 400, "message": "Bad Request"}}`))
			},
			want: apperrors.ErrUpstreamTransport,
		},
		{
			name: "malformed body",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				_, _ = w.Write([]byte(`{"items": [`))
			},
			want: apperrors.ErrUpstreamMalformedResponse,
		},
		{
			name: "unreadable event time",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				_, _ = w.Write([]byte(`{"items": [{"id": "x", "start": {"dateTime": "tomorrow-ish"}}]}`))
			},
			want: apperrors.ErrUpstreamMalformedResponse,
		},
		{
			name: "timeout",
			handler: func(w http.ResponseWriter, r *http.Request) {
				select {
				case <-r.Context().Done():
				case <-time.After(2 * time.Second):
				}
			},
			timeout: 50 * time.Millisecond,
			want:    apperrors.ErrUpstreamTimeout,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			timeout := tt.timeout
			if timeout == 0 {
				timeout = time.Second
			}
			c := newTestConnector(t, tt.handler, timeout)
			result := connect(t, c).ListEvents(context.Background(), testRange())
			require.False(t, result.OK())
			require.ErrorIs(t, result.Err, tt.want)
		})
	}
}

func TestCreateEvent(t *testing.T) {
	c := newTestConnector(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/calendars/primary/events", r.URL.Path)

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Equal(t, "Reunião", body["summary"])
		start := body["start"].(map[string]any)
		require.Equal(t, "2024-01-16T14:00:00Z", start["dateTime"])
		require.Equal(t, "UTC", start["timeZone"])

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
		  "id": "evt-1", "summary": "Reunião", "htmlLink": "https://calendar.example/evt-1",
		  "start": {"dateTime": "2024-01-16T14:00:00Z"}, "end": {"dateTime": "2024-01-16T15:00:00Z"}
		}`))
	}, time.Second)

	start := time.Date(2024, 1, 16, 14, 0, 0, 0, time.UTC)
	result := connect(t, c).CreateEvent(context.Background(), calendar.NewEvent{
		Title: "Reunião",
		Start: start,
		End:   start.Add(time.Hour),
	})
	require.True(t, result.OK(), "unexpected error: %v", result.Err)
	require.Equal(t, "evt-1", result.Event.ID)
	require.Equal(t, "https://calendar.example/evt-1", result.Event.HTMLLink)
	require.True(t, start.Equal(result.Event.Start))
}
