package config_test

import (
	"testing"
	"time"

	"github.com/ISMendys/alexa-gemini/internal/config"
	"github.com/stretchr/testify/require"
)

func TestNew_Defaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("GOOGLE_SCOPES", "")
	t.Setenv("TIMEZONE", "UTC")

	c, err := config.New()
	require.NoError(t, err)
	require.Equal(t, ":8000", c.GetPort())
	require.Equal(t, "file", c.GetTokenStore())
	require.Equal(t, 10*time.Minute, c.GetStateTTL())
	require.Equal(t, 30*time.Second, c.GetUpstreamTimeout())
	require.Equal(t, config.DefaultScopes, c.GetGoogleScopes())
	require.True(t, c.GetAllowedOrigins().IsAllowedOrigin("*"))
	require.Equal(t, "UTC", c.GetLocation().String())
}

func TestNew_FromEnvironment(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("GOOGLE_CLIENT_ID", "client")
	t.Setenv("GOOGLE_SCOPES", "a,b")
	t.Setenv("UPSTREAM_TIMEOUT", "5s")
	t.Setenv("TOKEN_STORE", "SQLite")
	t.Setenv("TIMEZONE", "America/Sao_Paulo")

	c, err := config.New()
	require.NoError(t, err)
	require.Equal(t, ":9090", c.GetPort())
	require.Equal(t, "client", c.GetGoogleClientID())
	require.Equal(t, []string{"a", "b"}, c.GetGoogleScopes())
	require.Equal(t, 5*time.Second, c.GetUpstreamTimeout())
	require.Equal(t, "sqlite", c.GetTokenStore())
}

func TestFromSettings_InvalidTimezone(t *testing.T) {
	_, err := config.FromSettings(config.Settings{Timezone: "Not/AZone"})
	require.Error(t, err)
}
