package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config interface {
	EnvConfig
	CorsConfig
	OAuthConfig
	UpstreamConfig
	SpeechConfig
	SecurityConfig
}

type EnvConfig interface {
	GetPort() string
	GetAppName() string
	GetEnv() string
	GetLogLevel() string
	GetTokenStore() string
	GetTokenFile() string
	GetTokenDB() string
}

type CorsConfig interface {
	GetAllowedOrigins() AllowedOrigins
	GetAllowedMethods() string
	GetAllowedHeaders() string
}

// Settings is the raw environment. Every field has a default so an empty
// environment still yields a runnable (if unlinked) service.
type Settings struct {
	Port       string `envconfig:"PORT" default:"8000"`
	AppName    string `envconfig:"APP_NAME" default:"Alexa Gemini"`
	Env        string `envconfig:"ENV" default:"DEV"`
	LogLevel   string `envconfig:"LOG_LEVEL" default:"info"`
	TokenStore string `envconfig:"TOKEN_STORE" default:"file"`
	TokenFile  string `envconfig:"TOKEN_FILE" default:"user_tokens.json"`
	TokenDB    string `envconfig:"TOKEN_DB" default:"user_tokens.db"`

	GoogleClientID     string        `envconfig:"GOOGLE_CLIENT_ID"`
	GoogleClientSecret string        `envconfig:"GOOGLE_CLIENT_SECRET"`
	GoogleRedirectURI  string        `envconfig:"GOOGLE_REDIRECT_URI"`
	GoogleScopes       []string      `envconfig:"GOOGLE_SCOPES"`
	StateTTL           time.Duration `envconfig:"OAUTH_STATE_TTL" default:"10m"`
	VerifyIDToken      bool          `envconfig:"VERIFY_ID_TOKEN" default:"false"`

	GeminiAPIKey    string        `envconfig:"GEMINI_API_KEY"`
	GeminiBaseURL   string        `envconfig:"GEMINI_BASE_URL" default:"https://generativelanguage.googleapis.com/v1beta"`
	GeminiModel     string        `envconfig:"GEMINI_MODEL" default:"gemini-2.0-flash-exp"`
	UpstreamTimeout time.Duration `envconfig:"UPSTREAM_TIMEOUT" default:"30s"`

	Timezone      string `envconfig:"TIMEZONE" default:"America/Sao_Paulo"`
	DefaultLocale string `envconfig:"DEFAULT_LOCALE" default:"pt-BR"`
	SkillID       string `envconfig:"ALEXA_SKILL_ID"`

	AdminSecret    string   `envconfig:"ADMIN_SECRET"`
	AllowedOrigins []string `envconfig:"ALLOWED_ORIGINS" default:"*"`
}

type mainConfig struct {
	EnvVars
	Cors
	OAuth
	Upstream
	Speech
	Security
}

// New reads the process environment.
func New() (Config, error) {
	var s Settings
	if err := envconfig.Process("", &s); err != nil {
		return nil, fmt.Errorf("failed to process environment variables: %w", err)
	}
	return FromSettings(s)
}

// FromSettings builds a Config from already populated settings. Tests use it
// directly instead of touching the environment.
func FromSettings(s Settings) (Config, error) {
	if len(s.GoogleScopes) == 0 {
		s.GoogleScopes = DefaultScopes
	}
	loc, err := loadLocation(s.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid TIMEZONE %q: %w", s.Timezone, err)
	}
	return mainConfig{
		EnvVars:  EnvVars{s: s},
		Cors:     Cors{origins: newAllowedOrigins(s.AllowedOrigins)},
		OAuth:    OAuth{s: s},
		Upstream: Upstream{s: s},
		Speech:   Speech{s: s, location: loc},
		Security: Security{s: s},
	}, nil
}
