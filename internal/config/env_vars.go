package config

import (
	"strings"
)

type EnvVars struct {
	s Settings
}

var _ EnvConfig = EnvVars{}

func (e EnvVars) GetPort() string {
	port := e.s.Port
	if port == "" {
		port = "8000"
	}
	if !strings.HasPrefix(port, ":") {
		port = ":" + port
	}
	return port
}

func (e EnvVars) GetAppName() string {
	return e.s.AppName
}

func (e EnvVars) GetEnv() string {
	if e.s.Env == "" {
		return "DEV"
	}
	return e.s.Env
}

func (e EnvVars) GetLogLevel() string {
	return e.s.LogLevel
}

// GetTokenStore returns the credential store backend: "file" or "sqlite".
func (e EnvVars) GetTokenStore() string {
	return strings.ToLower(strings.TrimSpace(e.s.TokenStore))
}

func (e EnvVars) GetTokenFile() string {
	return e.s.TokenFile
}

func (e EnvVars) GetTokenDB() string {
	return e.s.TokenDB
}
