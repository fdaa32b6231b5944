package config

import "time"

// UpstreamConfig covers the generative-language API and the timeout shared by
// every outbound call (generative API, calendar API, token endpoint).
type UpstreamConfig interface {
	GetGeminiAPIKey() string
	GetGeminiBaseURL() string
	GetGeminiModel() string
	GetUpstreamTimeout() time.Duration
}

type Upstream struct {
	s Settings
}

var _ UpstreamConfig = Upstream{}

func (u Upstream) GetGeminiAPIKey() string {
	return u.s.GeminiAPIKey
}

func (u Upstream) GetGeminiBaseURL() string {
	return u.s.GeminiBaseURL
}

func (u Upstream) GetGeminiModel() string {
	return u.s.GeminiModel
}

func (u Upstream) GetUpstreamTimeout() time.Duration {
	if u.s.UpstreamTimeout <= 0 {
		return 30 * time.Second
	}
	return u.s.UpstreamTimeout
}
