// Package alexa holds the voice-platform webhook envelopes: the inbound
// request as posted by the platform and the speech response returned to it.
package alexa

import "strings"

// Request types sent in request.type.
const (
	TypeLaunchRequest       = "LaunchRequest"
	TypeIntentRequest       = "IntentRequest"
	TypeSessionEndedRequest = "SessionEndedRequest"
)

// RequestKind classifies an envelope for the router.
type RequestKind int

const (
	KindUnknown RequestKind = iota
	KindLaunch
	KindIntent
	KindSessionEnded
)

func (k RequestKind) String() string {
	switch k {
	case KindLaunch:
		return "launch"
	case KindIntent:
		return "intent"
	case KindSessionEnded:
		return "session_ended"
	default:
		return "unknown"
	}
}

// RequestEnvelope is the body POSTed to the webhook.
type RequestEnvelope struct {
	// Version of the envelope format.
	// Example: "1.0"
	Version string `json:"version"`

	// Session is absent for requests sent outside a session (e.g. some
	// AudioPlayer events). Callers must not assume it is set.
	Session *Session `json:"session,omitempty"`

	// Context carries the device and caller state. Its System.User mirrors
	// Session.User and is always present, even when Session is not.
	Context *Context `json:"context,omitempty"`

	Request Request `json:"request"`
}

// Session describes the conversation the request belongs to.
type Session struct {
	New         bool           `json:"new"`
	SessionID   string         `json:"sessionId"`
	Application Application    `json:"application"`
	User        User           `json:"user"`
	Attributes  map[string]any `json:"attributes,omitempty"`
}

type Application struct {
	// ApplicationID is the skill id.
	// Example: "amzn1.ask.skill.0f5c4c9e-8b5e-4e8a-9c1f-2a6d1e7b3c4d"
	ApplicationID string `json:"applicationId"`
}

type User struct {
	// UserID identifies the account that enabled the skill. It is the key
	// under which credentials are stored.
	// Example: "amzn1.ask.account.AGF7EXAMPLE"
	UserID string `json:"userId"`

	// AccessToken is only set when platform-side account linking is used.
	AccessToken string `json:"accessToken,omitempty"`
}

type Context struct {
	System System `json:"System"`
}

type System struct {
	Application Application `json:"application"`
	User        User        `json:"user"`
	APIEndpoint string      `json:"apiEndpoint,omitempty"`
}

// Request is the discriminated request body.
type Request struct {
	// Type discriminates the request.
	// Example: "IntentRequest"
	Type string `json:"type"`

	RequestID string `json:"requestId"`
	Timestamp string `json:"timestamp"`

	// Locale of the utterance.
	// Example: "pt-BR"
	Locale string `json:"locale,omitempty"`

	// Intent is set only for IntentRequest.
	Intent *Intent `json:"intent,omitempty"`

	// Reason is set only for SessionEndedRequest.
	// Example: "USER_INITIATED"
	Reason string `json:"reason,omitempty"`
}

type Intent struct {
	// Name of the intent.
	// Example: "ConsultarAgenda"
	Name  string          `json:"name"`
	Slots map[string]Slot `json:"slots,omitempty"`
}

// Slot is a named value extracted from the utterance. Value is empty when
// the user did not fill it.
type Slot struct {
	Name  string `json:"name"`
	Value string `json:"value,omitempty"`
}

// Kind maps request.type onto a RequestKind.
func (e *RequestEnvelope) Kind() RequestKind {
	switch e.Request.Type {
	case TypeLaunchRequest:
		return KindLaunch
	case TypeIntentRequest:
		return KindIntent
	case TypeSessionEndedRequest:
		return KindSessionEnded
	default:
		return KindUnknown
	}
}

// IntentName returns the intent name, or "" for non-intent requests.
func (e *RequestEnvelope) IntentName() string {
	if e.Request.Intent == nil {
		return ""
	}
	return e.Request.Intent.Name
}

// Slots returns slot name to trimmed spoken value. Unfilled slots are
// omitted.
func (e *RequestEnvelope) Slots() map[string]string {
	slots := make(map[string]string)
	if e.Request.Intent == nil {
		return slots
	}
	for key, slot := range e.Request.Intent.Slots {
		name := slot.Name
		if name == "" {
			name = key
		}
		if v := strings.TrimSpace(slot.Value); v != "" {
			slots[name] = v
		}
	}
	return slots
}

// UserID prefers the session user and falls back to context.System.user.
func (e *RequestEnvelope) UserID() string {
	if e.Session != nil && e.Session.User.UserID != "" {
		return e.Session.User.UserID
	}
	if e.Context != nil {
		return e.Context.System.User.UserID
	}
	return ""
}

// ApplicationID returns the skill id the request was sent for.
func (e *RequestEnvelope) ApplicationID() string {
	if e.Session != nil && e.Session.Application.ApplicationID != "" {
		return e.Session.Application.ApplicationID
	}
	if e.Context != nil {
		return e.Context.System.Application.ApplicationID
	}
	return ""
}

// Locale returns request.locale.
func (e *RequestEnvelope) Locale() string {
	return e.Request.Locale
}
