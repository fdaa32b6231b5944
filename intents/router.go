package intents

import (
	"context"
	"fmt"
	"runtime/debug"

	"github.com/ISMendys/alexa-gemini/alexa"
	"github.com/ISMendys/alexa-gemini/calendar"
	"github.com/ISMendys/alexa-gemini/dates"
	"github.com/ISMendys/alexa-gemini/gemini"
	"github.com/ISMendys/alexa-gemini/speech"
	"github.com/rs/zerolog/log"
	"golang.org/x/text/message"
)

// AccessTokens hands out a usable access token for a user, refreshing it if
// needed. oauthflow.Manager implements it.
type AccessTokens interface {
	GetAccessToken(ctx context.Context, userID string) (string, error)
}

// Router turns a request envelope into a response envelope.
type Router struct {
	tokens   AccessTokens
	gemini   gemini.Generator
	calendar calendar.Connector
	resolver *dates.Resolver
	phrases  *speech.Phrasebook
	skillID  string
}

// RouterOption defines a function type to modify the Router instance.
type RouterOption func(*Router)

// WithSkillID rejects envelopes sent for any other application id.
func WithSkillID(id string) RouterOption {
	return func(r *Router) {
		r.skillID = id
	}
}

// NewRouter creates a Router.
func NewRouter(
	tokens AccessTokens,
	generator gemini.Generator,
	connector calendar.Connector,
	resolver *dates.Resolver,
	phrases *speech.Phrasebook,
	options ...RouterOption,
) (*Router, error) {
	switch {
	case tokens == nil:
		return nil, fmt.Errorf("[NewRouter] access token source is required")
	case generator == nil:
		return nil, fmt.Errorf("[NewRouter] generator is required")
	case connector == nil:
		return nil, fmt.Errorf("[NewRouter] calendar connector is required")
	case resolver == nil:
		return nil, fmt.Errorf("[NewRouter] date resolver is required")
	case phrases == nil:
		return nil, fmt.Errorf("[NewRouter] phrasebook is required")
	}

	r := &Router{
		tokens:   tokens,
		gemini:   generator,
		calendar: connector,
		resolver: resolver,
		phrases:  phrases,
	}
	for _, opt := range options {
		opt(r)
	}
	return r, nil
}

// call is the per-request context handed to every handler.
type call struct {
	p      *message.Printer
	userID string
	slots  map[string]string
}

// Handle routes env. It returns nil for SessionEndedRequest, which needs no
// response body. Any panic below this point becomes the fixed apology with
// the session closed, so the platform always gets a well-formed reply.
func (r *Router) Handle(ctx context.Context, env *alexa.RequestEnvelope) (resp *alexa.ResponseEnvelope) {
	if env == nil {
		return r.Apology("")
	}

	defer func() {
		if rec := recover(); rec != nil {
			log.Error().
				Str("panic", fmt.Sprint(rec)).
				Str("stack", string(debug.Stack())).
				Str("request_type", env.Request.Type).
				Msg("recovered from panic while handling voice request")
			resp = r.Apology(env.Locale())
		}
	}()

	if r.skillID != "" && env.ApplicationID() != r.skillID {
		log.Warn().Str("application_id", env.ApplicationID()).Msg("request for another skill rejected")
		return r.Apology(env.Locale())
	}

	c := &call{
		p:      r.phrases.Printer(env.Locale()),
		userID: env.UserID(),
		slots:  env.Slots(),
	}

	switch env.Kind() {
	case alexa.KindLaunch:
		return r.handleLaunch(c)
	case alexa.KindIntent:
		return r.dispatch(ctx, env.IntentName(), c)
	case alexa.KindSessionEnded:
		log.Info().Str("user_id", c.userID).Str("reason", env.Request.Reason).Msg("session ended")
		return nil
	default:
		log.Warn().Str("request_type", env.Request.Type).Msg("unsupported request type")
		return alexa.Speak(c.p.Sprintf(speech.MsgUnknownRequest))
	}
}

func (r *Router) dispatch(ctx context.Context, name string, c *call) *alexa.ResponseEnvelope {
	intent := ParseIntent(name)
	log.Info().
		Str("intent", name).
		Stringer("resolved", intent).
		Str("user_id", c.userID).
		Msg("dispatching intent")

	switch intent {
	case AskGemini:
		return r.handleAskGemini(ctx, c)
	case QueryCalendar:
		return r.handleQueryCalendar(ctx, c)
	case CreateEvent:
		return r.handleCreateEvent(c)
	case Help:
		return r.handleHelp(c)
	case Cancel:
		return r.handleCancel(c)
	case Stop:
		return r.handleStop(c)
	case Unknown:
		return r.handleUnknown(c)
	default:
		panic(fmt.Sprintf("intents: no handler for %v", intent))
	}
}

// Apology is the fixed reply, session closed, used whenever a request cannot
// be answered normally.
func (r *Router) Apology(locale string) *alexa.ResponseEnvelope {
	return alexa.Speak(r.phrases.Printer(locale).Sprintf(speech.MsgInternalError)).EndSession()
}
