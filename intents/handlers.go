package intents

import (
	"context"
	"errors"

	"github.com/ISMendys/alexa-gemini/alexa"
	"github.com/ISMendys/alexa-gemini/dates"
	apperrors "github.com/ISMendys/alexa-gemini/internal/errors"
	"github.com/ISMendys/alexa-gemini/speech"
	"github.com/rs/zerolog/log"
	"golang.org/x/text/message"
)

func (r *Router) handleLaunch(c *call) *alexa.ResponseEnvelope {
	return alexa.Speak(c.p.Sprintf(speech.MsgLaunch)).
		WithReprompt(c.p.Sprintf(speech.MsgLaunchReprompt))
}

func (r *Router) handleAskGemini(ctx context.Context, c *call) *alexa.ResponseEnvelope {
	question := c.slots[SlotQuestion]
	if question == "" {
		return alexa.Speak(c.p.Sprintf(speech.MsgAskQuestion))
	}

	answer, err := r.gemini.Generate(ctx, question)
	if err != nil {
		log.Error().Err(err).Str("user_id", c.userID).Msg("gemini call failed")
		return alexa.Speak(c.p.Sprintf(geminiFailure(err)))
	}

	text := speech.FormatForSpeech(answer)
	if text == "" {
		return alexa.Speak(c.p.Sprintf(speech.MsgGeminiEmpty))
	}
	return alexa.Speak(text)
}

func geminiFailure(err error) string {
	switch {
	case errors.Is(err, apperrors.ErrUpstreamNotConfigured):
		return speech.MsgGeminiNotReady
	case errors.Is(err, apperrors.ErrUpstreamTimeout):
		return speech.MsgGeminiTimeout
	case errors.Is(err, apperrors.ErrUpstreamMalformedResponse):
		return speech.MsgGeminiMalformed
	default:
		return speech.MsgGeminiTransport
	}
}

func (r *Router) handleQueryCalendar(ctx context.Context, c *call) *alexa.ResponseEnvelope {
	token, err := r.tokens.GetAccessToken(ctx, c.userID)
	switch {
	case errors.Is(err, apperrors.ErrNotAuthenticated):
		return linkAccount(c.p, c.p.Sprintf(speech.MsgLinkAccountAgenda))
	case errors.Is(err, apperrors.ErrReauthRequired):
		return linkAccount(c.p, c.p.Sprintf(speech.MsgReauthRequired))
	case err != nil:
		log.Error().Err(err).Str("user_id", c.userID).Msg("access token lookup failed")
		return alexa.Speak(c.p.Sprintf(speech.MsgAgendaUnavailable))
	}

	client, err := r.calendar.Connect(ctx, token)
	if err != nil {
		log.Error().Err(err).Str("user_id", c.userID).Msg("calendar client unavailable")
		return alexa.Speak(c.p.Sprintf(speech.MsgAgendaUnavailable))
	}

	res, err := r.resolver.Resolve(c.slots[SlotDate], c.slots[SlotPeriod])
	if err != nil {
		log.Warn().Err(err).Str("user_id", c.userID).Msg("date phrase replaced by today")
	}

	result := client.ListEvents(ctx, res.Range)
	if !result.OK() {
		if errors.Is(result.Err, apperrors.ErrReauthRequired) {
			return linkAccount(c.p, c.p.Sprintf(speech.MsgReauthRequired))
		}
		return alexa.Speak(c.p.Sprintf(speech.MsgAgendaFailed, periodLabel(c.p, res)))
	}

	text := speech.FormatEvents(c.p, result.Events, r.resolver.Location())
	if res.Fallback {
		text = c.p.Sprintf(speech.MsgDateFallback, c.slots[SlotDate]) + " " + text
	}
	return alexa.Speak(text)
}

// periodLabel phrases a resolution the way it was asked for, e.g. "para
// amanhã" or "for next week".
func periodLabel(p *message.Printer, res dates.Resolution) string {
	switch res.Period {
	case dates.PeriodTomorrow:
		return p.Sprintf(speech.MsgForTomorrow)
	case dates.PeriodYesterday:
		return p.Sprintf(speech.MsgForYesterday)
	case dates.PeriodDate, dates.PeriodWindow:
		return p.Sprintf(speech.MsgForPhrase, res.Phrase)
	default:
		return p.Sprintf(speech.MsgForToday)
	}
}

// handleCreateEvent only collects the title. Event creation needs the
// account linked through the skill settings, so every complete request is
// answered with linking instructions whatever the credential state.
func (r *Router) handleCreateEvent(c *call) *alexa.ResponseEnvelope {
	title := c.slots[SlotTitle]
	if title == "" {
		return alexa.Speak(c.p.Sprintf(speech.MsgAskEventTitle))
	}

	details := ""
	if date := c.slots[SlotDate]; date != "" {
		details += c.p.Sprintf(speech.MsgEventDate, date)
	}
	if at := c.slots[SlotTime]; at != "" {
		details += c.p.Sprintf(speech.MsgEventTime, at)
	}
	return linkAccount(c.p, c.p.Sprintf(speech.MsgCreateEventLink, title, details))
}

func (r *Router) handleHelp(c *call) *alexa.ResponseEnvelope {
	return alexa.Speak(c.p.Sprintf(speech.MsgHelp)).
		WithReprompt(c.p.Sprintf(speech.MsgLaunchReprompt))
}

func (r *Router) handleCancel(c *call) *alexa.ResponseEnvelope {
	return alexa.Speak(c.p.Sprintf(speech.MsgCancel))
}

func (r *Router) handleStop(c *call) *alexa.ResponseEnvelope {
	return alexa.Speak(c.p.Sprintf(speech.MsgStop)).EndSession()
}

func (r *Router) handleUnknown(c *call) *alexa.ResponseEnvelope {
	return alexa.Speak(c.p.Sprintf(speech.MsgUnknownIntent))
}

func linkAccount(p *message.Printer, text string) *alexa.ResponseEnvelope {
	return alexa.Speak(text).WithLinkAccountCard(p.Sprintf(speech.MsgLinkCardTitle))
}
