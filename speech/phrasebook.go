// Package speech renders everything the skill says: the per-locale
// phrasebook, the event-list formatter and the sanitiser that makes
// generated text fit for a voice response.
package speech

import (
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"
)

// Message keys.
const (
	MsgLaunch          = "launch"
	MsgLaunchReprompt  = "launch.reprompt"
	MsgHelp            = "help"
	MsgCancel          = "cancel"
	MsgStop            = "stop"
	MsgUnknownIntent   = "intent.unknown"
	MsgUnknownRequest  = "request.unknown"
	MsgInternalError   = "error.internal"
	MsgAskQuestion     = "gemini.ask"
	MsgGeminiTimeout   = "gemini.timeout"
	MsgGeminiTransport = "gemini.transport"
	MsgGeminiMalformed = "gemini.malformed"
	MsgGeminiNotReady  = "gemini.not_configured"
	MsgGeminiEmpty     = "gemini.empty"

	MsgLinkAccountAgenda = "agenda.link_account"
	MsgReauthRequired    = "agenda.reauth"
	MsgAgendaUnavailable = "agenda.unavailable"
	MsgAgendaFailed      = "agenda.failed"
	MsgDateFallback      = "agenda.date_fallback"
	MsgAskEventTitle     = "event.ask_title"
	MsgCreateEventLink   = "event.link_account"
	MsgEventDate         = "event.date"
	MsgEventTime         = "event.time"
	MsgLinkCardTitle     = "card.link.title"

	MsgForToday     = "period.today"
	MsgForTomorrow  = "period.tomorrow"
	MsgForYesterday = "period.yesterday"
	MsgForPhrase    = "period.phrase"

	MsgNoEvents       = "events.none"
	MsgOneEventAt     = "events.one.at"
	MsgOneEventAllDay = "events.one.all_day"
	MsgOneEvent       = "events.one"
	MsgManyEvents     = "events.many"
	MsgManyEventsMore = "events.many.more"
	MsgListAnd        = "list.and"
	MsgUntitledEvent  = "events.untitled"
)

var (
	PortugueseBR = language.MustParse("pt-BR")
	EnglishUS    = language.MustParse("en-US")
)

var supportedTags = []language.Tag{PortugueseBR, EnglishUS}

var tagMatcher = language.NewMatcher(supportedTags)

var phrases = map[language.Tag]map[string]string{
	PortugueseBR: {
		MsgLaunch: "Olá! Eu sou sua assistente inteligente conectada ao Gemini. " +
			"Você pode me pedir para conversar sobre qualquer assunto ou consultar sua agenda. " +
			"Por exemplo, diga: 'Converse comigo sobre tecnologia' ou 'Consulte minha agenda de hoje'. " +
			"Como posso ajudá-lo?",
		MsgLaunchReprompt: "Como posso ajudá-lo?",
		MsgHelp: "Eu posso ajudá-lo de várias formas! " +
			"Você pode me pedir para conversar sobre qualquer assunto, por exemplo: " +
			"'Converse comigo sobre inteligência artificial'. " +
			"Também posso consultar sua agenda dizendo: 'Consulte minha agenda de hoje'. " +
			"Ou criar eventos: 'Marque reunião amanhã às 14 horas'. " +
			"Para usar as funções da agenda, você precisa vincular sua conta Google " +
			"nas configurações da skill no aplicativo Alexa. " +
			"O que você gostaria de fazer?",
		MsgCancel:          "Operação cancelada. Posso ajudá-lo com algo mais?",
		MsgStop:            "Até logo! Foi um prazer ajudá-lo.",
		MsgUnknownIntent:   "Desculpe, não entendi o que você quer. Tente dizer 'ajuda' para ver o que posso fazer.",
		MsgUnknownRequest:  "Desculpe, não consegui processar sua solicitação.",
		MsgInternalError:   "Desculpe, ocorreu um erro interno. Tente novamente.",
		MsgAskQuestion:     "Sobre o que você gostaria de conversar? Faça uma pergunta e eu responderei usando o Gemini.",
		MsgGeminiTimeout:   "Desculpe, o Gemini demorou muito para responder. Tente novamente.",
		MsgGeminiTransport: "Desculpe, ocorreu um erro ao comunicar com o Gemini.",
		MsgGeminiMalformed: "Desculpe, não consegui processar a resposta do Gemini.",
		MsgGeminiNotReady:  "Desculpe, a integração com o Gemini não está configurada corretamente.",
		MsgGeminiEmpty:     "Desculpe, o Gemini não tem uma resposta para isso.",

		MsgLinkAccountAgenda: "Para consultar sua agenda, você precisa primeiro vincular " +
			"sua conta Google no aplicativo Alexa. Vá em Configurações da Skill e " +
			"configure o Account Linking. Depois disso, poderei acessar sua agenda do Google.",
		MsgReauthRequired: "Houve um problema com sua autenticação. " +
			"Tente vincular sua conta Google novamente nas configurações da skill.",
		MsgAgendaUnavailable: "Desculpe, não consegui acessar sua agenda no momento. Tente novamente.",
		MsgAgendaFailed:      "Desculpe, não consegui consultar sua agenda %s. Tente novamente.",
		MsgDateFallback:      "Não entendi a data %s, então consultei a agenda de hoje.",
		MsgAskEventTitle:     "Qual é o título do evento que você quer criar?",
		MsgCreateEventLink: "Para criar o evento '%s'%s, você precisa primeiro vincular sua conta Google " +
			"no aplicativo Alexa. Vá em Configurações da Skill e configure o Account Linking. " +
			"Depois disso, poderei criar eventos na sua agenda do Google.",
		MsgEventDate:     " para %s",
		MsgEventTime:     " às %s",
		MsgLinkCardTitle: "Vincule sua conta Google",

		MsgForToday:     "para hoje",
		MsgForTomorrow:  "para amanhã",
		MsgForYesterday: "para ontem",
		MsgForPhrase:    "para %s",

		MsgNoEvents:       "Você não tem eventos marcados para este período.",
		MsgOneEventAt:     "Você tem um evento: %s às %s.",
		MsgOneEventAllDay: "Você tem um evento: %s, o dia todo.",
		MsgOneEvent:       "Você tem um evento: %s.",
		MsgManyEvents:     "Você tem %d eventos marcados: %s.",
		MsgManyEventsMore: "Você tem %d eventos marcados: %s, e mais %d.",
		MsgListAnd:        " e ",
		MsgUntitledEvent:  "Evento sem título",
	},
	EnglishUS: {
		MsgLaunch: "Hi! I'm your smart assistant connected to Gemini. " +
			"You can ask me to chat about anything or to check your calendar. " +
			"For example, say: 'Talk to me about technology' or 'Check my calendar for today'. " +
			"How can I help?",
		MsgLaunchReprompt: "How can I help?",
		MsgHelp: "I can help in a few ways! " +
			"You can ask me to chat about any subject, for example: " +
			"'Talk to me about artificial intelligence'. " +
			"I can also check your calendar if you say: 'Check my calendar for today'. " +
			"Or create events: 'Schedule a meeting tomorrow at 2 pm'. " +
			"To use the calendar features, link your Google account " +
			"in the skill settings of the Alexa app. " +
			"What would you like to do?",
		MsgCancel:          "Cancelled. Can I help you with anything else?",
		MsgStop:            "Goodbye! It was a pleasure to help.",
		MsgUnknownIntent:   "Sorry, I didn't understand that. Try saying 'help' to hear what I can do.",
		MsgUnknownRequest:  "Sorry, I couldn't process your request.",
		MsgInternalError:   "Sorry, something went wrong. Please try again.",
		MsgAskQuestion:     "What would you like to talk about? Ask me a question and I'll answer using Gemini.",
		MsgGeminiTimeout:   "Sorry, Gemini took too long to answer. Please try again.",
		MsgGeminiTransport: "Sorry, there was an error talking to Gemini.",
		MsgGeminiMalformed: "Sorry, I couldn't understand Gemini's answer.",
		MsgGeminiNotReady:  "Sorry, the Gemini integration is not configured correctly.",
		MsgGeminiEmpty:     "Sorry, Gemini has no answer for that.",

		MsgLinkAccountAgenda: "To check your calendar, you first need to link " +
			"your Google account in the Alexa app. Go to the skill settings and " +
			"set up Account Linking. After that, I'll be able to read your Google calendar.",
		MsgReauthRequired: "There was a problem with your authentication. " +
			"Try linking your Google account again in the skill settings.",
		MsgAgendaUnavailable: "Sorry, I couldn't reach your calendar right now. Please try again.",
		MsgAgendaFailed:      "Sorry, I couldn't check your calendar %s. Please try again.",
		MsgDateFallback:      "I didn't understand the date %s, so I checked today instead.",
		MsgAskEventTitle:     "What is the title of the event you want to create?",
		MsgCreateEventLink: "To create the event '%s'%s, you first need to link your Google account " +
			"in the Alexa app. Go to the skill settings and set up Account Linking. " +
			"After that, I'll be able to create events in your Google calendar.",
		MsgEventDate:     " for %s",
		MsgEventTime:     " at %s",
		MsgLinkCardTitle: "Link your Google account",

		MsgForToday:     "for today",
		MsgForTomorrow:  "for tomorrow",
		MsgForYesterday: "for yesterday",
		MsgForPhrase:    "for %s",

		MsgNoEvents:       "You have no events scheduled for this period.",
		MsgOneEventAt:     "You have one event: %s at %s.",
		MsgOneEventAllDay: "You have one event: %s, all day.",
		MsgOneEvent:       "You have one event: %s.",
		MsgManyEvents:     "You have %d events scheduled: %s.",
		MsgManyEventsMore: "You have %d events scheduled: %s, and %d more.",
		MsgListAnd:        " and ",
		MsgUntitledEvent:  "Untitled event",
	},
}

// Phrasebook resolves a request locale to a message printer.
type Phrasebook struct {
	catalog  *catalog.Builder
	fallback language.Tag
}

// NewPhrasebook builds the catalog. defaultLocale is used for requests that
// carry no locale or one that is not supported.
func NewPhrasebook(defaultLocale string) (*Phrasebook, error) {
	b := catalog.NewBuilder(catalog.Fallback(PortugueseBR))
	for tag, msgs := range phrases {
		for key, msg := range msgs {
			if err := b.SetString(tag, key, msg); err != nil {
				return nil, err
			}
		}
	}
	return &Phrasebook{catalog: b, fallback: match(defaultLocale, PortugueseBR)}, nil
}

// Printer returns a printer for locale, e.g. "pt-BR" or "en-US".
func (p *Phrasebook) Printer(locale string) *message.Printer {
	return message.NewPrinter(p.Tag(locale), message.Catalog(p.catalog))
}

// Tag returns the supported tag closest to locale.
func (p *Phrasebook) Tag(locale string) language.Tag {
	return match(locale, p.fallback)
}

func match(locale string, fallback language.Tag) language.Tag {
	locale = strings.TrimSpace(locale)
	if locale == "" {
		return fallback
	}
	tag, err := language.Parse(locale)
	if err != nil {
		return fallback
	}
	_, idx, conf := tagMatcher.Match(tag)
	if conf == language.No {
		return fallback
	}
	return supportedTags[idx]
}
