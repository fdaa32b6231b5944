// Package intents routes voice requests to their handlers.
package intents

// Intent is the closed set of intents the skill understands.
type Intent int

const (
	Unknown Intent = iota
	AskGemini
	QueryCalendar
	CreateEvent
	Help
	Cancel
	Stop
)

// Intent names as declared in the interaction model.
const (
	NameAskGemini     = "ConversarComGemini"
	NameQueryCalendar = "ConsultarAgenda"
	NameCreateEvent   = "CriarEvento"
	NameHelp          = "AMAZON.HelpIntent"
	NameCancel        = "AMAZON.CancelIntent"
	NameStop          = "AMAZON.StopIntent"
)

// Slot names.
const (
	SlotQuestion = "pergunta"
	SlotDate     = "data"
	SlotPeriod   = "periodo"
	SlotTitle    = "titulo"
	SlotTime     = "hora"
)

var intentsByName = map[string]Intent{
	NameAskGemini:     AskGemini,
	NameQueryCalendar: QueryCalendar,
	NameCreateEvent:   CreateEvent,
	NameHelp:          Help,
	NameCancel:        Cancel,
	NameStop:          Stop,
}

// ParseIntent maps an intent name to an Intent. Unlisted names, including
// AMAZON.FallbackIntent, are Unknown.
func ParseIntent(name string) Intent {
	if i, ok := intentsByName[name]; ok {
		return i
	}
	return Unknown
}

func (i Intent) String() string {
	switch i {
	case AskGemini:
		return NameAskGemini
	case QueryCalendar:
		return NameQueryCalendar
	case CreateEvent:
		return NameCreateEvent
	case Help:
		return NameHelp
	case Cancel:
		return NameCancel
	case Stop:
		return NameStop
	default:
		return "Unknown"
	}
}
