package alexa

const (
	// Version written in every response envelope.
	Version = "1.0"

	SpeechTypePlainText = "PlainText"

	CardTypeSimple      = "Simple"
	CardTypeLinkAccount = "LinkAccount"
)

// ResponseEnvelope is the webhook reply. Build one with Speak and the With*
// methods; each request gets a fresh envelope.
type ResponseEnvelope struct {
	Version           string         `json:"version"`
	SessionAttributes map[string]any `json:"sessionAttributes,omitempty"`
	Response          Response       `json:"response"`
}

type Response struct {
	OutputSpeech *OutputSpeech `json:"outputSpeech,omitempty"`
	Card         *Card         `json:"card,omitempty"`
	Reprompt     *Reprompt     `json:"reprompt,omitempty"`

	// ShouldEndSession is always serialised; false keeps the microphone open.
	ShouldEndSession bool `json:"shouldEndSession"`
}

type OutputSpeech struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type Reprompt struct {
	OutputSpeech OutputSpeech `json:"outputSpeech"`
}

// Card is shown in the companion app. LinkAccount cards carry no content.
type Card struct {
	Type    string `json:"type"`
	Title   string `json:"title,omitempty"`
	Content string `json:"content,omitempty"`
}

// Speak starts a response that speaks text and keeps the session open.
func Speak(text string) *ResponseEnvelope {
	return &ResponseEnvelope{
		Version: Version,
		Response: Response{
			OutputSpeech: &OutputSpeech{Type: SpeechTypePlainText, Text: text},
		},
	}
}

// EndSession closes the session. A reprompt makes no sense on a closed
// session and is dropped.
func (r *ResponseEnvelope) EndSession() *ResponseEnvelope {
	r.Response.ShouldEndSession = true
	r.Response.Reprompt = nil
	return r
}

// WithReprompt sets the text spoken if the user stays silent. Ignored on an
// ended session or for empty text.
func (r *ResponseEnvelope) WithReprompt(text string) *ResponseEnvelope {
	if text == "" || r.Response.ShouldEndSession {
		return r
	}
	r.Response.Reprompt = &Reprompt{
		OutputSpeech: OutputSpeech{Type: SpeechTypePlainText, Text: text},
	}
	return r
}

func (r *ResponseEnvelope) WithSimpleCard(title, content string) *ResponseEnvelope {
	r.Response.Card = &Card{Type: CardTypeSimple, Title: title, Content: content}
	return r
}

// WithLinkAccountCard asks the companion app to start account linking.
func (r *ResponseEnvelope) WithLinkAccountCard(title string) *ResponseEnvelope {
	r.Response.Card = &Card{Type: CardTypeLinkAccount, Title: title}
	return r
}

// Text returns the spoken text.
func (r *ResponseEnvelope) Text() string {
	if r.Response.OutputSpeech == nil {
		return ""
	}
	return r.Response.OutputSpeech.Text
}

// RepromptText returns the reprompt text or "".
func (r *ResponseEnvelope) RepromptText() string {
	if r.Response.Reprompt == nil {
		return ""
	}
	return r.Response.Reprompt.OutputSpeech.Text
}

// SessionEnds reports the session-continuation flag.
func (r *ResponseEnvelope) SessionEnds() bool {
	return r.Response.ShouldEndSession
}
