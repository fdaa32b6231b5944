package speech

import (
	"strings"
	"time"

	"github.com/ISMendys/alexa-gemini/calendar"
	"golang.org/x/text/message"
)

// MaxSpokenEvents caps how many titles are read out for a multi-event list.
const MaxSpokenEvents = 5

// FormatEvents renders an event list as one spoken sentence. Times of day
// are read in loc.
func FormatEvents(p *message.Printer, events []calendar.Event, loc *time.Location) string {
	if loc == nil {
		loc = time.Local
	}

	switch len(events) {
	case 0:
		return p.Sprintf(MsgNoEvents)
	case 1:
		ev := events[0]
		title := eventTitle(p, ev)
		switch {
		case ev.AllDay:
			return p.Sprintf(MsgOneEventAllDay, title)
		case !ev.Start.IsZero():
			return p.Sprintf(MsgOneEventAt, title, ev.Start.In(loc).Format("15:04"))
		default:
			return p.Sprintf(MsgOneEvent, title)
		}
	}

	shown := events
	if len(shown) > MaxSpokenEvents {
		shown = shown[:MaxSpokenEvents]
	}
	titles := make([]string, len(shown))
	for i, ev := range shown {
		titles[i] = eventTitle(p, ev)
	}
	list := JoinList(p, titles)

	if extra := len(events) - len(shown); extra > 0 {
		return p.Sprintf(MsgManyEventsMore, len(events), list, extra)
	}
	return p.Sprintf(MsgManyEvents, len(events), list)
}

// JoinList joins items with commas and the locale's "and" before the last.
func JoinList(p *message.Printer, items []string) string {
	switch len(items) {
	case 0:
		return ""
	case 1:
		return items[0]
	}
	last := len(items) - 1
	return strings.Join(items[:last], ", ") + p.Sprintf(MsgListAnd) + items[last]
}

func eventTitle(p *message.Printer, ev calendar.Event) string {
	if title := strings.TrimSpace(ev.Title); title != "" {
		return title
	}
	return p.Sprintf(MsgUntitledEvent)
}
