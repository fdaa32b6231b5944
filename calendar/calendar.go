// Package calendar is the calendar collaborator: list and create events on
// the user's primary calendar with a bearer access token.
package calendar

import (
	"context"
	"time"

	"github.com/ISMendys/alexa-gemini/dates"
)

// PrimaryCalendar is the calendar id addressed by every call.
const PrimaryCalendar = "primary"

// MaxListResults caps a single ListEvents call.
const MaxListResults = 10

// Event is a calendar entry reduced to what the skill speaks about.
type Event struct {
	ID          string
	Title       string
	Description string
	Location    string
	Start       time.Time
	End         time.Time
	// AllDay events carry a date only; Start is midnight in the client's
	// location.
	AllDay   bool
	HTMLLink string
}

// NewEvent is the input to CreateEvent.
type NewEvent struct {
	Title       string
	Description string
	Location    string
	Start       time.Time
	End         time.Time
}

// ListResult is the envelope returned by ListEvents. Err is nil on success.
type ListResult struct {
	Events []Event
	Err    error
}

func (r ListResult) OK() bool { return r.Err == nil }

// CreateResult is the envelope returned by CreateEvent. Err is nil on success.
type CreateResult struct {
	Event Event
	Err   error
}

func (r CreateResult) OK() bool { return r.Err == nil }

// Client is bound to one access token. Calls never panic or return a bare
// error; failures travel in the result envelope, classified with the
// upstream error kinds.
type Client interface {
	ListEvents(ctx context.Context, rng dates.TimeRange) ListResult
	CreateEvent(ctx context.Context, ev NewEvent) CreateResult
}

// Connector binds a Client to an access token.
type Connector interface {
	Connect(ctx context.Context, accessToken string) (Client, error)
}
