package calendar

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/ISMendys/alexa-gemini/dates"
	apperrors "github.com/ISMendys/alexa-gemini/internal/errors"
	"github.com/ISMendys/alexa-gemini/internal/utils"
	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"
	gcal "google.golang.org/api/calendar/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

// GoogleConnector builds Google Calendar API clients.
type GoogleConnector struct {
	location *time.Location
	timeout  time.Duration
	endpoint string
	base     *http.Client
}

// GoogleOption defines a function type to modify the GoogleConnector instance.
type GoogleOption func(*GoogleConnector)

// WithEndpoint points the client at another API base URL (tests).
func WithEndpoint(endpoint string) GoogleOption {
	return func(c *GoogleConnector) {
		c.endpoint = endpoint
	}
}

// WithBaseHTTPClient sets the transport the bearer token is layered on.
func WithBaseHTTPClient(client *http.Client) GoogleOption {
	return func(c *GoogleConnector) {
		c.base = client
	}
}

// NewGoogleConnector creates a connector. Event times are created and
// interpreted in loc; every API call is bounded by timeout.
func NewGoogleConnector(loc *time.Location, timeout time.Duration, options ...GoogleOption) *GoogleConnector {
	if loc == nil {
		loc = time.Local
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	c := &GoogleConnector{location: loc, timeout: timeout}
	for _, opt := range options {
		opt(c)
	}
	if c.base == nil {
		c.base = &http.Client{Timeout: c.timeout}
	}
	return c
}

// Connect returns a Client that sends accessToken as a bearer credential.
// The token is not refreshed here; the oauth flow manager owns that.
func (c *GoogleConnector) Connect(ctx context.Context, accessToken string) (Client, error) {
	if accessToken == "" {
		return nil, apperrors.ErrNotAuthenticated
	}

	ctx = context.WithValue(ctx, oauth2.HTTPClient, c.base)
	httpClient := oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{
		AccessToken: accessToken,
		TokenType:   "Bearer",
	}))

	opts := []option.ClientOption{option.WithHTTPClient(httpClient)}
	if c.endpoint != "" {
		opts = append(opts, option.WithEndpoint(c.endpoint))
	}
	svc, err := gcal.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("[Connect] failed to build calendar service: %w", err)
	}

	log.Debug().Msg("calendar client initialised")
	return &googleClient{svc: svc, location: c.location, timeout: c.timeout}, nil
}

type googleClient struct {
	svc      *gcal.Service
	location *time.Location
	timeout  time.Duration
}

func (g *googleClient) ListEvents(ctx context.Context, rng dates.TimeRange) ListResult {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	log.Info().
		Time("time_min", rng.Start).
		Time("time_max", rng.End).
		Msg("listing calendar events")

	resp, err := g.svc.Events.List(PrimaryCalendar).
		TimeMin(rng.Start.Format(time.RFC3339)).
		TimeMax(rng.End.Format(time.RFC3339)).
		MaxResults(MaxListResults).
		SingleEvents(true).
		OrderBy("startTime").
		Context(ctx).
		Do()
	if err != nil {
		log.Error().Err(err).Msg("calendar list failed")
		return ListResult{Err: classify(err)}
	}

	events := make([]Event, 0, len(resp.Items))
	for _, item := range resp.Items {
		if item == nil {
			continue
		}
		ev, err := g.fromAPI(item)
		if err != nil {
			log.Error().Err(err).Str("event_id", item.Id).Msg("calendar event has unreadable times")
			return ListResult{Err: fmt.Errorf("%w: %w", apperrors.ErrUpstreamMalformedResponse, err)}
		}
		events = append(events, ev)
	}

	log.Info().Int("count", len(events)).Msg("calendar events found")
	return ListResult{Events: events}
}

func (g *googleClient) CreateEvent(ctx context.Context, ev NewEvent) CreateResult {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	tz := g.location.String()
	body := &gcal.Event{
		Summary:     ev.Title,
		Description: ev.Description,
		Location:    ev.Location,
		Start: &gcal.EventDateTime{
			DateTime: ev.Start.In(g.location).Format(time.RFC3339),
			TimeZone: tz,
		},
		End: &gcal.EventDateTime{
			DateTime: ev.End.In(g.location).Format(time.RFC3339),
			TimeZone: tz,
		},
	}

	log.Info().Time("start", ev.Start).Msg("creating calendar event")
	created, err := g.svc.Events.Insert(PrimaryCalendar, body).Context(ctx).Do()
	if err != nil {
		log.Error().Err(err).Msg("calendar insert failed")
		return CreateResult{Err: classify(err)}
	}

	out, err := g.fromAPI(created)
	if err != nil {
		return CreateResult{Err: fmt.Errorf("%w: %w", apperrors.ErrUpstreamMalformedResponse, err)}
	}
	log.Info().Str("event_id", out.ID).Msg("calendar event created")
	return CreateResult{Event: out}
}

func (g *googleClient) fromAPI(item *gcal.Event) (Event, error) {
	ev := Event{
		ID:          item.Id,
		Title:       item.Summary,
		Description: item.Description,
		Location:    item.Location,
		HTMLLink:    item.HtmlLink,
	}

	start := utils.Value(item.Start)
	end := utils.Value(item.End)
	var err error
	switch {
	case start.DateTime != "":
		if ev.Start, err = time.Parse(time.RFC3339, start.DateTime); err != nil {
			return Event{}, err
		}
		if end.DateTime != "" {
			if ev.End, err = time.Parse(time.RFC3339, end.DateTime); err != nil {
				return Event{}, err
			}
		}
	case start.Date != "":
		ev.AllDay = true
		if ev.Start, err = time.ParseInLocation(time.DateOnly, start.Date, g.location); err != nil {
			return Event{}, err
		}
		if end.Date != "" {
			if ev.End, err = time.ParseInLocation(time.DateOnly, end.Date, g.location); err != nil {
				return Event{}, err
			}
		}
	}
	return ev, nil
}

// classify maps transport and API failures onto the upstream error kinds.
func classify(err error) error {
	var apiErr *googleapi.Error
	var netErr net.Error
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("%w: %w", apperrors.ErrUpstreamTimeout, err)
	case errors.As(err, &netErr) && netErr.Timeout():
		return fmt.Errorf("%w: %w", apperrors.ErrUpstreamTimeout, err)
	case errors.As(err, &apiErr) && apiErr.Code == http.StatusUnauthorized:
		return fmt.Errorf("%w: %w", apperrors.ErrReauthRequired, err)
	case errors.As(err, &syntaxErr), errors.As(err, &typeErr), errors.Is(err, io.ErrUnexpectedEOF):
		return fmt.Errorf("%w: %w", apperrors.ErrUpstreamMalformedResponse, err)
	default:
		return fmt.Errorf("%w: %w", apperrors.ErrUpstreamTransport, err)
	}
}
