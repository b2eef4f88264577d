// Package gcal implements the calendar source adapter on the Google Calendar
// API. Credentials come from an offline-consent OAuth flow; the refresh token
// is persisted as JSON under the data directory and refreshed on expiry by
// the oauth2 token source.
package gcal

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/sprintlens/sprintlens/source"
)

// tokenFile is the persisted OAuth token, relative to the data directory.
const tokenFile = "calendar-token.json"

// DefaultCalendarID is used when a request does not name a calendar.
const DefaultCalendarID = "primary"

// Client is the calendar adapter. A nil *Client is a valid unconfigured
// adapter: reads degrade to empty results so aggregation never treats a
// missing calendar setup as fatal.
type Client struct {
	cfg       *oauth2.Config
	tokenPath string

	mu  sync.Mutex
	svc *calendar.Service
}

// New creates a calendar adapter. Returns nil when the OAuth client pair is
// absent. dataDir holds the persisted token.
func New(clientID, clientSecret, dataDir string) *Client {
	if clientID == "" || clientSecret == "" {
		return nil
	}
	return &Client{
		cfg: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			Endpoint:     google.Endpoint,
			Scopes:       []string{calendar.CalendarScope},
			RedirectURL:  "http://localhost:28090/api/v1/calendar/auth/callback",
		},
		tokenPath: filepath.Join(dataDir, tokenFile),
	}
}

// NewWithService wraps a pre-built calendar service, used by tests.
func NewWithService(svc *calendar.Service) *Client {
	return &Client{svc: svc}
}

// AuthURL returns the offline-consent authorization URL for the OAuth flow.
func (c *Client) AuthURL() (string, error) {
	if c == nil || c.cfg == nil {
		return "", source.ErrNotConfigured
	}
	return c.cfg.AuthCodeURL("state", oauth2.AccessTypeOffline, oauth2.ApprovalForce), nil
}

// Exchange trades an authorization code for a token and persists it.
func (c *Client) Exchange(ctx context.Context, code string) error {
	if c == nil || c.cfg == nil {
		return source.ErrNotConfigured
	}
	token, err := c.cfg.Exchange(ctx, code)
	if err != nil {
		return errors.Wrap(err, "failed to exchange authorization code")
	}
	return c.saveToken(token)
}

// service lazily builds the calendar service from the persisted token.
func (c *Client) service(ctx context.Context) (*calendar.Service, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.svc != nil {
		return c.svc, nil
	}
	if c.cfg == nil {
		return nil, source.ErrNotConfigured
	}
	token, err := c.loadToken()
	if err != nil {
		return nil, errors.Wrap(source.ErrNotConfigured, "no calendar token")
	}
	svc, err := calendar.NewService(ctx, option.WithTokenSource(c.cfg.TokenSource(ctx, token)))
	if err != nil {
		return nil, errors.Wrap(err, "failed to build calendar service")
	}
	c.svc = svc
	return svc, nil
}

// Events returns events in the symmetric past/future window, ordered by
// start time. Credential failures degrade to an empty result.
func (c *Client) Events(ctx context.Context, calendarID string, window source.TimeWindow) ([]source.CalendarEvent, error) {
	if c == nil {
		return []source.CalendarEvent{}, nil
	}
	svc, err := c.service(ctx)
	if err != nil {
		slog.Debug("calendar: not set up, returning no events", "error", err)
		return []source.CalendarEvent{}, nil
	}
	if calendarID == "" {
		calendarID = DefaultCalendarID
	}

	timeMin, timeMax := window.SymmetricRange()
	result, err := svc.Events.List(calendarID).
		TimeMin(timeMin.UTC().Format(time.RFC3339)).
		TimeMax(timeMax.UTC().Format(time.RFC3339)).
		SingleEvents(true).
		OrderBy("startTime").
		Context(ctx).
		Do()
	if err != nil {
		return nil, mapError(err)
	}

	events := make([]source.CalendarEvent, 0, len(result.Items))
	for _, item := range result.Items {
		events = append(events, convertEvent(item))
	}
	slog.Debug("calendar: fetched events", "calendar", calendarID, "days", window.Days, "events", len(events))
	return events, nil
}

// Calendars returns the account's calendar list.
func (c *Client) Calendars(ctx context.Context) ([]source.CalendarEntry, error) {
	if c == nil {
		return []source.CalendarEntry{}, nil
	}
	svc, err := c.service(ctx)
	if err != nil {
		return []source.CalendarEntry{}, nil
	}

	result, err := svc.CalendarList.List().Context(ctx).Do()
	if err != nil {
		return nil, mapError(err)
	}
	calendars := make([]source.CalendarEntry, 0, len(result.Items))
	for _, item := range result.Items {
		calendars = append(calendars, source.CalendarEntry{
			ID:          item.Id,
			Summary:     item.Summary,
			Description: item.Description,
			Primary:     item.Primary,
			AccessRole:  item.AccessRole,
		})
	}
	return calendars, nil
}

// BusyIntervals runs a free/busy query from now through now+days.
func (c *Client) BusyIntervals(ctx context.Context, calendarID string, window source.TimeWindow) ([]source.BusyInterval, error) {
	if c == nil {
		return []source.BusyInterval{}, nil
	}
	svc, err := c.service(ctx)
	if err != nil {
		return []source.BusyInterval{}, nil
	}
	if calendarID == "" {
		calendarID = DefaultCalendarID
	}

	now := window.Now().UTC()
	result, err := svc.Freebusy.Query(&calendar.FreeBusyRequest{
		TimeMin: now.Format(time.RFC3339),
		TimeMax: now.AddDate(0, 0, window.Days).Format(time.RFC3339),
		Items:   []*calendar.FreeBusyRequestItem{{Id: calendarID}},
	}).Context(ctx).Do()
	if err != nil {
		return nil, mapError(err)
	}

	var busy []source.BusyInterval
	if cal, ok := result.Calendars[calendarID]; ok {
		for _, period := range cal.Busy {
			busy = append(busy, source.BusyInterval{Start: period.Start, End: period.End})
		}
	}
	return busy, nil
}

// CreateEvent inserts a new event. Times are RFC3339 in UTC. Unlike reads, an
// unconfigured adapter is an explicit error here.
func (c *Client) CreateEvent(ctx context.Context, calendarID, summary, description, startTime, endTime string, attendees []string) (*source.CalendarEvent, error) {
	if c == nil {
		return nil, source.ErrNotConfigured
	}
	svc, err := c.service(ctx)
	if err != nil {
		return nil, err
	}
	if calendarID == "" {
		calendarID = DefaultCalendarID
	}

	event := &calendar.Event{
		Summary:     summary,
		Description: description,
		Start:       &calendar.EventDateTime{DateTime: startTime, TimeZone: "UTC"},
		End:         &calendar.EventDateTime{DateTime: endTime, TimeZone: "UTC"},
	}
	for _, email := range attendees {
		event.Attendees = append(event.Attendees, &calendar.EventAttendee{Email: email})
	}

	created, err := svc.Events.Insert(calendarID, event).Context(ctx).Do()
	if err != nil {
		return nil, mapError(err)
	}
	out := convertEvent(created)
	return &out, nil
}

func convertEvent(item *calendar.Event) source.CalendarEvent {
	event := source.CalendarEvent{
		ID:          item.Id,
		Summary:     item.Summary,
		Description: item.Description,
		Location:    item.Location,
		URL:         item.HtmlLink,
	}
	if event.Summary == "" {
		event.Summary = "No Title"
	}
	if item.Start != nil {
		event.Start = item.Start.DateTime
		if event.Start == "" {
			event.Start = item.Start.Date
		}
	}
	if item.End != nil {
		event.End = item.End.DateTime
		if event.End == "" {
			event.End = item.End.Date
		}
	}
	if item.Organizer != nil {
		event.Organizer = item.Organizer.Email
	}
	for _, attendee := range item.Attendees {
		event.Attendees = append(event.Attendees, attendee.Email)
	}
	return event
}

func (c *Client) loadToken() (*oauth2.Token, error) {
	data, err := os.ReadFile(c.tokenPath)
	if err != nil {
		return nil, err
	}
	token := &oauth2.Token{}
	if err := json.Unmarshal(data, token); err != nil {
		return nil, errors.Wrapf(err, "corrupt token file %s", c.tokenPath)
	}
	return token, nil
}

func (c *Client) saveToken(token *oauth2.Token) error {
	data, err := json.Marshal(token)
	if err != nil {
		return errors.Wrap(err, "failed to marshal token")
	}
	if err := os.WriteFile(c.tokenPath, data, 0600); err != nil {
		return errors.Wrapf(err, "failed to write token file %s", c.tokenPath)
	}
	slog.Info("calendar: token persisted", "path", c.tokenPath)
	return nil
}

// mapError converts Google API errors into the source taxonomy.
func mapError(err error) error {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		return source.NewAPIError(source.NameCalendar, apiErr.Code, apiErr.Message)
	}
	return source.NewUnavailableError(source.NameCalendar, err)
}
