package v1

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/sprintlens/sprintlens/source"
)

// CreateCalendarEventRequest is the body for inserting a calendar event.
// Times are RFC 3339 in UTC.
type CreateCalendarEventRequest struct {
	Summary     string   `json:"summary"`
	Description string   `json:"description"`
	StartTime   string   `json:"start_time"`
	EndTime     string   `json:"end_time"`
	CalendarID  string   `json:"calendar_id,omitempty"`
	Attendees   []string `json:"attendees,omitempty"`
}

// GetCalendarEvents returns events in the symmetric past/future window.
func (s *APIV1Service) GetCalendarEvents(c echo.Context) error {
	days, err := daysParam(c)
	if err != nil {
		return err
	}

	events, err := s.Calendar.Events(c.Request().Context(), c.QueryParam("calendar_id"), source.NewWindow(days))
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, map[string]any{"events": events})
}

// GetCalendars lists the account's calendars.
func (s *APIV1Service) GetCalendars(c echo.Context) error {
	calendars, err := s.Calendar.Calendars(c.Request().Context())
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, map[string]any{"calendars": calendars})
}

// GetBusyTimes runs a free/busy query from now through now+days.
func (s *APIV1Service) GetBusyTimes(c echo.Context) error {
	days, err := daysParam(c)
	if err != nil {
		return err
	}

	busy, err := s.Calendar.BusyIntervals(c.Request().Context(), c.QueryParam("calendar_id"), source.NewWindow(days))
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, map[string]any{"busy_times": busy})
}

// CreateCalendarEvent inserts a new event. Malformed datetimes are rejected
// before any external call.
func (s *APIV1Service) CreateCalendarEvent(c echo.Context) error {
	request := &CreateCalendarEventRequest{}
	if err := c.Bind(request); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed request body").SetInternal(err)
	}
	if request.Summary == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "summary is required")
	}
	for _, value := range []string{request.StartTime, request.EndTime} {
		if _, err := time.Parse(time.RFC3339, value); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "start_time and end_time must be RFC 3339 datetimes").SetInternal(err)
		}
	}

	event, err := s.Calendar.CreateEvent(
		c.Request().Context(),
		request.CalendarID,
		request.Summary,
		request.Description,
		request.StartTime,
		request.EndTime,
		request.Attendees,
	)
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, event)
}

// GetCalendarAuthURL returns the offline-consent OAuth authorization URL.
func (s *APIV1Service) GetCalendarAuthURL(c echo.Context) error {
	url, err := s.Calendar.AuthURL()
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, map[string]any{"auth_url": url})
}

// ExchangeCalendarCode completes the OAuth flow. Google redirects the browser
// here with the authorization code; the code is traded for a token that is
// persisted for all later calendar calls.
func (s *APIV1Service) ExchangeCalendarCode(c echo.Context) error {
	code := c.QueryParam("code")
	if code == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "code is required")
	}

	if err := s.Calendar.Exchange(c.Request().Context(), code); err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, map[string]any{"status": "authorized"})
}
