// Package v1 provides the REST handlers for the aggregation, bot, and
// integration surfaces.
package v1

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/sprintlens/sprintlens/ai"
	"github.com/sprintlens/sprintlens/bot"
	"github.com/sprintlens/sprintlens/internal/metrics"
	"github.com/sprintlens/sprintlens/internal/profile"
	"github.com/sprintlens/sprintlens/source"
	"github.com/sprintlens/sprintlens/source/codehost"
	"github.com/sprintlens/sprintlens/source/gcal"
	"github.com/sprintlens/sprintlens/source/slackchat"
	"github.com/sprintlens/sprintlens/source/tracker"
	"github.com/sprintlens/sprintlens/summary"
)

// APIV1Service bundles the process-wide client handles. Every adapter is
// constructed once at startup and shared read-only across requests.
type APIV1Service struct {
	Profile    *profile.Profile
	Aggregator *summary.Aggregator
	Summarizer ai.Summarizer
	Bot        *bot.Service
	Metrics    *metrics.Exporter

	Chat     *slackchat.Client
	Code     *codehost.Client
	Tracker  *tracker.Client
	Calendar *gcal.Client
}

// RegisterRoutes attaches all v1 routes to the echo server.
func (s *APIV1Service) RegisterRoutes(e *echo.Echo) {
	apiGroup := e.Group("/api/v1")

	apiGroup.POST("/summary/generate", s.GenerateSummary)

	apiGroup.GET("/chat/messages", s.GetChatMessages)
	apiGroup.GET("/chat/channels", s.GetChatChannels)

	apiGroup.GET("/code/repository", s.GetRepositoryActivity)
	apiGroup.POST("/code/issues", s.CreateCodeIssue)
	apiGroup.GET("/code/release-notes", s.GetReleaseNotes)

	apiGroup.GET("/tracker/projects", s.GetTrackerProjects)
	apiGroup.GET("/tracker/issues", s.GetTrackerIssues)
	apiGroup.GET("/tracker/sprints", s.GetTrackerSprints)
	apiGroup.GET("/tracker/sprints/:sprintID/issues", s.GetSprintIssues)
	apiGroup.POST("/tracker/issues", s.CreateTrackerIssue)

	apiGroup.GET("/calendar/events", s.GetCalendarEvents)
	apiGroup.GET("/calendar/calendars", s.GetCalendars)
	apiGroup.GET("/calendar/busy-times", s.GetBusyTimes)
	apiGroup.POST("/calendar/events", s.CreateCalendarEvent)
	apiGroup.GET("/calendar/auth/url", s.GetCalendarAuthURL)
	apiGroup.GET("/calendar/auth/callback", s.ExchangeCalendarCode)

	apiGroup.POST("/bot/post-summary", s.PostSummary)
	apiGroup.POST("/bot/weekly-summary", s.PostWeeklySummary)
	apiGroup.POST("/bot/respond", s.RespondToMention)

	e.GET("/healthz", s.HealthCheck)
	e.GET("/healthz/ready", s.ReadinessCheck)
	e.GET("/healthz/live", s.LivenessCheck)
}

// daysParam reads the "days" query parameter, defaulting to 7. Values are
// clamped later by the time window.
func daysParam(c echo.Context) (int, error) {
	raw := c.QueryParam("days")
	if raw == "" {
		return 7, nil
	}
	days, err := strconv.Atoi(raw)
	if err != nil {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "days must be an integer").SetInternal(err)
	}
	return days, nil
}

// toHTTPError maps source taxonomy errors onto HTTP statuses. Upstream
// client errors become 400s, upstream server errors become 502s, transport
// failures become 503s, and anything else is a generic 500.
func toHTTPError(err error) *echo.HTTPError {
	if source.IsNotConfigured(err) {
		return echo.NewHTTPError(http.StatusBadRequest, "integration not configured").SetInternal(err)
	}
	var apiErr *source.APIError
	if errors.As(err, &apiErr) {
		status := http.StatusBadGateway
		if apiErr.Status >= 400 && apiErr.Status < 500 {
			status = http.StatusBadRequest
		}
		return echo.NewHTTPError(status, apiErr.Error()).SetInternal(err)
	}
	var unavailErr *source.UnavailableError
	if errors.As(err, &unavailErr) {
		return echo.NewHTTPError(http.StatusServiceUnavailable, unavailErr.Error()).SetInternal(err)
	}
	return echo.NewHTTPError(http.StatusInternalServerError, "internal server error").SetInternal(err)
}
