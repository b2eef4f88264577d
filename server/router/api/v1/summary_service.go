package v1

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/sprintlens/sprintlens/ai"
	"github.com/sprintlens/sprintlens/summary"
)

// GenerateSummaryRequest selects the sources and window for one summary.
type GenerateSummaryRequest struct {
	ChannelID         string `json:"channel_id"`
	Days              int    `json:"days"`
	IncludeCode       bool   `json:"include_code"`
	IncludeTracker    bool   `json:"include_tracker"`
	IncludeCalendar   bool   `json:"include_calendar"`
	TrackerProjectKey string `json:"tracker_project_key,omitempty"`
	CalendarID        string `json:"calendar_id,omitempty"`
}

// GenerateSummaryResponse is the externally visible summary artifact.
type GenerateSummaryResponse struct {
	ID          string    `json:"id"`
	Summary     string    `json:"summary"`
	SourcesUsed []string  `json:"sources_used"`
	GeneratedAt time.Time `json:"generated_at"`
}

// GenerateSummary aggregates the enabled sources, composes a prompt, and
// returns the generated summary. A failing LLM call still yields 200 with
// the error text embedded in the summary; only request validation fails the
// call.
func (s *APIV1Service) GenerateSummary(c echo.Context) error {
	request := &GenerateSummaryRequest{Days: 7}
	if err := c.Bind(request); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed request body").SetInternal(err)
	}
	if request.ChannelID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "channel_id is required")
	}

	ctx := c.Request().Context()
	bundle := s.Aggregator.Aggregate(ctx, summary.Request{
		ChannelID:         request.ChannelID,
		Days:              request.Days,
		IncludeCode:       request.IncludeCode,
		IncludeTracker:    request.IncludeTracker,
		IncludeCalendar:   request.IncludeCalendar,
		TrackerProjectKey: request.TrackerProjectKey,
		CalendarID:        request.CalendarID,
	})

	response := &GenerateSummaryResponse{
		ID:          uuid.NewString(),
		GeneratedAt: time.Now().UTC(),
		SourcesUsed: bundle.SourcesUsed(),
	}

	// Nothing fetched: skip the model call entirely.
	if bundle.Empty() {
		s.observeSummary("no_data", 0)
		response.Summary = summary.NoDataMessage
		return c.JSON(http.StatusOK, response)
	}

	prompt, err := ai.Compose(bundle)
	if err != nil {
		s.observeSummary("no_data", 0)
		response.Summary = summary.NoDataMessage
		return c.JSON(http.StatusOK, response)
	}

	llmStart := time.Now()
	response.Summary = s.Summarizer.Summarize(ctx, prompt)
	s.observeSummary("ok", time.Since(llmStart))

	return c.JSON(http.StatusOK, response)
}

func (s *APIV1Service) observeSummary(outcome string, llmDuration time.Duration) {
	if s.Metrics != nil {
		s.Metrics.ObserveSummary(outcome, llmDuration)
	}
}
