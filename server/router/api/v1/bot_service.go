package v1

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/sprintlens/sprintlens/bot"
)

// PostSummaryRequest carries a pre-rendered summary to deliver to a channel.
type PostSummaryRequest struct {
	ChannelID string `json:"channel_id"`
	Summary   string `json:"summary"`
}

// WeeklySummaryRequest triggers generate-and-post for one channel.
type WeeklySummaryRequest struct {
	ChannelID string `json:"channel_id"`
	Days      int    `json:"days"`
}

// RespondRequest is one inbound bot mention.
type RespondRequest struct {
	ChannelID string `json:"channel_id"`
	UserID    string `json:"user_id"`
	Text      string `json:"text"`
}

// PostSummary delivers an already generated summary to a channel.
func (s *APIV1Service) PostSummary(c echo.Context) error {
	request := &PostSummaryRequest{}
	if err := c.Bind(request); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed request body").SetInternal(err)
	}
	if request.ChannelID == "" || request.Summary == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "channel_id and summary are required")
	}

	posted := s.Bot.PostSummary(c.Request().Context(), request.ChannelID, request.Summary)
	return c.JSON(http.StatusOK, map[string]any{"posted": posted})
}

// PostWeeklySummary runs the full pipeline and posts the result to the
// channel. The response reports delivery, not generation, success.
func (s *APIV1Service) PostWeeklySummary(c echo.Context) error {
	request := &WeeklySummaryRequest{Days: bot.DefaultDays}
	if err := c.Bind(request); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed request body").SetInternal(err)
	}
	if request.ChannelID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "channel_id is required")
	}

	posted := s.Bot.PostWeeklySummary(c.Request().Context(), request.ChannelID, request.Days)
	return c.JSON(http.StatusOK, map[string]any{"posted": posted})
}

// RespondToMention dispatches a mention through the bot's keyword table and
// returns the reply text.
func (s *APIV1Service) RespondToMention(c echo.Context) error {
	request := &RespondRequest{}
	if err := c.Bind(request); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed request body").SetInternal(err)
	}
	if request.ChannelID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "channel_id is required")
	}

	reply := s.Bot.RespondToMention(c.Request().Context(), &bot.Mention{
		ChannelID: request.ChannelID,
		UserID:    request.UserID,
		Text:      request.Text,
	})
	return c.JSON(http.StatusOK, map[string]any{"response": reply})
}
