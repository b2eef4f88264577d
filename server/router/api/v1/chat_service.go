package v1

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/sprintlens/sprintlens/source"
)

// GetChatMessages returns the channel's messages in the window, system and
// bot notices already filtered out.
func (s *APIV1Service) GetChatMessages(c echo.Context) error {
	channelID := c.QueryParam("channel_id")
	if channelID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "channel_id is required")
	}
	days, err := daysParam(c)
	if err != nil {
		return err
	}

	messages, err := s.Chat.FetchMessages(c.Request().Context(), channelID, source.NewWindow(days))
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, map[string]any{"messages": messages})
}

// GetChatChannels lists the channels visible to the bot.
func (s *APIV1Service) GetChatChannels(c echo.Context) error {
	channels, err := s.Chat.ListChannels(c.Request().Context())
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, map[string]any{"channels": channels})
}
