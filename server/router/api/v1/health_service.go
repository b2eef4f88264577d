package v1

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/sprintlens/sprintlens/internal/version"
)

const (
	statusConfigured    = "configured"
	statusNotConfigured = "not_configured"
)

// HealthCheck reports overall status plus the configuration state of every
// integration. Pure function of the profile: repeated calls with no
// configuration change return identical bodies.
func (s *APIV1Service) HealthCheck(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{
		"status":   "healthy",
		"version":  version.GetCurrentVersion(s.Profile.Mode),
		"services": s.serviceStates(),
	})
}

// ReadinessCheck fails with 503 until the LLM and chat integrations are
// configured; everything else is optional.
func (s *APIV1Service) ReadinessCheck(c echo.Context) error {
	if !s.Profile.IsLLMConfigured() || !s.Profile.IsChatConfigured() {
		return c.JSON(http.StatusServiceUnavailable, map[string]any{
			"status":   "not_ready",
			"services": s.serviceStates(),
		})
	}
	return c.JSON(http.StatusOK, map[string]any{"status": "ready"})
}

// LivenessCheck reports that the process is serving requests.
func (s *APIV1Service) LivenessCheck(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{"status": "alive"})
}

func (s *APIV1Service) serviceStates() map[string]string {
	states := map[string]string{
		"llm":      statusNotConfigured,
		"slack":    statusNotConfigured,
		"github":   statusNotConfigured,
		"jira":     statusNotConfigured,
		"calendar": statusNotConfigured,
		"telegram": statusNotConfigured,
	}
	if s.Profile.IsLLMConfigured() {
		states["llm"] = statusConfigured
	}
	if s.Profile.IsChatConfigured() {
		states["slack"] = statusConfigured
	}
	if s.Profile.IsCodeConfigured() {
		states["github"] = statusConfigured
	}
	if s.Profile.IsTrackerConfigured() {
		states["jira"] = statusConfigured
	}
	if s.Profile.IsCalendarConfigured() {
		states["calendar"] = statusConfigured
	}
	if s.Profile.IsTelegramConfigured() {
		states["telegram"] = statusConfigured
	}
	return states
}
