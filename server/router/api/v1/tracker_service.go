package v1

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/sprintlens/sprintlens/source"
)

// CreateTrackerIssueRequest is the body for creating a tracker issue.
type CreateTrackerIssueRequest struct {
	ProjectKey  string `json:"project_key"`
	Summary     string `json:"summary"`
	Description string `json:"description"`
	IssueType   string `json:"issue_type,omitempty"`
}

// GetTrackerProjects lists all accessible tracker projects. An unconfigured
// tracker yields an empty list, not an error.
func (s *APIV1Service) GetTrackerProjects(c echo.Context) error {
	projects, err := s.Tracker.Projects(c.Request().Context())
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, map[string]any{"projects": projects})
}

// GetTrackerIssues returns issues created in the window for one project.
func (s *APIV1Service) GetTrackerIssues(c echo.Context) error {
	projectKey := c.QueryParam("project_key")
	if projectKey == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "project_key is required")
	}
	days, err := daysParam(c)
	if err != nil {
		return err
	}

	issues, err := s.Tracker.ProjectIssues(c.Request().Context(), projectKey, source.NewWindow(days))
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, map[string]any{"issues": issues})
}

// GetTrackerSprints lists the sprints on the project's first board.
func (s *APIV1Service) GetTrackerSprints(c echo.Context) error {
	projectKey := c.QueryParam("project_key")
	if projectKey == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "project_key is required")
	}

	sprints, err := s.Tracker.Sprints(c.Request().Context(), projectKey)
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, map[string]any{"sprints": sprints})
}

// GetSprintIssues lists all issues in one sprint.
func (s *APIV1Service) GetSprintIssues(c echo.Context) error {
	sprintID, err := strconv.Atoi(c.Param("sprintID"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "sprint id must be an integer").SetInternal(err)
	}

	issues, err := s.Tracker.SprintIssues(c.Request().Context(), sprintID)
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, map[string]any{"issues": issues})
}

// CreateTrackerIssue creates a new tracker issue. Unlike reads, this is an
// explicit error when the tracker is unconfigured.
func (s *APIV1Service) CreateTrackerIssue(c echo.Context) error {
	request := &CreateTrackerIssueRequest{}
	if err := c.Bind(request); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed request body").SetInternal(err)
	}
	if request.ProjectKey == "" || request.Summary == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "project_key and summary are required")
	}

	issue, err := s.Tracker.CreateIssue(c.Request().Context(), request.ProjectKey, request.Summary, request.Description, request.IssueType)
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, issue)
}
