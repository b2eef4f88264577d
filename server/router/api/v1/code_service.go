package v1

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/sprintlens/sprintlens/source"
)

// CreateCodeIssueRequest is the body for opening a repository issue.
type CreateCodeIssueRequest struct {
	Title  string   `json:"title"`
	Body   string   `json:"body"`
	Labels []string `json:"labels,omitempty"`
}

// GetRepositoryActivity returns PRs, issues, commits, and releases created
// in the window.
func (s *APIV1Service) GetRepositoryActivity(c echo.Context) error {
	days, err := daysParam(c)
	if err != nil {
		return err
	}

	activity, err := s.Code.RepositoryActivity(c.Request().Context(), source.NewWindow(days))
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, activity)
}

// CreateCodeIssue opens a new issue in the configured repository.
func (s *APIV1Service) CreateCodeIssue(c echo.Context) error {
	request := &CreateCodeIssueRequest{}
	if err := c.Bind(request); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed request body").SetInternal(err)
	}
	if request.Title == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "title is required")
	}

	issue, err := s.Code.CreateIssue(c.Request().Context(), request.Title, request.Body, request.Labels)
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, issue)
}

// GetReleaseNotes renders markdown release notes from the window's activity.
func (s *APIV1Service) GetReleaseNotes(c echo.Context) error {
	days, err := daysParam(c)
	if err != nil {
		return err
	}

	notes, err := s.Code.ReleaseNotes(c.Request().Context(), source.NewWindow(days))
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, map[string]any{"release_notes": notes})
}
