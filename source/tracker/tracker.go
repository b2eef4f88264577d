// Package tracker implements the issue-tracker source adapter on the Jira API.
package tracker

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	jira "github.com/andygrunwald/go-jira"
	"github.com/pkg/errors"
	"golang.org/x/time/rate"

	"github.com/sprintlens/sprintlens/source"
)

// maxSearchResults caps one JQL search, matching the tracker API default tier.
const maxSearchResults = 50

const requestsPerSecond = 2

// Client is the tracker adapter. A nil *Client is a valid unconfigured
// adapter: reads degrade to an empty result, writes fail with
// ErrNotConfigured. There is no authenticated probe until the first real
// call, so "unconfigured" and "empty result" look the same to read callers.
type Client struct {
	jc        *jira.Client
	serverURL string
	limiter   *rate.Limiter
}

// New creates a tracker adapter with basic auth. Returns nil unless the full
// server/email/token triple is present.
func New(serverURL, email, apiToken string) *Client {
	if serverURL == "" || email == "" || apiToken == "" {
		return nil
	}
	transport := jira.BasicAuthTransport{Username: email, Password: apiToken}
	return NewWithHTTPClient(serverURL, transport.Client())
}

// NewWithHTTPClient wires a custom HTTP client, used by tests.
func NewWithHTTPClient(serverURL string, httpClient *http.Client) *Client {
	jc, err := jira.NewClient(httpClient, serverURL)
	if err != nil {
		slog.Warn("tracker: invalid server URL, adapter disabled", "server", serverURL, "error", err)
		return nil
	}
	return &Client{
		jc:        jc,
		serverURL: serverURL,
		limiter:   rate.NewLimiter(rate.Limit(requestsPerSecond), 4),
	}
}

// Configured reports whether the adapter holds credentials. The health
// surface uses this; read paths intentionally do not.
func (c *Client) Configured() bool {
	return c != nil
}

// Projects returns all accessible projects. Unconfigured degrades to empty.
func (c *Client) Projects(ctx context.Context) ([]source.TrackerProject, error) {
	if c == nil {
		return []source.TrackerProject{}, nil
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, source.NewUnavailableError(source.NameTracker, err)
	}

	list, resp, err := c.jc.Project.GetListWithContext(ctx)
	if err != nil {
		return nil, mapError(err, resp)
	}
	projects := make([]source.TrackerProject, 0, len(*list))
	for _, project := range *list {
		projects = append(projects, source.TrackerProject{
			Key:  project.Key,
			Name: project.Name,
			ID:   project.ID,
		})
	}
	return projects, nil
}

// ProjectIssues returns issues created in the window, newest first, capped at
// maxSearchResults. Unconfigured degrades to empty.
func (c *Client) ProjectIssues(ctx context.Context, projectKey string, window source.TimeWindow) ([]source.TrackerIssue, error) {
	if c == nil {
		return []source.TrackerIssue{}, nil
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, source.NewUnavailableError(source.NameTracker, err)
	}

	jql := fmt.Sprintf("project = %s AND created >= '%s' ORDER BY created DESC",
		projectKey, window.Since().Format("2006-01-02"))
	raw, resp, err := c.jc.Issue.SearchWithContext(ctx, jql, &jira.SearchOptions{MaxResults: maxSearchResults})
	if err != nil {
		return nil, mapError(err, resp)
	}

	issues := make([]source.TrackerIssue, 0, len(raw))
	for i := range raw {
		issues = append(issues, c.convertIssue(&raw[i]))
	}
	slog.Debug("tracker: fetched project issues", "project", projectKey, "days", window.Days, "issues", len(issues))
	return issues, nil
}

// Sprints resolves the project's first board and lists its sprints.
// Unconfigured or boardless projects degrade to empty.
func (c *Client) Sprints(ctx context.Context, projectKey string) ([]source.TrackerSprint, error) {
	if c == nil {
		return []source.TrackerSprint{}, nil
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, source.NewUnavailableError(source.NameTracker, err)
	}

	boards, resp, err := c.jc.Board.GetAllBoardsWithContext(ctx, &jira.BoardListOptions{ProjectKeyOrID: projectKey})
	if err != nil {
		return nil, mapError(err, resp)
	}
	if boards == nil || len(boards.Values) == 0 {
		return []source.TrackerSprint{}, nil
	}

	list, resp, err := c.jc.Board.GetAllSprintsWithOptionsWithContext(ctx, boards.Values[0].ID, &jira.GetAllSprintsOptions{})
	if err != nil {
		return nil, mapError(err, resp)
	}
	sprints := make([]source.TrackerSprint, 0, len(list.Values))
	for _, sprint := range list.Values {
		sprints = append(sprints, source.TrackerSprint{
			ID:        sprint.ID,
			Name:      sprint.Name,
			State:     sprint.State,
			StartDate: formatSprintTime(sprint.StartDate),
			EndDate:   formatSprintTime(sprint.EndDate),
		})
	}
	return sprints, nil
}

// SprintIssues lists all issues assigned to a sprint.
func (c *Client) SprintIssues(ctx context.Context, sprintID int) ([]source.TrackerIssue, error) {
	if c == nil {
		return []source.TrackerIssue{}, nil
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, source.NewUnavailableError(source.NameTracker, err)
	}

	raw, resp, err := c.jc.Sprint.GetIssuesForSprintWithContext(ctx, sprintID)
	if err != nil {
		return nil, mapError(err, resp)
	}
	issues := make([]source.TrackerIssue, 0, len(raw))
	for i := range raw {
		issues = append(issues, c.convertIssue(&raw[i]))
	}
	return issues, nil
}

// CreateIssue creates a new issue. Unlike reads, an unconfigured adapter is
// an explicit error here.
func (c *Client) CreateIssue(ctx context.Context, projectKey, summary, description, issueType string) (*source.TrackerIssue, error) {
	if c == nil {
		return nil, source.ErrNotConfigured
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, source.NewUnavailableError(source.NameTracker, err)
	}

	if issueType == "" {
		issueType = "Task"
	}
	created, resp, err := c.jc.Issue.CreateWithContext(ctx, &jira.Issue{
		Fields: &jira.IssueFields{
			Project:     jira.Project{Key: projectKey},
			Summary:     summary,
			Description: description,
			Type:        jira.IssueType{Name: issueType},
		},
	})
	if err != nil {
		return nil, mapError(err, resp)
	}
	return &source.TrackerIssue{
		Key:     created.Key,
		Summary: summary,
		URL:     c.browseURL(created.Key),
	}, nil
}

func (c *Client) convertIssue(issue *jira.Issue) source.TrackerIssue {
	out := source.TrackerIssue{
		Key:      issue.Key,
		Priority: "None",
		Assignee: "Unassigned",
		URL:      c.browseURL(issue.Key),
	}
	fields := issue.Fields
	if fields == nil {
		return out
	}
	out.Summary = fields.Summary
	out.IssueType = fields.Type.Name
	out.Created = time.Time(fields.Created).Format(time.RFC3339)
	if fields.Status != nil {
		out.Status = fields.Status.Name
	}
	if fields.Priority != nil {
		out.Priority = fields.Priority.Name
	}
	if fields.Assignee != nil {
		out.Assignee = fields.Assignee.DisplayName
	}
	if fields.Reporter != nil {
		out.Reporter = fields.Reporter.DisplayName
	}
	return out
}

func (c *Client) browseURL(key string) string {
	return fmt.Sprintf("%s/browse/%s", c.serverURL, key)
}

func formatSprintTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(time.RFC3339)
}

// mapError converts go-jira errors into the source taxonomy.
func mapError(err error, resp *jira.Response) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return source.NewUnavailableError(source.NameTracker, err)
	}
	if resp != nil && resp.Response != nil {
		return source.NewAPIError(source.NameTracker, resp.StatusCode, err.Error())
	}
	return source.NewUnavailableError(source.NameTracker, err)
}
