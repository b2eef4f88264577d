package codehost

import (
	"context"
	"net/http"
	"strings"
	"testing"

	"github.com/google/go-github/v68/github"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sprintlens/sprintlens/source"
)

func TestNew_ReturnsNilWhenUnconfigured(t *testing.T) {
	assert.Nil(t, New("", "acme/widgets"))
	assert.Nil(t, New("ghp_token", ""))
	assert.Nil(t, New("", ""))
}

func TestNewWithClient_RejectsBadRepository(t *testing.T) {
	gh := github.NewClient(nil)
	assert.Nil(t, NewWithClient(gh, "no-slash"))

	c := NewWithClient(gh, "acme/widgets")
	require.NotNil(t, c)
	assert.Equal(t, "acme", c.owner)
	assert.Equal(t, "widgets", c.repo)
}

func TestNilClient_RepositoryActivity(t *testing.T) {
	var c *Client

	activity, err := c.RepositoryActivity(context.Background(), source.NewWindow(7))
	assert.Nil(t, activity)
	assert.True(t, source.IsNotConfigured(err))
}

func TestNilClient_CreateIssue(t *testing.T) {
	var c *Client

	issue, err := c.CreateIssue(context.Background(), "crash on startup", "", nil)
	assert.Nil(t, issue)
	assert.True(t, source.IsNotConfigured(err))
}

func TestRenderReleaseNotes(t *testing.T) {
	activity := &source.CodeActivity{
		Repository: "acme/widgets",
		PullRequests: []source.CodePullRequest{
			{Number: 12, Title: "Add export endpoint", State: "closed"},
			{Number: 14, Title: "WIP refactor", State: "open"},
		},
		Issues: []source.CodeIssue{
			{Number: 9, Title: "Fix crash on empty channel", State: "closed", Labels: []string{"bug"}},
			{Number: 10, Title: "Docs update", State: "closed", Labels: []string{"docs"}},
			{Number: 11, Title: "Open bug", State: "open", Labels: []string{"bug"}},
		},
		Commits: []source.CodeCommit{
			{SHA: "abc1234", Message: "fix: handle empty channel\n\nlong body"},
		},
	}

	notes := RenderReleaseNotes(activity)

	assert.True(t, strings.HasPrefix(notes, "# Release Notes\n"))
	assert.Contains(t, notes, "## New Features\n- Add export endpoint (#12)")
	assert.NotContains(t, notes, "WIP refactor")
	assert.Contains(t, notes, "## Bug Fixes\n- Fix crash on empty channel (#9)")
	assert.NotContains(t, notes, "Docs update")
	assert.NotContains(t, notes, "Open bug")
	// Commit subjects only, with the short SHA.
	assert.Contains(t, notes, "## Recent Commits\n- fix: handle empty channel (abc1234)")
	assert.NotContains(t, notes, "long body")
}

func TestRenderReleaseNotes_CapsCommits(t *testing.T) {
	activity := &source.CodeActivity{}
	for i := 0; i < maxNotesCommits+5; i++ {
		activity.Commits = append(activity.Commits, source.CodeCommit{SHA: "abc1234", Message: "chore: bump"})
	}

	notes := RenderReleaseNotes(activity)
	assert.Equal(t, maxNotesCommits, strings.Count(notes, "- chore: bump"))
}

func TestRenderReleaseNotes_NoActivity(t *testing.T) {
	notes := RenderReleaseNotes(&source.CodeActivity{})
	assert.Equal(t, "# Release Notes\n", notes)
}

func TestIsEmptyRepository(t *testing.T) {
	conflict := &github.ErrorResponse{
		Response: &http.Response{StatusCode: http.StatusConflict},
		Message:  "Git Repository is empty.",
	}
	assert.True(t, isEmptyRepository(conflict))

	notFound := &github.ErrorResponse{
		Response: &http.Response{StatusCode: http.StatusNotFound},
		Message:  "Not Found",
	}
	assert.False(t, isEmptyRepository(notFound))
	assert.False(t, isEmptyRepository(errors.New("dial tcp: timeout")))
	assert.False(t, isEmptyRepository(nil))
}

func TestMapError(t *testing.T) {
	ghErr := &github.ErrorResponse{
		Response: &http.Response{StatusCode: http.StatusUnprocessableEntity},
		Message:  "Validation Failed",
	}

	var apiErr *source.APIError
	require.True(t, errors.As(mapError(ghErr), &apiErr))
	assert.Equal(t, 422, apiErr.Status)
	assert.Equal(t, source.NameCode, apiErr.Source)

	var unavail *source.UnavailableError
	require.True(t, errors.As(mapError(errors.New("dial tcp: timeout")), &unavail))
}
