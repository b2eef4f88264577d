package tracker

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sprintlens/sprintlens/source"
)

func TestNew_ReturnsNilWithoutFullCredentials(t *testing.T) {
	tests := []struct {
		name                    string
		server, email, apiToken string
	}{
		{"all empty", "", "", ""},
		{"missing token", "https://acme.atlassian.net", "dev@acme.io", ""},
		{"missing email", "https://acme.atlassian.net", "", "token"},
		{"missing server", "", "dev@acme.io", "token"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := New(tt.server, tt.email, tt.apiToken)
			assert.Nil(t, c)
			assert.False(t, c.Configured())
		})
	}
}

func TestNew_Configured(t *testing.T) {
	c := New("https://acme.atlassian.net", "dev@acme.io", "token")
	require.NotNil(t, c)
	assert.True(t, c.Configured())
}

// Reads on an unconfigured adapter return an empty result, not an error.
// Callers cannot distinguish "no credentials" from "no data" on read paths.
func TestNilClient_ReadsDegradeToEmpty(t *testing.T) {
	var c *Client
	ctx := context.Background()

	projects, err := c.Projects(ctx)
	require.NoError(t, err)
	assert.Empty(t, projects)

	issues, err := c.ProjectIssues(ctx, "PROJ", source.NewWindow(7))
	require.NoError(t, err)
	assert.Empty(t, issues)

	sprints, err := c.Sprints(ctx, "PROJ")
	require.NoError(t, err)
	assert.Empty(t, sprints)

	sprintIssues, err := c.SprintIssues(ctx, 42)
	require.NoError(t, err)
	assert.Empty(t, sprintIssues)
}

func TestNilClient_CreateIssueFails(t *testing.T) {
	var c *Client

	issue, err := c.CreateIssue(context.Background(), "PROJ", "broken build", "", "")
	assert.Nil(t, issue)
	assert.True(t, source.IsNotConfigured(err))
}

func TestBrowseURL(t *testing.T) {
	c := New("https://acme.atlassian.net", "dev@acme.io", "token")
	require.NotNil(t, c)
	assert.Equal(t, "https://acme.atlassian.net/browse/PROJ-7", c.browseURL("PROJ-7"))
}
