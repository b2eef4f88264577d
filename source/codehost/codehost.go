// Package codehost implements the code source adapter on the GitHub API.
package codehost

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/go-github/v68/github"
	"github.com/pkg/errors"
	"golang.org/x/time/rate"

	"github.com/sprintlens/sprintlens/source"
)

const (
	shortSHALen = 7

	// GitHub allows 5000 authenticated requests per hour.
	requestsPerSecond = 1
	listPageSize      = 100
)

// Client is the code adapter bound to one repository. A nil *Client is a
// valid unconfigured adapter.
type Client struct {
	gh      *github.Client
	owner   string
	repo    string
	limiter *rate.Limiter
}

// New creates a code adapter for the "owner/name" repository. Returns nil
// when the token or repository is empty.
func New(token, repository string) *Client {
	if token == "" || repository == "" {
		return nil
	}
	return NewWithClient(github.NewClient(nil).WithAuthToken(token), repository)
}

// NewWithClient wraps a pre-built GitHub client. Tests point the client at an
// httptest server.
func NewWithClient(gh *github.Client, repository string) *Client {
	owner, repo, ok := strings.Cut(repository, "/")
	if !ok {
		return nil
	}
	return &Client{
		gh:      gh,
		owner:   owner,
		repo:    repo,
		limiter: rate.NewLimiter(rate.Limit(requestsPerSecond), 5),
	}
}

// RepositoryActivity returns PRs, issues, commits, and releases created
// within the window. An empty repository yields an empty commit list rather
// than an error.
func (c *Client) RepositoryActivity(ctx context.Context, window source.TimeWindow) (*source.CodeActivity, error) {
	if c == nil {
		return nil, source.ErrNotConfigured
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, source.NewUnavailableError(source.NameCode, err)
	}

	since := window.Since()
	activity := &source.CodeActivity{Repository: c.owner + "/" + c.repo}

	prs, _, err := c.gh.PullRequests.List(ctx, c.owner, c.repo, &github.PullRequestListOptions{
		State:       "all",
		Sort:        "created",
		Direction:   "desc",
		ListOptions: github.ListOptions{PerPage: listPageSize},
	})
	if err != nil {
		return nil, mapError(err)
	}
	for _, pr := range prs {
		if pr.GetCreatedAt().Time.Before(since) {
			continue
		}
		activity.PullRequests = append(activity.PullRequests, source.CodePullRequest{
			Number:    pr.GetNumber(),
			Title:     pr.GetTitle(),
			State:     pr.GetState(),
			Author:    pr.GetUser().GetLogin(),
			CreatedAt: pr.GetCreatedAt().Time,
			URL:       pr.GetHTMLURL(),
		})
	}

	issues, _, err := c.gh.Issues.ListByRepo(ctx, c.owner, c.repo, &github.IssueListByRepoOptions{
		State:       "all",
		ListOptions: github.ListOptions{PerPage: listPageSize},
	})
	if err != nil {
		return nil, mapError(err)
	}
	for _, issue := range issues {
		// The issues listing also returns pull requests.
		if issue.IsPullRequest() {
			continue
		}
		if issue.GetCreatedAt().Time.Before(since) {
			continue
		}
		labels := make([]string, 0, len(issue.Labels))
		for _, label := range issue.Labels {
			labels = append(labels, label.GetName())
		}
		activity.Issues = append(activity.Issues, source.CodeIssue{
			Number:    issue.GetNumber(),
			Title:     issue.GetTitle(),
			State:     issue.GetState(),
			Author:    issue.GetUser().GetLogin(),
			Labels:    labels,
			CreatedAt: issue.GetCreatedAt().Time,
			URL:       issue.GetHTMLURL(),
		})
	}

	commits, _, err := c.gh.Repositories.ListCommits(ctx, c.owner, c.repo, &github.CommitsListOptions{
		Since:       since,
		ListOptions: github.ListOptions{PerPage: listPageSize},
	})
	switch {
	case isEmptyRepository(err):
		slog.Debug("code: repository is empty, no commits to fetch", "repo", activity.Repository)
	case err != nil:
		return nil, mapError(err)
	default:
		for _, commit := range commits {
			sha := commit.GetSHA()
			if len(sha) > shortSHALen {
				sha = sha[:shortSHALen]
			}
			activity.Commits = append(activity.Commits, source.CodeCommit{
				SHA:     sha,
				Message: commit.GetCommit().GetMessage(),
				Author:  commit.GetCommit().GetAuthor().GetName(),
				Date:    commit.GetCommit().GetAuthor().GetDate().Time,
				URL:     commit.GetHTMLURL(),
			})
		}
	}

	releases, _, err := c.gh.Repositories.ListReleases(ctx, c.owner, c.repo, &github.ListOptions{PerPage: listPageSize})
	if err != nil {
		return nil, mapError(err)
	}
	for _, release := range releases {
		if release.GetCreatedAt().Time.Before(since) {
			continue
		}
		activity.Releases = append(activity.Releases, source.CodeRelease{
			TagName:   release.GetTagName(),
			Name:      release.GetName(),
			Body:      release.GetBody(),
			CreatedAt: release.GetCreatedAt().Time,
			URL:       release.GetHTMLURL(),
		})
	}

	slog.Debug("code: fetched repository activity",
		"repo", activity.Repository,
		"prs", len(activity.PullRequests),
		"issues", len(activity.Issues),
		"commits", len(activity.Commits),
		"releases", len(activity.Releases),
	)
	return activity, nil
}

// CreateIssue opens a new issue in the configured repository.
func (c *Client) CreateIssue(ctx context.Context, title, body string, labels []string) (*source.CodeIssue, error) {
	if c == nil {
		return nil, source.ErrNotConfigured
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, source.NewUnavailableError(source.NameCode, err)
	}

	req := &github.IssueRequest{Title: &title, Body: &body}
	if len(labels) > 0 {
		req.Labels = &labels
	}
	issue, _, err := c.gh.Issues.Create(ctx, c.owner, c.repo, req)
	if err != nil {
		return nil, mapError(err)
	}
	return &source.CodeIssue{
		Number:    issue.GetNumber(),
		Title:     issue.GetTitle(),
		State:     issue.GetState(),
		CreatedAt: issue.GetCreatedAt().Time,
		URL:       issue.GetHTMLURL(),
	}, nil
}

// maxNotesCommits caps the "Recent Commits" section of release notes.
const maxNotesCommits = 10

// ReleaseNotes renders markdown release notes from the window's activity:
// closed PRs as new features, closed bug-labeled issues as fixes, and the
// most recent commits.
func (c *Client) ReleaseNotes(ctx context.Context, window source.TimeWindow) (string, error) {
	activity, err := c.RepositoryActivity(ctx, window)
	if err != nil {
		return "", err
	}
	return RenderReleaseNotes(activity), nil
}

// RenderReleaseNotes formats activity as markdown release notes.
func RenderReleaseNotes(activity *source.CodeActivity) string {
	var notes []string
	notes = append(notes, "# Release Notes\n")

	var features []source.CodePullRequest
	for _, pr := range activity.PullRequests {
		if pr.State == "closed" {
			features = append(features, pr)
		}
	}
	if len(features) > 0 {
		notes = append(notes, "## New Features")
		for _, pr := range features {
			notes = append(notes, fmt.Sprintf("- %s (#%d)", pr.Title, pr.Number))
		}
		notes = append(notes, "")
	}

	var fixes []source.CodeIssue
	for _, issue := range activity.Issues {
		if issue.State != "closed" {
			continue
		}
		for _, label := range issue.Labels {
			if strings.EqualFold(label, "bug") {
				fixes = append(fixes, issue)
				break
			}
		}
	}
	if len(fixes) > 0 {
		notes = append(notes, "## Bug Fixes")
		for _, issue := range fixes {
			notes = append(notes, fmt.Sprintf("- %s (#%d)", issue.Title, issue.Number))
		}
		notes = append(notes, "")
	}

	if len(activity.Commits) > 0 {
		notes = append(notes, "## Recent Commits")
		commits := activity.Commits
		if len(commits) > maxNotesCommits {
			commits = commits[:maxNotesCommits]
		}
		for _, commit := range commits {
			subject, _, _ := strings.Cut(commit.Message, "\n")
			notes = append(notes, fmt.Sprintf("- %s (%s)", subject, commit.SHA))
		}
	}

	return strings.Join(notes, "\n")
}

// isEmptyRepository detects GitHub's 409 for commit listings on a repository
// with no commits.
func isEmptyRepository(err error) bool {
	var ghErr *github.ErrorResponse
	if !errors.As(err, &ghErr) {
		return false
	}
	return ghErr.Response != nil && ghErr.Response.StatusCode == 409 ||
		strings.Contains(ghErr.Message, "Git Repository is empty")
}

// mapError converts go-github errors into the source taxonomy.
func mapError(err error) error {
	var rateErr *github.RateLimitError
	if errors.As(err, &rateErr) {
		return source.NewAPIError(source.NameCode, 403, "rate limit exceeded")
	}
	var ghErr *github.ErrorResponse
	if errors.As(err, &ghErr) {
		status := 0
		if ghErr.Response != nil {
			status = ghErr.Response.StatusCode
		}
		return source.NewAPIError(source.NameCode, status, ghErr.Message)
	}
	return source.NewUnavailableError(source.NameCode, err)
}
