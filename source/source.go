// Package source defines the normalized record shapes and the error taxonomy
// shared by all external platform adapters. Each adapter translates one
// platform's API into these shapes; downstream code never sees a raw payload.
package source

import (
	"fmt"
	"time"

	"github.com/pkg/errors"
)

// Name identifies an external data source.
type Name string

const (
	NameChat     Name = "chat"
	NameCode     Name = "code"
	NameTracker  Name = "tracker"
	NameCalendar Name = "calendar"
)

// MinWindowDays and MaxWindowDays bound the lookback period.
const (
	MinWindowDays = 1
	MaxWindowDays = 90
)

// TimeWindow is the lookback period for a fetch. All adapters interpret it as
// [now-days, now]; the calendar adapter splits it symmetrically around now.
type TimeWindow struct {
	Days int
	now  time.Time
}

// NewWindow builds a TimeWindow anchored at the current time, clamping days
// into [MinWindowDays, MaxWindowDays].
func NewWindow(days int) TimeWindow {
	return NewWindowAt(days, time.Now())
}

// NewWindowAt builds a TimeWindow anchored at the given instant. Tests use
// this to pin "now".
func NewWindowAt(days int, now time.Time) TimeWindow {
	if days < MinWindowDays {
		days = MinWindowDays
	}
	if days > MaxWindowDays {
		days = MaxWindowDays
	}
	return TimeWindow{Days: days, now: now}
}

// Now returns the window's anchor instant.
func (w TimeWindow) Now() time.Time {
	if w.now.IsZero() {
		return time.Now()
	}
	return w.now
}

// Since returns the start of the lookback period.
func (w TimeWindow) Since() time.Time {
	return w.Now().AddDate(0, 0, -w.Days)
}

// SymmetricRange splits the window around now: half in the past, half in the
// future. Used by the calendar adapter.
func (w TimeWindow) SymmetricRange() (time.Time, time.Time) {
	half := w.Days / 2
	now := w.Now()
	return now.AddDate(0, 0, -half), now.AddDate(0, 0, half)
}

// ChatMessage is one non-system message from a chat channel.
type ChatMessage struct {
	User      string `json:"user"`
	Text      string `json:"text"`
	Timestamp string `json:"timestamp"`
}

// ChatChannel describes a channel the bot can read.
type ChatChannel struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	IsPrivate bool   `json:"is_private"`
}

// CodeCommit is one commit in the window. SHA is pre-truncated to 7 chars.
type CodeCommit struct {
	SHA     string    `json:"sha"`
	Message string    `json:"message"`
	Author  string    `json:"author"`
	Date    time.Time `json:"date"`
	URL     string    `json:"url"`
}

// CodePullRequest is one pull request created in the window.
type CodePullRequest struct {
	Number    int       `json:"number"`
	Title     string    `json:"title"`
	State     string    `json:"state"`
	Author    string    `json:"author"`
	CreatedAt time.Time `json:"created_at"`
	URL       string    `json:"url"`
}

// CodeIssue is one repository issue created in the window.
type CodeIssue struct {
	Number    int       `json:"number"`
	Title     string    `json:"title"`
	State     string    `json:"state"`
	Author    string    `json:"author"`
	Labels    []string  `json:"labels"`
	CreatedAt time.Time `json:"created_at"`
	URL       string    `json:"url"`
}

// CodeRelease is one release published in the window.
type CodeRelease struct {
	TagName   string    `json:"tag_name"`
	Name      string    `json:"name"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
	URL       string    `json:"url"`
}

// CodeActivity bundles all repository records for one window.
type CodeActivity struct {
	Repository   string            `json:"repository"`
	PullRequests []CodePullRequest `json:"pull_requests"`
	Issues       []CodeIssue       `json:"issues"`
	Commits      []CodeCommit      `json:"commits"`
	Releases     []CodeRelease     `json:"releases"`
}

// TrackerIssue is one issue-tracker issue.
type TrackerIssue struct {
	Key       string `json:"key"`
	Summary   string `json:"summary"`
	Status    string `json:"status"`
	Priority  string `json:"priority"`
	Assignee  string `json:"assignee"`
	Reporter  string `json:"reporter"`
	IssueType string `json:"issue_type"`
	Created   string `json:"created"`
	URL       string `json:"url"`
}

// TrackerSprint is one sprint on the project's first board.
type TrackerSprint struct {
	ID        int    `json:"id"`
	Name      string `json:"name"`
	State     string `json:"state"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
	Goal      string `json:"goal"`
}

// TrackerProject is one accessible tracker project.
type TrackerProject struct {
	Key  string `json:"key"`
	Name string `json:"name"`
	ID   string `json:"id"`
}

// TrackerActivity bundles tracker records for one window.
type TrackerActivity struct {
	Issues  []TrackerIssue  `json:"issues"`
	Sprints []TrackerSprint `json:"sprints"`
}

// CalendarEvent is one calendar event in the symmetric window.
type CalendarEvent struct {
	ID          string   `json:"id"`
	Summary     string   `json:"summary"`
	Description string   `json:"description"`
	Start       string   `json:"start"`
	End         string   `json:"end"`
	Location    string   `json:"location"`
	Attendees   []string `json:"attendees"`
	Organizer   string   `json:"organizer"`
	URL         string   `json:"url"`
}

// CalendarEntry describes one calendar in the account's list.
type CalendarEntry struct {
	ID          string `json:"id"`
	Summary     string `json:"summary"`
	Description string `json:"description"`
	Primary     bool   `json:"primary"`
	AccessRole  string `json:"access_role"`
}

// BusyInterval is one busy slot from a free/busy query.
type BusyInterval struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// CalendarActivity bundles calendar records for one window.
type CalendarActivity struct {
	Events []CalendarEvent `json:"events"`
	Busy   []BusyInterval  `json:"busy"`
}

// ErrNotConfigured marks an adapter whose credentials are absent. Read paths
// degrade to an empty result; write paths surface it to the caller.
var ErrNotConfigured = errors.New("source not configured")

// APIError is a platform-rejected call: it carries the upstream status code
// and the source name so handlers can attribute the failure.
type APIError struct {
	Source  Name
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s API error (status %d): %s", e.Source, e.Status, e.Message)
}

// NewAPIError builds an APIError for the given source.
func NewAPIError(source Name, status int, message string) *APIError {
	return &APIError{Source: source, Status: status, Message: message}
}

// UnavailableError is a network-level failure (timeout, refused connection).
// Aggregation treats it as no-data for the source.
type UnavailableError struct {
	Source Name
	Err    error
}

func (e *UnavailableError) Error() string {
	return fmt.Sprintf("%s unavailable: %v", e.Source, e.Err)
}

func (e *UnavailableError) Unwrap() error { return e.Err }

// NewUnavailableError wraps a transport error for the given source.
func NewUnavailableError(source Name, err error) *UnavailableError {
	return &UnavailableError{Source: source, Err: err}
}

// IsNotConfigured reports whether err means missing credentials.
func IsNotConfigured(err error) bool {
	return errors.Is(err, ErrNotConfigured)
}
