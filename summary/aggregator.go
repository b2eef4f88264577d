// Package summary aggregates records from the enabled sources into one
// per-request context bundle. A single failing source never fails the
// aggregate call: its error is captured in the bundle and the remaining
// sources still contribute.
package summary

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/sprintlens/sprintlens/source"
)

// NoDataMessage is returned verbatim when nothing was fetched from any
// source, without invoking summarization.
const NoDataMessage = "No data found for the specified time period."

// fetchTimeout bounds one source fetch. A timed-out source counts as
// unavailable, not as a request failure.
const fetchTimeout = 15 * time.Second

// EntryState tags a per-source slot in the bundle.
type EntryState int

const (
	// StateAbsent means the source was not requested.
	StateAbsent EntryState = iota
	// StateErrored means the source was requested but the fetch failed.
	StateErrored
	// StatePopulated means the source was fetched, possibly with zero records.
	StatePopulated
)

// Entry is one source's slot in the bundle: absent, errored, or populated,
// never errored and populated at once.
type Entry[T any] struct {
	State EntryState
	Err   error
	Data  T
}

// Populated reports whether the entry carries fetched data.
func (e Entry[T]) Populated() bool { return e.State == StatePopulated }

func populated[T any](data T) Entry[T] {
	return Entry[T]{State: StatePopulated, Data: data}
}

func errored[T any](err error) Entry[T] {
	return Entry[T]{State: StateErrored, Err: err}
}

// Request selects the sources and window for one aggregation.
type Request struct {
	ChannelID         string
	Days              int
	IncludeCode       bool
	IncludeTracker    bool
	IncludeCalendar   bool
	TrackerProjectKey string
	CalendarID        string
}

// ContextBundle is the aggregated per-request view across all enabled
// sources. It lives for exactly one request.
type ContextBundle struct {
	Window   source.TimeWindow
	Chat     Entry[[]source.ChatMessage]
	Code     Entry[*source.CodeActivity]
	Tracker  Entry[*source.TrackerActivity]
	Calendar Entry[*source.CalendarActivity]
}

// Empty reports whether no source produced any record, in which case the
// caller renders NoDataMessage instead of summarizing.
func (b *ContextBundle) Empty() bool {
	if b.Chat.Populated() && len(b.Chat.Data) > 0 {
		return false
	}
	if b.Code.Populated() && b.Code.Data != nil {
		code := b.Code.Data
		if len(code.PullRequests)+len(code.Issues)+len(code.Commits)+len(code.Releases) > 0 {
			return false
		}
	}
	if b.Tracker.Populated() && b.Tracker.Data != nil {
		if len(b.Tracker.Data.Issues)+len(b.Tracker.Data.Sprints) > 0 {
			return false
		}
	}
	if b.Calendar.Populated() && b.Calendar.Data != nil {
		if len(b.Calendar.Data.Events)+len(b.Calendar.Data.Busy) > 0 {
			return false
		}
	}
	return true
}

// SourcesUsed lists the sources that contributed at least one record, in
// fixed section order. A populated source with zero records did not
// contribute and is not reported.
func (b *ContextBundle) SourcesUsed() []string {
	var used []string
	if b.Chat.Populated() && len(b.Chat.Data) > 0 {
		used = append(used, string(source.NameChat))
	}
	if b.Code.Populated() && b.Code.Data != nil {
		code := b.Code.Data
		if len(code.PullRequests)+len(code.Issues)+len(code.Commits)+len(code.Releases) > 0 {
			used = append(used, string(source.NameCode))
		}
	}
	if b.Tracker.Populated() && b.Tracker.Data != nil {
		if len(b.Tracker.Data.Issues)+len(b.Tracker.Data.Sprints) > 0 {
			used = append(used, string(source.NameTracker))
		}
	}
	if b.Calendar.Populated() && b.Calendar.Data != nil {
		if len(b.Calendar.Data.Events)+len(b.Calendar.Data.Busy) > 0 {
			used = append(used, string(source.NameCalendar))
		}
	}
	return used
}

// ChatSource is the chat adapter capability the aggregator needs.
type ChatSource interface {
	FetchMessages(ctx context.Context, channelID string, window source.TimeWindow) ([]source.ChatMessage, error)
}

// CodeSource is the code adapter capability the aggregator needs.
type CodeSource interface {
	RepositoryActivity(ctx context.Context, window source.TimeWindow) (*source.CodeActivity, error)
}

// TrackerSource is the tracker adapter capability the aggregator needs.
type TrackerSource interface {
	ProjectIssues(ctx context.Context, projectKey string, window source.TimeWindow) ([]source.TrackerIssue, error)
	Sprints(ctx context.Context, projectKey string) ([]source.TrackerSprint, error)
}

// CalendarSource is the calendar adapter capability the aggregator needs.
type CalendarSource interface {
	Events(ctx context.Context, calendarID string, window source.TimeWindow) ([]source.CalendarEvent, error)
	BusyIntervals(ctx context.Context, calendarID string, window source.TimeWindow) ([]source.BusyInterval, error)
}

// FetchObserver receives one sample per source fetch. The metrics exporter
// implements it.
type FetchObserver interface {
	ObserveSourceFetch(sourceName, outcome string, duration time.Duration)
}

// Aggregator fans requests out to the source adapters. Adapters are injected
// once at startup and shared across requests; interface values holding nil
// adapters are fine because every adapter degrades on nil receivers.
type Aggregator struct {
	chat     ChatSource
	code     CodeSource
	tracker  TrackerSource
	calendar CalendarSource

	observer FetchObserver
}

// NewAggregator wires the source adapters.
func NewAggregator(chat ChatSource, code CodeSource, tracker TrackerSource, calendar CalendarSource) *Aggregator {
	return &Aggregator{chat: chat, code: code, tracker: tracker, calendar: calendar}
}

// WithObserver attaches a per-fetch metrics sink and returns the aggregator.
func (a *Aggregator) WithObserver(observer FetchObserver) *Aggregator {
	a.observer = observer
	return a
}

// observe records one fetch sample when a sink is attached.
func (a *Aggregator) observe(name source.Name, start time.Time, failed bool) {
	if a.observer == nil {
		return
	}
	outcome := "ok"
	if failed {
		outcome = "error"
	}
	a.observer.ObserveSourceFetch(string(name), outcome, time.Since(start))
}

// Aggregate fetches every enabled source and merges the results. The enabled
// sources run concurrently; concurrency only improves latency, the bundle
// content is identical to a sequential fetch. Aggregate itself only fails on
// context cancellation of the whole request.
func (a *Aggregator) Aggregate(ctx context.Context, req Request) *ContextBundle {
	window := source.NewWindow(req.Days)
	bundle := &ContextBundle{Window: window}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		bundle.Chat = a.fetchChat(gctx, req.ChannelID, window)
		return nil
	})

	if req.IncludeCode {
		g.Go(func() error {
			bundle.Code = a.fetchCode(gctx, window)
			return nil
		})
	}

	// Tracker additionally requires a project key or is skipped.
	if req.IncludeTracker && req.TrackerProjectKey != "" {
		g.Go(func() error {
			bundle.Tracker = a.fetchTracker(gctx, req.TrackerProjectKey, window)
			return nil
		})
	}

	if req.IncludeCalendar {
		g.Go(func() error {
			bundle.Calendar = a.fetchCalendar(gctx, req.CalendarID, window)
			return nil
		})
	}

	// Fetch closures never return errors; failures live in the bundle.
	_ = g.Wait()
	return bundle
}

func (a *Aggregator) fetchChat(ctx context.Context, channelID string, window source.TimeWindow) Entry[[]source.ChatMessage] {
	ctx, cancel := context.WithTimeout(ctx, fetchTimeout)
	defer cancel()

	if a.chat == nil {
		return populated([]source.ChatMessage{})
	}
	start := time.Now()
	messages, err := a.chat.FetchMessages(ctx, channelID, window)
	if err != nil {
		if source.IsNotConfigured(err) {
			return populated([]source.ChatMessage{})
		}
		a.observe(source.NameChat, start, true)
		slog.Warn("aggregate: chat fetch failed", "channel", channelID, "error", err)
		return errored[[]source.ChatMessage](err)
	}
	a.observe(source.NameChat, start, false)
	return populated(messages)
}

func (a *Aggregator) fetchCode(ctx context.Context, window source.TimeWindow) Entry[*source.CodeActivity] {
	ctx, cancel := context.WithTimeout(ctx, fetchTimeout)
	defer cancel()

	if a.code == nil {
		return errored[*source.CodeActivity](source.ErrNotConfigured)
	}
	start := time.Now()
	activity, err := a.code.RepositoryActivity(ctx, window)
	if err != nil {
		a.observe(source.NameCode, start, true)
		slog.Warn("aggregate: code fetch failed", "error", err)
		return errored[*source.CodeActivity](err)
	}
	a.observe(source.NameCode, start, false)
	return populated(activity)
}

func (a *Aggregator) fetchTracker(ctx context.Context, projectKey string, window source.TimeWindow) Entry[*source.TrackerActivity] {
	ctx, cancel := context.WithTimeout(ctx, fetchTimeout)
	defer cancel()

	if a.tracker == nil {
		return populated(&source.TrackerActivity{})
	}
	start := time.Now()
	issues, err := a.tracker.ProjectIssues(ctx, projectKey, window)
	if err != nil {
		a.observe(source.NameTracker, start, true)
		slog.Warn("aggregate: tracker issue fetch failed", "project", projectKey, "error", err)
		return errored[*source.TrackerActivity](err)
	}
	sprints, err := a.tracker.Sprints(ctx, projectKey)
	if err != nil {
		a.observe(source.NameTracker, start, true)
		slog.Warn("aggregate: tracker sprint fetch failed", "project", projectKey, "error", err)
		return errored[*source.TrackerActivity](err)
	}
	a.observe(source.NameTracker, start, false)
	return populated(&source.TrackerActivity{Issues: issues, Sprints: sprints})
}

func (a *Aggregator) fetchCalendar(ctx context.Context, calendarID string, window source.TimeWindow) Entry[*source.CalendarActivity] {
	ctx, cancel := context.WithTimeout(ctx, fetchTimeout)
	defer cancel()

	if a.calendar == nil {
		return populated(&source.CalendarActivity{})
	}
	start := time.Now()
	events, err := a.calendar.Events(ctx, calendarID, window)
	if err != nil {
		a.observe(source.NameCalendar, start, true)
		slog.Warn("aggregate: calendar event fetch failed", "calendar", calendarID, "error", err)
		return errored[*source.CalendarActivity](err)
	}
	busy, err := a.calendar.BusyIntervals(ctx, calendarID, window)
	if err != nil {
		slog.Warn("aggregate: calendar free/busy query failed", "calendar", calendarID, "error", err)
		// Events still count; record them with an empty busy list.
		busy = nil
	}
	a.observe(source.NameCalendar, start, false)
	return populated(&source.CalendarActivity{Events: events, Busy: busy})
}
