package summary

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sprintlens/sprintlens/source"
)

type fakeChat struct {
	messages []source.ChatMessage
	err      error
}

func (f *fakeChat) FetchMessages(context.Context, string, source.TimeWindow) ([]source.ChatMessage, error) {
	return f.messages, f.err
}

type fakeCode struct {
	activity *source.CodeActivity
	err      error
}

func (f *fakeCode) RepositoryActivity(context.Context, source.TimeWindow) (*source.CodeActivity, error) {
	return f.activity, f.err
}

type fakeTracker struct {
	issues  []source.TrackerIssue
	sprints []source.TrackerSprint
	err     error
}

func (f *fakeTracker) ProjectIssues(context.Context, string, source.TimeWindow) ([]source.TrackerIssue, error) {
	return f.issues, f.err
}

func (f *fakeTracker) Sprints(context.Context, string) ([]source.TrackerSprint, error) {
	return f.sprints, f.err
}

type fakeCalendar struct {
	events  []source.CalendarEvent
	busy    []source.BusyInterval
	busyErr error
	err     error
}

func (f *fakeCalendar) Events(context.Context, string, source.TimeWindow) ([]source.CalendarEvent, error) {
	return f.events, f.err
}

func (f *fakeCalendar) BusyIntervals(context.Context, string, source.TimeWindow) ([]source.BusyInterval, error) {
	return f.busy, f.busyErr
}

func TestAggregate_AllSourcesEmpty(t *testing.T) {
	a := NewAggregator(&fakeChat{}, &fakeCode{activity: &source.CodeActivity{}}, &fakeTracker{}, &fakeCalendar{})

	bundle := a.Aggregate(context.Background(), Request{
		ChannelID:         "C123",
		Days:              7,
		IncludeCode:       true,
		IncludeTracker:    true,
		IncludeCalendar:   true,
		TrackerProjectKey: "PROJ",
	})

	assert.True(t, bundle.Empty())
}

func TestAggregate_FailingSourceDoesNotFailAggregate(t *testing.T) {
	a := NewAggregator(
		&fakeChat{messages: []source.ChatMessage{{User: "U1", Text: "shipped it"}}},
		&fakeCode{err: source.NewAPIError(source.NameCode, 500, "server error")},
		nil,
		nil,
	)

	bundle := a.Aggregate(context.Background(), Request{ChannelID: "C123", Days: 7, IncludeCode: true})

	assert.False(t, bundle.Empty())
	assert.True(t, bundle.Chat.Populated())
	assert.Equal(t, StateErrored, bundle.Code.State)
	assert.Error(t, bundle.Code.Err)
}

func TestAggregate_EntryNeverErroredAndPopulated(t *testing.T) {
	a := NewAggregator(
		&fakeChat{err: errors.New("slack down")},
		&fakeCode{err: errors.New("github down")},
		&fakeTracker{err: errors.New("jira down")},
		&fakeCalendar{err: errors.New("calendar down")},
	)

	bundle := a.Aggregate(context.Background(), Request{
		ChannelID:         "C123",
		Days:              7,
		IncludeCode:       true,
		IncludeTracker:    true,
		IncludeCalendar:   true,
		TrackerProjectKey: "PROJ",
	})

	for name, state := range map[string]EntryState{
		"chat":     bundle.Chat.State,
		"code":     bundle.Code.State,
		"tracker":  bundle.Tracker.State,
		"calendar": bundle.Calendar.State,
	} {
		assert.Equal(t, StateErrored, state, name)
	}
	assert.Empty(t, bundle.Chat.Data)
	assert.Nil(t, bundle.Code.Data)
	assert.Nil(t, bundle.Tracker.Data)
	assert.Nil(t, bundle.Calendar.Data)
	assert.True(t, bundle.Empty())
}

func TestAggregate_UnconfiguredChatDegradesToEmpty(t *testing.T) {
	a := NewAggregator(&fakeChat{err: source.ErrNotConfigured}, nil, nil, nil)

	bundle := a.Aggregate(context.Background(), Request{ChannelID: "C123", Days: 7})

	assert.True(t, bundle.Chat.Populated())
	assert.Empty(t, bundle.Chat.Data)
	assert.NoError(t, bundle.Chat.Err)
}

func TestAggregate_DisabledSourcesStayAbsent(t *testing.T) {
	a := NewAggregator(&fakeChat{}, &fakeCode{}, &fakeTracker{}, &fakeCalendar{})

	bundle := a.Aggregate(context.Background(), Request{ChannelID: "C123", Days: 7})

	assert.Equal(t, StateAbsent, bundle.Code.State)
	assert.Equal(t, StateAbsent, bundle.Tracker.State)
	assert.Equal(t, StateAbsent, bundle.Calendar.State)
}

func TestAggregate_TrackerSkippedWithoutProjectKey(t *testing.T) {
	a := NewAggregator(&fakeChat{}, nil, &fakeTracker{issues: []source.TrackerIssue{{Key: "PROJ-1"}}}, nil)

	bundle := a.Aggregate(context.Background(), Request{ChannelID: "C123", Days: 7, IncludeTracker: true})

	assert.Equal(t, StateAbsent, bundle.Tracker.State)
}

func TestAggregate_BusyFailureKeepsEvents(t *testing.T) {
	a := NewAggregator(&fakeChat{}, nil, nil, &fakeCalendar{
		events:  []source.CalendarEvent{{Summary: "Retro"}},
		busyErr: errors.New("freebusy query failed"),
	})

	bundle := a.Aggregate(context.Background(), Request{ChannelID: "C123", Days: 7, IncludeCalendar: true})

	require.True(t, bundle.Calendar.Populated())
	assert.Len(t, bundle.Calendar.Data.Events, 1)
	assert.Empty(t, bundle.Calendar.Data.Busy)
}

func TestContextBundle_SourcesUsed(t *testing.T) {
	bundle := &ContextBundle{
		Chat: populated([]source.ChatMessage{{Text: "hi"}}),
		Code: populated(&source.CodeActivity{
			Commits: []source.CodeCommit{{SHA: "abc1234"}},
		}),
		Tracker: errored[*source.TrackerActivity](errors.New("down")),
	}

	assert.Equal(t, []string{"chat", "code"}, bundle.SourcesUsed())
}

func TestContextBundle_SourcesUsed_OmitsRecordlessSources(t *testing.T) {
	// Populated-but-empty entries contributed nothing and are not reported,
	// for chat and optional sources alike.
	bundle := &ContextBundle{
		Chat:     populated([]source.ChatMessage{}),
		Code:     populated(&source.CodeActivity{}),
		Tracker:  populated(&source.TrackerActivity{}),
		Calendar: populated(&source.CalendarActivity{Busy: make([]source.BusyInterval, 1)}),
	}

	assert.Equal(t, []string{"calendar"}, bundle.SourcesUsed())
}

type recordingObserver struct {
	mu      sync.Mutex
	samples map[string]string
}

func (r *recordingObserver) ObserveSourceFetch(sourceName, outcome string, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.samples == nil {
		r.samples = make(map[string]string)
	}
	r.samples[sourceName] = outcome
}

func TestAggregate_ReportsFetchOutcomes(t *testing.T) {
	observer := &recordingObserver{}
	a := NewAggregator(
		&fakeChat{messages: []source.ChatMessage{{User: "U1", Text: "shipped it"}}},
		&fakeCode{err: source.NewAPIError(source.NameCode, 500, "server error")},
		&fakeTracker{issues: []source.TrackerIssue{{Key: "PROJ-1"}}},
		&fakeCalendar{},
	).WithObserver(observer)

	a.Aggregate(context.Background(), Request{
		ChannelID:         "C123",
		Days:              7,
		IncludeCode:       true,
		IncludeTracker:    true,
		IncludeCalendar:   true,
		TrackerProjectKey: "PROJ",
	})

	assert.Equal(t, map[string]string{
		"chat":     "ok",
		"code":     "error",
		"tracker":  "ok",
		"calendar": "ok",
	}, observer.samples)
}
