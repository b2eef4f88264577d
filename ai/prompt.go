package ai

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"

	"github.com/sprintlens/sprintlens/summary"
)

// ErrNothingToSummarize signals that every section rendered empty; callers
// must not emit an empty prompt to the model.
var ErrNothingToSummarize = errors.New("nothing to summarize")

// systemInstruction is the fixed system message for summary generation.
const systemInstruction = `You are a helpful assistant that generates sprint summaries from team communications.
Focus on identifying key accomplishments, blockers, and next steps from the conversation.`

// rubric is the fixed four-category instruction appended after the sections.
const rubric = `Please analyze and summarize under these categories:

- Key Accomplishments
- Blockers & Issues
- Next Steps & Action Items
- Development Progress (PRs, commits, releases)

Please provide a comprehensive, actionable summary that would be useful for sprint planning and team coordination.`

// Section labels, in fixed order.
const (
	SectionChat     = "Chat Communications"
	SectionCode     = "Development Activity"
	SectionTracker  = "Tracker Activity"
	SectionCalendar = "Calendar"
)

// Section is one labeled block of the composed prompt.
type Section struct {
	Label string
	Body  string
}

// Prompt is the bounded text prompt built from a context bundle. It is never
// persisted.
type Prompt struct {
	System   string
	Sections []Section
}

// UserPrompt assembles the sections and the rubric into the user message.
func (p *Prompt) UserPrompt() string {
	var sb strings.Builder
	sb.WriteString("Here is data from our team's communication and development activities for this period.\n\n")
	for _, section := range p.Sections {
		fmt.Fprintf(&sb, "**%s:**\n%s\n\n", section.Label, section.Body)
	}
	sb.WriteString(rubric)
	return sb.String()
}

// Compose builds the prompt from a bundle. Section order is always Chat,
// Code, Tracker, Calendar; a section is included only if it has at least one
// renderable fact. Errored and absent sources render nothing.
func Compose(bundle *summary.ContextBundle) (*Prompt, error) {
	prompt := &Prompt{System: systemInstruction}

	if bundle.Chat.Populated() {
		if body := renderChat(bundle); body != "" {
			prompt.Sections = append(prompt.Sections, Section{Label: SectionChat, Body: body})
		}
	}
	if bundle.Code.Populated() && bundle.Code.Data != nil {
		if body := renderCode(bundle); body != "" {
			prompt.Sections = append(prompt.Sections, Section{Label: SectionCode, Body: body})
		}
	}
	if bundle.Tracker.Populated() && bundle.Tracker.Data != nil {
		if body := renderTracker(bundle); body != "" {
			prompt.Sections = append(prompt.Sections, Section{Label: SectionTracker, Body: body})
		}
	}
	if bundle.Calendar.Populated() && bundle.Calendar.Data != nil {
		if body := renderCalendar(bundle); body != "" {
			prompt.Sections = append(prompt.Sections, Section{Label: SectionCalendar, Body: body})
		}
	}

	if len(prompt.Sections) == 0 {
		return nil, ErrNothingToSummarize
	}
	return prompt, nil
}

// renderChat emits one bullet line per message body.
func renderChat(bundle *summary.ContextBundle) string {
	var lines []string
	for _, msg := range bundle.Chat.Data {
		if msg.Text == "" {
			continue
		}
		lines = append(lines, "- "+msg.Text)
	}
	return strings.Join(lines, "\n")
}

// renderCode emits labeled count lines; zero counts are omitted.
func renderCode(bundle *summary.ContextBundle) string {
	code := bundle.Code.Data
	var lines []string
	if n := len(code.PullRequests); n > 0 {
		lines = append(lines, fmt.Sprintf("Pull Requests: %d PRs", n))
	}
	if n := len(code.Issues); n > 0 {
		lines = append(lines, fmt.Sprintf("Issues: %d issues", n))
	}
	if n := len(code.Commits); n > 0 {
		lines = append(lines, fmt.Sprintf("Commits: %d commits", n))
	}
	return strings.Join(lines, "\n")
}

// renderTracker emits labeled count lines; zero counts are omitted.
func renderTracker(bundle *summary.ContextBundle) string {
	tracker := bundle.Tracker.Data
	var lines []string
	if n := len(tracker.Issues); n > 0 {
		lines = append(lines, fmt.Sprintf("Issues: %d issues", n))
	}
	if n := len(tracker.Sprints); n > 0 {
		lines = append(lines, fmt.Sprintf("Sprints: %d sprints", n))
	}
	return strings.Join(lines, "\n")
}

// renderCalendar emits one line per event plus a busy-slot count.
func renderCalendar(bundle *summary.ContextBundle) string {
	cal := bundle.Calendar.Data
	if len(cal.Events) == 0 && len(cal.Busy) == 0 {
		return ""
	}
	var lines []string
	for _, event := range cal.Events {
		lines = append(lines, fmt.Sprintf("%s (%s)", event.Summary, event.Start))
		if event.Description != "" {
			lines = append(lines, "  "+event.Description)
		}
	}
	lines = append(lines, fmt.Sprintf("Busy slots: %d", len(cal.Busy)))
	return strings.Join(lines, "\n")
}
