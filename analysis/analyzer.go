// Package analysis implements the model-backed analysis capability: per
// meeting summaries with a fixed category taxonomy, and an executive summary
// over the whole range. Failures degrade rather than abort: a malformed model
// response yields a neutral default analysis for that record.
package analysis

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/websines/meetingscribe/calendar"
	"github.com/websines/meetingscribe/core"
	"github.com/websines/meetingscribe/logging"
	"github.com/websines/meetingscribe/model"
)

// Category classifies a meeting. The set is closed; anything the model
// invents outside of it maps to CategoryOther.
type Category string

const (
	// CategoryPlanning covers roadmap, sprint and project planning meetings.
	CategoryPlanning Category = "planning"
	// CategoryStatusUpdate covers standups and progress reviews.
	CategoryStatusUpdate Category = "status_update"
	// CategoryDecision covers meetings held to reach a decision.
	CategoryDecision Category = "decision_making"
	// CategoryOneOnOne covers two-person syncs.
	CategoryOneOnOne Category = "one_on_one"
	// CategorySocial covers team events and celebrations.
	CategorySocial Category = "social"
	// CategoryOther is the neutral default.
	CategoryOther Category = "other"
)

var validCategories = map[Category]bool{
	CategoryPlanning:     true,
	CategoryStatusUpdate: true,
	CategoryDecision:     true,
	CategoryOneOnOne:     true,
	CategorySocial:       true,
	CategoryOther:        true,
}

// normalizeCategory maps arbitrary model output onto the closed set.
func normalizeCategory(s string) Category {
	c := Category(strings.ToLower(strings.TrimSpace(s)))
	if validCategories[c] {
		return c
	}
	return CategoryOther
}

// MeetingAnalysis is the analysis outcome for one meeting.
type MeetingAnalysis struct {
	MeetingID   string   `json:"meetingId"`
	Summary     string   `json:"summary"`
	Category    Category `json:"category"`
	ActionItems []string `json:"actionItems"`
	KeyTopics   []string `json:"keyTopics"`
}

const summaryTruncateLen = 200

// DefaultAnalysis is the neutral substitute used when a model response cannot
// be interpreted: truncated raw text as summary, neutral category, no items.
func DefaultAnalysis(m calendar.Meeting) MeetingAnalysis {
	summary := m.Description
	if summary == "" {
		summary = m.Subject
	}
	if len(summary) > summaryTruncateLen {
		summary = summary[:summaryTruncateLen]
	}
	return MeetingAnalysis{
		MeetingID:   m.ID,
		Summary:     summary,
		Category:    CategoryOther,
		ActionItems: []string{},
		KeyTopics:   []string{},
	}
}

// Options configure an Analyzer.
type Options struct {
	Logger logging.Logger
}

// Analyzer derives per-meeting analyses and range-level summaries from a
// language model.
type Analyzer struct {
	llm    model.Model
	logger logging.Logger
}

// NewAnalyzer creates an Analyzer over the given model.
func NewAnalyzer(llm model.Model, optFns ...func(o *Options)) *Analyzer {
	opts := Options{}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Analyzer{llm: llm, logger: logging.OrNoOp(opts.Logger)}
}

const analyzeSystemPrompt = `You are a meeting analyst. Given one meeting, respond with a single JSON object:
{"summary": "...", "category": "planning|status_update|decision_making|one_on_one|social|other", "actionItems": ["..."], "keyTopics": ["..."]}
Respond with the JSON object only, no prose.`

// Analyze derives the analysis for one meeting. A transport error is returned
// to the caller; a response that cannot be parsed degrades to DefaultAnalysis.
func (a *Analyzer) Analyze(ctx context.Context, m calendar.Meeting) (MeetingAnalysis, error) {
	resp, err := a.llm.Complete(ctx, model.Request{Messages: []core.Message{
		core.NewSystemMessage(analyzeSystemPrompt),
		core.NewUserMessage(describeMeeting(m)),
	}})
	if err != nil {
		return MeetingAnalysis{}, fmt.Errorf("analysis failed for meeting %s: %w", m.ID, err)
	}

	parsed, ok := parseAnalysis(resp.Content)
	if !ok {
		a.logger.Warn("analysis.parse_failed", "meeting", m.ID)
		return DefaultAnalysis(m), nil
	}

	parsed.MeetingID = m.ID
	if parsed.ActionItems == nil {
		parsed.ActionItems = []string{}
	}
	if parsed.KeyTopics == nil {
		parsed.KeyTopics = []string{}
	}

	return parsed, nil
}

const summarizeSystemPrompt = `You are an executive assistant. Write a short executive summary (3-5 sentences) of the period's meetings: overall load, dominant themes, and outstanding action items. Respond with prose only.`

// Summarize produces an executive summary over the analyzed range.
func (a *Analyzer) Summarize(ctx context.Context, meetings []calendar.Meeting, analyses []MeetingAnalysis) (string, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "%d meetings in the period.\n\n", len(meetings))
	for _, an := range analyses {
		fmt.Fprintf(&b, "- [%s] %s", an.Category, an.Summary)
		if len(an.ActionItems) > 0 {
			fmt.Fprintf(&b, " (action items: %s)", strings.Join(an.ActionItems, "; "))
		}
		b.WriteString("\n")
	}

	resp, err := a.llm.Complete(ctx, model.Request{Messages: []core.Message{
		core.NewSystemMessage(summarizeSystemPrompt),
		core.NewUserMessage(b.String()),
	}})
	if err != nil {
		return "", fmt.Errorf("summarization failed: %w", err)
	}
	if strings.TrimSpace(resp.Content) == "" {
		return "", fmt.Errorf("summarization returned empty content")
	}

	return resp.Content, nil
}

func describeMeeting(m calendar.Meeting) string {
	var attendees []string
	for _, att := range m.Attendees {
		name := att.Email
		if att.DisplayName != "" {
			name = att.DisplayName
		}
		attendees = append(attendees, name)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Subject: %s\n", m.Subject)
	fmt.Fprintf(&b, "When: %s - %s\n", m.Start.Format("2006-01-02 15:04"), m.End.Format("15:04"))
	fmt.Fprintf(&b, "Organizer: %s\n", m.Organizer)
	if len(attendees) > 0 {
		fmt.Fprintf(&b, "Attendees: %s\n", strings.Join(attendees, ", "))
	}
	if m.Description != "" {
		fmt.Fprintf(&b, "Notes: %s\n", m.Description)
	}
	return b.String()
}

// parseAnalysis extracts the first JSON object from the response content,
// tolerating markdown fences and surrounding prose.
func parseAnalysis(content string) (MeetingAnalysis, bool) {
	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start < 0 || end <= start {
		return MeetingAnalysis{}, false
	}

	var parsed struct {
		Summary     string   `json:"summary"`
		Category    string   `json:"category"`
		ActionItems []string `json:"actionItems"`
		KeyTopics   []string `json:"keyTopics"`
	}
	if err := json.Unmarshal([]byte(content[start:end+1]), &parsed); err != nil {
		return MeetingAnalysis{}, false
	}
	if parsed.Summary == "" {
		return MeetingAnalysis{}, false
	}

	return MeetingAnalysis{
		Summary:     parsed.Summary,
		Category:    normalizeCategory(parsed.Category),
		ActionItems: parsed.ActionItems,
		KeyTopics:   parsed.KeyTopics,
	}, true
}
