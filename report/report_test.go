package report

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/websines/meetingscribe/analysis"
	"github.com/websines/meetingscribe/calendar"
	"github.com/websines/meetingscribe/core"
	"github.com/websines/meetingscribe/tool"
)

func sampleMeetings() []calendar.Meeting {
	start := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	return []calendar.Meeting{
		{
			ID:        "m1",
			Subject:   "Sprint Planning",
			Start:     start,
			End:       start.Add(time.Hour),
			Organizer: "alice@example.com",
			Attendees: []calendar.Attendee{{Email: "bob@example.com"}},
		},
		{
			ID:        "m2",
			Subject:   "Design Review",
			Start:     start.Add(24 * time.Hour),
			End:       start.Add(24*time.Hour + 30*time.Minute),
			Organizer: "carol@example.com",
		},
	}
}

func TestBuildWorkbookSheets(t *testing.T) {
	raw, err := Build(Data{
		Meetings: sampleMeetings(),
		Analyses: []analysis.MeetingAnalysis{
			{MeetingID: "m1", Summary: "Planned the sprint.", Category: analysis.CategoryPlanning},
		},
		ExecutiveSummary: "A focused week.",
		StartDate:        "2026-03-01",
		EndDate:          "2026-03-07",
	})
	require.NoError(t, err)
	require.NotEmpty(t, raw)

	f, err := excelize.OpenReader(bytes.NewReader(raw))
	require.NoError(t, err)
	defer f.Close()

	assert.ElementsMatch(t, []string{"Meetings", "Analysis", "Overview"}, f.GetSheetList())

	subject, err := f.GetCellValue("Meetings", "A2")
	require.NoError(t, err)
	assert.Equal(t, "Sprint Planning", subject)

	category, err := f.GetCellValue("Analysis", "C2")
	require.NoError(t, err)
	assert.Equal(t, "planning", category)
}

func TestBuildWithoutAnalysesOmitsAnalysisSheet(t *testing.T) {
	raw, err := Build(Data{Meetings: sampleMeetings(), StartDate: "2026-03-01", EndDate: "2026-03-07"})
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(raw))
	require.NoError(t, err)
	defer f.Close()

	assert.NotContains(t, f.GetSheetList(), "Analysis")
}

func TestFilename(t *testing.T) {
	assert.Equal(t, "meeting_report_20260301_20260307.xlsx", Filename("2026-03-01", "2026-03-07"))
}

func TestMemoryStoreRoundTrip(t *testing.T) {
	store := NewMemoryStore()

	artifact, err := store.Save("report.xlsx", []byte("payload"))
	require.NoError(t, err)
	assert.NotEmpty(t, artifact.Handle)
	assert.Equal(t, 7, artifact.Size)

	data, meta, err := store.Get(artifact.Handle)
	require.NoError(t, err)
	assert.Equal(t, []byte("payload"), data)
	assert.Equal(t, "report.xlsx", meta.Filename)

	// Mutating the returned slice must not affect the stored copy.
	data[0] = 'X'
	again, _, err := store.Get(artifact.Handle)
	require.NoError(t, err)
	assert.Equal(t, []byte("payload"), again)

	require.NoError(t, store.Delete(artifact.Handle))
	_, _, err = store.Get(artifact.Handle)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStoreGetUnknownHandle(t *testing.T) {
	store := NewMemoryStore()
	_, _, err := store.Get("missing")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, store.Delete("missing"), ErrNotFound)
}

func TestMemoryStoreURL(t *testing.T) {
	store := NewMemoryStore(func(o *MemoryStoreOptions) {
		o.BaseURL = "https://files.example.com/reports"
	})

	artifact, err := store.Save("report.xlsx", []byte("x"))
	require.NoError(t, err)

	url := store.URL(artifact)
	assert.Contains(t, url, "https://files.example.com/reports/")
	assert.Contains(t, url, "/report.xlsx")
}

func TestGenerateReportToolPublishesHandles(t *testing.T) {
	store := NewMemoryStore()
	tools := Tools(store)

	state := core.NewContext()
	tc := tool.NewContext(context.Background(), "call-1", "report", state, nil)
	tc.SetState(core.KeyMeetings, sampleMeetings())
	tc.SetState(core.KeyStartDate, "2026-03-01")
	tc.SetState(core.KeyEndDate, "2026-03-07")

	out, err := tools[0].Call(tc, map[string]any{})
	require.NoError(t, err)
	assert.Contains(t, out.(string), "meeting_report_20260301_20260307.xlsx")

	filename, ok := state.Get(core.KeyReportFilename)
	require.True(t, ok)
	assert.Equal(t, "meeting_report_20260301_20260307.xlsx", filename)

	url, ok := state.Get(core.KeyDownloadURL)
	require.True(t, ok)
	assert.Contains(t, url.(string), "memory://reports/")

	artifacts, err := store.List()
	require.NoError(t, err)
	require.Len(t, artifacts, 1)
	assert.Positive(t, artifacts[0].Size)
}

func TestGenerateReportToolRequiresMeetings(t *testing.T) {
	tools := Tools(NewMemoryStore())
	tc := tool.NewContext(context.Background(), "call-1", "report", core.NewContext(), nil)

	_, err := tools[0].Call(tc, map[string]any{})
	require.Error(t, err)
}
