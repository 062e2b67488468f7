package calendar

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/websines/meetingscribe/core"
	"github.com/websines/meetingscribe/logging"
	"github.com/websines/meetingscribe/tool"
)

type fakeSource struct {
	meetings []Meeting
	err      error

	gotStart, gotEnd time.Time
}

func (f *fakeSource) FetchMeetings(_ context.Context, start, end time.Time) ([]Meeting, error) {
	f.gotStart, f.gotEnd = start, end
	return f.meetings, f.err
}

func day(d string, hour, minutes int) time.Time {
	t, _ := time.Parse("2006-01-02", d)
	return t.Add(time.Duration(hour)*time.Hour + time.Duration(minutes)*time.Minute)
}

func sampleMeetings() []Meeting {
	return []Meeting{
		{ID: "1", Subject: "Standup", Organizer: "alice@example.com", Start: day("2024-03-04", 9, 0), End: day("2024-03-04", 9, 15)},
		{ID: "2", Subject: "Planning", Organizer: "bob@example.com", Start: day("2024-03-04", 10, 0), End: day("2024-03-04", 11, 0)},
		{ID: "3", Subject: "1:1", Organizer: "Alice Smith", Start: day("2024-03-05", 14, 0), End: day("2024-03-05", 14, 30)},
	}
}

func newToolContext(state *core.Context) *tool.Context {
	return tool.NewContext(context.Background(), "c1", "calendar", state, logging.NoOpLogger{})
}

func TestFilterByOrganizer(t *testing.T) {
	meetings := sampleMeetings()

	assert.Len(t, FilterByOrganizer(meetings, "alice"), 2)
	assert.Len(t, FilterByOrganizer(meetings, "bob@example.com"), 1)
	assert.Empty(t, FilterByOrganizer(meetings, "carol"))
	assert.Len(t, FilterByOrganizer(meetings, ""), 3)
}

func TestComputeStats(t *testing.T) {
	stats := ComputeStats(sampleMeetings())

	assert.Equal(t, 3, stats.Total)
	assert.Equal(t, 105, stats.TotalMinutes)
	assert.Equal(t, 35, stats.AverageLength)
	assert.Equal(t, "2024-03-04", stats.BusiestDay)
	assert.Equal(t, 2, stats.ByOrganizer["alice@example.com"]+stats.ByOrganizer["Alice Smith"])
}

func TestComputeStatsEmpty(t *testing.T) {
	stats := ComputeStats(nil)
	assert.Zero(t, stats.Total)
	assert.Zero(t, stats.TotalMinutes)
}

func TestFetchMeetingsToolStoresState(t *testing.T) {
	src := &fakeSource{meetings: sampleMeetings()}
	state := core.NewContext()

	reg := tool.MustNewRegistry(Tools(src)...)
	result, err := reg.Invoke(newToolContext(state), "fetch_meetings", map[string]any{
		"start_date": "2024-03-01",
		"end_date":   "2024-03-31",
	})
	require.NoError(t, err)

	summary := result.(map[string]any)
	assert.Equal(t, 3, summary["count"])

	v, ok := state.Get(core.KeyMeetings)
	require.True(t, ok)
	assert.Len(t, v.([]Meeting), 3)

	startDate, _ := state.GetString(core.KeyStartDate)
	assert.Equal(t, "2024-03-01", startDate)

	// The inclusive end date extends to the end of that day.
	assert.Equal(t, "2024-03-31", src.gotEnd.Format("2006-01-02"))
	assert.Equal(t, 23, src.gotEnd.Hour())
}

func TestFetchMeetingsToolWithOrganizerFilter(t *testing.T) {
	src := &fakeSource{meetings: sampleMeetings()}
	state := core.NewContext()

	reg := tool.MustNewRegistry(Tools(src)...)
	result, err := reg.Invoke(newToolContext(state), "fetch_meetings", map[string]any{
		"start_date": "2024-03-01",
		"end_date":   "2024-03-31",
		"organizer":  "bob",
	})
	require.NoError(t, err)
	assert.Equal(t, 1, result.(map[string]any)["count"])
}

func TestFetchMeetingsToolRejectsBadRange(t *testing.T) {
	reg := tool.MustNewRegistry(Tools(&fakeSource{})...)

	tests := []struct {
		name string
		args map[string]any
	}{
		{"bad start", map[string]any{"start_date": "soon", "end_date": "2024-03-31"}},
		{"bad end", map[string]any{"start_date": "2024-03-01", "end_date": "later"}},
		{"inverted", map[string]any{"start_date": "2024-03-31", "end_date": "2024-03-01"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := reg.Invoke(newToolContext(core.NewContext()), "fetch_meetings", tt.args)
			assert.Error(t, err)
		})
	}
}

func TestFetchMeetingsToolPropagatesSourceError(t *testing.T) {
	src := &fakeSource{err: errors.New("calendar unavailable")}
	reg := tool.MustNewRegistry(Tools(src)...)

	_, err := reg.Invoke(newToolContext(core.NewContext()), "fetch_meetings", map[string]any{
		"start_date": "2024-03-01",
		"end_date":   "2024-03-31",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "calendar unavailable")
}

func TestFilterToolRequiresFetchedMeetings(t *testing.T) {
	reg := tool.MustNewRegistry(Tools(&fakeSource{})...)

	_, err := reg.Invoke(newToolContext(core.NewContext()), "filter_meetings_by_organizer", map[string]any{
		"organizer": "alice",
	})
	assert.Error(t, err)
}

func TestStatsToolReadsState(t *testing.T) {
	state := core.NewContext()
	state.Set(core.KeyMeetings, sampleMeetings())

	reg := tool.MustNewRegistry(Tools(&fakeSource{})...)
	result, err := reg.Invoke(newToolContext(state), "get_meeting_stats", map[string]any{})
	require.NoError(t, err)

	stats := result.(Stats)
	assert.Equal(t, 3, stats.Total)
}

func TestMeetingDuration(t *testing.T) {
	m := Meeting{Start: day("2024-03-04", 9, 0), End: day("2024-03-04", 10, 30)}
	assert.Equal(t, 90*time.Minute, m.Duration())
}
