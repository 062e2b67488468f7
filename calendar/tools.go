package calendar

import (
	"fmt"
	"time"

	"github.com/websines/meetingscribe/core"
	"github.com/websines/meetingscribe/tool"
)

const dateLayout = "2006-01-02"

// Tools builds the acquisition agent's capability list over a MeetingSource.
func Tools(source MeetingSource) []tool.Tool {
	return []tool.Tool{
		fetchMeetingsTool(source),
		filterByOrganizerTool(),
		meetingStatsTool(),
	}
}

func fetchMeetingsTool(source MeetingSource) tool.Tool {
	return tool.NewFunctionTool(
		"fetch_meetings",
		"Fetch calendar meetings within an inclusive date range, optionally filtered by organizer.",
		map[string]any{
			"type": "object",
			"properties": map[string]any{
				"start_date": map[string]any{"type": "string", "description": "Range start, YYYY-MM-DD"},
				"end_date":   map[string]any{"type": "string", "description": "Range end, YYYY-MM-DD"},
				"organizer":  map[string]any{"type": "string", "description": "Optional organizer name or email filter"},
			},
			"required": []string{"start_date", "end_date"},
		},
		func(tc *tool.Context, args map[string]any) (any, error) {
			startArg, _ := args["start_date"].(string)
			endArg, _ := args["end_date"].(string)

			start, err := time.Parse(dateLayout, startArg)
			if err != nil {
				return nil, fmt.Errorf("invalid start_date %q: %w", startArg, err)
			}
			end, err := time.Parse(dateLayout, endArg)
			if err != nil {
				return nil, fmt.Errorf("invalid end_date %q: %w", endArg, err)
			}
			if end.Before(start) {
				return nil, fmt.Errorf("end_date %s precedes start_date %s", endArg, startArg)
			}

			// The range end is inclusive: extend to the end of that day.
			meetings, err := source.FetchMeetings(tc.Context(), start, end.Add(24*time.Hour-time.Second))
			if err != nil {
				return nil, fmt.Errorf("failed to fetch meetings: %w", err)
			}

			if organizer, _ := args["organizer"].(string); organizer != "" {
				meetings = FilterByOrganizer(meetings, organizer)
			}

			tc.SetState(core.KeyMeetings, meetings)
			tc.SetState(core.KeyStartDate, startArg)
			tc.SetState(core.KeyEndDate, endArg)

			return map[string]any{
				"count":      len(meetings),
				"start_date": startArg,
				"end_date":   endArg,
			}, nil
		},
	)
}

func filterByOrganizerTool() tool.Tool {
	return tool.NewFunctionTool(
		"filter_meetings_by_organizer",
		"Narrow the already fetched meetings to those organized by the given person.",
		map[string]any{
			"type": "object",
			"properties": map[string]any{
				"organizer": map[string]any{"type": "string", "description": "Organizer name or email"},
			},
			"required": []string{"organizer"},
		},
		func(tc *tool.Context, args map[string]any) (any, error) {
			meetings, err := MeetingsFromState(tc)
			if err != nil {
				return nil, err
			}

			organizer, _ := args["organizer"].(string)
			filtered := FilterByOrganizer(meetings, organizer)
			tc.SetState(core.KeyMeetings, filtered)

			return map[string]any{"count": len(filtered), "organizer": organizer}, nil
		},
	)
}

func meetingStatsTool() tool.Tool {
	return tool.NewFunctionTool(
		"get_meeting_stats",
		"Compute aggregate statistics (counts, durations, busiest day) over the fetched meetings.",
		map[string]any{"type": "object", "properties": map[string]any{}},
		func(tc *tool.Context, _ map[string]any) (any, error) {
			meetings, err := MeetingsFromState(tc)
			if err != nil {
				return nil, err
			}
			return ComputeStats(meetings), nil
		},
	)
}

// MeetingsFromState reads the fetched meeting set out of the agent context.
func MeetingsFromState(tc *tool.Context) ([]Meeting, error) {
	v, ok := tc.GetState(core.KeyMeetings)
	if !ok {
		return nil, fmt.Errorf("no meetings fetched yet; call fetch_meetings first")
	}
	meetings, ok := v.([]Meeting)
	if !ok {
		return nil, fmt.Errorf("unexpected meetings value of type %T", v)
	}
	return meetings, nil
}
