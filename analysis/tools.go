package analysis

import (
	"fmt"
	"time"

	"github.com/websines/meetingscribe/calendar"
	"github.com/websines/meetingscribe/core"
	"github.com/websines/meetingscribe/tool"
)

// ToolsOptions configure the analysis tool set.
type ToolsOptions struct {
	// Throttle is a courtesy delay inserted between per-meeting model calls.
	// Zero disables it.
	Throttle time.Duration
}

// Tools returns the analysis tool set backed by the given analyzer.
func Tools(analyzer *Analyzer, optFns ...func(o *ToolsOptions)) []tool.Tool {
	opts := ToolsOptions{}
	for _, fn := range optFns {
		fn(&opts)
	}

	analyzeMeetings := tool.NewFunctionTool(
		"analyze_meetings",
		"Analyze the fetched meetings one by one: summary, category, action items and key topics. Stores the results for report generation.",
		map[string]any{
			"type":       "object",
			"properties": map[string]any{},
		},
		func(tc *tool.Context, args map[string]any) (any, error) {
			meetings, err := calendar.MeetingsFromState(tc)
			if err != nil {
				return nil, err
			}

			results := make([]MeetingAnalysis, 0, len(meetings))
			failed := 0

			for i, m := range meetings {
				if i > 0 && opts.Throttle > 0 {
					select {
					case <-tc.Context().Done():
						return nil, tc.Context().Err()
					case <-time.After(opts.Throttle):
					}
				}

				an, err := analyzer.Analyze(tc.Context(), m)
				if err != nil {
					tc.Logger().Warn("analysis.record_skipped", "meeting", m.ID, "error", err)
					failed++
					continue
				}
				results = append(results, an)
			}

			tc.SetState(core.KeyAnalysisResults, results)

			return fmt.Sprintf("Analyzed %d of %d meetings (%d failed).", len(results), len(meetings), failed), nil
		},
	)

	executiveSummary := tool.NewFunctionTool(
		"generate_executive_summary",
		"Write an executive summary of the analyzed period and store it for the report.",
		map[string]any{
			"type":       "object",
			"properties": map[string]any{},
		},
		func(tc *tool.Context, args map[string]any) (any, error) {
			meetings, err := calendar.MeetingsFromState(tc)
			if err != nil {
				return nil, err
			}
			analyses, err := AnalysesFromState(tc)
			if err != nil {
				return nil, err
			}

			summary, err := analyzer.Summarize(tc.Context(), meetings, analyses)
			if err != nil {
				return nil, err
			}

			tc.SetState(core.KeyExecutiveSummary, summary)

			return summary, nil
		},
	)

	return []tool.Tool{analyzeMeetings, executiveSummary}
}

// AnalysesFromState reads the stored analysis results. It fails when
// analyze_meetings has not run yet.
func AnalysesFromState(tc *tool.Context) ([]MeetingAnalysis, error) {
	v, ok := tc.GetState(core.KeyAnalysisResults)
	if !ok {
		return nil, fmt.Errorf("no analysis results available, run analyze_meetings first")
	}
	analyses, ok := v.([]MeetingAnalysis)
	if !ok {
		return nil, fmt.Errorf("unexpected analysis results type %T", v)
	}
	return analyses, nil
}
