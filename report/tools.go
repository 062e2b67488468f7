package report

import (
	"fmt"

	"github.com/websines/meetingscribe/analysis"
	"github.com/websines/meetingscribe/calendar"
	"github.com/websines/meetingscribe/core"
	"github.com/websines/meetingscribe/tool"
)

// Tools returns the report tool set backed by the given store.
func Tools(store Store) []tool.Tool {
	generateReport := tool.NewFunctionTool(
		"generate_report",
		"Render the Excel meeting report from the fetched meetings, including analysis sheets when analyses are available, and store it for download.",
		map[string]any{
			"type":       "object",
			"properties": map[string]any{},
		},
		func(tc *tool.Context, args map[string]any) (any, error) {
			meetings, err := calendar.MeetingsFromState(tc)
			if err != nil {
				return nil, err
			}

			data := Data{Meetings: meetings}
			if v, ok := tc.GetState(core.KeyStartDate); ok {
				data.StartDate, _ = v.(string)
			}
			if v, ok := tc.GetState(core.KeyEndDate); ok {
				data.EndDate, _ = v.(string)
			}
			if v, ok := tc.GetState(core.KeyAnalysisResults); ok {
				data.Analyses, _ = v.([]analysis.MeetingAnalysis)
			}
			if v, ok := tc.GetState(core.KeyExecutiveSummary); ok {
				data.ExecutiveSummary, _ = v.(string)
			}

			raw, err := Build(data)
			if err != nil {
				return nil, fmt.Errorf("report build: %w", err)
			}

			artifact, err := store.Save(Filename(data.StartDate, data.EndDate), raw)
			if err != nil {
				return nil, fmt.Errorf("report save: %w", err)
			}

			url := store.URL(artifact)
			tc.SetState(core.KeyReportFilename, artifact.Filename)
			tc.SetState(core.KeyDownloadURL, url)

			return fmt.Sprintf("Report %s generated (%d meetings, %d bytes). Download: %s",
				artifact.Filename, len(meetings), artifact.Size, url), nil
		},
	)

	return []tool.Tool{generateReport}
}
