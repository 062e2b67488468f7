package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/websines/meetingscribe/analysis"
	"github.com/websines/meetingscribe/calendar"
)

// Data is everything that can land in a workbook. Meetings is required;
// Analyses and ExecutiveSummary are optional and gate their sheets.
type Data struct {
	Meetings         []calendar.Meeting
	Analyses         []analysis.MeetingAnalysis
	ExecutiveSummary string
	StartDate        string // YYYY-MM-DD
	EndDate          string // YYYY-MM-DD
}

// Filename derives the workbook filename from the report range, falling back
// to the current date when the range is unknown.
func Filename(startDate, endDate string) string {
	if startDate == "" || endDate == "" {
		return fmt.Sprintf("meeting_report_%s.xlsx", time.Now().Format("20060102"))
	}
	return fmt.Sprintf(
		"meeting_report_%s_%s.xlsx",
		strings.ReplaceAll(startDate, "-", ""),
		strings.ReplaceAll(endDate, "-", ""),
	)
}

const (
	sheetMeetings = "Meetings"
	sheetAnalysis = "Analysis"
	sheetOverview = "Overview"
)

// Build renders the workbook and returns its raw bytes.
func Build(data Data) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	headerStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, fmt.Errorf("workbook style: %w", err)
	}

	f.SetSheetName("Sheet1", sheetMeetings)
	if err := writeMeetingsSheet(f, headerStyle, data.Meetings); err != nil {
		return nil, err
	}

	if len(data.Analyses) > 0 {
		if _, err := f.NewSheet(sheetAnalysis); err != nil {
			return nil, fmt.Errorf("workbook sheet %s: %w", sheetAnalysis, err)
		}
		if err := writeAnalysisSheet(f, headerStyle, data.Analyses); err != nil {
			return nil, err
		}
	}

	if _, err := f.NewSheet(sheetOverview); err != nil {
		return nil, fmt.Errorf("workbook sheet %s: %w", sheetOverview, err)
	}
	if err := writeOverviewSheet(f, headerStyle, data); err != nil {
		return nil, err
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("workbook serialize: %w", err)
	}
	return buf.Bytes(), nil
}

func writeMeetingsSheet(f *excelize.File, headerStyle int, meetings []calendar.Meeting) error {
	headers := []string{"Subject", "Date", "Start", "End", "Duration (min)", "Organizer", "Attendees", "Location"}
	if err := writeRow(f, sheetMeetings, 1, toAnySlice(headers)); err != nil {
		return err
	}
	if err := f.SetCellStyle(sheetMeetings, "A1", cellRef(len(headers), 1), headerStyle); err != nil {
		return err
	}

	for i, m := range meetings {
		attendees := make([]string, 0, len(m.Attendees))
		for _, att := range m.Attendees {
			attendees = append(attendees, att.Email)
		}
		row := []any{
			m.Subject,
			m.Start.Format("2006-01-02"),
			m.Start.Format("15:04"),
			m.End.Format("15:04"),
			int(m.Duration().Minutes()),
			m.Organizer,
			strings.Join(attendees, ", "),
			m.Location,
		}
		if err := writeRow(f, sheetMeetings, i+2, row); err != nil {
			return err
		}
	}

	if err := f.SetColWidth(sheetMeetings, "A", "A", 36); err != nil {
		return err
	}
	return f.SetColWidth(sheetMeetings, "F", "G", 28)
}

func writeAnalysisSheet(f *excelize.File, headerStyle int, analyses []analysis.MeetingAnalysis) error {
	headers := []string{"Meeting ID", "Summary", "Category", "Action Items", "Key Topics"}
	if err := writeRow(f, sheetAnalysis, 1, toAnySlice(headers)); err != nil {
		return err
	}
	if err := f.SetCellStyle(sheetAnalysis, "A1", cellRef(len(headers), 1), headerStyle); err != nil {
		return err
	}

	for i, an := range analyses {
		row := []any{
			an.MeetingID,
			an.Summary,
			string(an.Category),
			strings.Join(an.ActionItems, "; "),
			strings.Join(an.KeyTopics, "; "),
		}
		if err := writeRow(f, sheetAnalysis, i+2, row); err != nil {
			return err
		}
	}

	return f.SetColWidth(sheetAnalysis, "B", "B", 60)
}

func writeOverviewSheet(f *excelize.File, headerStyle int, data Data) error {
	stats := calendar.ComputeStats(data.Meetings)

	rows := [][]any{
		{"Report Range", fmt.Sprintf("%s to %s", data.StartDate, data.EndDate)},
		{"Total Meetings", stats.Total},
		{"Total Hours", fmt.Sprintf("%.1f", float64(stats.TotalMinutes)/60)},
		{"Average Length (min)", stats.AverageLength},
		{"Busiest Day", stats.BusiestDay},
	}
	for i, row := range rows {
		if err := writeRow(f, sheetOverview, i+1, row); err != nil {
			return err
		}
	}
	if err := f.SetCellStyle(sheetOverview, "A1", cellRef(1, len(rows)), headerStyle); err != nil {
		return err
	}

	if data.ExecutiveSummary != "" {
		summaryRow := len(rows) + 2
		if err := writeRow(f, sheetOverview, summaryRow, []any{"Executive Summary"}); err != nil {
			return err
		}
		if err := f.SetCellStyle(sheetOverview, cellRef(1, summaryRow), cellRef(1, summaryRow), headerStyle); err != nil {
			return err
		}
		if err := writeRow(f, sheetOverview, summaryRow+1, []any{data.ExecutiveSummary}); err != nil {
			return err
		}
	}

	if err := f.SetColWidth(sheetOverview, "A", "A", 24); err != nil {
		return err
	}
	return f.SetColWidth(sheetOverview, "B", "B", 80)
}

func writeRow(f *excelize.File, sheet string, row int, values []any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	return f.SetSheetRow(sheet, cell, &values)
}

func cellRef(col, row int) string {
	cell, _ := excelize.CoordinatesToCellName(col, row)
	return cell
}

func toAnySlice(ss []string) []any {
	out := make([]any, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}
