// Package orchestrator sequences the three report-pipeline agents
// (acquisition, analysis, report), threading a shared context between them
// and folding each agent's output into one aggregate result.
package orchestrator

import (
	"context"
	"fmt"
	"strings"

	"github.com/websines/meetingscribe/agent"
	"github.com/websines/meetingscribe/analysis"
	"github.com/websines/meetingscribe/bus"
	"github.com/websines/meetingscribe/calendar"
	"github.com/websines/meetingscribe/core"
	"github.com/websines/meetingscribe/logging"
)

// Options configure an Orchestrator.
type Options struct {
	// AnalysisEnabled gates Stage 2 regardless of per-request flags, e.g. when
	// no analysis model is configured. Defaults to true.
	AnalysisEnabled bool
	// Publisher receives orchestrator progress events.
	Publisher bus.Publisher
	// Logger defaults to NoOpLogger.
	Logger logging.Logger
}

// ReportRequest describes one report-generation request.
type ReportRequest struct {
	StartDate string // YYYY-MM-DD, inclusive
	EndDate   string // YYYY-MM-DD, inclusive
	Organizer string // optional organizer filter

	IncludeAnalysis         bool
	IncludeExecutiveSummary bool
}

// ReportResult is the aggregate outcome of one GenerateReport call. It
// distinguishes no-data, degraded (analysis skipped or failed) and fatal
// outcomes so callers can render an appropriate message without inspecting
// internals.
type ReportResult struct {
	Success          bool   `json:"success"`
	Message          string `json:"message"`
	Filename         string `json:"filename,omitempty"`
	DownloadURL      string `json:"downloadUrl,omitempty"`
	MeetingCount     int    `json:"meetingCount"`
	AnalysisDegraded bool   `json:"analysisDegraded,omitempty"`
	Error            string `json:"error,omitempty"`
}

// CommandResult pairs a free-text command outcome with the agent that handled
// it.
type CommandResult struct {
	Agent  string           `json:"agent"`
	Result *agent.RunResult `json:"result"`
}

const orchestratorName = "orchestrator"

// Orchestrator runs the fixed acquisition, analysis, report pipeline. Agents
// execute strictly sequentially within one request; the shared context has no
// concurrent writers.
type Orchestrator struct {
	acquisition *agent.Agent
	analysis    *agent.Agent
	report      *agent.Agent

	shared          *core.Context
	analysisEnabled bool
	publisher       bus.Publisher
	logger          logging.Logger
}

// New wires the three stage agents into an orchestrator.
func New(acquisition, analysisAgent, report *agent.Agent, optFns ...func(o *Options)) (*Orchestrator, error) {
	if acquisition == nil || analysisAgent == nil || report == nil {
		return nil, fmt.Errorf("orchestrator requires acquisition, analysis and report agents")
	}

	opts := Options{
		AnalysisEnabled: true,
		Publisher:       bus.NopPublisher{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Publisher == nil {
		opts.Publisher = bus.NopPublisher{}
	}

	return &Orchestrator{
		acquisition:     acquisition,
		analysis:        analysisAgent,
		report:          report,
		shared:          core.NewContext(),
		analysisEnabled: opts.AnalysisEnabled,
		publisher:       opts.Publisher,
		logger:          logging.OrNoOp(opts.Logger),
	}, nil
}

// SharedContext exposes the current shared bag, primarily for tests and the
// CLI progress output.
func (o *Orchestrator) SharedContext() *core.Context { return o.shared }

// GenerateReport runs the full pipeline for one request. Stage 1 and Stage 3
// failures are fatal; a Stage 2 failure degrades the report instead of
// aborting it.
func (o *Orchestrator) GenerateReport(ctx context.Context, req ReportRequest) *ReportResult {
	if req.StartDate == "" || req.EndDate == "" {
		return &ReportResult{
			Success: false,
			Message: "start and end dates are required",
			Error:   "invalid request: missing date range",
		}
	}

	o.shared = core.NewContext()

	// Per-request state starts clean: a previous request's meetings must not
	// leak into this run's shared bag through the stage folds.
	o.acquisition.Context().Reset()
	o.analysis.Context().Reset()
	o.report.Context().Reset()

	// Stage 1: acquisition. Fatal on failure.
	o.publishStage("acquisition: fetching meetings")
	res := o.runStage(ctx, o.acquisition, acquisitionInstruction(req))
	if !res.Success {
		o.publisher.Publish(core.NewEvent(core.EventError, orchestratorName, "acquisition failed: "+res.Error))
		return &ReportResult{
			Success: false,
			Message: "failed to fetch meetings",
			Error:   res.Error,
		}
	}

	meetings := o.sharedMeetings()
	if len(meetings) == 0 {
		o.logger.Info("orchestrator.no_data", "start", req.StartDate, "end", req.EndDate)
		return &ReportResult{
			Success: false,
			Message: fmt.Sprintf("no meetings found between %s and %s", req.StartDate, req.EndDate),
		}
	}

	// Stage 2: analysis. Optional and non-fatal; the report degrades to raw
	// meeting data when this stage is skipped or fails.
	degraded := false
	if req.IncludeAnalysis && !o.analysisEnabled {
		degraded = true
		o.logger.Info("orchestrator.analysis_disabled")
	}
	if req.IncludeAnalysis && o.analysisEnabled {
		o.publishStage(fmt.Sprintf("analysis: processing %d meetings", len(meetings)))
		res = o.runStage(ctx, o.analysis, "Analyze every fetched meeting with the analyze_meetings tool, then confirm how many were analyzed.")
		if !res.Success {
			degraded = true
			o.logger.Warn("orchestrator.analysis_failed", "error", res.Error)
			o.publisher.Publish(core.NewEvent(core.EventError, orchestratorName, "analysis failed, continuing without insights: "+res.Error))
		} else if o.sharedAnalysisCount() == 0 {
			// Every record was skipped; the report falls back to raw data.
			degraded = true
			o.logger.Warn("orchestrator.analysis_empty")
		} else if req.IncludeExecutiveSummary {
			res = o.runStage(ctx, o.analysis, "Now write an executive summary of the analyzed period with the generate_executive_summary tool.")
			if !res.Success {
				degraded = true
				o.logger.Warn("orchestrator.summary_failed", "error", res.Error)
				o.publisher.Publish(core.NewEvent(core.EventError, orchestratorName, "executive summary failed, continuing without it: "+res.Error))
			}
		}
	}

	// Stage 3: report assembly. Fatal on failure.
	o.publishStage("report: assembling workbook")
	res = o.runStage(ctx, o.report, "Generate the Excel meeting report with the generate_report tool and reply with the filename and download link.")
	if !res.Success {
		o.publisher.Publish(core.NewEvent(core.EventError, orchestratorName, "report assembly failed: "+res.Error))
		return &ReportResult{
			Success:      false,
			Message:      "failed to assemble report",
			MeetingCount: len(meetings),
			Error:        res.Error,
		}
	}

	filename, _ := o.shared.GetString(core.KeyReportFilename)
	downloadURL, _ := o.shared.GetString(core.KeyDownloadURL)

	message := fmt.Sprintf("Report covering %d meetings generated: %s", len(meetings), filename)
	if degraded {
		message += " (analysis unavailable, report contains raw meeting data only)"
	}

	o.publisher.Publish(core.NewEvent(core.EventComplete, orchestratorName, message))

	return &ReportResult{
		Success:          true,
		Message:          message,
		Filename:         filename,
		DownloadURL:      downloadURL,
		MeetingCount:     len(meetings),
		AnalysisDegraded: degraded,
	}
}

// RunCommand routes a free-text command to the stage agent whose domain
// keywords appear first, defaulting to acquisition. Best-effort routing: an
// ambiguous command resolves to the first matching branch.
func (o *Orchestrator) RunCommand(ctx context.Context, text string) *CommandResult {
	target := o.routeCommand(text)
	target.Context().Merge(o.shared)

	o.logger.Debug("orchestrator.command", "agent", target.Name())
	res := target.Run(ctx, text)
	o.shared.Merge(target.Context())

	return &CommandResult{Agent: target.Name(), Result: res}
}

// Reset clears every agent's conversation and local context and empties the
// shared bag. Safe between unrelated requests.
func (o *Orchestrator) Reset() {
	o.acquisition.Reset()
	o.analysis.Reset()
	o.report.Reset()
	o.shared.Reset()
}

// runStage primes the agent with the shared context, runs the instruction and
// folds the agent's local context back, last writer wins per key.
func (o *Orchestrator) runStage(ctx context.Context, a *agent.Agent, instruction string) *agent.RunResult {
	a.Context().Merge(o.shared)
	res := a.Run(ctx, instruction)
	o.shared.Merge(a.Context())
	return res
}

func (o *Orchestrator) publishStage(message string) {
	o.logger.Info("orchestrator.stage", "message", message)
	o.publisher.Publish(core.NewEvent(core.EventThinking, orchestratorName, message))
}

func (o *Orchestrator) sharedAnalysisCount() int {
	v, ok := o.shared.Get(core.KeyAnalysisResults)
	if !ok {
		return 0
	}
	analyses, _ := v.([]analysis.MeetingAnalysis)
	return len(analyses)
}

func (o *Orchestrator) sharedMeetings() []calendar.Meeting {
	v, ok := o.shared.Get(core.KeyMeetings)
	if !ok {
		return nil
	}
	meetings, _ := v.([]calendar.Meeting)
	return meetings
}

func acquisitionInstruction(req ReportRequest) string {
	instruction := fmt.Sprintf(
		"Fetch all meetings from %s to %s with the fetch_meetings tool",
		req.StartDate, req.EndDate,
	)
	if req.Organizer != "" {
		instruction += fmt.Sprintf(", filtered to organizer %q", req.Organizer)
	}
	return instruction + ", then report how many were found."
}

var (
	acquisitionKeywords = []string{"fetch", "get", "retrieve", "calendar", "meetings", "schedule"}
	analysisKeywords    = []string{"analyze", "analysis", "summarize", "summary", "insight", "categorize"}
	reportKeywords      = []string{"report", "excel", "export", "spreadsheet", "xlsx", "download"}
)

// routeCommand picks the stage agent for a free-text command. Branches are
// checked in pipeline order; the first match wins.
func (o *Orchestrator) routeCommand(text string) *agent.Agent {
	lowered := strings.ToLower(text)

	if containsAny(lowered, acquisitionKeywords) {
		return o.acquisition
	}
	if containsAny(lowered, analysisKeywords) {
		return o.analysis
	}
	if containsAny(lowered, reportKeywords) {
		return o.report
	}
	return o.acquisition
}

func containsAny(s string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}
