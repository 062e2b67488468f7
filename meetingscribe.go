// Package meetingscribe provides a high-level façade over the meeting report
// pipeline: a data-acquisition agent backed by a calendar source, an optional
// analysis agent, and a report agent producing an Excel workbook. Most
// applications interact with this package by:
//  1. Creating a Scribe via New() with a model and a meeting source
//  2. Subscribing to the event stream for progress output (optional)
//  3. Calling GenerateReport for the full pipeline, or RunCommand for
//     free-text routing to a single stage agent
//
// All defaults are safe for local use; production deployments typically
// supply a durable report store and a structured logger.
package meetingscribe

import (
	"context"
	"fmt"
	"time"

	"github.com/websines/meetingscribe/agent"
	"github.com/websines/meetingscribe/analysis"
	"github.com/websines/meetingscribe/bus"
	"github.com/websines/meetingscribe/calendar"
	"github.com/websines/meetingscribe/core"
	"github.com/websines/meetingscribe/logging"
	"github.com/websines/meetingscribe/model"
	"github.com/websines/meetingscribe/orchestrator"
	"github.com/websines/meetingscribe/report"
)

// Options configure a Scribe instance.
type Options struct {
	// AnalysisModel drives per-meeting analysis and summarization. Defaults
	// to the pipeline model.
	AnalysisModel model.Model
	// AnalysisEnabled gates the analysis stage entirely, e.g. when no
	// analysis model is available. Defaults to true.
	AnalysisEnabled bool
	// AnalysisThrottle is the courtesy delay between per-meeting analysis
	// calls. Zero disables it.
	AnalysisThrottle time.Duration
	// Store persists generated workbooks. Defaults to an in-memory store.
	Store report.Store
	// MaxIterations caps model round-trips per agent run.
	MaxIterations int
	// Logger defaults to NoOpLogger.
	Logger logging.Logger
}

// Scribe aggregates the three stage agents, the orchestrator and the event
// bus behind a small surface.
type Scribe struct {
	orch   *orchestrator.Orchestrator
	events *bus.Bus
	store  report.Store
	logger logging.Logger
}

const (
	acquisitionPrompt = "You are the data acquisition agent. Fetch calendar meetings for the requested range with your tools and report what you found. Never invent meetings."
	analysisPrompt    = "You are the meeting analysis agent. Use your tools to analyze the fetched meetings and to write executive summaries when asked."
	reportPrompt      = "You are the report agent. Use your tools to assemble the Excel meeting report and reply with the filename and download link."
)

// New wires the default pipeline over the given model and meeting source.
func New(llm model.Model, source calendar.MeetingSource, optFns ...func(o *Options)) (*Scribe, error) {
	if llm == nil {
		return nil, fmt.Errorf("meetingscribe: model is required")
	}
	if source == nil {
		return nil, fmt.Errorf("meetingscribe: meeting source is required")
	}

	opts := Options{
		AnalysisModel:   llm,
		AnalysisEnabled: true,
		Store:           report.NewMemoryStore(),
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.AnalysisModel == nil {
		opts.AnalysisModel = llm
	}
	if opts.Store == nil {
		opts.Store = report.NewMemoryStore()
	}

	logger := logging.OrNoOp(opts.Logger)
	events := bus.New()

	analyzer := analysis.NewAnalyzer(opts.AnalysisModel, func(o *analysis.Options) {
		o.Logger = logger
	})

	acquisition, err := agent.New("acquisition", llm, func(o *agent.Options) {
		o.Instruction = agent.NewInstructionFromText(acquisitionPrompt)
		o.Tools = calendar.Tools(source)
		o.MaxIterations = opts.MaxIterations
		o.Publisher = events
		o.Logger = logger
	})
	if err != nil {
		return nil, err
	}

	analysisAgent, err := agent.New("analysis", llm, func(o *agent.Options) {
		o.Instruction = agent.NewInstructionFromText(analysisPrompt)
		o.Tools = analysis.Tools(analyzer, func(to *analysis.ToolsOptions) {
			to.Throttle = opts.AnalysisThrottle
		})
		o.MaxIterations = opts.MaxIterations
		o.Publisher = events
		o.Logger = logger
	})
	if err != nil {
		return nil, err
	}

	reportAgent, err := agent.New("report", llm, func(o *agent.Options) {
		o.Instruction = agent.NewInstructionFromText(reportPrompt)
		o.Tools = report.Tools(opts.Store)
		o.MaxIterations = opts.MaxIterations
		o.Publisher = events
		o.Logger = logger
	})
	if err != nil {
		return nil, err
	}

	orch, err := orchestrator.New(acquisition, analysisAgent, reportAgent, func(o *orchestrator.Options) {
		o.AnalysisEnabled = opts.AnalysisEnabled
		o.Publisher = events
		o.Logger = logger
	})
	if err != nil {
		return nil, err
	}

	return &Scribe{
		orch:   orch,
		events: events,
		store:  opts.Store,
		logger: logger,
	}, nil
}

// GenerateReport runs the full acquisition, analysis, report pipeline.
func (s *Scribe) GenerateReport(ctx context.Context, req orchestrator.ReportRequest) *orchestrator.ReportResult {
	return s.orch.GenerateReport(ctx, req)
}

// RunCommand routes a free-text command to a single stage agent.
func (s *Scribe) RunCommand(ctx context.Context, text string) *orchestrator.CommandResult {
	return s.orch.RunCommand(ctx, text)
}

// Subscribe registers an event stream consumer and returns the channel plus
// an unsubscribe function that closes it.
func (s *Scribe) Subscribe(id string) (<-chan core.AgentEvent, func()) {
	ch := s.events.Subscribe(id)
	return ch, func() { s.events.Unsubscribe(id) }
}

// Store exposes the artifact store, e.g. for writing a workbook to disk.
func (s *Scribe) Store() report.Store { return s.store }

// Reset clears all agent state and the shared context between unrelated
// requests.
func (s *Scribe) Reset() { s.orch.Reset() }
