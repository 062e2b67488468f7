package agent

import (
	"context"
	"strings"
	"sync"

	"github.com/websines/meetingscribe/bus"
	"github.com/websines/meetingscribe/core"
	"github.com/websines/meetingscribe/logging"
	"github.com/websines/meetingscribe/model"
	"github.com/websines/meetingscribe/tool"
)

// State tracks where a run currently is in its lifecycle.
type State int

const (
	// StateIdle means no run is in progress.
	StateIdle State = iota
	// StateAwaitingModel means a model query is in flight.
	StateAwaitingModel
	// StateDispatchingTools means a tool-call batch is executing.
	StateDispatchingTools
	// StateDone means the last run returned a tool-free response.
	StateDone
	// StateFailed means the last run hit a transport error or the iteration cap.
	StateFailed
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateAwaitingModel:
		return "awaiting_model"
	case StateDispatchingTools:
		return "dispatching_tools"
	case StateDone:
		return "done"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// RunResult is the terminal output of one Run invocation. Ownership passes to
// the caller; the agent does not mutate it afterwards.
type RunResult struct {
	Success bool           `json:"success"`
	Message string         `json:"message"`
	Data    map[string]any `json:"data,omitempty"`
	Error   string         `json:"error,omitempty"`
}

// Options configures an Agent instance.
type Options struct {
	// Instruction is the standing system prompt; static or provider-backed.
	Instruction Instruction
	// MaxIterations caps model round-trips per run.
	MaxIterations int
	// Tools is the agent's declared capability list.
	Tools []tool.Tool
	// MaxParallelTools bounds concurrent dispatch within one batch.
	// 0 means no explicit limit.
	MaxParallelTools int
	// Publisher receives progress events. Defaults to a no-op sink.
	Publisher bus.Publisher
	// Logger defaults to NoOpLogger.
	Logger logging.Logger
}

const defaultMaxIterations = 8

// Agent wraps one language-model endpoint together with a fixed tool set and
// private conversation and context state. An Agent is not safe for concurrent
// Run calls; the orchestrator runs agents strictly sequentially.
type Agent struct {
	name     string
	llm      model.Model
	registry *tool.Registry
	conv     *core.Conversation
	local    *core.Context

	instruction   Instruction
	maxIterations int
	executor      *batchExecutor
	publisher     bus.Publisher
	logger        logging.Logger

	mu    sync.Mutex
	state State
}

// New creates an agent with the given name and model. The tool set is
// validated at construction; a declaration error (duplicate or unnamed tool)
// fails fast here rather than at call time.
func New(name string, llm model.Model, optFns ...func(o *Options)) (*Agent, error) {
	opts := Options{
		Instruction:   NewInstructionFromText("You are " + name + ", a helpful assistant."),
		MaxIterations: defaultMaxIterations,
		Publisher:     bus.NopPublisher{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	registry, err := tool.NewRegistry(opts.Tools...)
	if err != nil {
		return nil, err
	}

	if opts.MaxIterations <= 0 {
		opts.MaxIterations = defaultMaxIterations
	}
	if opts.Publisher == nil {
		opts.Publisher = bus.NopPublisher{}
	}

	// Providers resolve against live state at the start of each run; only
	// static text is known here.
	systemPrompt := ""
	if opts.Instruction.IsStatic() {
		systemPrompt, _ = opts.Instruction.Resolve(nil)
	}

	return &Agent{
		name:          name,
		llm:           llm,
		registry:      registry,
		conv:          core.NewConversation(systemPrompt),
		local:         core.NewContext(),
		instruction:   opts.Instruction,
		maxIterations: opts.MaxIterations,
		executor:      &batchExecutor{maxParallel: opts.MaxParallelTools},
		publisher:     opts.Publisher,
		logger:        logging.OrNoOp(opts.Logger),
		state:         StateIdle,
	}, nil
}

// Name returns the agent's name.
func (a *Agent) Name() string { return a.name }

// State returns the current lifecycle state.
func (a *Agent) State() State {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state
}

func (a *Agent) setState(s State) {
	a.mu.Lock()
	a.state = s
	a.mu.Unlock()
}

// Context returns the agent's local context bag. The orchestrator primes it
// before a run and folds it into shared context afterwards.
func (a *Agent) Context() *core.Context { return a.local }

// Conversation exposes the message log, primarily for tests and debugging.
func (a *Agent) Conversation() *core.Conversation { return a.conv }

// Tools returns the declared tool names.
func (a *Agent) Tools() []string { return a.registry.Names() }

// Run executes one instruction to completion: the model is queried with the
// full conversation; requested tool calls are dispatched and their results fed
// back; the loop ends on a tool-free response or the iteration cap. Transport
// errors abort immediately and are not retried here.
func (a *Agent) Run(ctx context.Context, instruction string) *RunResult {
	if strings.TrimSpace(instruction) == "" {
		a.setState(StateFailed)
		return &RunResult{Success: false, Message: "instruction must not be empty", Error: "empty instruction"}
	}

	// Re-resolve the standing instruction against current local state, so
	// dynamic providers see what the orchestrator primed for this run.
	systemPrompt, err := a.instruction.Resolve(a.local)
	if err != nil {
		a.setState(StateFailed)
		return &RunResult{Success: false, Message: "failed to resolve instruction", Error: err.Error()}
	}
	a.conv.SetSystem(systemPrompt)

	if err := a.conv.Append(core.NewUserMessage(instruction)); err != nil {
		a.setState(StateFailed)
		return &RunResult{Success: false, Message: "failed to record instruction", Error: err.Error()}
	}

	a.logger.Debug("agent.run.start", "agent", a.name, "tools", len(a.registry.Names()))
	a.publisher.Publish(core.NewEvent(core.EventThinking, a.name, instruction))

	limiter := core.NewCallLimiter(a.maxIterations)
	defs := a.toolDefinitions()

	for {
		if err := limiter.Increment(); err != nil {
			a.logger.Warn("agent.run.iterations_exceeded", "agent", a.name, "max", a.maxIterations)
			a.publisher.Publish(core.NewEvent(core.EventError, a.name, "maximum iterations exceeded"))
			a.setState(StateFailed)

			return &RunResult{Success: false, Message: "maximum iterations exceeded", Error: "maximum iterations exceeded"}
		}

		a.setState(StateAwaitingModel)

		resp, err := a.llm.Complete(ctx, model.Request{Messages: a.conv.Messages(), Tools: defs})
		if err != nil {
			a.logger.Error("agent.model.error", "agent", a.name, "error", err.Error())
			a.publisher.Publish(core.NewEvent(core.EventError, a.name, err.Error()))
			a.setState(StateFailed)

			return &RunResult{Success: false, Message: "model request failed", Error: err.Error()}
		}

		if err := a.conv.Append(core.NewAssistantMessage(resp.Content, resp.ToolCalls)); err != nil {
			a.setState(StateFailed)
			return &RunResult{Success: false, Message: "failed to record model response", Error: err.Error()}
		}

		if len(resp.ToolCalls) == 0 {
			a.publisher.Publish(core.NewEvent(core.EventResponse, a.name, resp.Content))
			a.publisher.Publish(core.NewEvent(core.EventComplete, a.name, resp.Content))
			a.setState(StateDone)
			a.logger.Debug("agent.run.complete", "agent", a.name, "model_calls", limiter.Count())

			return &RunResult{Success: true, Message: resp.Content, Data: a.local.Snapshot()}
		}

		a.setState(StateDispatchingTools)

		env := executionEnv{
			agentName: a.name,
			registry:  a.registry,
			state:     a.local,
			publisher: a.publisher,
			logger:    a.logger,
		}
		results := a.executor.execute(ctx, env, resp.ToolCalls)

		// Results append in request order; the call id carries the correlation.
		for _, res := range results {
			if err := a.conv.Append(core.NewToolMessage(res.callID, res.content)); err != nil {
				a.setState(StateFailed)
				return &RunResult{Success: false, Message: "failed to record tool result", Error: err.Error()}
			}
		}
	}
}

// Reset clears conversation and local context back to the freshly constructed
// shape: only the system message remains. Safe to call between unrelated
// requests.
func (a *Agent) Reset() {
	a.conv.Reset()
	a.local.Reset()
	a.setState(StateIdle)
}

func (a *Agent) toolDefinitions() []model.ToolDefinition {
	names := a.registry.Names()
	defs := make([]model.ToolDefinition, 0, len(names))
	for _, name := range names {
		t, _ := a.registry.Get(name)
		defs = append(defs, model.ToolDefinition{
			Name:        t.Name(),
			Description: t.Description(),
			Parameters:  t.Parameters(),
		})
	}
	return defs
}
