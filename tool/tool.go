// Package tool implements the function calling subsystem that lets agents
// invoke structured capabilities (APIs, computations, side effects) with
// schema described arguments and consistent error handling.
package tool

import (
	"context"
	"fmt"

	"github.com/websines/meetingscribe/core"
	"github.com/websines/meetingscribe/internal/util"
	"github.com/websines/meetingscribe/logging"
)

// Tool defines the interface for extending agent capabilities with external
// functions. A Tool bundles its declaration (name, description, parameter
// schema) with exactly one handler, so a registered tool can never be missing
// its implementation.
//
// Tool implementations should:
//   - Provide clear, descriptive names (snake_case recommended)
//   - Define a proper JSON schema for parameters
//   - Be safe for concurrent use: calls within a batch may run in parallel
type Tool interface {
	// Name returns the unique identifier for this tool.
	Name() string

	// Description returns a human-readable description provided to the model.
	Description() string

	// Parameters returns a JSON schema describing the expected arguments.
	Parameters() map[string]any

	// Call executes the tool with parsed arguments and an invocation Context.
	Call(toolCtx *Context, args map[string]any) (any, error)
}

// Context is the constrained surface a tool handler sees: the ambient
// cancellation context, the originating call id, and the owning agent's local
// context bag for publishing produced artifacts.
type Context struct {
	ctx    context.Context
	callID string
	agent  string
	state  *core.Context
	logger logging.Logger
}

// NewContext constructs a tool invocation context.
func NewContext(ctx context.Context, callID, agent string, state *core.Context, logger logging.Logger) *Context {
	return &Context{
		ctx:    ctx,
		callID: callID,
		agent:  agent,
		state:  state,
		logger: logging.OrNoOp(logger),
	}
}

// Context returns the ambient cancellation context.
func (tc *Context) Context() context.Context { return tc.ctx }

// CallID returns the tool call id this invocation answers.
func (tc *Context) CallID() string { return tc.callID }

// AgentName returns the owning agent's name.
func (tc *Context) AgentName() string { return tc.agent }

// Logger returns the logger bound to this invocation.
func (tc *Context) Logger() logging.Logger { return tc.logger }

// GetState reads a key from the agent's local context.
func (tc *Context) GetState(key string) (any, bool) { return tc.state.Get(key) }

// SetState publishes a produced artifact into the agent's local context.
func (tc *Context) SetState(key string, value any) { tc.state.Set(key, value) }

// ValidationError represents parameter validation errors with detailed information.
type ValidationError = util.ValidationError

// Error represents failures that occur during tool execution.
type Error struct {
	Tool    string `json:"tool"`              // Name of the tool that failed
	Message string `json:"message"`           // Error message
	Code    string `json:"code"`              // Error code for categorization
	Details any    `json:"details,omitempty"` // Additional error details
}

func (e *Error) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("tool error [%s] in %s: %s", e.Code, e.Tool, e.Message)
	}
	return fmt.Sprintf("tool error in %s: %s", e.Tool, e.Message)
}

// NewError creates a new tool Error with the specified details.
func NewError(tool, message, code string) *Error {
	return &Error{Tool: tool, Message: message, Code: code}
}
