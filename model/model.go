package model

import (
	"context"
	"fmt"
	"sync"

	"github.com/websines/meetingscribe/core"
)

// ToolDefinition declaratively exposes a callable function to the model.
type ToolDefinition struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"` // JSON Schema
}

// Request captures one model query: the full conversation history plus the
// advertised tool surface.
type Request struct {
	Messages []core.Message   `json:"messages"`
	Tools    []ToolDefinition `json:"tools,omitempty"`
}

// TokenUsage captures token usage statistics for a response.
type TokenUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Response is one complete assistant turn.
type Response struct {
	Content   string          `json:"content"`
	ToolCalls []core.ToolCall `json:"tool_calls,omitempty"`
	Usage     *TokenUsage     `json:"usage,omitempty"`
}

// Info contains metadata about a model implementation.
type Info struct {
	Name          string `json:"name"`
	Provider      string `json:"provider"` // "openai", "anthropic", "scripted", ...
	SupportsTools bool   `json:"supports_tools"`
}

// Model is the minimal interface required to drive an agent run.
type Model interface {
	// Complete performs one model round-trip over the full conversation.
	Complete(ctx context.Context, req Request) (*Response, error)

	// Info returns information about the model implementation.
	Info() Info
}

// ScriptedModel replays a fixed sequence of turns and is the test double used
// throughout the pipeline tests: the agent loop can be exercised without a
// real endpoint.
type ScriptedModel struct {
	mu    sync.Mutex
	turns []scriptedTurn
	calls int
}

type scriptedTurn struct {
	resp *Response
	err  error
}

// NewScriptedModel constructs an empty scripted model.
func NewScriptedModel() *ScriptedModel {
	return &ScriptedModel{}
}

// AddTurn enqueues an assistant turn to be replayed in order.
func (m *ScriptedModel) AddTurn(content string, calls ...core.ToolCall) *ScriptedModel {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.turns = append(m.turns, scriptedTurn{resp: &Response{Content: content, ToolCalls: calls}})
	return m
}

// AddError enqueues a transport-level failure.
func (m *ScriptedModel) AddError(err error) *ScriptedModel {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.turns = append(m.turns, scriptedTurn{err: err})
	return m
}

// Calls reports how many times Complete has been invoked.
func (m *ScriptedModel) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// Complete implements Model. The last scripted turn is repeated once the
// script is exhausted, so iteration-cap tests can script a single tool turn.
func (m *ScriptedModel) Complete(ctx context.Context, _ Request) (*Response, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.turns) == 0 {
		return nil, fmt.Errorf("scripted model has no turns")
	}

	idx := m.calls
	if idx >= len(m.turns) {
		idx = len(m.turns) - 1
	}
	m.calls++

	turn := m.turns[idx]
	if turn.err != nil {
		return nil, turn.err
	}

	resp := *turn.resp
	return &resp, nil
}

// Info implements Model.
func (m *ScriptedModel) Info() Info {
	return Info{Name: "scripted", Provider: "scripted", SupportsTools: true}
}
