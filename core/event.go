package core

import (
	"time"

	"github.com/google/uuid"
)

// EventType categorizes agent progress notifications.
type EventType string

const (
	// EventThinking is emitted before the first model query of a run.
	EventThinking EventType = "thinking"
	// EventToolCall is emitted before a tool handler is dispatched.
	EventToolCall EventType = "tool_call"
	// EventToolResult is emitted after a tool handler resolves.
	EventToolResult EventType = "tool_result"
	// EventResponse is emitted for a tool-free assistant response.
	EventResponse EventType = "response"
	// EventError is emitted on tool, transport, or stage failure.
	EventError EventType = "error"
	// EventComplete is emitted when a run finishes successfully.
	EventComplete EventType = "complete"
)

// AgentEvent is a write-once progress notification fanned out to observers.
// Events are purely observational; control flow never reads them back.
type AgentEvent struct {
	ID        string         `json:"id"`
	Type      EventType      `json:"type"`
	Agent     string         `json:"agent"`
	Message   string         `json:"message"`
	Data      map[string]any `json:"data,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}

// NewEvent constructs an event authored by the named agent.
func NewEvent(typ EventType, agent, message string) AgentEvent {
	return AgentEvent{
		ID:        NewID(),
		Type:      typ,
		Agent:     agent,
		Message:   message,
		Timestamp: time.Now().UTC(),
	}
}

// WithData returns a copy of the event carrying the given payload.
func (e AgentEvent) WithData(data map[string]any) AgentEvent {
	e.Data = data
	return e
}

// NewID generates a unique identifier for events and runs.
func NewID() string { return uuid.NewString() }
