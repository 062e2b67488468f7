package core

import (
	"fmt"
	"sync"
)

// Role identifies the author of a conversation message.
type Role string

const (
	// RoleSystem marks the standing instruction installed at agent construction.
	RoleSystem Role = "system"
	// RoleUser marks an instruction supplied by the caller.
	RoleUser Role = "user"
	// RoleAssistant marks a model response, optionally carrying tool calls.
	RoleAssistant Role = "assistant"
	// RoleTool marks the serialized outcome of a single tool call.
	RoleTool Role = "tool"
)

// ToolCall is a tool invocation request surfaced by a model response. The ID
// correlates the request with the tool message that eventually answers it.
type ToolCall struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Arguments string `json:"arguments"` // serialized JSON argument payload
}

// Message is one entry in an agent's conversation log. Messages are never
// mutated after insertion; the log only grows until it is reset wholesale.
type Message struct {
	Role       Role       `json:"role"`
	Content    string     `json:"content,omitempty"`
	ToolCalls  []ToolCall `json:"tool_calls,omitempty"`
	ToolCallID string     `json:"tool_call_id,omitempty"` // set on RoleTool messages only
}

// NewSystemMessage creates the standing system instruction message.
func NewSystemMessage(text string) Message {
	return Message{Role: RoleSystem, Content: text}
}

// NewUserMessage creates a caller-authored instruction message.
func NewUserMessage(text string) Message {
	return Message{Role: RoleUser, Content: text}
}

// NewAssistantMessage creates a model response message with optional tool calls.
func NewAssistantMessage(text string, calls []ToolCall) Message {
	return Message{Role: RoleAssistant, Content: text, ToolCalls: calls}
}

// NewToolMessage records the outcome of the tool call identified by callID.
func NewToolMessage(callID, content string) Message {
	return Message{Role: RoleTool, Content: content, ToolCallID: callID}
}

// Conversation is the ordered message log retained per agent instance. It
// starts with a single system message and enforces the tool-message invariant:
// every tool message must answer a tool call emitted by a preceding assistant
// message. Safe for concurrent access.
type Conversation struct {
	mu       sync.RWMutex
	system   Message
	messages []Message
	pending  map[string]int // tool call id -> results still awaited
}

// NewConversation creates a conversation seeded with the system instruction.
func NewConversation(systemPrompt string) *Conversation {
	c := &Conversation{system: NewSystemMessage(systemPrompt)}
	c.reset()
	return c
}

func (c *Conversation) reset() {
	c.messages = []Message{c.system}
	c.pending = map[string]int{}
}

// SetSystem replaces the standing system instruction. The new text applies to
// the seeded first message and to subsequent resets.
func (c *Conversation) SetSystem(text string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.system = NewSystemMessage(text)
	c.messages[0] = c.system
}

// Append adds a message to the log. Tool messages referencing an unknown or
// already-answered call id are rejected; assistant tool calls register their
// ids as awaiting results. Duplicate ids within one batch are counted, so each
// of their results is still accepted exactly once.
func (c *Conversation) Append(msg Message) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if msg.Role == RoleTool {
		if c.pending[msg.ToolCallID] == 0 {
			return fmt.Errorf("tool message references unknown call id %q", msg.ToolCallID)
		}
		c.pending[msg.ToolCallID]--
		if c.pending[msg.ToolCallID] == 0 {
			delete(c.pending, msg.ToolCallID)
		}
	}

	for _, tc := range msg.ToolCalls {
		c.pending[tc.ID]++
	}

	c.messages = append(c.messages, msg)

	return nil
}

// Messages returns a defensive copy of the full log in insertion order.
func (c *Conversation) Messages() []Message {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]Message, len(c.messages))
	copy(out, c.messages)
	return out
}

// Len returns the number of messages currently in the log.
func (c *Conversation) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.messages)
}

// Reset clears the log back to only the system message. Individual messages
// are never pruned; clearing is always wholesale.
func (c *Conversation) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.reset()
}
