package agent

import "github.com/websines/meetingscribe/core"

// Provider supplies dynamic instruction text at runtime. Implementations can
// derive the prompt from the agent's local context.
type Provider interface {
	Instruction(state *core.Context) (string, error)
}

// Func is a functional adapter to allow ordinary functions to be used as Providers.
type Func func(state *core.Context) (string, error)

// Instruction implements Provider.
func (f Func) Instruction(state *core.Context) (string, error) { return f(state) }

// Instruction represents either a static instruction string or a dynamic provider.
type Instruction struct {
	text     string
	provider Provider
}

// NewInstructionFromText creates an Instruction from a static string.
func NewInstructionFromText(text string) Instruction { return Instruction{text: text} }

// NewInstructionFromProvider creates an Instruction from a dynamic provider.
func NewInstructionFromProvider(p Provider) Instruction { return Instruction{provider: p} }

// NewInstructionFromFunc creates an Instruction from a function.
func NewInstructionFromFunc(f func(state *core.Context) (string, error)) Instruction {
	return Instruction{provider: Func(f)}
}

// IsStatic returns true if the instruction is backed by a static string.
func (i Instruction) IsStatic() bool { return i.provider == nil }

// Resolve returns the instruction text, invoking the provider if needed.
func (i Instruction) Resolve(state *core.Context) (string, error) {
	if i.provider != nil {
		return i.provider.Instruction(state)
	}
	return i.text, nil
}
