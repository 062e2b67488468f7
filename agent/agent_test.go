package agent

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/websines/meetingscribe/bus"
	"github.com/websines/meetingscribe/core"
	"github.com/websines/meetingscribe/model"
	"github.com/websines/meetingscribe/tool"
)

func okTool(name string) tool.Tool {
	return tool.NewFunctionTool(name, "test tool", map[string]any{"type": "object"},
		func(tc *tool.Context, args map[string]any) (any, error) {
			return map[string]any{"tool": name}, nil
		})
}

func failingTool(name string) tool.Tool {
	return tool.NewFunctionTool(name, "always fails", map[string]any{"type": "object"},
		func(*tool.Context, map[string]any) (any, error) {
			return nil, errors.New("handler exploded")
		})
}

func newAgent(t *testing.T, llm model.Model, optFns ...func(o *Options)) *Agent {
	t.Helper()
	a, err := New("tester", llm, optFns...)
	require.NoError(t, err)
	return a
}

func toolMessages(msgs []core.Message) []core.Message {
	var out []core.Message
	for _, m := range msgs {
		if m.Role == core.RoleTool {
			out = append(out, m)
		}
	}
	return out
}

func TestRunToolFreeResponseTerminatesInOneQuery(t *testing.T) {
	llm := model.NewScriptedModel().AddTurn("the answer is 42")
	a := newAgent(t, llm)

	res := a.Run(context.Background(), "what is the answer?")

	require.True(t, res.Success)
	assert.Equal(t, "the answer is 42", res.Message)
	assert.Equal(t, 1, llm.Calls())
	assert.Equal(t, StateDone, a.State())
}

func TestRunEmptyInstruction(t *testing.T) {
	a := newAgent(t, model.NewScriptedModel().AddTurn("unused"))

	res := a.Run(context.Background(), "   ")

	assert.False(t, res.Success)
	assert.NotEmpty(t, res.Error)
}

func TestRunDispatchesBatchAndContinues(t *testing.T) {
	llm := model.NewScriptedModel().
		AddTurn("", core.ToolCall{ID: "c1", Name: "alpha", Arguments: "{}"},
			core.ToolCall{ID: "c2", Name: "beta", Arguments: "{}"},
			core.ToolCall{ID: "c3", Name: "gamma", Arguments: "{}"}).
		AddTurn("all done")
	a := newAgent(t, llm, func(o *Options) {
		o.Tools = []tool.Tool{okTool("alpha"), okTool("beta"), okTool("gamma")}
	})

	res := a.Run(context.Background(), "run the tools")

	require.True(t, res.Success)
	assert.Equal(t, 2, llm.Calls())

	// One tool-result message per request, each tagged with its call id.
	results := toolMessages(a.Conversation().Messages())
	require.Len(t, results, 3)
	ids := make([]string, len(results))
	for i, m := range results {
		ids[i] = m.ToolCallID
	}
	assert.ElementsMatch(t, []string{"c1", "c2", "c3"}, ids)
}

func TestRunIsolatesSingleToolFailure(t *testing.T) {
	llm := model.NewScriptedModel().
		AddTurn("", core.ToolCall{ID: "c1", Name: "good", Arguments: "{}"},
			core.ToolCall{ID: "c2", Name: "bad", Arguments: "{}"},
			core.ToolCall{ID: "c3", Name: "good2", Arguments: "{}"}).
		AddTurn("recovered")
	a := newAgent(t, llm, func(o *Options) {
		o.Tools = []tool.Tool{okTool("good"), failingTool("bad"), okTool("good2")}
	})

	res := a.Run(context.Background(), "run the tools")

	require.True(t, res.Success, "run must continue past an isolated tool failure")

	results := toolMessages(a.Conversation().Messages())
	require.Len(t, results, 3)

	errCount := 0
	for _, m := range results {
		var payload map[string]any
		require.NoError(t, json.Unmarshal([]byte(m.Content), &payload))
		if _, ok := payload["error"]; ok {
			errCount++
			assert.Equal(t, "c2", m.ToolCallID)
		}
	}
	assert.Equal(t, 1, errCount)
}

func TestRunMalformedArgumentsRecordedAsToolResult(t *testing.T) {
	llm := model.NewScriptedModel().
		AddTurn("", core.ToolCall{ID: "c1", Name: "alpha", Arguments: "{not json"}).
		AddTurn("carried on")
	a := newAgent(t, llm, func(o *Options) {
		o.Tools = []tool.Tool{okTool("alpha")}
	})

	res := a.Run(context.Background(), "go")

	require.True(t, res.Success)

	results := toolMessages(a.Conversation().Messages())
	require.Len(t, results, 1)
	assert.Contains(t, results[0].Content, "error")
}

func TestRunUnknownToolRecordedAsToolResult(t *testing.T) {
	llm := model.NewScriptedModel().
		AddTurn("", core.ToolCall{ID: "c1", Name: "no_such_tool", Arguments: "{}"}).
		AddTurn("carried on")
	a := newAgent(t, llm)

	res := a.Run(context.Background(), "go")

	require.True(t, res.Success)
	results := toolMessages(a.Conversation().Messages())
	require.Len(t, results, 1)
	assert.Contains(t, results[0].Content, "unknown tool")
}

func TestRunMaxIterationsExceeded(t *testing.T) {
	const maxIterations = 3

	// The scripted model always requests a tool; the final scripted turn repeats.
	llm := model.NewScriptedModel().
		AddTurn("", core.ToolCall{ID: "c1", Name: "alpha", Arguments: "{}"})
	a := newAgent(t, llm, func(o *Options) {
		o.Tools = []tool.Tool{okTool("alpha")}
		o.MaxIterations = maxIterations
	})

	res := a.Run(context.Background(), "never stops")

	require.False(t, res.Success)
	assert.Equal(t, "maximum iterations exceeded", res.Message)
	assert.Equal(t, maxIterations, llm.Calls(), "exactly N model queries, never N+1")
	assert.Equal(t, StateFailed, a.State())
}

func TestRunTransportErrorAbortsImmediately(t *testing.T) {
	llm := model.NewScriptedModel().AddError(errors.New("connection refused"))
	a := newAgent(t, llm)

	res := a.Run(context.Background(), "hello")

	require.False(t, res.Success)
	assert.Contains(t, res.Error, "connection refused")
	assert.Equal(t, 1, llm.Calls(), "transport errors are not retried by the runtime")
	assert.Equal(t, StateFailed, a.State())
}

func TestRunReturnsContextSnapshotAsData(t *testing.T) {
	recording := tool.NewFunctionTool("record", "stores a value", map[string]any{"type": "object"},
		func(tc *tool.Context, _ map[string]any) (any, error) {
			tc.SetState(core.KeyMeetings, []string{"standup", "retro"})
			return "stored", nil
		})

	llm := model.NewScriptedModel().
		AddTurn("", core.ToolCall{ID: "c1", Name: "record", Arguments: "{}"}).
		AddTurn("stored everything")
	a := newAgent(t, llm, func(o *Options) {
		o.Tools = []tool.Tool{recording}
	})

	res := a.Run(context.Background(), "record it")

	require.True(t, res.Success)
	assert.Equal(t, []string{"standup", "retro"}, res.Data[core.KeyMeetings])
}

func TestResetRestoresFreshShape(t *testing.T) {
	llm := model.NewScriptedModel().AddTurn("done")
	a := newAgent(t, llm)

	res := a.Run(context.Background(), "first request")
	require.True(t, res.Success)
	require.Greater(t, a.Conversation().Len(), 1)

	a.Reset()

	msgs := a.Conversation().Messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, core.RoleSystem, msgs[0].Role)
	assert.Zero(t, a.Context().Len())
	assert.Equal(t, StateIdle, a.State())

	// A run after reset looks exactly like a run on a fresh agent.
	res = a.Run(context.Background(), "second request")
	require.True(t, res.Success)
	msgs = a.Conversation().Messages()
	assert.Equal(t, core.RoleSystem, msgs[0].Role)
	assert.Equal(t, core.RoleUser, msgs[1].Role)
}

func TestRunEmitsLifecycleEvents(t *testing.T) {
	b := bus.New()
	ch := b.Subscribe("test")

	llm := model.NewScriptedModel().
		AddTurn("", core.ToolCall{ID: "c1", Name: "alpha", Arguments: "{}"}).
		AddTurn("finished")
	a := newAgent(t, llm, func(o *Options) {
		o.Tools = []tool.Tool{okTool("alpha")}
		o.Publisher = b
	})

	res := a.Run(context.Background(), "go")
	require.True(t, res.Success)

	seen := map[core.EventType]bool{}
	for len(ch) > 0 {
		ev := <-ch
		seen[ev.Type] = true
		assert.Equal(t, "tester", ev.Agent)
	}

	for _, want := range []core.EventType{core.EventThinking, core.EventToolCall, core.EventToolResult, core.EventResponse, core.EventComplete} {
		assert.True(t, seen[want], "missing event type %s", want)
	}
}

func TestNewRejectsDuplicateTools(t *testing.T) {
	_, err := New("dup", model.NewScriptedModel(), func(o *Options) {
		o.Tools = []tool.Tool{okTool("same"), okTool("same")}
	})
	assert.Error(t, err)
}

func TestInstructionProviderResolvesAgainstRunState(t *testing.T) {
	inst := NewInstructionFromFunc(func(state *core.Context) (string, error) {
		organizer, ok := state.GetString("organizer")
		if !ok {
			return "no organizer configured", nil
		}
		return "reporting for " + organizer, nil
	})
	assert.False(t, inst.IsStatic())

	a := newAgent(t, model.NewScriptedModel().AddTurn("hi").AddTurn("hi again"), func(o *Options) {
		o.Instruction = inst
	})

	// State primed before the run must be visible to the provider.
	a.Context().Set("organizer", "alice@example.com")
	res := a.Run(context.Background(), "run it")
	require.True(t, res.Success)
	assert.Equal(t, "reporting for alice@example.com", a.Conversation().Messages()[0].Content)

	// A later run re-resolves against the state of that run.
	a.Context().Set("organizer", "bob@example.com")
	res = a.Run(context.Background(), "run it again")
	require.True(t, res.Success)
	assert.Equal(t, "reporting for bob@example.com", a.Conversation().Messages()[0].Content)
}

func TestInstructionProviderErrorFailsRun(t *testing.T) {
	inst := NewInstructionFromFunc(func(*core.Context) (string, error) {
		return "", errors.New("no prompt available")
	})

	a := newAgent(t, model.NewScriptedModel().AddTurn("unused"), func(o *Options) {
		o.Instruction = inst
	})

	res := a.Run(context.Background(), "run it")

	require.False(t, res.Success)
	assert.Contains(t, res.Error, "no prompt available")
	assert.Equal(t, 1, a.Conversation().Len()) // only the system message
}

func TestRunDuplicateCallIDsInOneBatch(t *testing.T) {
	llm := model.NewScriptedModel()
	llm.AddTurn("",
		core.ToolCall{ID: "dup", Name: "alpha", Arguments: "{}"},
		core.ToolCall{ID: "dup", Name: "beta", Arguments: "{}"},
	)
	llm.AddTurn("handled both")

	a := newAgent(t, llm, func(o *Options) {
		o.Tools = []tool.Tool{okTool("alpha"), okTool("beta")}
	})

	res := a.Run(context.Background(), "go")

	require.True(t, res.Success, res.Error)
	msgs := toolMessages(a.Conversation().Messages())
	require.Len(t, msgs, 2)
	assert.Equal(t, "dup", msgs[0].ToolCallID)
	assert.Equal(t, "dup", msgs[1].ToolCallID)
}
