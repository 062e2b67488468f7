package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"github.com/websines/meetingscribe/bus"
	"github.com/websines/meetingscribe/core"
	"github.com/websines/meetingscribe/logging"
	"github.com/websines/meetingscribe/tool"
)

// toolResult is the serialized outcome of one dispatched tool call.
type toolResult struct {
	callID  string
	name    string
	content string // JSON payload appended as the tool message
	failed  bool
}

// batchExecutor dispatches one batch of tool calls, possibly in parallel, and
// returns exactly one result per call in request order. Guarantees:
//   - Respects ctx cancellation
//   - Never panics (recovers internally into an error result)
//   - Each result carries its originating call id
//   - Individual failures are isolated to that call's result; the batch and
//     the run continue
type batchExecutor struct {
	maxParallel int
}

type executionEnv struct {
	agentName string
	registry  *tool.Registry
	state     *core.Context
	publisher bus.Publisher
	logger    logging.Logger
}

func (e *batchExecutor) execute(ctx context.Context, env executionEnv, calls []core.ToolCall) []toolResult {
	n := len(calls)
	if n == 0 {
		return nil
	}

	if n == 1 {
		return []toolResult{e.executeSingle(ctx, env, calls[0])}
	}

	maxPar := e.maxParallel
	if maxPar <= 0 || maxPar > n {
		maxPar = n
	}

	results := make([]toolResult, n)
	var wg sync.WaitGroup
	sem := make(chan struct{}, maxPar)

	batchStart := time.Now()
	for i := range calls {
		if ctx.Err() != nil {
			results[i] = errorResult(calls[i], ctx.Err())
			continue
		}
		wg.Add(1)
		sem <- struct{}{}
		go func(idx int, fc core.ToolCall) {
			defer wg.Done()
			defer func() { <-sem }()

			results[idx] = e.executeSingle(ctx, env, fc)
		}(i, calls[i])
	}

	wg.Wait()

	env.logger.Debug(
		"agent.tools.batch.complete",
		"agent", env.agentName,
		"count", n,
		"parallelism", maxPar,
		"duration_ms", time.Since(batchStart).Milliseconds(),
	)

	return results
}

func (e *batchExecutor) executeSingle(ctx context.Context, env executionEnv, fc core.ToolCall) toolResult {
	env.publisher.Publish(core.NewEvent(core.EventToolCall, env.agentName, fc.Name).
		WithData(map[string]any{"call_id": fc.ID, "arguments": fc.Arguments}))

	start := time.Now()
	result, err := e.dispatch(ctx, env, fc)
	dur := time.Since(start)

	env.logger.Info(
		"agent.tool.executed",
		"agent", env.agentName,
		"tool", fc.Name,
		"duration_ms", dur.Milliseconds(),
		"error", err != nil,
	)

	if err != nil {
		env.publisher.Publish(core.NewEvent(core.EventError, env.agentName, err.Error()).
			WithData(map[string]any{"call_id": fc.ID, "tool": fc.Name}))

		return errorResult(fc, err)
	}

	env.publisher.Publish(core.NewEvent(core.EventToolResult, env.agentName, fc.Name).
		WithData(map[string]any{"call_id": fc.ID}))

	return toolResult{callID: fc.ID, name: fc.Name, content: serializeResult(result)}
}

// dispatch parses JSON arguments and invokes the registered handler, turning
// panics and malformed arguments into ordinary errors.
func (e *batchExecutor) dispatch(ctx context.Context, env executionEnv, fc core.ToolCall) (result any, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("tool %s panicked: %v", fc.Name, r)
			env.logger.Error("agent.tool.panic", "agent", env.agentName, "tool", fc.Name, "recover", r, "stack", string(debug.Stack()))
		}
	}()

	args := map[string]any{}
	if fc.Arguments != "" {
		if jsonErr := json.Unmarshal([]byte(fc.Arguments), &args); jsonErr != nil {
			return nil, fmt.Errorf("failed to parse arguments for %s: %w", fc.Name, jsonErr)
		}
	}

	toolCtx := tool.NewContext(ctx, fc.ID, env.agentName, env.state, env.logger)

	return env.registry.Invoke(toolCtx, fc.Name, args)
}

// serializeResult encodes a handler result as the tool message payload.
func serializeResult(result any) string {
	if result == nil {
		return `{"status":"ok"}`
	}
	if s, ok := result.(string); ok {
		return s
	}
	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Sprintf("%v", result)
	}
	return string(data)
}

// errorResult encodes a failed call so the model can observe and adapt.
func errorResult(fc core.ToolCall, err error) toolResult {
	payload, _ := json.Marshal(map[string]string{"error": err.Error()})
	return toolResult{callID: fc.ID, name: fc.Name, content: string(payload), failed: true}
}
