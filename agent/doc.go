// Package agent implements the runtime that drives one autonomous agent: an
// iterative think, call tools, observe, respond loop over a language model,
// bounded by an iteration cap and isolated per-call tool failures.
//
// An Agent owns a private conversation log and a local context bag. Each Run
// appends the caller's instruction, queries the model with the full history
// and the declared tool set, dispatches requested tool calls (batches may
// execute in parallel), and feeds every result back under its call id until
// the model answers without tools or the cap is reached. Standing
// instructions are re-resolved against the local context at the start of
// each run, so dynamic providers observe state primed by the orchestrator.
package agent
