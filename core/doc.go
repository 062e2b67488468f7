// Package core defines the shared data model of the meetingscribe pipeline:
// conversation messages and tool calls, per-agent and shared context bags,
// progress events, and the per-run call limiter. Higher layers (agent,
// orchestrator, bus) depend only on these types.
package core
