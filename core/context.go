package core

import (
	"maps"
	"sync"
)

// Well-known context keys threaded between pipeline stages. Agents depend on
// these names only; they never read each other's context directly.
const (
	KeyMeetings         = "meetings"
	KeyStartDate        = "startDate"
	KeyEndDate          = "endDate"
	KeyAnalysisResults  = "analysisResults"
	KeyExecutiveSummary = "executiveSummary"
	KeyReportFilename   = "reportFilename"
	KeyDownloadURL      = "downloadUrl"
)

// Context is a mutable key/value bag carrying artifacts produced during a run:
// fetched records, analysis results, computed summaries. Each agent owns a
// local Context; the orchestrator owns a shared one and folds agent output
// into it between stages. Safe for concurrent access, though pipeline stages
// execute strictly sequentially.
type Context struct {
	mu     sync.RWMutex
	values map[string]any
}

// NewContext creates an empty context bag.
func NewContext() *Context {
	return &Context{values: map[string]any{}}
}

// Get returns the value and existence flag for a key.
func (c *Context) Get(key string) (any, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.values[key]
	return v, ok
}

// GetString returns the value for key if it is a non-empty string.
func (c *Context) GetString(key string) (string, bool) {
	v, ok := c.Get(key)
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok && s != ""
}

// Set stores a value under key, replacing any previous value.
func (c *Context) Set(key string, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.values[key] = value
}

// Merge copies every pair from src into this context, last writer wins.
func (c *Context) Merge(src *Context) {
	if src == nil {
		return
	}
	snapshot := src.Snapshot()
	c.mu.Lock()
	defer c.mu.Unlock()
	maps.Copy(c.values, snapshot)
}

// Snapshot returns a shallow copy of the current key/value pairs.
func (c *Context) Snapshot() map[string]any {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make(map[string]any, len(c.values))
	maps.Copy(out, c.values)
	return out
}

// Len returns the number of keys currently set.
func (c *Context) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.values)
}

// Reset discards all values.
func (c *Context) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.values = map[string]any{}
}
