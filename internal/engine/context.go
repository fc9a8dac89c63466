// Package engine drives a Pipeline's Blocks through the per-variant
// handlers in this package against one worker's ExecutionContext — the
// Block Executor and Pipeline Engine of spec.md §4.C/4.D.
package engine

import (
	"sync"
	"time"

	"github.com/ZeraTS/ironbullet-sub001/internal/block"
	"github.com/ZeraTS/ironbullet-sub001/internal/jschallenge"
	"github.com/ZeraTS/ironbullet-sub001/internal/payload"
	"github.com/ZeraTS/ironbullet-sub001/internal/plugin"
	"github.com/ZeraTS/ironbullet-sub001/internal/sidecar"
	"github.com/ZeraTS/ironbullet-sub001/internal/vars"
)

// Status is the terminal classification of one pipeline run (spec.md's
// BotStatus), plus None for "no verdict yet."
type Status string

const (
	StatusNone    Status = "None"
	StatusSuccess Status = "Success"
	StatusFail    Status = "Fail"
	StatusBan     Status = "Ban"
	StatusRetry   Status = "Retry"
	StatusCustom  Status = "Custom"
	StatusError   Status = "Error"
)

// LogEntry is one (ts_ms, block_id, block_label, message) tuple.
type LogEntry struct {
	TimestampMs int64
	BlockID     string
	BlockLabel  string
	Message     string
}

// Context is the per-invocation Execution Context: one per worker, per
// input record. It is never shared across goroutines.
type Context struct {
	Vars    *vars.Store
	Status  Status
	Session string // correlates sidecar cookie-jar state across HttpRequest blocks

	Proxy string

	Log         []LogEntry
	BlockResults []block.Result
	NetworkLog  []block.NetworkEntry

	// OverrideJA3/OverrideHTTP2FP are applied to subsequent HttpRequest
	// blocks once a RandomUserAgent block sets them with match_tls.
	OverrideJA3     string
	OverrideHTTP2FP string

	Sender sidecar.Sender

	// PluginRegistry backs Plugin blocks; nil when the pipeline declares no
	// plugin_manager (spec.md §4.A's "plugin_manager: optional shared
	// reference"), in which case a Plugin block fails with a clear error
	// instead of panicking on a nil dereference.
	PluginRegistry plugin.Registry

	// SchemaWatcher flags JSON response-shape drift on HttpRequest blocks,
	// shared across every worker/record in a job so a schema learned by
	// one attempt is checked against by every other attempt hitting the
	// same block. Nil disables the check entirely.
	SchemaWatcher *payload.WatcherSet

	mu sync.Mutex

	jsSolver    *jschallenge.OttoSolver
	dictionaries map[string]map[string]string

	// browser holds the headless-page handle opened by a BrowserOpen
	// block, if any — see browser.go.
	browser *browserHandle
}

// New builds a fresh Context for one input record, wired to sender for
// HTTP-bearing blocks and seeded with inputSlots as the read-only
// input.<slot> namespace.
func New(sender sidecar.Sender, sessionID string, inputSlots map[string]string) *Context {
	store := vars.New()
	for slot, v := range inputSlots {
		store.SetInput(slot, v)
	}
	return &Context{
		Vars:    store,
		Status:  StatusNone,
		Session: sessionID,
		Sender:  sender,
	}
}

// AppendLog records a human-readable log line for blockID/blockLabel.
func (c *Context) AppendLog(blockID, blockLabel, message string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Log = append(c.Log, LogEntry{
		TimestampMs: time.Now().UnixMilli(),
		BlockID:     blockID,
		BlockLabel:  blockLabel,
		Message:     message,
	})
}

// AppendNetworkEntry records one HTTP/browser-navigation observation.
func (c *Context) AppendNetworkEntry(e block.NetworkEntry) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.NetworkLog = append(c.NetworkLog, e)
}

// dictionary returns the named Dictionary block's backing map, creating it
// on first use. Dictionaries live only for the lifetime of one Context.
func (c *Context) dictionary(name string) map[string]string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.dictionaries == nil {
		c.dictionaries = make(map[string]map[string]string)
	}
	d, ok := c.dictionaries[name]
	if !ok {
		d = make(map[string]string)
		c.dictionaries[name] = d
	}
	return d
}

// JSSolver lazily constructs a per-context otto VM seeded with the current
// vars snapshot and userAgent. No handler in this package calls it: the
// Script block is a no-op, and LambdaParser and Parse's Lambda mode build a
// fresh solver per call.
func (c *Context) JSSolver(userAgent string) (*jschallenge.OttoSolver, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.jsSolver != nil {
		return c.jsSolver, nil
	}
	solver, err := jschallenge.NewOttoSolver(userAgent, c.Vars.Snapshot())
	if err != nil {
		return nil, err
	}
	c.jsSolver = solver
	return solver, nil
}
