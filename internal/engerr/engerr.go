// Package engerr defines the engine's error taxonomy. ConfigError,
// SidecarError and BlockExecutionError wrap an underlying cause and expose
// it through Unwrap so errors.Is/errors.As work; VariableNotFoundError and
// ProxyExhaustionError carry only a name or reason. Every message follows
// the "pkg: verb: detail" shape used throughout the rest of the tree.
package engerr

import "fmt"

// ConfigError means a pipeline or runner configuration could not be loaded
// or validated. Fatal at job start.
type ConfigError struct {
	Path string
	Err  error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config: load %q: %v", e.Path, e.Err)
}

func (e *ConfigError) Unwrap() error { return e.Err }

// NewConfigError wraps err as a ConfigError for path.
func NewConfigError(path string, err error) *ConfigError {
	return &ConfigError{Path: path, Err: err}
}

// SidecarError means the child process is missing, exited, or its channel
// closed. Contained per-block by safe_mode, otherwise escalates the
// execution context's status to Error.
type SidecarError struct {
	Action string
	Err    error
}

func (e *SidecarError) Error() string {
	return fmt.Sprintf("sidecar: %s: %v", e.Action, e.Err)
}

func (e *SidecarError) Unwrap() error { return e.Err }

// NewSidecarError wraps err as a SidecarError for the given sidecar action.
func NewSidecarError(action string, err error) *SidecarError {
	return &SidecarError{Action: action, Err: err}
}

// BlockExecutionError is a domain failure inside a block handler (regex
// compile failure, JSON path miss, timeout, protocol error). Containment is
// governed by the block's safe_mode flag.
type BlockExecutionError struct {
	BlockID   string
	BlockType string
	Err       error
}

func (e *BlockExecutionError) Error() string {
	return fmt.Sprintf("block %s (%s): %v", e.BlockID, e.BlockType, e.Err)
}

func (e *BlockExecutionError) Unwrap() error { return e.Err }

// NewBlockExecutionError wraps err as a BlockExecutionError for blockID/blockType.
func NewBlockExecutionError(blockID, blockType string, err error) *BlockExecutionError {
	return &BlockExecutionError{BlockID: blockID, BlockType: blockType, Err: err}
}

// VariableNotFoundError is surfaced only when a block explicitly demands a
// bound name; most reads degrade to an empty string per interpolation rules.
type VariableNotFoundError struct {
	Name string
}

func (e *VariableNotFoundError) Error() string {
	return fmt.Sprintf("vars: variable not found: %q", e.Name)
}

// NewVariableNotFoundError reports that name has no bound value.
func NewVariableNotFoundError(name string) *VariableNotFoundError {
	return &VariableNotFoundError{Name: name}
}

// ProxyExhaustionError means no live proxy is available. Depending on the
// pool's mode, callers either retry with back-off or surface it as a Retry
// status.
type ProxyExhaustionError struct {
	Reason string
}

func (e *ProxyExhaustionError) Error() string {
	return fmt.Sprintf("proxy: exhausted: %s", e.Reason)
}

// NewProxyExhaustionError reports that the pool has no usable proxy for reason.
func NewProxyExhaustionError(reason string) *ProxyExhaustionError {
	return &ProxyExhaustionError{Reason: reason}
}
