// Package plugin implements the narrow native-plugin port spec.md §6
// names: a C-compatible ABI the engine calls through three entry points
// (plugin_info, plugin_block_info, plugin_execute) to let a Plugin block
// delegate to capability the engine itself doesn't implement.
package plugin

import (
	"encoding/json"
	"fmt"
	"unsafe"

	"github.com/ebitengine/purego"
)

// Result mirrors one plugin_execute response envelope.
type Result struct {
	Success              bool
	UpdatedVariablesJSON string
	LogMessage           string
	ErrorMessage         string
}

// Registry resolves a Plugin block's plugin_block_type to a loaded
// library's entry point and executes it.
type Registry interface {
	Execute(blockType, settingsJSON, variablesJSON string) (Result, error)
}

// blockInfo mirrors one plugin_block_info(index) response.
type blockInfo struct {
	Index     int    `json:"index"`
	BlockType string `json:"block_type"`
}

// NativeRegistry loads one shared library implementing the plugin ABI via
// github.com/ebitengine/purego — a pure-Go dynamic-library loader, the
// only FFI mechanism this module reaches for instead of cgo (see
// DESIGN.md's internal/plugin entry for why purego over cgo, and the
// simplification this wrapper makes to plugin_execute's return envelope).
type NativeRegistry struct {
	handle uintptr

	pluginInfo       func() uintptr
	pluginBlockInfo  func(int32) uintptr
	pluginExecute    func(int32, uintptr, uintptr) uintptr
	pluginFreeString func(uintptr)

	blocksByType map[string]int
}

// LoadNativeRegistry dlopens path, resolves the four ABI entry points, and
// indexes every block type the library reports via plugin_info/
// plugin_block_info so Execute can look block types up by name.
func LoadNativeRegistry(path string) (*NativeRegistry, error) {
	handle, err := purego.Dlopen(path, purego.RTLD_NOW|purego.RTLD_GLOBAL)
	if err != nil {
		return nil, fmt.Errorf("plugin: opening %s: %w", path, err)
	}

	r := &NativeRegistry{handle: handle, blocksByType: make(map[string]int)}
	purego.RegisterLibFunc(&r.pluginInfo, handle, "plugin_info")
	purego.RegisterLibFunc(&r.pluginBlockInfo, handle, "plugin_block_info")
	purego.RegisterLibFunc(&r.pluginExecute, handle, "plugin_execute")
	purego.RegisterLibFunc(&r.pluginFreeString, handle, "plugin_free_string")

	if err := r.indexBlockTypes(); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *NativeRegistry) readAndFree(ptr uintptr) string {
	s := purego.BytePtrToString((*byte)(unsafe.Pointer(ptr)))
	r.pluginFreeString(ptr)
	return s
}

func (r *NativeRegistry) indexBlockTypes() error {
	var info struct {
		BlockCount int `json:"block_count"`
	}
	if err := json.Unmarshal([]byte(r.readAndFree(r.pluginInfo())), &info); err != nil {
		return fmt.Errorf("plugin: decoding plugin_info: %w", err)
	}

	for i := 0; i < info.BlockCount; i++ {
		var bi blockInfo
		raw := r.readAndFree(r.pluginBlockInfo(int32(i)))
		if err := json.Unmarshal([]byte(raw), &bi); err != nil {
			return fmt.Errorf("plugin: decoding plugin_block_info(%d): %w", i, err)
		}
		r.blocksByType[bi.BlockType] = i
	}
	return nil
}

func cString(s string) uintptr {
	b := append([]byte(s), 0)
	return uintptr(unsafe.Pointer(&b[0]))
}

// Execute resolves blockType to its plugin_block_info index and calls
// plugin_execute, decoding the single owned JSON string the library hands
// back (success/updated_variables_json/log_message/error_message) and
// freeing it via plugin_free_string exactly once.
func (r *NativeRegistry) Execute(blockType, settingsJSON, variablesJSON string) (Result, error) {
	index, ok := r.blocksByType[blockType]
	if !ok {
		return Result{}, fmt.Errorf("plugin: no registered block type %q", blockType)
	}

	raw := r.readAndFree(r.pluginExecute(int32(index), cString(settingsJSON), cString(variablesJSON)))

	var out struct {
		Success              bool   `json:"success"`
		UpdatedVariablesJSON string `json:"updated_variables_json"`
		LogMessage           string `json:"log_message"`
		ErrorMessage         string `json:"error_message"`
	}
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return Result{}, fmt.Errorf("plugin: decoding plugin_execute result: %w", err)
	}

	return Result{
		Success:              out.Success,
		UpdatedVariablesJSON: out.UpdatedVariablesJSON,
		LogMessage:           out.LogMessage,
		ErrorMessage:         out.ErrorMessage,
	}, nil
}
