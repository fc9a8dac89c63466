package engine

import (
	"fmt"
	"time"

	"github.com/ZeraTS/ironbullet-sub001/internal/block"
	"github.com/ZeraTS/ironbullet-sub001/internal/engerr"
)

// handler runs one block's variant-specific behavior against ec. It may
// mutate ec.Status, ec.Vars, ec.Log, ec.NetworkLog and the in-flight
// *block.Result (e.g. to attach a Request/Response snapshot) freely;
// returning an error marks the block failed, subject to SafeMode.
type handler func(ec *Context, b block.Block, result *block.Result) error

// ExecuteBlocks runs blocks in order against ec, implementing spec.md
// §4.D's per-block and status-gating state machine. It recurses into the
// same routine for IfElse branches, Loop bodies, and Group/CaseSwitch
// bodies, so nested blocks share ec's Status/Vars/Log exactly like the
// top-level sequence does.
func ExecuteBlocks(ec *Context, blocks []block.Block) error {
	for _, b := range blocks {
		if b.Disabled {
			continue
		}

		result := block.Result{
			BlockID:    b.ID,
			BlockLabel: b.Label,
			BlockType:  b.Type,
			Success:    true,
		}

		start := time.Now()
		h, ok := handlers[b.Type]
		var err error
		if !ok {
			err = fmt.Errorf("engine: no handler registered for block type %q", b.Type)
		} else {
			err = h(ec, b, &result)
		}
		result.TimingMs = time.Since(start).Milliseconds()
		result.VariablesAfter = ec.Vars.Snapshot()

		if err != nil {
			result.Success = false
			result.LogMessage = err.Error()
			ec.AppendLog(b.ID, b.Label, err.Error())
			ec.BlockResults = append(ec.BlockResults, result)

			if b.SafeMode {
				continue
			}
			ec.Status = StatusError
			return engerr.NewBlockExecutionError(b.ID, string(b.Type), err)
		}

		if result.LogMessage != "" {
			ec.AppendLog(b.ID, b.Label, result.LogMessage)
		}
		ec.BlockResults = append(ec.BlockResults, result)

		switch ec.Status {
		case StatusError, StatusBan, StatusRetry:
			return nil
		case StatusFail:
			if b.Type == block.TypeKeyCheck && keyCheckStopOnFail(b) {
				return nil
			}
		}
	}
	return nil
}

func keyCheckStopOnFail(b block.Block) bool {
	settings, ok := b.Settings.(*block.KeyCheckSettings)
	if !ok {
		return false
	}
	return settings.StopOnFail
}

// handlers is populated by each family file's init() — every block.Type
// constant must have exactly one entry by the time ExecuteBlocks runs.
var handlers = make(map[block.Type]handler)

func register(t block.Type, h handler) {
	handlers[t] = h
}
