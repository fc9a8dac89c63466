package engine

import (
	"encoding/json"
	"fmt"

	"github.com/ZeraTS/ironbullet-sub001/internal/block"
)

func init() {
	register(block.TypePlugin, handlePlugin)
}

// handlePlugin dispatches to ec.PluginRegistry by plugin_block_type,
// handing it the block's interpolated settings JSON plus a snapshot of the
// current Variable Store, and merges whatever variables the plugin reports
// back under OutputVar/Capture (spec.md §3's "Plugin. Dispatches to the
// plugin registry by plugin_block_type string. Returns updated variables
// (merged into user vars under capture) and a log message.").
func handlePlugin(ec *Context, b block.Block, result *block.Result) error {
	settings, ok := b.Settings.(*block.PluginSettings)
	if !ok {
		return fmt.Errorf("plugin: settings type mismatch")
	}
	if ec.PluginRegistry == nil {
		return fmt.Errorf("plugin: no plugin registry configured for this pipeline")
	}

	settingsJSON := ec.Vars.Interpolate(settings.SettingsJSON)
	variablesBytes, err := json.Marshal(ec.Vars.Snapshot())
	if err != nil {
		return fmt.Errorf("plugin(%s): encoding variables: %w", settings.PluginBlockType, err)
	}
	variablesJSON := string(variablesBytes)

	out, err := ec.PluginRegistry.Execute(settings.PluginBlockType, settingsJSON, variablesJSON)
	if err != nil {
		return fmt.Errorf("plugin(%s): %w", settings.PluginBlockType, err)
	}
	if !out.Success {
		return fmt.Errorf("plugin(%s): %s", settings.PluginBlockType, out.ErrorMessage)
	}

	ec.Vars.SetUser(settings.OutputVar, out.UpdatedVariablesJSON, settings.Capture)
	result.LogMessage = out.LogMessage
	return nil
}
