package engine

import (
	"testing"

	"github.com/ZeraTS/ironbullet-sub001/internal/block"
	"github.com/ZeraTS/ironbullet-sub001/internal/plugin"
)

type fakeRegistry struct {
	gotBlockType, gotSettings, gotVariables string
	result                                  plugin.Result
	err                                     error
}

func (f *fakeRegistry) Execute(blockType, settingsJSON, variablesJSON string) (plugin.Result, error) {
	f.gotBlockType, f.gotSettings, f.gotVariables = blockType, settingsJSON, variablesJSON
	return f.result, f.err
}

func TestHandlePluginDispatchesAndMergesOutput(t *testing.T) {
	ec := newTestContext(&fakeSender{})
	ec.Vars.SetData("SOURCE", "body-value")
	reg := &fakeRegistry{result: plugin.Result{
		Success:              true,
		UpdatedVariablesJSON: `{"FOO":"bar"}`,
		LogMessage:           "ran ok",
	}}
	ec.PluginRegistry = reg

	b := block.Block{
		Type: block.TypePlugin,
		Settings: &block.PluginSettings{
			PluginBlockType: "CustomHashBlock",
			SettingsJSON:    `{"input":"<SOURCE>"}`,
			OutputVar:       "PLUGIN_OUT",
		},
	}
	result := block.Result{}
	if err := handlePlugin(ec, b, &result); err != nil {
		t.Fatalf("handlePlugin returned error: %v", err)
	}
	if reg.gotBlockType != "CustomHashBlock" {
		t.Errorf("block type = %q", reg.gotBlockType)
	}
	if reg.gotSettings != `{"input":"body-value"}` {
		t.Errorf("settings not interpolated, got %q", reg.gotSettings)
	}
	if v, _ := ec.Vars.Get("PLUGIN_OUT"); v != `{"FOO":"bar"}` {
		t.Errorf("PLUGIN_OUT = %q", v)
	}
	if result.LogMessage != "ran ok" {
		t.Errorf("log message = %q", result.LogMessage)
	}
}

func TestHandlePluginFailsWithoutRegistry(t *testing.T) {
	ec := newTestContext(&fakeSender{})
	b := block.Block{
		Type: block.TypePlugin,
		Settings: &block.PluginSettings{
			PluginBlockType: "CustomHashBlock",
		},
	}
	result := block.Result{}
	if err := handlePlugin(ec, b, &result); err == nil {
		t.Error("expected an error when no plugin registry is configured")
	}
}

func TestHandlePluginSurfacesUnsuccessfulResult(t *testing.T) {
	ec := newTestContext(&fakeSender{})
	ec.PluginRegistry = &fakeRegistry{result: plugin.Result{
		Success:      false,
		ErrorMessage: "native plugin exploded",
	}}
	b := block.Block{
		Type: block.TypePlugin,
		Settings: &block.PluginSettings{
			PluginBlockType: "CustomHashBlock",
		},
	}
	result := block.Result{}
	if err := handlePlugin(ec, b, &result); err == nil {
		t.Error("expected an error when the plugin reports success=false")
	}
}

func TestHandlePluginRejectsWrongSettingsType(t *testing.T) {
	ec := newTestContext(&fakeSender{})
	b := block.Block{
		Type:     block.TypePlugin,
		Settings: &block.LogSettings{Message: "wrong type"},
	}
	result := block.Result{}
	if err := handlePlugin(ec, b, &result); err == nil {
		t.Error("expected a settings type mismatch error")
	}
}
