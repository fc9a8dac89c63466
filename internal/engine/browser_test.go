package engine

import (
	"testing"

	"github.com/ZeraTS/ironbullet-sub001/internal/block"
)

// These tests exercise the guard paths that don't require an actual
// Chromium process (none ships in this test environment): settings type
// mismatches, and every handler's "no browser open yet" error.

func TestHandleNavigateToRequiresOpenBrowser(t *testing.T) {
	ec := newTestContext(&fakeSender{})
	b := block.Block{
		Type:     block.TypeNavigateTo,
		Settings: &block.NavigateToSettings{URL: "https://example.com"},
	}
	result := block.Result{}
	if err := handleNavigateTo(ec, b, &result); err == nil {
		t.Error("expected an error when no BrowserOpen has run yet")
	}
}

func TestHandleClickElementRequiresOpenBrowser(t *testing.T) {
	ec := newTestContext(&fakeSender{})
	b := block.Block{
		Type:     block.TypeClickElement,
		Settings: &block.ClickElementSettings{Selector: "#submit"},
	}
	result := block.Result{}
	if err := handleClickElement(ec, b, &result); err == nil {
		t.Error("expected an error when no BrowserOpen has run yet")
	}
}

func TestHandleGetElementTextRejectsWrongSettingsType(t *testing.T) {
	ec := newTestContext(&fakeSender{})
	b := block.Block{
		Type:     block.TypeGetElementText,
		Settings: &block.LogSettings{Message: "wrong type"},
	}
	result := block.Result{}
	if err := handleGetElementText(ec, b, &result); err == nil {
		t.Error("expected a settings type mismatch error")
	}
}

func TestHandleScreenshotRequiresOpenBrowser(t *testing.T) {
	ec := newTestContext(&fakeSender{})
	b := block.Block{
		Type:     block.TypeScreenshot,
		Settings: &block.ScreenshotSettings{OutputVar: "SHOT"},
	}
	result := block.Result{}
	if err := handleScreenshot(ec, b, &result); err == nil {
		t.Error("expected an error when no BrowserOpen has run yet")
	}
}
