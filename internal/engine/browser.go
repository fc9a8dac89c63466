package engine

import (
	"encoding/base64"
	"fmt"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"

	"github.com/ZeraTS/ironbullet-sub001/internal/block"
)

func init() {
	register(block.TypeBrowserOpen, handleBrowserOpen)
	register(block.TypeNavigateTo, handleNavigateTo)
	register(block.TypeClickElement, handleClickElement)
	register(block.TypeTypeText, handleTypeText)
	register(block.TypeWaitForElement, handleWaitForElement)
	register(block.TypeGetElementText, handleGetElementText)
	register(block.TypeScreenshot, handleScreenshot)
	register(block.TypeExecuteJs, handleExecuteJs)
}

// browserHandle owns the one headless-browser/page pair a job's Context may
// open with a BrowserOpen block. Every later browser.* block reuses the
// same page rather than opening a new tab, so navigation state (cookies,
// JS globals) carries across blocks the way a real user session would.
type browserHandle struct {
	browser *rod.Browser
	page    *rod.Page
}

func (h *browserHandle) close() {
	if h == nil {
		return
	}
	if h.browser != nil {
		_ = h.browser.Close()
	}
}

func handleBrowserOpen(ec *Context, b block.Block, result *block.Result) error {
	settings, ok := b.Settings.(*block.BrowserOpenSettings)
	if !ok {
		return fmt.Errorf("browseropen: settings type mismatch")
	}

	l := launcher.New().Headless(settings.Headless)
	controlURL, err := l.Launch()
	if err != nil {
		return fmt.Errorf("browseropen: launching chromium: %w", err)
	}

	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		return fmt.Errorf("browseropen: connecting to chromium: %w", err)
	}

	page, err := browser.Page(proto.TargetCreateTarget{URL: "about:blank"})
	if err != nil {
		_ = browser.Close()
		return fmt.Errorf("browseropen: opening page: %w", err)
	}

	if ua := ec.Vars.Interpolate(settings.UserAgent); ua != "" {
		if err := page.SetUserAgent(&proto.NetworkSetUserAgentOverride{UserAgent: ua}); err != nil {
			_ = browser.Close()
			return fmt.Errorf("browseropen: setting user agent: %w", err)
		}
	}

	ec.mu.Lock()
	if ec.browser != nil {
		ec.browser.close()
	}
	ec.browser = &browserHandle{browser: browser, page: page}
	ec.mu.Unlock()

	result.LogMessage = "browseropen: page ready"
	return nil
}

func (ec *Context) currentPage() (*rod.Page, error) {
	ec.mu.Lock()
	defer ec.mu.Unlock()
	if ec.browser == nil || ec.browser.page == nil {
		return nil, fmt.Errorf("no open browser page — run BrowserOpen first")
	}
	return ec.browser.page, nil
}

func handleNavigateTo(ec *Context, b block.Block, result *block.Result) error {
	settings, ok := b.Settings.(*block.NavigateToSettings)
	if !ok {
		return fmt.Errorf("navigateto: settings type mismatch")
	}
	page, err := ec.currentPage()
	if err != nil {
		return fmt.Errorf("navigateto: %w", err)
	}
	page = page.Timeout(timeoutOrDefault(settings.TimeoutMs))

	url := ec.Vars.Interpolate(settings.URL)
	if err := page.Navigate(url); err != nil {
		return fmt.Errorf("navigateto: %w", err)
	}
	if err := page.WaitLoad(); err != nil {
		return fmt.Errorf("navigateto: wait load: %w", err)
	}

	result.LogMessage = "navigateto: " + url
	return nil
}

func handleClickElement(ec *Context, b block.Block, result *block.Result) error {
	settings, ok := b.Settings.(*block.ClickElementSettings)
	if !ok {
		return fmt.Errorf("clickelement: settings type mismatch")
	}
	page, err := ec.currentPage()
	if err != nil {
		return fmt.Errorf("clickelement: %w", err)
	}
	page = page.Timeout(timeoutOrDefault(settings.TimeoutMs))

	el, err := page.Element(ec.Vars.Interpolate(settings.Selector))
	if err != nil {
		return fmt.Errorf("clickelement: locating %q: %w", settings.Selector, err)
	}
	if err := el.Click(proto.InputMouseButtonLeft, 1); err != nil {
		return fmt.Errorf("clickelement: %w", err)
	}

	result.LogMessage = "clickelement: " + settings.Selector
	return nil
}

func handleTypeText(ec *Context, b block.Block, result *block.Result) error {
	settings, ok := b.Settings.(*block.TypeTextSettings)
	if !ok {
		return fmt.Errorf("typetext: settings type mismatch")
	}
	page, err := ec.currentPage()
	if err != nil {
		return fmt.Errorf("typetext: %w", err)
	}
	page = page.Timeout(timeoutOrDefault(settings.TimeoutMs))

	el, err := page.Element(ec.Vars.Interpolate(settings.Selector))
	if err != nil {
		return fmt.Errorf("typetext: locating %q: %w", settings.Selector, err)
	}
	if err := el.Input(ec.Vars.Interpolate(settings.Text)); err != nil {
		return fmt.Errorf("typetext: %w", err)
	}

	result.LogMessage = "typetext: " + settings.Selector
	return nil
}

func handleWaitForElement(ec *Context, b block.Block, result *block.Result) error {
	settings, ok := b.Settings.(*block.WaitForElementSettings)
	if !ok {
		return fmt.Errorf("waitforelement: settings type mismatch")
	}
	page, err := ec.currentPage()
	if err != nil {
		return fmt.Errorf("waitforelement: %w", err)
	}
	page = page.Timeout(timeoutOrDefault(settings.TimeoutMs))

	if _, err := page.Element(ec.Vars.Interpolate(settings.Selector)); err != nil {
		return fmt.Errorf("waitforelement: %q never appeared: %w", settings.Selector, err)
	}

	result.LogMessage = "waitforelement: " + settings.Selector
	return nil
}

func handleGetElementText(ec *Context, b block.Block, result *block.Result) error {
	settings, ok := b.Settings.(*block.GetElementTextSettings)
	if !ok {
		return fmt.Errorf("getelementtext: settings type mismatch")
	}
	page, err := ec.currentPage()
	if err != nil {
		return fmt.Errorf("getelementtext: %w", err)
	}

	el, err := page.Element(ec.Vars.Interpolate(settings.Selector))
	if err != nil {
		return fmt.Errorf("getelementtext: locating %q: %w", settings.Selector, err)
	}
	text, err := el.Text()
	if err != nil {
		return fmt.Errorf("getelementtext: reading text: %w", err)
	}

	ec.Vars.SetUser(settings.OutputVar, text, settings.Capture)
	result.LogMessage = fmt.Sprintf("getelementtext: %d char(s)", len(text))
	return nil
}

func handleScreenshot(ec *Context, b block.Block, result *block.Result) error {
	settings, ok := b.Settings.(*block.ScreenshotSettings)
	if !ok {
		return fmt.Errorf("screenshot: settings type mismatch")
	}
	page, err := ec.currentPage()
	if err != nil {
		return fmt.Errorf("screenshot: %w", err)
	}

	data, err := page.Screenshot(false, nil)
	if err != nil {
		return fmt.Errorf("screenshot: %w", err)
	}

	ec.Vars.SetUser(settings.OutputVar, base64.StdEncoding.EncodeToString(data), settings.Capture)
	result.LogMessage = fmt.Sprintf("screenshot: %d byte(s)", len(data))
	return nil
}

func handleExecuteJs(ec *Context, b block.Block, result *block.Result) error {
	settings, ok := b.Settings.(*block.ExecuteJsSettings)
	if !ok {
		return fmt.Errorf("executejs: settings type mismatch")
	}
	page, err := ec.currentPage()
	if err != nil {
		return fmt.Errorf("executejs: %w", err)
	}

	res, err := page.Eval(ec.Vars.Interpolate(settings.Script))
	if err != nil {
		return fmt.Errorf("executejs: %w", err)
	}

	ec.Vars.SetUser(settings.OutputVar, res.Value.String(), settings.Capture)
	result.LogMessage = "executejs: evaluated"
	return nil
}
