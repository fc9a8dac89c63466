package engine

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/ZeraTS/ironbullet-sub001/internal/block"
	"github.com/ZeraTS/ironbullet-sub001/internal/sidecar"
)

func init() {
	register(block.TypeKeyCheck, handleKeyCheck)
	register(block.TypeIfElse, handleIfElse)
	register(block.TypeLoop, handleLoop)
	register(block.TypeGroup, handleGroup)
	register(block.TypeDelay, handleDelay)
	register(block.TypeScript, handleScript)
	register(block.TypeLog, handleLog)
	register(block.TypeSetVariable, handleSetVariable)
	register(block.TypeClearCookies, handleClearCookies)
	register(block.TypeCaseSwitch, handleCaseSwitch)
	register(block.TypeConstants, handleConstants)
	register(block.TypeCookieContainer, handleCookieContainer)
}

// handleKeyCheck evaluates ordered keychains, first-match-wins, and sets
// ec.Status to the first one whose OR-combined conditions fire.
func handleKeyCheck(ec *Context, b block.Block, result *block.Result) error {
	settings, ok := b.Settings.(*block.KeyCheckSettings)
	if !ok {
		return fmt.Errorf("keycheck: settings type mismatch")
	}
	for _, kc := range settings.Keychains {
		if anyConditionMatches(ec, kc.Conditions) {
			ec.Status = Status(kc.Status)
			result.LogMessage = fmt.Sprintf("keycheck matched -> %s", kc.Status)
			return nil
		}
	}
	return nil
}

func handleIfElse(ec *Context, b block.Block, result *block.Result) error {
	settings, ok := b.Settings.(*block.IfElseSettings)
	if !ok {
		return fmt.Errorf("ifelse: settings type mismatch")
	}
	branch := settings.FalseBlocks
	taken := "false"
	if evalCondition(ec, settings.Condition) {
		branch = settings.TrueBlocks
		taken = "true"
	}
	result.LogMessage = fmt.Sprintf("ifelse -> %s branch (%d blocks)", taken, len(branch))
	return ExecuteBlocks(ec, branch)
}

func handleLoop(ec *Context, b block.Block, result *block.Result) error {
	settings, ok := b.Settings.(*block.LoopSettings)
	if !ok {
		return fmt.Errorf("loop: settings type mismatch")
	}

	switch settings.Kind {
	case block.LoopForEach:
		items, err := loopItems(ec, settings.ListVar)
		if err != nil {
			return err
		}
		for _, item := range items {
			ec.Vars.SetUser(settings.ItemVar, item, false)
			if err := ExecuteBlocks(ec, settings.Body); err != nil {
				return err
			}
			if ec.Status != StatusNone {
				break
			}
		}
		result.LogMessage = fmt.Sprintf("foreach over %d items", len(items))
	case block.LoopRepeat:
		for i := 0; i < settings.Count; i++ {
			if err := ExecuteBlocks(ec, settings.Body); err != nil {
				return err
			}
			if ec.Status != StatusNone {
				break
			}
		}
		result.LogMessage = fmt.Sprintf("repeat %d times", settings.Count)
	default:
		return fmt.Errorf("loop: unknown kind %q", settings.Kind)
	}
	return nil
}

// loopItems reads list_var as either a JSON array of strings or, failing
// that, a single scalar bound to one iteration.
func loopItems(ec *Context, listVar string) ([]string, error) {
	raw := ec.Vars.ResolveInput(listVar)
	if raw == "" {
		return nil, nil
	}
	var arr []string
	if err := json.Unmarshal([]byte(raw), &arr); err == nil {
		return arr, nil
	}
	var anyArr []interface{}
	if err := json.Unmarshal([]byte(raw), &anyArr); err == nil {
		out := make([]string, len(anyArr))
		for i, v := range anyArr {
			out[i] = fmt.Sprintf("%v", v)
		}
		return out, nil
	}
	return []string{raw}, nil
}

func handleGroup(ec *Context, b block.Block, result *block.Result) error {
	settings, ok := b.Settings.(*block.GroupSettings)
	if !ok {
		return fmt.Errorf("group: settings type mismatch")
	}
	result.LogMessage = fmt.Sprintf("group (%d blocks)", len(settings.Body))
	return ExecuteBlocks(ec, settings.Body)
}

func handleDelay(ec *Context, b block.Block, result *block.Result) error {
	settings, ok := b.Settings.(*block.DelaySettings)
	if !ok {
		return fmt.Errorf("delay: settings type mismatch")
	}
	min, max := settings.MinMs, settings.MaxMs
	if max < min {
		max = min
	}
	d := min
	if max > min {
		d = min + rand.Int63n(max-min+1) // #nosec G404
	}
	time.Sleep(time.Duration(d) * time.Millisecond)
	result.LogMessage = fmt.Sprintf("delayed %dms", d)
	return nil
}

// handleScript is a no-op placeholder carrying free-form text per spec.md
// ("codegen uses it") — it does not evaluate settings.Text as JS. A block
// that needs actual JS evaluation goes through internal/jschallenge
// directly (e.g. a bypass handler), not through this block kind.
func handleScript(ec *Context, b block.Block, result *block.Result) error {
	_, ok := b.Settings.(*block.ScriptSettings)
	if !ok {
		return fmt.Errorf("script: settings type mismatch")
	}
	result.LogMessage = "script block (no-op placeholder)"
	return nil
}

func handleLog(ec *Context, b block.Block, result *block.Result) error {
	settings, ok := b.Settings.(*block.LogSettings)
	if !ok {
		return fmt.Errorf("log: settings type mismatch")
	}
	result.LogMessage = ec.Vars.Interpolate(settings.Message)
	return nil
}

func handleSetVariable(ec *Context, b block.Block, result *block.Result) error {
	settings, ok := b.Settings.(*block.SetVariableSettings)
	if !ok {
		return fmt.Errorf("setvariable: settings type mismatch")
	}
	value := ec.Vars.Interpolate(settings.Value)
	ec.Vars.SetUser(settings.Name, value, settings.Capture)
	result.LogMessage = fmt.Sprintf("%s = %s", settings.Name, value)
	return nil
}

func handleClearCookies(ec *Context, b block.Block, result *block.Result) error {
	if ec.Sender == nil {
		return fmt.Errorf("clearcookies: no sidecar sender configured")
	}
	_, err := ec.Sender.Send(contextBackground(), sidecar.Request{
		ID:      newRequestID(),
		Action:  sidecar.ActionClearCookies,
		Session: ec.Session,
	})
	if err != nil {
		return fmt.Errorf("clearcookies: %w", err)
	}
	result.LogMessage = "cleared cookies"
	return nil
}

func handleCaseSwitch(ec *Context, b block.Block, result *block.Result) error {
	settings, ok := b.Settings.(*block.CaseSwitchSettings)
	if !ok {
		return fmt.Errorf("caseswitch: settings type mismatch")
	}
	source := ec.Vars.Interpolate(settings.Source)
	for _, c := range settings.Cases {
		if source == ec.Vars.Interpolate(c.Match) {
			result.LogMessage = fmt.Sprintf("caseswitch -> %q", c.Match)
			return ExecuteBlocks(ec, c.Body)
		}
	}
	result.LogMessage = "caseswitch -> default"
	return ExecuteBlocks(ec, settings.Default)
}

func handleConstants(ec *Context, b block.Block, result *block.Result) error {
	settings, ok := b.Settings.(*block.ConstantsSettings)
	if !ok {
		return fmt.Errorf("constants: settings type mismatch")
	}
	for _, v := range settings.Values {
		ec.Vars.SetUser(v.Name, ec.Vars.Interpolate(v.Value), v.Capture)
	}
	result.LogMessage = fmt.Sprintf("set %d constants", len(settings.Values))
	return nil
}

// handleCookieContainer snapshots or restores the session's cookie jar
// to/from a named user variable, in the same "name=value; ..." format
// SOURCE.COOKIES is written in. Restoring replays the dump as a Cookie
// header on a new_session request (the sidecar owns the real jar; this
// block can only ask it to adopt state, not reach into its internals
// directly).
func handleCookieContainer(ec *Context, b block.Block, result *block.Result) error {
	settings, ok := b.Settings.(*block.CookieContainerSettings)
	if !ok {
		return fmt.Errorf("cookiecontainer: settings type mismatch")
	}
	switch settings.Mode {
	case "get":
		raw, _ := ec.Vars.Get("SOURCE.COOKIES")
		ec.Vars.SetUser(settings.OutputVar, raw, settings.Capture)
		result.LogMessage = "read cookie jar into " + settings.OutputVar
		return nil
	case "set":
		if ec.Sender == nil {
			return fmt.Errorf("cookiecontainer: no sidecar sender configured")
		}
		dump := normalizeCookieDump(ec.Vars.ResolveInput(settings.Value))
		_, err := ec.Sender.Send(contextBackground(), sidecar.Request{
			ID:      newRequestID(),
			Action:  sidecar.ActionNewSession,
			Session: ec.Session,
			Headers: [][2]string{{"Cookie", dump}},
		})
		if err != nil {
			return fmt.Errorf("cookiecontainer: restore: %w", err)
		}
		result.LogMessage = fmt.Sprintf("restored cookie jar (%d bytes)", len(dump))
		return nil
	default:
		return fmt.Errorf("cookiecontainer: unknown mode %q", settings.Mode)
	}
}

// normalizeCookieDump accepts "name=value" pairs separated by newlines,
// semicolons, or both (SOURCE.COOKIES' own "; "-joined form round-trips
// unchanged) and folds them into a single "; "-joined Cookie header value.
func normalizeCookieDump(dump string) string {
	fields := strings.FieldsFunc(dump, func(r rune) bool { return r == '\n' || r == ';' })
	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		if f = strings.TrimSpace(f); f != "" {
			parts = append(parts, f)
		}
	}
	return strings.Join(parts, "; ")
}
