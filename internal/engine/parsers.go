package engine

import (
	"encoding/json"
	"fmt"
	"net/http"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/antchfx/htmlquery"
	"github.com/ZeraTS/ironbullet-sub001/internal/block"
	"github.com/ZeraTS/ironbullet-sub001/internal/jschallenge"
)

func init() {
	register(block.TypeParse, handleParse)
	register(block.TypeParseLR, handleParseLR)
	register(block.TypeParseRegex, handleParseRegex)
	register(block.TypeParseJSON, handleParseJSON)
	register(block.TypeParseCSS, handleParseCSS)
	register(block.TypeParseXPath, handleParseXPath)
	register(block.TypeParseCookie, handleParseCookie)
}

// handleParse dispatches on ParseSettings.Mode — the unified variant that
// replaced the teacher's one-handler-per-mode layout, per spec.md §4.C's
// Parse family note that Mode selects behavior identical to the legacy
// per-mode block kinds kept for .rfx backward compatibility.
func handleParse(ec *Context, b block.Block, result *block.Result) error {
	settings, ok := b.Settings.(*block.ParseSettings)
	if !ok {
		return fmt.Errorf("parse: settings type mismatch")
	}
	switch settings.Mode {
	case block.ParseModeLR:
		return runParseLR(ec, settings, result)
	case block.ParseModeRegex:
		return runParseRegex(ec, settings, result)
	case block.ParseModeJSON:
		return runParseJSON(ec, settings, result)
	case block.ParseModeCSS:
		return runParseCSS(ec, settings, result)
	case block.ParseModeXPath:
		return runParseXPath(ec, settings, result)
	case block.ParseModeCookie:
		return runParseCookie(ec, settings, result)
	case block.ParseModeLambda:
		return runParseLambda(ec, settings, result)
	default:
		return fmt.Errorf("parse: unknown mode %q", settings.Mode)
	}
}

// The legacy TypeParseXxx variants share ParseSettings and just force Mode,
// so a .rfx document saved by an older pipeline still dispatches correctly.
func handleParseLR(ec *Context, b block.Block, result *block.Result) error {
	return dispatchLegacyParse(ec, b, result, block.ParseModeLR)
}
func handleParseRegex(ec *Context, b block.Block, result *block.Result) error {
	return dispatchLegacyParse(ec, b, result, block.ParseModeRegex)
}
func handleParseJSON(ec *Context, b block.Block, result *block.Result) error {
	return dispatchLegacyParse(ec, b, result, block.ParseModeJSON)
}
func handleParseCSS(ec *Context, b block.Block, result *block.Result) error {
	return dispatchLegacyParse(ec, b, result, block.ParseModeCSS)
}
func handleParseXPath(ec *Context, b block.Block, result *block.Result) error {
	return dispatchLegacyParse(ec, b, result, block.ParseModeXPath)
}
func handleParseCookie(ec *Context, b block.Block, result *block.Result) error {
	return dispatchLegacyParse(ec, b, result, block.ParseModeCookie)
}

func dispatchLegacyParse(ec *Context, b block.Block, result *block.Result, mode block.ParseMode) error {
	settings, ok := b.Settings.(*block.ParseSettings)
	if !ok {
		return fmt.Errorf("%s: settings type mismatch", mode)
	}
	settings.Mode = mode
	return handleParse(ec, b, result)
}

func parseInput(ec *Context, settings *block.ParseSettings) string {
	return ec.Vars.ResolveInput(settings.InputVar)
}

func storeParseOutput(ec *Context, settings *block.ParseSettings, value string) {
	ec.Vars.SetUser(settings.OutputVar, value, settings.Capture)
}

// runParseLR extracts the text between LeftDelim and RightDelim. With
// Recursive it repeats over every non-overlapping match and stores them as a
// JSON array literal instead of a single string.
func runParseLR(ec *Context, settings *block.ParseSettings, result *block.Result) error {
	input := parseInput(ec, settings)
	left := ec.Vars.Interpolate(settings.LeftDelim)
	right := ec.Vars.Interpolate(settings.RightDelim)
	if left == "" || right == "" {
		return fmt.Errorf("parse(lr): left/right delimiter must not be empty")
	}

	matches := []string{}
	cursor := input
	for {
		li := strings.Index(cursor, left)
		if li == -1 {
			break
		}
		rest := cursor[li+len(left):]
		ri := strings.Index(rest, right)
		if ri == -1 {
			break
		}
		matches = append(matches, rest[:ri])
		if !settings.Recursive {
			break
		}
		cursor = rest[ri+len(right):]
	}

	if settings.Recursive {
		arr, err := json.Marshal(matches)
		if err != nil {
			return fmt.Errorf("parse(lr): %w", err)
		}
		storeParseOutput(ec, settings, string(arr))
	} else {
		out := ""
		if len(matches) > 0 {
			out = matches[0]
		}
		storeParseOutput(ec, settings, out)
	}
	result.LogMessage = fmt.Sprintf("parse(lr): %d match(es)", len(matches))
	return nil
}

// runParseRegex applies Pattern and renders OutputFormat with $1..$9 group
// references, once per match when Recursive.
func runParseRegex(ec *Context, settings *block.ParseSettings, result *block.Result) error {
	input := parseInput(ec, settings)
	pattern := ec.Vars.Interpolate(settings.Pattern)
	re, err := regexp.Compile(pattern)
	if err != nil {
		return fmt.Errorf("parse(regex): %w", err)
	}

	format := settings.OutputFormat
	if format == "" {
		format = "$1"
	}

	var matches [][]string
	if settings.Recursive {
		matches = re.FindAllStringSubmatch(input, -1)
	} else if m := re.FindStringSubmatch(input); m != nil {
		matches = [][]string{m}
	}

	out := make([]string, 0, len(matches))
	for _, m := range matches {
		out = append(out, renderGroupFormat(format, m))
	}

	storeParseOutput(ec, settings, strings.Join(out, "\n"))
	result.LogMessage = fmt.Sprintf("parse(regex): %d match(es)", len(out))
	return nil
}

func renderGroupFormat(format string, groups []string) string {
	out := format
	for i := len(groups) - 1; i >= 1; i-- {
		out = strings.ReplaceAll(out, "$"+strconv.Itoa(i), groups[i])
	}
	return out
}

// runParseJSON walks a dotted/bracketed Path ("a.b[0].c") over the decoded
// input document.
func runParseJSON(ec *Context, settings *block.ParseSettings, result *block.Result) error {
	input := parseInput(ec, settings)
	var doc interface{}
	if err := json.Unmarshal([]byte(input), &doc); err != nil {
		return fmt.Errorf("parse(json): %w", err)
	}
	value, err := jsonPathLookup(doc, ec.Vars.Interpolate(settings.Path))
	if err != nil {
		return fmt.Errorf("parse(json): %w", err)
	}
	storeParseOutput(ec, settings, jsonValueToString(value))
	result.LogMessage = "parse(json): ok"
	return nil
}

func jsonPathLookup(doc interface{}, path string) (interface{}, error) {
	cur := doc
	for _, segment := range strings.Split(path, ".") {
		if segment == "" {
			continue
		}
		key, indices := splitBracketIndices(segment)
		if key != "" {
			m, ok := cur.(map[string]interface{})
			if !ok {
				return nil, fmt.Errorf("%q is not an object", key)
			}
			v, ok := m[key]
			if !ok {
				return nil, fmt.Errorf("missing key %q", key)
			}
			cur = v
		}
		for _, idx := range indices {
			arr, ok := cur.([]interface{})
			if !ok || idx < 0 || idx >= len(arr) {
				return nil, fmt.Errorf("index %d out of range", idx)
			}
			cur = arr[idx]
		}
	}
	return cur, nil
}

func splitBracketIndices(segment string) (string, []int) {
	key := segment
	var indices []int
	for {
		open := strings.IndexByte(key, '[')
		if open == -1 {
			break
		}
		close := strings.IndexByte(key[open:], ']')
		if close == -1 {
			break
		}
		close += open
		idx, err := strconv.Atoi(key[open+1 : close])
		if err == nil {
			indices = append(indices, idx)
		}
		key = key[:open] + key[close+1:]
	}
	return key, indices
}

func jsonValueToString(v interface{}) string {
	switch t := v.(type) {
	case string:
		return t
	case nil:
		return ""
	default:
		b, err := json.Marshal(t)
		if err != nil {
			return fmt.Sprintf("%v", t)
		}
		return string(b)
	}
}

// runParseCSS selects elements with Selector and reads Attr ("" means text
// content), joining multiple matches with a newline.
func runParseCSS(ec *Context, settings *block.ParseSettings, result *block.Result) error {
	input := parseInput(ec, settings)
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(input))
	if err != nil {
		return fmt.Errorf("parse(css): %w", err)
	}

	sel := ec.Vars.Interpolate(settings.Selector)
	attr := ec.Vars.Interpolate(settings.Attr)

	var out []string
	doc.Find(sel).Each(func(_ int, s *goquery.Selection) {
		if attr == "" {
			out = append(out, strings.TrimSpace(s.Text()))
			return
		}
		if v, ok := s.Attr(attr); ok {
			out = append(out, v)
		}
	})

	storeParseOutput(ec, settings, strings.Join(out, "\n"))
	result.LogMessage = fmt.Sprintf("parse(css): %d match(es)", len(out))
	return nil
}

// runParseXPath evaluates a real XPath expression via antchfx/htmlquery,
// reading either an attribute value (when Attr is set) or the matched
// node's text content for every matching node, joined with a newline.
func runParseXPath(ec *Context, settings *block.ParseSettings, result *block.Result) error {
	input := parseInput(ec, settings)
	doc, err := htmlquery.Parse(strings.NewReader(input))
	if err != nil {
		return fmt.Errorf("parse(xpath): %w", err)
	}

	path := ec.Vars.Interpolate(settings.Path)
	nodes, err := htmlquery.QueryAll(doc, path)
	if err != nil {
		return fmt.Errorf("parse(xpath): %w", err)
	}

	attr := ec.Vars.Interpolate(settings.Attr)
	out := make([]string, 0, len(nodes))
	for _, n := range nodes {
		if attr != "" {
			out = append(out, htmlquery.SelectAttr(n, attr))
			continue
		}
		out = append(out, strings.TrimSpace(htmlquery.InnerText(n)))
	}

	storeParseOutput(ec, settings, strings.Join(out, "\n"))
	result.LogMessage = fmt.Sprintf("parse(xpath): %d match(es)", len(out))
	return nil
}

// runParseCookie reads one cookie by name out of a Set-Cookie-style header
// blob (the input is expected to be a "k=v; k2=v2" jar dump, matching
// SOURCE.COOKIES' format — see http.go's writeHttpResultVars).
func runParseCookie(ec *Context, settings *block.ParseSettings, result *block.Result) error {
	input := parseInput(ec, settings)
	name := ec.Vars.Interpolate(settings.CookieName)
	header := http.Header{}
	header.Add("Cookie", input)
	req := &http.Request{Header: header}
	for _, c := range req.Cookies() {
		if c.Name == name {
			storeParseOutput(ec, settings, c.Value)
			result.LogMessage = fmt.Sprintf("parse(cookie): found %q", name)
			return nil
		}
	}
	storeParseOutput(ec, settings, "")
	result.LogMessage = fmt.Sprintf("parse(cookie): %q not found", name)
	return nil
}

// runParseLambda evaluates LambdaExpr as a JS expression with the resolved
// input bound to a "value" variable.
func runParseLambda(ec *Context, settings *block.ParseSettings, result *block.Result) error {
	input := parseInput(ec, settings)
	solver, err := jschallenge.NewOttoSolver("", nil)
	if err != nil {
		return fmt.Errorf("parse(lambda): %w", err)
	}
	solver.SetVar("value", input)
	out, err := solver.Eval(ec.Vars.Interpolate(settings.LambdaExpr))
	if err != nil {
		return fmt.Errorf("parse(lambda): %w", err)
	}
	storeParseOutput(ec, settings, out)
	result.LogMessage = "parse(lambda): ok"
	return nil
}
