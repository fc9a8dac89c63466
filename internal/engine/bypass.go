package engine

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"hash/fnv"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/ZeraTS/ironbullet-sub001/internal/block"
	"github.com/ZeraTS/ironbullet-sub001/internal/fingerprint"
	"github.com/ZeraTS/ironbullet-sub001/internal/sidecar"
)

func init() {
	register(block.TypeCaptchaSolver, handleCaptchaSolver)
	register(block.TypeCloudflareBypass, handleCloudflareBypass)
	register(block.TypeLaravelCsrf, handleLaravelCsrf)
	register(block.TypeRandomUserAgent, handleRandomUserAgent)
	register(block.TypeOcrCaptcha, handleOcrCaptcha)
	register(block.TypeRecaptchaInvisible, handleRecaptchaInvisible)
	register(block.TypeXacfSensor, handleXacfSensor)
	register(block.TypeDataDomeSensor, handleDataDomeSensor)
	register(block.TypeAkamaiV3Sensor, handleAkamaiV3Sensor)
}

// sidecarGet performs a simple GET through ec.Sender, the same transport
// every HttpRequest block uses, so a bypass handler's own traffic carries
// the session's fingerprint too.
func sidecarGet(ec *Context, url string, headers [][2]string) (sidecar.Response, error) {
	if ec.Sender == nil {
		return sidecar.Response{}, fmt.Errorf("no sidecar sender configured")
	}
	return ec.Sender.Send(contextBackground(), sidecar.Request{
		ID:      newRequestID(),
		Action:  sidecar.ActionRequest,
		Session: ec.Session,
		Method:  http.MethodGet,
		URL:     url,
		Headers: headers,
	})
}

// handleCaptchaSolver posts a create-task request to a third-party solving
// API and polls until the service reports completion or Timeout elapses.
// The services themselves (capsolver/2captcha) are external paid APIs with
// no SDK in the retrieval pack, so the exchange is driven over the same
// sidecar HTTP transport every other block uses rather than a vendor SDK.
func handleCaptchaSolver(ec *Context, b block.Block, result *block.Result) error {
	settings, ok := b.Settings.(*block.CaptchaSolverSettings)
	if !ok {
		return fmt.Errorf("captchasolver: settings type mismatch")
	}

	createBody := fmt.Sprintf(`{"clientKey":%q,"task":{"type":%q,"websiteURL":%q,"websiteKey":%q}}`,
		ec.Vars.Interpolate(settings.ApiKey), settings.CaptchaType,
		ec.Vars.Interpolate(settings.PageURL), ec.Vars.Interpolate(settings.SiteKey))

	createResp, err := ec.Sender.Send(contextBackground(), sidecar.Request{
		ID:      newRequestID(),
		Action:  sidecar.ActionRequest,
		Session: ec.Session,
		Method:  http.MethodPost,
		URL:     solverEndpoint(settings.SolverService, "createTask"),
		Headers: [][2]string{{"Content-Type", "application/json"}},
		Body:    createBody,
	})
	if err != nil {
		return fmt.Errorf("captchasolver: create task: %w", err)
	}

	var created struct {
		TaskID int `json:"taskId"`
	}
	_ = json.Unmarshal([]byte(createResp.Body), &created)

	timeout := timeoutOrDefault(settings.TimeoutMs)
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		pollResp, err := ec.Sender.Send(contextBackground(), sidecar.Request{
			ID:      newRequestID(),
			Action:  sidecar.ActionRequest,
			Session: ec.Session,
			Method:  http.MethodPost,
			URL:     solverEndpoint(settings.SolverService, "getTaskResult"),
			Headers: [][2]string{{"Content-Type", "application/json"}},
			Body:    fmt.Sprintf(`{"clientKey":%q,"taskId":%d}`, ec.Vars.Interpolate(settings.ApiKey), created.TaskID),
		})
		if err != nil {
			return fmt.Errorf("captchasolver: poll: %w", err)
		}

		var poll struct {
			Status   string `json:"status"`
			Solution struct {
				GRecaptchaResponse string `json:"gRecaptchaResponse"`
			} `json:"solution"`
		}
		_ = json.Unmarshal([]byte(pollResp.Body), &poll)
		if poll.Status == "ready" {
			ec.Vars.SetUser(settings.OutputVar, poll.Solution.GRecaptchaResponse, settings.Capture)
			result.LogMessage = "captchasolver: solved"
			return nil
		}
		time.Sleep(5 * time.Second)
	}

	return fmt.Errorf("captchasolver: timed out waiting for a solution")
}

func solverEndpoint(service, path string) string {
	switch service {
	case "2captcha":
		return "https://api.2captcha.com/" + path
	default:
		return "https://api.capsolver.com/" + path
	}
}

// handleCloudflareBypass proxies the target URL through an external
// FlareSolverr instance and extracts its solved cookie jar and resolved
// User-Agent. FlareSolverr's own HTTP API is the standard integration
// surface for this — there is no Cloudflare-bypass library in the pack to
// call instead (see DESIGN.md's internal/engine entry).
func handleCloudflareBypass(ec *Context, b block.Block, result *block.Result) error {
	settings, ok := b.Settings.(*block.CloudflareBypassSettings)
	if !ok {
		return fmt.Errorf("cloudflarebypass: settings type mismatch")
	}

	reqBody := fmt.Sprintf(`{"cmd":"request.get","url":%q,"maxTimeout":%d}`,
		ec.Vars.Interpolate(settings.URL), settings.MaxTimeoutMs)

	resp, err := ec.Sender.Send(contextBackground(), sidecar.Request{
		ID:      newRequestID(),
		Action:  sidecar.ActionRequest,
		Session: ec.Session,
		Method:  http.MethodPost,
		URL:     ec.Vars.Interpolate(settings.FlareSolverrURL),
		Headers: [][2]string{{"Content-Type", "application/json"}},
		Body:    reqBody,
	})
	if err != nil {
		return fmt.Errorf("cloudflarebypass: %w", err)
	}

	var solved struct {
		Solution struct {
			UserAgent string `json:"userAgent"`
			Cookies   []struct {
				Name  string `json:"name"`
				Value string `json:"value"`
			} `json:"cookies"`
		} `json:"solution"`
	}
	if err := json.Unmarshal([]byte(resp.Body), &solved); err != nil {
		return fmt.Errorf("cloudflarebypass: decoding flaresolverr response: %w", err)
	}

	var cookieParts []string
	for _, c := range solved.Solution.Cookies {
		cookieParts = append(cookieParts, c.Name+"="+c.Value)
	}
	ec.Vars.SetUser(settings.OutputVar, strings.Join(cookieParts, "; "), settings.Capture)
	ec.Vars.SetData("CLOUDFLARE.USERAGENT", solved.Solution.UserAgent)
	result.LogMessage = fmt.Sprintf("cloudflarebypass: solved with %d cookie(s)", len(cookieParts))
	return nil
}

// handleLaravelCsrf fetches a page and extracts a CSRF token by CSS
// selector, reading whichever of "value"/"content" the matched element
// carries, plus an optional XSRF cookie from the response jar.
func handleLaravelCsrf(ec *Context, b block.Block, result *block.Result) error {
	settings, ok := b.Settings.(*block.LaravelCsrfSettings)
	if !ok {
		return fmt.Errorf("laravelcsrf: settings type mismatch")
	}

	resp, err := sidecarGet(ec, ec.Vars.Interpolate(settings.URL), nil)
	if err != nil {
		return fmt.Errorf("laravelcsrf: %w", err)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(resp.Body))
	if err != nil {
		return fmt.Errorf("laravelcsrf: parsing page: %w", err)
	}

	sel := doc.Find(ec.Vars.Interpolate(settings.CsrfSelector)).First()
	token, exists := sel.Attr("value")
	if !exists {
		token, _ = sel.Attr("content")
	}

	ec.Vars.SetUser(settings.OutputVar, token, settings.Capture)
	if cookieName := ec.Vars.Interpolate(settings.CookieName); cookieName != "" {
		if v, ok := resp.Cookies[cookieName]; ok {
			ec.Vars.SetData(settings.OutputVar+".XSRF", v)
		}
	}
	result.LogMessage = fmt.Sprintf("laravelcsrf: token length %d", len(token))
	return nil
}

// handleRandomUserAgent picks a User-Agent per Mode and, when MatchTLS is
// set, also stamps the Execution Context's override_ja3/override_http2fp
// from the same table row so a subsequent HttpRequest block's TLS
// fingerprint and its User-Agent header describe the same browser.
func handleRandomUserAgent(ec *Context, b block.Block, result *block.Result) error {
	settings, ok := b.Settings.(*block.RandomUserAgentSettings)
	if !ok {
		return fmt.Errorf("randomuseragent: settings type mismatch")
	}

	if settings.Mode == block.UserAgentCustomList {
		lines := splitListInput(ec.Vars.Interpolate(settings.CustomList))
		if len(lines) == 0 {
			return fmt.Errorf("randomuseragent: custom list is empty")
		}
		ua := lines[mrandIntn(len(lines))]
		ec.Vars.SetUser(settings.OutputVar, ua, settings.Capture)
		result.LogMessage = "randomuseragent: picked from custom list"
		return nil
	}

	rows := fingerprint.FilterTLSProfiles(settings.BrowserFilter, settings.PlatformFilter)
	if len(rows) == 0 {
		return fmt.Errorf("randomuseragent: no TLS profile matches the given filters")
	}
	row := rows[mrandIntn(len(rows))]

	ec.Vars.SetUser(settings.OutputVar, row.UserAgent, settings.Capture)
	if settings.MatchTLS {
		ec.OverrideJA3 = row.JA3Hash
		ec.OverrideHTTP2FP = row.HTTP2Fingerprint
	}
	result.LogMessage = fmt.Sprintf("randomuseragent: %s/%s", row.Browser, row.Platform)
	return nil
}

func mrandIntn(n int) int {
	if n <= 0 {
		return 0
	}
	var b [4]byte
	_, _ = rand.Read(b[:])
	return int(binary.BigEndian.Uint32(b[:]) % uint32(n))
}

// handleOcrCaptcha decodes a base64 image from InputVar. No OCR engine
// ships in the retrieval pack (Tesseract bindings pull in cgo, which the
// rest of this module avoids) — see DESIGN.md's internal/engine entry for
// why this stays a stub that reports the unmet dependency rather than a
// silent no-op.
func handleOcrCaptcha(ec *Context, b block.Block, result *block.Result) error {
	settings, ok := b.Settings.(*block.OcrCaptchaSettings)
	if !ok {
		return fmt.Errorf("ocrcaptcha: settings type mismatch")
	}
	raw := ec.Vars.ResolveInput(settings.InputVar)
	if _, err := base64.StdEncoding.DecodeString(raw); err != nil {
		return fmt.Errorf("ocrcaptcha: input is not valid base64 image data: %w", err)
	}
	return fmt.Errorf("ocrcaptcha: no OCR engine is wired into this build")
}

// handleRecaptchaInvisible runs the anchor/reload exchange for invisible
// reCAPTCHA v2 over the sidecar transport and extracts the rresp token from
// the reload response body.
func handleRecaptchaInvisible(ec *Context, b block.Block, result *block.Result) error {
	settings, ok := b.Settings.(*block.RecaptchaInvisibleSettings)
	if !ok {
		return fmt.Errorf("recaptchainvisible: settings type mismatch")
	}

	anchorURL := fmt.Sprintf("%s?ar=1&k=%s&co=%s&hl=en&v=%s&size=%s",
		ec.Vars.Interpolate(settings.AnchorURL), ec.Vars.Interpolate(settings.SiteKey),
		ec.Vars.Interpolate(settings.Co), ec.Vars.Interpolate(settings.V), settings.Size)

	anchorResp, err := sidecarGet(ec, anchorURL, [][2]string{{"User-Agent", ec.Vars.Interpolate(settings.UserAgent)}})
	if err != nil {
		return fmt.Errorf("recaptchainvisible: anchor: %w", err)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(anchorResp.Body))
	if err != nil {
		return fmt.Errorf("recaptchainvisible: parsing anchor page: %w", err)
	}
	token, _ := doc.Find("#recaptcha-token").Attr("value")

	reloadBody := fmt.Sprintf("v=%s&reason=q&k=%s&c=%s&co=%s&size=%s",
		settings.V, settings.SiteKey, token, settings.Co, settings.Size)

	reloadResp, err := ec.Sender.Send(contextBackground(), sidecar.Request{
		ID:      newRequestID(),
		Action:  sidecar.ActionRequest,
		Session: ec.Session,
		Method:  http.MethodPost,
		URL:     ec.Vars.Interpolate(settings.ReloadURL) + "?k=" + ec.Vars.Interpolate(settings.SiteKey),
		Headers: [][2]string{{"Content-Type", "application/x-www-form-urlencoded"}},
		Body:    reloadBody,
	})
	if err != nil {
		return fmt.Errorf("recaptchainvisible: reload: %w", err)
	}

	rresp := extractBetween(reloadResp.Body, `rresp","`, `"`)
	ec.Vars.SetUser(settings.OutputVar, rresp, settings.Capture)
	result.LogMessage = fmt.Sprintf("recaptchainvisible: token length %d", len(rresp))
	return nil
}

func extractBetween(s, left, right string) string {
	li := strings.Index(s, left)
	if li == -1 {
		return ""
	}
	rest := s[li+len(left):]
	ri := strings.Index(rest, right)
	if ri == -1 {
		return ""
	}
	return rest[:ri]
}

func handleXacfSensor(ec *Context, b block.Block, result *block.Result) error {
	settings, ok := b.Settings.(*block.XacfSensorSettings)
	if !ok {
		return fmt.Errorf("xacfsensor: settings type mismatch")
	}
	payload := fingerprint.GenerateXacfSensorData(ec.Vars.Interpolate(settings.BundleID), ec.Vars.Interpolate(settings.Version))
	ec.Vars.SetUser(settings.OutputVar, payload, settings.Capture)
	result.LogMessage = "xacfsensor: generated"
	return nil
}

func handleDataDomeSensor(ec *Context, b block.Block, result *block.Result) error {
	settings, ok := b.Settings.(*block.DataDomeSensorSettings)
	if !ok {
		return fmt.Errorf("datadomesensor: settings type mismatch")
	}
	var customWasm []byte
	if b64 := settings.CustomWasmB64; b64 != "" {
		decoded, err := base64.StdEncoding.DecodeString(ec.Vars.Interpolate(b64))
		if err != nil {
			return fmt.Errorf("datadomesensor: decoding custom_wasm_b64: %w", err)
		}
		customWasm = decoded
	}

	payload, err := fingerprint.GenerateDataDomeSensor(
		ec.Vars.Interpolate(settings.SiteURL),
		ec.Vars.Interpolate(settings.CookieDataDome),
		ec.Vars.Interpolate(settings.UserAgent),
		customWasm,
	)
	if err != nil {
		return fmt.Errorf("datadomesensor: %w", err)
	}

	ec.Vars.SetUser(settings.OutputVar, payload, settings.Capture)
	result.LogMessage = "datadomesensor: generated"
	return nil
}

func handleAkamaiV3Sensor(ec *Context, b block.Block, result *block.Result) error {
	settings, ok := b.Settings.(*block.AkamaiV3SensorSettings)
	if !ok {
		return fmt.Errorf("akamaiv3sensor: settings type mismatch")
	}
	payload := ec.Vars.ResolveInput(settings.PayloadVar)
	fileHash := hashSeed(ec.Vars.Interpolate(settings.FileHash))
	cookieHash := hashSeed(ec.Vars.Interpolate(settings.CookieHash))

	var out string
	switch settings.Mode {
	case block.AkamaiV3Encrypt:
		out = fingerprint.AkamaiV3Encrypt(payload, fileHash, cookieHash)
	case block.AkamaiV3Decrypt:
		out = fingerprint.AkamaiV3Decrypt(payload, fileHash, cookieHash)
	case block.AkamaiV3ExtractCookieHash:
		out = strconv.FormatUint(fingerprint.AkamaiV3ExtractCookieHash(payload), 10)
	default:
		return fmt.Errorf("akamaiv3sensor: unknown mode %q", settings.Mode)
	}

	ec.Vars.SetUser(settings.OutputVar, out, settings.Capture)
	result.LogMessage = fmt.Sprintf("akamaiv3sensor(%s)", settings.Mode)
	return nil
}

// hashSeed accepts either a decimal uint64 literal or an arbitrary string
// (hashed with FNV-1a) as a seed, so a pipeline author can supply either a
// real extracted hash or a stable placeholder derived from a bundle/file name.
func hashSeed(s string) uint64 {
	if n, err := strconv.ParseUint(s, 10, 64); err == nil {
		return n
	}
	h := fnv.New64a()
	h.Write([]byte(s))
	return h.Sum64()
}
