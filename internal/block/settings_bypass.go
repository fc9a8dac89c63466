package block

// CaptchaSolverSettings posts a create-task request to a third-party
// solving API and polls getTaskResult every 5 seconds until Timeout or the
// service reports "ready".
type CaptchaSolverSettings struct {
	SolverService string // "capsolver" | "2captcha"
	CaptchaType   string // "RecaptchaV2" | "RecaptchaV3" | "HCaptcha"
	ApiKey        string
	SiteKey       string
	PageURL       string
	TimeoutMs     int64
	OutputVar     string
	Capture       bool
}

func (CaptchaSolverSettings) blockSettings() {}

// CloudflareBypassSettings proxies the request through an external
// FlareSolverr instance and extracts the solved cookie jar + resolved
// User-Agent.
type CloudflareBypassSettings struct {
	URL             string
	FlareSolverrURL string
	MaxTimeoutMs    int64
	OutputVar       string
	Capture         bool
}

func (CloudflareBypassSettings) blockSettings() {}

// LaravelCsrfSettings fetches a page and extracts a CSRF token by CSS
// selector (reading the "value" or "content" attribute), plus an optional
// XSRF cookie.
type LaravelCsrfSettings struct {
	URL          string
	CsrfSelector string
	CookieName   string
	TimeoutMs    int64
	OutputVar    string
	Capture      bool
}

func (LaravelCsrfSettings) blockSettings() {}

// UserAgentMode selects how RandomUserAgent picks a value.
type UserAgentMode string

const (
	UserAgentCustomList UserAgentMode = "CustomList"
	UserAgentRandom     UserAgentMode = "Random"
)

// RandomUserAgentSettings picks a User-Agent and, when MatchTLS is set,
// also sets the Execution Context's override_ja3/override_http2fp from the
// matching row of the built-in TLS profile table so the fingerprint and the
// UA stay internally consistent (spec.md §4.C).
type RandomUserAgentSettings struct {
	Mode           UserAgentMode
	CustomList     string // newline-delimited, used when Mode == CustomList
	BrowserFilter  []string
	PlatformFilter []string
	MatchTLS       bool
	OutputVar      string
	Capture        bool
}

func (RandomUserAgentSettings) blockSettings() {}

// OcrCaptchaSettings decodes a base64 image from InputVar and runs local
// OCR over it.
type OcrCaptchaSettings struct {
	InputVar  string
	Language  string
	Psm       int
	Whitelist string
	OutputVar string
	Capture   bool
}

func (OcrCaptchaSettings) blockSettings() {}

// RecaptchaInvisibleSettings runs the anchor/reload exchange for invisible
// reCAPTCHA v2 and extracts the rresp token.
type RecaptchaInvisibleSettings struct {
	AnchorURL string
	ReloadURL string
	UserAgent string
	V         string
	SiteKey   string
	Co        string
	Size      string
	OutputVar string
	Capture   bool
}

func (RecaptchaInvisibleSettings) blockSettings() {}

// XacfSensorSettings generates a synthetic XACF sensor payload for a given
// bundle/version pair.
type XacfSensorSettings struct {
	BundleID  string
	Version   string
	OutputVar string
	Capture   bool
}

func (XacfSensorSettings) blockSettings() {}

// DataDomeSensorSettings generates a DataDome interstitial-challenge sensor
// payload, optionally seeded from a custom WASM module.
type DataDomeSensorSettings struct {
	SiteURL       string
	CookieDataDome string
	UserAgent     string
	CustomWasmB64 string
	OutputVar     string
	Capture       bool
}

func (DataDomeSensorSettings) blockSettings() {}
