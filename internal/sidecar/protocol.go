// Package sidecar implements the correlated request/response IPC layer
// over a child process's stdio (the "fingerprinting" transport) and an
// in-process fallback with identical wire semantics (the "debug" / non-
// fingerprinting transport). Callers address either backend through the
// same Sender interface.
package sidecar

// Request is one SidecarRequest document, identical in shape whether it
// crosses a pipe to a child process or stays in-process.
type Request struct {
	ID              string     `json:"id"`
	Action          string     `json:"action"` // request | new_session | close_session | clear_cookies
	Session         string     `json:"session"`
	Method          string     `json:"method,omitempty"`
	URL             string     `json:"url,omitempty"`
	// Headers: for new_session, a "Cookie" entry seeds the freshly opened
	// session's jar instead of being sent on a round trip.
	Headers         [][2]string `json:"headers,omitempty"`
	Body            string     `json:"body,omitempty"`
	TimeoutMs       int64      `json:"timeout,omitempty"`
	Proxy           string     `json:"proxy,omitempty"`
	Browser         string     `json:"browser,omitempty"`
	JA3             string     `json:"ja3,omitempty"`
	HTTP2FP         string     `json:"http2fp,omitempty"`
	FollowRedirects *bool      `json:"follow_redirects,omitempty"`
	MaxRedirects    *int64     `json:"max_redirects,omitempty"`
	SSLVerify       *bool      `json:"ssl_verify,omitempty"`
	CustomCiphers   string     `json:"custom_ciphers,omitempty"`
}

// Response is one SidecarResponse document.
type Response struct {
	ID         string            `json:"id"`
	Status     int               `json:"status"`
	Headers    map[string]string `json:"headers,omitempty"`
	Body       string            `json:"body"`
	Cookies    map[string]string `json:"cookies,omitempty"`
	FinalURL   string            `json:"final_url"`
	Error      string            `json:"error,omitempty"`
	TimingMs   int64             `json:"timing_ms"`
}

// Action values accepted in Request.Action.
const (
	ActionRequest       = "request"
	ActionNewSession    = "new_session"
	ActionCloseSession  = "close_session"
	ActionClearCookies  = "clear_cookies"
)

// pending is the correlation table's value type: the one-shot reply
// channel a caller blocks on.
type pending = chan Response
