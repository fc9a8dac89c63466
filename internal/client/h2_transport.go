package client

import (
	"context"
	"crypto/tls"
	"net"
	"net/http"
	"time"

	"golang.org/x/net/http2"

	utls "github.com/refraction-networking/utls"
)

// HTTP/2 SETTINGS frame values captured from a real Chrome 120 client.
// Reference: https://datatracker.ietf.org/doc/html/rfc7540#section-6.5
const (
	chromeH2HeaderTableSize   uint32 = 65536
	chromeH2MaxHeaderListSize uint32 = 262144

	// Firefox 120 uses the same header table size as Chrome but a larger
	// MAX_HEADER_LIST_SIZE.
	firefoxH2HeaderTableSize   uint32 = 65536
	firefoxH2MaxHeaderListSize uint32 = 393216
)

// ChromePseudoHeaderOrder lists the HTTP/2 pseudo-header names in the order
// a real Chrome 120 client sends them: :method, :authority, :scheme, :path.
// golang.org/x/net/http2 writes them in its own fixed internal order; full
// wire-level fidelity here would require a patched http2 package, so this
// constant documents the target order for integrators who need it.
var ChromePseudoHeaderOrder = []string{":method", ":authority", ":scheme", ":path"}

// FirefoxPseudoHeaderOrder is Firefox's pseudo-header order:
// :method, :path, :authority, :scheme.
var FirefoxPseudoHeaderOrder = []string{":method", ":path", ":authority", ":scheme"}

// H2TransportConfig groups the tunable parameters for NewFingerprintedH2Transport.
type H2TransportConfig struct {
	// Browser selects the impersonated profile: "chrome" (default) or "firefox".
	Browser string

	// JA3, when set to a recognised alias ("chrome"/"firefox"), overrides
	// Browser for ClientHello selection — mirrors HttpRequest.ja3.
	JA3 string

	// CustomCiphers is a dash-separated IANA cipher suite id list overriding
	// the profile default.
	CustomCiphers string

	// InsecureSkipVerify disables TLS certificate verification (ssl_verify=false).
	InsecureSkipVerify bool

	IdleConnTimeout time.Duration
	PingTimeout     time.Duration
	ReadIdleTimeout time.Duration
}

// NewFingerprintedH2Transport returns an http.RoundTripper that impersonates
// the requested browser's TLS and HTTP/2 fingerprint as closely as the
// golang.org/x/net/http2 package allows:
//   - TLS handshake uses the uTLS ClientHelloSpec for the chosen profile.
//   - SETTINGS_HEADER_TABLE_SIZE / SETTINGS_MAX_HEADER_LIST_SIZE tuned per profile.
//   - DisableCompression is false so Accept-Encoding mirrors the browser.
//
// The returned transport applies the profile's OrderedHeader to every
// outgoing request before handing it to the underlying http2 layer, with
// any headers already present on the request (pipeline-declared headers)
// overlaid on top so they win over the profile defaults.
func NewFingerprintedH2Transport(cfg H2TransportConfig) http.RoundTripper {
	helloID := HelloIDForProfile(cfg.Browser, cfg.JA3)
	if cfg.IdleConnTimeout == 0 {
		cfg.IdleConnTimeout = 90 * time.Second
	}

	dialFn := UTLSDialer(helloID, cfg.CustomCiphers)

	headerTableSize, maxHeaderListSize := chromeH2HeaderTableSize, chromeH2MaxHeaderListSize
	if isFirefox(cfg.Browser, cfg.JA3) {
		headerTableSize, maxHeaderListSize = firefoxH2HeaderTableSize, firefoxH2MaxHeaderListSize
	}

	h2t := &http2.Transport{
		DialTLSContext: func(ctx context.Context, network, addr string, tlsCfg *tls.Config) (net.Conn, error) {
			if cfg.InsecureSkipVerify && tlsCfg != nil {
				tlsCfg.InsecureSkipVerify = true
			}
			return dialFn(ctx, network, addr, tlsCfg)
		},
		MaxDecoderHeaderTableSize: headerTableSize,
		MaxEncoderHeaderTableSize: headerTableSize,
		MaxHeaderListSize:         maxHeaderListSize,
		DisableCompression:        false,
		IdleConnTimeout:           cfg.IdleConnTimeout,
		PingTimeout:               cfg.PingTimeout,
		ReadIdleTimeout:           cfg.ReadIdleTimeout,
	}

	return &fingerprintedRoundTripper{h2: h2t, browser: cfg.Browser, ja3: cfg.JA3}
}

func isFirefox(browser, ja3 string) bool {
	return browser == "firefox" || ja3 == "firefox" || ja3 == "firefox120"
}

// fingerprintedRoundTripper wraps an http2.Transport and applies the
// profile's ordered headers to every request before forwarding it.
type fingerprintedRoundTripper struct {
	h2      *http2.Transport
	browser string
	ja3     string
}

// RoundTrip clones the incoming request, applies the browser-profile ordered
// headers (preserving exact capitalisation and insertion order), then
// re-applies the caller's own headers on top so pipeline-declared headers
// (e.g. Authorization, Cookie) win over the profile defaults.
func (t *fingerprintedRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	r := req.Clone(req.Context())

	browser := t.browser
	if isFirefox(t.browser, t.ja3) {
		browser = "firefox"
	}
	defaults := OrderedHeadersFor(browser)
	callerHeaders := r.Header

	defaults.ApplyToRequest(r)
	for key := range callerHeaders {
		canon := http.CanonicalHeaderKey(key)
		for k := range r.Header {
			if http.CanonicalHeaderKey(k) == canon {
				delete(r.Header, k)
			}
		}
	}
	for key, vals := range callerHeaders {
		r.Header[key] = vals
	}

	return t.h2.RoundTrip(r)
}
