// Package client builds fingerprinted HTTP clients for the sidecar's
// in-process transport: uTLS ClientHello impersonation plus an HTTP/2
// transport with tuned SETTINGS and ordered, cased headers, so an
// HttpRequest block's protocol semantics are identical whether it is
// dispatched through the child-process sidecar or this in-process backend.
package client

import (
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"time"
)

// defaultPool groups connection-pool knobs set once at construction.
var defaultPool = struct {
	maxIdleConns        int
	maxIdleConnsPerHost int
	maxConnsPerHost     int
}{
	maxIdleConns:        500,
	maxIdleConnsPerHost: 100,
	maxConnsPerHost:     200,
}

// Options mirrors the subset of a SidecarRequest that determines how the
// in-process transport builds its client: browser/JA3 fingerprint, proxy,
// TLS verification, and cipher override.
type Options struct {
	Browser       string // "chrome" (default) or "firefox"
	JA3           string
	HTTP2FP       string
	Proxy         string
	Timeout       time.Duration
	SSLVerify     bool // HTTP/2 path: false skips certificate verification; the HTTP/1.1 path always verifies
	CustomCiphers string
	UseHTTP2      bool
}

// NewClient constructs an *http.Client using the fingerprinted transport
// selected by opts. Each session gets its own transport and cookie jar so
// thousands of concurrent sessions never contend on a shared connection
// pool or leak cookies across each other.
func NewClient(opts Options) (*http.Client, error) {
	transport, err := NewRoundTripper(opts)
	if err != nil {
		return nil, err
	}

	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("client: create cookie jar: %w", err)
	}

	return &http.Client{
		Transport: transport,
		Jar:       jar,
		Timeout:   opts.Timeout,
	}, nil
}

// NewRoundTripper builds the bare http.RoundTripper for opts without a
// cookie jar or timeout wrapper — used by the sidecar's in-process backend,
// which manages its own per-session cookie jar (see internal/sidecar).
func NewRoundTripper(opts Options) (http.RoundTripper, error) {
	if opts.UseHTTP2 {
		return NewFingerprintedH2Transport(H2TransportConfig{
			Browser:            opts.Browser,
			JA3:                opts.JA3,
			CustomCiphers:      opts.CustomCiphers,
			InsecureSkipVerify: !opts.SSLVerify,
		}), nil
	}

	t, err := buildHTTP1Transport(opts)
	if err != nil {
		return nil, err
	}
	return t, nil
}

// buildHTTP1Transport creates an *http.Transport tuned for high-concurrency
// use, with uTLS wired into DialTLSContext so even the HTTP/1.1 path
// carries the browser's TLS fingerprint.
func buildHTTP1Transport(opts Options) (*http.Transport, error) {
	helloID := HelloIDForProfile(opts.Browser, opts.JA3)

	t := &http.Transport{
		DisableKeepAlives:     false,
		MaxIdleConns:          defaultPool.maxIdleConns,
		MaxIdleConnsPerHost:   defaultPool.maxIdleConnsPerHost,
		MaxConnsPerHost:       defaultPool.maxConnsPerHost,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		DialTLSContext:        UTLSDialerHTTP1(helloID, opts.CustomCiphers),
	}

	if opts.Proxy != "" {
		proxyURL, err := url.Parse(opts.Proxy)
		if err != nil {
			return nil, fmt.Errorf("client: parse proxy URL %q: %w", opts.Proxy, err)
		}
		t.Proxy = http.ProxyURL(proxyURL)
	}

	return t, nil
}
