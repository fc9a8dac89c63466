package client

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"strconv"
	"strings"

	utls "github.com/refraction-networking/utls"
)

// UTLSDialer returns a DialTLSContext-compatible function that performs the
// TLS handshake using uTLS, impersonating the browser fingerprint described
// by helloID. customCiphers, when non-empty, is a dash-separated list of
// IANA cipher suite ids (e.g. "4865-4866-4867-49195") overriding the
// profile's default cipher order — a pipeline's HttpRequest.custom_ciphers
// field threads straight through to here.
func UTLSDialer(helloID utls.ClientHelloID, customCiphers string) func(ctx context.Context, network, addr string, tlsCfg *tls.Config) (net.Conn, error) {
	return func(ctx context.Context, network, addr string, tlsCfg *tls.Config) (net.Conn, error) {
		host, _, err := net.SplitHostPort(addr)
		if err != nil {
			return nil, fmt.Errorf("utls dialer: parse addr %q: %w", addr, err)
		}
		sni := host
		if tlsCfg != nil && tlsCfg.ServerName != "" {
			sni = tlsCfg.ServerName
		}

		var d net.Dialer
		rawConn, err := d.DialContext(ctx, network, addr)
		if err != nil {
			return nil, fmt.Errorf("utls dialer: dial %s: %w", addr, err)
		}

		uCfg := &utls.Config{
			ServerName:         sni,
			InsecureSkipVerify: tlsCfg != nil && tlsCfg.InsecureSkipVerify, // #nosec G402 – caller-controlled via ssl_verify
		}

		uConn := utls.UClient(rawConn, uCfg, helloID)

		spec := buildClientHelloSpec(helloID)
		if customCiphers != "" {
			if suites, err := parseCipherList(customCiphers); err == nil {
				spec.CipherSuites = suites
			}
		}
		if err := uConn.ApplyPreset(&spec); err != nil {
			_ = rawConn.Close()
			return nil, fmt.Errorf("utls dialer: apply preset for %s: %w", helloID.Str(), err)
		}

		if err := uConn.HandshakeContext(ctx); err != nil {
			_ = uConn.Close()
			return nil, fmt.Errorf("utls dialer: TLS handshake with %s: %w", addr, err)
		}

		return uConn, nil
	}
}

// UTLSDialerHTTP1 mirrors UTLSDialer for http.Transport.DialTLSContext,
// which does not receive a *tls.Config argument.
func UTLSDialerHTTP1(helloID utls.ClientHelloID, customCiphers string) func(ctx context.Context, network, addr string) (net.Conn, error) {
	inner := UTLSDialer(helloID, customCiphers)
	return func(ctx context.Context, network, addr string) (net.Conn, error) {
		return inner(ctx, network, addr, nil)
	}
}

// parseCipherList parses a dash-separated list of decimal IANA cipher suite
// ids into uTLS's uint16 form.
func parseCipherList(s string) ([]uint16, error) {
	parts := strings.Split(s, "-")
	out := make([]uint16, 0, len(parts))
	for _, p := range parts {
		n, err := strconv.ParseUint(strings.TrimSpace(p), 10, 16)
		if err != nil {
			return nil, fmt.Errorf("parse cipher id %q: %w", p, err)
		}
		out = append(out, uint16(n))
	}
	return out, nil
}

// HelloIDForProfile maps a pipeline-facing browser selector ("chrome",
// "firefox", or a raw JA3 string) to a uTLS ClientHelloID. An explicit ja3
// string, when recognised, takes precedence over the browser name — this
// mirrors the HttpRequest block's override_ja3 semantics.
func HelloIDForProfile(browser, ja3 string) utls.ClientHelloID {
	switch strings.ToLower(ja3) {
	case "chrome", "chrome120":
		return utls.HelloChrome_120
	case "firefox", "firefox120":
		return utls.HelloFirefox_120
	}
	switch strings.ToLower(browser) {
	case "firefox":
		return utls.HelloFirefox_120
	default:
		return utls.HelloChrome_120
	}
}

// buildClientHelloSpec returns the ClientHelloSpec for the given helloID.
// Recognised Chrome/Firefox ids return the full parrot spec (GREASE
// placeholders, cipher-suite list, extension order) straight from uTLS;
// any other id falls back to the library's own default spec.
func buildClientHelloSpec(helloID utls.ClientHelloID) utls.ClientHelloSpec {
	switch helloID {
	case utls.HelloChrome_120,
		utls.HelloChrome_120_PQ,
		utls.HelloChrome_131,
		utls.HelloChrome_Auto,
		utls.HelloFirefox_120,
		utls.HelloFirefox_105,
		utls.HelloFirefox_102:
		spec, err := utls.UTLSIdToSpec(helloID)
		if err == nil {
			return spec
		}
	}
	return utls.ClientHelloSpec{}
}
