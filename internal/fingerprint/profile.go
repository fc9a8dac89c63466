// Package fingerprint manufactures the opaque, plausible-looking payloads
// the bypass block family writes into user variables (Akamai V3, XACF,
// DataDome) and holds the built-in browser/TLS profile table that the
// RandomUserAgent block's match_tls mode samples from.
//
// The actual ClientHello and HTTP/2 SETTINGS impersonation lives in
// internal/client (it dials with uTLS, which this package does not touch
// directly); what lives here is the catalogue of browser identities — User-
// Agent, JA3/HTTP2 identifiers, ordered header set — a worker picks one row
// from, so every signal a target site can observe (TLS hello, header order,
// User-Agent) stays mutually consistent for the lifetime of that session.
package fingerprint

// Header is an ordered name-value pair describing one default header a
// BrowserHeaders call adds, in declared order.
type Header struct {
	Name  string
	Value string
}

// BrowserHeaders returns the default header set (name, value, in send
// order) for browser ("chrome" or "firefox"); unknown names fall back to
// Chrome. This mirrors internal/client's OrderedHeadersFor table so a
// RandomUserAgent row and the transport that eventually sends the request
// agree on both the TLS identity and the header shape, without
// internal/fingerprint importing internal/client (internal/client's HTTP/2
// transport calls OrderedHeadersFor itself). "Firefox", the spelling a
// TLSProfile row carries, is accepted as well.
func BrowserHeaders(browser string) []Header {
	if browser == "firefox" || browser == "Firefox" {
		return []Header{
			{Name: "Accept", Value: "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,*/*;q=0.8"},
			{Name: "Accept-Language", Value: "en-US,en;q=0.5"},
			{Name: "Accept-Encoding", Value: "gzip, deflate, br"},
			{Name: "Upgrade-Insecure-Requests", Value: "1"},
			{Name: "Sec-Fetch-Dest", Value: "document"},
			{Name: "Sec-Fetch-Mode", Value: "navigate"},
			{Name: "Sec-Fetch-Site", Value: "none"},
			{Name: "Sec-Fetch-User", Value: "?1"},
			{Name: "TE", Value: "trailers"},
		}
	}
	return []Header{
		{Name: "sec-ch-ua", Value: `"Not_A Brand";v="8", "Chromium";v="131", "Google Chrome";v="131"`},
		{Name: "sec-ch-ua-mobile", Value: "?0"},
		{Name: "sec-ch-ua-platform", Value: `"Windows"`},
		{Name: "Upgrade-Insecure-Requests", Value: "1"},
		{Name: "Accept", Value: "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,image/apng,*/*;q=0.8,application/signed-exchange;v=b3;q=0.7"},
		{Name: "sec-fetch-site", Value: "none"},
		{Name: "sec-fetch-mode", Value: "navigate"},
		{Name: "sec-fetch-user", Value: "?1"},
		{Name: "sec-fetch-dest", Value: "document"},
		{Name: "accept-encoding", Value: "gzip, deflate, br"},
		{Name: "accept-language", Value: "en-US,en;q=0.9"},
	}
}
