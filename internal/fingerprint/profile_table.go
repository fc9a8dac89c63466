package fingerprint

import "strings"

// TLSProfile is one row of the built-in table RandomUserAgent's match_tls
// mode samples from: a User-Agent string paired with the JA3/HTTP2
// fingerprint identifiers that a real client sending that UA would present.
// The identifiers are opaque strings per spec (no exact third-party
// fingerprint database is emulated) — here they select one of
// internal/client's own HelloID/H2TransportConfig profiles, so setting
// override_ja3/override_http2fp from a row keeps the TLS layer and the
// User-Agent header mutually consistent.
type TLSProfile struct {
	UserAgent        string
	Browser          string // "Chrome" | "Firefox"
	Platform         string // "Desktop" | "Mobile"
	JA3Hash          string
	HTTP2Fingerprint string
}

// BuiltinTLSProfiles is the fixed table match_tls samples from.
var BuiltinTLSProfiles = []TLSProfile{
	{
		UserAgent:        "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36",
		Browser:          "Chrome",
		Platform:         "Desktop",
		JA3Hash:          "chrome131",
		HTTP2Fingerprint: "chrome131-h2",
	},
	{
		UserAgent:        "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
		Browser:          "Chrome",
		Platform:         "Desktop",
		JA3Hash:          "chrome120",
		HTTP2Fingerprint: "chrome120-h2",
	},
	{
		UserAgent:        "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36",
		Browser:          "Chrome",
		Platform:         "Desktop",
		JA3Hash:          "chrome131",
		HTTP2Fingerprint: "chrome131-h2",
	},
	{
		UserAgent:        "Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:133.0) Gecko/20100101 Firefox/133.0",
		Browser:          "Firefox",
		Platform:         "Desktop",
		JA3Hash:          "firefox120",
		HTTP2Fingerprint: "firefox120-h2",
	},
	{
		UserAgent:        "Mozilla/5.0 (Macintosh; Intel Mac OS X 10.15; rv:133.0) Gecko/20100101 Firefox/133.0",
		Browser:          "Firefox",
		Platform:         "Desktop",
		JA3Hash:          "firefox120",
		HTTP2Fingerprint: "firefox120-h2",
	},
}

// FilterTLSProfiles returns the rows of BuiltinTLSProfiles matching browser
// and platform, case-insensitively. An empty filter list matches every row
// (mirrors RandomUserAgent's browser_filter/platform_filter semantics: an
// empty filter imposes no constraint).
func FilterTLSProfiles(browserFilter, platformFilter []string) []TLSProfile {
	var out []TLSProfile
	for _, p := range BuiltinTLSProfiles {
		if !matchesFilter(p.Browser, browserFilter) {
			continue
		}
		if !matchesFilter(p.Platform, platformFilter) {
			continue
		}
		out = append(out, p)
	}
	return out
}

func matchesFilter(value string, filter []string) bool {
	if len(filter) == 0 {
		return true
	}
	for _, f := range filter {
		if strings.EqualFold(f, value) {
			return true
		}
	}
	return false
}
