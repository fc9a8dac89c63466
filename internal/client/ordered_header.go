package client

import (
	"net/http"
)

// headerEntry stores a single header key/value pair with its original casing.
type headerEntry struct {
	key   string
	value string
}

// OrderedHeader is a drop-in companion to http.Header that preserves the exact
// capitalisation and insertion order of HTTP headers, since header order and
// casing are both part of a browser's TLS/HTTP fingerprint — servers that
// profile clients inspect both.
//
// OrderedHeader is NOT safe for concurrent use without external
// synchronisation: one HttpRequest block builds and applies it within a
// single worker's execution, so no additional locking is required.
type OrderedHeader struct {
	entries []headerEntry
}

// Add appends key/value to the header list, preserving the exact casing of
// key. Multiple calls with the same key produce multiple entries.
func (h *OrderedHeader) Add(key, value string) {
	h.entries = append(h.entries, headerEntry{key: key, value: value})
}

// Set replaces the first entry whose key matches key (case-insensitively)
// with the new value and removes any subsequent duplicates. If no entry
// with that key exists, Set behaves like Add.
func (h *OrderedHeader) Set(key, value string) {
	canonKey := http.CanonicalHeaderKey(key)
	replaced := false
	out := h.entries[:0]
	for _, e := range h.entries {
		if http.CanonicalHeaderKey(e.key) == canonKey {
			if !replaced {
				out = append(out, headerEntry{key: key, value: value})
				replaced = true
			}
		} else {
			out = append(out, e)
		}
	}
	if !replaced {
		out = append(out, headerEntry{key: key, value: value})
	}
	h.entries = out
}

// Del removes all entries whose key matches key (case-insensitively).
func (h *OrderedHeader) Del(key string) {
	canonKey := http.CanonicalHeaderKey(key)
	out := h.entries[:0]
	for _, e := range h.entries {
		if http.CanonicalHeaderKey(e.key) != canonKey {
			out = append(out, e)
		}
	}
	h.entries = out
}

// Get returns the value of the first entry whose key matches key
// (case-insensitively), or an empty string if no such entry exists.
func (h *OrderedHeader) Get(key string) string {
	canonKey := http.CanonicalHeaderKey(key)
	for _, e := range h.entries {
		if http.CanonicalHeaderKey(e.key) == canonKey {
			return e.value
		}
	}
	return ""
}

// Len returns the number of header entries (including duplicates).
func (h *OrderedHeader) Len() int { return len(h.entries) }

// Clone returns a shallow copy of the receiver.
func (h *OrderedHeader) Clone() *OrderedHeader {
	c := &OrderedHeader{entries: make([]headerEntry, len(h.entries))}
	copy(c.entries, h.entries)
	return c
}

// ApplyToRequest writes every entry in h into req.Header, preserving the
// exact key casing and insertion order by bypassing http.Header's canonical
// key normalisation.
func (h *OrderedHeader) ApplyToRequest(req *http.Request) {
	req.Header = make(http.Header, len(h.entries))
	for _, e := range h.entries {
		req.Header[e.key] = append(req.Header[e.key], e.value)
	}
}

// ApplyPipelineHeaders overlays headers declared on a block's
// HttpRequest.Headers field (one [name, value] pair at a time, in declared
// order) on top of the browser-profile defaults, so pipeline-author headers
// win without discarding the fingerprint baseline.
func (h *OrderedHeader) ApplyPipelineHeaders(pairs [][2]string) {
	for _, p := range pairs {
		h.Set(p[0], p[1])
	}
}

// ToHTTPHeader converts the OrderedHeader to a standard http.Header map.
// Insertion order is NOT preserved (maps are unordered) but exact key
// casing is, since the raw key is used rather than its canonical form.
func (h *OrderedHeader) ToHTTPHeader() http.Header {
	out := make(http.Header, len(h.entries))
	for _, e := range h.entries {
		out[e.key] = append(out[e.key], e.value)
	}
	return out
}

// ChromeOrderedHeaders returns an OrderedHeader pre-populated with the
// standard Chrome 120 request headers in the exact order and casing a real
// Windows Chrome 120 client sends.
func ChromeOrderedHeaders() *OrderedHeader {
	h := &OrderedHeader{}
	h.Add("sec-ch-ua", `"Not_A Brand";v="8", "Chromium";v="120", "Google Chrome";v="120"`)
	h.Add("sec-ch-ua-mobile", "?0")
	h.Add("sec-ch-ua-platform", `"Windows"`)
	h.Add("Upgrade-Insecure-Requests", "1")
	h.Add("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36")
	h.Add("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,image/apng,*/*;q=0.8,application/signed-exchange;v=b3;q=0.7")
	h.Add("sec-fetch-site", "none")
	h.Add("sec-fetch-mode", "navigate")
	h.Add("sec-fetch-user", "?1")
	h.Add("sec-fetch-dest", "document")
	h.Add("accept-encoding", "gzip, deflate, br")
	h.Add("accept-language", "en-US,en;q=0.9")
	return h
}

// FirefoxOrderedHeaders returns an OrderedHeader matching a Firefox 120
// request — a different default set/order than Chrome (no sec-ch-ua family,
// a distinct Accept header, TE: trailers on HTTP/1.1).
func FirefoxOrderedHeaders() *OrderedHeader {
	h := &OrderedHeader{}
	h.Add("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:120.0) Gecko/20100101 Firefox/120.0")
	h.Add("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,*/*;q=0.8")
	h.Add("Accept-Language", "en-US,en;q=0.5")
	h.Add("Accept-Encoding", "gzip, deflate, br")
	h.Add("Upgrade-Insecure-Requests", "1")
	h.Add("Sec-Fetch-Dest", "document")
	h.Add("Sec-Fetch-Mode", "navigate")
	h.Add("Sec-Fetch-Site", "none")
	h.Add("Sec-Fetch-User", "?1")
	h.Add("TE", "trailers")
	return h
}

// OrderedHeadersFor returns the declared default header set for browser
// ("chrome" or "firefox"); unknown names fall back to Chrome, the more
// common impersonation target.
func OrderedHeadersFor(browser string) *OrderedHeader {
	if browser == "firefox" {
		return FirefoxOrderedHeaders()
	}
	return ChromeOrderedHeaders()
}
