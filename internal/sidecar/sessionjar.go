package sidecar

import (
	"net/http"
	"strings"
	"sync"
)

// SessionJar holds per-session cookie state for the in-process backend.
// Adapted from the teacher's HeartbeatManager session-state map: the
// child-process transport gets this for free from the external binary's own
// process state, but the in-process transport has no external process to
// hold per-session cookies between one HttpRequest block and the next, so
// it needs this explicitly. Keyed by session id with a sync.Map so
// thousands of concurrent workers reading distinct sessions never
// contend on a single lock.
type SessionJar struct {
	sessions sync.Map // session id -> []*http.Cookie
}

// NewSessionJar returns an empty jar.
func NewSessionJar() *SessionJar {
	return &SessionJar{}
}

// Open creates an empty cookie set for session if one does not already
// exist. Mirrors the sidecar wire protocol's "new_session" action.
func (j *SessionJar) Open(session string) {
	j.sessions.LoadOrStore(session, []*http.Cookie{})
}

// Close discards all cookie state for session. Mirrors "close_session".
func (j *SessionJar) Close(session string) {
	j.sessions.Delete(session)
}

// Clear empties session's cookie set without removing the session entry
// itself. Mirrors the "clear_cookies" action.
func (j *SessionJar) Clear(session string) {
	j.sessions.Store(session, []*http.Cookie{})
}

// Merge folds newCookies into session's stored set: cookies sharing a name
// replace the existing entry, new names are appended.
func (j *SessionJar) Merge(session string, newCookies []*http.Cookie) {
	if len(newCookies) == 0 {
		return
	}
	var existing []*http.Cookie
	if v, ok := j.sessions.Load(session); ok {
		existing, _ = v.([]*http.Cookie)
	}
	j.sessions.Store(session, mergeCookies(existing, newCookies))
}

// CookieHeader renders session's cookie set as a single "name=value; ..."
// Cookie header value, matching the sidecar protocol's custom-cookie
// convention of one name=value pair per line folded into one header.
func (j *SessionJar) CookieHeader(session string) string {
	v, ok := j.sessions.Load(session)
	if !ok {
		return ""
	}
	cookies, _ := v.([]*http.Cookie)
	if len(cookies) == 0 {
		return ""
	}
	parts := make([]string, 0, len(cookies))
	for _, c := range cookies {
		parts = append(parts, c.Name+"="+c.Value)
	}
	return strings.Join(parts, "; ")
}

// Snapshot returns session's cookies as a name -> value map. Nothing in the
// tree calls it: InProc fills Response.Cookies from each response's own
// Set-Cookie headers.
func (j *SessionJar) Snapshot(session string) map[string]string {
	v, ok := j.sessions.Load(session)
	if !ok {
		return nil
	}
	cookies, _ := v.([]*http.Cookie)
	out := make(map[string]string, len(cookies))
	for _, c := range cookies {
		out[c.Name] = c.Value
	}
	return out
}

// mergeCookies returns a new slice containing every cookie from existing,
// with entries sharing a name in updates replaced, and unmatched updates
// appended.
func mergeCookies(existing, updates []*http.Cookie) []*http.Cookie {
	out := make([]*http.Cookie, len(existing))
	copy(out, existing)

	for _, u := range updates {
		found := false
		for i, e := range out {
			if e.Name == u.Name {
				out[i] = u
				found = true
				break
			}
		}
		if !found {
			out = append(out, u)
		}
	}
	return out
}
