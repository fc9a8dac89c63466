package sidecar

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
)

func TestInProcRequestRoundTrip(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.SetCookie(w, &http.Cookie{Name: "sid", Value: "abc"})
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"ok":true}`))
	}))
	defer ts.Close()

	p := NewInProc()
	resp, err := p.Send(context.Background(), Request{
		ID:     "r1",
		Action: ActionRequest,
		Method: http.MethodGet,
		URL:    ts.URL,
	})
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if resp.Status != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Status)
	}
	if resp.Body != `{"ok":true}` {
		t.Fatalf("unexpected body: %q", resp.Body)
	}
	if resp.Cookies["sid"] != "abc" {
		t.Fatalf("expected sid cookie captured, got %+v", resp.Cookies)
	}
}

func TestInProcSessionCookiePersistsAcrossRequests(t *testing.T) {
	var sawCookie string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if c, err := r.Cookie("sid"); err == nil {
			sawCookie = c.Value
		} else {
			http.SetCookie(w, &http.Cookie{Name: "sid", Value: "xyz"})
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer ts.Close()

	p := NewInProc()
	ctx := context.Background()

	if _, err := p.Send(ctx, Request{ID: "a", Action: ActionRequest, Method: http.MethodGet, URL: ts.URL, Session: "s1"}); err != nil {
		t.Fatalf("first request: %v", err)
	}
	if _, err := p.Send(ctx, Request{ID: "b", Action: ActionRequest, Method: http.MethodGet, URL: ts.URL, Session: "s1"}); err != nil {
		t.Fatalf("second request: %v", err)
	}

	if sawCookie != "xyz" {
		t.Fatalf("expected session cookie to persist across requests, got %q", sawCookie)
	}
}

func TestInProcClearCookies(t *testing.T) {
	p := NewInProc()
	p.jar.Merge("s1", []*http.Cookie{{Name: "a", Value: "1"}})
	if p.jar.CookieHeader("s1") == "" {
		t.Fatal("expected cookie set before clear")
	}
	if _, err := p.Send(context.Background(), Request{ID: "c", Action: ActionClearCookies, Session: "s1"}); err != nil {
		t.Fatalf("clear_cookies: %v", err)
	}
	if got := p.jar.CookieHeader("s1"); got != "" {
		t.Fatalf("expected empty cookie header after clear, got %q", got)
	}
}

func TestInProcNewSessionSeedsJarFromCookieHeader(t *testing.T) {
	p := NewInProc()
	if _, err := p.Send(context.Background(), Request{
		ID:      "n1",
		Action:  ActionNewSession,
		Session: "s1",
		Headers: [][2]string{{"Cookie", "a=1; b=2"}},
	}); err != nil {
		t.Fatalf("new_session: %v", err)
	}

	header := p.jar.CookieHeader("s1")
	if !strings.Contains(header, "a=1") || !strings.Contains(header, "b=2") {
		t.Fatalf("expected jar seeded with both cookies, got %q", header)
	}
}

func TestInProcNewSessionWithoutCookieHeaderStaysEmpty(t *testing.T) {
	p := NewInProc()
	if _, err := p.Send(context.Background(), Request{ID: "n2", Action: ActionNewSession, Session: "s2"}); err != nil {
		t.Fatalf("new_session: %v", err)
	}
	if got := p.jar.CookieHeader("s2"); got != "" {
		t.Fatalf("expected empty cookie header, got %q", got)
	}
}

// TestInProcUnderLoad mirrors the 500-concurrent-request scenario from the
// spec's multiplexer load test (S6), exercised here against the in-process
// backend: every request must resolve with its own id and no cross-talk.
func TestInProcUnderLoad(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(r.URL.Query().Get("id")))
	}))
	defer ts.Close()

	p := NewInProc()
	const n = 500
	var wg sync.WaitGroup
	errs := make([]error, n)
	mismatches := make([]bool, n)

	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := fmt.Sprintf("r%d", i)
			resp, err := p.Send(context.Background(), Request{
				ID:     id,
				Action: ActionRequest,
				Method: http.MethodGet,
				URL:    fmt.Sprintf("%s/?id=%s", ts.URL, id),
			})
			if err != nil {
				errs[i] = err
				return
			}
			if resp.Body != id {
				mismatches[i] = true
			}
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			t.Fatalf("request %d failed: %v", i, err)
		}
	}
	for i, bad := range mismatches {
		if bad {
			t.Fatalf("request %d got cross-talked response", i)
		}
	}
}
