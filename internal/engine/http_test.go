package engine

import (
	"context"
	"testing"

	"github.com/ZeraTS/ironbullet-sub001/internal/block"
	"github.com/ZeraTS/ironbullet-sub001/internal/sidecar"
)

type fakeSender struct {
	resp sidecar.Response
	err  error
	got  sidecar.Request
}

func (f *fakeSender) Send(_ context.Context, req sidecar.Request) (sidecar.Response, error) {
	f.got = req
	return f.resp, f.err
}

func newTestContext(sender sidecar.Sender) *Context {
	return New(sender, "sess-1", nil)
}

func TestHandleHttpRequestWritesResponseVars(t *testing.T) {
	sender := &fakeSender{resp: sidecar.Response{
		Status:   200,
		Body:     "hello world",
		FinalURL: "https://example.com/landing",
		Headers:  map[string]string{"Content-Type": "text/plain"},
		Cookies:  map[string]string{"session": "abc123"},
		TimingMs: 42,
	}}
	ec := newTestContext(sender)

	b := block.Block{
		ID:   "b1",
		Type: block.TypeHttpRequest,
		Settings: &block.HttpRequestSettings{
			Method: "get",
			URL:    "https://example.com/<PATH>",
			Headers: [][2]string{
				{"Accept", "text/html"},
			},
			Browser: "chrome",
		},
	}
	ec.Vars.SetData("PATH", "login")

	result := block.Result{}
	if err := handleHttpRequest(ec, b, &result); err != nil {
		t.Fatalf("handleHttpRequest returned error: %v", err)
	}

	if sender.got.Method != "GET" {
		t.Errorf("expected method normalized to GET, got %q", sender.got.Method)
	}
	if sender.got.URL != "https://example.com/login" {
		t.Errorf("URL not interpolated, got %q", sender.got.URL)
	}

	if v, _ := ec.Vars.Get("SOURCE"); v != "hello world" {
		t.Errorf("SOURCE = %q, want %q", v, "hello world")
	}
	if v, _ := ec.Vars.Get("SOURCE.STATUS"); v != "200" {
		t.Errorf("SOURCE.STATUS = %q, want 200", v)
	}
	if v, _ := ec.Vars.Get("RESPONSECODE"); v != "200" {
		t.Errorf("RESPONSECODE = %q, want 200", v)
	}
	if v, _ := ec.Vars.Get("SOURCE.COOKIES.session"); v != "abc123" {
		t.Errorf("SOURCE.COOKIES.session = %q, want abc123", v)
	}
	if v, _ := ec.Vars.Get("SOURCE.HEADERS.content-type"); v != "text/plain" {
		t.Errorf("SOURCE.HEADERS.content-type = %q, want text/plain", v)
	}

	if len(ec.NetworkLog) != 1 {
		t.Fatalf("expected one network entry, got %d", len(ec.NetworkLog))
	}
	if ec.NetworkLog[0].Status != 200 {
		t.Errorf("network entry status = %d, want 200", ec.NetworkLog[0].Status)
	}
	if result.Response == nil || result.Response.StatusCode != 200 {
		t.Error("result.Response not populated correctly")
	}
}

func TestHandleHttpRequestCustomCookiesFoldIntoHeader(t *testing.T) {
	sender := &fakeSender{resp: sidecar.Response{Status: 204, Body: ""}}
	ec := newTestContext(sender)

	b := block.Block{
		Type: block.TypeHttpRequest,
		Settings: &block.HttpRequestSettings{
			Method:        "POST",
			URL:           "https://example.com",
			CustomCookies: "a=1\nb=2\n",
		},
	}
	result := block.Result{}
	if err := handleHttpRequest(ec, b, &result); err != nil {
		t.Fatalf("handleHttpRequest returned error: %v", err)
	}

	found := false
	for _, h := range sender.got.Headers {
		if h[0] == "Cookie" {
			found = true
			if h[1] != "a=1; b=2" {
				t.Errorf("Cookie header = %q, want %q", h[1], "a=1; b=2")
			}
		}
	}
	if !found {
		t.Error("expected a Cookie header to be present")
	}
}

func TestHandleHttpRequestPropagatesContextOverrideJA3(t *testing.T) {
	sender := &fakeSender{resp: sidecar.Response{Status: 200}}
	ec := newTestContext(sender)
	ec.OverrideJA3 = "771,4865-4866,0-23-65281"

	b := block.Block{
		Type: block.TypeHttpRequest,
		Settings: &block.HttpRequestSettings{
			Method: "GET",
			URL:    "https://example.com",
		},
	}
	result := block.Result{}
	if err := handleHttpRequest(ec, b, &result); err != nil {
		t.Fatalf("handleHttpRequest returned error: %v", err)
	}
	if sender.got.JA3 != ec.OverrideJA3 {
		t.Errorf("JA3 = %q, want override %q", sender.got.JA3, ec.OverrideJA3)
	}
}

func TestHandleHttpRequestSurfacesSenderError(t *testing.T) {
	sender := &fakeSender{err: sidecar.ErrClosed}
	ec := newTestContext(sender)

	b := block.Block{
		Type: block.TypeHttpRequest,
		Settings: &block.HttpRequestSettings{
			Method: "GET",
			URL:    "https://example.com",
		},
	}
	result := block.Result{}
	if err := handleHttpRequest(ec, b, &result); err == nil {
		t.Error("expected an error when the sender fails")
	}
}

func TestHandleHttpRequestRejectsWrongSettingsType(t *testing.T) {
	ec := newTestContext(&fakeSender{})
	b := block.Block{
		Type:     block.TypeHttpRequest,
		Settings: &block.LogSettings{Message: "wrong type"},
	}
	result := block.Result{}
	if err := handleHttpRequest(ec, b, &result); err == nil {
		t.Error("expected a settings type mismatch error")
	}
}
