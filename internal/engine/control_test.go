package engine

import (
	"testing"

	"github.com/ZeraTS/ironbullet-sub001/internal/block"
	"github.com/ZeraTS/ironbullet-sub001/internal/sidecar"
)

func TestHandleCookieContainerGetReadsSourceCookies(t *testing.T) {
	ec := newTestContext(&fakeSender{})
	ec.Vars.SetData("SOURCE.COOKIES", "a=1; b=2; ")

	b := block.Block{
		Type: block.TypeCookieContainer,
		Settings: &block.CookieContainerSettings{
			Mode:      "get",
			OutputVar: "JAR",
		},
	}
	result := block.Result{}
	if err := handleCookieContainer(ec, b, &result); err != nil {
		t.Fatalf("cookiecontainer(get) returned error: %v", err)
	}
	if v, _ := ec.Vars.Get("JAR"); v != "a=1; b=2; " {
		t.Errorf("JAR = %q, want %q", v, "a=1; b=2; ")
	}
}

func TestHandleCookieContainerSetRestoresJarViaNewSession(t *testing.T) {
	sender := &fakeSender{}
	ec := newTestContext(sender)
	ec.Vars.SetData("SAVED", "a=1\nb=2")

	b := block.Block{
		Type: block.TypeCookieContainer,
		Settings: &block.CookieContainerSettings{
			Mode:  "set",
			Value: "<SAVED>",
		},
	}
	result := block.Result{}
	if err := handleCookieContainer(ec, b, &result); err != nil {
		t.Fatalf("cookiecontainer(set) returned error: %v", err)
	}

	if sender.got.Action != sidecar.ActionNewSession {
		t.Errorf("Action = %q, want %q", sender.got.Action, sidecar.ActionNewSession)
	}
	if sender.got.Session != ec.Session {
		t.Errorf("Session = %q, want %q", sender.got.Session, ec.Session)
	}
	var cookieHeader string
	for _, h := range sender.got.Headers {
		if h[0] == "Cookie" {
			cookieHeader = h[1]
		}
	}
	if cookieHeader != "a=1; b=2" {
		t.Errorf("Cookie header = %q, want %q", cookieHeader, "a=1; b=2")
	}
}

func TestHandleCookieContainerSetRequiresSender(t *testing.T) {
	ec := newTestContext(nil)
	b := block.Block{
		Type: block.TypeCookieContainer,
		Settings: &block.CookieContainerSettings{
			Mode:  "set",
			Value: "a=1",
		},
	}
	result := block.Result{}
	if err := handleCookieContainer(ec, b, &result); err == nil {
		t.Error("expected an error when no sidecar sender is configured")
	}
}

func TestHandleCookieContainerUnknownModeErrors(t *testing.T) {
	ec := newTestContext(&fakeSender{})
	b := block.Block{
		Type: block.TypeCookieContainer,
		Settings: &block.CookieContainerSettings{
			Mode: "bogus",
		},
	}
	result := block.Result{}
	if err := handleCookieContainer(ec, b, &result); err == nil {
		t.Error("expected an error for an unknown mode")
	}
}
