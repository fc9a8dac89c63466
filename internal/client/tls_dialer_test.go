package client_test

import (
	"testing"

	utls "github.com/refraction-networking/utls"

	"github.com/ZeraTS/ironbullet-sub001/internal/client"
)

func TestUTLSDialer_NotNil(t *testing.T) {
	d := client.UTLSDialer(utls.HelloChrome_120, "")
	if d == nil {
		t.Fatal("UTLSDialer returned nil for HelloChrome_120")
	}
}

func TestUTLSDialerHTTP1_NotNil(t *testing.T) {
	for _, id := range []utls.ClientHelloID{
		utls.HelloChrome_120,
		utls.HelloChrome_131,
		utls.HelloFirefox_120,
	} {
		d := client.UTLSDialerHTTP1(id, "")
		if d == nil {
			t.Errorf("UTLSDialerHTTP1 returned nil for %s", id.Str())
		}
	}
}

func TestHelloIDForProfile(t *testing.T) {
	if got := client.HelloIDForProfile("firefox", ""); got != utls.HelloFirefox_120 {
		t.Errorf("expected Firefox hello id, got %s", got.Str())
	}
	if got := client.HelloIDForProfile("chrome", ""); got != utls.HelloChrome_120 {
		t.Errorf("expected Chrome hello id, got %s", got.Str())
	}
	if got := client.HelloIDForProfile("", "firefox"); got != utls.HelloFirefox_120 {
		t.Errorf("explicit ja3 alias should override browser, got %s", got.Str())
	}
}

func TestNewClient_Chrome(t *testing.T) {
	c, err := client.NewClient(client.Options{Browser: "chrome", Timeout: 10e9})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	if c == nil || c.Jar == nil {
		t.Fatal("expected non-nil client with cookie jar")
	}
}

func TestNewClient_InvalidProxy(t *testing.T) {
	_, err := client.NewClient(client.Options{Proxy: "://bad-proxy"})
	if err == nil {
		t.Error("expected error for invalid proxy URL")
	}
}
