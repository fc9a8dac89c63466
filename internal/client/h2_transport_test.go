package client_test

import (
	"net/http"
	"testing"
	"time"

	"github.com/ZeraTS/ironbullet-sub001/internal/client"
)

func TestNewFingerprintedH2Transport_NotNil(t *testing.T) {
	rt := client.NewFingerprintedH2Transport(client.H2TransportConfig{})
	if rt == nil {
		t.Fatal("NewFingerprintedH2Transport returned nil")
	}
}

func TestNewFingerprintedH2Transport_Firefox(t *testing.T) {
	rt := client.NewFingerprintedH2Transport(client.H2TransportConfig{
		Browser:         "firefox",
		IdleConnTimeout: 30 * time.Second,
	})
	if rt == nil {
		t.Fatal("NewFingerprintedH2Transport with firefox returned nil")
	}
}

func TestNewFingerprintedH2Transport_ImplementsRoundTripper(t *testing.T) {
	rt := client.NewFingerprintedH2Transport(client.H2TransportConfig{})
	var _ http.RoundTripper = rt // compile-time interface check
}

func TestChromePseudoHeaderOrder_Length(t *testing.T) {
	if len(client.ChromePseudoHeaderOrder) != 4 {
		t.Errorf("expected 4 pseudo-headers, got %d", len(client.ChromePseudoHeaderOrder))
	}
}

func TestFirefoxPseudoHeaderOrder_Contents(t *testing.T) {
	want := map[string]bool{":method": true, ":path": true, ":authority": true, ":scheme": true}
	for _, h := range client.FirefoxPseudoHeaderOrder {
		if !want[h] {
			t.Errorf("unexpected pseudo-header %q", h)
		}
	}
}
