package client_test

import (
	"context"
	"crypto/tls"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	utls "github.com/refraction-networking/utls"

	"github.com/ZeraTS/ironbullet-sub001/internal/client"
)

// chrome120TLS13Ciphers is the set of TLS 1.3 cipher suite IDs Chrome 120
// advertises. A Go standard-library TLS 1.3 server always negotiates one of
// these when the client presents the Chrome 120 ClientHello.
var chrome120TLS13Ciphers = map[uint16]bool{
	tls.TLS_AES_128_GCM_SHA256:       true,
	tls.TLS_AES_256_GCM_SHA384:       true,
	tls.TLS_CHACHA20_POLY1305_SHA256: true,
}

func buildInsecureChrome120Transport() *http.Transport {
	dialFn := client.UTLSDialer(utls.HelloChrome_120, "")
	return &http.Transport{
		DialTLSContext: func(ctx context.Context, network, addr string) (net.Conn, error) {
			return dialFn(ctx, network, addr, &tls.Config{InsecureSkipVerify: true}) // #nosec G402 – test only, self-signed httptest cert
		},
	}
}

// TestFingerprintChrome120_TLSState stands up a local httptest.NewTLSServer,
// fires a request through the uTLS Chrome 120 transport, and verifies the
// negotiated TLS state reflects Chrome 120 fingerprint characteristics.
func TestFingerprintChrome120_TLSState(t *testing.T) {
	tlsStateCh := make(chan tls.ConnectionState, 1)

	ts := httptest.NewUnstartedServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.TLS != nil {
			select {
			case tlsStateCh <- *r.TLS:
			default:
			}
		}
		w.WriteHeader(http.StatusOK)
	}))
	ts.TLS = &tls.Config{NextProtos: []string{"http/1.1"}}
	ts.StartTLS()
	t.Cleanup(ts.Close)

	httpClient := &http.Client{
		Transport: buildInsecureChrome120Transport(),
		Timeout:   5 * time.Second,
	}
	resp, err := httpClient.Get(ts.URL)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	resp.Body.Close()

	select {
	case state := <-tlsStateCh:
		if state.Version != tls.VersionTLS13 {
			t.Errorf("expected TLS 1.3 (0x%04x), got 0x%04x", tls.VersionTLS13, state.Version)
		}
		if !chrome120TLS13Ciphers[state.CipherSuite] {
			t.Errorf("cipher suite 0x%04x is not in Chrome 120's TLS 1.3 set", state.CipherSuite)
		}
		if state.NegotiatedProtocol != "http/1.1" {
			t.Errorf("expected NegotiatedProtocol %q, got %q", "http/1.1", state.NegotiatedProtocol)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timeout: server handler did not capture TLS state")
	}
}

// TestFingerprintChrome120_BypassesGoDefaultSignature verifies UTLSDialer is
// actually invoked rather than net/http falling back to its default dialer.
func TestFingerprintChrome120_BypassesGoDefaultSignature(t *testing.T) {
	dialInvoked := make(chan struct{}, 1)

	dialFn := client.UTLSDialer(utls.HelloChrome_120, "")
	transport := &http.Transport{
		DialTLSContext: func(ctx context.Context, network, addr string) (net.Conn, error) {
			select {
			case dialInvoked <- struct{}{}:
			default:
			}
			return dialFn(ctx, network, addr, &tls.Config{InsecureSkipVerify: true}) // #nosec G402 – test only
		},
	}

	ts := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(ts.Close)

	httpClient := &http.Client{Transport: transport, Timeout: 5 * time.Second}
	resp, err := httpClient.Get(ts.URL)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	resp.Body.Close()

	select {
	case <-dialInvoked:
	case <-time.After(time.Second):
		t.Fatal("UTLSDialer was never invoked; default Go dialer may have been used")
	}
}

// TestChromePseudoHeaderOrder_DiffersFromGoDefault ensures the documented
// Chrome pseudo-header order differs from Go's default HTTP/2 ordering
// (:method → :path → :scheme → :authority), since matching Go's default
// would defeat the fingerprint bypass.
func TestChromePseudoHeaderOrder_DiffersFromGoDefault(t *testing.T) {
	want := []string{":method", ":authority", ":scheme", ":path"}
	got := client.ChromePseudoHeaderOrder

	if len(got) != len(want) {
		t.Fatalf("pseudo-header order length: got %d, want %d", len(got), len(want))
	}
	for i, h := range want {
		if got[i] != h {
			t.Errorf("pseudo-header[%d]: got %q, want %q", i, got[i], h)
		}
	}

	goDefault := []string{":method", ":path", ":scheme", ":authority"}
	identical := true
	for i := range got {
		if got[i] != goDefault[i] {
			identical = false
			break
		}
	}
	if identical {
		t.Error("ChromePseudoHeaderOrder must differ from Go's default HTTP/2 pseudo-header order")
	}
}
