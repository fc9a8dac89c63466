package engine

import (
	"crypto/tls"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/ZeraTS/ironbullet-sub001/internal/block"
)

func init() {
	register(block.TypeWebhook, handleWebhook)
	register(block.TypeWebSocket, handleWebSocket)
	register(block.TypeTcpRequest, handleTcpRequest)
	register(block.TypeUdpRequest, handleUdpRequest)
}

// handleWebhook posts a templated body to an external endpoint using a
// plain net/http client — deliberately not the sidecar transport, since a
// webhook call is telemetry/notification, not part of the fingerprinted
// request chain a target site ever observes.
func handleWebhook(ec *Context, b block.Block, result *block.Result) error {
	settings, ok := b.Settings.(*block.WebhookSettings)
	if !ok {
		return fmt.Errorf("webhook: settings type mismatch")
	}
	method := settings.Method
	if method == "" {
		method = http.MethodPost
	}
	body := ec.Vars.Interpolate(settings.BodyTemplate)

	req, err := http.NewRequest(method, ec.Vars.Interpolate(settings.URL), strings.NewReader(body))
	if err != nil {
		return fmt.Errorf("webhook: %w", err)
	}
	for _, h := range settings.Headers {
		req.Header.Set(h[0], ec.Vars.Interpolate(h[1]))
	}
	if cookies := ec.Vars.Interpolate(settings.CustomCookies); cookies != "" {
		req.Header.Set("Cookie", cookies)
	}

	client := &http.Client{Timeout: 30 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("webhook: %w", err)
	}
	defer resp.Body.Close()

	result.LogMessage = fmt.Sprintf("webhook: %s %s -> %d", method, settings.URL, resp.StatusCode)
	return nil
}

func handleWebSocket(ec *Context, b block.Block, result *block.Result) error {
	settings, ok := b.Settings.(*block.WebSocketSettings)
	if !ok {
		return fmt.Errorf("websocket: settings type mismatch")
	}
	timeout := timeoutOrDefault(settings.TimeoutMs)

	dialer := websocket.Dialer{HandshakeTimeout: timeout}
	conn, _, err := dialer.Dial(ec.Vars.Interpolate(settings.URL), nil)
	if err != nil {
		return fmt.Errorf("websocket: %w", err)
	}
	defer conn.Close()

	if msg := ec.Vars.Interpolate(settings.Message); msg != "" {
		if err := conn.WriteMessage(websocket.TextMessage, []byte(msg)); err != nil {
			return fmt.Errorf("websocket: write: %w", err)
		}
	}

	closePattern := ec.Vars.Interpolate(settings.CloseOnPattern)
	deadline := time.Now().Add(timeout)
	var frames []string

	for time.Now().Before(deadline) {
		conn.SetReadDeadline(deadline)
		_, data, err := conn.ReadMessage()
		if err != nil {
			break
		}
		frames = append(frames, string(data))
		if closePattern != "" && strings.Contains(string(data), closePattern) {
			break
		}
	}

	ec.Vars.SetUser(settings.OutputVar, strings.Join(frames, "\n"), settings.Capture)
	result.LogMessage = fmt.Sprintf("websocket: collected %d frame(s)", len(frames))
	return nil
}

func handleTcpRequest(ec *Context, b block.Block, result *block.Result) error {
	settings, ok := b.Settings.(*block.TcpRequestSettings)
	if !ok {
		return fmt.Errorf("tcprequest: settings type mismatch")
	}
	host := ec.Vars.Interpolate(settings.Host)
	conn, err := dialTimeout(host, settings.Port, settings.TimeoutMs)
	if err != nil {
		return fmt.Errorf("tcprequest: %w", err)
	}
	defer conn.Close()

	if settings.UseTLS {
		tlsConn, err := upgradeToTLS(conn, host, settings.SslVerify)
		if err != nil {
			return fmt.Errorf("tcprequest: tls: %w", err)
		}
		conn = tlsConn
	}

	payload := ec.Vars.Interpolate(settings.Payload)
	conn.SetWriteDeadline(time.Now().Add(timeoutOrDefault(settings.TimeoutMs)))
	if _, err := conn.Write([]byte(payload)); err != nil {
		return fmt.Errorf("tcprequest: write: %w", err)
	}

	response, err := readUntilOrTimeout(conn, ec.Vars.Interpolate(settings.ReadUntil), timeoutOrDefault(settings.TimeoutMs))
	if err != nil && response == "" {
		return fmt.Errorf("tcprequest: read: %w", err)
	}

	ec.Vars.SetUser(settings.OutputVar, response, settings.Capture)
	result.LogMessage = fmt.Sprintf("tcprequest: read %d byte(s)", len(response))
	return nil
}

func upgradeToTLS(conn net.Conn, host string, verify bool) (net.Conn, error) {
	tlsConn := tls.Client(conn, &tls.Config{ServerName: host, InsecureSkipVerify: !verify}) // #nosec G402
	if err := tlsConn.Handshake(); err != nil {
		return nil, err
	}
	return tlsConn, nil
}

// readUntilOrTimeout accumulates bytes from conn until until appears in the
// buffer (when set) or timeout elapses, returning whatever was read even on
// a timeout error so a caller can still inspect a partial response.
func readUntilOrTimeout(conn net.Conn, until string, timeout time.Duration) (string, error) {
	deadline := time.Now().Add(timeout)
	var buf []byte
	chunk := make([]byte, 4096)
	for time.Now().Before(deadline) {
		conn.SetReadDeadline(time.Now().Add(500 * time.Millisecond))
		n, err := conn.Read(chunk)
		if n > 0 {
			buf = append(buf, chunk[:n]...)
			if until != "" && strings.Contains(string(buf), until) {
				return string(buf), nil
			}
		}
		if err != nil {
			if netErr, ok := err.(net.Error); ok && netErr.Timeout() {
				continue
			}
			return string(buf), err
		}
	}
	return string(buf), nil
}

func handleUdpRequest(ec *Context, b block.Block, result *block.Result) error {
	settings, ok := b.Settings.(*block.UdpRequestSettings)
	if !ok {
		return fmt.Errorf("udprequest: settings type mismatch")
	}
	host := ec.Vars.Interpolate(settings.Host)
	addr := net.JoinHostPort(host, strconv.Itoa(settings.Port))

	conn, err := net.DialTimeout("udp", addr, timeoutOrDefault(settings.TimeoutMs))
	if err != nil {
		return fmt.Errorf("udprequest: %w", err)
	}
	defer conn.Close()

	payload := ec.Vars.Interpolate(settings.Payload)
	conn.SetDeadline(time.Now().Add(timeoutOrDefault(settings.TimeoutMs)))
	if _, err := conn.Write([]byte(payload)); err != nil {
		return fmt.Errorf("udprequest: write: %w", err)
	}

	buf := make([]byte, 65507)
	n, err := conn.Read(buf)
	if err != nil {
		ec.Vars.SetUser(settings.OutputVar, "", settings.Capture)
		result.LogMessage = "udprequest: no reply"
		return nil
	}

	ec.Vars.SetUser(settings.OutputVar, string(buf[:n]), settings.Capture)
	result.LogMessage = fmt.Sprintf("udprequest: read %d byte(s)", n)
	return nil
}
