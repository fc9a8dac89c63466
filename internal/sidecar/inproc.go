package sidecar

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/ZeraTS/ironbullet-sub001/internal/client"
)

// InProc is the in-process transport: the same Request/Response shape as
// the child-process Multiplexer, executed directly by an embedded
// fingerprinted HTTP client instead of a piped sidecar binary. The CLI uses
// it for the whole run when the runner config names no sidecar binary; an
// HttpRequest block's tls_client value does not route that one block here.
type InProc struct {
	jar *SessionJar
}

// NewInProc returns a ready-to-use in-process backend.
func NewInProc() *InProc {
	return &InProc{jar: NewSessionJar()}
}

// Send implements Sender. Unlike the Multiplexer it performs the HTTP round
// trip synchronously on the calling goroutine — there is no child process
// or correlation table, so req.ID only needs to be echoed back in the
// response.
func (p *InProc) Send(ctx context.Context, req Request) (Response, error) {
	switch req.Action {
	case ActionNewSession:
		p.jar.Open(req.Session)
		if cookies := cookiesFromHeaders(req.Headers); len(cookies) > 0 {
			p.jar.Merge(req.Session, cookies)
		}
		return Response{ID: req.ID}, nil
	case ActionCloseSession:
		p.jar.Close(req.Session)
		return Response{ID: req.ID}, nil
	case ActionClearCookies:
		p.jar.Clear(req.Session)
		return Response{ID: req.ID}, nil
	}

	return p.doRequest(ctx, req)
}

// cookiesFromHeaders parses a "Cookie" header value out of headers, if
// present, into individual cookies — the vehicle a CookieContainer restore
// uses to seed a freshly opened session's jar (see control.go's
// handleCookieContainer "set" mode).
func cookiesFromHeaders(headers [][2]string) []*http.Cookie {
	for _, h := range headers {
		if !strings.EqualFold(h[0], "Cookie") || h[1] == "" {
			continue
		}
		hdr := http.Header{}
		hdr.Add("Cookie", h[1])
		return (&http.Request{Header: hdr}).Cookies()
	}
	return nil
}

func (p *InProc) doRequest(ctx context.Context, req Request) (Response, error) {
	start := time.Now()

	opts := client.Options{
		Browser:       req.Browser,
		JA3:           req.JA3,
		HTTP2FP:       req.HTTP2FP,
		Proxy:         req.Proxy,
		CustomCiphers: req.CustomCiphers,
		SSLVerify:     req.SSLVerify == nil || *req.SSLVerify,
		UseHTTP2:      req.HTTP2FP != "",
	}
	if req.TimeoutMs > 0 {
		opts.Timeout = time.Duration(req.TimeoutMs) * time.Millisecond
	} else {
		opts.Timeout = 30 * time.Second
	}

	rt, err := client.NewRoundTripper(opts)
	if err != nil {
		return Response{}, fmt.Errorf("sidecar: inproc: build transport: %w", err)
	}

	httpClient := &http.Client{Transport: rt, Timeout: opts.Timeout}
	if req.FollowRedirects != nil && !*req.FollowRedirects {
		httpClient.CheckRedirect = func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		}
	}

	var body io.Reader
	if req.Body != "" {
		body = strings.NewReader(req.Body)
	}
	method := req.Method
	if method == "" {
		method = http.MethodGet
	}
	httpReq, err := http.NewRequestWithContext(ctx, method, req.URL, body)
	if err != nil {
		return Response{}, fmt.Errorf("sidecar: inproc: build request: %w", err)
	}
	for _, h := range req.Headers {
		httpReq.Header.Add(h[0], h[1])
	}
	if cookieHeader := p.jar.CookieHeader(req.Session); cookieHeader != "" {
		httpReq.Header.Set("Cookie", cookieHeader)
	}

	resp, err := httpClient.Do(httpReq)
	if err != nil {
		return Response{ID: req.ID, Error: err.Error(), TimingMs: time.Since(start).Milliseconds()}, nil
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return Response{ID: req.ID, Error: err.Error(), TimingMs: time.Since(start).Milliseconds()}, nil
	}

	headers := make(map[string]string, len(resp.Header))
	for k, v := range resp.Header {
		if len(v) > 0 {
			headers[k] = v[0]
		}
	}

	cookies := make(map[string]string)
	for _, c := range resp.Cookies() {
		cookies[c.Name] = c.Value
	}
	p.jar.Merge(req.Session, resp.Cookies())

	finalURL := req.URL
	if resp.Request != nil && resp.Request.URL != nil {
		finalURL = resp.Request.URL.String()
	}

	return Response{
		ID:       req.ID,
		Status:   resp.StatusCode,
		Headers:  headers,
		Body:     string(bodyBytes),
		Cookies:  cookies,
		FinalURL: finalURL,
		TimingMs: time.Since(start).Milliseconds(),
	}, nil
}
