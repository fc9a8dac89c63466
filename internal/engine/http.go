package engine

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ZeraTS/ironbullet-sub001/internal/block"
	"github.com/ZeraTS/ironbullet-sub001/internal/payload"
	"github.com/ZeraTS/ironbullet-sub001/internal/sidecar"
)

func init() {
	register(block.TypeHttpRequest, handleHttpRequest)
}

// handleHttpRequest is spec.md §4.C's most load-bearing variant: interpolate
// inputs, dispatch through the sidecar Sender (fingerprinting child process
// or in-process backend — both speak the same Request/Response shape), then
// fan the response out into the data namespace, the Result snapshot, and a
// NetworkEntry.
func handleHttpRequest(ec *Context, b block.Block, result *block.Result) error {
	settings, ok := b.Settings.(*block.HttpRequestSettings)
	if !ok {
		return fmt.Errorf("httprequest: settings type mismatch")
	}
	if ec.Sender == nil {
		return fmt.Errorf("httprequest: no sidecar sender configured")
	}

	method := strings.ToUpper(ec.Vars.Interpolate(settings.Method))
	url := ec.Vars.Interpolate(settings.URL)
	body := ec.Vars.Interpolate(settings.Body)

	headers := make([][2]string, len(settings.Headers))
	for i, h := range settings.Headers {
		headers[i] = [2]string{h[0], ec.Vars.Interpolate(h[1])}
	}
	if cookies := buildCookieHeader(ec, settings.CustomCookies); cookies != "" {
		headers = append(headers, [2]string{"Cookie", cookies})
	}

	ja3 := settings.OverrideJA3
	if ec.OverrideJA3 != "" {
		ja3 = ec.OverrideJA3
	}
	http2fp := settings.OverrideHTTP2FP
	if ec.OverrideHTTP2FP != "" {
		http2fp = ec.OverrideHTTP2FP
	}

	followRedirects := settings.FollowRedirects
	sslVerify := settings.SslVerify
	maxRedirects := settings.MaxRedirects

	req := sidecar.Request{
		ID:              newRequestID(),
		Action:          sidecar.ActionRequest,
		Session:         ec.Session,
		Method:          method,
		URL:             url,
		Headers:         headers,
		Body:            body,
		TimeoutMs:       settings.TimeoutMs,
		Proxy:           ec.Vars.Interpolate(settings.Proxy),
		Browser:         settings.Browser,
		JA3:             ja3,
		HTTP2FP:         http2fp,
		FollowRedirects: &followRedirects,
		MaxRedirects:    &maxRedirects,
		SSLVerify:       &sslVerify,
		CustomCiphers:   settings.CustomCiphers,
	}

	result.Request = &block.RequestSnapshot{
		Method:  method,
		URL:     url,
		Headers: headers,
		Body:    body,
	}

	resp, err := ec.Sender.Send(contextBackground(), req)
	if err != nil {
		return fmt.Errorf("httprequest: %w", err)
	}

	result.Response = &block.ResponseSnapshot{
		StatusCode: resp.Status,
		Headers:    resp.Headers,
		Body:       resp.Body,
		FinalURL:   resp.FinalURL,
		Cookies:    resp.Cookies,
		TimingMs:   resp.TimingMs,
	}

	prefix := settings.OutputPrefix
	if prefix == "" {
		prefix = "SOURCE"
	}
	writeHttpResultVars(ec, prefix, resp)

	if ec.SchemaWatcher != nil {
		if mismatches := ec.SchemaWatcher.Check(b.ID, []byte(resp.Body)); len(mismatches) > 0 {
			ec.AppendLog(b.ID, b.Label, payload.FormatMismatches(mismatches))
		}
	}

	cookiesSet := make([]string, 0, len(resp.Cookies))
	for name := range resp.Cookies {
		cookiesSet = append(cookiesSet, name)
	}
	cookiesSent := cookieNamesFromHeader(buildCookieHeader(ec, settings.CustomCookies))

	ec.AppendNetworkEntry(block.NetworkEntry{
		Method:       method,
		URL:          url,
		Status:       resp.Status,
		TimingMs:     resp.TimingMs,
		ResponseSize: len(resp.Body),
		CookiesSet:   cookiesSet,
		CookiesSent:  cookiesSent,
	})

	result.LogMessage = fmt.Sprintf("%s %s -> %d (%dms)", method, url, resp.Status, resp.TimingMs)
	return nil
}

// writeHttpResultVars fans an HTTP response out into the data namespace
// under prefix, per spec.md §4.C: {prefix}, {prefix}.STATUS, {prefix}.URL,
// {prefix}.HEADERS.<lowercased-name>, {prefix}.COOKIES.<name>, plus the
// legacy RESPONSECODE/ADDRESS aliases.
func writeHttpResultVars(ec *Context, prefix string, resp sidecar.Response) {
	ec.Vars.SetData(prefix, resp.Body)
	ec.Vars.SetData(prefix+".STATUS", strconv.Itoa(resp.Status))
	ec.Vars.SetData(prefix+".URL", resp.FinalURL)
	ec.Vars.SetData("RESPONSECODE", strconv.Itoa(resp.Status))
	ec.Vars.SetData("ADDRESS", resp.FinalURL)

	var headerDump strings.Builder
	for name, value := range resp.Headers {
		ec.Vars.SetData(prefix+".HEADERS."+strings.ToLower(name), value)
		headerDump.WriteString(name)
		headerDump.WriteString(": ")
		headerDump.WriteString(value)
		headerDump.WriteString("\n")
	}
	ec.Vars.SetData(prefix+".HEADERS", headerDump.String())

	var cookieDump strings.Builder
	for name, value := range resp.Cookies {
		ec.Vars.SetData(prefix+".COOKIES."+name, value)
		cookieDump.WriteString(name)
		cookieDump.WriteString("=")
		cookieDump.WriteString(value)
		cookieDump.WriteString("; ")
	}
	ec.Vars.SetData(prefix+".COOKIES", cookieDump.String())
}

// buildCookieHeader folds a block's one-"name=value"-per-line custom
// cookie setting (after interpolation) into a single "Cookie" header value.
func buildCookieHeader(ec *Context, customCookies string) string {
	if customCookies == "" {
		return ""
	}
	lines := strings.Split(ec.Vars.Interpolate(customCookies), "\n")
	parts := make([]string, 0, len(lines))
	for _, l := range lines {
		l = strings.TrimSpace(l)
		if l != "" {
			parts = append(parts, l)
		}
	}
	return strings.Join(parts, "; ")
}

func cookieNamesFromHeader(cookieHeader string) []string {
	if cookieHeader == "" {
		return nil
	}
	parts := strings.Split(cookieHeader, ";")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if eq := strings.IndexByte(p, '='); eq > 0 {
			out = append(out, p[:eq])
		}
	}
	return out
}
