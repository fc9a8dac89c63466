package proxy

import (
	"context"
	"net/http"
	"time"

	"github.com/ZeraTS/ironbullet-sub001/internal/client"
)

// CheckResult is one proxy's outcome from a check run. CheckJob streams
// these on a channel of their own, separate from the runner's HitResult
// channel.
type CheckResult struct {
	Proxy     string
	Alive     bool
	LatencyMs int64
	Error     string
}

// CheckJob probes every proxy in urls against checkURL and reports one
// CheckResult per proxy on the returned channel, closing it when done.
// A proxy is classified Dead if the probe errors, times out, or the
// response status is >= 400; otherwise Alive with the observed latency.
func CheckJob(ctx context.Context, urls []string, checkURL string, timeout time.Duration) <-chan CheckResult {
	out := make(chan CheckResult)

	go func() {
		defer close(out)
		for _, u := range urls {
			select {
			case <-ctx.Done():
				return
			default:
			}
			out <- probe(ctx, u, checkURL, timeout)
		}
	}()

	return out
}

func probe(ctx context.Context, proxyURL, checkURL string, timeout time.Duration) CheckResult {
	httpClient, err := client.NewClient(client.Options{
		Browser: "chrome",
		Proxy:   proxyURL,
		Timeout: timeout,
	})
	if err != nil {
		return CheckResult{Proxy: proxyURL, Alive: false, Error: err.Error()}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, checkURL, nil)
	if err != nil {
		return CheckResult{Proxy: proxyURL, Alive: false, Error: err.Error()}
	}

	start := time.Now()
	resp, err := httpClient.Do(req)
	latency := time.Since(start).Milliseconds()
	if err != nil {
		return CheckResult{Proxy: proxyURL, Alive: false, LatencyMs: latency, Error: err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return CheckResult{Proxy: proxyURL, Alive: false, LatencyMs: latency, Error: resp.Status}
	}
	return CheckResult{Proxy: proxyURL, Alive: true, LatencyMs: latency}
}
