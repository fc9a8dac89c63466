package runner

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/ZeraTS/ironbullet-sub001/internal/block"
	"github.com/ZeraTS/ironbullet-sub001/internal/pipeline"
	"github.com/ZeraTS/ironbullet-sub001/internal/proxy"
	"github.com/ZeraTS/ironbullet-sub001/internal/sidecar"
)

// keyCheckPipeline builds a Pipeline whose single KeyCheck block yields
// status for every record, based on a SetVariable writing input.USER
// through a capturing user variable first.
func keyCheckPipeline(status string) *pipeline.Pipeline {
	return &pipeline.Pipeline{
		Name: "fixture",
		Blocks: []block.Block{
			{ID: "set", Type: block.TypeSetVariable, Settings: &block.SetVariableSettings{
				Name: "CAPTURED", Value: "<input.USER>", Capture: true,
			}},
			{ID: "check", Type: block.TypeKeyCheck, Settings: &block.KeyCheckSettings{
				Keychains: []block.Keychain{{
					Status: status,
					Conditions: []block.Condition{{
						Source: "go", Comparator: block.CompEqualTo, Value: "go",
					}},
				}},
			}},
		},
		DataSettings:   pipeline.DataSettings{Separator: ":", Slices: []string{"USER", "PASS"}},
		RunnerSettings: pipeline.RunnerSettings{ThreadCount: 4},
	}
}

func recordsFromLines(lines []string, sep string, slots []string) []Record {
	out := make([]Record, len(lines))
	for i, l := range lines {
		out[i] = SplitRecord(l, sep, slots)
	}
	return out
}

type noopSender struct{}

func (noopSender) Send(_ context.Context, req sidecar.Request) (sidecar.Response, error) {
	return sidecar.Response{ID: req.ID, Status: 200}, nil
}

func TestOrchestratorStreamsHitsForSuccessStatus(t *testing.T) {
	p := keyCheckPipeline("Success")
	lines := []string{"alice:pw1", "bob:pw2", "carol:pw3"}
	pool := NewDataPool(recordsFromLines(lines, ":", p.DataSettings.Slices), 0, 0)

	o := NewOrchestrator(p, pool, nil, noopSender{}, nil, 10)

	var hits []HitResult
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for h := range o.Hits {
			hits = append(hits, h)
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	o.Run(ctx)
	wg.Wait()

	if len(hits) != len(lines) {
		t.Fatalf("got %d hits, want %d", len(hits), len(lines))
	}
	for _, h := range hits {
		if h.Status != "Success" {
			t.Errorf("hit status = %q, want Success", h.Status)
		}
		if h.Captures["CAPTURED"] == "" {
			t.Errorf("expected CAPTURED to be set, got %+v", h.Captures)
		}
	}

	snap := o.Stats.Snapshot()
	if snap.SuccessCount != int64(len(lines)) {
		t.Errorf("SuccessCount = %d, want %d", snap.SuccessCount, len(lines))
	}
	if snap.Attempted != int64(len(lines)) {
		t.Errorf("Attempted = %d, want %d", snap.Attempted, len(lines))
	}
}

func TestOrchestratorEscalatesExhaustedRetryToFail(t *testing.T) {
	p := keyCheckPipeline("Retry")
	p.RunnerSettings.MaxRetries = 1
	pool := NewDataPool(recordsFromLines([]string{"x:y"}, ":", p.DataSettings.Slices), 0, 0)

	o := NewOrchestrator(p, pool, nil, noopSender{}, nil, 10)

	go func() {
		for range o.Hits {
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	o.Run(ctx)

	snap := o.Stats.Snapshot()
	if snap.FailCount != 1 {
		t.Fatalf("FailCount = %d, want 1 (Retry exhausted should escalate to Fail)", snap.FailCount)
	}
	if snap.RetryCount != 1 {
		t.Fatalf("RetryCount = %d, want 1 (one retry attempt recorded before escalation)", snap.RetryCount)
	}
}

func TestOrchestratorDoesNotStreamHitForFailStatus(t *testing.T) {
	p := keyCheckPipeline("Fail")
	pool := NewDataPool(recordsFromLines([]string{"a:b"}, ":", p.DataSettings.Slices), 0, 0)
	o := NewOrchestrator(p, pool, nil, noopSender{}, nil, 10)

	var hits int
	go func() {
		for range o.Hits {
			hits++
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	o.Run(ctx)

	if hits != 0 {
		t.Fatalf("got %d hits for a Fail status, want 0", hits)
	}
}

type fakeProxyPool struct {
	mu       sync.Mutex
	banned   []string
	failures []string
	entries  []*proxy.Entry
	idx      int
}

func newFakeProxyPool(urls ...string) *fakeProxyPool {
	fp := &fakeProxyPool{}
	for _, u := range urls {
		fp.entries = append(fp.entries, &proxy.Entry{URL: u})
	}
	return fp
}

func (f *fakeProxyPool) Next(_ context.Context) (*proxy.Entry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.entries) == 0 {
		return nil, proxy.ErrNoProxyAvailable{}
	}
	e := f.entries[f.idx%len(f.entries)]
	f.idx++
	return e, nil
}
func (f *fakeProxyPool) Release(*proxy.Entry) {}
func (f *fakeProxyPool) ReportSuccess(*proxy.Entry) {}
func (f *fakeProxyPool) ReportFailure(_ context.Context, e *proxy.Entry) {
	f.mu.Lock()
	f.failures = append(f.failures, e.URL)
	f.mu.Unlock()
}
func (f *fakeProxyPool) Ban(_ context.Context, e *proxy.Entry) {
	f.mu.Lock()
	f.banned = append(f.banned, e.URL)
	f.mu.Unlock()
}

func TestOrchestratorBansProxyOnBanStatus(t *testing.T) {
	p := keyCheckPipeline("Ban")
	p.ProxySettings.Mode = proxy.ModeDefault
	pool := NewDataPool(recordsFromLines([]string{"a:b"}, ":", p.DataSettings.Slices), 0, 0)
	fp := newFakeProxyPool("http://p1")

	o := NewOrchestrator(p, pool, fp, noopSender{}, nil, 10)
	go func() {
		for range o.Hits {
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	o.Run(ctx)

	if len(fp.banned) != 1 || fp.banned[0] != "http://p1" {
		t.Fatalf("expected proxy http://p1 banned, got %v", fp.banned)
	}
}

// TestOrchestratorReportsFailureNotBanOnRetryExhaustion covers spec.md §8's
// S2 scenario: retry exhaustion must feed the proxy pool's own
// consecutive-fail counter via ReportFailure, not bypass it with a direct
// Ban — banning on exhaustion regardless of max_retries_before_ban would
// ban a proxy far too eagerly.
func TestOrchestratorReportsFailureNotBanOnRetryExhaustion(t *testing.T) {
	p := keyCheckPipeline("Retry")
	p.RunnerSettings.MaxRetries = 1
	p.ProxySettings.Mode = proxy.ModeDefault
	pool := NewDataPool(recordsFromLines([]string{"x:y"}, ":", p.DataSettings.Slices), 0, 0)
	fp := newFakeProxyPool("http://p1")

	o := NewOrchestrator(p, pool, fp, noopSender{}, nil, 10)
	go func() {
		for range o.Hits {
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	o.Run(ctx)

	if len(fp.banned) != 0 {
		t.Fatalf("expected no direct ban on retry exhaustion, got banned=%v", fp.banned)
	}
	if len(fp.failures) != 2 {
		t.Fatalf("expected ReportFailure once per attempt (2 attempts), got %v", fp.failures)
	}
}
