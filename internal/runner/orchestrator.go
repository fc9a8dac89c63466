// Package runner binds a Pipeline to a DataPool and an optional proxy
// pool and drives a bounded, cancellable worker pool over it — the Runner
// Orchestrator of spec.md §4.F, generalizing the teacher's
// worker.WorkerPool/scheduler.Scheduler pairing (a fixed goroutine pool
// fed by a per-session job closure) into record-at-a-time execution with
// retry/ban classification and a backpressured hit stream.
package runner

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/ZeraTS/ironbullet-sub001/internal/engine"
	"github.com/ZeraTS/ironbullet-sub001/internal/payload"
	"github.com/ZeraTS/ironbullet-sub001/internal/pipeline"
	"github.com/ZeraTS/ironbullet-sub001/internal/plugin"
	"github.com/ZeraTS/ironbullet-sub001/internal/proxy"
	"github.com/ZeraTS/ironbullet-sub001/internal/sidecar"
)

// HitResult is one Success/Custom record streamed out on Hits, matching
// spec.md §6's "Hit record format": { data_line, captures, status, proxy,
// timestamp_ms }.
type HitResult struct {
	DataLine    string
	Captures    map[string]string
	Status      string
	Proxy       string
	TimestampMs int64
}

// ProxyPool is the subset of *proxy.Pool an Orchestrator needs, satisfied
// directly by *proxy.Pool — narrowed to an interface so tests can supply a
// fake without standing up a real proxy list.
type ProxyPool interface {
	Next(ctx context.Context) (*proxy.Entry, error)
	Release(e *proxy.Entry)
	ReportSuccess(e *proxy.Entry)
	ReportFailure(ctx context.Context, e *proxy.Entry)
	Ban(ctx context.Context, e *proxy.Entry)
}

// Orchestrator runs one Pipeline's main loop: pull a record, acquire a
// proxy, execute the pipeline, classify the result, repeat until the data
// pool is exhausted or ctx is cancelled.
type Orchestrator struct {
	Pipeline       *pipeline.Pipeline
	DataPool       *DataPool
	Proxies        ProxyPool // nil when proxy_settings.mode is None
	Sender         sidecar.Sender
	PluginRegistry plugin.Registry
	Hits           chan HitResult

	Stats *Stats

	schemaWatcher *payload.WatcherSet

	policy Policy

	activeLimit int64 // workers with index >= this park themselves
	paused      int32 // 1 while Pause is in effect
}

// NewOrchestrator builds an Orchestrator. hitsBufferSize sizes the bounded
// Hits channel; writers block once it fills, per spec.md §4.F's
// backpressure rule.
func NewOrchestrator(p *pipeline.Pipeline, dataPool *DataPool, proxies ProxyPool, sender sidecar.Sender, registry plugin.Registry, hitsBufferSize int) *Orchestrator {
	rs := p.RunnerSettings
	threadCount := rs.ThreadCount
	if threadCount <= 0 {
		threadCount = 1
	}
	if hitsBufferSize <= 0 {
		hitsBufferSize = 1
	}
	return &Orchestrator{
		Pipeline:       p,
		DataPool:       dataPool,
		Proxies:        proxies,
		Sender:         sender,
		PluginRegistry: registry,
		Hits:           make(chan HitResult, hitsBufferSize),
		Stats:          NewStats(),
		schemaWatcher:  payload.NewWatcherSet(),
		policy: NewPolicy(rs.ContinueStatuses, rs.MaxRetries, rs.LowerThreadsOnRetry,
			rs.RetryThreadReductionPct, rs.PauseOnRatelimit, rs.PauseMs),
		activeLimit: int64(threadCount),
	}
}

// Pause suspends every worker at its next loop-head check, without
// preempting an in-flight record (spec.md §5: "in-flight blocks are not
// preempted").
func (o *Orchestrator) Pause() { atomic.StoreInt32(&o.paused, 1) }

// Resume un-suspends workers paused via Pause.
func (o *Orchestrator) Resume() { atomic.StoreInt32(&o.paused, 0) }

func (o *Orchestrator) isPaused() bool { return atomic.LoadInt32(&o.paused) == 1 }

// Run launches the worker pool and blocks until the data pool is
// exhausted or ctx is cancelled (the orchestrator's "stop" — workers
// finish their in-flight record and exit). Hits is closed before Run
// returns, so a range over it terminates naturally.
func (o *Orchestrator) Run(ctx context.Context) {
	defer close(o.Hits)

	rs := o.Pipeline.RunnerSettings
	threadCount := rs.ThreadCount
	if threadCount <= 0 {
		threadCount = 1
	}

	var wg sync.WaitGroup
	for i := 0; i < threadCount; i++ {
		if ctx.Err() != nil {
			break
		}
		if rs.StartThreadsGradually && i > 0 {
			select {
			case <-ctx.Done():
			case <-time.After(time.Duration(rs.GradualDelayMs) * time.Millisecond):
			}
		}
		if ctx.Err() != nil {
			break
		}

		workerIndex := int64(i)
		wg.Add(1)
		o.Stats.AddThreadsActive(1)
		go func() {
			defer wg.Done()
			defer o.Stats.AddThreadsActive(-1)
			o.workerLoop(ctx, workerIndex)
		}()
	}
	wg.Wait()
}

// workerLoop is one goroutine's single-threaded cooperative execution
// path: pull, process, repeat, until the pool is empty or ctx ends.
func (o *Orchestrator) workerLoop(ctx context.Context, workerIndex int64) {
	ranStartup := false
	for {
		if ctx.Err() != nil {
			return
		}
		for o.isPaused() {
			select {
			case <-ctx.Done():
				return
			case <-time.After(50 * time.Millisecond):
			}
		}
		if workerIndex >= atomic.LoadInt64(&o.activeLimit) {
			select {
			case <-ctx.Done():
				return
			case <-time.After(100 * time.Millisecond):
			}
			continue
		}

		record, _, ok := o.DataPool.Next()
		if !ok {
			return
		}
		o.processRecord(ctx, record, &ranStartup)
	}
}

// processRecord runs one input record through the pipeline, retrying per
// policy, and streams a hit on Success/Custom (spec.md §4.F steps 2-7).
func (o *Orchestrator) processRecord(ctx context.Context, record Record, ranStartup *bool) {
	o.Stats.IncAttempted()

	attempt := 0
	for {
		var proxyEntry *proxy.Entry
		var proxyURL string
		if o.Proxies != nil && o.Pipeline.ProxySettings.Mode != proxy.ModeNone {
			e, err := o.Proxies.Next(ctx)
			if err != nil {
				o.Stats.Record(engine.StatusError)
				return
			}
			proxyEntry = e
			proxyURL = e.URL
		}

		ec := engine.New(o.Sender, uuid.New().String(), record.Slots)
		ec.PluginRegistry = o.PluginRegistry
		ec.SchemaWatcher = o.schemaWatcher
		ec.Proxy = proxyURL

		if !*ranStartup && len(o.Pipeline.StartupBlocks) > 0 {
			_ = engine.ExecuteBlocks(ec, o.Pipeline.StartupBlocks)
			*ranStartup = true
		}
		_ = engine.ExecuteBlocks(ec, o.Pipeline.Blocks)

		status := ec.Status
		willRetry := o.policy.ShouldRetry(status, attempt)
		exhaustedContinue := o.policy.ContinueStatuses[status] && !willRetry

		if proxyEntry != nil {
			switch {
			case status == engine.StatusBan:
				o.Proxies.Ban(ctx, proxyEntry)
			case status == engine.StatusFail, status == engine.StatusError, status == engine.StatusRetry:
				// Retry exhaustion also lands here: every attempt against this
				// proxy, including the one that exhausts retries, counts
				// toward the pool's own consecutive-fail threshold rather
				// than banning unconditionally (spec.md §8 S2).
				o.Proxies.ReportFailure(ctx, proxyEntry)
			default:
				o.Proxies.ReportSuccess(proxyEntry)
			}
			o.Proxies.Release(proxyEntry)
		}

		if willRetry {
			o.Stats.Record(engine.StatusRetry)
			attempt++
			continue
		}

		finalStatus := status
		if exhaustedContinue {
			finalStatus = engine.StatusFail
		}
		o.Stats.Record(finalStatus)

		if status == engine.StatusBan || (status == engine.StatusRetry && exhaustedContinue) {
			if o.policy.LowerThreadsOnRetry {
				o.reduceActiveLimit()
			}
			if o.policy.PauseOnRatelimit && o.policy.PauseMs > 0 {
				select {
				case <-ctx.Done():
				case <-time.After(time.Duration(o.policy.PauseMs) * time.Millisecond):
				}
			}
		}

		if finalStatus == engine.StatusSuccess || finalStatus == engine.StatusCustom {
			hit := HitResult{
				DataLine:    record.Line,
				Captures:    ec.Vars.Captured(),
				Status:      string(finalStatus),
				Proxy:       proxyURL,
				TimestampMs: time.Now().UnixMilli(),
			}
			select {
			case o.Hits <- hit:
			case <-ctx.Done():
			}
		}
		return
	}
}

// reduceActiveLimit lowers the worker concurrency ceiling by
// RetryThreadReductionPct percent, never below 1 (spec.md §4.F's
// lower_threads_on_retry).
func (o *Orchestrator) reduceActiveLimit() {
	pct := o.policy.RetryThreadReductionPct
	if pct <= 0 {
		return
	}
	for {
		cur := atomic.LoadInt64(&o.activeLimit)
		if cur <= 1 {
			return
		}
		reduced := cur - (cur*int64(pct))/100
		if reduced < 1 {
			reduced = 1
		}
		if reduced >= cur {
			reduced = cur - 1
		}
		if atomic.CompareAndSwapInt64(&o.activeLimit, cur, reduced) {
			return
		}
	}
}
