// Package proxy sources proxies from files/inline text, rotates among the
// ones not currently temp-banned, and tracks per-proxy concurrent-use and
// consecutive-failure counters.
//
// It generalizes the teacher's proxy.ProxyManager (a flat round-robin list
// with no ban/concurrency concept at all) into the full policy spec.md
// §4.E describes: temporary bans with lazy reinstatement, a concurrent-use
// cap, and a retry-before-ban counter, plus an optional Redis-backed ban
// store so ban state survives a process restart.
package proxy

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"
)

// Entry is one proxy's live bookkeeping state.
type Entry struct {
	URL string

	mu               sync.Mutex
	inUse            int
	consecutiveFails int
	bannedUntil      time.Time
}

func (e *Entry) isBanned(now time.Time) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.bannedUntil.IsZero() {
		return false
	}
	if !now.Before(e.bannedUntil) {
		// Lazy reinstatement: the ban has lapsed, clear it here so the next
		// caller sees a live proxy without a separate sweep goroutine.
		e.bannedUntil = time.Time{}
		e.consecutiveFails = 0
	}
	return !e.bannedUntil.IsZero()
}

// BanStore persists ban state outside the process so it survives a
// restart. InMemoryBanStore (the default) and a Redis-backed alternative
// both implement it.
type BanStore interface {
	// IsBanned reports whether proxyURL is currently banned.
	IsBanned(ctx context.Context, proxyURL string) (bool, error)
	// Ban marks proxyURL banned until now+duration.
	Ban(ctx context.Context, proxyURL string, duration time.Duration) error
}

// InMemoryBanStore is the zero-configuration default BanStore: ban state
// lives only as long as the process does, same as the teacher's in-memory
// proxy list.
type InMemoryBanStore struct {
	mu   sync.Mutex
	bans map[string]time.Time
}

// NewInMemoryBanStore returns an empty InMemoryBanStore.
func NewInMemoryBanStore() *InMemoryBanStore {
	return &InMemoryBanStore{bans: make(map[string]time.Time)}
}

// IsBanned reports whether proxyURL's ban timestamp is still in the future.
func (s *InMemoryBanStore) IsBanned(_ context.Context, proxyURL string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	until, ok := s.bans[proxyURL]
	if !ok {
		return false, nil
	}
	return time.Now().Before(until), nil
}

// Ban records proxyURL as banned until now+duration.
func (s *InMemoryBanStore) Ban(_ context.Context, proxyURL string, duration time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bans[proxyURL] = time.Now().Add(duration)
	return nil
}

// Mode mirrors spec.md's proxy_settings.mode: whether the runner uses
// proxies at all and, if so, how it picks among them.
type Mode string

const (
	ModeNone   Mode = "None"
	ModeDefault Mode = "Default"
	ModeRotate Mode = "Rotate"
)

// Pool rotates among loaded proxies, honoring temp-bans, an optional
// concurrent-use cap, and a retry-before-ban policy.
type Pool struct {
	mu      sync.Mutex
	entries []*Entry
	cursor  int

	concurrentPerProxy int
	maxRetriesBeforeBan int
	banDuration         time.Duration

	store BanStore
}

// Options configures a new Pool. A zero value for ConcurrentPerProxy or
// MaxRetriesBeforeBan means "unbounded" / "never auto-ban on retries" per
// spec.md §4.E's "non-zero" gating language.
type Options struct {
	ConcurrentPerProxy  int
	MaxRetriesBeforeBan int
	BanDuration         time.Duration
	Store               BanStore
}

// NewPool builds a Pool over proxyURLs (already deduplicated by the
// caller) with the given policy knobs. A nil Store defaults to an
// InMemoryBanStore.
func NewPool(proxyURLs []string, opts Options) *Pool {
	store := opts.Store
	if store == nil {
		store = NewInMemoryBanStore()
	}
	entries := make([]*Entry, len(proxyURLs))
	for i, u := range proxyURLs {
		entries[i] = &Entry{URL: u}
	}
	return &Pool{
		entries:             entries,
		concurrentPerProxy:  opts.ConcurrentPerProxy,
		maxRetriesBeforeBan: opts.MaxRetriesBeforeBan,
		banDuration:         opts.BanDuration,
		store:               store,
	}
}

// LoadProxiesFromFile reads one proxy URL per line, skipping blank lines
// and lines beginning with '#' — the same format the teacher's
// proxy.LoadProxies accepts.
func LoadProxiesFromFile(filename string) ([]string, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("proxy: open %s: %w", filename, err)
	}
	defer f.Close()

	var out []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		out = append(out, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("proxy: scan %s: %w", filename, err)
	}
	return out, nil
}

// Count returns the number of proxies loaded into the pool, live or banned.
func (p *Pool) Count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.entries)
}

// ErrNoProxyAvailable is returned by Next when every loaded proxy is
// currently banned or at its concurrent-use cap.
type ErrNoProxyAvailable struct{}

func (ErrNoProxyAvailable) Error() string { return "proxy: no proxy available" }

// Next returns the next live proxy round-robin among those not currently
// temp-banned or at their concurrent-use cap, and increments its in-use
// counter. Callers must call Release when done with it.
func (p *Pool) Next(ctx context.Context) (*Entry, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	n := len(p.entries)
	if n == 0 {
		return nil, ErrNoProxyAvailable{}
	}

	now := time.Now()
	for i := 0; i < n; i++ {
		idx := (p.cursor + i) % n
		e := p.entries[idx]

		if e.isBanned(now) {
			continue
		}
		if banned, err := p.store.IsBanned(ctx, e.URL); err == nil && banned {
			continue
		}

		e.mu.Lock()
		if p.concurrentPerProxy > 0 && e.inUse >= p.concurrentPerProxy {
			e.mu.Unlock()
			continue
		}
		e.inUse++
		e.mu.Unlock()

		p.cursor = (idx + 1) % n
		return e, nil
	}
	return nil, ErrNoProxyAvailable{}
}

// Release decrements e's in-use counter. Call exactly once per successful
// Next call, regardless of the job's outcome.
func (p *Pool) Release(e *Entry) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.inUse > 0 {
		e.inUse--
	}
}

// ReportSuccess resets e's consecutive-failure counter.
func (p *Pool) ReportSuccess(e *Entry) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.consecutiveFails = 0
}

// ReportFailure increments e's consecutive-failure counter and bans it
// outright once maxRetriesBeforeBan is reached (0 disables auto-ban here;
// callers may still call Ban directly for an immediate terminal Ban
// status from the pipeline engine).
func (p *Pool) ReportFailure(ctx context.Context, e *Entry) {
	e.mu.Lock()
	e.consecutiveFails++
	fails := e.consecutiveFails
	e.mu.Unlock()

	if p.maxRetriesBeforeBan > 0 && fails >= p.maxRetriesBeforeBan {
		p.Ban(ctx, e)
	}
}

// Ban marks e banned until now+banDuration, both locally and in the
// configured BanStore.
func (p *Pool) Ban(ctx context.Context, e *Entry) {
	e.mu.Lock()
	e.bannedUntil = time.Now().Add(p.banDuration)
	e.mu.Unlock()

	_ = p.store.Ban(ctx, e.URL, p.banDuration)
}
