package proxy

import (
	"hash/fnv"
	"sync"
	"time"

	rendezvous "github.com/dgryski/go-rendezvous"
)

// StickyPool wraps a Pool with rendezvous hashing so repeated calls for the
// same session key land on the same proxy, as long as that proxy stays in
// the live set, so a record retried after a Retry status can keep hitting
// the proxy it already built up cookie/TLS-session state against. No
// proxy_settings field selects it; the runner draws proxies through
// Pool.Next.
//
// Rendezvous (highest random weight) hashing is used instead of a plain
// mod-N hash so that banning or adding a proxy only remaps the sessions
// that were assigned to that one proxy, not the whole keyspace.
type StickyPool struct {
	pool *Pool

	mu   sync.RWMutex
	ring *rendezvous.Rendezvous
	urls []string
}

// NewStickyPool builds a StickyPool over pool's current proxy set. Proxies
// added to pool after construction are not picked up automatically — call
// Rebuild after any LoadProxiesFromFile/NewPool change.
func NewStickyPool(pool *Pool) *StickyPool {
	sp := &StickyPool{pool: pool}
	sp.Rebuild()
	return sp
}

// Rebuild recomputes the hash ring from the pool's current proxy list.
func (sp *StickyPool) Rebuild() {
	sp.mu.Lock()
	defer sp.mu.Unlock()

	sp.pool.mu.Lock()
	urls := make([]string, len(sp.pool.entries))
	for i, e := range sp.pool.entries {
		urls[i] = e.URL
	}
	sp.pool.mu.Unlock()

	sp.urls = urls
	sp.ring = rendezvous.New(urls, fnvHash)
}

// StickyFor returns the proxy rendezvous-hashing assigns to sessionKey and
// increments its in-use counter. If that proxy is currently banned or at
// its concurrent-use cap, StickyFor returns nil; it does not fall back to
// another proxy.
func (sp *StickyPool) StickyFor(sessionKey string) *Entry {
	sp.mu.RLock()
	ring := sp.ring
	sp.mu.RUnlock()
	if ring == nil || len(sp.urls) == 0 {
		return nil
	}

	target := ring.Lookup(sessionKey)

	sp.pool.mu.Lock()
	defer sp.pool.mu.Unlock()

	now := time.Now()
	for _, e := range sp.pool.entries {
		if e.URL != target {
			continue
		}
		if e.isBanned(now) {
			return nil
		}
		e.mu.Lock()
		if sp.pool.concurrentPerProxy > 0 && e.inUse >= sp.pool.concurrentPerProxy {
			e.mu.Unlock()
			return nil
		}
		e.inUse++
		e.mu.Unlock()
		return e
	}
	return nil
}

func fnvHash(s string) uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(s))
	return h.Sum64()
}
