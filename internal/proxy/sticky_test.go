package proxy

import (
	"context"
	"testing"
	"time"
)

func TestStickyPoolAssignsSameProxyForSameKey(t *testing.T) {
	p := NewPool([]string{"http://p1", "http://p2", "http://p3", "http://p4"}, Options{})
	sp := NewStickyPool(p)

	e1 := sp.StickyFor("session-a")
	if e1 == nil {
		t.Fatal("StickyFor returned nil for a fresh pool")
	}
	p.Release(e1)

	e2 := sp.StickyFor("session-a")
	if e2 == nil {
		t.Fatal("StickyFor returned nil on second lookup")
	}
	p.Release(e2)

	if e1.URL != e2.URL {
		t.Fatalf("StickyFor(session-a) = %s then %s, want same proxy both times", e1.URL, e2.URL)
	}
}

func TestStickyPoolDistributesAcrossKeys(t *testing.T) {
	p := NewPool([]string{"http://p1", "http://p2", "http://p3", "http://p4"}, Options{})
	sp := NewStickyPool(p)

	seen := make(map[string]bool)
	for i := 0; i < 20; i++ {
		key := string(rune('a' + i))
		e := sp.StickyFor(key)
		if e == nil {
			t.Fatalf("StickyFor(%s) returned nil", key)
		}
		seen[e.URL] = true
		p.Release(e)
	}
	if len(seen) < 2 {
		t.Fatalf("expected keys to distribute across multiple proxies, all landed on %v", seen)
	}
}

func TestStickyPoolReturnsNilWhenTargetBanned(t *testing.T) {
	p := NewPool([]string{"http://p1"}, Options{BanDuration: time.Hour})
	sp := NewStickyPool(p)

	e := sp.StickyFor("k")
	if e == nil {
		t.Fatal("StickyFor returned nil before any ban")
	}
	p.Release(e)
	p.Ban(context.Background(), e)

	if got := sp.StickyFor("k"); got != nil {
		t.Fatalf("StickyFor after ban = %v, want nil", got)
	}
}
