package corrtable

import (
	"fmt"
	"sync"
	"testing"
)

func TestExclusiveDelivery(t *testing.T) {
	tbl := New[chan string]()

	const n = 500
	var wg sync.WaitGroup
	replies := make([]chan string, n)

	for i := 0; i < n; i++ {
		id := fmt.Sprintf("r%d", i)
		ch := make(chan string, 1)
		replies[i] = ch
		tbl.Insert(id, ch)
	}

	delivered := make([]int32, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := fmt.Sprintf("r%d", i)
			if ch, ok := tbl.Remove(id); ok {
				ch <- id
				delivered[i] = 1
			}
		}(i)
	}
	wg.Wait()

	for i, got := range delivered {
		if got != 1 {
			t.Fatalf("request %d never delivered", i)
		}
	}
	if tbl.Len() != 0 {
		t.Fatalf("expected table drained, got %d entries left", tbl.Len())
	}
}

func TestRemoveIsOnceOnly(t *testing.T) {
	tbl := New[int]()
	tbl.Insert("a", 1)

	var wg sync.WaitGroup
	hits := make(chan bool, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, ok := tbl.Remove("a")
			hits <- ok
		}()
	}
	wg.Wait()
	close(hits)

	trueCount := 0
	for ok := range hits {
		if ok {
			trueCount++
		}
	}
	if trueCount != 1 {
		t.Fatalf("expected exactly one successful remove, got %d", trueCount)
	}
}

func TestDrain(t *testing.T) {
	tbl := New[int]()
	tbl.Insert("a", 1)
	tbl.Insert("b", 2)

	drained := tbl.Drain()
	if len(drained) != 2 {
		t.Fatalf("expected 2 drained entries, got %d", len(drained))
	}
	if tbl.Len() != 0 {
		t.Fatalf("expected table empty after drain")
	}
}
